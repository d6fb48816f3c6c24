// Copyright 2023 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package markdown

import "bytes"

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// tabStop is the column multiple tabs expand to.
const tabStop = 4

// normalize prepares a document for block parsing.
// It strips a leading byte order mark,
// removes link reference definitions (adding them to refs),
// expands tabs and converts every line ending to a single '\n'.
// The result ends with a newline unless it is empty.
func normalize(input []byte, refs *referenceTable) []byte {
	input = bytes.TrimPrefix(input, utf8BOM)
	text := make([]byte, 0, len(input)+len(input)/8)
	for beg := 0; beg < len(input); {
		if n := parseReference(input[beg:], refs); n > 0 {
			beg += n
			continue
		}

		end := beg
		for end < len(input) && !isLineEnding(input[end]) {
			end++
		}
		if end > beg {
			text = expandTabs(text, input[beg:end])
		}
		for end < len(input) && isLineEnding(input[end]) {
			// Emit one newline per line ending: "\r\n" counts once.
			if input[end] == '\n' || end+1 >= len(input) || input[end+1] != '\n' {
				text = append(text, '\n')
			}
			end++
		}
		beg = end
	}
	if len(text) > 0 && text[len(text)-1] != '\n' {
		text = append(text, '\n')
	}
	return text
}

// expandTabs appends line to dst, replacing each tab with enough spaces
// to reach the next tab stop.
// UTF-8 continuation bytes do not count as columns.
func expandTabs(dst, line []byte) []byte {
	col := 0
	for i := 0; i < len(line); {
		org := i
		for i < len(line) && line[i] != '\t' {
			if line[i]&0xc0 != 0x80 {
				col++
			}
			i++
		}
		dst = append(dst, line[org:i]...)
		if i >= len(line) {
			break
		}
		for {
			dst = append(dst, ' ')
			col++
			if col%tabStop == 0 {
				break
			}
		}
		i++
	}
	return dst
}
