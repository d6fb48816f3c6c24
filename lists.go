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

// parseList renders the list at the beginning of data.
// It returns the number of bytes consumed.
func (r *renderer) parseList(out *bytes.Buffer, data []byte, flags ListFlags) int {
	if r.cb.ListStart != nil {
		r.cb.ListStart(out, flags, r.opaque)
	}
	work, release := r.pool.acquire(blockScope)
	defer release()

	i := 0
	for i < len(data) {
		n := r.parseListItem(work, data[i:], &flags)
		i += n
		if n == 0 || flags&ListItemEnd != 0 {
			break
		}
	}
	if r.cb.List != nil {
		r.cb.List(out, work.Bytes(), flags, r.opaque)
	}
	return i
}

// parseListItem renders the list item at the beginning of data.
// It returns the number of bytes consumed, or zero if data does not begin
// with a list marker.
//
// flags is shared by all the items of a list.
// parseListItem sets ListItemBlock once any item contains a blank line
// and ListItemEnd when the item is the last one in the list.
func (r *renderer) parseListItem(out *bytes.Buffer, data []byte, flags *ListFlags) int {
	// Indentation of the marker, to recognize siblings.
	orgpre := 0
	for orgpre < 3 && orgpre < len(data) && data[orgpre] == ' ' {
		orgpre++
	}
	beg := prefixUnorderedItem(data)
	if beg == 0 {
		beg = prefixOrderedItem(data)
	}
	if beg == 0 {
		return 0
	}

	work, releaseWork := r.pool.acquire(spanScope)
	defer releaseWork()
	inter, releaseInter := r.pool.acquire(spanScope)
	defer releaseInter()

	// The first line goes in as is.
	end := beg + lineLen(data[beg:])
	work.Write(data[beg:end])
	beg = end

	// sublist is the offset in work where a nested list begins.
	sublist := 0
	inEmpty := false
	hasInsideEmpty := false
	inFence := false
lines:
	for beg < len(data) {
		end = beg + lineLen(data[beg:])
		line := data[beg:end]
		if isEmpty(line) > 0 {
			inEmpty = true
			beg = end
			continue
		}

		pre := 0
		for pre < 4 && pre < len(line) && line[pre] == ' ' {
			pre++
		}
		line = line[pre:]

		if r.ext&FencedCode != 0 && isCodeFence(line) > 0 {
			inFence = !inFence
		}
		// Markers inside a fenced block are code, not items.
		hasNextUnordered, hasNextOrdered := false, false
		if !inFence {
			hasNextUnordered = prefixUnorderedItem(line) > 0
			hasNextOrdered = prefixOrderedItem(line) > 0
		}

		// After a blank line, a marker of the other kind starts a new list.
		if inEmpty && ((*flags&ListOrdered != 0 && hasNextUnordered) || (*flags&ListOrdered == 0 && hasNextOrdered)) {
			*flags |= ListItemEnd
			break lines
		}

		switch {
		case (hasNextUnordered && !isHRule(line)) || hasNextOrdered:
			if inEmpty {
				hasInsideEmpty = true
			}
			if pre == orgpre {
				// Sibling item.
				break lines
			}
			if sublist == 0 {
				sublist = work.Len()
			}
		case inEmpty && pre == 0:
			// Unindented text after a blank line ends the list.
			*flags |= ListItemEnd
			break lines
		case inEmpty:
			work.WriteByte('\n')
			hasInsideEmpty = true
		}

		inEmpty = false
		work.Write(line)
		beg = end
	}

	if hasInsideEmpty {
		*flags |= ListItemBlock
	}
	text := work.Bytes()
	hasSublist := sublist > 0 && sublist < len(text)
	switch {
	case *flags&ListItemBlock != 0 && hasSublist:
		r.parseBlock(inter, text[:sublist])
		r.parseBlock(inter, text[sublist:])
	case *flags&ListItemBlock != 0:
		r.parseBlock(inter, text)
	case hasSublist:
		r.parseInline(inter, text[:sublist])
		r.parseBlock(inter, text[sublist:])
	default:
		r.parseInline(inter, text)
	}

	if r.cb.ListItem != nil {
		r.cb.ListItem(out, inter.Bytes(), *flags, r.opaque)
	}
	return beg
}
