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

// parseTable renders the table at the beginning of data.
// It returns the number of bytes consumed, or zero if data does not begin
// with a table header and underline.
func (r *renderer) parseTable(out *bytes.Buffer, data []byte) int {
	header, releaseHeader := r.pool.acquire(spanScope)
	defer releaseHeader()
	body, releaseBody := r.pool.acquire(blockScope)
	defer releaseBody()

	i, columns := r.parseTableHeader(header, data)
	if i == 0 {
		return 0
	}
	for i < len(data) {
		rowStart := i
		pipes := 0
		for i < len(data) && data[i] != '\n' {
			if data[i] == '|' {
				pipes++
			}
			i++
		}
		if pipes == 0 || i == len(data) {
			i = rowStart
			break
		}
		r.parseTableRow(body, data[rowStart:i], columns, 0)
		i++
	}

	if r.cb.Table != nil {
		r.cb.Table(out, header.Bytes(), body.Bytes(), r.opaque)
	}
	return i
}

// parseTableHeader renders the header row at the beginning of data.
// It returns the position after the underline row
// and the alignment of each column,
// or zero if data does not begin with a valid header.
func (r *renderer) parseTableHeader(out *bytes.Buffer, data []byte) (end int, columns []TableFlags) {
	i := 0
	pipes := 0
	for i < len(data) && data[i] != '\n' {
		if data[i] == '|' {
			pipes++
		}
		i++
	}
	if i == len(data) || pipes == 0 {
		return 0, nil
	}
	headerEnd := i
	for headerEnd > 0 && isWhitespace(data[headerEnd-1]) {
		headerEnd--
	}
	if data[0] == '|' {
		pipes--
	}
	if headerEnd > 0 && data[headerEnd-1] == '|' {
		pipes--
	}
	if pipes < 0 {
		return 0, nil
	}
	columns = make([]TableFlags, pipes+1)

	// Underline row.
	i++
	if i < len(data) && data[i] == '|' {
		i++
	}
	underEnd := i
	for underEnd < len(data) && data[underEnd] != '\n' {
		underEnd++
	}
	col := 0
	for ; col < len(columns) && i < underEnd; col++ {
		dashes := 0
		i = skipSpaces(data[:underEnd], i)
		if i < underEnd && data[i] == ':' {
			i++
			columns[col] |= TableAlignLeft
			dashes++
		}
		for i < underEnd && data[i] == '-' {
			i++
			dashes++
		}
		if i < underEnd && data[i] == ':' {
			i++
			columns[col] |= TableAlignRight
			dashes++
		}
		i = skipSpaces(data[:underEnd], i)
		if i < underEnd && data[i] != '|' {
			break
		}
		if dashes < 3 {
			break
		}
		i++
	}
	if col < len(columns) {
		return 0, nil
	}

	r.parseTableRow(out, data[:headerEnd], columns, TableHeader)
	if underEnd < len(data) {
		underEnd++
	}
	return underEnd, columns
}

// parseTableRow renders a single row of a table.
// Missing cells are rendered as empty, extra cells are dropped.
func (r *renderer) parseTableRow(out *bytes.Buffer, data []byte, columns []TableFlags, headerFlag TableFlags) {
	if r.cb.TableCell == nil || r.cb.TableRow == nil {
		return
	}
	row, release := r.pool.acquire(spanScope)
	defer release()

	i := 0
	if i < len(data) && data[i] == '|' {
		i++
	}
	col := 0
	for ; col < len(columns) && i < len(data); col++ {
		for i < len(data) && isWhitespace(data[i]) {
			i++
		}
		cellStart := i
		for i < len(data) && (data[i] != '|' || isBackslashEscaped(data, i)) {
			i++
		}
		cellEnd := i
		for cellEnd > cellStart && isWhitespace(data[cellEnd-1]) {
			cellEnd--
		}
		r.parseTableCell(row, data[cellStart:cellEnd], columns[col]|headerFlag)
		i++
	}
	for ; col < len(columns); col++ {
		r.cb.TableCell(row, nil, columns[col]|headerFlag, r.opaque)
	}
	r.cb.TableRow(out, row.Bytes(), r.opaque)
}

func (r *renderer) parseTableCell(out *bytes.Buffer, text []byte, flags TableFlags) {
	cell, release := r.pool.acquire(spanScope)
	defer release()
	r.parseInline(cell, text)
	r.cb.TableCell(out, cell.Bytes(), flags, r.opaque)
}

// isBackslashEscaped reports whether data[i] is preceded
// by an odd number of backslashes.
func isBackslashEscaped(data []byte, i int) bool {
	n := 0
	for i-n-1 >= 0 && data[i-n-1] == '\\' {
		n++
	}
	return n%2 == 1
}
