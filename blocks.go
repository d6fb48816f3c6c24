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

// parseBlock parses data as a sequence of blocks.
// data must be a buffer owned by the renderer:
// block quotes are de-prefixed in place.
func (r *renderer) parseBlock(out *bytes.Buffer, data []byte) {
	if r.nestingExceeded() {
		return
	}
	for beg := 0; beg < len(data); {
		n := r.parseOneBlock(out, data[beg:])
		if n <= 0 {
			// Every construct consumes at least one byte.
			n = 1
		}
		beg += n
	}
}

// parseOneBlock parses the block at the beginning of data
// and returns the number of bytes consumed.
// The order of the checks matters:
// the first construct that matches wins.
func (r *renderer) parseOneBlock(out *bytes.Buffer, data []byte) int {
	if r.isATXHeader(data) {
		return r.parseATXHeader(out, data)
	}
	if data[0] == '<' && r.cb.BlockHTML != nil {
		if n := r.parseHTMLBlock(out, data, true); n > 0 {
			return n
		}
	}
	if n := isEmpty(data); n > 0 {
		return n
	}
	if isHRule(data) {
		if r.cb.HRule != nil {
			r.cb.HRule(out, r.opaque)
		}
		return lineLen(data)
	}
	if r.ext&FencedCode != 0 {
		if n := r.parseFencedCode(out, data); n > 0 {
			return n
		}
	}
	if r.ext&Tables != 0 {
		if n := r.parseTable(out, data); n > 0 {
			return n
		}
	}
	if prefixQuote(data) > 0 {
		return r.parseBlockQuote(out, data)
	}
	if prefixCode(data) > 0 {
		return r.parseCodeBlock(out, data)
	}
	if prefixUnorderedItem(data) > 0 {
		return r.parseList(out, data, 0)
	}
	if prefixOrderedItem(data) > 0 {
		return r.parseList(out, data, ListOrdered)
	}
	return r.parseParagraph(out, data)
}

// isATXHeader reports whether data begins with an [ATX header].
//
// [ATX header]: https://daringfireball.net/projects/markdown/syntax#header
func (r *renderer) isATXHeader(data []byte) bool {
	if len(data) == 0 || data[0] != '#' {
		return false
	}
	if r.ext&SpaceHeaders != 0 {
		level := 0
		for level < len(data) && level < 6 && data[level] == '#' {
			level++
		}
		if level < len(data) && data[level] != ' ' {
			return false
		}
	}
	return true
}

// parseATXHeader renders the ATX header at the beginning of data.
// It returns the position of the header's line ending.
func (r *renderer) parseATXHeader(out *bytes.Buffer, data []byte) int {
	level := 0
	for level < len(data) && level < 6 && data[level] == '#' {
		level++
	}
	i := skipSpaces(data, level)
	end := i
	for end < len(data) && data[end] != '\n' {
		end++
	}
	skip := end
	for end > 0 && data[end-1] == '#' {
		end--
	}
	for end > 0 && data[end-1] == ' ' {
		end--
	}
	if end > i {
		work, release := r.pool.acquire(spanScope)
		defer release()
		r.parseInline(work, data[i:end])
		if r.cb.Header != nil {
			r.cb.Header(out, work.Bytes(), level, r.opaque)
		}
	}
	return skip
}

// parseParagraph renders the paragraph at the beginning of data,
// or a setext header if the paragraph is followed by an underline.
// It returns the number of bytes consumed.
func (r *renderer) parseParagraph(out *bytes.Buffer, data []byte) int {
	i, end := 0, 0
	level := 0
	for i < len(data) {
		end = i + lineLen(data[i:])
		line := data[i:]
		if isEmpty(line) > 0 {
			break
		}
		if level = isHeaderLine(line); level != 0 {
			break
		}
		if r.isATXHeader(line) || isHRule(line) || prefixQuote(line) > 0 {
			end = i
			break
		}
		if r.ext&LaxSpacing != 0 && !isAlnum(line[0]) {
			if prefixOrderedItem(line) > 0 || prefixUnorderedItem(line) > 0 {
				end = i
				break
			}
			if line[0] == '<' && r.cb.BlockHTML != nil && r.parseHTMLBlock(out, line, false) > 0 {
				end = i
				break
			}
			if r.ext&FencedCode != 0 && isCodeFence(line) > 0 {
				end = i
				break
			}
		}
		i = end
	}

	text := bytes.TrimRight(data[:i], "\n")
	if level == 0 {
		work, release := r.pool.acquire(blockScope)
		defer release()
		r.parseInline(work, text)
		if r.cb.Paragraph != nil {
			r.cb.Paragraph(out, work.Bytes(), r.opaque)
		}
		return end
	}

	// The last line of the text becomes the header.
	// Any lines before it are an ordinary paragraph.
	if nl := bytes.LastIndexByte(text, '\n'); nl >= 0 {
		if para := bytes.TrimRight(text[:nl], "\n"); len(para) > 0 {
			work, release := r.pool.acquire(blockScope)
			r.parseInline(work, para)
			if r.cb.Paragraph != nil {
				r.cb.Paragraph(out, work.Bytes(), r.opaque)
			}
			release()
		}
		text = text[nl+1:]
	}
	work, release := r.pool.acquire(spanScope)
	defer release()
	r.parseInline(work, text)
	if r.cb.Header != nil {
		r.cb.Header(out, work.Bytes(), level, r.opaque)
	}
	return end
}

// parseBlockQuote renders the block quote at the beginning of data.
// Quote markers are removed by compacting the quote's lines in place.
// It returns the number of bytes consumed.
func (r *renderer) parseBlockQuote(out *bytes.Buffer, data []byte) int {
	work, release := r.pool.acquire(blockScope)
	defer release()

	beg, end := 0, 0
	workEnd := -1
	workStart := 0
	for beg < len(data) {
		end = beg + lineLen(data[beg:])
		if pre := prefixQuote(data[beg:end]); pre > 0 {
			beg += pre
		} else if isEmpty(data[beg:end]) > 0 &&
			(end >= len(data) || (prefixQuote(data[end:]) == 0 && isEmpty(data[end:]) == 0)) {
			// A blank line followed by an unquoted line ends the quote.
			break
		}
		if beg < end {
			if workEnd < 0 {
				workStart, workEnd = beg, beg
			}
			workEnd += copy(data[workEnd:], data[beg:end])
		}
		beg = end
	}

	if workEnd >= 0 {
		r.parseBlock(work, data[workStart:workEnd])
	}
	if r.cb.BlockQuote != nil {
		r.cb.BlockQuote(out, work.Bytes(), r.opaque)
	}
	return end
}

// parseCodeBlock renders the indented code block at the beginning of data.
// It returns the number of bytes consumed.
func (r *renderer) parseCodeBlock(out *bytes.Buffer, data []byte) int {
	work, release := r.pool.acquire(blockScope)
	defer release()

	beg := 0
	for beg < len(data) {
		end := beg + lineLen(data[beg:])
		if pre := prefixCode(data[beg:end]); pre > 0 {
			beg += pre
		} else if isEmpty(data[beg:end]) == 0 {
			// Unindented text ends the block.
			break
		}
		if beg < end {
			if isEmpty(data[beg:end]) > 0 {
				work.WriteByte('\n')
			} else {
				work.Write(data[beg:end])
			}
		}
		beg = end
	}

	trimTrailingNewlines(work)
	work.WriteByte('\n')
	if r.cb.BlockCode != nil {
		r.cb.BlockCode(out, work.Bytes(), nil, r.opaque)
	}
	return beg
}

// isCodeFence reports whether data begins with a code fence line.
// It returns the length of the line (including its line ending), or zero.
func isCodeFence(data []byte) int {
	f := parseCodeFence(data)
	return f.end
}

type codeFence struct {
	char byte
	lang []byte
	end  int
}

// parseCodeFence attempts to parse a fence line:
// up to three spaces, at least three backticks or tildes,
// and an optional language tag that is either a bare word
// or a {...} block.
// end is zero if data does not begin with a fence.
func parseCodeFence(data []byte) codeFence {
	i := 0
	for i < 3 && i < len(data) && data[i] == ' ' {
		i++
	}
	if i+2 >= len(data) || (data[i] != '`' && data[i] != '~') {
		return codeFence{}
	}
	f := codeFence{char: data[i]}
	n := 0
	for i < len(data) && data[i] == f.char {
		i++
		n++
	}
	if n < 3 {
		return codeFence{}
	}

	i = skipSpaces(data, i)
	if i < len(data) && data[i] == '{' {
		i++
		langStart := i
		for i < len(data) && data[i] != '}' && data[i] != '\n' {
			i++
		}
		if i >= len(data) || data[i] != '}' {
			return codeFence{}
		}
		f.lang = trimWhitespace(data[langStart:i])
		i++
	} else {
		langStart := i
		for i < len(data) && !isWhitespace(data[i]) {
			i++
		}
		f.lang = data[langStart:i]
	}

	for ; i < len(data) && data[i] != '\n'; i++ {
		if !isWhitespace(data[i]) {
			return codeFence{}
		}
	}
	if i < len(data) {
		i++
	}
	f.end = i
	return f
}

// parseFencedCode renders the fenced code block at the beginning of data.
// It returns the number of bytes consumed, or zero if data does not begin
// with a fence.
func (r *renderer) parseFencedCode(out *bytes.Buffer, data []byte) int {
	open := parseCodeFence(data)
	if open.end == 0 {
		return 0
	}
	work, release := r.pool.acquire(blockScope)
	defer release()

	beg := open.end
	for beg < len(data) {
		if fence := parseCodeFence(data[beg:]); fence.end > 0 && fence.char == open.char && len(fence.lang) == 0 {
			beg += fence.end
			break
		}
		end := beg + lineLen(data[beg:])
		if isEmpty(data[beg:end]) > 0 {
			work.WriteByte('\n')
		} else {
			work.Write(data[beg:end])
		}
		beg = end
	}

	if work.Len() > 0 && work.Bytes()[work.Len()-1] != '\n' {
		work.WriteByte('\n')
	}
	if r.cb.BlockCode != nil {
		var lang []byte
		if len(open.lang) > 0 {
			lang = open.lang
		}
		r.cb.BlockCode(out, work.Bytes(), lang, r.opaque)
	}
	return beg
}

// isEmpty reports whether data begins with a line of only spaces.
// It returns the length of the line (including its line ending), or zero.
func isEmpty(data []byte) int {
	i := 0
	for ; i < len(data) && data[i] != '\n'; i++ {
		if data[i] != ' ' {
			return 0
		}
	}
	return i + 1
}

// isHRule reports whether data begins with a horizontal rule:
// up to three spaces followed by a line of at least three
// '*', '-', or '_' characters, optionally separated by spaces.
func isHRule(data []byte) bool {
	if len(data) < 3 {
		return false
	}
	i := 0
	for i < 3 && data[i] == ' ' {
		i++
	}
	if i+2 >= len(data) || (data[i] != '*' && data[i] != '-' && data[i] != '_') {
		return false
	}
	c := data[i]
	n := 0
	for ; i < len(data) && data[i] != '\n'; i++ {
		switch data[i] {
		case c:
			n++
		case ' ':
		default:
			return false
		}
	}
	return n >= 3
}

// isHeaderLine reports whether data begins with a setext header underline.
// It returns the header's level or zero.
func isHeaderLine(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	var level int
	switch data[0] {
	case '=':
		level = 1
	case '-':
		level = 2
	default:
		return 0
	}
	i := 1
	for i < len(data) && data[i] == data[0] {
		i++
	}
	i = skipSpaces(data, i)
	if i < len(data) && data[i] != '\n' {
		return 0
	}
	return level
}

// isNextHeaderLine reports whether the line after the first line of data
// is a setext header underline.
func isNextHeaderLine(data []byte) bool {
	i := bytes.IndexByte(data, '\n')
	if i < 0 || i+1 >= len(data) {
		return false
	}
	return isHeaderLine(data[i+1:]) != 0
}

// prefixQuote returns the length of the block quote marker
// at the beginning of data, or zero.
func prefixQuote(data []byte) int {
	i := 0
	for i < 3 && i < len(data) && data[i] == ' ' {
		i++
	}
	if i >= len(data) || data[i] != '>' {
		return 0
	}
	if i+1 < len(data) && data[i+1] == ' ' {
		return i + 2
	}
	return i + 1
}

// prefixCode returns the length of the indented code prefix
// at the beginning of data, or zero.
func prefixCode(data []byte) int {
	if len(data) > 3 && data[0] == ' ' && data[1] == ' ' && data[2] == ' ' && data[3] == ' ' {
		return 4
	}
	return 0
}

// prefixOrderedItem returns the length of the ordered list marker
// (like "1. ") at the beginning of data, or zero.
func prefixOrderedItem(data []byte) int {
	i := 0
	for i < 3 && i < len(data) && data[i] == ' ' {
		i++
	}
	if i >= len(data) || !isDigit(data[i]) {
		return 0
	}
	for i < len(data) && isDigit(data[i]) {
		i++
	}
	if i+1 >= len(data) || data[i] != '.' || data[i+1] != ' ' {
		return 0
	}
	if isNextHeaderLine(data[i:]) {
		return 0
	}
	return i + 2
}

// prefixUnorderedItem returns the length of the bullet list marker
// (like "* ") at the beginning of data, or zero.
func prefixUnorderedItem(data []byte) int {
	i := 0
	for i < 3 && i < len(data) && data[i] == ' ' {
		i++
	}
	if i+1 >= len(data) || (data[i] != '*' && data[i] != '+' && data[i] != '-') || data[i+1] != ' ' {
		return 0
	}
	if isNextHeaderLine(data[i:]) {
		return 0
	}
	return i + 2
}

// lineLen returns the length of the first line of data,
// including its line ending.
// It is always at least 1 for non-empty data.
func lineLen(data []byte) int {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1
	}
	return len(data)
}

func trimTrailingNewlines(buf *bytes.Buffer) {
	b := buf.Bytes()
	n := len(b)
	for n > 0 && b[n-1] == '\n' {
		n--
	}
	buf.Truncate(n)
}

func skipSpaces(data []byte, i int) int {
	for i < len(data) && data[i] == ' ' {
		i++
	}
	return i
}

func isLineEnding(c byte) bool {
	return c == '\n' || c == '\r'
}

// skipLineEnding returns the position after the "\n", "\r", or "\r\n"
// at data[i:], or i if there is no line ending there.
func skipLineEnding(data []byte, i int) int {
	if i < len(data) && data[i] == '\r' {
		i++
		if i < len(data) && data[i] == '\n' {
			i++
		}
		return i
	}
	if i < len(data) && data[i] == '\n' {
		i++
	}
	return i
}
