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

import (
	"bytes"
	"strings"
)

// parseInline renders the inline content of data.
// Bytes without a handler in the parser's active table
// are passed to the NormalText callback in runs.
func (r *renderer) parseInline(out *bytes.Buffer, data []byte) {
	if r.nestingExceeded() {
		return
	}
	// consumed is the end of the last construct a handler recognized,
	// and mark is the length of out at that point.
	// The plain text since then may be rewound by autolink handlers.
	i, end, consumed := 0, 0, 0
	mark := out.Len()
	for i < len(data) {
		for end < len(data) && r.active[data[end]] == charNone {
			end++
		}
		r.normalText(out, data[i:end])
		if end >= len(data) {
			break
		}
		i = end

		text := pendingText{data: data[consumed:i], mark: mark}
		n := r.handleActive(out, r.active[data[i]], data[:i], text, data[i:])
		if n == 0 {
			// Not special here; emit the byte with the next run of text.
			end = i + 1
			continue
		}
		i += n
		end = i
		consumed = i
		mark = out.Len()
	}
}

// pendingText is the plain text written since the last recognized construct.
type pendingText struct {
	data []byte
	// mark is the length of the output before data was written.
	mark int
}

func (r *renderer) normalText(out *bytes.Buffer, text []byte) {
	if len(text) == 0 {
		return
	}
	if r.cb.NormalText != nil {
		r.cb.NormalText(out, text, r.opaque)
	} else {
		out.Write(text)
	}
}

// handleActive dispatches to the handler for an active byte.
// prev is everything in the span before data,
// which begins with the active byte.
// text is the suffix of prev that was written as plain text.
// It returns the number of bytes of data consumed,
// or zero if the byte should be treated as text.
func (r *renderer) handleActive(out *bytes.Buffer, c activeChar, prev []byte, text pendingText, data []byte) int {
	switch c {
	case charEmphasis:
		return r.charEmphasis(out, prev, data)
	case charCodeSpan:
		return r.charCodeSpan(out, data)
	case charLineBreak:
		return r.charLineBreak(out, text.data)
	case charLink:
		return r.charLink(out, prev, data)
	case charLangle:
		return r.charLangleTag(out, data)
	case charEscape:
		return r.charEscape(out, data)
	case charEntity:
		return r.charEntity(out, data)
	case charAutolinkURL:
		return r.charAutolinkURL(out, text, data)
	case charAutolinkEmail:
		return r.charAutolinkEmail(out, text, data)
	case charAutolinkWWW:
		return r.charAutolinkWWW(out, prev, data)
	case charSuperscript:
		return r.charSuperscript(out, data)
	default:
		return 0
	}
}

// escapeChars is the set of characters that a backslash makes literal.
const escapeChars = "\\`*_{}[]()#+-.!:|&<>^~"

// charEscape handles a backslash escape.
func (r *renderer) charEscape(out *bytes.Buffer, data []byte) int {
	if len(data) < 2 {
		out.WriteByte(data[0])
		return 1
	}
	if strings.IndexByte(escapeChars, data[1]) < 0 {
		return 0
	}
	r.normalText(out, data[1:2])
	return 2
}

// charEntity handles an HTML entity or numeric character reference,
// like "&amp;" or "&#35;".
func (r *renderer) charEntity(out *bytes.Buffer, data []byte) int {
	end := 1
	if end < len(data) && data[end] == '#' {
		end++
	}
	nameStart := end
	for end < len(data) && isAlnum(data[end]) {
		end++
	}
	if end == nameStart || end >= len(data) || data[end] != ';' {
		// Lone '&'.
		return 0
	}
	end++
	if r.cb.Entity != nil {
		r.cb.Entity(out, data[:end], r.opaque)
	} else {
		out.Write(data[:end])
	}
	return end
}

// charLineBreak handles a newline preceded by two spaces.
func (r *renderer) charLineBreak(out *bytes.Buffer, prev []byte) int {
	if len(prev) < 2 || prev[len(prev)-1] != ' ' || prev[len(prev)-2] != ' ' {
		return 0
	}
	// The trailing spaces were already written as text.
	b := out.Bytes()
	n := len(b)
	for n > 0 && b[n-1] == ' ' {
		n--
	}
	out.Truncate(n)
	if !r.cb.LineBreak(out, r.opaque) {
		return 0
	}
	return 1
}

// charCodeSpan handles a code span delimited by a run of backticks.
// The closing run must have exactly as many backticks as the opening run.
func (r *renderer) charCodeSpan(out *bytes.Buffer, data []byte) int {
	nb := 0
	for nb < len(data) && data[nb] == '`' {
		nb++
	}

	// Find a closing run of the same length.
	contentEnd, end := -1, nb
	for end < len(data) {
		if data[end] != '`' {
			end++
			continue
		}
		runStart := end
		for end < len(data) && data[end] == '`' {
			end++
		}
		if end-runStart == nb {
			contentEnd = runStart
			break
		}
	}
	if contentEnd < 0 {
		return 0
	}

	// Strip one space from each side, unless the content is all spaces.
	text := data[nb:contentEnd]
	if len(bytes.Trim(text, " ")) > 0 {
		text = bytes.TrimPrefix(text, []byte{' '})
		text = bytes.TrimSuffix(text, []byte{' '})
	} else {
		text = nil
	}
	if !r.cb.CodeSpan(out, text, r.opaque) {
		return 0
	}
	return end
}

// charLangleTag handles an angle-bracketed autolink or raw HTML tag.
func (r *renderer) charLangleTag(out *bytes.Buffer, data []byte) int {
	end, kind := tagLength(data)
	if end <= 2 {
		return 0
	}
	var ok bool
	switch {
	case r.cb.Autolink != nil && kind != NotAutolink:
		link, release := r.pool.acquire(spanScope)
		defer release()
		unescapeText(link, data[1:end-1])
		ok = r.cb.Autolink(out, link.Bytes(), kind, r.opaque)
	case r.cb.RawHTMLTag != nil:
		ok = r.cb.RawHTMLTag(out, data[:end], r.opaque)
	}
	if !ok {
		return 0
	}
	return end
}

// charSuperscript handles ^word or ^(several words).
func (r *renderer) charSuperscript(out *bytes.Buffer, data []byte) int {
	if r.cb.Superscript == nil || len(data) < 2 {
		return 0
	}
	var start, end int
	if data[1] == '(' {
		start, end = 2, 2
		for end < len(data) && data[end] != ')' && data[end-1] != '\\' {
			end++
		}
		if end == len(data) {
			return 0
		}
	} else {
		start, end = 1, 1
		for end < len(data) && !isSpace(data[end]) {
			end++
		}
	}
	if end == start {
		if start == 2 {
			// Empty parentheses.
			return 3
		}
		return 0
	}

	sup, release := r.pool.acquire(spanScope)
	defer release()
	r.parseInline(sup, data[start:end])
	r.cb.Superscript(out, sup.Bytes(), r.opaque)
	if start == 2 {
		return end + 1
	}
	return end
}

// unescapeText appends src to dst with backslash escapes removed.
func unescapeText(dst *bytes.Buffer, src []byte) {
	for i := 0; i < len(src); {
		org := i
		for i < len(src) && src[i] != '\\' {
			i++
		}
		dst.Write(src[org:i])
		if i+1 >= len(src) {
			break
		}
		dst.WriteByte(src[i+1])
		i += 2
	}
}

// isSpace reports whether c separates words within a block.
func isSpace(c byte) bool {
	return c == ' ' || c == '\n'
}

// isWhitespace reports whether c is ASCII whitespace.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
}

func trimWhitespace(b []byte) []byte {
	for len(b) > 0 && isWhitespace(b[0]) {
		b = b[1:]
	}
	for len(b) > 0 && isWhitespace(b[len(b)-1]) {
		b = b[:len(b)-1]
	}
	return b
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isAlpha(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isAlnum(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

func isPunct(c byte) bool {
	return '!' <= c && c <= '/' || ':' <= c && c <= '@' || '[' <= c && c <= '`' || '{' <= c && c <= '~'
}
