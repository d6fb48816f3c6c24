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

	"golang.org/x/net/html/atom"
)

// blockTags is the set of elements that can start a raw HTML block.
var blockTags = map[atom.Atom]struct{}{
	atom.Blockquote: {},
	atom.Del:        {},
	atom.Div:        {},
	atom.Dl:         {},
	atom.Fieldset:   {},
	atom.Figure:     {},
	atom.Form:       {},
	atom.H1:         {},
	atom.H2:         {},
	atom.H3:         {},
	atom.H4:         {},
	atom.H5:         {},
	atom.H6:         {},
	atom.Iframe:     {},
	atom.Ins:        {},
	atom.Math:       {},
	atom.Noscript:   {},
	atom.Ol:         {},
	atom.P:          {},
	atom.Pre:        {},
	atom.Script:     {},
	atom.Style:      {},
	atom.Table:      {},
	atom.Ul:         {},
}

// maxBlockTagLength is the length of the longest name in blockTags.
const maxBlockTagLength = len("blockquote")

// findBlockTag returns the block-level element named by name,
// ignoring ASCII case, or zero if name is not a block-level element.
func findBlockTag(name []byte) atom.Atom {
	if len(name) == 0 || len(name) > maxBlockTagLength {
		return 0
	}
	var buf [maxBlockTagLength]byte
	lower := buf[:len(name)]
	for i, c := range name {
		lower[i] = toLowerASCII(c)
	}
	a := atom.Lookup(lower)
	if _, ok := blockTags[a]; !ok {
		return 0
	}
	return a
}

// parseHTMLBlock renders the raw HTML block at the beginning of data
// if render is true.
// It returns the length of the block, or zero if data does not begin
// with a raw HTML block.
//
// A raw HTML block begins with a block-level tag
// and ends with the matching closing tag followed by a blank line.
// HTML comments and <hr> tags followed by a blank line
// are also recognized as blocks.
func (r *renderer) parseHTMLBlock(out *bytes.Buffer, data []byte, render bool) int {
	if len(data) < 2 || data[0] != '<' {
		return 0
	}
	i := 1
	for i < len(data) && data[i] != '>' && data[i] != ' ' {
		i++
	}
	var tag atom.Atom
	if i < len(data) {
		tag = findBlockTag(data[1:i])
	}

	var end int
	if tag == 0 {
		end = htmlCommentBlockEnd(data)
		if end == 0 {
			end = htmlRuleBlockEnd(data)
		}
	} else {
		// Look for an unindented closing tag first.
		// Markdown.pl does not accept indented closing tags for ins and del.
		end = htmlBlockEnd(tag.String(), data, true)
		if end == 0 && tag != atom.Ins && tag != atom.Del {
			end = htmlBlockEnd(tag.String(), data, false)
		}
	}
	if end == 0 {
		return 0
	}
	if render && r.cb.BlockHTML != nil {
		r.cb.BlockHTML(out, data[:end], r.opaque)
	}
	return end
}

// htmlCommentBlockEnd returns the end of an HTML comment block
// ("<!--" to "-->" followed by a blank line) at the beginning of data,
// or zero.
func htmlCommentBlockEnd(data []byte) int {
	if len(data) <= 5 || !hasBytePrefix(data, "<!--") {
		return 0
	}
	i := 5
	for i < len(data) && !(data[i-2] == '-' && data[i-1] == '-' && data[i] == '>') {
		i++
	}
	i++
	if i >= len(data) {
		return 0
	}
	j := isEmpty(data[i:])
	if j == 0 {
		return 0
	}
	return i + j
}

// htmlRuleBlockEnd returns the end of an <hr> tag
// followed by a blank line at the beginning of data, or zero.
func htmlRuleBlockEnd(data []byte) int {
	if len(data) <= 4 || !hasCaseInsensitiveBytePrefix(data[1:], "hr") {
		return 0
	}
	i := 3
	for i < len(data) && data[i] != '>' {
		i++
	}
	if i+1 >= len(data) {
		return 0
	}
	i++
	j := isEmpty(data[i:])
	if j == 0 {
		return 0
	}
	return i + j
}

// htmlBlockEnd finds the closing tag of a raw HTML block.
// If startOfLine is true, only closing tags at the beginning of a line
// (or on the block's first line) are considered.
// It returns the end of the block or zero if no closing tag was found.
func htmlBlockEnd(tag string, data []byte, startOfLine bool) int {
	firstLine := true
	for i := 1; i < len(data); i++ {
		if data[i-1] == '\n' {
			firstLine = false
		}
		if data[i-1] != '<' || data[i] != '/' {
			continue
		}
		if startOfLine && !firstLine && (i < 2 || data[i-2] != '\n') {
			continue
		}
		if end := htmlBlockEndTag(tag, data[i-1:]); end > 0 {
			return i - 1 + end
		}
	}
	return 0
}

// htmlBlockEndTag checks whether data begins with the closing tag
// for the named element followed by the end of the line.
// It returns the length of the closing tag through the end of its line
// and one optional following blank line, or zero.
func htmlBlockEndTag(tag string, data []byte) int {
	if len(data) < len(tag)+3 ||
		!hasCaseInsensitiveBytePrefix(data[2:], tag) ||
		data[len(tag)+2] != '>' {
		return 0
	}
	i := len(tag) + 3
	if i < len(data) {
		w := isEmpty(data[i:])
		if w == 0 {
			// Text after the closing tag.
			return 0
		}
		i += w
	}
	if i < len(data) {
		i += isEmpty(data[i:])
	}
	return i
}

// tagLength returns the length of the HTML tag or autolink
// ("<https://example.com>") at the beginning of data, or zero.
// The tag is not validated beyond looking for its closing angle bracket.
func tagLength(data []byte) (n int, kind AutolinkKind) {
	if len(data) < 3 || data[0] != '<' {
		return 0, NotAutolink
	}
	i := 1
	if data[1] == '/' {
		i = 2
	}
	if !isAlnum(data[i]) {
		return 0, NotAutolink
	}

	// Scheme or local part of an e-mail address.
	for i < len(data) && (isAlnum(data[i]) || data[i] == '.' || data[i] == '+' || data[i] == '-') {
		i++
	}
	if i > 1 && i < len(data) && data[i] == '@' {
		if j := mailAutolinkLength(data[i:]); j > 0 {
			return i + j, AutolinkEmail
		}
	}
	if i > 2 && i < len(data) && data[i] == ':' {
		kind = AutolinkNormal
		i++
	}

	if i >= len(data) {
		kind = NotAutolink
	} else if kind != NotAutolink {
		// No spaces or quotes in an autolink.
		j := i
	scan:
		for i < len(data) {
			switch data[i] {
			case '\\':
				i += 2
			case '>', '\'', '"', ' ', '\n':
				break scan
			default:
				i++
			}
		}
		if i >= len(data) {
			return 0, NotAutolink
		}
		if i > j && data[i] == '>' {
			return i + 1, kind
		}
		kind = NotAutolink
	}

	for i < len(data) && data[i] != '>' {
		i++
	}
	if i >= len(data) {
		return 0, NotAutolink
	}
	return i + 1, NotAutolink
}

// mailAutolinkLength returns the length of the rest of an e-mail autolink
// starting at its '@' through the closing angle bracket, or zero.
func mailAutolinkLength(data []byte) int {
	nat := 0
	for i, c := range data {
		if isAlnum(c) {
			continue
		}
		switch c {
		case '@':
			nat++
		case '-', '.', '_':
		case '>':
			if nat != 1 {
				return 0
			}
			return i + 1
		default:
			return 0
		}
	}
	return 0
}

// IsHTMLTag reports whether tag is an opening or closing tag
// for the element with the given lowercase name.
func IsHTMLTag(tag []byte, name string) bool {
	if len(tag) < 3 || tag[0] != '<' {
		return false
	}
	i := 1
	if tag[i] == '/' {
		i++
	}
	if !hasBytePrefix(tag[i:], name) {
		return false
	}
	i += len(name)
	return i < len(tag) && (isWhitespace(tag[i]) || tag[i] == '>' || tag[i] == '/')
}

func hasBytePrefix(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && string(b[:len(prefix)]) == prefix
}

func hasCaseInsensitiveBytePrefix(b []byte, prefix string) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i, bb := range b[:len(prefix)] {
		if toLowerASCII(prefix[i]) != toLowerASCII(bb) {
			return false
		}
	}
	return true
}

func toLowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}
