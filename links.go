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

// charLink handles links and images:
//
//	[text](destination "title")
//	[text][label]
//	[text][]
//	[text]
//
// An image is a link preceded by '!'.
func (r *renderer) charLink(out *bytes.Buffer, prev, data []byte) int {
	isImage := len(prev) > 0 && prev[len(prev)-1] == '!'
	if (isImage && r.cb.Image == nil) || (!isImage && r.cb.Link == nil) {
		return 0
	}

	// Find the matching closing bracket.
	textHasNewline := false
	level := 1
	i := 1
	for ; i < len(data); i++ {
		switch {
		case data[i] == '\n':
			textHasNewline = true
		case data[i-1] == '\\':
		case data[i] == '[':
			level++
		case data[i] == ']':
			level--
		}
		if level <= 0 {
			break
		}
	}
	if i >= len(data) {
		return 0
	}
	textEnd := i
	i++
	for i < len(data) && isWhitespace(data[i]) {
		i++
	}

	var link, title []byte
	switch {
	case i < len(data) && data[i] == '(':
		// Inline link.
		dest := parseInlineDestination(data, i)
		if dest.end < 0 {
			return 0
		}
		link, title = dest.link, dest.title
		i = dest.end
	case i < len(data) && data[i] == '[':
		// Reference link.
		i++
		labelStart := i
		for i < len(data) && data[i] != ']' {
			i++
		}
		if i >= len(data) {
			return 0
		}
		var ref *linkReference
		if labelStart == i {
			// Collapsed reference: the text is the label.
			ref = r.findReference(data[1:textEnd], textHasNewline)
		} else {
			ref = r.refs.find(data[labelStart:i])
		}
		if ref == nil {
			return 0
		}
		link, title = ref.link, ref.title
		i++
	default:
		// Shortcut reference.
		ref := r.findReference(data[1:textEnd], textHasNewline)
		if ref == nil {
			return 0
		}
		link, title = ref.link, ref.title
		// Whitespace after the bracket is not part of the link.
		i = textEnd + 1
	}

	// Image alt text is used as is; link text is parsed.
	var content []byte
	if textEnd > 1 {
		buf, release := r.pool.acquire(spanScope)
		defer release()
		if isImage {
			buf.Write(data[1:textEnd])
		} else {
			// Autolinks don't nest inside links.
			inLinkBody := r.inLinkBody
			r.inLinkBody = true
			r.parseInline(buf, data[1:textEnd])
			r.inLinkBody = inLinkBody
		}
		content = buf.Bytes()
	}

	var uLink []byte
	if len(link) > 0 {
		buf, release := r.pool.acquire(spanScope)
		defer release()
		unescapeText(buf, link)
		uLink = buf.Bytes()
	}

	var ok bool
	if isImage {
		// The '!' was already written as text.
		bang := out.Len() > 0 && out.Bytes()[out.Len()-1] == '!'
		if bang {
			out.Truncate(out.Len() - 1)
		}
		ok = r.cb.Image(out, uLink, title, content, r.opaque)
		if !ok && bang {
			out.WriteByte('!')
		}
	} else {
		ok = r.cb.Link(out, uLink, title, content, r.opaque)
	}
	if !ok {
		return 0
	}
	return i
}

// findReference looks up the definition for link text used as a label.
// Line endings in the text match a single space.
func (r *renderer) findReference(text []byte, hasNewline bool) *linkReference {
	if !hasNewline {
		return r.refs.find(text)
	}
	label, release := r.pool.acquire(spanScope)
	defer release()
	for j, c := range text {
		switch {
		case c != '\n':
			label.WriteByte(c)
		case j == 0 || text[j-1] != ' ':
			label.WriteByte(' ')
		}
	}
	return r.refs.find(label.Bytes())
}

type inlineDestination struct {
	link  []byte
	title []byte
	end   int
}

// parseInlineDestination parses the parenthesized destination and
// optional title of an inline link starting at data[i] == '('.
// end is the position after the closing parenthesis, or -1.
func parseInlineDestination(data []byte, i int) inlineDestination {
	i++
	for i < len(data) && isWhitespace(data[i]) {
		i++
	}
	linkStart := i

	// The destination ends at ')' or at a quote after whitespace.
	for i < len(data) {
		if data[i] == '\\' {
			i += 2
			continue
		}
		if data[i] == ')' || (i >= 1 && isWhitespace(data[i-1]) && (data[i] == '\'' || data[i] == '"')) {
			break
		}
		i++
	}
	if i >= len(data) {
		return inlineDestination{end: -1}
	}
	linkEnd := i

	titleStart, titleEnd := 0, 0
	if q := data[i]; q == '\'' || q == '"' {
		i++
		titleStart = i
		inTitle := true
		for i < len(data) {
			if data[i] == '\\' {
				i += 2
				continue
			}
			if data[i] == q {
				inTitle = false
			} else if data[i] == ')' && !inTitle {
				break
			}
			i++
		}
		if i >= len(data) {
			return inlineDestination{end: -1}
		}

		titleEnd = i - 1
		for titleEnd > titleStart && isWhitespace(data[titleEnd]) {
			titleEnd--
		}
		if data[titleEnd] != '\'' && data[titleEnd] != '"' {
			// No closing quote: the "title" was part of the destination.
			titleStart, titleEnd = 0, 0
			linkEnd = i
		}
	}

	for linkEnd > linkStart && isWhitespace(data[linkEnd-1]) {
		linkEnd--
	}
	if linkEnd > linkStart && data[linkStart] == '<' {
		linkStart++
	}
	if linkEnd > linkStart && data[linkEnd-1] == '>' {
		linkEnd--
	}

	dest := inlineDestination{end: i + 1}
	if linkEnd > linkStart {
		dest.link = data[linkStart:linkEnd]
	}
	if titleEnd > titleStart {
		dest.title = data[titleStart:titleEnd]
	}
	return dest
}
