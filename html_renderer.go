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
	"fmt"
	"io"
	"strconv"

	"go4.org/bytereplacer"
	"golang.org/x/net/html/atom"
)

// HTMLFlags is a set of options for the HTML renderer.
type HTMLFlags uint32

// HTML renderer flags.
const (
	// HTMLSkipHTML drops raw HTML blocks and tags from the output.
	HTMLSkipHTML HTMLFlags = 1 << iota
	// HTMLSkipStyle drops raw <style> tags.
	HTMLSkipStyle
	// HTMLSkipImages drops images and raw <img> tags.
	HTMLSkipImages
	// HTMLSkipLinks drops links and raw <a> tags,
	// leaving their source text.
	HTMLSkipLinks
	// HTMLSafeLink only renders links that pass [IsSafeLink].
	HTMLSafeLink
	// HTMLTOC gives each header an id attribute ("toc_0", "toc_1", ...)
	// matching the anchors written by [TOCCallbacks].
	HTMLTOC
	// HTMLHardWrap renders line endings inside paragraphs as line breaks.
	HTMLHardWrap
	// HTMLUseXHTML writes void elements in XHTML form, like <br/>.
	HTMLUseXHTML
	// HTMLEscape escapes raw HTML instead of passing it through.
	// It overrides HTMLSkipHTML, HTMLSkipStyle, HTMLSkipImages, and HTMLSkipLinks
	// for raw tags.
	HTMLEscape
)

// HTMLOptions is the opaque value the HTML and table of contents callbacks
// expect to be passed to [New].
//
// # Security considerations
//
// Markdown permits raw HTML,
// which can introduce [Cross-Site Scripting (XSS)] vulnerabilities
// when used with untrusted inputs.
// There are a few options to mitigate this risk:
//
//   - The resulting HTML can be sent through an HTML sanitizer.
//     This is highly recommended.
//   - Set [HTMLSkipHTML] or [HTMLEscape] to prevent inclusion of raw HTML.
//   - Set [HTMLSafeLink] to drop links with schemes like "javascript:".
//   - FilterTag can be used to prevent some tags from being used
//     while still showing the source text.
//     For untrusted inputs, this technique should be combined with sanitization.
//
// An HTMLOptions value keeps track of header numbering,
// so it must not be used by more than one render at a time.
//
// [Cross-Site Scripting (XSS)]: https://owasp.org/www-community/attacks/xss/
type HTMLOptions struct {
	Flags HTMLFlags
	// FilterTag is a predicate function
	// that reports whether a raw HTML element with the given lowercased tag name
	// should have its leading angle bracket escaped.
	// If FilterTag is nil, then no filtering will occur.
	//
	// FilterTag functions must not modify the byte slice
	// nor retain the slice after the function returns.
	FilterTag func(tag []byte) bool

	toc tocState
}

type tocState struct {
	headerCount  int
	currentLevel int
	levelOffset  int
}

func htmlOptions(opaque any) *HTMLOptions {
	if opts, ok := opaque.(*HTMLOptions); ok && opts != nil {
		return opts
	}
	return new(HTMLOptions)
}

func (opts *HTMLOptions) useXHTML() bool {
	return opts.Flags&HTMLUseXHTML != 0
}

// HTMLCallbacks returns callbacks that render HTML.
// The parser's opaque value should be an [*HTMLOptions]
// whose Flags equal flags.
func HTMLCallbacks(flags HTMLFlags) *Callbacks {
	cb := &Callbacks{
		BlockCode:  htmlBlockCode,
		BlockQuote: htmlBlockQuote,
		BlockHTML:  htmlRawBlock,
		Header:     htmlHeader,
		HRule:      htmlHRule,
		List:       htmlList,
		ListItem:   htmlListItem,
		Paragraph:  htmlParagraph,
		Table:      htmlTable,
		TableRow:   htmlTableRow,
		TableCell:  htmlTableCell,

		Autolink:       htmlAutolink,
		CodeSpan:       htmlCodeSpan,
		DoubleEmphasis: htmlSpan(atom.Strong),
		Emphasis:       htmlSpan(atom.Em),
		TripleEmphasis: htmlTripleEmphasis,
		Strikethrough:  htmlSpan(atom.Del),
		Superscript:    htmlSpan(atom.Sup),
		Image:          htmlImage,
		LineBreak:      htmlLineBreak,
		Link:           htmlLink,
		RawHTMLTag:     htmlRawTag,

		NormalText: htmlNormalText,
	}
	if flags&HTMLSkipImages != 0 {
		cb.Image = nil
	}
	if flags&HTMLSkipLinks != 0 {
		cb.Link = nil
		cb.Autolink = nil
	}
	if flags&(HTMLSkipHTML|HTMLEscape) != 0 {
		cb.BlockHTML = nil
	}
	return cb
}

// RenderHTML converts a Markdown document to HTML
// and writes it to w.
// opts may be nil to use the default options.
// It will return the first error encountered, if any.
func RenderHTML(w io.Writer, source []byte, ext Extensions, opts *HTMLOptions) error {
	state := new(HTMLOptions)
	if opts != nil {
		state.Flags = opts.Flags
		state.FilterTag = opts.FilterTag
	}
	buf := new(bytes.Buffer)
	New(ext, DefaultMaxNesting, HTMLCallbacks(state.Flags), state).Render(buf, source)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("render markdown to html: %w", err)
	}
	return nil
}

var htmlEscaper = bytereplacer.New(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escapeHTML(out *bytes.Buffer, text []byte) {
	if bytes.IndexAny(text, `&<>"'`) < 0 {
		out.Write(text)
		return
	}
	out.Write(htmlEscaper.Replace(bytes.Clone(text)))
}

// escapeHref writes a URL for use in an attribute value,
// percent-encoding bytes that are not safe in a URL
// and entity-encoding ampersands and single quotes.
func escapeHref(out *bytes.Buffer, link []byte) {
	const hexDigits = "0123456789ABCDEF"
	for i := 0; i < len(link); i++ {
		org := i
		for i < len(link) && isHrefSafe(link[i]) {
			i++
		}
		out.Write(link[org:i])
		if i >= len(link) {
			break
		}
		switch c := link[i]; c {
		case '&':
			out.WriteString("&amp;")
		case '\'':
			out.WriteString("&#x27;")
		default:
			out.WriteByte('%')
			out.WriteByte(hexDigits[c>>4])
			out.WriteByte(hexDigits[c&0xf])
		}
	}
}

func isHrefSafe(c byte) bool {
	if isAlnum(c) {
		return true
	}
	switch c {
	case '!', '#', '$', '%', '(', ')', '*', '+', ',', '-', '.', '/', ':', ';', '=', '?', '@', '_':
		return true
	default:
		return false
	}
}

// writeRawHTML writes raw HTML,
// escaping the opening angle bracket of tags that filter rejects.
func writeRawHTML(out *bytes.Buffer, text []byte, filter func(tag []byte) bool) {
	if filter == nil {
		out.Write(text)
		return
	}
	var nameBuf [16]byte
	for len(text) > 0 {
		i := bytes.IndexByte(text, '<')
		if i < 0 {
			out.Write(text)
			return
		}
		out.Write(text[:i])
		text = text[i:]

		j := 1
		if j < len(text) && text[j] == '/' {
			j++
		}
		name := nameBuf[:0]
		for ; j < len(text) && isAlnum(text[j]); j++ {
			name = append(name, toLowerASCII(text[j]))
		}
		if len(name) > 0 && filter(name) {
			out.WriteString("&lt;")
		} else {
			out.WriteByte('<')
		}
		text = text[1:]
	}
}

func writeOpenTag(out *bytes.Buffer, a atom.Atom) {
	out.WriteByte('<')
	out.WriteString(a.String())
	out.WriteByte('>')
}

func writeCloseTag(out *bytes.Buffer, a atom.Atom) {
	out.WriteString("</")
	out.WriteString(a.String())
	out.WriteByte('>')
}

// blockSeparator starts a new block on its own line.
func blockSeparator(out *bytes.Buffer) {
	if out.Len() > 0 {
		out.WriteByte('\n')
	}
}

func htmlBlockCode(out *bytes.Buffer, text, lang []byte, opaque any) {
	blockSeparator(out)
	if len(lang) == 0 {
		out.WriteString("<pre><code>")
	} else {
		// Each word of the language tag is a class name,
		// with an optional leading dot.
		out.WriteString(`<pre><code class="`)
		for i, n := 0, 0; i < len(lang); n++ {
			for i < len(lang) && isWhitespace(lang[i]) {
				i++
			}
			if i >= len(lang) {
				break
			}
			org := i
			for i < len(lang) && !isWhitespace(lang[i]) {
				i++
			}
			if lang[org] == '.' {
				org++
			}
			if n > 0 {
				out.WriteByte(' ')
			}
			escapeHTML(out, lang[org:i])
		}
		out.WriteString(`">`)
	}
	escapeHTML(out, text)
	out.WriteString("</code></pre>\n")
}

func htmlBlockQuote(out *bytes.Buffer, text []byte, opaque any) {
	blockSeparator(out)
	out.WriteString("<blockquote>\n")
	out.Write(text)
	out.WriteString("</blockquote>\n")
}

func htmlRawBlock(out *bytes.Buffer, text []byte, opaque any) {
	text = bytes.Trim(text, "\n")
	if len(text) == 0 {
		return
	}
	blockSeparator(out)
	writeRawHTML(out, text, htmlOptions(opaque).FilterTag)
	out.WriteByte('\n')
}

func htmlHeader(out *bytes.Buffer, text []byte, level int, opaque any) {
	opts := htmlOptions(opaque)
	blockSeparator(out)
	out.WriteString("<h")
	out.WriteString(strconv.Itoa(level))
	if opts.Flags&HTMLTOC != 0 {
		out.WriteString(` id="toc_`)
		out.WriteString(strconv.Itoa(opts.toc.headerCount))
		out.WriteByte('"')
		opts.toc.headerCount++
	}
	out.WriteByte('>')
	out.Write(text)
	out.WriteString("</h")
	out.WriteString(strconv.Itoa(level))
	out.WriteString(">\n")
}

func htmlHRule(out *bytes.Buffer, opaque any) {
	blockSeparator(out)
	if htmlOptions(opaque).useXHTML() {
		out.WriteString("<hr/>\n")
	} else {
		out.WriteString("<hr>\n")
	}
}

func htmlList(out *bytes.Buffer, text []byte, flags ListFlags, opaque any) {
	tag := atom.Ul
	if flags&ListOrdered != 0 {
		tag = atom.Ol
	}
	blockSeparator(out)
	writeOpenTag(out, tag)
	out.WriteByte('\n')
	out.Write(text)
	writeCloseTag(out, tag)
	out.WriteByte('\n')
}

func htmlListItem(out *bytes.Buffer, text []byte, flags ListFlags, opaque any) {
	out.WriteString("<li>")
	out.Write(bytes.TrimRight(text, "\n"))
	out.WriteString("</li>\n")
}

func htmlParagraph(out *bytes.Buffer, text []byte, opaque any) {
	opts := htmlOptions(opaque)
	blockSeparator(out)
	i := 0
	for i < len(text) && isWhitespace(text[i]) {
		i++
	}
	if i == len(text) {
		return
	}
	out.WriteString("<p>")
	if opts.Flags&HTMLHardWrap == 0 {
		out.Write(text[i:])
	} else {
		for i < len(text) {
			org := i
			for i < len(text) && text[i] != '\n' {
				i++
			}
			out.Write(text[org:i])
			// No line break for the paragraph's final newline.
			if i >= len(text)-1 {
				break
			}
			htmlLineBreak(out, opaque)
			i++
		}
	}
	out.WriteString("</p>\n")
}

func htmlTable(out *bytes.Buffer, header, body []byte, opaque any) {
	blockSeparator(out)
	out.WriteString("<table><thead>\n")
	out.Write(header)
	out.WriteString("</thead><tbody>\n")
	out.Write(body)
	out.WriteString("</tbody></table>\n")
}

func htmlTableRow(out *bytes.Buffer, text []byte, opaque any) {
	out.WriteString("<tr>\n")
	out.Write(text)
	out.WriteString("</tr>\n")
}

func htmlTableCell(out *bytes.Buffer, text []byte, flags TableFlags, opaque any) {
	tag := atom.Td
	if flags&TableHeader != 0 {
		tag = atom.Th
	}
	out.WriteByte('<')
	out.WriteString(tag.String())
	switch flags.Align() {
	case TableAlignCenter:
		out.WriteString(` align="center">`)
	case TableAlignLeft:
		out.WriteString(` align="left">`)
	case TableAlignRight:
		out.WriteString(` align="right">`)
	default:
		out.WriteByte('>')
	}
	out.Write(text)
	writeCloseTag(out, tag)
	out.WriteByte('\n')
}

func htmlAutolink(out *bytes.Buffer, link []byte, kind AutolinkKind, opaque any) bool {
	opts := htmlOptions(opaque)
	if len(link) == 0 {
		return false
	}
	if opts.Flags&HTMLSafeLink != 0 && !IsSafeLink(link) && kind != AutolinkEmail {
		return false
	}
	out.WriteString(`<a href="`)
	if kind == AutolinkEmail {
		out.WriteString("mailto:")
	}
	escapeHref(out, link)
	out.WriteString(`">`)
	// Don't show the scheme of "mailto:" links.
	escapeHTML(out, bytes.TrimPrefix(link, []byte("mailto:")))
	out.WriteString("</a>")
	return true
}

func htmlCodeSpan(out *bytes.Buffer, text []byte, opaque any) bool {
	writeOpenTag(out, atom.Code)
	escapeHTML(out, text)
	writeCloseTag(out, atom.Code)
	return true
}

// htmlSpan returns a span callback that wraps its non-empty content
// in the given element.
func htmlSpan(tag atom.Atom) func(out *bytes.Buffer, text []byte, opaque any) bool {
	return func(out *bytes.Buffer, text []byte, opaque any) bool {
		if len(text) == 0 {
			return false
		}
		writeOpenTag(out, tag)
		out.Write(text)
		writeCloseTag(out, tag)
		return true
	}
}

func htmlTripleEmphasis(out *bytes.Buffer, text []byte, opaque any) bool {
	if len(text) == 0 {
		return false
	}
	out.WriteString("<strong><em>")
	out.Write(text)
	out.WriteString("</em></strong>")
	return true
}

func htmlImage(out *bytes.Buffer, link, title, alt []byte, opaque any) bool {
	if len(link) == 0 {
		return false
	}
	out.WriteString(`<img src="`)
	escapeHref(out, link)
	out.WriteString(`" alt="`)
	escapeHTML(out, alt)
	if len(title) > 0 {
		out.WriteString(`" title="`)
		escapeHTML(out, title)
	}
	if htmlOptions(opaque).useXHTML() {
		out.WriteString(`"/>`)
	} else {
		out.WriteString(`">`)
	}
	return true
}

func htmlLineBreak(out *bytes.Buffer, opaque any) bool {
	if htmlOptions(opaque).useXHTML() {
		out.WriteString("<br/>\n")
	} else {
		out.WriteString("<br>\n")
	}
	return true
}

func htmlLink(out *bytes.Buffer, link, title, content []byte, opaque any) bool {
	opts := htmlOptions(opaque)
	if link != nil && opts.Flags&HTMLSafeLink != 0 && !IsSafeLink(link) {
		return false
	}
	out.WriteString(`<a href="`)
	escapeHref(out, link)
	if len(title) > 0 {
		out.WriteString(`" title="`)
		escapeHTML(out, title)
	}
	out.WriteString(`">`)
	out.Write(content)
	out.WriteString("</a>")
	return true
}

func htmlRawTag(out *bytes.Buffer, tag []byte, opaque any) bool {
	opts := htmlOptions(opaque)
	switch {
	case opts.Flags&HTMLEscape != 0:
		escapeHTML(out, tag)
		return true
	case opts.Flags&HTMLSkipHTML != 0:
		return true
	case opts.Flags&HTMLSkipStyle != 0 && IsHTMLTag(tag, "style"):
		return true
	case opts.Flags&HTMLSkipLinks != 0 && IsHTMLTag(tag, "a"):
		return true
	case opts.Flags&HTMLSkipImages != 0 && IsHTMLTag(tag, "img"):
		return true
	}
	writeRawHTML(out, tag, opts.FilterTag)
	return true
}

func htmlNormalText(out *bytes.Buffer, text []byte, opaque any) {
	escapeHTML(out, text)
}
