// Copyright 2024 Ross Light
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

// Package format provides a function to format a Markdown file
// that is equivalent to the original Markdown.
package format

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"zombiezen.com/go/markdown"
)

// Format parses source with the given extensions
// and writes it back out as normalized Markdown.
func Format(w io.Writer, source []byte, ext markdown.Extensions) error {
	f := &formatter{ext: ext}
	buf := new(bytes.Buffer)
	markdown.New(ext, markdown.DefaultMaxNesting, f.callbacks(), nil).Render(buf, source)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("format markdown: %w", err)
	}
	return nil
}

// Callbacks returns callbacks that write Markdown.
// The callbacks keep track of list numbering and table columns,
// so they must not be used by more than one render at a time.
func Callbacks(ext markdown.Extensions) *markdown.Callbacks {
	return (&formatter{ext: ext}).callbacks()
}

type formatter struct {
	ext markdown.Extensions
	// lists holds the item count of each list being rendered,
	// innermost last.
	lists []int
	// columns holds the alignments of the table being rendered.
	columns []markdown.TableFlags
}

func (f *formatter) callbacks() *markdown.Callbacks {
	return &markdown.Callbacks{
		BlockCode:  f.blockCode,
		BlockQuote: f.blockQuote,
		BlockHTML:  f.blockHTML,
		Header:     f.header,
		HRule:      f.hrule,
		ListStart:  f.listStart,
		List:       f.list,
		ListItem:   f.listItem,
		Paragraph:  f.paragraph,
		Table:      f.table,
		TableRow:   f.tableRow,
		TableCell:  f.tableCell,

		Autolink:       f.autolink,
		CodeSpan:       f.codeSpan,
		DoubleEmphasis: delimited("**"),
		Emphasis:       delimited("*"),
		TripleEmphasis: delimited("***"),
		Strikethrough:  delimited("~~"),
		Superscript:    f.superscript,
		Image:          f.image,
		LineBreak:      f.lineBreak,
		Link:           f.link,
		RawHTMLTag:     f.rawHTML,

		Entity:     f.entity,
		NormalText: f.normalText,
	}
}

// startBlock separates a new block from the previous one with a blank line.
func startBlock(out *bytes.Buffer) {
	if out.Len() > 0 {
		out.WriteByte('\n')
	}
}

func (f *formatter) blockCode(out *bytes.Buffer, text, lang []byte, opaque any) {
	startBlock(out)
	if f.ext&markdown.FencedCode == 0 {
		for len(text) > 0 {
			line := text
			if i := bytes.IndexByte(text, '\n'); i >= 0 {
				line = text[:i+1]
			}
			if len(bytes.TrimSpace(line)) > 0 {
				out.WriteString("    ")
			}
			out.Write(line)
			text = text[len(line):]
		}
		ensureNewline(out)
		return
	}

	fence := "```"
	if hasLinePrefix(text, fence) {
		fence = "~~~"
	}
	out.WriteString(fence)
	out.Write(lang)
	out.WriteByte('\n')
	out.Write(text)
	ensureNewline(out)
	out.WriteString(fence)
	out.WriteByte('\n')
}

func (f *formatter) blockQuote(out *bytes.Buffer, text []byte, opaque any) {
	startBlock(out)
	text = bytes.TrimRight(text, "\n")
	for len(text) > 0 {
		line := text
		if i := bytes.IndexByte(text, '\n'); i >= 0 {
			line = text[:i]
			text = text[i+1:]
		} else {
			text = nil
		}
		if len(line) == 0 {
			out.WriteString(">\n")
			continue
		}
		out.WriteString("> ")
		out.Write(line)
		out.WriteByte('\n')
	}
}

func (f *formatter) blockHTML(out *bytes.Buffer, text []byte, opaque any) {
	text = bytes.Trim(text, "\n")
	if len(text) == 0 {
		return
	}
	startBlock(out)
	out.Write(text)
	out.WriteByte('\n')
}

func (f *formatter) header(out *bytes.Buffer, text []byte, level int, opaque any) {
	startBlock(out)
	out.WriteString(strings.Repeat("#", level))
	out.WriteByte(' ')
	out.Write(text)
	out.WriteByte('\n')
}

func (f *formatter) hrule(out *bytes.Buffer, opaque any) {
	startBlock(out)
	out.WriteString("* * *\n")
}

func (f *formatter) listStart(out *bytes.Buffer, flags markdown.ListFlags, opaque any) {
	f.lists = append(f.lists, 0)
}

func (f *formatter) list(out *bytes.Buffer, text []byte, flags markdown.ListFlags, opaque any) {
	if len(f.lists) > 0 {
		f.lists = f.lists[:len(f.lists)-1]
	}
	startBlock(out)
	out.Write(text)
}

// listIndent is the indentation of list item continuation lines.
// Four columns keeps code blocks nested in an item recognizable.
const listIndent = "    "

func (f *formatter) listItem(out *bytes.Buffer, text []byte, flags markdown.ListFlags, opaque any) {
	if flags&markdown.ListItemBlock != 0 && out.Len() > 0 {
		out.WriteByte('\n')
	}
	if flags&markdown.ListOrdered != 0 && len(f.lists) > 0 {
		f.lists[len(f.lists)-1]++
		out.WriteString(strconv.Itoa(f.lists[len(f.lists)-1]))
		out.WriteString(". ")
	} else {
		out.WriteString("- ")
	}
	if flags&markdown.ListItemBlock == 0 {
		// A blank line would make the item loose.
		text = collapseBlankLines(text)
	}
	indentedWrite(out, listIndent, bytes.TrimRight(text, "\n"))
	out.WriteByte('\n')
}

func (f *formatter) paragraph(out *bytes.Buffer, text []byte, opaque any) {
	startBlock(out)
	out.Write(text)
	out.WriteByte('\n')
}

func (f *formatter) table(out *bytes.Buffer, header, body []byte, opaque any) {
	startBlock(out)
	out.Write(header)
	for _, col := range f.columns {
		out.WriteString("| ")
		switch col.Align() {
		case markdown.TableAlignCenter:
			out.WriteString(":-:")
		case markdown.TableAlignLeft:
			out.WriteString(":--")
		case markdown.TableAlignRight:
			out.WriteString("--:")
		default:
			out.WriteString("---")
		}
		out.WriteByte(' ')
	}
	out.WriteString("|\n")
	out.Write(body)
	f.columns = f.columns[:0]
}

func (f *formatter) tableRow(out *bytes.Buffer, text []byte, opaque any) {
	out.Write(text)
	out.WriteString("|\n")
}

func (f *formatter) tableCell(out *bytes.Buffer, text []byte, flags markdown.TableFlags, opaque any) {
	if flags&markdown.TableHeader != 0 {
		f.columns = append(f.columns, flags)
	}
	out.WriteString("| ")
	out.Write(text)
	out.WriteByte(' ')
}

func (f *formatter) autolink(out *bytes.Buffer, link []byte, kind markdown.AutolinkKind, opaque any) bool {
	if kind == markdown.AutolinkEmail && f.ext&markdown.Autolink != 0 && !isAngleEmail(link) {
		// Bare addresses like "foo_bar@example.com" can't be bracketed.
		out.Write(link)
		return true
	}
	out.WriteByte('<')
	out.Write(link)
	out.WriteByte('>')
	return true
}

// isAngleEmail reports whether the local part of an e-mail address
// is allowed inside an angle-bracketed autolink.
func isAngleEmail(link []byte) bool {
	at := bytes.IndexByte(link, '@')
	if at <= 0 {
		return false
	}
	for _, c := range link[:at] {
		isAlnum := 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
		if !isAlnum && c != '.' && c != '+' && c != '-' {
			return false
		}
	}
	return true
}

func (f *formatter) codeSpan(out *bytes.Buffer, text []byte, opaque any) bool {
	fence := strings.Repeat("`", longestRun(text, '`')+1)
	pad := len(text) == 0 || text[0] == '`' || text[0] == ' ' ||
		text[len(text)-1] == '`' || text[len(text)-1] == ' '
	out.WriteString(fence)
	if pad {
		out.WriteByte(' ')
	}
	out.Write(text)
	if pad && len(text) > 0 {
		out.WriteByte(' ')
	}
	out.WriteString(fence)
	return true
}

// delimited returns a span callback that surrounds its content with delim.
func delimited(delim string) func(out *bytes.Buffer, text []byte, opaque any) bool {
	return func(out *bytes.Buffer, text []byte, opaque any) bool {
		if len(text) == 0 {
			return false
		}
		out.WriteString(delim)
		out.Write(text)
		out.WriteString(delim)
		return true
	}
}

func (f *formatter) superscript(out *bytes.Buffer, text []byte, opaque any) bool {
	if len(text) == 0 {
		return false
	}
	if bytes.ContainsAny(text, " \n()") {
		out.WriteString("^(")
		out.Write(text)
		out.WriteByte(')')
	} else {
		out.WriteByte('^')
		out.Write(text)
	}
	return true
}

func (f *formatter) image(out *bytes.Buffer, link, title, alt []byte, opaque any) bool {
	out.WriteString("![")
	out.Write(alt)
	out.WriteByte(']')
	writeDestination(out, link, title)
	return true
}

func (f *formatter) lineBreak(out *bytes.Buffer, opaque any) bool {
	out.WriteString("  \n")
	return true
}

func (f *formatter) link(out *bytes.Buffer, link, title, content []byte, opaque any) bool {
	out.WriteByte('[')
	out.Write(content)
	out.WriteByte(']')
	writeDestination(out, link, title)
	return true
}

func writeDestination(out *bytes.Buffer, link, title []byte) {
	out.WriteByte('(')
	if bytes.ContainsAny(link, " ()") {
		out.WriteByte('<')
		out.Write(link)
		out.WriteByte('>')
	} else {
		out.Write(link)
	}
	if len(title) > 0 {
		out.WriteString(` "`)
		out.Write(title)
		out.WriteByte('"')
	}
	out.WriteByte(')')
}

func (f *formatter) rawHTML(out *bytes.Buffer, tag []byte, opaque any) bool {
	out.Write(tag)
	return true
}

func (f *formatter) entity(out *bytes.Buffer, entity []byte, opaque any) {
	out.Write(entity)
}

// normalText escapes the characters that could start a span.
func (f *formatter) normalText(out *bytes.Buffer, text []byte, opaque any) {
	for _, c := range text {
		if f.isSpecial(c) {
			out.WriteByte('\\')
		}
		out.WriteByte(c)
	}
}

func (f *formatter) isSpecial(c byte) bool {
	switch c {
	case '\\', '`', '*', '_', '[', ']', '<', '&':
		return true
	case '~':
		return f.ext&markdown.Strikethrough != 0
	case '^':
		return f.ext&markdown.Superscript != 0
	case '|':
		return f.ext&markdown.Tables != 0
	default:
		return false
	}
}

func ensureNewline(out *bytes.Buffer) {
	if b := out.Bytes(); len(b) > 0 && b[len(b)-1] != '\n' {
		out.WriteByte('\n')
	}
}

// hasLinePrefix reports whether any line in text starts with prefix.
func hasLinePrefix(text []byte, prefix string) bool {
	for len(text) > 0 {
		if bytes.HasPrefix(text, []byte(prefix)) {
			return true
		}
		i := bytes.IndexByte(text, '\n')
		if i < 0 {
			break
		}
		text = text[i+1:]
	}
	return false
}

func longestRun(text []byte, c byte) int {
	longest, n := 0, 0
	for _, b := range text {
		if b != c {
			n = 0
			continue
		}
		n++
		if n > longest {
			longest = n
		}
	}
	return longest
}

func collapseBlankLines(text []byte) []byte {
	if !bytes.Contains(text, []byte("\n\n")) {
		return text
	}
	result := make([]byte, 0, len(text))
	for i, c := range text {
		if c == '\n' && i > 0 && text[i-1] == '\n' {
			continue
		}
		result = append(result, c)
	}
	return result
}

// indentedWrite writes p, indenting every non-empty line after the first.
func indentedWrite(w *bytes.Buffer, indent string, p []byte) {
	for {
		i := bytes.IndexByte(p, '\n')
		if i == -1 {
			break
		}
		w.Write(p[:i+1])
		p = p[i+1:]
		if len(p) > 0 && p[0] != '\n' {
			w.WriteString(indent)
		}
	}
	w.Write(p)
}
