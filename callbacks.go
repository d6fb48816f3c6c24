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

// ListFlags describes a list or list item passed to [Callbacks].
type ListFlags uint8

// List flags.
const (
	// ListOrdered is set for lists whose items begin with a number.
	ListOrdered ListFlags = 1 << iota
	// ListItemBlock is set once an item in the list contains a blank line.
	// Such items have their content parsed as blocks
	// instead of as a single run of inline text.
	ListItemBlock
	// ListItemEnd is set on the last item of a list
	// when the list ended because of a blank line.
	ListItemEnd
)

// TableFlags describes a table cell passed to [Callbacks].
type TableFlags uint8

// Table cell flags.
const (
	TableAlignLeft   TableFlags = 1
	TableAlignRight  TableFlags = 2
	TableAlignCenter TableFlags = TableAlignLeft | TableAlignRight
	TableAlignMask   TableFlags = TableAlignCenter
	TableHeader      TableFlags = 4
)

// Align returns the alignment bits of the flags.
func (flags TableFlags) Align() TableFlags {
	return flags & TableAlignMask
}

// AutolinkKind classifies a link found by the autolink recognizers.
type AutolinkKind uint8

// Autolink kinds.
const (
	NotAutolink AutolinkKind = iota
	// AutolinkNormal is a URI with a scheme, like "https://example.com/".
	AutolinkNormal
	// AutolinkEmail is a bare e-mail address without a "mailto:" scheme.
	AutolinkEmail
)

// Callbacks is the table of functions a [Parser] invokes as it recognizes
// Markdown constructs.
// Every function is optional.
//
// Each callback receives the output buffer it should append to,
// the construct's already rendered content, and the opaque value given to [New].
// Content is rendered before the callback enclosing it is called,
// so a List callback sees the output of all of its ListItem callbacks.
// Byte slices passed to callbacks are only valid for the duration of the call.
//
// Span-level callbacks report whether they rendered the construct.
// Returning false makes the parser treat the source text literally.
// A nil span-level callback disables recognition of the construct entirely.
// A nil BlockHTML callback disables recognition of raw HTML blocks;
// other nil block-level callbacks only suppress the output.
type Callbacks struct {
	// Block-level callbacks.

	// BlockCode receives the verbatim contents of an indented or fenced code block.
	// lang is nil if the block has no language tag.
	BlockCode  func(out *bytes.Buffer, text, lang []byte, opaque any)
	BlockQuote func(out *bytes.Buffer, text []byte, opaque any)
	BlockHTML  func(out *bytes.Buffer, text []byte, opaque any)
	Header     func(out *bytes.Buffer, text []byte, level int, opaque any)
	HRule      func(out *bytes.Buffer, opaque any)
	// ListStart is called before the first item of a list is parsed,
	// with the same output buffer that List will later receive.
	ListStart func(out *bytes.Buffer, flags ListFlags, opaque any)
	List      func(out *bytes.Buffer, text []byte, flags ListFlags, opaque any)
	ListItem  func(out *bytes.Buffer, text []byte, flags ListFlags, opaque any)
	Paragraph func(out *bytes.Buffer, text []byte, opaque any)
	Table     func(out *bytes.Buffer, header, body []byte, opaque any)
	TableRow  func(out *bytes.Buffer, text []byte, opaque any)
	TableCell func(out *bytes.Buffer, text []byte, flags TableFlags, opaque any)

	// Span-level callbacks.

	Autolink func(out *bytes.Buffer, link []byte, kind AutolinkKind, opaque any) bool
	// CodeSpan receives a nil text for an empty code span.
	CodeSpan       func(out *bytes.Buffer, text []byte, opaque any) bool
	DoubleEmphasis func(out *bytes.Buffer, text []byte, opaque any) bool
	Emphasis       func(out *bytes.Buffer, text []byte, opaque any) bool
	TripleEmphasis func(out *bytes.Buffer, text []byte, opaque any) bool
	Strikethrough  func(out *bytes.Buffer, text []byte, opaque any) bool
	Superscript    func(out *bytes.Buffer, text []byte, opaque any) bool
	// Image receives the unparsed alt text.
	Image     func(out *bytes.Buffer, link, title, alt []byte, opaque any) bool
	LineBreak func(out *bytes.Buffer, opaque any) bool
	// Link receives the rendered link text as content.
	Link       func(out *bytes.Buffer, link, title, content []byte, opaque any) bool
	RawHTMLTag func(out *bytes.Buffer, tag []byte, opaque any) bool

	// Low-level callbacks.
	// If nil, the source bytes are copied to the output unmodified.

	Entity     func(out *bytes.Buffer, entity []byte, opaque any)
	NormalText func(out *bytes.Buffer, text []byte, opaque any)

	// Document callbacks.

	DocHeader func(out *bytes.Buffer, opaque any)
	DocFooter func(out *bytes.Buffer, opaque any)
}

func (cb *Callbacks) hasEmphasis() bool {
	return cb.Emphasis != nil || cb.DoubleEmphasis != nil || cb.TripleEmphasis != nil
}
