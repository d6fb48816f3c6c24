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

// Package markdown implements a callback-driven Markdown parser.
//
// A [Parser] splits a document into blocks (headers, paragraphs, lists,
// block quotes, code blocks, tables, raw HTML) and then scans the text of
// each block for inline markup (emphasis, code spans, links, images,
// autolinks, raw tags, entities). Instead of building a syntax tree, the
// parser reports everything it recognizes to a table of [Callbacks] in
// document order. Each callback receives the rendered output of its
// children, so a renderer is just a set of functions that wrap content:
// [HTMLCallbacks] produces HTML, [TOCCallbacks] produces a table of
// contents, and the format sub-package produces normalized Markdown.
//
// The syntax recognized is the classic Markdown dialect with optional
// [Extensions]; it does not aim for CommonMark conformance.
package markdown

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Version numbers reported by [Version].
const (
	versionMajor    = 1
	versionMinor    = 16
	versionRevision = 0
)

// Version returns the parser's version triple.
func Version() (major, minor, revision int) {
	return versionMajor, versionMinor, versionRevision
}

// DefaultMaxNesting is a nesting limit suitable for most documents.
const DefaultMaxNesting = 16

// Extensions is a set of flags that enable syntax
// beyond the core Markdown grammar.
type Extensions uint32

// Extension flags.
const (
	// NoIntraEmphasis disables emphasis in the middle of words,
	// as in "snake_case_name".
	NoIntraEmphasis Extensions = 1 << iota
	// Tables enables pipe tables with an alignment row.
	Tables
	// FencedCode enables code blocks delimited by ``` or ~~~ lines.
	FencedCode
	// Autolink recognizes bare URLs, "www." hosts and e-mail addresses.
	Autolink
	// Strikethrough enables ~~deleted~~ text.
	Strikethrough
	// SpaceHeaders requires a space between the # characters
	// and the text of an ATX header.
	SpaceHeaders
	// Superscript enables ^word and ^(several words).
	Superscript
	// LaxSpacing lets lists, fences and HTML blocks
	// interrupt a paragraph without a blank line.
	LaxSpacing
)

var extensionNames = map[string]Extensions{
	"no-intra-emphasis": NoIntraEmphasis,
	"tables":            Tables,
	"fenced-code":       FencedCode,
	"autolink":          Autolink,
	"strikethrough":     Strikethrough,
	"space-headers":     SpaceHeaders,
	"superscript":       Superscript,
	"lax-spacing":       LaxSpacing,
}

// ParseExtensions converts extension names like "tables" or "fenced-code"
// into a set of flags.
// Names are case-insensitive and may use underscores in place of hyphens.
func ParseExtensions(names []string) (Extensions, error) {
	var ext Extensions
	for _, name := range names {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
		if key == "" {
			continue
		}
		flag, ok := extensionNames[key]
		if !ok {
			return 0, fmt.Errorf("parse extensions: unknown extension %q", name)
		}
		ext |= flag
	}
	return ext, nil
}

// String returns the comma-separated names of the extensions in the set.
func (ext Extensions) String() string {
	var names []string
	for name, flag := range extensionNames {
		if ext&flag != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// A Parser converts Markdown documents into calls to a [Callbacks] table.
// A Parser is immutable once created,
// so its Render method may be called from multiple goroutines
// as long as the callbacks themselves are safe to do so.
type Parser struct {
	ext        Extensions
	maxNesting int
	cb         Callbacks
	opaque     any
	active     [256]activeChar
}

// New returns a new parser that reports to the given callbacks.
// maxNesting bounds the combined depth of nested blocks and spans;
// constructs nested deeper are silently dropped.
// opaque is passed unchanged to every callback.
// New panics if maxNesting is not positive or cb is nil.
func New(ext Extensions, maxNesting int, cb *Callbacks, opaque any) *Parser {
	if maxNesting <= 0 {
		panic("markdown.New: maxNesting must be positive")
	}
	if cb == nil {
		panic("markdown.New: nil callbacks")
	}
	p := &Parser{
		ext:        ext,
		maxNesting: maxNesting,
		cb:         *cb,
		opaque:     opaque,
	}
	p.active = newActiveTable(ext, &p.cb)
	return p
}

// Extensions returns the extensions the parser was created with.
func (p *Parser) Extensions() Extensions {
	return p.ext
}

// MaxNesting returns the parser's nesting limit.
func (p *Parser) MaxNesting() int {
	return p.maxNesting
}

// Render parses the Markdown document in input
// and appends the callbacks' output to out.
// Render never modifies input.
func (p *Parser) Render(out *bytes.Buffer, input []byte) {
	p.render(out, input)
}

// render is Render, but returns the per-document state for inspection.
func (p *Parser) render(out *bytes.Buffer, input []byte) *renderer {
	r := &renderer{Parser: p}
	text := normalize(input, &r.refs)
	if p.cb.DocHeader != nil {
		p.cb.DocHeader(out, p.opaque)
	}
	if len(text) > 0 {
		r.parseBlock(out, text)
	}
	if p.cb.DocFooter != nil {
		p.cb.DocFooter(out, p.opaque)
	}
	return r
}

// renderer is the state of a single Render call.
type renderer struct {
	*Parser
	refs referenceTable
	pool bufferPool

	// inLinkBody is set while parsing the text of a link
	// to keep autolinks from nesting inside it.
	inLinkBody bool
}

// nestingExceeded reports whether the parser has exceeded its nesting limit.
func (r *renderer) nestingExceeded() bool {
	return r.pool.depth(blockScope)+r.pool.depth(spanScope) > r.maxNesting
}

// activeChar identifies the inline handler for a byte.
type activeChar uint8

const (
	charNone activeChar = iota
	charEmphasis
	charCodeSpan
	charLineBreak
	charLink
	charLangle
	charEscape
	charEntity
	charAutolinkURL
	charAutolinkEmail
	charAutolinkWWW
	charSuperscript
)

func newActiveTable(ext Extensions, cb *Callbacks) [256]activeChar {
	var t [256]activeChar
	if cb.hasEmphasis() {
		t['*'] = charEmphasis
		t['_'] = charEmphasis
		if ext&Strikethrough != 0 {
			t['~'] = charEmphasis
		}
	}
	if cb.CodeSpan != nil {
		t['`'] = charCodeSpan
	}
	if cb.LineBreak != nil {
		t['\n'] = charLineBreak
	}
	if cb.Image != nil || cb.Link != nil {
		t['['] = charLink
	}
	t['<'] = charLangle
	t['\\'] = charEscape
	t['&'] = charEntity
	if ext&Autolink != 0 {
		t[':'] = charAutolinkURL
		t['@'] = charAutolinkEmail
		t['w'] = charAutolinkWWW
	}
	if ext&Superscript != 0 {
		t['^'] = charSuperscript
	}
	return t
}
