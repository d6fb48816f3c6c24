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

// Package normhtml normalizes HTML so that two renderings
// can be compared without regard to insignificant whitespace,
// attribute order, or void element syntax.
//
// The rules follow the normalizer of the CommonMark test suite:
// the line ending after a <br> element is dropped
// and the contents of <pre> elements are compared verbatim.
// Within this module it lets the golden tests compare the HTML renderer
// against goldmark, whose block layout differs,
// and lets the format tests check that reformatted Markdown
// renders to the same HTML as the original.
package normhtml

import (
	"bytes"
	"regexp"
	"sort"
	"unicode"

	"go4.org/bytereplacer"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

var textEscaper = bytereplacer.New(
	"&", "&amp;",
	`'`, "&apos;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
)

type attribute struct {
	key   string
	value string
}

// normalizer holds the state of a single NormalizeHTML call.
type normalizer struct {
	output  []byte
	last    html.TokenType
	lastTag atom.Atom
	inPre   bool
}

// NormalizeHTML strips insignificant output differences from HTML.
// Self-closing tags like <br/> are written as start tags,
// attributes are sorted by name,
// and whitespace around block-level tags is removed.
func NormalizeHTML(b []byte) []byte {
	tok := html.NewTokenizerFragment(bytes.NewReader(b), "div")
	n := &normalizer{last: html.StartTagToken}
	for {
		tt := tok.Next()
		switch tt {
		case html.ErrorToken:
			return n.output
		case html.TextToken:
			n.text(tok.Text())
		case html.EndTagToken:
			name, _ := tok.TagName()
			n.endTag(name)
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tok.TagName()
			var attrs []attribute
			for hasAttr {
				var k, v []byte
				k, v, hasAttr = tok.TagAttr()
				attrs = append(attrs, attribute{string(k), string(v)})
			}
			n.startTag(name, attrs)
		case html.CommentToken:
			n.output = append(n.output, tok.Raw()...)
		}

		n.last = tt
		if tt == html.SelfClosingTagToken {
			n.last = html.EndTagToken
		}
	}
}

func (n *normalizer) text(data []byte) {
	afterTag := n.last == html.EndTagToken || n.last == html.StartTagToken
	if afterTag && n.lastTag == atom.Br {
		data = bytes.TrimLeft(data, "\n")
	}
	if !n.inPre {
		data = whitespaceRE.ReplaceAll(data, []byte(" "))
		if afterTag && isBlockTag(n.lastTag) {
			switch n.last {
			case html.StartTagToken:
				data = bytes.TrimLeftFunc(data, unicode.IsSpace)
			case html.EndTagToken:
				data = bytes.TrimSpace(data)
			}
		}
	}
	n.output = append(n.output, textEscaper.Replace(bytes.Clone(data))...)
}

func (n *normalizer) startTag(name []byte, attrs []attribute) {
	a := atom.Lookup(name)
	if a == atom.Pre {
		n.inPre = true
	}
	if isBlockTag(a) {
		n.output = bytes.TrimRightFunc(n.output, unicode.IsSpace)
	}
	n.output = append(n.output, '<')
	n.output = append(n.output, name...)
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].key < attrs[j].key
	})
	for _, attr := range attrs {
		n.output = append(n.output, ' ')
		n.output = append(n.output, attr.key...)
		if attr.value != "" {
			n.output = append(n.output, `="`...)
			n.output = append(n.output, html.EscapeString(attr.value)...)
			n.output = append(n.output, '"')
		}
	}
	n.output = append(n.output, '>')
	n.lastTag = a
}

func (n *normalizer) endTag(name []byte) {
	a := atom.Lookup(name)
	switch {
	case a == atom.Pre:
		n.inPre = false
	case isBlockTag(a):
		n.output = bytes.TrimRightFunc(n.output, unicode.IsSpace)
	}
	n.output = append(n.output, "</"...)
	n.output = append(n.output, name...)
	n.output = append(n.output, '>')
	n.lastTag = a
}

func isBlockTag(a atom.Atom) bool {
	switch a {
	case atom.Article, atom.Aside, atom.Blockquote, atom.Body, atom.Button,
		atom.Canvas, atom.Caption, atom.Col, atom.Colgroup,
		atom.Dd, atom.Div, atom.Dl, atom.Dt, atom.Embed,
		atom.Fieldset, atom.Figcaption, atom.Figure, atom.Footer, atom.Form,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Header, atom.Hgroup, atom.Hr, atom.Iframe, atom.Li, atom.Map,
		atom.Object, atom.Ol, atom.Output, atom.P, atom.Pre, atom.Progress,
		atom.Script, atom.Section, atom.Style,
		atom.Table, atom.Tbody, atom.Td, atom.Textarea, atom.Tfoot,
		atom.Th, atom.Thead, atom.Tr, atom.Ul, atom.Video:
		return true
	default:
		return false
	}
}
