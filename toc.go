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

	"golang.org/x/net/html/atom"
)

// TOCCallbacks returns callbacks that render a nested list of links
// to the document's headers.
// The parser's opaque value should be an [*HTMLOptions].
// The anchors match the header ids written by [HTMLCallbacks]
// when [HTMLTOC] is set.
func TOCCallbacks() *Callbacks {
	return &Callbacks{
		Header: tocHeader,

		CodeSpan:       htmlCodeSpan,
		DoubleEmphasis: htmlSpan(atom.Strong),
		Emphasis:       htmlSpan(atom.Em),
		TripleEmphasis: htmlTripleEmphasis,
		Strikethrough:  htmlSpan(atom.Del),
		Superscript:    htmlSpan(atom.Sup),
		Link:           tocLink,

		DocFooter: tocFinalize,
	}
}

// RenderTOC writes the table of contents of a Markdown document to w.
func RenderTOC(w io.Writer, source []byte, ext Extensions) error {
	buf := new(bytes.Buffer)
	New(ext, DefaultMaxNesting, TOCCallbacks(), new(HTMLOptions)).Render(buf, source)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("render markdown table of contents: %w", err)
	}
	return nil
}

func tocHeader(out *bytes.Buffer, text []byte, level int, opaque any) {
	toc := &htmlOptions(opaque).toc

	// The first header sets the outermost level.
	if toc.currentLevel == 0 {
		toc.levelOffset = level - 1
	}
	level -= toc.levelOffset
	if level < 1 {
		level = 1
	}

	switch {
	case level > toc.currentLevel:
		for ; level > toc.currentLevel; toc.currentLevel++ {
			out.WriteString("<ul>\n<li>\n")
		}
	case level < toc.currentLevel:
		out.WriteString("</li>\n")
		for ; level < toc.currentLevel; toc.currentLevel-- {
			out.WriteString("</ul>\n</li>\n")
		}
		out.WriteString("<li>\n")
	default:
		out.WriteString("</li>\n<li>\n")
	}

	out.WriteString(`<a href="#toc_`)
	out.WriteString(strconv.Itoa(toc.headerCount))
	out.WriteString(`">`)
	toc.headerCount++
	escapeHTML(out, text)
	out.WriteString("</a>\n")
}

// tocLink keeps only a link's content.
func tocLink(out *bytes.Buffer, link, title, content []byte, opaque any) bool {
	out.Write(content)
	return true
}

func tocFinalize(out *bytes.Buffer, opaque any) {
	toc := &htmlOptions(opaque).toc
	for ; toc.currentLevel > 0; toc.currentLevel-- {
		out.WriteString("</li>\n</ul>\n")
	}
}
