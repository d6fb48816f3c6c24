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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"
)

func TestParseExtensions(t *testing.T) {
	tests := []struct {
		names   []string
		want    Extensions
		wantErr bool
	}{
		{names: nil, want: 0},
		{names: []string{"tables"}, want: Tables},
		{names: []string{"Tables", " fenced_code "}, want: Tables | FencedCode},
		{names: []string{"", "autolink", ""}, want: Autolink},
		{names: []string{"footnotes"}, wantErr: true},
	}
	for _, test := range tests {
		got, err := ParseExtensions(test.names)
		if err != nil {
			if !test.wantErr {
				t.Errorf("ParseExtensions(%q): %v", test.names, err)
			}
			continue
		}
		if test.wantErr {
			t.Errorf("ParseExtensions(%q) = %v, <nil>; want error", test.names, got)
			continue
		}
		if got != test.want {
			t.Errorf("ParseExtensions(%q) = %v; want %v", test.names, got, test.want)
		}
	}
}

func TestExtensionsString(t *testing.T) {
	tests := []struct {
		ext  Extensions
		want string
	}{
		{0, "none"},
		{Tables, "tables"},
		{Tables | Autolink | NoIntraEmphasis, "autolink,no-intra-emphasis,tables"},
	}
	for _, test := range tests {
		if got := test.ext.String(); got != test.want {
			t.Errorf("Extensions(%#x).String() = %q; want %q", uint32(test.ext), got, test.want)
		}
		if test.ext == 0 {
			continue
		}
		roundTrip, err := ParseExtensions(strings.Split(test.want, ","))
		if err != nil || roundTrip != test.ext {
			t.Errorf("ParseExtensions(%q) = %v, %v; want %v, <nil>", test.want, roundTrip, err, test.ext)
		}
	}
}

func TestVersion(t *testing.T) {
	major, minor, revision := Version()
	if major != 1 || minor != 16 || revision != 0 {
		t.Errorf("Version() = %d, %d, %d; want 1, 16, 0", major, minor, revision)
	}
}

func TestNewPanics(t *testing.T) {
	tests := []struct {
		name       string
		maxNesting int
		cb         *Callbacks
	}{
		{"ZeroNesting", 0, new(Callbacks)},
		{"NegativeNesting", -1, new(Callbacks)},
		{"NilCallbacks", DefaultMaxNesting, nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("New did not panic")
				}
			}()
			New(0, test.maxNesting, test.cb, nil)
		})
	}
}

func TestParserAccessors(t *testing.T) {
	p := New(Tables|Autolink, 7, new(Callbacks), nil)
	if got, want := p.Extensions(), Tables|Autolink; got != want {
		t.Errorf("p.Extensions() = %v; want %v", got, want)
	}
	if got := p.MaxNesting(); got != 7 {
		t.Errorf("p.MaxNesting() = %d; want 7", got)
	}
}

// recorder returns callbacks that append the name of each invoked callback
// to *events.
func recorder(events *[]string) *Callbacks {
	record := func(name string) { *events = append(*events, name) }
	return &Callbacks{
		BlockCode:  func(out *bytes.Buffer, text, lang []byte, opaque any) { record("block_code") },
		BlockQuote: func(out *bytes.Buffer, text []byte, opaque any) { record("block_quote") },
		Header:     func(out *bytes.Buffer, text []byte, level int, opaque any) { record("header") },
		HRule:      func(out *bytes.Buffer, opaque any) { record("hrule") },
		ListStart:  func(out *bytes.Buffer, flags ListFlags, opaque any) { record("list_start") },
		List:       func(out *bytes.Buffer, text []byte, flags ListFlags, opaque any) { record("list") },
		ListItem:   func(out *bytes.Buffer, text []byte, flags ListFlags, opaque any) { record("list_item") },
		Paragraph:  func(out *bytes.Buffer, text []byte, opaque any) { record("paragraph") },
		Emphasis: func(out *bytes.Buffer, text []byte, opaque any) bool {
			record("emphasis")
			return true
		},
		DocHeader: func(out *bytes.Buffer, opaque any) { record("doc_header") },
		DocFooter: func(out *bytes.Buffer, opaque any) { record("doc_footer") },
	}
}

func TestCallbackOrder(t *testing.T) {
	var events []string
	p := New(0, DefaultMaxNesting, recorder(&events), nil)
	p.Render(new(bytes.Buffer), []byte("# Title\n\n- *a*\n- b\n\n> quote\n\n***\n\n    code\n"))
	want := []string{
		"doc_header",
		"header",
		"list_start",
		"emphasis",
		"list_item",
		"list_item",
		"list",
		"paragraph",
		"block_quote",
		"hrule",
		"block_code",
		"doc_footer",
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestEmptyDocument(t *testing.T) {
	var events []string
	p := New(0, DefaultMaxNesting, recorder(&events), nil)
	p.Render(new(bytes.Buffer), nil)
	want := []string{"doc_header", "doc_footer"}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestOpaque(t *testing.T) {
	type state struct{ paragraphs int }
	s := new(state)
	cb := &Callbacks{
		Paragraph: func(out *bytes.Buffer, text []byte, opaque any) {
			opaque.(*state).paragraphs++
		},
	}
	New(0, DefaultMaxNesting, cb, s).Render(new(bytes.Buffer), []byte("a\n\nb\n\nc\n"))
	if s.paragraphs != 3 {
		t.Errorf("paragraphs = %d; want 3", s.paragraphs)
	}
}

func TestNilCallbacks(t *testing.T) {
	buf := new(bytes.Buffer)
	p := New(Tables|FencedCode|Autolink, DefaultMaxNesting, new(Callbacks), nil)
	p.Render(buf, []byte("# Title\n\nSome *text* with [a link](/u).\n\n- item\n"))
	if buf.Len() != 0 {
		t.Errorf("output = %q; want empty", buf)
	}
}

func TestNestingLimit(t *testing.T) {
	tests := []struct {
		name       string
		maxNesting int
		input      string
		want       string
	}{
		{
			name:       "Truncated",
			maxNesting: 2,
			input:      "> > > > > deep\n",
			want: "<blockquote>\n<blockquote>\n<blockquote>\n" +
				"</blockquote>\n</blockquote>\n</blockquote>\n",
		},
		{
			name:       "WithinLimit",
			maxNesting: DefaultMaxNesting,
			input:      "> > > > > deep\n",
			want: strings.Repeat("<blockquote>\n", 5) +
				"<p>deep</p>\n" +
				strings.Repeat("</blockquote>\n", 5),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := New(0, test.maxNesting, HTMLCallbacks(0), new(HTMLOptions))
			buf := new(bytes.Buffer)
			p.Render(buf, []byte(test.input))
			if diff := cmp.Diff(test.want, buf.String()); diff != "" {
				t.Errorf("output (-want +got):\n%s", diff)
			}
		})
	}
}

const allExtensions = NoIntraEmphasis | Tables | FencedCode | Autolink |
	Strikethrough | SpaceHeaders | Superscript | LaxSpacing

func TestRenderLeavesInputAndPoolIntact(t *testing.T) {
	inputs := []string{
		"> quoted *text*\n> > nested\n\ntail\n",
		"- a\n\n    > b\n- c\n",
		"| a | b |\n|---|---|\n| [x](/y) | **z** |\n",
		"```\ncode\n```\n\n<div>\nraw\n</div>\n",
		"see http://example.com/ and www.example.com or a@b.com\n",
	}
	for _, input := range inputs {
		for _, maxNesting := range []int{1, 3, DefaultMaxNesting} {
			source := []byte(input)
			p := New(allExtensions, maxNesting, HTMLCallbacks(0), new(HTMLOptions))
			r := p.render(new(bytes.Buffer), source)
			if string(source) != input {
				t.Errorf("Render(%q) modified its input to %q", input, source)
			}
			for _, scope := range []bufferScope{blockScope, spanScope} {
				if n := r.pool.depth(scope); n != 0 {
					t.Errorf("after Render(%q) with nesting %d, %v buffers in use = %d; want 0",
						input, maxNesting, scope, n)
				}
			}
		}
	}
}

func FuzzRender(f *testing.F) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txt"))
	if err != nil {
		f.Fatal(err)
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			f.Fatal(err)
		}
		for _, file := range txtar.Parse(data).Files {
			if strings.HasSuffix(file.Name, ".md") {
				f.Add(string(file.Data), uint32(allExtensions), uint8(DefaultMaxNesting))
			}
		}
	}

	f.Fuzz(func(t *testing.T, input string, ext uint32, maxNesting uint8) {
		if maxNesting == 0 {
			maxNesting = 1
		}
		source := []byte(input)
		p := New(Extensions(ext)&allExtensions, int(maxNesting), HTMLCallbacks(0), new(HTMLOptions))
		r := p.render(new(bytes.Buffer), source)
		if string(source) != input {
			t.Errorf("Render modified its input")
		}
		if n := r.pool.depth(blockScope) + r.pool.depth(spanScope); n != 0 {
			t.Errorf("%d buffers still in use after Render", n)
		}
	})
}
