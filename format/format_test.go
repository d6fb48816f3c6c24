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

package format

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/markdown"
	"zombiezen.com/go/markdown/internal/normhtml"
)

var formatTests = []struct {
	name  string
	ext   markdown.Extensions
	input string
	want  string
}{
	{
		name:  "Paragraphs",
		input: "a\nb\n\n\n\nc\n",
		want:  "a\nb\n\nc\n",
	},
	{
		name:  "SetextHeader",
		input: "Title\n=====\n\nSub\n---\n",
		want:  "# Title\n\n## Sub\n",
	},
	{
		name:  "Emphasis",
		input: "*a* __b__ ***c***\n",
		want:  "*a* **b** ***c***\n",
	},
	{
		name:  "Escapes",
		input: "\\*a\\* 1 < 2 & 3\n",
		want:  "\\*a\\* 1 \\< 2 \\& 3\n",
	},
	{
		name:  "CodeSpanWithBacktick",
		input: "`` a`b ``\n",
		want:  "``a`b``\n",
	},
	{
		name:  "HRule",
		input: "***\n",
		want:  "* * *\n",
	},
	{
		name:  "BlockQuote",
		input: "> a\n>\n> b\n",
		want:  "> a\n>\n> b\n",
	},
	{
		name:  "IndentedCode",
		input: "    x\n",
		want:  "    x\n",
	},
	{
		name:  "FencedCode",
		ext:   markdown.FencedCode,
		input: "```go\nx\n```\n",
		want:  "```go\nx\n```\n",
	},
	{
		name:  "TightList",
		input: "* one\n* two\n    * nested\n",
		want:  "- one\n- two\n    - nested\n",
	},
	{
		name:  "LooseList",
		input: "- a\n\n- b\n",
		want:  "- a\n\n- b\n",
	},
	{
		name:  "OrderedList",
		input: "3. a\n4. b\n",
		want:  "1. a\n2. b\n",
	},
	{
		name:  "TildeFence",
		ext:   markdown.FencedCode,
		input: "~~~~\n```\n~~~~\n",
		want:  "~~~\n```\n~~~\n",
	},
	{
		name:  "BareEmail",
		ext:   markdown.Autolink,
		input: "mail foo_bar@example.com now\n",
		want:  "mail foo_bar@example.com now\n",
	},
	{
		name:  "BracketedEmail",
		ext:   markdown.Autolink,
		input: "mail foo.bar@example.com now\n",
		want:  "mail <foo.bar@example.com> now\n",
	},
	{
		name:  "BareURLAfterEscapedText",
		ext:   markdown.Autolink,
		input: "a_b http://example.com/\n",
		want:  "a\\_b <http://example.com/>\n",
	},
	{
		name:  "LinkWithSpace",
		input: "[a](<b c>)\n",
		want:  "[a](<b c>)\n",
	},
	{
		name:  "ReferenceLink",
		input: "[a][x]\n\n[x]: /u \"T\"\n",
		want:  "[a](/u \"T\")\n",
	},
	{
		name:  "Image",
		input: "![alt](/i \"t\")\n",
		want:  "![alt](/i \"t\")\n",
	},
	{
		name:  "Autolink",
		input: "<http://example.com/>\n",
		want:  "<http://example.com/>\n",
	},
	{
		name:  "HardBreak",
		input: "a   \nb\n",
		want:  "a  \nb\n",
	},
	{
		name:  "Table",
		ext:   markdown.Tables,
		input: "a | b\n:--|--:\nc | d\n",
		want:  "| a | b |\n| :-- | --: |\n| c | d |\n",
	},
	{
		name:  "Superscript",
		ext:   markdown.Superscript,
		input: "a^(b c) d^e\n",
		want:  "a^(b c) d^e\n",
	},
	{
		name:  "Strikethrough",
		ext:   markdown.Strikethrough,
		input: "~~a~~ ~b\n",
		want:  "~~a~~ \\~b\n",
	},
}

func TestFormat(t *testing.T) {
	for _, test := range formatTests {
		t.Run(test.name, func(t *testing.T) {
			got := new(bytes.Buffer)
			if err := Format(got, []byte(test.input), test.ext); err != nil {
				t.Fatal("Format:", err)
			}
			if diff := cmp.Diff(test.want, got.String()); diff != "" {
				t.Errorf("output (-want +got):\n%s", diff)
			}

			again := new(bytes.Buffer)
			if err := Format(again, got.Bytes(), test.ext); err != nil {
				t.Fatal("Format #2:", err)
			}
			if diff := cmp.Diff(got.String(), again.String()); diff != "" {
				t.Errorf("Format not idempotent (-first +second):\n%s", diff)
			}
		})
	}
}

func FuzzFormat(f *testing.F) {
	for _, test := range formatTests {
		f.Add(test.input, uint32(test.ext))
	}

	f.Fuzz(func(t *testing.T, input string, extBits uint32) {
		ext := markdown.Extensions(extBits) & (markdown.NoIntraEmphasis |
			markdown.Tables |
			markdown.FencedCode |
			markdown.Autolink |
			markdown.Strikethrough |
			markdown.SpaceHeaders |
			markdown.Superscript |
			markdown.LaxSpacing)
		originalHTML := new(bytes.Buffer)
		if err := markdown.RenderHTML(originalHTML, []byte(input), ext, nil); err != nil {
			t.Fatal("Render original HTML:", err)
		}

		got := new(bytes.Buffer)
		if err := Format(got, []byte(input), ext); err != nil {
			t.Fatal("Format:", err)
		}

		formattedHTML := new(bytes.Buffer)
		if err := markdown.RenderHTML(formattedHTML, got.Bytes(), ext, nil); err != nil {
			t.Fatal("Render formatted HTML:", err)
		}
		diff := cmp.Diff(
			string(normhtml.NormalizeHTML(originalHTML.Bytes())),
			string(normhtml.NormalizeHTML(formattedHTML.Bytes())),
		)
		if diff != "" {
			t.Skipf("Reformatting changed semantics. Original:\n%s\nReformatting:\n%s\nHTML diff (-want +got):\n%s", input, got, diff)
		}
	})
}

func TestCodeSpan(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"a", "`a`"},
		{"a`b", "``a`b``"},
		{"`a", "`` `a ``"},
		{"a ``", "``` a `` ```"},
		{"", "` `"},
	}
	f := new(formatter)
	for _, test := range tests {
		buf := new(bytes.Buffer)
		f.codeSpan(buf, []byte(test.text), nil)
		if got := buf.String(); got != test.want {
			t.Errorf("codeSpan(%q) = %q; want %q", test.text, got, test.want)
		}
	}
}

func TestNormalText(t *testing.T) {
	tests := []struct {
		ext  markdown.Extensions
		text string
		want string
	}{
		{0, "plain text.", "plain text."},
		{0, "a*b_c`d", "a\\*b\\_c\\`d"},
		{0, "[x] <y> &z \\", "\\[x\\] \\<y> \\&z \\\\"},
		{0, "~ ^ |", "~ ^ |"},
		{markdown.Strikethrough, "~", "\\~"},
		{markdown.Superscript, "^", "\\^"},
		{markdown.Tables, "|", "\\|"},
	}
	for _, test := range tests {
		f := &formatter{ext: test.ext}
		buf := new(bytes.Buffer)
		f.normalText(buf, []byte(test.text), nil)
		if got := buf.String(); got != test.want {
			t.Errorf("normalText(%q) with %v = %q; want %q", test.text, test.ext, got, test.want)
		}
	}
}

func TestLongestRun(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"a`b", 1},
		{"``a```b`", 3},
	}
	for _, test := range tests {
		if got := longestRun([]byte(test.text), '`'); got != test.want {
			t.Errorf("longestRun(%q, '`') = %d; want %d", test.text, got, test.want)
		}
	}
}

func TestCollapseBlankLines(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"a\nb\n", "a\nb\n"},
		{"a\n\nb\n", "a\nb\n"},
		{"a\n\n\n- b\n", "a\n- b\n"},
	}
	for _, test := range tests {
		if got := string(collapseBlankLines([]byte(test.text))); got != test.want {
			t.Errorf("collapseBlankLines(%q) = %q; want %q", test.text, got, test.want)
		}
	}
}

func TestIndentedWrite(t *testing.T) {
	buf := new(bytes.Buffer)
	indentedWrite(buf, "    ", []byte("a\n\nb\nc"))
	const want = "a\n\n    b\n    c"
	if got := buf.String(); got != want {
		t.Errorf("indentedWrite(...) = %q; want %q", got, want)
	}
}
