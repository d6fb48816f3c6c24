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
	"testing"

	"github.com/google/go-cmp/cmp"
)

type renderTest struct {
	name  string
	ext   Extensions
	flags HTMLFlags
	input string
	want  string
}

func runRenderTests(t *testing.T, tests []renderTest) {
	t.Helper()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			if err := RenderHTML(buf, []byte(test.input), test.ext, &HTMLOptions{Flags: test.flags}); err != nil {
				t.Fatal("RenderHTML:", err)
			}
			if diff := cmp.Diff(test.want, buf.String()); diff != "" {
				t.Errorf("input:\n%s\noutput (-want +got):\n%s", test.input, diff)
			}
		})
	}
}

func TestEmphasis(t *testing.T) {
	runRenderTests(t, []renderTest{
		{
			name:  "Levels",
			input: "*a* **b** ***c***",
			want:  "<p><em>a</em> <strong>b</strong> <strong><em>c</em></strong></p>\n",
		},
		{
			name:  "Underscore",
			input: "_a_ __b__",
			want:  "<p><em>a</em> <strong>b</strong></p>\n",
		},
		{
			name:  "SpaceAfterOpener",
			input: "a * not*",
			want:  "<p>a * not*</p>\n",
		},
		{
			name:  "UnclosedDouble",
			input: "**a*",
			want:  "<p>*<em>a</em></p>\n",
		},
		{
			name:  "IntraWord",
			input: "snake_case_name",
			want:  "<p>snake<em>case</em>name</p>\n",
		},
		{
			name:  "NoIntraEmphasis",
			ext:   NoIntraEmphasis,
			input: "snake_case_name and _this_",
			want:  "<p>snake_case_name and <em>this</em></p>\n",
		},
		{
			name:  "NoIntraEmphasisAfterCodeSpan",
			ext:   NoIntraEmphasis,
			input: "`x`_y_",
			want:  "<p><code>x</code>_y_</p>\n",
		},
		{
			name:  "NoIntraEmphasisAfterEntity",
			ext:   NoIntraEmphasis,
			input: "&amp;_y_",
			want:  "<p>&amp;_y_</p>\n",
		},
		{
			name:  "NoIntraEmphasisAfterTag",
			ext:   NoIntraEmphasis,
			input: "<b>x</b>_y_",
			want:  "<p><b>x</b><em>y</em></p>\n",
		},
		{
			name:  "DelimiterInCodeSpan",
			input: "*a `*` b*",
			want:  "<p><em>a <code>*</code> b</em></p>\n",
		},
		{
			name:  "SingleTildeIsText",
			ext:   Strikethrough,
			input: "~a~ ~~b~~",
			want:  "<p>~a~ <del>b</del></p>\n",
		},
		{
			name:  "TildeWithoutExtension",
			input: "~~b~~",
			want:  "<p>~~b~~</p>\n",
		},
	})
}

func TestCodeSpans(t *testing.T) {
	runRenderTests(t, []renderTest{
		{
			name:  "Simple",
			input: "`a < b`",
			want:  "<p><code>a &lt; b</code></p>\n",
		},
		{
			name:  "DoubleBackticks",
			input: "`` ` ``",
			want:  "<p><code>`</code></p>\n",
		},
		{
			name:  "ShorterRunInside",
			input: "``a ` b``",
			want:  "<p><code>a ` b</code></p>\n",
		},
		{
			name:  "OnlySpaces",
			input: "x ` ` y",
			want:  "<p>x <code></code> y</p>\n",
		},
		{
			name:  "Unmatched",
			input: "``a`",
			want:  "<p>`<code>a</code></p>\n",
		},
		{
			name:  "NoCloser",
			input: "`a",
			want:  "<p>`a</p>\n",
		},
	})
}

func TestLinks(t *testing.T) {
	runRenderTests(t, []renderTest{
		{
			name:  "AngleDestination",
			input: "[a](<b c>)",
			want:  "<p><a href=\"b%20c\">a</a></p>\n",
		},
		{
			name:  "EmptyDestination",
			input: "[a]()",
			want:  "<p><a href=\"\">a</a></p>\n",
		},
		{
			name:  "SingleQuotedTitle",
			input: "[a](/u 'T')",
			want:  "<p><a href=\"/u\" title=\"T\">a</a></p>\n",
		},
		{
			name:  "EscapedParen",
			input: `[a](/u\)v)`,
			want:  "<p><a href=\"/u)v\">a</a></p>\n",
		},
		{
			name:  "EmphasisInText",
			input: "[*a*](/u)",
			want:  "<p><a href=\"/u\"><em>a</em></a></p>\n",
		},
		{
			name:  "SpaceBeforeLabel",
			input: "[a] [b]\n\n[b]: /u\n",
			want:  "<p><a href=\"/u\">a</a></p>\n",
		},
		{
			name:  "ExplicitLabel",
			input: "[see][A]\n\n[a]: /x \"T\"\n",
			want:  "<p><a href=\"/x\" title=\"T\">see</a></p>\n",
		},
		{
			name:  "UndefinedExplicitLabel",
			input: "[see][b]\n\n[a]: /x \"T\"\n",
			want:  "<p>[see][b]</p>\n",
		},
		{
			name:  "UndefinedReference",
			input: "[missing]",
			want:  "<p>[missing]</p>\n",
		},
		{
			name:  "Image",
			input: "![a *b*](/i \"t\")",
			want:  "<p><img src=\"/i\" alt=\"a *b*\" title=\"t\"></p>\n",
		},
		{
			name:  "ImageReference",
			input: "![logo][]\n\n[logo]: /logo.png\n",
			want:  "<p><img src=\"/logo.png\" alt=\"logo\"></p>\n",
		},
		{
			name:  "NoAutolinkInLinkText",
			ext:   Autolink,
			input: "[see http://example.com/](/u)",
			want:  "<p><a href=\"/u\">see http://example.com/</a></p>\n",
		},
	})
}

func TestEscapesAndEntities(t *testing.T) {
	runRenderTests(t, []renderTest{
		{
			name:  "Escapes",
			input: `\*a\* \_b\_ \[c\] \\`,
			want:  "<p>*a* _b_ [c] \\</p>\n",
		},
		{
			name:  "NotEscapable",
			input: `a\b`,
			want:  "<p>a\\b</p>\n",
		},
		{
			name:  "Entities",
			input: "&copy; &#169; &amp; a&b",
			want:  "<p>&copy; &#169; &amp; a&amp;b</p>\n",
		},
		{
			name:  "HardBreak",
			input: "a   \nb",
			want:  "<p>a<br>\nb</p>\n",
		},
		{
			name:  "SoftBreak",
			input: "a \nb",
			want:  "<p>a \nb</p>\n",
		},
	})
}

func TestAutolinks(t *testing.T) {
	runRenderTests(t, []renderTest{
		{
			name:  "AngleEmail",
			input: "<foo@example.com>",
			want:  "<p><a href=\"mailto:foo@example.com\">foo@example.com</a></p>\n",
		},
		{
			name:  "AngleMailto",
			input: "<mailto:foo@example.com>",
			want:  "<p><a href=\"mailto:foo@example.com\">foo@example.com</a></p>\n",
		},
		{
			name:  "BareURLWithoutExtension",
			input: "see http://example.com/",
			want:  "<p>see http://example.com/</p>\n",
		},
		{
			name:  "BalancedParentheses",
			ext:   Autolink,
			input: "(see http://example.com/a_(b))",
			want:  "<p>(see <a href=\"http://example.com/a_(b)\">http://example.com/a_(b)</a>)</p>\n",
		},
		{
			name:  "TrailingParenthesis",
			ext:   Autolink,
			input: "(see http://example.com/a)",
			want:  "<p>(see <a href=\"http://example.com/a\">http://example.com/a</a>)</p>\n",
		},
		{
			name:  "UnsafeScheme",
			ext:   Autolink,
			input: "javascript://example.com/",
			want:  "<p>javascript://example.com/</p>\n",
		},
	})
}
