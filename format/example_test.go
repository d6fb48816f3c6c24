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

package format_test

import (
	"bytes"
	"os"

	"zombiezen.com/go/markdown"
	"zombiezen.com/go/markdown/format"
)

func ExampleFormat() {
	input := []byte("Title\n" +
		"=====\n" +
		"\n" +
		"Hello, *World*!\n" +
		"\n" +
		"* one\n" +
		"* two\n" +
		"    * nested\n" +
		"\n" +
		"Some `code` and a [link][].\n" +
		"\n" +
		"1. first\n" +
		"2. second\n" +
		"\n" +
		"[link]: http://example.com/ \"Example\"\n")
	out := new(bytes.Buffer)
	if err := format.Format(out, input, markdown.FencedCode); err != nil {
		// Writing in-memory shouldn't fail.
		panic(err)
	}
	os.Stdout.Write(out.Bytes())
	// Output:
	// # Title
	//
	// Hello, *World*!
	//
	// - one
	// - two
	//     - nested
	//
	// Some `code` and a [link](http://example.com/ "Example").
	//
	// 1. first
	// 2. second
}
