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

// charEmphasis handles a run of one to three emphasis delimiters
// ('*', '_', or '~').
func (r *renderer) charEmphasis(out *bytes.Buffer, prev, data []byte) int {
	c := data[0]
	if r.ext&NoIntraEmphasis != 0 && len(prev) > 0 {
		if p := prev[len(prev)-1]; !isSpace(p) && p != '>' {
			return 0
		}
	}

	switch {
	case len(data) > 2 && data[1] != c:
		// Strikethrough needs two tildes,
		// and an opening delimiter can't be followed by a space.
		if c == '~' || isSpace(data[1]) {
			return 0
		}
		if n := r.parseEmph1(out, data, 1, c); n > 0 {
			return n + 1
		}
	case len(data) > 3 && data[1] == c && data[2] != c:
		if isSpace(data[2]) {
			return 0
		}
		if n := r.parseEmph2(out, data, 2, c); n > 0 {
			return n + 2
		}
	case len(data) > 4 && data[1] == c && data[2] == c && data[3] != c:
		if c == '~' || isSpace(data[3]) {
			return 0
		}
		if n := r.parseEmph3(out, data, 3, c); n > 0 {
			return n + 3
		}
	}
	return 0
}

// findEmphChar returns the position of the next c in data after data[0],
// skipping over code spans and links.
// If c only occurs inside a skipped span that is never closed,
// the position of its first occurrence there is returned instead.
// findEmphChar returns zero if there is no such c.
func findEmphChar(data []byte, c byte) int {
	for i := 1; i < len(data); {
		for i < len(data) && data[i] != c && data[i] != '`' && data[i] != '[' {
			i++
		}
		if i == len(data) {
			return 0
		}
		if data[i] == c {
			return i
		}
		if data[i-1] == '\\' {
			// Escaped.
			i++
			continue
		}

		// fallback is the first c inside the skipped span.
		fallback := 0
		if data[i] == '`' {
			// Skip the code span by matching backtick counts.
			span := 0
			for i < len(data) && data[i] == '`' {
				i++
				span++
			}
			if i >= len(data) {
				return 0
			}
			bt := 0
			for i < len(data) && bt < span {
				if fallback == 0 && data[i] == c {
					fallback = i
				}
				if data[i] == '`' {
					bt++
				} else {
					bt = 0
				}
				i++
			}
			if i >= len(data) {
				return fallback
			}
			continue
		}

		// Skip the link text and its destination or label.
		i++
		for i < len(data) && data[i] != ']' {
			if fallback == 0 && data[i] == c {
				fallback = i
			}
			i++
		}
		i++
		for i < len(data) && (data[i] == ' ' || data[i] == '\n') {
			i++
		}
		if i >= len(data) {
			return fallback
		}
		var cc byte
		switch data[i] {
		case '[':
			cc = ']'
		case '(':
			cc = ')'
		default:
			if fallback != 0 {
				return fallback
			}
			continue
		}
		i++
		for i < len(data) && data[i] != cc {
			if fallback == 0 && data[i] == c {
				fallback = i
			}
			i++
		}
		if i >= len(data) {
			return fallback
		}
		i++
	}
	return 0
}

// parseEmph1 looks for the end of single emphasis whose content
// starts at d[start:].
// d begins at the opening delimiter run,
// so callers may start the search to the left of their own content.
// It returns the number of bytes consumed from d[start:] (including
// the closing delimiter), or zero if the emphasis is not closed.
func (r *renderer) parseEmph1(out *bytes.Buffer, d []byte, start int, c byte) int {
	if r.cb.Emphasis == nil {
		return 0
	}
	data := d[start:]
	i := 0
	// Skip one delimiter when handed over from parseEmph3.
	if len(data) > 1 && data[0] == c && data[1] == c {
		i = 1
	}
	for i < len(data) {
		n := findEmphChar(data[i:], c)
		if n == 0 {
			return 0
		}
		i += n
		if i >= len(data) {
			return 0
		}
		if data[i] != c || isSpace(data[i-1]) {
			continue
		}
		if r.ext&NoIntraEmphasis != 0 && i+1 < len(data) && isAlnum(data[i+1]) {
			continue
		}

		work, release := r.pool.acquire(spanScope)
		defer release()
		r.parseInline(work, data[:i])
		if !r.cb.Emphasis(out, work.Bytes(), r.opaque) {
			return 0
		}
		return i + 1
	}
	return 0
}

// parseEmph2 looks for the end of double emphasis (or strikethrough)
// whose content starts at d[start:].
// It returns the number of bytes consumed from d[start:],
// or zero if the span is not closed.
func (r *renderer) parseEmph2(out *bytes.Buffer, d []byte, start int, c byte) int {
	render := r.cb.DoubleEmphasis
	if c == '~' {
		render = r.cb.Strikethrough
	}
	if render == nil {
		return 0
	}
	data := d[start:]
	for i := 0; i < len(data); i++ {
		n := findEmphChar(data[i:], c)
		if n == 0 {
			return 0
		}
		i += n
		if i+1 < len(data) && data[i] == c && data[i+1] == c && i > 0 && !isSpace(data[i-1]) {
			work, release := r.pool.acquire(spanScope)
			defer release()
			r.parseInline(work, data[:i])
			if !render(out, work.Bytes(), r.opaque) {
				return 0
			}
			return i + 2
		}
	}
	return 0
}

// parseEmph3 looks for the end of triple emphasis
// whose content starts at d[start:].
// If the closing run is shorter than three delimiters,
// the span is handed over to parseEmph1 or parseEmph2
// with the content widened to include the unmatched opening delimiters.
// It returns the number of bytes consumed from d[start:],
// or zero if the span is not closed.
func (r *renderer) parseEmph3(out *bytes.Buffer, d []byte, start int, c byte) int {
	data := d[start:]
	for i := 0; i < len(data); {
		n := findEmphChar(data[i:], c)
		if n == 0 {
			return 0
		}
		i += n
		// Skip delimiters preceded by whitespace.
		if data[i] != c || isSpace(data[i-1]) {
			continue
		}

		switch {
		case i+2 < len(data) && data[i+1] == c && data[i+2] == c && r.cb.TripleEmphasis != nil:
			work, release := r.pool.acquire(spanScope)
			defer release()
			r.parseInline(work, data[:i])
			if !r.cb.TripleEmphasis(out, work.Bytes(), r.opaque) {
				return 0
			}
			return i + 3
		case i+1 < len(data) && data[i+1] == c:
			// Double closer: single emphasis around a double emphasis opener.
			n := r.parseEmph1(out, d, start-2, c)
			if n == 0 {
				return 0
			}
			return n - 2
		default:
			// Single closer: double emphasis around a single emphasis opener.
			n := r.parseEmph2(out, d, start-1, c)
			if n == 0 {
				return 0
			}
			return n - 1
		}
	}
	return 0
}
