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
	"strings"
)

// safeLinkPrefixes are the link prefixes accepted by [IsSafeLink].
var safeLinkPrefixes = []string{
	"/",
	"http://",
	"https://",
	"ftp://",
	"mailto:",
}

// IsSafeLink reports whether link is a relative path
// or uses one of the http, https, ftp, or mailto schemes.
// Renderers use it to avoid emitting links
// with schemes like "javascript:".
func IsSafeLink(link []byte) bool {
	for _, prefix := range safeLinkPrefixes {
		if len(link) > len(prefix) &&
			hasCaseInsensitiveBytePrefix(link, prefix) &&
			isAlnum(link[len(prefix)]) {
			return true
		}
	}
	return false
}

// charAutolinkURL handles a bare URL like "https://example.com/".
// It is triggered by the colon after the scheme.
func (r *renderer) charAutolinkURL(out *bytes.Buffer, text pendingText, data []byte) int {
	if r.cb.Autolink == nil || r.inLinkBody {
		return 0
	}
	rewind, end := autolinkURL(text.data, data)
	if end == 0 {
		return 0
	}
	link, release := r.pool.acquire(spanScope)
	defer release()
	link.Write(text.data[len(text.data)-rewind:])
	link.Write(data[:end])
	if !IsSafeLink(link.Bytes()) {
		return 0
	}
	r.rewindText(out, text, rewind)
	r.cb.Autolink(out, link.Bytes(), AutolinkNormal, r.opaque)
	return end
}

// charAutolinkEmail handles a bare e-mail address.
// It is triggered by the '@'.
func (r *renderer) charAutolinkEmail(out *bytes.Buffer, text pendingText, data []byte) int {
	if r.cb.Autolink == nil || r.inLinkBody {
		return 0
	}
	rewind, end := autolinkEmail(text.data, data)
	if end == 0 {
		return 0
	}
	link, release := r.pool.acquire(spanScope)
	defer release()
	link.Write(text.data[len(text.data)-rewind:])
	link.Write(data[:end])
	r.rewindText(out, text, rewind)
	r.cb.Autolink(out, link.Bytes(), AutolinkEmail, r.opaque)
	return end
}

// charAutolinkWWW handles a bare host name beginning with "www.".
// It is rendered as an http link.
func (r *renderer) charAutolinkWWW(out *bytes.Buffer, prev, data []byte) int {
	if r.cb.Link == nil || r.inLinkBody {
		return 0
	}
	end := autolinkWWW(prev, data)
	if end == 0 {
		return 0
	}
	link, releaseLink := r.pool.acquire(spanScope)
	defer releaseLink()
	link.WriteString("http://")
	link.Write(data[:end])

	text := data[:end]
	if r.cb.NormalText != nil {
		buf, release := r.pool.acquire(spanScope)
		defer release()
		r.cb.NormalText(buf, text, r.opaque)
		text = buf.Bytes()
	}
	r.cb.Link(out, link.Bytes(), nil, text, r.opaque)
	return end
}

// rewindText takes back the last n bytes of plain text,
// like the scheme of a URL, from out.
// NormalText may have escaped the text,
// so the output is cut at the text's mark and the rest is written again.
func (r *renderer) rewindText(out *bytes.Buffer, text pendingText, n int) {
	if text.mark > out.Len() {
		return
	}
	out.Truncate(text.mark)
	r.normalText(out, text.data[:len(text.data)-n])
}

// autolinkURL matches a URL whose "://" begins data.
// rewind is the length of the scheme at the end of prev.
// end is the length of the rest of the URL in data, or zero.
func autolinkURL(prev, data []byte) (rewind, end int) {
	if len(data) < 4 || data[1] != '/' || data[2] != '/' {
		return 0, 0
	}
	for rewind < len(prev) && isAlpha(prev[len(prev)-rewind-1]) {
		rewind++
	}
	if rewind == 0 {
		return 0, 0
	}
	const sep = len("://")
	domainLen := checkDomain(data[sep:])
	if domainLen == 0 {
		return 0, 0
	}
	end = sep + domainLen
	for end < len(data) && !isWhitespace(data[end]) {
		end++
	}
	end = autolinkDelim(data, end)
	if end == 0 {
		return 0, 0
	}
	return rewind, end
}

// autolinkEmail matches an e-mail address whose '@' begins data.
// rewind is the length of the local part at the end of prev.
// end is the length of the domain part in data, or zero.
func autolinkEmail(prev, data []byte) (rewind, end int) {
	for rewind < len(prev) {
		c := prev[len(prev)-rewind-1]
		if !isAlnum(c) && strings.IndexByte(".+-_", c) < 0 {
			break
		}
		rewind++
	}
	if rewind == 0 {
		return 0, 0
	}

	nat, ndots := 0, 0
scan:
	for ; end < len(data); end++ {
		c := data[end]
		switch {
		case isAlnum(c):
		case c == '@':
			nat++
		case c == '.' && end < len(data)-1:
			ndots++
		case c == '-' || c == '_':
		default:
			break scan
		}
	}
	if end < 2 || nat != 1 || ndots == 0 || !isAlpha(data[end-1]) {
		return 0, 0
	}
	end = autolinkDelim(data, end)
	if end == 0 {
		return 0, 0
	}
	return rewind, end
}

// autolinkWWW matches a host name beginning with "www." at the start of data.
// It returns the length of the link, or zero.
func autolinkWWW(prev, data []byte) int {
	if len(prev) > 0 {
		if c := prev[len(prev)-1]; !isPunct(c) && !isWhitespace(c) {
			return 0
		}
	}
	if !hasBytePrefix(data, "www.") {
		return 0
	}
	end := checkDomain(data)
	if end == 0 {
		return 0
	}
	for end < len(data) && !isWhitespace(data[end]) {
		end++
	}
	return autolinkDelim(data, end)
}

// checkDomain returns the length of the dotted host name
// at the beginning of data, or zero if it has no dots.
func checkDomain(data []byte) int {
	if len(data) == 0 || !isAlnum(data[0]) {
		return 0
	}
	ndots := 0
	i := 1
	for ; i < len(data)-1; i++ {
		if data[i] == '.' {
			ndots++
		} else if !isAlnum(data[i]) && data[i] != '-' {
			break
		}
	}
	if ndots == 0 {
		return 0
	}
	return i
}

// autolinkDelim trims trailing punctuation from the link data[:end]
// and returns the new end.
//
// Trailing sentence punctuation is always dropped,
// as is a trailing HTML entity.
// A trailing closing quote or bracket is kept only if it balances
// an opening one inside the link, so
// "(see http://example.com/a_(b))" keeps the inner parentheses
// while "(see http://example.com/a)" drops the outer one.
// Trimming repeats until the link stops changing.
func autolinkDelim(data []byte, end int) int {
	if i := bytes.IndexByte(data[:end], '<'); i >= 0 {
		end = i
	}
	for {
		prevEnd := end
		for end > 0 {
			c := data[end-1]
			if strings.IndexByte("?!.,", c) >= 0 {
				end--
				continue
			}
			if c != ';' {
				break
			}
			// Drop a whole entity like "&quot;", else just the semicolon.
			j := end - 2
			for j > 0 && isAlpha(data[j]) {
				j--
			}
			if j >= 0 && j < end-2 && data[j] == '&' {
				end = j
			} else {
				end--
			}
		}
		if end == 0 {
			return 0
		}

		closer := data[end-1]
		var opener byte
		switch closer {
		case '"', '\'':
			opener = closer
		case ')':
			opener = '('
		case ']':
			opener = '['
		case '}':
			opener = '{'
		}
		if opener != 0 {
			opening, closing := 0, 0
			for _, c := range data[:end] {
				if c == opener {
					opening++
				} else if c == closer {
					closing++
				}
			}
			if opening != closing {
				end--
			}
		}

		if end == prevEnd {
			return end
		}
	}
}
