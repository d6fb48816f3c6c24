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

// referenceBuckets is the number of hash chains in a [referenceTable].
const referenceBuckets = 8

// linkReference is the data of a link reference definition:
//
//	[label]: destination "title"
type linkReference struct {
	hash  uint32
	label []byte
	link  []byte
	title []byte
}

// referenceTable maps labels to link reference definitions.
// Labels match if they are equal ignoring ASCII case.
// The zero value is an empty table.
type referenceTable struct {
	buckets [referenceBuckets][]*linkReference
}

// hashLabel computes a case-insensitive hash of a reference label.
func hashLabel(label []byte) uint32 {
	var h uint32
	for _, c := range label {
		h = uint32(toLowerASCII(c)) + (h << 6) + (h << 16) - h
	}
	return h
}

// add records a link reference definition.
// In case of conflicts, add will not replace an existing definition
// so that the first definition in source order wins.
func (t *referenceTable) add(label, link, title []byte) {
	h := hashLabel(label)
	if t.lookup(h, label) != nil {
		return
	}
	bucket := &t.buckets[h%referenceBuckets]
	*bucket = append(*bucket, &linkReference{
		hash:  h,
		label: label,
		link:  link,
		title: title,
	})
}

// find returns the definition for the given label or nil if there is none.
func (t *referenceTable) find(label []byte) *linkReference {
	return t.lookup(hashLabel(label), label)
}

func (t *referenceTable) lookup(h uint32, label []byte) *linkReference {
	for _, ref := range t.buckets[h%referenceBuckets] {
		if ref.hash == h && equalFoldASCII(ref.label, label) {
			return ref
		}
	}
	return nil
}

func equalFoldASCII(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if toLowerASCII(a[i]) != toLowerASCII(b[i]) {
			return false
		}
	}
	return true
}

// parseReference attempts to parse a link reference definition
// at the beginning of data and add it to refs.
// It returns the end of the definition (including its final line ending)
// or -1 if data does not begin with a definition.
//
// A definition may be indented up to three spaces.
// The destination may follow on the next line, and so may the title,
// but the title must be alone on its line:
// if a title on the definition's line is not properly closed,
// the line is not a definition.
func parseReference(data []byte, refs *referenceTable) (end int) {
	i := 0
	for i < 3 && i < len(data) && data[i] == ' ' {
		i++
	}

	// Label: anything but a line ending between brackets.
	if i >= len(data) || data[i] != '[' {
		return -1
	}
	i++
	labelStart := i
	for i < len(data) && data[i] != ']' && !isLineEnding(data[i]) {
		i++
	}
	if i >= len(data) || data[i] != ']' {
		return -1
	}
	labelEnd := i
	i++

	// Spacer: colon, spaces, optionally one line ending, spaces.
	if i >= len(data) || data[i] != ':' {
		return -1
	}
	i = skipSpaces(data, i+1)
	if i < len(data) && isLineEnding(data[i]) {
		i = skipLineEnding(data, i)
	}
	i = skipSpaces(data, i)
	if i >= len(data) {
		return -1
	}

	// Destination: a run without spaces, optionally in angle brackets.
	if data[i] == '<' {
		i++
	}
	linkStart := i
	for i < len(data) && data[i] != ' ' && !isLineEnding(data[i]) {
		i++
	}
	linkEnd := i
	if linkEnd > linkStart && data[linkEnd-1] == '>' {
		linkEnd--
	}
	if linkEnd == linkStart {
		return -1
	}

	// Anything after the destination must be a title.
	i = skipSpaces(data, i)
	lineEnd := -1
	switch {
	case i >= len(data) || isLineEnding(data[i]):
		lineEnd = i
		i = skipSpaces(data, skipLineEnding(data, i))
	case !isTitleOpener(data[i]):
		return -1
	}

	var title []byte
	if i+1 < len(data) && isTitleOpener(data[i]) {
		closer := data[i]
		if closer == '(' {
			closer = ')'
		}
		titleStart := i + 1
		eol := titleStart
		for eol < len(data) && !isLineEnding(data[eol]) {
			eol++
		}
		j := eol - 1
		for j > titleStart && data[j] == ' ' {
			j--
		}
		if j > titleStart && data[j] == closer {
			lineEnd = eol
			title = data[titleStart:j]
		}
	}
	if lineEnd < 0 {
		return -1
	}

	refs.add(data[labelStart:labelEnd], data[linkStart:linkEnd], title)
	return skipLineEnding(data, lineEnd)
}

func isTitleOpener(c byte) bool {
	return c == '\'' || c == '"' || c == '('
}
