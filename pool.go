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
)

// bufferScope selects one of the two stacks in a [bufferPool].
type bufferScope int

const (
	// blockScope buffers hold the rendered content of a block
	// while its children are parsed.
	blockScope bufferScope = iota
	// spanScope buffers hold rendered inline content
	// and small pieces of assembled text.
	spanScope

	numBufferScopes = 2
)

func (scope bufferScope) String() string {
	switch scope {
	case blockScope:
		return "block"
	case spanScope:
		return "span"
	default:
		return fmt.Sprintf("bufferScope(%d)", int(scope))
	}
}

// Initial and maximum retained buffer capacities.
const (
	blockBufferInitialSize = 256
	spanBufferInitialSize  = 64
	bufferMaxRetainedSize  = 1 << 20
)

// A bufferPool lends out work buffers in strict stack order.
// The number of buffers lent out from both scopes
// is the parser's current nesting depth.
// The zero value is an empty pool.
type bufferPool struct {
	stacks [numBufferScopes]bufferStack
}

type bufferStack struct {
	// bufs[:n] are lent out; bufs[n:] are ready for reuse.
	bufs []*bytes.Buffer
	n    int
}

// acquire lends out an empty buffer from the given scope.
// The caller must call release exactly once,
// after releasing any buffer it acquired afterward from the same scope.
// Typically this is done with defer.
func (pool *bufferPool) acquire(scope bufferScope) (buf *bytes.Buffer, release func()) {
	s := &pool.stacks[scope]
	if s.n < len(s.bufs) && s.bufs[s.n] != nil {
		buf = s.bufs[s.n]
		buf.Reset()
	} else {
		size := spanBufferInitialSize
		if scope == blockScope {
			size = blockBufferInitialSize
		}
		buf = bytes.NewBuffer(make([]byte, 0, size))
		if s.n < len(s.bufs) {
			s.bufs[s.n] = buf
		} else {
			s.bufs = append(s.bufs, buf)
		}
	}
	s.n++
	depth := s.n
	return buf, func() {
		if s.n != depth {
			panic(fmt.Sprintf("markdown: %v buffer released out of order (depth %d, want %d)", scope, s.n, depth))
		}
		s.n--
		if buf.Cap() > bufferMaxRetainedSize {
			// Let the garbage collector reclaim oversized buffers.
			s.bufs[s.n] = nil
		}
	}
}

// depth returns the number of buffers currently lent out from the scope.
func (pool *bufferPool) depth(scope bufferScope) int {
	return pool.stacks[scope].n
}
