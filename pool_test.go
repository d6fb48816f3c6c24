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

import "testing"

func TestBufferPool(t *testing.T) {
	var pool bufferPool

	outer, releaseOuter := pool.acquire(blockScope)
	outer.WriteString("outer")
	inner, releaseInner := pool.acquire(blockScope)
	span, releaseSpan := pool.acquire(spanScope)
	if outer == inner {
		t.Fatal("nested acquire returned the same buffer")
	}
	if got := pool.depth(blockScope); got != 2 {
		t.Errorf("pool.depth(blockScope) = %d; want 2", got)
	}
	if got := pool.depth(spanScope); got != 1 {
		t.Errorf("pool.depth(spanScope) = %d; want 1", got)
	}
	if span.Cap() < spanBufferInitialSize {
		t.Errorf("span buffer capacity = %d; want >= %d", span.Cap(), spanBufferInitialSize)
	}

	releaseSpan()
	releaseInner()
	reused, releaseReused := pool.acquire(blockScope)
	if reused != inner {
		t.Error("buffer was not reused after release")
	}
	if reused.Len() != 0 {
		t.Errorf("reused buffer contains %q; want empty", reused)
	}
	releaseReused()
	releaseOuter()

	for _, scope := range []bufferScope{blockScope, spanScope} {
		if got := pool.depth(scope); got != 0 {
			t.Errorf("pool.depth(%v) = %d after releasing everything; want 0", scope, got)
		}
	}
}

func TestBufferPoolReleaseOutOfOrder(t *testing.T) {
	var pool bufferPool
	_, releaseOuter := pool.acquire(spanScope)
	_, releaseInner := pool.acquire(spanScope)
	defer func() {
		if recover() == nil {
			t.Error("out of order release did not panic")
		}
		releaseInner()
		releaseOuter()
	}()
	releaseOuter()
}

func TestBufferPoolDropsLargeBuffers(t *testing.T) {
	var pool bufferPool
	buf, release := pool.acquire(blockScope)
	buf.Grow(bufferMaxRetainedSize + 1)
	release()

	next, releaseNext := pool.acquire(blockScope)
	defer releaseNext()
	if next == buf {
		t.Error("oversized buffer was retained")
	}
}

func TestBufferScopeString(t *testing.T) {
	tests := []struct {
		scope bufferScope
		want  string
	}{
		{blockScope, "block"},
		{spanScope, "span"},
		{bufferScope(5), "bufferScope(5)"},
	}
	for _, test := range tests {
		if got := test.scope.String(); got != test.want {
			t.Errorf("bufferScope(%d).String() = %q; want %q", int(test.scope), got, test.want)
		}
	}
}
