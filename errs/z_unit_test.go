// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errs

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestKindMatching(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{Reconcilef("x"), ErrReconciliation},
		{Malformedf("x"), ErrMalformedResponse},
		{OutOfRangef("x"), ErrIndexOutOfRange},
		{HardStopf("x"), ErrAutoplayHardStop},
	}
	for i, c := range cases {
		if !errors.Is(c.err, c.want) {
			t.Fatalf("case %d: %v should match %v", i, c.err, c.want)
		}
		if errors.Is(c.err, ErrReconciliation) != (c.want == ErrReconciliation) {
			t.Fatalf("case %d: unexpected reconciliation match", i)
		}
	}
	if errors.Is(NewWarn("plain"), ErrReconciliation) {
		t.Fatalf("kindless error must not match a sentinel")
	}
}

func TestWrapKeepsLevelAndKind(t *testing.T) {
	w := Wrap(Malformedf("no area"), "normalize")
	if w.ErrLv != Warn || w.Kind != KindMalformedResponse {
		t.Fatalf("wrap lost level/kind: %+v", w)
	}
	if !errors.Is(w, ErrMalformedResponse) {
		t.Fatalf("wrapped error should still match")
	}
	std := Wrap(io.EOF, "read")
	if std.ErrLv != Fatal || !errors.Is(std, io.EOF) {
		t.Fatalf("foreign cause should be fatal and unwrap: %v", std)
	}
	ex := WrapWithExtra(io.EOF, "read", "file.yaml")
	if !strings.Contains(ex.Error(), "extra: file.yaml") {
		t.Fatalf("extra missing: %s", ex.Error())
	}
}

func TestJoin(t *testing.T) {
	if Join(nil, nil) != nil {
		t.Fatalf("join of nils should be nil")
	}
	one := Reconcilef("a")
	if Join(nil, one) != one {
		t.Fatalf("single error should pass through")
	}

	j := Join(Reconcilef("a"), Reconcilef("b"))
	e, ok := AsErr(j)
	if !ok || e.Kind != KindReconciliation || e.ErrLv != Warn {
		t.Fatalf("uniform join should keep kind: %+v", e)
	}
	if !errors.Is(j, ErrReconciliation) {
		t.Fatalf("joined error should match")
	}

	mixed := Join(Reconcilef("a"), OutOfRangef("b"))
	e, _ = AsErr(mixed)
	if e.ErrLv != Fatal {
		t.Fatalf("join should take the most severe level, got %s", ErrLv(e.ErrLv))
	}
	if e.Kind != KindNone {
		t.Fatalf("mixed join should drop kind")
	}
	if !errors.Is(mixed, ErrIndexOutOfRange) {
		t.Fatalf("members stay reachable through Cause")
	}
}

func TestIsKind(t *testing.T) {
	if !IsKind(Wrap(HardStopf("done"), "source"), KindAutoplayHardStop) {
		t.Fatalf("IsKind should follow the chain")
	}
	if IsKind(nil, KindReconciliation) || IsKind(Reconcilef("x"), KindNone) {
		t.Fatalf("nil error or KindNone never match")
	}
}
