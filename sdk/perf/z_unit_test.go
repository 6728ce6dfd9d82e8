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

package perf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRunModes(t *testing.T) {
	dir := t.TempDir()
	for _, mode := range []string{"cpu", "heap", "allocs"} {
		called := false
		if err := Run(mode, dir, func() error { called = true; return nil }); err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		if !called {
			t.Fatalf("%s: exe not called", mode)
		}
		if _, err := os.Stat(filepath.Join(dir, mode+".pprof")); err != nil {
			t.Fatalf("%s: profile missing: %v", mode, err)
		}
	}
}

func TestRunPassesError(t *testing.T) {
	boom := errors.New("boom")
	if err := Run("", t.TempDir(), func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if err := Run("heap", t.TempDir(), func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if err := Run("trace", t.TempDir(), func() error { return nil }); err == nil {
		t.Fatalf("unknown mode must fail")
	}
}
