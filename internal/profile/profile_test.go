/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package profile

import (
	"os"
	"strings"
	"testing"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := NewStore(t.TempDir())
	ps, err := s.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(ps) != 0 {
		t.Fatalf("expected empty collection, got %d", len(ps))
	}
}

func TestPutGetDeleteRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Put(Profile{Name: "reading", Scale: 1.5, Anchor: "right"}); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := s.Put(Profile{Name: "detail", Scale: 3, Anchor: "bottom", OffsetH: 8, OffsetV: -2}); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	p, err := s.Get("detail")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if p.Scale != 3 || p.Anchor != "bottom" || p.OffsetH != 8 || p.OffsetV != -2 {
		t.Fatalf("unexpected profile: %+v", p)
	}

	// Put with the same name replaces
	if err := s.Put(Profile{Name: "detail", Scale: 4, Anchor: "top"}); err != nil {
		t.Fatalf("Put replace error: %v", err)
	}
	ps, err := s.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(ps))
	}
	// sorted by name
	if ps[0].Name != "detail" || ps[1].Name != "reading" {
		t.Fatalf("profiles not sorted: %+v", ps)
	}
	if ps[0].Scale != 4 {
		t.Fatalf("replace did not take: %+v", ps[0])
	}

	if err := s.Delete("reading"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := s.Delete("reading"); err == nil {
		t.Fatalf("deleting a missing profile should fail")
	}
}

func TestPutRejectsInvalidAnchor(t *testing.T) {
	s := NewStore(t.TempDir())
	err := s.Put(Profile{Name: "bad", Scale: 2, Anchor: "diagonal"})
	if err == nil {
		t.Fatalf("expected schema rejection for bad anchor")
	}
	if !strings.Contains(err.Error(), "schema") {
		t.Fatalf("expected schema error, got: %v", err)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	bad := `{"profiles":[{"name":"","scale":-1,"anchor":"right"}]}`
	if err := os.WriteFile(s.Path(), []byte(bad), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := s.Load(); err == nil {
		t.Fatalf("expected validation failure for malformed file")
	}
}
