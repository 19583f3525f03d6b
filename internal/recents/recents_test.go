/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package recents

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTouchAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Touch(ctx, "/pics/a.png", 1000, 800); err != nil {
		t.Fatalf("Touch error: %v", err)
	}
	if err := s.Touch(ctx, "/pics/b.jpg", 640, 480); err != nil {
		t.Fatalf("Touch error: %v", err)
	}

	got, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if filepath.Base(got[0].Path) != "b.jpg" {
		t.Fatalf("expected newest first, got %+v", got)
	}
	if got[1].NaturalW != 1000 || got[1].NaturalH != 800 {
		t.Fatalf("dimensions lost: %+v", got[1])
	}
}

func TestTouchUpdatesExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Touch(ctx, "/pics/a.png", 0, 0); err != nil {
		t.Fatalf("Touch error: %v", err)
	}
	if err := s.Touch(ctx, "/pics/a.png", 1000, 800); err != nil {
		t.Fatalf("Touch error: %v", err)
	}
	got, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("duplicate rows for same path: %d", len(got))
	}
	if got[0].NaturalW != 1000 {
		t.Fatalf("update did not take: %+v", got[0])
	}
}

func TestRemoveAndPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Touch(ctx, fmt.Sprintf("/pics/img-%d.png", i), 10, 10); err != nil {
			t.Fatalf("Touch error: %v", err)
		}
	}
	if err := s.Remove(ctx, "/pics/img-0.png"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if err := s.Remove(ctx, "/pics/never-there.png"); err != nil {
		t.Fatalf("Remove of unknown path should not error: %v", err)
	}

	if err := s.Prune(ctx, 2); err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	got, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries after prune, got %d", len(got))
	}
}

func TestListLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if err := s.Touch(ctx, fmt.Sprintf("/pics/l-%d.png", i), 0, 0); err != nil {
			t.Fatalf("Touch error: %v", err)
		}
	}
	got, err := s.List(ctx, 3)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("limit not applied: got %d", len(got))
	}
}
