/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package recents persists the list of recently opened images in a per-user
// SQLite database so the viewer can offer them on startup.
package recents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "imageloupe/internal/log"
	"imageloupe/internal/version"
	"log/slog"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	FileName = "recents.sqlite"

	// schemaVersion tracks the local SQLite schema.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 1

	// DefaultKeep is how many entries Prune retains by default.
	DefaultKeep = 25
)

// Entry is one recently opened image.
type Entry struct {
	Path       string
	NaturalW   int
	NaturalH   int
	LastOpened time.Time
}

// Store wraps the recents database.
type Store struct {
	db *sql.DB
}

// Open initializes the recents database under dir (usually the user config
// directory), enables WAL mode and ensures the schema exists.
func Open(dir string) (*Store, error) {
	l := applog.WithOperation(applog.WithComponent("recents"), "open").With(
		slog.String("dir", dir),
	)
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("recents directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("create recents dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create recents dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Set reasonable connection pool limits for embedded usage.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("recents ready", slog.String("path", path))
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS recents (
			path        TEXT PRIMARY KEY,
			natural_w   INTEGER NOT NULL DEFAULT 0,
			natural_h   INTEGER NOT NULL DEFAULT 0,
			last_opened TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_recents_last_opened ON recents(last_opened DESC);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	// Seed or update single-row version info
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// Touch records that the image at path was opened now, inserting or updating
// its row. Dimensions may be zero when unknown.
func (s *Store) Touch(ctx context.Context, path string, naturalW, naturalH int) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	// Nano precision keeps newest-first ordering stable for rapid opens.
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recents (path, natural_w, natural_h, last_opened) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET natural_w=excluded.natural_w, natural_h=excluded.natural_h, last_opened=excluded.last_opened`,
		abs, naturalW, naturalH, now)
	if err != nil {
		return fmt.Errorf("touch recent: %w", err)
	}
	return nil
}

// List returns entries newest-first, at most limit (all when limit <= 0).
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT path, natural_w, natural_h, last_opened FROM recents ORDER BY last_opened DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, q+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("list recents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		var stamp string
		if err := rows.Scan(&e.Path, &e.NaturalW, &e.NaturalH, &stamp); err != nil {
			return nil, fmt.Errorf("scan recent: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, stamp); err == nil {
			e.LastOpened = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Remove deletes the entry for path; removing an unknown path is not an error.
func (s *Store) Remove(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM recents WHERE path=?`, abs); err != nil {
		return fmt.Errorf("remove recent: %w", err)
	}
	return nil
}

// Prune keeps only the newest keep entries (DefaultKeep when keep <= 0).
func (s *Store) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		keep = DefaultKeep
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM recents WHERE path NOT IN (
			SELECT path FROM recents ORDER BY last_opened DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("prune recents: %w", err)
	}
	return nil
}
