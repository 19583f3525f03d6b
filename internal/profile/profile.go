/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package profile manages named magnifier presets persisted as JSON. The file
// is validated against an embedded JSON Schema on both load and save so a
// hand-edited file cannot smuggle malformed values into the lens math.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// Profile is one named magnifier preset.
type Profile struct {
	Name    string  `json:"name"`
	Scale   float32 `json:"scale"`
	Anchor  string  `json:"anchor"`
	OffsetH float32 `json:"offset_h"`
	OffsetV float32 `json:"offset_v"`
}

// FileName is the on-disk name of the profile collection.
const FileName = "profiles.json"

// schemaJSON constrains the profile file: unique requirements are enforced in
// code, the schema guards shape and ranges.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["profiles"],
  "properties": {
    "profiles": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "scale", "anchor"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "scale": {"type": "number", "exclusiveMinimum": 0},
          "anchor": {"type": "string", "enum": ["left", "right", "top", "bottom"]},
          "offset_h": {"type": "number"},
          "offset_v": {"type": "number"}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

type fileShape struct {
	Profiles []Profile `json:"profiles"`
}

// Store reads and writes the profile collection under dir.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir (usually the user config directory).
func NewStore(dir string) *Store { return &Store{dir: dir} }

// Path returns the full path of the profiles file.
func (s *Store) Path() string { return filepath.Join(s.dir, FileName) }

// Load returns all profiles sorted by name. A missing file is an empty
// collection, not an error.
func (s *Store) Load() ([]Profile, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	if err := validate(data); err != nil {
		return nil, err
	}
	var f fileShape
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	sort.Slice(f.Profiles, func(i, j int) bool { return f.Profiles[i].Name < f.Profiles[j].Name })
	return f.Profiles, nil
}

// Get returns the named profile.
func (s *Store) Get(name string) (Profile, error) {
	ps, err := s.Load()
	if err != nil {
		return Profile{}, err
	}
	for _, p := range ps {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("profile %q not found", name)
}

// Put inserts or replaces a profile by name.
func (s *Store) Put(p Profile) error {
	ps, err := s.Load()
	if err != nil {
		return err
	}
	out := ps[:0]
	for _, ex := range ps {
		if ex.Name != p.Name {
			out = append(out, ex)
		}
	}
	out = append(out, p)
	return s.save(out)
}

// Delete removes a profile by name; deleting a missing name is an error.
func (s *Store) Delete(name string) error {
	ps, err := s.Load()
	if err != nil {
		return err
	}
	out := make([]Profile, 0, len(ps))
	for _, p := range ps {
		if p.Name != name {
			out = append(out, p)
		}
	}
	if len(out) == len(ps) {
		return fmt.Errorf("profile %q not found", name)
	}
	return s.save(out)
}

func (s *Store) save(ps []Profile) error {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
	data, err := json.MarshalIndent(fileShape{Profiles: ps}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}
	if err := validate(data); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	return os.WriteFile(s.Path(), data, 0o600)
}

func validate(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	docLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	if !result.Valid() {
		first := ""
		if es := result.Errors(); len(es) > 0 {
			first = es[0].String()
		}
		return fmt.Errorf("profiles file does not conform to schema: %s", first)
	}
	return nil
}
