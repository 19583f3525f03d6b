/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Magnifier.Scale != 1.2 {
		t.Fatalf("default scale = %v, want 1.2", cfg.Magnifier.Scale)
	}
	if cfg.Magnifier.Anchor != "right" {
		t.Fatalf("default anchor = %q, want right", cfg.Magnifier.Anchor)
	}
	if cfg.Magnifier.OffsetH != 0 || cfg.Magnifier.OffsetV != 0 {
		t.Fatalf("default offsets must be zero: %+v", cfg.Magnifier)
	}
}

func TestEnvOverridesMagnifier(t *testing.T) {
	t.Setenv(EnvScale, "2.5")
	t.Setenv(EnvAnchor, "Bottom")
	t.Setenv(EnvOffsetH, "12")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Magnifier.Scale != 2.5 {
		t.Fatalf("Scale = %v, want 2.5", cfg.Magnifier.Scale)
	}
	if cfg.Magnifier.Anchor != "bottom" {
		t.Fatalf("Anchor = %q, want bottom", cfg.Magnifier.Anchor)
	}
	if cfg.Magnifier.OffsetH != 12 {
		t.Fatalf("OffsetH = %v, want 12", cfg.Magnifier.OffsetH)
	}
}

func TestEnvOverrideScaleRejectsGarbage(t *testing.T) {
	t.Setenv(EnvScale, "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Magnifier.Scale != Defaults().Magnifier.Scale {
		t.Fatalf("garbage env value must not override scale: %v", cfg.Magnifier.Scale)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	old := os.Getenv(EnvTelemetryOptIn)
	_ = os.Setenv(EnvTelemetryOptIn, "true")
	t.Cleanup(func() { _ = os.Setenv(EnvTelemetryOptIn, old) })
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestMergeIncludesMagnifier(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Magnifier.Scale = 3
	src.Magnifier.Anchor = "LEFT"
	src.Magnifier.OffsetV = -4
	mergeInto(&dst, &src)
	if dst.Magnifier.Scale != 3 || dst.Magnifier.Anchor != "left" || dst.Magnifier.OffsetV != -4 {
		t.Fatalf("magnifier fields not merged correctly: %#v", dst.Magnifier)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/loupe.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/loupe.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestLogOptionsReflectLoggingSection(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"
	cfg.Logging.Source = true
	cfg.Logging.File = "/tmp/loupe.log"
	opts := cfg.LogOptions()
	if opts.Level != "debug" || opts.Format != "json" || !opts.AddSource || opts.File != "/tmp/loupe.log" {
		t.Fatalf("LogOptions did not carry the logging section: %#v", opts)
	}
}

func TestTelemetryConfigHonorsFileOptIn(t *testing.T) {
	t.Setenv("LOUPE_TELEMETRY_OPT_IN", "")
	t.Setenv("LOUPE_TELEMETRY_URL", "http://127.0.0.1:1/events")

	cfg := Defaults()
	if tc := cfg.TelemetryConfig(); tc.OptIn {
		t.Fatalf("opt-in must default to off")
	}
	cfg.General.TelemetryOptIn = true
	tc := cfg.TelemetryConfig()
	if !tc.OptIn {
		t.Fatalf("file-backed opt-in must enable the client")
	}
	if tc.EventsURL != "http://127.0.0.1:1/events" {
		t.Fatalf("env endpoints must be preserved, got %q", tc.EventsURL)
	}
}

func TestEnvOverrideFor(t *testing.T) {
	t.Setenv(EnvAnchor, "top")
	if name, ok := EnvOverrideFor("magnifier.anchor"); !ok || name != EnvAnchor {
		t.Fatalf("EnvOverrideFor(magnifier.anchor) = %q,%v", name, ok)
	}
	if _, ok := EnvOverrideFor("magnifier.scale"); ok && os.Getenv(EnvScale) == "" {
		t.Fatalf("scale should not be reported as overridden")
	}
}
