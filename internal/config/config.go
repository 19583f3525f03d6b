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
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"imageloupe/internal/log"
	"imageloupe/internal/telemetry"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the
// user scope. Environment variables are treated as read-only overrides at
// runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal so older builds can read newer files.

// MagnifierConfig holds the lens defaults applied when no profile is chosen.
type MagnifierConfig struct {
	Scale   float32 `yaml:"scale"`    // magnification, > 1 enlarges
	Anchor  string  `yaml:"anchor"`   // "left" | "right" | "top" | "bottom"
	OffsetH float32 `yaml:"offset_h"` // horizontal panel nudge in px
	OffsetV float32 `yaml:"offset_v"` // vertical panel nudge in px
}

type ViewerConfig struct {
	WindowWidth  int  `yaml:"window_width"`
	WindowHeight int  `yaml:"window_height"`
	Smoothing    bool `yaml:"smoothing"` // high-quality scaling for the panel
}

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark" (informational for now)
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	General       GeneralConfig   `yaml:"general"`
	Magnifier     MagnifierConfig `yaml:"magnifier"`
	Viewer        ViewerConfig    `yaml:"viewer"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Magnifier:     MagnifierConfig{Scale: 1.2, Anchor: "right", OffsetH: 0, OffsetV: 0},
		Viewer:        ViewerConfig{WindowWidth: 1100, WindowHeight: 760, Smoothing: true},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvScale   = "LOUPE_SCALE"
	EnvAnchor  = "LOUPE_ANCHOR"
	EnvOffsetH = "LOUPE_OFFSET_H"
	EnvOffsetV = "LOUPE_OFFSET_V"

	EnvTelemetryOptIn = "LOUPE_TELEMETRY_OPT_IN"

	EnvLogLevel  = "LOUPE_LOG_LEVEL"
	EnvLogFormat = "LOUPE_LOG_FORMAT"
	EnvLogSource = "LOUPE_LOG_SOURCE"
	EnvLogFile   = "LOUPE_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "ImageLoupe")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "ImageLoupe")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "imageloupe")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// LogOptions converts the logging section into logger options so a loaded
// config can drive log initialization. Env overrides are already folded in
// by Load.
func (c AppConfig) LogOptions() log.Options {
	return log.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
	}
}

// TelemetryConfig merges the file-backed opt-in with the env-provided
// endpoints. The env opt-in wins when set (Load already applied it); the
// config file can only turn telemetry on, never strip endpoints.
func (c AppConfig) TelemetryConfig() telemetry.Config {
	t := telemetry.FromEnv()
	if c.General.TelemetryOptIn {
		t.OptIn = true
	}
	return t
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	// magnifier
	if src.Magnifier.Scale > 0 {
		dst.Magnifier.Scale = src.Magnifier.Scale
	}
	if strings.TrimSpace(src.Magnifier.Anchor) != "" {
		dst.Magnifier.Anchor = strings.ToLower(strings.TrimSpace(src.Magnifier.Anchor))
	}
	dst.Magnifier.OffsetH = src.Magnifier.OffsetH
	dst.Magnifier.OffsetV = src.Magnifier.OffsetV
	// viewer
	if src.Viewer.WindowWidth > 0 {
		dst.Viewer.WindowWidth = src.Viewer.WindowWidth
	}
	if src.Viewer.WindowHeight > 0 {
		dst.Viewer.WindowHeight = src.Viewer.WindowHeight
	}
	dst.Viewer.Smoothing = src.Viewer.Smoothing
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvScale)); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil && f > 0 {
			cfg.Magnifier.Scale = float32(f)
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvAnchor)); v != "" {
		cfg.Magnifier.Anchor = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvOffsetH)); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.Magnifier.OffsetH = float32(f)
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvOffsetV)); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.Magnifier.OffsetV = float32(f)
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		lv := strings.ToLower(v)
		cfg.General.TelemetryOptIn = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	switch key {
	case "magnifier.scale":
		if os.Getenv(EnvScale) != "" {
			return EnvScale, true
		}
	case "magnifier.anchor":
		if os.Getenv(EnvAnchor) != "" {
			return EnvAnchor, true
		}
	case "magnifier.offset_h":
		if os.Getenv(EnvOffsetH) != "" {
			return EnvOffsetH, true
		}
	case "magnifier.offset_v":
		if os.Getenv(EnvOffsetV) != "" {
			return EnvOffsetV, true
		}
	case "general.telemetry_opt_in":
		if os.Getenv(EnvTelemetryOptIn) != "" {
			return EnvTelemetryOptIn, true
		}
	case "logging.level":
		if os.Getenv(EnvLogLevel) != "" {
			return EnvLogLevel, true
		}
	case "logging.format":
		if os.Getenv(EnvLogFormat) != "" {
			return EnvLogFormat, true
		}
	case "logging.source":
		if os.Getenv(EnvLogSource) != "" {
			return EnvLogSource, true
		}
	case "logging.file":
		if os.Getenv(EnvLogFile) != "" {
			return EnvLogFile, true
		}
	}
	return "", false
}
