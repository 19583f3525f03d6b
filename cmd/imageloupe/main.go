/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"imageloupe/internal/config"
	"imageloupe/internal/crash"
	"imageloupe/internal/export"
	"imageloupe/internal/geom"
	"imageloupe/internal/lens"
	applog "imageloupe/internal/log"
	"imageloupe/internal/profile"
	"imageloupe/internal/recents"
	"imageloupe/internal/telemetry"
	"imageloupe/internal/ui"
	"imageloupe/internal/version"
)

func usage() {
	fmt.Println("Image Loupe — hover magnifier for images")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  imageloupe version|-v|--version                Show version")
	fmt.Println("  imageloupe inspect <image>                      Print image dimensions and effective lens geometry")
	fmt.Println("  imageloupe export <image> <out> <x> <y>         Export the magnified region centered on displayed point x,y")
	fmt.Println("                                                  (<out> ending in .pdf writes a snapshot sheet, otherwise a PNG crop)")
	fmt.Println("  imageloupe profiles                             List magnifier profiles")
	fmt.Println("  imageloupe profiles set <name> <scale> <anchor> Save or replace a profile")
	fmt.Println("  imageloupe profiles rm <name>                   Delete a profile")
	fmt.Println("  imageloupe recents                              List recently opened images")
	fmt.Println("  imageloupe recents prune                        Trim the recents list to the newest entries")
	fmt.Println("  imageloupe ui [<image>]                         Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	// initialize structured logging using environment defaults, then let the
	// user config take over (it already folds env overrides in)
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	cfg := loadConfig(l)
	applog.Init(cfg.LogOptions())
	telemetry.NewDefault(cfg.TelemetryConfig())
	imagePath := ""
	defer func() { crash.Recover(imagePath) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) <= 1 {
		usage()
		return
	}

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Image Loupe — hover magnifier for images")
		fmt.Println(version.String())

	case "inspect":
		if len(args) < 3 {
			fmt.Println("inspect requires <image>")
			usage()
			os.Exit(2)
		}
		imagePath = args[2]
		if err := runInspect(l, imagePath); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

	case "export":
		if len(args) < 6 {
			fmt.Println("export requires <image> <out> <x> <y>")
			usage()
			os.Exit(2)
		}
		imagePath = args[2]
		if err := runExport(l, imagePath, args[3], args[4], args[5]); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

	case "profiles":
		if err := runProfiles(l, args[2:]); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

	case "recents":
		if err := runRecents(l, args[2:]); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

	case "ui":
		if len(args) >= 3 {
			imagePath = args[2]
		}
		if err := ui.Run(imagePath); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

	default:
		usage()
		os.Exit(2)
	}
}

// sidecarDir is where the profile and recents stores live: next to the config file.
func sidecarDir() (string, error) {
	p, err := config.ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(p), nil
}

func loadConfig(l *slog.Logger) config.AppConfig {
	cfg, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.String("error", err.Error()))
		return config.Defaults()
	}
	return cfg
}

func runInspect(l *slog.Logger, path string) error {
	abs, _ := filepath.Abs(path)
	l.Info("inspect image", slog.String("path", abs))
	img, err := export.LoadImage(abs)
	if err != nil {
		return err
	}
	b := img.Bounds()
	cfg := loadConfig(l)
	natural := geom.Size{W: float32(b.Dx()), H: float32(b.Dy())}
	// Headless inspection displays the image 1:1.
	ly := lens.NewLayout(lens.ImageMetrics{Displayed: natural, Natural: natural}, cfg.Magnifier.Scale)

	fmt.Println("Image:", abs)
	fmt.Printf("Dimensions: %dx%d px\n", b.Dx(), b.Dy())
	fmt.Printf("Magnification: %.2fx (anchor %s)\n", cfg.Magnifier.Scale, cfg.Magnifier.Anchor)
	fmt.Printf("Lens at 1:1 display: %.0fx%.0f px\n", ly.Lens.W, ly.Lens.H)
	return nil
}

func runExport(l *slog.Logger, path, out, xs, ys string) error {
	x, err := strconv.ParseFloat(xs, 32)
	if err != nil {
		return fmt.Errorf("bad x coordinate %q: %w", xs, err)
	}
	y, err := strconv.ParseFloat(ys, 32)
	if err != nil {
		return fmt.Errorf("bad y coordinate %q: %w", ys, err)
	}
	abs, _ := filepath.Abs(path)
	l.Info("export region", slog.String("path", abs), slog.Float64("x", x), slog.Float64("y", y))

	img, err := export.LoadImage(abs)
	if err != nil {
		return err
	}
	cfg := loadConfig(l)
	b := img.Bounds()
	natural := geom.Size{W: float32(b.Dx()), H: float32(b.Dy())}
	ly := lens.NewLayout(lens.ImageMetrics{Displayed: natural, Natural: natural}, cfg.Magnifier.Scale)
	upd, ok := ly.Track(geom.Pt{X: float32(x), Y: float32(y)})
	if !ok {
		return fmt.Errorf("image produced no usable layout")
	}

	if strings.EqualFold(filepath.Ext(out), ".pdf") {
		opt := export.PDFOptions{Title: "Loupe Snapshot", ImagePath: abs, Smooth: cfg.Viewer.Smoothing}
		if err := export.WriteSnapshotPDF(img, ly, upd.Lens, out, opt); err != nil {
			return err
		}
	} else {
		rect := export.CropRect(ly, upd.Lens)
		if err := export.WriteCropPNG(img, rect, out, export.CropOptions{Smooth: cfg.Viewer.Smoothing}); err != nil {
			return err
		}
	}
	touchRecent(l, abs, b.Dx(), b.Dy())
	telemetry.Event("region_exported", map[string]any{"format": strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")})
	fmt.Println("Exported", out)
	return nil
}

func runProfiles(l *slog.Logger, args []string) error {
	dir, err := sidecarDir()
	if err != nil {
		return err
	}
	store := profile.NewStore(dir)

	if len(args) == 0 {
		ps, err := store.Load()
		if err != nil {
			return err
		}
		if len(ps) == 0 {
			fmt.Println("No profiles saved.")
			return nil
		}
		for _, p := range ps {
			fmt.Printf("%-20s scale %.2f  anchor %-6s offsets %+.0f,%+.0f\n", p.Name, p.Scale, p.Anchor, p.OffsetH, p.OffsetV)
		}
		return nil
	}

	switch args[0] {
	case "set":
		if len(args) < 4 {
			return fmt.Errorf("profiles set requires <name> <scale> <anchor>")
		}
		scale, err := strconv.ParseFloat(args[2], 32)
		if err != nil {
			return fmt.Errorf("bad scale %q: %w", args[2], err)
		}
		p := profile.Profile{Name: args[1], Scale: float32(scale), Anchor: args[3]}
		if len(args) >= 6 {
			offH, err := strconv.ParseFloat(args[4], 32)
			if err != nil {
				return fmt.Errorf("bad horizontal offset %q: %w", args[4], err)
			}
			offV, err := strconv.ParseFloat(args[5], 32)
			if err != nil {
				return fmt.Errorf("bad vertical offset %q: %w", args[5], err)
			}
			p.OffsetH = float32(offH)
			p.OffsetV = float32(offV)
		}
		if err := store.Put(p); err != nil {
			return err
		}
		l.Info("profile saved", slog.String("name", p.Name))
		fmt.Println("Saved profile", p.Name)
		return nil
	case "rm":
		if len(args) < 2 {
			return fmt.Errorf("profiles rm requires <name>")
		}
		if err := store.Delete(args[1]); err != nil {
			return err
		}
		l.Info("profile deleted", slog.String("name", args[1]))
		fmt.Println("Deleted profile", args[1])
		return nil
	default:
		return fmt.Errorf("unknown profiles subcommand %q", args[0])
	}
}

func runRecents(l *slog.Logger, args []string) error {
	dir, err := sidecarDir()
	if err != nil {
		return err
	}
	store, err := recents.Open(dir)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(args) > 0 && args[0] == "prune" {
		if err := store.Prune(ctx, recents.DefaultKeep); err != nil {
			return err
		}
		l.Info("recents pruned", slog.Int("keep", recents.DefaultKeep))
		fmt.Println("Pruned recents.")
		return nil
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No recent images.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %dx%d  %s\n", e.LastOpened.Local().Format("2006-01-02 15:04"), e.NaturalW, e.NaturalH, e.Path)
	}
	return nil
}

func touchRecent(l *slog.Logger, abs string, w, h int) {
	dir, err := sidecarDir()
	if err != nil {
		return
	}
	store, err := recents.Open(dir)
	if err != nil {
		l.Warn("recents store unavailable", slog.String("error", err.Error()))
		return
	}
	defer func() { _ = store.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := store.Touch(ctx, abs, w, h); err != nil {
		l.Warn("recents update failed", slog.String("error", err.Error()))
	}
}
