//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"imageloupe/internal/config"
	"imageloupe/internal/crash"
	"imageloupe/internal/export"
	"imageloupe/internal/geom"
	"imageloupe/internal/lens"
	applog "imageloupe/internal/log"
	"imageloupe/internal/profile"
	"imageloupe/internal/recents"
	"imageloupe/internal/telemetry"
	"imageloupe/internal/version"
)

// Run starts the Fyne-based viewer. imagePath may be empty; the image can be
// opened later through the File menu.
func Run(imagePath string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	defer func() { crash.Recover(imagePath) }()

	cfg, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.String("error", err.Error()))
		cfg = config.Defaults()
	}
	// the loaded config drives logging and telemetry from here on
	applog.Init(cfg.LogOptions())
	telemetry.NewDefault(cfg.TelemetryConfig())

	fyneApp := app.NewWithID("imageloupe")
	w := fyneApp.NewWindow("Image Loupe")
	winW := cfg.Viewer.WindowWidth
	winH := cfg.Viewer.WindowHeight
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")

	view := NewLoupeView(cfg.Magnifier.Scale)
	panel := NewMagnifierPanel(cfg.Viewer.Smoothing)
	placement := lens.ResolveAnchor(lens.Anchor(cfg.Magnifier.Anchor), cfg.Magnifier.OffsetH, cfg.Magnifier.OffsetV)
	stage := newLoupeStage(view, panel, placement)

	view.OnTrack = func(upd lens.Update) { panel.Apply(upd) }
	view.OnHover = func(entered bool) {
		panel.SetActive(entered)
		if entered {
			status.SetText("Tracking")
		} else {
			status.SetText("Ready")
		}
	}

	// Sidecar stores live next to the config file.
	var rec *recents.Store
	var profiles *profile.Store
	if cfgPath, perr := config.ConfigPath(); perr == nil {
		dir := filepath.Dir(cfgPath)
		profiles = profile.NewStore(dir)
		if rec, err = recents.Open(dir); err != nil {
			l.Warn("recents store unavailable", slog.String("error", err.Error()))
			rec = nil
		}
	} else {
		l.Warn("config dir unavailable", slog.String("error", perr.Error()))
	}
	if rec != nil {
		defer func() { _ = rec.Close() }()
	}

	var srcImage image.Image
	currentPath := ""

	openImage := func(path string) {
		img, oerr := export.LoadImage(path)
		if oerr != nil {
			l.Error("open image failed", slog.String("path", path), slog.String("error", oerr.Error()))
			dialog.ShowError(oerr, w)
			return
		}
		srcImage = img
		currentPath = path
		imagePath = path
		view.SetImage(img)
		panel.SetSource(img, view.Layout())
		stage.Refresh()
		b := img.Bounds()
		if rec != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			if terr := rec.Touch(ctx, path, b.Dx(), b.Dy()); terr != nil {
				l.Warn("recents update failed", slog.String("error", terr.Error()))
			}
			cancel()
		}
		w.SetTitle(fmt.Sprintf("Image Loupe — %s", filepath.Base(path)))
		status.SetText(fmt.Sprintf("%s (%dx%d)", filepath.Base(path), b.Dx(), b.Dy()))
		l.Info("image opened", slog.String("path", path), slog.Int("w", b.Dx()), slog.Int("h", b.Dy()))
		// dimensions only; the path stays local
		telemetry.Event("image_opened", map[string]any{"w": b.Dx(), "h": b.Dy()})
	}

	imageFilter := fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif"})

	openItem := fyne.NewMenuItem("Open…", func() {
		fd := dialog.NewFileOpen(func(rd fyne.URIReadCloser, derr error) {
			if derr != nil || rd == nil {
				return
			}
			path := rd.URI().Path()
			_ = rd.Close()
			openImage(path)
		}, w)
		fd.SetFilter(imageFilter)
		fd.Show()
	})
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}

	exportPNGItem := fyne.NewMenuItem("Export Crop as PNG…", func() {
		if srcImage == nil {
			dialog.ShowInformation("Export", "Open an image first.", w)
			return
		}
		ly := view.Layout()
		upd, ok := view.LastUpdate()
		if !ok {
			dialog.ShowInformation("Export", "Hover over the image to position the lens first.", w)
			return
		}
		fd := dialog.NewFileSave(func(wr fyne.URIWriteCloser, derr error) {
			if derr != nil || wr == nil {
				return
			}
			out := wr.URI().Path()
			_ = wr.Close()
			rect := export.CropRect(ly, upd.Lens)
			if eerr := export.WriteCropPNG(srcImage, rect, out, export.CropOptions{Smooth: cfg.Viewer.Smoothing}); eerr != nil {
				dialog.ShowError(eerr, w)
				return
			}
			status.SetText("Exported " + filepath.Base(out))
			telemetry.Event("region_exported", map[string]any{"format": "png"})
		}, w)
		fd.SetFileName("loupe-crop.png")
		fd.Show()
	})

	exportPDFItem := fyne.NewMenuItem("Export Snapshot PDF…", func() {
		if srcImage == nil {
			dialog.ShowInformation("Export", "Open an image first.", w)
			return
		}
		ly := view.Layout()
		upd, ok := view.LastUpdate()
		if !ok {
			dialog.ShowInformation("Export", "Hover over the image to position the lens first.", w)
			return
		}
		fd := dialog.NewFileSave(func(wr fyne.URIWriteCloser, derr error) {
			if derr != nil || wr == nil {
				return
			}
			out := wr.URI().Path()
			_ = wr.Close()
			opt := export.PDFOptions{Title: "Loupe Snapshot", ImagePath: currentPath, Smooth: cfg.Viewer.Smoothing}
			if eerr := export.WriteSnapshotPDF(srcImage, ly, upd.Lens, out, opt); eerr != nil {
				dialog.ShowError(eerr, w)
				return
			}
			status.SetText("Exported " + filepath.Base(out))
			telemetry.Event("region_exported", map[string]any{"format": "pdf"})
		}, w)
		fd.SetFileName("loupe-snapshot.pdf")
		fd.Show()
	})

	quitItem := fyne.NewMenuItem("Quit", func() { fyneApp.Quit() })

	fileItems := []*fyne.MenuItem{openItem}
	if rec != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		entries, lerr := rec.List(ctx, 8)
		cancel()
		if lerr == nil && len(entries) > 0 {
			recentItems := make([]*fyne.MenuItem, 0, len(entries))
			for _, e := range entries {
				p := e.Path
				recentItems = append(recentItems, fyne.NewMenuItem(filepath.Base(p), func() { openImage(p) }))
			}
			sub := fyne.NewMenuItem("Open Recent", nil)
			sub.ChildMenu = fyne.NewMenu("Open Recent", recentItems...)
			fileItems = append(fileItems, sub)
		}
	}
	fileItems = append(fileItems, fyne.NewMenuItemSeparator(), exportPNGItem, exportPDFItem, fyne.NewMenuItemSeparator(), quitItem)
	fileMenu := fyne.NewMenu("File", fileItems...)

	applyProfile := func(p profile.Profile) {
		view.SetZoomScale(p.Scale)
		stage.SetPlacement(lens.ResolveAnchor(lens.Anchor(p.Anchor), p.OffsetH, p.OffsetV))
		if srcImage != nil {
			panel.SetSource(srcImage, view.Layout())
		}
		stage.Refresh()
		status.SetText("Profile: " + p.Name)
		l.Info("profile applied", slog.String("name", p.Name), slog.Float64("scale", float64(p.Scale)))
	}

	profileItems := []*fyne.MenuItem{}
	if profiles != nil {
		if ps, perr := profiles.Load(); perr == nil {
			for _, p := range ps {
				pp := p
				profileItems = append(profileItems, fyne.NewMenuItem(pp.Name, func() { applyProfile(pp) }))
			}
		} else {
			l.Warn("profiles unavailable", slog.String("error", perr.Error()))
		}
	}
	if len(profileItems) == 0 {
		none := fyne.NewMenuItem("No profiles", nil)
		none.Disabled = true
		profileItems = append(profileItems, none)
	}
	profileMenu := fyne.NewMenu("Profiles", profileItems...)

	aboutItem := fyne.NewMenuItem("About", func() {
		dialog.ShowInformation("Image Loupe", "Image Loupe "+version.String(), w)
	})
	helpMenu := fyne.NewMenu("Help", aboutItem)

	w.SetMainMenu(fyne.NewMainMenu(fileMenu, profileMenu, helpMenu))

	content := container.NewBorder(nil, container.NewVBox(widget.NewSeparator(), status), nil, nil, stage)
	w.SetContent(content)

	if imagePath != "" {
		openImage(imagePath)
	}

	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}

// LoupeView renders the source image and tracks the pointer with a lens box.
// It is the Measurer and ResizeSource for its Synchronizer: displayed size is
// the widget size (the image is stretched to fill it), natural size comes from
// the decoded image, and the page offset is always zero because hover events
// arrive in widget-local coordinates.
type LoupeView struct {
	widget.BaseWidget

	img     *canvas.Image
	lensBox *canvas.Rectangle
	natural geom.Size
	loaded  bool

	sync    *lens.Synchronizer
	subs    map[int]func()
	nextSub int

	last    lens.Update
	hasLast bool

	OnTrack func(lens.Update)
	OnHover func(entered bool)
}

func NewLoupeView(zoomScale float32) *LoupeView {
	v := &LoupeView{
		img:  &canvas.Image{FillMode: canvas.ImageFillStretch},
		subs: map[int]func(){},
	}
	v.lensBox = canvas.NewRectangle(color.RGBA{R: 255, G: 255, B: 255, A: 30})
	v.lensBox.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	v.lensBox.StrokeWidth = 1.5
	v.lensBox.Hide()

	v.sync = lens.NewSynchronizer(zoomScale)
	v.sync.Bind(v, v)

	v.ExtendBaseWidget(v)
	return v
}

// PreferredSize sets a decent default size for the widget.
func (v *LoupeView) PreferredSize() fyne.Size { return fyne.NewSize(640, 480) }

// SetImage installs a decoded image and rebuilds the layout.
func (v *LoupeView) SetImage(m image.Image) {
	b := m.Bounds()
	v.natural = geom.Size{W: float32(b.Dx()), H: float32(b.Dy())}
	v.loaded = true
	v.img.Image = m
	v.hasLast = false
	v.sync.ImageLoaded(v)
	v.Refresh()
}

// SetZoomScale swaps the synchronizer for one with the new magnification and
// rebuilds the layout if an image is loaded.
func (v *LoupeView) SetZoomScale(scale float32) {
	v.sync.Close()
	v.sync = lens.NewSynchronizer(scale)
	v.sync.Bind(v, v)
	v.hasLast = false
	if v.loaded {
		v.sync.ImageLoaded(v)
	}
	v.Refresh()
}

// Layout returns the current layout snapshot.
func (v *LoupeView) Layout() lens.Layout { return v.sync.Layout() }

// LastUpdate returns the most recent tracking result, if any.
func (v *LoupeView) LastUpdate() (lens.Update, bool) { return v.last, v.hasLast }

// DisplayedSize implements lens.Measurer.
func (v *LoupeView) DisplayedSize() (geom.Size, bool) {
	if !v.loaded {
		return geom.Size{}, false
	}
	s := v.Size()
	if s.Width <= 0 || s.Height <= 0 {
		return geom.Size{}, false
	}
	return geom.Size{W: s.Width, H: s.Height}, true
}

// NaturalSize implements lens.Measurer.
func (v *LoupeView) NaturalSize() (geom.Size, bool) { return v.natural, v.loaded }

// PageOffset implements lens.Measurer.
func (v *LoupeView) PageOffset() geom.Pt { return geom.Pt{} }

// Subscribe implements lens.ResizeSource.
func (v *LoupeView) Subscribe(fn func()) (cancel func()) {
	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn
	return func() { delete(v.subs, id) }
}

// Resize re-measures the layout after the base widget has taken the new size.
func (v *LoupeView) Resize(size fyne.Size) {
	v.BaseWidget.Resize(size)
	if v.loaded {
		// displayed size changed, lens dimensions must follow
		v.sync.ImageLoaded(v)
	}
	for _, fn := range v.subs {
		fn()
	}
}

// MouseIn implements desktop.Hoverable.
func (v *LoupeView) MouseIn(e *desktop.MouseEvent) {
	if !v.sync.Layout().Valid() {
		return
	}
	v.lensBox.Show()
	if v.OnHover != nil {
		v.OnHover(true)
	}
	v.MouseMoved(e)
}

// MouseMoved implements desktop.Hoverable.
func (v *LoupeView) MouseMoved(e *desktop.MouseEvent) {
	upd, ok := v.sync.Layout().Track(geom.Pt{X: e.Position.X, Y: e.Position.Y})
	if !ok {
		return
	}
	v.last = upd
	v.hasLast = true
	v.lensBox.Move(fyne.NewPos(float32ToFixed(upd.Lens.Left), float32ToFixed(upd.Lens.Top)))
	if v.OnTrack != nil {
		v.OnTrack(upd)
	}
}

// MouseOut implements desktop.Hoverable.
func (v *LoupeView) MouseOut() {
	v.lensBox.Hide()
	if v.OnHover != nil {
		v.OnHover(false)
	}
}

// CreateRenderer builds the simple objects we position manually.
func (v *LoupeView) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	objs := []fyne.CanvasObject{bg, v.img, v.lensBox}
	return &loupeViewRenderer{view: v, objects: objs, bg: bg}
}

type loupeViewRenderer struct {
	view    *LoupeView
	objects []fyne.CanvasObject
	bg      *canvas.Rectangle
}

func (r *loupeViewRenderer) Destroy()                     {}
func (r *loupeViewRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *loupeViewRenderer) MinSize() fyne.Size           { return fyne.NewSize(240, 180) }
func (r *loupeViewRenderer) Refresh()                     { r.Layout(r.view.Size()); canvas.Refresh(r.view) }

func (r *loupeViewRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	r.view.img.Resize(size)
	r.view.img.Move(fyne.NewPos(0, 0))
	if ly := r.view.sync.Layout(); ly.Valid() {
		r.view.lensBox.Resize(fyne.NewSize(float32ToFixed(ly.Lens.W), float32ToFixed(ly.Lens.H)))
	}
}

// MagnifierPanel shows the natural-resolution crop under the lens. The source
// image is laid out at its intrinsic size and shifted by the negated
// background origin, so the region under the lens lands at the panel origin.
type MagnifierPanel struct {
	widget.BaseWidget

	content *canvas.Image
	frame   *canvas.Rectangle
	natural geom.Size
	minSize fyne.Size
	offset  geom.Pt
	active  bool
}

func NewMagnifierPanel(smooth bool) *MagnifierPanel {
	p := &MagnifierPanel{
		content: &canvas.Image{FillMode: canvas.ImageFillStretch},
		minSize: fyne.NewSize(240, 180),
	}
	if smooth {
		p.content.ScaleMode = canvas.ImageScaleSmooth
	} else {
		p.content.ScaleMode = canvas.ImageScaleFastest
	}
	p.frame = canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 22, A: 255})
	p.frame.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	p.frame.StrokeWidth = 1
	p.content.Hide()
	p.ExtendBaseWidget(p)
	return p
}

// SetSource installs the image and sizes the panel to the magnified lens
// footprint: one natural pixel per panel pixel.
func (p *MagnifierPanel) SetSource(m image.Image, ly lens.Layout) {
	p.content.Image = m
	if ly.Valid() {
		p.natural = ly.Metrics.Natural
		p.minSize = fyne.NewSize(
			float32ToFixed(ly.Lens.W*ly.Scale.X),
			float32ToFixed(ly.Lens.H*ly.Scale.Y),
		)
	}
	p.offset = geom.Pt{}
	p.Refresh()
}

// Apply shifts the visible crop to the tracked region.
func (p *MagnifierPanel) Apply(upd lens.Update) {
	p.offset = upd.Background
	p.Refresh()
}

// SetActive toggles crop visibility while the pointer is over the source.
func (p *MagnifierPanel) SetActive(active bool) {
	p.active = active
	if active && p.content.Image != nil {
		p.content.Show()
	} else {
		p.content.Hide()
	}
	p.Refresh()
}

func (p *MagnifierPanel) MinSize() fyne.Size { return p.minSize }

func (p *MagnifierPanel) CreateRenderer() fyne.WidgetRenderer {
	objs := []fyne.CanvasObject{p.frame, p.content}
	return &magnifierPanelRenderer{panel: p, objects: objs}
}

type magnifierPanelRenderer struct {
	panel   *MagnifierPanel
	objects []fyne.CanvasObject
}

func (r *magnifierPanelRenderer) Destroy()                     {}
func (r *magnifierPanelRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *magnifierPanelRenderer) MinSize() fyne.Size           { return r.panel.minSize }
func (r *magnifierPanelRenderer) Refresh() {
	r.Layout(r.panel.Size())
	canvas.Refresh(r.panel)
}

func (r *magnifierPanelRenderer) Layout(size fyne.Size) {
	r.panel.frame.Resize(size)
	r.panel.frame.Move(fyne.NewPos(0, 0))
	r.panel.content.Resize(fyne.NewSize(
		float32ToFixed(r.panel.natural.W),
		float32ToFixed(r.panel.natural.H),
	))
	r.panel.content.Move(fyne.NewPos(
		float32ToFixed(-r.panel.offset.X),
		float32ToFixed(-r.panel.offset.Y),
	))
}

// loupeStage lays the source view and the magnified panel out side by side
// according to the configured anchor. The panel's top-left is resolved
// relative to the image box; the stage shifts the image box inward so the
// panel stays inside the container.
type loupeStage struct {
	*fyne.Container
	layout *loupeStageLayout
}

func newLoupeStage(view *LoupeView, panel *MagnifierPanel, placement lens.PanelPlacement) *loupeStage {
	l := &loupeStageLayout{view: view, panel: panel, placement: placement}
	return &loupeStage{Container: container.New(l, view, panel), layout: l}
}

func (s *loupeStage) SetPlacement(p lens.PanelPlacement) {
	s.layout.placement = p
	s.Container.Refresh()
}

type loupeStageLayout struct {
	view      *LoupeView
	panel     *MagnifierPanel
	placement lens.PanelPlacement
}

func (l *loupeStageLayout) MinSize(_ []fyne.CanvasObject) fyne.Size {
	vm := l.view.PreferredSize()
	pm := l.panel.MinSize()
	switch l.placement.Side {
	case lens.AnchorTop, lens.AnchorBottom:
		return fyne.NewSize(fyne.Max(vm.Width, pm.Width), vm.Height+pm.Height+l.placement.OffsetV)
	default:
		return fyne.NewSize(vm.Width+pm.Width+l.placement.OffsetH, fyne.Max(vm.Height, pm.Height))
	}
}

func (l *loupeStageLayout) Layout(_ []fyne.CanvasObject, size fyne.Size) {
	pm := l.panel.MinSize()
	viewSize := size
	origin := fyne.NewPos(0, 0)
	switch l.placement.Side {
	case lens.AnchorLeft:
		viewSize.Width -= pm.Width + l.placement.OffsetH
		origin.X = pm.Width + l.placement.OffsetH
	case lens.AnchorTop:
		viewSize.Height -= pm.Height + l.placement.OffsetV
		origin.Y = pm.Height + l.placement.OffsetV
	case lens.AnchorBottom:
		viewSize.Height -= pm.Height + l.placement.OffsetV
	default: // right
		viewSize.Width -= pm.Width + l.placement.OffsetH
	}
	if viewSize.Width < 120 {
		viewSize.Width = 120
	}
	if viewSize.Height < 90 {
		viewSize.Height = 90
	}
	l.view.Move(origin)
	l.view.Resize(viewSize)

	at := l.placement.TopLeft(
		geom.Size{W: viewSize.Width, H: viewSize.Height},
		geom.Size{W: pm.Width, H: pm.Height},
	)
	l.panel.Move(fyne.NewPos(
		float32ToFixed(origin.X+at.X),
		float32ToFixed(origin.Y+at.Y),
	))
	l.panel.Resize(pm)
}

// float32ToFixed snaps a coordinate to a stable device position so repeated
// layout passes do not jitter by sub-pixel amounts.
func float32ToFixed(v float32) float32 {
	return float32(math.Round(float64(v)*4) / 4)
}
