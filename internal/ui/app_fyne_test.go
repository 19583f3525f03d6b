//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne-based UI components. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
//
// Ensure you have the Fyne dependencies installed and a working OS driver.
package ui

import (
	"image"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"imageloupe/internal/geom"
	"imageloupe/internal/lens"
)

func almostEqual(a, b, eps float32) bool {
	if a > b {
		return a-b <= eps
	}
	return b-a <= eps
}

func moveEvent(x, y float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func loadedView(t *testing.T) *LoupeView {
	t.Helper()
	v := NewLoupeView(1.2)
	v.Resize(fyne.NewSize(500, 400))
	v.SetImage(image.NewRGBA(image.Rect(0, 0, 1000, 800)))
	if !v.Layout().Valid() {
		t.Fatalf("layout should be valid after load")
	}
	return v
}

func TestLoupeView_Defaults(t *testing.T) {
	v := NewLoupeView(0)
	if got := v.sync.ZoomScale(); got != lens.DefaultScale {
		t.Fatalf("expected default zoom %v, got %v", lens.DefaultScale, got)
	}
	sz := v.PreferredSize()
	if sz.Width != 640 || sz.Height != 480 {
		t.Fatalf("unexpected PreferredSize: %v", sz)
	}
	if _, ok := v.DisplayedSize(); ok {
		t.Fatalf("displayed size should be unavailable before load")
	}
	if _, ok := v.NaturalSize(); ok {
		t.Fatalf("natural size should be unavailable before load")
	}
}

func TestLoupeView_LayoutAfterLoad(t *testing.T) {
	v := loadedView(t)
	ly := v.Layout()
	if !almostEqual(ly.Scale.X, 2, 0.01) || !almostEqual(ly.Scale.Y, 2, 0.01) {
		t.Fatalf("unexpected scale factors: %+v", ly.Scale)
	}
	if !almostEqual(ly.Lens.W, 300, 0.5) || !almostEqual(ly.Lens.H, 240, 0.5) {
		t.Fatalf("unexpected lens dimensions: %+v", ly.Lens)
	}
}

func TestLoupeView_TrackingCentersLens(t *testing.T) {
	v := loadedView(t)
	var got lens.Update
	calls := 0
	v.OnTrack = func(u lens.Update) { got = u; calls++ }

	v.MouseMoved(moveEvent(250, 200))
	if calls != 1 {
		t.Fatalf("expected one tracking callback, got %d", calls)
	}
	if !almostEqual(got.Lens.Left, 100, 0.5) || !almostEqual(got.Lens.Top, 80, 0.5) {
		t.Fatalf("unexpected lens position: %+v", got.Lens)
	}
	if !almostEqual(got.Background.X, 200, 1) || !almostEqual(got.Background.Y, 160, 1) {
		t.Fatalf("unexpected background origin: %+v", got.Background)
	}
	if upd, ok := v.LastUpdate(); !ok || upd != got {
		t.Fatalf("LastUpdate should echo the tracked state")
	}
}

func TestLoupeView_TrackingClampsAtEdges(t *testing.T) {
	v := loadedView(t)
	v.MouseMoved(moveEvent(5000, 5000))
	upd, ok := v.LastUpdate()
	if !ok {
		t.Fatalf("expected a tracked state")
	}
	maxPos := v.Layout().MaxLensPosition()
	if !almostEqual(upd.Lens.Left, maxPos.Left, 0.5) || !almostEqual(upd.Lens.Top, maxPos.Top, 0.5) {
		t.Fatalf("lens not clamped: got %+v, want %+v", upd.Lens, maxPos)
	}
}

func TestLoupeView_TrackingBeforeLoadIsNoOp(t *testing.T) {
	v := NewLoupeView(1.2)
	v.Resize(fyne.NewSize(500, 400))
	v.MouseMoved(moveEvent(100, 100))
	if _, ok := v.LastUpdate(); ok {
		t.Fatalf("tracking before load must not produce state")
	}
}

func TestLoupeView_ResizeRemeasures(t *testing.T) {
	v := loadedView(t)
	v.Resize(fyne.NewSize(250, 200))
	ly := v.Layout()
	if !almostEqual(ly.Scale.X, 4, 0.01) {
		t.Fatalf("scale should follow the new displayed size, got %+v", ly.Scale)
	}
	if !almostEqual(ly.Lens.W, 75, 0.5) || !almostEqual(ly.Lens.H, 60, 0.5) {
		t.Fatalf("lens dimensions should follow the new displayed size, got %+v", ly.Lens)
	}
}

func TestLoupeView_SetZoomScaleRebuilds(t *testing.T) {
	v := loadedView(t)
	v.SetZoomScale(2)
	ly := v.Layout()
	if !ly.Valid() {
		t.Fatalf("layout should survive a zoom change")
	}
	// lens = displayed / (natural / (displayed * zoom)) = 500/(1000/1000) = 500
	if !almostEqual(ly.Lens.W, 500, 0.5) {
		t.Fatalf("unexpected lens width after zoom change: %v", ly.Lens.W)
	}
	if _, ok := v.LastUpdate(); ok {
		t.Fatalf("zoom change must invalidate the tracked state")
	}
}

func TestMagnifierPanel_SizedToLensFootprint(t *testing.T) {
	v := loadedView(t)
	p := NewMagnifierPanel(true)
	p.SetSource(image.NewRGBA(image.Rect(0, 0, 1000, 800)), v.Layout())
	// footprint = lens * scale = displayed * zoom
	sz := p.MinSize()
	if !almostEqual(sz.Width, 600, 1) || !almostEqual(sz.Height, 480, 1) {
		t.Fatalf("unexpected panel size: %v", sz)
	}
}

func TestMagnifierPanel_ApplyShiftsContent(t *testing.T) {
	v := loadedView(t)
	p := NewMagnifierPanel(false)
	p.SetSource(image.NewRGBA(image.Rect(0, 0, 1000, 800)), v.Layout())
	r, ok := p.CreateRenderer().(*magnifierPanelRenderer)
	if !ok {
		t.Fatalf("expected magnifierPanelRenderer, got %T", p.CreateRenderer())
	}
	p.Apply(lens.Update{Background: geom.Pt{X: 200, Y: 160}})
	r.Layout(p.MinSize())
	pos := p.content.Position()
	if !almostEqual(pos.X, -200, 0.5) || !almostEqual(pos.Y, -160, 0.5) {
		t.Fatalf("content should be shifted by the negated origin, got %v", pos)
	}
	// content laid out at natural size
	cs := p.content.Size()
	if !almostEqual(cs.Width, 1000, 0.5) || !almostEqual(cs.Height, 800, 0.5) {
		t.Fatalf("content should keep natural size, got %v", cs)
	}
}

func TestLoupeStage_PanelPlacement(t *testing.T) {
	v := NewLoupeView(1.2)
	p := NewMagnifierPanel(false)
	placement := lens.ResolveAnchor(lens.AnchorRight, 10, 5)
	stage := newLoupeStage(v, p, placement)
	stage.layout.Layout(nil, fyne.NewSize(1000, 600))

	viewW := v.Size().Width
	pos := p.Position()
	if !almostEqual(pos.X, viewW+10, 0.5) {
		t.Fatalf("panel should sit right of the image plus the offset: x=%v, view width=%v", pos.X, viewW)
	}
	if !almostEqual(pos.Y, 5, 0.5) {
		t.Fatalf("panel should honor the vertical offset: y=%v", pos.Y)
	}

	stage.SetPlacement(lens.ResolveAnchor(lens.AnchorLeft, 10, 5))
	stage.layout.Layout(nil, fyne.NewSize(1000, 600))
	if got := p.Position().X; !almostEqual(got, 0, 0.5) {
		t.Fatalf("left-anchored panel should sit at the container edge, got x=%v", got)
	}
	if got := v.Position().X; !almostEqual(got, p.MinSize().Width+10, 0.5) {
		t.Fatalf("image box should shift right of a left-anchored panel, got x=%v", got)
	}
}
