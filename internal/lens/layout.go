/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package lens is the coordinate engine behind the magnifier: it converts raw
// pointer coordinates into a clamped lens position over the source image and
// the matching crop offset for the magnified panel. It has no dependency on a
// rendering surface; measurements come in through the Measurer interface so
// the whole package is testable with synthetic sizes.
package lens

import "imageloupe/internal/geom"

// Measurer supplies the current box-model facts of the displayed image.
// The ok results report whether a measurement is available yet; an image that
// has not finished loading has no natural size and a widget that has not been
// laid out has no displayed size.
type Measurer interface {
	DisplayedSize() (geom.Size, bool)
	NaturalSize() (geom.Size, bool)
	PageOffset() geom.Pt
}

// ImageMetrics is a read-only snapshot of the source image's layout. It is
// superseded wholesale on each refresh, never partially mutated.
type ImageMetrics struct {
	Displayed geom.Size // on-screen layout size
	Natural   geom.Size // intrinsic pixel size of the resource
	Offset    geom.Pt   // top-left of the image box in window coordinates
}

// ScaleFactors map one displayed pixel to natural-resolution pixels per axis.
type ScaleFactors struct{ X, Y float32 }

// LensPosition is the lens rectangle's top-left within the image box.
type LensPosition struct{ Top, Left float32 }

// Layout bundles everything the tracker needs on a pointer move. It is a
// plain value: the Synchronizer builds a fresh one on load/resize events and
// everyone else only reads it.
type Layout struct {
	Metrics ImageMetrics
	Scale   ScaleFactors
	Lens    geom.Size

	valid bool
}

// Valid reports whether the layout has been measured with a loaded image.
// Tracking against an invalid layout is a no-op.
func (ly Layout) Valid() bool { return ly.valid }

// Measure reads the current metrics from m. A nil or not-yet-measured source
// yields zero sizes and a {0,0} offset rather than an error; callers must
// tolerate the unmeasured state.
func Measure(m Measurer) ImageMetrics {
	if m == nil {
		return ImageMetrics{}
	}
	var im ImageMetrics
	if d, ok := m.DisplayedSize(); ok {
		im.Displayed = d
	}
	if n, ok := m.NaturalSize(); ok {
		im.Natural = n
	}
	im.Offset = m.PageOffset()
	return im
}

// ComputeScaleFactors derives natural/displayed ratios. Only meaningful once
// both sizes are known; a zero displayed size yields zero factors.
func ComputeScaleFactors(im ImageMetrics) ScaleFactors {
	if im.Displayed.W <= 0 || im.Displayed.H <= 0 {
		return ScaleFactors{}
	}
	return ScaleFactors{
		X: im.Natural.W / im.Displayed.W,
		Y: im.Natural.H / im.Displayed.H,
	}
}

// ComputeLensDimensions derives the lens rectangle size in displayed pixels:
// displayed / (natural / (displayed * zoomScale)). The lens shrinks as the
// zoom scale grows.
func ComputeLensDimensions(im ImageMetrics, zoomScale float32) geom.Size {
	if im.Natural.W <= 0 || im.Natural.H <= 0 {
		return geom.Size{}
	}
	return geom.Size{
		W: im.Displayed.W / (im.Natural.W / (im.Displayed.W * zoomScale)),
		H: im.Displayed.H / (im.Natural.H / (im.Displayed.H * zoomScale)),
	}
}

// NewLayout builds a complete layout snapshot from a measurement. The result
// is valid only when both the displayed and natural sizes are positive.
func NewLayout(im ImageMetrics, zoomScale float32) Layout {
	ly := Layout{Metrics: im}
	if im.Displayed.W <= 0 || im.Displayed.H <= 0 || im.Natural.W <= 0 || im.Natural.H <= 0 {
		return ly
	}
	ly.Scale = ComputeScaleFactors(im)
	ly.Lens = ComputeLensDimensions(im, zoomScale)
	ly.valid = true
	return ly
}
