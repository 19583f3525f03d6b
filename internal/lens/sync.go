/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package lens

// ResizeSource delivers viewport-resize notifications. Subscribe registers fn
// and returns a cancel func releasing the registration.
type ResizeSource interface {
	Subscribe(fn func()) (cancel func())
}

// Synchronizer owns the Layout snapshot and is its only writer. Event
// callbacks (image load, viewport resize) run on the UI event loop one at a
// time, so no locking is needed; readers take the snapshot by value.
type Synchronizer struct {
	zoomScale float32
	layout    Layout
	unsub     func()
}

// NewSynchronizer creates a synchronizer for the given zoom scale. Non-positive
// scales fall back to the default of 1.2.
func NewSynchronizer(zoomScale float32) *Synchronizer {
	if zoomScale <= 0 {
		zoomScale = DefaultScale
	}
	return &Synchronizer{zoomScale: zoomScale}
}

// DefaultScale is the magnification applied when none is configured.
const DefaultScale float32 = 1.2

// Layout returns the current snapshot by value.
func (s *Synchronizer) Layout() Layout { return s.layout }

// ZoomScale returns the configured magnification.
func (s *Synchronizer) ZoomScale() float32 { return s.zoomScale }

// ImageLoaded rebuilds the full layout: metrics, scale factors and lens
// dimensions. This is the only point where natural-size-derived quantities
// are established.
func (s *Synchronizer) ImageLoaded(m Measurer) {
	s.layout = NewLayout(Measure(m), s.zoomScale)
}

// ViewportResized refreshes only the image's position; intrinsic and
// displayed sizes are assumed stable unless a new load fires. Before the
// first load this is a no-op.
func (s *Synchronizer) ViewportResized(m Measurer) {
	if !s.layout.valid || m == nil {
		return
	}
	s.layout.Metrics.Offset = m.PageOffset()
}

// Bind subscribes to src for the component's lifetime. Repeated calls are
// ignored so re-renders cannot stack duplicate listeners; Close releases the
// single registration.
func (s *Synchronizer) Bind(src ResizeSource, m Measurer) {
	if s.unsub != nil || src == nil {
		return
	}
	s.unsub = src.Subscribe(func() { s.ViewportResized(m) })
}

// Close releases the resize subscription, if any.
func (s *Synchronizer) Close() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}
