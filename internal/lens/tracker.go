/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package lens

import "imageloupe/internal/geom"

// Update is the result of one pointer-move: where the lens rectangle goes and
// which natural-resolution offset the magnified panel must show. Background is
// the positive crop origin in natural pixels; the presentation layer shifts
// the panel content by its negation so the crop under the lens is revealed.
type Update struct {
	Lens       LensPosition
	Background geom.Pt
}

// Track converts a raw pointer position (window coordinates) into a lens
// update. The pointer is first translated into image-local coordinates, then
// clamped so the lens, centered on the pointer, never leaves the image box.
// Returns ok=false when the layout has not been measured yet; the caller must
// treat that as "leave the previous visual state alone".
func (ly Layout) Track(pointer geom.Pt) (Update, bool) {
	if !ly.valid {
		return Update{}, false
	}

	local := geom.Pt{
		X: pointer.X - ly.Metrics.Offset.X,
		Y: pointer.Y - ly.Metrics.Offset.Y,
	}

	halfW := ly.Lens.W / 2
	halfH := ly.Lens.H / 2
	left := geom.PositionFromClamped(local.X, halfW, ly.Metrics.Displayed.W-halfW)
	top := geom.PositionFromClamped(local.Y, halfH, ly.Metrics.Displayed.H-halfH)

	return Update{
		Lens: LensPosition{Top: top, Left: left},
		Background: geom.Pt{
			X: left * ly.Scale.X,
			Y: top * ly.Scale.Y,
		},
	}, true
}

// MaxLensPosition returns the largest reachable lens top-left, i.e. the
// position produced when the pointer travels past the bottom-right edge.
func (ly Layout) MaxLensPosition() LensPosition {
	if !ly.valid {
		return LensPosition{}
	}
	return LensPosition{
		Top:  geom.Clamp(ly.Metrics.Displayed.H-ly.Lens.H, 0, ly.Metrics.Displayed.H),
		Left: geom.Clamp(ly.Metrics.Displayed.W-ly.Lens.W, 0, ly.Metrics.Displayed.W),
	}
}
