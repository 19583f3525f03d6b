/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

// Basic 2D geometry for pointer and layout math.
// Float values use float32 for compactness and to align with many UI libs.

// Pt is a 2D point.
type Pt struct{ X, Y float32 }

// Size is a width/height pair.
type Size struct{ W, H float32 }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float32
	W, H float32
}

func R(x, y, w, h float32) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt { return Pt{r.X + r.W, r.Y + r.H} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Clamp limits v to [min, max]. When min > max (a lens larger than its image
// along an axis) the range is degenerate; the midpoint is returned so callers
// see a stable, centered value instead of an oscillating one.
func Clamp(v, min, max float32) float32 {
	if min > max {
		return (min + max) / 2
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// PositionFromClamped clamps v to [min, max] and re-bases the result to a
// zero origin at min, yielding a value in [0, max-min].
func PositionFromClamped(v, min, max float32) float32 {
	return Clamp(v, min, max) - min
}
