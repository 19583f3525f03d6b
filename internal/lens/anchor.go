/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package lens

import "imageloupe/internal/geom"

// Anchor names the edge of the source image the magnified panel sits against.
type Anchor string

const (
	AnchorLeft   Anchor = "left"
	AnchorRight  Anchor = "right"
	AnchorTop    Anchor = "top"
	AnchorBottom Anchor = "bottom"
)

// Valid reports whether a is one of the four known sides.
func (a Anchor) Valid() bool {
	switch a {
	case AnchorLeft, AnchorRight, AnchorTop, AnchorBottom:
		return true
	}
	return false
}

// PanelPlacement is the static placement of the magnified panel relative to
// the source image. It depends only on configuration, never on pointer state,
// so it is resolved once per configuration change.
type PanelPlacement struct {
	Side    Anchor
	OffsetH float32
	OffsetV float32
}

// ResolveAnchor validates the configured side and captures the pixel offsets.
// Unknown sides fall back to the right edge, the configuration default.
func ResolveAnchor(side Anchor, offH, offV float32) PanelPlacement {
	if !side.Valid() {
		side = AnchorRight
	}
	return PanelPlacement{Side: side, OffsetH: offH, OffsetV: offV}
}

// TopLeft resolves the placement to the panel's top-left corner in the image
// box's coordinate system, given the image's displayed size and the panel
// size. The panel sits flush against the chosen side, shifted outward by its
// own full extent so it never overlaps the image, then nudged by the offsets.
// Left/right anchors hang the panel at the image top plus OffsetV; top/bottom
// anchors center it horizontally plus OffsetH. The horizontal nudge is
// additive for bottom exactly as for top.
func (p PanelPlacement) TopLeft(image, panel geom.Size) geom.Pt {
	switch p.Side {
	case AnchorLeft:
		return geom.Pt{X: -p.OffsetH - panel.W, Y: p.OffsetV}
	case AnchorTop:
		return geom.Pt{X: image.W/2 + p.OffsetH - panel.W/2, Y: -p.OffsetV - panel.H}
	case AnchorBottom:
		return geom.Pt{X: image.W/2 + p.OffsetH - panel.W/2, Y: image.H + p.OffsetV}
	default: // AnchorRight
		return geom.Pt{X: image.W + p.OffsetH, Y: p.OffsetV}
	}
}
