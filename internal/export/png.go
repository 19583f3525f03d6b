/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes snapshots of the magnified region: the crop under the
// lens at natural resolution, optionally rescaled, as PNG or as a one-page
// PDF sheet alongside a source thumbnail.
package export

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"

	// register decoders for the formats the viewer accepts
	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"

	"imageloupe/internal/lens"
)

// CropOptions controls PNG snapshot output.
// - Width/Height: output pixel size; zero keeps the crop's natural size
// - Smooth: use the slower Catmull-Rom kernel instead of bilinear
type CropOptions struct {
	Width  int
	Height int
	Smooth bool
}

// LoadImage decodes the image at path (PNG, JPEG or GIF).
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// CropRect maps the lens rectangle at pos into natural-resolution pixel
// coordinates: the region of the source image the magnified panel shows.
func CropRect(ly lens.Layout, pos lens.LensPosition) image.Rectangle {
	x0 := int(math.Round(float64(pos.Left * ly.Scale.X)))
	y0 := int(math.Round(float64(pos.Top * ly.Scale.Y)))
	w := int(math.Round(float64(ly.Lens.W * ly.Scale.X)))
	h := int(math.Round(float64(ly.Lens.H * ly.Scale.Y)))
	r := image.Rect(x0, y0, x0+w, y0+h)
	bounds := image.Rect(0, 0, int(ly.Metrics.Natural.W), int(ly.Metrics.Natural.H))
	return r.Intersect(bounds)
}

// RenderCrop copies rect out of src, rescaling to opt.Width x opt.Height when
// both are positive.
func RenderCrop(src image.Image, rect image.Rectangle, opt CropOptions) (*image.RGBA, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("crop rectangle %v is outside the image bounds %v", rect, src.Bounds())
	}
	outW, outH := rect.Dx(), rect.Dy()
	if opt.Width > 0 && opt.Height > 0 {
		outW, outH = opt.Width, opt.Height
	}
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	scaler := xdraw.Scaler(xdraw.ApproxBiLinear)
	if opt.Smooth {
		scaler = xdraw.CatmullRom
	}
	scaler.Scale(dst, dst.Bounds(), src, rect, xdraw.Over, nil)
	return dst, nil
}

// WriteCropPNG renders the crop and writes it to outPath.
func WriteCropPNG(src image.Image, rect image.Rectangle, outPath string, opt CropOptions) error {
	dst, err := RenderCrop(src, rect, opt)
	if err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, dst); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
