/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"imageloupe/internal/lens"
)

// PDFOptions controls the snapshot sheet.
// Units are points (pt); page origin is top-left.
type PDFOptions struct {
	Title     string
	ImagePath string // shown as a caption when set
	Smooth    bool
}

const (
	sheetW     = 595.28 // A4 portrait
	sheetH     = 841.89
	sheetInset = 40.0
)

// WriteSnapshotPDF writes a one-page sheet to outPath: the full source image
// scaled to fit the upper half, and the magnified crop under the lens below
// it at the panel's aspect ratio.
func WriteSnapshotPDF(src image.Image, ly lens.Layout, pos lens.LensPosition, outPath string, opt PDFOptions) error {
	if !ly.Valid() {
		return fmt.Errorf("layout has no image metrics")
	}
	crop, err := RenderCrop(src, CropRect(ly, pos), CropOptions{Smooth: opt.Smooth})
	if err != nil {
		return err
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: sheetW, Ht: sheetH},
		OrientationStr: "",
	})
	title := opt.Title
	if title == "" {
		title = "Loupe Snapshot"
	}
	pdf.SetTitle(title, false)
	pdf.SetAuthor("Image Loupe", false)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: sheetW, Ht: sheetH})

	// Built-in Helvetica keeps text vector without embedding
	pdf.SetFont("Helvetica", "", 14)
	pdf.Text(sheetInset, sheetInset, title)
	y := sheetInset + 16
	if opt.ImagePath != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.Text(sheetInset, y, opt.ImagePath)
		y += 14
	}

	usableW := sheetW - 2*sheetInset
	halfH := (sheetH - y - 2*sheetInset) / 2

	if err := placeImage(pdf, "source", src, sheetInset, y, usableW, halfH); err != nil {
		return err
	}
	y += halfH + sheetInset

	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(sheetInset, y-6, fmt.Sprintf("Magnified region at %.0f,%.0f (lens %.0fx%.0f)",
		pos.Left, pos.Top, ly.Lens.W, ly.Lens.H))
	if err := placeImage(pdf, "crop", crop, sheetInset, y, usableW, halfH); err != nil {
		return err
	}

	// Keep the outer frame so the sheet reads as a single figure
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.4)
	pdf.Rect(sheetInset/2, sheetInset/2, sheetW-sheetInset, sheetH-sheetInset, "D")

	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// placeImage registers img under name and draws it fitted inside the box,
// preserving aspect ratio.
func placeImage(pdf *gofpdf.Fpdf, name string, img image.Image, x, y, boxW, boxH float64) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	info := pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
	if pdf.Err() {
		return fmt.Errorf("register %s: %v", name, pdf.Error())
	}
	iw, ih := info.Extent()
	scale := boxW / iw
	if ih*scale > boxH {
		scale = boxH / ih
	}
	w, h := iw*scale, ih*scale
	pdf.ImageOptions(name, x+(boxW-w)/2, y, w, h, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	if pdf.Err() {
		return fmt.Errorf("place %s: %v", name, pdf.Error())
	}
	return nil
}
