/*
Copyright 2014 The Perkeep Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package thumbnail

import (
	"bytes"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// Sizes named in §4.7: a square-ish thumbnail, a larger preview,
// and a height-anchored wide thumbnail for filmstrip-style listings.
const (
	ThumbnailWidth  = 240
	ThumbnailHeight = 240
	PreviewWidth    = 640
	PreviewHeight   = 640
	WideThumbHeight = 300
)

// fitWithin computes the largest w x h that preserves srcW:srcH's
// aspect ratio within maxW x maxH, never upscaling past the source.
func fitWithin(srcW, srcH, maxW, maxH int) (w, h int) {
	if srcW <= maxW && srcH <= maxH {
		return srcW, srcH
	}
	wr := float64(maxW) / float64(srcW)
	hr := float64(maxH) / float64(srcH)
	ratio := wr
	if hr < wr {
		ratio = hr
	}
	w = int(float64(srcW) * ratio)
	h = int(float64(srcH) * ratio)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// fitHeight computes the width that preserves aspect ratio when
// scaled to exactly maxH, never upscaling.
func fitHeight(srcW, srcH, maxH int) (w, h int) {
	if srcH <= maxH {
		return srcW, srcH
	}
	ratio := float64(maxH) / float64(srcH)
	w = int(float64(srcW) * ratio)
	if w < 1 {
		w = 1
	}
	return w, maxH
}

// Resize scales src to fit within maxW x maxH using a high-quality
// interpolating scaler, matching Perkeep's preference for
// CatmullRom-quality resizing for user-facing thumbnails over a
// cheaper box filter.
func Resize(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), maxW, maxH)
	if w == b.Dx() && h == b.Dy() {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// ResizeToHeight scales src down to maxH tall, preserving aspect; a
// source no taller than maxH is returned unchanged.
func ResizeToHeight(src image.Image, maxH int) image.Image {
	b := src.Bounds()
	w, h := fitHeight(b.Dx(), b.Dy(), maxH)
	if w == b.Dx() && h == b.Dy() {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// EncodeJPEG re-encodes an image as JPEG at a quality suitable for
// thumbnails, matching Perkeep's pkg/server/image.go constant.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
