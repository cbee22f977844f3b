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
	"image"
	"image/color"
	"testing"
)

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	return img
}

func TestResizeDownscalesPreservingAspect(t *testing.T) {
	src := solidImage(1200, 600)
	out := Resize(src, ThumbnailWidth, ThumbnailHeight)
	b := out.Bounds()
	if b.Dx() != ThumbnailWidth || b.Dy() != ThumbnailHeight/2 {
		t.Errorf("got %dx%d, want %dx%d", b.Dx(), b.Dy(), ThumbnailWidth, ThumbnailHeight/2)
	}
}

func TestResizeNeverUpscales(t *testing.T) {
	src := solidImage(100, 50)
	out := Resize(src, ThumbnailWidth, ThumbnailHeight)
	b := out.Bounds()
	if b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("got %dx%d, want unchanged 100x50", b.Dx(), b.Dy())
	}
}

func TestResizeToHeight(t *testing.T) {
	src := solidImage(800, 400)
	out := ResizeToHeight(src, WideThumbHeight)
	b := out.Bounds()
	if b.Dy() != WideThumbHeight || b.Dx() != WideThumbHeight*2 {
		t.Errorf("got %dx%d, want %dx%d", b.Dx(), b.Dy(), WideThumbHeight*2, WideThumbHeight)
	}
}

func TestEncodeJPEGRoundTrips(t *testing.T) {
	src := solidImage(16, 16)
	data, err := EncodeJPEG(src)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty JPEG output")
	}
}
