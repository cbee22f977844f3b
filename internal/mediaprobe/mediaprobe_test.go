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

package mediaprobe

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func writeTestJPEG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "sample.jpg")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExifProberDimensionsNoExif(t *testing.T) {
	path := writeTestJPEG(t, 64, 32)
	res, err := ExifProber{}.Probe(path, "image/jpeg")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !res.HasDimension || res.Dimensions.Width != 64 || res.Dimensions.Height != 32 {
		t.Errorf("Dimensions = %+v, HasDimension=%v", res.Dimensions, res.HasDimension)
	}
	if res.OriginalDate != nil {
		t.Errorf("expected no OriginalDate without EXIF, got %v", res.OriginalDate)
	}
	if res.HasGPS {
		t.Errorf("expected no GPS data")
	}
}

func TestExifProberNonImage(t *testing.T) {
	res, err := ExifProber{}.Probe("/does/not/matter", "video/mp4")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if res.HasDimension || res.OriginalDate != nil {
		t.Errorf("expected zero Result for non-image mime type, got %+v", res)
	}
}
