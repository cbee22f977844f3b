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

// Package mediaprobe extracts the metadata Import needs beyond a raw
// byte stream (§4.3's "probe"): an original capture date, GPS
// coordinates if present, and pixel dimensions for images. The EXIF
// date/GPS logic is adapted from Perkeep's pkg/schema.FileTime,
// trading its fallback-to-mtime behavior (this package has no
// obligation to invent a date when EXIF has none) for a plain
// "unknown" result the caller can fall back on.
package mediaprobe

import (
	"errors"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"image"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bradfitz/latlong"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"tanuki/internal/record"
)

var errUnexpectedTagFormat = errors.New("mediaprobe: DateTime tag not in string format")

// Result is what a Prober discovers about one staged file.
type Result struct {
	OriginalDate *time.Time
	HasGPS       bool
	Latitude     float64
	Longitude    float64
	Dimensions   record.Dimensions
	HasDimension bool
}

// Prober is the MediaProbe collaborator of §6.
type Prober interface {
	Probe(path, mimeType string) (Result, error)
}

// ExifProber reads EXIF metadata from images and pixel dimensions from
// any format the standard image codecs understand. Non-image media
// types yield a zero Result: duration and frame metadata for
// video/audio live with the Transcoder collaborator, not here.
type ExifProber struct{}

func (ExifProber) Probe(path, mimeType string) (Result, error) {
	var res Result
	if !strings.HasPrefix(mimeType, "image/") {
		return res, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return res, err
	}
	defer f.Close()

	if conf, _, err := image.DecodeConfig(f); err == nil {
		res.Dimensions = record.Dimensions{Width: uint32(conf.Width), Height: uint32(conf.Height)}
		res.HasDimension = true
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return res, err
	}

	ex, err := exif.Decode(f)
	if err != nil {
		// No EXIF, or unparseable EXIF: dimensions (if any) still stand.
		return res, nil
	}

	if lat, long, err := ex.LatLong(); err == nil {
		res.HasGPS = true
		res.Latitude = lat
		res.Longitude = long
	}

	ct, err := ex.DateTime()
	if err != nil {
		return res, nil
	}
	if ct.Location() == time.Local && res.HasGPS {
		if loc := lookupZone(latlong.LookupZoneName(res.Latitude, res.Longitude)); loc != nil {
			if t, err := exifDateTimeInLocation(ex, loc); err == nil {
				ct = t
			}
		}
	}
	res.OriginalDate = &ct
	return res, nil
}

// exifDateTimeInLocation re-reads DateTimeOriginal (falling back to
// DateTime) under an explicit *time.Location, mirroring Perkeep's
// private helper of the same purpose in pkg/schema.
func exifDateTimeInLocation(x *exif.Exif, loc *time.Location) (time.Time, error) {
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		tag, err = x.Get(exif.DateTime)
		if err != nil {
			return time.Time{}, err
		}
	}
	if tag.Format() != tiff.StringVal {
		return time.Time{}, errUnexpectedTagFormat
	}
	const exifTimeLayout = "2006:01:02 15:04:05"
	dateStr := strings.TrimRight(string(tag.Val), "\x00")
	return time.ParseInLocation(exifTimeLayout, dateStr, loc)
}

var zoneCache struct {
	sync.RWMutex
	m map[string]*time.Location
}

func lookupZone(zone string) *time.Location {
	if zone == "" {
		return nil
	}
	zoneCache.RLock()
	l, ok := zoneCache.m[zone]
	zoneCache.RUnlock()
	if ok {
		return l
	}
	loc, err := time.LoadLocation(zone)
	zoneCache.Lock()
	if zoneCache.m == nil {
		zoneCache.m = make(map[string]*time.Location)
	}
	zoneCache.m[zone] = loc
	zoneCache.Unlock()
	if err != nil {
		log.Printf("mediaprobe: failed to load timezone %q: %v", zone, err)
		return nil
	}
	return loc
}
