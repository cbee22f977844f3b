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

package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"tanuki/internal/location"
)

// DumpRecord is the stable external projection of an Asset (spec
// §4.10, §6). Location is encoded dynamically: a bare string when only
// a combined textual form is needed, or the {l,c,r} object otherwise —
// the codec branches on JSON shape rather than a language feature, per
// §9's design note.
type DumpRecord struct {
	Key          string          `json:"key"`
	Checksum     string          `json:"checksum"`
	Filename     string          `json:"filename"`
	ByteLength   uint64          `json:"byte_length"`
	MediaType    string          `json:"media_type"`
	Tags         []string        `json:"tags"`
	ImportDate   string          `json:"import_date"`
	UserDate     *string         `json:"user_date"`
	OriginalDate *string         `json:"original_date"`
	Caption      *string         `json:"caption"`
	Location     json.RawMessage `json:"location"`
	Dimensions   *[2]uint32      `json:"dimensions"`
}

// locationObj is the tri-field dump encoding of a Location.
type locationObj struct {
	L *string `json:"l"`
	C *string `json:"c"`
	R *string `json:"r"`
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ToDump projects an Asset into its stable dump representation.
func ToDump(a *Asset) (DumpRecord, error) {
	d := DumpRecord{
		Key:        a.ID,
		Checksum:   a.Checksum,
		Filename:   a.Filename,
		ByteLength: a.ByteLength,
		MediaType:  a.MediaType,
		Tags:       append([]string(nil), a.Tags...),
		ImportDate: a.ImportDate.UTC().Format(time.RFC3339),
		Caption:    strPtr(a.Caption),
	}
	if a.UserDate != nil {
		d.UserDate = strPtr(a.UserDate.UTC().Format(time.RFC3339))
	}
	if a.OriginalDate != nil {
		d.OriginalDate = strPtr(a.OriginalDate.UTC().Format(time.RFC3339))
	}
	if a.HasDimension {
		dims := [2]uint32{a.Dimensions.Width, a.Dimensions.Height}
		d.Dimensions = &dims
	}
	if a.HasLoc && !a.Location.IsZero() {
		raw, err := encodeLocation(a.Location)
		if err != nil {
			return DumpRecord{}, err
		}
		d.Location = raw
	}
	return d, nil
}

// encodeLocation emits the canonical string form when only Label is
// set (or when City/Region are both absent), and the {l,c,r} object
// otherwise, so plain single-part locations dump as plain strings.
func encodeLocation(l location.Location) (json.RawMessage, error) {
	if l.City == "" && l.Region == "" {
		return json.Marshal(l.Label)
	}
	obj := locationObj{}
	if l.Label != "" {
		obj.L = strPtr(l.Label)
	}
	if l.City != "" {
		obj.C = strPtr(l.City)
	}
	if l.Region != "" {
		obj.R = strPtr(l.Region)
	}
	return json.Marshal(obj)
}

// FromDump reconstructs an Asset from a dump record, accepting either
// the string or the {l,c,r} object form for location, and accepting
// dates as either RFC3339 strings or epoch seconds written as a
// decimal string. DumpRecord's date fields are strings, so a dump whose
// date is a JSON number fails when it is decoded into a DumpRecord.
func FromDump(d DumpRecord) (Asset, error) {
	a := Asset{
		ID:         d.Key,
		Checksum:   d.Checksum,
		Filename:   d.Filename,
		ByteLength: d.ByteLength,
		MediaType:  d.MediaType,
		Tags:       NormalizeTags(d.Tags),
	}
	if d.Caption != nil {
		a.Caption = *d.Caption
	}

	importDate, err := parseFlexibleDate(d.ImportDate)
	if err != nil {
		return Asset{}, fmt.Errorf("record: import_date: %w", err)
	}
	a.ImportDate = importDate

	if d.UserDate != nil {
		t, err := parseFlexibleDate(*d.UserDate)
		if err != nil {
			return Asset{}, fmt.Errorf("record: user_date: %w", err)
		}
		a.UserDate = &t
	}
	if d.OriginalDate != nil {
		t, err := parseFlexibleDate(*d.OriginalDate)
		if err != nil {
			return Asset{}, fmt.Errorf("record: original_date: %w", err)
		}
		a.OriginalDate = &t
	}
	if d.Dimensions != nil {
		a.Dimensions = Dimensions{Width: d.Dimensions[0], Height: d.Dimensions[1]}
		a.HasDimension = true
	}

	if len(d.Location) > 0 && string(d.Location) != "null" {
		loc, err := decodeLocation(d.Location)
		if err != nil {
			return Asset{}, fmt.Errorf("record: location: %w", err)
		}
		a.Location = loc
		a.HasLoc = !loc.IsZero()
	}
	return a, nil
}

func decodeLocation(raw json.RawMessage) (location.Location, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return location.Parse(s), nil
	}
	var obj locationObj
	if err := json.Unmarshal(raw, &obj); err != nil {
		return location.Location{}, err
	}
	var l location.Location
	if obj.L != nil {
		l.Label = *obj.L
	}
	if obj.C != nil {
		l.City = *obj.C
	}
	if obj.R != nil {
		l.Region = *obj.R
	}
	return l, nil
}

// parseFlexibleDate accepts an RFC3339 string or a decimal
// epoch-seconds string.
func parseFlexibleDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}
