/*
Copyright 2013 The Perkeep Authors

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

// Package record defines the Asset record (§3) and the
// newline-delimited JSON dump/load codec of §4.10 and §9, whose
// dynamic location typing (string or {l,c,r} object) mirrors
// Perkeep's camtypes-to-JSON boundary conventions.
package record

import (
	"sort"
	"strings"
	"time"

	"tanuki/internal/location"
)

// Dimensions is an optional width/height pair, image/video only.
type Dimensions struct {
	Width  uint32
	Height uint32
}

// Asset is the structured record maintained per imported file (§3).
type Asset struct {
	ID         string // AssetId, opaque
	Checksum   string // "sha256-<hex>", unique
	Filename   string // original name, case preserved
	ByteLength uint64
	MediaType  string // IANA MIME string, as stored (not render-normalized)
	Tags       []string
	Caption    string
	Location   location.Location
	HasLoc     bool

	ImportDate   time.Time
	OriginalDate *time.Time
	UserDate     *time.Time

	Dimensions   Dimensions
	HasDimension bool
}

// Clone returns a deep copy of a, so a caller can mutate the copy and
// compare against the original to detect a no-op edit (§4.9).
func (a *Asset) Clone() *Asset {
	c := *a
	c.Tags = append([]string(nil), a.Tags...)
	if a.OriginalDate != nil {
		t := *a.OriginalDate
		c.OriginalDate = &t
	}
	if a.UserDate != nil {
		t := *a.UserDate
		c.UserDate = &t
	}
	return &c
}

// Equal reports whether a and o have identical field values, used by
// Edit (§4.9) to decide whether an asset was actually modified.
func (a *Asset) Equal(o *Asset) bool {
	if a.ID != o.ID || a.Checksum != o.Checksum || a.Filename != o.Filename ||
		a.ByteLength != o.ByteLength || a.MediaType != o.MediaType ||
		a.Caption != o.Caption || a.Location != o.Location || a.HasLoc != o.HasLoc ||
		a.Dimensions != o.Dimensions || a.HasDimension != o.HasDimension {
		return false
	}
	if !a.ImportDate.Equal(o.ImportDate) {
		return false
	}
	if !timePtrEqual(a.OriginalDate, o.OriginalDate) || !timePtrEqual(a.UserDate, o.UserDate) {
		return false
	}
	if len(a.Tags) != len(o.Tags) {
		return false
	}
	for i, t := range a.Tags {
		if o.Tags[i] != t {
			return false
		}
	}
	return true
}

func timePtrEqual(a, b *time.Time) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}

// BestDate returns the first non-null of UserDate, OriginalDate,
// ImportDate (§3's "best date").
func (a *Asset) BestDate() time.Time {
	if a.UserDate != nil {
		return *a.UserDate
	}
	if a.OriginalDate != nil {
		return *a.OriginalDate
	}
	return a.ImportDate
}

// NormalizeTags lower-cases, de-duplicates (first occurrence wins),
// and drops empty strings, per §3's tags invariant.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = normalizeTag(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// SortedTags returns a copy of tags in lexical order, useful for
// deterministic test comparisons and dump output.
func SortedTags(tags []string) []string {
	out := append([]string(nil), tags...)
	sort.Strings(out)
	return out
}
