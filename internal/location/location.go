/*
Copyright 2016 The Perkeep Authors

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

// Package location implements the tri-part Location model of §3
// and its canonical textual encoding, the ambient attribute-permanode
// pattern Perkeep's pkg/search location.go resolves permanode
// attributes through, adapted here to a plain value type instead of a
// blob-graph lookup.
package location

import "strings"

// Location is the tri-part "label; city, region" structure of §3.
// Any field may be empty. The zero value is the null location.
type Location struct {
	Label  string
	City   string
	Region string
}

// IsZero reports whether every field is empty, i.e. this Location is
// equivalent to "no location" (§4.4: "A location with no non-null
// fields equals null").
func (l Location) IsZero() bool {
	return l.Label == "" && l.City == "" && l.Region == ""
}

// String returns the canonical encoding "label; city, region", omitting
// any empty parts and their separators.
func (l Location) String() string {
	var b strings.Builder
	if l.Label != "" {
		b.WriteString(l.Label)
	}
	if l.City != "" || l.Region != "" {
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		if l.City != "" {
			b.WriteString(l.City)
		}
		if l.Region != "" {
			if l.City != "" {
				b.WriteString(", ")
			}
			b.WriteString(l.Region)
		}
	}
	return b.String()
}

// Equal compares the three fields case-insensitively, as required by
// §3 ("comparison compares the three fields independently
// (case-insensitively)").
func (l Location) Equal(o Location) bool {
	return strings.EqualFold(l.Label, o.Label) &&
		strings.EqualFold(l.City, o.City) &&
		strings.EqualFold(l.Region, o.Region)
}

// Parse accepts any of the forms §3 lists: "label; city, region",
// "city, region", "label", or a bare string (treated as a label when it
// contains neither ";" nor ",").
func Parse(s string) Location {
	s = strings.TrimSpace(s)
	if s == "" {
		return Location{}
	}

	label, rest, hasLabel := strings.Cut(s, ";")
	if !hasLabel {
		// No ";" split: either "city, region" or a bare label/string.
		if city, region, ok := strings.Cut(s, ","); ok {
			return Location{City: strings.TrimSpace(city), Region: strings.TrimSpace(region)}
		}
		return Location{Label: s}
	}

	loc := Location{Label: strings.TrimSpace(label)}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return loc
	}
	if city, region, ok := strings.Cut(rest, ","); ok {
		loc.City = strings.TrimSpace(city)
		loc.Region = strings.TrimSpace(region)
	} else {
		loc.City = rest
	}
	return loc
}

// Merge applies component-level merge rules (§4.4): for each of
// Label/City/Region, an empty string in patch clears that component, a
// non-empty value replaces it, and the zero value (as produced by an
// "unset" field in a partial update) leaves it untouched. Callers
// distinguish "absent" from "present but empty" via the has* flags.
func Merge(base Location, patch Location, hasLabel, hasCity, hasRegion bool) Location {
	out := base
	if hasLabel {
		out.Label = patch.Label
	}
	if hasCity {
		out.City = patch.City
	}
	if hasRegion {
		out.Region = patch.Region
	}
	return out
}

// MergeFromCaption merges a Location extracted from caption text (spec
// §4.4's "merges the extracted location with the existing location"):
// any non-empty field found in extracted overrides base's field; empty
// extracted fields leave base unchanged.
func MergeFromCaption(base, extracted Location) Location {
	out := base
	if extracted.Label != "" {
		out.Label = extracted.Label
	}
	if extracted.City != "" {
		out.City = extracted.City
	}
	if extracted.Region != "" {
		out.Region = extracted.Region
	}
	return out
}
