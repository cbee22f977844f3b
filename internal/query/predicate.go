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

package query

import (
	"strings"
	"time"

	"tanuki/internal/record"
)

// predicateFunc matches a single asset against a predicate's
// arguments. Matching is case-insensitive throughout (§4.6),
// mirroring Perkeep's keyword.Predicate interface (pkg/search
// predicate.go) but evaluating directly instead of building a
// Constraint for a backend query.
type predicateFunc func(a *record.Asset, args []string) bool

var predicates = map[string]predicateFunc{
	"tag":      predTag,
	"is":       predIs,
	"format":   predFormat,
	"filename": predFilename,
	"loc":      predLoc,
	"after":    predAfter,
	"before":   predBefore,
}

func predTag(a *record.Asset, args []string) bool {
	if len(args) == 0 {
		return false
	}
	want := strings.ToLower(args[0])
	for _, t := range a.Tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

func mimeFamily(mt string) string {
	family, _, _ := strings.Cut(mt, "/")
	return family
}

func predIs(a *record.Asset, args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch strings.ToLower(args[0]) {
	case "image", "video", "audio":
		return strings.EqualFold(mimeFamily(a.MediaType), args[0])
	default:
		return false
	}
}

func predFormat(a *record.Asset, args []string) bool {
	if len(args) == 0 {
		return false
	}
	_, subtype, ok := strings.Cut(a.MediaType, "/")
	if !ok {
		return false
	}
	return strings.EqualFold(subtype, args[0])
}

func predFilename(a *record.Asset, args []string) bool {
	if len(args) == 0 {
		return false
	}
	// Exact, case-sensitive equality per §4.6.
	return a.Filename == args[0]
}

// predLoc implements loc:X, loc:label:X, loc:city:X, loc:region:X, and
// loc:any:X. A single argument is equality-of-any-component, per
// §9's resolution of the loc:X ambiguity (not substring-of-concatenation).
func predLoc(a *record.Asset, args []string) bool {
	switch len(args) {
	case 1:
		return locComponentEquals(a, "any", args[0])
	case 2:
		return locComponentEquals(a, strings.ToLower(args[0]), args[1])
	default:
		return false
	}
}

func locComponentEquals(a *record.Asset, component, want string) bool {
	loc := a.Location
	switch component {
	case "label":
		return strings.EqualFold(loc.Label, want)
	case "city":
		return strings.EqualFold(loc.City, want)
	case "region":
		return strings.EqualFold(loc.Region, want)
	case "any":
		if want == "" {
			return loc.Label == "" || loc.City == "" || loc.Region == ""
		}
		return strings.EqualFold(loc.Label, want) ||
			strings.EqualFold(loc.City, want) ||
			strings.EqualFold(loc.Region, want)
	default:
		return false
	}
}

// dateLayouts are tried in order for after:/before: arguments (spec
// §4.6: "YYYY-MM-DD[Thh:mm:ss]").
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseQueryDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func predAfter(a *record.Asset, args []string) bool {
	if len(args) == 0 {
		return false
	}
	t, ok := parseQueryDate(args[0])
	if !ok {
		return false
	}
	return a.BestDate().After(t) || a.BestDate().Equal(t)
}

func predBefore(a *record.Asset, args []string) bool {
	if len(args) == 0 {
		return false
	}
	t, ok := parseQueryDate(args[0])
	if !ok {
		return false
	}
	return a.BestDate().Before(t)
}
