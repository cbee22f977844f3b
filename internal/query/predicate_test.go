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

package query

import (
	"testing"

	"tanuki/internal/location"
	"tanuki/internal/record"
)

func TestPredLocComponents(t *testing.T) {
	a := &record.Asset{
		Location: location.Location{Label: "Office", City: "Paris", Region: "France"},
		HasLoc:   true,
	}
	none := &record.Asset{}

	cases := []struct {
		name string
		args []string
		a    *record.Asset
		want bool
	}{
		{"label match", []string{"label", "Office"}, a, true},
		{"city mismatch", []string{"city", "London"}, a, false},
		{"region match", []string{"region", "france"}, a, true},
		{"any matches any component", []string{"any", "office"}, a, true},
		{"any empty matches unset component", []string{"any", ""}, none, true},
		{"empty arg matches empty city", []string{"city", ""}, none, true},
	}
	for _, c := range cases {
		if got := predLoc(c.a, c.args); got != c.want {
			t.Errorf("%s: predLoc(%v) = %v, want %v", c.name, c.args, got, c.want)
		}
	}
}

func TestPredIsUnknownFamily(t *testing.T) {
	a := &record.Asset{MediaType: "application/pdf"}
	if predIs(a, []string{"document"}) {
		t.Error("predIs should reject unknown families")
	}
	if predIs(a, []string{"image"}) {
		t.Error("pdf should not match is:image")
	}
}

func TestPredTagCaseInsensitive(t *testing.T) {
	a := &record.Asset{Tags: []string{"kitten"}}
	if !predTag(a, []string{"KITTEN"}) {
		t.Error("tag match should be case-insensitive")
	}
}
