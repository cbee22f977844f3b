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
	"time"

	"tanuki/internal/location"
	"tanuki/internal/record"
)

func mustParse(t *testing.T, q string) Expr {
	t.Helper()
	e, err := Parse(q)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", q, err)
	}
	return e
}

func TestParseErrors(t *testing.T) {
	for _, q := range []string{
		"",
		"tag:",
		"(tag:kitten",
		"tag:kitten)",
		"tag:kitten and",
		"and tag:kitten",
	} {
		if _, err := Parse(q); err == nil {
			t.Errorf("Parse(%q): expected error, got none", q)
		}
	}
}

// End-to-end scenario from the spec's worked example: an asset tagged
// kitten+puppy, with location Paris, France.
func sampleAsset() *record.Asset {
	return &record.Asset{
		ID:        "asset1",
		Filename:  "cat.jpg",
		MediaType: "image/jpeg",
		Tags:      []string{"kitten", "puppy"},
		Location:  location.Location{City: "Paris", Region: "France"},
		HasLoc:    true,
		ImportDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEvalScenario(t *testing.T) {
	a := sampleAsset()

	tests := []struct {
		q    string
		want bool
	}{
		{"tag:kitten tag:puppy", true},
		{"tag:kitten and tag:puppy", true},
		{"tag:kitten tag:fluffy", false},
		{"(tag:kitten or tag:fluffy) and is:image", true},
		{"loc:city:paris loc:region:france", true},
		{"loc:beach", false},
		{"-tag:fluffy", true},
		{"-tag:kitten", false},
		{"is:video", false},
		{"format:jpeg", true},
		{"filename:cat.jpg", true},
		{"filename:Cat.jpg", false},
		{`loc:any:"paris"`, true},
	}
	for _, tt := range tests {
		e := mustParse(t, tt.q)
		if got := e.Eval(a); got != tt.want {
			t.Errorf("Eval(%q) = %v; want %v", tt.q, got, tt.want)
		}
	}
}

func TestDateRange(t *testing.T) {
	a := sampleAsset()
	for _, tt := range []struct {
		q    string
		want bool
	}{
		{"after:2019-01-01", true},
		{"after:2021-01-01", false},
		{"before:2021-01-01", true},
		{"before:2019-01-01", false},
	} {
		e := mustParse(t, tt.q)
		if got := e.Eval(a); got != tt.want {
			t.Errorf("Eval(%q) = %v; want %v", tt.q, got, tt.want)
		}
	}
}
