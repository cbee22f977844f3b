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

package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const nominatimParisResponse = `{
  "address": {
    "city": "Paris",
    "state": "Ile-de-France",
    "country": "France"
  }
}`

func TestDecodeNominatimResponse(t *testing.T) {
	loc, err := decodeNominatimResponse(strings.NewReader(nominatimParisResponse))
	if err != nil {
		t.Fatalf("decodeNominatimResponse: %v", err)
	}
	if loc.City != "Paris" || loc.Region != "Ile-de-France" {
		t.Errorf("got %+v", loc)
	}
}

func TestDecodeNominatimResponseFallsBackToTown(t *testing.T) {
	loc, err := decodeNominatimResponse(strings.NewReader(`{"address":{"town":"Pleasanton","state":"CA"}}`))
	if err != nil {
		t.Fatalf("decodeNominatimResponse: %v", err)
	}
	if loc.City != "Pleasanton" || loc.Region != "CA" {
		t.Errorf("got %+v", loc)
	}
}

func TestNominatimResolveUsesCache(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(nominatimParisResponse))
	}))
	defer srv.Close()

	n := NewNominatim()
	n.Client = srv.Client()
	// Point lookups at the test server instead of the real API.
	n.lookupOverride = srv.URL

	for i := 0; i < 3; i++ {
		loc, err := n.Resolve(context.Background(), 48.8566, 2.3522)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if loc.City != "Paris" {
			t.Errorf("Resolve = %+v", loc)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 HTTP call with caching, got %d", calls)
	}
}
