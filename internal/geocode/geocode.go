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

// Package geocode implements the LocationLookup collaborator: resolving
// GPS coordinates pulled from EXIF into a city/region. Perkeep's
// original version of this package did forward geocoding (address to
// lat/long rectangle, for Google and OpenStreetMap); this is the
// reverse direction (lat/long to place name), kept on the same
// cache-plus-singleflight shape and the same OpenStreetMap Nominatim
// backend.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/sync/singleflight"

	"tanuki/internal/location"
)

var openstreetmapUserAgent = "tanuki-media-repository (reverse geocoding client)"

// Resolver is the LocationLookup collaborator of §6:
// resolve(gps) -> {city?, region?}. A timeout or HTTP failure is
// returned to the caller, who is expected to treat it as "unknown"
// (§7) rather than fail the whole import.
type Resolver interface {
	Resolve(ctx context.Context, lat, long float64) (location.Location, error)
}

// Nominatim resolves coordinates against the OpenStreetMap Nominatim
// reverse-geocoding endpoint, the same public service Perkeep's
// forward geocoder falls back to when no Google API key is configured.
type Nominatim struct {
	mu    sync.RWMutex
	cache map[string]location.Location
	sf    singleflight.Group

	// Client is the HTTP client used for lookups; defaults to
	// http.DefaultClient.
	Client *http.Client

	// lookupOverride replaces the Nominatim base URL in tests, so
	// lookups hit an httptest.Server instead of the real API.
	lookupOverride string
}

func NewNominatim() *Nominatim {
	return &Nominatim{cache: map[string]location.Location{}}
}

func cacheKey(lat, long float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, long)
}

func (n *Nominatim) Resolve(ctx context.Context, lat, long float64) (location.Location, error) {
	key := cacheKey(lat, long)
	n.mu.RLock()
	loc, ok := n.cache[key]
	n.mu.RUnlock()
	if ok {
		return loc, nil
	}

	loci, err, _ := n.sf.Do(key, func() (interface{}, error) {
		loc, err := n.lookup(ctx, lat, long)
		if err != nil {
			log.Printf("geocode: reverse lookup %s failed: %v", key, err)
			return location.Location{}, err
		}
		n.mu.Lock()
		n.cache[key] = loc
		n.mu.Unlock()
		log.Printf("geocode: reverse lookup %s = %+v", key, loc)
		return loc, nil
	})
	if err != nil {
		return location.Location{}, err
	}
	return loci.(location.Location), nil
}

func (n *Nominatim) lookup(ctx context.Context, lat, long float64) (location.Location, error) {
	base := n.lookupOverride
	if base == "" {
		base = "https://nominatim.openstreetmap.org/reverse"
	}
	urlStr := fmt.Sprintf(
		"%s?format=json&lat=%s&lon=%s&zoom=10",
		base,
		url.QueryEscape(fmt.Sprintf("%f", lat)), url.QueryEscape(fmt.Sprintf("%f", long)),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return location.Location{}, err
	}
	// Nominatim Usage Policy requires a user agent:
	// https://operations.osmfoundation.org/policies/nominatim/
	req.Header.Set("User-Agent", openstreetmapUserAgent)

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return location.Location{}, err
	}
	defer res.Body.Close()
	return decodeNominatimResponse(res.Body)
}

type nominatimResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
	} `json:"address"`
}

func decodeNominatimResponse(r io.Reader) (location.Location, error) {
	var resp nominatimResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return location.Location{}, err
	}
	city := resp.Address.City
	if city == "" {
		city = resp.Address.Town
	}
	if city == "" {
		city = resp.Address.Village
	}
	return location.Location{City: city, Region: resp.Address.State}, nil
}
