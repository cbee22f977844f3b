/*
Copyright 2011 Google Inc.

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

package repository

import (
	"strconv"
	"strings"
	"time"

	"tanuki/internal/location"
	"tanuki/internal/record"
)

// prefixScan walks every key with the given prefix, calling fn with
// the asset id recovered from the key's final "|"-delimited component.
func (r *Repository) prefixScan(prefix string, fn func(id string) error) error {
	it := r.kv.Find(prefix, prefixUpperBound(prefix))
	defer it.Close()
	for it.Next() {
		if err := fn(lastComponent(it.Key())); err != nil {
			return err
		}
	}
	return nil
}

// prefixUpperBound returns the smallest string greater than every
// string with the given prefix, so Find(prefix, bound) walks exactly
// the keys sharing that prefix.
func prefixUpperBound(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return "" // prefix is all 0xff bytes: unbounded above
}

func (r *Repository) resolveAll(ids []string) ([]*record.Asset, error) {
	out := make([]*record.Asset, 0, len(ids))
	for _, id := range ids {
		a, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// QueryByTags returns assets carrying every one of the given tags
// (§4.2's by_tag view), intersected across tags.
func (r *Repository) QueryByTags(tags []string) ([]*record.Asset, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	var sets []map[string]bool
	for _, t := range tags {
		set := map[string]bool{}
		if err := r.prefixScan(tagPrefix(strings.ToLower(t)), func(id string) error {
			set[id] = true
			return nil
		}); err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	ids := intersect(sets)
	return r.resolveAll(ids)
}

// QueryNoTags returns assets with no tags at all, the "tags == [null]"
// convention of §4.2 ("If tags == [null], return records with no
// tags at all").
func (r *Repository) QueryNoTags() ([]*record.Asset, error) {
	all, err := r.FetchAssets()
	if err != nil {
		return nil, err
	}
	var out []*record.Asset
	for _, a := range all {
		if len(a.Tags) == 0 {
			out = append(out, a)
		}
	}
	return out, nil
}

func intersect(sets []map[string]bool) []string {
	if len(sets) == 0 {
		return nil
	}
	var ids []string
	for id := range sets[0] {
		inAll := true
		for _, s := range sets[1:] {
			if !s[id] {
				inAll = false
				break
			}
		}
		if inAll {
			ids = append(ids, id)
		}
	}
	return ids
}

// QueryByLocations returns the union of assets whose location exactly
// equals (case-insensitively) any of locs, or, for the singleton null
// convention (a single zero Location), every asset with no location at
// all (§4.2's query_by_locations). Matching is done by full scan; the
// repository keeps no location view, since an index of single
// components could confirm a city matches but says nothing about
// whether the asset's label/region are also empty, which full
// three-field equality requires.
func (r *Repository) QueryByLocations(locs []location.Location) ([]*record.Asset, error) {
	if len(locs) == 0 {
		return nil, nil
	}
	all, err := r.FetchAssets()
	if err != nil {
		return nil, err
	}
	if len(locs) == 1 && locs[0].IsZero() {
		var out []*record.Asset
		for _, a := range all {
			if !a.HasLoc {
				out = append(out, a)
			}
		}
		return out, nil
	}
	var out []*record.Asset
	for _, a := range all {
		if !a.HasLoc {
			continue
		}
		for _, want := range locs {
			if a.Location.Equal(want) {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

// QueryByMediaType returns assets whose media type matches, compared
// case-insensitively.
func (r *Repository) QueryByMediaType(mediaType string) ([]*record.Asset, error) {
	var ids []string
	if err := r.prefixScan(mimetypePrefix(mediaType), func(id string) error {
		ids = append(ids, id)
		return nil
	}); err != nil {
		return nil, err
	}
	return r.resolveAll(ids)
}

// QueryByFilename returns assets with an exact filename match.
func (r *Repository) QueryByFilename(filename string) ([]*record.Asset, error) {
	var ids []string
	if err := r.prefixScan(filenamePrefix(filename), func(id string) error {
		ids = append(ids, id)
		return nil
	}); err != nil {
		return nil, err
	}
	return r.resolveAll(ids)
}

// QueryDateRange returns assets whose best date falls in [from, to),
// walking the by_date view in most-recent-first order. The reversed
// timestamp encoding makes the index scan a superset of the answer at
// the boundaries, so results are re-checked against the exact range
// before being returned.
func (r *Repository) QueryDateRange(from, to time.Time) ([]*record.Asset, error) {
	start := prefixByDate + "|" + reverseTimeString(to.UTC().Format(time.RFC3339))
	end := prefixUpperBound(prefixByDate + "|" + reverseTimeString(from.UTC().Format(time.RFC3339)))
	var ids []string
	it := r.kv.Find(start, end)
	defer it.Close()
	for it.Next() {
		ids = append(ids, lastComponent(it.Key()))
	}
	assets, err := r.resolveAll(ids)
	if err != nil {
		return nil, err
	}
	out := assets[:0]
	for _, a := range assets {
		d := a.BestDate()
		if !d.Before(from) && d.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

var farFuture = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

// QueryAfterDate returns assets whose best date is at or after after
// (§4.8's open-ended range selector).
func (r *Repository) QueryAfterDate(after time.Time) ([]*record.Asset, error) {
	return r.QueryDateRange(after, farFuture)
}

// QueryBeforeDate returns assets whose best date is strictly before
// before.
func (r *Repository) QueryBeforeDate(before time.Time) ([]*record.Asset, error) {
	return r.QueryDateRange(time.Time{}, before)
}

// QueryNewborn returns assets imported but never reviewed: no tags,
// no caption, and no location (§4.9's "pending" definition).
func (r *Repository) QueryNewborn() ([]*record.Asset, error) {
	all, err := r.FetchAssets()
	if err != nil {
		return nil, err
	}
	var out []*record.Asset
	for _, a := range all {
		if len(a.Tags) == 0 && a.Caption == "" && !a.HasLoc {
			out = append(out, a)
		}
	}
	return out, nil
}

// FetchAssets returns every asset in the repository, most recently
// dated first.
func (r *Repository) FetchAssets() ([]*record.Asset, error) {
	var ids []string
	if err := r.prefixScan(prefixByDate+"|", func(id string) error {
		ids = append(ids, id)
		return nil
	}); err != nil {
		return nil, err
	}
	return r.resolveAll(ids)
}

// FetchAssetsPage returns up to batch assets in primary-key (id) order
// strictly after cursor, plus the cursor to resume from on the next
// call, or "" once the final page has been returned. This is the
// batched-cursor form of fetch_assets §4.2 requires for Dump.
func (r *Repository) FetchAssetsPage(cursor string, batch int) ([]*record.Asset, string, error) {
	start := prefixAsset + "|"
	if cursor != "" {
		start = assetKey(cursor) + "\x00"
	}
	end := prefixUpperBound(prefixAsset + "|")

	var ids []string
	it := r.kv.Find(start, end)
	for it.Next() {
		ids = append(ids, lastComponent(it.Key()))
		if len(ids) >= batch {
			break
		}
	}
	if err := it.Close(); err != nil {
		return nil, "", err
	}

	assets, err := r.resolveAll(ids)
	if err != nil {
		return nil, "", err
	}
	next := ""
	if len(assets) == batch {
		next = assets[len(assets)-1].ID
	}
	return assets, next, nil
}

// StoreAssets writes a batch of already-constructed records directly,
// preserving each one's existing AssetId rather than minting a new
// one, as Load (§4.10) requires when restoring a dump.
func (r *Repository) StoreAssets(assets []*record.Asset) error {
	for _, a := range assets {
		if err := r.Put(a); err != nil {
			return err
		}
	}
	return nil
}

// GetAssetTags returns every distinct tag currently in use, with its
// reference count (§4.2's all_tags reduction).
func (r *Repository) GetAssetTags() (map[string]int, error) {
	return scanCounts(r, prefixAllTags+"|")
}

// GetLocationValues returns every distinct canonical location string
// currently in use, with its reference count (all_locations).
func (r *Repository) GetLocationValues() (map[string]int, error) {
	return scanCounts(r, prefixAllLocs+"|")
}

// GetYears returns every year with at least one asset, with its count.
func (r *Repository) GetYears() (map[string]int, error) {
	return scanCounts(r, prefixAllYears+"|")
}

func scanCounts(r *Repository, prefix string) (map[string]int, error) {
	out := map[string]int{}
	it := r.kv.Find(prefix, prefixUpperBound(prefix))
	defer it.Close()
	for it.Next() {
		n, _ := strconv.Atoi(it.Value())
		out[strings.TrimPrefix(it.Key(), prefix)] = n
	}
	return out, nil
}
