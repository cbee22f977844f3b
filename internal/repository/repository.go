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
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"tanuki/internal/kvstore"
	"tanuki/internal/record"
)

// ErrNotFound is returned when an asset id has no record.
var ErrNotFound = errors.New("repository: asset not found")

// Repository is the record index of §4.2: a primary asset
// keyspace plus eagerly maintained secondary views, all written
// through a single KVStore.ViewPut so readers never see the primary
// record and a view disagree.
type Repository struct {
	kv kvstore.KeyValue
}

// New wraps a KVStore collaborator as a Repository.
func New(kv kvstore.KeyValue) *Repository {
	return &Repository{kv: kv}
}

// Get fetches a single asset by id.
func (r *Repository) Get(id string) (*record.Asset, error) {
	raw, err := r.kv.Get(assetKey(id))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var d record.DumpRecord
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("repository: corrupt record %s: %w", id, err)
	}
	a, err := record.FromDump(d)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByChecksum looks an asset up by its content checksum, used to
// detect duplicate imports (§4.3).
func (r *Repository) GetByChecksum(checksum string) (*record.Asset, error) {
	id, err := r.kv.Get(checksumKey(checksum))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.Get(id)
}

// Put inserts or replaces the asset record, updating every secondary
// view and aggregation in the same atomic mutation. The prior version
// (if any) is read first so stale view entries can be retracted.
func (r *Repository) Put(a *record.Asset) error {
	prior, err := r.Get(a.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	var m kvstore.Mutation
	if prior != nil {
		retractViews(&m, prior)
	}

	dump, err := record.ToDump(a)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(dump)
	if err != nil {
		return err
	}
	m.Set(assetKey(a.ID), string(raw))
	m.Set(checksumKey(a.Checksum), a.ID)
	applyViews(&m, a)
	adjustAggregates(&m, r, prior, a)

	return r.kv.ViewPut(m)
}

// Delete removes an asset and all of its secondary view entries.
func (r *Repository) Delete(id string) error {
	a, err := r.Get(id)
	if err != nil {
		return err
	}
	var m kvstore.Mutation
	m.Delete(assetKey(id))
	m.Delete(checksumKey(a.Checksum))
	retractViews(&m, a)
	adjustAggregates(&m, r, a, nil)
	return r.kv.ViewPut(m)
}

func applyViews(m *kvstore.Mutation, a *record.Asset) {
	m.Set(filenameKey(a.Filename, a.ID), "")
	m.Set(mimetypeKey(a.MediaType, a.ID), "")
	m.Set(dateKey(a.BestDate(), a.ID), "")
	for _, t := range a.Tags {
		m.Set(tagKey(t, a.ID), "")
	}
}

func retractViews(m *kvstore.Mutation, a *record.Asset) {
	m.Delete(filenameKey(a.Filename, a.ID))
	m.Delete(mimetypeKey(a.MediaType, a.ID))
	m.Delete(dateKey(a.BestDate(), a.ID))
	for _, t := range a.Tags {
		m.Delete(tagKey(t, a.ID))
	}
}

// adjustAggregates maintains the all_tags / all_locations / all_years
// distinct-value reductions (§4.2), incrementing/decrementing a
// reference count per value and dropping the aggregate entry once its
// count reaches zero.
func adjustAggregates(m *kvstore.Mutation, r *Repository, prior, next *record.Asset) {
	oldTags, newTags := map[string]bool{}, map[string]bool{}
	if prior != nil {
		for _, t := range prior.Tags {
			oldTags[t] = true
		}
	}
	if next != nil {
		for _, t := range next.Tags {
			newTags[t] = true
		}
	}
	for t := range newTags {
		if !oldTags[t] {
			r.bumpCount(m, allTagsKey(t), 1)
		}
	}
	for t := range oldTags {
		if !newTags[t] {
			r.bumpCount(m, allTagsKey(t), -1)
		}
	}

	oldLoc, newLoc := "", ""
	if prior != nil && prior.HasLoc {
		oldLoc = prior.Location.String()
	}
	if next != nil && next.HasLoc {
		newLoc = next.Location.String()
	}
	if oldLoc != newLoc {
		if oldLoc != "" {
			r.bumpCount(m, allLocationsKey(oldLoc), -1)
		}
		if newLoc != "" {
			r.bumpCount(m, allLocationsKey(newLoc), 1)
		}
	}

	oldYear, hasOldYear := 0, false
	if prior != nil {
		oldYear, hasOldYear = prior.BestDate().Year(), true
	}
	newYear, hasNewYear := 0, false
	if next != nil {
		newYear, hasNewYear = next.BestDate().Year(), true
	}
	if !hasOldYear || !hasNewYear || oldYear != newYear {
		if hasOldYear {
			r.bumpCount(m, allYearsKey(oldYear), -1)
		}
		if hasNewYear {
			r.bumpCount(m, allYearsKey(newYear), 1)
		}
	}
}

func (r *Repository) bumpCount(m *kvstore.Mutation, key string, delta int) {
	count := 0
	if raw, err := r.kv.Get(key); err == nil {
		count, _ = strconv.Atoi(raw)
	}
	count += delta
	if count <= 0 {
		m.Delete(key)
		return
	}
	m.Set(key, strconv.Itoa(count))
}
