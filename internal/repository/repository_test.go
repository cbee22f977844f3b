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
	"testing"
	"time"

	"tanuki/internal/kvstore"
	"tanuki/internal/location"
	"tanuki/internal/record"
)

func newTestRepo() *Repository {
	return New(kvstore.NewMemory())
}

func sampleAsset(id, filename string, tags []string, when time.Time) *record.Asset {
	return &record.Asset{
		ID:         id,
		Checksum:   "sha256-" + id,
		Filename:   filename,
		MediaType:  "image/jpeg",
		Tags:       record.NormalizeTags(tags),
		ImportDate: when,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	r := newTestRepo()
	a := sampleAsset("a1", "cat.jpg", []string{"Kitten"}, time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC))
	if err := r.Put(a); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := r.Get("a1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Filename != "cat.jpg" || len(got.Tags) != 1 || got.Tags[0] != "kitten" {
		t.Errorf("got %+v", got)
	}
	byChecksum, err := r.GetByChecksum("sha256-a1")
	if err != nil || byChecksum.ID != "a1" {
		t.Errorf("GetByChecksum: %+v, %v", byChecksum, err)
	}
}

func TestQueryByTagsIntersection(t *testing.T) {
	r := newTestRepo()
	now := time.Now()
	mustPut(t, r, sampleAsset("a1", "1.jpg", []string{"kitten", "outdoor"}, now))
	mustPut(t, r, sampleAsset("a2", "2.jpg", []string{"kitten"}, now))
	mustPut(t, r, sampleAsset("a3", "3.jpg", []string{"outdoor"}, now))

	got, err := r.QueryByTags([]string{"kitten", "outdoor"})
	if err != nil {
		t.Fatalf("QueryByTags: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("QueryByTags intersection = %v", ids(got))
	}
}

func TestQueryByFilenameAndMediaType(t *testing.T) {
	r := newTestRepo()
	now := time.Now()
	mustPut(t, r, sampleAsset("a1", "dup.jpg", nil, now))
	a2 := sampleAsset("a2", "dup.jpg", nil, now)
	a2.Checksum = "sha256-a2"
	mustPut(t, r, a2)

	got, err := r.QueryByFilename("dup.jpg")
	if err != nil || len(got) != 2 {
		t.Errorf("QueryByFilename = %v, %v", ids(got), err)
	}

	byType, err := r.QueryByMediaType("image/jpeg")
	if err != nil || len(byType) != 2 {
		t.Errorf("QueryByMediaType = %v, %v", ids(byType), err)
	}
}

func TestDeleteRetractsViews(t *testing.T) {
	r := newTestRepo()
	a := sampleAsset("a1", "cat.jpg", []string{"kitten"}, time.Now())
	mustPut(t, r, a)
	if err := r.Delete("a1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Get("a1"); err != ErrNotFound {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
	got, err := r.QueryByTags([]string{"kitten"})
	if err != nil || len(got) != 0 {
		t.Errorf("QueryByTags after Delete = %v", ids(got))
	}
	tags, err := r.GetAssetTags()
	if err != nil || len(tags) != 0 {
		t.Errorf("GetAssetTags after Delete = %v", tags)
	}
}

func TestQueryByLocations(t *testing.T) {
	r := newTestRepo()
	a := sampleAsset("a1", "cat.jpg", nil, time.Now())
	a.Location = location.Location{City: "Paris", Region: "France"}
	a.HasLoc = true
	mustPut(t, r, a)
	b := sampleAsset("a2", "dog.jpg", nil, time.Now())
	mustPut(t, r, b)

	got, err := r.QueryByLocations([]location.Location{{City: "paris", Region: "FRANCE"}})
	if err != nil || len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("QueryByLocations(Paris, France) = %v, %v", ids(got), err)
	}

	got, err = r.QueryByLocations([]location.Location{{}})
	if err != nil || len(got) != 1 || got[0].ID != "a2" {
		t.Errorf("QueryByLocations(null) = %v, %v", ids(got), err)
	}

	locs, err := r.GetLocationValues()
	if err != nil || len(locs) != 1 {
		t.Errorf("GetLocationValues = %v, %v", locs, err)
	}
}

func TestQueryNewborn(t *testing.T) {
	r := newTestRepo()
	mustPut(t, r, sampleAsset("a1", "tagged.jpg", []string{"kitten"}, time.Now()))
	mustPut(t, r, sampleAsset("a2", "bare.jpg", nil, time.Now()))

	pending, err := r.QueryNewborn()
	if err != nil || len(pending) != 1 || pending[0].ID != "a2" {
		t.Errorf("QueryNewborn = %v, %v", ids(pending), err)
	}
}

func TestQueryDateRange(t *testing.T) {
	r := newTestRepo()
	mustPut(t, r, sampleAsset("old", "o.jpg", nil, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)))
	mustPut(t, r, sampleAsset("mid", "m.jpg", nil, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)))
	mustPut(t, r, sampleAsset("new", "n.jpg", nil, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))

	got, err := r.QueryDateRange(
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("QueryDateRange: %v", err)
	}
	if len(got) != 1 || got[0].ID != "mid" {
		t.Errorf("QueryDateRange = %v", ids(got))
	}
}

// TestRePutWithUnchangedFieldsPreservesViews guards against a Put
// retracting a prior version's view rows and then re-applying the
// same rows for fields the update didn't touch: if the KVStore
// mutation applied sets before deletes, the delete of an unchanged
// key would win and silently erase it from by_mimetype/by_filename/
// by_date/by_tag.
func TestRePutWithUnchangedFieldsPreservesViews(t *testing.T) {
	r := newTestRepo()
	when := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	a := sampleAsset("a1", "cat.jpg", []string{"kitten"}, when)
	mustPut(t, r, a)

	// Re-Put the same asset with only its caption changed: filename,
	// media type, best date, and the "kitten" tag are all unchanged.
	a.Caption = "a caption"
	mustPut(t, r, a)

	byType, err := r.QueryByMediaType("image/jpeg")
	if err != nil || len(byType) != 1 || byType[0].ID != "a1" {
		t.Errorf("QueryByMediaType after re-Put = %v, %v", ids(byType), err)
	}
	byName, err := r.QueryByFilename("cat.jpg")
	if err != nil || len(byName) != 1 || byName[0].ID != "a1" {
		t.Errorf("QueryByFilename after re-Put = %v, %v", ids(byName), err)
	}
	byTag, err := r.QueryByTags([]string{"kitten"})
	if err != nil || len(byTag) != 1 || byTag[0].ID != "a1" {
		t.Errorf("QueryByTags after re-Put = %v, %v", ids(byTag), err)
	}
	byDate, err := r.QueryDateRange(when.Add(-time.Hour), when.Add(time.Hour))
	if err != nil || len(byDate) != 1 || byDate[0].ID != "a1" {
		t.Errorf("QueryDateRange after re-Put = %v, %v", ids(byDate), err)
	}
	all, err := r.FetchAssets()
	if err != nil || len(all) != 1 {
		t.Errorf("FetchAssets after re-Put = %v, %v", ids(all), err)
	}
}

// TestQueryByFilenameAndMediaTypeAreCaseInsensitive guards §4.2's
// requirement that by_filename/by_mimetype are keyed lower-cased.
func TestQueryByFilenameAndMediaTypeAreCaseInsensitive(t *testing.T) {
	r := newTestRepo()
	a := sampleAsset("a1", "Cat.JPG", nil, time.Now())
	a.MediaType = "Image/JPEG"
	mustPut(t, r, a)

	byName, err := r.QueryByFilename("cat.jpg")
	if err != nil || len(byName) != 1 || byName[0].ID != "a1" {
		t.Errorf("QueryByFilename(lower) = %v, %v", ids(byName), err)
	}
	byType, err := r.QueryByMediaType("image/jpeg")
	if err != nil || len(byType) != 1 || byType[0].ID != "a1" {
		t.Errorf("QueryByMediaType(lower) = %v, %v", ids(byType), err)
	}
}

func mustPut(t *testing.T, r *Repository, a *record.Asset) {
	t.Helper()
	if err := r.Put(a); err != nil {
		t.Fatalf("Put(%s): %v", a.ID, err)
	}
}

func ids(assets []*record.Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.ID
	}
	return out
}
