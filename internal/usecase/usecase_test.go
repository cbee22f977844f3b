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

package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tanuki/internal/applog"
	"tanuki/internal/blobstore"
	"tanuki/internal/clock"
	"tanuki/internal/kvstore"
	"tanuki/internal/location"
	"tanuki/internal/mediaprobe"
	"tanuki/internal/record"
	"tanuki/internal/repository"
)

// stubProber returns a fixed mediaprobe.Result for every file, letting
// tests control the probed original date/dimensions deterministically.
// Unused by the tests below directly but kept available for tests that
// need to exercise Import's probe-degrades-silently path.
type stubProber struct {
	result mediaprobe.Result
	err    error
}

func (s stubProber) Probe(path, mimeType string) (mediaprobe.Result, error) {
	return s.result, s.err
}

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	blobs, err := blobstore.New(dir)
	require.NoError(t, err)
	repo := repository.New(kvstore.NewMemory())
	fixed := clock.Fixed(time.Date(2020, 3, 15, 12, 0, 0, 0, time.UTC))
	e := New(blobs, repo, nil, nil, nil, fixed, applog.Discard{})
	return e, dir
}

func writeStagedFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
	return p
}

func TestImportStoresBlobAndRecord(t *testing.T) {
	e, dir := newTestEngine(t)
	staged := writeStagedFile(t, dir, "cat.jpg", "hello world")

	a, err := e.Import(context.Background(), staged, "cat.jpg", "image/jpeg", time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotEmpty(t, a.Checksum)
	assert.Equal(t, "cat.jpg", a.Filename)
	assert.Equal(t, "image/jpeg", a.MediaType)

	ok, err := e.Blobs.Exists(blobstore.AssetId(a.ID))
	require.NoError(t, err)
	assert.True(t, ok, "blob not stored")

	got, err := e.Records.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Checksum, got.Checksum)
}

func TestImportIsIdempotentByChecksum(t *testing.T) {
	e, dir := newTestEngine(t)
	staged := writeStagedFile(t, dir, "dup.jpg", "same bytes")

	first, err := e.Import(context.Background(), staged, "dup.jpg", "image/jpeg", time.Now())
	require.NoError(t, err)
	second, err := e.Import(context.Background(), staged, "dup.jpg", "image/jpeg", time.Now())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "re-importing identical bytes should not mint a new id")

	all, err := e.Records.FetchAssets()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateAppliesThreeValuedMerge(t *testing.T) {
	e, dir := newTestEngine(t)
	staged := writeStagedFile(t, dir, "x.jpg", "data")
	a, err := e.Import(context.Background(), staged, "x.jpg", "image/jpeg", time.Now())
	require.NoError(t, err)

	caption := "a photo #beach @\"Santa Cruz\""
	updated, err := e.Update(a.ID, AssetInput{Caption: &caption})
	require.NoError(t, err)
	assert.Equal(t, caption, updated.Caption)
	assert.Contains(t, updated.Tags, "beach")

	emptyTags := []string{}
	cleared, err := e.Update(a.ID, AssetInput{Tags: &emptyTags})
	require.NoError(t, err)
	assert.Empty(t, cleared.Tags, "explicit empty tag list should clear all tags")
	assert.Equal(t, caption, cleared.Caption, "caption should be untouched by an update that didn't mention it")
}

func TestReplaceRetainsUserAttributesAndMintsNewID(t *testing.T) {
	e, dir := newTestEngine(t)
	staged := writeStagedFile(t, dir, "orig.jpg", "original bytes")
	a, err := e.Import(context.Background(), staged, "orig.jpg", "image/jpeg", time.Date(2018, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	tags := []string{"vacation"}
	_, err = e.Update(a.ID, AssetInput{Tags: &tags})
	require.NoError(t, err)

	newStaged := writeStagedFile(t, dir, "orig2.jpg", "replacement bytes, different length")
	replaced, err := e.Replace(context.Background(), a.ID, newStaged, "orig.jpg", "image/jpeg", time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, replaced.ID, "Replace should mint a fresh id")
	assert.Equal(t, []string{"vacation"}, replaced.Tags)

	_, err = e.Records.Get(a.ID)
	assert.Error(t, err, "old record should be retracted after Replace")

	ok, _ := e.Blobs.Exists(blobstore.AssetId(a.ID))
	assert.False(t, ok, "old blob should be removed after Replace")
}

func TestEditReportsOnlyActuallyModifiedAssets(t *testing.T) {
	e, dir := newTestEngine(t)
	staged := writeStagedFile(t, dir, "a.jpg", "bytes a")
	a, err := e.Import(context.Background(), staged, "a.jpg", "image/jpeg", time.Now())
	require.NoError(t, err)
	staged2 := writeStagedFile(t, dir, "b.jpg", "bytes b")
	b, err := e.Import(context.Background(), staged2, "b.jpg", "image/jpeg", time.Now())
	require.NoError(t, err)
	tags := []string{"dog"}
	_, err = e.Update(b.ID, AssetInput{Tags: &tags})
	require.NoError(t, err)

	n, err := e.Edit([]string{a.ID, b.ID}, []EditOp{TagAdd("dog")})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only %s should actually change", a.ID)

	gotA, err := e.Records.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"dog"}, gotA.Tags)
}

func TestSearchByTagsThenFilterByMediaType(t *testing.T) {
	e, dir := newTestEngine(t)
	staged1 := writeStagedFile(t, dir, "p1.jpg", "jpeg bytes")
	p1, err := e.Import(context.Background(), staged1, "p1.jpg", "image/jpeg", time.Now())
	require.NoError(t, err)
	staged2 := writeStagedFile(t, dir, "p2.png", "png bytes")
	p2, err := e.Import(context.Background(), staged2, "p2.png", "image/png", time.Now())
	require.NoError(t, err)
	tags := []string{"trip"}
	_, err = e.Update(p1.ID, AssetInput{Tags: &tags})
	require.NoError(t, err)
	_, err = e.Update(p2.ID, AssetInput{Tags: &tags})
	require.NoError(t, err)

	results, err := e.Search(SearchParams{Tags: []string{"trip"}, MediaType: "image/jpeg"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, p1.ID, results[0].ID)

	n, err := e.Count(SearchParams{Tags: []string{"trip"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFindPendingFiltersNewborn(t *testing.T) {
	e, dir := newTestEngine(t)
	staged := writeStagedFile(t, dir, "n.jpg", "newborn bytes")
	a, err := e.Import(context.Background(), staged, "n.jpg", "image/jpeg", time.Now())
	require.NoError(t, err)
	staged2 := writeStagedFile(t, dir, "t.jpg", "tagged bytes")
	tagged, err := e.Import(context.Background(), staged2, "t.jpg", "image/jpeg", time.Now())
	require.NoError(t, err)
	tags := []string{"done"}
	_, err = e.Update(tagged.ID, AssetInput{Tags: &tags})
	require.NoError(t, err)

	pending, err := e.FindPending(nil)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].ID)
}

func TestDumpLoadRoundTrip(t *testing.T) {
	e, dir := newTestEngine(t)
	staged := writeStagedFile(t, dir, "r.jpg", "roundtrip bytes")
	a, err := e.Import(context.Background(), staged, "r.jpg", "image/jpeg", time.Now())
	require.NoError(t, err)
	loc := location.Location{City: "Lisbon"}
	_, err = e.Update(a.ID, AssetInput{Location: &LocationInput{City: &loc.City}})
	require.NoError(t, err)

	var dumped []record.DumpRecord
	err = e.Dump(2, func(d record.DumpRecord) error {
		dumped = append(dumped, d)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, dumped, 1)

	// Loading into a brand-new engine must preserve the original id.
	e2, _ := newTestEngine(t)
	n, err := e2.Load(dumped)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := e2.Records.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.Checksum, got.Checksum)
}

func TestGetAssetTagsAndYears(t *testing.T) {
	e, dir := newTestEngine(t)
	staged := writeStagedFile(t, dir, "y.jpg", "year bytes")
	a, err := e.Import(context.Background(), staged, "y.jpg", "image/jpeg", time.Date(2022, 7, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	tags := []string{"fireworks"}
	_, err = e.Update(a.ID, AssetInput{Tags: &tags})
	require.NoError(t, err)

	allTags, err := e.GetAssetTags()
	require.NoError(t, err)
	assert.Equal(t, 1, allTags["fireworks"])

	years, err := e.GetYears()
	require.NoError(t, err)
	// No probed or user date, so the year is the import date's (the
	// fixed clock's 2020), not the modified instant's.
	assert.Equal(t, 1, years["2020"])
}
