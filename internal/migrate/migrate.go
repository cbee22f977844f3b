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

// Package migrate implements the versioned schema migrator of spec
// §4.11: a monotonically numbered sequence of transformations applied,
// in order, to a persisted store whose design document reports an
// older schema version than this binary understands. It is grounded
// on Perkeep's pkg/index "requiredSchemaVersion" check
// (reindex-on-mismatch at startup), adapted from "reindex everything"
// to "transform the persisted rows in place."
package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"tanuki/internal/applog"
	"tanuki/internal/assetserr"
	"tanuki/internal/blobstore"
	"tanuki/internal/kvstore"
	"tanuki/internal/location"
	"tanuki/internal/record"
	"tanuki/internal/repository"
)

// CurrentVersion is the schema version this binary understands.
// Version 1 is the legacy pre-rewrite layout described in §4.11
// (file_size/file_name/sha256 field names, [Y,M,D,h,m] date arrays,
// digest-based legacy asset ids); version 2 is the current one this
// module's repository and blobstore natively read and write.
const CurrentVersion = 2

const versionKey = "design|version"
const legacyPrefix = "legacy_asset"

// Migrator applies pending schema transformations to a store at
// startup.
type Migrator struct {
	kv    kvstore.KeyValue
	blobs *blobstore.Store
	repo  *repository.Repository
	log   applog.Logger
}

// New builds a Migrator over the given collaborators.
func New(kv kvstore.KeyValue, blobs *blobstore.Store, repo *repository.Repository, log applog.Logger) *Migrator {
	if log == nil {
		log = applog.Default
	}
	return &Migrator{kv: kv, blobs: blobs, repo: repo, log: log}
}

// PersistedVersion reads the store's current schema version, 0 if the
// store has never been versioned (a brand-new, empty store).
func (m *Migrator) PersistedVersion() (int, error) {
	raw, err := m.kv.Get(versionKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("migrate: corrupt version marker %q: %w", raw, err)
	}
	return v, nil
}

// Run brings the store up to CurrentVersion, applying every
// intervening transformation in order. A persisted version newer than
// CurrentVersion is a fatal startup error (§4.11: "Version
// downgrade is rejected").
func (m *Migrator) Run() error {
	persisted, err := m.PersistedVersion()
	if err != nil {
		return err
	}
	if persisted > CurrentVersion {
		return assetserr.Newf(assetserr.Invalid,
			"migrate: store schema version %d is newer than this binary's %d (downgrade rejected)",
			persisted, CurrentVersion)
	}

	runID := uuid.NewString()
	for v := persisted + 1; v <= CurrentVersion; v++ {
		step, ok := steps[v]
		if !ok {
			continue
		}
		m.log.Printf("migrate[%s]: applying schema version %d", runID, v)
		if err := step(m); err != nil {
			return fmt.Errorf("migrate[%s]: version %d: %w", runID, v, err)
		}
		if err := m.kv.Set(versionKey, strconv.Itoa(v)); err != nil {
			return fmt.Errorf("migrate[%s]: recording version %d: %w", runID, v, err)
		}
	}
	return nil
}

// steps maps a target version to the transformation that brings a
// store from the version immediately before it up to that version.
var steps = map[int]func(*Migrator) error{
	2: migrateLegacyRecords,
}

// legacyRecord is the pre-rewrite on-disk shape §4.11 names:
// file_size/file_name/sha256 field names, optional [Y,M,D,h,m] date
// arrays, and a digest-based legacy id instead of the time-based
// AssetId of §4.1.
type legacyRecord struct {
	ID           string          `json:"id"`
	FileSize     uint64          `json:"file_size"`
	FileName     string          `json:"file_name"`
	Sha256       string          `json:"sha256"`
	MediaType    string          `json:"media_type"`
	Tags         []string        `json:"tags"`
	Caption      string          `json:"caption"`
	Location     json.RawMessage `json:"location"`
	ImportDate   []int           `json:"import_date"`
	OriginalDate []int           `json:"original_date"`
	UserDate     []int           `json:"user_date"`
	Dimensions   *[2]uint32      `json:"dimensions"`
}

// migrateLegacyRecords renames fields, converts date arrays to
// instants, and re-mints every legacy record's AssetId from its
// digest-based id to the time-based scheme of §4.1, moving the
// underlying blob to match.
func migrateLegacyRecords(m *Migrator) error {
	keys, raws, err := m.scanLegacy()
	if err != nil {
		return err
	}
	for i, raw := range raws {
		var legacy legacyRecord
		if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
			return fmt.Errorf("migrate: decoding legacy record %s: %w", keys[i], err)
		}
		asset, oldID, err := convertLegacy(legacy)
		if err != nil {
			return fmt.Errorf("migrate: converting legacy record %s: %w", keys[i], err)
		}

		newID := blobstore.NewAssetId(asset.BestDate(), asset.Filename, asset.MediaType)
		asset.ID = string(newID)

		if err := m.blobs.RenameBlob(oldID, newID); err != nil {
			return fmt.Errorf("migrate: moving blob for %s: %w", keys[i], err)
		}
		if err := m.repo.Put(asset); err != nil {
			return fmt.Errorf("migrate: persisting migrated record %s: %w", keys[i], err)
		}
		if err := m.kv.Delete(keys[i]); err != nil {
			return fmt.Errorf("migrate: retiring legacy record %s: %w", keys[i], err)
		}
	}
	return nil
}

func (m *Migrator) scanLegacy() (keys, raws []string, err error) {
	start := legacyPrefix + "|"
	end := legacyUpperBound(start)
	it := m.kv.Find(start, end)
	for it.Next() {
		keys = append(keys, it.Key())
		raws = append(raws, it.Value())
	}
	if cerr := it.Close(); cerr != nil {
		return nil, nil, cerr
	}
	return keys, raws, nil
}

// legacyUpperBound mirrors repository's prefix-scan trick locally: the
// smallest string greater than every string with the given prefix.
func legacyUpperBound(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}

func convertLegacy(legacy legacyRecord) (*record.Asset, blobstore.AssetId, error) {
	a := &record.Asset{
		Checksum:   "sha256-" + legacy.Sha256,
		Filename:   legacy.FileName,
		ByteLength: legacy.FileSize,
		MediaType:  legacy.MediaType,
		Tags:       record.NormalizeTags(legacy.Tags),
		Caption:    legacy.Caption,
	}

	importDate, err := dateArrayToTime(legacy.ImportDate)
	if err != nil {
		return nil, "", fmt.Errorf("import_date: %w", err)
	}
	a.ImportDate = importDate

	if len(legacy.OriginalDate) > 0 {
		t, err := dateArrayToTime(legacy.OriginalDate)
		if err != nil {
			return nil, "", fmt.Errorf("original_date: %w", err)
		}
		a.OriginalDate = &t
	}
	if len(legacy.UserDate) > 0 {
		t, err := dateArrayToTime(legacy.UserDate)
		if err != nil {
			return nil, "", fmt.Errorf("user_date: %w", err)
		}
		a.UserDate = &t
	}
	if legacy.Dimensions != nil {
		a.Dimensions = record.Dimensions{Width: legacy.Dimensions[0], Height: legacy.Dimensions[1]}
		a.HasDimension = true
	}
	if len(legacy.Location) > 0 && string(legacy.Location) != "null" {
		loc, err := convertLegacyLocation(legacy.Location)
		if err != nil {
			return nil, "", fmt.Errorf("location: %w", err)
		}
		a.Location = loc
		a.HasLoc = !loc.IsZero()
	}
	return a, blobstore.AssetId(legacy.ID), nil
}

// dateArrayToTime converts the legacy [Y,M,D,h,m] (and optionally
// [Y,M,D,h,m,s]) representation into a UTC instant (§4.11:
// "converting date arrays [Y,M,D,h,m] to instants").
func dateArrayToTime(parts []int) (time.Time, error) {
	if len(parts) < 5 {
		return time.Time{}, fmt.Errorf("expected at least 5 date-array elements, got %d", len(parts))
	}
	sec := 0
	if len(parts) >= 6 {
		sec = parts[5]
	}
	return time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], sec, 0, time.UTC), nil
}

func convertLegacyLocation(raw json.RawMessage) (location.Location, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return location.Parse(s), nil
	}
	var obj struct {
		L *string `json:"l"`
		C *string `json:"c"`
		R *string `json:"r"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return location.Location{}, err
	}
	var l location.Location
	if obj.L != nil {
		l.Label = *obj.L
	}
	if obj.C != nil {
		l.City = *obj.C
	}
	if obj.R != nil {
		l.Region = *obj.R
	}
	return l, nil
}
