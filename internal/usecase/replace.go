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
	"time"

	"tanuki/internal/assetserr"
	"tanuki/internal/blobstore"
	"tanuki/internal/record"
)

// Replace swaps the blob bytes behind an existing asset for a new
// staged file, folding the prior record's user-editable attributes
// (tags, caption, location, user date) into a freshly minted record
// and deleting the old one (§3's "Replace (which folds an old
// record into a new one)"). Because the asset id is derived from the
// blob's capture date and a monotonic id (§4.1), new content
// mints a new id; the old blob is removed only after the new one is
// safely in place (§3's transitional-window invariant).
func (e *Engine) Replace(ctx context.Context, id, stagedPath, filename, mimeHint string, modifiedAt time.Time) (*record.Asset, error) {
	unlock := e.mu.Lock(id)
	defer unlock()

	old, err := e.Records.Get(id)
	if err != nil {
		return nil, err
	}

	checksum, err := checksumOf(stagedPath)
	if err != nil {
		return nil, err
	}

	probe := e.probeMedia(ctx, stagedPath, mimeHint)

	fname := filename
	if fname == "" {
		fname = old.Filename
	}
	mtype := mimeHint
	if mtype == "" {
		mtype = old.MediaType
	}

	now := e.Clock.Now()
	idDate := firstNonZero(probe.originalDate, &modifiedAt, &now)
	newID := blobstore.NewAssetId(*idDate, fname, mtype)
	oldID := blobstore.AssetId(old.ID)

	info, err := os.Stat(stagedPath)
	if err != nil {
		return nil, assetserr.Wrap(assetserr.IO, "stat staged file", err)
	}

	if err := e.Blobs.ReplaceBlob(stagedPath, newID, oldID); err != nil {
		return nil, assetserr.Wrap(assetserr.IO, "replace blob", err)
	}

	next := &record.Asset{
		ID:           string(newID),
		Checksum:     checksum,
		Filename:     fname,
		ByteLength:   uint64(info.Size()),
		MediaType:    mtype,
		Tags:         old.Tags,
		Caption:      old.Caption,
		Location:     old.Location,
		HasLoc:       old.HasLoc,
		ImportDate:   old.ImportDate,
		OriginalDate: probe.originalDate,
		UserDate:     old.UserDate,
		Dimensions:   probe.dimensions,
		HasDimension: probe.hasDimension,
	}
	if !probe.hasDimension {
		next.Dimensions = old.Dimensions
		next.HasDimension = old.HasDimension
	}

	if err := e.Records.Delete(old.ID); err != nil {
		return nil, assetserr.Wrap(assetserr.Backend, "retract replaced record", err)
	}
	if err := e.Records.Put(next); err != nil {
		return nil, assetserr.Wrap(assetserr.Backend, "persist replacement", err)
	}
	if e.Thumbnails != nil {
		e.Thumbnails.Invalidate(old.ID)
	}
	return next, nil
}
