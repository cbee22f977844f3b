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
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"time"

	"tanuki/internal/assetserr"
	"tanuki/internal/blobstore"
	"tanuki/internal/record"
	"tanuki/internal/repository"
)

// checksumOf hashes a staged file's bytes into the "sha256-<hex>" form
// §4.3 step 1 requires.
func checksumOf(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", assetserr.Wrap(assetserr.IO, "open staged file", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", assetserr.Wrap(assetserr.IO, "hash staged file", err)
	}
	return "sha256-" + hex.EncodeToString(h.Sum(nil)), nil
}

// Import runs §4.3's algorithm: checksum dedup, media probing,
// id minting, blob store, and record persistence, rolling back the
// blob on any failure after it is stored. modifiedAt is the staged
// file's filesystem mtime, used as a date fallback.
func (e *Engine) Import(ctx context.Context, stagedPath, filename, mimeHint string, modifiedAt time.Time) (*record.Asset, error) {
	checksum, err := checksumOf(stagedPath)
	if err != nil {
		return nil, err
	}

	unlock := e.mu.Lock("checksum:" + checksum)
	defer unlock()

	if existing, err := e.Records.GetByChecksum(checksum); err == nil {
		// Idempotent import (§4.3 step 2): store the blob only
		// if it's somehow missing, but never persist a second record.
		if err := e.ensureBlobPresent(stagedPath, existing); err != nil {
			return nil, err
		}
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, assetserr.Wrap(assetserr.Backend, "checksum lookup", err)
	}

	probe := e.probeMedia(ctx, stagedPath, mimeHint)

	now := e.Clock.Now()
	idDate := firstNonZero(probe.originalDate, &modifiedAt, &now)

	info, err := os.Stat(stagedPath)
	if err != nil {
		return nil, assetserr.Wrap(assetserr.IO, "stat staged file", err)
	}

	id := blobstore.NewAssetId(*idDate, filename, mimeHint)

	if err := e.Blobs.StoreBlob(stagedPath, id); err != nil {
		return nil, assetserr.Wrap(assetserr.IO, "store blob", err)
	}

	a := &record.Asset{
		ID:           string(id),
		Checksum:     checksum,
		Filename:     filename,
		ByteLength:   uint64(info.Size()),
		MediaType:    mimeHint,
		ImportDate:   now,
		OriginalDate: probe.originalDate,
		Dimensions:   probe.dimensions,
		HasDimension: probe.hasDimension,
	}
	if probe.location != nil {
		a.Location = *probe.location
		a.HasLoc = !a.Location.IsZero()
	}

	if err := e.Records.Put(a); err != nil {
		e.Blobs.DeleteBlob(id)
		return nil, assetserr.Wrap(assetserr.Backend, "persist record", err)
	}
	return a, nil
}

// ensureBlobPresent stores stagedPath under existing's id if that
// blob is missing, self-healing a prior import that died between
// store_blob and record persistence.
func (e *Engine) ensureBlobPresent(stagedPath string, existing *record.Asset) error {
	id := blobstore.AssetId(existing.ID)
	present, err := e.Blobs.Exists(id)
	if err != nil {
		return assetserr.Wrap(assetserr.IO, "check existing blob", err)
	}
	if present {
		return nil
	}
	if err := e.Blobs.StoreBlob(stagedPath, id); err != nil {
		return assetserr.Wrap(assetserr.IO, "store blob", err)
	}
	return nil
}

// firstNonZero returns the first non-nil time pointer among its
// arguments, falling back to the last one (§4.3 step 3's
// "preferred date ... first non-null of probed original date,
// modified instant, now").
func firstNonZero(ts ...*time.Time) *time.Time {
	for _, t := range ts {
		if t != nil {
			return t
		}
	}
	return ts[len(ts)-1]
}
