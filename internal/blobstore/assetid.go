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

// Package blobstore implements the content-addressed blob layout and
// AssetId scheme of §4.1, grounded on Perkeep's blob.Ref
// value-type design (pkg/blob/ref.go) but keyed on a time-based path
// instead of a content digest, since the asset's checksum is tracked
// separately (§3) and the id must sort usefully by capture time.
package blobstore

import (
	cryptorand "crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	mathrand "math/rand"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// AssetId is the opaque, stable identifier described in §4.1 and
// §6: the base64 encoding (standard alphabet, padding retained) of the
// lower-cased, UTF-8 relative path "YYYY/MM/DD/HHMM/<ULID><ext>".
type AssetId string

// canonicalExtensionByMIME maps a MIME family/subtype to the
// extension the blob store appends when the supplied filename lacks
// one, or when it differs from the family's canonical extension (the
// canonical one is appended, never substituted, per §4.1).
var canonicalExtensionByMIME = map[string]string{
	"image/jpeg":       ".jpg",
	"image/png":        ".png",
	"image/gif":        ".gif",
	"image/webp":       ".webp",
	"image/heic":       ".heic",
	"image/tiff":       ".tiff",
	"video/mp4":        ".mp4",
	"video/quicktime":  ".mov",
	"video/webm":       ".webm",
	"video/x-matroska": ".mkv",
	"audio/mpeg":       ".mp3",
	"audio/flac":       ".flac",
	"audio/wav":        ".wav",
	"application/pdf":  ".pdf",
}

// floorQuarterHour rounds d's hour/minute down to the nearest 15
// minutes, as required by §4.1 ("10:50 → 10:45, 08:10 → 08:00").
func floorQuarterHour(d time.Time) (hour, minute int) {
	return d.Hour(), (d.Minute() / 15) * 15
}

// guardedEntropy serializes access to a *ulid.MonotonicEntropy, which
// is itself not safe for concurrent use.
type guardedEntropy struct {
	mu  sync.Mutex
	ent *ulid.MonotonicEntropy
}

func (g *guardedEntropy) Read(p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ent.Read(p)
}

// entropySource is the per-process ULID entropy source. ULID's
// monotonic reader requires a seeded math/rand source; ours is seeded
// from crypto/rand once at init, matching the oklog/ulid docs' advice
// for server-side generation.
var entropySource = func() *guardedEntropy {
	var seed [8]byte
	var seedInt int64
	if _, err := cryptorand.Read(seed[:]); err != nil {
		// crypto/rand failing is exceptional; fall back to a
		// time-derived seed rather than a fixed constant.
		seedInt = time.Now().UnixNano()
	} else {
		for _, b := range seed {
			seedInt = seedInt<<8 | int64(b)
		}
	}
	return &guardedEntropy{ent: ulid.Monotonic(mathrand.New(mathrand.NewSource(seedInt)), 0)}
}()

// extensionOf returns the lower-cased extension of f (including the
// leading dot), or "" if f has none.
func extensionOf(f string) string {
	ext := path.Ext(f)
	return strings.ToLower(ext)
}

// DerivePath builds the blob store's relative path for a file named f,
// of MIME type mimeType, captured/imported at instant d.
func DerivePath(d time.Time, f, mimeType string) string {
	d = d.UTC()
	hour, minute := floorQuarterHour(d)
	hhmm := fmt.Sprintf("%02d%02d", hour, minute)

	id := ulid.MustNew(ulid.Timestamp(d), entropySource)

	ext := extensionOf(f)
	canonical := canonicalExtensionByMIME[strings.ToLower(mimeType)]
	if canonical != "" && canonical != ext {
		ext += canonical
	}

	rel := fmt.Sprintf("%04d/%02d/%02d/%s/%s%s",
		d.Year(), int(d.Month()), d.Day(), hhmm, id.String(), ext)
	return strings.ToLower(rel)
}

// NewAssetId mints an AssetId for a file named f of the given MIME type,
// captured/imported at instant d, per §4.1 and §6.
func NewAssetId(d time.Time, f, mimeType string) AssetId {
	rel := DerivePath(d, f, mimeType)
	return AssetId(base64.StdEncoding.EncodeToString([]byte(rel)))
}

var (
	// ErrInvalidAssetId is returned when an AssetId fails to decode to
	// a safe relative path.
	ErrInvalidAssetId = errors.New("blobstore: invalid asset id")
)

// RelPath decodes id back to its relative path, rejecting path
// traversal (§4.1: "the decoded path must be relative and must
// not contain .. segments").
func RelPath(id AssetId) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(string(id))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAssetId, err)
	}
	rel := string(raw)
	if path.IsAbs(rel) {
		return "", fmt.Errorf("%w: absolute path", ErrInvalidAssetId)
	}
	clean := path.Clean(rel)
	if clean != rel || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: traversal", ErrInvalidAssetId)
	}
	for _, seg := range strings.Split(clean, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: traversal", ErrInvalidAssetId)
		}
	}
	return rel, nil
}
