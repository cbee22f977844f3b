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

// Package repository implements the record index of §4.2: a
// primary keyspace plus the secondary views (by_checksum, by_date,
// by_filename, by_mimetype, by_tag) and the all_tags / all_locations /
// all_years aggregations, all kept consistent through a single
// KVStore.ViewPut per write. Location-based search (by_location in
// §4.2's terms) is answered by a full scan with three-field equality
// instead of a maintained view (see QueryByLocations), since no
// single-component index can decide equality on its own. The key
// layout follows Perkeep's pkg/index/keys.go "|"-delimited scheme, and
// by_date uses its pkg/index/reversetime.go trick so a forward scan
// over a lexically sorted store yields most-recent-first order.
package repository

import (
	"fmt"
	"strings"
	"time"
)

const (
	prefixAsset      = "asset"
	prefixByChecksum = "by_checksum"
	prefixByFilename = "by_filename"
	prefixByMimetype = "by_mimetype"
	prefixByTag      = "by_tag"
	prefixByDate     = "by_date"
	prefixAllTags    = "all_tags"
	prefixAllLocs    = "all_locations"
	prefixAllYears   = "all_years"
)

func assetKey(id string) string { return prefixAsset + "|" + id }

func checksumKey(checksum string) string { return prefixByChecksum + "|" + checksum }

// filenameKey and mimetypeKey index on the lower-cased value (§4.2
// keys "by_filename"/"by_mimetype" on filename/media_type, lower), so
// filenamePrefix/mimetypePrefix lower-case their argument too and
// every lookup is case-insensitive regardless of case at write time.
func filenameKey(filename, id string) string {
	return prefixByFilename + "|" + strings.ToLower(filename) + "|" + id
}

func filenamePrefix(filename string) string {
	return prefixByFilename + "|" + strings.ToLower(filename) + "|"
}

func mimetypeKey(mimeType, id string) string {
	return prefixByMimetype + "|" + strings.ToLower(mimeType) + "|" + id
}

func mimetypePrefix(mimeType string) string {
	return prefixByMimetype + "|" + strings.ToLower(mimeType) + "|"
}

func tagKey(tag, id string) string { return prefixByTag + "|" + tag + "|" + id }

func tagPrefix(tag string) string { return prefixByTag + "|" + tag + "|" }

// dateKey orders most-recent-first: reverseTimeString of an RFC3339
// instant sorts descending under plain lexical iteration.
func dateKey(t time.Time, id string) string {
	return prefixByDate + "|" + reverseTimeString(t.UTC().Format(time.RFC3339)) + "|" + id
}

func allTagsKey(tag string) string { return prefixAllTags + "|" + tag }

func allLocationsKey(locKey string) string { return prefixAllLocs + "|" + locKey }

func allYearsKey(year int) string { return fmt.Sprintf("%s|%04d", prefixAllYears, year) }

// lastComponent returns the text after the final "|", used to recover
// an asset id from a by_* index key during a scan.
func lastComponent(key string) string {
	i := strings.LastIndex(key, "|")
	if i < 0 {
		return key
	}
	return key[i+1:]
}

func reverseTimeString(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			b = append(b, '0'+('9'-c))
		} else {
			b = append(b, c)
		}
	}
	return string(b)
}
