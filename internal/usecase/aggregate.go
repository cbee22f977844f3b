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
	"time"

	"tanuki/internal/record"
)

// FindPending returns newborn assets (spec's "Newborn" glossary entry:
// no caption, no tags, no location), optionally restricted to those
// imported at or after the given instant (§4.2's query_newborn).
func (e *Engine) FindPending(after *time.Time) ([]*record.Asset, error) {
	all, err := e.Records.QueryNewborn()
	if err != nil {
		return nil, err
	}
	if after == nil {
		return all, nil
	}
	out := make([]*record.Asset, 0, len(all))
	for _, a := range all {
		if !a.ImportDate.Before(*after) {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetAssetTags returns every distinct tag in use with its reference
// count (spec's all_tags aggregation).
func (e *Engine) GetAssetTags() (map[string]int, error) {
	return e.Records.GetAssetTags()
}

// GetLocationValues returns every distinct canonical location string
// in use with its reference count (spec's all_locations aggregation).
func (e *Engine) GetLocationValues() (map[string]int, error) {
	return e.Records.GetLocationValues()
}

// GetYears returns every year with at least one asset, with its count
// (spec's all_years aggregation).
func (e *Engine) GetYears() (map[string]int, error) {
	return e.Records.GetYears()
}
