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
	"sort"
	"strings"

	"tanuki/internal/location"
	"tanuki/internal/record"
)

// Search implements §4.8's algorithm: a single primary selector
// (the first non-empty of tags/date-range/locations/filename/media
// type) narrows the scan, an in-memory filter pass refines against
// every other given attribute, and the result is sorted and paginated.
func (e *Engine) Search(p SearchParams) ([]*record.Asset, error) {
	assets, err := e.selectCandidates(p)
	if err != nil {
		return nil, err
	}
	assets = filterCandidates(assets, p)
	sortAssets(assets, p.SortField, p.SortOrder)
	return paginate(assets, p.Offset, p.Count), nil
}

// Count returns how many assets Search would return before pagination
// is applied (§2's Count operation).
func (e *Engine) Count(p SearchParams) (int, error) {
	assets, err := e.selectCandidates(p)
	if err != nil {
		return 0, err
	}
	return len(filterCandidates(assets, p)), nil
}

// isNullTags reports the "[null]" singleton convention of §6:
// tags explicitly asking for assets with no tags at all.
func isNullTags(tags []string) bool {
	return len(tags) == 1 && tags[0] == ""
}

func (e *Engine) selectCandidates(p SearchParams) ([]*record.Asset, error) {
	switch {
	case len(p.Tags) > 0:
		if isNullTags(p.Tags) {
			return e.Records.QueryNoTags()
		}
		return e.Records.QueryByTags(p.Tags)
	case p.After != nil || p.Before != nil:
		switch {
		case p.After != nil && p.Before != nil:
			return e.Records.QueryDateRange(*p.After, *p.Before)
		case p.After != nil:
			return e.Records.QueryAfterDate(*p.After)
		default:
			return e.Records.QueryBeforeDate(*p.Before)
		}
	case len(p.Locations) > 0:
		return e.Records.QueryByLocations(p.Locations)
	case p.Filename != "":
		return e.Records.QueryByFilename(p.Filename)
	case p.MediaType != "":
		return e.Records.QueryByMediaType(p.MediaType)
	default:
		return nil, nil
	}
}

// filterCandidates applies the §4.8 step-2 refinement filters, in
// order, against attributes the primary selector didn't already
// narrow on.
func filterCandidates(assets []*record.Asset, p SearchParams) []*record.Asset {
	out := make([]*record.Asset, 0, len(assets))
	for _, a := range assets {
		if p.After != nil && a.BestDate().Before(*p.After) {
			continue
		}
		if p.Before != nil && !a.BestDate().Before(*p.Before) {
			continue
		}
		if len(p.Locations) > 0 && !matchesAnyLocation(a, p.Locations) {
			continue
		}
		if p.Filename != "" && !strings.EqualFold(a.Filename, p.Filename) {
			continue
		}
		if p.MediaType != "" && !strings.EqualFold(a.MediaType, p.MediaType) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// matchesAnyLocation reports whether a's location equals (case-
// insensitively) any of locs, or, for the null-location singleton,
// whether a has no location at all.
func matchesAnyLocation(a *record.Asset, locs []location.Location) bool {
	if len(locs) == 1 && locs[0].IsZero() {
		return !a.HasLoc
	}
	if !a.HasLoc {
		return false
	}
	for _, want := range locs {
		if a.Location.Equal(want) {
			return true
		}
	}
	return false
}

// compareAssets orders two assets by field, returning <0, 0, >0 like
// strings.Compare; ties are broken by asset id by sortAssets.
func compareAssets(a, b *record.Asset, field SortField) int {
	switch field {
	case SortByIdentifier:
		return strings.Compare(a.ID, b.ID)
	case SortByFilename:
		return strings.Compare(strings.ToLower(a.Filename), strings.ToLower(b.Filename))
	case SortByMediaType:
		return strings.Compare(strings.ToLower(a.MediaType), strings.ToLower(b.MediaType))
	case SortByDate:
		fallthrough
	default:
		ad, bd := a.BestDate(), b.BestDate()
		switch {
		case ad.Before(bd):
			return -1
		case ad.After(bd):
			return 1
		default:
			return 0
		}
	}
}

// sortAssets orders assets by field/order in place, breaking ties by
// asset id (§4.8: "Ties broken by asset_id").
func sortAssets(assets []*record.Asset, field SortField, order SortOrder) {
	sort.SliceStable(assets, func(i, j int) bool {
		c := compareAssets(assets[i], assets[j], field)
		if c == 0 {
			c = strings.Compare(assets[i].ID, assets[j].ID)
		}
		if order == Descending {
			return c > 0
		}
		return c < 0
	})
}

// paginate applies SearchParams' Offset/Count window (§8 scenario
// 6); Count == 0 means "no limit".
func paginate(assets []*record.Asset, offset, count int) []*record.Asset {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(assets) {
		return nil
	}
	end := len(assets)
	if count > 0 && offset+count < end {
		end = offset + count
	}
	return assets[offset:end]
}
