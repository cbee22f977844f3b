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
	"strings"

	"tanuki/internal/assetserr"
	"tanuki/internal/caption"
	"tanuki/internal/location"
	"tanuki/internal/record"
)

// Edit applies every op in ops to each asset named in ids, independently
// per asset, and returns the count of assets whose resulting record
// actually differs from its prior version (§4.9).
func (e *Engine) Edit(ids []string, ops []EditOp) (int, error) {
	modified := 0
	for _, id := range ids {
		changed, err := e.editOne(id, ops)
		if err != nil {
			return modified, err
		}
		if changed {
			modified++
		}
	}
	return modified, nil
}

func (e *Engine) editOne(id string, ops []EditOp) (bool, error) {
	unlock := e.mu.Lock(id)
	defer unlock()

	a, err := e.Records.Get(id)
	if err != nil {
		return false, err
	}
	before := a.Clone()
	for _, op := range ops {
		applyEditOp(a, op)
	}
	if a.Equal(before) {
		return false, nil
	}
	if err := e.Records.Put(a); err != nil {
		return false, assetserr.Wrap(assetserr.Backend, "persist edit", err)
	}
	return true, nil
}

func applyEditOp(a *record.Asset, op EditOp) {
	switch v := op.(type) {
	case tagAddOp:
		a.Tags = record.NormalizeTags(append(append([]string(nil), a.Tags...), v.tag))
	case tagRemoveOp:
		want := strings.ToLower(strings.TrimSpace(v.tag))
		out := make([]string, 0, len(a.Tags))
		for _, t := range a.Tags {
			if t != want {
				out = append(out, t)
			}
		}
		a.Tags = out
	case locationSetOp:
		a.Location = v.loc
		a.HasLoc = !v.loc.IsZero()
	case captionSetOp:
		a.Caption = v.caption
		parsed := caption.Parse(v.caption)
		a.Tags = record.NormalizeTags(append(append([]string(nil), a.Tags...), parsed.Tags...))
		if parsed.HasLoc {
			merged := location.MergeFromCaption(a.Location, parsed.Location)
			a.Location = merged
			a.HasLoc = !merged.IsZero()
		}
	case dateSetOp:
		when := v.when
		a.UserDate = &when
	}
}
