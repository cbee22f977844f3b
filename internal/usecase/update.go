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
	"tanuki/internal/assetserr"
	"tanuki/internal/caption"
	"tanuki/internal/location"
	"tanuki/internal/record"
)

// Update applies an AssetInput patch to the asset named id, following
// §4.4's three-valued merge rules, and persists the result.
func (e *Engine) Update(id string, patch AssetInput) (*record.Asset, error) {
	unlock := e.mu.Lock(id)
	defer unlock()

	a, err := e.Records.Get(id)
	if err != nil {
		return nil, err
	}
	applyPatch(a, patch)

	if err := e.Records.Put(a); err != nil {
		return nil, assetserr.Wrap(assetserr.Backend, "persist update", err)
	}
	return a, nil
}

// applyPatch mutates a in place per §4.4.
func applyPatch(a *record.Asset, patch AssetInput) {
	if patch.Filename != nil && *patch.Filename != "" {
		a.Filename = *patch.Filename
	}
	if patch.MediaType != nil && *patch.MediaType != "" {
		a.MediaType = *patch.MediaType
	}
	if patch.Tags != nil {
		a.Tags = record.NormalizeTags(*patch.Tags)
	}
	if patch.Caption != nil {
		a.Caption = *patch.Caption
		parsed := caption.Parse(*patch.Caption)
		a.Tags = record.NormalizeTags(append(append([]string(nil), a.Tags...), parsed.Tags...))
		if parsed.HasLoc {
			base := a.Location
			merged := location.MergeFromCaption(base, parsed.Location)
			a.Location = merged
			a.HasLoc = !merged.IsZero()
		}
	}
	if patch.Location.HasAny() {
		merged := patch.Location.Apply(a.Location)
		a.Location = merged
		a.HasLoc = !merged.IsZero()
	}
	if patch.UserDate != nil {
		a.UserDate = patch.UserDate.Value
	}
}
