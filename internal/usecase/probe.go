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
	"time"

	"tanuki/internal/location"
	"tanuki/internal/record"
)

// probeResult is the Import-internal projection of a MediaProbe +
// LocationLookup pass: every field left at its zero value means
// "unknown", per §7's "probe/geocode failures are logged and
// swallowed with the associated field left null."
type probeResult struct {
	originalDate *time.Time
	location     *location.Location
	dimensions   record.Dimensions
	hasDimension bool
}

// probeMedia runs the MediaProbe collaborator and, if it reports GPS
// coordinates, the LocationLookup collaborator, degrading silently on
// either failure (§4.3 step 3, §7 External).
func (e *Engine) probeMedia(ctx context.Context, path, mimeType string) probeResult {
	var out probeResult
	if e.Prober == nil {
		return out
	}
	res, err := e.Prober.Probe(path, mimeType)
	if err != nil {
		e.Log.Printf("usecase: media probe failed for %s: %v", path, err)
		return out
	}
	out.originalDate = res.OriginalDate
	out.dimensions = res.Dimensions
	out.hasDimension = res.HasDimension

	if res.HasGPS && e.Locator != nil {
		loc, err := e.Locator.Resolve(ctx, res.Latitude, res.Longitude)
		if err != nil {
			e.Log.Printf("usecase: reverse geocode failed for %s: %v", path, err)
		} else {
			out.location = &loc
		}
	}
	return out
}
