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
	"tanuki/internal/applog"
	"tanuki/internal/blobstore"
	"tanuki/internal/clock"
	"tanuki/internal/geocode"
	"tanuki/internal/mediaprobe"
	"tanuki/internal/repository"
	"tanuki/internal/thumbnail"
)

// Engine is the asset-management core of §2: the single
// collaborator-driven object every external interface (CLI, future
// server handlers) drives. It owns the process-wide shared resources
// §5 calls out: the keyed mutex, and (via its fields) the LRU and
// KV store handles.
type Engine struct {
	Blobs      *blobstore.Store
	Records    *repository.Repository
	Prober     mediaprobe.Prober
	Locator    geocode.Resolver
	Thumbnails *thumbnail.Service
	Clock      clock.Clock
	Log        applog.Logger

	mu *keyedMutex
}

// New builds an Engine from its collaborators. Locator and Prober may
// be nil: a nil Locator disables GPS-to-place resolution and a nil
// Prober disables media probing entirely, both degrading to "unknown"
// per §7's External error kind rather than failing Import.
func New(blobs *blobstore.Store, records *repository.Repository, prober mediaprobe.Prober, locator geocode.Resolver, thumbs *thumbnail.Service, clk clock.Clock, log applog.Logger) *Engine {
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = applog.Default
	}
	return &Engine{
		Blobs:      blobs,
		Records:    records,
		Prober:     prober,
		Locator:    locator,
		Thumbnails: thumbs,
		Clock:      clk,
		Log:        log,
		mu:         newKeyedMutex(),
	}
}
