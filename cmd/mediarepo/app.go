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

package main

import (
	"fmt"
	"os"

	"tanuki/internal/applog"
	"tanuki/internal/blobstore"
	"tanuki/internal/config"
	"tanuki/internal/geocode"
	"tanuki/internal/kvstore"
	"tanuki/internal/mediaprobe"
	"tanuki/internal/migrate"
	"tanuki/internal/repository"
	"tanuki/internal/thumbnail"
	"tanuki/internal/usecase"
)

// app bundles every collaborator a subcommand might need, built once
// from the repository config named on the command line.
type app struct {
	kv     kvstore.KeyValue
	engine *usecase.Engine
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/mediarepo/config.json"
	}
	return "mediarepo.json"
}

// newApp loads the repository config at path (or the default location
// if empty), wires every collaborator, and brings the persisted store
// up to the current schema version before returning.
func newApp(path string) (*app, error) {
	if path == "" {
		path = defaultConfigPath()
	}
	obj, err := config.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	cfg, err := config.FromObj(obj)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	kv, err := kvstore.Open(cfg.KVPath)
	if err != nil {
		return nil, fmt.Errorf("opening index at %s: %w", cfg.KVPath, err)
	}

	blobs, err := blobstore.New(cfg.BlobRoot)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("opening blob store at %s: %w", cfg.BlobRoot, err)
	}

	repo := repository.New(kv)

	cache, err := thumbnail.NewCache(cfg.ThumbnailCacheBytes, applog.Default)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("building thumbnail cache: %w", err)
	}
	thumbs := thumbnail.NewService(cache, nil)

	m := migrate.New(kv, blobs, repo, applog.Default)
	if err := m.Run(); err != nil {
		kv.Close()
		return nil, fmt.Errorf("migrating index: %w", err)
	}

	engine := usecase.New(blobs, repo, mediaprobe.ExifProber{}, geocode.NewNominatim(), thumbs, nil, applog.Default)

	return &app{kv: kv, engine: engine}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}
