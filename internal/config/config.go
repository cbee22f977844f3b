/*
Copyright 2011 The Perkeep Authors

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

// Package config defines a small typed-accessor JSON configuration
// object, in the style Perkeep's server uses (pkg/jsonconfig):
// accessors note which keys they touched and accumulate errors, and a
// final Validate call reports both the accumulated errors and any key
// nobody asked for.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Obj is a JSON configuration map.
type Obj map[string]interface{}

// ReadFile parses the JSON document at path into an Obj.
func ReadFile(path string) (Obj, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %v", path, err)
	}
	return Obj(m), nil
}

func (o Obj) noteKnownKey(key string) {
	kk, ok := o["_knownkeys"]
	if !ok {
		kk = make(map[string]bool)
		o["_knownkeys"] = kk
	}
	kk.(map[string]bool)[key] = true
}

func (o Obj) appendError(err error) {
	ei, ok := o["_errors"]
	if ok {
		o["_errors"] = append(ei.([]error), err)
	} else {
		o["_errors"] = []error{err}
	}
}

// RequiredString returns the string at key, recording an error if
// absent or of the wrong type.
func (o Obj) RequiredString(key string) string {
	return o.str(key, nil)
}

// OptionalString returns the string at key, or def if absent.
func (o Obj) OptionalString(key, def string) string {
	return o.str(key, &def)
}

func (o Obj) str(key string, def *string) string {
	o.noteKnownKey(key)
	v, ok := o[key]
	if !ok {
		if def != nil {
			return *def
		}
		o.appendError(fmt.Errorf("missing required config key %q (string)", key))
		return ""
	}
	s, ok := v.(string)
	if !ok {
		o.appendError(fmt.Errorf("config key %q must be a string, got %T", key, v))
		return ""
	}
	return s
}

// OptionalInt returns the integer at key, or def if absent.
func (o Obj) OptionalInt(key string, def int) int {
	o.noteKnownKey(key)
	v, ok := o[key]
	if !ok {
		return def
	}
	f, ok := v.(float64)
	if !ok {
		o.appendError(fmt.Errorf("config key %q must be a number, got %T", key, v))
		return def
	}
	return int(f)
}

// OptionalBool returns the boolean at key, or def if absent.
func (o Obj) OptionalBool(key string, def bool) bool {
	o.noteKnownKey(key)
	v, ok := o[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		o.appendError(fmt.Errorf("config key %q must be a boolean, got %T", key, v))
		return def
	}
	return b
}

func (o Obj) lookForUnknownKeys() {
	known, _ := o["_knownkeys"].(map[string]bool)
	for k := range o {
		if known[k] || strings.HasPrefix(k, "_") {
			continue
		}
		o.appendError(fmt.Errorf("unknown config key %q", k))
	}
}

// Validate reports accumulated accessor errors and any key that was
// present but never read.
func (o Obj) Validate() error {
	o.lookForUnknownKeys()
	ei, ok := o["_errors"]
	if !ok {
		return nil
	}
	errs := ei.([]error)
	if len(errs) == 1 {
		return errs[0]
	}
	strs := make([]string, len(errs))
	for i, e := range errs {
		strs[i] = e.Error()
	}
	return fmt.Errorf("config: multiple errors: %s", strings.Join(strs, "; "))
}

// Repo is the top-level configuration for a repository instance.
type Repo struct {
	// BlobRoot is the directory under which the content-addressed
	// blob store places files (internal/blobstore).
	BlobRoot string
	// KVPath is the LevelDB directory backing the record repository
	// and its secondary views.
	KVPath string
	// ThumbnailCacheBytes bounds the in-memory rendition cache
	// (internal/thumbnail); defaults to 10 MiB per §4.7.
	ThumbnailCacheBytes int
	// InstanceID labels this repository instance in migration logs.
	InstanceID string
}

const defaultThumbnailCacheBytes = 10 << 20

// FromObj builds a Repo from a parsed config Obj.
func FromObj(o Obj) (Repo, error) {
	r := Repo{
		BlobRoot:            o.RequiredString("blob_root"),
		KVPath:              o.RequiredString("kv_path"),
		ThumbnailCacheBytes: o.OptionalInt("thumbnail_cache_bytes", defaultThumbnailCacheBytes),
		InstanceID:          o.OptionalString("instance_id", ""),
	}
	if err := o.Validate(); err != nil {
		return Repo{}, err
	}
	return r, nil
}
