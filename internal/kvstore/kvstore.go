/*
Copyright 2013 The Perkeep Authors

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

// Package kvstore defines the KVStore collaborator (§6): a sorted,
// enumerable key-value store with atomic put-with-view-update, in the
// shape of Perkeep's pkg/sorted.KeyValue.
package kvstore

import (
	"errors"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("kvstore: key not found")

// KeyValue is a sorted, enumerable key-value store. Implementations must
// be safe for concurrent use.
type KeyValue interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error

	// Find returns an iterator over [start, end) in key order. An
	// empty start means "before all keys"; an empty end means "after
	// all keys".
	Find(start, end string) Iterator

	// ViewPut atomically applies a primary mutation together with any
	// number of secondary-view mutations, so readers never observe
	// the two disagree (§5).
	ViewPut(m Mutation) error

	Close() error
}

// Iterator walks a KeyValue's key/value pairs in key order.
type Iterator interface {
	Next() bool
	Key() string
	Value() string
	Close() error
}

// Mutation is a batch of key/value sets and deletes applied atomically.
type Mutation struct {
	sets    []kv
	deletes []string
}

type kv struct{ key, value string }

func (m *Mutation) Set(key, value string) {
	m.sets = append(m.sets, kv{key, value})
}

func (m *Mutation) Delete(key string) {
	m.deletes = append(m.deletes, key)
}

func (m *Mutation) IsEmpty() bool {
	return len(m.sets) == 0 && len(m.deletes) == 0
}
