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

package kvstore

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is a KeyValue implementation on top of a single mutable
// database directory on disk, via github.com/syndtr/goleveldb —
// grounded on Perkeep's pkg/sorted/leveldb.
type LevelDB struct {
	db *leveldb.DB

	// txmu serializes ViewPut batches so the primary row and its
	// secondary-view rows commit as one atomic write, matching the
	// "put-with-view-update" contract.
	txmu sync.Mutex
}

// Open opens (creating if absent) a LevelDB database at dir.
func Open(dir string) (*LevelDB, error) {
	opts := &opt.Options{
		Filter: filter.NewBloomFilter(10),
	}
	db, err := leveldb.OpenFile(dir, opts)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Get(key string) (string, error) {
	v, err := l.db.Get([]byte(key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(v), nil
}

func (l *LevelDB) Set(key, value string) error {
	return l.db.Put([]byte(key), []byte(value), nil)
}

func (l *LevelDB) Delete(key string) error {
	return l.db.Delete([]byte(key), nil)
}

func (l *LevelDB) Find(start, end string) Iterator {
	var startB, endB []byte
	if start != "" {
		startB = []byte(start)
	}
	if end != "" {
		endB = []byte(end)
	}
	return &levelIter{it: l.db.NewIterator(&util.Range{Start: startB, Limit: endB}, nil)}
}

func (l *LevelDB) ViewPut(m Mutation) error {
	l.txmu.Lock()
	defer l.txmu.Unlock()

	// Deletes are batched before sets so a key present in both (an
	// index row whose value didn't change across a retract+apply
	// pair) ends up set, not erased: leveldb.Batch replays entries in
	// the order they were added, so the later write wins.
	b := new(leveldb.Batch)
	for _, k := range m.deletes {
		b.Delete([]byte(k))
	}
	for _, kv := range m.sets {
		b.Put([]byte(kv.key), []byte(kv.value))
	}
	return l.db.Write(b, nil)
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}

type levelIter struct {
	it       iterator.Iterator
	key, val *string
}

func (it *levelIter) Next() bool {
	it.key, it.val = nil, nil
	return it.it.Next()
}

func (it *levelIter) Key() string {
	if it.key == nil {
		s := string(it.it.Key())
		it.key = &s
	}
	return *it.key
}

func (it *levelIter) Value() string {
	if it.val == nil {
		s := string(it.it.Value())
		it.val = &s
	}
	return *it.val
}

func (it *levelIter) Close() error {
	it.it.Release()
	return it.it.Error()
}
