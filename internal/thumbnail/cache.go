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

package thumbnail

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"tanuki/internal/applog"
)

// Cache bounds cached thumbnail/preview bytes by total size rather
// than entry count, since derived images vary widely in size (spec
// §4.7). It wraps hashicorp/golang-lru/v2, which evicts by recency but
// not by size, with external byte-budget bookkeeping: entries are
// dropped oldest-first via RemoveOldest until the running total fits.
type Cache struct {
	mu     sync.Mutex
	lru    *lru.Cache[string, []byte]
	log    applog.Logger
	budget int
	used   int
}

// NewCache builds a Cache holding at most budgetBytes of thumbnail
// data. A very large backing capacity is used for the LRU itself
// since eviction is driven by the byte budget, not the entry count.
func NewCache(budgetBytes int, log applog.Logger) (*Cache, error) {
	if log == nil {
		log = applog.Discard{}
	}
	backing, err := lru.New[string, []byte](1 << 20)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: backing, log: log, budget: budgetBytes}, nil
}

// Get returns the cached bytes for key, if present.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(key)
	if ok {
		c.log.Printf("thumbnail: cache hit %s (%d bytes)", key, len(v))
	} else {
		c.log.Printf("thumbnail: cache miss %s", key)
	}
	return v, ok
}

// Put stores data under key, evicting the least recently used entries
// until the cache fits within its byte budget.
func (c *Cache) Put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.lru.Peek(key); ok {
		c.used -= len(old)
	}
	c.lru.Add(key, data)
	c.used += len(data)
	for c.used > c.budget {
		_, v, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		c.used -= len(v)
	}
}

// Remove drops a single cached entry, used when its source asset is
// replaced or deleted.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.lru.Peek(key); ok {
		c.used -= len(v)
		c.lru.Remove(key)
	}
}

// Clear empties the cache entirely.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.used = 0
}
