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

import "testing"

func TestCacheEvictsByByteBudget(t *testing.T) {
	c, err := NewCache(10, nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	c.Put("a", make([]byte, 6))
	c.Put("b", make([]byte, 6))
	if _, ok := c.Get("a"); ok {
		t.Error("expected \"a\" to be evicted once budget exceeded")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected \"b\" to remain cached")
	}
}

func TestCacheRemoveAndClear(t *testing.T) {
	c, err := NewCache(1<<20, nil)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	c.Put("k", []byte("data"))
	c.Remove("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected key removed")
	}
	c.Put("k2", []byte("data2"))
	c.Clear()
	if _, ok := c.Get("k2"); ok {
		t.Error("expected cache cleared")
	}
}
