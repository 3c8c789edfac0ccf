// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
// Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataimport

import (
	"bytes"
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"

	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheSize = 16
)

// ContentHash returns a hex encoded SHA-256 digest of provided data.
// The value is used as a cache key for loaded files.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type cacheEntry struct {
	key  string
	data *dataset.Dataset
}

// CacheStats provides basic information about cache efficiency.
type CacheStats struct {
	Size      int   `json:"size"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// LoadCache memoizes parsed spreadsheets by content hash of the
// uploaded bytes. Concurrent loads of the same content are performed
// only once. Failed loads are never cached.
type LoadCache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	lru      *list.List
	flight   singleflight.Group
	loader   *Loader
	capacity int

	hits      int64
	misses    int64
	evictions int64
}

func NewLoadCache(loader *Loader, capacity int) *LoadCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &LoadCache{
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
		loader:   loader,
		capacity: capacity,
	}
}

func (c *LoadCache) get(key string) (*dataset.Dataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elm, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elm)
	return elm.Value.(*cacheEntry).data, true
}

func (c *LoadCache) put(key string, data *dataset.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elm, ok := c.entries[key]; ok {
		elm.Value.(*cacheEntry).data = data
		c.lru.MoveToFront(elm)
		return
	}
	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, data: data})
	for c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		entry := oldest.Value.(*cacheEntry)
		c.lru.Remove(oldest)
		delete(c.entries, entry.key)
		atomic.AddInt64(&c.evictions, 1)
		log.Debug().Str("key", entry.key).Msg("evicted loaded dataset from cache")
	}
}

// Load returns a dataset parsed from data along with the content hash
// of the data. Repeated calls with identical content reuse the first
// successful result.
func (c *LoadCache) Load(data []byte) (*dataset.Dataset, string, error) {
	key := ContentHash(data)
	if ds, ok := c.get(key); ok {
		atomic.AddInt64(&c.hits, 1)
		return ds, key, nil
	}
	atomic.AddInt64(&c.misses, 1)
	ans, err, _ := c.flight.Do(key, func() (any, error) {
		// another flight may have finished in the meantime
		if ds, ok := c.get(key); ok {
			return ds, nil
		}
		ds, err := c.loader.Load(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		c.put(key, ds)
		return ds, nil
	})
	if err != nil {
		return nil, key, err
	}
	return ans.(*dataset.Dataset), key, nil
}

// Invalidate removes an entry identified by its content hash.
// It returns true if the entry existed.
func (c *LoadCache) Invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	elm, ok := c.entries[key]
	if !ok {
		return false
	}
	c.lru.Remove(elm)
	delete(c.entries, key)
	return true
}

// Purge removes all the entries.
func (c *LoadCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.lru.Init()
}

func (c *LoadCache) Stats() CacheStats {
	c.mu.Lock()
	size := c.lru.Len()
	c.mu.Unlock()
	return CacheStats{
		Size:      size,
		Capacity:  c.capacity,
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
	}
}
