/*
 * Copyright 2024 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cache provides a bounded in-memory cache with expiration.
package cache

import (
	"sync"
	"time"
)

// MemoryCache is an in-memory cache bounded to maxEntries items.
// Items expire ttl after they are set; a ttl <= 0 never expires.
type MemoryCache struct {
	items      map[string]item
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	stopGc     chan struct{}
	ticker     *time.Ticker
	gcInterval time.Duration
	// 当前时间，测试时替换
	now func() time.Time
}

type item struct {
	value interface{}
	// UnixNano，0 表示不过期
	expiration int64
}

// NewMemoryCache creates a cache holding at most maxEntries items.
// maxEntries <= 0 means unbounded. Expired items are removed by Get and by a
// GC goroutine started with StartGC.
func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	c := &MemoryCache{
		items:      make(map[string]item),
		ttl:        ttl,
		maxEntries: maxEntries,
		gcInterval: time.Minute,
		now:        time.Now,
	}
	if ttl > 0 && ttl < c.gcInterval {
		c.gcInterval = ttl
	}
	return c
}

// Set stores value under key. When the cache is full, expired items are
// evicted first, then an arbitrary item.
func (c *MemoryCache) Set(key string, value interface{}) {
	var expiration int64
	now := c.now()
	if c.ttl > 0 {
		expiration = now.Add(c.ttl).UnixNano()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; !ok && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.evict(now.UnixNano())
	}
	c.items[key] = item{value: value, expiration: expiration}
}

// evict must be called with the write lock held.
func (c *MemoryCache) evict(now int64) {
	for k, v := range c.items {
		if v.expiration > 0 && now > v.expiration {
			delete(c.items, k)
		}
	}
	for k := range c.items {
		if len(c.items) < c.maxEntries {
			return
		}
		delete(c.items, k)
	}
}

// Get returns the value of key if it exists and has not expired.
func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	it, found := c.items[key]
	c.mu.RUnlock()
	if !found {
		return nil, false
	}
	if it.expiration > 0 && c.now().UnixNano() > it.expiration {
		c.Delete(key)
		return nil, false
	}
	return it.value, true
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len returns the number of items, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Purge removes all items.
func (c *MemoryCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]item)
}

// StartGC starts removing expired items every gcInterval.
// It is a no-op if GC is running or items never expire.
func (c *MemoryCache) StartGC() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticker != nil || c.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(c.gcInterval)
	stopGc := make(chan struct{})
	c.ticker = ticker
	c.stopGc = stopGc
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.deleteExpired()
			case <-stopGc:
				return
			}
		}
	}()
}

// StopGC stops the GC goroutine. It is safe to call multiple times.
func (c *MemoryCache) StopGC() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticker != nil {
		close(c.stopGc)
		c.ticker = nil
		c.stopGc = nil
	}
}

func (c *MemoryCache) deleteExpired() {
	now := c.now().UnixNano()
	c.mu.RLock()
	var expiredKeys []string
	for k, v := range c.items {
		if v.expiration > 0 && now > v.expiration {
			expiredKeys = append(expiredKeys, k)
		}
	}
	c.mu.RUnlock()
	if len(expiredKeys) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range expiredKeys {
		// 可能已被重新设置
		if v, found := c.items[k]; found && v.expiration > 0 && now > v.expiration {
			delete(c.items, k)
		}
	}
}
