// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package prompts

import (
	"context"
	"sync"
	"time"
)

// CachedRegistry wraps a Registry with an in-memory cache.
//
// This reduces load on the underlying registry (file I/O, HTTP requests)
// for frequently accessed prompts. With a TTL of zero or less the cache is
// populate-once/read-many: each key is loaded on first use and never
// expires for the process lifetime, which is the mode the pipeline uses
// for its per-theme stage prompts.
//
// Example:
//
//	fileRegistry := prompts.NewFileRegistry("./prompts")
//	cachedRegistry := prompts.NewCachedRegistry(fileRegistry, 0)
type CachedRegistry struct {
	underlying Registry
	ttl        time.Duration

	mu       sync.RWMutex
	content  map[string]*cacheEntry
	metadata map[string]*metadataCacheEntry

	// Metrics
	hits   uint64
	misses uint64
}

// cacheEntry holds cached prompt content. expiresAt.IsZero() means the
// entry never expires.
type cacheEntry struct {
	content   string
	expiresAt time.Time
}

type metadataCacheEntry struct {
	metadata  *PromptMetadata
	expiresAt time.Time
}

func (e *cacheEntry) live() bool {
	return e.expiresAt.IsZero() || time.Now().Before(e.expiresAt)
}

func (e *metadataCacheEntry) live() bool {
	return e.expiresAt.IsZero() || time.Now().Before(e.expiresAt)
}

// NewCachedRegistry creates a new cached registry. A ttl of zero or less
// caches forever.
func NewCachedRegistry(underlying Registry, ttl time.Duration) *CachedRegistry {
	return &CachedRegistry{
		underlying: underlying,
		ttl:        ttl,
		content:    make(map[string]*cacheEntry),
		metadata:   make(map[string]*metadataCacheEntry),
	}
}

// Get retrieves a prompt by key with variable interpolation, using the
// cached raw content when available.
func (c *CachedRegistry) Get(ctx context.Context, key string, vars map[string]interface{}) (string, error) {
	c.mu.RLock()
	entry, found := c.content[key]
	c.mu.RUnlock()

	if found && entry.live() {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		// Interpolation is per-request, not cached.
		return Interpolate(entry.content, vars), nil
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()

	// Raw content is fetched without vars so the cached text stays
	// interpolation-free.
	raw, err := c.underlying.Get(ctx, key, nil)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.content[key] = &cacheEntry{content: raw, expiresAt: c.expiry()}
	c.mu.Unlock()

	return Interpolate(raw, vars), nil
}

// GetMetadata retrieves prompt metadata, cached the same way as content.
func (c *CachedRegistry) GetMetadata(ctx context.Context, key string) (*PromptMetadata, error) {
	c.mu.RLock()
	entry, found := c.metadata[key]
	c.mu.RUnlock()

	if found && entry.live() {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		metadata := *entry.metadata
		return &metadata, nil
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()

	metadata, err := c.underlying.GetMetadata(ctx, key)
	if err != nil {
		return nil, err
	}

	metadataCopy := *metadata
	c.mu.Lock()
	c.metadata[key] = &metadataCacheEntry{metadata: &metadataCopy, expiresAt: c.expiry()}
	c.mu.Unlock()

	return metadata, nil
}

// List delegates to the underlying registry; listing is not cached.
func (c *CachedRegistry) List(ctx context.Context, filters map[string]string) ([]string, error) {
	return c.underlying.List(ctx, filters)
}

// Reload reloads the underlying registry and clears the cache.
func (c *CachedRegistry) Reload(ctx context.Context) error {
	if err := c.underlying.Reload(ctx); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Watch proxies the underlying registry's updates, invalidating the cache
// on every update.
func (c *CachedRegistry) Watch(ctx context.Context) (<-chan PromptUpdate, error) {
	updates, err := c.underlying.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan PromptUpdate, 16)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				c.Invalidate()
				select {
				case out <- update:
				default:
				}
			}
		}
	}()
	return out, nil
}

// Invalidate clears all cached entries.
func (c *CachedRegistry) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = make(map[string]*cacheEntry)
	c.metadata = make(map[string]*metadataCacheEntry)
}

// Stats returns cache hit/miss counters.
func (c *CachedRegistry) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *CachedRegistry) expiry() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.ttl)
}
