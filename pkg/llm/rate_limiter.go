// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimiterConfig configures the LLM rate limiter.
type RateLimiterConfig struct {
	// Enabled enables rate limiting (default: true for production)
	Enabled bool

	// RequestsPerSecond is the maximum requests allowed per second
	// across all stages sharing the limiter. Default: 2
	RequestsPerSecond float64

	// BurstCapacity is the maximum burst of requests allowed.
	// Default: 5
	BurstCapacity int

	// MinDelay is the minimum delay between requests (overrides
	// RequestsPerSecond if larger). Default: 200ms
	MinDelay time.Duration

	// QueueTimeout is the maximum time a request can wait for a slot.
	// Default: 1 minute
	QueueTimeout time.Duration

	// Logger for rate limiter events
	Logger *zap.Logger
}

// DefaultRateLimiterConfig returns conservative defaults suitable for
// entry-tier provider accounts.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Enabled:           true,
		RequestsPerSecond: 2.0,
		BurstCapacity:     5,
		MinDelay:          200 * time.Millisecond,
		QueueTimeout:      time.Minute,
		Logger:            zap.NewNop(),
	}
}

// RateLimiter implements token-bucket rate limiting for LLM requests.
// One limiter is shared per provider: the selector and the two parallel
// stages all draw from the same bucket.
type RateLimiter struct {
	config RateLimiterConfig

	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	lastGrant  time.Time
}

// NewRateLimiter creates a rate limiter. Zero-valued fields fall back to
// DefaultRateLimiterConfig values.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	defaults := DefaultRateLimiterConfig()
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if config.BurstCapacity <= 0 {
		config.BurstCapacity = defaults.BurstCapacity
	}
	if config.MinDelay <= 0 {
		config.MinDelay = defaults.MinDelay
	}
	if config.QueueTimeout <= 0 {
		config.QueueTimeout = defaults.QueueTimeout
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &RateLimiter{
		config:     config,
		tokens:     float64(config.BurstCapacity),
		maxTokens:  float64(config.BurstCapacity),
		refillRate: config.RequestsPerSecond,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a request slot is available, the context is done, or
// the queue timeout elapses.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if !r.config.Enabled {
		return nil
	}

	deadline := time.Now().Add(r.config.QueueTimeout)

	for {
		wait := r.reserve()
		if wait <= 0 {
			return nil
		}

		if time.Now().Add(wait).After(deadline) {
			r.config.Logger.Warn("rate limiter queue timeout",
				zap.Duration("wait", wait),
				zap.Duration("queue_timeout", r.config.QueueTimeout))
			return fmt.Errorf("rate limiter queue timeout after %s", r.config.QueueTimeout)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve attempts to take a token, returning how long to wait before
// retrying when the bucket is empty or the minimum spacing is unmet.
func (r *RateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.tokens = min(r.maxTokens, r.tokens+elapsed*r.refillRate)
	r.lastRefill = now

	if r.tokens < 1 {
		deficit := 1 - r.tokens
		return time.Duration(deficit / r.refillRate * float64(time.Second))
	}

	if !r.lastGrant.IsZero() {
		if since := now.Sub(r.lastGrant); since < r.config.MinDelay {
			return r.config.MinDelay - since
		}
	}

	r.tokens--
	r.lastGrant = now
	return 0
}
