// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package agents implements the four pipeline stages (selector, essence
// extractor, insight provider, assembler) and the per-theme registry
// that constructs and caches them.
package agents

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/atelier-labs/curio/pkg/llm"
	"github.com/atelier-labs/curio/pkg/prompts"
	"github.com/atelier-labs/curio/pkg/types"
)

// Stage role names, matching the prompt file layout "<theme>.<role>".
const (
	RoleSelector  = "selector"
	RoleExtractor = "extractor"
	RoleInsight   = "insight"
)

// StageBundle is the set of per-theme stage instances cached by the
// registry. A bundle is immutable after construction and safe for
// concurrent use by in-flight requests.
type StageBundle struct {
	Theme     types.Theme
	Selector  *Selector
	Extractor *EssenceExtractor
	Insight   *InsightProvider
	Assembler *Assembler
}

// Registry lazily constructs and caches one stage bundle per theme.
// Construction is idempotent per theme under concurrent first use:
// callers racing on an unpopulated theme all observe the same bundle.
type Registry struct {
	mu      sync.RWMutex
	bundles map[types.Theme]*StageBundle

	provider llm.Provider
	prompts  prompts.Registry
	logger   *zap.Logger
}

// RegistryConfig configures the stage registry.
type RegistryConfig struct {
	// Provider is the generation client shared by all stages
	Provider llm.Provider

	// Prompts supplies the per-theme stage prompts
	Prompts prompts.Registry

	// Logger for stage construction and execution
	Logger *zap.Logger
}

// NewRegistry creates a stage registry.
func NewRegistry(config RegistryConfig) *Registry {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Registry{
		bundles:  make(map[types.Theme]*StageBundle),
		provider: config.Provider,
		prompts:  config.Prompts,
		logger:   config.Logger,
	}
}

// GetBundle returns the stage bundle for a theme, constructing it on
// first use. Uses double-checked locking so concurrent first requests
// never construct duplicate bundles or observe a half-built one; a
// failed construction caches nothing, so a later call retries.
func (r *Registry) GetBundle(ctx context.Context, theme types.Theme) (*StageBundle, error) {
	r.mu.RLock()
	bundle, ok := r.bundles[theme]
	r.mu.RUnlock()
	if ok {
		return bundle, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if bundle, ok := r.bundles[theme]; ok {
		return bundle, nil
	}

	bundle, err := r.buildBundle(ctx, theme)
	if err != nil {
		return nil, err
	}
	r.bundles[theme] = bundle

	r.logger.Info("constructed stage bundle", zap.String("theme", string(theme)))
	return bundle, nil
}

func (r *Registry) buildBundle(ctx context.Context, theme types.Theme) (*StageBundle, error) {
	selector, err := NewSelector(ctx, theme, r.provider, r.prompts, r.logger)
	if err != nil {
		return nil, fmt.Errorf("build bundle for theme %s: %w", theme, err)
	}
	extractor, err := NewEssenceExtractor(ctx, theme, r.provider, r.prompts, r.logger)
	if err != nil {
		return nil, fmt.Errorf("build bundle for theme %s: %w", theme, err)
	}
	insight, err := NewInsightProvider(ctx, theme, r.provider, r.prompts, r.logger)
	if err != nil {
		return nil, fmt.Errorf("build bundle for theme %s: %w", theme, err)
	}

	return &StageBundle{
		Theme:     theme,
		Selector:  selector,
		Extractor: extractor,
		Insight:   insight,
		Assembler: NewAssembler(theme, r.logger),
	}, nil
}
