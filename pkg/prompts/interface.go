// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package prompts

import "context"

// Registry manages prompt retrieval and lifecycle.
//
// Implementations can load from files, embedded defaults, HTTP APIs, etc.
// All prompts support variable interpolation.
type Registry interface {
	// Get retrieves a prompt by key with variable interpolation.
	//
	// Variables are safely substituted using {{.variable_name}} syntax.
	// Returns ErrPromptNotFound (wrapped) when the key is absent.
	//
	// Example:
	//   prompt, err := registry.Get(ctx, "books.selector", map[string]interface{}{
	//       "theme_label": "书籍",
	//   })
	Get(ctx context.Context, key string, vars map[string]interface{}) (string, error)

	// GetMetadata retrieves prompt metadata without the content.
	GetMetadata(ctx context.Context, key string) (*PromptMetadata, error)

	// List lists all available prompt keys, optionally filtered.
	//
	// Filters can include:
	//   - "prefix": "books."
	//   - "tag": "selector"
	List(ctx context.Context, filters map[string]string) ([]string, error)

	// Reload reloads prompts from the source.
	Reload(ctx context.Context) error

	// Watch returns a channel that receives updates when prompts change.
	// Used for hot-reload functionality.
	Watch(ctx context.Context) (<-chan PromptUpdate, error)
}
