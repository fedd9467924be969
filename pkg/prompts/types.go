// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package prompts manages externalized prompt text for the pipeline stages.
//
// Every stage prompt is stored outside the code, keyed by "<theme>.<role>"
// (for example "books.selector"). This enables version control of prompt
// changes, per-theme prompt sets, and hot-reload without restarts.
//
// Example usage:
//
//	registry := prompts.NewFileRegistry("./prompts")
//	systemPrompt, err := registry.Get(ctx, "books.selector", nil)
package prompts

import (
	"errors"
	"time"
)

// ErrPromptNotFound is returned when a theme/role combination is absent.
var ErrPromptNotFound = errors.New("prompt not found")

// PromptMetadata contains information about a prompt.
type PromptMetadata struct {
	// Key is the unique identifier for this prompt.
	// Example: "books.selector", "anime.insight"
	Key string

	// Version using semantic versioning (e.g., "1.2.0").
	Version string

	// Description of what this prompt does.
	Description string

	// Tags for categorization and search.
	Tags []string

	// Variables that can be interpolated in the prompt.
	Variables []string

	// UpdatedAt is the last modification time, when known.
	UpdatedAt time.Time
}

// PromptUpdate notifies watchers that a prompt changed on disk.
type PromptUpdate struct {
	Key       string
	Version   string
	UpdatedAt time.Time
}
