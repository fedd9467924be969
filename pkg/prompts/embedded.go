// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package prompts

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultsFS holds the prompt set compiled into the binary. This ensures
// every theme always has a working prompt set, even when the binary is
// distributed without a prompts directory.
//
//go:embed defaults
var defaultsFS embed.FS

// EmbeddedRegistry serves the compiled-in default prompts. It is
// read-only: Reload is a no-op and Watch is not supported.
type EmbeddedRegistry struct {
	prompts map[string]*filePrompt
}

// NewEmbeddedRegistry parses the embedded prompt set. A parse failure is a
// build defect, so the error is returned rather than swallowed.
func NewEmbeddedRegistry() (*EmbeddedRegistry, error) {
	loaded := make(map[string]*filePrompt)

	err := fs.WalkDir(defaultsFS, "defaults", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return nil
		}

		data, err := defaultsFS.ReadFile(path)
		if err != nil {
			return err
		}

		var file promptFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		key := file.Metadata.Key
		if key == "" {
			trimmed := strings.TrimPrefix(strings.TrimSuffix(path, ".yaml"), "defaults/")
			key = strings.ReplaceAll(trimmed, "/", ".")
		}

		loaded[key] = &filePrompt{
			metadata: PromptMetadata{
				Key:         key,
				Version:     file.Metadata.Version,
				Description: file.Metadata.Description,
				Tags:        file.Metadata.Tags,
				Variables:   file.Metadata.Variables,
			},
			content: file.Content,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load embedded prompts: %w", err)
	}

	return &EmbeddedRegistry{prompts: loaded}, nil
}

// Get retrieves a prompt by key with variable interpolation.
func (e *EmbeddedRegistry) Get(ctx context.Context, key string, vars map[string]interface{}) (string, error) {
	prompt, ok := e.prompts[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPromptNotFound, key)
	}
	return Interpolate(prompt.content, vars), nil
}

// GetMetadata retrieves prompt metadata without the content.
func (e *EmbeddedRegistry) GetMetadata(ctx context.Context, key string) (*PromptMetadata, error) {
	prompt, ok := e.prompts[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPromptNotFound, key)
	}
	metadata := prompt.metadata
	return &metadata, nil
}

// List lists all embedded prompt keys, optionally filtered by "prefix" or
// "tag".
func (e *EmbeddedRegistry) List(ctx context.Context, filters map[string]string) ([]string, error) {
	keys := make([]string, 0, len(e.prompts))
	for key, prompt := range e.prompts {
		if prefix, ok := filters["prefix"]; ok && !strings.HasPrefix(key, prefix) {
			continue
		}
		if tag, ok := filters["tag"]; ok && !containsTag(prompt.metadata.Tags, tag) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Reload is a no-op: embedded prompts never change at runtime.
func (e *EmbeddedRegistry) Reload(ctx context.Context) error {
	return nil
}

// Watch is not supported for embedded prompts.
func (e *EmbeddedRegistry) Watch(ctx context.Context) (<-chan PromptUpdate, error) {
	return nil, fmt.Errorf("embedded registry does not support watch")
}
