// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package prompts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FileRegistry loads prompts from YAML files in a directory.
//
// Directory structure:
//
//	prompts/
//	  books/
//	    selector.yaml   # Key: "books.selector"
//	    extractor.yaml  # Key: "books.extractor"
//	    insight.yaml    # Key: "books.insight"
//	  games/
//	    ...
//
// YAML format:
//
//	metadata:
//	  key: books.selector
//	  version: 1.0.0
//	  description: Selector system prompt for book recommendations
//	  tags: [books, selector]
//	content: |
//	  你是一位资深的图书顾问...
type FileRegistry struct {
	rootDir string
	mu      sync.RWMutex
	prompts map[string]*filePrompt

	watcherOnce sync.Once
	updates     chan PromptUpdate
}

// filePrompt is a loaded prompt with its metadata.
type filePrompt struct {
	metadata PromptMetadata
	content  string
}

// promptFile is the on-disk YAML shape.
type promptFile struct {
	Metadata struct {
		Key         string   `yaml:"key"`
		Version     string   `yaml:"version"`
		Description string   `yaml:"description"`
		Tags        []string `yaml:"tags"`
		Variables   []string `yaml:"variables"`
	} `yaml:"metadata"`
	Content string `yaml:"content"`
}

// NewFileRegistry creates a new file-based prompt registry.
//
// Example:
//
//	registry := prompts.NewFileRegistry("./prompts")
//	if err := registry.Reload(ctx); err != nil {
//	    log.Fatal(err)
//	}
func NewFileRegistry(rootDir string) *FileRegistry {
	return &FileRegistry{
		rootDir: rootDir,
		prompts: make(map[string]*filePrompt),
	}
}

// Get retrieves a prompt by key with variable interpolation.
func (f *FileRegistry) Get(ctx context.Context, key string, vars map[string]interface{}) (string, error) {
	f.mu.RLock()
	prompt, ok := f.prompts[key]
	f.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPromptNotFound, key)
	}
	return Interpolate(prompt.content, vars), nil
}

// GetMetadata retrieves prompt metadata without the content.
func (f *FileRegistry) GetMetadata(ctx context.Context, key string) (*PromptMetadata, error) {
	f.mu.RLock()
	prompt, ok := f.prompts[key]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPromptNotFound, key)
	}
	metadata := prompt.metadata
	return &metadata, nil
}

// List lists all available prompt keys, optionally filtered by "prefix"
// or "tag".
func (f *FileRegistry) List(ctx context.Context, filters map[string]string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	keys := make([]string, 0, len(f.prompts))
	for key, prompt := range f.prompts {
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

// Reload re-reads every prompt file under the root directory.
func (f *FileRegistry) Reload(ctx context.Context) error {
	loaded := make(map[string]*filePrompt)

	err := filepath.WalkDir(f.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return nil
		}

		prompt, err := loadPromptFile(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}

		key := prompt.metadata.Key
		if key == "" {
			key = keyFromPath(f.rootDir, path)
			prompt.metadata.Key = key
		}
		loaded[key] = prompt
		return nil
	})
	if err != nil {
		return fmt.Errorf("reload prompts from %s: %w", f.rootDir, err)
	}

	f.mu.Lock()
	f.prompts = loaded
	f.mu.Unlock()
	return nil
}

// Watch returns a channel that receives updates when prompt files change.
// The registry reloads itself before publishing each update.
func (f *FileRegistry) Watch(ctx context.Context) (<-chan PromptUpdate, error) {
	var startErr error
	f.watcherOnce.Do(func() {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			startErr = fmt.Errorf("create watcher: %w", err)
			return
		}

		dirs := []string{f.rootDir}
		entries, err := os.ReadDir(f.rootDir)
		if err == nil {
			for _, entry := range entries {
				if entry.IsDir() {
					dirs = append(dirs, filepath.Join(f.rootDir, entry.Name()))
				}
			}
		}
		for _, dir := range dirs {
			if err := watcher.Add(dir); err != nil {
				startErr = fmt.Errorf("watch %s: %w", dir, err)
				_ = watcher.Close()
				return
			}
		}

		f.updates = make(chan PromptUpdate, 16)
		go f.watchLoop(ctx, watcher)
	})
	if startErr != nil {
		return nil, startErr
	}
	return f.updates, nil
}

func (f *FileRegistry) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() { _ = watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".yaml") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := f.Reload(ctx); err != nil {
				continue
			}
			key := keyFromPath(f.rootDir, event.Name)
			f.mu.RLock()
			prompt, ok := f.prompts[key]
			f.mu.RUnlock()
			update := PromptUpdate{Key: key, UpdatedAt: time.Now()}
			if ok {
				update.Version = prompt.metadata.Version
			}
			select {
			case f.updates <- update:
			default:
				// Slow consumer; drop rather than block the watcher.
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func loadPromptFile(path string) (*filePrompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file promptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if strings.TrimSpace(file.Content) == "" {
		return nil, fmt.Errorf("prompt content is empty")
	}

	info, _ := os.Stat(path)
	metadata := PromptMetadata{
		Key:         file.Metadata.Key,
		Version:     file.Metadata.Version,
		Description: file.Metadata.Description,
		Tags:        file.Metadata.Tags,
		Variables:   file.Metadata.Variables,
	}
	if info != nil {
		metadata.UpdatedAt = info.ModTime()
	}

	return &filePrompt{metadata: metadata, content: file.Content}, nil
}

// keyFromPath derives "<theme>.<role>" from "<root>/<theme>/<role>.yaml".
func keyFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, ".yaml")
	return strings.ReplaceAll(rel, string(filepath.Separator), ".")
}

func containsTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}
