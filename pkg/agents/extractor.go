// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/atelier-labs/curio/pkg/llm"
	"github.com/atelier-labs/curio/pkg/prompts"
	"github.com/atelier-labs/curio/pkg/structured"
	"github.com/atelier-labs/curio/pkg/types"
)

// EssenceExtractor generates a per-candidate summary. It runs concurrently
// with InsightProvider against the same candidate list; the two stages
// share no mutable state.
type EssenceExtractor struct {
	theme        types.Theme
	provider     llm.Provider
	systemPrompt string
	logger       *zap.Logger
}

// NewEssenceExtractor constructs the extractor stage, binding the theme's
// extractor prompt once.
func NewEssenceExtractor(ctx context.Context, theme types.Theme, provider llm.Provider, registry prompts.Registry, logger *zap.Logger) (*EssenceExtractor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	systemPrompt, err := registry.Get(ctx, string(theme)+"."+RoleExtractor, nil)
	if err != nil {
		return nil, fmt.Errorf("load extractor prompt for theme %s: %w", theme, err)
	}
	return &EssenceExtractor{
		theme:        theme,
		provider:     provider,
		systemPrompt: systemPrompt,
		logger:       logger.With(zap.String("stage", "extractor"), zap.String("theme", string(theme))),
	}, nil
}

// Summarize generates summaries keyed by candidate title. Provider
// failures are returned; unusable model output yields the deterministic
// fallback mapping covering every candidate.
func (e *EssenceExtractor) Summarize(ctx context.Context, candidates []types.RecommendationCandidate) (map[string]string, error) {
	e.logger.Info("extractor processing candidates", zap.Int("count", len(candidates)))

	var list strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&list, "- %s（%s）\n", c.Title, c.Creator)
	}

	messages := []llm.Message{
		llm.SystemMessage(e.systemPrompt),
		llm.UserMessage(fmt.Sprintf(`请为以下作品生成摘要：

%s
以JSON数组格式返回，每个元素包含 title 和 summary 字段。`, list.String())),
	}

	resp, err := e.provider.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("extractor generation: %w", err)
	}

	summaries := parseTitleTextEntries(resp.Content, "summaries", []string{"summary"})
	if len(summaries) == 0 {
		e.logger.Warn("extractor response unusable, using fallback summaries")
		summaries = make(map[string]string, len(candidates))
		for _, c := range candidates {
			summaries[c.Title] = FallbackSummary(c)
		}
		return summaries, nil
	}

	e.logger.Info("extractor generated summaries", zap.Int("count", len(summaries)))
	return summaries, nil
}

// parseTitleTextEntries decodes model output shaped as either a JSON array
// of {title, <text>} objects or an object holding such an array under
// fieldName. Entries missing a non-empty title or text are skipped.
// Duplicate titles overwrite earlier entries, matching the join-key
// semantics documented on RecommendationCandidate.
func parseTitleTextEntries(raw, fieldName string, textKeys []string) map[string]string {
	value := structured.Parse(raw)

	var entries []any
	if arr, ok := value.Array(); ok {
		entries = arr
	} else if obj, ok := value.Object(); ok {
		if nested, ok := obj[fieldName].([]any); ok {
			entries = nested
		}
	}

	result := make(map[string]string)
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		title := structured.AsString(obj["title"])
		if title == "" {
			continue
		}
		for _, key := range textKeys {
			if text := structured.AsString(obj[key]); text != "" {
				result[title] = text
				break
			}
		}
	}
	return result
}
