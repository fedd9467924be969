// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/atelier-labs/curio/pkg/llm"
	"github.com/atelier-labs/curio/pkg/prompts"
	"github.com/atelier-labs/curio/pkg/types"
)

// InsightProvider generates a personalized recommendation reason per
// candidate from the user profile. It runs concurrently with
// EssenceExtractor; the two stages never examine each other's output.
type InsightProvider struct {
	theme        types.Theme
	provider     llm.Provider
	systemPrompt string
	logger       *zap.Logger
}

// NewInsightProvider constructs the insight stage, binding the theme's
// insight prompt once.
func NewInsightProvider(ctx context.Context, theme types.Theme, provider llm.Provider, registry prompts.Registry, logger *zap.Logger) (*InsightProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	systemPrompt, err := registry.Get(ctx, string(theme)+"."+RoleInsight, nil)
	if err != nil {
		return nil, fmt.Errorf("load insight prompt for theme %s: %w", theme, err)
	}
	return &InsightProvider{
		theme:        theme,
		provider:     provider,
		systemPrompt: systemPrompt,
		logger:       logger.With(zap.String("stage", "insight"), zap.String("theme", string(theme))),
	}, nil
}

// insightPayload is the prompt payload serialized for the model.
type insightPayload struct {
	Theme       types.Theme                     `json:"theme"`
	UserProfile types.UserProfile               `json:"user_profile"`
	Candidates  []types.RecommendationCandidate `json:"candidates"`
}

// Explain generates recommendation reasons keyed by candidate title.
// Provider failures are returned; unusable model output yields the
// deterministic fallback mapping covering every candidate.
func (p *InsightProvider) Explain(ctx context.Context, candidates []types.RecommendationCandidate, profile types.UserProfile) (map[string]string, error) {
	p.logger.Info("insight processing candidates", zap.Int("count", len(candidates)))

	payload, err := json.MarshalIndent(insightPayload{
		Theme:       p.theme,
		UserProfile: profile,
		Candidates:  candidates,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal insight payload: %w", err)
	}

	messages := []llm.Message{
		llm.SystemMessage(p.systemPrompt),
		llm.UserMessage(fmt.Sprintf(`请基于以下用户画像与候选内容，生成30-50字的个性化推荐理由：
%s

仅返回JSON数组或包含 reasons 字段的对象，字段名为 title 与 recommendation_reason。`, payload)),
	}

	resp, err := p.provider.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("insight generation: %w", err)
	}

	reasons := parseTitleTextEntries(resp.Content, "reasons",
		[]string{"recommendation_reason", "reason", "insight"})
	if len(reasons) == 0 {
		p.logger.Warn("insight response unusable, using fallback reasons")
		reasons = make(map[string]string, len(candidates))
		for _, c := range candidates {
			reasons[c.Title] = FallbackReason(c)
		}
		return reasons, nil
	}

	p.logger.Info("insight generated reasons", zap.Int("count", len(reasons)))
	return reasons, nil
}
