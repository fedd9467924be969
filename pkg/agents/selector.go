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

// MaxCandidates bounds the candidate list produced by the selector.
const MaxCandidates = 3

// creatorKeys is the priority order for resolving a candidate's creator
// from model output.
var creatorKeys = []string{"creator", "author", "developer", "director", "studio", "producer"}

// Selector is the first pipeline stage: it turns the user's message and
// conversation history into a structured profile, a bounded candidate
// list, and an intro message.
type Selector struct {
	theme        types.Theme
	provider     llm.Provider
	systemPrompt string
	logger       *zap.Logger
}

// NewSelector constructs a selector, binding the theme's selector prompt
// once at construction time.
func NewSelector(ctx context.Context, theme types.Theme, provider llm.Provider, registry prompts.Registry, logger *zap.Logger) (*Selector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	systemPrompt, err := registry.Get(ctx, string(theme)+"."+RoleSelector, nil)
	if err != nil {
		return nil, fmt.Errorf("load selector prompt for theme %s: %w", theme, err)
	}
	return &Selector{
		theme:        theme,
		provider:     provider,
		systemPrompt: systemPrompt,
		logger:       logger.With(zap.String("stage", "selector"), zap.String("theme", string(theme))),
	}, nil
}

// Select processes the user message and generates the profile with
// candidates. Provider failures are returned to the caller; malformed
// model output is absorbed via the fixed fallback and never surfaces as
// an error.
func (s *Selector) Select(ctx context.Context, userMessage string, history []types.ConversationMessage) (types.UserProfile, []types.RecommendationCandidate, string, error) {
	s.logger.Info("selector processing user message")

	messages := make([]llm.Message, 0, len(history)+3)
	messages = append(messages, llm.SystemMessage(s.systemPrompt))

	for _, turn := range history {
		if turn.Content == "" {
			continue
		}
		role := turn.Role
		if role == "" {
			role = "user"
		}
		messages = append(messages, llm.UserMessage(fmt.Sprintf("%s:\n%s", strings.ToUpper(role), turn.Content)))
	}

	messages = append(messages, llm.UserMessage(userMessage))
	messages = append(messages, llm.UserMessage(s.structureInstruction()))

	resp, err := s.provider.Chat(ctx, messages)
	if err != nil {
		return types.UserProfile{}, nil, "", fmt.Errorf("selector generation: %w", err)
	}

	return s.parseResponse(resp.Content)
}

// structureInstruction is the trailing turn requesting strict JSON output.
func (s *Selector) structureInstruction() string {
	return fmt.Sprintf(`请针对 %s 推荐以 JSON 格式回复，严格包含以下字段：
{
  "user_profile": {
    "summary": "一句话总结（可选）",
    "attributes": {
      "标签1": ["值1", "值2"],
      "标签2": "值"
    }
  },
  "candidates": [
    {
      "title": "作品名称",
      "creator": "主要创作者（作者/导演/开发商）",
      "metadata": {
        "平台或年份等字段": "值"
      }
    }
  ],
  "message": "给用户的友好回复"
}
请勿添加额外文本或解释。`, s.theme.Label())
}

func (s *Selector) parseResponse(raw string) (types.UserProfile, []types.RecommendationCandidate, string, error) {
	obj, ok := structured.Parse(raw).Object()
	if !ok {
		s.logger.Warn("selector output not a JSON object, using fallback defaults")
		return s.fallback()
	}

	profile := s.buildProfile(obj["user_profile"])
	candidates := s.buildCandidates(obj["candidates"])

	message := structured.AsString(obj["message"])
	if message == "" {
		message = DefaultIntroMessage(s.theme)
	}

	if len(candidates) < types.MinRecommendations {
		// Downstream stages require at least two candidates; a shorter
		// list is not a recoverable state for them.
		s.logger.Warn("selector returned too few usable candidates, using fallback defaults",
			zap.Int("candidates", len(candidates)))
		return s.fallback()
	}

	s.logger.Info("selector generated profile and candidates",
		zap.Int("attributes", len(profile.Attributes)),
		zap.Int("candidates", len(candidates)))
	return profile, candidates, message, nil
}

func (s *Selector) buildProfile(payload any) types.UserProfile {
	profile := types.UserProfile{
		Theme:      s.theme,
		Attributes: map[string]types.ProfileValue{},
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return profile
	}

	profile.Summary = structured.AsString(obj["summary"])

	attributes, ok := obj["attributes"].(map[string]any)
	if !ok {
		// Some models inline the attributes next to the summary.
		attributes = make(map[string]any, len(obj))
		for key, value := range obj {
			if key != "summary" {
				attributes[key] = value
			}
		}
	}

	for key, value := range attributes {
		profile.Attributes[key] = normalizeProfileValue(value)
	}
	return profile
}

func normalizeProfileValue(value any) types.ProfileValue {
	switch v := value.(type) {
	case []any:
		return types.ListValue(structured.AsStringSlice(v)...)
	case map[string]any:
		return types.MapValue(structured.AsStringMap(v))
	default:
		return types.StringValue(structured.AsString(v))
	}
}

func (s *Selector) buildCandidates(payload any) []types.RecommendationCandidate {
	items, ok := payload.([]any)
	if !ok {
		return nil
	}

	var candidates []types.RecommendationCandidate
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		title := structured.AsString(obj["title"])
		if title == "" {
			continue
		}

		creator := UnknownCreator
		for _, key := range creatorKeys {
			if resolved := structured.AsString(obj[key]); resolved != "" {
				creator = resolved
				break
			}
		}

		metadata, hasMetadata := obj["metadata"].(map[string]any)
		if !hasMetadata {
			// Fold unrecognized fields into metadata.
			metadata = make(map[string]any, len(obj))
			for key, value := range obj {
				if key == "title" || isCreatorKey(key) {
					continue
				}
				metadata[key] = value
			}
		}

		candidates = append(candidates, types.RecommendationCandidate{
			Title:    title,
			Creator:  creator,
			Metadata: structured.AsStringMap(metadata),
		})

		if len(candidates) == MaxCandidates {
			break
		}
	}
	return candidates
}

func isCreatorKey(key string) bool {
	for _, known := range creatorKeys {
		if key == known {
			return true
		}
	}
	return false
}

// fallback returns the fixed deterministic selector output.
func (s *Selector) fallback() (types.UserProfile, []types.RecommendationCandidate, string, error) {
	return FallbackProfile(s.theme), FallbackCandidates(), DefaultIntroMessage(s.theme), nil
}
