// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/atelier-labs/curio/pkg/types"
)

func newTestInsight(t *testing.T, provider *mockProvider) *InsightProvider {
	t.Helper()
	insight, err := NewInsightProvider(context.Background(), types.ThemeBooks, provider, testPrompts(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	return insight
}

func sampleProfile() types.UserProfile {
	return types.UserProfile{
		Theme:   types.ThemeBooks,
		Summary: "偏爱硬科幻",
		Attributes: map[string]types.ProfileValue{
			"题材": types.ListValue("科幻"),
		},
	}
}

func TestInsightParsesReasonsObject(t *testing.T) {
	provider := &mockProvider{response: `{
  "reasons": [
    {"title": "三体", "recommendation_reason": "契合您对硬科幻的偏爱。"},
    {"title": "基地", "reason": "延续您喜欢的宏大叙事。"}
  ]
}`}

	insight := newTestInsight(t, provider)
	reasons, err := insight.Explain(context.Background(), sampleCandidates(), sampleProfile())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"三体": "契合您对硬科幻的偏爱。",
		"基地": "延续您喜欢的宏大叙事。",
	}, reasons)
}

func TestInsightAcceptsAlternateTextKeys(t *testing.T) {
	provider := &mockProvider{response: `[
  {"title": "三体", "insight": "黑暗森林设定正合您的口味。"}
]`}

	insight := newTestInsight(t, provider)
	reasons, err := insight.Explain(context.Background(), sampleCandidates(), sampleProfile())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"三体": "黑暗森林设定正合您的口味。"}, reasons)
}

func TestInsightFallbackOnUnusableOutput(t *testing.T) {
	provider := &mockProvider{response: "```json\n{\"reasons\": \"不是数组\"}\n```"}

	insight := newTestInsight(t, provider)
	candidates := sampleCandidates()
	reasons, err := insight.Explain(context.Background(), candidates, sampleProfile())
	require.NoError(t, err)

	require.Len(t, reasons, 2)
	for _, c := range candidates {
		assert.Equal(t, FallbackReason(c), reasons[c.Title])
	}
}

func TestInsightPromptCarriesProfileAndCandidates(t *testing.T) {
	provider := &mockProvider{response: `[{"title": "三体", "recommendation_reason": "理由内容足够长。"}]`}

	insight := newTestInsight(t, provider)
	_, err := insight.Explain(context.Background(), sampleCandidates(), sampleProfile())
	require.NoError(t, err)

	messages := provider.lastMessages()
	require.Len(t, messages, 2)
	assert.Contains(t, messages[1].Content, "偏爱硬科幻")
	assert.Contains(t, messages[1].Content, "三体")
	assert.Contains(t, messages[1].Content, "基地")
}

func TestInsightPropagatesProviderError(t *testing.T) {
	providerErr := errors.New("upstream 500")
	provider := &mockProvider{err: providerErr}

	insight := newTestInsight(t, provider)
	_, err := insight.Explain(context.Background(), sampleCandidates(), sampleProfile())
	require.Error(t, err)
	assert.True(t, errors.Is(err, providerErr))
}
