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

func newTestExtractor(t *testing.T, provider *mockProvider) *EssenceExtractor {
	t.Helper()
	extractor, err := NewEssenceExtractor(context.Background(), types.ThemeBooks, provider, testPrompts(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	return extractor
}

func sampleCandidates() []types.RecommendationCandidate {
	return []types.RecommendationCandidate{
		{Title: "三体", Creator: "刘慈欣"},
		{Title: "基地", Creator: "阿西莫夫"},
	}
}

func TestExtractorParsesArrayShape(t *testing.T) {
	provider := &mockProvider{response: `[
  {"title": "三体", "summary": "黑暗森林法则下的宇宙文明博弈。"},
  {"title": "基地", "summary": "银河帝国衰亡与心理史学的兴起。"}
]`}

	extractor := newTestExtractor(t, provider)
	summaries, err := extractor.Summarize(context.Background(), sampleCandidates())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"三体": "黑暗森林法则下的宇宙文明博弈。",
		"基地": "银河帝国衰亡与心理史学的兴起。",
	}, summaries)
}

func TestExtractorParsesObjectShape(t *testing.T) {
	provider := &mockProvider{response: "```json\n" + `{
  "summaries": [
    {"title": "三体", "summary": "宏大的硬科幻史诗。"}
  ]
}` + "\n```"}

	extractor := newTestExtractor(t, provider)
	summaries, err := extractor.Summarize(context.Background(), sampleCandidates())
	require.NoError(t, err)

	// Partial coverage is returned as-is; the assembler handles the
	// missing titles with filler.
	assert.Equal(t, map[string]string{"三体": "宏大的硬科幻史诗。"}, summaries)
}

func TestExtractorSkipsUnusableEntries(t *testing.T) {
	provider := &mockProvider{response: `[
  {"title": "", "summary": "没有标题"},
  {"title": "三体"},
  {"title": "基地", "summary": "可用的摘要内容。"},
  "not an object"
]`}

	extractor := newTestExtractor(t, provider)
	summaries, err := extractor.Summarize(context.Background(), sampleCandidates())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"基地": "可用的摘要内容。"}, summaries)
}

func TestExtractorFallbackOnUnusableOutput(t *testing.T) {
	provider := &mockProvider{response: "抱歉，我帮不了你。"}

	extractor := newTestExtractor(t, provider)
	candidates := sampleCandidates()
	summaries, err := extractor.Summarize(context.Background(), candidates)
	require.NoError(t, err)

	require.Len(t, summaries, 2)
	for _, c := range candidates {
		assert.Equal(t, FallbackSummary(c), summaries[c.Title])
		assert.Contains(t, summaries[c.Title], c.Creator)
	}
}

func TestExtractorPropagatesProviderError(t *testing.T) {
	providerErr := errors.New("rate limited")
	provider := &mockProvider{err: providerErr}

	extractor := newTestExtractor(t, provider)
	_, err := extractor.Summarize(context.Background(), sampleCandidates())
	require.Error(t, err)
	assert.True(t, errors.Is(err, providerErr))
}

func TestExtractorPromptListsCandidates(t *testing.T) {
	provider := &mockProvider{response: `[{"title": "三体", "summary": "足够长的摘要内容。"}]`}

	extractor := newTestExtractor(t, provider)
	_, err := extractor.Summarize(context.Background(), sampleCandidates())
	require.NoError(t, err)

	messages := provider.lastMessages()
	require.Len(t, messages, 2)
	assert.Contains(t, messages[1].Content, "三体（刘慈欣）")
	assert.Contains(t, messages[1].Content, "基地（阿西莫夫）")
}
