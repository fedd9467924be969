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

func newTestSelector(t *testing.T, theme types.Theme, provider *mockProvider) *Selector {
	t.Helper()
	selector, err := NewSelector(context.Background(), theme, provider, testPrompts(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	return selector
}

func TestSelectorParsesStructuredResponse(t *testing.T) {
	provider := &mockProvider{response: "```json\n" + `{
  "user_profile": {
    "summary": "偏爱硬科幻",
    "attributes": {
      "题材": ["科幻", "太空歌剧"],
      "心情": "想要震撼"
    }
  },
  "candidates": [
    {"title": "三体", "author": "刘慈欣", "metadata": {"年份": "2008"}},
    {"title": "基地", "author": "阿西莫夫"}
  ],
  "message": "为您找到两部科幻经典。"
}` + "\n```"}

	selector := newTestSelector(t, types.ThemeBooks, provider)
	profile, candidates, message, err := selector.Select(context.Background(), "想看硬科幻", nil)
	require.NoError(t, err)

	assert.Equal(t, types.ThemeBooks, profile.Theme)
	assert.Equal(t, "偏爱硬科幻", profile.Summary)
	assert.Equal(t, types.ListValue("科幻", "太空歌剧"), profile.Attributes["题材"])
	assert.Equal(t, types.StringValue("想要震撼"), profile.Attributes["心情"])

	require.Len(t, candidates, 2)
	assert.Equal(t, "三体", candidates[0].Title)
	assert.Equal(t, "刘慈欣", candidates[0].Creator)
	assert.Equal(t, map[string]string{"年份": "2008"}, candidates[0].Metadata)
	assert.Equal(t, "基地", candidates[1].Title)

	assert.Equal(t, "为您找到两部科幻经典。", message)
}

func TestSelectorCreatorKeyPriority(t *testing.T) {
	// "creator" outranks the theme-specific alternates.
	provider := &mockProvider{response: `{
  "candidates": [
    {"title": "塞尔达传说", "creator": "任天堂", "developer": "Nintendo EPD"},
    {"title": "艾尔登法环", "developer": "FromSoftware"},
    {"title": "无名之作"}
  ],
  "message": "ok"
}`}

	selector := newTestSelector(t, types.ThemeGames, provider)
	_, candidates, _, err := selector.Select(context.Background(), "推荐游戏", nil)
	require.NoError(t, err)

	require.Len(t, candidates, 3)
	assert.Equal(t, "任天堂", candidates[0].Creator)
	assert.Equal(t, "FromSoftware", candidates[1].Creator)
	assert.Equal(t, UnknownCreator, candidates[2].Creator)
}

func TestSelectorFoldsUnknownFieldsIntoMetadata(t *testing.T) {
	provider := &mockProvider{response: `{
  "candidates": [
    {"title": "星际穿越", "director": "诺兰", "year": 2014, "genres": ["科幻", "剧情"]},
    {"title": "盗梦空间", "director": "诺兰"}
  ],
  "message": "ok"
}`}

	selector := newTestSelector(t, types.ThemeMovies, provider)
	_, candidates, _, err := selector.Select(context.Background(), "推荐电影", nil)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "诺兰", candidates[0].Creator)
	assert.Equal(t, map[string]string{
		"year":   "2014",
		"genres": "科幻、剧情",
	}, candidates[0].Metadata)
}

func TestSelectorTruncatesToMaxCandidates(t *testing.T) {
	provider := &mockProvider{response: `{
  "candidates": [
    {"title": "A1", "creator": "c"},
    {"title": "A2", "creator": "c"},
    {"title": "A3", "creator": "c"},
    {"title": "A4", "creator": "c"},
    {"title": "A5", "creator": "c"}
  ],
  "message": "ok"
}`}

	selector := newTestSelector(t, types.ThemeAnime, provider)
	_, candidates, _, err := selector.Select(context.Background(), "推荐动漫", nil)
	require.NoError(t, err)

	require.Len(t, candidates, MaxCandidates)
	// Model order is preserved through truncation.
	assert.Equal(t, "A1", candidates[0].Title)
	assert.Equal(t, "A2", candidates[1].Title)
	assert.Equal(t, "A3", candidates[2].Title)
}

func TestSelectorDropsEmptyTitles(t *testing.T) {
	provider := &mockProvider{response: `{
  "candidates": [
    {"title": "  ", "creator": "c"},
    {"title": "有效作品甲", "creator": "c"},
    {"title": "有效作品乙", "creator": "c"}
  ],
  "message": "ok"
}`}

	selector := newTestSelector(t, types.ThemeBooks, provider)
	_, candidates, _, err := selector.Select(context.Background(), "推荐", nil)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "有效作品甲", candidates[0].Title)
	assert.Equal(t, "有效作品乙", candidates[1].Title)
}

func TestSelectorFallbackOnUnparseableOutput(t *testing.T) {
	provider := &mockProvider{response: "抱歉，我无法给出JSON。"}

	selector := newTestSelector(t, types.ThemeBooks, provider)
	profile, candidates, message, err := selector.Select(context.Background(), "推荐", nil)
	require.NoError(t, err)

	// The fallback is fixed and fully deterministic.
	assert.Equal(t, FallbackProfile(types.ThemeBooks), profile)
	assert.Equal(t, FallbackCandidates(), candidates)
	assert.Equal(t, DefaultIntroMessage(types.ThemeBooks), message)

	require.Len(t, candidates, 2)
	for _, c := range candidates {
		assert.Equal(t, FallbackCreator, c.Creator)
		assert.Equal(t, "等待真实数据", c.Metadata["备注"])
	}
}

func TestSelectorFallbackOnTooFewCandidates(t *testing.T) {
	// Zero usable candidates and a single candidate both trigger the
	// fixed fallback: downstream assembly needs at least two cards.
	responses := []string{
		`{"candidates": [{"title": ""}], "message": "ok"}`,
		`{"candidates": [{"title": "唯一候选", "creator": "c"}], "message": "ok"}`,
	}
	for _, response := range responses {
		provider := &mockProvider{response: response}
		selector := newTestSelector(t, types.ThemeGames, provider)

		_, candidates, _, err := selector.Select(context.Background(), "推荐", nil)
		require.NoError(t, err)
		assert.Equal(t, FallbackCandidates(), candidates)
	}
}

func TestSelectorDefaultMessageWhenAbsent(t *testing.T) {
	provider := &mockProvider{response: `{
  "candidates": [
    {"title": "千与千寻", "creator": "宫崎骏"},
    {"title": "你的名字", "creator": "新海诚"}
  ]
}`}

	selector := newTestSelector(t, types.ThemeAnime, provider)
	_, _, message, err := selector.Select(context.Background(), "推荐动漫", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultIntroMessage(types.ThemeAnime), message)
}

func TestSelectorPropagatesProviderError(t *testing.T) {
	providerErr := errors.New("connection refused")
	provider := &mockProvider{err: providerErr}

	selector := newTestSelector(t, types.ThemeBooks, provider)
	_, _, _, err := selector.Select(context.Background(), "推荐", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, providerErr))
}

func TestSelectorIncludesHistoryInPrompt(t *testing.T) {
	provider := &mockProvider{response: `{"candidates": [{"title": "X", "creator": "c"}, {"title": "Y", "creator": "c"}], "message": "ok"}`}

	selector := newTestSelector(t, types.ThemeBooks, provider)
	history := []types.ConversationMessage{
		{Role: "user", Content: "我喜欢科幻"},
		{Role: "assistant", Content: "明白，您偏好科幻题材"},
		{Content: ""},
	}
	_, _, _, err := selector.Select(context.Background(), "再推荐几本", history)
	require.NoError(t, err)

	messages := provider.lastMessages()
	// System prompt, two history turns (the empty one dropped), the user
	// message, and the structuring instruction.
	require.Len(t, messages, 5)
	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, messages[1].Content, "USER:")
	assert.Contains(t, messages[1].Content, "我喜欢科幻")
	assert.Contains(t, messages[2].Content, "ASSISTANT:")
	assert.Equal(t, "再推荐几本", messages[3].Content)
	assert.Contains(t, messages[4].Content, "user_profile")
}

func TestSelectorMissingPromptFailsConstruction(t *testing.T) {
	_, err := NewSelector(context.Background(), types.Theme("podcasts"), &mockProvider{}, testPrompts(t), zaptest.NewLogger(t))
	assert.Error(t, err)
}
