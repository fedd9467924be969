// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTheme(t *testing.T) {
	for _, theme := range SupportedThemes() {
		parsed, err := ParseTheme(string(theme))
		require.NoError(t, err)
		assert.Equal(t, theme, parsed)
	}

	_, err := ParseTheme("podcasts")
	assert.Error(t, err)

	_, err = ParseTheme("")
	assert.Error(t, err)

	// Theme matching is exact, no case folding.
	_, err = ParseTheme("Books")
	assert.Error(t, err)
}

func TestThemeLabel(t *testing.T) {
	assert.Equal(t, "书籍", ThemeBooks.Label())
	assert.Equal(t, "游戏", ThemeGames.Label())
	assert.Equal(t, "电影", ThemeMovies.Label())
	assert.Equal(t, "动漫", ThemeAnime.Label())
	assert.Equal(t, "内容", Theme("podcasts").Label())
}

func TestProfileValueJSON(t *testing.T) {
	tests := []struct {
		name  string
		value ProfileValue
		want  string
	}{
		{"string", StringValue("探索新灵感"), `"探索新灵感"`},
		{"list", ListValue("科幻", "悬疑"), `["科幻","悬疑"]`},
		{"map", MapValue(map[string]string{"平台": "PC"}), `{"平台":"PC"}`},
		{"empty list", ListValue(), `[]`},
		{"zero value", ProfileValue{}, `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var back ProfileValue
			require.NoError(t, json.Unmarshal(data, &back))
			roundTrip, err := json.Marshal(back)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(roundTrip))
		})
	}
}

func TestProfileValueUnmarshalRejectsOtherShapes(t *testing.T) {
	var v ProfileValue
	assert.Error(t, json.Unmarshal([]byte(`{"nested": {"deep": true}}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`42`), &v))
}

func TestCandidateValidate(t *testing.T) {
	valid := RecommendationCandidate{Title: "三体", Creator: "刘慈欣"}
	assert.NoError(t, valid.Validate())

	noTitle := RecommendationCandidate{Creator: "刘慈欣"}
	assert.Error(t, noTitle.Validate())

	noCreator := RecommendationCandidate{Title: "三体"}
	assert.Error(t, noCreator.Validate())
}

func TestCardValidateCountsRunes(t *testing.T) {
	card := RecommendationCard{
		RecommendationCandidate: RecommendationCandidate{Title: "三体", Creator: "刘慈欣"},
		// Exactly ten CJK characters each: far fewer bytes-per-rune
		// shaped text must still pass.
		Summary: "一部宏大的硬科幻经典。",
		Reason:  "契合您对科幻的偏好。",
	}
	assert.NoError(t, card.Validate())

	card.Summary = "太短了"
	assert.Error(t, card.Validate())
}

func validResponse() *RecommendationResponse {
	return &RecommendationResponse{
		Theme: ThemeBooks,
		UserProfile: UserProfile{
			Theme:      ThemeBooks,
			Attributes: map[string]ProfileValue{"偏好": ListValue("科幻")},
		},
		Recommendations: []RecommendationCard{
			{
				RecommendationCandidate: RecommendationCandidate{Title: "三体", Creator: "刘慈欣"},
				Summary:                 "一部格局宏大的硬科幻经典作品。",
				Reason:                  "与您对科幻题材的偏好高度契合。",
			},
			{
				RecommendationCandidate: RecommendationCandidate{Title: "基地", Creator: "阿西莫夫"},
				Summary:                 "银河帝国兴衰的恢弘科幻史诗。",
				Reason:                  "延续您喜爱的宇宙尺度叙事风格。",
			},
		},
		Message:   "基于您对书籍的偏好，我们为您精选了 2 部作品。",
		RequestID: "req-123",
	}
}

func TestResponseValidate(t *testing.T) {
	assert.NoError(t, validResponse().Validate())

	tooFew := validResponse()
	tooFew.Recommendations = tooFew.Recommendations[:1]
	assert.Error(t, tooFew.Validate())

	tooMany := validResponse()
	extra := tooMany.Recommendations[0]
	tooMany.Recommendations = append(tooMany.Recommendations,
		tooMany.Recommendations[1], extra, extra)
	assert.Error(t, tooMany.Validate())

	noMessage := validResponse()
	noMessage.Message = ""
	assert.Error(t, noMessage.Validate())

	badCard := validResponse()
	badCard.Recommendations[0].Reason = "太短"
	assert.Error(t, badCard.Validate())
}

func TestValidateResponseSchema(t *testing.T) {
	assert.NoError(t, ValidateResponseSchema(validResponse()))

	missingID := validResponse()
	missingID.RequestID = ""
	assert.Error(t, ValidateResponseSchema(missingID))

	badTheme := validResponse()
	badTheme.Theme = Theme("podcasts")
	assert.Error(t, ValidateResponseSchema(badTheme))

	shortSummary := validResponse()
	shortSummary.Recommendations[0].Summary = "短"
	assert.Error(t, ValidateResponseSchema(shortSummary))
}
