// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package agents

import (
	"fmt"

	"github.com/atelier-labs/curio/pkg/types"
)

// All fallback content is deterministic: no randomness, no timestamps, no
// model calls. Whenever model output cannot be parsed or is incomplete,
// the stages substitute these fixed texts so tests can assert on them
// exactly and the caller always receives a schema-valid response.

const (
	// UnknownCreator is the sentinel creator for candidates whose
	// creator field could not be resolved from any known key.
	UnknownCreator = "未知创作者"

	// FallbackCreator marks candidates invented by the fallback path
	// rather than proposed by the model.
	FallbackCreator = "系统推荐"

	// fallbackReason is the generic affinity statement substituted for
	// missing recommendation reasons.
	fallbackReason = "这项推荐与您的偏好高度契合，值得体验。"
)

// DefaultIntroMessage is the theme-appropriate message used when the model
// returns no usable message and for the fixed fallback profile summary.
func DefaultIntroMessage(theme types.Theme) string {
	return fmt.Sprintf("我已经了解您的偏好，正在为您挑选合适的%s。", theme.Label())
}

// FallbackProfile is the fixed profile substituted when the selector
// cannot parse a usable profile from model output.
func FallbackProfile(theme types.Theme) types.UserProfile {
	return types.UserProfile{
		Theme:   theme,
		Summary: DefaultIntroMessage(theme),
		Attributes: map[string]types.ProfileValue{
			"偏好": types.ListValue("多样化体验"),
			"心情": types.StringValue("探索新灵感"),
		},
	}
}

// FallbackCandidates returns the fixed two-entry placeholder list. Two
// entries, not one: the response envelope requires at least two cards, so
// the fallback path must satisfy that bound on its own.
func FallbackCandidates() []types.RecommendationCandidate {
	return []types.RecommendationCandidate{
		{
			Title:    "默认推荐 A",
			Creator:  FallbackCreator,
			Metadata: map[string]string{"备注": "等待真实数据"},
		},
		{
			Title:    "默认推荐 B",
			Creator:  FallbackCreator,
			Metadata: map[string]string{"备注": "等待真实数据"},
		},
	}
}

// FallbackSummary is the deterministic filler summary for a candidate,
// referencing its creator.
func FallbackSummary(c types.RecommendationCandidate) string {
	return fmt.Sprintf("这是一部由%s创作的优秀作品，值得细细品味。", c.Creator)
}

// FallbackReason is the deterministic filler recommendation reason.
func FallbackReason(c types.RecommendationCandidate) string {
	return fallbackReason
}
