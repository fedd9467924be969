// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package agents

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/atelier-labs/curio/pkg/types"
)

// Assembler is the final stage: it merges the profile, candidates,
// summaries, and reasons into a complete response envelope. It makes no
// model call; the closing message is template-based and every missing
// per-candidate field is degraded to deterministic filler rather than
// failing the response.
type Assembler struct {
	theme  types.Theme
	logger *zap.Logger
}

// NewAssembler constructs the assembler stage.
func NewAssembler(theme types.Theme, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		theme:  theme,
		logger: logger.With(zap.String("stage", "assembler"), zap.String("theme", string(theme))),
	}
}

// Assemble builds the response. Candidate order is preserved. A candidate
// list outside the 2-3 envelope bound is a contract violation the
// selector should have prevented; it is returned as an error for the
// orchestrator to classify.
func (a *Assembler) Assemble(
	profile types.UserProfile,
	candidates []types.RecommendationCandidate,
	summaries map[string]string,
	reasons map[string]string,
	introMessage string,
) (*types.RecommendationResponse, error) {
	a.logger.Info("assembler integrating data", zap.Int("candidates", len(candidates)))

	cards := make([]types.RecommendationCard, 0, len(candidates))
	for _, candidate := range candidates {
		summary, ok := summaries[candidate.Title]
		if !ok || summary == "" {
			a.logger.Warn("missing summary, substituting filler", zap.String("title", candidate.Title))
			summary = FallbackSummary(candidate)
		}

		reason, ok := reasons[candidate.Title]
		if !ok || reason == "" {
			a.logger.Warn("missing reason, substituting filler", zap.String("title", candidate.Title))
			reason = FallbackReason(candidate)
		}

		cards = append(cards, types.RecommendationCard{
			RecommendationCandidate: candidate,
			Summary:                 summary,
			Reason:                  reason,
		})
	}

	response := &types.RecommendationResponse{
		Theme:           a.theme,
		UserProfile:     profile,
		Recommendations: cards,
		Message:         a.composeMessage(profile, len(cards), introMessage),
	}

	if err := response.Validate(); err != nil {
		return nil, fmt.Errorf("assembled response invalid: %w", err)
	}

	a.logger.Info("assembler built response", zap.Int("cards", len(cards)))
	return response, nil
}

// composeMessage builds the closing user-facing message from the profile
// and card count. The selector's intro message, when present, leads.
func (a *Assembler) composeMessage(profile types.UserProfile, count int, introMessage string) string {
	label := a.theme.Label()

	var closing string
	if profile.Summary != "" {
		closing = fmt.Sprintf("基于您对%s的偏好（%s），我们为您精选了 %d 部作品。您更倾向于哪一部？我们随时可以为您提供更多延伸信息。",
			label, profile.Summary, count)
	} else {
		closing = fmt.Sprintf("基于您对%s的偏好，我们为您精选了 %d 部作品。您更倾向于哪一部？我们随时可以为您提供更多延伸信息。",
			label, count)
	}

	if introMessage == "" {
		return closing
	}
	return introMessage + "\n\n" + closing
}
