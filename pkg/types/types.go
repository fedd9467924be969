// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package types contains shared types used across the curio pipeline.
// This package breaks import cycles by providing common types that the
// agents, orchestration, and server packages all depend on.
package types

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Theme is a content domain selecting which prompt set and fallback text apply.
type Theme string

const (
	ThemeBooks  Theme = "books"
	ThemeGames  Theme = "games"
	ThemeMovies Theme = "movies"
	ThemeAnime  Theme = "anime"
)

// SupportedThemes lists every theme the pipeline can serve, in stable order.
func SupportedThemes() []Theme {
	return []Theme{ThemeBooks, ThemeGames, ThemeMovies, ThemeAnime}
}

// ParseTheme validates a raw theme string from the transport layer.
func ParseTheme(raw string) (Theme, error) {
	t := Theme(raw)
	for _, known := range SupportedThemes() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q", raw)
}

// Label returns the user-facing label for a theme. Unknown themes get a
// generic label so fallback messages always read naturally.
func (t Theme) Label() string {
	switch t {
	case ThemeBooks:
		return "书籍"
	case ThemeGames:
		return "游戏"
	case ThemeMovies:
		return "电影"
	case ThemeAnime:
		return "动漫"
	default:
		return "内容"
	}
}

// ConversationMessage is a single turn supplied by the caller.
// Messages are immutable and ordered chronologically.
type ConversationMessage struct {
	// Role is the message sender (user or assistant)
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// ProfileValueKind discriminates the shape of a profile attribute value.
type ProfileValueKind int

const (
	ProfileString ProfileValueKind = iota
	ProfileList
	ProfileMap
)

// ProfileValue is one attribute value in a user profile. Model output is
// loosely typed, so a value can be a plain string, a list of strings, or a
// string-to-string mapping. The zero value is an empty string.
type ProfileValue struct {
	Kind ProfileValueKind
	Str  string
	List []string
	Map  map[string]string
}

// StringValue wraps a plain string attribute.
func StringValue(s string) ProfileValue {
	return ProfileValue{Kind: ProfileString, Str: s}
}

// ListValue wraps a list attribute.
func ListValue(items ...string) ProfileValue {
	return ProfileValue{Kind: ProfileList, List: items}
}

// MapValue wraps a mapping attribute.
func MapValue(m map[string]string) ProfileValue {
	return ProfileValue{Kind: ProfileMap, Map: m}
}

// MarshalJSON emits the underlying value without the wrapper.
func (v ProfileValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ProfileList:
		if v.List == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.List)
	case ProfileMap:
		if v.Map == nil {
			return json.Marshal(map[string]string{})
		}
		return json.Marshal(v.Map)
	default:
		return json.Marshal(v.Str)
	}
}

// UnmarshalJSON accepts a string, a string list, or a string map.
func (v *ProfileValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = StringValue(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = ListValue(list...)
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err == nil {
		*v = MapValue(m)
		return nil
	}
	return fmt.Errorf("profile value is not a string, list, or map: %s", string(data))
}

// UserProfile is the structured profile extracted by the selector stage.
// It is created once per request and read-only afterward.
type UserProfile struct {
	// Theme these preferences belong to
	Theme Theme `json:"theme"`

	// Summary is an optional one-line natural language summary
	Summary string `json:"summary,omitempty"`

	// Attributes holds structured preference attributes captured
	// during the conversation
	Attributes map[string]ProfileValue `json:"attributes"`
}

// RecommendationCandidate is an unconfirmed item proposed by the selector
// stage, pending summary/reason enrichment. Title is the join key across
// the downstream summary and reason maps: titles must be unique within one
// request's candidate list, otherwise a later entry's summary and reason
// silently overwrite the earlier one's in the output maps.
type RecommendationCandidate struct {
	// Title is the content title (non-empty)
	Title string `json:"title"`

	// Creator is the primary creator such as author, director,
	// developer, or studio
	Creator string `json:"creator"`

	// Metadata holds additional fields (platform, year, genre, etc.)
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks the candidate invariants.
func (c *RecommendationCandidate) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("candidate title must not be empty")
	}
	if c.Creator == "" {
		return fmt.Errorf("candidate %q: creator must not be empty", c.Title)
	}
	return nil
}

// MinCardFieldLength is the minimum length, in runes, of a card's summary
// and reason fields.
const MinCardFieldLength = 10

// RecommendationCard is a fully enriched candidate ready for delivery.
// Immutable once built.
type RecommendationCard struct {
	RecommendationCandidate

	// Summary is a concise summary highlighting the item's essence
	Summary string `json:"summary"`

	// Reason is a personalized reason aligning the item to the user profile
	Reason string `json:"reason"`
}

// Validate checks the card invariants, counting lengths in runes so that
// CJK fallback text measures the same as it reads.
func (c *RecommendationCard) Validate() error {
	if err := c.RecommendationCandidate.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(c.Summary) < MinCardFieldLength {
		return fmt.Errorf("card %q: summary shorter than %d characters", c.Title, MinCardFieldLength)
	}
	if utf8.RuneCountInString(c.Reason) < MinCardFieldLength {
		return fmt.Errorf("card %q: reason shorter than %d characters", c.Title, MinCardFieldLength)
	}
	return nil
}

// RecommendationRequest is the request payload for a recommendation run.
type RecommendationRequest struct {
	// UserMessage is the user's latest message describing their needs
	UserMessage string `json:"user_message"`

	// ConversationHistory holds previous turns for additional context
	ConversationHistory []ConversationMessage `json:"conversation_history,omitempty"`

	// RequestID is optional; the orchestrator generates one when absent
	RequestID string `json:"request_id,omitempty"`
}

// Response envelope bounds.
const (
	MinRecommendations = 2
	MaxRecommendations = 3
)

// RecommendationResponse is the unified response envelope for all themes.
type RecommendationResponse struct {
	Theme           Theme                `json:"theme"`
	UserProfile     UserProfile          `json:"user_profile"`
	Recommendations []RecommendationCard `json:"recommendations"`
	Message         string               `json:"message"`
	RequestID       string               `json:"request_id"`
}

// Validate checks the envelope invariants: 2-3 cards, each card valid.
func (r *RecommendationResponse) Validate() error {
	if n := len(r.Recommendations); n < MinRecommendations || n > MaxRecommendations {
		return fmt.Errorf("response must contain %d-%d recommendations, got %d",
			MinRecommendations, MaxRecommendations, n)
	}
	for i := range r.Recommendations {
		if err := r.Recommendations[i].Validate(); err != nil {
			return fmt.Errorf("recommendation %d: %w", i, err)
		}
	}
	if r.Message == "" {
		return fmt.Errorf("response message must not be empty")
	}
	return nil
}
