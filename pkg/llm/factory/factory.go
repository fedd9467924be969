// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package factory creates LLM providers dynamically based on configuration.
package factory

import (
	"fmt"
	"os"
	"time"

	"github.com/atelier-labs/curio/pkg/llm"
	"github.com/atelier-labs/curio/pkg/llm/anthropic"
	"github.com/atelier-labs/curio/pkg/llm/openai"
)

// Config holds configuration for creating LLM providers.
type Config struct {
	// Provider selects the vendor: "anthropic" or "openai"
	Provider string

	// Anthropic configuration
	AnthropicAPIKey string
	AnthropicModel  string

	// OpenAI configuration
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIEndpoint string

	// Common settings
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration

	RateLimiter llm.RateLimiterConfig
}

// NewProvider creates an LLM provider for the configured vendor.
// API keys fall back to the conventional environment variables.
func NewProvider(config Config) (llm.Provider, error) {
	switch config.Provider {
	case "", "anthropic":
		apiKey := config.AnthropicAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic API key not configured (set llm.anthropic_api_key or ANTHROPIC_API_KEY)")
		}
		return anthropic.NewClient(anthropic.Config{
			APIKey:            apiKey,
			Model:             config.AnthropicModel,
			Timeout:           config.Timeout,
			MaxTokens:         config.MaxTokens,
			Temperature:       config.Temperature,
			RateLimiterConfig: config.RateLimiter,
		}), nil

	case "openai":
		apiKey := config.OpenAIAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("openai API key not configured (set llm.openai_api_key or OPENAI_API_KEY)")
		}
		return openai.NewClient(openai.Config{
			APIKey:            apiKey,
			Model:             config.OpenAIModel,
			Endpoint:          config.OpenAIEndpoint,
			Timeout:           config.Timeout,
			MaxTokens:         config.MaxTokens,
			Temperature:       config.Temperature,
			RateLimiterConfig: config.RateLimiter,
		}), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider %q (supported: anthropic, openai)", config.Provider)
	}
}
