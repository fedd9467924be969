// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigFileName is the name of the config file
const DefaultConfigFileName = "curiod"

// Config holds all configuration for the Curio server.
// Priority: CLI flags > config file > env vars > defaults
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// LLM provider configuration
	LLM LLMConfig `mapstructure:"llm"`

	// Prompts configuration
	Prompts PromptsConfig `mapstructure:"prompts"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// CORS configuration
	CORS CORSSettings `mapstructure:"cors"`
}

// CORSSettings holds cross-origin settings for the HTTP API.
type CORSSettings struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	// Provider selects the vendor: "anthropic" or "openai"
	Provider string `mapstructure:"provider"`

	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	AnthropicModel  string `mapstructure:"anthropic_model"`

	OpenAIAPIKey   string `mapstructure:"openai_api_key"`
	OpenAIModel    string `mapstructure:"openai_model"`
	OpenAIEndpoint string `mapstructure:"openai_endpoint"`

	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`

	// TimeoutSeconds bounds a single provider HTTP call
	TimeoutSeconds int `mapstructure:"timeout_seconds"`

	// Rate limiting across all stages sharing the provider
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig holds provider rate limiting configuration.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstCapacity     int     `mapstructure:"burst_capacity"`
	MinDelayMs        int     `mapstructure:"min_delay_ms"`
	QueueTimeoutSec   int     `mapstructure:"queue_timeout_seconds"`
}

// PromptsConfig holds prompt registry configuration.
type PromptsConfig struct {
	// Dir is a directory of <theme>/<role>.yaml prompt files.
	// Empty means the embedded defaults are used.
	Dir string `mapstructure:"dir"`

	// HotReload watches Dir for changes (ignored for embedded prompts)
	HotReload bool `mapstructure:"hot_reload"`

	// CacheTTLSeconds bounds the prompt cache; 0 caches forever
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

// PipelineConfig holds orchestrator configuration.
type PipelineConfig struct {
	// TimeoutSeconds is the whole-run deadline for one request
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`

	// File redirects log output when set
	File string `mapstructure:"file"`
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	switch c.LLM.Provider {
	case "", "anthropic", "openai":
	default:
		return fmt.Errorf("llm.provider must be anthropic or openai, got %q", c.LLM.Provider)
	}
	if c.Pipeline.TimeoutSeconds < 0 {
		return fmt.Errorf("pipeline.timeout_seconds must not be negative")
	}
	return nil
}

// LoadConfig loads configuration from file, environment, and defaults.
func LoadConfig(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config search paths (in order of priority)
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/curio/")
		viper.SetConfigName(DefaultConfigFileName)
		viper.SetConfigType("yaml")
	}

	// Read config file (if it exists)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file %s: %w", viper.ConfigFileUsed(), err)
		}
		// Config file not found; using defaults + env vars + flags
	}

	// Bind environment variables, e.g. CURIO_SERVER_PORT
	viper.SetEnvPrefix("CURIO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	// CORS defaults (permissive for development)
	viper.SetDefault("server.cors.enabled", true)
	viper.SetDefault("server.cors.allowed_origins", []string{"*"})
	viper.SetDefault("server.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	viper.SetDefault("server.cors.allowed_headers", []string{"*"})
	viper.SetDefault("server.cors.max_age", 86400)

	// LLM defaults
	viper.SetDefault("llm.provider", "anthropic")
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.temperature", 1.0)
	viper.SetDefault("llm.timeout_seconds", 120)
	viper.SetDefault("llm.rate_limit.enabled", true)
	viper.SetDefault("llm.rate_limit.requests_per_second", 2.0)
	viper.SetDefault("llm.rate_limit.burst_capacity", 5)
	viper.SetDefault("llm.rate_limit.min_delay_ms", 200)
	viper.SetDefault("llm.rate_limit.queue_timeout_seconds", 60)

	// Prompt defaults
	viper.SetDefault("prompts.dir", "")
	viper.SetDefault("prompts.hot_reload", false)
	viper.SetDefault("prompts.cache_ttl_seconds", 0)

	// Pipeline defaults
	viper.SetDefault("pipeline.timeout_seconds", 60)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
}
