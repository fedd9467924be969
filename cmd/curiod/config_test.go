// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()

	config, err := LoadConfig("")
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.True(t, config.Server.CORS.Enabled)
	assert.Equal(t, []string{"*"}, config.Server.CORS.AllowedOrigins)

	assert.Equal(t, "anthropic", config.LLM.Provider)
	assert.Equal(t, 4096, config.LLM.MaxTokens)
	assert.True(t, config.LLM.RateLimit.Enabled)
	assert.Equal(t, 2.0, config.LLM.RateLimit.RequestsPerSecond)

	assert.Empty(t, config.Prompts.Dir)
	assert.Equal(t, 0, config.Prompts.CacheTTLSeconds)
	assert.Equal(t, 60, config.Pipeline.TimeoutSeconds)
	assert.Equal(t, "info", config.Logging.Level)

	require.NoError(t, config.Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	viper.Reset()

	cfgPath := filepath.Join(t.TempDir(), "curiod.yaml")
	content := `server:
  port: 9090
llm:
  provider: openai
  openai_model: gpt-4.1
prompts:
  dir: ./prompts
  hot_reload: true
pipeline:
  timeout_seconds: 30
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	config, err := LoadConfig(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "openai", config.LLM.Provider)
	assert.Equal(t, "gpt-4.1", config.LLM.OpenAIModel)
	assert.Equal(t, "./prompts", config.Prompts.Dir)
	assert.True(t, config.Prompts.HotReload)
	assert.Equal(t, 30, config.Pipeline.TimeoutSeconds)
	assert.Equal(t, "debug", config.Logging.Level)

	// File values override defaults but untouched sections keep them
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	viper.Reset()
	t.Setenv("CURIO_SERVER_PORT", "7070")
	t.Setenv("CURIO_LOGGING_LEVEL", "warn")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "zero port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.LLM.Provider = "mistral" },
			wantErr: "llm.provider",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Pipeline.TimeoutSeconds = -1 },
			wantErr: "pipeline.timeout_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{
				Server:   ServerConfig{Port: 8080},
				LLM:      LLMConfig{Provider: "anthropic"},
				Pipeline: PipelineConfig{TimeoutSeconds: 60},
			}
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
