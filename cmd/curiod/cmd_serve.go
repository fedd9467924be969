// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	internallog "github.com/atelier-labs/curio/internal/log"
	"github.com/atelier-labs/curio/pkg/agents"
	"github.com/atelier-labs/curio/pkg/llm"
	"github.com/atelier-labs/curio/pkg/llm/factory"
	"github.com/atelier-labs/curio/pkg/observability"
	"github.com/atelier-labs/curio/pkg/orchestration"
	"github.com/atelier-labs/curio/pkg/prompts"
	"github.com/atelier-labs/curio/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Curio recommendation server",
	Long: `Start the Curio HTTP server.

The server will:
- Initialize the configured LLM provider
- Load prompt templates (embedded defaults or a prompt directory)
- Expose POST /api/{theme}/recommend, /health and /metrics

Press Ctrl+C to gracefully shutdown.`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// createPromptRegistry builds the prompt registry from configuration.
// A configured directory wins over the embedded defaults.
func createPromptRegistry(config *Config, logger *zap.Logger) (prompts.Registry, error) {
	var base prompts.Registry
	if config.Prompts.Dir != "" {
		fileRegistry := prompts.NewFileRegistry(config.Prompts.Dir)
		if err := fileRegistry.Reload(context.Background()); err != nil {
			return nil, fmt.Errorf("load prompts from %s: %w", config.Prompts.Dir, err)
		}
		logger.Info("Loaded prompts from directory", zap.String("dir", config.Prompts.Dir))
		base = fileRegistry
	} else {
		embedded, err := prompts.NewEmbeddedRegistry()
		if err != nil {
			return nil, fmt.Errorf("load embedded prompts: %w", err)
		}
		logger.Info("Using embedded default prompts")
		base = embedded
	}

	ttl := time.Duration(config.Prompts.CacheTTLSeconds) * time.Second
	cached := prompts.NewCachedRegistry(base, ttl)

	if config.Prompts.Dir != "" && config.Prompts.HotReload {
		if _, err := cached.Watch(context.Background()); err != nil {
			logger.Warn("Prompt hot-reload unavailable", zap.Error(err))
		} else {
			logger.Info("Prompt hot-reload enabled")
		}
	}
	return cached, nil
}

func createLLMProvider(config *Config, logger *zap.Logger) (llm.Provider, error) {
	return factory.NewProvider(factory.Config{
		Provider:        config.LLM.Provider,
		AnthropicAPIKey: config.LLM.AnthropicAPIKey,
		AnthropicModel:  config.LLM.AnthropicModel,
		OpenAIAPIKey:    config.LLM.OpenAIAPIKey,
		OpenAIModel:     config.LLM.OpenAIModel,
		OpenAIEndpoint:  config.LLM.OpenAIEndpoint,
		MaxTokens:       config.LLM.MaxTokens,
		Temperature:     config.LLM.Temperature,
		Timeout:         time.Duration(config.LLM.TimeoutSeconds) * time.Second,
		RateLimiter: llm.RateLimiterConfig{
			Enabled:           config.LLM.RateLimit.Enabled,
			RequestsPerSecond: config.LLM.RateLimit.RequestsPerSecond,
			BurstCapacity:     config.LLM.RateLimit.BurstCapacity,
			MinDelay:          time.Duration(config.LLM.RateLimit.MinDelayMs) * time.Millisecond,
			QueueTimeout:      time.Duration(config.LLM.RateLimit.QueueTimeoutSec) * time.Second,
			Logger:            logger,
		},
	})
}

func runServe(cmd *cobra.Command, args []string) {
	if err := config.Validate(); err != nil {
		stdlog.Fatalf("Configuration validation failed: %v", err)
	}

	// Create production logger (stack traces only for ERROR level)
	zapConfig := zap.NewProductionConfig()

	logLevel := zap.InfoLevel // default
	if config.Logging.Level != "" {
		if err := logLevel.UnmarshalText([]byte(config.Logging.Level)); err != nil {
			stdlog.Printf("Invalid log level %q, using INFO: %v", config.Logging.Level, err)
		}
	}
	zapConfig.Level = zap.NewAtomicLevelAt(logLevel)

	if config.Logging.File != "" {
		zapConfig.OutputPaths = []string{config.Logging.File}
		zapConfig.ErrorOutputPaths = []string{config.Logging.File}
	}

	logger, err := zapConfig.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		stdlog.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	internallog.SetLogger(logger)

	logger.Info("Starting Curio Server", zap.String("version", rootCmd.Version))

	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		logger.Info("Config file loaded", zap.String("path", configFileUsed))
	} else {
		logger.Info("No config file found, using defaults + environment variables")
	}

	provider, err := createLLMProvider(config, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM provider", zap.Error(err))
	}
	logger.Info("LLM provider initialized",
		zap.String("provider", provider.Name()),
		zap.String("model", provider.Model()))

	promptRegistry, err := createPromptRegistry(config, logger)
	if err != nil {
		logger.Fatal("Failed to create prompt registry", zap.Error(err))
	}

	stageRegistry := agents.NewRegistry(agents.RegistryConfig{
		Provider: provider,
		Prompts:  promptRegistry,
		Logger:   logger,
	})

	collector := observability.NewCollector(prometheus.DefaultRegisterer)

	orchestrator := orchestration.NewOrchestrator(orchestration.Config{
		Registry:  stageRegistry,
		Collector: collector,
		Logger:    logger,
		Timeout:   time.Duration(config.Pipeline.TimeoutSeconds) * time.Second,
	})

	httpSrv := server.NewHTTPServer(orchestrator, server.Config{
		Addr: fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		CORS: server.CORSConfig{
			Enabled:          config.Server.CORS.Enabled,
			AllowedOrigins:   config.Server.CORS.AllowedOrigins,
			AllowedMethods:   config.Server.CORS.AllowedMethods,
			AllowedHeaders:   config.Server.CORS.AllowedHeaders,
			ExposedHeaders:   config.Server.CORS.ExposedHeaders,
			AllowCredentials: config.Server.CORS.AllowCredentials,
			MaxAge:           config.Server.CORS.MaxAge,
		},
	}, logger)

	// Handle graceful shutdown
	go func() {
		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
		<-sigch
		logger.Info("Shutting down gracefully... (press Ctrl+C again to force)")

		go func() {
			<-sigch
			logger.Warn("Force shutdown requested")
			os.Exit(1)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Stop(ctx); err != nil {
			logger.Warn("Error stopping HTTP server", zap.Error(err))
		}
		logger.Info("Shutdown complete")
	}()

	logger.Info("Ready to recommend")
	if err := httpSrv.Start(context.Background()); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
}
