// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package server exposes the recommendation pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atelier-labs/curio/pkg/orchestration"
	"github.com/atelier-labs/curio/pkg/types"
)

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// DefaultCORSConfig returns a permissive CORS configuration
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled:          true,
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           86400, // 24 hours
	}
}

// Config holds HTTP server configuration.
type Config struct {
	Addr string
	CORS CORSConfig
}

// errorKind values returned in error payloads.
const (
	kindUnsupportedTheme  = "unsupported_theme"
	kindWorkflowTimeout   = "workflow_timeout"
	kindGenerationFailure = "generation_failure"
)

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// HTTPServer serves the recommendation API.
type HTTPServer struct {
	orchestrator *orchestration.Orchestrator
	httpServer   *http.Server
	logger       *zap.Logger
	corsConfig   CORSConfig
}

// NewHTTPServer creates an HTTP server for the given orchestrator.
func NewHTTPServer(orchestrator *orchestration.Orchestrator, config Config, logger *zap.Logger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPServer{
		orchestrator: orchestrator,
		logger:       logger,
		corsConfig:   config.CORS,
		httpServer: &http.Server{
			Addr:         config.Addr,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 0, // orchestrator enforces its own deadline
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Handler builds the route table. Exposed for httptest use.
func (h *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/{theme}/recommend", h.handleRecommend)

	var handler http.Handler = mux
	if h.corsConfig.Enabled {
		handler = h.corsMiddleware(mux)
	}
	return handler
}

// Start starts the HTTP server and blocks until it stops.
func (h *HTTPServer) Start(ctx context.Context) error {
	h.httpServer.Handler = h.Handler()

	h.logger.Info("Starting HTTP server", zap.String("addr", h.httpServer.Addr))
	if err := h.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP server")
	return h.httpServer.Shutdown(ctx)
}

type recommendRequest struct {
	UserMessage         string                      `json:"user_message"`
	ConversationHistory []types.ConversationMessage `json:"conversation_history"`
	RequestID           string                      `json:"request_id,omitempty"`
}

func (h *HTTPServer) handleRecommend(w http.ResponseWriter, r *http.Request) {
	theme := r.PathValue("theme")

	var body recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, errorPayload{
			Kind:    "invalid_request",
			Message: "request body must be valid JSON",
		})
		return
	}
	if strings.TrimSpace(body.UserMessage) == "" {
		h.writeError(w, http.StatusBadRequest, errorPayload{
			Kind:    "invalid_request",
			Message: "user_message is required",
		})
		return
	}

	resp, err := h.orchestrator.Run(r.Context(), theme, &types.RecommendationRequest{
		UserMessage:         body.UserMessage,
		ConversationHistory: body.ConversationHistory,
		RequestID:           body.RequestID,
	})
	if err != nil {
		h.writeRunError(w, theme, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

// writeRunError maps the orchestration taxonomy to response statuses.
// Internal detail never reaches the caller.
func (h *HTTPServer) writeRunError(w http.ResponseWriter, theme string, err error) {
	switch {
	case errors.Is(err, orchestration.ErrUnsupportedTheme):
		h.writeError(w, http.StatusNotFound, errorPayload{
			Kind:    kindUnsupportedTheme,
			Message: fmt.Sprintf("theme %q is not supported", theme),
		})
	case errors.Is(err, orchestration.ErrWorkflowTimeout):
		h.writeError(w, http.StatusGatewayTimeout, errorPayload{
			Kind:    kindWorkflowTimeout,
			Message: fmt.Sprintf("recommendation did not complete within %.0f seconds", h.orchestrator.Timeout().Seconds()),
		})
	default:
		h.logger.Error("recommendation failed",
			zap.String("theme", theme),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, errorPayload{
			Kind:    kindGenerationFailure,
			Message: "recommendation could not be generated",
		})
	}
}

func (h *HTTPServer) writeError(w http.ResponseWriter, status int, payload errorPayload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: payload}); err != nil {
		h.logger.Warn("failed to write error response", zap.Error(err))
	}
}

// corsMiddleware adds CORS headers to HTTP responses
func (h *HTTPServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowedOrigin := h.getAllowedOrigin(origin)
		if allowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		}

		if h.corsConfig.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if len(h.corsConfig.AllowedMethods) > 0 {
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(h.corsConfig.AllowedMethods, ", "))
		}
		if len(h.corsConfig.AllowedHeaders) > 0 {
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(h.corsConfig.AllowedHeaders, ", "))
		}
		if len(h.corsConfig.ExposedHeaders) > 0 {
			w.Header().Set("Access-Control-Expose-Headers", strings.Join(h.corsConfig.ExposedHeaders, ", "))
		}
		if h.corsConfig.MaxAge > 0 {
			w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", h.corsConfig.MaxAge))
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getAllowedOrigin checks if the origin is allowed and returns it, or empty string if not
func (h *HTTPServer) getAllowedOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	for _, allowed := range h.corsConfig.AllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}
