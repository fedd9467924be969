// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package orchestration runs the recommendation pipeline: selector,
// then summary and insight in parallel, then assembly, under a single
// whole-run deadline.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atelier-labs/curio/pkg/agents"
	"github.com/atelier-labs/curio/pkg/observability"
	"github.com/atelier-labs/curio/pkg/types"
)

// Phase is the workflow state for one request. Phases advance strictly
// forward; FAILED is reachable from any of them.
type Phase string

const (
	PhaseSelecting  Phase = "SELECTING"
	PhaseGenerating Phase = "GENERATING"
	PhaseAssembling Phase = "ASSEMBLING"
	PhaseDone       Phase = "DONE"
	PhaseFailed     Phase = "FAILED"
)

// Stage labels for duration metrics.
const (
	stageSelector  = "selector"
	stageExtractor = "extractor"
	stageInsight   = "insight"
	stageAssembler = "assembler"
)

// DefaultTimeout bounds one whole Run invocation.
const DefaultTimeout = 60 * time.Second

// Config configures the orchestrator.
type Config struct {
	// Registry supplies per-theme stage bundles
	Registry *agents.Registry

	// Collector records workflow metrics; nil disables instrumentation
	Collector *observability.Collector

	// Logger for workflow progress
	Logger *zap.Logger

	// Timeout is the whole-run deadline; DefaultTimeout when zero
	Timeout time.Duration
}

// Orchestrator sequences the pipeline stages for recommendation
// requests. Safe for concurrent use.
type Orchestrator struct {
	registry  *agents.Registry
	collector *observability.Collector
	logger    *zap.Logger
	timeout   time.Duration
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(config Config) *Orchestrator {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Orchestrator{
		registry:  config.Registry,
		collector: config.Collector,
		logger:    config.Logger,
		timeout:   config.Timeout,
	}
}

// Timeout returns the configured whole-run deadline.
func (o *Orchestrator) Timeout() time.Duration {
	return o.timeout
}

// Run executes the full pipeline for one request. The theme is the raw
// request value; an unknown theme fails before any stage is invoked.
// Errors are always one of the package sentinels, so callers can map
// them to response statuses with errors.Is. On deadline expiry both
// in-flight branches are abandoned and no partial response is returned.
func (o *Orchestrator) Run(ctx context.Context, theme string, req *types.RecommendationRequest) (*types.RecommendationResponse, error) {
	start := time.Now()

	parsed, err := types.ParseTheme(theme)
	if err != nil {
		o.observeRequest(theme, observability.OutcomeUnsupportedTheme, time.Since(start))
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTheme, theme)
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	logger := o.logger.With(
		zap.String("request_id", requestID),
		zap.String("theme", theme))

	runCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.run(runCtx, logger, parsed, req, requestID)
	duration := time.Since(start)
	if err != nil {
		err = o.classify(runCtx, err)
		o.observeRequest(theme, outcomeFor(err), duration)
		logger.Error("workflow failed",
			zap.String("phase", string(PhaseFailed)),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, err
	}

	o.observeRequest(theme, observability.OutcomeSuccess, duration)
	logger.Info("workflow complete",
		zap.String("phase", string(PhaseDone)),
		zap.Duration("duration", duration),
		zap.Int("recommendations", len(resp.Recommendations)))
	return resp, nil
}

func (o *Orchestrator) run(ctx context.Context, logger *zap.Logger, theme types.Theme, req *types.RecommendationRequest, requestID string) (*types.RecommendationResponse, error) {
	bundle, err := o.registry.GetBundle(ctx, theme)
	if err != nil {
		return nil, fmt.Errorf("obtain stage bundle: %w", err)
	}

	logger.Info("workflow phase", zap.String("phase", string(PhaseSelecting)))
	selectStart := time.Now()
	profile, candidates, introMessage, err := bundle.Selector.Select(ctx, req.UserMessage, req.ConversationHistory)
	o.observeStage(theme, stageSelector, time.Since(selectStart))
	if err != nil {
		return nil, fmt.Errorf("selector: %w", err)
	}

	logger.Info("workflow phase",
		zap.String("phase", string(PhaseGenerating)),
		zap.Int("candidates", len(candidates)))
	summaries, reasons, err := o.generate(ctx, theme, bundle, profile, candidates)
	if err != nil {
		return nil, err
	}

	logger.Info("workflow phase", zap.String("phase", string(PhaseAssembling)))
	assembleStart := time.Now()
	resp, err := bundle.Assembler.Assemble(profile, candidates, summaries, reasons, introMessage)
	o.observeStage(theme, stageAssembler, time.Since(assembleStart))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailure, err)
	}

	resp.RequestID = requestID
	if err := types.ValidateResponseSchema(resp); err != nil {
		// The envelope already passed Validate; a schema mismatch here
		// means the schema and the structs drifted apart.
		logger.Error("assembled response failed schema validation", zap.Error(err))
	}
	return resp, nil
}

// generate runs the summary and insight branches concurrently and joins
// them. The first branch failure cancels the sibling.
func (o *Orchestrator) generate(ctx context.Context, theme types.Theme, bundle *agents.StageBundle, profile types.UserProfile, candidates []types.RecommendationCandidate) (map[string]string, map[string]string, error) {
	branchCtx, cancelBranches := context.WithCancel(ctx)
	defer cancelBranches()

	var (
		wg        sync.WaitGroup
		summaries map[string]string
		reasons   map[string]string
	)
	branchErrs := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		stageStart := time.Now()
		result, err := bundle.Extractor.Summarize(branchCtx, candidates)
		o.observeStage(theme, stageExtractor, time.Since(stageStart))
		if err != nil {
			cancelBranches()
			branchErrs <- fmt.Errorf("summary branch: %w", err)
			return
		}
		summaries = result
	}()
	go func() {
		defer wg.Done()
		stageStart := time.Now()
		result, err := bundle.Insight.Explain(branchCtx, candidates, profile)
		o.observeStage(theme, stageInsight, time.Since(stageStart))
		if err != nil {
			cancelBranches()
			branchErrs <- fmt.Errorf("insight branch: %w", err)
			return
		}
		reasons = result
	}()
	wg.Wait()
	close(branchErrs)

	if err := <-branchErrs; err != nil {
		return nil, nil, err
	}
	return summaries, reasons, nil
}

// classify maps a raw stage error onto the package taxonomy. Deadline
// expiry wins over whatever error the cancellation provoked.
func (o *Orchestrator) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrValidationFailure) || errors.Is(err, ErrUnsupportedTheme):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w after %s: %v", ErrWorkflowTimeout, o.timeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrGenerationFailure, err)
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedTheme):
		return observability.OutcomeUnsupportedTheme
	case errors.Is(err, ErrWorkflowTimeout):
		return observability.OutcomeTimeout
	case errors.Is(err, ErrValidationFailure):
		return observability.OutcomeValidationFailure
	default:
		return observability.OutcomeGenerationFailure
	}
}

func (o *Orchestrator) observeRequest(theme, outcome string, duration time.Duration) {
	if o.collector != nil {
		o.collector.ObserveRequest(theme, outcome, duration)
	}
}

func (o *Orchestrator) observeStage(theme types.Theme, stage string, duration time.Duration) {
	if o.collector != nil {
		o.collector.ObserveStage(string(theme), stage, duration)
	}
}
