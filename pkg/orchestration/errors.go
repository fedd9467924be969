// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package orchestration

import "errors"

// Workflow error taxonomy. Transport layers map these to response
// statuses; everything else surfaces as a generic failure. Parse
// failures never appear here, the stages absorb them into deterministic
// fallback content.
var (
	// ErrUnsupportedTheme means the requested theme has no pipeline.
	ErrUnsupportedTheme = errors.New("unsupported theme")

	// ErrGenerationFailure means a model call failed outright after any
	// provider-side retries.
	ErrGenerationFailure = errors.New("generation failure")

	// ErrWorkflowTimeout means the run exceeded the whole-run deadline.
	ErrWorkflowTimeout = errors.New("workflow timeout")

	// ErrValidationFailure means the assembled response violated the
	// envelope contract.
	ErrValidationFailure = errors.New("validation failure")
)
