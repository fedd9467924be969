// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package llm

import "context"

// Provider is the generation client interface implemented by each vendor
// package. Implementations must be safe for concurrent use: the pipeline
// runs two stages against the same provider at once.
type Provider interface {
	// Chat sends a conversation to the model and returns the raw response.
	Chat(ctx context.Context, messages []Message) (*Response, error)

	// Name returns the provider name
	Name() string

	// Model returns the model identifier
	Model() string
}
