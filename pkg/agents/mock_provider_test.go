// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package agents

import (
	"context"
	"sync"

	"github.com/atelier-labs/curio/pkg/llm"
	"github.com/atelier-labs/curio/pkg/prompts"
)

// mockProvider returns a scripted response, or an error, for every call.
type mockProvider struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	messages [][]llm.Message
}

func (m *mockProvider) Chat(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	m.mu.Lock()
	m.calls++
	m.messages = append(m.messages, messages)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Response{Content: m.response, StopReason: "stop"}, nil
}

func (m *mockProvider) Name() string  { return "mock" }
func (m *mockProvider) Model() string { return "mock-model" }

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockProvider) lastMessages() []llm.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return nil
	}
	return m.messages[len(m.messages)-1]
}

// testPrompts returns the embedded prompt set wired for stage tests.
func testPrompts(t interface{ Fatalf(string, ...any) }) prompts.Registry {
	registry, err := prompts.NewEmbeddedRegistry()
	if err != nil {
		t.Fatalf("load embedded prompts: %v", err)
	}
	return registry
}
