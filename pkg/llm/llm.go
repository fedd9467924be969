// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package llm defines the generation-client boundary consumed by the
// pipeline stages. Providers send a conversation to a language model and
// return raw text; they never parse or validate model content. Provider
// failures are transport/provider errors, distinct from the malformed
// output conditions the stages absorb internally.
package llm

// Message is a single turn in the conversation sent to the provider.
type Message struct {
	// Role is the message sender (system, user, assistant)
	Role string

	// Content is the message text
	Content string
}

// Usage tracks token consumption for a single call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Response is the raw provider response.
type Response struct {
	// Content is the raw model text, unparsed
	Content string

	// StopReason reports why generation ended (stop, length, ...)
	StopReason string

	// Usage holds token counts when the provider reports them
	Usage Usage
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
