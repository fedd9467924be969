// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package types

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// responseSchemaJSON is the JSON Schema for the response envelope.
// Compiled once at package init; a broken schema is a programming error.
//
//go:embed response_schema.json
var responseSchemaJSON []byte

var responseSchema = gojsonschema.NewBytesLoader(responseSchemaJSON)

// ValidateResponseSchema checks the serialized response envelope against the
// embedded JSON Schema. This is a belt-and-suspenders check on top of
// Validate(): the assembler's fallback filling should make failures
// impossible, so any error here indicates a defect, not a user condition.
func ValidateResponseSchema(resp *RecommendationResponse) error {
	doc, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response for schema validation: %w", err)
	}

	result, err := gojsonschema.Validate(responseSchema, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return fmt.Errorf("response failed schema validation: %s", strings.Join(issues, "; "))
}
