// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package prompts

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

// Interpolate performs variable substitution in a prompt template.
//
// Uses {{.variable_name}} syntax (like Go templates but simpler).
// Placeholders without a matching variable are left untouched so a
// missing value is visible in the rendered prompt.
//
// Example:
//
//	template := "请针对 {{.theme_label}} 推荐回复"
//	result := Interpolate(template, map[string]interface{}{
//	    "theme_label": "书籍",
//	})
func Interpolate(template string, vars map[string]interface{}) string {
	if vars == nil {
		return template
	}

	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}}"), "{{.")

		value, ok := vars[varName]
		if !ok {
			return match
		}
		return stringify(value)
	})
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
