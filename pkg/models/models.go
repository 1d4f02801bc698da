// Copyright 2025 Rizome Labs, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package models abstracts the language model behind the healing loop.
//
// The engine never talks to a model vendor directly: it calls an injected
// completion hook with a prompt and reads back free-form text. Any backend
// that can complete a prompt can drive repair.
package models

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// CompletionFunc is the opaque model hook: prompt in, reply text out.
// Implementations must honor context cancellation.
type CompletionFunc func(ctx context.Context, prompt string) (string, error)

// Model is a completion backend with an identity
type Model interface {
	// ModelID returns the backend's model identifier
	ModelID() string

	// Complete sends a prompt and returns the reply text
	Complete(ctx context.Context, prompt string) (string, error)
}

// Completion adapts a Model to a CompletionFunc
func Completion(m Model) CompletionFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		return m.Complete(ctx, prompt)
	}
}

// ToolSchema describes one capability of a skill module, as shown to the
// model in repair and reflection prompts.
type ToolSchema struct {
	Module      string            `json:"module"`
	Function    string            `json:"function"`
	Description string            `json:"description"`
	Inputs      map[string]string `json:"inputs"`
	Output      string            `json:"output"`
}

// String returns a single-line signature for the schema
func (s ToolSchema) String() string {
	params := make([]string, 0, len(s.Inputs))
	for name := range s.Inputs {
		params = append(params, name)
	}
	sort.Strings(params)
	return fmt.Sprintf("%s.%s(%s) -> %s", s.Module, s.Function, strings.Join(params, ", "), s.Output)
}

// FormatSchemas renders tool schemas as a prompt section. Each capability
// gets its signature, description, and typed parameters.
func FormatSchemas(schemas []ToolSchema) string {
	if len(schemas) == 0 {
		return "(no tools available)"
	}

	var sb strings.Builder
	for i, schema := range schemas {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("- %s from %q", schema.Function, schema.Module))
		if schema.Description != "" {
			sb.WriteString(": " + schema.Description)
		}
		sb.WriteString("\n")

		params := make([]string, 0, len(schema.Inputs))
		for name := range schema.Inputs {
			params = append(params, name)
		}
		sort.Strings(params)
		for _, name := range params {
			sb.WriteString(fmt.Sprintf("    %s: %s\n", name, schema.Inputs[name]))
		}
		if schema.Output != "" {
			sb.WriteString(fmt.Sprintf("    returns: %s\n", schema.Output))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
