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

// Package skills defines the capability modules that sandboxed scripts can
// import. A skill is a named module exporting one or more capabilities;
// scripts bind them with named imports and call them like plain functions.
// Implementations run on the host and receive the runtime context
// explicitly, never through ambient state.
package skills

import (
	"context"
	"fmt"
	"sort"

	"github.com/ctxprotocol/context-sub000/pkg/models"
	"github.com/ctxprotocol/context-sub000/pkg/runtime"
)

// Input describes one parameter of a capability
type Input struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// InvokeFunc is the host-side implementation of a capability. Arguments
// arrive positionally, exported from the script's call site.
//
// Implementations must honor ctx cancellation. The sandbox interrupt only
// preempts script code, not Go code: ctx carries the execution deadline,
// and a capability that ignores it can hold a timed-out execution open
// until it returns on its own.
type InvokeFunc func(ctx context.Context, rc *runtime.Context, args ...interface{}) (interface{}, error)

// Capability is one callable function exported by a skill module
type Capability struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Inputs      map[string]*Input `json:"inputs"`
	OutputType  string            `json:"output_type"`
	Invoke      InvokeFunc        `json:"-"`
}

// Skill is a module of capabilities importable from sandboxed scripts.
// Names are path-like, e.g. "weather/forecast".
type Skill interface {
	Name() string
	Description() string
	Capabilities() map[string]*Capability
}

// BaseSkill provides a simple Skill implementation
type BaseSkill struct {
	name         string
	description  string
	capabilities map[string]*Capability
}

// NewBaseSkill creates a new base skill
func NewBaseSkill(name, description string) *BaseSkill {
	return &BaseSkill{
		name:         name,
		description:  description,
		capabilities: make(map[string]*Capability),
	}
}

// Name implements Skill
func (s *BaseSkill) Name() string { return s.name }

// Description implements Skill
func (s *BaseSkill) Description() string { return s.description }

// Capabilities implements Skill
func (s *BaseSkill) Capabilities() map[string]*Capability { return s.capabilities }

// AddCapability registers a capability on the skill
func (s *BaseSkill) AddCapability(c *Capability) *BaseSkill {
	s.capabilities[c.Name] = c
	return s
}

// Schemas returns the model-facing schemas for all capabilities of a skill,
// sorted by function name.
func Schemas(s Skill) []models.ToolSchema {
	caps := s.Capabilities()
	names := make([]string, 0, len(caps))
	for name := range caps {
		names = append(names, name)
	}
	sort.Strings(names)

	schemas := make([]models.ToolSchema, 0, len(names))
	for _, name := range names {
		c := caps[name]
		inputs := make(map[string]string, len(c.Inputs))
		for param, input := range c.Inputs {
			inputs[param] = input.Type
		}
		schemas = append(schemas, models.ToolSchema{
			Module:      s.Name(),
			Function:    c.Name,
			Description: c.Description,
			Inputs:      inputs,
			Output:      c.OutputType,
		})
	}
	return schemas
}

// Argument helpers shared by capability implementations.

// StringArg extracts a required string argument by position
func StringArg(args []interface{}, idx int, name string) (string, error) {
	if idx >= len(args) {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	s, ok := args[idx].(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", name, args[idx])
	}
	if s == "" {
		return "", fmt.Errorf("argument %q must not be empty", name)
	}
	return s, nil
}

// OptionalStringArg extracts an optional string argument by position
func OptionalStringArg(args []interface{}, idx int, fallback string) string {
	if idx >= len(args) || args[idx] == nil {
		return fallback
	}
	if s, ok := args[idx].(string); ok {
		return s
	}
	return fallback
}

// IntArg extracts an optional numeric argument by position. Script numbers
// export as int64 or float64 depending on their value.
func IntArg(args []interface{}, idx int, fallback int) int {
	if idx >= len(args) || args[idx] == nil {
		return fallback
	}
	switch v := args[idx].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// MapArg extracts an optional object argument by position
func MapArg(args []interface{}, idx int) map[string]interface{} {
	if idx >= len(args) {
		return nil
	}
	m, _ := args[idx].(map[string]interface{})
	return m
}
