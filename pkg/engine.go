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

// Package engine runs AI-authored scripts with self-healing.
//
// A script imports capabilities from allow-listed modules, executes in an
// isolated JavaScript sandbox with a wall-clock timeout, and on failure is
// repaired by the caller's language model within a bounded retry budget.
// Successful results are cross-checked against the capability call history
// and reconsidered when they carry unexplained nulls.
//
// This package re-exports the core types; the subpackages hold the
// implementations.
package engine

// Re-export core types and interfaces from subpackages
import (
	"context"

	"github.com/ctxprotocol/context-sub000/pkg/healing"
	"github.com/ctxprotocol/context-sub000/pkg/mediator"
	"github.com/ctxprotocol/context-sub000/pkg/models"
	"github.com/ctxprotocol/context-sub000/pkg/monitoring"
	"github.com/ctxprotocol/context-sub000/pkg/runtime"
	"github.com/ctxprotocol/context-sub000/pkg/sandbox"
	"github.com/ctxprotocol/context-sub000/pkg/skills"
	"github.com/ctxprotocol/context-sub000/pkg/utils"
)

const Version = "0.1.0"

// Skill system
type (
	Skill          = skills.Skill
	BaseSkill      = skills.BaseSkill
	Capability     = skills.Capability
	Registry       = skills.Registry
	PaidToolConfig = skills.PaidToolConfig
	PaidInvoker    = skills.PaidInvoker
	MCPInvoker     = skills.MCPInvoker
)

// Execution runtime
type (
	Context       = runtime.Context
	Grant         = runtime.Grant
	GrantMap      = runtime.GrantMap
	CallRecord    = runtime.CallRecord
	ProgressEvent = runtime.ProgressEvent
	ProgressSink  = runtime.ProgressSink
	Stage         = runtime.Stage
)

// Sandbox
type (
	Result         = sandbox.Result
	FailureKind    = sandbox.FailureKind
	SandboxOptions = sandbox.Options
)

// Healing loop
type (
	Options = healing.Options
	Outcome = healing.Outcome
)

// Model system
type (
	Model             = models.Model
	CompletionFunc    = models.CompletionFunc
	ToolSchema        = models.ToolSchema
	OpenAIServerModel = models.OpenAIServerModel
)

// Monitoring
type (
	Tally    = monitoring.Tally
	LogLevel = monitoring.LogLevel
)

// Error types
type (
	EngineError      = utils.EngineError
	CapabilityError  = utils.CapabilityError
	ScriptError      = utils.ScriptError
	TimeoutError     = utils.TimeoutError
	GenerationError  = utils.GenerationError
	MaxAttemptsError = utils.MaxAttemptsError
)

// Failure kinds
const (
	KindNone      = sandbox.KindNone
	KindViolation = sandbox.KindViolation
	KindScript    = sandbox.KindScript
	KindTimeout   = sandbox.KindTimeout
)

// Progress stages
const (
	StageExecuting  = runtime.StageExecuting
	StageFixing     = runtime.StageFixing
	StageReflecting = runtime.StageReflecting
	StageDone       = runtime.StageDone
)

// Constructor functions
var (
	// Skill constructors
	NewRegistry     = skills.NewRegistry
	DefaultRegistry = skills.DefaultRegistry
	NewBaseSkill    = skills.NewBaseSkill
	NewPaidSkill    = skills.NewPaidSkill
	NewMCPPaidSkill = skills.NewMCPPaidSkill

	// Runtime constructors
	NewGrantMap = runtime.NewGrantMap
	NewContext  = runtime.NewContext

	// Healing constructors
	NewController  = healing.NewController
	DefaultOptions = healing.DefaultOptions

	// Model constructors
	NewOpenAIServerModel = models.NewOpenAIServerModel
	Completion           = models.Completion
	FormatSchemas        = models.FormatSchemas

	// Outcome rendering
	Summarize    = mediator.Summarize
	HistoryTable = mediator.HistoryTable
)

// Engine bundles a skill registry, a healing controller and a completion
// function behind a single Run call.
type Engine struct {
	registry   *skills.Registry
	controller *healing.Controller
	complete   models.CompletionFunc
}

// New creates an engine over a registry and a completion function. A nil
// registry gets the built-in skills; nil options get the defaults.
func New(registry *skills.Registry, complete models.CompletionFunc, options *healing.Options) (*Engine, error) {
	if registry == nil {
		registry = skills.DefaultRegistry()
	}
	controller, err := healing.NewController(registry, options)
	if err != nil {
		return nil, err
	}
	return &Engine{
		registry:   registry,
		controller: controller,
		complete:   complete,
	}, nil
}

// Registry returns the engine's skill registry
func (e *Engine) Registry() *skills.Registry {
	return e.registry
}

// Run executes a script with self-healing against the allow-listed
// modules and the caller's payment grants
func (e *Engine) Run(ctx context.Context, script string, allowedModules []string, grants runtime.GrantMap) *healing.Outcome {
	return e.controller.Run(ctx, script, allowedModules, grants, e.complete)
}

// ToolSchemas returns prompt-ready schemas for the given modules, for the
// caller's script-generation prompt
func (e *Engine) ToolSchemas(allowedModules []string) string {
	return models.FormatSchemas(e.registry.Schemas(allowedModules))
}
