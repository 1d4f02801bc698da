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

// Package healing drives the execute-repair loop. A script runs in the
// sandbox; on a repairable failure the model is asked for a fix, on a
// suspicious success it is asked to reflect. Corrections and reflections
// draw from one shared retry budget, and the loop always terminates with
// a normalized outcome.
package healing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ctxprotocol/context-sub000/pkg/audit"
	"github.com/ctxprotocol/context-sub000/pkg/models"
	"github.com/ctxprotocol/context-sub000/pkg/monitoring"
	"github.com/ctxprotocol/context-sub000/pkg/parser"
	"github.com/ctxprotocol/context-sub000/pkg/prompts"
	"github.com/ctxprotocol/context-sub000/pkg/runtime"
	"github.com/ctxprotocol/context-sub000/pkg/sandbox"
	"github.com/ctxprotocol/context-sub000/pkg/skills"
	"github.com/ctxprotocol/context-sub000/pkg/utils"
)

// DefaultMaxRetries is the shared correction and reflection budget
const DefaultMaxRetries = 2

// maxPromptValueLength bounds any single value interpolated into a prompt
const maxPromptValueLength = 4000

// Options configures a controller
type Options struct {
	// MaxRetries is the shared budget for corrections and reflections.
	// With N retries the script executes at most N+1 times.
	MaxRetries int

	// Sandbox configures the executor
	Sandbox *sandbox.Options

	// Audit configures the suspicious-result check
	Audit *audit.Config

	// Progress receives lifecycle events; may be nil
	Progress runtime.ProgressSink
}

// DefaultOptions returns the default controller options
func DefaultOptions() *Options {
	return &Options{
		MaxRetries: DefaultMaxRetries,
		Sandbox:    sandbox.DefaultOptions(),
		Audit:      audit.DefaultConfig(),
	}
}

// Outcome is the final report of one self-healing run
type Outcome struct {
	// Result is the last execution's normalized result
	Result sandbox.Result `json:"result"`

	// Err is the typed error for a failed run, nil on success: a
	// CapabilityError for violations, a TimeoutError for timeouts, a
	// ScriptError otherwise, wrapped in a MaxAttemptsError when the
	// retry budget was spent without a success.
	Err error `json:"-"`

	// FinalCode is the script version that produced Result
	FinalCode string `json:"final_code"`

	// AttemptCount is the zero-based index of the final attempt: 0 means
	// the original script's result stood, N means N fixes were adopted.
	AttemptCount int `json:"attempt_count"`

	// CallHistory is the accumulated capability call history across all
	// attempts
	CallHistory []runtime.CallRecord `json:"call_history"`

	// Tally counts model calls and executions for the run
	Tally *monitoring.Tally `json:"tally"`
}

// state is a phase of the healing loop
type state int

const (
	stateExecuting state = iota
	stateCorrecting
	stateReflecting
	stateDone
)

// Controller owns one engine's healing loop configuration. It is safe
// for concurrent runs: all per-run state lives on the stack.
type Controller struct {
	registry *skills.Registry
	executor *sandbox.Executor
	parser   *parser.Parser
	template *prompts.PromptTemplate
	options  *Options
}

// NewController creates a healing controller over a skill registry
func NewController(registry *skills.Registry, options *Options) (*Controller, error) {
	if options == nil {
		options = DefaultOptions()
	}
	if options.MaxRetries < 0 {
		options.MaxRetries = 0
	}
	if options.Sandbox == nil {
		options.Sandbox = sandbox.DefaultOptions()
	}
	if options.Audit == nil {
		options.Audit = audit.DefaultConfig()
	}

	pm, err := prompts.NewPromptManager()
	if err != nil {
		return nil, utils.NewEngineError("failed to load prompt templates", err)
	}
	template, err := pm.GetTemplate("healer")
	if err != nil {
		return nil, utils.NewEngineError("healer prompt template missing", err)
	}

	return &Controller{
		registry: registry,
		executor: sandbox.NewExecutor(registry, options.Sandbox),
		parser:   parser.NewParser(),
		template: template,
		options:  options,
	}, nil
}

// Run executes a script with self-healing. The caller always receives an
// outcome: every failure mode, including cancellation and model errors,
// folds into the result rather than a separate error channel.
func (c *Controller) Run(ctx context.Context, script string, allowedModules []string, grants runtime.GrantMap, complete models.CompletionFunc) *Outcome {
	monitor := monitoring.NewMonitor()

	// Accept a fenced script; the unfenced body keeps identical-fix
	// comparison and FinalCode consistent with extracted model replies.
	code := script
	if extracted := c.parser.ExtractScript(script); extracted != "" {
		code = extracted
	}
	attempt := 0
	retriesUsed := 0

	var history []runtime.CallRecord
	var result sandbox.Result
	var report audit.Report

	if complete == nil {
		// Without a model the loop degrades to a single execution.
		complete = func(context.Context, string) (string, error) {
			return "", utils.NewGenerationError("no completion hook configured")
		}
	}

	st := stateExecuting
	for st != stateDone {
		switch st {
		case stateExecuting:
			if err := ctx.Err(); err != nil {
				if result.Kind == sandbox.KindNone && !result.OK {
					result = sandbox.Failure(sandbox.KindScript, fmt.Sprintf("execution cancelled before start: %v", err), nil, 0)
				}
				st = stateDone
				continue
			}

			c.emit(runtime.StageExecuting, attempt, "executing script")

			rc := runtime.NewContext(grants, c.options.Progress)
			rc.SeedHistory(history)

			monitor.StartAttempt()
			result = c.executor.Execute(ctx, code, allowedModules, rc)
			monitor.EndAttempt()
			history = rc.History()

			if result.OK {
				if retriesUsed < c.options.MaxRetries {
					report = audit.Check(result.Data, history, c.options.Audit)
					if report.Suspicious {
						st = stateReflecting
						continue
					}
				}
				st = stateDone
				continue
			}

			if !result.Retryable() || retriesUsed >= c.options.MaxRetries || ctx.Err() != nil {
				st = stateDone
				continue
			}
			st = stateCorrecting

		case stateCorrecting:
			retriesUsed++
			c.emit(runtime.StageFixing, attempt, fmt.Sprintf("requesting fix: %s", utils.TruncateContent(result.Error, 120)))

			fixed, err := c.requestCorrection(ctx, complete, code, result, history, allowedModules)
			monitor.RecordModelCall(true)

			// No usable fix, or the model returned the same script: stop
			// and surface the last failure.
			if err != nil || fixed == "" || parser.SameScript(fixed, code) {
				st = stateDone
				continue
			}
			code = fixed
			attempt++
			st = stateExecuting

		case stateReflecting:
			retriesUsed++
			c.emit(runtime.StageReflecting, attempt, fmt.Sprintf("result has null values at: %s", strings.Join(report.NullPaths, ", ")))

			revised, err := c.requestReflection(ctx, complete, code, result, report, history, allowedModules)
			monitor.RecordModelCall(false)

			// The model stands by the result, or reflection failed: the
			// current success is final.
			if err != nil || revised == "" || parser.SameScript(revised, code) {
				st = stateDone
				continue
			}
			code = revised
			attempt++
			st = stateExecuting
		}
	}

	c.emit(runtime.StageDone, attempt, doneMessage(result))

	return &Outcome{
		Result:       result,
		Err:          c.finalError(result, retriesUsed),
		FinalCode:    code,
		AttemptCount: attempt,
		CallHistory:  history,
		Tally:        monitor.GetTally(),
	}
}

// finalError maps a failed result onto the typed error taxonomy
func (c *Controller) finalError(result sandbox.Result, retriesUsed int) error {
	if result.OK {
		return nil
	}

	var err error
	switch result.Kind {
	case sandbox.KindViolation:
		err = utils.NewCapabilityError(result.Error)
	case sandbox.KindTimeout:
		err = utils.NewTimeoutError(result.Error)
	default:
		err = utils.NewScriptError(result.Error)
	}

	if result.Retryable() && retriesUsed > 0 && retriesUsed >= c.options.MaxRetries {
		return utils.NewMaxAttemptsError(
			fmt.Sprintf("no success after %d repair attempts", retriesUsed), err)
	}
	return err
}

// requestCorrection asks the model to fix a failed script
func (c *Controller) requestCorrection(ctx context.Context, complete models.CompletionFunc, code string, result sandbox.Result, history []runtime.CallRecord, allowedModules []string) (string, error) {
	prompt, err := prompts.NewPromptBuilder(c.template).
		WithVariables(map[string]interface{}{
			"code":    code,
			"error":   result.Error,
			"logs":    utils.TruncateContent(utils.SanitizeForLogging(strings.Join(result.Logs, "\n")), maxPromptValueLength),
			"history": formatHistory(history),
			"tools":   models.FormatSchemas(c.registry.Schemas(allowedModules)),
		}).
		BuildCorrectionPrompt()
	if err != nil {
		return "", err
	}

	reply, err := complete(ctx, prompt)
	if err != nil {
		return "", utils.NewGenerationError("correction request failed", err)
	}

	parsed := c.parser.Parse(reply)
	if parsed.Type != "script" {
		return "", nil
	}
	return parsed.Content, nil
}

// requestReflection asks the model to reconsider a suspicious success
func (c *Controller) requestReflection(ctx context.Context, complete models.CompletionFunc, code string, result sandbox.Result, report audit.Report, history []runtime.CallRecord, allowedModules []string) (string, error) {
	prompt, err := prompts.NewPromptBuilder(c.template).
		WithVariables(map[string]interface{}{
			"code":       code,
			"result":     formatJSON(result.Data),
			"null_paths": strings.Join(report.NullPaths, ", "),
			"history":    formatHistory(history),
			"tools":      models.FormatSchemas(c.registry.Schemas(allowedModules)),
		}).
		BuildReflectionPrompt()
	if err != nil {
		return "", err
	}

	reply, err := complete(ctx, prompt)
	if err != nil {
		return "", utils.NewGenerationError("reflection request failed", err)
	}

	parsed := c.parser.Parse(reply)
	if parsed.Type != "script" {
		return "", nil
	}
	return parsed.Content, nil
}

func (c *Controller) emit(stage runtime.Stage, attempt int, message string) {
	runtime.Notify(c.options.Progress, stage, attempt, message)
}

// formatHistory renders call records for a prompt, one line per call with
// the raw result the tool returned. Credentials that a tool echoed back,
// such as bearer tokens or payment receipts, are redacted before the text
// can reach a model prompt.
func formatHistory(history []runtime.CallRecord) string {
	if len(history) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, record := range history {
		if i > 0 {
			sb.WriteString("\n")
		}
		if record.Succeeded() {
			sb.WriteString(fmt.Sprintf("%s(%s) -> %s",
				record.ToolName, formatJSON(record.Input), formatJSON(record.Result)))
		} else {
			sb.WriteString(fmt.Sprintf("%s(%s) -> error: %s",
				record.ToolName, formatJSON(record.Input), record.Error))
		}
	}
	return utils.TruncateContent(utils.SanitizeForLogging(sb.String()), maxPromptValueLength)
}

// formatJSON renders a value compactly for prompt interpolation
func formatJSON(value interface{}) string {
	if value == nil {
		return "null"
	}
	encoded, err := json.Marshal(utils.MakeJSONSerializable(value))
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return utils.TruncateContent(string(encoded), maxPromptValueLength)
}

func doneMessage(result sandbox.Result) string {
	if result.OK {
		return "script completed"
	}
	return fmt.Sprintf("script failed: %s", utils.TruncateContent(result.Error, 120))
}
