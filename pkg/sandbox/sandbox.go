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

// Package sandbox executes untrusted scripts in an isolated JavaScript VM.
//
// A script sees only what the sandbox injects: a console bound to an
// in-memory buffer and the capability modules its allow-list authorizes.
// There is no filesystem, no network, no process access, and no ambient
// runtime state. Import statements are checked against the allow-list
// before anything runs; the body executes with a hard time limit and its
// outcome is normalized into a Result.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/ctxprotocol/context-sub000/pkg/monitoring"
	"github.com/ctxprotocol/context-sub000/pkg/parser"
	"github.com/ctxprotocol/context-sub000/pkg/runtime"
	"github.com/ctxprotocol/context-sub000/pkg/skills"
)

// modulesVar is the VM-global table the import prologue destructures from
const modulesVar = "__ctx_modules__"

// DefaultTimeout bounds a single execution
const DefaultTimeout = 5 * time.Second

// Options configures the executor
type Options struct {
	// Timeout is the wall-clock limit for one execution
	Timeout time.Duration

	// MaxLogEntries caps buffered console output per execution
	MaxLogEntries int
}

// DefaultOptions returns the default executor options
func DefaultOptions() *Options {
	return &Options{
		Timeout:       DefaultTimeout,
		MaxLogEntries: monitoring.DefaultMaxLogEntries,
	}
}

// Executor runs scripts against a skill registry. It is stateless across
// executions: every call builds a fresh VM.
type Executor struct {
	registry *skills.Registry
	options  *Options
	parser   *parser.Parser
}

// NewExecutor creates a sandbox executor
func NewExecutor(registry *skills.Registry, options *Options) *Executor {
	if options == nil {
		options = DefaultOptions()
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.MaxLogEntries <= 0 {
		options.MaxLogEntries = monitoring.DefaultMaxLogEntries
	}

	return &Executor{
		registry: registry,
		options:  options,
		parser:   parser.NewParser(),
	}
}

// Execute runs one script. The script may arrive wrapped in a fenced code
// block; without a fence the whole text is the body. Imports are validated
// against allowedModules before execution; the body runs in a fresh VM with
// main() as the entry point. The returned Result is always well-formed,
// whatever went wrong.
func (e *Executor) Execute(ctx context.Context, script string, allowedModules []string, rc *runtime.Context) Result {
	timing := monitoring.NewTiming()
	logger := monitoring.NewBufferLogger(monitoring.LogLevelDEBUG)
	logger.SetMaxEntries(e.options.MaxLogEntries)

	fail := func(kind FailureKind, message string) Result {
		timing.End()
		return Failure(kind, message, logger.Messages(), timing.GetDuration())
	}

	if extracted := e.parser.ExtractScript(script); extracted != "" {
		script = extracted
	}

	decls, body, err := parseImports(script)
	if err != nil {
		return fail(KindScript, err.Error())
	}

	allowed := make(map[string]bool, len(allowedModules))
	for _, name := range allowedModules {
		allowed[name] = true
	}
	for _, decl := range decls {
		if !allowed[decl.Module] {
			return fail(KindViolation, fmt.Sprintf("unauthorized module %q: not in the allowed module list", decl.Module))
		}
	}

	// Capability calls get a context bounded by the same deadline as the
	// VM, so in-flight HTTP requests abort when the script is cut off.
	execCtx, cancel := context.WithTimeout(ctx, e.options.Timeout)
	defer cancel()

	vm := goja.New()
	if err := installConsole(vm, logger); err != nil {
		return fail(KindScript, fmt.Sprintf("failed to prepare sandbox: %v", err))
	}

	modules := make(map[string]map[string]func(goja.FunctionCall) goja.Value, len(decls))
	for _, decl := range decls {
		skill, ok := e.registry.Lookup(decl.Module)
		if !ok {
			return fail(KindViolation, fmt.Sprintf("module %q is not installed", decl.Module))
		}

		exports := modules[decl.Module]
		if exports == nil {
			exports = make(map[string]func(goja.FunctionCall) goja.Value, len(decl.Bindings))
			modules[decl.Module] = exports
		}

		caps := skill.Capabilities()
		for _, binding := range decl.Bindings {
			capability, ok := caps[binding]
			if !ok {
				return fail(KindScript, fmt.Sprintf("module %q does not export %q", decl.Module, binding))
			}
			exports[binding] = wrapCapability(vm, execCtx, rc, decl.Module+"."+binding, capability)
		}
	}
	if err := vm.Set(modulesVar, modules); err != nil {
		return fail(KindScript, fmt.Sprintf("failed to prepare sandbox: %v", err))
	}

	source := buildPrologue(decls, modulesVar) + stripExports(body)
	program, err := goja.Compile("script.js", source, false)
	if err != nil {
		return fail(KindScript, fmt.Sprintf("script compile error: %v", err))
	}

	done := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Failure(KindScript, fmt.Sprintf("script execution panicked: %v", r), nil, 0)
			}
		}()
		done <- e.run(vm, program)
	}()

	timer := time.NewTimer(e.options.Timeout)
	defer timer.Stop()

	var result Result
	select {
	case result = <-done:
		if !result.OK && result.Kind == KindScript && errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			result.Kind = KindTimeout
			result.Error = fmt.Sprintf("execution timed out after %v", e.options.Timeout)
		}
	case <-timer.C:
		// Interrupt stops script code; a capability in flight returns when
		// it observes execCtx's deadline (skills.InvokeFunc contract).
		vm.Interrupt("timeout")
		<-done
		result = Failure(KindTimeout, fmt.Sprintf("execution timed out after %v", e.options.Timeout), nil, 0)
	case <-ctx.Done():
		vm.Interrupt("cancelled")
		<-done
		result = Failure(KindScript, fmt.Sprintf("execution cancelled: %v", ctx.Err()), nil, 0)
	}

	timing.End()
	result.Logs = logger.Messages()
	result.Duration = timing.GetDuration()
	return result
}

// run executes the compiled program and invokes main()
func (e *Executor) run(vm *goja.Runtime, program *goja.Program) Result {
	if _, err := vm.RunProgram(program); err != nil {
		return e.classifyError(err)
	}

	mainFn, ok := goja.AssertFunction(vm.Get("main"))
	if !ok {
		return Failure(KindScript, "script does not define a main() function", nil, 0)
	}

	value, err := mainFn(goja.Undefined())
	if err != nil {
		return e.classifyError(err)
	}
	return settle(value)
}

// settle unwraps main()'s return value, resolving a returned promise
func settle(value goja.Value) Result {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return Success(nil, nil, 0)
	}

	if promise, ok := value.Export().(*goja.Promise); ok {
		switch promise.State() {
		case goja.PromiseStateFulfilled:
			return Success(exportValue(promise.Result()), nil, 0)
		case goja.PromiseStateRejected:
			return Failure(KindScript, fmt.Sprintf("main() rejected: %s", jsErrorText(promise.Result())), nil, 0)
		default:
			return Failure(KindScript, "main() returned a promise that never settled; the sandbox has no event loop for timers or external I/O", nil, 0)
		}
	}

	return Success(value.Export(), nil, 0)
}

// classifyError maps a goja error onto the failure taxonomy
func (e *Executor) classifyError(err error) Result {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return Failure(KindTimeout, fmt.Sprintf("execution timed out after %v", e.options.Timeout), nil, 0)
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		return Failure(KindScript, jsErrorText(exception.Value()), nil, 0)
	}

	return Failure(KindScript, err.Error(), nil, 0)
}

// wrapCapability bridges a skill capability into the VM. Every call is
// recorded in the runtime context's history; a failed call is thrown into
// the script as an exception so try/catch works as expected.
func wrapCapability(vm *goja.Runtime, ctx context.Context, rc *runtime.Context, toolName string, capability *skills.Capability) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := make([]interface{}, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			args = append(args, arg.Export())
		}

		result, err := capability.Invoke(ctx, rc, args...)
		rc.Record(toolName, recordInput(args), result, err)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(result)
	}
}

// recordInput flattens positional arguments for the history record
func recordInput(args []interface{}) interface{} {
	switch len(args) {
	case 0:
		return nil
	case 1:
		return args[0]
	default:
		return args
	}
}

func exportValue(v goja.Value) interface{} {
	if v == nil {
		return nil
	}
	return v.Export()
}

// jsErrorText renders a thrown value as "Name: message" when it is an
// Error object, falling back to its string form.
func jsErrorText(v goja.Value) string {
	if v == nil {
		return "unknown error"
	}
	if obj, ok := v.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			name := "Error"
			if n := obj.Get("name"); n != nil && !goja.IsUndefined(n) {
				name = n.String()
			}
			return fmt.Sprintf("%s: %s", name, msg.String())
		}
	}
	return v.String()
}
