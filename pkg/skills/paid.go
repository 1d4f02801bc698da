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

package skills

import (
	"context"
	"fmt"
	"sort"

	"github.com/ctxprotocol/context-sub000/pkg/runtime"
	"github.com/ctxprotocol/context-sub000/pkg/utils"
)

// PaidInvoker executes a paid tool call against its backend. The grant
// carries the session's proof of payment, already incremented for this
// invocation.
type PaidInvoker func(ctx context.Context, grant *runtime.Grant, args map[string]interface{}) (interface{}, error)

// PaidToolConfig describes one payment-gated tool
type PaidToolConfig struct {
	// ID is the module name scripts import, e.g. "premium/quotes"
	ID          string
	Description string
	// Function is the capability name exported to scripts
	Function    string
	FunctionDoc string
	Inputs      map[string]*Input
	OutputType  string
	Invoker     PaidInvoker
}

// PaidSkill wraps a backend tool behind a payment check. Each invocation
// requires a session grant; the grant's invocation count is incremented
// before the backend is called.
type PaidSkill struct {
	*BaseSkill
	config PaidToolConfig
}

// NewPaidSkill creates a payment-gated skill from its config
func NewPaidSkill(config PaidToolConfig) (*PaidSkill, error) {
	if config.ID == "" {
		return nil, fmt.Errorf("paid tool has no id")
	}
	if config.Function == "" {
		return nil, fmt.Errorf("paid tool %q has no function name", config.ID)
	}
	if config.Invoker == nil {
		return nil, fmt.Errorf("paid tool %q has no invoker", config.ID)
	}

	ps := &PaidSkill{
		BaseSkill: NewBaseSkill(config.ID, config.Description),
		config:    config,
	}
	ps.AddCapability(&Capability{
		Name:        config.Function,
		Description: config.FunctionDoc,
		Inputs:      config.Inputs,
		OutputType:  config.OutputType,
		Invoke:      ps.invoke,
	})
	return ps, nil
}

// invoke checks the session grant, increments its invocation count, and
// forwards the call to the backend.
func (ps *PaidSkill) invoke(ctx context.Context, rc *runtime.Context, args ...interface{}) (interface{}, error) {
	grant, ok := rc.UseGrant(ps.config.ID)
	if !ok {
		return nil, utils.NewCapabilityError(
			fmt.Sprintf("tool %q is not authorized: no verified payment for this session", ps.config.ID))
	}

	named := ps.namedArgs(args)
	result, err := ps.config.Invoker(ctx, grant, named)
	if err != nil {
		return nil, fmt.Errorf("paid tool %q failed: %w", ps.config.ID, err)
	}
	return result, nil
}

// namedArgs maps positional script arguments onto the declared input
// names. A single object argument is passed through as-is.
func (ps *PaidSkill) namedArgs(args []interface{}) map[string]interface{} {
	if len(args) == 1 {
		if m, ok := args[0].(map[string]interface{}); ok {
			return m
		}
	}

	named := make(map[string]interface{}, len(args))
	ordered := orderedInputNames(ps.config.Inputs)
	for i, arg := range args {
		if i < len(ordered) {
			named[ordered[i]] = arg
		} else {
			named[fmt.Sprintf("arg%d", i)] = arg
		}
	}
	return named
}

// orderedInputNames returns required inputs first, then optional, each
// group alphabetical. Positional call sites rely on this order.
func orderedInputNames(inputs map[string]*Input) []string {
	var required, optional []string
	for name, input := range inputs {
		if input != nil && input.Required {
			required = append(required, name)
		} else {
			optional = append(optional, name)
		}
	}
	sort.Strings(required)
	sort.Strings(optional)
	return append(required, optional...)
}
