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

package sandbox

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/ctxprotocol/context-sub000/pkg/monitoring"
)

// installConsole binds a console object into the VM. Output goes to the
// attempt's buffer logger, never to the host's stdout, so logs travel
// with the execution result.
func installConsole(vm *goja.Runtime, logger *monitoring.BufferLogger) error {
	console := vm.NewObject()

	bind := func(name string, sink func(string, ...interface{})) error {
		return console.Set(name, func(call goja.FunctionCall) goja.Value {
			sink(formatConsoleArgs(call.Arguments))
			return goja.Undefined()
		})
	}

	if err := bind("log", logger.Info); err != nil {
		return err
	}
	if err := bind("info", logger.Info); err != nil {
		return err
	}
	if err := bind("warn", logger.Warn); err != nil {
		return err
	}
	if err := bind("error", logger.Error); err != nil {
		return err
	}
	if err := bind("debug", logger.Debug); err != nil {
		return err
	}

	return vm.Set("console", console)
}

// formatConsoleArgs renders console arguments the way a developer expects:
// strings as-is, everything else JSON-encoded where possible.
func formatConsoleArgs(args []goja.Value) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, formatConsoleValue(arg))
	}
	return strings.Join(parts, " ")
}

func formatConsoleValue(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}

	exported := v.Export()
	switch val := exported.(type) {
	case string:
		return val
	case map[string]interface{}, []interface{}:
		if encoded, err := json.Marshal(val); err == nil {
			return string(encoded)
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
