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

// Package mediator renders run outcomes for humans: a text summary of
// what the healing loop did and a table of every capability call it made.
package mediator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ctxprotocol/context-sub000/pkg/healing"
	"github.com/ctxprotocol/context-sub000/pkg/runtime"
	"github.com/ctxprotocol/context-sub000/pkg/utils"
)

// cell width caps for the history table
const (
	maxInputWidth  = 40
	maxResultWidth = 60
)

// Summarize renders a one-paragraph report of a healing run
func Summarize(outcome *healing.Outcome) string {
	if outcome == nil {
		return "no outcome"
	}

	var sb strings.Builder

	if outcome.Result.OK {
		sb.WriteString("Status: success")
	} else {
		sb.WriteString(fmt.Sprintf("Status: failed (%s)", outcome.Result.Kind))
	}
	sb.WriteString(fmt.Sprintf("\nAttempts: %d", outcome.AttemptCount+1))
	if outcome.Tally != nil {
		sb.WriteString(fmt.Sprintf("\nModel calls: %d (%d corrections, %d reflections)",
			outcome.Tally.ModelCalls, outcome.Tally.Corrections, outcome.Tally.Reflections))
	}
	sb.WriteString(fmt.Sprintf("\nTool calls: %d", len(outcome.CallHistory)))

	if outcome.Result.OK {
		sb.WriteString("\nResult: " + compactJSON(outcome.Result.Data, 500))
	} else {
		sb.WriteString("\nError: " + utils.TruncateContent(outcome.Result.Error, 500))
	}

	return sb.String()
}

// HistoryTable renders capability call records as an aligned table
func HistoryTable(records []runtime.CallRecord) string {
	if len(records) == 0 {
		return "(no tool calls)"
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Tool", "Input", "Result"})

	for i, record := range records {
		outcome := compactJSON(record.Result, maxResultWidth)
		if !record.Succeeded() {
			outcome = "error: " + utils.TruncateContent(record.Error, maxResultWidth)
		}
		t.AppendRow(table.Row{
			i + 1,
			record.ToolName,
			compactJSON(record.Input, maxInputWidth),
			outcome,
		})
	}

	return t.Render()
}

// compactJSON renders a value on a single line, truncated for table cells
func compactJSON(value interface{}, maxLength int) string {
	if value == nil {
		return "null"
	}
	encoded, err := json.Marshal(utils.MakeJSONSerializable(value))
	if err != nil {
		return utils.TruncateContent(utils.SafeStringConversion(value), maxLength)
	}
	return utils.TruncateContent(string(encoded), maxLength)
}
