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

package mediator

import (
	"strings"
	"testing"

	"github.com/ctxprotocol/context-sub000/pkg/healing"
	"github.com/ctxprotocol/context-sub000/pkg/monitoring"
	"github.com/ctxprotocol/context-sub000/pkg/runtime"
	"github.com/ctxprotocol/context-sub000/pkg/sandbox"
)

func TestSummarizeSuccess(t *testing.T) {
	outcome := &healing.Outcome{
		Result:       sandbox.Success(map[string]interface{}{"price": 42.5}, nil, 0),
		AttemptCount: 1,
		Tally:        &monitoring.Tally{ModelCalls: 1, Executions: 2, Corrections: 1},
		CallHistory: []runtime.CallRecord{
			{ToolName: "market/quotes.getQuote", Input: "ACME", Result: map[string]interface{}{"price": 42.5}},
		},
	}

	summary := Summarize(outcome)

	for _, want := range []string{
		"Status: success",
		"Attempts: 2",
		"Model calls: 1 (1 corrections, 0 reflections)",
		"Tool calls: 1",
		"42.5",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestSummarizeFailure(t *testing.T) {
	outcome := &healing.Outcome{
		Result: sandbox.Failure(sandbox.KindTimeout, "execution timed out after 5s", nil, 0),
		Tally:  &monitoring.Tally{Executions: 3, ModelCalls: 2, Corrections: 2},
	}

	summary := Summarize(outcome)

	if !strings.Contains(summary, "Status: failed (timeout)") {
		t.Errorf("summary missing failure kind:\n%s", summary)
	}
	if !strings.Contains(summary, "execution timed out") {
		t.Errorf("summary missing error:\n%s", summary)
	}
}

func TestSummarizeNil(t *testing.T) {
	if got := Summarize(nil); got != "no outcome" {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestHistoryTable(t *testing.T) {
	records := []runtime.CallRecord{
		{ToolName: "market/quotes.getQuote", Input: "ACME", Result: map[string]interface{}{"price": 42.5}},
		{ToolName: "flaky/api.fetchData", Error: "upstream returned 503"},
	}

	rendered := HistoryTable(records)

	for _, want := range []string{
		"market/quotes.getQuote",
		`"ACME"`,
		"42.5",
		"error: upstream returned 503",
	} {
		if !strings.Contains(rendered, want) {
			t.Errorf("table missing %q:\n%s", want, rendered)
		}
	}
}

func TestHistoryTableEmpty(t *testing.T) {
	if got := HistoryTable(nil); got != "(no tool calls)" {
		t.Errorf("unexpected output %q", got)
	}
}
