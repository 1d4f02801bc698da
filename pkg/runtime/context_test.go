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

package runtime

import (
	"errors"
	"testing"
)

func TestContextRecordAppendsInOrder(t *testing.T) {
	ctx := NewContext(nil, nil)
	ctx.Record("weather/forecast.getWeather", map[string]interface{}{"city": "Tokyo"}, map[string]interface{}{"temp": 21.5}, nil)
	ctx.Record("marketplace/search.searchTools", "weather", nil, errors.New("upstream 503"))

	history := ctx.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}
	if history[0].ToolName != "weather/forecast.getWeather" {
		t.Errorf("unexpected first tool name: %q", history[0].ToolName)
	}
	if !history[0].Succeeded() {
		t.Error("first record should have succeeded")
	}
	if history[1].Succeeded() {
		t.Error("second record should carry the call error")
	}
	if history[0].TimestampMs == 0 {
		t.Error("expected a timestamp on the record")
	}
}

func TestContextHistoryIsACopy(t *testing.T) {
	ctx := NewContext(nil, nil)
	ctx.Record("a", nil, 1, nil)

	history := ctx.History()
	history[0].ToolName = "mutated"

	if ctx.History()[0].ToolName != "a" {
		t.Error("mutating the returned slice must not affect the context")
	}
}

func TestSeedHistoryCarriesOver(t *testing.T) {
	first := NewContext(nil, nil)
	first.Record("a", nil, 1, nil)

	second := NewContext(nil, nil)
	second.SeedHistory(first.History())
	second.Record("b", nil, 2, nil)

	history := second.History()
	if len(history) != 2 {
		t.Fatalf("expected seeded plus new record, got %d", len(history))
	}
	if history[0].ToolName != "a" || history[1].ToolName != "b" {
		t.Errorf("unexpected order: %q then %q", history[0].ToolName, history[1].ToolName)
	}
}

func TestContextIDsAreUnique(t *testing.T) {
	a := NewContext(nil, nil)
	b := NewContext(nil, nil)
	if a.ID() == b.ID() || a.ID() == "" {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a.ID(), b.ID())
	}
}

func TestUseGrant(t *testing.T) {
	grants := NewGrantMap(&Grant{Tool: "premium/quotes", ProofOfPayment: "receipt-1"})
	ctx := NewContext(grants, nil)

	if _, ok := ctx.UseGrant("premium/other"); ok {
		t.Error("expected missing grant for unpaid tool")
	}

	grant, ok := ctx.UseGrant("premium/quotes")
	if !ok {
		t.Fatal("expected grant for paid tool")
	}
	ctx.UseGrant("premium/quotes")
	if grant.InvocationCount != 2 {
		t.Errorf("expected 2 invocations, got %d", grant.InvocationCount)
	}

	// Billing reads the counters from the map it supplied.
	if grants["premium/quotes"].InvocationCount != 2 {
		t.Errorf("expected caller's map to see 2 invocations, got %d",
			grants["premium/quotes"].InvocationCount)
	}
}

func TestGrantCountsAccumulateAcrossContexts(t *testing.T) {
	grants := NewGrantMap(&Grant{Tool: "premium/quotes", ProofOfPayment: "receipt-1"})

	first := NewContext(grants, nil)
	first.UseGrant("premium/quotes")

	second := NewContext(grants, nil)
	second.UseGrant("premium/quotes")

	if grants["premium/quotes"].InvocationCount != 2 {
		t.Errorf("expected counts to accumulate across attempts, got %d",
			grants["premium/quotes"].InvocationCount)
	}
}

func TestGrantMapValidate(t *testing.T) {
	tests := []struct {
		name    string
		grants  GrantMap
		wantErr bool
	}{
		{"valid", NewGrantMap(&Grant{Tool: "a", ProofOfPayment: "p"}), false},
		{"missing proof", NewGrantMap(&Grant{Tool: "a"}), true},
		{"mismatched key", GrantMap{"a": {Tool: "b", ProofOfPayment: "p"}}, true},
		{"nil grant", GrantMap{"a": nil}, true},
		{"empty map", GrantMap{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.grants.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChannelSinkNeverBlocks(t *testing.T) {
	sink := NewChannelSink(1)
	for i := 0; i < 10; i++ {
		Notify(sink, StageExecuting, 0, "attempt starting")
	}

	select {
	case ev := <-sink.Events():
		if ev.Stage != StageExecuting {
			t.Errorf("unexpected stage %q", ev.Stage)
		}
	default:
		t.Fatal("expected at least one buffered event")
	}
}

func TestNotifyNilSink(t *testing.T) {
	// Must not panic.
	Notify(nil, StageDone, 0, "finished")
}
