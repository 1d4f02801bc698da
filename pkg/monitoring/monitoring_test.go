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

package monitoring

import (
	"strings"
	"testing"
)

func TestBufferLoggerOrder(t *testing.T) {
	logger := NewBufferLogger(LogLevelDEBUG)
	logger.Info("fetching weather for %s", "Tokyo")
	logger.Warn("retrying request")
	logger.Error("request failed")

	messages := logger.Messages()
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[0] != "fetching weather for Tokyo" {
		t.Errorf("unexpected first message: %q", messages[0])
	}
	if !strings.HasPrefix(messages[1], "warn: ") {
		t.Errorf("expected warn prefix, got %q", messages[1])
	}
	if !strings.HasPrefix(messages[2], "error: ") {
		t.Errorf("expected error prefix, got %q", messages[2])
	}
}

func TestBufferLoggerLevelFiltering(t *testing.T) {
	logger := NewBufferLogger(LogLevelERROR)
	logger.Info("hidden")
	logger.Debug("hidden too")
	logger.Error("visible")

	if logger.Len() != 1 {
		t.Errorf("expected 1 entry after filtering, got %d", logger.Len())
	}
}

func TestBufferLoggerCap(t *testing.T) {
	logger := NewBufferLogger(LogLevelINFO)
	logger.SetMaxEntries(2)
	logger.Info("one")
	logger.Info("two")
	logger.Info("three")
	logger.Info("four")

	messages := logger.Messages()
	if len(messages) != 3 {
		t.Fatalf("expected 2 entries plus drop marker, got %d", len(messages))
	}
	if !strings.Contains(messages[2], "2 log lines dropped") {
		t.Errorf("expected drop marker, got %q", messages[2])
	}
}

func TestBufferLoggerReset(t *testing.T) {
	logger := NewBufferLogger(LogLevelINFO)
	logger.Info("something")
	logger.Reset()

	if logger.Len() != 0 {
		t.Errorf("expected empty buffer after reset, got %d entries", logger.Len())
	}
}

func TestTallyAdd(t *testing.T) {
	a := &Tally{ModelCalls: 2, Executions: 3, Corrections: 1, Reflections: 1}
	b := &Tally{ModelCalls: 1, Executions: 1}
	a.Add(b)

	if a.ModelCalls != 3 || a.Executions != 4 {
		t.Errorf("unexpected tally after add: %s", a)
	}

	a.Add(nil)
	if a.ModelCalls != 3 {
		t.Error("adding nil should be a no-op")
	}
}

func TestMonitorAttempts(t *testing.T) {
	m := NewMonitor()
	m.StartAttempt()
	m.EndAttempt()
	m.StartAttempt()
	m.EndAttempt()
	m.RecordModelCall(true)
	m.RecordModelCall(false)

	if got := m.GetTally().Executions; got != 2 {
		t.Errorf("expected 2 executions, got %d", got)
	}
	if got := len(m.GetAttemptDurations()); got != 2 {
		t.Errorf("expected 2 attempt durations, got %d", got)
	}
	if got := m.GetTally().Corrections; got != 1 {
		t.Errorf("expected 1 correction, got %d", got)
	}
	if got := m.GetTally().Reflections; got != 1 {
		t.Errorf("expected 1 reflection, got %d", got)
	}

	m.Reset()
	if m.GetTally().ModelCalls != 0 {
		t.Error("expected tally cleared after reset")
	}
}

func TestMonitorDisabled(t *testing.T) {
	m := NewMonitor()
	m.SetEnabled(false)
	m.StartAttempt()
	m.EndAttempt()
	m.RecordModelCall(true)

	if m.GetTally().Executions != 0 || m.GetTally().ModelCalls != 0 {
		t.Error("disabled monitor should not record anything")
	}
}
