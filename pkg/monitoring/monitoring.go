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

// Package monitoring provides logging and monitoring capabilities for script execution.
//
// This includes model invocation tallies, timing information, buffered
// logging for sandboxed console output, and run-level monitoring for
// debugging and observability.
package monitoring

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// LogLevel represents different log levels
type LogLevel int

const (
	LogLevelOFF LogLevel = iota - 1
	LogLevelERROR
	LogLevelWARN
	LogLevelINFO
	LogLevelDEBUG
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelOFF:
		return "OFF"
	case LogLevelERROR:
		return "ERROR"
	case LogLevelWARN:
		return "WARN"
	case LogLevelINFO:
		return "INFO"
	case LogLevelDEBUG:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// Tally tracks model invocations and sandbox executions for a single run
type Tally struct {
	ModelCalls  int `json:"model_calls"`
	Executions  int `json:"executions"`
	Corrections int `json:"corrections"`
	Reflections int `json:"reflections"`
}

// NewTally creates a new Tally instance
func NewTally() *Tally {
	return &Tally{}
}

// Add combines this tally with another
func (t *Tally) Add(other *Tally) {
	if other != nil {
		t.ModelCalls += other.ModelCalls
		t.Executions += other.Executions
		t.Corrections += other.Corrections
		t.Reflections += other.Reflections
	}
}

// String returns a string representation of the tally
func (t *Tally) String() string {
	return fmt.Sprintf("Tally(model_calls=%d, executions=%d, corrections=%d, reflections=%d)",
		t.ModelCalls, t.Executions, t.Corrections, t.Reflections)
}

// Timing represents timing information for operations
type Timing struct {
	StartTime time.Time      `json:"start_time"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Duration  *time.Duration `json:"duration,omitempty"`
}

// NewTiming creates a new timing instance with start time set to now
func NewTiming() *Timing {
	return &Timing{
		StartTime: time.Now(),
	}
}

// End marks the end time and calculates duration
func (t *Timing) End() {
	now := time.Now()
	t.EndTime = &now
	duration := now.Sub(t.StartTime)
	t.Duration = &duration
}

// GetDuration returns the duration, calculating it if not already done
func (t *Timing) GetDuration() time.Duration {
	if t.Duration != nil {
		return *t.Duration
	}

	if t.EndTime != nil {
		return t.EndTime.Sub(t.StartTime)
	}

	return time.Since(t.StartTime)
}

// String returns a string representation of timing
func (t *Timing) String() string {
	duration := t.GetDuration()
	return fmt.Sprintf("Timing(duration=%v)", duration.Truncate(time.Millisecond))
}

// LogEntry is a single buffered log line
type LogEntry struct {
	Level   LogLevel  `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// BufferLogger collects log lines in memory. Sandboxed console output is
// routed here rather than to the host's stdout, so script logs stay
// attached to the execution result that produced them.
type BufferLogger struct {
	mu         sync.Mutex
	level      LogLevel
	entries    []LogEntry
	maxEntries int
	dropped    int
}

// DefaultMaxLogEntries bounds the buffer so runaway script loops cannot
// exhaust host memory through console spam.
const DefaultMaxLogEntries = 1000

// NewBufferLogger creates a new buffer logger
func NewBufferLogger(level LogLevel) *BufferLogger {
	return &BufferLogger{
		level:      level,
		maxEntries: DefaultMaxLogEntries,
	}
}

// SetMaxEntries sets the maximum number of buffered entries
func (bl *BufferLogger) SetMaxEntries(max int) {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	bl.maxEntries = max
}

// SetLevel sets the logging level
func (bl *BufferLogger) SetLevel(level LogLevel) {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	bl.level = level
}

// log appends an entry if the level is enabled and the buffer has room
func (bl *BufferLogger) log(level LogLevel, message string) {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	if level > bl.level {
		return
	}
	if bl.maxEntries > 0 && len(bl.entries) >= bl.maxEntries {
		bl.dropped++
		return
	}

	bl.entries = append(bl.entries, LogEntry{
		Level:   level,
		Message: message,
		Time:    time.Now(),
	})
}

// Error logs an error message
func (bl *BufferLogger) Error(message string, args ...interface{}) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	bl.log(LogLevelERROR, message)
}

// Warn logs a warning message
func (bl *BufferLogger) Warn(message string, args ...interface{}) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	bl.log(LogLevelWARN, message)
}

// Info logs an info message
func (bl *BufferLogger) Info(message string, args ...interface{}) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	bl.log(LogLevelINFO, message)
}

// Debug logs a debug message
func (bl *BufferLogger) Debug(message string, args ...interface{}) {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	bl.log(LogLevelDEBUG, message)
}

// Entries returns a copy of the buffered entries in insertion order
func (bl *BufferLogger) Entries() []LogEntry {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	entries := make([]LogEntry, len(bl.entries))
	copy(entries, bl.entries)
	return entries
}

// Messages returns the buffered messages in insertion order. Warning and
// error lines carry a level prefix so they survive flattening.
func (bl *BufferLogger) Messages() []string {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	messages := make([]string, 0, len(bl.entries))
	for _, entry := range bl.entries {
		switch entry.Level {
		case LogLevelERROR:
			messages = append(messages, "error: "+entry.Message)
		case LogLevelWARN:
			messages = append(messages, "warn: "+entry.Message)
		default:
			messages = append(messages, entry.Message)
		}
	}
	if bl.dropped > 0 {
		messages = append(messages, fmt.Sprintf("(%d log lines dropped)", bl.dropped))
	}
	return messages
}

// Len returns the number of buffered entries
func (bl *BufferLogger) Len() int {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	return len(bl.entries)
}

// Reset clears the buffer
func (bl *BufferLogger) Reset() {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	bl.entries = nil
	bl.dropped = 0
}

// String flattens the buffer into a single newline-joined string
func (bl *BufferLogger) String() string {
	return strings.Join(bl.Messages(), "\n")
}

// Monitor provides run-level monitoring for a self-healing execution
type Monitor struct {
	tally            *Tally
	startTime        time.Time
	attemptDurations []time.Duration
	currentStart     time.Time
	enabled          bool
}

// NewMonitor creates a new monitor instance
func NewMonitor() *Monitor {
	return &Monitor{
		tally:            NewTally(),
		startTime:        time.Now(),
		attemptDurations: make([]time.Duration, 0),
		enabled:          true,
	}
}

// SetEnabled enables or disables monitoring
func (m *Monitor) SetEnabled(enabled bool) {
	m.enabled = enabled
}

// IsEnabled returns whether monitoring is enabled
func (m *Monitor) IsEnabled() bool {
	return m.enabled
}

// GetTally returns the run tally
func (m *Monitor) GetTally() *Tally {
	return m.tally
}

// StartAttempt starts timing a sandbox attempt
func (m *Monitor) StartAttempt() {
	if !m.enabled {
		return
	}

	m.currentStart = time.Now()
	m.tally.Executions++
}

// EndAttempt ends timing of the current attempt
func (m *Monitor) EndAttempt() {
	if !m.enabled {
		return
	}

	if !m.currentStart.IsZero() {
		m.attemptDurations = append(m.attemptDurations, time.Since(m.currentStart))
		m.currentStart = time.Time{}
	}
}

// RecordModelCall counts a model invocation of the given kind
func (m *Monitor) RecordModelCall(correction bool) {
	if !m.enabled {
		return
	}

	m.tally.ModelCalls++
	if correction {
		m.tally.Corrections++
	} else {
		m.tally.Reflections++
	}
}

// GetAttemptDurations returns all attempt durations
func (m *Monitor) GetAttemptDurations() []time.Duration {
	durations := make([]time.Duration, len(m.attemptDurations))
	copy(durations, m.attemptDurations)
	return durations
}

// GetTotalDuration returns the total run duration
func (m *Monitor) GetTotalDuration() time.Duration {
	return time.Since(m.startTime)
}

// Reset resets all monitoring data
func (m *Monitor) Reset() {
	m.tally = NewTally()
	m.startTime = time.Now()
	m.attemptDurations = make([]time.Duration, 0)
	m.currentStart = time.Time{}
}
