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

// Package runtime defines the per-attempt execution context: the paid-tool
// capability map, the append-only capability call history, and the progress
// sink. The context is passed explicitly to every component that needs it;
// sandboxed script code never sees it.
package runtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Context carries the host-side state for one sandbox attempt. A fresh
// context is created per attempt; on retries the previous attempt's call
// history is seeded in so repair prompts see everything the run observed.
type Context struct {
	id       string
	grants   GrantMap
	progress ProgressSink

	mu      sync.Mutex
	history []CallRecord
}

// NewContext creates a context for one attempt. The grant map is shared
// with the caller, not copied: invocation counts accumulate across attempts
// and the billing collaborator reads them from the map it supplied once the
// run finishes. A grant map belongs to one run at a time.
func NewContext(grants GrantMap, progress ProgressSink) *Context {
	return &Context{
		id:       uuid.NewString(),
		grants:   grants,
		progress: progress,
	}
}

// ID returns the unique identifier of this attempt's context
func (c *Context) ID() string {
	return c.id
}

// SeedHistory preloads call records carried over from earlier attempts
func (c *Context) SeedHistory(records []CallRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history[:0], records...)
}

// Record appends a capability call to the history. The timestamp is taken
// at append time.
func (c *Context) Record(toolName string, input, result interface{}, callErr error) {
	record := CallRecord{
		ToolName:    toolName,
		Input:       input,
		Result:      result,
		TimestampMs: time.Now().UnixMilli(),
	}
	if callErr != nil {
		record.Error = callErr.Error()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, record)
}

// History returns a copy of the call history in append order
func (c *Context) History() []CallRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	records := make([]CallRecord, len(c.history))
	copy(records, c.history)
	return records
}

// HistoryLen returns the number of recorded calls
func (c *Context) HistoryLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

// Grant looks up the session grant for a paid tool
func (c *Context) Grant(tool string) (*Grant, bool) {
	grant, ok := c.grants[tool]
	return grant, ok
}

// UseGrant increments the invocation count for a granted tool and returns
// the grant. A missing grant means the tool was never paid for this session.
func (c *Context) UseGrant(tool string) (*Grant, bool) {
	grant, ok := c.grants[tool]
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	grant.InvocationCount++
	c.mu.Unlock()
	return grant, true
}

// Grants returns the attempt's grant map
func (c *Context) Grants() GrantMap {
	return c.grants
}

// Emit sends a progress event through the context's sink, if any
func (c *Context) Emit(stage Stage, attempt int, message string) {
	Notify(c.progress, stage, attempt, message)
}

// ProgressSink returns the sink the context reports to, possibly nil
func (c *Context) ProgressSink() ProgressSink {
	return c.progress
}
