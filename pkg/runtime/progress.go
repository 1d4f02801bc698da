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

import "time"

// Stage identifies a phase of the self-healing run
type Stage string

const (
	StageExecuting  Stage = "executing"
	StageFixing     Stage = "fixing"
	StageReflecting Stage = "reflecting"
	StageDone       Stage = "done"
)

// ProgressEvent is a lifecycle notification emitted while a run advances
type ProgressEvent struct {
	Stage   Stage     `json:"stage"`
	Attempt int       `json:"attempt"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ProgressSink receives progress events. Implementations must not block:
// the engine emits events inline with execution and will not wait on a
// slow consumer.
type ProgressSink interface {
	Progress(event ProgressEvent)
}

// ProgressFunc adapts a function to the ProgressSink interface
type ProgressFunc func(event ProgressEvent)

// Progress implements ProgressSink
func (f ProgressFunc) Progress(event ProgressEvent) {
	f(event)
}

// ChannelSink buffers progress events on a channel. Sends never block;
// events beyond the buffer capacity are dropped.
type ChannelSink struct {
	ch chan ProgressEvent
}

// NewChannelSink creates a channel sink with the given buffer size
func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan ProgressEvent, buffer)}
}

// Progress implements ProgressSink with a non-blocking send
func (s *ChannelSink) Progress(event ProgressEvent) {
	select {
	case s.ch <- event:
	default:
	}
}

// Events returns the receive side of the sink
func (s *ChannelSink) Events() <-chan ProgressEvent {
	return s.ch
}

// Close closes the event channel. Call only after the run has finished.
func (s *ChannelSink) Close() {
	close(s.ch)
}

// Notify emits an event to a possibly-nil sink
func Notify(sink ProgressSink, stage Stage, attempt int, message string) {
	if sink == nil {
		return
	}
	sink.Progress(ProgressEvent{
		Stage:   stage,
		Attempt: attempt,
		Message: message,
		At:      time.Now(),
	})
}
