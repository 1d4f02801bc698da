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

import "time"

// FailureKind classifies why an execution failed. The healing controller
// uses it to decide whether a repair attempt can help.
type FailureKind int

const (
	// KindNone marks a successful result
	KindNone FailureKind = iota

	// KindViolation is an authorization failure: the script imported a
	// module outside its allow-list. Never retried.
	KindViolation

	// KindScript is an error raised by the script itself: bad syntax, a
	// thrown exception, a failed capability call. Repairable.
	KindScript

	// KindTimeout means the execution exceeded its time limit. Repairable.
	KindTimeout
)

// String returns the failure kind name
func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindViolation:
		return "violation"
	case KindScript:
		return "script"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Result is the normalized outcome of one sandboxed execution. Exactly one
// of the two shapes holds: OK with Data, or not OK with Error. Logs carry
// the script's console output either way. Host-side problems are folded
// into the same shape; callers never see a raw panic or a second error
// channel.
type Result struct {
	OK       bool          `json:"ok"`
	Data     interface{}   `json:"data,omitempty"`
	Error    string        `json:"error,omitempty"`
	Kind     FailureKind   `json:"kind"`
	Logs     []string      `json:"logs"`
	Duration time.Duration `json:"duration"`
}

// Success builds a successful result
func Success(data interface{}, logs []string, duration time.Duration) Result {
	return Result{
		OK:       true,
		Data:     data,
		Kind:     KindNone,
		Logs:     logs,
		Duration: duration,
	}
}

// Failure builds a failed result
func Failure(kind FailureKind, message string, logs []string, duration time.Duration) Result {
	return Result{
		OK:       false,
		Error:    message,
		Kind:     kind,
		Logs:     logs,
		Duration: duration,
	}
}

// Retryable reports whether a repair attempt could change the outcome
func (r Result) Retryable() bool {
	return !r.OK && r.Kind != KindViolation
}
