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

// Package utils provides utility functions and error types for the engine.
//
// This includes the error taxonomy shared by the sandbox and the healing
// controller, plus text processing helpers used throughout the system.
package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// EngineError is the base error type for all engine-related errors
type EngineError struct {
	Message string
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// NewEngineError creates a new EngineError
func NewEngineError(message string, cause ...error) *EngineError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &EngineError{Message: message, Cause: c}
}

// CapabilityError represents authorization failures: a script imported a
// module outside its allow-list, or invoked a paid tool without a grant
type CapabilityError struct {
	*EngineError
}

// NewCapabilityError creates a new CapabilityError
func NewCapabilityError(message string, cause ...error) *CapabilityError {
	return &CapabilityError{EngineError: NewEngineError(message, cause...)}
}

// ScriptError represents errors raised by sandboxed script code
type ScriptError struct {
	*EngineError
}

// NewScriptError creates a new ScriptError
func NewScriptError(message string, cause ...error) *ScriptError {
	return &ScriptError{EngineError: NewEngineError(message, cause...)}
}

// TimeoutError represents a sandboxed execution exceeding its time limit
type TimeoutError struct {
	*EngineError
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string, cause ...error) *TimeoutError {
	return &TimeoutError{EngineError: NewEngineError(message, cause...)}
}

// GenerationError represents errors during model completion calls
type GenerationError struct {
	*EngineError
}

// NewGenerationError creates a new GenerationError
func NewGenerationError(message string, cause ...error) *GenerationError {
	return &GenerationError{EngineError: NewEngineError(message, cause...)}
}

// MaxAttemptsError represents the repair budget being exhausted
type MaxAttemptsError struct {
	*EngineError
}

// NewMaxAttemptsError creates a new MaxAttemptsError
func NewMaxAttemptsError(message string, cause ...error) *MaxAttemptsError {
	return &MaxAttemptsError{EngineError: NewEngineError(message, cause...)}
}

// TruncateContent truncates content to a maximum length with ellipsis
func TruncateContent(content string, maxLength int) string {
	if len(content) <= maxLength {
		return content
	}

	if maxLength <= 3 {
		return content[:maxLength]
	}

	return content[:maxLength-3] + "..."
}

// MakeJSONSerializable converts an object to a JSON-serializable format
func MakeJSONSerializable(obj interface{}) interface{} {
	switch v := obj.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{})
		for k, val := range v {
			result[k] = MakeJSONSerializable(val)
		}
		return result

	case []interface{}:
		result := make([]interface{}, len(v))
		for i, val := range v {
			result[i] = MakeJSONSerializable(val)
		}
		return result

	case string, int, int64, float64, bool, nil:
		return v

	default:
		// Convert unknown types to string representation
		return fmt.Sprintf("%v", v)
	}
}

// SafeStringConversion safely converts an interface{} to string
func SafeStringConversion(value interface{}) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// SanitizeForLogging sanitizes content for safe logging (removes sensitive data patterns)
func SanitizeForLogging(content string) string {
	// Remove potential API keys, payment proofs, tokens, etc.
	patterns := []string{
		`sk-[a-zA-Z0-9]+`,            // OpenAI-style API keys
		`Bearer [a-zA-Z0-9_-]+`,      // Bearer tokens
		`token[=:]\s*[a-zA-Z0-9_-]+`, // Generic tokens
		`key[=:]\s*[a-zA-Z0-9_-]+`,   // Generic keys
	}

	result := content
	for _, pattern := range patterns {
		re := regexp.MustCompile(pattern)
		result = re.ReplaceAllString(result, "[REDACTED]")
	}

	return result
}

// StringToLines splits a string into lines, handling different line endings
func StringToLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return strings.Split(text, "\n")
}
