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

package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestEngineErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewEngineError("skill invocation failed", cause)

	if !strings.Contains(err.Error(), "skill invocation failed") {
		t.Errorf("expected message in error string, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected cause in error string, got %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestErrorSubtypes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"capability", NewCapabilityError("module not authorized"), "module not authorized"},
		{"script", NewScriptError("TypeError: x is undefined"), "TypeError"},
		{"timeout", NewTimeoutError("execution timed out after 5s"), "timed out"},
		{"generation", NewGenerationError("model call failed"), "model call failed"},
		{"max attempts", NewMaxAttemptsError("repair budget exhausted"), "budget exhausted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.err.Error(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, tt.err.Error())
			}
		})
	}
}

func TestTruncateContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		maxLen   int
		expected string
	}{
		{"short content unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"truncated with ellipsis", "hello world", 8, "hello..."},
		{"tiny max length", "hello", 2, "he"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateContent(tt.content, tt.maxLen)
			if got != tt.expected {
				t.Errorf("TruncateContent(%q, %d) = %q, want %q", tt.content, tt.maxLen, got, tt.expected)
			}
		})
	}
}

func TestMakeJSONSerializable(t *testing.T) {
	input := map[string]interface{}{
		"temp":  21.5,
		"tags":  []interface{}{"sunny", 3},
		"inner": map[string]interface{}{"ok": true, "raw": make(chan int)},
	}

	result := MakeJSONSerializable(input).(map[string]interface{})
	inner := result["inner"].(map[string]interface{})

	if _, ok := inner["raw"].(string); !ok {
		t.Errorf("expected non-serializable value to become string, got %T", inner["raw"])
	}
	if result["temp"] != 21.5 {
		t.Errorf("expected float preserved, got %v", result["temp"])
	}
}

func TestSanitizeForLogging(t *testing.T) {
	input := "calling with key sk-abc123DEF and Bearer xyz_789"
	result := SanitizeForLogging(input)

	if strings.Contains(result, "sk-abc123DEF") {
		t.Error("expected API key to be redacted")
	}
	if strings.Contains(result, "xyz_789") {
		t.Error("expected bearer token to be redacted")
	}
}
