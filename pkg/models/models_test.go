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

package models

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFormatSchemas(t *testing.T) {
	schemas := []ToolSchema{
		{
			Module:      "weather/forecast",
			Function:    "getWeather",
			Description: "Current weather for a city",
			Inputs:      map[string]string{"city": "string"},
			Output:      "object",
		},
		{
			Module:   "marketplace/search",
			Function: "searchTools",
			Inputs:   map[string]string{"query": "string", "limit": "number"},
			Output:   "array",
		},
	}

	text := FormatSchemas(schemas)
	if !strings.Contains(text, `getWeather from "weather/forecast"`) {
		t.Errorf("expected function and module in output, got:\n%s", text)
	}
	if !strings.Contains(text, "city: string") {
		t.Errorf("expected typed parameter, got:\n%s", text)
	}
	// Parameters render in sorted order.
	if strings.Index(text, "limit:") > strings.Index(text, "query:") {
		t.Errorf("expected sorted parameters, got:\n%s", text)
	}
}

func TestFormatSchemasEmpty(t *testing.T) {
	if got := FormatSchemas(nil); !strings.Contains(got, "no tools") {
		t.Errorf("unexpected empty rendering: %q", got)
	}
}

func TestToolSchemaString(t *testing.T) {
	s := ToolSchema{Module: "weather/forecast", Function: "getWeather", Inputs: map[string]string{"city": "string"}, Output: "object"}
	want := "weather/forecast.getWeather(city) -> object"
	if s.String() != want {
		t.Errorf("String() = %q, want %q", s.String(), want)
	}
}

func TestOpenAIServerModelComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}

		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if payload["model"] != "test-model" {
			t.Errorf("unexpected model %v", payload["model"])
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "```js\nfunction main() {}\n```"}},
			},
		})
	}))
	defer server.Close()

	model := NewOpenAIServerModel("test-model", server.URL, "test-key")
	reply, err := model.Complete(context.Background(), "fix this script")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if !strings.Contains(reply, "function main") {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestOpenAIServerModelHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	model := NewOpenAIServerModel("test-model", server.URL, "")
	if _, err := model.Complete(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error on HTTP 429")
	}
}

func TestCompletionAdapter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer server.Close()

	complete := Completion(NewOpenAIServerModel("m", server.URL, ""))
	reply, err := complete(context.Background(), "p")
	if err != nil || reply != "ok" {
		t.Errorf("adapter returned %q, %v", reply, err)
	}
}
