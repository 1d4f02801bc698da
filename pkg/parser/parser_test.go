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

package parser

import (
	"strings"
	"testing"
)

func TestExtractScript(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "javascript fence",
			input:    "Here is the fix:\n```javascript\nfunction main() { return 1; }\n```",
			expected: "function main() { return 1; }",
		},
		{
			name:     "js fence",
			input:    "```js\nconst x = 2;\n```",
			expected: "const x = 2;",
		},
		{
			name:     "typescript fence",
			input:    "```typescript\nfunction main(): number { return 3; }\n```",
			expected: "function main(): number { return 3; }",
		},
		{
			name:     "bare fence",
			input:    "```\nfunction main() { return 4; }\n```",
			expected: "function main() { return 4; }",
		},
		{
			name:     "unclosed fence",
			input:    "Fixed version:\n```js\nfunction main() { return 5; }",
			expected: "function main() { return 5; }",
		},
		{
			name:     "no fence",
			input:    "I could not produce a fix.",
			expected: "",
		},
		{
			name:     "non-script fence ignored",
			input:    "```python\nprint('hi')\n```",
			expected: "",
		},
		{
			name:     "multiple fences joined",
			input:    "```js\nimport { getWeather } from \"weather/forecast\";\n```\nand then\n```js\nfunction main() { return getWeather(\"Tokyo\"); }\n```",
			expected: "import { getWeather } from \"weather/forecast\";\n\nfunction main() { return getWeather(\"Tokyo\"); }",
		},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ExtractScript(tt.input)
			if got != tt.expected {
				t.Errorf("ExtractScript() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParse(t *testing.T) {
	p := NewParser()

	t.Run("script with thought", func(t *testing.T) {
		result := p.Parse("The bug is a missing await.\n```js\nasync function main() { return 1; }\n```")
		if result.Type != "script" {
			t.Fatalf("expected script, got %q", result.Type)
		}
		if !strings.Contains(result.Thought, "missing await") {
			t.Errorf("expected thought extracted, got %q", result.Thought)
		}
		if !strings.Contains(result.Content, "async function main") {
			t.Errorf("unexpected content %q", result.Content)
		}
	})

	t.Run("bare code without fence", func(t *testing.T) {
		result := p.Parse("import { getWeather } from \"weather/forecast\";\nfunction main() { return getWeather(\"Oslo\"); }")
		if result.Type != "script" {
			t.Fatalf("expected whole reply taken as script, got %q", result.Type)
		}
	})

	t.Run("empty response", func(t *testing.T) {
		result := p.Parse("   ")
		if result.Type != "error" || result.Error == nil {
			t.Errorf("expected error result, got %+v", result)
		}
	})

	t.Run("prose only", func(t *testing.T) {
		result := p.Parse("Sorry, I cannot fix this script.")
		if result.Type != "raw" {
			t.Errorf("expected raw, got %q", result.Type)
		}
	})
}

func TestSameScript(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		same bool
	}{
		{"identical", "function main() {}", "function main() {}", true},
		{"trailing whitespace", "function main() {}  \n", "function main() {}", true},
		{"crlf", "function main() {\r\n}", "function main() {\n}", true},
		{"different body", "function main() { return 1; }", "function main() { return 2; }", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameScript(tt.a, tt.b); got != tt.same {
				t.Errorf("SameScript() = %v, want %v", got, tt.same)
			}
		})
	}
}
