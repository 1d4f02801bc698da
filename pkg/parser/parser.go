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

// Package parser extracts executable script bodies from model replies.
//
// Model output is free-form text that usually carries the script inside a
// fenced code block, sometimes preceded by prose reasoning. The parser
// pulls out the script body, tolerating missing language tags, unclosed
// fences, and replies that are nothing but code.
package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// ParseResult represents the result of parsing a model reply
type ParseResult struct {
	Type    string // "script", "raw", "error"
	Thought string // prose reasoning preceding the script, if any
	Content string // the extracted script body
	Error   error  // any parsing error
}

// Parser handles extraction of script bodies from model replies
type Parser struct {
	fencePattern   *regexp.Regexp
	thoughtPattern *regexp.Regexp
}

// scriptLanguages are the fence language tags treated as script bodies
var scriptLanguages = map[string]bool{
	"":           true,
	"js":         true,
	"javascript": true,
	"ts":         true,
	"typescript": true,
}

// NewParser creates a new parser
func NewParser() *Parser {
	return &Parser{
		fencePattern:   regexp.MustCompile("(?s)```([a-zA-Z]*)[ \t]*\n(.*?)\n[ \t]*```"),
		thoughtPattern: regexp.MustCompile(`(?s)^(.*?)\n*\x60{3}`),
	}
}

// Parse analyzes a model reply and extracts the script body
func (p *Parser) Parse(response string) *ParseResult {
	if strings.TrimSpace(response) == "" {
		return &ParseResult{
			Type:    "error",
			Content: "empty response",
			Error:   fmt.Errorf("received empty response from model"),
		}
	}
	response = strings.TrimSpace(response)

	script := p.ExtractScript(response)
	thought := p.extractThought(response)

	if script != "" {
		if strings.TrimSpace(script) == "" {
			return &ParseResult{
				Type:    "error",
				Thought: thought,
				Content: "empty code block",
				Error:   fmt.Errorf("code block contains only whitespace"),
			}
		}
		return &ParseResult{
			Type:    "script",
			Thought: thought,
			Content: script,
		}
	}

	// No fence anywhere. If the reply itself reads like code, take it whole.
	if LooksLikeScript(response) {
		return &ParseResult{
			Type:    "script",
			Content: response,
		}
	}

	return &ParseResult{
		Type:    "raw",
		Thought: thought,
		Content: response,
	}
}

// ExtractScript extracts the script body from a model reply. Complete
// fenced blocks win; an unclosed trailing fence is accepted as a fallback.
func (p *Parser) ExtractScript(text string) string {
	if code := p.extractCompleteFences(text); code != "" {
		return code
	}
	return p.extractIncompleteFence(text)
}

// extractCompleteFences extracts script bodies from complete fenced blocks.
// Multiple blocks are joined: models sometimes split imports from the body.
func (p *Parser) extractCompleteFences(text string) string {
	matches := p.fencePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return ""
	}

	var codes []string
	for _, match := range matches {
		language := strings.ToLower(strings.TrimSpace(match[1]))
		if !scriptLanguages[language] {
			continue
		}
		code := strings.TrimRight(match[2], " \t\n")
		if strings.TrimSpace(code) != "" {
			codes = append(codes, code)
		}
	}
	return strings.Join(codes, "\n\n")
}

// extractIncompleteFence extracts code from a fence the model never closed
func (p *Parser) extractIncompleteFence(text string) string {
	idx := strings.LastIndex(text, "```")
	if idx < 0 {
		return ""
	}

	after := text[idx+3:]
	lines := strings.Split(after, "\n")
	if len(lines) < 2 {
		return ""
	}

	language := strings.ToLower(strings.TrimSpace(lines[0]))
	if !scriptLanguages[language] {
		return ""
	}

	code := strings.TrimSpace(strings.Join(lines[1:], "\n"))
	return code
}

// extractThought returns the prose preceding the first fence
func (p *Parser) extractThought(text string) string {
	match := p.thoughtPattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// LooksLikeScript reports whether bare text is plausibly a script body
// rather than prose. Used for replies that skip the fence entirely.
func LooksLikeScript(text string) bool {
	trimmed := strings.TrimSpace(text)
	markers := []string{
		"import {",
		"import{",
		"function main",
		"async function main",
		"export function",
		"export async function",
		"const ",
		"let ",
	}
	for _, marker := range markers {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}
	return strings.Contains(trimmed, "function main") && strings.Contains(trimmed, "return")
}

// Normalize strips carriage returns and trailing whitespace so two
// extractions of the same script compare equal.
func Normalize(code string) string {
	code = strings.ReplaceAll(code, "\r\n", "\n")
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// SameScript reports whether two script bodies are identical after
// normalization. The healing loop uses this to detect a model that
// returned the broken code unchanged.
func SameScript(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
