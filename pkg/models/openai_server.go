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

// Package models - OpenAIServerModel implementation
package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIServerModel talks to any OpenAI-compatible chat completions server
type OpenAIServerModel struct {
	modelID     string
	BaseURL     string            `json:"base_url"`
	APIKey      string            `json:"-"`
	Headers     map[string]string `json:"headers"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
	Client      *http.Client      `json:"-"`
}

// NewOpenAIServerModel creates a new OpenAI server model
func NewOpenAIServerModel(modelID, baseURL, apiKey string) *OpenAIServerModel {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIServerModel{
		modelID:     modelID,
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Headers:     make(map[string]string),
		Temperature: 0.2,
		MaxTokens:   4096,
		Client:      &http.Client{Timeout: 60 * time.Second},
	}
}

// ModelID implements Model interface
func (osm *OpenAIServerModel) ModelID() string {
	return osm.modelID
}

// Complete implements Model interface
func (osm *OpenAIServerModel) Complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model": osm.modelID,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": osm.Temperature,
		"max_tokens":  osm.MaxTokens,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimSuffix(osm.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if osm.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", osm.APIKey))
	}
	for key, value := range osm.Headers {
		req.Header.Set(key, value)
	}

	resp, err := osm.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}

	return result.Choices[0].Message.Content, nil
}
