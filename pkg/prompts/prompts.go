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

// Package prompts loads and renders the repair prompt templates. The
// templates ship embedded as YAML and render with text/template.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var promptFiles embed.FS

// PromptTemplate represents a loaded prompt template
type PromptTemplate struct {
	CorrectionPrompt string                 `yaml:"correction_prompt"`
	ReflectionPrompt string                 `yaml:"reflection_prompt"`
	DefaultVariables map[string]interface{} `yaml:"default_variables"`
}

// PromptManager manages prompt templates
type PromptManager struct {
	templates map[string]*PromptTemplate
}

// NewPromptManager creates a new prompt manager with all embedded
// templates loaded
func NewPromptManager() (*PromptManager, error) {
	pm := &PromptManager{
		templates: make(map[string]*PromptTemplate),
	}

	entries, err := promptFiles.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt files: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if len(name) > 5 && name[len(name)-5:] == ".yaml" {
			templateName := name[:len(name)-5]

			data, err := promptFiles.ReadFile(name)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", name, err)
			}

			var tmpl PromptTemplate
			if err := yaml.Unmarshal(data, &tmpl); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", name, err)
			}

			pm.templates[templateName] = &tmpl
		}
	}

	return pm, nil
}

// GetTemplate returns a prompt template by name
func (pm *PromptManager) GetTemplate(name string) (*PromptTemplate, error) {
	tmpl, ok := pm.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %s not found", name)
	}
	return tmpl, nil
}

// RenderPrompt renders a prompt template with the given variables
func (pt *PromptTemplate) RenderPrompt(promptType string, variables map[string]interface{}) (string, error) {
	vars := make(map[string]interface{})
	for k, v := range pt.DefaultVariables {
		vars[k] = v
	}
	for k, v := range variables {
		vars[k] = v
	}

	var promptTemplate string
	switch promptType {
	case "correction":
		promptTemplate = pt.CorrectionPrompt
	case "reflection":
		promptTemplate = pt.ReflectionPrompt
	default:
		return "", fmt.Errorf("unknown prompt type: %s", promptType)
	}

	if promptTemplate == "" {
		return "", fmt.Errorf("prompt type %s is empty in template", promptType)
	}

	tmpl, err := template.New("prompt").Parse(promptTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}

	return buf.String(), nil
}

// PromptBuilder helps build repair prompts
type PromptBuilder struct {
	template  *PromptTemplate
	variables map[string]interface{}
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder(template *PromptTemplate) *PromptBuilder {
	return &PromptBuilder{
		template:  template,
		variables: make(map[string]interface{}),
	}
}

// WithVariable adds a variable to the prompt builder
func (pb *PromptBuilder) WithVariable(key string, value interface{}) *PromptBuilder {
	pb.variables[key] = value
	return pb
}

// WithVariables adds multiple variables to the prompt builder
func (pb *PromptBuilder) WithVariables(vars map[string]interface{}) *PromptBuilder {
	for k, v := range vars {
		pb.variables[k] = v
	}
	return pb
}

// BuildCorrectionPrompt builds the error-correction prompt
func (pb *PromptBuilder) BuildCorrectionPrompt() (string, error) {
	return pb.template.RenderPrompt("correction", pb.variables)
}

// BuildReflectionPrompt builds the suspicious-result reflection prompt
func (pb *PromptBuilder) BuildReflectionPrompt() (string, error) {
	return pb.template.RenderPrompt("reflection", pb.variables)
}
