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

package skills

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ctxprotocol/context-sub000/pkg/models"
)

// Registry holds the skills available to an engine instance. Registration
// happens at startup; lookups are concurrent-safe.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]Skill
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		skills: make(map[string]Skill),
	}
}

// Register adds a skill to the registry. Module names must be path-like
// and unique.
func (r *Registry) Register(s Skill) error {
	name := s.Name()
	if name == "" {
		return fmt.Errorf("skill has no name")
	}
	if strings.ContainsAny(name, " \t\n\"'`") {
		return fmt.Errorf("invalid skill name %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.skills[name]; exists {
		return fmt.Errorf("skill %q is already registered", name)
	}
	r.skills[name] = s
	return nil
}

// MustRegister registers a skill and panics on error. Intended for
// startup wiring of built-in skills.
func (r *Registry) MustRegister(s Skill) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Lookup returns the skill registered under the given module name
func (r *Registry) Lookup(name string) (Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.skills[name]
	return s, ok
}

// Names returns all registered module names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered skills
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.skills)
}

// Schemas returns the model-facing schemas for the named modules, in the
// order given. Unknown names are skipped.
func (r *Registry) Schemas(moduleNames []string) []models.ToolSchema {
	var schemas []models.ToolSchema
	for _, name := range moduleNames {
		if s, ok := r.Lookup(name); ok {
			schemas = append(schemas, Schemas(s)...)
		}
	}
	return schemas
}

// DefaultRegistry returns a registry populated with the built-in skills
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(NewWeatherSkill())
	r.MustRegister(NewMarketplaceSkill(""))
	r.MustRegister(NewWebPageSkill())
	return r
}
