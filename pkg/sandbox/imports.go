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

import (
	"fmt"
	"regexp"
	"strings"
)

// The sandbox accepts exactly one import form:
//
//	import { name1, name2 } from "module/path";
//
// Default imports, namespace imports, and aliases are rejected. The
// narrow grammar keeps the module allow-list checkable by inspection.
var (
	importLinePattern = regexp.MustCompile(`^\s*import\s+\{([^}]*)\}\s+from\s+["']([^"']+)["']\s*;?\s*$`)
	identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
	exportPattern     = regexp.MustCompile(`(?m)^(\s*)export\s+(default\s+)?`)
)

// importDecl is one parsed import statement
type importDecl struct {
	Bindings []string
	Module   string
}

// parseImports splits a script into its import declarations and the
// remaining body. Any import statement outside the supported grammar is
// an error.
func parseImports(script string) ([]importDecl, string, error) {
	var decls []importDecl
	var body []string

	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "import ") && !strings.HasPrefix(trimmed, "import{") {
			body = append(body, line)
			continue
		}

		match := importLinePattern.FindStringSubmatch(line)
		if match == nil {
			return nil, "", fmt.Errorf("unsupported import syntax: %s", trimmed)
		}

		module := match[2]
		if strings.TrimSpace(module) == "" {
			return nil, "", fmt.Errorf("unsupported import syntax: empty module path")
		}

		var bindings []string
		for _, part := range strings.Split(match[1], ",") {
			name := strings.TrimSpace(part)
			if name == "" {
				continue
			}
			if !identifierPattern.MatchString(name) {
				return nil, "", fmt.Errorf("unsupported import syntax: binding %q (aliases and namespace imports are not supported)", name)
			}
			bindings = append(bindings, name)
		}
		if len(bindings) == 0 {
			return nil, "", fmt.Errorf("unsupported import syntax: import from %q binds nothing", module)
		}

		decls = append(decls, importDecl{Bindings: bindings, Module: module})
	}

	return decls, strings.Join(body, "\n"), nil
}

// stripExports removes export keywords so the body runs as a plain script.
// The entry point stays reachable as a top-level main() declaration.
func stripExports(body string) string {
	return exportPattern.ReplaceAllString(body, "$1")
}

// buildPrologue emits the const destructurings that replace the import
// statements. Each module resolves from the injected modules table.
func buildPrologue(decls []importDecl, modulesVar string) string {
	var sb strings.Builder
	for _, decl := range decls {
		sb.WriteString(fmt.Sprintf("const { %s } = %s[%q];\n",
			strings.Join(decl.Bindings, ", "), modulesVar, decl.Module))
	}
	return sb.String()
}
