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

// Package audit flags results that succeeded for the wrong reasons.
//
// A script can complete without an exception and still be wrong: a typo'd
// field access yields undefined, which survives into the result as null.
// The detector cross-checks a successful result against the capability
// call history. If real data came back from tools but the result carries
// null leaves, the success is suspicious and worth a reflection pass.
package audit

import (
	"sort"
	"strconv"

	"github.com/ctxprotocol/context-sub000/pkg/runtime"
)

// Config tunes the detector
type Config struct {
	// IgnoredFields names fields whose null values are expected and never
	// suspicious, such as volatile optional metadata.
	IgnoredFields []string
}

// DefaultIgnoredFields are volatile metadata fields that are legitimately
// null often enough that flagging them produces noise
var DefaultIgnoredFields = []string{"timestamp", "updatedAt", "fetchedAt"}

// DefaultConfig returns the default detector config
func DefaultConfig() *Config {
	return &Config{IgnoredFields: DefaultIgnoredFields}
}

// Report is the detector's verdict on one successful result
type Report struct {
	Suspicious bool     `json:"suspicious"`
	NullPaths  []string `json:"null_paths,omitempty"`
	Reason     string   `json:"reason"`
}

// Check inspects a successful result against the capability call history.
// The check is vacuous when no capability returned substantive data: with
// nothing to compare against, a null could be legitimate and the result
// passes. Otherwise every null leaf in the result, ignoring configured
// fields, marks the result suspicious.
func Check(resultData interface{}, history []runtime.CallRecord, config *Config) Report {
	if config == nil {
		config = DefaultConfig()
	}

	if !hasSubstantiveHistory(history) {
		return Report{
			Suspicious: false,
			Reason:     "no substantive capability results to compare against",
		}
	}

	ignored := make(map[string]bool, len(config.IgnoredFields))
	for _, field := range config.IgnoredFields {
		ignored[field] = true
	}

	paths := nullPaths(resultData, "", ignored)
	if len(paths) == 0 {
		return Report{
			Suspicious: false,
			Reason:     "no null leaves in result",
		}
	}

	return Report{
		Suspicious: true,
		NullPaths:  paths,
		Reason:     "result contains null values despite successful capability calls",
	}
}

// hasSubstantiveHistory reports whether any capability call succeeded with
// a non-trivial result
func hasSubstantiveHistory(history []runtime.CallRecord) bool {
	for _, record := range history {
		if record.Succeeded() && isSubstantive(record.Result) {
			return true
		}
	}
	return false
}

// isSubstantive rejects nil, empty strings, and empty containers
func isSubstantive(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case map[string]interface{}:
		return len(v) > 0
	case []interface{}:
		return len(v) > 0
	default:
		return true
	}
}

// nullPaths collects the dotted paths of every null leaf in a value.
// Array elements use their index as a path segment. Output is ordered:
// map keys sorted, array elements by index.
func nullPaths(value interface{}, prefix string, ignored map[string]bool) []string {
	switch v := value.(type) {
	case nil:
		if prefix == "" {
			return []string{"(root)"}
		}
		return []string{prefix}

	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var paths []string
		for _, key := range keys {
			if ignored[key] {
				continue
			}
			paths = append(paths, nullPaths(v[key], joinPath(prefix, key), ignored)...)
		}
		return paths

	case []interface{}:
		var paths []string
		for i, elem := range v {
			paths = append(paths, nullPaths(elem, joinPath(prefix, strconv.Itoa(i)), ignored)...)
		}
		return paths

	default:
		return nil
	}
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
