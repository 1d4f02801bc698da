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

package runtime

// CallRecord is one entry in the append-only capability call history. It
// captures what the script asked for and what came back, so repair prompts
// and the suspicious-result check can reason about ground truth instead of
// the script's interpretation of it.
type CallRecord struct {
	ToolName    string      `json:"toolName"`
	Input       interface{} `json:"input"`
	Result      interface{} `json:"result"`
	Error       string      `json:"error,omitempty"`
	TimestampMs int64       `json:"timestampMs"`
}

// Succeeded reports whether the call produced a usable result
func (r CallRecord) Succeeded() bool {
	return r.Error == ""
}
