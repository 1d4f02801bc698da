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

import "fmt"

// Grant authorizes a single paid tool for the current session. The proof of
// payment is opaque to the engine; it is verified upstream and forwarded to
// the tool's backend on every invocation.
type Grant struct {
	Tool            string `json:"tool"`
	ProofOfPayment  string `json:"proof_of_payment"`
	InvocationCount int    `json:"invocation_count"`
}

// GrantMap maps paid tool identifiers to their session grants
type GrantMap map[string]*Grant

// NewGrantMap creates a grant map from a list of grants
func NewGrantMap(grants ...*Grant) GrantMap {
	gm := make(GrantMap, len(grants))
	for _, g := range grants {
		if g != nil {
			gm[g.Tool] = g
		}
	}
	return gm
}

// Validate checks that every grant names its tool and carries a proof
func (gm GrantMap) Validate() error {
	for tool, grant := range gm {
		if grant == nil {
			return fmt.Errorf("grant for %q is nil", tool)
		}
		if grant.Tool == "" {
			return fmt.Errorf("grant for %q has no tool identifier", tool)
		}
		if grant.Tool != tool {
			return fmt.Errorf("grant key %q does not match tool identifier %q", tool, grant.Tool)
		}
		if grant.ProofOfPayment == "" {
			return fmt.Errorf("grant for %q has no proof of payment", tool)
		}
	}
	return nil
}
