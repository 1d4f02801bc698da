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
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ctxprotocol/context-sub000/pkg/runtime"
)

// MCPInvoker backs a paid tool with a remote MCP server. The session is
// established lazily on first use and reused across invocations. The proof
// of payment travels in the tool arguments under "_paymentProof".
type MCPInvoker struct {
	Endpoint string `json:"endpoint"`
	ToolName string `json:"tool_name"`

	mu      sync.Mutex
	client  *mcp.Client
	session *mcp.ClientSession
}

// NewMCPInvoker creates an invoker for one tool on an MCP server
func NewMCPInvoker(endpoint, toolName string) *MCPInvoker {
	return &MCPInvoker{
		Endpoint: endpoint,
		ToolName: toolName,
	}
}

// connect establishes the MCP session if needed
func (mi *MCPInvoker) connect(ctx context.Context) (*mcp.ClientSession, error) {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	if mi.session != nil {
		return mi.session, nil
	}

	if mi.client == nil {
		mi.client = mcp.NewClient(&mcp.Implementation{
			Name:    "context-engine",
			Version: "1.0.0",
		}, nil)
	}

	transport := &mcp.StreamableClientTransport{
		Endpoint: mi.Endpoint,
	}
	session, err := mi.client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MCP server at %s: %w", mi.Endpoint, err)
	}

	mi.session = session
	return session, nil
}

// Invoke implements PaidInvoker
func (mi *MCPInvoker) Invoke(ctx context.Context, grant *runtime.Grant, args map[string]interface{}) (interface{}, error) {
	session, err := mi.connect(ctx)
	if err != nil {
		return nil, err
	}

	arguments := make(map[string]interface{}, len(args)+1)
	for k, v := range args {
		arguments[k] = v
	}
	arguments["_paymentProof"] = grant.ProofOfPayment

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      mi.ToolName,
		Arguments: arguments,
	})
	if err != nil {
		return nil, fmt.Errorf("MCP tool call %q failed: %w", mi.ToolName, err)
	}

	if result.IsError {
		message := "tool returned an error"
		if len(result.Content) > 0 {
			if text, ok := result.Content[0].(*mcp.TextContent); ok {
				message = text.Text
			}
		}
		return nil, fmt.Errorf("MCP tool %q: %s", mi.ToolName, message)
	}

	if result.StructuredContent != nil {
		return result.StructuredContent, nil
	}
	if len(result.Content) > 0 {
		if text, ok := result.Content[0].(*mcp.TextContent); ok {
			return text.Text, nil
		}
	}
	return nil, nil
}

// Close tears down the MCP session
func (mi *MCPInvoker) Close() error {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	if mi.session == nil {
		return nil
	}
	err := mi.session.Close()
	mi.session = nil
	return err
}

// NewMCPPaidSkill wires a payment-gated skill to a tool on a remote MCP
// server in one step.
func NewMCPPaidSkill(id, description, endpoint, toolName, functionName string, inputs map[string]*Input, outputType string) (*PaidSkill, error) {
	invoker := NewMCPInvoker(endpoint, toolName)
	return NewPaidSkill(PaidToolConfig{
		ID:          id,
		Description: description,
		Function:    functionName,
		FunctionDoc: description,
		Inputs:      inputs,
		OutputType:  outputType,
		Invoker:     invoker.Invoke,
	})
}
