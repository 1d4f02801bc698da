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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ctxprotocol/context-sub000/pkg/runtime"
)

// DefaultMarketplaceURL is the public tool marketplace endpoint
const DefaultMarketplaceURL = "https://marketplace.ctxprotocol.org/api/v1"

// MarketplaceSkill lets scripts discover tools published on the
// marketplace: names, descriptions, and pricing for paid tools.
type MarketplaceSkill struct {
	*BaseSkill
	BaseURL string       `json:"base_url"`
	Client  *http.Client `json:"-"`
}

// NewMarketplaceSkill creates the marketplace/search skill. An empty
// baseURL selects the public marketplace.
func NewMarketplaceSkill(baseURL string) *MarketplaceSkill {
	if baseURL == "" {
		baseURL = DefaultMarketplaceURL
	}

	ms := &MarketplaceSkill{
		BaseSkill: NewBaseSkill("marketplace/search", "Search the tool marketplace for available skills and paid tools"),
		BaseURL:   baseURL,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}

	ms.AddCapability(&Capability{
		Name:        "searchTools",
		Description: "Search marketplace tools by keyword",
		Inputs: map[string]*Input{
			"query": {Type: "string", Description: "Search keywords", Required: true},
			"limit": {Type: "number", Description: "Maximum results (default 10)", Required: false},
		},
		OutputType: "array",
		Invoke:     ms.searchTools,
	})
	ms.AddCapability(&Capability{
		Name:        "getTool",
		Description: "Fetch one marketplace tool by its identifier",
		Inputs: map[string]*Input{
			"id": {Type: "string", Description: "Tool identifier", Required: true},
		},
		OutputType: "object",
		Invoke:     ms.getTool,
	})
	return ms
}

// ToolListing is one marketplace entry
type ToolListing struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PriceUSD    float64 `json:"price_usd"`
	Paid        bool    `json:"paid"`
}

func (ms *MarketplaceSkill) searchTools(ctx context.Context, rc *runtime.Context, args ...interface{}) (interface{}, error) {
	queryText, err := StringArg(args, 0, "query")
	if err != nil {
		return nil, err
	}
	limit := IntArg(args, 1, 10)
	if limit < 1 {
		limit = 1
	}

	query := url.Values{}
	query.Set("q", queryText)
	query.Set("limit", fmt.Sprintf("%d", limit))

	var listings []ToolListing
	if err := ms.getJSON(ctx, fmt.Sprintf("%s/tools?%s", ms.BaseURL, query.Encode()), &listings); err != nil {
		return nil, fmt.Errorf("marketplace search for %q failed: %w", queryText, err)
	}

	results := make([]interface{}, 0, len(listings))
	for _, listing := range listings {
		results = append(results, listingToMap(listing))
	}
	return results, nil
}

func (ms *MarketplaceSkill) getTool(ctx context.Context, rc *runtime.Context, args ...interface{}) (interface{}, error) {
	id, err := StringArg(args, 0, "id")
	if err != nil {
		return nil, err
	}

	var listing ToolListing
	if err := ms.getJSON(ctx, fmt.Sprintf("%s/tools/%s", ms.BaseURL, url.PathEscape(id)), &listing); err != nil {
		return nil, fmt.Errorf("marketplace lookup of %q failed: %w", id, err)
	}
	return listingToMap(listing), nil
}

func (ms *MarketplaceSkill) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := ms.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func listingToMap(listing ToolListing) map[string]interface{} {
	return map[string]interface{}{
		"id":          listing.ID,
		"name":        listing.Name,
		"description": listing.Description,
		"priceUsd":    listing.PriceUSD,
		"paid":        listing.Paid,
	}
}
