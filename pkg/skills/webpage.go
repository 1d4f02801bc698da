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
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ctxprotocol/context-sub000/pkg/runtime"
	"github.com/ctxprotocol/context-sub000/pkg/utils"
)

// WebPageSkill lets scripts read web pages as text and extract links
type WebPageSkill struct {
	*BaseSkill
	UserAgent  string       `json:"user_agent"`
	MaxContent int          `json:"max_content"`
	Client     *http.Client `json:"-"`
}

// NewWebPageSkill creates the web/page skill
func NewWebPageSkill() *WebPageSkill {
	wps := &WebPageSkill{
		BaseSkill:  NewBaseSkill("web/page", "Read web pages as plain text and extract links"),
		UserAgent:  "Mozilla/5.0 (compatible; ContextEngine/1.0)",
		MaxContent: 8192,
		Client:     &http.Client{Timeout: 15 * time.Second},
	}

	wps.AddCapability(&Capability{
		Name:        "readPage",
		Description: "Fetch a web page and return its text content, optionally scoped to a CSS selector",
		Inputs: map[string]*Input{
			"url":      {Type: "string", Description: "Page URL", Required: true},
			"selector": {Type: "string", Description: "CSS selector to scope extraction", Required: false},
		},
		OutputType: "string",
		Invoke:     wps.readPage,
	})
	wps.AddCapability(&Capability{
		Name:        "extractLinks",
		Description: "Fetch a web page and return its hyperlinks",
		Inputs: map[string]*Input{
			"url": {Type: "string", Description: "Page URL", Required: true},
		},
		OutputType: "array",
		Invoke:     wps.extractLinks,
	})
	return wps
}

func (wps *WebPageSkill) readPage(ctx context.Context, rc *runtime.Context, args ...interface{}) (interface{}, error) {
	pageURL, err := StringArg(args, 0, "url")
	if err != nil {
		return nil, err
	}
	selector := OptionalStringArg(args, 1, "")

	doc, err := wps.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var text string
	if selector == "" {
		doc.Find("script, style, noscript").Remove()
		text = doc.Text()
	} else {
		var content strings.Builder
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			content.WriteString(s.Text())
			content.WriteString("\n")
		})
		if content.Len() == 0 {
			return nil, fmt.Errorf("no content found for selector %q", selector)
		}
		text = content.String()
	}

	text = collapseWhitespace(text)
	return utils.TruncateContent(text, wps.MaxContent), nil
}

func (wps *WebPageSkill) extractLinks(ctx context.Context, rc *runtime.Context, args ...interface{}) (interface{}, error) {
	pageURL, err := StringArg(args, 0, "url")
	if err != nil {
		return nil, err
	}

	doc, err := wps.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var links []interface{}
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		links = append(links, map[string]interface{}{
			"text": strings.TrimSpace(s.Text()),
			"href": href,
		})
	})
	return links, nil
}

func (wps *WebPageSkill) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", wps.UserAgent)

	resp, err := wps.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("page fetch failed with status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// collapseWhitespace squeezes runs of blank lines and spaces left behind
// by text extraction
func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var kept []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
