// Package websearch searches the web through a SearxNG instance. It is
// the agent's fallback for questions the financial datasets API cannot
// answer, such as recent news about a company.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/quantfold/finagent/schema"
	"github.com/quantfold/finagent/tools"
)

// ToolName is the name the search tool registers under.
const ToolName = "web_search"

type Category = string

const (
	GeneralCategory Category = "general"
	NewsCategory    Category = "news"
)

// Input lists the search queries to run.
type Input struct {
	schema.Base
	// Queries list of search queries.
	Queries []string `json:"queries" validate:"required,min=1,dive,required"`
	// Category of the search queries, defaults to general.
	Category Category `json:"category,omitempty" validate:"omitempty,oneof=general news"`
}

func NewInput(category Category, queries []string) *Input {
	if category == "" {
		category = GeneralCategory
	}
	return &Input{
		Queries:  queries,
		Category: category,
	}
}

func (s Input) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

// SearchResultItem represents a single search result item
type SearchResultItem struct {
	schema.Base
	// URL The URL of the search result
	URL string `json:"url" validate:"required,url"`
	// Title The title of the search result
	Title string `json:"title" validate:"required"`
	// Content The content snippet of the search result
	Content string `json:"content,omitempty"`
	// Query The query used to obtain this search result
	Query string `json:"query" validate:"required"`
}

// SearchResponse represents the entire response from the search engine
type SearchResponse struct {
	Query           string             `json:"query"`
	NumberOfResults int                `json:"number_of_results"`
	Results         []SearchResultItem `json:"results"`
}

// Output represents the merged results of all queries.
type Output struct {
	schema.Base
	// Results List of search result items
	Results []SearchResultItem `json:"results,omitempty"`
	// Category The category of the search results
	Category Category `json:"category,omitempty"`
}

func (s Output) String() string {
	bs, _ := json.Marshal(s)
	return string(bs)
}

type Config struct {
	tools.Config
	language   string
	baseURL    string
	maxResults int
	httpClient *http.Client
}

// Tool performs searches on SearxNG based on the provided queries and category.
type Tool struct {
	Config
}

func New(opts ...Option) *Tool {
	ret := new(Tool)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("WebSearchTool")
	}
	if ret.maxResults == 0 {
		ret.maxResults = 10
	}
	if ret.httpClient == nil {
		ret.httpClient = http.DefaultClient
	}
	return ret
}

// Run executes each query in turn and merges the results, deduplicated
// by URL and capped at maxResults.
func (t *Tool) Run(ctx context.Context, input *Input) (*Output, error) {
	category := input.Category
	if category == "" {
		category = GeneralCategory
	}
	seen := make(map[string]struct{})
	output := &Output{Category: category}
	for _, query := range input.Queries {
		items, err := t.fetchSearchResults(ctx, query, category)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if _, dup := seen[item.URL]; dup {
				continue
			}
			seen[item.URL] = struct{}{}
			output.Results = append(output.Results, item)
			if len(output.Results) >= t.maxResults {
				return output, nil
			}
		}
	}
	return output, nil
}

// fetchSearchResults queries the search engine and returns the parsed search response
func (t *Tool) fetchSearchResults(ctx context.Context, query string, category Category) ([]SearchResultItem, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("safesearch", "0")
	values.Set("format", "json")
	values.Set("engines", "bing,duckduckgo,google,startpage,yandex")
	if t.language != "" {
		values.Set("language", t.language)
	}
	if category != "" {
		values.Set("categories", category)
	}
	searchURL := fmt.Sprintf("%s/search?%s", t.baseURL, values.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error querying search engine: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 response from search engine: %d", httpResp.StatusCode)
	}

	var searchResponse SearchResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&searchResponse); err != nil {
		return nil, err
	}
	for idx := range searchResponse.Results {
		searchResponse.Results[idx].Query = query
	}

	return searchResponse.Results, nil
}

// Spec declares the search tool to the model.
func Spec() tools.Spec {
	return tools.Spec{
		Name:        ToolName,
		Description: "Searches the web for information, news and references. Returns result snippets and URLs for further exploration.",
		Params: []tools.Param{
			{Name: "queries", Type: tools.TypeArray, Items: tools.TypeString, Description: "List of search queries.", Required: true},
			{Name: "category", Type: tools.TypeString, Description: "Category of the search queries.", Default: GeneralCategory,
				Enum: []string{GeneralCategory, NewsCategory}},
		},
	}
}
