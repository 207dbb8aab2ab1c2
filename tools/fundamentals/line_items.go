// Package fundamentals exposes the financial statements side of the
// datasets API: full statements per ticker and a search over individual
// line items across tickers.
package fundamentals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quantfold/finagent/schema"
	"github.com/quantfold/finagent/tools"
)

// LineItemsToolName is the name the line item search registers under.
const LineItemsToolName = "search_line_items"

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.financialdatasets.ai"

type Period = string

const (
	AnnualPeriod    Period = "annual"
	QuarterlyPeriod Period = "quarterly"
	TTMPeriod       Period = "ttm"
)

// LineItemsInput selects tickers and the statement line items to search.
type LineItemsInput struct {
	schema.Base
	// Tickers to search, e.g. ["AAPL", "MSFT"].
	Tickers []string `json:"tickers" validate:"required,min=1,dive,required"`
	// LineItems to return, e.g. ["net_income", "total_debt"].
	LineItems []string `json:"line_items" validate:"required,min=1,dive,required"`
	// Period of the reports, defaults to ttm.
	Period Period `json:"period,omitempty" validate:"omitempty,oneof=annual quarterly ttm"`
	// Limit caps the number of reports per ticker.
	Limit int `json:"limit,omitempty" validate:"omitempty,gte=1,lte=100"`
}

// NewLineItemsInput returns a ttm search over the given tickers and items.
func NewLineItemsInput(tickers, lineItems []string) *LineItemsInput {
	return &LineItemsInput{
		Tickers:   tickers,
		LineItems: lineItems,
	}
}

// LineItemReport is one report period's worth of requested items.
type LineItemReport struct {
	Ticker       string             `json:"ticker"`
	ReportPeriod string             `json:"report_period,omitempty"`
	Period       Period             `json:"period,omitempty"`
	Currency     string             `json:"currency,omitempty"`
	Items        map[string]float64 `json:"items,omitempty"`
}

// LineItemsOutput carries the search results.
type LineItemsOutput struct {
	schema.Base
	SearchResults []LineItemReport `json:"search_results,omitempty"`
}

// LineItemsTool searches statement line items over HTTP.
type LineItemsTool struct {
	Config
}

func NewLineItemsTool(opts ...Option) *LineItemsTool {
	ret := new(LineItemsTool)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("SearchLineItemsTool")
	}
	ret.fillDefaults()
	return ret
}

// Run posts the search and decodes the matching reports.
func (t *LineItemsTool) Run(ctx context.Context, input *LineItemsInput) (*LineItemsOutput, error) {
	period := input.Period
	if period == "" {
		period = TTMPeriod
	}
	body := map[string]any{
		"tickers":    input.Tickers,
		"line_items": input.LineItems,
		"period":     period,
	}
	if input.Limit > 0 {
		body["limit"] = input.Limit
	}
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/financials/search/line-items", t.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", t.apiKey)

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error querying line items endpoint: %w", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 response from line items endpoint: %d", httpResp.StatusCode)
	}

	output := new(LineItemsOutput)
	if err := json.NewDecoder(httpResp.Body).Decode(output); err != nil {
		return nil, err
	}
	return output, nil
}

// LineItemsSpec declares the search tool to the model.
func LineItemsSpec() tools.Spec {
	return tools.Spec{
		Name:        LineItemsToolName,
		Description: "Searches financial statement line items (revenue, net_income, total_debt, ...) across tickers and report periods.",
		Params: []tools.Param{
			{Name: "tickers", Type: tools.TypeArray, Items: tools.TypeString, Description: "Ticker symbols to search.", Required: true},
			{Name: "line_items", Type: tools.TypeArray, Items: tools.TypeString, Description: "Line item names to return.", Required: true},
			{Name: "period", Type: tools.TypeString, Description: "Report period.", Default: TTMPeriod,
				Enum: []string{AnnualPeriod, QuarterlyPeriod, TTMPeriod}},
			{Name: "limit", Type: tools.TypeInteger, Description: "Maximum reports per ticker."},
		},
	}
}
