// Package pricing fetches historical price bars for a ticker from the
// financial datasets API.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/quantfold/finagent/schema"
	"github.com/quantfold/finagent/tools"
)

// ToolName is the name the pricing tool registers under.
const ToolName = "get_prices"

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.financialdatasets.ai"

type Interval = string

const (
	MinuteInterval Interval = "minute"
	DayInterval    Interval = "day"
	WeekInterval   Interval = "week"
	MonthInterval  Interval = "month"
	YearInterval   Interval = "year"
)

// Input selects the ticker and date window to fetch bars for.
type Input struct {
	schema.Base
	// Ticker symbol, e.g. AAPL.
	Ticker string `json:"ticker" validate:"required"`
	// StartDate of the window, YYYY-MM-DD.
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	// EndDate of the window, YYYY-MM-DD.
	EndDate string `json:"end_date" validate:"required,datetime=2006-01-02"`
	// Interval of the bars, defaults to day.
	Interval Interval `json:"interval,omitempty" validate:"omitempty,oneof=minute day week month year"`
	// IntervalMultiplier widens the interval, e.g. 5 with interval minute.
	IntervalMultiplier int `json:"interval_multiplier,omitempty" validate:"omitempty,gte=1"`
	// Limit caps the number of returned bars.
	Limit int `json:"limit,omitempty" validate:"omitempty,gte=1,lte=5000"`
}

// NewInput returns a daily-bar Input over the given window.
func NewInput(ticker, startDate, endDate string) *Input {
	return &Input{
		Ticker:    ticker,
		StartDate: startDate,
		EndDate:   endDate,
	}
}

// Price is one OHLCV bar.
type Price struct {
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume float64 `json:"volume"`
	Time   string  `json:"time"`
}

// Output carries the fetched bars.
type Output struct {
	schema.Base
	Ticker string  `json:"ticker"`
	Prices []Price `json:"prices,omitempty"`
}

type Config struct {
	tools.Config
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Tool fetches price bars over HTTP.
type Tool struct {
	Config
}

func New(opts ...Option) *Tool {
	ret := new(Tool)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("GetPricesTool")
	}
	if ret.baseURL == "" {
		ret.baseURL = DefaultBaseURL
	}
	if ret.httpClient == nil {
		ret.httpClient = http.DefaultClient
	}
	return ret
}

// Run fetches the bars for the requested window.
func (t *Tool) Run(ctx context.Context, input *Input) (*Output, error) {
	values := url.Values{}
	values.Set("ticker", input.Ticker)
	values.Set("start_date", input.StartDate)
	values.Set("end_date", input.EndDate)
	interval := input.Interval
	if interval == "" {
		interval = DayInterval
	}
	values.Set("interval", interval)
	multiplier := input.IntervalMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	values.Set("interval_multiplier", strconv.Itoa(multiplier))
	if input.Limit > 0 {
		values.Set("limit", strconv.Itoa(input.Limit))
	}

	reqURL := fmt.Sprintf("%s/prices/?%s", t.baseURL, values.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-API-KEY", t.apiKey)

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error querying prices endpoint: %w", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 response from prices endpoint: %d", httpResp.StatusCode)
	}

	output := new(Output)
	if err := json.NewDecoder(httpResp.Body).Decode(output); err != nil {
		return nil, err
	}
	if output.Ticker == "" {
		output.Ticker = input.Ticker
	}
	return output, nil
}

// Spec declares the tool to the model.
func Spec() tools.Spec {
	return tools.Spec{
		Name:        ToolName,
		Description: "Fetches historical OHLCV price bars for a ticker over a date window.",
		Params: []tools.Param{
			{Name: "ticker", Type: tools.TypeString, Description: "Ticker symbol, e.g. AAPL.", Required: true},
			{Name: "start_date", Type: tools.TypeString, Description: "Window start, YYYY-MM-DD.", Required: true},
			{Name: "end_date", Type: tools.TypeString, Description: "Window end, YYYY-MM-DD.", Required: true},
			{Name: "interval", Type: tools.TypeString, Description: "Bar interval.", Default: DayInterval,
				Enum: []string{MinuteInterval, DayInterval, WeekInterval, MonthInterval, YearInterval}},
			{Name: "interval_multiplier", Type: tools.TypeInteger, Description: "Interval multiplier, e.g. 5 with interval minute."},
			{Name: "limit", Type: tools.TypeInteger, Description: "Maximum number of bars to return."},
		},
	}
}
