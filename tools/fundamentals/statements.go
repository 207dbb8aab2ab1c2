package fundamentals

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

// StatementsToolName is the name the statements tool registers under.
const StatementsToolName = "get_financial_statements"

// StatementsInput selects the ticker and report period to fetch.
type StatementsInput struct {
	schema.Base
	// Ticker symbol, e.g. AAPL.
	Ticker string `json:"ticker" validate:"required"`
	// Period of the reports, defaults to ttm.
	Period Period `json:"period,omitempty" validate:"omitempty,oneof=annual quarterly ttm"`
	// Limit caps the number of returned report periods.
	Limit int `json:"limit,omitempty" validate:"omitempty,gte=1,lte=100"`
}

// NewStatementsInput returns a ttm statements request for the ticker.
func NewStatementsInput(ticker string) *StatementsInput {
	return &StatementsInput{Ticker: ticker}
}

// Statement is one report period of a single statement type. The API
// returns many figures per statement and tickers differ in which ones
// they report, so the figures stay a flat map rather than a fixed struct.
type Statement struct {
	Ticker       string             `json:"ticker"`
	ReportPeriod string             `json:"report_period,omitempty"`
	Period       Period             `json:"period,omitempty"`
	Currency     string             `json:"currency,omitempty"`
	Figures      map[string]float64 `json:"-"`
}

// UnmarshalJSON splits the known header fields from the numeric figures.
func (s *Statement) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Figures = make(map[string]float64)
	for key, value := range raw {
		switch key {
		case "ticker":
			if err := json.Unmarshal(value, &s.Ticker); err != nil {
				return err
			}
		case "report_period":
			if err := json.Unmarshal(value, &s.ReportPeriod); err != nil {
				return err
			}
		case "period":
			if err := json.Unmarshal(value, &s.Period); err != nil {
				return err
			}
		case "currency":
			if err := json.Unmarshal(value, &s.Currency); err != nil {
				return err
			}
		default:
			var figure float64
			if err := json.Unmarshal(value, &figure); err != nil {
				continue
			}
			s.Figures[key] = figure
		}
	}
	return nil
}

// MarshalJSON renders the header fields and figures as one flat object.
func (s Statement) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(s.Figures)+4)
	for name, figure := range s.Figures {
		flat[name] = figure
	}
	flat["ticker"] = s.Ticker
	if s.ReportPeriod != "" {
		flat["report_period"] = s.ReportPeriod
	}
	if s.Period != "" {
		flat["period"] = s.Period
	}
	if s.Currency != "" {
		flat["currency"] = s.Currency
	}
	return json.Marshal(flat)
}

// Financials groups the three statement types the endpoint returns.
type Financials struct {
	IncomeStatements  []Statement `json:"income_statements,omitempty"`
	BalanceSheets     []Statement `json:"balance_sheets,omitempty"`
	CashFlowStatement []Statement `json:"cash_flow_statements,omitempty"`
}

// StatementsOutput carries the fetched statements.
type StatementsOutput struct {
	schema.Base
	Financials Financials `json:"financials"`
}

// StatementsTool fetches income statements, balance sheets and cash flow
// statements over HTTP.
type StatementsTool struct {
	Config
}

func NewStatementsTool(opts ...Option) *StatementsTool {
	ret := new(StatementsTool)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("GetFinancialStatementsTool")
	}
	ret.fillDefaults()
	return ret
}

// Run fetches the statements for the requested ticker.
func (t *StatementsTool) Run(ctx context.Context, input *StatementsInput) (*StatementsOutput, error) {
	values := url.Values{}
	values.Set("ticker", input.Ticker)
	period := input.Period
	if period == "" {
		period = TTMPeriod
	}
	values.Set("period", period)
	if input.Limit > 0 {
		values.Set("limit", strconv.Itoa(input.Limit))
	}

	reqURL := fmt.Sprintf("%s/financials/?%s", t.baseURL, values.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-API-KEY", t.apiKey)

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error querying financials endpoint: %w", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 response from financials endpoint: %d", httpResp.StatusCode)
	}

	output := new(StatementsOutput)
	if err := json.NewDecoder(httpResp.Body).Decode(output); err != nil {
		return nil, err
	}
	return output, nil
}

// StatementsSpec declares the statements tool to the model.
func StatementsSpec() tools.Spec {
	return tools.Spec{
		Name:        StatementsToolName,
		Description: "Fetches income statements, balance sheets and cash flow statements for a ticker.",
		Params: []tools.Param{
			{Name: "ticker", Type: tools.TypeString, Description: "Ticker symbol, e.g. AAPL.", Required: true},
			{Name: "period", Type: tools.TypeString, Description: "Report period.", Default: TTMPeriod,
				Enum: []string{AnnualPeriod, QuarterlyPeriod, TTMPeriod}},
			{Name: "limit", Type: tools.TypeInteger, Description: "Maximum report periods to return."},
		},
	}
}
