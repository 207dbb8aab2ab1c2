// Package valuation computes standard valuation formulas over figures
// the model already gathered from the pricing and fundamentals tools.
// It is pure computation with no collaborators, so identical inputs
// always produce identical outputs.
package valuation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/Knetic/govaluate"

	"github.com/quantfold/finagent/schema"
	"github.com/quantfold/finagent/tools"
)

// ToolName is the name the formula tool registers under.
const ToolName = "valuation"

// formula binds a named op to an evaluable expression.
type formula struct {
	expr string
	// inputs required by the expression
	inputs []string
	// denominators must be nonzero or the result is undefined
	denominators []string
}

var formulas = map[string]formula{
	"ratio": {
		expr:         "net_income / equity",
		inputs:       []string{"net_income", "equity"},
		denominators: []string{"equity"},
	},
	"return_on_equity": {
		expr:         "net_income / equity",
		inputs:       []string{"net_income", "equity"},
		denominators: []string{"equity"},
	},
	"price_to_earnings": {
		expr:         "price / earnings_per_share",
		inputs:       []string{"price", "earnings_per_share"},
		denominators: []string{"earnings_per_share"},
	},
	"debt_to_equity": {
		expr:         "total_debt / equity",
		inputs:       []string{"total_debt", "equity"},
		denominators: []string{"equity"},
	},
	"gross_margin": {
		expr:         "(revenue - cost_of_revenue) / revenue",
		inputs:       []string{"revenue", "cost_of_revenue"},
		denominators: []string{"revenue"},
	},
	"free_cash_flow_yield": {
		expr:         "free_cash_flow / market_cap",
		inputs:       []string{"free_cash_flow", "market_cap"},
		denominators: []string{"market_cap"},
	},
}

// Ops returns the supported formula names, sorted.
func Ops() []string {
	ops := make([]string, 0, len(formulas))
	for op := range formulas {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// Input selects a formula and supplies its figures. Arguments arrive
// flat ({"op":"ratio","net_income":100,"equity":50}), so decoding keeps
// the op and collects every numeric field as a parameter.
type Input struct {
	schema.Base
	Op     string             `json:"op" validate:"required"`
	Params map[string]float64 `json:"-"`
}

// NewInput returns an Input for the given op and figures.
func NewInput(op string, params map[string]float64) *Input {
	return &Input{
		Op:     op,
		Params: params,
	}
}

func (in *Input) UnmarshalJSON(bs []byte) error {
	raw := make(map[string]any)
	if err := json.Unmarshal(bs, &raw); err != nil {
		return err
	}
	if op, ok := raw["op"].(string); ok {
		in.Op = op
	}
	in.Params = make(map[string]float64, len(raw))
	for k, v := range raw {
		if k == "op" {
			continue
		}
		if f, ok := v.(float64); ok {
			in.Params[k] = f
		}
	}
	return nil
}

func (in Input) MarshalJSON() ([]byte, error) {
	raw := make(map[string]any, len(in.Params)+1)
	for k, v := range in.Params {
		raw[k] = v
	}
	raw["op"] = in.Op
	return json.Marshal(raw)
}

// Output carries the computed figure.
type Output struct {
	schema.Base
	Op     string  `json:"op"`
	Result float64 `json:"result"`
}

func NewOutput(op string, result float64) *Output {
	return &Output{Op: op, Result: result}
}

// Tool evaluates valuation formulas.
type Tool struct {
	tools.Config
}

func New(opts ...tools.Option) *Tool {
	ret := new(Tool)
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.Title() == "" {
		ret.SetTitle("ValuationTool")
	}
	return ret
}

// Run evaluates the selected formula. Unknown ops, missing figures and
// zero denominators are invalid arguments; nothing is evaluated for
// them. Results that are not finite are execution faults.
func (t *Tool) Run(ctx context.Context, input *Input) (*Output, error) {
	f, ok := formulas[input.Op]
	if !ok {
		return nil, tools.InvalidArgumentsError{
			Tool:   ToolName,
			Reason: fmt.Sprintf("unknown op %q, supported ops: %v", input.Op, Ops()),
		}
	}
	params := make(map[string]any, len(f.inputs))
	for _, name := range f.inputs {
		value, ok := input.Params[name]
		if !ok {
			return nil, tools.InvalidArgumentsError{
				Tool:   ToolName,
				Reason: fmt.Sprintf("op %q requires parameter %q", input.Op, name),
			}
		}
		params[name] = value
	}
	for _, name := range f.denominators {
		if input.Params[name] == 0 {
			return nil, tools.InvalidArgumentsError{
				Tool:   ToolName,
				Reason: fmt.Sprintf("op %q: division by zero, %q must be nonzero", input.Op, name),
			}
		}
	}
	exp, err := govaluate.NewEvaluableExpression(f.expr)
	if err != nil {
		return nil, tools.ToolExecutionError{Tool: ToolName, Err: err}
	}
	result, err := exp.Evaluate(params)
	if err != nil {
		return nil, tools.ToolExecutionError{Tool: ToolName, Err: err}
	}
	value, ok := result.(float64)
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, tools.ToolExecutionError{
			Tool: ToolName,
			Err:  fmt.Errorf("op %q produced an undefined result", input.Op),
		}
	}
	return NewOutput(input.Op, value), nil
}

// Spec declares the tool to the model, with the union of every
// formula's figures as optional number parameters.
func Spec() tools.Spec {
	seen := make(map[string]struct{})
	params := []tools.Param{{
		Name:        "op",
		Type:        tools.TypeString,
		Description: "Valuation formula to compute.",
		Required:    true,
		Enum:        Ops(),
	}}
	for _, op := range Ops() {
		for _, name := range formulas[op].inputs {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			params = append(params, tools.Param{
				Name:        name,
				Type:        tools.TypeNumber,
				Description: fmt.Sprintf("Figure %q, required by some ops.", name),
			})
		}
	}
	return tools.Spec{
		Name:        ToolName,
		Description: "Computes valuation formulas (ratios, margins, yields) over supplied financial figures.",
		Params:      params,
	}
}
