package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/quantfold/finagent/schema"
)

// ITool is the minimal surface every tool exposes.
type ITool interface {
	SetTitle(string)
	Title() string
	SetDescription(string)
	Description() string
}

// Tool is a typed tool over schema input and output types.
type Tool[I schema.Schema, O schema.Schema] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

// Handler executes a tool against validated raw arguments and returns
// structured data or a fault. This is the capability the registry binds
// a Spec to.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// validate checks struct-level domain constraints on decoded tool inputs.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Wrap adapts a typed tool into a Handler: arguments are decoded into I,
// checked against its validate tags, and only then passed to Run. Decode
// and validation faults surface as InvalidArgumentsError, so the invoker
// tags them without running the tool body.
func Wrap[I schema.Schema, O schema.Schema](name string, tool Tool[I, O]) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		input := new(I)
		if len(args) > 0 {
			if err := json.Unmarshal(args, input); err != nil {
				return nil, InvalidArgumentsError{Tool: name, Reason: err.Error()}
			}
		}
		if err := validate.Struct(input); err != nil {
			var ive *validator.InvalidValidationError
			if !errors.As(err, &ive) {
				// non-struct inputs have no tags to check
				return nil, InvalidArgumentsError{Tool: name, Reason: err.Error()}
			}
		}
		return tool.Run(ctx, input)
	}
}
