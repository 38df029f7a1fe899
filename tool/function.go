package tool

import (
	"context"

	"github.com/soragoto/kokoro/core"
)

// Func is the signature of a plain-function tool implementation.
type Func func(ctx context.Context, args map[string]any) (Result, error)

// FunctionTool adapts a plain Go function into a Tool. It has no mutable
// state after construction and is safe for concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	category    core.MessageCategory
	fn          Func
}

// FunctionOption customizes a FunctionTool.
type FunctionOption func(*FunctionTool)

// WithCategory sets the message category of the tool's output.
func WithCategory(c core.MessageCategory) FunctionOption {
	return func(t *FunctionTool) { t.category = c }
}

// NewFunctionTool constructs a FunctionTool from an explicit schema and
// implementation.
//
//	echo := tool.NewFunctionTool(
//	  "echo",
//	  "Echo the input back",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "text": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"text"},
//	  },
//	  func(ctx context.Context, args map[string]any) (tool.Result, error) {
//	    text, _ := args["text"].(string)
//	    return tool.Result{Content: text}, nil
//	  },
//	)
func NewFunctionTool(name, description string, parameters map[string]any, fn Func, opts ...FunctionOption) *FunctionTool {
	t := &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		category:    core.CategoryTool,
		fn:          fn,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the unique tool name used in function call declarations.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Category implements Categorized.
func (t *FunctionTool) Category() core.MessageCategory { return t.category }

// Execute validates args against the declared schema and invokes the
// wrapped function.
func (t *FunctionTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	if err := ValidateArgs(args, t.parameters); err != nil {
		return Result{}, err
	}
	return t.fn(ctx, args)
}
