// Package tool implements the tool-calling subsystem: the Tool interface,
// the normalized execution Result, the name-indexed Collection used by the
// agent's executor, and a handful of concrete tools.
package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/soragoto/kokoro/core"
)

// Tool is a named capability an agent may invoke. Implementations should be
// safe for concurrent use; the engine itself invokes tools strictly
// sequentially within one act phase.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description is shown to the model to guide tool selection.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Execute runs the tool with already-decoded arguments. Failures may be
	// reported either as an error or as a Result with the Error field set;
	// the executor normalizes both into an error-bearing Result.
	Execute(ctx context.Context, args map[string]any) (Result, error)
}

// Categorized is an optional interface for tools whose output belongs to a
// specific message category. Communication-channel categories (telegram,
// in-person speech) get paced streaming; everything else is chunked.
type Categorized interface {
	Category() core.MessageCategory
}

// Result is the normalized outcome of running a tool. A Result is meaningful
// if at least one of its fields is non-empty; see Empty.
type Result struct {
	// Content is the displayable text of the result.
	Content string `json:"content,omitempty"`
	// Args carries structured, non-textual fields a caller may want
	// (e.g. a decision enum plus rationale).
	Args map[string]any `json:"args,omitempty"`
	// Error holds the failure description when execution failed.
	Error string `json:"error,omitempty"`
	// System carries a system-level annotation.
	System string `json:"system,omitempty"`
}

// Empty reports whether the result carries no information at all.
func (r Result) Empty() bool {
	return r.Content == "" && len(r.Args) == 0 && r.Error == "" && r.System == ""
}

// String renders the result for display. Failures render with an "Error:"
// prefix so downstream consumers show them like ordinary tool output.
func (r Result) String() string {
	if r.Error != "" {
		if strings.HasPrefix(r.Error, "Error") {
			return r.Error
		}
		return "Error: " + r.Error
	}
	return r.Content
}

// Combine merges two results field-wise: text content is concatenated, args
// maps are merged (other wins on key overlap), and the single-valued Error
// and System fields must not collide. Kept for legacy aggregation; the step
// loop never combines results.
func (r Result) Combine(other Result) (Result, error) {
	merged := Result{Content: r.Content + other.Content}
	if len(r.Args) > 0 || len(other.Args) > 0 {
		merged.Args = make(map[string]any, len(r.Args)+len(other.Args))
		for k, v := range r.Args {
			merged.Args[k] = v
		}
		for k, v := range other.Args {
			merged.Args[k] = v
		}
	}
	var err error
	merged.Error, err = combineSingle("error", r.Error, other.Error)
	if err != nil {
		return Result{}, err
	}
	merged.System, err = combineSingle("system", r.System, other.System)
	if err != nil {
		return Result{}, err
	}
	return merged, nil
}

func combineSingle(field, a, b string) (string, error) {
	if a != "" && b != "" {
		return "", fmt.Errorf("cannot combine tool results: both carry %s", field)
	}
	if a != "" {
		return a, nil
	}
	return b, nil
}

// FromOutput converts an arbitrary tool return value into a Result.
func FromOutput(output any) Result {
	switch v := output.(type) {
	case nil:
		return Result{}
	case Result:
		return v
	case string:
		return Result{Content: v}
	default:
		return Result{Content: fmt.Sprintf("%v", v)}
	}
}
