package tool

import (
	"context"
	"fmt"
)

// TerminateName is the registry name of the Terminate tool. Agents list it
// in their special-tool set by default.
const TerminateName = "terminate"

// Terminate ends the agent's run. Any successful execution finishes the
// agent, regardless of the status the model reports.
type Terminate struct{}

// NewTerminate creates the terminate tool.
func NewTerminate() *Terminate { return &Terminate{} }

func (t *Terminate) Name() string { return TerminateName }

func (t *Terminate) Description() string {
	return "Terminate the interaction when the request is met OR if the assistant cannot proceed further with the task."
}

func (t *Terminate) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{
				"type":        "string",
				"description": "The finish status of the interaction.",
				"enum":        []string{"success", "failure"},
			},
		},
		"required": []string{"status"},
	}
}

func (t *Terminate) Execute(_ context.Context, args map[string]any) (Result, error) {
	status, _ := args["status"].(string)
	if status == "" {
		status = "success"
	}
	return Result{Content: fmt.Sprintf("The interaction has been completed with status: %s", status)}, nil
}
