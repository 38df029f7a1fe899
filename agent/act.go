package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/soragoto/kokoro/core"
	"github.com/soragoto/kokoro/logging"
	"github.com/soragoto/kokoro/model"
	"github.com/soragoto/kokoro/tool"
)

// ErrToolCallRequired is returned by the act phase when the tool-choice
// policy demands a tool call but the model produced none.
var ErrToolCallRequired = errors.New("tool calls required but none provided")

// Act executes the pending tool calls without emitting events and returns
// the concatenated result text.
func (a *Agent) Act(ctx context.Context) (string, error) {
	pending := a.pendingCalls()
	if len(pending) == 0 {
		if a.choice == model.ToolChoiceRequired {
			return "", ErrToolCallRequired
		}
		msgs := a.mem.Messages()
		if len(msgs) > 0 {
			return msgs[len(msgs)-1].Content, nil
		}
		return "", nil
	}

	var b strings.Builder
	for _, call := range pending {
		res := a.ExecuteTool(ctx, call)
		SilentResults(ctx, a, nil, call, res)
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(res.String())
	}
	return b.String(), nil
}

func (a *Agent) actStream(ctx context.Context, emit EmitFunc) error {
	pending := a.pendingCalls()
	step := a.CurrentStep()

	if len(pending) == 0 {
		if a.choice == model.ToolChoiceRequired {
			emit(core.NewErrorEvent("Error: tool calls required but none provided", step, a.maxSteps))
			return ErrToolCallRequired
		}
		return nil
	}

	total := len(pending)
	for i, call := range pending {
		name := call.Function.Name

		started := core.NewStatusEvent(fmt.Sprintf("Running tool: %s (%d/%d)", name, i+1, total), step, a.maxSteps)
		started.MessageType = name
		started.MessageID = call.ID
		emit(started)

		res := a.ExecuteTool(ctx, call)

		completed := core.NewStatusEvent(fmt.Sprintf("Tool %s completed", name), step, a.maxSteps)
		completed.MessageType = name
		completed.MessageID = call.ID
		emit(completed)

		a.handler(ctx, a, emit, call, res)
	}
	return nil
}

// ExecuteTool runs a single tool call. Failure modes are folded into the
// returned result so the model can read them from the transcript; the
// loop itself never breaks on a bad call.
func (a *Agent) ExecuteTool(ctx context.Context, call core.ToolCall) tool.Result {
	name := call.Function.Name
	if name == "" {
		return tool.Result{Error: "Error: Invalid command format"}
	}
	t, ok := a.tools.Get(name)
	if !ok {
		a.logger.Warn("agent.tool.unknown", "agent", a.name, "tool", name)
		return tool.Result{Error: fmt.Sprintf("Error: Unknown tool '%s'", name)}
	}

	args, err := decodeArgs(call.Function.Arguments)
	if err != nil {
		a.logger.Error("agent.tool.bad_arguments",
			"tool", name,
			"arguments", logging.Truncate(call.Function.Arguments, 200),
			"error", err.Error())
		return tool.Result{Error: fmt.Sprintf("Error parsing arguments for %s: Invalid JSON format", name)}
	}

	a.logger.Info("agent.tool.start", "tool", name, "call_id", call.ID)
	start := time.Now()
	res, err := a.invoke(ctx, t, args)
	if err != nil {
		a.logger.Error("agent.tool.failed", "tool", name, "call_id", call.ID, "error", err.Error())
		return tool.Result{Error: fmt.Sprintf("Tool '%s' encountered a problem: %s", name, err)}
	}
	a.logger.Info("agent.tool.done", "tool", name, "call_id", call.ID, "duration_ms", time.Since(start).Milliseconds())

	if a.isSpecial(name) {
		// A special tool finishing successfully ends the run, whatever
		// its result says.
		a.logger.Info("agent.tool.finished_run", "tool", name)
		a.setState(core.StateFinished)
	}
	return res
}

// invoke shields the loop from panicking tool implementations.
func (a *Agent) invoke(ctx context.Context, t tool.Tool, args map[string]any) (res tool.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return t.Execute(ctx, args)
}

// decodeArgs parses a tool call's argument payload, repairing slightly
// malformed JSON when possible. An empty payload decodes to empty args.
func decodeArgs(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	args := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(repaired), &args); err != nil {
			return nil, err
		}
	}
	return args, nil
}
