package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/soragoto/kokoro/core"
	"github.com/soragoto/kokoro/logging"
	"github.com/soragoto/kokoro/model"
)

const deltaBuffer = 64

// Think asks the model for a decision over the current transcript and
// commits its reply. It reports whether the agent should act on tool
// calls. Model failures are absorbed into the transcript rather than
// returned, so the loop can keep going.
func (a *Agent) Think(ctx context.Context) (bool, error) {
	dec, err := a.client.AskTool(ctx, a.buildRequest(false))
	if err != nil {
		a.recordThinkFailure(ctx, err)
		return false, nil
	}
	return a.decide(ctx, nil, *dec), nil
}

// thinkStream runs the think phase while forwarding model deltas as
// events. The producer goroutine closes the delta channel on every exit
// path, which is the consumer's end-of-stream signal.
func (a *Agent) thinkStream(ctx context.Context, emit EmitFunc) bool {
	step := a.CurrentStep()
	req := a.buildRequest(true)

	deltas := make(chan model.Delta, deltaBuffer)
	req.OnDelta = func(d model.Delta) {
		select {
		case deltas <- d:
		case <-ctx.Done():
		}
	}

	type outcome struct {
		dec *model.Decision
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer close(deltas)
		dec, err := a.client.AskTool(ctx, req)
		done <- outcome{dec: dec, err: err}
	}()

	var chunks []string
	for d := range deltas {
		switch {
		case d.ToolCall != nil:
			if d.ToolCall.Name != "" {
				emit(core.NewStatusEvent(fmt.Sprintf("Preparing tool: %s", d.ToolCall.Name), step, a.maxSteps))
			}
		case d.Text != "":
			chunks = append(chunks, d.Text)
			emit(core.NewTokenEvent(d.Text, step, a.maxSteps))
		}
	}
	out := <-done

	if out.err != nil {
		a.recordThinkFailure(ctx, out.err)
		emit(core.NewErrorEvent(fmt.Sprintf("Error while thinking: %s", out.err), step, a.maxSteps))
		a.emitThinkDone(emit, "Thinking failed", false)
		return false
	}

	dec := *out.dec
	if dec.Content == "" && len(dec.ToolCalls) == 0 && len(chunks) > 0 {
		// Some providers only deliver text incrementally; fall back to
		// the accumulated stream.
		dec.Content = strings.TrimSpace(strings.Join(chunks, ""))
	}
	if len(dec.ToolCalls) > 0 {
		names := toolNames(dec.ToolCalls)
		ev := core.NewStatusEvent(fmt.Sprintf("Calling tools: %s", strings.Join(names, ", ")), step, a.maxSteps)
		ev.Metadata = map[string]any{"tool_names": names}
		emit(ev)
	}
	return a.decide(ctx, emit, dec)
}

// decide commits the model's reply to the transcript and determines
// whether the act phase should run.
func (a *Agent) decide(ctx context.Context, emit EmitFunc, dec model.Decision) bool {
	a.logger.Info("agent.think.decision",
		"agent", a.name,
		"content", logging.Truncate(dec.Content, 200),
		"tool_count", len(dec.ToolCalls))

	if a.choice == model.ToolChoiceNone {
		if len(dec.ToolCalls) > 0 {
			a.logger.Warn("agent.think.tool_calls_ignored", "agent", a.name, "count", len(dec.ToolCalls))
		}
		a.setPending(nil)
		if dec.Content == "" {
			a.emitThinkDone(emit, "Thinking complete (no output)", false)
			return false
		}
		a.commitAssistant(ctx, core.AssistantMessage(dec.Content))
		a.emitThinkDone(emit, "Thinking complete", true)
		return true
	}

	if a.choice == model.ToolChoiceRequired && len(dec.ToolCalls) == 0 {
		// The act phase always runs under the required policy, even on an
		// empty decision, so it can surface the protocol violation.
		a.setPending(nil)
		if dec.Content != "" {
			a.commitAssistant(ctx, core.AssistantMessage(dec.Content))
		}
		a.emitThinkDone(emit, "Tool call required but none provided", true)
		return true
	}

	if dec.Content == "" && len(dec.ToolCalls) == 0 {
		// Nothing to say and nothing to do: end the run without adding
		// an empty message.
		a.logger.Info("agent.think.idle_exit", "agent", a.name)
		a.setPending(nil)
		a.setState(core.StateFinished)
		a.emitThinkDone(emit, "Thinking complete (no output)", false)
		return false
	}

	a.setPending(dec.ToolCalls)
	if len(dec.ToolCalls) > 0 {
		a.commitAssistant(ctx, core.AssistantToolCallMessage(dec.Content, dec.ToolCalls))
	} else {
		a.commitAssistant(ctx, core.AssistantMessage(dec.Content))
	}
	a.emitThinkDone(emit, "Thinking complete", true)
	return true
}

func (a *Agent) recordThinkFailure(ctx context.Context, err error) {
	a.logger.Error("agent.think.failed", "agent", a.name, "error", err.Error())
	a.setPending(nil)
	a.commitAssistant(ctx, core.AssistantMessage(fmt.Sprintf("Error encountered while processing: %s", err)))
}

func (a *Agent) commitAssistant(ctx context.Context, msg core.Message) {
	a.mem.AddMessage(ctx, msg.
		WithSpeaker(a.name).
		WithVisibility(a.visibleFor).
		WithTime(a.now()))
}

func (a *Agent) emitThinkDone(emit EmitFunc, content string, shouldAct bool) {
	if emit == nil {
		return
	}
	ev := core.NewStatusEvent(content, a.CurrentStep(), a.maxSteps)
	ev.Metadata = map[string]any{"should_act": shouldAct}
	emit(ev)
}

func toolNames(calls []core.ToolCall) []string {
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Function.Name
	}
	return names
}
