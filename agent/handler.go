package agent

import (
	"context"

	"github.com/soragoto/kokoro/core"
	"github.com/soragoto/kokoro/stream"
	"github.com/soragoto/kokoro/tool"
)

// ResultHandler presents one tool result: it stores the result, emits
// whatever events the presentation calls for, and appends exactly one
// tool message to the transcript.
type ResultHandler func(ctx context.Context, a *Agent, emit EmitFunc, call core.ToolCall, res tool.Result)

// StreamResults is the default handler. It emits a structured output
// event when the result carries data, streams the display text as token
// events paced by the tool's category, and then records the tool message.
func StreamResults(ctx context.Context, a *Agent, emit EmitFunc, call core.ToolCall, res tool.Result) {
	a.rememberResult(call.ID, res)

	name := call.Function.Name
	step := a.CurrentStep()
	display := res.String()
	category := a.tools.Category(name)

	if len(res.Args) > 0 {
		emit(core.NewOutputEvent(name, call.ID, step, a.maxSteps, map[string]any{
			"structured_data": res.Args,
			"result_type":     "tool_result",
		}))
	}

	token := func(chunk string) {
		ev := core.NewTokenEvent(chunk, step, a.maxSteps)
		ev.MessageType = name
		ev.MessageID = call.ID
		emit(ev)
	}
	switch category {
	case core.CategoryTelegram, core.CategorySpeakInPerson:
		for chunk := range stream.ByCategory(ctx, display, category, a.pacing) {
			token(chunk)
		}
	default:
		for _, chunk := range stream.Chunks(display, a.chunkSize) {
			token(chunk)
		}
	}

	a.appendToolMessage(ctx, call, display, category)
}

// SilentResults stores the result and records the tool message without
// emitting any events. Useful when another surface renders tool output.
func SilentResults(ctx context.Context, a *Agent, _ EmitFunc, call core.ToolCall, res tool.Result) {
	a.rememberResult(call.ID, res)
	a.appendToolMessage(ctx, call, res.String(), a.tools.Category(call.Function.Name))
}

func (a *Agent) appendToolMessage(ctx context.Context, call core.ToolCall, display string, category core.MessageCategory) {
	a.mem.AddMessage(ctx, core.ToolMessage(display, call.Function.Name, call.ID).
		WithCategory(category).
		WithVisibility(a.visibleFor).
		WithTime(a.now()))
}
