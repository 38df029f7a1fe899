package agent

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soragoto/kokoro/core"
	"github.com/soragoto/kokoro/logging"
	"github.com/soragoto/kokoro/model"
	"github.com/soragoto/kokoro/stream"
	"github.com/soragoto/kokoro/tool"
)

// -------------------- Helpers --------------------

func testAgent(client model.Client, opts ...Option) *Agent {
	base := []Option{
		WithLogger(logging.NoOpLogger{}),
		WithPacing(stream.PacingConfig{}),
	}
	return New("testbot", "session-1", client, append(base, opts...)...)
}

// echoTool returns its "text" argument and counts invocations.
func echoTool(calls *atomic.Int64) tool.Tool {
	return tool.NewFunctionTool("echo", "Echo the given text", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
	}, func(_ context.Context, args map[string]any) (tool.Result, error) {
		if calls != nil {
			calls.Add(1)
		}
		text, _ := args["text"].(string)
		return tool.Result{Content: text}, nil
	})
}

func toolCall(id, name, args string) core.ToolCall {
	return core.ToolCall{
		ID:       id,
		Type:     "function",
		Function: core.FunctionCall{Name: name, Arguments: args},
	}
}

func collector() (EmitFunc, *[]core.Event) {
	events := &[]core.Event{}
	return func(ev core.Event) { *events = append(*events, ev) }, events
}

func filterKind(events []core.Event, kind core.EventKind) []core.Event {
	var out []core.Event
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func toolMessages(msgs []core.Message) []core.Message {
	var out []core.Message
	for _, m := range msgs {
		if m.Role == core.RoleTool {
			out = append(out, m)
		}
	}
	return out
}

func lastStatus(t *testing.T, events []core.Event) core.Event {
	t.Helper()
	statuses := filterKind(events, core.EventToolStatus)
	require.NotEmpty(t, statuses)
	return statuses[len(statuses)-1]
}

// -------------------- Think phase --------------------

func TestStep_ContentOnlyReply(t *testing.T) {
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{Content: "OK"},
	})
	a := testAgent(client)
	emit, events := collector()

	err := a.Step(context.Background(), emit)
	require.NoError(t, err)

	msgs := a.Memory().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, core.RoleAssistant, msgs[0].Role)
	assert.Equal(t, "OK", msgs[0].Content)
	assert.Equal(t, "testbot", msgs[0].Speaker)
	assert.Empty(t, toolMessages(msgs))
	assert.Equal(t, core.StateRunning, a.State())
	assert.Equal(t, 1, a.CurrentStep())

	done := lastStatus(t, *events)
	assert.Equal(t, "Thinking complete", done.Content)
}

func TestStep_IdleExitWithoutOutput(t *testing.T) {
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{},
	})
	a := testAgent(client)
	emit, events := collector()

	err := a.Step(context.Background(), emit)
	require.NoError(t, err)

	assert.Empty(t, a.Memory().Messages(), "no empty assistant message should be recorded")
	assert.Equal(t, core.StateFinished, a.State())

	done := lastStatus(t, *events)
	assert.Equal(t, "Thinking complete (no output)", done.Content)
	assert.Equal(t, false, done.Metadata["should_act"])
}

func TestStep_StreamsDeltasBeforeFailure(t *testing.T) {
	client := model.NewMockClient(model.MockTurn{
		Deltas: []model.Delta{{Text: "A"}, {Text: "B"}, {Text: "C"}},
		Err:    errors.New("model unavailable"),
	})
	a := testAgent(client)
	emit, events := collector()

	err := a.Step(context.Background(), emit)
	require.NoError(t, err, "model failure is absorbed, not returned")

	tokens := filterKind(*events, core.EventToken)
	require.Len(t, tokens, 3)
	assert.Equal(t, "A", tokens[0].Content)
	assert.Equal(t, "B", tokens[1].Content)
	assert.Equal(t, "C", tokens[2].Content)

	require.Len(t, filterKind(*events, core.EventError), 1)

	done := lastStatus(t, *events)
	assert.Equal(t, "Thinking failed", done.Content)
	assert.Equal(t, false, done.Metadata["should_act"])

	msgs := a.Memory().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, core.RoleAssistant, msgs[0].Role)
	assert.Equal(t, "Error encountered while processing: model unavailable", msgs[0].Content)
}

func TestThink_ModelFailureIsAbsorbed(t *testing.T) {
	client := model.NewMockClient(model.MockTurn{Err: errors.New("boom")})
	a := testAgent(client)

	shouldAct, err := a.Think(context.Background())
	require.NoError(t, err)
	assert.False(t, shouldAct)

	msgs := a.Memory().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Error encountered while processing: boom", msgs[0].Content)
}

func TestStep_ToolChoiceNoneIgnoresToolCalls(t *testing.T) {
	var calls atomic.Int64
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{
			Content:   "answering directly",
			ToolCalls: []core.ToolCall{toolCall("c1", "echo", `{"text":"hi"}`)},
		},
	})
	a := testAgent(client,
		WithToolChoice(model.ToolChoiceNone),
		WithTools(tool.NewCollection(echoTool(&calls))))
	emit, _ := collector()

	err := a.Step(context.Background(), emit)
	require.NoError(t, err)

	assert.Equal(t, int64(0), calls.Load(), "tool calls must be ignored under the none policy")
	msgs := a.Memory().Messages()
	require.Len(t, msgs, 1)
	assert.Empty(t, msgs[0].ToolCalls)
	assert.Empty(t, toolMessages(msgs))
}

func TestStep_RequiredWithoutToolCall(t *testing.T) {
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{Content: "I refuse to call tools"},
	})
	a := testAgent(client, WithToolChoice(model.ToolChoiceRequired))
	emit, events := collector()

	err := a.Step(context.Background(), emit)
	require.ErrorIs(t, err, ErrToolCallRequired)

	msgs := a.Memory().Messages()
	require.Len(t, msgs, 1, "the assistant reply is still recorded")
	assert.Empty(t, toolMessages(msgs))
	assert.Equal(t, core.StateRunning, a.State())
	require.Len(t, filterKind(*events, core.EventError), 1)
}

func TestStep_RequiredWithEmptyDecision(t *testing.T) {
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{},
	})
	a := testAgent(client, WithToolChoice(model.ToolChoiceRequired))
	emit, events := collector()

	err := a.Step(context.Background(), emit)
	require.ErrorIs(t, err, ErrToolCallRequired)

	assert.Equal(t, core.StateRunning, a.State(), "an empty reply must not end the run under the required policy")
	assert.Empty(t, a.Memory().Messages())
	require.Len(t, filterKind(*events, core.EventError), 1)
}

// -------------------- Act phase --------------------

func TestStep_ExecutesToolCallsInOrder(t *testing.T) {
	var calls atomic.Int64
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{
			Content: "let me check",
			ToolCalls: []core.ToolCall{
				toolCall("c1", "echo", `{"text":"first"}`),
				toolCall("c2", "echo", `{"text":"second"}`),
			},
		},
	})
	a := testAgent(client, WithTools(tool.NewCollection(echoTool(&calls))))
	emit, events := collector()

	err := a.Step(context.Background(), emit)
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load())

	msgs := a.Memory().Messages()
	results := toolMessages(msgs)
	require.Len(t, results, 2, "one tool message per call")
	assert.Equal(t, "c1", results[0].ToolCallID)
	assert.Equal(t, "first", results[0].Content)
	assert.Equal(t, "c2", results[1].ToolCallID)
	assert.Equal(t, "second", results[1].Content)

	res, ok := a.Result("c1")
	require.True(t, ok)
	assert.Equal(t, "first", res.Content)

	tokens := filterKind(*events, core.EventToken)
	require.Len(t, tokens, 2)
	assert.Equal(t, "c1", tokens[0].MessageID)
	assert.Equal(t, "echo", tokens[0].MessageType)
}

func TestStep_UnknownTool(t *testing.T) {
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{
			ToolCalls: []core.ToolCall{toolCall("c1", "bogus", `{}`)},
		},
	})
	a := testAgent(client)
	emit, _ := collector()

	err := a.Step(context.Background(), emit)
	require.NoError(t, err, "unknown tools do not break the loop")

	results := toolMessages(a.Memory().Messages())
	require.Len(t, results, 1)
	assert.Equal(t, "Error: Unknown tool 'bogus'", results[0].Content)
	assert.Equal(t, core.StateRunning, a.State())
}

func TestStep_MissingToolName(t *testing.T) {
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{
			ToolCalls: []core.ToolCall{toolCall("c1", "", `{}`)},
		},
	})
	a := testAgent(client)

	err := a.Step(context.Background(), func(core.Event) {})
	require.NoError(t, err)

	results := toolMessages(a.Memory().Messages())
	require.Len(t, results, 1)
	assert.Equal(t, "Error: Invalid command format", results[0].Content)
}

func TestStep_MalformedArguments(t *testing.T) {
	var calls atomic.Int64
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{
			ToolCalls: []core.ToolCall{toolCall("c1", "echo", `42`)},
		},
	})
	a := testAgent(client, WithTools(tool.NewCollection(echoTool(&calls))))

	err := a.Step(context.Background(), func(core.Event) {})
	require.NoError(t, err)

	assert.Equal(t, int64(0), calls.Load(), "the tool must not run on bad arguments")
	results := toolMessages(a.Memory().Messages())
	require.Len(t, results, 1)
	assert.Equal(t, "Error parsing arguments for echo: Invalid JSON format", results[0].Content)
}

func TestStep_RepairableArguments(t *testing.T) {
	var calls atomic.Int64
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{
			ToolCalls: []core.ToolCall{toolCall("c1", "echo", `{text: "hi"}`)},
		},
	})
	a := testAgent(client, WithTools(tool.NewCollection(echoTool(&calls))))

	err := a.Step(context.Background(), func(core.Event) {})
	require.NoError(t, err)

	assert.Equal(t, int64(1), calls.Load(), "slightly malformed JSON should be repaired")
	results := toolMessages(a.Memory().Messages())
	require.Len(t, results, 1)
	assert.Equal(t, "hi", results[0].Content)
}

func TestStep_ToolFailure(t *testing.T) {
	failing := tool.NewFunctionTool("flaky", "Always fails", map[string]any{"type": "object"},
		func(_ context.Context, _ map[string]any) (tool.Result, error) {
			return tool.Result{}, errors.New("disk on fire")
		})
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{
			ToolCalls: []core.ToolCall{toolCall("c1", "flaky", `{}`)},
		},
	})
	a := testAgent(client, WithTools(tool.NewCollection(failing)))

	err := a.Step(context.Background(), func(core.Event) {})
	require.NoError(t, err)

	results := toolMessages(a.Memory().Messages())
	require.Len(t, results, 1)
	assert.Equal(t, "Tool 'flaky' encountered a problem: disk on fire", results[0].Content)
	assert.Equal(t, core.StateRunning, a.State())
}

func TestStep_ToolPanicIsRecovered(t *testing.T) {
	panicking := tool.NewFunctionTool("grenade", "Panics", map[string]any{"type": "object"},
		func(_ context.Context, _ map[string]any) (tool.Result, error) {
			panic("pin pulled")
		})
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{
			ToolCalls: []core.ToolCall{toolCall("c1", "grenade", `{}`)},
		},
	})
	a := testAgent(client, WithTools(tool.NewCollection(panicking)))

	err := a.Step(context.Background(), func(core.Event) {})
	require.NoError(t, err)

	results := toolMessages(a.Memory().Messages())
	require.Len(t, results, 1)
	assert.Equal(t, "Tool 'grenade' encountered a problem: tool panicked: pin pulled", results[0].Content)
}

func TestStep_SpecialToolFinishesRun(t *testing.T) {
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{
			ToolCalls: []core.ToolCall{toolCall("c1", "terminate", `{"status":"success"}`)},
		},
	})
	a := testAgent(client)

	err := a.Step(context.Background(), func(core.Event) {})
	require.NoError(t, err)

	assert.Equal(t, core.StateFinished, a.State())
	results := toolMessages(a.Memory().Messages())
	require.Len(t, results, 1)
	assert.Equal(t, "The interaction has been completed with status: success", results[0].Content)
}

func TestAct_NonStreaming(t *testing.T) {
	var calls atomic.Int64
	a := testAgent(model.NewMockClient(), WithTools(tool.NewCollection(echoTool(&calls))))
	a.setPending([]core.ToolCall{toolCall("c1", "echo", `{"text":"pong"}`)})

	out, err := a.Act(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", out)

	results := toolMessages(a.Memory().Messages())
	require.Len(t, results, 1)
	assert.Equal(t, "pong", results[0].Content)
}

func TestAct_RequiredWithoutPendingCalls(t *testing.T) {
	a := testAgent(model.NewMockClient(), WithToolChoice(model.ToolChoiceRequired))

	_, err := a.Act(context.Background())
	require.ErrorIs(t, err, ErrToolCallRequired)
}

// -------------------- Result handlers --------------------

func TestStep_SilentHandlerEmitsNothing(t *testing.T) {
	var calls atomic.Int64
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{
			ToolCalls: []core.ToolCall{toolCall("c1", "echo", `{"text":"quiet"}`)},
		},
	})
	a := testAgent(client,
		WithTools(tool.NewCollection(echoTool(&calls))),
		WithResultHandler(SilentResults))
	emit, events := collector()

	err := a.Step(context.Background(), emit)
	require.NoError(t, err)

	assert.Empty(t, filterKind(*events, core.EventToken))
	assert.Empty(t, filterKind(*events, core.EventToolOutput))

	results := toolMessages(a.Memory().Messages())
	require.Len(t, results, 1, "the transcript mutation is identical to the streaming handler")
	assert.Equal(t, "quiet", results[0].Content)

	res, ok := a.Result("c1")
	require.True(t, ok)
	assert.Equal(t, "quiet", res.Content)
}

func TestStep_StructuredOutputEvent(t *testing.T) {
	weather := tool.NewFunctionTool("weather", "Fake weather", map[string]any{"type": "object"},
		func(_ context.Context, _ map[string]any) (tool.Result, error) {
			return tool.Result{
				Content: "Sunny, 23C",
				Args:    map[string]any{"temp_c": 23},
			}, nil
		})
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{
			ToolCalls: []core.ToolCall{toolCall("c1", "weather", `{}`)},
		},
	})
	a := testAgent(client, WithTools(tool.NewCollection(weather)))
	emit, events := collector()

	err := a.Step(context.Background(), emit)
	require.NoError(t, err)

	outputs := filterKind(*events, core.EventToolOutput)
	require.Len(t, outputs, 1)
	assert.Empty(t, outputs[0].Content, "structured output rides in metadata only")
	assert.Equal(t, "c1", outputs[0].MessageID)
	data, ok := outputs[0].Metadata["structured_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 23, data["temp_c"])
}

func TestStep_TypewriterPacingForSpokenTools(t *testing.T) {
	speak := tool.NewFunctionTool("speak_in_person", "Speak aloud", map[string]any{"type": "object"},
		func(_ context.Context, args map[string]any) (tool.Result, error) {
			msg, _ := args["message"].(string)
			return tool.Result{Content: msg}, nil
		}, tool.WithCategory(core.CategorySpeakInPerson))
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{
			ToolCalls: []core.ToolCall{toolCall("c1", "speak_in_person", `{"message":"hi!"}`)},
		},
	})
	a := testAgent(client, WithTools(tool.NewCollection(speak)))
	emit, events := collector()

	err := a.Step(context.Background(), emit)
	require.NoError(t, err)

	tokens := filterKind(*events, core.EventToken)
	require.Len(t, tokens, 3, "spoken output streams character by character")
	assert.Equal(t, "h", tokens[0].Content)
	assert.Equal(t, "i", tokens[1].Content)
	assert.Equal(t, "!", tokens[2].Content)

	results := toolMessages(a.Memory().Messages())
	require.Len(t, results, 1)
	assert.Equal(t, core.CategorySpeakInPerson, results[0].Category)
}

// -------------------- Run loop --------------------

func TestRun_CollectsTokenOutput(t *testing.T) {
	client := model.NewMockClient(
		model.MockTurn{
			Deltas:   []model.Delta{{Text: "Hel"}, {Text: "lo"}},
			Decision: &model.Decision{Content: "Hello"},
		},
		model.MockTurn{Decision: &model.Decision{}},
	)
	a := testAgent(client)

	out, err := a.Run(context.Background(), "say hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)
	assert.Equal(t, 2, client.Calls())
	assert.Equal(t, core.StateIdle, a.State(), "the agent is reusable after a run")
}

func TestRunStream_TerminateEndsRun(t *testing.T) {
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{
			Content:   "all done",
			ToolCalls: []core.ToolCall{toolCall("c1", "terminate", `{}`)},
		},
	})
	a := testAgent(client)

	events, err := a.RunStream(context.Background(), "wrap it up")
	require.NoError(t, err)

	var all []core.Event
	for ev := range events {
		all = append(all, ev)
	}

	require.NotEmpty(t, all)
	assert.Equal(t, core.EventFinal, all[len(all)-1].Kind)
	assert.Len(t, filterKind(all, core.EventStep), 1)
	assert.Equal(t, 1, client.Calls())

	msgs := a.Memory().Messages()
	require.Len(t, msgs, 3, "user input, assistant reply, tool result")
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, core.RoleAssistant, msgs[1].Role)
	assert.Equal(t, core.RoleTool, msgs[2].Role)
}

func TestRunStream_ReusedAgentStartsFreshStepCount(t *testing.T) {
	terminate := model.MockTurn{
		Decision: &model.Decision{
			ToolCalls: []core.ToolCall{toolCall("c1", "terminate", `{}`)},
		},
	}
	client := model.NewMockClient(terminate, terminate)
	a := testAgent(client, WithMaxSteps(1))

	for run := 1; run <= 2; run++ {
		events, err := a.RunStream(context.Background(), fmt.Sprintf("request %d", run))
		require.NoError(t, err)

		var all []core.Event
		for ev := range events {
			all = append(all, ev)
		}
		assert.Len(t, filterKind(all, core.EventStep), 1, "run %d should execute a step", run)
	}
	assert.Equal(t, 2, client.Calls())
}

func TestRunStream_StopsAtMaxSteps(t *testing.T) {
	turns := make([]model.MockTurn, 0, 2)
	for i := 0; i < 2; i++ {
		turns = append(turns, model.MockTurn{
			Decision: &model.Decision{Content: fmt.Sprintf("thought %d", i)},
		})
	}
	client := model.NewMockClient(turns...)
	a := testAgent(client, WithMaxSteps(2))

	events, err := a.RunStream(context.Background(), "loop forever")
	require.NoError(t, err)

	var all []core.Event
	for ev := range events {
		all = append(all, ev)
	}

	assert.Len(t, filterKind(all, core.EventStep), 2)
	assert.Equal(t, core.EventFinal, all[len(all)-1].Kind)
	assert.Equal(t, 2, client.Calls())
}

func TestRunStream_RejectsConcurrentRun(t *testing.T) {
	a := testAgent(model.NewMockClient())
	a.setState(core.StateRunning)

	_, err := a.RunStream(context.Background(), "again")
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(core.StateRunning))
}

func TestRunStream_StepFailureStopsLoop(t *testing.T) {
	client := model.NewMockClient(model.MockTurn{
		Decision: &model.Decision{Content: "no tools for you"},
	})
	a := testAgent(client, WithToolChoice(model.ToolChoiceRequired))

	events, err := a.RunStream(context.Background(), "must call a tool")
	require.NoError(t, err)

	var all []core.Event
	for ev := range events {
		all = append(all, ev)
	}

	assert.Len(t, filterKind(all, core.EventStep), 1, "the loop stops after the protocol violation")
	assert.Equal(t, core.EventFinal, all[len(all)-1].Kind)
	assert.Equal(t, 1, client.Calls())
}

// -------------------- Stuck detection --------------------

func TestIsStuck(t *testing.T) {
	a := testAgent(model.NewMockClient())
	ctx := context.Background()

	a.Memory().AddMessage(ctx, core.AssistantMessage("same answer"))
	a.Memory().AddMessage(ctx, core.UserMessage("try again"))
	a.Memory().AddMessage(ctx, core.AssistantMessage("same answer"))
	assert.False(t, a.isStuck(), "one duplicate is below the threshold")

	a.Memory().AddMessage(ctx, core.AssistantMessage("same answer"))
	assert.True(t, a.isStuck())
}

func TestHandleStuckPrependsPrompt(t *testing.T) {
	a := testAgent(model.NewMockClient(), WithNextStepPrompt("What next?"))

	a.handleStuck()

	req := a.buildRequest(false)
	require.NotEmpty(t, req.Messages)
	last := req.Messages[len(req.Messages)-1]
	assert.Equal(t, core.RoleSystem, last.Role)
	assert.Contains(t, last.Content, "Observed duplicate responses")
	assert.Contains(t, last.Content, "What next?")
}

// -------------------- Request assembly --------------------

func TestBuildRequest(t *testing.T) {
	var calls atomic.Int64
	a := testAgent(model.NewMockClient(),
		WithSystemPrompt("You are a helpful bot."),
		WithNextStepPrompt("Decide your next move."),
		WithTools(tool.NewCollection(echoTool(&calls), tool.NewTerminate())),
		WithToolChoice(model.ToolChoiceRequired))
	a.Memory().AddMessage(context.Background(), core.UserMessage("hello"))

	req := a.buildRequest(true)

	assert.True(t, req.Stream)
	assert.Equal(t, model.ToolChoiceRequired, req.ToolChoice)
	require.Len(t, req.SystemMessages, 1)
	assert.Equal(t, "You are a helpful bot.", req.SystemMessages[0].Content)

	require.Len(t, req.Messages, 2)
	assert.Equal(t, core.RoleUser, req.Messages[0].Role)
	assert.Equal(t, core.RoleSystem, req.Messages[1].Role)
	assert.Equal(t, "Decide your next move.", req.Messages[1].Content)

	require.Len(t, req.Tools, 2)
	assert.Equal(t, "echo", req.Tools[0].Function.Name)
	assert.Equal(t, tool.TerminateName, req.Tools[1].Function.Name)
}

func TestBuildRequestRendersPromptTemplates(t *testing.T) {
	a := testAgent(model.NewMockClient(),
		WithSystemPrompt("You are {{.AgentName}} in session {{.SessionID}}."))

	req := a.buildRequest(false)
	require.Len(t, req.SystemMessages, 1)
	assert.Equal(t, "You are testbot in session session-1.", req.SystemMessages[0].Content)
}

func TestMessageFormatterRewritesTranscript(t *testing.T) {
	a := testAgent(model.NewMockClient(),
		WithMessageFormatter(func(msgs []core.Message) []core.Message {
			out := make([]core.Message, 0, len(msgs))
			for _, m := range msgs {
				if m.Role != core.RoleSystem {
					out = append(out, m)
				}
			}
			return out
		}),
		WithNextStepPrompt("hidden"))
	a.Memory().AddMessage(context.Background(), core.UserMessage("hi"))

	req := a.buildRequest(false)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, core.RoleUser, req.Messages[0].Role)
}
