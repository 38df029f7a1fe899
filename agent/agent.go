package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/soragoto/kokoro/core"
	"github.com/soragoto/kokoro/internal/prompt"
	"github.com/soragoto/kokoro/logging"
	"github.com/soragoto/kokoro/memory"
	"github.com/soragoto/kokoro/model"
	"github.com/soragoto/kokoro/stream"
	"github.com/soragoto/kokoro/tool"
)

const (
	defaultMaxSteps           = 10
	defaultDuplicateThreshold = 2

	// Injected into the next-step prompt when the agent keeps producing
	// the same reply.
	stuckPrompt = "Observed duplicate responses. Consider new strategies and avoid repeating ineffective paths already attempted."
)

// EmitFunc receives events produced while a step runs.
type EmitFunc func(core.Event)

// MessageFormatter rewrites the transcript before it is sent to the model.
// Implementations can trim history, redact messages not visible to the
// current audience, or fold metadata into message content.
type MessageFormatter func([]core.Message) []core.Message

// Agent runs a think/act loop against a model client and a tool collection.
type Agent struct {
	name           string
	description    string
	sessionID      string
	systemPrompt   string
	nextStepPrompt string
	visibleFor     []string

	client    model.Client
	mem       *memory.Memory
	tools     *tool.Collection
	choice    model.ToolChoice
	special   map[string]struct{}
	handler   ResultHandler
	formatter MessageFormatter
	pacing    stream.PacingConfig
	chunkSize int
	logger    logging.Logger
	now       func() time.Time

	maxSteps           int
	duplicateThreshold int

	mu          sync.Mutex
	state       core.AgentState
	currentStep int
	pending     []core.ToolCall
	results     map[string]tool.Result
}

// Option configures an Agent.
type Option func(*Agent)

// WithDescription sets a human readable description of the agent.
func WithDescription(desc string) Option {
	return func(a *Agent) { a.description = desc }
}

// WithSystemPrompt sets the system prompt sent with every model request.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) { a.systemPrompt = prompt }
}

// WithNextStepPrompt sets the prompt appended to the transcript before
// each think phase.
func WithNextStepPrompt(prompt string) Option {
	return func(a *Agent) { a.nextStepPrompt = prompt }
}

// WithTools replaces the agent's tool collection.
func WithTools(tools *tool.Collection) Option {
	return func(a *Agent) { a.tools = tools }
}

// WithToolChoice sets the tool-choice policy for model requests.
func WithToolChoice(choice model.ToolChoice) Option {
	return func(a *Agent) { a.choice = choice }
}

// WithSpecialTools sets the tool names whose successful execution finishes
// the run. The default set contains the terminate tool.
func WithSpecialTools(names ...string) Option {
	return func(a *Agent) {
		a.special = make(map[string]struct{}, len(names))
		for _, n := range names {
			a.special[strings.ToLower(n)] = struct{}{}
		}
	}
}

// WithMemory replaces the agent's conversation memory.
func WithMemory(mem *memory.Memory) Option {
	return func(a *Agent) { a.mem = mem }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// WithResultHandler sets the strategy used to present tool results.
func WithResultHandler(h ResultHandler) Option {
	return func(a *Agent) { a.handler = h }
}

// WithMessageFormatter sets a transcript rewrite applied before each model
// request.
func WithMessageFormatter(f MessageFormatter) Option {
	return func(a *Agent) { a.formatter = f }
}

// WithMaxSteps caps the number of steps a single run may take.
func WithMaxSteps(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// WithVisibleFor restricts who the agent's messages are visible to.
func WithVisibleFor(names ...string) Option {
	return func(a *Agent) { a.visibleFor = names }
}

// WithPacing sets the delay profile used when streaming tool results.
func WithPacing(cfg stream.PacingConfig) Option {
	return func(a *Agent) { a.pacing = cfg }
}

// WithChunkSize sets the chunk size used when streaming uncategorized
// tool results.
func WithChunkSize(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.chunkSize = n
		}
	}
}

// WithClock overrides the time source used to stamp messages.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// New creates an agent bound to a session and a model client.
func New(name, sessionID string, client model.Client, opts ...Option) *Agent {
	a := &Agent{
		name:               name,
		sessionID:          sessionID,
		client:             client,
		choice:             model.ToolChoiceAuto,
		handler:            StreamResults,
		pacing:             stream.DefaultPacingConfig(),
		chunkSize:          stream.DefaultChunkSize,
		logger:             logging.NewDefaultLogger(),
		now:                time.Now,
		maxSteps:           defaultMaxSteps,
		duplicateThreshold: defaultDuplicateThreshold,
		state:              core.StateIdle,
		special:            map[string]struct{}{tool.TerminateName: {}},
		results:            make(map[string]tool.Result),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.mem == nil {
		a.mem = memory.New(sessionID, memory.WithLogger(a.logger))
	}
	if a.tools == nil {
		a.tools = tool.NewCollection(tool.NewTerminate())
	}
	return a
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's description.
func (a *Agent) Description() string { return a.description }

// Memory returns the agent's conversation memory.
func (a *Agent) Memory() *memory.Memory { return a.mem }

// Tools returns the agent's tool collection.
func (a *Agent) Tools() *tool.Collection { return a.tools }

// State returns the agent's current lifecycle state.
func (a *Agent) State() core.AgentState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// CurrentStep returns the number of steps taken so far.
func (a *Agent) CurrentStep() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentStep
}

// Result returns the stored result of a tool call by its call ID.
func (a *Agent) Result(callID string) (tool.Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	res, ok := a.results[callID]
	return res, ok
}

// Run executes the loop to completion and returns the concatenated token
// output.
func (a *Agent) Run(ctx context.Context, input string) (string, error) {
	events, err := a.RunStream(ctx, input)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for ev := range events {
		if ev.Kind == core.EventToken {
			b.WriteString(ev.Content)
		}
	}
	return b.String(), nil
}

// RunStream starts the loop and returns a channel of events. The channel
// is closed after the final event. The agent must be idle; a second run
// on an already running agent fails.
func (a *Agent) RunStream(ctx context.Context, input string) (<-chan core.Event, error) {
	a.mu.Lock()
	if a.state != core.StateIdle {
		state := a.state
		a.mu.Unlock()
		return nil, fmt.Errorf("cannot start run from state %s", state)
	}
	a.state = core.StateRunning
	a.currentStep = 0
	a.mu.Unlock()

	if input != "" {
		a.mem.AddMessage(ctx, core.UserMessage(input).WithVisibility(a.visibleFor).WithTime(a.now()))
	}

	events := make(chan core.Event, 64)
	go func() {
		defer close(events)
		defer func() {
			// The run is over; return the agent to idle so the session
			// can be driven again.
			a.mu.Lock()
			a.state = core.StateIdle
			a.mu.Unlock()
		}()
		emit := func(ev core.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}
		for {
			a.mu.Lock()
			exhausted := a.currentStep >= a.maxSteps
			finished := a.state.Terminal()
			step := a.currentStep
			a.mu.Unlock()
			if exhausted || finished || ctx.Err() != nil {
				if exhausted && !finished {
					a.logger.Warn("agent.run.max_steps_reached", "agent", a.name, "max_steps", a.maxSteps)
				}
				break
			}
			emit(core.NewStepEvent(fmt.Sprintf("Step %d/%d", step+1, a.maxSteps), step+1, a.maxSteps))
			if err := a.Step(ctx, emit); err != nil {
				a.logger.Error("agent.step.failed", "agent", a.name, "step", step+1, "error", err.Error())
				break
			}
			if a.isStuck() {
				a.handleStuck()
			}
		}
		emit(core.NewFinalEvent())
	}()
	return events, nil
}

// Step runs a single think/act cycle and reports events through emit.
// An idle agent is promoted to running; a terminal agent does nothing.
func (a *Agent) Step(ctx context.Context, emit EmitFunc) error {
	if emit == nil {
		emit = func(core.Event) {}
	}
	a.mu.Lock()
	if a.state == core.StateIdle {
		a.state = core.StateRunning
	}
	if a.state.Terminal() {
		a.mu.Unlock()
		return nil
	}
	a.currentStep++
	step := a.currentStep
	a.mu.Unlock()

	emit(core.NewStatusEvent("Thinking...", step, a.maxSteps))
	if !a.thinkStream(ctx, emit) {
		return nil
	}
	return a.actStream(ctx, emit)
}

func (a *Agent) buildRequest(streaming bool) model.Request {
	a.mu.Lock()
	nextStep := a.nextStepPrompt
	a.mu.Unlock()

	msgs := a.mem.Messages()
	if nextStep != "" {
		msgs = append(msgs, core.SystemMessage(a.renderPrompt(nextStep)).WithTime(a.now()))
	}
	if a.formatter != nil {
		msgs = a.formatter(msgs)
	}

	var system []core.Message
	if a.systemPrompt != "" {
		system = []core.Message{core.SystemMessage(a.renderPrompt(a.systemPrompt)).WithTime(a.now())}
	}

	var defs []model.ToolDefinition
	for _, t := range a.tools.Tools() {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	return model.Request{
		Messages:       msgs,
		SystemMessages: system,
		Tools:          defs,
		ToolChoice:     a.choice,
		Stream:         streaming,
	}
}

// renderPrompt substitutes session variables into a prompt template. A
// broken template is used verbatim rather than failing the step.
func (a *Agent) renderPrompt(text string) string {
	rendered, err := prompt.Render(text, map[string]any{
		"AgentName": a.name,
		"SessionID": a.sessionID,
		"Now":       a.now().Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		a.logger.Warn("agent.prompt.render_failed", "agent", a.name, "error", err.Error())
		return text
	}
	return rendered
}

func (a *Agent) setState(s core.AgentState) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

func (a *Agent) setPending(calls []core.ToolCall) {
	a.mu.Lock()
	a.pending = calls
	a.mu.Unlock()
}

func (a *Agent) pendingCalls() []core.ToolCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.ToolCall, len(a.pending))
	copy(out, a.pending)
	return out
}

func (a *Agent) rememberResult(callID string, res tool.Result) {
	if callID == "" {
		return
	}
	a.mu.Lock()
	a.results[callID] = res
	a.mu.Unlock()
}

func (a *Agent) isSpecial(name string) bool {
	_, ok := a.special[strings.ToLower(name)]
	return ok
}

// isStuck reports whether the latest assistant reply duplicates enough
// earlier ones to suggest the agent is looping.
func (a *Agent) isStuck() bool {
	msgs := a.mem.Messages()
	if len(msgs) < 2 {
		return false
	}
	last := msgs[len(msgs)-1]
	if last.Content == "" {
		return false
	}
	duplicates := 0
	for _, msg := range msgs[:len(msgs)-1] {
		if msg.Role == core.RoleAssistant && msg.Content == last.Content {
			duplicates++
		}
	}
	return duplicates >= a.duplicateThreshold
}

func (a *Agent) handleStuck() {
	a.mu.Lock()
	if a.nextStepPrompt == "" {
		a.nextStepPrompt = stuckPrompt
	} else {
		a.nextStepPrompt = stuckPrompt + "\n" + a.nextStepPrompt
	}
	a.mu.Unlock()
	a.logger.Warn("agent.stuck_detected", "agent", a.name, "session_id", a.sessionID)
}
