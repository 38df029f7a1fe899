// Package kokoro provides a high-level façade over the agent step loop and
// its services (models, tools, memory, logging) for building conversational
// agents that stream their progress. Most applications interact with this
// package by:
//  1. Creating a Kokoro via New() (optionally overriding the default
//     in-memory services)
//  2. Registering tools beyond the built-in set
//  3. Driving a session with Chat (synchronous) or ChatStream (event channel)
//
// The façade delegates the think/act cycle to agent.Agent while keeping
// setup concise. All defaults are safe for local development and testing;
// production deployments typically supply a durable message store and a
// structured logger.
package kokoro

import (
	"context"

	"github.com/soragoto/kokoro/agent"
	"github.com/soragoto/kokoro/core"
	"github.com/soragoto/kokoro/logging"
	"github.com/soragoto/kokoro/memory"
	"github.com/soragoto/kokoro/model"
	"github.com/soragoto/kokoro/tool"
)

// Options configures a Kokoro instance.
type Options struct {
	// Name identifies the agent in logs and as the speaker on its messages.
	Name string

	// SystemPrompt is sent with every model request.
	SystemPrompt string

	// NextStepPrompt is appended to the transcript before each think phase.
	NextStepPrompt string

	// ToolChoice sets the tool-choice policy (auto by default).
	ToolChoice model.ToolChoice

	// MaxSteps caps the number of steps per run.
	MaxSteps int

	// Store persists transcript messages (defaults to in-memory).
	Store memory.Store

	// Logger defaults to a NoOp logger if nil.
	Logger logging.Logger
}

// Kokoro is the high-level façade aggregating an agent and its services.
type Kokoro struct {
	opts  Options
	agent *agent.Agent
	tools *tool.Collection
}

// New creates a Kokoro instance bound to a session and a model client.
// The default tool set contains terminate and get_current_time.
func New(sessionID string, client model.Client, optFns ...func(o *Options)) *Kokoro {
	opts := Options{
		Name:       "assistant",
		ToolChoice: model.ToolChoiceAuto,
		Store:      memory.NewInMemoryStore(),
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	tools := tool.NewCollection(tool.NewTerminate(), tool.NewCurrentTime())
	mem := memory.New(sessionID,
		memory.WithStore(opts.Store),
		memory.WithLogger(opts.Logger))

	agentOpts := []agent.Option{
		agent.WithSystemPrompt(opts.SystemPrompt),
		agent.WithNextStepPrompt(opts.NextStepPrompt),
		agent.WithToolChoice(opts.ToolChoice),
		agent.WithTools(tools),
		agent.WithMemory(mem),
		agent.WithLogger(opts.Logger),
	}
	if opts.MaxSteps > 0 {
		agentOpts = append(agentOpts, agent.WithMaxSteps(opts.MaxSteps))
	}

	return &Kokoro{
		opts:  opts,
		agent: agent.New(opts.Name, sessionID, client, agentOpts...),
		tools: tools,
	}
}

// RegisterTools adds tools to the agent's collection.
func (k *Kokoro) RegisterTools(tools ...tool.Tool) {
	k.tools.Add(tools...)
}

// Agent exposes the underlying agent for advanced configuration.
func (k *Kokoro) Agent() *agent.Agent { return k.agent }

// Chat runs a full loop for one user input and returns the concatenated
// token output.
func (k *Kokoro) Chat(ctx context.Context, input string) (string, error) {
	return k.agent.Run(ctx, input)
}

// ChatStream runs a full loop for one user input and returns the event
// channel. The channel closes after the final event.
func (k *Kokoro) ChatStream(ctx context.Context, input string) (<-chan core.Event, error) {
	return k.agent.RunStream(ctx, input)
}
