// Package openai implements the model.Client boundary on top of the OpenAI
// Chat Completions API, including streaming deltas and function/tool
// calling. It adapts the engine's normalized request into the SDK's message
// format and back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"

	"github.com/soragoto/kokoro/core"
	"github.com/soragoto/kokoro/model"
)

// aggCall accumulates partial tool call streaming deltas (id, name,
// arguments) so complete tool calls can be reconstructed once the stream
// finishes.
type aggCall struct{ id, name, args string }

// Options configure the OpenAI client adapter. Fields mirror a small subset
// of Chat Completion parameters; extend via functional options.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Client wraps the OpenAI Chat Completions API behind model.Client.
type Client struct {
	sdk  *openai.Client
	opts Options
}

// NewClient creates an adapter using a default SDK client configured from
// the environment.
func NewClient(optFns ...func(o *Options)) *Client {
	sdk := openai.NewClient()
	return NewClientFrom(&sdk, optFns...)
}

// NewClientFrom creates an adapter around an existing SDK client.
func NewClientFrom(sdk *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{sdk: sdk, opts: opts}
}

// AskTool implements model.Client.
func (c *Client) AskTool(ctx context.Context, req model.Request) (*model.Decision, error) {
	params := c.buildParams(req)
	if req.Stream {
		return c.askStreaming(ctx, params, req.OnDelta)
	}
	return c.askBlocking(ctx, params)
}

func (c *Client) buildParams(req model.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	params.Tools = tools
	if req.ToolChoice != "" {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(req.ToolChoice)),
		}
	}
	return params
}

// buildMessages converts the transcript into SDK chat messages. Tool-result
// messages already follow their requesting assistant message in the
// transcript, so order is preserved as-is.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, m := range req.SystemMessages {
		messages = append(messages, openai.SystemMessage(m.Content))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case core.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(m.Content))
				continue
			}
			assistant := &openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: buildToolCalls(m.ToolCalls),
			}
			if m.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: param.NewOpt(m.Content),
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		case core.RoleTool:
			messages = append(messages, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			if m.Content != "" {
				messages = append(messages, openai.UserMessage(m.Content))
			}
		}
	}
	return messages
}

func buildToolCalls(calls []core.ToolCall) []openai.ChatCompletionMessageToolCallParam {
	out := make([]openai.ChatCompletionMessageToolCallParam, len(calls))
	for i, call := range calls {
		out[i] = openai.ChatCompletionMessageToolCallParam{
			ID:   call.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		}
	}
	return out
}

func (c *Client) askBlocking(ctx context.Context, params openai.ChatCompletionNewParams) (*model.Decision, error) {
	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api error: no choices returned")
	}
	msg := resp.Choices[0].Message
	dec := &model.Decision{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		dec.ToolCalls = append(dec.ToolCalls, core.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: core.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return dec, nil
}

func (c *Client) askStreaming(ctx context.Context, params openai.ChatCompletionNewParams, onDelta func(model.Delta)) (*model.Decision, error) {
	stream := c.sdk.Chat.Completions.NewStreaming(ctx, params)
	var content string
	agg := map[int64]*aggCall{}
	var order []int64
	for stream.Next() {
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				content += choice.Delta.Content
				if onDelta != nil {
					onDelta(model.Delta{Text: choice.Delta.Content})
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				ac, ok := agg[tc.Index]
				if !ok {
					ac = &aggCall{}
					agg[tc.Index] = ac
					order = append(order, tc.Index)
				}
				if tc.ID != "" {
					ac.id = tc.ID
				}
				if tc.Function.Name != "" {
					ac.name = tc.Function.Name
				}
				ac.args += tc.Function.Arguments
				if onDelta != nil {
					onDelta(model.Delta{ToolCall: &model.ToolCallDelta{
						ID:        ac.id,
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					}})
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai streaming error: %w", err)
	}
	dec := &model.Decision{Content: content}
	for _, idx := range order {
		ac := agg[idx]
		if ac.id == "" {
			ac.id = core.NewID()
		}
		dec.ToolCalls = append(dec.ToolCalls, core.ToolCall{
			ID:   ac.id,
			Type: "function",
			Function: core.FunctionCall{
				Name:      ac.name,
				Arguments: ac.args,
			},
		})
	}
	return dec, nil
}
