// Package anthropic implements the model.Client boundary on top of the
// Anthropic Messages API with tool use. The adapter is non-streaming; when a
// streaming request arrives, the complete reply text is delivered through
// the delta callback in one fragment so streaming consumers still see it.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/soragoto/kokoro/core"
	"github.com/soragoto/kokoro/model"
)

// Options configure the Anthropic client adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Client wraps the Anthropic Messages API behind model.Client.
type Client struct {
	sdk  *anthropic.Client
	opts Options
}

// NewClient creates an adapter using the official SDK client.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	sdk := anthropic.NewClient(clientOpts...)
	return &Client{sdk: &sdk, opts: opts}
}

// NewClientFrom creates an adapter around an existing SDK client.
func NewClientFrom(sdk *anthropic.Client, optFns ...func(o *Options)) *Client {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{sdk: sdk, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// AskTool implements model.Client.
func (c *Client) AskTool(ctx context.Context, req model.Request) (*model.Decision, error) {
	params := anthropic.MessageNewParams{
		Model:       c.opts.Model,
		Messages:    buildMessages(req.Messages),
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
	}
	if blocks := systemBlocks(req.SystemMessages); len(blocks) > 0 {
		params.System = blocks
	}
	// Under the "none" policy tools are withheld entirely; the thinker
	// discards any tool calls the model produces regardless.
	if len(req.Tools) > 0 && req.ToolChoice != model.ToolChoiceNone {
		params.Tools = buildTools(req.Tools)
		if req.ToolChoice == model.ToolChoiceRequired {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
		}
	}

	resp, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	dec := &model.Decision{}
	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			tb := block.AsToolUse()
			args := "{}"
			if tb.Input != nil {
				if b, err := json.Marshal(tb.Input); err == nil {
					args = string(b)
				}
			}
			id := tb.ID
			if id == "" {
				id = core.NewID()
			}
			dec.ToolCalls = append(dec.ToolCalls, core.ToolCall{
				ID:       id,
				Type:     "function",
				Function: core.FunctionCall{Name: tb.Name, Arguments: args},
			})
		}
	}
	dec.Content = text.String()

	if req.Stream && req.OnDelta != nil {
		if dec.Content != "" {
			req.OnDelta(model.Delta{Text: dec.Content})
		}
		for _, call := range dec.ToolCalls {
			req.OnDelta(model.Delta{ToolCall: &model.ToolCallDelta{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			}})
		}
	}
	return dec, nil
}

func systemBlocks(msgs []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, m := range msgs {
		if m.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: m.Content})
		}
	}
	return blocks
}

// buildMessages converts the transcript into Anthropic messages. Assistant
// tool calls become tool_use blocks; the correlated tool-result messages
// become tool_result blocks inside the next user message, as the Messages
// API requires.
func buildMessages(msgs []core.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	var pendingResults []anthropic.ContentBlockParamUnion

	flushResults := func() {
		if len(pendingResults) > 0 {
			messages = append(messages, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, m := range msgs {
		switch m.Role {
		case core.RoleSystem:
			// System prompts ride in the top-level system field.
			continue
		case core.RoleUser:
			flushResults()
			if m.Content != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
			}
		case core.RoleAssistant:
			flushResults()
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, call := range m.ToolCalls {
				var input any
				if call.Function.Arguments != "" {
					if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
						input = call.Function.Arguments
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, input, call.Function.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		case core.RoleTool:
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false))
		}
	}
	flushResults()
	return messages
}

func buildTools(defs []model.ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(defs))
	for i, def := range defs {
		schema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if params := def.Function.Parameters; params != nil {
			if props, ok := params["properties"]; ok {
				schema.Properties = props
			}
			schema.Required = requiredList(params["required"])
		}
		tools[i] = anthropic.ToolUnionParamOfTool(schema, def.Function.Name)
	}
	return tools
}

func requiredList(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		var out []string
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
