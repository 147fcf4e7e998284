// Package llm adapts genkit models to the conversation driver.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/samber/lo"
	"github.com/va6996/tripchat/agents"
	"github.com/va6996/tripchat/log"
	"github.com/va6996/tripchat/tools"
)

// Model drives a genkit model one turn at a time. Tool requests are returned
// to the caller instead of being executed by genkit.
type Model struct {
	gk       *genkit.Genkit
	model    ai.Model
	registry *tools.Registry
}

var _ agents.Model = (*Model)(nil)

func NewModel(gk *genkit.Genkit, model ai.Model, registry *tools.Registry) *Model {
	return &Model{gk: gk, model: model, registry: registry}
}

// Generate implements agents.Model.
func (m *Model) Generate(ctx context.Context, req agents.ModelRequest, onToken func(string)) (*agents.ModelResponse, error) {
	msgs, err := toGenkitMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	allowed := lo.SliceToMap(req.Tools, func(d tools.Definition) (string, bool) { return d.Name, true })
	refs := lo.FilterMap(m.registry.GetTools(), func(t ai.Tool, _ int) (ai.ToolRef, bool) {
		return t, allowed[t.Name()]
	})

	streamed := false
	opts := []ai.GenerateOption{
		ai.WithModel(m.model),
		ai.WithSystem(req.System),
		ai.WithMessages(msgs...),
		ai.WithReturnToolRequests(true),
		ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			if text := chunk.Text(); text != "" {
				streamed = true
				onToken(text)
			}
			return nil
		}),
	}
	if len(refs) > 0 {
		opts = append(opts, ai.WithTools(refs...))
	}

	log.Debugf(ctx, "Generating with %d messages and %d tools", len(msgs), len(refs))
	resp, err := genkit.Generate(ctx, m.gk, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	out := &agents.ModelResponse{Text: resp.Text()}
	// Some providers ignore streaming when tools are attached.
	if !streamed && out.Text != "" {
		onToken(out.Text)
	}
	for _, tr := range resp.ToolRequests() {
		args, err := toArgs(tr.Input)
		if err != nil {
			log.Warnf(ctx, "Tool %s: unreadable arguments: %v", tr.Name, err)
			args = map[string]interface{}{}
		}
		out.ToolCalls = append(out.ToolCalls, agents.ToolCall{ID: tr.Ref, Name: tr.Name, Args: args})
	}
	return out, nil
}

func toGenkitMessages(msgs []agents.Message) ([]*ai.Message, error) {
	out := make([]*ai.Message, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case agents.RoleUser:
			out = append(out, ai.NewUserTextMessage(msg.Content))
		case agents.RoleAssistant:
			var parts []*ai.Part
			if msg.Content != "" {
				parts = append(parts, ai.NewTextPart(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, ai.NewToolRequestPart(&ai.ToolRequest{Name: call.Name, Ref: call.ID, Input: call.Args}))
			}
			if len(parts) == 0 {
				continue
			}
			out = append(out, ai.NewModelMessage(parts...))
		case agents.RoleTool:
			parts := lo.Map(msg.ToolResults, func(o agents.ToolOutcome, _ int) *ai.Part {
				return ai.NewToolResponsePart(&ai.ToolResponse{Name: o.Name, Ref: o.CallID, Output: o.Output})
			})
			if len(parts) > 0 {
				out = append(out, ai.NewMessage(ai.RoleTool, nil, parts...))
			}
		default:
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}
	return out, nil
}

// toArgs normalizes a tool request input to a JSON object.
func toArgs(input any) (map[string]interface{}, error) {
	switch v := input.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return v, nil
	case string:
		args := map[string]interface{}{}
		if v == "" {
			return args, nil
		}
		err := json.Unmarshal([]byte(v), &args)
		return args, err
	}
	b, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	args := map[string]interface{}{}
	err = json.Unmarshal(b, &args)
	return args, err
}
