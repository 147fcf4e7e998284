package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
	"github.com/va6996/tripchat/tools"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxTurns bounds model invocations per run.
const DefaultMaxTurns = 25

// ErrMaxTurnsExceeded stops a model that keeps requesting tools.
var ErrMaxTurnsExceeded = errors.New("conversation exceeded the maximum number of model turns")

// State is the driver's position in the model/tool alternation.
type State int

const (
	StateAgentTurn State = iota
	StateToolExecution
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAgentTurn:
		return "AgentTurn"
	case StateToolExecution:
		return "ToolExecution"
	default:
		return "Terminated"
	}
}

// transition returns the state after s, given how many tool calls the last
// model response requested.
func transition(s State, pendingCalls int) State {
	switch s {
	case StateAgentTurn:
		if pendingCalls == 0 {
			return StateTerminated
		}
		return StateToolExecution
	case StateToolExecution:
		return StateAgentTurn
	default:
		return StateTerminated
	}
}

// Options tune a Driver.
type Options struct {
	MaxTurns        int
	ToolConcurrency int
}

// Driver runs one conversation turn: model, tools, model, ... until the
// model answers without requesting tools.
type Driver struct {
	model    Model
	registry *tools.Registry
	opts     Options
}

func NewDriver(model Model, registry *tools.Registry, opts Options) *Driver {
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	if opts.ToolConcurrency <= 0 {
		opts.ToolConcurrency = 1
	}
	return &Driver{model: model, registry: registry, opts: opts}
}

// RunRequest is one inbound chat request after currency resolution.
type RunRequest struct {
	Messages []Message
	UserName string
	Currency core.CurrencyContext
	Dates    *core.DateValidator
}

// RunResult is the history after the run and the final answer.
type RunResult struct {
	Messages []Message
	Text     string
	Turns    int
}

// Run drives the conversation and publishes every event to mux. It does not
// close mux.
func (d *Driver) Run(ctx context.Context, req RunRequest, mux *Multiplexer) (*RunResult, error) {
	if req.Dates == nil {
		req.Dates = core.NewDateValidator(nil)
	}
	turn := tools.Turn{Currency: req.Currency, Dates: req.Dates, UserName: req.UserName}
	ctx = tools.WithTurn(ctx, turn)

	history, extraSystem := splitSystem(req.Messages)
	system := Preamble(turn)
	if extraSystem != "" {
		system += "\n\n" + extraSystem
	}
	defs := d.registry.Definitions()

	res := &RunResult{}
	var pending []ToolCall
	state := StateAgentTurn
	for state != StateTerminated {
		switch state {
		case StateAgentTurn:
			if err := ctx.Err(); err != nil {
				res.Messages = history
				return res, err
			}
			if res.Turns >= d.opts.MaxTurns {
				res.Messages = history
				log.Errorf(ctx, "Stopping after %d model turns", res.Turns)
				return res, fmt.Errorf("%w (%d)", ErrMaxTurnsExceeded, d.opts.MaxTurns)
			}
			res.Turns++

			resp, err := d.model.Generate(ctx, ModelRequest{System: system, Messages: history, Tools: defs}, mux.Token)
			if err != nil {
				res.Messages = history
				return res, fmt.Errorf("model turn %d: %w", res.Turns, err)
			}
			pending = assignCallIDs(resp.ToolCalls, res.Turns)
			history = append(history, Message{Role: RoleAssistant, Content: resp.Text, ToolCalls: pending})
			res.Text = resp.Text
			state = transition(state, len(pending))

		case StateToolExecution:
			log.Debugf(ctx, "Turn %d: executing %d tool calls", res.Turns, len(pending))
			outcomes := d.executeBatch(ctx, pending, mux)
			history = append(history, Message{Role: RoleTool, ToolResults: outcomes})
			pending = nil
			state = transition(state, 0)
		}
	}

	res.Messages = history
	log.Infof(ctx, "Conversation finished after %d model turns", res.Turns)
	return res, nil
}

// executeBatch runs calls with bounded concurrency and returns outcomes in
// request order. Mutating tools ignore cancellation so a write that started
// is never cut short; other tools that have not started by the time the
// client goes away are skipped.
func (d *Driver) executeBatch(ctx context.Context, calls []ToolCall, mux *Multiplexer) []ToolOutcome {
	outcomes := make([]ToolOutcome, len(calls))
	var g errgroup.Group
	g.SetLimit(d.opts.ToolConcurrency)

	for i, call := range calls {
		g.Go(func() error {
			mutating := d.registry.IsMutating(call.Name)
			mux.ToolCall(call)

			var env tools.Envelope
			if !mutating && ctx.Err() != nil {
				turn := tools.TurnFromContext(ctx)
				env = tools.Envelope{
					Error:   "cancelled before the tool started",
					Code:    tools.CodeInternal,
					Context: tools.EchoContext{CurrentDate: turn.Today().String(), Currency: turn.Currency},
				}
			} else {
				tctx := ctx
				if mutating {
					tctx = context.WithoutCancel(ctx)
				}
				env = d.registry.Execute(tctx, call.Name, call.Args)
			}

			outcomes[i] = ToolOutcome{CallID: call.ID, Name: call.Name, Output: env}
			mux.ToolResult(outcomes[i])
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func assignCallIDs(calls []ToolCall, turn int) []ToolCall {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = fmt.Sprintf("call_%d_%d", turn, i)
		}
		if calls[i].Args == nil {
			calls[i].Args = map[string]interface{}{}
		}
	}
	return calls
}

// splitSystem removes client-supplied system messages from the history and
// joins them for the preamble.
func splitSystem(msgs []Message) ([]Message, string) {
	history := make([]Message, 0, len(msgs))
	var system []string
	for _, m := range msgs {
		if m.Role == RoleSystem {
			if s := strings.TrimSpace(m.Content); s != "" {
				system = append(system, s)
			}
			continue
		}
		history = append(history, m)
	}
	return history, strings.Join(system, "\n")
}
