package agents

import (
	"context"
	"errors"
	"sync"

	"github.com/va6996/tripchat/log"
	"github.com/va6996/tripchat/tools"
)

type EventKind string

const (
	EventToken      EventKind = "token"
	EventToolCall   EventKind = "tool_call"
	EventToolResult EventKind = "tool_result"
	EventDone       EventKind = "done"
)

// Event is one client-visible item of a run.
type Event struct {
	Kind   EventKind              `json:"kind"`
	Text   string                 `json:"text,omitempty"`
	CallID string                 `json:"callId,omitempty"`
	Tool   string                 `json:"tool,omitempty"`
	Args   map[string]interface{} `json:"args,omitempty"`
	Result *tools.Envelope        `json:"result,omitempty"`
}

// Sink receives events in order. A Send error means the client is gone.
type Sink interface {
	Send(Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event) error

func (f SinkFunc) Send(e Event) error { return f(e) }

// Apology is appended to the stream when a run fails.
const Apology = "\n\nSorry, something went wrong while I was working on that. Please try again."

// Multiplexer serializes tokens and tool lifecycle events from the driver
// and its tool goroutines onto one sink. Publishing never blocks on a slow
// or failed sink beyond the channel buffer; after the sink fails, events are
// drained and dropped.
type Multiplexer struct {
	ctx    context.Context
	sink   Sink
	events chan Event

	mu     sync.Mutex
	closed bool

	finished chan struct{}
	sinkErr  error
}

// NewMultiplexer starts forwarding to sink.
func NewMultiplexer(ctx context.Context, sink Sink) *Multiplexer {
	m := &Multiplexer{
		ctx:      ctx,
		sink:     sink,
		events:   make(chan Event, 64),
		finished: make(chan struct{}),
	}
	go m.forward()
	return m
}

func (m *Multiplexer) forward() {
	defer close(m.finished)
	for e := range m.events {
		if m.sinkErr != nil {
			continue
		}
		if err := m.sink.Send(e); err != nil {
			m.sinkErr = err
			log.Warnf(m.ctx, "Stream sink failed, dropping remaining events: %v", err)
		}
	}
}

func (m *Multiplexer) publish(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.events <- e
}

// Token publishes a text fragment. Empty fragments are skipped.
func (m *Multiplexer) Token(text string) {
	if text == "" {
		return
	}
	m.publish(Event{Kind: EventToken, Text: text})
}

// ToolCall publishes the start of an invocation.
func (m *Multiplexer) ToolCall(call ToolCall) {
	m.publish(Event{Kind: EventToolCall, CallID: call.ID, Tool: call.Name, Args: call.Args})
}

// ToolResult publishes the end of an invocation.
func (m *Multiplexer) ToolResult(outcome ToolOutcome) {
	env := outcome.Output
	m.publish(Event{Kind: EventToolResult, CallID: outcome.CallID, Tool: outcome.Name, Result: &env})
}

// Close ends the stream. A non-nil runErr appends the apology first unless
// the run was cancelled by the client. Exactly one done event is sent no
// matter how often Close is called. It returns the sink error, if any.
func (m *Multiplexer) Close(runErr error) error {
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		m.Token(Apology)
	}

	m.mu.Lock()
	if !m.closed {
		m.events <- Event{Kind: EventDone}
		m.closed = true
		close(m.events)
	}
	m.mu.Unlock()

	<-m.finished
	return m.sinkErr
}
