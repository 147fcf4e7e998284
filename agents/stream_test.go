package agents

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/va6996/tripchat/tools"
)

// recordingSink collects events and can fail after n sends.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
	failAt int
}

func (s *recordingSink) Send(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAt > 0 && len(s.events) >= s.failAt {
		return errors.New("client went away")
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) kinds() []EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventKind, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

func TestMultiplexer_OrderAndSingleDone(t *testing.T) {
	sink := &recordingSink{}
	mux := NewMultiplexer(context.Background(), sink)

	mux.Token("Hel")
	mux.Token("")
	mux.Token("lo")
	mux.ToolCall(ToolCall{ID: "c1", Name: "search_destinations"})
	mux.ToolResult(ToolOutcome{CallID: "c1", Name: "search_destinations", Output: tools.Envelope{Success: true}})

	require.NoError(t, mux.Close(nil))
	require.NoError(t, mux.Close(nil))
	mux.Token("late")

	assert.Equal(t, []EventKind{EventToken, EventToken, EventToolCall, EventToolResult, EventDone}, sink.kinds())
	assert.True(t, sink.events[3].Result.Success)
}

func TestMultiplexer_ApologyOnError(t *testing.T) {
	sink := &recordingSink{}
	mux := NewMultiplexer(context.Background(), sink)

	mux.Token("Partial answer")
	require.NoError(t, mux.Close(errors.New("model unavailable")))

	require.Len(t, sink.events, 3)
	assert.Equal(t, "Partial answer", sink.events[0].Text)
	assert.Equal(t, Apology, sink.events[1].Text)
	assert.Equal(t, EventDone, sink.events[2].Kind)
}

func TestMultiplexer_NoApologyWhenCancelled(t *testing.T) {
	sink := &recordingSink{}
	mux := NewMultiplexer(context.Background(), sink)
	require.NoError(t, mux.Close(context.Canceled))
	assert.Equal(t, []EventKind{EventDone}, sink.kinds())
}

func TestMultiplexer_SinkFailureDrains(t *testing.T) {
	sink := &recordingSink{failAt: 2}
	mux := NewMultiplexer(context.Background(), sink)

	for i := 0; i < 500; i++ {
		mux.Token("x")
	}
	err := mux.Close(nil)
	assert.Error(t, err)
	assert.Len(t, sink.events, 2)
}

func TestMultiplexer_ConcurrentPublishers(t *testing.T) {
	sink := &recordingSink{}
	mux := NewMultiplexer(context.Background(), sink)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			call := ToolCall{ID: string(rune('a' + i)), Name: "t"}
			mux.ToolCall(call)
			mux.ToolResult(ToolOutcome{CallID: call.ID, Name: "t"})
		}()
	}
	wg.Wait()
	require.NoError(t, mux.Close(nil))

	seen := map[string]bool{}
	for _, e := range sink.events {
		switch e.Kind {
		case EventToolCall:
			seen[e.CallID] = true
		case EventToolResult:
			assert.True(t, seen[e.CallID], "result for %s before its call", e.CallID)
		}
	}
	assert.Len(t, seen, 10)
	assert.Equal(t, EventDone, sink.events[len(sink.events)-1].Kind)
}
