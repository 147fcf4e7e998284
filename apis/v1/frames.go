package v1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/va6996/tripchat/agents"
)

// Frame is one streamed item. Exactly one field is set; tool frames carry
// their payload as a JSON string.
type Frame struct {
	Content    string `json:"content,omitempty"`
	ToolCall   string `json:"toolCall,omitempty"`
	ToolResult string `json:"toolResult,omitempty"`
	Done       bool   `json:"done,omitempty"`
}

type toolCallPayload struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type toolResultPayload struct {
	Name   string      `json:"name"`
	Output interface{} `json:"output"`
}

// FrameFor converts a multiplexer event.
func FrameFor(e agents.Event) (Frame, error) {
	switch e.Kind {
	case agents.EventToken:
		return Frame{Content: e.Text}, nil
	case agents.EventToolCall:
		b, err := json.Marshal(toolCallPayload{Name: e.Tool, Args: e.Args})
		return Frame{ToolCall: string(b)}, err
	case agents.EventToolResult:
		b, err := json.Marshal(toolResultPayload{Name: e.Tool, Output: e.Result})
		return Frame{ToolResult: string(b)}, err
	case agents.EventDone:
		return Frame{Done: true}, nil
	}
	return Frame{}, fmt.Errorf("unknown event kind %q", e.Kind)
}

const sseDone = "data: [DONE]\n\n"

// sseSink writes events as server-sent events and flushes each one.
type sseSink struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func newSSESink(w http.ResponseWriter) *sseSink {
	return &sseSink{w: w, rc: http.NewResponseController(w)}
}

func (s *sseSink) Send(e agents.Event) error {
	if e.Kind == agents.EventDone {
		if _, err := fmt.Fprint(s.w, sseDone); err != nil {
			return err
		}
		return s.rc.Flush()
	}
	frame, err := FrameFor(e)
	if err != nil {
		return err
	}
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		return err
	}
	return s.rc.Flush()
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}
