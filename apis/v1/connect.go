package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/va6996/tripchat/agents"
)

// ChatProcedure is the Connect route of the streaming chat call.
const ChatProcedure = "/tripchat.v1.ChatService/Chat"

// JSONCodec lets Connect carry plain Go structs.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

func (s *Server) connectHandler() (string, http.Handler) {
	return ChatProcedure, connect.NewServerStreamHandler(ChatProcedure, s.connectChat, connect.WithCodec(JSONCodec{}))
}

func (s *Server) connectChat(ctx context.Context, req *connect.Request[ChatRequest], stream *connect.ServerStream[Frame]) error {
	run, err := s.prepare(ctx, req.Header(), *req.Msg)
	if err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	unlock, err := s.lockSession(ctx)
	if err != nil {
		return connect.NewError(connect.CodeAborted, err)
	}
	defer unlock()

	s.run(ctx, run, agents.SinkFunc(func(e agents.Event) error {
		frame, err := FrameFor(e)
		if err != nil {
			return err
		}
		return stream.Send(&frame)
	}))
	if errors.Is(ctx.Err(), context.Canceled) {
		return connect.NewError(connect.CodeCanceled, ctx.Err())
	}
	return nil
}
