package v1

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"
	"github.com/va6996/tripchat/agents"
	logcontext "github.com/va6996/tripchat/context"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
)

const maxChatBodyBytes = 1 << 20

// ClientMessage is one inbound history entry. Tool traffic never comes from
// the client.
type ClientMessage struct {
	Role    agents.Role `json:"role"`
	Content string      `json:"content"`
}

// ClientCurrency is a currency context as a client last saw it. It is only a
// signal; the server resolves its own.
type ClientCurrency struct {
	Currency string `json:"currency"`
	Country  string `json:"country"`
	Source   string `json:"source,omitempty"`
}

// ChatRequest is the body of POST /api/v1/chat and of the Connect Chat call.
type ChatRequest struct {
	Messages        []ClientMessage `json:"messages"`
	UserName        string          `json:"userName,omitempty"`
	CurrencyContext *ClientCurrency `json:"currencyContext,omitempty"`
	Currency        string          `json:"currency,omitempty"`
}

func (r ChatRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Messages, validation.Required, validation.Each(validation.By(validateMessage))),
	)
}

func validateMessage(v interface{}) error {
	m, _ := v.(ClientMessage)
	return validation.ValidateStruct(&m,
		validation.Field(&m.Role, validation.Required,
			validation.In(agents.RoleUser, agents.RoleAssistant, agents.RoleSystem).Error("must be user, assistant or system")),
	)
}

var errSessionBusy = errors.New("another turn is already running for this session")

// prepare validates a request and resolves the turn's currency.
func (s *Server) prepare(ctx context.Context, h http.Header, body ChatRequest) (agents.RunRequest, error) {
	if err := body.Validate(); err != nil {
		return agents.RunRequest{}, err
	}
	override, geo := currencySignals(ctx, h, body)
	cur := s.resolver.Resolve(ctx, override, geo)
	log.Infof(ctx, "Resolved currency %s (%s)", cur.Currency, cur.Source)

	return agents.RunRequest{
		Messages: lo.Map(body.Messages, func(m ClientMessage, _ int) agents.Message {
			return agents.Message{Role: m.Role, Content: m.Content}
		}),
		UserName: body.UserName,
		Currency: cur,
		Dates:    s.dates(),
	}, nil
}

// currencySignals picks the override and geo inputs. Headers win over the
// body. A client-declared context contributes its currency only when the
// user chose it, and its country only when no geo header is present.
func currencySignals(ctx context.Context, h http.Header, body ChatRequest) (override, geo string) {
	declared := body.CurrencyContext
	if encoded := h.Get(headerCurrencyContext); encoded != "" {
		if c, err := decodeCurrencyContext(encoded); err != nil {
			log.Warnf(ctx, "Ignoring %s header: %v", headerCurrencyContext, err)
		} else {
			declared = c
		}
	}

	override = lo.CoalesceOrEmpty(
		strings.TrimSpace(h.Get(headerCurrencyOverride)),
		strings.TrimSpace(body.Currency),
	)
	geo = lo.CoalesceOrEmpty(
		strings.TrimSpace(h.Get(headerGeoCountry)),
		strings.TrimSpace(h.Get(headerCloudflareCountry)),
	)
	if declared != nil {
		if override == "" && declared.Source == string(core.SourceUserOverride) {
			override = declared.Currency
		}
		if geo == "" {
			geo = declared.Country
		}
	}
	return override, geo
}

func decodeCurrencyContext(encoded string) (*ClientCurrency, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, err
		}
	}
	var c ClientCurrency
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// lockSession enforces one running turn per session. Requests without a
// session id are never serialized.
func (s *Server) lockSession(ctx context.Context) (func(), error) {
	session := logcontext.SessionIDFromContext(ctx)
	if session == "" {
		return func() {}, nil
	}
	unlock, ok := s.sessions.TryLock(session)
	if !ok {
		return nil, errSessionBusy
	}
	return unlock, nil
}

// run drives one turn into sink and always closes the stream.
func (s *Server) run(ctx context.Context, req agents.RunRequest, sink agents.Sink) {
	mux := agents.NewMultiplexer(ctx, sink)
	res, err := s.driver.Run(ctx, req, mux)
	switch {
	case errors.Is(err, context.Canceled):
		log.Infof(ctx, "Client went away after %d model turns", res.Turns)
	case err != nil:
		log.Errorf(ctx, "Chat turn failed: %v", err)
	}
	if sinkErr := mux.Close(err); sinkErr != nil {
		log.Warnf(ctx, "Stream closed early: %v", sinkErr)
	}
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be a JSON chat request")
		return
	}
	req, err := s.prepare(ctx, r.Header, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	unlock, err := s.lockSession(ctx)
	if err != nil {
		writeError(w, http.StatusConflict, "session_busy", err.Error())
		return
	}
	defer unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	s.run(ctx, req, newSSESink(w))
}
