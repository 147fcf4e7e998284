package tools

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
)

// ErrorCode classifies a failed tool call for the model and the client.
type ErrorCode string

const (
	CodeValidation       ErrorCode = "validation"
	CodeNotAuthenticated ErrorCode = "not_authenticated"
	CodeProvider         ErrorCode = "provider"
	CodeConflict         ErrorCode = "conflict"
	CodeInternal         ErrorCode = "internal"
)

// CodeFor maps the domain sentinels to envelope codes.
func CodeFor(err error) ErrorCode {
	switch {
	case errors.Is(err, core.ErrValidation):
		return CodeValidation
	case errors.Is(err, core.ErrNotAuthenticated):
		return CodeNotAuthenticated
	case errors.Is(err, core.ErrProvider):
		return CodeProvider
	case errors.Is(err, core.ErrNotFound):
		return CodeConflict
	default:
		return CodeInternal
	}
}

// EchoContext repeats the turn's date and currency so the model never has
// to guess either.
type EchoContext struct {
	CurrentDate string               `json:"currentDate"`
	Currency    core.CurrencyContext `json:"currency"`
}

// Envelope is the uniform result of every tool call.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    ErrorCode   `json:"code,omitempty"`
	Context EchoContext `json:"context"`
}

// Execute runs a tool and always returns an envelope. Errors and panics are
// converted to failures; nothing escapes.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (env Envelope) {
	turn := TurnFromContext(ctx)
	env.Context = EchoContext{
		CurrentDate: turn.Today().String(),
		Currency:    turn.Currency,
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf(ctx, "Tool %s panicked: %v\n%s", name, rec, debug.Stack())
			env.Success = false
			env.Data = nil
			env.Error = fmt.Sprintf("tool %s failed unexpectedly", name)
			env.Code = CodeInternal
		}
	}()

	out, err := r.ExecuteTool(ctx, name, args)
	if err != nil {
		env.Error = err.Error()
		env.Code = CodeFor(err)
		log.Warnf(ctx, "Tool %s failed after %s (%s): %v", name, time.Since(start), env.Code, err)
		return env
	}

	log.Debugf(ctx, "Tool %s succeeded in %s", name, time.Since(start))
	env.Success = true
	env.Data = out
	return env
}
