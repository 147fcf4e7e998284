package tools

import (
	"context"
	"fmt"

	logcontext "github.com/va6996/tripchat/context"
	"github.com/va6996/tripchat/core"
)

type turnKey struct{}

// Turn is the per-request state every tool sees: the resolved currency and
// the date validator anchored to the server's "today".
type Turn struct {
	Currency core.CurrencyContext
	Dates    *core.DateValidator
	UserName string
}

// WithTurn attaches t to ctx.
func WithTurn(ctx context.Context, t Turn) context.Context {
	return context.WithValue(ctx, turnKey{}, t)
}

// TurnFromContext returns the attached turn, or a UTC default with no
// currency.
func TurnFromContext(ctx context.Context) Turn {
	t, _ := ctx.Value(turnKey{}).(Turn)
	if t.Dates == nil {
		t.Dates = core.NewDateValidator(nil)
	}
	return t
}

// Today is the turn's calendar date.
func (t Turn) Today() core.Date {
	if t.Dates == nil {
		return core.NewDateValidator(nil).Today()
	}
	return t.Dates.Today()
}

// CallerID returns the caller identity or ErrNotAuthenticated.
func CallerID(ctx context.Context) (string, error) {
	id := logcontext.UserIDFromContext(ctx)
	if id == "" {
		return "", core.ErrNotAuthenticated
	}
	return id, nil
}

// RequireCurrency rejects a turn whose currency was never resolved.
func RequireCurrency(t Turn) (core.CurrencyContext, error) {
	if t.Currency.IsZero() {
		return core.CurrencyContext{}, fmt.Errorf("%w: no currency resolved for this conversation", core.ErrValidation)
	}
	return t.Currency, nil
}
