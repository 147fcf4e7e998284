package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
)

type ValidateDatesInput struct {
	Date     string `json:"date,omitempty" description:"A single date to check, in any common format"`
	CheckIn  string `json:"checkIn,omitempty" description:"Check-in date for a stay"`
	CheckOut string `json:"checkOut,omitempty" description:"Check-out date for a stay"`
}

func (in ValidateDatesInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Date, validation.Required.When(in.CheckIn == "" && in.CheckOut == "").
			Error("provide date, or checkIn and checkOut")),
		validation.Field(&in.CheckOut, validation.Required.When(in.CheckIn != "")),
		validation.Field(&in.CheckIn, validation.Required.When(in.CheckOut != "")),
	)
}

type ValidateDatesOutput struct {
	Date  *core.DateResult  `json:"date,omitempty"`
	Range *core.RangeResult `json:"range,omitempty"`
}

type CalculateDateInput struct {
	Expression string `json:"expression" description:"JavaScript expression to calculate a date. Variable 'now' is available as current timestamp in milliseconds."`
}

func (in CalculateDateInput) Validate() error {
	return validation.ValidateStruct(&in, validation.Field(&in.Expression, validation.Required))
}

// defaultScriptBudget caps one calculate_date evaluation.
const defaultScriptBudget = time.Second

// DateTools exposes date validation and scripted date arithmetic.
type DateTools struct {
	// Now overrides the turn clock for calculate_date.
	Now func() time.Time
	// Budget bounds script run time; zero means defaultScriptBudget.
	Budget time.Duration
}

func NewDateTools(registry *Registry) *DateTools {
	t := &DateTools{}
	if registry == nil {
		return t
	}
	Define(registry, "validate_dates",
		"Normalize a date or a check-in/check-out pair to YYYY-MM-DD and check it against today. Always call before searching hotels.",
		t.ValidateDates)
	Define(registry, "calculate_date", `Executes a JavaScript expression to calculate a date. Variable 'now' holds the current timestamp (milliseconds).
Return a Date object or ISO string. The last expression is the return value.
Examples:
- Next Friday: "var d = new Date(now); d.setDate(d.getDate() + (12 - d.getDay()) % 7); if(d.getDay() !== 5 || d <= now) d.setDate(d.getDate() + 7); d"
- Tomorrow: "new Date(now + 86400000)"`,
		t.Calculate)
	return t
}

func (t *DateTools) ValidateDates(ctx context.Context, in *ValidateDatesInput) (*ValidateDatesOutput, error) {
	dates := TurnFromContext(ctx).Dates
	out := &ValidateDatesOutput{}
	if in.Date != "" {
		res := dates.ValidateDate(in.Date)
		out.Date = &res
	}
	if in.CheckIn != "" || in.CheckOut != "" {
		res := dates.ValidateDateRange(in.CheckIn, in.CheckOut)
		out.Range = &res
	}
	return out, nil
}

func (t *DateTools) Calculate(ctx context.Context, in *CalculateDateInput) (*core.DateResult, error) {
	dates := TurnFromContext(ctx).Dates
	now := time.Now
	if t.Now != nil {
		now = t.Now
	} else if dates.Now != nil {
		now = dates.Now
	}
	log.Debugf(ctx, "calculate_date: %s", in.Expression)

	vm := goja.New()
	if err := vm.Set("now", now().UnixMilli()); err != nil {
		return nil, fmt.Errorf("failed to set 'now': %w", err)
	}
	budget := t.Budget
	if budget <= 0 {
		budget = defaultScriptBudget
	}
	stop := context.AfterFunc(ctx, func() { vm.Interrupt("cancelled") })
	defer stop()
	timer := time.AfterFunc(budget, func() { vm.Interrupt("time budget exceeded") })
	defer timer.Stop()

	val, err := vm.RunString(in.Expression)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			log.Warnf(ctx, "calculate_date interrupted after %s: %v", budget, interrupted.Value())
			return nil, fmt.Errorf("%w: expression did not finish: %v", core.ErrValidation, interrupted.Value())
		}
		return nil, fmt.Errorf("%w: js execution failed: %v", core.ErrValidation, err)
	}

	var result time.Time
	switch v := val.Export().(type) {
	case time.Time:
		result = v
	case string:
		d, ok := dates.Parse(v)
		if !ok {
			return nil, fmt.Errorf("%w: result %q is not a date", core.ErrValidation, v)
		}
		res := dates.ValidateDate(d.String())
		return &res, nil
	case nil:
		return nil, fmt.Errorf("%w: result is null or undefined", core.ErrValidation)
	default:
		return nil, fmt.Errorf("%w: result is not a valid Date object or ISO string", core.ErrValidation)
	}

	loc := dates.Location
	if loc == nil {
		loc = time.UTC
	}
	res := dates.ValidateDate(result.In(loc).Format(core.CanonicalLayout))
	return &res, nil
}
