package nager

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
	"github.com/va6996/tripchat/tools"
)

const defaultWindowDays = 30

// --- Public Holidays Tool ---

type PublicHolidaysInput struct {
	Country   string `json:"country,omitempty" description:"Country name or ISO code; defaults to the user's country"`
	StartDate string `json:"startDate,omitempty" description:"First day of the trip; defaults to today"`
	EndDate   string `json:"endDate,omitempty" description:"Last day of the trip; defaults to 30 days after startDate"`
}

type PublicHolidaysOutput struct {
	Country   string    `json:"country"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	Holidays  []Holiday `json:"holidays"`
	Count     int       `json:"count"`
}

type PublicHolidaysTool struct {
	client *Client
}

func NewPublicHolidaysTool(client *Client, registry *tools.Registry) *PublicHolidaysTool {
	t := &PublicHolidaysTool{client: client}
	if registry == nil {
		return t
	}
	tools.Define(registry, "public_holidays",
		"Returns public holidays in a country that fall within a trip's dates. Useful for spotting closures and crowded days.",
		t.Execute)
	return t
}

func (t *PublicHolidaysTool) Execute(ctx context.Context, input *PublicHolidaysInput) (*PublicHolidaysOutput, error) {
	turn := tools.TurnFromContext(ctx)
	country, err := resolveCountry(turn, input.Country)
	if err != nil {
		return nil, err
	}

	from := turn.Today()
	if input.StartDate != "" {
		d, ok := turn.Dates.Parse(input.StartDate)
		if !ok {
			return nil, fmt.Errorf("%w: invalid start date %q", core.ErrValidation, input.StartDate)
		}
		from = d
	}
	to := from.AddDays(defaultWindowDays)
	if input.EndDate != "" {
		d, ok := turn.Dates.Parse(input.EndDate)
		if !ok {
			return nil, fmt.Errorf("%w: invalid end date %q", core.ErrValidation, input.EndDate)
		}
		to = d
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end date must not be before start date", core.ErrValidation)
	}

	holidays, err := t.client.HolidaysBetween(ctx, country, from, to)
	if err != nil {
		log.Errorf(ctx, "PublicHolidaysTool failed: %v", err)
		return nil, err
	}
	log.Debugf(ctx, "PublicHolidaysTool found %d holidays in %s between %s and %s", len(holidays), country, from, to)
	if holidays == nil {
		holidays = []Holiday{}
	}
	return &PublicHolidaysOutput{
		Country:   country.String(),
		StartDate: from.String(),
		EndDate:   to.String(),
		Holidays:  holidays,
		Count:     len(holidays),
	}, nil
}

// --- Long Weekends Tool ---

type LongWeekendsInput struct {
	Country string `json:"country,omitempty" description:"Country name or ISO code; defaults to the user's country"`
	Year    int    `json:"year,omitempty" description:"Year; defaults to the current year"`
}

func (in LongWeekendsInput) Validate() error {
	return validation.ValidateStruct(&in, validation.Field(&in.Year, validation.Min(0), validation.Max(2100)))
}

type LongWeekendsOutput struct {
	Country  string        `json:"country"`
	Year     int           `json:"year"`
	Weekends []LongWeekend `json:"longWeekends"`
	Count    int           `json:"count"`
}

type LongWeekendsTool struct {
	client *Client
}

func NewLongWeekendsTool(client *Client, registry *tools.Registry) *LongWeekendsTool {
	t := &LongWeekendsTool{client: client}
	if registry == nil {
		return t
	}
	tools.Define(registry, "long_weekends",
		"Returns long weekends for a country and year, for suggesting short trips.",
		t.Execute)
	return t
}

func (t *LongWeekendsTool) Execute(ctx context.Context, input *LongWeekendsInput) (*LongWeekendsOutput, error) {
	turn := tools.TurnFromContext(ctx)
	country, err := resolveCountry(turn, input.Country)
	if err != nil {
		return nil, err
	}
	year := input.Year
	if year == 0 {
		year = turn.Today().Time().Year()
	}
	weekends, err := t.client.GetLongWeekends(ctx, year, country)
	if err != nil {
		log.Errorf(ctx, "LongWeekendsTool failed: %v", err)
		return nil, err
	}
	return &LongWeekendsOutput{Country: country.String(), Year: year, Weekends: weekends, Count: len(weekends)}, nil
}

// resolveCountry prefers an explicit country and falls back to the country
// the turn's currency was resolved for.
func resolveCountry(turn tools.Turn, explicit string) (core.CountryCode, error) {
	if explicit != "" {
		if code, ok := core.CountryISO2(explicit); ok {
			return code, nil
		}
		return core.CountryCode{}, fmt.Errorf("%w: unknown country %q", core.ErrValidation, explicit)
	}
	if !turn.Currency.Country.IsZero() {
		return turn.Currency.Country, nil
	}
	return core.CountryCode{}, fmt.Errorf("%w: country is required", core.ErrValidation)
}
