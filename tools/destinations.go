package tools

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
)

type SearchDestinationsInput struct {
	Query          string  `json:"query,omitempty" description:"Free text such as 'beach' or 'Japan'"`
	Region         string  `json:"region,omitempty" description:"Europe, Asia, Africa, North America, South America or Oceania"`
	Tag            string  `json:"tag,omitempty" description:"culture, food, beach, nature, adventure, city, history, shopping"`
	MaxDailyBudget float64 `json:"maxDailyBudget,omitempty" description:"Upper bound per day in the conversation currency"`
}

func (in SearchDestinationsInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.MaxDailyBudget, validation.Min(0.0)),
	)
}

// DestinationView is a catalog entry priced in the turn currency.
type DestinationView struct {
	Destination
	DailyCost float64 `json:"dailyCost"`
	Currency  string  `json:"currency"`
}

type SearchDestinationsOutput struct {
	Destinations []DestinationView `json:"destinations"`
	Count        int               `json:"count"`
}

type DestinationInfoInput struct {
	Name string `json:"name" description:"Destination name from search_destinations"`
}

func (in DestinationInfoInput) Validate() error {
	return validation.ValidateStruct(&in, validation.Field(&in.Name, validation.Required))
}

type ConvertCurrencyInput struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from" description:"ISO-4217 code of the amount"`
	To     string  `json:"to,omitempty" description:"ISO-4217 target code; defaults to the conversation currency"`
}

func (in ConvertCurrencyInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Amount, validation.Min(0.0)),
		validation.Field(&in.From, validation.Required, validation.Length(3, 3)),
		validation.Field(&in.To, validation.Length(3, 3)),
	)
}

type ConvertCurrencyOutput struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from"`
	Converted float64 `json:"converted"`
	To        string  `json:"to"`
	Note      string  `json:"note"`
}

// CatalogTools serves destination search, details and conversion from the
// static catalog.
type CatalogTools struct{}

func NewCatalogTools(registry *Registry) *CatalogTools {
	t := &CatalogTools{}
	if registry == nil {
		return t
	}
	Define(registry, "search_destinations",
		"Search the destination catalog by keyword, region, tag or daily budget. Prices are in the conversation currency.",
		t.Search)
	Define(registry, "get_destination_info",
		"Get highlights, best time to visit and typical daily cost for one catalog destination.",
		t.Info)
	Define(registry, "convert_currency",
		"Convert an amount between currencies using fixed reference rates.",
		t.Convert)
	return t
}

func (t *CatalogTools) Search(ctx context.Context, in *SearchDestinationsInput) (*SearchDestinationsOutput, error) {
	currency := currencyOrUSD(TurnFromContext(ctx))
	found := searchCatalog(in.Query, in.Region, in.Tag)

	out := &SearchDestinationsOutput{Destinations: make([]DestinationView, 0, len(found))}
	for _, d := range found {
		view, err := priced(d, currency)
		if err != nil {
			return nil, err
		}
		if in.MaxDailyBudget > 0 && view.DailyCost > in.MaxDailyBudget {
			continue
		}
		out.Destinations = append(out.Destinations, view)
	}
	out.Count = len(out.Destinations)
	log.Debugf(ctx, "search_destinations %q matched %d", in.Query, out.Count)
	return out, nil
}

func (t *CatalogTools) Info(ctx context.Context, in *DestinationInfoInput) (*DestinationView, error) {
	d, ok := FindDestination(in.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not in the destination catalog", core.ErrNotFound, in.Name)
	}
	view, err := priced(d, currencyOrUSD(TurnFromContext(ctx)))
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (t *CatalogTools) Convert(ctx context.Context, in *ConvertCurrencyInput) (*ConvertCurrencyOutput, error) {
	to := in.To
	if to == "" {
		to = currencyOrUSD(TurnFromContext(ctx))
	}
	converted, err := Convert(in.Amount, in.From, to)
	if err != nil {
		return nil, err
	}
	return &ConvertCurrencyOutput{
		Amount:    in.Amount,
		From:      in.From,
		Converted: converted,
		To:        to,
		Note:      "Reference rates; actual rates vary.",
	}, nil
}

func priced(d Destination, currency string) (DestinationView, error) {
	cost, err := Convert(d.AverageDailyCost, "USD", currency)
	if err != nil {
		// The catalog still answers; it just stays in USD.
		return DestinationView{Destination: d, DailyCost: d.AverageDailyCost, Currency: "USD"}, nil
	}
	return DestinationView{Destination: d, DailyCost: cost, Currency: currency}, nil
}

func currencyOrUSD(t Turn) string {
	if t.Currency.IsZero() {
		return "USD"
	}
	return t.Currency.Currency.String()
}
