package amadeus

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/va6996/tripchat/tools"
)

type SearchHotelsInput struct {
	Destination string  `json:"destination" description:"City name or IATA city code"`
	CheckIn     string  `json:"checkIn" description:"Check-in date, YYYY-MM-DD"`
	CheckOut    string  `json:"checkOut" description:"Check-out date, YYYY-MM-DD"`
	Adults      int     `json:"adults,omitempty" description:"Guests, default 1"`
	Rooms       int     `json:"rooms,omitempty" description:"Rooms, default 1"`
	Ratings     []int   `json:"ratings,omitempty" description:"Star ratings to include, 1-5"`
	MaxPrice    float64 `json:"maxPricePerNight,omitempty" description:"In the conversation currency"`
}

func (in SearchHotelsInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Destination, validation.Required),
		validation.Field(&in.CheckIn, validation.Required),
		validation.Field(&in.CheckOut, validation.Required),
		validation.Field(&in.Adults, validation.Min(0), validation.Max(9)),
		validation.Field(&in.Rooms, validation.Min(0), validation.Max(9)),
		validation.Field(&in.Ratings, validation.Each(validation.Min(1), validation.Max(5))),
	)
}

// HotelSearcher is the subset of Client the tool needs.
type HotelSearcher interface {
	SearchHotels(ctx context.Context, q HotelQuery) (*HotelResults, error)
}

// HotelTool exposes hotel search to the model.
type HotelTool struct {
	searcher HotelSearcher
}

// NewHotelTool creates the search_hotels tool and registers it.
func NewHotelTool(searcher HotelSearcher, registry *tools.Registry) *HotelTool {
	t := &HotelTool{searcher: searcher}
	if registry == nil {
		return t
	}
	tools.Define(registry, "search_hotels",
		"Search hotel offers for a destination and stay. Dates are validated first; prices are always in the conversation currency.",
		t.Execute)
	return t
}

func (t *HotelTool) Execute(ctx context.Context, in *SearchHotelsInput) (*HotelResults, error) {
	turn := tools.TurnFromContext(ctx)
	currency, err := tools.RequireCurrency(turn)
	if err != nil {
		return nil, err
	}
	dr, err := turn.Dates.StayRange(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}
	return t.searcher.SearchHotels(ctx, HotelQuery{
		Destination: in.Destination,
		Range:       dr,
		Adults:      in.Adults,
		Rooms:       in.Rooms,
		Currency:    currency.Currency,
		Ratings:     in.Ratings,
		MaxPrice:    in.MaxPrice,
	})
}
