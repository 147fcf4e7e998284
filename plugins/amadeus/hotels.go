package amadeus

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
)

// HotelListResponse is the response from /v1/reference-data/locations/hotels/by-city
type HotelListResponse struct {
	Data []HotelRef `json:"data"`
}

// HotelRef is one hotel known to the reference-data API.
type HotelRef struct {
	ChainCode string `json:"chainCode"`
	IATACode  string `json:"iataCode"`
	Name      string `json:"name"`
	HotelID   string `json:"hotelId"`
	Rating    int    `json:"rating,omitempty"`
	GeoCode   struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"geoCode"`
}

type HotelSearchResponse struct {
	Data []HotelOfferData `json:"data"`
}

type HotelOfferData struct {
	Hotel     HotelInfo    `json:"hotel"`
	Available bool         `json:"available"`
	Offers    []HotelOffer `json:"offers"`
}

type HotelInfo struct {
	HotelID   string  `json:"hotelId"`
	ChainCode string  `json:"chainCode"`
	Name      string  `json:"name"`
	CityCode  string  `json:"cityCode"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type HotelOffer struct {
	ID           string `json:"id"`
	CheckInDate  string `json:"checkInDate"`
	CheckOutDate string `json:"checkOutDate"`
	BoardType    string `json:"boardType,omitempty"`
	Room         struct {
		TypeEstimated struct {
			Category string `json:"category"`
			Beds     int    `json:"beds"`
			BedType  string `json:"bedType"`
		} `json:"typeEstimated"`
		Description struct {
			Text string `json:"text"`
		} `json:"description"`
	} `json:"room"`
	Price struct {
		Currency string `json:"currency"`
		Base     string `json:"base"`
		Total    string `json:"total"`
	} `json:"price"`
	Policies struct {
		PaymentType string `json:"paymentType"`
		Cancellation struct {
			Deadline string `json:"deadline"`
		} `json:"cancellation"`
	} `json:"policies"`
}

// HotelQuery is a validated hotel search.
type HotelQuery struct {
	Destination string
	Range       core.DateRange
	Adults      int
	Rooms       int
	Currency    core.CurrencyCode
	Ratings     []int
	MaxPrice    float64
}

// Hotel is the client-renderable shape of one hotel and its best offer.
type Hotel struct {
	HotelID       string      `json:"hotelId"`
	Name          string      `json:"name"`
	Coordinates   core.LatLng `json:"coordinates"`
	Rating        int         `json:"rating,omitempty"`
	OfferID       string      `json:"offerId"`
	RoomType      string      `json:"roomType,omitempty"`
	Description   string      `json:"description,omitempty"`
	BoardType     string      `json:"boardType,omitempty"`
	TotalPrice    float64     `json:"totalPrice"`
	PricePerNight float64     `json:"pricePerNight"`
	Currency      string      `json:"currency"`
	Cancellation  string      `json:"cancellationDeadline,omitempty"`
}

// HotelResults is always tagged with the currency every price is in.
type HotelResults struct {
	Destination string  `json:"destination"`
	CityCode    string  `json:"cityCode"`
	CheckIn     string  `json:"checkIn"`
	CheckOut    string  `json:"checkOut"`
	Nights      int     `json:"nights"`
	Currency    string  `json:"currency"`
	Hotels      []Hotel `json:"hotels"`
	Count       int     `json:"count"`
}

// HotelsByCity lists hotels in an IATA city code, cached per code and
// rating filter.
func (c *Client) HotelsByCity(ctx context.Context, cityCode string, ratings []int) ([]HotelRef, error) {
	ratingParam := strings.Join(lo.Map(ratings, func(r int, _ int) string { return strconv.Itoa(r) }), ",")
	key := "hotels:" + cityCode + ":" + ratingParam
	if v, ok := c.cache.Get(key); ok {
		return v.([]HotelRef), nil
	}

	query := url.Values{}
	query.Set("cityCode", cityCode)
	if ratingParam != "" {
		query.Set("ratings", ratingParam)
	}
	var resp HotelListResponse
	if err := c.getJSON(ctx, "/v1/reference-data/locations/hotels/by-city", query, &resp); err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, resp.Data)
	return resp.Data, nil
}

// HotelOffers fetches priced offers for up to HotelLimit hotels.
func (c *Client) HotelOffers(ctx context.Context, hotelIDs []string, q HotelQuery) ([]HotelOfferData, error) {
	if len(hotelIDs) > c.HotelLimit {
		hotelIDs = hotelIDs[:c.HotelLimit]
	}
	query := url.Values{}
	query.Set("hotelIds", strings.Join(hotelIDs, ","))
	query.Set("adults", strconv.Itoa(max(q.Adults, 1)))
	query.Set("roomQuantity", strconv.Itoa(max(q.Rooms, 1)))
	query.Set("checkInDate", q.Range.CheckIn.String())
	query.Set("checkOutDate", q.Range.CheckOut.String())
	query.Set("currency", q.Currency.String())
	query.Set("bestRateOnly", "true")

	var resp HotelSearchResponse
	if err := c.getJSON(ctx, "/v3/shopping/hotel-offers", query, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SearchHotels resolves the destination, lists its hotels and prices them.
// Offers the provider returns in any currency other than the requested one
// are dropped.
func (c *Client) SearchHotels(ctx context.Context, q HotelQuery) (*HotelResults, error) {
	if q.Currency.IsZero() {
		return nil, fmt.Errorf("%w: hotel search needs a currency", core.ErrValidation)
	}
	if q.Range.Nights <= 0 {
		return nil, fmt.Errorf("%w: hotel search needs a validated date range", core.ErrValidation)
	}

	cityCode, err := c.ResolveCityCode(ctx, q.Destination)
	if err != nil {
		return nil, err
	}
	results := &HotelResults{
		Destination: q.Destination,
		CityCode:    cityCode,
		CheckIn:     q.Range.CheckIn.String(),
		CheckOut:    q.Range.CheckOut.String(),
		Nights:      q.Range.Nights,
		Currency:    q.Currency.String(),
		Hotels:      []Hotel{},
	}

	refs, err := c.HotelsByCity(ctx, cityCode, q.Ratings)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return results, nil
	}
	byID := lo.KeyBy(refs, func(h HotelRef) string { return h.HotelID })

	data, err := c.HotelOffers(ctx, lo.Map(refs, func(h HotelRef, _ int) string { return h.HotelID }), q)
	if err != nil {
		return nil, err
	}

	dropped := 0
	for _, d := range data {
		if !d.Available {
			continue
		}
		for _, offer := range d.Offers {
			if !strings.EqualFold(offer.Price.Currency, q.Currency.String()) {
				dropped++
				continue
			}
			total, err := strconv.ParseFloat(offer.Price.Total, 64)
			if err != nil {
				dropped++
				continue
			}
			if q.MaxPrice > 0 && total/float64(q.Range.Nights) > q.MaxPrice {
				continue
			}
			h := Hotel{
				HotelID:       d.Hotel.HotelID,
				Name:          d.Hotel.Name,
				Coordinates:   core.LatLng{Lat: d.Hotel.Latitude, Lng: d.Hotel.Longitude},
				Rating:        byID[d.Hotel.HotelID].Rating,
				OfferID:       offer.ID,
				RoomType:      offer.Room.TypeEstimated.Category,
				Description:   offer.Room.Description.Text,
				BoardType:     offer.BoardType,
				TotalPrice:    total,
				PricePerNight: math.Round(total/float64(q.Range.Nights)*100) / 100,
				Currency:      q.Currency.String(),
				Cancellation:  offer.Policies.Cancellation.Deadline,
			}
			results.Hotels = append(results.Hotels, h)
			break
		}
	}
	if dropped > 0 {
		log.Warnf(ctx, "Dropped %d hotel offers not priced in %s", dropped, q.Currency)
	}

	sort.SliceStable(results.Hotels, func(i, j int) bool {
		return results.Hotels[i].TotalPrice < results.Hotels[j].TotalPrice
	})
	results.Count = len(results.Hotels)
	return results, nil
}
