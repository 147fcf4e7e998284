package amadeus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/tools"
)

type mockServer struct {
	*httptest.Server
	tokenCalls  atomic.Int32
	listCalls   atomic.Int32
	lastOfferQS atomic.Value
}

// mockAmadeusServer creates a test server that mocks Amadeus endpoints
func mockAmadeusServer(t *testing.T) *mockServer {
	m := &mockServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/v1/security/oauth2/token" && r.Header.Get("Authorization") != "Bearer test_token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			m.tokenCalls.Add(1)
			_ = json.NewEncoder(w).Encode(AuthToken{AccessToken: "test_token", ExpiresIn: 1800, TokenType: "Bearer"})
		case "/v1/reference-data/locations":
			if r.URL.Query().Get("keyword") != "Paris" {
				_ = json.NewEncoder(w).Encode(LocationSearchResponse{})
				return
			}
			_ = json.NewEncoder(w).Encode(LocationSearchResponse{Data: []LocationData{{
				SubType:  "CITY",
				Name:     "PARIS",
				IATACode: "PAR",
				Address:  Address{CityName: "PARIS", CityCode: "PAR", CountryCode: "FR"},
			}}})
		case "/v1/reference-data/locations/hotels/by-city":
			m.listCalls.Add(1)
			_, _ = w.Write([]byte(`{"data":[
				{"hotelId":"H1","name":"Hotel One","rating":4},
				{"hotelId":"H2","name":"Hotel Two","rating":3},
				{"hotelId":"H3","name":"Hotel Three","rating":5}]}`))
		case "/v3/shopping/hotel-offers":
			m.lastOfferQS.Store(r.URL.RawQuery)
			_, _ = w.Write([]byte(`{"data":[
				{"available":true,"hotel":{"hotelId":"H1","name":"Hotel One","latitude":48.85,"longitude":2.35},
				 "offers":[{"id":"O1","price":{"currency":"EUR","total":"300.00"}}]},
				{"available":true,"hotel":{"hotelId":"H2","name":"Hotel Two"},
				 "offers":[{"id":"O2","price":{"currency":"USD","total":"150.00"}}]},
				{"available":true,"hotel":{"hotelId":"H3","name":"Hotel Three"},
				 "offers":[{"id":"O3","price":{"currency":"EUR","total":"240.00"}}]}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(m.Close)
	return m
}

func newTestClient(t *testing.T, baseURL string) *Client {
	c, err := NewClient("id", "secret", false, 2, 5*time.Second)
	require.NoError(t, err)
	c.BaseURL = baseURL
	return c
}

func stay(t *testing.T) core.DateRange {
	in, ok := core.NewDate(2026, 11, 1)
	require.True(t, ok)
	out, ok := core.NewDate(2026, 11, 4)
	require.True(t, ok)
	return core.DateRange{CheckIn: in, CheckOut: out, Nights: 3}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient("", "", false, 0, time.Second)
	assert.Error(t, err)
}

func TestClient_Authenticate(t *testing.T) {
	ts := mockAmadeusServer(t)
	client := newTestClient(t, ts.URL)

	require.NoError(t, client.Authenticate(context.Background()))
	tok, err := client.accessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test_token", tok)
	assert.Equal(t, int32(1), ts.tokenCalls.Load())
}

func TestClient_ResolveCityCode(t *testing.T) {
	ts := mockAmadeusServer(t)
	client := newTestClient(t, ts.URL)
	ctx := context.Background()

	code, err := client.ResolveCityCode(ctx, "Paris")
	require.NoError(t, err)
	assert.Equal(t, "PAR", code)

	code, err = client.ResolveCityCode(ctx, "LON")
	require.NoError(t, err)
	assert.Equal(t, "LON", code)

	_, err = client.ResolveCityCode(ctx, "Atlantis")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestClient_SearchHotelsFiltersCurrency(t *testing.T) {
	ts := mockAmadeusServer(t)
	client := newTestClient(t, ts.URL)
	ctx := context.Background()

	q := HotelQuery{Destination: "Paris", Range: stay(t), Adults: 2, Currency: core.MustCurrency("EUR")}
	res, err := client.SearchHotels(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, "EUR", res.Currency)
	assert.Equal(t, "PAR", res.CityCode)
	assert.Equal(t, 3, res.Nights)
	require.Equal(t, 2, res.Count)
	assert.Equal(t, "H3", res.Hotels[0].HotelID)
	assert.Equal(t, 80.0, res.Hotels[0].PricePerNight)
	assert.Equal(t, 5, res.Hotels[0].Rating)
	assert.Equal(t, "H1", res.Hotels[1].HotelID)
	for _, h := range res.Hotels {
		assert.Equal(t, "EUR", h.Currency)
	}

	qs, _ := ts.lastOfferQS.Load().(string)
	assert.Contains(t, qs, "currency=EUR")
	assert.Contains(t, qs, "adults=2")
	assert.Contains(t, qs, "checkInDate=2026-11-01")
	assert.Contains(t, qs, "hotelIds=H1%2CH2")

	_, err = client.SearchHotels(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int32(1), ts.listCalls.Load(), "hotel list is cached")
}

func TestClient_SearchHotelsMaxPrice(t *testing.T) {
	ts := mockAmadeusServer(t)
	client := newTestClient(t, ts.URL)

	res, err := client.SearchHotels(context.Background(), HotelQuery{
		Destination: "Paris", Range: stay(t), Currency: core.MustCurrency("EUR"), MaxPrice: 90,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "H3", res.Hotels[0].HotelID)
}

func TestClient_ProviderErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	client := newTestClient(t, ts.URL)

	_, err := client.SearchHotels(context.Background(), HotelQuery{
		Destination: "Paris", Range: stay(t), Currency: core.MustCurrency("EUR"),
	})
	assert.ErrorIs(t, err, core.ErrProvider)
}

func TestHotelTool(t *testing.T) {
	ts := mockAmadeusServer(t)
	client := newTestClient(t, ts.URL)
	reg := tools.NewRegistry(nil)
	NewHotelTool(client, reg)

	dates := core.NewDateValidator(time.UTC)
	dates.Now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }
	turn := tools.Turn{
		Dates:    dates,
		Currency: core.CurrencyContext{Currency: core.MustCurrency("EUR"), Country: core.MustCountry("FR"), Source: core.SourceGeo},
	}
	ctx := tools.WithTurn(context.Background(), turn)

	env := reg.Execute(ctx, "search_hotels", map[string]interface{}{
		"destination": "Paris", "checkIn": "Nov 1 2026", "checkOut": "2026-11-04",
	})
	require.True(t, env.Success, env.Error)
	res := env.Data.(*HotelResults)
	assert.Equal(t, "EUR", res.Currency)
	assert.Equal(t, "2026-11-01", res.CheckIn)

	env = reg.Execute(ctx, "search_hotels", map[string]interface{}{
		"destination": "Paris", "checkIn": "2026-10-01", "checkOut": "2026-10-04",
	})
	assert.False(t, env.Success)
	assert.Equal(t, tools.CodeValidation, env.Code)
	assert.Contains(t, env.Error, "cannot be in the past")

	noCurrency := tools.WithTurn(context.Background(), tools.Turn{Dates: dates})
	env = reg.Execute(noCurrency, "search_hotels", map[string]interface{}{
		"destination": "Paris", "checkIn": "2026-11-01", "checkOut": "2026-11-04",
	})
	assert.False(t, env.Success)
	assert.Equal(t, tools.CodeValidation, env.Code)
}
