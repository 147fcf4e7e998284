package amadeus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
)

const (
	BaseURLTest       = "https://test.api.amadeus.com"
	BaseURLProduction = "https://api.amadeus.com"
)

const referenceTTL = 24 * time.Hour

// Client talks to the Amadeus self-service hotel APIs.
type Client struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	HTTPClient   *http.Client
	HotelLimit   int

	mu    sync.Mutex
	token *AuthToken

	// reference data (city codes, hotel lists) changes rarely
	cache *gocache.Cache
}

// LocationSearchResponse wraps the API response for locations
type LocationSearchResponse struct {
	Data []LocationData `json:"data"`
}

// LocationData represents a single location result from Amadeus
type LocationData struct {
	SubType  string  `json:"subType"`
	Name     string  `json:"name"`
	IATACode string  `json:"iataCode"`
	Address  Address `json:"address"`
}

// Address contains location details
type Address struct {
	CityName    string `json:"cityName"`
	CityCode    string `json:"cityCode"`
	CountryName string `json:"countryName"`
	CountryCode string `json:"countryCode"`
}

// AuthToken represents the OAuth2 token response
type AuthToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Expiry      time.Time
}

// NewClient creates a new Amadeus client
func NewClient(clientID, clientSecret string, isProduction bool, hotelLimit int, timeout time.Duration) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("amadeus client id and secret are required")
	}
	baseURL := BaseURLTest
	if isProduction {
		baseURL = BaseURLProduction
	}
	if hotelLimit <= 0 {
		hotelLimit = 20
	}
	return &Client{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		BaseURL:      baseURL,
		HTTPClient:   &http.Client{Timeout: timeout},
		HotelLimit:   hotelLimit,
		cache:        gocache.New(referenceTTL, time.Hour),
	}, nil
}

// Authenticate fetches a fresh client-credentials token.
func (c *Client) Authenticate(ctx context.Context) error {
	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", c.ClientID)
	data.Set("client_secret", c.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/security/oauth2/token", strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: amadeus auth: %v", core.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: amadeus authentication failed: %s", core.ErrProvider, resp.Status)
	}

	var token AuthToken
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("%w: amadeus auth: %v", core.ErrProvider, err)
	}
	// Refresh a little early.
	token.Expiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - 10*time.Second)

	c.mu.Lock()
	c.token = &token
	c.mu.Unlock()
	return nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()
	if tok == nil || time.Now().After(tok.Expiry) {
		if err := c.Authenticate(ctx); err != nil {
			return "", err
		}
		c.mu.Lock()
		tok = c.token
		c.mu.Unlock()
	}
	return tok.AccessToken, nil
}

// getJSON performs an authenticated GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	u := c.BaseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Errorf(ctx, "Amadeus API request failed: %v", err)
		return fmt.Errorf("%w: amadeus: %v", core.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Errorf(ctx, "Amadeus %s returned %s: %s", endpoint, resp.Status, bytes.TrimSpace(body))
		return fmt.Errorf("%w: amadeus %s: %s", core.ErrProvider, endpoint, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: amadeus %s: decode: %v", core.ErrProvider, endpoint, err)
	}
	return nil
}

// ResolveCityCode maps a city name to its IATA city code. A code that is
// already three letters is returned as is.
func (c *Client) ResolveCityCode(ctx context.Context, city string) (string, error) {
	city = strings.TrimSpace(city)
	if len(city) == 3 && strings.ToUpper(city) == city {
		return city, nil
	}
	key := "city:" + strings.ToLower(city)
	if v, ok := c.cache.Get(key); ok {
		return v.(string), nil
	}

	query := url.Values{}
	query.Set("subType", "CITY")
	query.Set("keyword", city)
	query.Set("page[limit]", "5")

	var result LocationSearchResponse
	if err := c.getJSON(ctx, "/v1/reference-data/locations", query, &result); err != nil {
		return "", err
	}
	for _, l := range result.Data {
		code := l.IATACode
		if code == "" {
			code = l.Address.CityCode
		}
		if code != "" {
			c.cache.SetDefault(key, code)
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: no city code found for %q", core.ErrValidation, city)
}
