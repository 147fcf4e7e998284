package nager

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/va6996/tripchat/core"
)

const DefaultBaseURL = "https://date.nager.at/api/v3"

// Client handles Nager.Date API requests
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new Nager.Date API client. An empty baseURL uses the
// public endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Holiday represents a public holiday from Nager.Date API
type Holiday struct {
	Date        string   `json:"date"`
	LocalName   string   `json:"localName"`
	Name        string   `json:"name"`
	CountryCode string   `json:"countryCode"`
	Global      bool     `json:"global"`
	Counties    []string `json:"counties,omitempty"`
	Types       []string `json:"types,omitempty"`
}

// LongWeekend represents a long weekend from Nager.Date API
type LongWeekend struct {
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	DayCount      int    `json:"dayCount"`
	NeedBridgeDay bool   `json:"needBridgeDay"`
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: nager: %v", core.ErrProvider, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("%w: holidays are not available for this country", core.ErrValidation)
	case http.StatusNoContent:
		return nil
	default:
		return fmt.Errorf("%w: nager request failed with status %d", core.ErrProvider, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: nager: failed to decode response: %v", core.ErrProvider, err)
	}
	return nil
}

// GetPublicHolidays returns public holidays for a specific country and year
func (c *Client) GetPublicHolidays(ctx context.Context, year int, country core.CountryCode) ([]Holiday, error) {
	var holidays []Holiday
	err := c.get(ctx, fmt.Sprintf("/PublicHolidays/%d/%s", year, country), &holidays)
	return holidays, err
}

// GetLongWeekends returns long weekends for a specific country and year
func (c *Client) GetLongWeekends(ctx context.Context, year int, country core.CountryCode) ([]LongWeekend, error) {
	var weekends []LongWeekend
	err := c.get(ctx, fmt.Sprintf("/LongWeekend/%d/%s", year, country), &weekends)
	return weekends, err
}

// HolidaysBetween returns holidays falling in [from, to], fetching every
// calendar year the range touches.
func (c *Client) HolidaysBetween(ctx context.Context, country core.CountryCode, from, to core.Date) ([]Holiday, error) {
	var out []Holiday
	for year := from.Time().Year(); year <= to.Time().Year(); year++ {
		holidays, err := c.GetPublicHolidays(ctx, year, country)
		if err != nil {
			return nil, err
		}
		for _, h := range holidays {
			d, err := core.ParseDate(h.Date)
			if err != nil {
				continue
			}
			if !d.Before(from) && !d.After(to) {
				out = append(out, h)
			}
		}
	}
	return out, nil
}
