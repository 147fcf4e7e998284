package core

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver("USD", "US")
	require.NoError(t, err)
	r.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return r
}

func TestParseCodes(t *testing.T) {
	_, err := ParseCurrencyCode("EUR")
	assert.NoError(t, err)

	for _, bad := range []string{"", "eur", "EU", "EURO", "E1R", " EUR"} {
		_, err := ParseCurrencyCode(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}

	_, err = ParseCountryCode("IN")
	assert.NoError(t, err)
	for _, bad := range []string{"", "in", "IND", "I1"} {
		_, err := ParseCountryCode(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestResolve(t *testing.T) {
	r := testResolver(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		override string
		geo      string
		currency string
		country  string
		source   CurrencySource
	}{
		{"geo india", "", "IN", "INR", "IN", SourceGeo},
		{"geo japan", "", "JP", "JPY", "JP", SourceGeo},
		{"override wins", "EUR", "IN", "EUR", "IN", SourceUserOverride},
		{"override without geo", "GBP", "", "GBP", "US", SourceUserOverride},
		{"invalid override falls to geo", "euro", "IN", "INR", "IN", SourceGeo},
		{"invalid geo falls to default", "", "india", "USD", "US", SourceDefault},
		{"unknown region falls to default", "", "ZZ", "USD", "US", SourceDefault},
		{"nothing", "", "", "USD", "US", SourceDefault},
		{"override with invalid geo", "CHF", "x", "CHF", "US", SourceUserOverride},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(ctx, tt.override, tt.geo)
			assert.Equal(t, tt.currency, got.Currency.String())
			assert.Equal(t, tt.country, got.Country.String())
			assert.Equal(t, tt.source, got.Source)
			assert.NotEmpty(t, got.Symbol)
			assert.NotEmpty(t, got.Name)
			assert.False(t, got.ResolvedAt.IsZero())
		})
	}
}

func TestResolveUnknownMetadataUsesDefault(t *testing.T) {
	r := testResolver(t)
	got := r.Resolve(context.Background(), "XAF", "")
	assert.Equal(t, "XAF", got.Currency.String())
	assert.Equal(t, "$", got.Symbol)
	assert.Equal(t, "US Dollar", got.Name)
}

func TestResolveAlwaysWellFormed(t *testing.T) {
	r := testResolver(t)
	inputs := []string{"", "A", "AB", "ABC", "abc", "ÄÖÜ", "12", "US", "DE", "QQ", "  ", "NULL"}
	for _, o := range inputs {
		for _, g := range inputs {
			got := r.Resolve(context.Background(), o, g)
			assert.Regexp(t, `^[A-Z]{3}$`, got.Currency.String())
			assert.Regexp(t, `^[A-Z]{2}$`, got.Country.String())
		}
	}
}

func TestZeroResolverFallsBackToUSD(t *testing.T) {
	var r Resolver
	got := r.Resolve(context.Background(), "", "")
	assert.Equal(t, "USD", got.Currency.String())
	assert.Equal(t, "US", got.Country.String())
	assert.Equal(t, SourceDefault, got.Source)
	assert.Equal(t, "$", got.Symbol)

	got = r.Resolve(context.Background(), "EUR", "nope")
	assert.Equal(t, "EUR", got.Currency.String())
	assert.Equal(t, "US", got.Country.String())
}

func TestNewResolverRejectsMalformedDefaults(t *testing.T) {
	_, err := NewResolver("usd", "US")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = NewResolver("USD", "USA")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCurrencyContextJSON(t *testing.T) {
	r := testResolver(t)
	cc := r.Resolve(context.Background(), "", "DE")

	b, err := json.Marshal(cc)
	require.NoError(t, err)

	var back CurrencyContext
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, cc.Currency, back.Currency)
	assert.Equal(t, cc.Country, back.Country)
	assert.Equal(t, cc.Source, back.Source)
	assert.True(t, cc.ResolvedAt.Equal(back.ResolvedAt))

	assert.Error(t, json.Unmarshal([]byte(`{"currency":"eur","country":"DE"}`), &back))
}

func TestCountryISO2(t *testing.T) {
	tests := map[string]string{
		"France":          "FR",
		"  united states": "US",
		"USA":             "US",
		"UK":              "GB",
		"Japan":           "JP",
		"Paris, France":   "FR",
		"IT":              "IT",
		"czech republic":  "CZ",
	}
	for in, want := range tests {
		got, ok := CountryISO2(in)
		if assert.True(t, ok, in) {
			assert.Equal(t, want, got.String(), in)
		}
	}

	_, ok := CountryISO2("Atlantis")
	assert.False(t, ok)
	_, ok = CountryISO2("")
	assert.False(t, ok)
}

func TestCountryName(t *testing.T) {
	assert.Equal(t, "India", CountryName(MustCountry("IN")))
}
