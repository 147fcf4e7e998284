package tools_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/tools"
)

func TestConvert(t *testing.T) {
	got, err := tools.Convert(100, "USD", "inr")
	require.NoError(t, err)
	assert.Equal(t, 8320.0, got)

	got, err = tools.Convert(92, "EUR", "USD")
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)

	_, err = tools.Convert(1, "XYZ", "USD")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestCatalogTools_Search(t *testing.T) {
	catalog := tools.NewCatalogTools(nil)
	ctx := testTurn(context.Background())

	tests := []struct {
		name  string
		input tools.SearchDestinationsInput
		want  []string
	}{
		{"by country", tools.SearchDestinationsInput{Query: "japan"}, []string{"Kyoto", "Tokyo"}},
		{"by tag and region", tools.SearchDestinationsInput{Tag: "beach", Region: "asia"}, []string{"Bali", "Goa"}},
		{"budget in INR", tools.SearchDestinationsInput{Region: "Asia", MaxDailyBudget: 5000}, []string{"Goa", "Jaipur"}},
		{"no match", tools.SearchDestinationsInput{Query: "antarctica"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := catalog.Search(ctx, &tt.input)
			require.NoError(t, err)
			names := make([]string, 0, len(out.Destinations))
			for _, d := range out.Destinations {
				assert.Equal(t, "INR", d.Currency)
				names = append(names, d.Name)
			}
			assert.Equal(t, tt.want, names)
			assert.Equal(t, len(tt.want), out.Count)
		})
	}
}

func TestCatalogTools_InfoAndConvert(t *testing.T) {
	catalog := tools.NewCatalogTools(nil)

	info, err := catalog.Info(context.Background(), &tools.DestinationInfoInput{Name: "lisbon"})
	require.NoError(t, err)
	assert.Equal(t, "Portugal", info.Country)
	assert.Equal(t, "USD", info.Currency)
	assert.Equal(t, 140.0, info.DailyCost)

	_, err = catalog.Info(context.Background(), &tools.DestinationInfoInput{Name: "Atlantis"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	conv, err := catalog.Convert(testTurn(context.Background()), &tools.ConvertCurrencyInput{Amount: 10, From: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "INR", conv.To)
	assert.Equal(t, 832.0, conv.Converted)
}

func TestDateTools_ValidateDates(t *testing.T) {
	dates := tools.NewDateTools(nil)
	ctx := testTurn(context.Background())

	out, err := dates.ValidateDates(ctx, &tools.ValidateDatesInput{Date: "tomorrow"})
	require.NoError(t, err)
	require.NotNil(t, out.Date)
	assert.True(t, out.Date.Valid)
	assert.Equal(t, "2026-10-16", out.Date.Date)
	assert.Nil(t, out.Range)

	out, err = dates.ValidateDates(ctx, &tools.ValidateDatesInput{CheckIn: "2026-10-20", CheckOut: "2026-10-23"})
	require.NoError(t, err)
	require.NotNil(t, out.Range)
	assert.True(t, out.Range.Valid)
	assert.Equal(t, 3, out.Range.Nights)

	out, err = dates.ValidateDates(ctx, &tools.ValidateDatesInput{CheckIn: "2026-10-01", CheckOut: "2026-10-03"})
	require.NoError(t, err)
	assert.False(t, out.Range.Valid)
	assert.Contains(t, out.Range.Error, "cannot be in the past")

	assert.Error(t, tools.ValidateDatesInput{}.Validate())
	assert.Error(t, tools.ValidateDatesInput{CheckIn: "2026-10-20"}.Validate())
}

func TestDateTools_Calculate(t *testing.T) {
	dates := tools.NewDateTools(nil)
	ctx := testTurn(context.Background())

	tests := []struct {
		name string
		expr string
		want string
	}{
		{"tomorrow", "new Date(now + 86400000)", "2026-10-16"},
		{"iso string", "'2026-12-25T10:00:00Z'", "2026-12-25"},
		{"next friday", "var d = new Date(now); d.setUTCDate(d.getUTCDate() + ((5 - d.getUTCDay() + 7) % 7 || 7)); d", "2026-10-16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := dates.Calculate(ctx, &tools.CalculateDateInput{Expression: tt.expr})
			require.NoError(t, err)
			assert.True(t, res.Valid)
			assert.Equal(t, tt.want, res.Date)
		})
	}

	_, err := dates.Calculate(ctx, &tools.CalculateDateInput{Expression: "undefined"})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = dates.Calculate(ctx, &tools.CalculateDateInput{Expression: "this is not js"})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = dates.Calculate(ctx, &tools.CalculateDateInput{Expression: "42"})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestDateTools_CalculateStopsRunawayScripts(t *testing.T) {
	tests := []struct {
		name    string
		budget  time.Duration
		timeout time.Duration
	}{
		{"budget", 50 * time.Millisecond, time.Minute},
		{"context deadline", time.Minute, 200 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates := &tools.DateTools{Budget: tt.budget}
			ctx, cancel := context.WithTimeout(testTurn(context.Background()), tt.timeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				_, err := dates.Calculate(ctx, &tools.CalculateDateInput{Expression: "while(true){}"})
				done <- err
			}()

			select {
			case err := <-done:
				assert.ErrorIs(t, err, core.ErrValidation)
			case <-time.After(5 * time.Second):
				t.Fatal("calculate_date kept running")
			}
		})
	}
}
