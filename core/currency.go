package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/va6996/tripchat/log"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// CurrencySource records which signal produced a CurrencyContext.
type CurrencySource string

const (
	SourceUserOverride CurrencySource = "user_override"
	SourceGeo          CurrencySource = "geo"
	SourceDefault      CurrencySource = "default"
)

var (
	currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)
	countryCodeRe  = regexp.MustCompile(`^[A-Z]{2}$`)
)

// CurrencyCode is an ISO-4217 code. Only ParseCurrencyCode produces one.
type CurrencyCode struct{ code string }

// CountryCode is an ISO-3166 alpha-2 code. Only ParseCountryCode produces one.
type CountryCode struct{ code string }

// ParseCurrencyCode accepts exactly three uppercase ASCII letters. Input is
// not normalized: "usd" is rejected.
func ParseCurrencyCode(s string) (CurrencyCode, error) {
	if !currencyCodeRe.MatchString(s) {
		return CurrencyCode{}, fmt.Errorf("%w: invalid currency code %q", ErrValidation, s)
	}
	return CurrencyCode{code: s}, nil
}

// ParseCountryCode accepts exactly two uppercase ASCII letters.
func ParseCountryCode(s string) (CountryCode, error) {
	if !countryCodeRe.MatchString(s) {
		return CountryCode{}, fmt.Errorf("%w: invalid country code %q", ErrValidation, s)
	}
	return CountryCode{code: s}, nil
}

// MustCurrency panics on malformed input. Use only for constants.
func MustCurrency(s string) CurrencyCode {
	c, err := ParseCurrencyCode(s)
	if err != nil {
		panic(err)
	}
	return c
}

// MustCountry panics on malformed input. Use only for constants.
func MustCountry(s string) CountryCode {
	c, err := ParseCountryCode(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CurrencyCode) String() string { return c.code }
func (c CurrencyCode) IsZero() bool   { return c.code == "" }
func (c CountryCode) String() string  { return c.code }
func (c CountryCode) IsZero() bool    { return c.code == "" }

func (c CurrencyCode) MarshalText() ([]byte, error) { return []byte(c.code), nil }

func (c *CurrencyCode) UnmarshalText(b []byte) error {
	parsed, err := ParseCurrencyCode(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c CountryCode) MarshalText() ([]byte, error) { return []byte(c.code), nil }

func (c *CountryCode) UnmarshalText(b []byte) error {
	parsed, err := ParseCountryCode(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CurrencyContext is the single currency that governs every price quoted
// during one request. It is a value; copies cannot affect each other.
type CurrencyContext struct {
	Currency   CurrencyCode   `json:"currency"`
	Country    CountryCode    `json:"country"`
	Source     CurrencySource `json:"source"`
	Symbol     string         `json:"symbol"`
	Name       string         `json:"name"`
	ResolvedAt time.Time      `json:"resolvedAt"`
}

// IsZero reports whether the context was never resolved.
func (c CurrencyContext) IsZero() bool {
	return c.Currency.IsZero() || c.Country.IsZero()
}

// Describe renders the context for the system preamble.
func (c CurrencyContext) Describe() string {
	return fmt.Sprintf("%s (%s, %s) for country %s", c.Currency, c.Symbol, c.Name, c.Country)
}

// CurrencyMeta is display metadata for a currency.
type CurrencyMeta struct {
	Symbol string
	Name   string
}

var currencyMeta = map[string]CurrencyMeta{
	"USD": {"$", "US Dollar"},
	"EUR": {"€", "Euro"},
	"GBP": {"£", "British Pound"},
	"INR": {"₹", "Indian Rupee"},
	"JPY": {"¥", "Japanese Yen"},
	"CNY": {"¥", "Chinese Yuan"},
	"AUD": {"A$", "Australian Dollar"},
	"CAD": {"C$", "Canadian Dollar"},
	"NZD": {"NZ$", "New Zealand Dollar"},
	"CHF": {"CHF", "Swiss Franc"},
	"SEK": {"kr", "Swedish Krona"},
	"NOK": {"kr", "Norwegian Krone"},
	"DKK": {"kr", "Danish Krone"},
	"SGD": {"S$", "Singapore Dollar"},
	"HKD": {"HK$", "Hong Kong Dollar"},
	"KRW": {"₩", "South Korean Won"},
	"THB": {"฿", "Thai Baht"},
	"IDR": {"Rp", "Indonesian Rupiah"},
	"MYR": {"RM", "Malaysian Ringgit"},
	"PHP": {"₱", "Philippine Peso"},
	"VND": {"₫", "Vietnamese Dong"},
	"AED": {"AED", "UAE Dirham"},
	"SAR": {"SAR", "Saudi Riyal"},
	"TRY": {"₺", "Turkish Lira"},
	"ZAR": {"R", "South African Rand"},
	"BRL": {"R$", "Brazilian Real"},
	"MXN": {"MX$", "Mexican Peso"},
	"ARS": {"AR$", "Argentine Peso"},
	"EGP": {"E£", "Egyptian Pound"},
	"ILS": {"₪", "Israeli New Shekel"},
	"PLN": {"zł", "Polish Zloty"},
	"CZK": {"Kč", "Czech Koruna"},
	"HUF": {"Ft", "Hungarian Forint"},
	"ISK": {"kr", "Icelandic Krona"},
	"LKR": {"Rs", "Sri Lankan Rupee"},
	"NPR": {"Rs", "Nepalese Rupee"},
	"MAD": {"MAD", "Moroccan Dirham"},
	"KES": {"KSh", "Kenyan Shilling"},
	"PEN": {"S/", "Peruvian Sol"},
}

// CurrencyForCountry maps a country to its tender through the CLDR region
// table. Unknown or reserved regions (e.g. ZZ) report false.
func CurrencyForCountry(country CountryCode) (CurrencyCode, bool) {
	region, err := language.ParseRegion(country.String())
	if err != nil || !region.IsCountry() {
		return CurrencyCode{}, false
	}
	unit, ok := currency.FromRegion(region)
	if !ok {
		return CurrencyCode{}, false
	}
	code, err := ParseCurrencyCode(unit.String())
	if err != nil {
		return CurrencyCode{}, false
	}
	return code, true
}

// Resolver picks the authoritative CurrencyContext for a request.
type Resolver struct {
	DefaultCurrency CurrencyCode
	DefaultCountry  CountryCode
	Now             func() time.Time
}

// Used when a Resolver is built without NewResolver.
var (
	fallbackCurrency = CurrencyCode{code: "USD"}
	fallbackCountry  = CountryCode{code: "US"}
)

func (r *Resolver) defaults() (CurrencyCode, CountryCode) {
	cur, country := r.DefaultCurrency, r.DefaultCountry
	if cur.IsZero() {
		cur = fallbackCurrency
	}
	if country.IsZero() {
		country = fallbackCountry
	}
	return cur, country
}

// NewResolver builds a resolver whose fallback is the given pair. Malformed
// defaults are rejected here so Resolve itself never has to fail.
func NewResolver(defaultCurrency, defaultCountry string) (*Resolver, error) {
	cur, err := ParseCurrencyCode(defaultCurrency)
	if err != nil {
		return nil, fmt.Errorf("default currency: %w", err)
	}
	country, err := ParseCountryCode(defaultCountry)
	if err != nil {
		return nil, fmt.Errorf("default country: %w", err)
	}
	return &Resolver{DefaultCurrency: cur, DefaultCountry: country, Now: time.Now}, nil
}

// Resolve applies override, then geo, then default. Invalid signals are
// logged and skipped. The result is always well-formed.
func (r *Resolver) Resolve(ctx context.Context, override, geo string) CurrencyContext {
	override = strings.TrimSpace(override)
	geo = strings.TrimSpace(geo)
	defaultCurrency, defaultCountry := r.defaults()

	geoCountry, geoErr := ParseCountryCode(geo)
	if geo != "" && geoErr != nil {
		log.Warnf(ctx, "Ignoring geo country signal: %v", geoErr)
	}

	if override != "" {
		cur, err := ParseCurrencyCode(override)
		if err == nil {
			country := defaultCountry
			if geoErr == nil {
				country = geoCountry
			}
			return r.build(cur, country, SourceUserOverride)
		}
		log.Warnf(ctx, "Ignoring currency override: %v", err)
	}

	if geoErr == nil {
		if cur, ok := CurrencyForCountry(geoCountry); ok {
			return r.build(cur, geoCountry, SourceGeo)
		}
		log.Warnf(ctx, "No currency known for country %s, using default", geoCountry)
	}

	return r.build(defaultCurrency, defaultCountry, SourceDefault)
}

func (r *Resolver) build(cur CurrencyCode, country CountryCode, source CurrencySource) CurrencyContext {
	meta, ok := currencyMeta[cur.String()]
	if !ok {
		meta = r.defaultMeta()
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return CurrencyContext{
		Currency:   cur,
		Country:    country,
		Source:     source,
		Symbol:     meta.Symbol,
		Name:       meta.Name,
		ResolvedAt: now().UTC(),
	}
}

func (r *Resolver) defaultMeta() CurrencyMeta {
	cur, _ := r.defaults()
	if meta, ok := currencyMeta[cur.String()]; ok {
		return meta
	}
	return CurrencyMeta{Symbol: cur.String(), Name: cur.String()}
}

// LookupCurrencyMeta returns display metadata for a code, if known.
func LookupCurrencyMeta(code CurrencyCode) (CurrencyMeta, bool) {
	meta, ok := currencyMeta[code.String()]
	return meta, ok
}
