package tools

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"github.com/va6996/tripchat/core"
)

// Destination is a catalog entry. Costs are in USD.
type Destination struct {
	Name             string   `json:"name"`
	Country          string   `json:"country"`
	CountryCode      string   `json:"countryCode"`
	Region           string   `json:"region"`
	Description      string   `json:"description"`
	BestTimeToVisit  string   `json:"bestTimeToVisit"`
	Highlights       []string `json:"highlights"`
	Tags             []string `json:"tags"`
	AverageDailyCost float64  `json:"averageDailyCostUsd"`
}

var destinations = []Destination{
	{"Paris", "France", "FR", "Europe", "Art, cafés and grand boulevards along the Seine.", "April to June, September to October",
		[]string{"Louvre", "Eiffel Tower", "Montmartre"}, []string{"culture", "food", "romance", "city"}, 220},
	{"Kyoto", "Japan", "JP", "Asia", "Temples, gardens and traditional tea houses.", "March to May, October to November",
		[]string{"Fushimi Inari", "Kinkaku-ji", "Arashiyama"}, []string{"culture", "history", "nature"}, 160},
	{"Tokyo", "Japan", "JP", "Asia", "Neon districts, quiet shrines and world-class food.", "March to May, September to November",
		[]string{"Shibuya", "Senso-ji", "Tsukiji Outer Market"}, []string{"city", "food", "shopping"}, 190},
	{"Bali", "Indonesia", "ID", "Asia", "Rice terraces, surf beaches and Hindu temples.", "April to October",
		[]string{"Ubud", "Uluwatu", "Tegallalang"}, []string{"beach", "nature", "wellness"}, 90},
	{"Goa", "India", "IN", "Asia", "Beaches, Portuguese heritage and seafood shacks.", "November to February",
		[]string{"Baga Beach", "Old Goa churches", "Dudhsagar Falls"}, []string{"beach", "nightlife", "food"}, 60},
	{"Jaipur", "India", "IN", "Asia", "The Pink City of forts and palaces.", "October to March",
		[]string{"Amber Fort", "Hawa Mahal", "City Palace"}, []string{"culture", "history", "shopping"}, 55},
	{"Lisbon", "Portugal", "PT", "Europe", "Hilly streets, trams and pastel de nata.", "March to May, September to October",
		[]string{"Alfama", "Belém Tower", "LX Factory"}, []string{"city", "food", "culture"}, 140},
	{"Rome", "Italy", "IT", "Europe", "Ancient ruins and Baroque piazzas.", "April to June, September to October",
		[]string{"Colosseum", "Vatican Museums", "Trastevere"}, []string{"history", "culture", "food"}, 200},
	{"Reykjavik", "Iceland", "IS", "Europe", "Gateway to glaciers, geysers and the northern lights.", "June to August for hiking, September to March for auroras",
		[]string{"Blue Lagoon", "Golden Circle", "Hallgrímskirkja"}, []string{"nature", "adventure"}, 280},
	{"New York", "United States", "US", "North America", "Museums, Broadway and distinct neighborhoods.", "April to June, September to November",
		[]string{"Central Park", "The Met", "Brooklyn Bridge"}, []string{"city", "culture", "food", "shopping"}, 300},
	{"Cape Town", "South Africa", "ZA", "Africa", "Table Mountain, vineyards and coastline.", "November to March",
		[]string{"Table Mountain", "Cape Point", "V&A Waterfront"}, []string{"nature", "adventure", "food"}, 110},
	{"Queenstown", "New Zealand", "NZ", "Oceania", "Adventure capital on Lake Wakatipu.", "December to February, June to August for skiing",
		[]string{"Milford Sound", "Skyline Gondola", "Bungee jumping"}, []string{"adventure", "nature"}, 210},
	{"Cusco", "Peru", "PE", "South America", "Inca capital and base for Machu Picchu.", "May to September",
		[]string{"Machu Picchu", "Sacred Valley", "Rainbow Mountain"}, []string{"history", "adventure", "culture"}, 80},
	{"Marrakech", "Morocco", "MA", "Africa", "Souks, riads and the Atlas mountains.", "March to May, September to November",
		[]string{"Jemaa el-Fnaa", "Majorelle Garden", "Atlas day trip"}, []string{"culture", "shopping", "food"}, 75},
}

// usdPer holds how many units of a currency buy one US dollar.
var usdPer = map[string]float64{
	"USD": 1, "EUR": 0.92, "GBP": 0.79, "INR": 83.2, "JPY": 150.1, "CNY": 7.2,
	"AUD": 1.52, "CAD": 1.36, "NZD": 1.64, "CHF": 0.88, "SEK": 10.4, "NOK": 10.6,
	"DKK": 6.9, "SGD": 1.34, "HKD": 7.82, "KRW": 1330, "THB": 35.8, "IDR": 15600,
	"MYR": 4.7, "PHP": 56, "VND": 24500, "AED": 3.67, "SAR": 3.75, "TRY": 32,
	"ZAR": 18.6, "BRL": 5.0, "MXN": 17.1, "ISK": 138, "PEN": 3.75, "MAD": 10.0,
	"PLN": 4.0, "CZK": 23.2, "HUF": 360, "ILS": 3.7, "EGP": 47,
}

// Convert uses the fixed table. Unknown currencies are a validation error.
func Convert(amount float64, from, to string) (float64, error) {
	fromRate, ok := usdPer[strings.ToUpper(from)]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported currency %q", core.ErrValidation, from)
	}
	toRate, ok := usdPer[strings.ToUpper(to)]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported currency %q", core.ErrValidation, to)
	}
	return math.Round(amount/fromRate*toRate*100) / 100, nil
}

// FindDestination looks a name up case-insensitively.
func FindDestination(name string) (Destination, bool) {
	name = strings.TrimSpace(name)
	return lo.Find(destinations, func(d Destination) bool {
		return strings.EqualFold(d.Name, name)
	})
}

// CountryForDestination resolves a country name and code from the catalog,
// falling back to treating the input as a country name.
func CountryForDestination(name string) (string, core.CountryCode, bool) {
	if d, ok := FindDestination(name); ok {
		return d.Country, core.MustCountry(d.CountryCode), true
	}
	if code, ok := core.CountryISO2(name); ok {
		return core.CountryName(code), code, true
	}
	return "", core.CountryCode{}, false
}

func searchCatalog(query, region, tag string) []Destination {
	query = strings.ToLower(strings.TrimSpace(query))
	return lo.Filter(destinations, func(d Destination, _ int) bool {
		if region != "" && !strings.EqualFold(d.Region, region) {
			return false
		}
		if tag != "" && !lo.Contains(d.Tags, strings.ToLower(tag)) {
			return false
		}
		if query == "" {
			return true
		}
		haystack := strings.ToLower(d.Name + " " + d.Country + " " + d.Description + " " + strings.Join(d.Tags, " "))
		return strings.Contains(haystack, query)
	})
}
