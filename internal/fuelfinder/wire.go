package fuelfinder

import (
	"strconv"
	"strings"
)

// Wire types for the Fuel Finder record payloads. Identifiers, coordinates,
// and prices arrive as strings or numbers depending on API version, so those
// fields decode into any and are coerced explicitly.

type rawStation struct {
	NodeID           any             `json:"node_id"`
	TradingName      string          `json:"trading_name"`
	BrandName        string          `json:"brand_name"`
	TemporaryClosure bool            `json:"temporary_closure"`
	PermanentClosure bool            `json:"permanent_closure"`
	Location         rawLocation     `json:"location"`
	OpeningTimes     rawOpeningTimes `json:"opening_times"`
	IsMotorway       bool            `json:"is_motorway_service_station"`
	IsSupermarket    bool            `json:"is_supermarket_service_station"`
	FuelTypes        []string        `json:"fuel_types"`
	Amenities        []string        `json:"amenities"`
}

type rawLocation struct {
	Latitude  any    `json:"latitude"`
	Longitude any    `json:"longitude"`
	Postcode  string `json:"postcode"`
}

type rawOpeningTimes struct {
	UsualDays map[string]rawDayHours `json:"usual_days"`
}

type rawDayHours struct {
	Is24Hours bool   `json:"is_24_hours"`
	Open      string `json:"open"`
	Close     string `json:"close"`
}

type rawPriceRecord struct {
	NodeID     any            `json:"node_id"`
	FuelPrices []rawFuelPrice `json:"fuel_prices"`
}

type rawFuelPrice struct {
	FuelType         string `json:"fuel_type"`
	Price            any    `json:"price"`
	PriceLastUpdated string `json:"price_last_updated"`
}

// asString coerces a loosely typed identifier to a string key.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

// asFloat coerces a loosely typed numeric value. Null, empty, and
// non-numeric values report false.
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
