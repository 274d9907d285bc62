package fuelfinder

import (
	"time"

	json "github.com/goccy/go-json"

	"github.com/fuelwatch/fuelwatch/internal/models"
)

// ProcessPrices filters raw price records to known stations and returns the
// kept entries plus the maximum last-updated timestamp seen. Records for
// unknown stations and fuel entries without a usable numeric price are
// skipped.
func (c *Client) ProcessPrices(records [][]byte, knownIDs map[string]struct{}) (models.PriceMap, string) {
	prices := make(models.PriceMap)
	var maxTimestamp string

	for _, rec := range records {
		var raw rawPriceRecord
		if err := json.Unmarshal(rec, &raw); err != nil {
			continue
		}

		id := asString(raw.NodeID)
		if id == "" {
			continue
		}
		if _, ok := knownIDs[id]; !ok {
			continue
		}

		stationPrices := make(map[string]models.PriceEntry)
		for _, fuel := range raw.FuelPrices {
			if fuel.FuelType == "" {
				continue
			}
			price, ok := asFloat(fuel.Price)
			if !ok {
				continue
			}

			stationPrices[fuel.FuelType] = models.PriceEntry{
				Price:     price,
				Timestamp: fuel.PriceLastUpdated,
			}

			// Lexical max relies on zero-padded ISO-8601 ordering, matching
			// what the provider emits today.
			if fuel.PriceLastUpdated != "" && fuel.PriceLastUpdated > maxTimestamp {
				maxTimestamp = fuel.PriceLastUpdated
			}
		}

		if len(stationPrices) > 0 {
			prices[id] = stationPrices
		}
	}

	return prices, maxTimestamp
}

// EffectiveStartTimestamp converts the last seen price timestamp into the
// incremental query parameter value: 30 minutes earlier, formatted
// "YYYY-MM-DD HH:MM:SS" in UTC. An empty or unparseable input returns "",
// which requests the full unfiltered set.
func EffectiveStartTimestamp(lastSeen string) string {
	if lastSeen == "" {
		return ""
	}
	ts, ok := parseISOish(lastSeen)
	if !ok {
		return ""
	}
	return ts.Add(-priceRefetchBuffer).UTC().Format("2006-01-02 15:04:05")
}

// isoishLayouts covers the timestamp shapes the provider has been seen to
// emit: RFC 3339 with or without fractional seconds, and offset-less
// variants with either separator.
var isoishLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseISOish(s string) (time.Time, bool) {
	for _, layout := range isoishLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
