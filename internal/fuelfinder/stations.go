package fuelfinder

import (
	"math"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/fuelwatch/fuelwatch/internal/config"
	"github.com/fuelwatch/fuelwatch/internal/geo"
	"github.com/fuelwatch/fuelwatch/internal/models"
)

// ProcessStations filters raw station records to the configured radius and
// normalizes them. Records missing a node id, flagged closed, or carrying
// unusable coordinates are skipped.
func (c *Client) ProcessStations(cfg *config.Config, records [][]byte) map[string]models.Station {
	nearby := make(map[string]models.Station)
	now := c.clock.Now()

	for _, rec := range records {
		var raw rawStation
		if err := json.Unmarshal(rec, &raw); err != nil {
			continue
		}

		id := asString(raw.NodeID)
		if id == "" {
			continue
		}
		if raw.TemporaryClosure || raw.PermanentClosure {
			continue
		}

		lat, ok := asFloat(raw.Location.Latitude)
		if !ok {
			continue
		}
		lon, ok := asFloat(raw.Location.Longitude)
		if !ok {
			continue
		}

		km := geo.DistanceKM(cfg.HomeLat, cfg.HomeLon, lat, lon)
		if !geo.WithinRadius(km, cfg.RadiusMiles) {
			continue
		}

		name := raw.TradingName
		if name == "" {
			name = raw.BrandName
		}

		nearby[id] = models.Station{
			ID:            id,
			Name:          name,
			Brand:         raw.BrandName,
			Postcode:      raw.Location.Postcode,
			Lat:           lat,
			Lon:           lon,
			Miles:         math.Round(geo.MilesFromKM(km)*100) / 100,
			OpenToday:     openingToday(raw.OpeningTimes, now),
			IsMotorway:    raw.IsMotorway,
			IsSupermarket: raw.IsSupermarket,
			FuelTypes:     raw.FuelTypes,
			Amenities:     raw.Amenities,
		}
	}

	return nearby
}

// openingToday formats today's opening hours. It returns "24h" for
// round-the-clock stations, "HH:MM-HH:MM" otherwise, and "" when either time
// is missing or both read 00:00 (the provider's "no data" marker).
func openingToday(ot rawOpeningTimes, now time.Time) string {
	day := strings.ToLower(now.Weekday().String())
	hours, ok := ot.UsualDays[day]
	if !ok {
		return ""
	}
	if hours.Is24Hours {
		return "24h"
	}

	open := clipTime(hours.Open)
	close := clipTime(hours.Close)
	if open == "" || close == "" {
		return ""
	}
	if open == "00:00" && close == "00:00" {
		return ""
	}
	return open + "-" + close
}

// clipTime reduces a provider time string to HH:MM.
func clipTime(s string) string {
	if len(s) > 5 {
		return s[:5]
	}
	return s
}
