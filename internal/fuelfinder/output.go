package fuelfinder

import (
	"math"
	"sort"
	"time"

	"github.com/fuelwatch/fuelwatch/internal/models"
)

// BuildOutput merges the nearby station set with the cached prices into the
// published summary. Only stations with at least one cached price produce a
// row; the station count still reflects the whole filtered set. Rows are
// sorted by ascending distance and the cheapest price per fuel type goes to
// the closer station on ties.
func BuildOutput(stations map[string]models.Station, prices models.PriceMap, now time.Time) *models.Summary {
	rows := make([]models.StationRow, 0, len(stations))

	for id, st := range stations {
		stationPrices := prices[id]
		if len(stationPrices) == 0 {
			continue
		}

		row := models.StationRow{
			ID:        st.ID,
			Name:      st.Name,
			Postcode:  st.Postcode,
			Miles:     st.Miles,
			OpenToday: st.OpenToday,
		}
		row.E10Price, row.E10Updated = pricePair(stationPrices, models.FuelTypeE10)
		row.E5Price, row.E5Updated = pricePair(stationPrices, models.FuelTypeE5)
		row.B7Price, row.B7Updated = pricePair(stationPrices, models.FuelTypeB7)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Miles < rows[j].Miles
	})

	return &models.Summary{
		StationCount: len(stations),
		BestE10:      findCheapest(rows, func(r models.StationRow) *float64 { return r.E10Price }),
		BestE5:       findCheapest(rows, func(r models.StationRow) *float64 { return r.E5Price }),
		BestB7:       findCheapest(rows, func(r models.StationRow) *float64 { return r.B7Price }),
		Stations:     rows,
		LastUpdate:   now.UTC().Format(time.RFC3339),
	}
}

// pricePair renders one fuel type as a nullable price/timestamp pair. Prices
// round to 1 decimal place.
func pricePair(stationPrices map[string]models.PriceEntry, fuelType string) (*float64, *string) {
	entry, ok := stationPrices[fuelType]
	if !ok {
		return nil, nil
	}
	price := math.Round(entry.Price*10) / 10
	if entry.Timestamp == "" {
		return &price, nil
	}
	ts := entry.Timestamp
	return &price, &ts
}

// findCheapest scans distance-sorted rows for the strict minimum price, so
// equal prices resolve to the first (closest) occurrence.
func findCheapest(rows []models.StationRow, price func(models.StationRow) *float64) *models.BestPrice {
	var best *models.BestPrice
	for _, r := range rows {
		p := price(r)
		if p == nil {
			continue
		}
		if best == nil || *p < best.Price {
			best = &models.BestPrice{
				Name:     r.Name,
				Postcode: r.Postcode,
				Miles:    r.Miles,
				Price:    *p,
			}
		}
	}
	return best
}
