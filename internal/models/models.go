// Package models provides shared data types for the fuel price watcher.
package models

import (
	"time"
)

// Fuel type codes as reported by the Fuel Finder API.
const (
	FuelTypeE10 = "E10"
	FuelTypeE5  = "E5"
	FuelTypeB7  = "B7_STANDARD"
)

// TokenState holds a cached OAuth token. It is replaced wholesale on every
// refresh, never partially updated.
type TokenState struct {
	// AccessToken is the opaque bearer token.
	AccessToken string `json:"access_token"`
	// ExpiresAt is the absolute expiry instant in RFC 3339 UTC.
	ExpiresAt string `json:"expires_at"`
	// RefreshToken is optional; absent until the provider issues one.
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Station is a fuel station within the configured radius.
type Station struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Postcode string  `json:"postcode"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	// Miles is the distance from home, rounded to 2 decimal places.
	Miles float64 `json:"miles"`
	// OpenToday is "24h", "HH:MM-HH:MM", or empty when no data is available.
	OpenToday     string   `json:"open_today,omitempty"`
	IsMotorway    bool     `json:"is_mss"`
	IsSupermarket bool     `json:"is_supermarket"`
	FuelTypes     []string `json:"fuel_types,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
}

// PriceEntry is one cached price for a (station, fuel type) pair.
type PriceEntry struct {
	Price float64 `json:"price"`
	// Timestamp is the provider-supplied last-updated string. The format is
	// ISO-8601-like but not guaranteed canonical.
	Timestamp string `json:"timestamp,omitempty"`
}

// PriceMap maps station node id to fuel type to the latest cached price.
type PriceMap map[string]map[string]PriceEntry

// StationsSignature records the geographic configuration that produced a
// cached station set. A station refetch is needed when it no longer matches.
type StationsSignature struct {
	HomeLat     float64 `json:"home_lat"`
	HomeLon     float64 `json:"home_lon"`
	RadiusMiles float64 `json:"radius_miles"`
}

// CacheState is the refresh pipeline's persisted working state.
type CacheState struct {
	NearbyStations     map[string]Station `json:"nearby_stations,omitempty"`
	StationsConfig     *StationsSignature `json:"stations_config,omitempty"`
	StationsCachedAt   string             `json:"stations_cached_at,omitempty"`
	LastPrices         PriceMap           `json:"last_prices,omitempty"`
	LastPriceTimestamp string             `json:"last_price_timestamp,omitempty"`
}

// PersistedState is the single durable record per configured instance. It is
// loaded once per process lifetime and written back after every refresh that
// reaches the merge step.
type PersistedState struct {
	Version int         `json:"version"`
	Token   *TokenState `json:"token,omitempty"`
	State   CacheState  `json:"state"`
}

// StateVersion is the current PersistedState schema version.
const StateVersion = 1

// NewPersistedState returns an empty state with initialized maps.
func NewPersistedState() *PersistedState {
	return &PersistedState{
		Version: StateVersion,
		State: CacheState{
			NearbyStations: make(map[string]Station),
			LastPrices:     make(PriceMap),
		},
	}
}

// Normalize ensures all maps are non-nil after loading from storage.
func (p *PersistedState) Normalize() {
	if p.Version == 0 {
		p.Version = StateVersion
	}
	if p.State.NearbyStations == nil {
		p.State.NearbyStations = make(map[string]Station)
	}
	if p.State.LastPrices == nil {
		p.State.LastPrices = make(PriceMap)
	}
}

// BestPrice identifies the station with the cheapest price for one fuel type.
type BestPrice struct {
	Name     string  `json:"name"`
	Postcode string  `json:"postcode"`
	Miles    float64 `json:"miles"`
	Price    float64 `json:"price"`
}

// StationRow is one station in the published summary. Fuel prices without a
// cached entry render as null price/timestamp pairs, not omitted fields.
type StationRow struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Postcode   string   `json:"postcode"`
	Miles      float64  `json:"miles"`
	OpenToday  string   `json:"open_today,omitempty"`
	E10Price   *float64 `json:"e10_price"`
	E10Updated *string  `json:"e10_updated"`
	E5Price    *float64 `json:"e5_price"`
	E5Updated  *string  `json:"e5_updated"`
	B7Price    *float64 `json:"b7_price"`
	B7Updated  *string  `json:"b7_updated"`
}

// Summary is the derived output of one refresh cycle. It is ephemeral and
// never persisted.
type Summary struct {
	// StationCount is the size of the filtered nearby set, not the number of
	// rows with price data.
	StationCount int          `json:"state"`
	BestE10      *BestPrice   `json:"best_e10"`
	BestE5       *BestPrice   `json:"best_e5"`
	BestB7       *BestPrice   `json:"best_b7"`
	Stations     []StationRow `json:"stations"`
	LastUpdate   string       `json:"last_update"`
}

// RefreshStats holds the operational status of the refresh pipeline.
type RefreshStats struct {
	TotalCycles      int64      `json:"total_cycles"`
	TotalFailures    int64      `json:"total_failures"`
	LastRefreshAt    *time.Time `json:"last_refresh_at,omitempty"`
	LastSuccess      bool       `json:"last_success"`
	LastDurationMs   int64      `json:"last_duration_ms"`
	LastError        *string    `json:"last_error,omitempty"`
	LastStationCount int        `json:"last_station_count"`
}

// StoreStatus holds the persistence backend status.
type StoreStatus struct {
	Connected bool `json:"connected"`
}

// StatusResponse is the response for the /status endpoint.
type StatusResponse struct {
	Status           string       `json:"status"`
	Instance         string       `json:"instance"`
	UptimeSeconds    int64        `json:"uptime_seconds"`
	SchedulerRunning bool         `json:"scheduler_running"`
	NextRefreshAt    *time.Time   `json:"next_refresh_at,omitempty"`
	LastRefreshAt    *time.Time   `json:"last_refresh_at,omitempty"`
	Refresh          RefreshStats `json:"refresh"`
	Store            StoreStatus  `json:"store"`
}
