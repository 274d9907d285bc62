package fuelfinder

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelwatch/fuelwatch/internal/config"
)

// monday is a fixed Monday noon for deterministic opening-hours output.
var monday = time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

func stationsConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.ClientID = "client"
	cfg.ClientSecret = "secret"
	cfg.HomeLat = 51.5074
	cfg.HomeLon = -0.1278
	cfg.RadiusMiles = 10.0
	return cfg
}

func stationsClient() *Client {
	return New("http://unused", zerolog.Nop(), WithClock(clockwork.NewFakeClockAt(monday)))
}

func TestProcessStationsFiltersByRadius(t *testing.T) {
	records := [][]byte{
		// ~2.9 miles north of home
		[]byte(`{"node_id":"near","trading_name":"Near Fuels","location":{"latitude":51.55,"longitude":-0.1278,"postcode":"N1 1AA"}}`),
		// ~34 miles away
		[]byte(`{"node_id":"far","trading_name":"Far Fuels","location":{"latitude":52.0,"longitude":-0.1278,"postcode":"SG1 1AA"}}`),
	}

	nearby := stationsClient().ProcessStations(stationsConfig(), records)
	require.Len(t, nearby, 1)
	st, ok := nearby["near"]
	require.True(t, ok)
	assert.Equal(t, "Near Fuels", st.Name)
	assert.InDelta(t, 2.94, st.Miles, 0.05)
}

func TestProcessStationsSkipsUnusableRecords(t *testing.T) {
	records := [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"trading_name":"No ID","location":{"latitude":51.51,"longitude":-0.13}}`),
		[]byte(`{"node_id":"closed-temp","temporary_closure":true,"location":{"latitude":51.51,"longitude":-0.13}}`),
		[]byte(`{"node_id":"closed-perm","permanent_closure":true,"location":{"latitude":51.51,"longitude":-0.13}}`),
		[]byte(`{"node_id":"no-coords","location":{"postcode":"E1 1AA"}}`),
		[]byte(`{"node_id":"bad-coords","location":{"latitude":"north","longitude":"west"}}`),
	}

	nearby := stationsClient().ProcessStations(stationsConfig(), records)
	assert.Empty(t, nearby)
}

func TestProcessStationsStringCoordinates(t *testing.T) {
	records := [][]byte{
		[]byte(`{"node_id":"str","location":{"latitude":"51.55","longitude":"-0.1278"}}`),
	}

	nearby := stationsClient().ProcessStations(stationsConfig(), records)
	require.Len(t, nearby, 1)
	assert.InDelta(t, 51.55, nearby["str"].Lat, 1e-9)
}

func TestProcessStationsNameFallsBackToBrand(t *testing.T) {
	records := [][]byte{
		[]byte(`{"node_id":"b","brand_name":"MegaFuel","location":{"latitude":51.51,"longitude":-0.13}}`),
	}

	nearby := stationsClient().ProcessStations(stationsConfig(), records)
	require.Len(t, nearby, 1)
	assert.Equal(t, "MegaFuel", nearby["b"].Name)
	assert.Equal(t, "MegaFuel", nearby["b"].Brand)
}

func TestProcessStationsNumericNodeID(t *testing.T) {
	records := [][]byte{
		[]byte(`{"node_id":12345,"location":{"latitude":51.51,"longitude":-0.13}}`),
	}

	nearby := stationsClient().ProcessStations(stationsConfig(), records)
	require.Len(t, nearby, 1)
	assert.Contains(t, nearby, "12345")
}

func TestOpeningToday(t *testing.T) {
	tests := []struct {
		name  string
		hours string
		want  string
	}{
		{"24 hours", `{"monday":{"is_24_hours":true}}`, "24h"},
		{"regular hours", `{"monday":{"open":"06:00","close":"22:00"}}`, "06:00-22:00"},
		{"seconds clipped", `{"monday":{"open":"06:00:00","close":"22:30:00"}}`, "06:00-22:30"},
		{"missing close", `{"monday":{"open":"06:00"}}`, ""},
		{"both midnight", `{"monday":{"open":"00:00","close":"00:00"}}`, ""},
		{"no entry for today", `{"sunday":{"open":"08:00","close":"20:00"}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := []byte(`{"node_id":"s1","location":{"latitude":51.51,"longitude":-0.13},"opening_times":{"usual_days":` + tt.hours + `}}`)
			nearby := stationsClient().ProcessStations(stationsConfig(), [][]byte{record})
			require.Len(t, nearby, 1)
			assert.Equal(t, tt.want, nearby["s1"].OpenToday)
		})
	}
}
