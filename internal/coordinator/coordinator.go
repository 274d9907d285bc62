// Package coordinator orchestrates the refresh cycle: token acquisition,
// station resolution, incremental price fetching, and summary publication.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/fuelwatch/fuelwatch/internal/config"
	"github.com/fuelwatch/fuelwatch/internal/fuelfinder"
	"github.com/fuelwatch/fuelwatch/internal/metrics"
	"github.com/fuelwatch/fuelwatch/internal/models"
	"github.com/fuelwatch/fuelwatch/internal/store"
)

// coordTolerance is the float tolerance when comparing the cached station
// signature against the current configuration.
const coordTolerance = 1e-6

// Coordinator runs refresh cycles one at a time and maintains the cached
// state between them. All entry points are safe for concurrent use; a cycle
// holds the mutex from start to finish so overlapping triggers serialize.
type Coordinator struct {
	cfg     *config.Config
	api     *fuelfinder.Client
	store   store.Store
	clock   clockwork.Clock
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu            sync.Mutex
	persisted     *models.PersistedState
	loaded        bool
	forceStations bool
	lastSummary   *models.Summary
	stats         models.RefreshStats
}

// New creates a Coordinator. The metrics argument may be nil.
func New(cfg *config.Config, api *fuelfinder.Client, st store.Store, clock clockwork.Clock, m *metrics.Metrics, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		api:     api,
		store:   st,
		clock:   clock,
		metrics: m,
		logger:  logger.With().Str("component", "coordinator").Logger(),
	}
}

// ForceStationsRefresh marks the next cycle to refetch the station list even
// when the cached set still matches the configured location and radius.
func (c *Coordinator) ForceStationsRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forceStations = true
}

// Summary returns the most recently published summary, or nil before the
// first successful cycle.
func (c *Coordinator) Summary() *models.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSummary
}

// Stats returns a snapshot of the refresh statistics.
func (c *Coordinator) Stats() models.RefreshStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// InitializeFromCache loads the persisted state and, when both stations and
// prices are cached, publishes a summary before the first network refresh.
// Load errors are logged and leave the coordinator with an empty state.
func (c *Coordinator) InitializeFromCache(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("could not load persisted state, starting empty")
		c.persisted = models.NewPersistedState()
		c.loaded = true
	}

	st := &c.persisted.State
	if len(st.NearbyStations) > 0 && len(st.LastPrices) > 0 {
		c.lastSummary = fuelfinder.BuildOutput(st.NearbyStations, st.LastPrices, c.clock.Now())
		c.metrics.RecordSummary(c.lastSummary)
		c.logger.Info().
			Int("stations", len(st.NearbyStations)).
			Msg("restored summary from persisted cache")
	}
}

// Refresh runs one full refresh cycle and returns the resulting summary.
func (c *Coordinator) Refresh(ctx context.Context) (*models.Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cycleID := uuid.NewString()
	logger := c.logger.With().Str("cycle_id", cycleID).Logger()
	start := c.clock.Now()

	summary, err := c.refreshLocked(ctx, logger)

	duration := c.clock.Now().Sub(start)
	now := c.clock.Now()
	c.stats.TotalCycles++
	c.stats.LastRefreshAt = &now
	c.stats.LastDurationMs = duration.Milliseconds()
	c.stats.LastSuccess = err == nil
	if err != nil {
		c.stats.TotalFailures++
		msg := err.Error()
		c.stats.LastError = &msg
		logger.Error().Err(err).Dur("duration", duration).Msg("refresh cycle failed")
	} else {
		c.stats.LastError = nil
		c.stats.LastStationCount = summary.StationCount
		logger.Info().
			Int("stations", summary.StationCount).
			Int("rows", len(summary.Stations)).
			Dur("duration", duration).
			Msg("refresh cycle complete")
	}
	c.metrics.RecordRefresh(err == nil, duration)
	c.metrics.RecordSummary(summary)

	if summary != nil {
		c.lastSummary = summary
	}
	return summary, err
}

// refreshLocked is the cycle body. The caller holds the mutex.
func (c *Coordinator) refreshLocked(ctx context.Context, logger zerolog.Logger) (*models.Summary, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	if !c.loaded {
		if err := c.loadLocked(ctx); err != nil {
			logger.Warn().Err(err).Msg("could not load persisted state, starting empty")
			c.persisted = models.NewPersistedState()
			c.loaded = true
		}
	}
	st := &c.persisted.State

	token, tokenState, err := c.api.GetToken(ctx, c.cfg, c.persisted.Token)
	if err != nil {
		// A populated cache still yields output when the provider refuses
		// to authenticate; an empty cache fails the cycle.
		if len(st.NearbyStations) > 0 && len(st.LastPrices) > 0 {
			logger.Warn().Err(err).Msg("token acquisition failed, serving cached data")
			summary := fuelfinder.BuildOutput(st.NearbyStations, st.LastPrices, c.clock.Now())
			c.saveLocked(ctx, logger)
			return summary, nil
		}
		return nil, fmt.Errorf("acquiring token: %w", err)
	}
	c.persisted.Token = tokenState

	stations, err := c.resolveStations(ctx, logger, token)
	if err != nil {
		return nil, err
	}

	c.fetchPrices(ctx, logger, token, stations)

	summary := fuelfinder.BuildOutput(stations, st.LastPrices, c.clock.Now())
	c.saveLocked(ctx, logger)
	return summary, nil
}

// resolveStations returns the nearby station set, from cache when the
// geographic signature still matches, otherwise from the API. A fetch
// failure falls back to a non-empty cache. The forced-refresh flag is
// cleared whether or not the fetch succeeds.
func (c *Coordinator) resolveStations(ctx context.Context, logger zerolog.Logger, token string) (map[string]models.Station, error) {
	st := &c.persisted.State
	force := c.forceStations
	defer func() { c.forceStations = false }()

	if !force && c.stationsCacheUsable() {
		logger.Debug().Int("stations", len(st.NearbyStations)).Msg("using cached station set")
		return st.NearbyStations, nil
	}

	records, err := c.api.FetchAllBatches(ctx, token, fuelfinder.StationsPath, nil)
	if err != nil {
		if len(st.NearbyStations) > 0 {
			logger.Warn().Err(err).Msg("station fetch failed, falling back to cached set")
			return st.NearbyStations, nil
		}
		return nil, fmt.Errorf("fetching stations: %w", err)
	}

	stations := c.api.ProcessStations(c.cfg, records)
	st.NearbyStations = stations
	st.StationsConfig = &models.StationsSignature{
		HomeLat:     c.cfg.HomeLat,
		HomeLon:     c.cfg.HomeLon,
		RadiusMiles: c.cfg.RadiusMiles,
	}
	st.StationsCachedAt = c.clock.Now().UTC().Format(time.RFC3339)
	logger.Info().
		Int("records", len(records)).
		Int("in_radius", len(stations)).
		Bool("forced", force).
		Msg("refreshed station set")
	return stations, nil
}

// fetchPrices fetches price records since the last seen timestamp and merges
// them into the cache. Failures are logged and leave the cache untouched so
// the cycle still publishes stale prices.
func (c *Coordinator) fetchPrices(ctx context.Context, logger zerolog.Logger, token string, stations map[string]models.Station) {
	st := &c.persisted.State

	params := url.Values{}
	if since := fuelfinder.EffectiveStartTimestamp(st.LastPriceTimestamp); since != "" {
		params.Set("effective-start-timestamp", since)
	}

	records, err := c.api.FetchAllBatches(ctx, token, fuelfinder.PricesPath, params)
	if err != nil {
		logger.Warn().Err(err).Msg("price fetch failed, keeping cached prices")
		return
	}

	knownIDs := make(map[string]struct{}, len(stations))
	for id := range stations {
		knownIDs[id] = struct{}{}
	}

	fresh, maxTimestamp := c.api.ProcessPrices(records, knownIDs)
	merged := 0
	for id, fuels := range fresh {
		if st.LastPrices[id] == nil {
			st.LastPrices[id] = make(map[string]models.PriceEntry)
		}
		for fuelType, entry := range fuels {
			st.LastPrices[id][fuelType] = entry
			merged++
		}
	}
	if maxTimestamp != "" {
		st.LastPriceTimestamp = maxTimestamp
	}
	logger.Debug().
		Int("records", len(records)).
		Int("merged", merged).
		Str("max_timestamp", maxTimestamp).
		Msg("merged price updates")
}

// stationsCacheUsable reports whether the cached station set was built for
// the currently configured location and radius.
func (c *Coordinator) stationsCacheUsable() bool {
	st := &c.persisted.State
	if len(st.NearbyStations) == 0 || st.StationsConfig == nil {
		return false
	}
	sig := st.StationsConfig
	return math.Abs(sig.HomeLat-c.cfg.HomeLat) < coordTolerance &&
		math.Abs(sig.HomeLon-c.cfg.HomeLon) < coordTolerance &&
		math.Abs(sig.RadiusMiles-c.cfg.RadiusMiles) < coordTolerance
}

// loadLocked loads the persisted state exactly once per process lifetime.
func (c *Coordinator) loadLocked(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	st, err := c.store.Load(ctx)
	if err != nil {
		return err
	}
	c.persisted = st
	c.loaded = true
	return nil
}

// saveLocked writes the state back, best effort.
func (c *Coordinator) saveLocked(ctx context.Context, logger zerolog.Logger) {
	if err := c.store.Save(ctx, c.persisted); err != nil {
		logger.Warn().Err(err).Msg("could not persist state")
	}
}

// IsAuthError reports whether err stems from a credential or token problem
// rather than a transient provider failure.
func IsAuthError(err error) bool {
	return errors.Is(err, fuelfinder.ErrAuthentication)
}
