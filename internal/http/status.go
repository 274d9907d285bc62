package http

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/fuelwatch/fuelwatch/internal/coordinator"
	"github.com/fuelwatch/fuelwatch/internal/models"
	"github.com/fuelwatch/fuelwatch/internal/scheduler"
	"github.com/fuelwatch/fuelwatch/internal/store"
)

// StatusHandler handles the /status endpoint.
type StatusHandler struct {
	coord     *coordinator.Coordinator
	scheduler *scheduler.Scheduler
	store     store.Store
	instance  string
	startTime time.Time
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(coord *coordinator.Coordinator, sched *scheduler.Scheduler, st store.Store, instance string) *StatusHandler {
	return &StatusHandler{
		coord:     coord,
		scheduler: sched,
		store:     st,
		instance:  instance,
		startTime: time.Now(),
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := models.StatusResponse{
		Status:        "healthy",
		Instance:      h.instance,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	if h.scheduler != nil {
		response.SchedulerRunning = h.scheduler.IsRunning()
		response.NextRefreshAt = h.scheduler.NextRefreshAt()
		response.LastRefreshAt = h.scheduler.LastRefreshAt()
	}

	if h.coord != nil {
		response.Refresh = h.coord.Stats()
	}

	if h.store != nil {
		response.Store.Connected = h.store.Ping(ctx) == nil
	}
	if !response.Store.Connected {
		response.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}
