package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/database"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/scheduler"
)

// SessionCounter reports live sessions.
type SessionCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

// CacheCounter reports cached collaborator responses per table.
type CacheCounter interface {
	Count(ctx context.Context) (map[string]int64, error)
}

// JobLister reports maintenance job outcomes.
type JobLister interface {
	Status() []scheduler.JobStatus
}

// ModelNamer reports the configured forecast model.
type ModelNamer interface {
	ModelName() string
}

// SystemHandlers serves operational status.
type SystemHandlers struct {
	log       zerolog.Logger
	databases []*database.DB
	sessions  SessionCounter
	cache     CacheCounter
	model     ModelNamer
	jobs      JobLister
	startedAt time.Time
	// systemStats is replaced in tests to avoid sampling the host
	systemStats func() (float64, float64)
}

// NewSystemHandlers creates the system status handlers.
func NewSystemHandlers(
	log zerolog.Logger,
	sessionsDB *database.DB,
	clientDataDB *database.DB,
	sessions SessionCounter,
	cache CacheCounter,
	model ModelNamer,
	jobs JobLister,
) *SystemHandlers {
	h := &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		databases: []*database.DB{sessionsDB, clientDataDB},
		sessions:  sessions,
		cache:     cache,
		model:     model,
		jobs:      jobs,
		startedAt: time.Now(),
	}
	h.systemStats = h.getSystemStats
	return h
}

// DatabaseStatus is the size of one SQLite database.
type DatabaseStatus struct {
	Name         string `json:"name"`
	SizeBytes    int64  `json:"size_bytes"`
	WALSizeBytes int64  `json:"wal_size_bytes"`
	UsedBytes    int64  `json:"used_bytes"`
}

// SystemStatusResponse is the body of GET /api/system/status.
type SystemStatusResponse struct {
	Status         string                `json:"status"`
	UptimeSeconds  int64                 `json:"uptime_seconds"`
	CPUPercent     float64               `json:"cpu_percent"`
	MemoryPercent  float64               `json:"memory_percent"`
	ActiveSessions int64                 `json:"active_sessions"`
	CachedEntries  map[string]int64      `json:"cached_entries"`
	Databases      []DatabaseStatus      `json:"databases"`
	ForecastModel  string                `json:"forecast_model"`
	Jobs           []scheduler.JobStatus `json:"jobs"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	}
	resp.CPUPercent, resp.MemoryPercent = h.systemStats()

	if n, err := h.sessions.CountActive(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Failed to count sessions")
		resp.Status = "degraded"
	} else {
		resp.ActiveSessions = n
	}

	if counts, err := h.cache.Count(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Failed to count cache entries")
		resp.Status = "degraded"
	} else {
		resp.CachedEntries = counts
	}

	for _, db := range h.databases {
		if db == nil {
			continue
		}
		stats, err := db.GetStats(ctx)
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to read database stats")
			resp.Status = "degraded"
			continue
		}
		resp.Databases = append(resp.Databases, DatabaseStatus{
			Name:         db.Name(),
			SizeBytes:    stats.SizeBytes,
			WALSizeBytes: stats.WALSizeBytes,
			UsedBytes:    stats.UsedBytes,
		})
	}

	if h.model != nil {
		resp.ForecastModel = h.model.ModelName()
	}
	if h.jobs != nil {
		resp.Jobs = h.jobs.Status()
		for _, j := range resp.Jobs {
			if j.LastError != "" {
				resp.Status = "degraded"
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// getSystemStats returns CPU and RAM usage percentages. The CPU sample is
// taken over 100ms to keep the endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}
