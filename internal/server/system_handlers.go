package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/rocky-invest/strategy-sim/internal/database"
	"github.com/rocky-invest/strategy-sim/internal/scheduler"
)

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	log          zerolog.Logger
	db           *database.DB
	historyDir   string
	scheduler    *scheduler.Scheduler
	retentionJob scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	db *database.DB,
	historyDir string,
	sched *scheduler.Scheduler,
) *SystemHandlers {
	return &SystemHandlers{
		log:        log.With().Str("component", "system_handlers").Logger(),
		db:         db,
		historyDir: historyDir,
		scheduler:  sched,
	}
}

// SetRetentionJob registers the retention job for manual triggering.
// Called after job registration in main.go
func (h *SystemHandlers) SetRetentionJob(job scheduler.Job) {
	h.retentionJob = job
}

// HealthResponse is the health check payload
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// HandleHealth responds to liveness probes
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, HealthResponse{
		Status: "ok",
		Time:   time.Now().Format(time.RFC3339),
	})
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	StoredRuns     int    `json:"stored_runs"`
	StoredResults  int    `json:"stored_results"`
	HistoryDBs     int    `json:"history_dbs"`
	LastSimulation string `json:"last_simulation,omitempty"`
}

// HandleSystemStatus returns stored-run counts and data availability
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	var storedRuns, storedResults int
	var lastSimulation sql.NullString

	err := h.db.QueryRow(`
		SELECT COUNT(DISTINCT simulation_id), COUNT(*), MAX(created_at)
		FROM simulation_results
	`).Scan(&storedRuns, &storedResults, &lastSimulation)
	if err != nil && err != sql.ErrNoRows {
		h.log.Error().Err(err).Msg("Failed to query simulation results")
	}

	historyCount := 0
	if entries, err := os.ReadDir(h.historyDir); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".db" {
				historyCount++
			}
		}
	}

	response := SystemStatusResponse{
		StoredRuns:    storedRuns,
		StoredResults: storedResults,
		HistoryDBs:    historyCount,
	}
	if lastSimulation.Valid {
		response.LastSimulation = lastSimulation.String
	}

	h.writeJSON(w, response)
}

// HandleTriggerRetention runs the retention job immediately
// POST /api/system/retention/run
func (h *SystemHandlers) HandleTriggerRetention(w http.ResponseWriter, r *http.Request) {
	if h.retentionJob == nil {
		h.log.Warn().Msg("Retention job not registered yet")
		h.writeJSON(w, map[string]string{
			"status":  "error",
			"message": "Retention job not registered",
		})
		return
	}

	h.log.Info().Msg("Manual retention run triggered")

	if err := h.scheduler.RunNow(h.retentionJob); err != nil {
		h.log.Error().Err(err).Msg("Failed to run retention job")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]string{
		"status":  "success",
		"message": "Retention run completed",
	})
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
