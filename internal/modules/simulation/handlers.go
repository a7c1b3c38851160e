package simulation

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/rocky-invest/strategy-sim/internal/marketdata"
)

// Handlers provides HTTP handlers for simulation endpoints
type Handlers struct {
	service   *Service
	repo      *Repository
	historyDB *marketdata.HistoryDB
	log       zerolog.Logger
}

// NewHandlers creates a new simulation handlers instance
func NewHandlers(
	service *Service,
	repo *Repository,
	historyDB *marketdata.HistoryDB,
	log zerolog.Logger,
) *Handlers {
	return &Handlers{
		service:   service,
		repo:      repo,
		historyDB: historyDB,
		log:       log.With().Str("module", "simulation_handlers").Logger(),
	}
}

// RegisterRoutes registers all simulation routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/simulations", func(r chi.Router) {
		r.Post("/comprehensive", h.RunComprehensive)
		r.Get("/", h.ListResults)
		r.Get("/{simulationID}", h.GetResult)
	})
}

// RunComprehensive runs the full simulation pipeline for the posted
// transactions and candidate strategies.
func (h *Handlers) RunComprehensive(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	req.Config.ApplyDefaults()

	symbols := SymbolUniverse(req)
	prices := h.historyDB.LoadPriceTable(symbols, req.Config.SimulationPeriodDays)
	prices = prices.Window(req.Config.SimulationPeriodDays)

	report := h.service.Run(r.Context(), req, prices)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// ListResultsResponse is the response for listing stored results
type ListResultsResponse struct {
	Results []Summary `json:"results"`
	Count   int       `json:"count"`
}

// ListResults lists recent stored simulation results
func (h *Handlers) ListResults(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	summaries, err := h.repo.GetSummaries(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list simulation results")
		http.Error(w, "Failed to list simulation results", http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []Summary{}
	}

	response := ListResultsResponse{
		Results: summaries,
		Count:   len(summaries),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetResult returns the stored result rows for one simulation run
func (h *Handlers) GetResult(w http.ResponseWriter, r *http.Request) {
	simulationID := chi.URLParam(r, "simulationID")

	summaries, err := h.repo.GetBySimulationID(simulationID)
	if err != nil {
		h.log.Error().Err(err).Str("simulation_id", simulationID).Msg("Failed to load simulation")
		http.Error(w, "Failed to load simulation", http.StatusInternalServerError)
		return
	}
	if len(summaries) == 0 {
		http.Error(w, "Simulation not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResultsResponse{Results: summaries, Count: len(summaries)})
}
