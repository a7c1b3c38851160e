package events

import (
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	SimulationStarted    EventType = "SIMULATION_STARTED"
	SimulationCompleted  EventType = "SIMULATION_COMPLETED"
	SimulationFallback   EventType = "SIMULATION_FALLBACK"
	BenchmarkFetchFailed EventType = "BENCHMARK_FETCH_FAILED"
	PersistenceFailed    EventType = "PERSISTENCE_FAILED"
	RetentionCompleted   EventType = "RETENTION_COMPLETED"
	ErrorOccurred        EventType = "ERROR_OCCURRED"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// Manager handles event emission and logging
type Manager struct {
	log zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log: log.With().Str("service", "events").Logger(),
	}
}

// Emit records an event. Events are currently logged; a message bus can
// be attached here without touching call sites.
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	m.log.Info().
		Str("event", string(event.Type)).
		Str("module", event.Module).
		Fields(event.Data).
		Msg("Event emitted")
}
