package events

import (
	"log/slog"
	"sync"
	"time"
)

type Type string

const (
	TypeMatchCreated   Type = "match_created"
	TypeStageChanged   Type = "stage_changed"
	TypeMatchCompleted Type = "match_completed"
	TypeMatchAnnulled  Type = "match_annulled"
	TypeRefereeCalled  Type = "referee_called"
	TypeCaseAssigned   Type = "case_assigned"
	TypeCaseResolved   Type = "case_resolved"
	TypeSeasonWarning  Type = "season_warning"
	TypeSeasonEnding   Type = "season_ending"
	TypeSeasonEnded    Type = "season_ended"
)

// Event is a broadcast notification about a state change. MatchID is 0 for
// season-scoped events.
type Event struct {
	Type     Type        `json:"type"`
	MatchID  int         `json:"match_id,omitempty"`
	SeasonID int         `json:"season_id,omitempty"`
	Payload  interface{} `json:"payload,omitempty"`
	At       time.Time   `json:"at"`
}

type Handler func(Event)

// Bus fans events out to subscribers. Delivery is asynchronous and
// best-effort: a panicking handler is logged and does not affect others.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{logger: logger}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event handler panicked",
						"event_type", e.Type, "panic", r)
				}
			}()
			h(e)
		}(h)
	}
}
