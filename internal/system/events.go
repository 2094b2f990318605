package system

import (
	"time"

	"github.com/qurb/engine/internal/core/event"
	coresys "github.com/qurb/engine/internal/core/system"
)

// EventSystem delivers events emitted during the previous frame.
// Phase 0 (Input).
type EventSystem struct {
	buses []*event.Bus
}

func NewEventSystem(buses ...*event.Bus) *EventSystem {
	return &EventSystem{buses: buses}
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *EventSystem) Update(_ time.Duration) {
	for _, b := range s.buses {
		b.SwapBuffers()
		b.DispatchAll()
	}
}
