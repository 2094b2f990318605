package system

import (
	"time"

	coresys "github.com/qurb/engine/internal/core/system"
	"github.com/qurb/engine/internal/input"
)

// InputSystem publishes the mouse motion gathered since the previous frame.
// Phase 0 (Input).
type InputSystem struct {
	state *input.State
}

func NewInputSystem(state *input.State) *InputSystem {
	return &InputSystem{state: state}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	s.state.Update()
}
