package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput      Phase = iota // 0: swap and dispatch queued events
	PhaseUpdate                  // 1: scripts and gameplay
	PhaseLateUpdate              // 2: cameras, follow logic
	PhaseRender                  // 3: record and present the frame
	PhaseCleanup                 // 4: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseUpdate:
		return "update"
	case PhaseLateUpdate:
		return "late-update"
	case PhaseRender:
		return "render"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// System is the interface every engine system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
