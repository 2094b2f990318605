// Package platform provides windows and their event streams.
package platform

import (
	"github.com/qurb/engine/internal/core/event"
)

// Window is a presentable surface with its own event bus. It satisfies
// rhi.Surface.
type Window interface {
	Title() string
	Size() (width, height uint32)
	ShouldClose() bool
	Close()
	// PollEvents delivers the events queued since the previous poll.
	PollEvents()
	Events() *event.Bus
}

type WindowDescriptor struct {
	Title  string
	Width  uint32
	Height uint32
}

// WindowResizeEvent is delivered after a window changes size. A zero
// dimension means the window was minimized.
type WindowResizeEvent struct {
	Window Window
	Width  uint32
	Height uint32
}

// WindowCloseEvent is delivered once when a window is asked to close.
type WindowCloseEvent struct {
	Window Window
}
