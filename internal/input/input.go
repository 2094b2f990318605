// Package input tracks keyboard and mouse state from window events.
package input

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/qurb/engine/internal/core/event"
	"github.com/qurb/engine/internal/platform"
)

// State is the pressed keys and buttons plus the cursor of every window it
// is subscribed to. Single-goroutine access only (game loop).
//
// Mouse motion delivered since the previous Update accumulates into a
// pending delta; Update publishes it as the frame's MouseDelta.
type State struct {
	keys     map[platform.KeyCode]bool
	buttons  map[platform.MouseButton]bool
	position mgl32.Vec2
	delta    mgl32.Vec2
	pending  mgl32.Vec2
}

func New() *State {
	return &State{
		keys:    make(map[platform.KeyCode]bool),
		buttons: make(map[platform.MouseButton]bool),
	}
}

// Subscribe feeds the input events of bus into s. The caller unsubscribes
// the returned handlers when the window goes away.
func (s *State) Subscribe(bus *event.Bus) []event.Subscription {
	return []event.Subscription{
		event.Subscribe(bus, func(ev platform.KeyEvent) bool {
			s.SetKey(ev.Key, ev.Pressed)
			return false
		}),
		event.Subscribe(bus, func(ev platform.MouseButtonEvent) bool {
			s.SetMouseButton(ev.Button, ev.Pressed)
			return false
		}),
		event.Subscribe(bus, func(ev platform.MouseMoveEvent) bool {
			s.SetMousePosition(mgl32.Vec2{ev.X, ev.Y})
			return false
		}),
	}
}

func (s *State) SetKey(k platform.KeyCode, pressed bool) {
	if pressed {
		s.keys[k] = true
		return
	}
	delete(s.keys, k)
}

func (s *State) SetMouseButton(b platform.MouseButton, pressed bool) {
	if pressed {
		s.buttons[b] = true
		return
	}
	delete(s.buttons, b)
}

// SetMousePosition moves the cursor and adds the motion to the pending delta.
func (s *State) SetMousePosition(p mgl32.Vec2) {
	s.pending = s.pending.Add(p.Sub(s.position))
	s.position = p
}

func (s *State) IsKeyPressed(k platform.KeyCode) bool             { return s.keys[k] }
func (s *State) IsMouseButtonPressed(b platform.MouseButton) bool { return s.buttons[b] }
func (s *State) MousePosition() mgl32.Vec2                        { return s.position }

// MouseDelta is the cursor motion published by the latest Update.
func (s *State) MouseDelta() mgl32.Vec2 { return s.delta }

// PressedKeys is the number of keys held down.
func (s *State) PressedKeys() int { return len(s.keys) }

// Update starts a frame: the motion gathered since the previous frame
// becomes MouseDelta and the pending delta is reset.
func (s *State) Update() {
	s.delta, s.pending = s.pending, mgl32.Vec2{}
}
