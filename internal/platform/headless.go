package platform

import (
	"github.com/qurb/engine/internal/core/event"
)

// HeadlessWindow is an offscreen window. Size changes and close requests are
// queued and delivered by the next PollEvents, as a native window would.
type HeadlessWindow struct {
	title         string
	width, height uint32
	shouldClose   bool
	closeQueued   bool
	events        *event.Bus

	polls      int
	closeAfter int
}

func NewHeadlessWindow(desc WindowDescriptor) *HeadlessWindow {
	return &HeadlessWindow{
		title:  desc.Title,
		width:  desc.Width,
		height: desc.Height,
		events: event.NewBus(),
	}
}

func (w *HeadlessWindow) Title() string                { return w.title }
func (w *HeadlessWindow) Size() (width, height uint32) { return w.width, w.height }
func (w *HeadlessWindow) ShouldClose() bool            { return w.shouldClose }
func (w *HeadlessWindow) Events() *event.Bus           { return w.events }

// Resize changes the size now and queues a WindowResizeEvent.
func (w *HeadlessWindow) Resize(width, height uint32) {
	w.width, w.height = width, height
	event.Emit(w.events, WindowResizeEvent{Window: w, Width: width, Height: height})
}

// Close requests the window to close. The request takes effect on the next
// PollEvents, which also delivers a WindowCloseEvent.
func (w *HeadlessWindow) Close() {
	if w.closeQueued {
		return
	}
	w.closeQueued = true
	event.Emit(w.events, WindowCloseEvent{Window: w})
}

// PressKey queues a key press.
func (w *HeadlessWindow) PressKey(k KeyCode) {
	event.Emit(w.events, KeyEvent{Window: w, Key: k, Pressed: true})
}

func (w *HeadlessWindow) ReleaseKey(k KeyCode) {
	event.Emit(w.events, KeyEvent{Window: w, Key: k})
}

func (w *HeadlessWindow) PressMouseButton(b MouseButton) {
	event.Emit(w.events, MouseButtonEvent{Window: w, Button: b, Pressed: true})
}

func (w *HeadlessWindow) ReleaseMouseButton(b MouseButton) {
	event.Emit(w.events, MouseButtonEvent{Window: w, Button: b})
}

// MoveMouse queues a cursor move to (x, y).
func (w *HeadlessWindow) MoveMouse(x, y float32) {
	event.Emit(w.events, MouseMoveEvent{Window: w, X: x, Y: y})
}

// CloseAfter schedules Close to be called by the n-th PollEvents from now.
// Zero cancels the schedule.
func (w *HeadlessWindow) CloseAfter(n int) {
	if n <= 0 {
		w.closeAfter = 0
		return
	}
	w.closeAfter = w.polls + n
}

// Polls is the number of PollEvents calls so far.
func (w *HeadlessWindow) Polls() int { return w.polls }

func (w *HeadlessWindow) PollEvents() {
	w.polls++
	if w.closeAfter > 0 && w.polls >= w.closeAfter {
		w.closeAfter = 0
		w.Close()
	}
	w.events.SwapBuffers()
	if w.closeQueued {
		w.shouldClose = true
	}
	w.events.DispatchAll()
}
