package platform

import (
	"golang.org/x/text/cases"
)

// KeyCode identifies a keyboard key by its position on a US layout.
type KeyCode uint8

const (
	KeyNone KeyCode = iota
	KeyAlpha0
	KeyAlpha1
	KeyAlpha2
	KeyAlpha3
	KeyAlpha4
	KeyAlpha5
	KeyAlpha6
	KeyAlpha7
	KeyAlpha8
	KeyAlpha9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	KeyApostrophe
	KeyBackslash
	KeyComma
	KeyEqual
	KeyGraveAccent
	KeyLeftBracket
	KeyMinus
	KeyPeriod
	KeyRightBracket
	KeySemicolon
	KeySlash
	KeyLeftAlt
	KeyLeftControl
	KeyLeftShift
	KeyLeftSuper
	KeyRightAlt
	KeyRightControl
	KeyRightShift
	KeyRightSuper
	KeyKeypad0
	KeyKeypad1
	KeyKeypad2
	KeyKeypad3
	KeyKeypad4
	KeyKeypad5
	KeyKeypad6
	KeyKeypad7
	KeyKeypad8
	KeyKeypad9
	KeyKeypadAdd
	KeyKeypadPeriod
	KeyKeypadDivide
	KeyKeypadEnter
	KeyKeypadEqual
	KeyKeypadMultiply
	KeyKeypadSubtract
	KeyUp
	KeyDown
	KeyRight
	KeyLeft
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyF13
	KeyF14
	KeyF15
	KeyF16
	KeyF17
	KeyF18
	KeyF19
	KeyF20
	KeyBackspace
	KeyCapsLock
	KeyDelete
	KeyEnd
	KeyEnter
	KeyEscape
	KeyHome
	KeyInsert
	KeyPageDown
	KeyPageUp
	KeySpace
	KeyTab

	keyCount
)

var keyNames = [keyCount]string{
	KeyNone:           "None",
	KeyAlpha0:         "Alpha0",
	KeyAlpha1:         "Alpha1",
	KeyAlpha2:         "Alpha2",
	KeyAlpha3:         "Alpha3",
	KeyAlpha4:         "Alpha4",
	KeyAlpha5:         "Alpha5",
	KeyAlpha6:         "Alpha6",
	KeyAlpha7:         "Alpha7",
	KeyAlpha8:         "Alpha8",
	KeyAlpha9:         "Alpha9",
	KeyA:              "A",
	KeyB:              "B",
	KeyC:              "C",
	KeyD:              "D",
	KeyE:              "E",
	KeyF:              "F",
	KeyG:              "G",
	KeyH:              "H",
	KeyI:              "I",
	KeyJ:              "J",
	KeyK:              "K",
	KeyL:              "L",
	KeyM:              "M",
	KeyN:              "N",
	KeyO:              "O",
	KeyP:              "P",
	KeyQ:              "Q",
	KeyR:              "R",
	KeyS:              "S",
	KeyT:              "T",
	KeyU:              "U",
	KeyV:              "V",
	KeyW:              "W",
	KeyX:              "X",
	KeyY:              "Y",
	KeyZ:              "Z",
	KeyApostrophe:     "Apostrophe",
	KeyBackslash:      "Backslash",
	KeyComma:          "Comma",
	KeyEqual:          "Equal",
	KeyGraveAccent:    "GraveAccent",
	KeyLeftBracket:    "LeftBracket",
	KeyMinus:          "Minus",
	KeyPeriod:         "Period",
	KeyRightBracket:   "RightBracket",
	KeySemicolon:      "Semicolon",
	KeySlash:          "Slash",
	KeyLeftAlt:        "LeftAlt",
	KeyLeftControl:    "LeftControl",
	KeyLeftShift:      "LeftShift",
	KeyLeftSuper:      "LeftSuper",
	KeyRightAlt:       "RightAlt",
	KeyRightControl:   "RightControl",
	KeyRightShift:     "RightShift",
	KeyRightSuper:     "RightSuper",
	KeyKeypad0:        "Keypad0",
	KeyKeypad1:        "Keypad1",
	KeyKeypad2:        "Keypad2",
	KeyKeypad3:        "Keypad3",
	KeyKeypad4:        "Keypad4",
	KeyKeypad5:        "Keypad5",
	KeyKeypad6:        "Keypad6",
	KeyKeypad7:        "Keypad7",
	KeyKeypad8:        "Keypad8",
	KeyKeypad9:        "Keypad9",
	KeyKeypadAdd:      "KeypadAdd",
	KeyKeypadPeriod:   "KeypadPeriod",
	KeyKeypadDivide:   "KeypadDivide",
	KeyKeypadEnter:    "KeypadEnter",
	KeyKeypadEqual:    "KeypadEqual",
	KeyKeypadMultiply: "KeypadMultiply",
	KeyKeypadSubtract: "KeypadSubtract",
	KeyUp:             "Up",
	KeyDown:           "Down",
	KeyRight:          "Right",
	KeyLeft:           "Left",
	KeyF1:             "F1",
	KeyF2:             "F2",
	KeyF3:             "F3",
	KeyF4:             "F4",
	KeyF5:             "F5",
	KeyF6:             "F6",
	KeyF7:             "F7",
	KeyF8:             "F8",
	KeyF9:             "F9",
	KeyF10:            "F10",
	KeyF11:            "F11",
	KeyF12:            "F12",
	KeyF13:            "F13",
	KeyF14:            "F14",
	KeyF15:            "F15",
	KeyF16:            "F16",
	KeyF17:            "F17",
	KeyF18:            "F18",
	KeyF19:            "F19",
	KeyF20:            "F20",
	KeyBackspace:      "Backspace",
	KeyCapsLock:       "CapsLock",
	KeyDelete:         "Delete",
	KeyEnd:            "End",
	KeyEnter:          "Enter",
	KeyEscape:         "Escape",
	KeyHome:           "Home",
	KeyInsert:         "Insert",
	KeyPageDown:       "PageDown",
	KeyPageUp:         "PageUp",
	KeySpace:          "Space",
	KeyTab:            "Tab",
}

func (k KeyCode) String() string {
	if k >= keyCount {
		return keyNames[KeyNone]
	}
	return keyNames[k]
}

// ParseKeyCode looks a key up by name, ignoring case.
func ParseKeyCode(name string) (KeyCode, bool) {
	k, ok := keysByName[cases.Fold().String(name)]
	return k, ok
}

var keysByName = func() map[string]KeyCode {
	fold := cases.Fold()
	m := make(map[string]KeyCode, keyCount-1)
	for k := KeyNone + 1; k < keyCount; k++ {
		m[fold.String(keyNames[k])] = k
	}
	return m
}()

type MouseButton uint8

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
	MouseOther
)

func (b MouseButton) String() string {
	switch b {
	case MouseLeft:
		return "Left"
	case MouseRight:
		return "Right"
	case MouseMiddle:
		return "Middle"
	default:
		return "Other"
	}
}

// ParseMouseButton looks a button up by name, ignoring case.
func ParseMouseButton(name string) (MouseButton, bool) {
	fold := cases.Fold()
	key := fold.String(name)
	for b := MouseLeft; b <= MouseOther; b++ {
		if fold.String(b.String()) == key {
			return b, true
		}
	}
	return MouseOther, false
}

// KeyEvent is delivered when a key is pressed or released.
type KeyEvent struct {
	Window  Window
	Key     KeyCode
	Pressed bool
}

// MouseButtonEvent is delivered when a mouse button is pressed or released.
type MouseButtonEvent struct {
	Window  Window
	Button  MouseButton
	Pressed bool
}

// MouseMoveEvent carries the cursor position in window coordinates, origin
// at the top-left corner.
type MouseMoveEvent struct {
	Window Window
	X, Y   float32
}
