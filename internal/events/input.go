package events

import (
	"fmt"

	"github.com/coachpo/taskbus/internal/bus/eventbus"
)

// KeyCode identifies a keyboard key using GLFW numbering.
type KeyCode uint16

// A subset of key codes used by the demos.
const (
	KeySpace  KeyCode = 32
	KeyA      KeyCode = 65
	KeyD      KeyCode = 68
	KeyS      KeyCode = 83
	KeyW      KeyCode = 87
	KeyEscape KeyCode = 256
	KeyEnter  KeyCode = 257
)

// MouseButton identifies a mouse button using GLFW numbering.
type MouseButton uint16

const (
	MouseLeft   MouseButton = 0
	MouseRight  MouseButton = 1
	MouseMiddle MouseButton = 2
)

// KeyPressed is raised on key down. RepeatCount is zero for the initial press
// and grows while the key is held.
type KeyPressed struct {
	Key         KeyCode
	RepeatCount int
}

func (*KeyPressed) Type() eventbus.EventType      { return TypeKeyPressed }
func (*KeyPressed) Name() string                  { return "KeyPressed" }
func (*KeyPressed) Categories() eventbus.Category { return keyboardCategories }
func (e *KeyPressed) String() string {
	return fmt.Sprintf("KeyPressed: %d (%d repeats)", e.Key, e.RepeatCount)
}

type KeyReleased struct {
	Key KeyCode
}

func (*KeyReleased) Type() eventbus.EventType      { return TypeKeyReleased }
func (*KeyReleased) Name() string                  { return "KeyReleased" }
func (*KeyReleased) Categories() eventbus.Category { return keyboardCategories }
func (e *KeyReleased) String() string              { return fmt.Sprintf("KeyReleased: %d", e.Key) }

// KeyTyped carries text input rather than physical key state.
type KeyTyped struct {
	Key KeyCode
}

func (*KeyTyped) Type() eventbus.EventType      { return TypeKeyTyped }
func (*KeyTyped) Name() string                  { return "KeyTyped" }
func (*KeyTyped) Categories() eventbus.Category { return keyboardCategories }
func (e *KeyTyped) String() string              { return fmt.Sprintf("KeyTyped: %d", e.Key) }

type MouseButtonPressed struct {
	Button MouseButton
}

func (*MouseButtonPressed) Type() eventbus.EventType      { return TypeMouseButtonPressed }
func (*MouseButtonPressed) Name() string                  { return "MouseButtonPressed" }
func (*MouseButtonPressed) Categories() eventbus.Category { return mouseButtonCategories }
func (e *MouseButtonPressed) String() string {
	return fmt.Sprintf("MouseButtonPressed: %d", e.Button)
}

type MouseButtonReleased struct {
	Button MouseButton
}

func (*MouseButtonReleased) Type() eventbus.EventType      { return TypeMouseButtonReleased }
func (*MouseButtonReleased) Name() string                  { return "MouseButtonReleased" }
func (*MouseButtonReleased) Categories() eventbus.Category { return mouseButtonCategories }
func (e *MouseButtonReleased) String() string {
	return fmt.Sprintf("MouseButtonReleased: %d", e.Button)
}

// MouseMoved carries the cursor position relative to the window.
type MouseMoved struct {
	X float32
	Y float32
}

func (*MouseMoved) Type() eventbus.EventType      { return TypeMouseMoved }
func (*MouseMoved) Name() string                  { return "MouseMoved" }
func (*MouseMoved) Categories() eventbus.Category { return mouseCategories }
func (e *MouseMoved) String() string              { return fmt.Sprintf("MouseMoved: %g, %g", e.X, e.Y) }

type MouseScrolled struct {
	XOffset float32
	YOffset float32
}

func (*MouseScrolled) Type() eventbus.EventType      { return TypeMouseScrolled }
func (*MouseScrolled) Name() string                  { return "MouseScrolled" }
func (*MouseScrolled) Categories() eventbus.Category { return mouseCategories }
func (e *MouseScrolled) String() string {
	return fmt.Sprintf("MouseScrolled: %g, %g", e.XOffset, e.YOffset)
}
