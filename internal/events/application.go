package events

import (
	"fmt"
	"time"

	"github.com/coachpo/taskbus/internal/bus/eventbus"
)

// WindowClose is raised when the window is asked to close.
type WindowClose struct{}

func (*WindowClose) Type() eventbus.EventType      { return TypeWindowClose }
func (*WindowClose) Name() string                  { return "WindowClose" }
func (*WindowClose) Categories() eventbus.Category { return eventbus.CategoryApplication }

// WindowResize carries the new framebuffer size.
type WindowResize struct {
	Width  uint32
	Height uint32
}

func (*WindowResize) Type() eventbus.EventType      { return TypeWindowResize }
func (*WindowResize) Name() string                  { return "WindowResize" }
func (*WindowResize) Categories() eventbus.Category { return eventbus.CategoryApplication }
func (e *WindowResize) String() string {
	return fmt.Sprintf("WindowResize: %d, %d", e.Width, e.Height)
}

type WindowFocus struct{}

func (*WindowFocus) Type() eventbus.EventType      { return TypeWindowFocus }
func (*WindowFocus) Name() string                  { return "WindowFocus" }
func (*WindowFocus) Categories() eventbus.Category { return eventbus.CategoryApplication }

type WindowLostFocus struct{}

func (*WindowLostFocus) Type() eventbus.EventType      { return TypeWindowLostFocus }
func (*WindowLostFocus) Name() string                  { return "WindowLostFocus" }
func (*WindowLostFocus) Categories() eventbus.Category { return eventbus.CategoryApplication }

// WindowMoved carries the new window position in screen coordinates.
type WindowMoved struct {
	X int
	Y int
}

func (*WindowMoved) Type() eventbus.EventType      { return TypeWindowMoved }
func (*WindowMoved) Name() string                  { return "WindowMoved" }
func (*WindowMoved) Categories() eventbus.Category { return eventbus.CategoryApplication }
func (e *WindowMoved) String() string {
	return fmt.Sprintf("WindowMoved: %d, %d", e.X, e.Y)
}

// AppTick marks a fixed-rate tick.
type AppTick struct {
	Frame uint64
}

func (*AppTick) Type() eventbus.EventType      { return TypeAppTick }
func (*AppTick) Name() string                  { return "AppTick" }
func (*AppTick) Categories() eventbus.Category { return eventbus.CategoryApplication }

// AppUpdate is raised once per frame before rendering.
type AppUpdate struct {
	Frame uint64
	Delta time.Duration
}

func (*AppUpdate) Type() eventbus.EventType      { return TypeAppUpdate }
func (*AppUpdate) Name() string                  { return "AppUpdate" }
func (*AppUpdate) Categories() eventbus.Category { return eventbus.CategoryApplication }
func (e *AppUpdate) String() string {
	return fmt.Sprintf("AppUpdate: frame %d (%s)", e.Frame, e.Delta)
}

type AppRender struct {
	Frame uint64
}

func (*AppRender) Type() eventbus.EventType      { return TypeAppRender }
func (*AppRender) Name() string                  { return "AppRender" }
func (*AppRender) Categories() eventbus.Category { return eventbus.CategoryApplication }
