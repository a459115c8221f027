// Package events defines the application and input events published on the bus.
package events

import "github.com/coachpo/taskbus/internal/bus/eventbus"

// Event type tags.
const (
	TypeWindowClose         eventbus.EventType = "window.close"
	TypeWindowResize        eventbus.EventType = "window.resize"
	TypeWindowFocus         eventbus.EventType = "window.focus"
	TypeWindowLostFocus     eventbus.EventType = "window.lost_focus"
	TypeWindowMoved         eventbus.EventType = "window.moved"
	TypeAppTick             eventbus.EventType = "app.tick"
	TypeAppUpdate           eventbus.EventType = "app.update"
	TypeAppRender           eventbus.EventType = "app.render"
	TypeKeyPressed          eventbus.EventType = "key.pressed"
	TypeKeyReleased         eventbus.EventType = "key.released"
	TypeKeyTyped            eventbus.EventType = "key.typed"
	TypeMouseButtonPressed  eventbus.EventType = "mouse.button_pressed"
	TypeMouseButtonReleased eventbus.EventType = "mouse.button_released"
	TypeMouseMoved          eventbus.EventType = "mouse.moved"
	TypeMouseScrolled       eventbus.EventType = "mouse.scrolled"
)

const (
	keyboardCategories    = eventbus.CategoryKeyboard | eventbus.CategoryInput
	mouseCategories       = eventbus.CategoryMouse | eventbus.CategoryInput
	mouseButtonCategories = eventbus.CategoryMouseButton | eventbus.CategoryMouse | eventbus.CategoryInput
)

// Catalogue returns a zero value of every event in this package.
func Catalogue() []eventbus.Event {
	return []eventbus.Event{
		&WindowClose{}, &WindowResize{}, &WindowFocus{}, &WindowLostFocus{}, &WindowMoved{},
		&AppTick{}, &AppUpdate{}, &AppRender{},
		&KeyPressed{}, &KeyReleased{}, &KeyTyped{},
		&MouseButtonPressed{}, &MouseButtonReleased{}, &MouseMoved{}, &MouseScrolled{},
	}
}
