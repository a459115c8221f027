package eventbus

import (
	"fmt"
	"strings"
)

// EventType is the routing tag an event type declares for itself.
type EventType string

// Category is a bit set used to filter events broadly.
type Category uint32

// Event categories.
const (
	CategoryApplication Category = 1 << iota
	CategoryInput
	CategoryKeyboard
	CategoryMouse
	CategoryMouseButton
)

var categoryNames = []struct {
	flag Category
	name string
}{
	{CategoryApplication, "application"},
	{CategoryInput, "input"},
	{CategoryKeyboard, "keyboard"},
	{CategoryMouse, "mouse"},
	{CategoryMouseButton, "mouse_button"},
}

// Has reports whether c shares any flag with other.
func (c Category) Has(other Category) bool {
	return c&other != 0
}

func (c Category) String() string {
	if c == 0 {
		return "none"
	}
	parts := make([]string, 0, len(categoryNames))
	for _, entry := range categoryNames {
		if c&entry.flag != 0 {
			parts = append(parts, entry.name)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("category(%d)", uint32(c))
	}
	return strings.Join(parts, "|")
}

// Event is implemented by every payload routed through the bus. Type must
// return the same tag for every value of a Go type, including its zero value.
type Event interface {
	Type() EventType
	Name() string
	Categories() Category
}

// InCategory reports whether evt belongs to any category in c.
func InCategory(evt Event, c Category) bool {
	if evt == nil {
		return false
	}
	return evt.Categories().Has(c)
}

// Describe renders evt for logs, preferring its String method.
func Describe(evt Event) string {
	if evt == nil {
		return "<nil>"
	}
	if s, ok := evt.(fmt.Stringer); ok {
		return s.String()
	}
	return evt.Name()
}
