package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coachpo/taskbus/internal/bus/eventbus"
	"github.com/coachpo/taskbus/lib/async"
)

func TestCatalogueTagsAreUniqueAndNamed(t *testing.T) {
	seen := map[eventbus.EventType]string{}
	for _, evt := range Catalogue() {
		require.NotEmpty(t, evt.Type())
		require.NotEmpty(t, evt.Name())
		require.NotZero(t, evt.Categories(), evt.Name())
		prev, dup := seen[evt.Type()]
		require.False(t, dup, "%s shares a tag with %s", evt.Name(), prev)
		seen[evt.Type()] = evt.Name()
	}
	require.Len(t, seen, 15)
}

func TestCategories(t *testing.T) {
	require.True(t, eventbus.InCategory(&KeyPressed{}, eventbus.CategoryKeyboard))
	require.True(t, eventbus.InCategory(&KeyTyped{}, eventbus.CategoryInput))
	require.False(t, eventbus.InCategory(&KeyReleased{}, eventbus.CategoryMouse))

	require.True(t, eventbus.InCategory(&MouseButtonPressed{}, eventbus.CategoryMouseButton))
	require.True(t, eventbus.InCategory(&MouseMoved{}, eventbus.CategoryMouse))
	require.False(t, eventbus.InCategory(&MouseScrolled{}, eventbus.CategoryMouseButton))

	require.True(t, eventbus.InCategory(&WindowResize{}, eventbus.CategoryApplication))
	require.False(t, eventbus.InCategory(&AppTick{}, eventbus.CategoryInput))
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		evt  eventbus.Event
		want string
	}{
		{&WindowResize{Width: 1280, Height: 720}, "WindowResize: 1280, 720"},
		{&WindowClose{}, "WindowClose"},
		{&KeyPressed{Key: KeyA, RepeatCount: 2}, "KeyPressed: 65 (2 repeats)"},
		{&KeyReleased{Key: KeyEscape}, "KeyReleased: 256"},
		{&MouseMoved{X: 1.5, Y: 2}, "MouseMoved: 1.5, 2"},
		{&MouseButtonReleased{Button: MouseRight}, "MouseButtonReleased: 1"},
		{&AppRender{Frame: 3}, "AppRender"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, eventbus.Describe(tc.evt))
	}
}

func TestCatalogueRoutesThroughBus(t *testing.T) {
	pool := async.NewPool(async.WithWorkers(2))
	defer pool.Close()
	bus := eventbus.New(pool)

	var resized WindowResize
	require.NoError(t, eventbus.SubscribeFunc(bus, func(_ context.Context, evt *WindowResize) {
		resized = *evt
	}))
	require.NoError(t, eventbus.SubscribeFunc(bus, func(_ context.Context, evt *KeyPressed) {
		evt.RepeatCount++
	}))

	resize, err := eventbus.Publish(context.Background(), bus, WindowResize{Width: 800, Height: 600})
	require.NoError(t, err)
	key, err := eventbus.Publish(context.Background(), bus, KeyPressed{Key: KeyW})
	require.NoError(t, err)

	require.NoError(t, resize.Wait())
	require.NoError(t, key.Wait())
	require.Equal(t, WindowResize{Width: 800, Height: 600}, resized)
	require.Equal(t, 1, key.Event().RepeatCount)
}
