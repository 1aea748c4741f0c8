package waiter

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"
)

const (
	evA EventType = 1 << iota
	evB
)

func TestWaiter(t *testing.T) {
	n := neko.Modern(t)

	n.It("notifies matching events in registration order", func(t *testing.T) {
		var w Waiter
		var seen []string

		w.RegisterFunc(evA, func(data interface{}) { seen = append(seen, "first:"+data.(string)) })
		w.RegisterFunc(evB, func(data interface{}) { seen = append(seen, "other:"+data.(string)) })
		w.RegisterFunc(evA|evB, func(data interface{}) { seen = append(seen, "second:"+data.(string)) })

		w.Notify(evA, "x")

		require.Equal(t, []string{"first:x", "second:x"}, seen)
	})

	n.It("wakes channels without blocking", func(t *testing.T) {
		var w Waiter

		c := make(chan struct{}, 1)
		w.RegisterChannel(evA, c)

		w.Notify(evA, nil)
		w.Notify(evA, nil)

		require.Len(t, c, 1)
	})

	n.It("stops notifying after unregister", func(t *testing.T) {
		var w Waiter
		calls := 0

		e := w.RegisterFunc(evA, func(interface{}) { calls++ })
		require.Equal(t, 1, w.Len())

		w.Unregister(e)
		w.Notify(evA, nil)

		require.Equal(t, 0, calls)
		require.Equal(t, 0, w.Len())
	})

	n.Meow()
}
