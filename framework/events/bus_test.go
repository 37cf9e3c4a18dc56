package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-bootstrap/framework/events"
)

func TestBus_DeliversInOrder(t *testing.T) {
	bus := events.NewBus(nil)
	var got []string
	bus.Subscribe(events.StartupEnd, func(_ context.Context, e events.Event) error {
		got = append(got, "named:"+e.Name)
		return nil
	})
	bus.SubscribeAll(func(_ context.Context, e events.Event) error {
		got = append(got, "all:"+e.Name)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), events.New(events.StartupEnd, "test", nil)))
	require.NoError(t, bus.Publish(context.Background(), events.New(events.ReadyEnd, "test", nil)))

	assert.Equal(t, []string{"named:StartupEnd", "all:StartupEnd", "all:ReadyEnd"}, got)
	assert.Equal(t, 2, bus.Listeners(events.StartupEnd))
	assert.Equal(t, 1, bus.Listeners(events.ReadyEnd))
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := events.NewBus(nil)
	calls := 0
	off := bus.Subscribe("x", func(context.Context, events.Event) error { calls++; return nil })

	_ = bus.Publish(context.Background(), events.Event{Name: "x"})
	off()
	_ = bus.Publish(context.Background(), events.Event{Name: "x"})

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.Listeners("x"))
}

func TestBus_ErrorsAndPanicsAreCollected(t *testing.T) {
	bus := events.NewBus(nil)
	boom := errors.New("boom")
	reached := false
	bus.SubscribeAll(func(context.Context, events.Event) error { return boom })
	bus.SubscribeAll(func(context.Context, events.Event) error { panic("kaboom") })
	bus.SubscribeAll(func(context.Context, events.Event) error { reached = true; return nil })

	err := bus.Publish(context.Background(), events.Event{Name: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "kaboom")
	assert.True(t, reached)
}

func TestBus_FillsIDAndTime(t *testing.T) {
	bus := events.NewBus(nil)
	var seen events.Event
	bus.SubscribeAll(func(_ context.Context, e events.Event) error { seen = e; return nil })

	require.NoError(t, bus.Publish(context.Background(), events.Event{Name: "x"}))
	assert.NotEqual(t, uuid.Nil, seen.ID)
	assert.False(t, seen.OccurredAt.IsZero())
}
