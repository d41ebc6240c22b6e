package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwatch/driftwatch/pkg/models"
)

func drain(ch <-chan *models.Event) []*models.Event {
	var got []*models.Event
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, e)
		default:
			return got
		}
	}
}

func TestEventBus_PublishToSubscribers(t *testing.T) {
	bus := NewEventBus(8)
	defer bus.Close()

	alerts := bus.Subscribe(models.EventTypeAlert)
	errs := bus.Subscribe(models.EventTypeError)

	bus.Publish(models.NewEvent(models.EventTypeAlert, "host-01", "cpu_usage", "cpu climbing"))

	got := drain(alerts)
	require.Len(t, got, 1)
	assert.Equal(t, "host-01", got[0].Host)
	assert.Empty(t, drain(errs))
}

func TestEventBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := NewEventBus(8)
	defer bus.Close()

	all := bus.SubscribeAll()

	bus.Publish(models.NewEvent(models.EventTypeAlert, "host-01", "cpu_usage", "alert"))
	bus.Publish(models.NewEvent(models.EventTypeFallbackUsed, "host-01", "cpu_usage", "fallback"))

	got := drain(all)
	require.Len(t, got, 2)
	assert.Equal(t, models.EventTypeAlert, got[0].Type)
	assert.Equal(t, models.EventTypeFallbackUsed, got[1].Type)
}

func TestEventBus_FullChannelDropsInsteadOfBlocking(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Close()

	ch := bus.Subscribe(models.EventTypeAlert)

	done := make(chan struct{})
	go func() {
		bus.Publish(models.NewEvent(models.EventTypeAlert, "h", "m", "first"))
		bus.Publish(models.NewEvent(models.EventTypeAlert, "h", "m", "second"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full channel")
	}

	got := drain(ch)
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Message)
}

func TestEventBus_PublishAfterCloseIsNoop(t *testing.T) {
	bus := NewEventBus(8)
	ch := bus.Subscribe(models.EventTypeAlert)

	bus.Close()

	// Channel is closed and no further events arrive.
	_, open := <-ch
	assert.False(t, open)

	assert.NotPanics(t, func() {
		bus.Publish(models.NewEvent(models.EventTypeAlert, "h", "m", "late"))
	})
}

func TestEventBus_CloseTwice(t *testing.T) {
	bus := NewEventBus(8)
	bus.SubscribeAll()

	bus.Close()
	assert.NotPanics(t, bus.Close)
}
