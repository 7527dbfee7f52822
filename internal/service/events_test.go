package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishSubscribe(t *testing.T) {
	hub := NewHub()

	first, unsubscribeFirst := hub.Subscribe()
	second, unsubscribeSecond := hub.Subscribe()
	defer unsubscribeSecond()
	assert.Equal(t, 2, hub.Subscribers())

	hub.Publish(Event{Type: EventProgress, BadgeID: "1", At: fixedNow})

	assert.Equal(t, "1", (<-first).BadgeID)
	assert.Equal(t, "1", (<-second).BadgeID)

	unsubscribeFirst()
	unsubscribeFirst()
	assert.Equal(t, 1, hub.Subscribers())

	_, open := <-first
	assert.False(t, open)
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	hub := NewHub()
	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	for i := 0; i < defaultSubscriberBuffer+5; i++ {
		hub.Publish(Event{Type: EventProgress, BadgeID: fmt.Sprint(i)})
	}

	require.Len(t, events, defaultSubscriberBuffer)
	assert.Equal(t, "0", (<-events).BadgeID)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	events, unsubscribe := hub.Subscribe()

	hub.Close()
	_, open := <-events
	assert.False(t, open)

	unsubscribe()

	late, _ := hub.Subscribe()
	_, open = <-late
	assert.False(t, open)
	assert.Zero(t, hub.Subscribers())
}

func TestHub_NilDiscards(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() { hub.Publish(Event{Type: EventProgress}) })
}
