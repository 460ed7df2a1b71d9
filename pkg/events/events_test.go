// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package events_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/cropsync/cropsync/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deviceID = "dev1"

func receive(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		require.FailNow(t, "timed out waiting for event")
		return nil
	}
}

func TestSubscribeStartsEmpty(t *testing.T) {
	bus := events.NewBus()

	bus.Publish(deviceID, events.Event{"seq": 1})

	ch, cancel := bus.Subscribe(deviceID)
	defer cancel()

	bus.Publish(deviceID, events.Event{"seq": 2})

	ev := receive(t, ch)
	assert.Equal(t, 2, ev["seq"], "subscriber must not receive events published before it attached")
}

func TestFanOutIndependentSubscribers(t *testing.T) {
	bus := events.NewBus()

	early, cancelEarly := bus.Subscribe(deviceID)
	defer cancelEarly()

	bus.Publish(deviceID, events.Event{"seq": 1})

	late, cancelLate := bus.Subscribe(deviceID)
	defer cancelLate()

	bus.Publish(deviceID, events.Event{"seq": 2})

	ev := receive(t, early)
	assert.Equal(t, 1, ev["seq"])
	ev = receive(t, early)
	assert.Equal(t, 2, ev["seq"])

	ev = receive(t, late)
	assert.Equal(t, 2, ev["seq"], "late subscriber must only receive events published after it attached")
}

func TestPublishNeverBlocks(t *testing.T) {
	bus := events.NewBus()

	ch, cancel := bus.Subscribe(deviceID)
	defer cancel()

	// No reader attached: the publisher side must still complete.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			bus.Publish(deviceID, events.Event{"seq": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "publish blocked on a slow subscriber")
	}

	for i := 0; i < 1000; i++ {
		ev := receive(t, ch)
		require.Equal(t, i, ev["seq"], fmt.Sprintf("event %d out of order", i))
	}
}

func TestPublishOtherDevice(t *testing.T) {
	bus := events.NewBus()

	ch, cancel := bus.Subscribe(deviceID)
	defer cancel()

	bus.Publish("dev2", events.Event{"seq": 1})
	bus.Publish(deviceID, events.Event{"seq": 2})

	ev := receive(t, ch)
	assert.Equal(t, 2, ev["seq"], "subscriber must only receive its own device's events")
}

func TestCancelClosesChannel(t *testing.T) {
	bus := events.NewBus()

	ch, cancel := bus.Subscribe(deviceID)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel must be closed after cancel")
	case <-time.After(time.Second):
		require.FailNow(t, "channel not closed after cancel")
	}

	// Publishing after cancel must not panic.
	bus.Publish(deviceID, events.Event{"seq": 1})
}
