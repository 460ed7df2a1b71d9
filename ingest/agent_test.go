// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"sync"
	"testing"

	"github.com/cropsync/cropsync/farm/mocks"
	"github.com/cropsync/cropsync/logger"
	"github.com/cropsync/cropsync/pkg/events"
	"github.com/cropsync/cropsync/pkg/uuid"
	"github.com/stretchr/testify/assert"
)

func newAgent(cfg AgentConfig) *Agent {
	svc := New(
		uuid.NewMock(),
		mocks.NewDeviceRepository(),
		mocks.NewSensorRepository(),
		mocks.NewReadingRepository(),
		mocks.NewThresholdRepository(),
		events.NewBus(),
		mocks.NewPublisher(),
		logger.NewMock(),
	)
	return NewAgent(cfg, svc, logger.NewMock())
}

func TestWorkersProcessDispatchedMessages(t *testing.T) {
	a := newAgent(AgentConfig{Workers: 2, QueueSize: 8})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.work(ctx)
		}()
	}

	a.dispatch("farm/dev1/sensor/temperature", []byte(`{"value_c": 21.5}`))
	a.dispatch("farm/dev1/status", []byte(`{"battery": 80}`))

	cancel()
	wg.Wait()
}

func TestDispatchAfterShutdown(t *testing.T) {
	a := newAgent(AgentConfig{Workers: 2, QueueSize: 2})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.work(ctx)
		}()
	}
	cancel()
	wg.Wait()

	// A delivery callback racing with session teardown may still fire
	// after the workers are gone. It must neither block nor panic.
	assert.NotPanics(t, func() {
		for i := 0; i < 10; i++ {
			a.dispatch("farm/dev1/sensor/temperature", []byte(`{"value_c": 21.5}`))
		}
	})
}

func TestDispatchDropsOnFullQueue(t *testing.T) {
	a := newAgent(AgentConfig{Workers: 0, QueueSize: 1})

	// With no workers draining, everything past the queue capacity is
	// dropped without blocking the caller.
	assert.NotPanics(t, func() {
		for i := 0; i < 5; i++ {
			a.dispatch("farm/dev1/sensor/humidity", []byte(`{"value_pct": 40}`))
		}
	})
	assert.Len(t, a.jobs, 1)
}
