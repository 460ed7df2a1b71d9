// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

// Package events provides the in-process fan-out bus that decouples
// ingestion producers from live-update consumers. Events are keyed by
// device identifier and delivered to every subscriber attached at publish
// time, each over its own unbounded queue.
package events

import "sync"

// Event represents a single live-update message for a device.
type Event map[string]interface{}

// Bus is a process-scoped publish/subscribe registry keyed by device
// identifier. Device entries are created lazily on first publish or first
// subscribe and persist for the lifetime of the process.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]*subscription
}

type subscription struct {
	mu     sync.Mutex
	queue  []Event
	notify chan struct{}
	out    chan Event
	done   chan struct{}
	once   sync.Once
}

// NewBus returns an empty fan-out bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]*subscription),
	}
}

// Publish enqueues the event for every subscriber of the given device. It
// never blocks the producer: each subscriber drains its own queue at its
// own pace. Events published while a device has no subscribers are
// discarded.
func (b *Bus) Publish(deviceID string, event Event) {
	b.mu.Lock()
	subs := make([]*subscription, len(b.subs[deviceID]))
	copy(subs, b.subs[deviceID])
	b.mu.Unlock()

	for _, s := range subs {
		s.enqueue(event)
	}
}

// Subscribe attaches a new subscriber to the given device and returns a
// live event sequence together with a cancel function. The subscription
// starts empty: events published before the call are never delivered.
// Cancelling detaches the subscriber and closes the channel.
func (b *Bus) Subscribe(deviceID string) (<-chan Event, func()) {
	s := &subscription{
		notify: make(chan struct{}, 1),
		out:    make(chan Event),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[deviceID] = append(b.subs[deviceID], s)
	b.mu.Unlock()

	go s.pump()

	cancel := func() {
		s.once.Do(func() {
			close(s.done)
		})
		b.mu.Lock()
		subs := b.subs[deviceID]
		for i := range subs {
			if subs[i] == s {
				b.subs[deviceID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
	}

	return s.out, cancel
}

func (s *subscription) enqueue(event Event) {
	s.mu.Lock()
	s.queue = append(s.queue, event)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscription) pump() {
	defer close(s.out)
	for {
		select {
		case <-s.notify:
		case <-s.done:
			return
		}
		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			event := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case s.out <- event:
			case <-s.done:
				return
			}
		}
	}
}
