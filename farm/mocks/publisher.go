// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync"

	"github.com/cropsync/cropsync/pkg/messaging"
)

// Publish represents one recorded broker publish.
type Publish struct {
	Topic    string
	Payload  []byte
	Retained bool
}

var _ messaging.Publisher = (*PublisherMock)(nil)

// PublisherMock records publishes instead of talking to a broker. A
// non-nil Err is returned from every Publish call.
type PublisherMock struct {
	mu        sync.Mutex
	Err       error
	published []Publish
}

// NewPublisher returns a broker publisher mock.
func NewPublisher() *PublisherMock {
	return &PublisherMock{}
}

func (pub *PublisherMock) Publish(_ context.Context, topic string, payload []byte, retained bool) error {
	pub.mu.Lock()
	defer pub.mu.Unlock()

	if pub.Err != nil {
		return pub.Err
	}
	pub.published = append(pub.published, Publish{Topic: topic, Payload: payload, Retained: retained})
	return nil
}

func (pub *PublisherMock) Close() error {
	return nil
}

// Published returns a copy of all recorded publishes.
func (pub *PublisherMock) Published() []Publish {
	pub.mu.Lock()
	defer pub.mu.Unlock()

	published := make([]Publish, len(pub.published))
	copy(published, pub.published)
	return published
}
