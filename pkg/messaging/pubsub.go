// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

// Package messaging contains broker publishing abstractions shared by the
// ingestion pipeline and the management API.
package messaging

import "context"

// Publisher specifies message publishing API.
type Publisher interface {
	// Publish publishes a raw payload to the given topic. Retained
	// publishes are cached by the broker and delivered to any future
	// subscriber of that exact topic.
	Publish(ctx context.Context, topic string, payload []byte, retained bool) error

	// Close gracefully closes message publisher's connection.
	Close() error
}
