// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package ingest

import "strings"

// TopicKind tags the recognized inbound topic shapes.
type TopicKind int

const (
	// TopicUnknown marks a topic that matches no recognized shape. Such
	// messages are dropped without logging.
	TopicUnknown TopicKind = iota

	// TopicStatus marks a device status topic, farm/{device}/status.
	TopicStatus

	// TopicTelemetry marks a telemetry topic, farm/{device}/sensor/{metric}.
	TopicTelemetry
)

// Topic is the parsed form of an inbound topic string. Metric is set only
// for TopicTelemetry.
type Topic struct {
	Kind   TopicKind
	Device string
	Metric string
}

// ParseTopic maps a raw topic string onto one of the recognized shapes.
// The device identifier always occupies the second segment.
func ParseTopic(topic string) Topic {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return Topic{Kind: TopicUnknown}
	}

	device := parts[1]
	if len(parts) == 3 && parts[2] == "status" {
		return Topic{Kind: TopicStatus, Device: device}
	}
	if len(parts) >= 4 && parts[2] == "sensor" {
		return Topic{Kind: TopicTelemetry, Device: device, Metric: parts[3]}
	}

	return Topic{Kind: TopicUnknown}
}
