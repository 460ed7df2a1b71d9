// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package ingest_test

import (
	"testing"

	"github.com/cropsync/cropsync/ingest"
	"github.com/stretchr/testify/assert"
)

func TestParseTopic(t *testing.T) {
	cases := []struct {
		desc  string
		topic string
		want  ingest.Topic
	}{
		{
			desc:  "status topic",
			topic: "farm/dev1/status",
			want:  ingest.Topic{Kind: ingest.TopicStatus, Device: "dev1"},
		},
		{
			desc:  "telemetry topic",
			topic: "farm/dev1/sensor/temperature",
			want:  ingest.Topic{Kind: ingest.TopicTelemetry, Device: "dev1", Metric: "temperature"},
		},
		{
			desc:  "telemetry topic with trailing segments",
			topic: "farm/dev1/sensor/tds/extra",
			want:  ingest.Topic{Kind: ingest.TopicTelemetry, Device: "dev1", Metric: "tds"},
		},
		{
			desc:  "two segments",
			topic: "farm/dev1",
			want:  ingest.Topic{Kind: ingest.TopicUnknown},
		},
		{
			desc:  "unrecognized three segment form",
			topic: "farm/dev1/bogus",
			want:  ingest.Topic{Kind: ingest.TopicUnknown},
		},
		{
			desc:  "unrecognized long form",
			topic: "farm/dev1/bogus/extra/extra",
			want:  ingest.Topic{Kind: ingest.TopicUnknown},
		},
		{
			desc:  "empty topic",
			topic: "",
			want:  ingest.Topic{Kind: ingest.TopicUnknown},
		},
	}

	for _, tc := range cases {
		got := ingest.ParseTopic(tc.topic)
		assert.Equal(t, tc.want, got, tc.desc)
	}
}
