// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"context"
	"time"

	"github.com/cropsync/cropsync/ingest"
	"github.com/go-kit/kit/metrics"
)

var _ ingest.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     ingest.Service
}

// MetricsMiddleware instruments the ingestion pipeline by tracking request
// count and latency.
func MetricsMiddleware(svc ingest.Service, counter metrics.Counter, latency metrics.Histogram) ingest.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) IngestTelemetry(ctx context.Context, deviceID, metric string, payload []byte) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "ingest_telemetry").Add(1)
		mm.latency.With("method", "ingest_telemetry").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.IngestTelemetry(ctx, deviceID, metric, payload)
}

func (mm *metricsMiddleware) ForwardStatus(ctx context.Context, deviceID string, payload []byte) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "forward_status").Add(1)
		mm.latency.With("method", "forward_status").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ForwardStatus(ctx, deviceID, payload)
}
