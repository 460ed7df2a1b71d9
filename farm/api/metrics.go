// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"context"
	"time"

	"github.com/cropsync/cropsync/farm"
	"github.com/go-kit/kit/metrics"
)

var _ farm.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     farm.Service
}

// MetricsMiddleware instruments core service by tracking request count and
// latency.
func MetricsMiddleware(svc farm.Service, counter metrics.Counter, latency metrics.Histogram) farm.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) RegisterDevice(ctx context.Context, device farm.Device) (farm.Device, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "register_device").Add(1)
		mm.latency.With("method", "register_device").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.RegisterDevice(ctx, device)
}

func (mm *metricsMiddleware) ListDevices(ctx context.Context) ([]farm.Device, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list_devices").Add(1)
		mm.latency.With("method", "list_devices").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListDevices(ctx)
}

func (mm *metricsMiddleware) AddSensor(ctx context.Context, deviceID string, sensor farm.Sensor) (farm.Sensor, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "add_sensor").Add(1)
		mm.latency.With("method", "add_sensor").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.AddSensor(ctx, deviceID, sensor)
}

func (mm *metricsMiddleware) UpsertThreshold(ctx context.Context, deviceID string, threshold farm.Threshold) (farm.Threshold, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "upsert_threshold").Add(1)
		mm.latency.With("method", "upsert_threshold").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.UpsertThreshold(ctx, deviceID, threshold)
}

func (mm *metricsMiddleware) ListThresholds(ctx context.Context, deviceID string) ([]farm.Threshold, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list_thresholds").Add(1)
		mm.latency.With("method", "list_thresholds").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListThresholds(ctx, deviceID)
}

func (mm *metricsMiddleware) LatestReadings(ctx context.Context, deviceID string) ([]farm.LatestReading, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "latest_readings").Add(1)
		mm.latency.With("method", "latest_readings").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.LatestReadings(ctx, deviceID)
}

func (mm *metricsMiddleware) ReadingsHistory(ctx context.Context, sensorID string, pm farm.PageMetadata) (farm.ReadingsPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "readings_history").Add(1)
		mm.latency.With("method", "readings_history").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ReadingsHistory(ctx, sensorID, pm)
}

func (mm *metricsMiddleware) SendCommand(ctx context.Context, cmd farm.Command) (farm.ControlLog, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "send_command").Add(1)
		mm.latency.With("method", "send_command").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SendCommand(ctx, cmd)
}
