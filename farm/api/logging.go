// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"context"
	"fmt"
	"time"

	"github.com/cropsync/cropsync/farm"
	log "github.com/cropsync/cropsync/logger"
)

var _ farm.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger log.Logger
	svc    farm.Service
}

// LoggingMiddleware adds logging facilities to the core service.
func LoggingMiddleware(svc farm.Service, logger log.Logger) farm.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) RegisterDevice(ctx context.Context, device farm.Device) (saved farm.Device, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method register_device for device %s took %s to complete", device.DeviceID, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.RegisterDevice(ctx, device)
}

func (lm *loggingMiddleware) ListDevices(ctx context.Context) (devices []farm.Device, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method list_devices took %s to complete", time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.ListDevices(ctx)
}

func (lm *loggingMiddleware) AddSensor(ctx context.Context, deviceID string, sensor farm.Sensor) (saved farm.Sensor, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method add_sensor for device %s sensor %s took %s to complete", deviceID, sensor.SensorID, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.AddSensor(ctx, deviceID, sensor)
}

func (lm *loggingMiddleware) UpsertThreshold(ctx context.Context, deviceID string, threshold farm.Threshold) (saved farm.Threshold, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method upsert_threshold for device %s metric %s took %s to complete", deviceID, threshold.Metric, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.UpsertThreshold(ctx, deviceID, threshold)
}

func (lm *loggingMiddleware) ListThresholds(ctx context.Context, deviceID string) (thresholds []farm.Threshold, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method list_thresholds for device %s took %s to complete", deviceID, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.ListThresholds(ctx, deviceID)
}

func (lm *loggingMiddleware) LatestReadings(ctx context.Context, deviceID string) (readings []farm.LatestReading, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method latest_readings for device %s took %s to complete", deviceID, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.LatestReadings(ctx, deviceID)
}

func (lm *loggingMiddleware) ReadingsHistory(ctx context.Context, sensorID string, pm farm.PageMetadata) (page farm.ReadingsPage, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method readings_history for sensor %s took %s to complete", sensorID, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.ReadingsHistory(ctx, sensorID, pm)
}

func (lm *loggingMiddleware) SendCommand(ctx context.Context, cmd farm.Command) (clog farm.ControlLog, err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method send_command for device %s target %s took %s to complete", cmd.DeviceID, cmd.Target, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.SendCommand(ctx, cmd)
}
