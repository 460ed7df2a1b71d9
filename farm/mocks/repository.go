// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

// Package mocks contains in-memory implementations of the farm
// repositories. They enforce the same uniqueness invariants as the
// PostgreSQL implementations so that races around entity creation behave
// the way the real store does.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cropsync/cropsync/farm"
	"github.com/cropsync/cropsync/pkg/errors"
)

var _ farm.DeviceRepository = (*deviceRepositoryMock)(nil)

type deviceRepositoryMock struct {
	mu      sync.Mutex
	devices map[string]farm.Device // keyed by external device_id
}

// NewDeviceRepository returns an in-memory device repository.
func NewDeviceRepository() farm.DeviceRepository {
	return &deviceRepositoryMock{
		devices: make(map[string]farm.Device),
	}
}

func (repo *deviceRepositoryMock) Save(_ context.Context, device farm.Device) (farm.Device, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.devices[device.DeviceID]; ok {
		return farm.Device{}, errors.ErrConflict
	}
	repo.devices[device.DeviceID] = device
	return device, nil
}

func (repo *deviceRepositoryMock) RetrieveByDeviceID(_ context.Context, deviceID string) (farm.Device, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	device, ok := repo.devices[deviceID]
	if !ok {
		return farm.Device{}, errors.ErrNotFound
	}
	return device, nil
}

func (repo *deviceRepositoryMock) RetrieveAll(_ context.Context) ([]farm.Device, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	devices := make([]farm.Device, 0, len(repo.devices))
	for _, d := range repo.devices {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].DeviceID < devices[j].DeviceID
	})
	return devices, nil
}

func (repo *deviceRepositoryMock) UpdateLiveness(_ context.Context, deviceID, status string, seenAt time.Time) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	device, ok := repo.devices[deviceID]
	if !ok {
		return errors.ErrNotFound
	}
	device.Status = status
	device.LastSeenAt = &seenAt
	repo.devices[deviceID] = device
	return nil
}

var _ farm.SensorRepository = (*sensorRepositoryMock)(nil)

type sensorRepositoryMock struct {
	mu      sync.Mutex
	sensors map[string]farm.Sensor // keyed by external sensor_id
}

// NewSensorRepository returns an in-memory sensor repository.
func NewSensorRepository() farm.SensorRepository {
	return &sensorRepositoryMock{
		sensors: make(map[string]farm.Sensor),
	}
}

func (repo *sensorRepositoryMock) Save(_ context.Context, sensor farm.Sensor) (farm.Sensor, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.sensors[sensor.SensorID]; ok {
		return farm.Sensor{}, errors.ErrConflict
	}
	repo.sensors[sensor.SensorID] = sensor
	return sensor, nil
}

func (repo *sensorRepositoryMock) RetrieveBySensorID(_ context.Context, sensorID string) (farm.Sensor, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	sensor, ok := repo.sensors[sensorID]
	if !ok {
		return farm.Sensor{}, errors.ErrNotFound
	}
	return sensor, nil
}

func (repo *sensorRepositoryMock) RetrieveByDevice(_ context.Context, deviceID string) ([]farm.Sensor, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	sensors := []farm.Sensor{}
	for _, s := range repo.sensors {
		if s.DeviceID == deviceID {
			sensors = append(sensors, s)
		}
	}
	sort.Slice(sensors, func(i, j int) bool {
		return sensors[i].SensorID < sensors[j].SensorID
	})
	return sensors, nil
}

var _ farm.ReadingRepository = (*readingRepositoryMock)(nil)

type readingRepositoryMock struct {
	mu       sync.Mutex
	readings []farm.Reading
}

// NewReadingRepository returns an in-memory reading repository.
func NewReadingRepository() farm.ReadingRepository {
	return &readingRepositoryMock{}
}

func (repo *readingRepositoryMock) Save(_ context.Context, reading farm.Reading) (farm.Reading, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.readings = append(repo.readings, reading)
	return reading, nil
}

func (repo *readingRepositoryMock) RetrieveLatest(_ context.Context, sensorID string) (farm.Reading, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var latest farm.Reading
	found := false
	for _, r := range repo.readings {
		if r.SensorID != sensorID {
			continue
		}
		if !found || r.Ts.After(latest.Ts) {
			latest = r
			found = true
		}
	}
	if !found {
		return farm.Reading{}, errors.ErrNotFound
	}
	return latest, nil
}

func (repo *readingRepositoryMock) RetrieveHistory(_ context.Context, sensorID string, pm farm.PageMetadata) ([]farm.Reading, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	readings := []farm.Reading{}
	for _, r := range repo.readings {
		if r.SensorID != sensorID {
			continue
		}
		if pm.Before != nil && !r.Ts.Before(*pm.Before) {
			continue
		}
		readings = append(readings, r)
	}
	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Ts.After(readings[j].Ts)
	})
	if pm.Limit > 0 && uint64(len(readings)) > pm.Limit {
		readings = readings[:pm.Limit]
	}
	return readings, nil
}

var _ farm.ThresholdRepository = (*thresholdRepositoryMock)(nil)

type thresholdKey struct {
	deviceID string
	metric   string
}

type thresholdRepositoryMock struct {
	mu         sync.Mutex
	thresholds map[thresholdKey]farm.Threshold
}

// NewThresholdRepository returns an in-memory threshold repository.
func NewThresholdRepository() farm.ThresholdRepository {
	return &thresholdRepositoryMock{
		thresholds: make(map[thresholdKey]farm.Threshold),
	}
}

func (repo *thresholdRepositoryMock) Upsert(_ context.Context, threshold farm.Threshold) (farm.Threshold, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.thresholds[thresholdKey{threshold.DeviceID, threshold.Metric}] = threshold
	return threshold, nil
}

func (repo *thresholdRepositoryMock) RetrieveByDeviceMetric(_ context.Context, deviceID, metric string) (farm.Threshold, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	threshold, ok := repo.thresholds[thresholdKey{deviceID, metric}]
	if !ok {
		return farm.Threshold{}, errors.ErrNotFound
	}
	return threshold, nil
}

func (repo *thresholdRepositoryMock) RetrieveByDevice(_ context.Context, deviceID string) ([]farm.Threshold, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	thresholds := []farm.Threshold{}
	for k, t := range repo.thresholds {
		if k.deviceID == deviceID {
			thresholds = append(thresholds, t)
		}
	}
	sort.Slice(thresholds, func(i, j int) bool {
		return thresholds[i].Metric < thresholds[j].Metric
	})
	return thresholds, nil
}

var _ farm.ControlRepository = (*controlRepositoryMock)(nil)

type controlRepositoryMock struct {
	mu   sync.Mutex
	logs []farm.ControlLog
}

// NewControlRepository returns an in-memory control log repository.
func NewControlRepository() farm.ControlRepository {
	return &controlRepositoryMock{}
}

func (repo *controlRepositoryMock) Save(_ context.Context, log farm.ControlLog) (farm.ControlLog, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.logs = append(repo.logs, log)
	return log, nil
}
