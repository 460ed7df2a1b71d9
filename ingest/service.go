// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cropsync/cropsync"
	"github.com/cropsync/cropsync/farm"
	"github.com/cropsync/cropsync/logger"
	"github.com/cropsync/cropsync/pkg/errors"
	"github.com/cropsync/cropsync/pkg/events"
	"github.com/cropsync/cropsync/pkg/messaging"
)

// Breach reasons reported by threshold evaluation.
const (
	ReasonBelowMin = "below_min"
	ReasonAboveMax = "above_max"
)

var errMalformedStatus = errors.New("failed to decode status payload")

// Service specifies the ingestion pipeline API. Both operations process
// one inbound message end to end.
type Service interface {
	// IngestTelemetry normalizes and persists one telemetry message,
	// resolving the device and sensor lazily, publishes the reading to
	// live subscribers and evaluates it against the configured threshold.
	IngestTelemetry(ctx context.Context, deviceID, metric string, payload []byte) error

	// ForwardStatus forwards one device status message to live
	// subscribers. Status messages are never persisted.
	ForwardStatus(ctx context.Context, deviceID string, payload []byte) error
}

type service struct {
	idp        cropsync.IDProvider
	devices    farm.DeviceRepository
	sensors    farm.SensorRepository
	readings   farm.ReadingRepository
	thresholds farm.ThresholdRepository
	bus        *events.Bus
	publisher  messaging.Publisher
	logger     logger.Logger
}

var _ Service = (*service)(nil)

// New instantiates the ingestion pipeline.
func New(idp cropsync.IDProvider, devices farm.DeviceRepository, sensors farm.SensorRepository, readings farm.ReadingRepository, thresholds farm.ThresholdRepository, bus *events.Bus, publisher messaging.Publisher, logger logger.Logger) Service {
	return &service{
		idp:        idp,
		devices:    devices,
		sensors:    sensors,
		readings:   readings,
		thresholds: thresholds,
		bus:        bus,
		publisher:  publisher,
		logger:     logger,
	}
}

func (svc *service) IngestTelemetry(ctx context.Context, deviceID, metric string, payload []byte) error {
	normalized := Normalize(metric, payload)

	sensor, err := svc.resolve(ctx, deviceID, metric)
	if err != nil {
		return err
	}

	ts := time.Now().UTC()
	if err := svc.devices.UpdateLiveness(ctx, deviceID, farm.StatusOnline, ts); err != nil {
		svc.logger.Warn(fmt.Sprintf("failed to update liveness for device %s: %s", deviceID, err))
	}

	id, err := svc.idp.ID()
	if err != nil {
		return err
	}
	reading, err := svc.readings.Save(ctx, farm.Reading{
		ID:           id,
		SensorID:     sensor.ID,
		Ts:           ts,
		ValueNumeric: normalized.Numeric,
		ValueText:    normalized.Text,
	})
	if err != nil {
		return err
	}

	event := events.Event{
		"device_id":     deviceID,
		"sensor_id":     sensor.SensorID,
		"type":          sensor.Type,
		"ts":            reading.Ts.Format(time.RFC3339Nano),
		"value_numeric": normalized.Numeric,
		"value_text":    normalized.Text,
	}
	for key, val := range normalized.Extras(metric) {
		event[key] = val
	}
	svc.bus.Publish(deviceID, event)

	if normalized.Numeric != nil {
		svc.evaluate(ctx, deviceID, sensor, reading)
	}

	return nil
}

func (svc *service) ForwardStatus(ctx context.Context, deviceID string, payload []byte) error {
	var data interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		return errors.Wrap(errMalformedStatus, err)
	}

	svc.bus.Publish(deviceID, events.Event{
		"type":      "status",
		"device_id": deviceID,
		"data":      data,
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
	})

	return nil
}

// resolve returns the sensor for the device and metric pair, creating the
// device and sensor lazily. A uniqueness violation on insert means a
// concurrent creator won the race, so the existing row is fetched instead.
func (svc *service) resolve(ctx context.Context, deviceID, metric string) (farm.Sensor, error) {
	device, err := svc.devices.RetrieveByDeviceID(ctx, deviceID)
	if errors.Contains(err, errors.ErrNotFound) {
		device, err = svc.createDevice(ctx, deviceID)
	}
	if err != nil {
		return farm.Sensor{}, err
	}

	sensorID := fmt.Sprintf("%s-%s", deviceID, metric)
	sensor, err := svc.sensors.RetrieveBySensorID(ctx, sensorID)
	if errors.Contains(err, errors.ErrNotFound) {
		sensor, err = svc.createSensor(ctx, sensorID, metric, device.ID)
	}

	return sensor, err
}

func (svc *service) createDevice(ctx context.Context, deviceID string) (farm.Device, error) {
	id, err := svc.idp.ID()
	if err != nil {
		return farm.Device{}, err
	}

	device, err := svc.devices.Save(ctx, farm.Device{ID: id, DeviceID: deviceID, Status: farm.StatusOnline})
	if errors.Contains(err, errors.ErrConflict) {
		return svc.devices.RetrieveByDeviceID(ctx, deviceID)
	}

	return device, err
}

func (svc *service) createSensor(ctx context.Context, sensorID, metric, deviceID string) (farm.Sensor, error) {
	id, err := svc.idp.ID()
	if err != nil {
		return farm.Sensor{}, err
	}

	sensor, err := svc.sensors.Save(ctx, farm.Sensor{ID: id, SensorID: sensorID, Type: metric, DeviceID: deviceID})
	if errors.Contains(err, errors.ErrConflict) {
		return svc.sensors.RetrieveBySensorID(ctx, sensorID)
	}

	return sensor, err
}

// evaluate checks the persisted reading against the threshold configured
// for its device and metric pair. The min bound is checked first and the
// max bound second: when both trigger, the max reason wins. An outbound
// alert publish failure is logged and swallowed since the reading is
// already committed.
func (svc *service) evaluate(ctx context.Context, deviceID string, sensor farm.Sensor, reading farm.Reading) {
	threshold, err := svc.thresholds.RetrieveByDeviceMetric(ctx, sensor.DeviceID, sensor.Type)
	if err != nil {
		if !errors.Contains(err, errors.ErrNotFound) {
			svc.logger.Warn(fmt.Sprintf("failed to fetch threshold for device %s metric %s: %s", deviceID, sensor.Type, err))
		}
		return
	}

	value := *reading.ValueNumeric
	breached := false
	reason := ""
	if threshold.MinValue != nil && value < *threshold.MinValue {
		breached, reason = true, ReasonBelowMin
	}
	if threshold.MaxValue != nil && value > *threshold.MaxValue {
		breached, reason = true, ReasonAboveMax
	}
	if !breached {
		return
	}

	alert := events.Event{
		"device_id": deviceID,
		"sensor_id": sensor.SensorID,
		"type":      sensor.Type,
		"ts":        reading.Ts.Format(time.RFC3339Nano),
		"value":     value,
		"reason":    reason,
	}
	svc.bus.Publish(deviceID, events.Event{"alert": alert})

	body, err := json.Marshal(alert)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("failed to serialize alert for device %s: %s", deviceID, err))
		return
	}
	topic := fmt.Sprintf("farm/%s/alert/%s", deviceID, sensor.Type)
	if err := svc.publisher.Publish(ctx, topic, body, false); err != nil {
		svc.logger.Warn(fmt.Sprintf("failed to publish alert to %s: %s", topic, err))
	}
}
