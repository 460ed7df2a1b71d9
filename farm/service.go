// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package farm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cropsync/cropsync"
	"github.com/cropsync/cropsync/pkg/errors"
	"github.com/cropsync/cropsync/pkg/messaging"
)

const (
	topicPrefix      = "farm"
	statusRequestCmd = "status_request"
	controlIssuer    = "api"
	resultPublished  = "published"
)

var (
	// ErrMissingDeviceID indicates a registration without an external identifier.
	ErrMissingDeviceID = errors.New("missing device identifier")

	// ErrMissingSensorID indicates a sensor registration without an external identifier.
	ErrMissingSensorID = errors.New("missing sensor identifier")

	// ErrMissingMetric indicates a threshold or sensor without a metric kind.
	ErrMissingMetric = errors.New("missing metric kind")

	// ErrMissingTarget indicates a control command without a target.
	ErrMissingTarget = errors.New("missing control target")
)

type service struct {
	idp        cropsync.IDProvider
	devices    DeviceRepository
	sensors    SensorRepository
	readings   ReadingRepository
	thresholds ThresholdRepository
	controls   ControlRepository
	publisher  messaging.Publisher
}

var _ Service = (*service)(nil)

// New instantiates the device management service.
func New(idp cropsync.IDProvider, devices DeviceRepository, sensors SensorRepository, readings ReadingRepository, thresholds ThresholdRepository, controls ControlRepository, publisher messaging.Publisher) Service {
	return &service{
		idp:        idp,
		devices:    devices,
		sensors:    sensors,
		readings:   readings,
		thresholds: thresholds,
		controls:   controls,
		publisher:  publisher,
	}
}

func (svc *service) RegisterDevice(ctx context.Context, device Device) (Device, error) {
	if device.DeviceID == "" {
		return Device{}, errors.Wrap(errors.ErrMalformedEntity, ErrMissingDeviceID)
	}

	existing, err := svc.devices.RetrieveByDeviceID(ctx, device.DeviceID)
	if err == nil {
		return existing, nil
	}
	if !errors.Contains(err, errors.ErrNotFound) {
		return Device{}, err
	}

	id, err := svc.idp.ID()
	if err != nil {
		return Device{}, err
	}
	device.ID = id
	device.Status = StatusOnline

	saved, err := svc.devices.Save(ctx, device)
	if errors.Contains(err, errors.ErrConflict) {
		// Lost the race against a concurrent creator.
		return svc.devices.RetrieveByDeviceID(ctx, device.DeviceID)
	}
	return saved, err
}

func (svc *service) ListDevices(ctx context.Context) ([]Device, error) {
	devices, err := svc.devices.RetrieveAll(ctx)
	if err != nil {
		return nil, err
	}

	for i, device := range devices {
		sensors, err := svc.sensors.RetrieveByDevice(ctx, device.ID)
		if err != nil {
			return nil, err
		}
		devices[i].Sensors = sensors
	}

	return devices, nil
}

func (svc *service) AddSensor(ctx context.Context, deviceID string, sensor Sensor) (Sensor, error) {
	if sensor.SensorID == "" {
		return Sensor{}, errors.Wrap(errors.ErrMalformedEntity, ErrMissingSensorID)
	}
	if sensor.Type == "" {
		return Sensor{}, errors.Wrap(errors.ErrMalformedEntity, ErrMissingMetric)
	}

	device, err := svc.devices.RetrieveByDeviceID(ctx, deviceID)
	if err != nil {
		return Sensor{}, err
	}

	existing, err := svc.sensors.RetrieveBySensorID(ctx, sensor.SensorID)
	if err == nil {
		return existing, nil
	}
	if !errors.Contains(err, errors.ErrNotFound) {
		return Sensor{}, err
	}

	id, err := svc.idp.ID()
	if err != nil {
		return Sensor{}, err
	}
	sensor.ID = id
	sensor.DeviceID = device.ID

	saved, err := svc.sensors.Save(ctx, sensor)
	if errors.Contains(err, errors.ErrConflict) {
		return svc.sensors.RetrieveBySensorID(ctx, sensor.SensorID)
	}
	return saved, err
}

func (svc *service) UpsertThreshold(ctx context.Context, deviceID string, threshold Threshold) (Threshold, error) {
	if threshold.Metric == "" {
		return Threshold{}, errors.Wrap(errors.ErrMalformedEntity, ErrMissingMetric)
	}

	device, err := svc.devices.RetrieveByDeviceID(ctx, deviceID)
	if err != nil {
		return Threshold{}, err
	}

	id, err := svc.idp.ID()
	if err != nil {
		return Threshold{}, err
	}
	threshold.ID = id
	threshold.DeviceID = device.ID

	return svc.thresholds.Upsert(ctx, threshold)
}

func (svc *service) ListThresholds(ctx context.Context, deviceID string) ([]Threshold, error) {
	device, err := svc.devices.RetrieveByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	return svc.thresholds.RetrieveByDevice(ctx, device.ID)
}

func (svc *service) LatestReadings(ctx context.Context, deviceID string) ([]LatestReading, error) {
	device, err := svc.devices.RetrieveByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	sensors, err := svc.sensors.RetrieveByDevice(ctx, device.ID)
	if err != nil {
		return nil, err
	}

	latest := []LatestReading{}
	for _, s := range sensors {
		reading, err := svc.readings.RetrieveLatest(ctx, s.ID)
		if errors.Contains(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		latest = append(latest, LatestReading{
			SensorID:     s.SensorID,
			Type:         s.Type,
			Ts:           reading.Ts,
			ValueNumeric: reading.ValueNumeric,
			ValueText:    reading.ValueText,
		})
	}
	return latest, nil
}

func (svc *service) ReadingsHistory(ctx context.Context, sensorID string, pm PageMetadata) (ReadingsPage, error) {
	sensor, err := svc.sensors.RetrieveBySensorID(ctx, sensorID)
	if err != nil {
		return ReadingsPage{}, err
	}

	readings, err := svc.readings.RetrieveHistory(ctx, sensor.ID, pm)
	if err != nil {
		return ReadingsPage{}, err
	}

	return ReadingsPage{
		SensorID: sensorID,
		Count:    uint64(len(readings)),
		Readings: readings,
	}, nil
}

func (svc *service) SendCommand(ctx context.Context, cmd Command) (ControlLog, error) {
	if cmd.Target == "" {
		return ControlLog{}, errors.Wrap(errors.ErrMalformedEntity, ErrMissingTarget)
	}

	device, err := svc.devices.RetrieveByDeviceID(ctx, cmd.DeviceID)
	if err != nil {
		return ControlLog{}, err
	}

	issuedBy := cmd.IssuedBy
	if issuedBy == "" {
		issuedBy = controlIssuer
	}
	now := time.Now().UTC()

	topic, payload := controlPublish(cmd, now, issuedBy)
	body, err := json.Marshal(payload)
	if err != nil {
		return ControlLog{}, err
	}
	if err := svc.publisher.Publish(ctx, topic, body, true); err != nil {
		return ControlLog{}, errors.Wrap(errors.ErrPublishMessage, err)
	}

	id, err := svc.idp.ID()
	if err != nil {
		return ControlLog{}, err
	}
	log := ControlLog{
		ID:           id,
		DeviceID:     device.ID,
		Command:      payload.Command,
		DesiredState: cmd.DesiredState,
		IssuedBy:     issuedBy,
		Ts:           now,
		Result:       resultPublished,
	}
	return svc.controls.Save(ctx, log)
}

type controlPayload struct {
	Command      string `json:"command"`
	DesiredState string `json:"desired_state,omitempty"`
	Ts           int64  `json:"ts"`
	IssuedBy     string `json:"issued_by"`
}

// controlPublish maps a command onto its topic and wire payload. A status
// request gets its dedicated topic so that devices can answer on
// farm/{device}/status.
func controlPublish(cmd Command, now time.Time, issuedBy string) (string, controlPayload) {
	ts := now.UnixMilli()
	if cmd.Target == "status" && cmd.DesiredState == "request" {
		return topicPrefix + "/" + cmd.DeviceID + "/status/request", controlPayload{
			Command:  statusRequestCmd,
			Ts:       ts,
			IssuedBy: issuedBy,
		}
	}
	return topicPrefix + "/" + cmd.DeviceID + "/control/" + cmd.Target, controlPayload{
		Command:      cmd.Target,
		DesiredState: cmd.DesiredState,
		Ts:           ts,
		IssuedBy:     issuedBy,
	}
}
