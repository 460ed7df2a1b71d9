// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package farm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/cropsync/cropsync/farm"
	"github.com/cropsync/cropsync/farm/mocks"
	"github.com/cropsync/cropsync/pkg/errors"
	"github.com/cropsync/cropsync/pkg/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() (farm.Service, *mocks.PublisherMock) {
	pub := mocks.NewPublisher()
	svc := farm.New(
		uuid.NewMock(),
		mocks.NewDeviceRepository(),
		mocks.NewSensorRepository(),
		mocks.NewReadingRepository(),
		mocks.NewThresholdRepository(),
		mocks.NewControlRepository(),
		pub,
	)
	return svc, pub
}

func TestRegisterDevice(t *testing.T) {
	svc, _ := newService()

	device, err := svc.RegisterDevice(context.Background(), farm.Device{DeviceID: "dev1", Type: "esp32", Location: "greenhouse-1"})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, farm.StatusOnline, device.Status)
	assert.NotEmpty(t, device.ID)

	// Registration is idempotent: the existing device is returned.
	again, err := svc.RegisterDevice(context.Background(), farm.Device{DeviceID: "dev1"})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, device.ID, again.ID)
	assert.Equal(t, "esp32", again.Type)

	_, err = svc.RegisterDevice(context.Background(), farm.Device{})
	assert.True(t, errors.Contains(err, errors.ErrMalformedEntity), "empty device_id must be rejected")
}

func TestAddSensor(t *testing.T) {
	svc, _ := newService()

	device, err := svc.RegisterDevice(context.Background(), farm.Device{DeviceID: "dev1"})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	cases := []struct {
		desc     string
		deviceID string
		sensor   farm.Sensor
		err      error
	}{
		{"valid sensor", "dev1", farm.Sensor{SensorID: "dev1-temperature", Type: farm.Temperature, Unit: "C"}, nil},
		{"existing sensor", "dev1", farm.Sensor{SensorID: "dev1-temperature", Type: farm.Temperature}, nil},
		{"unknown device", "ghost", farm.Sensor{SensorID: "ghost-tds", Type: farm.TDS}, errors.ErrNotFound},
		{"missing sensor id", "dev1", farm.Sensor{Type: farm.TDS}, errors.ErrMalformedEntity},
		{"missing metric", "dev1", farm.Sensor{SensorID: "dev1-x"}, errors.ErrMalformedEntity},
	}

	for _, tc := range cases {
		sensor, err := svc.AddSensor(context.Background(), tc.deviceID, tc.sensor)
		if tc.err != nil {
			assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
			continue
		}
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error: %s", tc.desc, err))
		assert.Equal(t, device.ID, sensor.DeviceID, tc.desc)
		assert.Equal(t, tc.sensor.SensorID, sensor.SensorID, tc.desc)
	}
}

func TestUpsertThreshold(t *testing.T) {
	svc, _ := newService()

	_, err := svc.RegisterDevice(context.Background(), farm.Device{DeviceID: "dev1"})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	low, high := 10.0, 20.0
	_, err = svc.UpsertThreshold(context.Background(), "dev1", farm.Threshold{Metric: farm.Temperature, MinValue: &low, MaxValue: &high})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	// Upsert replaces the bounds for the same (device, metric) pair.
	high2 := 30.0
	_, err = svc.UpsertThreshold(context.Background(), "dev1", farm.Threshold{Metric: farm.Temperature, MaxValue: &high2})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	thresholds, err := svc.ListThresholds(context.Background(), "dev1")
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	require.Len(t, thresholds, 1)
	assert.Nil(t, thresholds[0].MinValue)
	require.NotNil(t, thresholds[0].MaxValue)
	assert.Equal(t, high2, *thresholds[0].MaxValue)

	_, err = svc.UpsertThreshold(context.Background(), "ghost", farm.Threshold{Metric: farm.Temperature})
	assert.True(t, errors.Contains(err, errors.ErrNotFound), "unknown device must be rejected")
}

func TestSendCommand(t *testing.T) {
	svc, pub := newService()

	_, err := svc.RegisterDevice(context.Background(), farm.Device{DeviceID: "dev1"})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	cases := []struct {
		desc    string
		cmd     farm.Command
		topic   string
		command string
		err     error
	}{
		{"pump command", farm.Command{DeviceID: "dev1", Target: "pump", DesiredState: "on"}, "farm/dev1/control/pump", "pump", nil},
		{"status request", farm.Command{DeviceID: "dev1", Target: "status", DesiredState: "request"}, "farm/dev1/status/request", "status_request", nil},
		{"missing target", farm.Command{DeviceID: "dev1"}, "", "", errors.ErrMalformedEntity},
		{"unknown device", farm.Command{DeviceID: "ghost", Target: "pump"}, "", "", errors.ErrNotFound},
	}

	for _, tc := range cases {
		before := len(pub.Published())
		log, err := svc.SendCommand(context.Background(), tc.cmd)
		if tc.err != nil {
			assert.True(t, errors.Contains(err, tc.err), fmt.Sprintf("%s: expected %s got %s", tc.desc, tc.err, err))
			continue
		}
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error: %s", tc.desc, err))
		assert.Equal(t, tc.command, log.Command, tc.desc)

		published := pub.Published()
		require.Len(t, published, before+1, tc.desc)
		last := published[len(published)-1]
		assert.Equal(t, tc.topic, last.Topic, tc.desc)
		assert.True(t, last.Retained, "control publishes are retained")

		var payload map[string]interface{}
		require.Nil(t, json.Unmarshal(last.Payload, &payload), tc.desc)
		assert.Equal(t, tc.command, payload["command"], tc.desc)
		assert.NotZero(t, payload["ts"], tc.desc)
		assert.Equal(t, "api", payload["issued_by"], tc.desc)
	}
}

func TestSendCommandPublishFailure(t *testing.T) {
	svc, pub := newService()

	_, err := svc.RegisterDevice(context.Background(), farm.Device{DeviceID: "dev1"})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	pub.Err = errors.New("broker down")
	_, err = svc.SendCommand(context.Background(), farm.Command{DeviceID: "dev1", Target: "pump", DesiredState: "off"})
	assert.True(t, errors.Contains(err, errors.ErrPublishMessage), "publish failure must surface to the caller")
}

func TestReadingsHistory(t *testing.T) {
	svc, _ := newService()

	_, err := svc.RegisterDevice(context.Background(), farm.Device{DeviceID: "dev1"})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	_, err = svc.AddSensor(context.Background(), "dev1", farm.Sensor{SensorID: "dev1-temperature", Type: farm.Temperature})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	_, err = svc.ReadingsHistory(context.Background(), "dev1-temperature", farm.PageMetadata{Limit: 10})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	_, err = svc.ReadingsHistory(context.Background(), "ghost", farm.PageMetadata{Limit: 10})
	assert.True(t, errors.Contains(err, errors.ErrNotFound), "unknown sensor must be rejected")
}

func TestLatestReadings(t *testing.T) {
	readings := mocks.NewReadingRepository()
	pub := mocks.NewPublisher()
	svc := farm.New(
		uuid.NewMock(),
		mocks.NewDeviceRepository(),
		mocks.NewSensorRepository(),
		readings,
		mocks.NewThresholdRepository(),
		mocks.NewControlRepository(),
		pub,
	)

	_, err := svc.RegisterDevice(context.Background(), farm.Device{DeviceID: "dev1"})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	sensor, err := svc.AddSensor(context.Background(), "dev1", farm.Sensor{SensorID: "dev1-temperature", Type: farm.Temperature})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	old, recent := 20.5, 22.5
	_, err = readings.Save(context.Background(), farm.Reading{ID: "r1", SensorID: sensor.ID, Ts: time.Now().Add(-time.Hour), ValueNumeric: &old})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	_, err = readings.Save(context.Background(), farm.Reading{ID: "r2", SensorID: sensor.ID, Ts: time.Now(), ValueNumeric: &recent})
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	latest, err := svc.LatestReadings(context.Background(), "dev1")
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	require.Len(t, latest, 1)
	assert.Equal(t, "dev1-temperature", latest[0].SensorID)
	require.NotNil(t, latest[0].ValueNumeric)
	assert.Equal(t, recent, *latest[0].ValueNumeric)
}
