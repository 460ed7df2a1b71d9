// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package farm

import (
	"context"
	"time"
)

// StatusOnline marks a device that has registered or reported data. The
// schema defaults rows created outside both paths to "unknown".
const StatusOnline = "online"

// Supported metric kinds. Sensors of any other kind are accepted but
// normalized through the generic value field.
const (
	Temperature = "temperature"
	Humidity    = "humidity"
	Waterflow   = "waterflow"
	Waterlevel  = "waterlevel"
	TDS         = "tds"
)

// Device represents a field device. DeviceID is the externally-assigned
// identifier used in topics; ID is the internal one.
type Device struct {
	ID         string     `json:"id"`
	DeviceID   string     `json:"device_id"`
	Type       string     `json:"type,omitempty"`
	Location   string     `json:"location,omitempty"`
	Status     string     `json:"status"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	Sensors    []Sensor   `json:"sensors,omitempty"`
}

// Sensor represents a single metric source attached to a device. Its
// metric kind is fixed at creation. Auto-created sensors are named
// "{device_id}-{metric}".
type Sensor struct {
	ID       string `json:"id"`
	SensorID string `json:"sensor_id"`
	Type     string `json:"type"`
	Unit     string `json:"unit,omitempty"`
	DeviceID string `json:"-"`
}

// Reading represents one persisted measurement. ValueNumeric and ValueText
// are mutually exclusive by convention: numeric when the metric kind is
// recognized and the payload field parses as a number, text otherwise.
// Both may be null when a known metric's expected field is absent.
type Reading struct {
	ID           string    `json:"-"`
	SensorID     string    `json:"-"`
	Ts           time.Time `json:"ts"`
	ValueNumeric *float64  `json:"value_numeric"`
	ValueText    *string   `json:"value_text"`
}

// Threshold holds the configured bounds for one (device, metric) pair.
// LastAlertedAt is kept for rate-limiting but is not read by evaluation:
// every breaching reading re-alerts.
type Threshold struct {
	ID            string     `json:"-"`
	DeviceID      string     `json:"-"`
	Metric        string     `json:"sensor_type"`
	MinValue      *float64   `json:"min_value"`
	MaxValue      *float64   `json:"max_value"`
	LastAlertedAt *time.Time `json:"-"`
}

// ControlLog records one outbound control command.
type ControlLog struct {
	ID           string    `json:"id"`
	DeviceID     string    `json:"-"`
	Command      string    `json:"command"`
	DesiredState string    `json:"desired_state,omitempty"`
	IssuedBy     string    `json:"issued_by"`
	Ts           time.Time `json:"ts"`
	Result       string    `json:"result,omitempty"`
}

// Command is an outbound control request for a device.
type Command struct {
	DeviceID     string `json:"device_id"`
	Target       string `json:"target"`
	DesiredState string `json:"desired_state,omitempty"`
	IssuedBy     string `json:"issued_by,omitempty"`
}

// LatestReading is the newest reading of one sensor, keyed by the
// external sensor identifier.
type LatestReading struct {
	SensorID     string    `json:"sensor_id"`
	Type         string    `json:"type"`
	Ts           time.Time `json:"ts"`
	ValueNumeric *float64  `json:"value_numeric"`
	ValueText    *string   `json:"value_text"`
}

// PageMetadata limits reading history queries.
type PageMetadata struct {
	Limit  uint64
	Before *time.Time
}

// ReadingsPage is one page of a sensor's reading history, newest first.
type ReadingsPage struct {
	SensorID string    `json:"sensor_id"`
	Count    uint64    `json:"count"`
	Readings []Reading `json:"data"`
}

// DeviceRepository specifies device persistence API. Save must enforce
// device_id uniqueness and report a duplicate as errors.ErrConflict.
type DeviceRepository interface {
	Save(ctx context.Context, device Device) (Device, error)
	RetrieveByDeviceID(ctx context.Context, deviceID string) (Device, error)
	RetrieveAll(ctx context.Context) ([]Device, error)
	UpdateLiveness(ctx context.Context, deviceID, status string, seenAt time.Time) error
}

// SensorRepository specifies sensor persistence API. Save must enforce
// sensor_id uniqueness and report a duplicate as errors.ErrConflict.
type SensorRepository interface {
	Save(ctx context.Context, sensor Sensor) (Sensor, error)
	RetrieveBySensorID(ctx context.Context, sensorID string) (Sensor, error)
	RetrieveByDevice(ctx context.Context, deviceID string) ([]Sensor, error)
}

// ReadingRepository specifies reading persistence API. Readings are
// append-only: they are never updated or deleted by the pipeline.
type ReadingRepository interface {
	Save(ctx context.Context, reading Reading) (Reading, error)
	RetrieveLatest(ctx context.Context, sensorID string) (Reading, error)
	RetrieveHistory(ctx context.Context, sensorID string, pm PageMetadata) ([]Reading, error)
}

// ThresholdRepository specifies threshold persistence API. Thresholds are
// read-only from the ingestion path and mutated only through the
// management API.
type ThresholdRepository interface {
	Upsert(ctx context.Context, threshold Threshold) (Threshold, error)
	RetrieveByDeviceMetric(ctx context.Context, deviceID, metric string) (Threshold, error)
	RetrieveByDevice(ctx context.Context, deviceID string) ([]Threshold, error)
}

// ControlRepository records outbound control commands.
type ControlRepository interface {
	Save(ctx context.Context, log ControlLog) (ControlLog, error)
}

// Service specifies the device management and query API.
type Service interface {
	// RegisterDevice registers a new device or returns the existing one
	// with the same external identifier.
	RegisterDevice(ctx context.Context, device Device) (Device, error)

	// ListDevices returns all devices with their sensors.
	ListDevices(ctx context.Context) ([]Device, error)

	// AddSensor attaches a sensor to a registered device or returns the
	// existing one with the same external identifier.
	AddSensor(ctx context.Context, deviceID string, sensor Sensor) (Sensor, error)

	// UpsertThreshold creates or replaces the threshold for the device
	// and metric pair.
	UpsertThreshold(ctx context.Context, deviceID string, threshold Threshold) (Threshold, error)

	// ListThresholds returns all thresholds configured for a device.
	ListThresholds(ctx context.Context, deviceID string) ([]Threshold, error)

	// LatestReadings returns the newest reading of every sensor of a
	// device.
	LatestReadings(ctx context.Context, deviceID string) ([]LatestReading, error)

	// ReadingsHistory returns a sensor's reading history, newest first.
	ReadingsHistory(ctx context.Context, sensorID string, pm PageMetadata) (ReadingsPage, error)

	// SendCommand publishes a retained control command for a device and
	// records it.
	SendCommand(ctx context.Context, cmd Command) (ControlLog, error)
}
