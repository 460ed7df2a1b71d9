// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"time"

	"github.com/cropsync/cropsync/farm"
	"github.com/cropsync/cropsync/pkg/errors"
)

type registerDeviceReq struct {
	DeviceID string `json:"device_id"`
	Type     string `json:"type,omitempty"`
	Location string `json:"location,omitempty"`
}

func (req registerDeviceReq) validate() error {
	if req.DeviceID == "" {
		return errors.Wrap(errors.ErrMalformedEntity, farm.ErrMissingDeviceID)
	}

	return nil
}

type listDevicesReq struct{}

func (req listDevicesReq) validate() error {
	return nil
}

type addSensorReq struct {
	deviceID string
	SensorID string `json:"sensor_id"`
	Type     string `json:"type"`
	Unit     string `json:"unit,omitempty"`
}

func (req addSensorReq) validate() error {
	if req.deviceID == "" {
		return errors.Wrap(errors.ErrMalformedEntity, farm.ErrMissingDeviceID)
	}
	if req.SensorID == "" {
		return errors.Wrap(errors.ErrMalformedEntity, farm.ErrMissingSensorID)
	}
	if req.Type == "" {
		return errors.Wrap(errors.ErrMalformedEntity, farm.ErrMissingMetric)
	}

	return nil
}

type upsertThresholdReq struct {
	deviceID string
	Metric   string   `json:"sensor_type"`
	MinValue *float64 `json:"min_value"`
	MaxValue *float64 `json:"max_value"`
}

func (req upsertThresholdReq) validate() error {
	if req.deviceID == "" {
		return errors.Wrap(errors.ErrMalformedEntity, farm.ErrMissingDeviceID)
	}
	if req.Metric == "" {
		return errors.Wrap(errors.ErrMalformedEntity, farm.ErrMissingMetric)
	}

	return nil
}

type listThresholdsReq struct {
	deviceID string
}

func (req listThresholdsReq) validate() error {
	if req.deviceID == "" {
		return errors.Wrap(errors.ErrMalformedEntity, farm.ErrMissingDeviceID)
	}

	return nil
}

type latestReadingsReq struct {
	deviceID string
}

func (req latestReadingsReq) validate() error {
	if req.deviceID == "" {
		return errors.Wrap(errors.ErrMalformedEntity, farm.ErrMissingDeviceID)
	}

	return nil
}

type readingsHistoryReq struct {
	sensorID string
	limit    uint64
	before   *time.Time
}

func (req readingsHistoryReq) validate() error {
	if req.sensorID == "" {
		return errors.Wrap(errors.ErrMalformedEntity, farm.ErrMissingSensorID)
	}
	if req.limit == 0 || req.limit > maxLimit {
		return errors.Wrap(errors.ErrMalformedEntity, errInvalidQueryParams)
	}

	return nil
}

type sendCommandReq struct {
	deviceID     string
	Target       string `json:"target"`
	DesiredState string `json:"desired_state,omitempty"`
}

func (req sendCommandReq) validate() error {
	if req.deviceID == "" {
		return errors.Wrap(errors.ErrMalformedEntity, farm.ErrMissingDeviceID)
	}
	if req.Target == "" {
		return errors.Wrap(errors.ErrMalformedEntity, farm.ErrMissingTarget)
	}

	return nil
}
