// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"

	"github.com/cropsync/cropsync/farm"
	"github.com/go-kit/kit/endpoint"
)

func registerDeviceEndpoint(svc farm.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(registerDeviceReq)
		if err := req.validate(); err != nil {
			return nil, err
		}

		device, err := svc.RegisterDevice(ctx, farm.Device{
			DeviceID: req.DeviceID,
			Type:     req.Type,
			Location: req.Location,
		})
		if err != nil {
			return nil, err
		}

		return deviceRes{Device: device, created: true}, nil
	}
}

func listDevicesEndpoint(svc farm.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(listDevicesReq)
		if err := req.validate(); err != nil {
			return nil, err
		}

		devices, err := svc.ListDevices(ctx)
		if err != nil {
			return nil, err
		}

		return devicesRes{Devices: devices}, nil
	}
}

func addSensorEndpoint(svc farm.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(addSensorReq)
		if err := req.validate(); err != nil {
			return nil, err
		}

		sensor, err := svc.AddSensor(ctx, req.deviceID, farm.Sensor{
			SensorID: req.SensorID,
			Type:     req.Type,
			Unit:     req.Unit,
		})
		if err != nil {
			return nil, err
		}

		return sensorRes{Sensor: sensor}, nil
	}
}

func upsertThresholdEndpoint(svc farm.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(upsertThresholdReq)
		if err := req.validate(); err != nil {
			return nil, err
		}

		threshold, err := svc.UpsertThreshold(ctx, req.deviceID, farm.Threshold{
			Metric:   req.Metric,
			MinValue: req.MinValue,
			MaxValue: req.MaxValue,
		})
		if err != nil {
			return nil, err
		}

		return thresholdRes{Threshold: threshold}, nil
	}
}

func listThresholdsEndpoint(svc farm.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(listThresholdsReq)
		if err := req.validate(); err != nil {
			return nil, err
		}

		thresholds, err := svc.ListThresholds(ctx, req.deviceID)
		if err != nil {
			return nil, err
		}

		return thresholdsRes{Thresholds: thresholds}, nil
	}
}

func latestReadingsEndpoint(svc farm.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(latestReadingsReq)
		if err := req.validate(); err != nil {
			return nil, err
		}

		readings, err := svc.LatestReadings(ctx, req.deviceID)
		if err != nil {
			return nil, err
		}

		return latestRes{Readings: readings}, nil
	}
}

func readingsHistoryEndpoint(svc farm.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(readingsHistoryReq)
		if err := req.validate(); err != nil {
			return nil, err
		}

		page, err := svc.ReadingsHistory(ctx, req.sensorID, farm.PageMetadata{
			Limit:  req.limit,
			Before: req.before,
		})
		if err != nil {
			return nil, err
		}

		return historyRes{ReadingsPage: page}, nil
	}
}

func sendCommandEndpoint(svc farm.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(sendCommandReq)
		if err := req.validate(); err != nil {
			return nil, err
		}

		log, err := svc.SendCommand(ctx, farm.Command{
			DeviceID:     req.deviceID,
			Target:       req.Target,
			DesiredState: req.DesiredState,
		})
		if err != nil {
			return nil, err
		}

		return commandRes{ControlLog: log}, nil
	}
}
