// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"net/http"

	"github.com/cropsync/cropsync"
	"github.com/cropsync/cropsync/farm"
)

var (
	_ cropsync.Response = (*deviceRes)(nil)
	_ cropsync.Response = (*devicesRes)(nil)
	_ cropsync.Response = (*sensorRes)(nil)
	_ cropsync.Response = (*thresholdRes)(nil)
	_ cropsync.Response = (*thresholdsRes)(nil)
	_ cropsync.Response = (*latestRes)(nil)
	_ cropsync.Response = (*historyRes)(nil)
	_ cropsync.Response = (*commandRes)(nil)
)

type deviceRes struct {
	farm.Device
	created bool
}

func (res deviceRes) Code() int {
	if res.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (res deviceRes) Headers() map[string]string {
	return map[string]string{}
}

func (res deviceRes) Empty() bool {
	return false
}

type devicesRes struct {
	Devices []farm.Device `json:"devices"`
}

func (res devicesRes) Code() int {
	return http.StatusOK
}

func (res devicesRes) Headers() map[string]string {
	return map[string]string{}
}

func (res devicesRes) Empty() bool {
	return false
}

type sensorRes struct {
	farm.Sensor
}

func (res sensorRes) Code() int {
	return http.StatusCreated
}

func (res sensorRes) Headers() map[string]string {
	return map[string]string{}
}

func (res sensorRes) Empty() bool {
	return false
}

type thresholdRes struct {
	farm.Threshold
}

func (res thresholdRes) Code() int {
	return http.StatusOK
}

func (res thresholdRes) Headers() map[string]string {
	return map[string]string{}
}

func (res thresholdRes) Empty() bool {
	return false
}

type thresholdsRes struct {
	Thresholds []farm.Threshold `json:"thresholds"`
}

func (res thresholdsRes) Code() int {
	return http.StatusOK
}

func (res thresholdsRes) Headers() map[string]string {
	return map[string]string{}
}

func (res thresholdsRes) Empty() bool {
	return false
}

type latestRes struct {
	Readings []farm.LatestReading `json:"readings"`
}

func (res latestRes) Code() int {
	return http.StatusOK
}

func (res latestRes) Headers() map[string]string {
	return map[string]string{}
}

func (res latestRes) Empty() bool {
	return false
}

type historyRes struct {
	farm.ReadingsPage
}

func (res historyRes) Code() int {
	return http.StatusOK
}

func (res historyRes) Headers() map[string]string {
	return map[string]string{}
}

func (res historyRes) Empty() bool {
	return false
}

type commandRes struct {
	farm.ControlLog
}

func (res commandRes) Code() int {
	return http.StatusAccepted
}

func (res commandRes) Headers() map[string]string {
	return map[string]string{}
}

func (res commandRes) Empty() bool {
	return false
}
