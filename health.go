// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package cropsync

import (
	"encoding/json"
	"net/http"
)

const (
	version     = "0.1.0"
	contentType = "application/health+json"
	svcStatus   = "pass"
	description = " service"
)

// HealthInfo contains version endpoint response.
type HealthInfo struct {
	// Status contains service status.
	Status string `json:"status"`

	// Version contains current service version.
	Version string `json:"version"`

	// Description contains service description.
	Description string `json:"description"`
}

// Health exposes an HTTP handler for retrieving service health.
func Health(service string) http.HandlerFunc {
	return func(rw http.ResponseWriter, _ *http.Request) {
		res := HealthInfo{
			Status:      svcStatus,
			Version:     version,
			Description: service + description,
		}

		rw.Header().Set("Content-Type", contentType)
		if err := json.NewEncoder(rw).Encode(res); err != nil {
			rw.WriteHeader(http.StatusInternalServerError)
		}
	}
}

// VersionInfo contains version endpoint response.
type VersionInfo struct {
	// Service contains service name.
	Service string `json:"service"`

	// Version contains service current version value.
	Version string `json:"version"`
}

// Version exposes an HTTP handler for retrieving service version.
func Version(service string) http.HandlerFunc {
	return func(rw http.ResponseWriter, _ *http.Request) {
		res := VersionInfo{Service: service, Version: version}

		data, _ := json.Marshal(res)

		if _, err := rw.Write(data); err != nil {
			rw.WriteHeader(http.StatusInternalServerError)
		}
	}
}
