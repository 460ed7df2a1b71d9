// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cropsync/cropsync"
	"github.com/cropsync/cropsync/farm"
	"github.com/cropsync/cropsync/pkg/errors"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	contentType  = "application/json"
	maxLimit     = 1000
	defaultLimit = 100
)

var errInvalidQueryParams = errors.New("invalid query params")

// MakeHandler returns a HTTP handler for API endpoints.
func MakeHandler(svc farm.Service) http.Handler {
	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(encodeError),
	}

	r := chi.NewRouter()

	r.Route("/devices", func(r chi.Router) {
		r.Post("/register", kithttp.NewServer(
			registerDeviceEndpoint(svc),
			decodeRegisterDeviceRequest,
			encodeResponse,
			opts...,
		).ServeHTTP)
		r.Get("/", kithttp.NewServer(
			listDevicesEndpoint(svc),
			decodeListDevicesRequest,
			encodeResponse,
			opts...,
		).ServeHTTP)
		r.Post("/{deviceID}/sensors", kithttp.NewServer(
			addSensorEndpoint(svc),
			decodeAddSensorRequest,
			encodeResponse,
			opts...,
		).ServeHTTP)
	})

	r.Route("/thresholds", func(r chi.Router) {
		r.Put("/{deviceID}", kithttp.NewServer(
			upsertThresholdEndpoint(svc),
			decodeUpsertThresholdRequest,
			encodeResponse,
			opts...,
		).ServeHTTP)
		r.Get("/{deviceID}", kithttp.NewServer(
			listThresholdsEndpoint(svc),
			decodeListThresholdsRequest,
			encodeResponse,
			opts...,
		).ServeHTTP)
	})

	r.Route("/data", func(r chi.Router) {
		r.Get("/latest/{deviceID}", kithttp.NewServer(
			latestReadingsEndpoint(svc),
			decodeLatestReadingsRequest,
			encodeResponse,
			opts...,
		).ServeHTTP)
		r.Get("/history/{sensorID}", kithttp.NewServer(
			readingsHistoryEndpoint(svc),
			decodeReadingsHistoryRequest,
			encodeResponse,
			opts...,
		).ServeHTTP)
	})

	r.Post("/control/{deviceID}", kithttp.NewServer(
		sendCommandEndpoint(svc),
		decodeSendCommandRequest,
		encodeResponse,
		opts...,
	).ServeHTTP)

	r.Get("/health", cropsync.Health("farm"))
	r.Get("/version", cropsync.Version("farm"))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func decodeRegisterDeviceRequest(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), contentType) {
		return nil, errors.ErrUnsupportedContentType
	}

	var req registerDeviceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(errors.ErrMalformedEntity, err)
	}

	return req, nil
}

func decodeListDevicesRequest(_ context.Context, _ *http.Request) (interface{}, error) {
	return listDevicesReq{}, nil
}

func decodeAddSensorRequest(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), contentType) {
		return nil, errors.ErrUnsupportedContentType
	}

	req := addSensorReq{deviceID: chi.URLParam(r, "deviceID")}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(errors.ErrMalformedEntity, err)
	}

	return req, nil
}

func decodeUpsertThresholdRequest(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), contentType) {
		return nil, errors.ErrUnsupportedContentType
	}

	req := upsertThresholdReq{deviceID: chi.URLParam(r, "deviceID")}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(errors.ErrMalformedEntity, err)
	}

	return req, nil
}

func decodeListThresholdsRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return listThresholdsReq{deviceID: chi.URLParam(r, "deviceID")}, nil
}

func decodeLatestReadingsRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return latestReadingsReq{deviceID: chi.URLParam(r, "deviceID")}, nil
}

func decodeReadingsHistoryRequest(_ context.Context, r *http.Request) (interface{}, error) {
	req := readingsHistoryReq{
		sensorID: chi.URLParam(r, "sensorID"),
		limit:    defaultLimit,
	}

	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrMalformedEntity, errInvalidQueryParams)
		}
		req.limit = limit
	}
	if raw := q.Get("before"); raw != "" {
		before, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, errors.Wrap(errors.ErrMalformedEntity, errInvalidQueryParams)
		}
		req.before = &before
	}

	return req, nil
}

func decodeSendCommandRequest(_ context.Context, r *http.Request) (interface{}, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), contentType) {
		return nil, errors.ErrUnsupportedContentType
	}

	req := sendCommandReq{deviceID: chi.URLParam(r, "deviceID")}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(errors.ErrMalformedEntity, err)
	}

	return req, nil
}

func encodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", contentType)
	if ar, ok := response.(cropsync.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}

		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", contentType)

	switch {
	case errors.Contains(err, errors.ErrUnsupportedContentType):
		w.WriteHeader(http.StatusUnsupportedMediaType)
	case errors.Contains(err, errors.ErrMalformedEntity):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Contains(err, errors.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Contains(err, errors.ErrConflict):
		w.WriteHeader(http.StatusConflict)
	case errors.Contains(err, errors.ErrPublishMessage):
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	if errorVal, ok := err.(errors.Error); ok {
		if err := json.NewEncoder(w).Encode(map[string]string{"error": errorVal.Msg()}); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
}
