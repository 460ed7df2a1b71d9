// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package api_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cropsync/cropsync/farm"
	"github.com/cropsync/cropsync/farm/api"
	"github.com/cropsync/cropsync/farm/mocks"
	"github.com/cropsync/cropsync/pkg/errors"
	"github.com/cropsync/cropsync/pkg/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contentType = "application/json"

type testRequest struct {
	client      *http.Client
	method      string
	url         string
	contentType string
	body        io.Reader
}

func (tr testRequest) make() (*http.Response, error) {
	req, err := http.NewRequest(tr.method, tr.url, tr.body)
	if err != nil {
		return nil, err
	}
	if tr.contentType != "" {
		req.Header.Set("Content-Type", tr.contentType)
	}

	return tr.client.Do(req)
}

func newServer() (*httptest.Server, *mocks.PublisherMock) {
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

	return httptest.NewServer(api.MakeHandler(svc)), pub
}

func TestRegisterDeviceEndpoint(t *testing.T) {
	ts, _ := newServer()
	defer ts.Close()

	cases := []struct {
		desc        string
		body        string
		contentType string
		status      int
	}{
		{"valid request", `{"device_id": "dev1", "type": "esp32"}`, contentType, http.StatusCreated},
		{"existing device", `{"device_id": "dev1"}`, contentType, http.StatusCreated},
		{"missing device id", `{"type": "esp32"}`, contentType, http.StatusBadRequest},
		{"invalid json", `{`, contentType, http.StatusBadRequest},
		{"missing content type", `{"device_id": "dev2"}`, "", http.StatusUnsupportedMediaType},
	}

	for _, tc := range cases {
		req := testRequest{
			client:      ts.Client(),
			method:      http.MethodPost,
			url:         fmt.Sprintf("%s/devices/register", ts.URL),
			contentType: tc.contentType,
			body:        strings.NewReader(tc.body),
		}
		res, err := req.make()
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error: %s", tc.desc, err))
		assert.Equal(t, tc.status, res.StatusCode, tc.desc)
	}
}

func TestAddSensorEndpoint(t *testing.T) {
	ts, _ := newServer()
	defer ts.Close()

	registerDevice(t, ts, "dev1")

	cases := []struct {
		desc     string
		deviceID string
		body     string
		status   int
	}{
		{"valid request", "dev1", `{"sensor_id": "dev1-temperature", "type": "temperature", "unit": "C"}`, http.StatusCreated},
		{"unknown device", "ghost", `{"sensor_id": "ghost-tds", "type": "tds"}`, http.StatusNotFound},
		{"missing sensor id", "dev1", `{"type": "tds"}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		req := testRequest{
			client:      ts.Client(),
			method:      http.MethodPost,
			url:         fmt.Sprintf("%s/devices/%s/sensors", ts.URL, tc.deviceID),
			contentType: contentType,
			body:        strings.NewReader(tc.body),
		}
		res, err := req.make()
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error: %s", tc.desc, err))
		assert.Equal(t, tc.status, res.StatusCode, tc.desc)
	}
}

func TestThresholdEndpoints(t *testing.T) {
	ts, _ := newServer()
	defer ts.Close()

	registerDevice(t, ts, "dev1")

	req := testRequest{
		client:      ts.Client(),
		method:      http.MethodPut,
		url:         fmt.Sprintf("%s/thresholds/dev1", ts.URL),
		contentType: contentType,
		body:        strings.NewReader(`{"sensor_type": "temperature", "min_value": 10, "max_value": 20}`),
	}
	res, err := req.make()
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, http.StatusOK, res.StatusCode)

	req = testRequest{
		client: ts.Client(),
		method: http.MethodGet,
		url:    fmt.Sprintf("%s/thresholds/dev1", ts.URL),
	}
	res, err = req.make()
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, http.StatusOK, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Contains(t, string(body), `"sensor_type":"temperature"`)
}

func TestReadingsHistoryEndpoint(t *testing.T) {
	ts, _ := newServer()
	defer ts.Close()

	registerDevice(t, ts, "dev1")
	addSensor(t, ts, "dev1", "dev1-temperature", "temperature")

	cases := []struct {
		desc   string
		url    string
		status int
	}{
		{"default limit", "/data/history/dev1-temperature", http.StatusOK},
		{"explicit limit", "/data/history/dev1-temperature?limit=10", http.StatusOK},
		{"limit too large", "/data/history/dev1-temperature?limit=100000", http.StatusBadRequest},
		{"invalid limit", "/data/history/dev1-temperature?limit=ten", http.StatusBadRequest},
		{"invalid before", "/data/history/dev1-temperature?before=yesterday", http.StatusBadRequest},
		{"unknown sensor", "/data/history/ghost", http.StatusNotFound},
	}

	for _, tc := range cases {
		req := testRequest{
			client: ts.Client(),
			method: http.MethodGet,
			url:    ts.URL + tc.url,
		}
		res, err := req.make()
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error: %s", tc.desc, err))
		assert.Equal(t, tc.status, res.StatusCode, tc.desc)
	}
}

func TestSendCommandEndpoint(t *testing.T) {
	ts, pub := newServer()
	defer ts.Close()

	registerDevice(t, ts, "dev1")

	req := testRequest{
		client:      ts.Client(),
		method:      http.MethodPost,
		url:         fmt.Sprintf("%s/control/dev1", ts.URL),
		contentType: contentType,
		body:        strings.NewReader(`{"target": "pump", "desired_state": "on"}`),
	}
	res, err := req.make()
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, http.StatusAccepted, res.StatusCode)

	published := pub.Published()
	require.Len(t, published, 1)
	assert.Equal(t, "farm/dev1/control/pump", published[0].Topic)

	pub.Err = errors.New("broker down")
	req.body = strings.NewReader(`{"target": "pump", "desired_state": "off"}`)
	res, err = req.make()
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func registerDevice(t *testing.T, ts *httptest.Server, deviceID string) {
	t.Helper()
	req := testRequest{
		client:      ts.Client(),
		method:      http.MethodPost,
		url:         fmt.Sprintf("%s/devices/register", ts.URL),
		contentType: contentType,
		body:        strings.NewReader(fmt.Sprintf(`{"device_id": %q}`, deviceID)),
	}
	res, err := req.make()
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	require.Equal(t, http.StatusCreated, res.StatusCode)
}

func addSensor(t *testing.T, ts *httptest.Server, deviceID, sensorID, metric string) {
	t.Helper()
	req := testRequest{
		client:      ts.Client(),
		method:      http.MethodPost,
		url:         fmt.Sprintf("%s/devices/%s/sensors", ts.URL, deviceID),
		contentType: contentType,
		body:        strings.NewReader(fmt.Sprintf(`{"sensor_id": %q, "type": %q}`, sensorID, metric)),
	}
	res, err := req.make()
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	require.Equal(t, http.StatusCreated, res.StatusCode)
}
