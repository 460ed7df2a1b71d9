// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package ws_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cropsync/cropsync/logger"
	"github.com/cropsync/cropsync/pkg/events"
	"github.com/cropsync/cropsync/ws"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"net/http"
	"net/http/httptest"
)

func newWSConn(t *testing.T, ts *httptest.Server, deviceID string) *websocket.Conn {
	t.Helper()
	url := strings.Replace(ts.URL, "http", "ws", 1) + "/realtime/" + deviceID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	return conn
}

func TestRealtimeForwarding(t *testing.T) {
	bus := events.NewBus()
	ts := httptest.NewServer(ws.MakeHandler(bus, logger.NewMock()))
	defer ts.Close()

	conn := newWSConn(t, ts, "dev1")
	defer conn.Close()

	// The subscription is registered during the handshake, give the
	// server a moment to attach it before publishing.
	time.Sleep(50 * time.Millisecond)
	bus.Publish("dev1", events.Event{"type": "status", "device_id": "dev1"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	mt, payload, err := conn.ReadMessage()
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, websocket.TextMessage, mt)
	assert.JSONEq(t, `{"type":"status","device_id":"dev1"}`, string(payload))
}

func TestRealtimeRouteAlongsideAPIMount(t *testing.T) {
	bus := events.NewBus()

	// Compose the router the way the service binary does: the handshake
	// route registered on the top-level mux next to the API mounted at
	// the root, so that /realtime/{deviceID} resolves without a prefix.
	mux := chi.NewRouter()
	mux.Get("/realtime/{deviceID}", ws.Handler(bus, logger.NewMock()))
	mux.Mount("/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ts := httptest.NewServer(mux)
	defer ts.Close()

	conn := newWSConn(t, ts, "dev1")
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)
	bus.Publish("dev1", events.Event{"device_id": "dev1"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.JSONEq(t, `{"device_id":"dev1"}`, string(payload))

	res, err := ts.Client().Get(ts.URL + "/devices")
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestRealtimeDeviceIsolation(t *testing.T) {
	bus := events.NewBus()
	ts := httptest.NewServer(ws.MakeHandler(bus, logger.NewMock()))
	defer ts.Close()

	conn := newWSConn(t, ts, "dev1")
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)
	bus.Publish("dev2", events.Event{"device_id": "dev2"})
	bus.Publish("dev1", events.Event{"device_id": "dev1"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.JSONEq(t, `{"device_id":"dev1"}`, string(payload))
}
