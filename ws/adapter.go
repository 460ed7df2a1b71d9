// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

// Package ws delivers live-update events to browser clients over
// WebSocket connections. Each connection subscribes to one device on the
// fan-out bus and forwards its events verbatim as JSON text frames.
package ws

import (
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/cropsync/cropsync/logger"
	"github.com/cropsync/cropsync/pkg/events"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MakeHandler returns an http handler serving the realtime handshake at
// GET /realtime/{deviceID}.
func MakeHandler(bus *events.Bus, logger log.Logger) http.Handler {
	mux := chi.NewRouter()
	mux.Get("/realtime/{deviceID}", Handler(bus, logger))

	return mux
}

// Handler returns the realtime handshake handler. It expects a deviceID
// chi URL parameter, so it must be registered on a route carrying one.
func Handler(bus *events.Bus, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID := chi.URLParam(r, "deviceID")
		if deviceID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn(fmt.Sprintf("Failed to upgrade connection to websocket: %s", err))
			return
		}

		sub, cancel := bus.Subscribe(deviceID)
		logger.Info(fmt.Sprintf("Realtime subscriber attached to device %s", deviceID))

		// The reader detects the peer closing the connection and tears
		// the subscription down; its cancel closes the event channel,
		// which in turn stops the forwarding loop.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		go forward(conn, sub, deviceID, logger)
	}
}

func forward(conn *websocket.Conn, sub <-chan events.Event, deviceID string, logger log.Logger) {
	defer conn.Close()

	for event := range sub {
		payload, err := json.Marshal(event)
		if err != nil {
			logger.Warn(fmt.Sprintf("Failed to serialize event for device %s: %s", deviceID, err))
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn(fmt.Sprintf("Realtime subscriber for device %s dropped: %s", deviceID, err))
			return
		}
	}
}
