// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

// Package ingest implements the telemetry ingestion pipeline: broker
// session management, topic routing, payload normalization, lazy entity
// resolution, threshold evaluation and live-update fan-out.
package ingest
