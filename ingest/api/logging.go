// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

//go:build !test

package api

import (
	"context"
	"fmt"
	"time"

	"github.com/cropsync/cropsync/ingest"
	log "github.com/cropsync/cropsync/logger"
)

var _ ingest.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger log.Logger
	svc    ingest.Service
}

// LoggingMiddleware adds logging facilities to the ingestion pipeline.
func LoggingMiddleware(svc ingest.Service, logger log.Logger) ingest.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) IngestTelemetry(ctx context.Context, deviceID, metric string, payload []byte) (err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method ingest_telemetry for device %s metric %s took %s to complete", deviceID, metric, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.IngestTelemetry(ctx, deviceID, metric, payload)
}

func (lm *loggingMiddleware) ForwardStatus(ctx context.Context, deviceID string, payload []byte) (err error) {
	defer func(begin time.Time) {
		message := fmt.Sprintf("Method forward_status for device %s took %s to complete", deviceID, time.Since(begin))
		if err != nil {
			lm.logger.Warn(fmt.Sprintf("%s with error: %s.", message, err))
			return
		}
		lm.logger.Info(fmt.Sprintf("%s without errors.", message))
	}(time.Now())

	return lm.svc.ForwardStatus(ctx, deviceID, payload)
}
