// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

// Package main contains cropsync main function to start the cropsync
// service.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cropsync/cropsync"
	"github.com/cropsync/cropsync/farm"
	farmapi "github.com/cropsync/cropsync/farm/api"
	farmpg "github.com/cropsync/cropsync/farm/postgres"
	"github.com/cropsync/cropsync/ingest"
	ingestapi "github.com/cropsync/cropsync/ingest/api"
	"github.com/cropsync/cropsync/internal"
	"github.com/cropsync/cropsync/internal/env"
	"github.com/cropsync/cropsync/internal/server"
	httpserver "github.com/cropsync/cropsync/internal/server/http"
	cslog "github.com/cropsync/cropsync/logger"
	"github.com/cropsync/cropsync/pkg/events"
	"github.com/cropsync/cropsync/pkg/messaging"
	mqttpub "github.com/cropsync/cropsync/pkg/messaging/mqtt"
	"github.com/cropsync/cropsync/pkg/postgres"
	"github.com/cropsync/cropsync/pkg/uuid"
	"github.com/cropsync/cropsync/ws"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

const (
	svcName       = "farm"
	envPrefixDB   = "CS_DB_"
	envPrefixHTTP = "CS_HTTP_"
	envPrefixMQTT = "CS_MQTT_"
)

type config struct {
	LogLevel string `env:"CS_LOG_LEVEL" envDefault:"info"`
	EnvFile  string `env:"CS_ENV_FILE"  envDefault:""`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load %s configuration : %s", svcName, err)
	}
	if cfg.EnvFile != "" {
		if err := cropsync.LoadEnvFile(cfg.EnvFile); err != nil {
			log.Fatalf("failed to load env file %s : %s", cfg.EnvFile, err)
		}
	}

	logger, err := cslog.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %s", err)
	}

	dbConfig := postgres.Config{Name: "cropsync"}
	if err := env.Parse(&dbConfig, env.Options{Prefix: envPrefixDB}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s database configuration : %s", svcName, err))
		os.Exit(1)
	}
	db, err := postgres.Setup(dbConfig, farmpg.Migration())
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer db.Close()

	agentConfig := ingest.AgentConfig{}
	if err := env.Parse(&agentConfig, env.Options{Prefix: envPrefixMQTT}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s broker configuration : %s", svcName, err))
		os.Exit(1)
	}

	publisher, err := connectToBroker(agentConfig, logger)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer publisher.Close()

	idp := uuid.New()
	devices := farmpg.NewDeviceRepository(db)
	sensors := farmpg.NewSensorRepository(db)
	readings := farmpg.NewReadingRepository(db)
	thresholds := farmpg.NewThresholdRepository(db)
	controls := farmpg.NewControlRepository(db)
	bus := events.NewBus()

	svc := farm.New(idp, devices, sensors, readings, thresholds, controls, publisher)
	svc = farmapi.LoggingMiddleware(svc, logger)
	counter, latency := internal.MakeMetrics(svcName, "api")
	svc = farmapi.MetricsMiddleware(svc, counter, latency)

	pipeline := ingest.New(idp, devices, sensors, readings, thresholds, bus, publisher, logger)
	pipeline = ingestapi.LoggingMiddleware(pipeline, logger)
	counter, latency = internal.MakeMetrics(svcName, "ingest")
	pipeline = ingestapi.MetricsMiddleware(pipeline, counter, latency)

	agent := ingest.NewAgent(agentConfig, pipeline, logger)
	g.Go(func() error {
		return agent.Run(ctx)
	})

	httpServerConfig := server.Config{Port: "8000"}
	if err := env.Parse(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err))
		os.Exit(1)
	}

	mux := chi.NewRouter()
	mux.Get("/realtime/{deviceID}", ws.Handler(bus, logger))
	mux.Mount("/", farmapi.MakeHandler(svc))
	hs := httpserver.New(ctx, cancel, svcName, httpServerConfig, mux, logger)

	g.Go(func() error {
		return hs.Start()
	})
	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service terminated: %s", svcName, err))
	}
}

// connectToBroker waits for the broker to come up so that a slow broker
// start never kills the service on boot.
func connectToBroker(cfg ingest.AgentConfig, logger cslog.Logger) (messaging.Publisher, error) {
	notify := func(e error, next time.Duration) {
		logger.Warn(fmt.Sprintf("Broker not ready: %s, next try in %s", e, next))
	}

	var pub messaging.Publisher
	err := backoff.RetryNotify(func() error {
		var err error
		pub, err = mqttpub.NewPublisher(cfg.Address, cfg.ClientID+"-publisher", cfg.Timeout)
		return err
	}, backoff.NewExponentialBackOff(), notify)

	return pub, err
}
