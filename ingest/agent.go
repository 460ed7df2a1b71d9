// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cropsync/cropsync/logger"
	"github.com/cropsync/cropsync/pkg/errors"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const qos = 1

var (
	errConnectTimeout   = errors.New("failed to connect to MQTT broker due to timeout reached")
	errSubscribeTimeout = errors.New("failed to subscribe due to timeout reached")
)

// topicFilters is the fixed set of subscriptions maintained by the agent:
// one per supported metric kind plus the device status catch-all.
var topicFilters = []string{
	"farm/+/sensor/temperature",
	"farm/+/sensor/humidity",
	"farm/+/sensor/waterflow",
	"farm/+/sensor/waterlevel",
	"farm/+/sensor/tds",
	"farm/+/status",
}

// AgentConfig holds the broker session settings of the agent.
type AgentConfig struct {
	Address           string        `env:"ADDRESS"            envDefault:"tcp://localhost:1883"`
	ClientID          string        `env:"CLIENT_ID"          envDefault:"cropsync-ingest"`
	Timeout           time.Duration `env:"TIMEOUT"            envDefault:"30s"`
	ReconnectInterval time.Duration `env:"RECONNECT_INTERVAL" envDefault:"5s"`
	Workers           int           `env:"WORKERS"            envDefault:"16"`
	QueueSize         int           `env:"QUEUE"              envDefault:"256"`
}

type job struct {
	topic   string
	payload []byte
}

// Agent owns the broker session of the ingestion pipeline. It maintains at
// most one active session, dispatches every inbound message to a bounded
// worker pool so that slow processing never stalls subscription delivery,
// and reconnects with a fixed delay indefinitely on any transport failure.
type Agent struct {
	cfg    AgentConfig
	svc    Service
	logger logger.Logger
	jobs   chan job
}

// NewAgent returns an agent dispatching inbound messages to the given
// pipeline.
func NewAgent(cfg AgentConfig, svc Service, logger logger.Logger) *Agent {
	return &Agent{
		cfg:    cfg,
		svc:    svc,
		logger: logger,
		jobs:   make(chan job, cfg.QueueSize),
	}
}

// Run connects to the broker and processes inbound messages until the
// context is cancelled. Transport failures are never fatal: the agent
// abandons the session, waits the configured interval and retries.
func (a *Agent) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < a.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.work(ctx)
		}()
	}
	defer wg.Wait()

	for {
		if err := a.session(ctx); err != nil {
			a.logger.Warn(fmt.Sprintf("mqtt session failed: %s, retrying in %s", err, a.cfg.ReconnectInterval))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(a.cfg.ReconnectInterval):
		}
	}
}

// session opens one broker session, subscribes to the topic filters and
// blocks until the connection is lost or the context is cancelled.
func (a *Agent) session(ctx context.Context) error {
	a.logger.Info(fmt.Sprintf("mqtt connecting to %s", a.cfg.Address))

	lost := make(chan error, 1)
	opts := mqtt.NewClientOptions().
		AddBroker(a.cfg.Address).
		SetClientID(a.cfg.ClientID).
		SetAutoReconnect(false).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			select {
			case lost <- err:
			default:
			}
		})
	client := mqtt.NewClient(opts)

	token := client.Connect()
	if ok := token.WaitTimeout(a.cfg.Timeout); !ok {
		return errConnectTimeout
	}
	if err := token.Error(); err != nil {
		return err
	}
	defer client.Disconnect(uint(a.cfg.Timeout.Milliseconds()))

	filters := map[string]byte{}
	for _, filter := range topicFilters {
		filters[filter] = qos
	}
	token = client.SubscribeMultiple(filters, func(_ mqtt.Client, msg mqtt.Message) {
		a.dispatch(msg.Topic(), msg.Payload())
	})
	if ok := token.WaitTimeout(a.cfg.Timeout); !ok {
		return errSubscribeTimeout
	}
	if err := token.Error(); err != nil {
		return err
	}
	for _, filter := range topicFilters {
		a.logger.Info(fmt.Sprintf("mqtt subscribed to %s", filter))
	}

	select {
	case <-ctx.Done():
		a.logger.Info("mqtt session closing")
		return nil
	case err := <-lost:
		a.logger.Warn(fmt.Sprintf("mqtt disconnected: %s", err))
		return err
	}
}

// dispatch hands one inbound message to the worker pool. When the queue is
// full the message is dropped: the receive loop must never block on
// processing.
func (a *Agent) dispatch(topic string, payload []byte) {
	select {
	case a.jobs <- job{topic: topic, payload: payload}:
	default:
		a.logger.Warn(fmt.Sprintf("ingest queue full, dropping message on %s", topic))
	}
}

// work drains the job queue until the context is cancelled. The queue is
// never closed: a delivery callback racing with session teardown may still
// enqueue, so workers exit on cancellation instead.
func (a *Agent) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-a.jobs:
			a.handle(ctx, j)
		}
	}
}

func (a *Agent) handle(ctx context.Context, j job) {
	topic := ParseTopic(j.topic)
	switch topic.Kind {
	case TopicStatus:
		if err := a.svc.ForwardStatus(ctx, topic.Device, j.payload); err != nil {
			a.logger.Error(fmt.Sprintf("failed to process status message for device %s: %s", topic.Device, err))
		}
	case TopicTelemetry:
		if err := a.svc.IngestTelemetry(ctx, topic.Device, topic.Metric, j.payload); err != nil {
			a.logger.Error(fmt.Sprintf("failed to ingest message on %s: %s", j.topic, err))
		}
	default:
		// Unrecognized topic shapes are dropped silently.
	}
}
