// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

// Package mqtt provides an MQTT implementation of the messaging Publisher.
package mqtt

import (
	"context"
	"time"

	"github.com/cropsync/cropsync/pkg/errors"
	"github.com/cropsync/cropsync/pkg/messaging"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const qos = 1

var (
	// ErrConnect indicates that connection to MQTT broker failed.
	ErrConnect = errors.New("failed to connect to MQTT broker")

	errEmptyTopic     = errors.New("empty topic")
	errPublishTimeout = errors.New("failed to publish due to timeout reached")
)

var _ messaging.Publisher = (*publisher)(nil)

type publisher struct {
	client  mqtt.Client
	timeout time.Duration
}

// NewPublisher returns a new MQTT message publisher.
func NewPublisher(address, id string, timeout time.Duration) (messaging.Publisher, error) {
	client, err := newClient(address, id, timeout)
	if err != nil {
		return nil, err
	}

	ret := publisher{
		client:  client,
		timeout: timeout,
	}
	return ret, nil
}

func (pub publisher) Publish(ctx context.Context, topic string, payload []byte, retained bool) error {
	if topic == "" {
		return errEmptyTopic
	}
	token := pub.client.Publish(topic, qos, retained, payload)
	if token.Error() != nil {
		return token.Error()
	}
	if ok := token.WaitTimeout(pub.timeout); !ok {
		return errPublishTimeout
	}

	return token.Error()
}

func (pub publisher) Close() error {
	pub.client.Disconnect(uint(pub.timeout.Milliseconds()))
	return nil
}

func newClient(address, id string, timeout time.Duration) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(address).SetClientID(id)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Error() != nil {
		return nil, token.Error()
	}

	if ok := token.WaitTimeout(timeout); !ok {
		return nil, ErrConnect
	}

	return client, token.Error()
}
