// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

// Package logger contains a leveled JSON logger used by all CropSync
// services.
package logger

import (
	"io"

	kitlog "github.com/go-kit/log"
)

// Logger specifies logging API.
type Logger interface {
	// Debug logs any object in JSON format on debug level.
	Debug(string)
	// Info logs any object in JSON format on info level.
	Info(string)
	// Warn logs any object in JSON format on warning level.
	Warn(string)
	// Error logs any object in JSON format on error level.
	Error(string)
}

var _ Logger = (*logger)(nil)

type logger struct {
	kitLogger kitlog.Logger
	level     Level
}

// New returns wrapped go kit logger.
func New(out io.Writer, levelText string) (Logger, error) {
	var level Level
	if err := level.UnmarshalText(levelText); err != nil {
		return nil, err
	}

	l := kitlog.NewJSONLogger(kitlog.NewSyncWriter(out))
	l = kitlog.With(l, "ts", kitlog.DefaultTimestampUTC)
	return &logger{l, level}, nil
}

func (l logger) Debug(msg string) {
	l.log(Debug, msg)
}

func (l logger) Info(msg string) {
	l.log(Info, msg)
}

func (l logger) Warn(msg string) {
	l.log(Warn, msg)
}

func (l logger) Error(msg string) {
	l.log(Error, msg)
}

func (l logger) log(level Level, msg string) {
	if level.isAllowed(l.level) {
		_ = l.kitLogger.Log("level", level.String(), "message", msg)
	}
}
