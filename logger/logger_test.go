// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package logger_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/cropsync/cropsync/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	value []byte
}

func (writer *mockWriter) Write(p []byte) (int, error) {
	writer.value = p
	return len(p), nil
}

type logMsg struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Ts      string `json:"ts"`
}

func (writer *mockWriter) read() (logMsg, error) {
	var output logMsg
	err := json.Unmarshal(writer.value, &output)
	return output, err
}

func TestNew(t *testing.T) {
	cases := []struct {
		desc  string
		level string
		err   error
	}{
		{"debug level", "debug", nil},
		{"info level", "info", nil},
		{"warn level", "warn", nil},
		{"error level", "error", nil},
		{"mixed case level", "INFO", nil},
		{"unknown level", "trace", logger.ErrInvalidLogLevel},
	}

	for _, tc := range cases {
		_, err := logger.New(&mockWriter{}, tc.level)
		assert.Equal(t, tc.err, err, fmt.Sprintf("%s: expected %v got %v", tc.desc, tc.err, err))
	}
}

func TestLevelFiltering(t *testing.T) {
	writer := &mockWriter{}
	log, err := logger.New(writer, "warn")
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))

	log.Info("info message")
	assert.Empty(t, writer.value, "info must be filtered out on warn level")

	log.Warn("warn message")
	output, err := writer.read()
	require.Nil(t, err, fmt.Sprintf("unexpected error: %s", err))
	assert.Equal(t, "warn", output.Level)
	assert.Equal(t, "warn message", output.Message)
	assert.NotEmpty(t, output.Ts, "expected non empty timestamp")
}

func TestLogOutput(t *testing.T) {
	cases := []struct {
		desc string
		log  func(logger.Logger, string)
		want string
	}{
		{"debug", logger.Logger.Debug, "debug"},
		{"info", logger.Logger.Info, "info"},
		{"warn", logger.Logger.Warn, "warn"},
		{"error", logger.Logger.Error, "error"},
	}

	for _, tc := range cases {
		writer := &mockWriter{}
		log, err := logger.New(writer, "debug")
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error: %s", tc.desc, err))

		tc.log(log, tc.desc+" message")
		output, err := writer.read()
		require.Nil(t, err, fmt.Sprintf("%s: unexpected error: %s", tc.desc, err))
		assert.Equal(t, tc.want, output.Level, fmt.Sprintf("%s: expected level %s got %s", tc.desc, tc.want, output.Level))
		assert.Equal(t, tc.desc+" message", output.Message)
	}
}
