// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package postgres

import migrate "github.com/rubenv/sql-migrate"

// Migration of the farm service.
func Migration() migrate.MemoryMigrationSource {
	return migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "farm_1",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS devices (
                        id           VARCHAR(36)  PRIMARY KEY,
                        device_id    VARCHAR(254) NOT NULL UNIQUE,
                        type         VARCHAR(254),
                        location     VARCHAR(254),
                        status       VARCHAR(20)  NOT NULL DEFAULT 'unknown',
                        last_seen_at TIMESTAMPTZ
                    )`,
					`CREATE TABLE IF NOT EXISTS sensors (
                        id        VARCHAR(36)  PRIMARY KEY,
                        sensor_id VARCHAR(254) NOT NULL UNIQUE,
                        type      VARCHAR(64)  NOT NULL,
                        unit      VARCHAR(32),
                        device_id VARCHAR(36)  NOT NULL REFERENCES devices (id) ON DELETE CASCADE
                    )`,
					`CREATE TABLE IF NOT EXISTS sensor_readings (
                        id            VARCHAR(36) PRIMARY KEY,
                        sensor_id     VARCHAR(36) NOT NULL REFERENCES sensors (id) ON DELETE CASCADE,
                        ts            TIMESTAMPTZ NOT NULL,
                        value_numeric DOUBLE PRECISION,
                        value_text    TEXT
                    )`,
					`CREATE INDEX IF NOT EXISTS idx_sensor_readings_sensor_ts
                        ON sensor_readings (sensor_id, ts DESC)`,
					`CREATE TABLE IF NOT EXISTS thresholds (
                        id              VARCHAR(36) PRIMARY KEY,
                        device_id       VARCHAR(36) NOT NULL REFERENCES devices (id) ON DELETE CASCADE,
                        metric          VARCHAR(64) NOT NULL,
                        min_value       DOUBLE PRECISION,
                        max_value       DOUBLE PRECISION,
                        last_alerted_at TIMESTAMPTZ,
                        UNIQUE (device_id, metric)
                    )`,
					`CREATE TABLE IF NOT EXISTS control_logs (
                        id            VARCHAR(36) PRIMARY KEY,
                        device_id     VARCHAR(36) NOT NULL REFERENCES devices (id) ON DELETE CASCADE,
                        command       VARCHAR(64) NOT NULL,
                        desired_state VARCHAR(64),
                        issued_by     VARCHAR(64) NOT NULL,
                        ts            TIMESTAMPTZ NOT NULL,
                        result        VARCHAR(64)
                    )`,
				},
				Down: []string{
					"DROP TABLE IF EXISTS control_logs",
					"DROP TABLE IF EXISTS thresholds",
					"DROP TABLE IF EXISTS sensor_readings",
					"DROP TABLE IF EXISTS sensors",
					"DROP TABLE IF EXISTS devices",
				},
			},
		},
	}
}
