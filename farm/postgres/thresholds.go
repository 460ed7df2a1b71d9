// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"database/sql"

	"github.com/cropsync/cropsync/farm"
	"github.com/cropsync/cropsync/pkg/errors"
	"github.com/cropsync/cropsync/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

var _ farm.ThresholdRepository = (*thresholdRepository)(nil)

type thresholdRepository struct {
	db *sqlx.DB
}

// NewThresholdRepository instantiates a PostgreSQL implementation of
// threshold repository.
func NewThresholdRepository(db *sqlx.DB) farm.ThresholdRepository {
	return &thresholdRepository{db: db}
}

func (repo *thresholdRepository) Upsert(ctx context.Context, threshold farm.Threshold) (farm.Threshold, error) {
	q := `INSERT INTO thresholds (id, device_id, metric, min_value, max_value)
		VALUES (:id, :device_id, :metric, :min_value, :max_value)
		ON CONFLICT (device_id, metric) DO UPDATE
		SET min_value = EXCLUDED.min_value, max_value = EXCLUDED.max_value
		RETURNING id, device_id, metric, min_value, max_value, last_alerted_at`

	row, err := repo.db.NamedQueryContext(ctx, q, toDBThreshold(threshold))
	if err != nil {
		return farm.Threshold{}, postgres.HandleError(errors.ErrCreateEntity, err)
	}
	defer row.Close()

	if !row.Next() {
		return farm.Threshold{}, errors.ErrCreateEntity
	}
	dbt := dbThreshold{}
	if err := row.StructScan(&dbt); err != nil {
		return farm.Threshold{}, errors.Wrap(errors.ErrCreateEntity, err)
	}

	return toThreshold(dbt), nil
}

func (repo *thresholdRepository) RetrieveByDeviceMetric(ctx context.Context, deviceID, metric string) (farm.Threshold, error) {
	q := `SELECT id, device_id, metric, min_value, max_value, last_alerted_at FROM thresholds
		WHERE device_id = :device_id AND metric = :metric`

	row, err := repo.db.NamedQueryContext(ctx, q, dbThreshold{DeviceID: deviceID, Metric: metric})
	if err != nil {
		return farm.Threshold{}, postgres.HandleError(errors.ErrViewEntity, err)
	}
	defer row.Close()

	if !row.Next() {
		return farm.Threshold{}, errors.ErrNotFound
	}
	dbt := dbThreshold{}
	if err := row.StructScan(&dbt); err != nil {
		return farm.Threshold{}, errors.Wrap(errors.ErrViewEntity, err)
	}

	return toThreshold(dbt), nil
}

func (repo *thresholdRepository) RetrieveByDevice(ctx context.Context, deviceID string) ([]farm.Threshold, error) {
	q := `SELECT id, device_id, metric, min_value, max_value, last_alerted_at FROM thresholds
		WHERE device_id = :device_id ORDER BY metric`

	rows, err := repo.db.NamedQueryContext(ctx, q, dbThreshold{DeviceID: deviceID})
	if err != nil {
		return nil, postgres.HandleError(errors.ErrViewEntity, err)
	}
	defer rows.Close()

	thresholds := []farm.Threshold{}
	for rows.Next() {
		dbt := dbThreshold{}
		if err := rows.StructScan(&dbt); err != nil {
			return nil, errors.Wrap(errors.ErrViewEntity, err)
		}
		thresholds = append(thresholds, toThreshold(dbt))
	}

	return thresholds, rows.Err()
}

type dbThreshold struct {
	ID            string          `db:"id"`
	DeviceID      string          `db:"device_id"`
	Metric        string          `db:"metric"`
	MinValue      sql.NullFloat64 `db:"min_value"`
	MaxValue      sql.NullFloat64 `db:"max_value"`
	LastAlertedAt sql.NullTime    `db:"last_alerted_at"`
}

func toDBThreshold(threshold farm.Threshold) dbThreshold {
	return dbThreshold{
		ID:       threshold.ID,
		DeviceID: threshold.DeviceID,
		Metric:   threshold.Metric,
		MinValue: nullFloat(threshold.MinValue),
		MaxValue: nullFloat(threshold.MaxValue),
	}
}

func toThreshold(dbt dbThreshold) farm.Threshold {
	threshold := farm.Threshold{
		ID:       dbt.ID,
		DeviceID: dbt.DeviceID,
		Metric:   dbt.Metric,
		MinValue: fromNullFloat(dbt.MinValue),
		MaxValue: fromNullFloat(dbt.MaxValue),
	}
	if dbt.LastAlertedAt.Valid {
		alertedAt := dbt.LastAlertedAt.Time
		threshold.LastAlertedAt = &alertedAt
	}

	return threshold
}
