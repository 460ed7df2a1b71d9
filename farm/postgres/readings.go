// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cropsync/cropsync/farm"
	"github.com/cropsync/cropsync/pkg/errors"
	"github.com/cropsync/cropsync/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

var _ farm.ReadingRepository = (*readingRepository)(nil)

type readingRepository struct {
	db *sqlx.DB
}

// NewReadingRepository instantiates a PostgreSQL implementation of reading
// repository.
func NewReadingRepository(db *sqlx.DB) farm.ReadingRepository {
	return &readingRepository{db: db}
}

func (repo *readingRepository) Save(ctx context.Context, reading farm.Reading) (farm.Reading, error) {
	q := `INSERT INTO sensor_readings (id, sensor_id, ts, value_numeric, value_text)
		VALUES (:id, :sensor_id, :ts, :value_numeric, :value_text)
		RETURNING id, sensor_id, ts, value_numeric, value_text`

	row, err := repo.db.NamedQueryContext(ctx, q, toDBReading(reading))
	if err != nil {
		return farm.Reading{}, postgres.HandleError(errors.ErrCreateEntity, err)
	}
	defer row.Close()

	if !row.Next() {
		return farm.Reading{}, errors.ErrCreateEntity
	}
	dbr := dbReading{}
	if err := row.StructScan(&dbr); err != nil {
		return farm.Reading{}, errors.Wrap(errors.ErrCreateEntity, err)
	}

	return toReading(dbr), nil
}

func (repo *readingRepository) RetrieveLatest(ctx context.Context, sensorID string) (farm.Reading, error) {
	q := `SELECT id, sensor_id, ts, value_numeric, value_text FROM sensor_readings
		WHERE sensor_id = :sensor_id ORDER BY ts DESC LIMIT 1`

	row, err := repo.db.NamedQueryContext(ctx, q, dbReading{SensorID: sensorID})
	if err != nil {
		return farm.Reading{}, postgres.HandleError(errors.ErrViewEntity, err)
	}
	defer row.Close()

	if !row.Next() {
		return farm.Reading{}, errors.ErrNotFound
	}
	dbr := dbReading{}
	if err := row.StructScan(&dbr); err != nil {
		return farm.Reading{}, errors.Wrap(errors.ErrViewEntity, err)
	}

	return toReading(dbr), nil
}

func (repo *readingRepository) RetrieveHistory(ctx context.Context, sensorID string, pm farm.PageMetadata) ([]farm.Reading, error) {
	filter := ""
	if pm.Before != nil {
		filter = "AND ts < :before"
	}
	q := fmt.Sprintf(`SELECT id, sensor_id, ts, value_numeric, value_text FROM sensor_readings
		WHERE sensor_id = :sensor_id %s ORDER BY ts DESC LIMIT :limit`, filter)

	params := map[string]interface{}{
		"sensor_id": sensorID,
		"limit":     pm.Limit,
	}
	if pm.Before != nil {
		params["before"] = *pm.Before
	}

	rows, err := repo.db.NamedQueryContext(ctx, q, params)
	if err != nil {
		return nil, postgres.HandleError(errors.ErrViewEntity, err)
	}
	defer rows.Close()

	readings := []farm.Reading{}
	for rows.Next() {
		dbr := dbReading{}
		if err := rows.StructScan(&dbr); err != nil {
			return nil, errors.Wrap(errors.ErrViewEntity, err)
		}
		readings = append(readings, toReading(dbr))
	}

	return readings, rows.Err()
}

type dbReading struct {
	ID           string          `db:"id"`
	SensorID     string          `db:"sensor_id"`
	Ts           time.Time       `db:"ts"`
	ValueNumeric sql.NullFloat64 `db:"value_numeric"`
	ValueText    sql.NullString  `db:"value_text"`
}

func toDBReading(reading farm.Reading) dbReading {
	dbr := dbReading{
		ID:           reading.ID,
		SensorID:     reading.SensorID,
		Ts:           reading.Ts,
		ValueNumeric: nullFloat(reading.ValueNumeric),
	}
	if reading.ValueText != nil {
		dbr.ValueText = sql.NullString{String: *reading.ValueText, Valid: true}
	}

	return dbr
}

func toReading(dbr dbReading) farm.Reading {
	reading := farm.Reading{
		ID:           dbr.ID,
		SensorID:     dbr.SensorID,
		Ts:           dbr.Ts,
		ValueNumeric: fromNullFloat(dbr.ValueNumeric),
	}
	if dbr.ValueText.Valid {
		text := dbr.ValueText.String
		reading.ValueText = &text
	}

	return reading
}
