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

var _ farm.SensorRepository = (*sensorRepository)(nil)

type sensorRepository struct {
	db *sqlx.DB
}

// NewSensorRepository instantiates a PostgreSQL implementation of sensor
// repository.
func NewSensorRepository(db *sqlx.DB) farm.SensorRepository {
	return &sensorRepository{db: db}
}

func (repo *sensorRepository) Save(ctx context.Context, sensor farm.Sensor) (farm.Sensor, error) {
	q := `INSERT INTO sensors (id, sensor_id, type, unit, device_id)
		VALUES (:id, :sensor_id, :type, :unit, :device_id)
		RETURNING id, sensor_id, type, unit, device_id`

	row, err := repo.db.NamedQueryContext(ctx, q, toDBSensor(sensor))
	if err != nil {
		return farm.Sensor{}, postgres.HandleError(errors.ErrCreateEntity, err)
	}
	defer row.Close()

	if !row.Next() {
		return farm.Sensor{}, errors.ErrCreateEntity
	}
	dbs := dbSensor{}
	if err := row.StructScan(&dbs); err != nil {
		return farm.Sensor{}, errors.Wrap(errors.ErrCreateEntity, err)
	}

	return toSensor(dbs), nil
}

func (repo *sensorRepository) RetrieveBySensorID(ctx context.Context, sensorID string) (farm.Sensor, error) {
	q := `SELECT id, sensor_id, type, unit, device_id FROM sensors WHERE sensor_id = :sensor_id`

	row, err := repo.db.NamedQueryContext(ctx, q, dbSensor{SensorID: sensorID})
	if err != nil {
		return farm.Sensor{}, postgres.HandleError(errors.ErrViewEntity, err)
	}
	defer row.Close()

	if !row.Next() {
		return farm.Sensor{}, errors.ErrNotFound
	}
	dbs := dbSensor{}
	if err := row.StructScan(&dbs); err != nil {
		return farm.Sensor{}, errors.Wrap(errors.ErrViewEntity, err)
	}

	return toSensor(dbs), nil
}

func (repo *sensorRepository) RetrieveByDevice(ctx context.Context, deviceID string) ([]farm.Sensor, error) {
	q := `SELECT id, sensor_id, type, unit, device_id FROM sensors WHERE device_id = :device_id ORDER BY sensor_id`

	rows, err := repo.db.NamedQueryContext(ctx, q, dbSensor{DeviceID: deviceID})
	if err != nil {
		return nil, postgres.HandleError(errors.ErrViewEntity, err)
	}
	defer rows.Close()

	sensors := []farm.Sensor{}
	for rows.Next() {
		dbs := dbSensor{}
		if err := rows.StructScan(&dbs); err != nil {
			return nil, errors.Wrap(errors.ErrViewEntity, err)
		}
		sensors = append(sensors, toSensor(dbs))
	}

	return sensors, rows.Err()
}

type dbSensor struct {
	ID       string         `db:"id"`
	SensorID string         `db:"sensor_id"`
	Type     string         `db:"type"`
	Unit     sql.NullString `db:"unit"`
	DeviceID string         `db:"device_id"`
}

func toDBSensor(sensor farm.Sensor) dbSensor {
	return dbSensor{
		ID:       sensor.ID,
		SensorID: sensor.SensorID,
		Type:     sensor.Type,
		Unit:     nullString(sensor.Unit),
		DeviceID: sensor.DeviceID,
	}
}

func toSensor(dbs dbSensor) farm.Sensor {
	return farm.Sensor{
		ID:       dbs.ID,
		SensorID: dbs.SensorID,
		Type:     dbs.Type,
		Unit:     dbs.Unit.String,
		DeviceID: dbs.DeviceID,
	}
}
