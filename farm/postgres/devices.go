// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

// Package postgres contains repository implementations using PostgreSQL as
// the underlying database.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cropsync/cropsync/farm"
	"github.com/cropsync/cropsync/pkg/errors"
	"github.com/cropsync/cropsync/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

var _ farm.DeviceRepository = (*deviceRepository)(nil)

type deviceRepository struct {
	db *sqlx.DB
}

// NewDeviceRepository instantiates a PostgreSQL implementation of device
// repository.
func NewDeviceRepository(db *sqlx.DB) farm.DeviceRepository {
	return &deviceRepository{db: db}
}

func (repo *deviceRepository) Save(ctx context.Context, device farm.Device) (farm.Device, error) {
	q := `INSERT INTO devices (id, device_id, type, location, status, last_seen_at)
		VALUES (:id, :device_id, :type, :location, :status, :last_seen_at)
		RETURNING id, device_id, type, location, status, last_seen_at`

	row, err := repo.db.NamedQueryContext(ctx, q, toDBDevice(device))
	if err != nil {
		return farm.Device{}, postgres.HandleError(errors.ErrCreateEntity, err)
	}
	defer row.Close()

	if !row.Next() {
		return farm.Device{}, errors.ErrCreateEntity
	}
	dbd := dbDevice{}
	if err := row.StructScan(&dbd); err != nil {
		return farm.Device{}, errors.Wrap(errors.ErrCreateEntity, err)
	}

	return toDevice(dbd), nil
}

func (repo *deviceRepository) RetrieveByDeviceID(ctx context.Context, deviceID string) (farm.Device, error) {
	q := `SELECT id, device_id, type, location, status, last_seen_at FROM devices WHERE device_id = :device_id`

	row, err := repo.db.NamedQueryContext(ctx, q, dbDevice{DeviceID: deviceID})
	if err != nil {
		return farm.Device{}, postgres.HandleError(errors.ErrViewEntity, err)
	}
	defer row.Close()

	if !row.Next() {
		return farm.Device{}, errors.ErrNotFound
	}
	dbd := dbDevice{}
	if err := row.StructScan(&dbd); err != nil {
		return farm.Device{}, errors.Wrap(errors.ErrViewEntity, err)
	}

	return toDevice(dbd), nil
}

func (repo *deviceRepository) RetrieveAll(ctx context.Context) ([]farm.Device, error) {
	q := `SELECT id, device_id, type, location, status, last_seen_at FROM devices ORDER BY device_id`

	rows, err := repo.db.QueryxContext(ctx, q)
	if err != nil {
		return nil, postgres.HandleError(errors.ErrViewEntity, err)
	}
	defer rows.Close()

	devices := []farm.Device{}
	for rows.Next() {
		dbd := dbDevice{}
		if err := rows.StructScan(&dbd); err != nil {
			return nil, errors.Wrap(errors.ErrViewEntity, err)
		}
		devices = append(devices, toDevice(dbd))
	}

	return devices, rows.Err()
}

func (repo *deviceRepository) UpdateLiveness(ctx context.Context, deviceID, status string, seenAt time.Time) error {
	q := `UPDATE devices SET status = :status, last_seen_at = :last_seen_at WHERE device_id = :device_id`

	dbd := dbDevice{
		DeviceID:   deviceID,
		Status:     status,
		LastSeenAt: sql.NullTime{Time: seenAt, Valid: true},
	}
	res, err := repo.db.NamedExecContext(ctx, q, dbd)
	if err != nil {
		return postgres.HandleError(errors.ErrUpdateEntity, err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return errors.ErrNotFound
	}

	return nil
}

type dbDevice struct {
	ID         string         `db:"id"`
	DeviceID   string         `db:"device_id"`
	Type       sql.NullString `db:"type"`
	Location   sql.NullString `db:"location"`
	Status     string         `db:"status"`
	LastSeenAt sql.NullTime   `db:"last_seen_at"`
}

func toDBDevice(device farm.Device) dbDevice {
	dbd := dbDevice{
		ID:       device.ID,
		DeviceID: device.DeviceID,
		Type:     nullString(device.Type),
		Location: nullString(device.Location),
		Status:   device.Status,
	}
	if device.LastSeenAt != nil {
		dbd.LastSeenAt = sql.NullTime{Time: *device.LastSeenAt, Valid: true}
	}

	return dbd
}

func toDevice(dbd dbDevice) farm.Device {
	device := farm.Device{
		ID:       dbd.ID,
		DeviceID: dbd.DeviceID,
		Type:     dbd.Type.String,
		Location: dbd.Location.String,
		Status:   dbd.Status,
	}
	if dbd.LastSeenAt.Valid {
		seenAt := dbd.LastSeenAt.Time
		device.LastSeenAt = &seenAt
	}

	return device
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}

	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: *f, Valid: true}
}

func fromNullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64

	return &f
}
