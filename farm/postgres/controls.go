// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

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

var _ farm.ControlRepository = (*controlRepository)(nil)

type controlRepository struct {
	db *sqlx.DB
}

// NewControlRepository instantiates a PostgreSQL implementation of control
// log repository.
func NewControlRepository(db *sqlx.DB) farm.ControlRepository {
	return &controlRepository{db: db}
}

func (repo *controlRepository) Save(ctx context.Context, log farm.ControlLog) (farm.ControlLog, error) {
	q := `INSERT INTO control_logs (id, device_id, command, desired_state, issued_by, ts, result)
		VALUES (:id, :device_id, :command, :desired_state, :issued_by, :ts, :result)
		RETURNING id, device_id, command, desired_state, issued_by, ts, result`

	row, err := repo.db.NamedQueryContext(ctx, q, toDBControlLog(log))
	if err != nil {
		return farm.ControlLog{}, postgres.HandleError(errors.ErrCreateEntity, err)
	}
	defer row.Close()

	if !row.Next() {
		return farm.ControlLog{}, errors.ErrCreateEntity
	}
	dbl := dbControlLog{}
	if err := row.StructScan(&dbl); err != nil {
		return farm.ControlLog{}, errors.Wrap(errors.ErrCreateEntity, err)
	}

	return toControlLog(dbl), nil
}

type dbControlLog struct {
	ID           string         `db:"id"`
	DeviceID     string         `db:"device_id"`
	Command      string         `db:"command"`
	DesiredState sql.NullString `db:"desired_state"`
	IssuedBy     string         `db:"issued_by"`
	Ts           time.Time      `db:"ts"`
	Result       sql.NullString `db:"result"`
}

func toDBControlLog(log farm.ControlLog) dbControlLog {
	return dbControlLog{
		ID:           log.ID,
		DeviceID:     log.DeviceID,
		Command:      log.Command,
		DesiredState: nullString(log.DesiredState),
		IssuedBy:     log.IssuedBy,
		Ts:           log.Ts,
		Result:       nullString(log.Result),
	}
}

func toControlLog(dbl dbControlLog) farm.ControlLog {
	return farm.ControlLog{
		ID:           dbl.ID,
		DeviceID:     dbl.DeviceID,
		Command:      dbl.Command,
		DesiredState: dbl.DesiredState.String,
		IssuedBy:     dbl.IssuedBy,
		Ts:           dbl.Ts,
		Result:       dbl.Result.String,
	}
}
