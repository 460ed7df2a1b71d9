// Copyright (c) CropSync
// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"github.com/cropsync/cropsync/pkg/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// HandleError translates driver errors into domain errors, falling back to
// wrapping with the given operation error.
func HandleError(wrapper, err error) error {
	pqErr, ok := err.(*pgconn.PgError)
	if ok {
		switch pqErr.Code {
		case pgerrcode.UniqueViolation:
			return errors.Wrap(errors.ErrConflict, err)
		case pgerrcode.InvalidTextRepresentation, pgerrcode.StringDataRightTruncationDataException:
			return errors.Wrap(errors.ErrMalformedEntity, err)
		case pgerrcode.ForeignKeyViolation:
			return errors.Wrap(errors.ErrCreateEntity, err)
		}
	}

	return errors.Wrap(wrapper, err)
}
