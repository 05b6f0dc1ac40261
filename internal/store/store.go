// Package store holds the postgres repositories behind the pickup services.
//
// Get* methods return a NOT_FOUND error when the row is missing; Find*
// methods return nil without an error.
package store

import (
	"database/sql"
	"errors"

	apperrors "school-pickup/internal/common/errors"
)

func queryErr(op string, err error) error {
	return apperrors.NewQueryExecutionFailedError(op, err)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
