package repository

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrStaleWrite is returned when a versioned row changed since it was read.
var ErrStaleWrite = errors.New("stale write")

// expectVersioned turns a zero-row versioned update into ErrStaleWrite.
func expectVersioned(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrStaleWrite)
	}
	return nil
}
