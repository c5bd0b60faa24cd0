// Package repository holds the SQL data access layer.  Every repository
// wraps a *sql.DB; methods that must join a caller's transaction take a
// *sql.Tx and carry a Tx suffix.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by key matches no row.  Handlers
// translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique key
// (MySQL error 1062).
var ErrDuplicate = errors.New("duplicate entry")

// ErrConflict is returned when a delete cannot proceed because dependent
// rows still reference the record (MySQL error 1451).
var ErrConflict = errors.New("conflict")

const (
	mysqlDupEntry      = 1062
	mysqlRowReferenced = 1451
	mysqlNoParentRow   = 1452
)

// translate maps driver errors onto the sentinels above.  An insert that
// references a missing parent row reports ErrNotFound.  Other errors are
// returned unchanged.
func translate(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDupEntry:
			return ErrDuplicate
		case mysqlRowReferenced:
			return ErrConflict
		case mysqlNoParentRow:
			return ErrNotFound
		}
	}
	return err
}
