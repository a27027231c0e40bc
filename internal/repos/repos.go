package repos

import (
	"errors"

	"gorm.io/gorm"
)

// ErrDatabaseUnavailable reports that neither a transaction nor a database
// handle exists for the operation. The app deliberately comes up without a
// primary database when the connection fails; repos surface that as an error
// instead of dereferencing a nil handle.
var ErrDatabaseUnavailable = errors.New("primary database unavailable")

// conn picks the transaction when present, the repo's own handle otherwise.
func conn(tx, db *gorm.DB) (*gorm.DB, error) {
	if tx != nil {
		return tx, nil
	}
	if db != nil {
		return db, nil
	}
	return nil, ErrDatabaseUnavailable
}
