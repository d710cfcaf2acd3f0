package errx

import (
	"database/sql"
	"errors"
	"net/http"
)

// WrapSQL maps database errors to the unified AppError type.
func WrapSQL(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return New(err, http.StatusNotFound, SQLErrorMessage)
	}

	return New(err, http.StatusBadGateway, SQLErrorMessage)
}
