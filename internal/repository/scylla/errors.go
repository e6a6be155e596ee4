package scylla

import (
	"context"
	"errors"

	"github.com/gocql/gocql"

	"ecommerce_back_end/internal/apperr"
)

// maxCASAttempts borne les boucles compare-and-set sous forte contention.
const maxCASAttempts = 32

// translate convertit une erreur du driver en erreur applicative.
func translate(op, entity string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gocql.ErrNotFound) {
		return apperr.NotFound(entity)
	}
	if unavailable(err) {
		return apperr.StoreUnavailable(op, err)
	}
	return apperr.Internal(op, err)
}

func unavailable(err error) bool {
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, gocql.ErrTimeoutNoResponse),
		errors.Is(err, gocql.ErrNoConnections),
		errors.Is(err, gocql.ErrConnectionClosed),
		errors.Is(err, gocql.ErrSessionClosed):
		return true
	}

	var reqErr gocql.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.Code() {
		case gocql.ErrCodeUnavailable, gocql.ErrCodeOverloaded, gocql.ErrCodeWriteTimeout, gocql.ErrCodeReadTimeout:
			return true
		}
	}
	return false
}

func contention(op string) error {
	return apperr.StoreUnavailable(op, errors.New("trop de conflits concurrents"))
}
