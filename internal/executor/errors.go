package executor

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	apperrors "github.com/anyx-app/secudash-43b2ee93/pkg/errors"
)

// classify maps driver errors onto HTTP-facing application errors.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.New(http.StatusGatewayTimeout, "query timed out", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505" || pgErr.Code == "23503":
			return apperrors.New(http.StatusConflict, pgErr.Message, err)
		case strings.HasPrefix(pgErr.Code, "23"), strings.HasPrefix(pgErr.Code, "22"):
			// integrity (not null, check) and data exceptions
			return apperrors.New(http.StatusBadRequest, pgErr.Message, err)
		}
		return apperrors.Internal(err)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return apperrors.New(http.StatusConflict, sqliteMessage(liteErr), err)
		}
		if liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return apperrors.New(http.StatusBadRequest, sqliteMessage(liteErr), err)
		}
		return apperrors.Internal(err)
	}

	return apperrors.From(err)
}

// sqliteMessage strips the "constraint failed: " prefix and the trailing
// "(code)" the driver adds.
func sqliteMessage(err *sqlite.Error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, " ("); i > 0 {
		msg = msg[:i]
	}
	if i := strings.Index(msg, ": "); i > 0 {
		msg = msg[i+2:]
	}
	return msg
}
