// Package sqlstore reads edge and node tables from SQL databases and keeps a
// log of finished runs. Postgres (lib/pq) and SQLite (modernc) are supported;
// the driver is chosen from the DSN.
package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"myelinfc/internal/errors"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// ResolveDSN picks the driver for dsn and returns the data source name that
// driver expects
func ResolveDSN(dsn string) (driver, source string, err error) {
	dsn = strings.TrimSpace(dsn)
	lower := strings.ToLower(dsn)
	switch {
	case dsn == "":
		return "", "", errors.ConfigInvalid("database DSN is empty")
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"),
		strings.Contains(lower, "host=") || strings.Contains(lower, "dbname="):
		return DriverPostgres, dsn, nil
	case strings.HasPrefix(lower, "sqlite://"):
		return DriverSQLite, dsn[len("sqlite://"):], nil
	case strings.HasPrefix(lower, "sqlite:"):
		return DriverSQLite, dsn[len("sqlite:"):], nil
	case strings.HasPrefix(lower, "file:"), lower == ":memory:",
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return DriverSQLite, dsn, nil
	}
	return "", "", errors.ConfigInvalid(fmt.Sprintf("cannot infer database driver from DSN %q: use postgres://, sqlite: or a .db path", redact(dsn)))
}

// Open connects to the database named by dsn and verifies the connection
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	driver, source, err := ResolveDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.ConnectContext(ctx, driver, source)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to connect to %s database", driver), err)
	}
	if driver == DriverSQLite {
		// one writer at a time; avoids SQLITE_BUSY on the run log
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// redact hides a password in a URL-style DSN
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return dsn[:scheme+3] + creds[:colon] + ":***" + dsn[at:]
	}
	return dsn
}
