package database

import (
	"context"
	"database/sql"
	"embed"
	"log"
	"net/url"
	"path"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/erise-club/website/core"
)

//go:embed migrations
var migrationsFS embed.FS

var pingInterval = 100 * time.Millisecond // mockable

// message of database/sql's unexported error for calls on a closed *sql.DB
const dbClosedMsg = "sql: database is closed"

// CheckConn turns the errors of a store that can no longer serve into core shutdown errors.
func CheckConn(err error) error {
	if err == nil {
		return nil
	}
	if cause := errors.Cause(err); cause == sql.ErrConnDone || cause.Error() == dbClosedMsg {
		return core.NewShutdownError("database unavailable", err)
	}
	return err
}

func dataSourceName(conf core.DatabaseConfig) string {
	if !conf.IsPostgres() {
		q := make(url.Values)
		q.Set("_foreign_keys", "on")
		q.Set("_busy_timeout", "5000")
		return "file:" + conf.Path + "?" + q.Encode()
	}

	sslMode := "require"
	if conf.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(conf.User, conf.Password),
		Host:     conf.Address(),
		Path:     conf.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open connects to the configured database and waits for it to answer.
// A missing SQLite file is created.
func Open(conf core.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(conf.Engine, dataSourceName(conf))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if !conf.IsPostgres() {
		// SQLite serialises writers anyway; one connection avoids "database is locked".
		db.SetMaxOpenConns(1)
	}

	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * pingInterval)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// StatementBuilder returns a squirrel builder using the placeholders of the driver.
func StatementBuilder(driverName string) sq.StatementBuilderType {
	if driverName == "postgres" {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

func setupGoose(driverName string, logger goose.Logger) (string, error) {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(logger)
	// driver names double as goose dialects
	if err := goose.SetDialect(driverName); err != nil {
		return "", errors.Wrap(err, "setting migrations dialect")
	}
	return path.Join("migrations", driverName), nil
}

// Migrate applies every pending migration.
func Migrate(db *sqlx.DB) error {
	dir, err := setupGoose(db.DriverName(), goose.NopLogger())
	if err != nil {
		return err
	}
	if err = goose.Up(db.DB, dir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigrations runs any goose command (up, down, status, version, redo, reset...),
// reporting progress to `logger`.
func RunMigrations(ctx context.Context, db *sqlx.DB, logger *log.Logger, command string, args ...string) error {
	dir, err := setupGoose(db.DriverName(), logger)
	if err != nil {
		return err
	}
	if err = goose.RunContext(ctx, command, db.DB, dir, args...); err != nil {
		return errors.Wrapf(err, "running migrations %q", command)
	}
	return nil
}
