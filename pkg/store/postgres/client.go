package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/oiime/logrusbun"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/cardledger/cardledger/pkg/models"
)

// gen_random_uuid() column defaults require Postgres 13+.
const minPostgresVersion = "13.0.0"

// NewPostgresConn creates a new bun.DB connection to a postgres database
// using the configured DSN. The connection is configured to pool connections
// based on the number of PROCs available.
func NewPostgresConn(appState *models.AppState) (*bun.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dsn := appState.Config.Store.Postgres.DSN
	if dsn == "" {
		return nil, errors.New("store.postgres.dsn must be set")
	}

	maxOpenConns := 4 * runtime.GOMAXPROCS(0)

	// WithReadTimeout is 10 minutes to avoid timeouts when creating indexes.
	sqldb := sql.OpenDB(
		pgdriver.NewConnector(
			pgdriver.WithDSN(dsn),
			pgdriver.WithReadTimeout(10*time.Minute),
		),
	)
	sqldb.SetMaxOpenConns(maxOpenConns)
	sqldb.SetMaxIdleConns(maxOpenConns)

	db := bun.NewDB(sqldb, pgdialect.New())

	if appState.Config.Log.Level == "debug" {
		pgDebugLogging(db)
	}

	// The database may still be coming up when a deploy starts. Retry the
	// initial ping with backoff before giving up.
	pingRetryPolicy := retrypolicy.Builder[any]().
		WithBackoff(500*time.Millisecond, 10*time.Second).
		WithMaxRetries(5).
		Build()

	_, err := failsafe.Get(func() (any, error) {
		return nil, db.PingContext(ctx)
	}, pingRetryPolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := checkPostgresVersion(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}

func pgDebugLogging(db *bun.DB) {
	db.AddQueryHook(logrusbun.NewQueryHook(logrusbun.QueryHookOptions{
		LogSlow:         time.Second,
		Logger:          log,
		QueryLevel:      logrus.DebugLevel,
		ErrorLevel:      logrus.ErrorLevel,
		SlowLevel:       logrus.WarnLevel,
		MessageTemplate: "{{.Operation}}[{{.Duration}}]: {{.Query}}",
		ErrorTemplate:   "{{.Operation}}[{{.Duration}}]: {{.Query}}: {{.Error}}",
	}))
}

// checkPostgresVersion verifies the server is new enough for the schema's
// column defaults.
func checkPostgresVersion(ctx context.Context, db *bun.DB) error {
	requiredVersion, err := semver.NewVersion(minPostgresVersion)
	if err != nil {
		return fmt.Errorf("error parsing required postgres version: %w", err)
	}

	var version string
	err = db.NewSelect().
		ColumnExpr("current_setting('server_version')").
		Scan(ctx, &version)
	if err != nil {
		return fmt.Errorf("error checking postgres server version: %w", err)
	}

	thisVersion, err := parseServerVersion(version)
	if err != nil {
		return err
	}

	if requiredVersion.GreaterThan(thisVersion) {
		return fmt.Errorf(
			"postgres server version is %s. version %s or later is required",
			thisVersion,
			requiredVersion,
		)
	}

	return nil
}

// parseServerVersion parses the value of current_setting('server_version'),
// which may carry a distro suffix, e.g. "15.4 (Debian 15.4-1)".
func parseServerVersion(version string) (*semver.Version, error) {
	fields := strings.Fields(version)
	if len(fields) == 0 {
		return nil, fmt.Errorf("error parsing postgres server version %q: empty version string", version)
	}

	parsed, err := semver.NewVersion(fields[0])
	if err != nil {
		return nil, fmt.Errorf("error parsing postgres server version %q: %w", version, err)
	}

	return parsed, nil
}
