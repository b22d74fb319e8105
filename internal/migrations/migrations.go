package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/sbilibin2017/gw-user-auth/internal/logger"
)

// Migrations holds the embedded SQL migration files.
//
//go:embed *.sql
var Migrations embed.FS

// Up applies all pending migrations. Running it against an already
// migrated database is a no-op.
func Up(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(Migrations)
	goose.SetLogger(gooseLogger{})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Log.Infow("migrations applied", "version", version)
	return nil
}

// gooseLogger routes goose output to the service logger.
type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	logger.Log.Fatalf(format, v...)
}

func (gooseLogger) Printf(format string, v ...interface{}) {
	logger.Log.Infof(format, v...)
}
