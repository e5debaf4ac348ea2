package database

import (
	"embed"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/mitchfriedman/soirees/lib/logging"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema of d up to date.
func Migrate(d *DB, logger logging.StructuredLogger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(logger)

	if err := goose.SetDialect(d.Dialect()); err != nil {
		return errors.Wrap(err, "failed to set migration dialect")
	}

	if err := goose.Up(d.Master.DB(), "migrations"); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}

	return nil
}
