package database

import (
	"fmt"
	"strings"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/pkg/errors"

	"github.com/mitchfriedman/soirees/lib/logging"
	"github.com/mitchfriedman/soirees/lib/tracing"
)

type DB struct {
	Master *gorm.DB
	Reader *gorm.DB

	dialect string
}

func (d *DB) Close() error {
	if err := d.Master.Close(); err != nil {
		return errors.Wrap(err, "failed to close master")
	}

	if d.Reader == d.Master {
		return nil
	}

	if err := d.Reader.Close(); err != nil {
		return errors.Wrap(err, "failed to close reader")
	}

	return nil
}

// Dialect is the gorm dialect of the connection ("postgres" or "sqlite3").
func (d *DB) Dialect() string {
	return d.dialect
}

func configureDBArgs(url string, timeoutMS int) string {
	if strings.HasSuffix(url, "sslmode=disable") {
		url = url + "&"
	} else if !strings.Contains(url, "?") {
		url = url + "?"
	} else if !strings.HasSuffix(url, "?") {
		url = url + "&"
	}

	url = url + fmt.Sprintf("statement_timeout=%d", timeoutMS)

	return url
}

func Connect(masterURL, readerURL string, logQueries bool, logger logging.StructuredLogger) (*DB, error) {
	mURL := configureDBArgs(masterURL, 30000)
	writer, err := gorm.Open("postgres", mURL)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to connect to master Postgres")
	}

	rURL := configureDBArgs(readerURL, 30000)
	reader, err := gorm.Open("postgres", rURL)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to connect to reader Postgres")
	}

	writer.LogMode(logQueries)
	reader.LogMode(logQueries)
	tracing.AddGormCallbacks(writer, logger)
	tracing.AddGormCallbacks(reader, logger)

	return &DB{
		Master:  writer,
		Reader:  reader,
		dialect: "postgres",
	}, nil
}

// OpenSQLite opens a single-connection sqlite database used as both master
// and reader. ":memory:" gives a private database per call.
func OpenSQLite(path string, logQueries bool, logger logging.StructuredLogger) (*DB, error) {
	db, err := gorm.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open sqlite database %s", path)
	}

	// every pooled connection to :memory: would be a distinct database.
	db.DB().SetMaxOpenConns(1)
	db.LogMode(logQueries)
	tracing.AddGormCallbacks(db, logger)

	return &DB{
		Master:  db,
		Reader:  db,
		dialect: "sqlite3",
	}, nil
}
