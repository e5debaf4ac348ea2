package client

import (
	"context"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"

	database "github.com/mitchfriedman/soirees/lib/db"
	"github.com/mitchfriedman/soirees/lib/tracing"
)

type DatabaseStorage struct {
	db  *database.DB
	now func() time.Time
}

func NewDatabaseStorage(db *database.DB) *DatabaseStorage {
	return &DatabaseStorage{db: db, now: time.Now}
}

func (d *DatabaseStorage) List(ctx context.Context) ([]*Client, error) {
	span, db, _ := tracing.NewDBSpan(ctx, d.db.Reader, "clients.list")
	defer span.Finish()

	all := []*Client{}
	if err := db.Order("created_at asc").Find(&all).Error; err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to list clients")
	}
	return all, nil
}

func (d *DatabaseStorage) Get(ctx context.Context, id string) (*Client, error) {
	span, db, _ := tracing.NewDBSpan(ctx, d.db.Reader, "clients.get")
	defer span.Finish()

	var c Client
	err := db.Where("id = ?", id).First(&c).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrapf(err, "failed to get client %s", id)
	}
	return &c, nil
}

func (d *DatabaseStorage) Create(ctx context.Context, c *Client) error {
	span, db, _ := tracing.NewDBSpan(ctx, d.db.Master, "clients.create")
	defer span.Finish()

	c.prepare(d.now().UTC())
	if err := db.Create(c).Error; err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to create client")
	}
	return nil
}

func (d *DatabaseStorage) Update(ctx context.Context, id string, patch Patch) (*Client, error) {
	c, err := d.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	span, db, _ := tracing.NewDBSpan(ctx, d.db.Master, "clients.update")
	defer span.Finish()

	c.Apply(patch, d.now().UTC())
	if err := db.Save(c).Error; err != nil {
		span.RecordError(err)
		return nil, errors.Wrapf(err, "failed to update client %s", id)
	}
	return c, nil
}

func (d *DatabaseStorage) Delete(ctx context.Context, id string) error {
	span, db, _ := tracing.NewDBSpan(ctx, d.db.Master, "clients.delete")
	defer span.Finish()

	res := db.Where("id = ?", id).Delete(&Client{})
	if res.Error != nil {
		span.RecordError(res.Error)
		return errors.Wrapf(res.Error, "failed to delete client %s", id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
