package soiree

import (
	"context"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"

	database "github.com/mitchfriedman/soirees/lib/db"
	"github.com/mitchfriedman/soirees/lib/tracing"
)

type DatabaseStorage struct {
	db           *database.DB
	defaultStyle string
	now          func() time.Time
}

func NewDatabaseStorage(db *database.DB, defaultStyle string) *DatabaseStorage {
	return &DatabaseStorage{db: db, defaultStyle: defaultStyle, now: time.Now}
}

func (d *DatabaseStorage) List(ctx context.Context) (all []*Soiree, err error) {
	span, db, _ := tracing.NewDBSpan(ctx, d.db.Reader, "soirees.list")
	defer func() {
		span.RecordError(err)
		span.Finish()
	}()

	all = []*Soiree{}
	err = db.Order("created_at asc").Find(&all).Error
	return all, errors.Wrap(err, "failed to list soirees")
}

func (d *DatabaseStorage) Get(ctx context.Context, id string) (*Soiree, error) {
	span, db, _ := tracing.NewDBSpan(ctx, d.db.Reader, "soirees.get")
	defer span.Finish()

	var s Soiree
	err := db.Where("id = ?", id).First(&s).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		return nil, ErrNotFound
	case err != nil:
		span.RecordError(err)
		return nil, errors.Wrapf(err, "failed to get soiree %s", id)
	}
	return &s, nil
}

func (d *DatabaseStorage) Create(ctx context.Context, s *Soiree) (err error) {
	span, db, _ := tracing.NewDBSpan(ctx, d.db.Master, "soirees.create")
	defer func() {
		span.RecordError(err)
		span.Finish()
	}()

	s.prepare(d.now().UTC(), d.defaultStyle)
	return errors.Wrap(db.Create(s).Error, "failed to create soiree")
}

func (d *DatabaseStorage) Update(ctx context.Context, id string, patch Patch) (*Soiree, error) {
	s, err := d.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	span, db, _ := tracing.NewDBSpan(ctx, d.db.Master, "soirees.update")
	defer span.Finish()
	span.SetTag("soiree_id", id)

	s.Apply(patch, d.now().UTC())
	if err := db.Save(s).Error; err != nil {
		span.RecordError(err)
		return nil, errors.Wrapf(err, "failed to update soiree %s", id)
	}
	return s, nil
}

func (d *DatabaseStorage) Delete(ctx context.Context, id string) error {
	span, db, _ := tracing.NewDBSpan(ctx, d.db.Master, "soirees.delete")
	defer span.Finish()

	res := db.Where("id = ?", id).Delete(&Soiree{})
	if res.Error != nil {
		span.RecordError(res.Error)
		return errors.Wrapf(res.Error, "failed to delete soiree %s", id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
