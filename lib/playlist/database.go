package playlist

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

func (d *DatabaseStorage) List(ctx context.Context) (all []*Playlist, err error) {
	span, db, _ := tracing.NewDBSpan(ctx, d.db.Reader, "playlists.list")
	defer func() {
		span.RecordError(err)
		span.Finish()
	}()

	all = []*Playlist{}
	err = db.Order("created_at asc").Find(&all).Error
	return all, errors.Wrap(err, "failed to list playlists")
}

func (d *DatabaseStorage) ListByEvent(ctx context.Context, eventID string) (all []*Playlist, err error) {
	span, db, _ := tracing.NewDBSpan(ctx, d.db.Reader, "playlists.list_by_event")
	defer func() {
		span.RecordError(err)
		span.Finish()
	}()
	span.SetTag("event_id", eventID)

	all = []*Playlist{}
	err = db.Where("event_id = ?", eventID).Order("created_at asc").Find(&all).Error
	return all, errors.Wrapf(err, "failed to list playlists of event %s", eventID)
}

func (d *DatabaseStorage) Get(ctx context.Context, id string) (*Playlist, error) {
	span, db, _ := tracing.NewDBSpan(ctx, d.db.Reader, "playlists.get")
	defer span.Finish()

	var p Playlist
	err := db.Where("id = ?", id).First(&p).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		return nil, ErrNotFound
	case err != nil:
		span.RecordError(err)
		return nil, errors.Wrapf(err, "failed to get playlist %s", id)
	}
	return &p, nil
}

func (d *DatabaseStorage) Create(ctx context.Context, p *Playlist) (err error) {
	span, db, _ := tracing.NewDBSpan(ctx, d.db.Master, "playlists.create")
	defer func() {
		span.RecordError(err)
		span.Finish()
	}()

	p.prepare(d.now().UTC())
	return errors.Wrap(db.Create(p).Error, "failed to create playlist")
}

func (d *DatabaseStorage) Update(ctx context.Context, id string, patch Patch) (*Playlist, error) {
	p, err := d.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	span, db, _ := tracing.NewDBSpan(ctx, d.db.Master, "playlists.update")
	defer span.Finish()

	p.Apply(patch, d.now().UTC())
	if err := db.Save(p).Error; err != nil {
		span.RecordError(err)
		return nil, errors.Wrapf(err, "failed to update playlist %s", id)
	}
	return p, nil
}

func (d *DatabaseStorage) Delete(ctx context.Context, id string) error {
	span, db, _ := tracing.NewDBSpan(ctx, d.db.Master, "playlists.delete")
	defer span.Finish()

	res := db.Where("id = ?", id).Delete(&Playlist{})
	if res.Error != nil {
		span.RecordError(res.Error)
		return errors.Wrapf(res.Error, "failed to delete playlist %s", id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
