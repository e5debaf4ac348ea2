package playlist

import (
	"context"
	"time"

	"github.com/mitchfriedman/soirees/lib/filestore"
)

type Repo interface {
	Creator
	Retriever
	Updater
	Deleter
}

type Creator interface {
	Create(context.Context, *Playlist) error
}

type Retriever interface {
	List(context.Context) ([]*Playlist, error)
	ListByEvent(context.Context, string) ([]*Playlist, error)
	Get(context.Context, string) (*Playlist, error)
}

type Updater interface {
	Update(context.Context, string, Patch) (*Playlist, error)
}

type Deleter interface {
	Delete(context.Context, string) error
}

// FileStorage keeps playlists in a JSON file.
type FileStorage struct {
	c   *filestore.Collection
	now func() time.Time
}

func NewFileStorage(c *filestore.Collection) *FileStorage {
	return &FileStorage{c: c, now: time.Now}
}

func (s *FileStorage) List(ctx context.Context) ([]*Playlist, error) {
	var all []*Playlist
	if err := s.c.View(&all); err != nil {
		return nil, err
	}
	if all == nil {
		all = []*Playlist{}
	}
	return all, nil
}

func (s *FileStorage) ListByEvent(ctx context.Context, eventID string) ([]*Playlist, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	found := []*Playlist{}
	for _, p := range all {
		if p.EventID == eventID {
			found = append(found, p)
		}
	}
	return found, nil
}

func (s *FileStorage) Get(ctx context.Context, id string) (*Playlist, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *FileStorage) Create(ctx context.Context, p *Playlist) error {
	p.prepare(s.now().UTC())

	var all []*Playlist
	return s.c.Update(&all, func() error {
		all = append(all, p)
		return nil
	})
}

func (s *FileStorage) Update(ctx context.Context, id string, patch Patch) (*Playlist, error) {
	var updated *Playlist
	var all []*Playlist
	err := s.c.Update(&all, func() error {
		for _, p := range all {
			if p.ID == id {
				p.Apply(patch, s.now().UTC())
				updated = p
				return nil
			}
		}
		return ErrNotFound
	})
	return updated, err
}

func (s *FileStorage) Delete(ctx context.Context, id string) error {
	var all []*Playlist
	return s.c.Update(&all, func() error {
		for i, p := range all {
			if p.ID == id {
				all = append(all[:i], all[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
}
