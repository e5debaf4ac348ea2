package soiree

import (
	"context"
	"time"

	"github.com/mitchfriedman/soirees/lib/filestore"
)

type Repo interface {
	List(context.Context) ([]*Soiree, error)
	Get(context.Context, string) (*Soiree, error)
	Create(context.Context, *Soiree) error
	Update(context.Context, string, Patch) (*Soiree, error)
	Delete(context.Context, string) error
}

type FileStorage struct {
	c            *filestore.Collection
	defaultStyle string
	now          func() time.Time
}

func NewFileStorage(c *filestore.Collection, defaultStyle string) *FileStorage {
	return &FileStorage{c: c, defaultStyle: defaultStyle, now: time.Now}
}

func (s *FileStorage) List(ctx context.Context) ([]*Soiree, error) {
	var all []*Soiree
	if err := s.c.View(&all); err != nil {
		return nil, err
	}
	if all == nil {
		all = []*Soiree{}
	}
	return all, nil
}

func (s *FileStorage) Get(ctx context.Context, id string) (*Soiree, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, so := range all {
		if so.ID == id {
			return so, nil
		}
	}
	return nil, ErrNotFound
}

func (s *FileStorage) Create(ctx context.Context, so *Soiree) error {
	so.prepare(s.now().UTC(), s.defaultStyle)

	var all []*Soiree
	return s.c.Update(&all, func() error {
		all = append(all, so)
		return nil
	})
}

func (s *FileStorage) Update(ctx context.Context, id string, patch Patch) (*Soiree, error) {
	var updated *Soiree
	var all []*Soiree
	err := s.c.Update(&all, func() error {
		for _, so := range all {
			if so.ID == id {
				so.Apply(patch, s.now().UTC())
				updated = so
				return nil
			}
		}
		return ErrNotFound
	})
	return updated, err
}

func (s *FileStorage) Delete(ctx context.Context, id string) error {
	var all []*Soiree
	return s.c.Update(&all, func() error {
		for i, so := range all {
			if so.ID == id {
				all = append(all[:i], all[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
}
