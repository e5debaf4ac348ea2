package client

import (
	"context"
	"time"

	"github.com/mitchfriedman/soirees/lib/filestore"
)

type Repo interface {
	List(context.Context) ([]*Client, error)
	Get(context.Context, string) (*Client, error)
	Create(context.Context, *Client) error
	Update(context.Context, string, Patch) (*Client, error)
	Delete(context.Context, string) error
}

type FileStorage struct {
	c   *filestore.Collection
	now func() time.Time
}

func NewFileStorage(c *filestore.Collection) *FileStorage {
	return &FileStorage{c: c, now: time.Now}
}

func (s *FileStorage) List(ctx context.Context) ([]*Client, error) {
	all := []*Client{}
	if err := s.c.View(&all); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *FileStorage) Get(ctx context.Context, id string) (*Client, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(all, id); i >= 0 {
		return all[i], nil
	}
	return nil, ErrNotFound
}

func (s *FileStorage) Create(ctx context.Context, c *Client) error {
	c.prepare(s.now().UTC())

	var all []*Client
	return s.c.Update(&all, func() error {
		all = append(all, c)
		return nil
	})
}

func (s *FileStorage) Update(ctx context.Context, id string, patch Patch) (*Client, error) {
	var all []*Client
	var updated *Client
	err := s.c.Update(&all, func() error {
		i := indexOf(all, id)
		if i < 0 {
			return ErrNotFound
		}
		updated = all[i]
		updated.Apply(patch, s.now().UTC())
		return nil
	})
	return updated, err
}

func (s *FileStorage) Delete(ctx context.Context, id string) error {
	var all []*Client
	return s.c.Update(&all, func() error {
		i := indexOf(all, id)
		if i < 0 {
			return ErrNotFound
		}
		all = append(all[:i], all[i+1:]...)
		return nil
	})
}

func indexOf(all []*Client, id string) int {
	for i, c := range all {
		if c.ID == id {
			return i
		}
	}
	return -1
}
