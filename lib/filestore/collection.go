// Package filestore persists a record collection as a single JSON array file.
package filestore

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Collection guards one JSON file. Writes go to a temporary file that is
// renamed over the original, so readers never observe a partial document.
type Collection struct {
	path string
	mu   sync.Mutex
}

// New returns the collection stored at dir/name.json, creating dir if needed.
func New(dir, name string) (*Collection, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create data dir %s", dir)
	}
	return &Collection{path: filepath.Join(dir, name+".json")}, nil
}

func (c *Collection) Path() string {
	return c.path
}

// View decodes the collection into v. A missing file leaves v untouched.
func (c *Collection) View(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(v)
}

// Update decodes the collection into v, calls fn, and writes v back if fn
// returns nil. The collection stays locked for the whole cycle.
func (c *Collection) Update(v interface{}, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(v); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return c.save(v)
}

func (c *Collection) load(v interface{}) error {
	data, err := ioutil.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", c.path)
	}
	if len(data) == 0 {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(data, v), "failed to decode %s", c.path)
}

func (c *Collection) save(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode collection")
	}

	tmp, err := ioutil.TempFile(filepath.Dir(c.path), filepath.Base(c.path)+".*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", tmp.Name())
	}

	return errors.Wrapf(os.Rename(tmp.Name(), c.path), "failed to replace %s", c.path)
}
