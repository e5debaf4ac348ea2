package filestore_test

import (
	"io/ioutil"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchfriedman/soirees/lib/filestore"
)

type record struct {
	ID string `json:"id"`
}

func TestCollection(t *testing.T) {
	dir := t.TempDir()
	c, err := filestore.New(filepath.Join(dir, "nested"), "records")
	require.NoError(t, err)

	var empty []record
	assert.Nil(t, c.View(&empty))
	assert.Empty(t, empty)

	var all []record
	require.NoError(t, c.Update(&all, func() error {
		all = append(all, record{ID: "a"}, record{ID: "b"})
		return nil
	}))

	var read []record
	require.NoError(t, c.View(&read))
	assert.Equal(t, []record{{"a"}, {"b"}}, read)

	data, err := ioutil.ReadFile(c.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id": "a"`)
}

func TestCollectionUpdateAbort(t *testing.T) {
	c, err := filestore.New(t.TempDir(), "records")
	require.NoError(t, err)

	var all []record
	require.NoError(t, c.Update(&all, func() error {
		all = append(all, record{ID: "a"})
		return nil
	}))

	boom := errors.New("boom")
	var again []record
	err = c.Update(&again, func() error {
		again = nil
		return boom
	})
	assert.Equal(t, boom, err)

	var read []record
	require.NoError(t, c.View(&read))
	assert.Len(t, read, 1)
}

func TestCollectionConcurrentUpdates(t *testing.T) {
	c, err := filestore.New(t.TempDir(), "records")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var all []record
			assert.Nil(t, c.Update(&all, func() error {
				all = append(all, record{ID: "x"})
				return nil
			}))
		}()
	}
	wg.Wait()

	var read []record
	require.NoError(t, c.View(&read))
	assert.Len(t, read, 20)
}
