package playlist_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchfriedman/soirees/lib/playlist"
	"github.com/mitchfriedman/soirees/lib/testhelpers"
)

func repos(t *testing.T) (map[string]playlist.Repo, func()) {
	db, teardown := testhelpers.DBConnection(t)
	return map[string]playlist.Repo{
		"file":     playlist.NewFileStorage(testhelpers.Collection(t, "playlists")),
		"database": playlist.NewDatabaseStorage(db),
	}, teardown
}

func TestRepoCreateAndGet(t *testing.T) {
	all, teardown := repos(t)
	defer teardown()

	for name, repo := range all {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := &playlist.Playlist{
				Name:    "Disco Night",
				Styles:  playlist.StringList{"disco"},
				Tracks:  playlist.StringList{"A", "B", "C"},
				EventID: "SO-1",
			}
			require.NoError(t, repo.Create(ctx, p))
			assert.Contains(t, p.ID, "PL-")
			assert.False(t, p.CreatedAt.IsZero())

			got, err := repo.Get(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, "Disco Night", got.Name)
			assert.Equal(t, playlist.StringList{"A", "B", "C"}, got.Tracks)
			assert.Equal(t, "SO-1", got.EventID)

			_, err = repo.Get(ctx, "PL-missing")
			assert.Equal(t, playlist.ErrNotFound, err)
		})
	}
}

func TestRepoListByEvent(t *testing.T) {
	all, teardown := repos(t)
	defer teardown()

	for name, repo := range all {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Create(ctx, &playlist.Playlist{Name: "one", EventID: "SO-1"}))
			require.NoError(t, repo.Create(ctx, &playlist.Playlist{Name: "two", EventID: "SO-2"}))
			require.NoError(t, repo.Create(ctx, &playlist.Playlist{Name: "three"}))

			found, err := repo.ListByEvent(ctx, "SO-1")
			require.NoError(t, err)
			require.Len(t, found, 1)
			assert.Equal(t, "one", found[0].Name)

			found, err = repo.ListByEvent(ctx, "SO-9")
			require.NoError(t, err)
			assert.Empty(t, found)

			every, err := repo.List(ctx)
			require.NoError(t, err)
			assert.Len(t, every, 3)
		})
	}
}

func TestRepoUpdateAndDelete(t *testing.T) {
	all, teardown := repos(t)
	defer teardown()

	for name, repo := range all {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := &playlist.Playlist{Name: "before", Description: "keep", Styles: playlist.StringList{"jazz"}}
			require.NoError(t, repo.Create(ctx, p))

			newName := "after"
			empty := ""
			updated, err := repo.Update(ctx, p.ID, playlist.Patch{Name: &newName})
			require.NoError(t, err)
			assert.Equal(t, "after", updated.Name)
			assert.Equal(t, "keep", updated.Description)
			assert.Equal(t, playlist.StringList{"jazz"}, updated.Styles)

			updated, err = repo.Update(ctx, p.ID, playlist.Patch{Name: &empty})
			require.NoError(t, err)
			assert.Equal(t, "after", updated.Name)

			_, err = repo.Update(ctx, "PL-missing", playlist.Patch{Name: &newName})
			assert.Equal(t, playlist.ErrNotFound, err)

			require.NoError(t, repo.Delete(ctx, p.ID))
			assert.Equal(t, playlist.ErrNotFound, repo.Delete(ctx, p.ID))
			_, err = repo.Get(ctx, p.ID)
			assert.Equal(t, playlist.ErrNotFound, err)
		})
	}
}

func TestStringListScan(t *testing.T) {
	tests := map[string]struct {
		src      interface{}
		expected playlist.StringList
		err      bool
	}{
		"nil":    {nil, playlist.StringList{}, false},
		"bytes":  {[]byte(`["a","b"]`), playlist.StringList{"a", "b"}, false},
		"string": {`["c"]`, playlist.StringList{"c"}, false},
		"int":    {42, nil, true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var l playlist.StringList
			err := l.Scan(tc.src)
			if tc.err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, l)
		})
	}
}
