package engine_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchfriedman/soirees/lib/engine"
	"github.com/mitchfriedman/soirees/lib/generation"
	"github.com/mitchfriedman/soirees/lib/logging"
	"github.com/mitchfriedman/soirees/lib/metrics"
	"github.com/mitchfriedman/soirees/lib/playlist"
	"github.com/mitchfriedman/soirees/lib/queue"
	"github.com/mitchfriedman/soirees/lib/soiree"
)

type fakeRecorder struct {
	mu      sync.Mutex
	counts  map[string]int
	timings int
}

func newRecorder() *fakeRecorder {
	return &fakeRecorder{counts: make(map[string]int)}
}

func (f *fakeRecorder) Incr(name string, tags []string, rate float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[name]++
	return nil
}

func (f *fakeRecorder) Timing(string, time.Duration, []string, float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timings++
	return nil
}

func (f *fakeRecorder) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[name]
}

type fakeGenerator struct {
	styles []string
}

func (f *fakeGenerator) Generate(ctx context.Context, style string) generation.Result {
	f.styles = append(f.styles, style)
	return generation.Result{Title: "Disco Night", Style: style, Tracks: []string{"A", "B", "C"}}
}

type fakeStore struct {
	existing  []*playlist.Playlist
	listErr   error
	createErr error
	created   []*playlist.Playlist
}

func (f *fakeStore) Create(ctx context.Context, p *playlist.Playlist) (*playlist.Playlist, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	stored := *p
	stored.ID = "PL-new"
	f.created = append(f.created, &stored)
	return &stored, nil
}

func (f *fakeStore) ListByEvent(ctx context.Context, eventID string) ([]*playlist.Playlist, error) {
	return f.existing, f.listErr
}

type fakeLinker struct {
	err   error
	links map[string]string
}

func (f *fakeLinker) LinkPlaylist(ctx context.Context, soireeID, playlistID string) (*soiree.Soiree, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.links == nil {
		f.links = make(map[string]string)
	}
	f.links[soireeID] = playlistID
	return &soiree.Soiree{ID: soireeID, PlaylistID: &playlistID}, nil
}

func TestExecute(t *testing.T) {
	tests := map[string]struct {
		req             queue.GenerationRequest
		store           *fakeStore
		linker          *fakeLinker
		wantErr         error
		wantGenerated   []string
		wantPlaylistID  string
		wantLinked      bool
		wantReused      int
		wantPropFailure int
	}{
		"generates stores and links": {
			req:            queue.GenerationRequest{SoireeID: "E1", Style: "disco"},
			store:          &fakeStore{},
			linker:         &fakeLinker{},
			wantGenerated:  []string{"disco"},
			wantPlaylistID: "PL-new",
			wantLinked:     true,
		},
		"empty style uses default": {
			req:            queue.GenerationRequest{SoireeID: "E1"},
			store:          &fakeStore{},
			linker:         &fakeLinker{},
			wantGenerated:  []string{"salsa"},
			wantPlaylistID: "PL-new",
			wantLinked:     true,
		},
		"existing playlist is reused": {
			req:            queue.GenerationRequest{SoireeID: "E1", Style: "disco"},
			store:          &fakeStore{existing: []*playlist.Playlist{{ID: "PL-old", EventID: "E1"}}},
			linker:         &fakeLinker{},
			wantPlaylistID: "PL-old",
			wantLinked:     true,
			wantReused:     1,
		},
		"lookup failure still creates": {
			req:            queue.GenerationRequest{SoireeID: "E1", Style: "disco"},
			store:          &fakeStore{listErr: errors.New("timeout")},
			linker:         &fakeLinker{},
			wantGenerated:  []string{"disco"},
			wantPlaylistID: "PL-new",
			wantLinked:     true,
		},
		"link failure is not an error": {
			req:             queue.GenerationRequest{SoireeID: "E1", Style: "disco"},
			store:           &fakeStore{},
			linker:          &fakeLinker{err: errors.New("status 500")},
			wantGenerated:   []string{"disco"},
			wantPlaylistID:  "PL-new",
			wantPropFailure: 1,
		},
		"store failure is returned": {
			req:           queue.GenerationRequest{SoireeID: "E1", Style: "disco"},
			store:         &fakeStore{createErr: errors.New("disk full")},
			linker:        &fakeLinker{},
			wantErr:       engine.ErrPersist,
			wantGenerated: []string{"disco"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{}
			rec := newRecorder()
			ex := engine.NewExecutor(gen, tc.store, tc.linker, rec, logging.New("test", os.Stderr), engine.WithDefaultStyle("salsa"))

			p, err := ex.Execute(context.Background(), tc.req)
			assert.Equal(t, tc.wantGenerated, gen.styles)
			assert.Equal(t, tc.wantReused, rec.count(metrics.PlaylistReused))
			assert.Equal(t, tc.wantPropFailure, rec.count(metrics.PropagationFailed))

			if tc.wantErr != nil {
				assert.Equal(t, tc.wantErr, errors.Cause(err))
				assert.Nil(t, p)
				assert.Empty(t, tc.linker.links)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantPlaylistID, p.ID)
			if tc.wantLinked {
				assert.Equal(t, tc.wantPlaylistID, tc.linker.links["E1"])
			} else {
				assert.Empty(t, tc.linker.links)
			}
		})
	}
}

func TestExecuteBuildsPlaylist(t *testing.T) {
	store := &fakeStore{}
	ex := engine.NewExecutor(&fakeGenerator{}, store, &fakeLinker{}, newRecorder(), logging.New("test", os.Stderr))

	_, err := ex.Execute(context.Background(), queue.GenerationRequest{SoireeID: "E7", ClientID: "C1", Style: "funk"})
	require.NoError(t, err)
	require.Len(t, store.created, 1)

	p := store.created[0]
	assert.Equal(t, "Disco Night", p.Name)
	assert.Equal(t, playlist.StringList{"funk"}, p.Styles)
	assert.Equal(t, playlist.StringList{"A", "B", "C"}, p.Tracks)
	assert.Equal(t, "E7", p.EventID)
	assert.Equal(t, "Playlist generated for soiree E7", p.Description)
}
