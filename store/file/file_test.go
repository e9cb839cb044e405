package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stagewalk/stagewalk/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()

	s, err := NewFileStore(workDir)
	require.NoError(t, err)

	marker, err := s.Get(ctx, "reference")
	require.NoError(t, err)
	assert.Nil(t, marker)

	require.NoError(t, s.Set(ctx, "reference", &store.Marker{CompletedAt: time.Now()}))

	marker, err = s.Get(ctx, "reference")
	require.NoError(t, err)
	require.NotNil(t, marker)
	assert.False(t, marker.CompletedAt.IsZero())

	// marker survives a new store over the same work dir
	s2, err := NewFileStore(workDir)
	require.NoError(t, err)
	marker, err = s2.Get(ctx, "reference")
	require.NoError(t, err)
	assert.NotNil(t, marker)

	require.NoError(t, s.Remove(ctx, "reference"))
	require.NoError(t, s.Remove(ctx, "reference"))
	marker, err = s.Get(ctx, "reference")
	require.NoError(t, err)
	assert.Nil(t, marker)
}

func TestFileStoreList(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "a", &store.Marker{}))
	require.NoError(t, s.Set(ctx, "b", &store.Marker{}))

	seen := map[string]bool{}
	require.NoError(t, s.List(ctx, func(stage string, marker *store.Marker) bool {
		seen[stage] = true
		return true
	}))
	assert.Equal(t, map[string]bool{"a": true, "b": true}, seen)
}

func TestFileStoreStaleMarker(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()

	s, err := NewFileStore(workDir)
	require.NoError(t, err)

	stageDir := filepath.Join(workDir, "optimise")
	require.NoError(t, os.MkdirAll(stageDir, 0o755))
	require.NoError(t, s.Set(ctx, "optimise", &store.Marker{WorkDir: "optimise"}))

	marker, err := s.Get(ctx, "optimise")
	require.NoError(t, err)
	assert.NotNil(t, marker)

	// the stage output vanished, the marker no longer counts
	require.NoError(t, os.RemoveAll(stageDir))
	marker, err = s.Get(ctx, "optimise")
	require.NoError(t, err)
	assert.Nil(t, marker)

	seen := 0
	require.NoError(t, s.List(ctx, func(string, *store.Marker) bool {
		seen++
		return true
	}))
	assert.Equal(t, 0, seen)
}
