package mem

import (
	"context"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stagewalk/stagewalk/store"
	"github.com/stretchr/testify/assert"
)

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	marker, err := s.Get(ctx, "reference")
	assert.Nil(t, err)
	assert.Nil(t, marker)

	assert.Nil(t, s.Set(ctx, "reference", &store.Marker{WorkDir: "reference", CompletedAt: time.Now()}))
	assert.Nil(t, s.Set(ctx, "optimise", &store.Marker{WorkDir: "optimise"}))

	marker, err = s.Get(ctx, "reference")
	assert.Nil(t, err)
	assert.NotNil(t, marker)
	assert.Equal(t, "reference", marker.WorkDir)

	seen := map[string]bool{}
	assert.Nil(t, s.List(ctx, func(stage string, marker *store.Marker) bool {
		seen[stage] = true
		return true
	}))
	assert.Equal(t, map[string]bool{"reference": true, "optimise": true}, seen)

	assert.Nil(t, s.Remove(ctx, "reference"))
	// removing an unmarked stage is fine
	assert.Nil(t, s.Remove(ctx, "reference"))

	marker, err = s.Get(ctx, "reference")
	assert.Nil(t, err)
	assert.Nil(t, marker)
}

func TestMemStoreErrHandler(t *testing.T) {
	ctx := context.Background()
	s := NewMemStoreWithErrHandler(func() error {
		return errors.New("boom")
	})

	assert.NotNil(t, s.Set(ctx, "reference", &store.Marker{}))
	_, err := s.Get(ctx, "reference")
	assert.NotNil(t, err)
}
