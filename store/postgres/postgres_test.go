package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stagewalk/stagewalk/store"
	"github.com/stretchr/testify/assert"
)

// getTestConfig returns a test configuration
// You can set environment variables to override defaults:
// - POSTGRES_HOST
// - POSTGRES_PORT
// - POSTGRES_USER
// - POSTGRES_PASSWORD
// - POSTGRES_DB
func getTestConfig() *Config {
	config := DefaultConfig()

	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		config.Host = host
	}
	if port := os.Getenv("POSTGRES_PORT"); port != "" {
		fmt.Sscanf(port, "%d", &config.Port)
	}
	if user := os.Getenv("POSTGRES_USER"); user != "" {
		config.User = user
	}
	if password := os.Getenv("POSTGRES_PASSWORD"); password != "" {
		config.Password = password
	}
	if db := os.Getenv("POSTGRES_DB"); db != "" {
		config.Database = db
	}

	return config
}

// skipIfNoPostgres skips the test if PostgreSQL is not available
func skipIfNoPostgres(t *testing.T) store.Store {
	s, err := NewPostgresStore(getTestConfig())
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
		return nil
	}
	return s
}

func TestPostgresStoreSetAndGet(t *testing.T) {
	s := skipIfNoPostgres(t)
	if s == nil {
		return
	}
	if closer, ok := s.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ctx := context.Background()
	defer s.Remove(ctx, "pgtest_reference")

	assert.Nil(t, s.Set(ctx, "pgtest_reference", &store.Marker{WorkDir: "reference", CompletedAt: time.Now()}))

	marker, err := s.Get(ctx, "pgtest_reference")
	assert.Nil(t, err)
	assert.NotNil(t, marker)
	assert.Equal(t, "reference", marker.WorkDir)

	// second Set overwrites
	assert.Nil(t, s.Set(ctx, "pgtest_reference", &store.Marker{WorkDir: "reference2"}))
	marker, err = s.Get(ctx, "pgtest_reference")
	assert.Nil(t, err)
	assert.Equal(t, "reference2", marker.WorkDir)
}

func TestPostgresStoreRemoveAndList(t *testing.T) {
	s := skipIfNoPostgres(t)
	if s == nil {
		return
	}
	if closer, ok := s.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ctx := context.Background()
	defer s.Remove(ctx, "pgtest_a")
	defer s.Remove(ctx, "pgtest_b")

	assert.Nil(t, s.Set(ctx, "pgtest_a", &store.Marker{}))
	assert.Nil(t, s.Set(ctx, "pgtest_b", &store.Marker{}))

	seen := map[string]bool{}
	assert.Nil(t, s.List(ctx, func(stage string, marker *store.Marker) bool {
		seen[stage] = true
		return true
	}))
	assert.True(t, seen["pgtest_a"])
	assert.True(t, seen["pgtest_b"])

	assert.Nil(t, s.Remove(ctx, "pgtest_a"))
	// removing an unmarked stage is fine
	assert.Nil(t, s.Remove(ctx, "pgtest_a"))

	marker, err := s.Get(ctx, "pgtest_a")
	assert.Nil(t, err)
	assert.Nil(t, marker)
}

func TestPostgresStoreGetMissing(t *testing.T) {
	s := skipIfNoPostgres(t)
	if s == nil {
		return
	}
	if closer, ok := s.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	marker, err := s.Get(context.Background(), "pgtest_never_set")
	assert.Nil(t, err)
	assert.Nil(t, marker)
}
