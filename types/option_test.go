package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRunnerOptionsDefaults(t *testing.T) {
	opts := NewRunnerOptions()

	assert.Equal(t, ".", opts.WorkDir)
	assert.Equal(t, 8, opts.MaxStageConcurrency)
	assert.False(t, opts.Serial)
	assert.False(t, opts.MemStore)
	assert.Nil(t, opts.PostgresConfig)
	assert.NotNil(t, opts.Ctx)
}

func TestWithPostgresConfig(t *testing.T) {
	config := &PostgresConfig{
		Host:     "dbhost",
		Port:     5433,
		User:     "user",
		Password: "pass",
		Database: "db",
		SSLMode:  "require",
	}

	opts := NewRunnerOptions()
	opt := WithPostgresConfig(config)
	opt(opts)

	assert.NotNil(t, opts.PostgresConfig)
	assert.Equal(t, "dbhost", opts.PostgresConfig.Host)
	assert.Equal(t, 5433, opts.PostgresConfig.Port)
	assert.Equal(t, "require", opts.PostgresConfig.SSLMode)
}

func TestMultipleOptions(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	opts := NewRunnerOptions()
	WithContext(ctx)(opts)
	WithWorkDir("/tmp/run")(opts)
	SetMaxStageConcurrency(2)(opts)
	EnableSerial()(opts)
	EnableMemStore()(opts)

	assert.Equal(t, ctx, opts.Ctx)
	assert.Equal(t, "/tmp/run", opts.WorkDir)
	assert.Equal(t, 2, opts.MaxStageConcurrency)
	assert.True(t, opts.Serial)
	assert.True(t, opts.MemStore)
}
