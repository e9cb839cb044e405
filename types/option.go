package types

import (
	"context"

	"github.com/mcuadros/go-defaults"
)

func NewRunnerOptions() *RunnerOptions {
	opts := &RunnerOptions{Ctx: context.Background()}
	defaults.SetDefaults(opts)
	return opts
}

type RunnerOptions struct {
	Ctx context.Context
	/**
	 * WorkDir is the run's work directory. Dedicated stage directories
	 * and the file marker store live underneath it.
	 */
	WorkDir string `default:"."`
	/**
	 * default: 8
	 * upper bound on stages executed at the same time when Serial is
	 * false. Only stages with no outstanding dependency run together.
	 */
	MaxStageConcurrency int `default:"8"`
	/**
	 * default: false, set to true to execute the plan strictly one
	 * stage at a time in plan order.
	 */
	Serial bool `default:"false"`
	/**
	 * default: false, only set it to true when doing testing or
	 * developing. Completion markers are then kept in memory and do
	 * not survive the process.
	 */
	MemStore bool `default:"false"`

	// PostgreSQL marker store configuration.
	// If both MemStore and PostgresConfig are set, PostgresConfig takes precedence.
	PostgresConfig *PostgresConfig
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // disable, require, verify-ca, verify-full
}

type RunnerOption func(*RunnerOptions)

func WithContext(ctx context.Context) RunnerOption {
	return func(opts *RunnerOptions) {
		opts.Ctx = ctx
	}
}

func WithWorkDir(workDir string) RunnerOption {
	return func(opts *RunnerOptions) {
		opts.WorkDir = workDir
	}
}

func SetMaxStageConcurrency(concurrency int) RunnerOption {
	return func(opts *RunnerOptions) {
		opts.MaxStageConcurrency = concurrency
	}
}

func EnableSerial() RunnerOption {
	return func(opts *RunnerOptions) {
		opts.Serial = true
	}
}

func EnableMemStore() RunnerOption {
	return func(opts *RunnerOptions) {
		opts.MemStore = true
	}
}

// WithPostgresConfig keeps completion markers in PostgreSQL instead of
// marker files, for work directories shared between hosts.
func WithPostgresConfig(config *PostgresConfig) RunnerOption {
	return func(opts *RunnerOptions) {
		opts.PostgresConfig = config
	}
}
