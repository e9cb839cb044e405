package stagewalk

import (
	"github.com/juju/errors"
	"github.com/stagewalk/stagewalk/graph"
	"github.com/stagewalk/stagewalk/runtime"
	"github.com/stagewalk/stagewalk/store"
	"github.com/stagewalk/stagewalk/store/file"
	"github.com/stagewalk/stagewalk/store/mem"
	"github.com/stagewalk/stagewalk/store/postgres"
	"github.com/stagewalk/stagewalk/types"
)

// NewStageRunner creates a stage runner with the given options, picking
// the completion marker store from them.
func NewStageRunner(stages []types.Stage, opts ...types.RunnerOption) (*runtime.StageRunner, error) {
	options := types.NewRunnerOptions()
	for _, opt := range opts {
		opt(options)
	}

	var s store.Store
	var err error

	// PostgresConfig takes precedence over MemStore
	if options.PostgresConfig != nil {
		pgConfig := &postgres.Config{
			Host:     options.PostgresConfig.Host,
			Port:     options.PostgresConfig.Port,
			User:     options.PostgresConfig.User,
			Password: options.PostgresConfig.Password,
			Database: options.PostgresConfig.Database,
			SSLMode:  options.PostgresConfig.SSLMode,
		}

		s, err = postgres.NewPostgresStore(pgConfig)
		if err != nil {
			return nil, errors.Annotatef(err, "failed to create PostgreSQL store")
		}
	} else if options.MemStore {
		s = mem.NewMemStore()
	} else {
		// markers live next to the stage output by default
		s, err = file.NewFileStore(options.WorkDir)
		if err != nil {
			return nil, errors.Annotatef(err, "failed to create file marker store")
		}
	}

	return runtime.NewStageRunner(stages, s, options)
}

// NewStageGraph builds just the validated graph for the declarations,
// for callers that want to plan without running anything.
func NewStageGraph(decls []graph.StageDecl) (*graph.StageGraph, error) {
	sg, err := graph.NewStageGraph(decls)
	return sg, errors.Trace(err)
}
