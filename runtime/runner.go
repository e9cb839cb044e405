package runtime

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stagewalk/stagewalk/graph"
	"github.com/stagewalk/stagewalk/store"
	"github.com/stagewalk/stagewalk/types"
	"github.com/stagewalk/stagewalk/utils"
)

/**
 * StageRunner drives a set of declared stages through their dependency
 * graph: it seeds the walker's done set from the marker store, marks the
 * caller's requested stages, computes the plan and executes it, writing
 * a marker after every successful stage.
 *
 * The graph is built once at construction; a fresh walker is built for
 * every Run, so a runner can be reused across runs.
 */
type StageRunner struct {
	opts  *types.RunnerOptions
	store store.Store

	stages []types.Stage
	sg     *graph.StageGraph

	statusMu sync.Mutex
	status   map[string]types.StatusType
}

func NewStageRunner(stages []types.Stage, markers store.Store, opts *types.RunnerOptions) (*StageRunner, error) {
	decls := make([]graph.StageDecl, 0, len(stages))
	for _, stage := range stages {
		if stage.Handler == nil {
			return nil, errors.BadRequestf("stage %q handler is nil", stage.Name)
		}
		decls = append(decls, graph.StageDecl{Name: stage.Name, Deps: stage.Deps})
	}

	sg, err := graph.NewStageGraph(decls)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return &StageRunner{
		opts:   opts,
		store:  markers,
		stages: stages,
		sg:     sg,
		status: make(map[string]types.StatusType, len(stages)),
	}, nil
}

func (r *StageRunner) setStatus(stage string, status types.StatusType) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	r.status[stage] = status
}

/**
 * StageStatuses reports the status of every stage touched by the last
 * Run: Done for stages that finished (or already had a marker), Failed
 * for the stage that broke the run, Pending for planned stages that
 * never got their turn. Stages outside the plan stay at None.
 */
func (r *StageRunner) StageStatuses() map[string]types.StatusType {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()

	statuses := make(map[string]types.StatusType, len(r.status))
	for stage, status := range r.status {
		statuses[stage] = status
	}
	return statuses
}

// StageGraph exposes the name<->node mapping and the DAG underneath.
func (r *StageRunner) StageGraph() *graph.StageGraph {
	return r.sg
}

/**
 * Plan computes the execution order for the given request without
 * executing anything: the stages named in requested are forced into the
 * plan, everything with a valid completion marker is treated as done.
 * With an empty request the plan is every not-yet-done stage.
 */
func (r *StageRunner) Plan(ctx context.Context, requested ...string) ([]string, error) {
	_, plan, err := r.prepare(ctx, requested)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return r.sg.Names(plan)
}

// Run plans and executes. Execution stops at the first failing stage;
// stages already finished keep their markers, so the next Run resumes.
func (r *StageRunner) Run(ctx context.Context, requested ...string) error {
	walker, plan, err := r.prepare(ctx, requested)
	if err != nil {
		return errors.Trace(err)
	}

	r.statusMu.Lock()
	r.status = make(map[string]types.StatusType, len(r.stages))
	for _, node := range walker.Done() {
		if name, exists := r.sg.Name(node); exists {
			r.status[name] = types.Done
		}
	}
	for _, node := range plan {
		if name, exists := r.sg.Name(node); exists {
			r.status[name] = types.Pending
		}
	}
	r.statusMu.Unlock()

	if len(plan) == 0 {
		log.Infof("no stages to do, nothing to be done")
		return nil
	}

	names, err := r.sg.Names(plan)
	if err != nil {
		return errors.Trace(err)
	}
	log.Infof("stages to do (in this order): %v", names)

	if r.opts.Serial || r.opts.MaxStageConcurrency <= 1 {
		return errors.Trace(r.runSerial(ctx, walker, plan))
	}
	return errors.Trace(r.runConcurrent(ctx, walker, plan))
}

func (r *StageRunner) prepare(ctx context.Context, requested []string) (*graph.Walker, []int, error) {
	walker := graph.NewWalker(r.sg.DAG())

	requested = utils.UniqueSlice(requested)
	nodes, err := r.sg.Indexes(requested)
	if err != nil {
		return nil, nil, errors.Annotatef(err, "requested stages")
	}
	for _, node := range nodes {
		if err := walker.MarkRequested(node); err != nil {
			return nil, nil, errors.Trace(err)
		}
	}

	var markErr error
	err = r.store.List(ctx, func(stage string, marker *store.Marker) bool {
		node, exists := r.sg.Index(stage)
		if !exists {
			// marker left over from an older configuration
			log.Warnf("ignoring marker for unknown stage %q", stage)
			return true
		}
		markErr = walker.MarkDone(node)
		return markErr == nil
	})
	if markErr != nil {
		return nil, nil, errors.Trace(markErr)
	}
	if err != nil {
		return nil, nil, errors.Annotatef(err, "load completion markers")
	}

	return walker, walker.ComputePlan(), nil
}

func (r *StageRunner) runSerial(ctx context.Context, walker *graph.Walker, plan []int) error {
	for _, node := range plan {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		if err := r.runStage(ctx, node); err != nil {
			return errors.Trace(err)
		}
		if err := walker.MarkDone(node); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (r *StageRunner) runStage(ctx context.Context, node int) error {
	stage := r.stages[node]
	log.Infof("--> stage %s <--", stage.Name)
	r.setStatus(stage.Name, types.Running)

	relDir, workDir, err := r.stageWorkDir(stage)
	if err != nil {
		r.setStatus(stage.Name, types.Failed)
		return errors.Trace(err)
	}

	start := time.Now()
	if err := stage.Handler(newStageContext(ctx, stage.Name, workDir), stage.Config); err != nil {
		log.Errorf("there was a problem in stage %s: %v", stage.Name, err)
		r.setStatus(stage.Name, types.Failed)
		return errors.Annotatef(err, "stage %s", stage.Name)
	}
	log.Debugf("stage %s finished after %v", stage.Name, time.Since(start))
	r.setStatus(stage.Name, types.Done)

	marker := &store.Marker{WorkDir: relDir, CompletedAt: time.Now()}
	return errors.Annotatef(r.store.Set(ctx, stage.Name, marker), "mark stage %s done", stage.Name)
}

/**
 * stageWorkDir resolves where the stage runs. Dedicated stages get their
 * own subdirectory, created here; the relative part is recorded in the
 * marker so staleness can be checked against it later. Shared stages run
 * in the run work directory and record no directory.
 */
func (r *StageRunner) stageWorkDir(stage types.Stage) (string, string, error) {
	if stage.Policy != types.WorkDirDedicated {
		return "", r.opts.WorkDir, nil
	}
	relDir := stage.WorkDir
	if relDir == "" {
		relDir = stage.Name
	}
	workDir := filepath.Join(r.opts.WorkDir, relDir)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", "", errors.Annotatef(err, "prepare work dir for stage %s", stage.Name)
	}
	return relDir, workDir, nil
}
