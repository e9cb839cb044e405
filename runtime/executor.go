package runtime

import (
	"context"

	"github.com/gammazero/workerpool"
	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stagewalk/stagewalk/graph"
)

type stageResult struct {
	node int
	err  error
}

/**
 * planExecutor runs one computed plan with bounded concurrency. Zero
 * in-degree within the plan means no outstanding dependency at all, so
 * every launchable stage can run in parallel. All walker mutation stays
 * on the coordinating goroutine; workers only execute stages and report
 * back on a channel.
 */
type planExecutor struct {
	runner *StageRunner
	walker *graph.Walker

	plan    []int
	planned []bool
	// unmet[node] counts the node's dependencies that are themselves in
	// the plan and not finished yet. Dependencies outside the plan were
	// already satisfied when the plan was computed.
	unmet map[int]int

	running map[int]bool
	results chan stageResult
}

func newPlanExecutor(runner *StageRunner, walker *graph.Walker, plan []int) *planExecutor {
	e := &planExecutor{
		runner:  runner,
		walker:  walker,
		plan:    plan,
		planned: make([]bool, runner.sg.NodeCount()),
		unmet:   make(map[int]int, len(plan)),
		running: make(map[int]bool, len(plan)),
		results: make(chan stageResult, len(plan)),
	}
	for _, node := range plan {
		e.planned[node] = true
	}
	for _, node := range plan {
		for _, dep := range runner.sg.DAG().DependenciesOf(node) {
			if e.planned[dep] {
				e.unmet[node]++
			}
		}
	}
	return e
}

func (r *StageRunner) runConcurrent(ctx context.Context, walker *graph.Walker, plan []int) error {
	wp := workerpool.New(r.opts.MaxStageConcurrency)
	defer wp.StopWait()

	return errors.Trace(newPlanExecutor(r, walker, plan).run(ctx, wp))
}

func (e *planExecutor) run(ctx context.Context, wp *workerpool.WorkerPool) error {
	remaining := len(e.plan)

	var firstErr error
	for remaining > 0 {
		if firstErr == nil && ctx.Err() != nil {
			firstErr = errors.Trace(ctx.Err())
		}
		if firstErr == nil {
			e.launchReady(ctx, wp)
		}
		if len(e.running) == 0 {
			// nothing in flight and nothing launchable
			break
		}

		res := <-e.results
		delete(e.running, res.node)
		remaining--

		if res.err != nil {
			if firstErr == nil {
				firstErr = errors.Trace(res.err)
			}
			continue
		}
		if err := e.finish(res.node); err != nil && firstErr == nil {
			firstErr = errors.Trace(err)
		}
	}
	return firstErr
}

// launchReady submits every planned stage whose in-plan dependencies are
// all finished, in plan order.
func (e *planExecutor) launchReady(ctx context.Context, wp *workerpool.WorkerPool) {
	for _, node := range e.plan {
		if !e.planned[node] || e.running[node] || e.unmet[node] != 0 {
			continue
		}
		e.planned[node] = false
		e.running[node] = true

		node := node
		wp.Submit(func() {
			e.results <- stageResult{node: node, err: e.runner.runStage(ctx, node)}
		})
	}
}

func (e *planExecutor) finish(node int) error {
	if err := e.walker.MarkDone(node); err != nil {
		return errors.Trace(err)
	}
	for _, dependent := range e.runner.sg.DAG().DependentsOf(node) {
		if e.unmet[dependent] > 0 {
			e.unmet[dependent]--
		}
	}
	if name, exists := e.runner.sg.Name(node); exists {
		log.Debugf("stage %s done", name)
	}
	return nil
}
