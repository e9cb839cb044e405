package graph

import (
	"github.com/juju/errors"
	"github.com/stagewalk/stagewalk/types"
)

/**
 * Walker plans a way through a DAG. It never mutates the DAG it wraps;
 * its own state is the set of nodes already done, the set the caller
 * explicitly requested, and a transient in-degree that reflects which
 * dependencies are currently satisfied.
 *
 * A Walker lives for one run and is not safe for unsynchronized
 * concurrent use; a caller running stages in parallel must serialize
 * MarkDone/ComputePlan calls itself.
 */
type Walker struct {
	dag *DAG

	inDegreeTransient []int

	done     []int
	doneMask []bool

	requested     []int
	requestedMask []bool

	lastPlan []int
}

func NewWalker(dag *DAG) *Walker {
	w := &Walker{dag: dag}
	w.inDegreeTransient = make([]int, dag.nodeCount)
	copy(w.inDegreeTransient, dag.inDegree)
	w.doneMask = make([]bool, dag.nodeCount)
	w.requestedMask = make([]bool, dag.nodeCount)
	return w
}

// CanRun reports whether the node has no outstanding dependency. It does
// not consult done or requested state.
func (w *Walker) CanRun(node int) bool {
	if !w.dag.validNode(node) {
		return false
	}
	return w.inDegreeTransient[node] == 0
}

/**
 * Ready returns every node that could run right now: zero transient
 * in-degree and not yet marked done. The result is unordered in the
 * sense that the nodes are mutually independent, so the caller may run
 * them in any order or all at once.
 */
func (w *Walker) Ready() []int {
	ready := make([]int, 0, w.dag.nodeCount)
	for node, degree := range w.inDegreeTransient {
		if degree == 0 && !w.doneMask[node] {
			ready = append(ready, node)
		}
	}
	return ready
}

/**
 * MarkDone records a node as complete. The transient in-degree is not
 * touched here; it is rebuilt wholesale by the next ComputePlan so the
 * done/degree bookkeeping always comes from a single recomputation pass.
 */
func (w *Walker) MarkDone(node int) error {
	if !w.dag.validNode(node) {
		return errors.Trace(types.NewInvalidNodeReferenceError(node, w.dag.nodeCount))
	}
	if w.doneMask[node] {
		return nil
	}
	w.done = append(w.done, node)
	w.doneMask[node] = true
	return nil
}

// MarkRequested demands that a node appear in the next plan even if a
// marker says it finished previously.
func (w *Walker) MarkRequested(node int) error {
	if !w.dag.validNode(node) {
		return errors.Trace(types.NewInvalidNodeReferenceError(node, w.dag.nodeCount))
	}
	if w.requestedMask[node] {
		return nil
	}
	w.requested = append(w.requested, node)
	w.requestedMask[node] = true
	return nil
}

func (w *Walker) Done() []int {
	done := make([]int, len(w.done))
	copy(done, w.done)
	return done
}

func (w *Walker) IsDone(node int) bool {
	return w.dag.validNode(node) && w.doneMask[node]
}

// LastPlan returns the most recently computed plan, nil before the first
// ComputePlan. It is not kept in sync with later Mark calls.
func (w *Walker) LastPlan() []int {
	return w.lastPlan
}

/**
 * ComputePlan returns the ordered node sequence still to execute.
 *
 * With no requested nodes the plan is the canonical topology minus the
 * effectively-done nodes. With requested nodes it is the minimal closure
 * needed to satisfy them: the nodes reachable backward from the request
 * through unsatisfied dependencies, ordered by the canonical topology.
 * Requested nodes are never treated as pre-satisfied.
 */
func (w *Walker) ComputePlan() []int {
	doneMask := make([]bool, w.dag.nodeCount)
	copy(doneMask, w.doneMask)
	for _, node := range w.requested {
		doneMask[node] = false
	}

	// rebuild from the static in-degree, then pretend every effectively
	// done node already signalled its dependents
	copy(w.inDegreeTransient, w.dag.inDegree)
	for node, done := range doneMask {
		if !done {
			continue
		}
		for _, target := range w.dag.toNodes[node] {
			w.inDegreeTransient[target]--
		}
	}

	if len(w.requested) == 0 {
		plan := make([]int, 0, w.dag.nodeCount)
		for _, node := range w.dag.topology {
			if !doneMask[node] {
				plan = append(plan, node)
			}
		}
		w.lastPlan = plan
		return plan
	}

	needed := w.collectNeeded(doneMask)
	plan := make([]int, 0, w.dag.nodeCount)
	for _, node := range w.dag.topology {
		if needed[node] {
			plan = append(plan, node)
		}
	}
	w.lastPlan = plan
	return plan
}

/**
 * collectNeeded walks backward from the requested nodes through
 * not-yet-satisfied dependencies. An effectively done dependency is a
 * satisfied boundary: it is not entered and nothing behind it is pulled
 * in. Each node is visited once, first visit wins.
 *
 * The resulting set is ordered by filtering the canonical topology
 * rather than by reversing the visitation order: reversal is only a
 * valid topological order when no node is reachable from the frontier on
 * paths of different lengths, which a diamond with a shortcut edge
 * already violates.
 */
func (w *Walker) collectNeeded(doneMask []bool) []bool {
	needed := make([]bool, w.dag.nodeCount)

	// requested nodes in canonical order, so expansion is reproducible
	queue := make([]int, 0, len(w.requested))
	for _, node := range w.dag.topology {
		if w.requestedMask[node] {
			queue = append(queue, node)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if needed[current] {
			continue
		}
		needed[current] = true
		for _, origin := range w.dag.fromNodes[current] {
			if !doneMask[origin] && !needed[origin] {
				queue = append(queue, origin)
			}
		}
	}
	return needed
}
