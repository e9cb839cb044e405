package graph

import (
	"sort"

	"github.com/juju/errors"
	"github.com/stagewalk/stagewalk/types"
)

// Edge is an ordered pair of node indices: Target depends on Origin, so
// Origin must complete before Target.
type Edge struct {
	Origin int
	Target int
}

/**
 * DAG stores the dependency structure among nodes 0..nodeCount-1 and one
 * canonical topology of it. It is immutable after construction: every
 * structural problem (bad edge endpoint, no source node, cycle) is a
 * construction-time failure, so later planning never has to re-validate.
 */
type DAG struct {
	nodeCount int

	// fromNodes[n] are the dependencies of n, toNodes[n] its dependents.
	// Both kept in ascending order so traversals break ties by node index.
	fromNodes [][]int
	toNodes   [][]int

	inDegree  []int
	outDegree []int

	topology []int
}

func NewDAG(nodeCount int, edges []Edge) (*DAG, error) {
	d := &DAG{
		nodeCount: nodeCount,
		fromNodes: make([][]int, nodeCount),
		toNodes:   make([][]int, nodeCount),
		inDegree:  make([]int, nodeCount),
		outDegree: make([]int, nodeCount),
	}

	seen := make(map[Edge]bool, len(edges))
	for _, edge := range edges {
		if edge.Origin < 0 || edge.Origin >= nodeCount {
			return nil, errors.Annotatef(types.NewInvalidNodeReferenceError(edge.Origin, nodeCount),
				"edge (%d, %d)", edge.Origin, edge.Target)
		}
		if edge.Target < 0 || edge.Target >= nodeCount {
			return nil, errors.Annotatef(types.NewInvalidNodeReferenceError(edge.Target, nodeCount),
				"edge (%d, %d)", edge.Origin, edge.Target)
		}
		if seen[edge] {
			// already counted, degrees must not double up
			continue
		}
		seen[edge] = true

		d.fromNodes[edge.Target] = append(d.fromNodes[edge.Target], edge.Origin)
		d.toNodes[edge.Origin] = append(d.toNodes[edge.Origin], edge.Target)
		d.inDegree[edge.Target]++
		d.outDegree[edge.Origin]++
	}

	for node := 0; node < nodeCount; node++ {
		sort.Ints(d.fromNodes[node])
		sort.Ints(d.toNodes[node])
	}

	if err := d.makeTopology(); err != nil {
		return nil, errors.Trace(err)
	}
	return d, nil
}

/**
 * makeTopology is Kahn's algorithm. It doubles as the cycle check: if the
 * queue drains before every node is placed, the remaining nodes can never
 * reach in-degree zero, which proves a cycle among them.
 */
func (d *DAG) makeTopology() error {
	inDegree := make([]int, d.nodeCount)
	copy(inDegree, d.inDegree)

	// seed with all source nodes, ascending for a reproducible order
	queue := make([]int, 0, d.nodeCount)
	for node, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, node)
		}
	}
	if len(queue) == 0 && d.nodeCount > 0 {
		return types.NewNoSourceNodeError(d.nodeCount)
	}

	d.topology = make([]int, 0, d.nodeCount)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		d.topology = append(d.topology, current)
		for _, target := range d.toNodes[current] {
			inDegree[target]--
			if inDegree[target] == 0 {
				queue = append(queue, target)
			}
		}
	}

	if len(d.topology) != d.nodeCount {
		placed := make([]bool, d.nodeCount)
		for _, node := range d.topology {
			placed[node] = true
		}
		unplaced := make([]int, 0, d.nodeCount-len(d.topology))
		for node := 0; node < d.nodeCount; node++ {
			if !placed[node] {
				unplaced = append(unplaced, node)
			}
		}
		return types.NewCyclicDependencyError(unplaced)
	}
	return nil
}

func (d *DAG) NodeCount() int {
	return d.nodeCount
}

// Topology returns the canonical full topological order. The caller gets
// a copy, the DAG stays immutable.
func (d *DAG) Topology() []int {
	topology := make([]int, len(d.topology))
	copy(topology, d.topology)
	return topology
}

func (d *DAG) InDegree(node int) int {
	return d.inDegree[node]
}

func (d *DAG) OutDegree(node int) int {
	return d.outDegree[node]
}

// DependenciesOf returns the nodes the given node depends on, ascending.
func (d *DAG) DependenciesOf(node int) []int {
	deps := make([]int, len(d.fromNodes[node]))
	copy(deps, d.fromNodes[node])
	return deps
}

// DependentsOf returns the nodes depending on the given node, ascending.
func (d *DAG) DependentsOf(node int) []int {
	deps := make([]int, len(d.toNodes[node]))
	copy(deps, d.toNodes[node])
	return deps
}

func (d *DAG) validNode(node int) bool {
	return node >= 0 && node < d.nodeCount
}
