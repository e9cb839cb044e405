package graph

import (
	"github.com/juju/errors"
	"github.com/stagewalk/stagewalk/types"
)

// StageDecl is one configured stage: its unique name and the names of the
// stages it depends on.
type StageDecl struct {
	Name string
	Deps []string
}

/**
 * StageGraph maps named stages into the DAG's integer node space and
 * back. Node indices follow declaration order: the i-th declared stage
 * is node i.
 */
type StageGraph struct {
	names []string
	index map[string]int

	dag *DAG
}

/**
 * NewStageGraph validates the declarations and builds the DAG, with one
 * edge (dependency, stage) per declared dependency. Unknown dependency
 * names are collected exhaustively across the whole configuration before
 * failing, so the user sees every problem in one pass.
 */
func NewStageGraph(decls []StageDecl) (*StageGraph, error) {
	sg := &StageGraph{
		names: make([]string, 0, len(decls)),
		index: make(map[string]int, len(decls)),
	}
	for i, decl := range decls {
		if _, exists := sg.index[decl.Name]; exists {
			return nil, errors.AlreadyExistsf("stage %q declared twice", decl.Name)
		}
		sg.index[decl.Name] = i
		sg.names = append(sg.names, decl.Name)
	}

	edges := make([]Edge, 0, len(decls))
	var unknown types.UnknownDependencyErrors
	for target, decl := range decls {
		for _, dep := range decl.Deps {
			origin, exists := sg.index[dep]
			if !exists {
				unknown = append(unknown, &types.UnknownDependencyError{Stage: decl.Name, Dependency: dep})
				continue
			}
			edges = append(edges, Edge{Origin: origin, Target: target})
		}
	}
	if len(unknown) > 0 {
		return nil, unknown
	}

	dag, err := NewDAG(len(decls), edges)
	if err != nil {
		return nil, errors.Trace(err)
	}
	sg.dag = dag
	return sg, nil
}

func (sg *StageGraph) DAG() *DAG {
	return sg.dag
}

func (sg *StageGraph) NodeCount() int {
	return len(sg.names)
}

// Index translates a stage name to its node index.
func (sg *StageGraph) Index(name string) (int, bool) {
	node, exists := sg.index[name]
	return node, exists
}

// Name translates a node index back to its stage name.
func (sg *StageGraph) Name(node int) (string, bool) {
	if node < 0 || node >= len(sg.names) {
		return "", false
	}
	return sg.names[node], true
}

// Names translates a node sequence, typically a computed plan, back to
// stage names in the same order.
func (sg *StageGraph) Names(nodes []int) ([]string, error) {
	names := make([]string, 0, len(nodes))
	for _, node := range nodes {
		name, exists := sg.Name(node)
		if !exists {
			return nil, errors.Trace(types.NewInvalidNodeReferenceError(node, len(sg.names)))
		}
		names = append(names, name)
	}
	return names, nil
}

// Indexes translates stage names to node indices, failing on the first
// name that matches no declared stage.
func (sg *StageGraph) Indexes(names []string) ([]int, error) {
	nodes := make([]int, 0, len(names))
	for _, name := range names {
		node, exists := sg.index[name]
		if !exists {
			return nil, errors.NotFoundf("stage %q", name)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
