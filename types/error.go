package types

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
)

var (
	_ error = &InvalidNodeReferenceError{}
	_ error = &NoSourceNodeError{}
	_ error = &CyclicDependencyError{}
	_ error = &UnknownDependencyError{}
	_ error = UnknownDependencyErrors{}
)

/**
 * InvalidNodeReferenceError indicates an edge or a mark operation named a
 * node outside [0, NodeCount). Always a caller bug, never recovered.
 */
type InvalidNodeReferenceError struct {
	Node      int
	NodeCount int
}

func NewInvalidNodeReferenceError(node, nodeCount int) error {
	return &InvalidNodeReferenceError{Node: node, NodeCount: nodeCount}
}

func (e *InvalidNodeReferenceError) Error() string {
	return fmt.Sprintf("node %d referenced but nodes must be >= 0 and < %d", e.Node, e.NodeCount)
}

// NoSourceNodeError indicates a non-empty graph with no zero in-degree
// node, so there is no valid starting stage.
type NoSourceNodeError struct {
	NodeCount int
}

func NewNoSourceNodeError(nodeCount int) error {
	return &NoSourceNodeError{NodeCount: nodeCount}
}

func (e *NoSourceNodeError) Error() string {
	return fmt.Sprintf("no source node among %d nodes, configuration has no valid starting stage", e.NodeCount)
}

/**
 * CyclicDependencyError indicates topology construction could not place
 * every node. Unplaced holds the nodes that never reached in-degree zero,
 * giving the user a starting point for debugging.
 */
type CyclicDependencyError struct {
	Unplaced []int
}

func NewCyclicDependencyError(unplaced []int) error {
	return &CyclicDependencyError{Unplaced: unplaced}
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("configuration contains a circular dependency among nodes %v", e.Unplaced)
}

// UnknownDependencyError names one stage whose declared dependency does
// not match any declared stage.
type UnknownDependencyError struct {
	Stage      string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("stage %q depends on unknown stage %q", e.Stage, e.Dependency)
}

/**
 * UnknownDependencyErrors collects every unknown dependency found in one
 * configuration pass, so the user sees all problems at once instead of
 * fixing them one re-run at a time.
 */
type UnknownDependencyErrors []*UnknownDependencyError

func (e UnknownDependencyErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ue := range e {
		msgs = append(msgs, ue.Error())
	}
	return fmt.Sprintf("%d unknown dependencies: %s", len(e), strings.Join(msgs, "; "))
}

func IsInvalidNodeReference(err error) bool {
	var e *InvalidNodeReferenceError
	return errors.As(err, &e)
}

func IsNoSourceNode(err error) bool {
	var e *NoSourceNodeError
	return errors.As(err, &e)
}

/**
 * IsCyclicDependency also matches NoSourceNodeError: a non-empty graph
 * without any source node necessarily has a cycle touching every node,
 * the seed queue just drained before Kahn's algorithm could name one.
 */
func IsCyclicDependency(err error) bool {
	var e *CyclicDependencyError
	if errors.As(err, &e) {
		return true
	}
	return IsNoSourceNode(err)
}

func IsUnknownDependency(err error) bool {
	var e *UnknownDependencyError
	if errors.As(err, &e) {
		return true
	}
	var es UnknownDependencyErrors
	return errors.As(err, &es)
}
