package types

import (
	"context"
)

type StatusType int32

const (
	None    StatusType = 0
	Pending StatusType = 1
	Running StatusType = 2
	Failed  StatusType = 5
	Done    StatusType = 10
)

type Context interface {
	context.Context

	// GetStageName returns the name of the stage being executed.
	GetStageName() string
	/**
	 * GetWorkDir returns the directory the stage should work in.
	 * For WorkDirShared stages this is the run's work directory itself,
	 * for WorkDirDedicated stages it is a per-stage subdirectory.
	 */
	GetWorkDir() string
}
