package runtime

import (
	"context"

	"github.com/stagewalk/stagewalk/types"
)

var (
	_ types.Context = &stageContext{}
)

// stageContext is the types.Context handed to a stage handler.
type stageContext struct {
	context.Context

	stageName string
	workDir   string
}

func newStageContext(ctx context.Context, stageName, workDir string) *stageContext {
	return &stageContext{Context: ctx, stageName: stageName, workDir: workDir}
}

func (s *stageContext) GetStageName() string {
	return s.stageName
}

func (s *stageContext) GetWorkDir() string {
	return s.workDir
}
