package types

// WorkDirPolicy tells the runner whether a stage needs a directory of
// its own. The capability is declared on the descriptor, not discovered
// from the handler at run time.
type WorkDirPolicy int32

const (
	// WorkDirShared runs the stage in the run's work directory.
	WorkDirShared WorkDirPolicy = 0
	// WorkDirDedicated gives the stage its own subdirectory, created
	// before the handler runs.
	WorkDirDedicated WorkDirPolicy = 1
)

/**
 * Stage is one named unit of work. Deps name the stages that must finish
 * before this one may run; every name must match a declared stage.
 * Declaration order is significant: it fixes the node index of each
 * stage and thereby the deterministic tie-break between independent
 * stages.
 */
type Stage struct {
	Name string
	Deps []string

	Handler StageHandler

	/**
	 * WorkDir is the stage's directory relative to the run work
	 * directory. Empty means the stage name.
	 */
	WorkDir string
	Policy  WorkDirPolicy

	// Config is passed verbatim to the handler.
	Config Data
}

// StageHandler executes one stage. A non-nil error aborts the run; the
// stage is then not marked done.
type StageHandler func(ctx Context, config Data) error
