package core

// RunStore archives completed pipeline runs for the reporting surface.
// Implementations must be safe for concurrent use and must not allow stored
// runs to be mutated through returned references.
type RunStore interface {
	// Save archives a run. Saving an existing ID overwrites it.
	Save(run *PipelineRun) error

	// Get returns the archived run or ErrRunNotFound.
	Get(id string) (*PipelineRun, error)

	// List returns all archived runs ordered by creation time.
	List() []*PipelineRun
}
