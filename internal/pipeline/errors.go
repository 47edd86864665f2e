package pipeline

import "fmt"

// Stage names a pipeline step in diagnostics.
type Stage string

const (
	StageClassify Stage = "classify"
	StageResolve  Stage = "resolve"
	StageManifest Stage = "manifest"
	StagePrepare  Stage = "prepare"
	StageDownload Stage = "download"
)

// StageError records which stage failed. The wrapped error keeps its
// model sentinel so callers can still match with errors.Is.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
