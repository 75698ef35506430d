package main

import "fmt"

// StageError attributes a pipeline failure to the stage that raised
// it, and to the grid cell when the failure happened inside one.
type StageError struct {
	Stage Stage
	Tag   string
	Err   error
}

func (e *StageError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("stage %s (cell %s): %v", e.Stage, e.Tag, e.Err)
	}
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func newStageError(stage Stage, tag string, err error) *StageError {
	return &StageError{Stage: stage, Tag: tag, Err: err}
}
