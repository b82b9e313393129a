package service

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step a lookup failure originated from.
type Stage string

const (
	StageLocation Stage = "location"
	StageGeocode  Stage = "geocode"
	StageRegistry Stage = "registry"
)

// ErrLookupInProgress is returned when a trigger arrives while another lookup
// cycle is still running. The running cycle and the held state are untouched.
var ErrLookupInProgress = errors.New("lookup already in progress")

// StageError attaches the failing stage to an underlying pipeline error.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err.Error())
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
