// Package errors defines the typed error kinds used across the engine.
// Stage failures are data (stage.Status) above the stage boundary; these
// types exist for configuration-time (4xx) and storage (5xx) failures that
// legitimately need to propagate as Go errors.
package errors

import "fmt"

// ValidationError captures monitor/config validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UnknownStageError is raised by the registry when a stage spec names a
// `type` with no registered constructor.
type UnknownStageError struct {
	MonitorID string
	StageType string
}

func NewUnknownStageError(monitorID, stageType string) error {
	return &UnknownStageError{MonitorID: monitorID, StageType: stageType}
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("monitor %s: unknown stage type %q", e.MonitorID, e.StageType)
}

// BadStageConfigError is raised by a stage constructor when option
// validation fails, referencing the monitor id and stage index.
type BadStageConfigError struct {
	MonitorID  string
	StageIndex int
	StageType  string
	Err        error
}

func NewBadStageConfigError(monitorID string, stageIndex int, stageType string, err error) error {
	return &BadStageConfigError{MonitorID: monitorID, StageIndex: stageIndex, StageType: stageType, Err: err}
}

func (e *BadStageConfigError) Error() string {
	return fmt.Sprintf("monitor %s: stage %d (%s): %v", e.MonitorID, e.StageIndex, e.StageType, e.Err)
}

func (e *BadStageConfigError) Unwrap() error { return e.Err }

// BadPipelineError is raised by the executor's pre-flight structural check,
// e.g. a pipeline with no network stage.
type BadPipelineError struct {
	MonitorID string
	Reason    string
}

func NewBadPipelineError(monitorID, reason string) error {
	return &BadPipelineError{MonitorID: monitorID, Reason: reason}
}

func (e *BadPipelineError) Error() string {
	return fmt.Sprintf("monitor %s: invalid pipeline: %s", e.MonitorID, e.Reason)
}

// StageTimeoutError marks a single stage exceeding its timeout budget.
type StageTimeoutError struct {
	StageType string
}

func NewStageTimeoutError(stageType string) error {
	return &StageTimeoutError{StageType: stageType}
}

func (e *StageTimeoutError) Error() string {
	return fmt.Sprintf("stage %s: timeout", e.StageType)
}

// PipelineTimeoutError marks the whole pipeline exceeding the sum-of-stage-
// timeouts-plus-slack cap.
type PipelineTimeoutError struct {
	MonitorID string
}

func NewPipelineTimeoutError(monitorID string) error {
	return &PipelineTimeoutError{MonitorID: monitorID}
}

func (e *PipelineTimeoutError) Error() string {
	return fmt.Sprintf("monitor %s: pipeline_timeout", e.MonitorID)
}

// UnresolvedValueError marks a `$name` reference with no matching entry in
// the run context's value map.
type UnresolvedValueError struct {
	Name string
}

func NewUnresolvedValueError(name string) error {
	return &UnresolvedValueError{Name: name}
}

func (e *UnresolvedValueError) Error() string {
	return fmt.Sprintf("unresolved $%s", e.Name)
}

// NotFoundError marks a lookup against the storage contract that found
// nothing, surfaced as 404 at the HTTP boundary (§7).
type NotFoundError struct {
	Kind string
	ID   string
}

func NewNotFoundError(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// StorageError wraps a failure from the storage contract.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
