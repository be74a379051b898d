package types

import "fmt"

// ValidationError reports placeholder geometry that violates the region
// invariants. Callers normally repair the region by clamping instead of
// surfacing this error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid region %s: %s", e.Field, e.Reason)
}

// DecodeError reports image bytes that could not be turned into a raster.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to decode %s image", e.Source)
	}
	return fmt.Sprintf("failed to decode %s image: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RenderError reports a failure of the drawing or encoding backend.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed at %s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
