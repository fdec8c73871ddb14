package orchestrator

import "errors"

var (
	// ErrInvalidSpec is returned when the input specs are structurally invalid.
	// No job is launched when Run or Launch returns it.
	ErrInvalidSpec = errors.New("invalid job spec")

	// ErrInvalidPolicy is returned when a PollPolicy cannot bound a polling loop.
	ErrInvalidPolicy = errors.New("invalid poll policy")

	// ErrClientRequired is returned when an orchestrator is created without a remote client.
	ErrClientRequired = errors.New("remote client is required")
)
