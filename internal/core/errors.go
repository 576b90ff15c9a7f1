package core

import "errors"

var (
	// ErrInvalidID indicates a non-positive item id.
	ErrInvalidID = errors.New("core: item id must be positive")
	// ErrNoLanes indicates an item without any lane duration.
	ErrNoLanes = errors.New("core: item needs at least one lane duration")
	// ErrNonPositiveDuration indicates a lane duration <= 0.
	ErrNonPositiveDuration = errors.New("core: lane durations must be positive")
	// ErrNoAlternatives indicates a switch-lane item without alternatives.
	ErrNoAlternatives = errors.New("core: switch-lane item needs at least one alternative")
	// ErrAlternativeIndex indicates a switch to a non-listed alternative.
	ErrAlternativeIndex = errors.New("core: alternative index out of range")
)
