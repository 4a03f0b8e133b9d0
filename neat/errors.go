package neat

import "errors"

var (
	// ErrExtinct is returned when reproduction yields no genomes and
	// reset_on_extinction is off.
	ErrExtinct = errors.New("population extinct")
	// ErrEmptySpecies marks sampling from a species without members.
	ErrEmptySpecies = errors.New("empty species")
	// ErrPhase is returned when a generation is started outside the idle phase,
	// e.g. after an earlier step failed and aborted the run.
	ErrPhase = errors.New("generation not idle")
)
