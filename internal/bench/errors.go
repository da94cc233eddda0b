package bench

import (
	"errors"
)

// The two fatal error categories. Everything else is captured into the
// report's per-phase slots instead of aborting the run.
var (
	// ErrSamplerStart means no resource series is possible at all.
	ErrSamplerStart = errors.New("resource sampler failed to start")

	// ErrNoPhaseSucceeded means the report would contain no
	// measurement of any kind.
	ErrNoPhaseSucceeded = errors.New("no benchmark phase produced a result")
)
