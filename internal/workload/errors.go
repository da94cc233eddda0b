package workload

import (
	"fmt"
)

// AllocationError reports that a configured synthetic data size could
// not be backed by host memory. The caller should reduce the test size;
// other phases remain runnable.
type AllocationError struct {
	SizeBytes      int64
	AvailableBytes uint64
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("cannot allocate %d bytes of workload data (%d bytes available)", e.SizeBytes, e.AvailableBytes)
}

// WorkerFailure identifies the parallel unit whose workload raised. It
// isolates to that unit's result slot; sibling units are unaffected.
type WorkerFailure struct {
	Unit int
	Err  error
}

func (e *WorkerFailure) Error() string {
	return fmt.Sprintf("parallel unit %d failed: %v", e.Unit, e.Err)
}

func (e *WorkerFailure) Unwrap() error {
	return e.Err
}
