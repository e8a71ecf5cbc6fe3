package collector

import (
	"time"

	"qsim/internal/core"
)

// Record is the outcome of one run inside a sweep.
type Record struct {
	Index      int
	ID         string
	Sweep      string
	Replicate  int
	Seed       uint64
	Params     core.Params
	Result     Result
	Error      string
	Events     int
	Inversions int
	Elapsed    time.Duration
}

// Failed reports whether the run produced no result.
func (r Record) Failed() bool {
	return r.Error != ""
}
