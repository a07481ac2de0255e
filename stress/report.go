package stress

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Report is the outcome of one Runner.Run.
type Report struct {
	RunID      uuid.UUID
	Threads    int
	Iterations int
	Results    []Result
	Elapsed    time.Duration
	Err        error // every failing worker, nil when all matched
}

func newReport(r *Runner) *Report {
	return &Report{
		RunID:      uuid.Must(uuid.NewV4()),
		Threads:    r.Threads,
		Iterations: r.Iterations,
		Results:    make([]Result, 0, r.Threads*r.Iterations),
	}
}

// verify compares each worker's log with want.
func (rep *Report) verify(want []string) error {
	var result *multierror.Error
	for _, res := range rep.Results {
		switch {
		case res.Panic != "":
			result = multierror.Append(result, errors.Errorf(
				"iteration %d worker %d: panic: %s", res.Iteration, res.Worker, res.Panic))
		case !equal(res.Log, want):
			result = multierror.Append(result, errors.Errorf(
				"iteration %d worker %d: log %v, want %v", res.Iteration, res.Worker, res.Log, want))
		}
		if res.Leaked != 0 {
			result = multierror.Append(result, errors.Errorf(
				"iteration %d worker %d: %d frames left linked", res.Iteration, res.Worker, res.Leaked))
		}
	}
	return result.ErrorOrNil()
}

// Failures returns how many workers did not log what was expected.
func (rep *Report) Failures() int {
	if merr, ok := rep.Err.(*multierror.Error); ok {
		return len(merr.Errors)
	}
	if rep.Err != nil {
		return 1
	}
	return 0
}

// Summary is a one-line description of the run.
func (rep *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d threads x %d iterations, %d workers in %v",
		rep.RunID, rep.Threads, rep.Iterations, len(rep.Results), rep.Elapsed)
	if rep.Err == nil {
		b.WriteString(", all ok")
	} else {
		fmt.Fprintf(&b, ", %d failures", rep.Failures())
	}
	return b.String()
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
