// Package scan implements bounded sequential probing.
//
// A scan reads entries 0, 1, 2, ... until a stop predicate matches, a read
// fails, or the attempt bound is reached. The result says which of the three
// ended it, so a transient read failure is never mistaken for the end.
package scan

import (
	"context"
	"fmt"
)

// Stop describes why a scan ended.
type Stop int

// Stop reasons.
const (
	StopFoundEnd Stop = iota + 1
	StopBoundExhausted
	StopProbeFailed
)

// String returns the stop reason name.
func (s Stop) String() string {
	switch s {
	case StopFoundEnd:
		return "found_end"
	case StopBoundExhausted:
		return "bound_exhausted"
	case StopProbeFailed:
		return "probe_failed"
	default:
		return fmt.Sprintf("stop(%d)", int(s))
	}
}

// MarshalText encodes the stop reason by name.
func (s Stop) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the outcome of a scan.
type Result struct {
	Count    int   `json:"count"`    // entries before the stop
	Stop     Stop  `json:"stop"`     // why the scan ended
	Err      error `json:"-"`        // set when Stop is StopProbeFailed
	Attempts int   `json:"attempts"` // probe reads issued
}

// Complete reports whether Count is known to be exact.
func (r Result) Complete() bool {
	return r.Stop == StopFoundEnd
}

// ProbeFunc reads entry i.
type ProbeFunc[T any] func(ctx context.Context, i int) (T, error)

// Run probes entries from index 0 until isEnd matches, a probe fails, or max
// attempts have been made. It returns the result and the entries before the stop.
// A failed probe does not count as an entry.
func Run[T any](ctx context.Context, maxAttempts int, probe ProbeFunc[T], isEnd func(T) bool) (Result, []T) {
	var entries []T
	res := Result{Stop: StopBoundExhausted}

	for i := 0; i < maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			res.Stop = StopProbeFailed
			res.Err = err
			break
		}

		res.Attempts++
		v, err := probe(ctx, i)
		if err != nil {
			res.Stop = StopProbeFailed
			res.Err = err
			break
		}
		if isEnd(v) {
			res.Stop = StopFoundEnd
			break
		}
		entries = append(entries, v)
	}

	res.Count = len(entries)
	return res, entries
}
