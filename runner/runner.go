// Package runner executes independent comparison jobs. Jobs are
// embarrassingly parallel and failure-isolated: one comparison failing is
// recorded, not propagated to its siblings.
package runner

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Job is one unit of work, typically a single subset or design comparison.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Result pairs a job with its outcome. Err is nil on success.
type Result struct {
	Name string
	Err  error
}

// Run executes jobs with at most workers in flight, returning results in
// job order. Job errors are captured per job; only context cancellation
// stops the batch early.
func Run(ctx context.Context, jobs []Job, workers int) []Result {
	if workers <= 0 {
		workers = 1
	}

	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, job := range jobs {
		i, job := i, job
		results[i].Name = job.Name

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Err = job.Run(ctx)
			return nil
		})
	}

	// The group never receives job errors, so this only reflects ctx.
	_ = g.Wait()

	return results
}

// Failed filters results down to those that errored.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
