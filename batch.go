package kitsheet

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Batch converts jobs on at most workers goroutines (GOMAXPROCS when
// workers is zero or less). A failed job does not stop the others: every
// job gets a Result, in the order of jobs, with Err set on failure. Jobs
// not yet started when ctx is done fail with the context error.
func (c *Converter) Batch(ctx context.Context, jobs []Job, workers int) []Result {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Job: job, Err: err}
			continue
		}
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Job: job, Err: err}
				return nil
			}
			res, err := c.Convert(ctx, job)
			if res == nil {
				res = &Result{Job: job}
			}
			res.Err = err
			results[i] = *res
			if err != nil {
				c.logger.Error("conversion failed",
					zap.String("source", job.Source),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	c.logger.Info("batch finished",
		zap.Int("jobs", len(jobs)),
		zap.Int("failed", failed),
		zap.Int("workers", workers))
	return results
}
