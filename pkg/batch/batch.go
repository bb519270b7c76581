// Package batch runs many independent fetches with bounded concurrency.
package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/WhileEndless/go-rawfetch/pkg/client"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
)

// DefaultWorkers is used when Runner.Workers is not positive.
const DefaultWorkers = 4

// Fetcher is the single-fetch operation the Runner drives. *client.Fetcher
// satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, modifiedSince time.Time) (*client.Response, error)
}

// Job is one URL to fetch.
type Job struct {
	URL string
	// ModifiedSince makes the fetch conditional when non-zero.
	ModifiedSince time.Time
}

// Result pairs a Job with its outcome. Exactly one of Response and Err is set.
type Result struct {
	Job      Job
	Response *client.Response
	Err      error
	Elapsed  time.Duration
}

// Runner fetches jobs concurrently, one connection per fetch.
type Runner struct {
	Fetcher Fetcher
	Workers int
	// Delay spaces out dispatches when positive.
	Delay  time.Duration
	Logger zerolog.Logger
}

// Run fetches every job and returns results in input order. A failed fetch
// does not stop the others. Jobs not started before ctx is done report
// ctx.Err().
func (r *Runner) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	for i, job := range jobs {
		results[i].Job = job
	}

	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	dispatched := 0
	for i := range jobs {
		if gctx.Err() != nil {
			break
		}
		if i > 0 && r.Delay > 0 {
			timer := time.NewTimer(r.Delay)
			select {
			case <-gctx.Done():
				timer.Stop()
			case <-timer.C:
			}
			if gctx.Err() != nil {
				break
			}
		}

		dispatched++
		g.Go(func() error {
			start := time.Now()
			resp, err := r.Fetcher.Fetch(gctx, jobs[i].URL, jobs[i].ModifiedSince)
			results[i].Response = resp
			results[i].Err = err
			results[i].Elapsed = time.Since(start)

			switch {
			case err == nil:
			case errors.IsContextCanceled(err):
				r.Logger.Debug().Str("url", jobs[i].URL).Msg("Fetch canceled")
			default:
				r.Logger.Warn().Err(err).Str("url", jobs[i].URL).Msg("Fetch failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := dispatched; i < len(jobs); i++ {
		results[i].Err = ctx.Err()
	}
	return results
}

// ParseJobs reads one job per line: a URL optionally followed by an RFC 3339
// timestamp for a conditional fetch. Blank lines and lines starting with #
// are skipped.
func ParseJobs(r io.Reader) ([]Job, error) {
	var jobs []Job
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		job := Job{URL: fields[0]}
		switch len(fields) {
		case 1:
		case 2:
			since, err := time.Parse(time.RFC3339, fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid timestamp %q: %w", lineNo, fields[1], err)
			}
			job.ModifiedSince = since
		default:
			return nil, fmt.Errorf("line %d: expected URL and optional timestamp, got %d fields", lineNo, len(fields))
		}
		jobs = append(jobs, job)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}
