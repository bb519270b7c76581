package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/WhileEndless/go-rawfetch/pkg/batch"
	"github.com/WhileEndless/go-rawfetch/pkg/client"
	"github.com/WhileEndless/go-rawfetch/pkg/errors"
	"github.com/WhileEndless/go-rawfetch/pkg/metrics"
)

const metricsPath = "/metrics"

var (
	flagWorkers     int
	flagDelay       time.Duration
	flagMetricsAddr string
	flagLinger      time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Fetch every URL listed in a file",
	Long: `Batch reads one URL per line (optionally followed by an RFC 3339 timestamp
for a conditional fetch) and fetches them concurrently, one connection each.
Use - to read the list from stdin.

Examples:
  rawfetch batch urls.txt --workers 8
  rawfetch batch urls.txt --metrics-addr :9100 --linger 1m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&flagWorkers, "workers", batch.DefaultWorkers, "Concurrent fetches")
	batchCmd.Flags().DurationVar(&flagDelay, "delay", 0, "Delay between dispatches")
	batchCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	batchCmd.Flags().DurationVar(&flagLinger, "linger", 0, "Keep serving metrics this long after the batch finishes")
}

func runBatch(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}

	jobs, err := readJobs(args[0])
	if err != nil {
		return err
	}
	log.Info().Int("jobs", len(jobs)).Int("workers", flagWorkers).Msg("Starting batch")

	ctx := cmd.Context()
	var opts []client.Option
	if flagMetricsAddr != "" {
		recorder, stop, err := serveMetrics(log)
		if err != nil {
			return err
		}
		defer stop()
		opts = append(opts, client.WithObserver(recorder))
	}

	fetcher, cleanup, err := newFetcher(ctx, cmd, log, opts...)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := &batch.Runner{
		Fetcher: fetcher,
		Workers: flagWorkers,
		Delay:   flagDelay,
		Logger:  log,
	}
	results := runner.Run(ctx, jobs)

	out := cmd.OutOrStdout()
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(out, "ERR %s %s: %v\n", errorName(res.Err), res.Job.URL, res.Err)
			continue
		}
		fmt.Fprintf(out, "%d %dB %s %s\n", res.Response.StatusCode, len(res.Response.Body),
			res.Elapsed.Round(time.Millisecond), res.Job.URL)
	}
	log.Info().Int("ok", len(results)-failed).Int("failed", failed).Msg("Batch finished")

	if flagMetricsAddr != "" && flagLinger > 0 {
		log.Info().Dur("linger", flagLinger).Msg("Serving metrics before exit")
		select {
		case <-ctx.Done():
		case <-time.After(flagLinger):
		}
	}
	return nil
}

func readJobs(path string) ([]batch.Job, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return batch.ParseJobs(r)
}

// serveMetrics starts the metrics listener and returns the recorder feeding it.
func serveMetrics(log zerolog.Logger) (*metrics.Recorder, func(), error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: flagMetricsAddr, Handler: mux}

	go func() {
		log.Info().Str("addr", flagMetricsAddr).Str("path", metricsPath).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}
	return recorder, stop, nil
}

func errorName(err error) string {
	if t := errors.GetErrorType(err); t != "" {
		return string(t)
	}
	return "error"
}
