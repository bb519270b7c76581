package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagSince   string
	flagOutput  string
	flagHeaders bool
)

var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Fetch a single URL",
	Long: `Get fetches one URL and prints the status line, the headers and the body.

Examples:
  rawfetch get http://example.com/
  rawfetch get https://example.com/feed --since 2024-03-05T10:20:30Z
  rawfetch get https://example.com/ --render --output page.html`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVar(&flagSince, "since", "", "Send If-Modified-Since for this RFC 3339 time")
	getCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write the body to this file instead of stdout")
	getCmd.Flags().BoolVar(&flagHeaders, "headers-only", false, "Print the status and headers only")
}

func runGet(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}

	var since time.Time
	if flagSince != "" {
		since, err = time.Parse(time.RFC3339, flagSince)
		if err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
	}

	ctx := cmd.Context()
	fetcher, cleanup, err := newFetcher(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := fetcher.Fetch(ctx, args[0], since)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Status: %d\n", resp.StatusCode)
	for _, f := range resp.Headers.Fields() {
		fmt.Fprintf(out, "%s: %s\n", f.Name, f.Value)
	}
	log.Info().
		Str("remote", resp.RemoteAddr).
		Str("tls", resp.TLSVersion).
		Stringer("timings", resp.Timings).
		Msg("Fetched")

	if flagHeaders {
		return nil
	}

	if flagOutput != "" {
		if err := os.WriteFile(flagOutput, resp.Body, 0o644); err != nil {
			return fmt.Errorf("writing body: %w", err)
		}
		log.Info().Str("file", flagOutput).Int("bytes", len(resp.Body)).Msg("Body written")
		return nil
	}

	fmt.Fprintln(out)
	_, err = out.Write(resp.Body)
	return err
}
