package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/WhileEndless/go-rawfetch/pkg/client"
	"github.com/WhileEndless/go-rawfetch/pkg/config"
	"github.com/WhileEndless/go-rawfetch/pkg/render"
)

// Persistent flag variables.
var (
	flagConfig      string
	flagLogLevel    string
	flagTimeout     time.Duration
	flagMaxContent  int64
	flagProxy       string
	flagUserAgent   string
	flagInsecure    bool
	flagRender      bool
	flagRenderWait  string
	flagRenderSleep time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "rawfetch",
	Short: "rawfetch - fetch URLs over raw HTTP/1.0 sockets",
	Long: `rawfetch issues minimal HTTP/1.0 GET requests over raw TCP or TLS sockets
and tolerates the malformed responses real crawls run into.

Usage:
  rawfetch get <url> [flags]
  rawfetch batch <file> [flags]`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "YAML config file")
	pf.StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.DurationVar(&flagTimeout, "timeout", 0, "Per-operation timeout (overrides config)")
	pf.Int64Var(&flagMaxContent, "max-content", 0, "Maximum raw body bytes, zero or negative for unbounded (overrides config)")
	pf.StringVar(&flagProxy, "proxy", "", "Proxy URL, http:// or socks5:// (overrides config)")
	pf.StringVar(&flagUserAgent, "user-agent", "", "User-Agent header (overrides config)")
	pf.BoolVar(&flagInsecure, "insecure", false, "Skip TLS certificate verification")
	pf.BoolVar(&flagRender, "render", false, "Render HTML bodies in headless Chrome")
	pf.StringVar(&flagRenderWait, "render-wait", "body", "CSS selector to wait for before capturing rendered HTML")
	pf.DurationVar(&flagRenderSleep, "render-settle", 500*time.Millisecond, "Extra time for scripts to settle before capture")
}

func newLogger() (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(flagLogLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level: %w", err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger(), nil
}

// loadConfig merges defaults, the config file, the environment and flags, in
// that order of increasing precedence.
func loadConfig(cmd *cobra.Command) (client.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.Timeout = flagTimeout
	}
	if flags.Changed("max-content") {
		cfg.MaxContent = flagMaxContent
	}
	if flagProxy != "" {
		proxy, err := client.ParseProxyURL(flagProxy)
		if err != nil {
			return cfg, err
		}
		cfg.Proxy.Enabled = true
		cfg.Proxy.ProxyConfig = *proxy
	}
	if flagUserAgent != "" {
		cfg.UserAgent = flagUserAgent
	}
	if flagInsecure {
		cfg.InsecureTLS = true
	}
	return cfg, nil
}

// newFetcher builds a Fetcher from the command line. The returned cleanup
// releases the browser when rendering is enabled.
func newFetcher(ctx context.Context, cmd *cobra.Command, log zerolog.Logger, opts ...client.Option) (*client.Fetcher, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	opts = append(opts, client.WithLogger(log))
	if flagRender {
		chrome := render.NewChrome(ctx)
		chrome.WaitSelector = flagRenderWait
		chrome.Settle = flagRenderSleep
		chrome.Timeout = cfg.Timeout
		opts = append(opts, client.WithRenderer(chrome))
		cleanup = chrome.Close
	}

	f, err := client.New(cfg, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return f, cleanup, nil
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
