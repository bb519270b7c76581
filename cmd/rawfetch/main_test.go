package main

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func serveOnce(t *testing.T, response string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				buf := make([]byte, 4096)
				var req []byte
				for !bytes.Contains(req, []byte("\r\n\r\n")) {
					n, err := conn.Read(buf)
					req = append(req, buf[:n]...)
					if err != nil {
						return
					}
				}
				io.WriteString(conn, response)
			}()
		}
	}()
	return fmt.Sprintf("http://%s/", ln.Addr())
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestGetCommand(t *testing.T) {
	url := serveOnce(t, "HTTP/1.0 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 5\r\n\r\nhello world")

	out, err := runCLI(t, "get", url)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	for _, want := range []string{"Status: 200\n", "Content-Type: text/plain\n", "\nhello"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "world") {
		t.Errorf("body should stop at Content-Length:\n%s", out)
	}
}

func TestBatchCommand(t *testing.T) {
	url := serveOnce(t, "HTTP/1.0 404 Not Found\r\n\r\nmissing")

	list := filepath.Join(t.TempDir(), "urls.txt")
	content := url + "\nftp://example.com/file\n"
	if err := os.WriteFile(list, []byte(content), 0o600); err != nil {
		t.Fatalf("write list: %v", err)
	}

	out, err := runCLI(t, "batch", list, "--workers", "2")
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 result lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "404 7B ") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "ERR unsupported_scheme ftp://example.com/file") {
		t.Errorf("unexpected second line %q", lines[1])
	}
}

func TestGetZeroMaxContentIsUnbounded(t *testing.T) {
	url := serveOnce(t, "HTTP/1.0 200 OK\r\nContent-Type: text/plain\r\n\r\nhello world")

	out, err := runCLI(t, "get", url, "--max-content", "0")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !strings.Contains(out, "hello world") {
		t.Errorf("expected the whole body with --max-content 0:\n%s", out)
	}
}

func TestServeMetricsShutdown(t *testing.T) {
	flagMetricsAddr = "127.0.0.1:0"
	t.Cleanup(func() { flagMetricsAddr = "" })

	var logs bytes.Buffer
	recorder, stop, err := serveMetrics(zerolog.New(&logs).Level(zerolog.WarnLevel))
	if err != nil {
		t.Fatalf("serveMetrics: %v", err)
	}
	if recorder == nil {
		t.Fatal("expected a recorder")
	}
	stop()

	if strings.Contains(logs.String(), "shutdown failed") {
		t.Errorf("clean shutdown should not warn: %s", logs.String())
	}
}
