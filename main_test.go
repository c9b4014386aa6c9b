package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseArgs_FlagsAroundURL(t *testing.T) {
	var out bytes.Buffer
	cfg, cli, err := parseArgs([]string{"-v", "https://example.com", "-r", "-concurrency", "3"}, &out)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if cli.url != "https://example.com" {
		t.Errorf("url = %q", cli.url)
	}
	if !cfg.Verbose || !cfg.Recursive {
		t.Errorf("expected verbose and recursive, got %+v", cfg)
	}
	if cfg.Concurrency != 3 {
		t.Errorf("concurrency = %d, want 3", cfg.Concurrency)
	}
}

func TestParseArgs_LongNames(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := parseArgs([]string{"-recursive", "-verbose", "-timeout", "2s", "-debug", "x.com"}, &out)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if !cfg.Recursive || !cfg.Verbose {
		t.Error("expected long flag names to set the same options")
	}
	if cfg.Timeout.Duration != 2*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout.Duration)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestParseArgs_TooManyURLs(t *testing.T) {
	var out bytes.Buffer
	if _, _, err := parseArgs([]string{"a.com", "b.com"}, &out); err == nil {
		t.Error("expected an error for two URLs")
	}
}

func TestParseArgs_ConfigFileWithFlagOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linky.yaml")
	content := "recursive: true\nconcurrency: 4\nuser_agent: from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cfg, _, err := parseArgs([]string{"-config", path, "-concurrency", "2", "example.com"}, &out)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if !cfg.Recursive {
		t.Error("expected recursive from file")
	}
	if cfg.UserAgent != "from-file" {
		t.Errorf("user agent = %q, want from-file", cfg.UserAgent)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("concurrency = %d, want flag value 2", cfg.Concurrency)
	}
}

func TestRun_NoURLPrintsUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr, false)
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "Usage: linky") {
		t.Errorf("expected usage, got %q", stdout.String())
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-version"}, &stdout, &stderr, false); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "linky dev") {
		t.Errorf("unexpected version output %q", stdout.String())
	}
}

func TestParseArgs_NumericTimeoutAndUpperCaseFormat(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := parseArgs([]string{"-timeout", "3", "-retry-delay", "250ms", "-format", "JSON", "x.com"}, &out)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if cfg.Timeout.Duration != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", cfg.Timeout.Duration)
	}
	if cfg.RetryDelay.Duration != 250*time.Millisecond {
		t.Errorf("retry delay = %v, want 250ms", cfg.RetryDelay.Duration)
	}
}

func TestParseArgs_BadTimeout(t *testing.T) {
	var out bytes.Buffer
	if _, _, err := parseArgs([]string{"-timeout", "soon", "x.com"}, &out); err == nil {
		t.Error("expected an error for an invalid timeout")
	}
}

func TestRun_BadFormat(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-format", "xml", "example.com"}, &stdout, &stderr, false); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><a href="/ok">ok</a><a href="/missing">missing</a></body></html>`)
	})
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "fine")
	})
	return server
}

func TestRun_PlainReportsBrokenLinks(t *testing.T) {
	server := newSite(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{server.URL, "-timeout", "5s"}, &stdout, &stderr, false)
	if code != 1 {
		t.Errorf("exit code = %d, want 1 (stderr: %s)", code, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, server.URL+"/missing [404]") {
		t.Errorf("expected progress line for broken link, got:\n%s", out)
	}
	if strings.Contains(out, server.URL+"/ok [200]") {
		t.Errorf("quiet mode should not print successes, got:\n%s", out)
	}
	if !strings.Contains(out, "found 1 broken links") {
		t.Errorf("expected summary, got:\n%s", out)
	}
}

func TestRun_JSONReport(t *testing.T) {
	server := newSite(t)

	var stdout, stderr bytes.Buffer
	run([]string{"-format", "json", server.URL}, &stdout, &stderr, false)

	var links []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &links); err != nil {
		t.Fatalf("stdout is not a JSON array: %v\n%s", err, stdout.String())
	}
	if len(links) != 1 || links[0]["url"] != server.URL+"/missing" {
		t.Errorf("unexpected report: %v", links)
	}
	if !strings.Contains(stderr.String(), "[404]") {
		t.Errorf("expected progress on stderr, got %q", stderr.String())
	}
}

func TestRun_UpperCaseFormatFlag(t *testing.T) {
	server := newSite(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-format", "JSON", server.URL}, &stdout, &stderr, false)
	if code != 1 {
		t.Errorf("exit code = %d, want 1 for one broken link (stderr: %s)", code, stderr.String())
	}

	var links []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &links); err != nil {
		t.Fatalf("stdout is not a JSON array: %v\n%s", err, stdout.String())
	}
	if len(links) != 1 {
		t.Errorf("unexpected report: %v", links)
	}
}
