package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeInterpreter answers the version query and import check, records pip
// invocations into pipLog and exits with targetCode when asked to run app.py
func fakeInterpreter(t *testing.T, dir string, importable bool, targetCode int) (interp, pipLog string) {
	t.Helper()

	importStatus := 1
	if importable {
		importStatus = 0
	}
	pipLog = filepath.Join(dir, "pip.log")
	script := fmt.Sprintf(`#!/bin/sh
case "$1" in
  --version) echo "Python 3.11.4" ;;
  -c) exit %d ;;
  -m) echo "$@" >> %q; exit 1 ;;
  app.py) echo "app running"; exit %d ;;
  *) exit 99 ;;
esac
`, importStatus, pipLog, targetCode)

	interp = filepath.Join(dir, "python3")
	//nolint:gosec // G306: Test executable script needs 0700 permissions
	if err := os.WriteFile(interp, []byte(script), 0700); err != nil {
		t.Fatalf("Failed to create fake interpreter: %v", err)
	}
	return interp, pipLog
}

func writeConfig(t *testing.T, dir, interp, healthURL string) string {
	t.Helper()

	config := fmt.Sprintf(`runtime:
  interpreter: %q
dependency:
  manifest: %q
health:
  url: %q
  timeout: 1s
target:
  program: app.py
`, interp, filepath.Join(dir, "requirements.txt"), healthURL)

	path := filepath.Join(dir, "preflight.yml")
	if err := os.WriteFile(path, []byte(config), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func healthyServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRun_Help(t *testing.T) {
	for _, arg := range []string{"--help", "-h"} {
		var stdout, stderr bytes.Buffer
		if code := run(context.Background(), []string{arg}, strings.NewReader(""), &stdout, &stderr); code != 0 {
			t.Errorf("run(%s) = %d, want 0", arg, code)
		}
		if !strings.Contains(stdout.String(), "Usage:") || !strings.Contains(stdout.String(), "--config") {
			t.Errorf("run(%s) output missing usage:\n%s", arg, stdout.String())
		}
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"--version"}, strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Errorf("run(--version) = %d, want 0", code)
	}
	if stdout.String() != "preflight dev\n" {
		t.Errorf("run(--version) output = %q", stdout.String())
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"--bogus"}},
		{name: "positional argument", args: []string{"app.py"}},
		{name: "unknown log level", args: []string{"--log-level", "verbose"}},
		{name: "missing config file", args: []string{"--config", filepath.Join(t.TempDir(), "missing.yml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), tt.args, strings.NewReader(""), &stdout, &stderr); code != exitUsage {
				t.Errorf("run() = %d, want %d", code, exitUsage)
			}
			if stderr.Len() == 0 {
				t.Error("run() should explain the error on stderr")
			}
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preflight.yml")
	if err := os.WriteFile(path, []byte("target:\n  strategy: fork\n"), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--config", path}, strings.NewReader(""), &stdout, &stderr)

	if code != exitUsage {
		t.Errorf("run() = %d, want %d", code, exitUsage)
	}
	if stdout.Len() != 0 {
		t.Errorf("no step should run on a configuration error, got:\n%s", stdout.String())
	}
}

func TestRun_UnimportableModuleName(t *testing.T) {
	dir := t.TempDir()
	interp, pipLog := fakeInterpreter(t, dir, false, 0)
	path := filepath.Join(dir, "preflight.yml")
	content := fmt.Sprintf("runtime:\n  interpreter: %q\ndependency:\n  module: foo-bar\n", interp)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--config", path}, strings.NewReader(""), &stdout, &stderr)

	if code != exitUsage {
		t.Errorf("run() = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(stderr.String(), "dependency.module") {
		t.Errorf("stderr should name the invalid field:\n%s", stderr.String())
	}
	if _, err := os.Stat(pipLog); !os.IsNotExist(err) {
		t.Error("installer must not run for an invalid module name")
	}
}

func TestRun_HealthyLaunchForwardsExitCode(t *testing.T) {
	dir := t.TempDir()
	interp, pipLog := fakeInterpreter(t, dir, true, 5)
	config := writeConfig(t, dir, interp, healthyServer(t).URL+"/health")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--config", config}, strings.NewReader(""), &stdout, &stderr)

	if code != 5 {
		t.Errorf("run() = %d, want the application's exit code 5\nstdout:\n%s\nstderr:\n%s", code, stdout.String(), stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{"Python 3.11.4", "openfhe is installed", "Lobby server is running", "app running"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Continue anyway?") {
		t.Error("no prompt should be shown when the lobby is healthy")
	}
	if _, err := os.Stat(pipLog); !os.IsNotExist(err) {
		t.Error("installer should not run when the dependency is importable")
	}
}

func TestRun_MissingDependencyInstallsThenContinues(t *testing.T) {
	dir := t.TempDir()
	interp, pipLog := fakeInterpreter(t, dir, false, 0)
	config := writeConfig(t, dir, interp, healthyServer(t).URL+"/health")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--config", config}, strings.NewReader(""), &stdout, &stderr)

	if code != 0 {
		t.Errorf("run() = %d, want 0\nstdout:\n%s", code, stdout.String())
	}

	//nolint:gosec // G304: Reading test file from temp directory
	logged, err := os.ReadFile(pipLog)
	if err != nil {
		t.Fatalf("installer was not invoked: %v", err)
	}
	if !strings.Contains(string(logged), "pip install -r "+filepath.Join(dir, "requirements.txt")) {
		t.Errorf("installer invoked with %q", string(logged))
	}
	if !strings.Contains(stdout.String(), "app running") {
		t.Errorf("application should still start after a failed install:\n%s", stdout.String())
	}
}

func TestRun_UnhealthyLobby(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	downURL := server.URL + "/health"
	server.Close()

	tests := []struct {
		name     string
		answer   string
		wantCode int
		wantApp  bool
	}{
		{name: "declined", answer: "n\n", wantCode: 1, wantApp: false},
		{name: "empty answer", answer: "\n", wantCode: 1, wantApp: false},
		{name: "end of input", answer: "", wantCode: 1, wantApp: false},
		{name: "confirmed", answer: "y\n", wantCode: 4, wantApp: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			interp, _ := fakeInterpreter(t, dir, true, 4)
			config := writeConfig(t, dir, interp, downURL)

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{"--config", config}, strings.NewReader(tt.answer), &stdout, &stderr)

			if code != tt.wantCode {
				t.Errorf("run() = %d, want %d\nstdout:\n%s", code, tt.wantCode, stdout.String())
			}
			out := stdout.String()
			if !strings.Contains(out, "Continue anyway? (y/N)") {
				t.Errorf("prompt missing:\n%s", out)
			}
			if got := strings.Contains(out, "app running"); got != tt.wantApp {
				t.Errorf("application started = %v, want %v", got, tt.wantApp)
			}
		})
	}
}

func TestRun_HandoffFailure(t *testing.T) {
	dir := t.TempDir()
	interp, _ := fakeInterpreter(t, dir, true, 0)
	config := filepath.Join(dir, "preflight.yml")
	content := fmt.Sprintf(`runtime:
  interpreter: %q
health:
  url: %q
target:
  program: %q
  direct: true
`, interp, healthyServer(t).URL+"/health", filepath.Join(dir, "missing-app"))
	if err := os.WriteFile(config, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--config", config}, strings.NewReader(""), &stdout, &stderr)

	if code != 127 {
		t.Errorf("run() = %d, want 127", code)
	}
	if !strings.Contains(stderr.String(), "failed to start target application") {
		t.Errorf("stderr should report the handoff failure:\n%s", stderr.String())
	}
}

func TestRun_ApplicationReceivesInputAfterAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	downURL := server.URL + "/health"
	server.Close()

	dir := t.TempDir()
	received := filepath.Join(dir, "received")
	interp := filepath.Join(dir, "python3")
	script := fmt.Sprintf(`#!/bin/sh
case "$1" in
  --version) echo "Python 3.11.4" ;;
  -c) exit 0 ;;
  app.py) cat > %q ;;
  *) exit 99 ;;
esac
`, received)
	//nolint:gosec // G306: Test executable script needs 0700 permissions
	if err := os.WriteFile(interp, []byte(script), 0700); err != nil {
		t.Fatalf("Failed to create fake interpreter: %v", err)
	}
	config := writeConfig(t, dir, interp, downURL)

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	defer stdinR.Close()
	if _, err := stdinW.WriteString("y\nhello from operator\n"); err != nil {
		t.Fatalf("Failed to write stdin: %v", err)
	}
	stdinW.Close()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--config", config}, stdinR, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("run() = %d, want 0\nstdout:\n%s\nstderr:\n%s", code, stdout.String(), stderr.String())
	}

	//nolint:gosec // G304: Reading test file from temp directory
	got, err := os.ReadFile(received)
	if err != nil {
		t.Fatalf("application did not run: %v", err)
	}
	if string(got) != "hello from operator\n" {
		t.Errorf("application stdin = %q, want %q", string(got), "hello from operator\n")
	}
}
