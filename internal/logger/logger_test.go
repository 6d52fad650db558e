package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVerbosityFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetVerbosity(int(Info))

	SetVerbosity(int(Info))
	Infof("scan %s", "AAPL")
	Debugf("hidden %d", 1)

	out := buf.String()
	if !strings.Contains(out, "[INFO]  scan AAPL") {
		t.Fatalf("expected info line, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked at info verbosity: %q", out)
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Fatalf("expected caller file in output, got %q", out)
	}

	buf.Reset()
	SetVerbosity(int(Trace))
	Tracef("fine %v", 2.5)
	if !strings.Contains(buf.String(), "[TRACE] fine 2.5") {
		t.Fatalf("expected trace line, got %q", buf.String())
	}
}

func TestSetVerbosityClamps(t *testing.T) {
	defer SetVerbosity(int(Info))

	SetVerbosity(-4)
	if Verbosity() != Error {
		t.Fatalf("expected clamp to Error, got %d", Verbosity())
	}
	SetVerbosity(99)
	if Verbosity() != Trace {
		t.Fatalf("expected clamp to Trace, got %d", Verbosity())
	}
}

func TestSetOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranker.log")
	closer := SetOutputFile(path, 1, 1)
	defer SetOutput(os.Stderr)

	Errorf("provider failed: %s", "timeout")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "[ERROR] provider failed: timeout") {
		t.Fatalf("log file missing entry: %q", b)
	}
}
