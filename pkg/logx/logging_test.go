package logx

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestZeroLoggerIsNoop(t *testing.T) {
	t.Parallel()
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero Logger should report IsZero")
	}
	// Must not panic.
	l.Info("hello", String("k", "v"))
	if l.With(Int("n", 1)).IsZero() {
		t.Fatal("With() should produce a non-zero logger")
	}
}

func TestJSONLoggerFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := NewJSON(&buf, "debug").With(String("comp", "scheduler"))
	l.Debug("command scheduled", String("command", "drive"), Bool("interruptible", true))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if m["message"] != "command scheduled" {
		t.Fatalf("message = %v, want %q", m["message"], "command scheduled")
	}
	if m["comp"] != "scheduler" || m["command"] != "drive" || m["interruptible"] != true {
		t.Fatalf("unexpected fields: %v", m)
	}
	if c, _ := m["caller"].(string); !strings.HasPrefix(c, "logging_test.go:") {
		t.Fatalf("caller = %q, want logging_test.go:<line>", c)
	}
}

func TestJSONLoggerLevelFilter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := NewJSON(&buf, "warn")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info line should be filtered at warn level: %q", buf.String())
	}
	if l.Enabled(LevelInfo) {
		t.Fatal("Enabled(info) = true at warn level")
	}
	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn line missing: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" WARNING ", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in, LevelInfo); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestServiceApplySwitchesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robocmd.log")
	svc, log := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: path}})
	t.Cleanup(func() { _ = svc.Close() })

	log.Info("to file", String("k", "v"))

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "to file") {
		t.Fatalf("log file missing line: %q", string(b))
	}

	svc.Apply(Config{Level: "error", File: FileConfig{Enabled: true, Path: path}})
	log.Info("filtered")
	b, _ = os.ReadFile(path)
	if strings.Contains(string(b), "filtered") {
		t.Fatal("info line written after raising level to error")
	}
}

func TestServiceKeepsFileAcrossApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "robocmd.log")
	cfg := Config{Level: "info", Format: "json", File: FileConfig{Enabled: true, Path: path}}
	svc, log := New(cfg)
	t.Cleanup(func() { _ = svc.Close() })

	log.Info("first")
	f := svc.file
	svc.Apply(cfg)
	if svc.file != f {
		t.Fatal("Apply reopened the log file for an unchanged path")
	}
	log.Info("second")

	svc.Apply(Config{Level: "info", Format: "json"})
	if svc.file != nil {
		t.Fatal("file sink still open after disabling it")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if n := strings.Count(string(b), "\n"); n != 2 {
		t.Fatalf("log file has %d lines, want 2: %q", n, b)
	}
}

func TestNopAndWithDoNotShareFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	base := NewJSON(&buf, "info").With(String("comp", "robot"))
	a := base.With(String("sub", "drive"))
	b := base.With(String("sub", "shooter"))
	a.Info("a")
	b.Info("b")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], `"sub":"drive"`) || !strings.Contains(lines[1], `"sub":"shooter"`) {
		t.Fatalf("unexpected lines: %q", lines)
	}
	if Nop().IsZero() {
		t.Fatal("Nop should not report IsZero")
	}
	Nop().Error("discarded")
}
