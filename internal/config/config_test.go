package config

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
logging:
  level: debug
  console: true
loop:
  period: 20ms
  history_size: 32
robot:
  enabled: true
  drive:
    max_speed: 2.5
  shooter:
    target_rps: 45
storage:
  driver: sqlite
  path: ./data/journal.db
  busy_timeout: 2s
bindings:
  - { command: shoot, on: cron, spec: "@every 15s" }
  - { command: release_hatch, on: disable, interruptible: false }
`

func TestDecodeYAML(t *testing.T) {
	t.Parallel()
	cfg, err := Decode("robocmd.yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Robot.Enabled || cfg.Robot.Drive.MaxSpeed != 2.5 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Storage == nil || cfg.Storage.Driver != "sqlite" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if len(cfg.Bindings) != 2 {
		t.Fatalf("bindings = %d, want 2", len(cfg.Bindings))
	}
	if b := cfg.Bindings[0]; b.ActionOrDefault() != ActionSchedule || !b.IsInterruptible() {
		t.Fatalf("binding defaults = %+v", b)
	}
	if cfg.Bindings[1].IsInterruptible() {
		t.Fatalf("explicit interruptible: false ignored")
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	if _, err := Decode("c.yaml", []byte("loop:\n  perod: 20ms\n")); err == nil {
		t.Fatalf("unknown field accepted")
	}
	if _, err := Decode("c.json", []byte(`{"loop":{}} {"loop":{}}`)); err == nil {
		t.Fatalf("trailing data accepted")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"empty", Config{}, ""},
		{"bad period", Config{Loop: LoopConfig{Period: "fast"}}, "loop.period"},
		{"slow period", Config{Loop: LoopConfig{Period: "5s"}}, "loop.period"},
		{"bad log format", Config{Logging: LoggingConfig{Format: "xml"}}, "logging.format"},
		{"negative history", Config{Loop: LoopConfig{HistorySize: -1}}, "loop.history_size"},
		{"storage without path", Config{Storage: &StorageConfig{Driver: "file"}}, "storage.path"},
		{"unknown driver", Config{Storage: &StorageConfig{Driver: "redis"}}, "storage.driver"},
		{"binding without command", Config{Bindings: []BindingConfig{{On: OnEnable}}}, "bindings[0].command"},
		{"unknown source", Config{Bindings: []BindingConfig{{Command: "x", On: "button"}}}, "bindings[0].on"},
		{"cron without spec", Config{Bindings: []BindingConfig{{Command: "x", On: OnCron}}}, "bindings[0].spec"},
		{"spec on enable", Config{Bindings: []BindingConfig{{Command: "x", On: OnEnable, Spec: "@hourly"}}}, "bindings[0].spec"},
		{"unknown action", Config{Bindings: []BindingConfig{{Command: "x", On: OnEnable, Action: "fire"}}}, "bindings[0].action"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationOrDefault("x", "", time.Second); err != nil || d != time.Second {
		t.Fatalf("empty = %v, %v", d, err)
	}
	if d, err := ParseDurationOrDefault("x", "50ms", time.Second); err != nil || d != 50*time.Millisecond {
		t.Fatalf("50ms = %v, %v", d, err)
	}
	if _, err := ParseDurationOrDefault("x", "-1s", time.Second); err == nil {
		t.Fatalf("negative accepted")
	}
}

func TestLoopPeriodBounds(t *testing.T) {
	t.Parallel()
	for raw, want := range map[string]time.Duration{"": DefaultLoopPeriod, "0s": DefaultLoopPeriod, "1ms": time.Millisecond, "1s": time.Second} {
		if d, err := LoopPeriod(&Config{Loop: LoopConfig{Period: raw}}); err != nil || d != want {
			t.Fatalf("LoopPeriod(%q) = %v, %v; want %v", raw, d, err, want)
		}
	}
	for _, raw := range []string{"500us", "2s"} {
		if _, err := LoopPeriod(&Config{Loop: LoopConfig{Period: raw}}); err == nil || !strings.Contains(err.Error(), "out of range") {
			t.Fatalf("LoopPeriod(%q) err = %v, want out of range", raw, err)
		}
	}
}

func TestDecodeExpandsEnv(t *testing.T) {
	t.Setenv("ROBOCMD_TEST_TOKEN", "s3cret")
	yamlCfg, err := Decode("c.yaml", []byte("debug:\n  enabled: true\n  token: ${ROBOCMD_TEST_TOKEN}\n"))
	if err != nil {
		t.Fatalf("Decode yaml: %v", err)
	}
	if yamlCfg.Debug == nil || yamlCfg.Debug.Token != "s3cret" {
		t.Fatalf("yaml debug = %+v", yamlCfg.Debug)
	}
	jsonCfg, err := Decode("c.json", []byte(`{"debug":{"token":"tok-${ROBOCMD_TEST_TOKEN}"}}`))
	if err != nil {
		t.Fatalf("Decode json: %v", err)
	}
	if jsonCfg.Debug.Token != "tok-s3cret" {
		t.Fatalf("json token = %q", jsonCfg.Debug.Token)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	t.Parallel()
	if _, err := Decode("c.json", []byte(`{"loop":{}} {}`)); err == nil {
		t.Fatalf("trailing json accepted")
	}
	if _, err := Decode("c.yaml", []byte("loop:\n  bogus: 1\n")); err == nil {
		t.Fatalf("unknown field accepted")
	}
	if cfg, err := Decode("c.yml", nil); err != nil || cfg == nil {
		t.Fatalf("empty yaml = %v, %v", cfg, err)
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	oldCfg, err := Decode("a.yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	same, _ := Decode("a.yaml", []byte(sampleYAML))
	if changed, _ := SummarizeConfigChange(oldCfg, same); len(changed) != 0 {
		t.Fatalf("changed = %v, want none", changed)
	}

	newCfg, _ := Decode("a.yaml", []byte(sampleYAML))
	newCfg.Robot.Enabled = false
	newCfg.Logging.Level = "info"
	newCfg.Bindings = newCfg.Bindings[:1]
	changed, attrs := SummarizeConfigChange(oldCfg, newCfg)
	if want := []string{"bindings", "logging", "robot"}; !slices.Equal(changed, want) {
		t.Fatalf("changed = %v, want %v", changed, want)
	}
	if len(attrs) == 0 {
		t.Fatalf("no attrs")
	}

	dbg := *same
	dbg.Debug = &DebugConfig{Enabled: true, Token: "t"}
	if changed, _ := SummarizeConfigChange(same, &dbg); !slices.Equal(changed, []string{"debug"}) {
		t.Fatalf("changed = %v, want [debug]", changed)
	}

	// Explicit defaults compare equal to omitted ones.
	yes := true
	a := &Config{Bindings: []BindingConfig{{Command: "x", On: OnEnable}}}
	b := &Config{Bindings: []BindingConfig{{Command: "x", On: OnEnable, Action: ActionSchedule, Interruptible: &yes}}}
	if changed, _ := SummarizeConfigChange(a, b); len(changed) != 0 {
		t.Fatalf("changed = %v, want none", changed)
	}
}

func TestManagerLoadAndWatch(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "robocmd.yaml")
	if err := os.WriteFile(path, []byte("robot:\n  enabled: false\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	m := NewConfigManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Robot.Enabled || m.Get() != cfg {
		t.Fatalf("Load result not committed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := m.Subscribe(4)
	defer m.Unsubscribe(updates)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Watch(ctx)
	}()

	// Give the watcher a moment to register before writing; retry writes until
	// an update arrives.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(300 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case got := <-updates:
			if !got.Robot.Enabled {
				t.Fatalf("published config has enabled=false")
			}
			cancel()
			<-done
			return
		case <-tick.C:
			if err := os.WriteFile(path, []byte("robot:\n  enabled: true\n"), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
		case <-deadline:
			t.Fatalf("no config update published")
		}
	}
}

func TestManagerRejectsInvalidReload(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "robocmd.yaml")
	if err := os.WriteFile(path, []byte("loop:\n  period: 20ms\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	m := NewConfigManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	updates := m.Subscribe(1)
	if err := os.WriteFile(path, []byte("loop:\n  period: soon\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	m.reload(context.Background())
	select {
	case <-updates:
		t.Fatalf("invalid config published")
	default:
	}
	if m.Get().Loop.Period != "20ms" {
		t.Fatalf("committed config replaced by invalid one")
	}
}
