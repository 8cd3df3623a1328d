package storage

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"robocmd/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = %v, %v; want nil, nil", driver, st, err)
		}
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatalf("unknown driver accepted")
	}
	if _, err := Open(Config{Driver: "file"}, logx.Nop()); err == nil {
		t.Fatalf("file driver without path accepted")
	}
	if _, err := Open(Config{Driver: "sqlite"}, logx.Nop()); err == nil {
		t.Fatalf("sqlite driver without path accepted")
	}
}

func TestParseDriver(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{"": "", "none": "", "File": "file", "jsonl": "file", "SQLite3": "sqlite"} {
		if got, err := ParseDriver(in); err != nil || got != want {
			t.Fatalf("ParseDriver(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseDriver("redis"); err == nil {
		t.Fatalf("unknown driver accepted")
	}
	if got := Drivers(); !slices.Equal(got, []string{"file", "sqlite"}) {
		t.Fatalf("Drivers = %v", got)
	}
}

func sampleEntries() []LifecycleEntry {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return []LifecycleEntry{
		{At: at, Type: "initialize", Episode: "e1", Command: "DriveDistance", Interruptible: true, Requirements: []string{"drive"}, Tick: 1},
		{At: at.Add(time.Second), Type: "interrupt", Episode: "e1", Command: "DriveDistance", Interruptible: true, Requirements: []string{"drive"}, Reason: "displaced", By: "ArcadeDrive", Tick: 51, Ticks: 50, TookMS: 1000},
		{At: at.Add(2 * time.Second), Type: "reject", Command: "GrabHatch", Reason: "disabled", Tick: 60},
	}
}

func testJournal(t *testing.T, cfg Config) {
	t.Helper()
	ctx := context.Background()
	st, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want := sampleEntries()
	for _, e := range want {
		if err := st.AppendLifecycle(ctx, e); err != nil {
			t.Fatalf("AppendLifecycle: %v", err)
		}
	}

	got, err := st.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Recent len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if !g.At.Equal(w.At) || g.Type != w.Type || g.Episode != w.Episode || g.Command != w.Command ||
			g.Interruptible != w.Interruptible || !slices.Equal(g.Requirements, w.Requirements) ||
			g.Reason != w.Reason || g.By != w.By || g.Tick != w.Tick || g.Ticks != w.Ticks || g.TookMS != w.TookMS {
			t.Fatalf("entry %d = %+v, want %+v", i, g, w)
		}
	}

	last, err := st.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent(2): %v", err)
	}
	if len(last) != 2 || last[0].Type != "interrupt" || last[1].Type != "reject" {
		t.Fatalf("Recent(2) = %+v", last)
	}

	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Entries survive a reopen.
	st, err = Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	got, err = st.Recent(ctx, 0)
	if err != nil || len(got) != len(want) {
		t.Fatalf("Recent after reopen = %d entries, %v", len(got), err)
	}
}

func TestFileJournal(t *testing.T) {
	t.Parallel()
	testJournal(t, Config{Driver: "file", Path: filepath.Join(t.TempDir(), "data", "journal.jsonl")})
}

func TestSQLiteJournal(t *testing.T) {
	t.Parallel()
	testJournal(t, Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "journal.db"), BusyTimeout: time.Second})
}

func TestFileJournalSkipsTornLine(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()
	if err := st.AppendLifecycle(context.Background(), sampleEntries()[0]); err != nil {
		t.Fatalf("AppendLifecycle: %v", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, _ = f.WriteString(`{"type":"fin`)
	_ = f.Close()

	got, err := st.Recent(context.Background(), 0)
	if err != nil || len(got) != 1 {
		t.Fatalf("Recent = %d entries, %v; want 1, nil", len(got), err)
	}
}

func TestAppendAfterClose(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "j.jsonl")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = st.Close()
	if err := st.AppendLifecycle(context.Background(), LifecycleEntry{}); err != ErrDisabled {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}
