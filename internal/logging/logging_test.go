package logging

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type recordingCloser struct {
	bytes.Buffer
	closed bool
}

func (r *recordingCloser) Close() error {
	r.closed = true
	return nil
}

func TestQueueWriterKeepsEntriesWhole(t *testing.T) {
	sink := &recordingCloser{}
	q := NewQueueWriter(sink, false, 4)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				fmt.Fprintf(q, "writer-%d entry-%d\n", i, j)
			}
		}(i)
	}
	wg.Wait()

	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !sink.closed {
		t.Error("sink was not closed")
	}

	lines := strings.Split(strings.TrimSuffix(sink.String(), "\n"), "\n")
	if len(lines) != 400 {
		t.Fatalf("got %d lines, want 400", len(lines))
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "writer-") || !strings.Contains(l, " entry-") {
			t.Fatalf("mangled line %q", l)
		}
	}
}

func TestQueueWriterAfterClose(t *testing.T) {
	q := NewQueueWriter(&bytes.Buffer{}, true, 1)
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Write([]byte("late\n")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Write after Close err = %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestSetupFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	if err := os.WriteFile(path, []byte("stale\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	logger, q, err := Setup(Options{Path: path, FlushEach: true, Level: slog.LevelInfo})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.Info("hosting server", "storage", "/opt/storage/")
	logger.Debug("hidden")
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "stale") {
		t.Error("log file was not truncated")
	}
	if !strings.Contains(out, "hosting server") || !strings.Contains(out, "storage=/opt/storage/") {
		t.Errorf("missing entry in %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug entry written at info level")
	}
}

func TestLevelFromString(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := LevelFromString(in); got != want {
			t.Errorf("LevelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}
