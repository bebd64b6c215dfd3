package watch

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func testConfig(dir string) Config {
	return Config{
		Dir:          dir,
		Extensions:   []string{".mp4", ".wav"},
		PollInterval: 10 * time.Millisecond,
		StableAfter:  time.Nanosecond,
		Logger:       log.New(io.Discard),
	}
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherProcessesStableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "clip.mp4"), 100)
	writeFile(t, filepath.Join(dir, "notes.txt"), 10)

	var got []string
	w, err := New(testConfig(dir), func(_ context.Context, path string) error {
		got = append(got, path)

		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	w.scan(ctx) // discover + start stabilizing
	time.Sleep(time.Millisecond)
	w.scan(ctx) // stable now, processes

	if len(got) != 1 || got[0] != filepath.Join(dir, "clip.mp4") {
		t.Fatalf("processed = %v, want just clip.mp4", got)
	}

	if state, ok := w.FileState("clip.mp4"); !ok || state != StateDone {
		t.Errorf("clip.mp4 state = %v/%v, want done", state, ok)
	}
	if _, ok := w.FileState("notes.txt"); ok {
		t.Error("notes.txt tracked despite extension filter")
	}

	// Further scans never reprocess a done file.
	w.scan(ctx)
	if len(got) != 1 {
		t.Errorf("done file reprocessed: %v", got)
	}
}

func TestWatcherGrowingFileWaits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "copying.mp4")
	writeFile(t, path, 100)

	calls := 0
	w, err := New(testConfig(dir), func(context.Context, string) error {
		calls++

		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	w.scan(ctx)

	// The file grows before it settles: stabilization must restart.
	writeFile(t, path, 200)
	time.Sleep(time.Millisecond)
	w.scan(ctx)

	if calls != 0 {
		t.Fatal("growing file processed early")
	}
	if state, _ := w.FileState("copying.mp4"); state != StateStabilizing {
		t.Fatalf("state = %v, want stabilizing", state)
	}

	time.Sleep(time.Millisecond)
	w.scan(ctx)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1 after size settled", calls)
	}
}

func TestWatcherFailureIsTerminal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.mp4"), 50)

	calls := 0
	w, err := New(testConfig(dir), func(context.Context, string) error {
		calls++

		return errors.New("codec exploded")
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	w.scan(ctx)
	time.Sleep(time.Millisecond)
	w.scan(ctx)
	w.scan(ctx)
	w.scan(ctx)

	if calls != 1 {
		t.Fatalf("failed file retried: %d calls", calls)
	}
	if state, _ := w.FileState("broken.mp4"); state != StateFailed {
		t.Errorf("state = %v, want failed", state)
	}
}

func TestWatcherProcessesInNameOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp4", "a.mp4", "c.wav"} {
		writeFile(t, filepath.Join(dir, name), 10)
	}

	var got []string
	w, err := New(testConfig(dir), func(_ context.Context, path string) error {
		got = append(got, filepath.Base(path))

		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	w.scan(ctx)
	time.Sleep(time.Millisecond)
	w.scan(ctx)

	want := []string{"a.mp4", "b.mp4", "c.wav"}
	if len(got) != len(want) {
		t.Fatalf("processed %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("processed %v, want %v", got, want)
		}
	}
}

func TestWatcherRunPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()

	done := make(chan string, 1)
	w, err := New(testConfig(dir), func(_ context.Context, path string) error {
		select {
		case done <- path:
		default:
		}

		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	// Give the watcher a moment, then drop a file in.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "incoming.mp4"), 64)

	select {
	case path := <-done:
		if filepath.Base(path) != "incoming.mp4" {
			t.Errorf("processed %s, want incoming.mp4", path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("file never processed")
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{}, func(context.Context, string) error { return nil }); err == nil {
		t.Error("empty dir accepted")
	}
	if _, err := New(Config{Dir: t.TempDir()}, nil); err == nil {
		t.Error("nil handler accepted")
	}
}
