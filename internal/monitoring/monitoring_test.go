package monitoring

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) { called = true })
	Logf("sweep starting")
	if !called {
		t.Error("custom logger was not called")
	}

	// nil installs a no-op, not a nil function
	called = false
	SetLogger(nil)
	Logf("sweep starting")
	if called {
		t.Error("no-op logger should not invoke the previous callback")
	}
	if Logf == nil {
		t.Error("Logf should never be nil")
	}
}

func TestSweepCounters(t *testing.T) {
	s := NewSweep("otf-tracks")
	s.AddTrack()
	s.AddTrack()
	s.AddSegments(5)
	s.AddSegments(3)

	snap := s.Snapshot()
	if snap.Mode != "otf-tracks" {
		t.Errorf("Mode = %q, want otf-tracks", snap.Mode)
	}
	if snap.Tracks != 2 {
		t.Errorf("Tracks = %d, want 2", snap.Tracks)
	}
	if snap.Segments != 8 {
		t.Errorf("Segments = %d, want 8", snap.Segments)
	}
	if snap.Elapsed <= 0 {
		t.Errorf("Elapsed = %v, want positive", snap.Elapsed)
	}
}

func TestSweepConcurrentCounting(t *testing.T) {
	s := NewSweep("explicit-2d")
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				s.AddTrack()
				s.AddSegments(2)
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.Tracks != 8000 {
		t.Errorf("Tracks = %d, want 8000", snap.Tracks)
	}
	if snap.Segments != 16000 {
		t.Errorf("Segments = %d, want 16000", snap.Segments)
	}
}

func TestLogSummary(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	s := NewSweep("otf-stacks")
	s.AddTrack()
	s.AddSegments(4)
	s.LogSummary(nil)
	s.LogSummary(fmt.Errorf("z-coordinate outside mesh"))

	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "otf-stacks") || !strings.Contains(lines[0], "1 tracks") {
		t.Errorf("summary line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "aborted") || !strings.Contains(lines[1], "outside mesh") {
		t.Errorf("abort line = %q", lines[1])
	}
}
