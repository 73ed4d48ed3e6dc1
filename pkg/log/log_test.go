package log

import (
	"os"
	"strings"
	"testing"
)

func TestCaptureCollectsLines(t *testing.T) {
	capture := NewCapture()
	SetOutput(capture)
	defer SetOutput(os.Stderr)

	l := ForService("testsvc")
	l.Infof("first message")
	l.Warnf("second message")

	lines := capture.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 captured lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[testsvc>] first message") {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "WARN") {
		t.Errorf("expected WARN level in second line: %q", lines[1])
	}
}

func TestCaptureAppendOnly(t *testing.T) {
	capture := NewCapture()
	if _, err := capture.Write([]byte("one\ntwo\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	before := capture.Lines()
	// Mutating the snapshot must not affect the buffer.
	before[0] = "mutated"
	after := capture.Lines()
	if after[0] != "one" {
		t.Errorf("snapshot mutation leaked into buffer: %q", after[0])
	}
	if capture.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", capture.Len())
	}
}

func TestCapturePartialWrites(t *testing.T) {
	capture := NewCapture()
	if _, err := capture.Write([]byte("hel")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if capture.Len() != 0 {
		t.Fatal("partial line should not be an entry yet")
	}
	if _, err := capture.Write([]byte("lo\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := capture.Lines()
	if len(lines) != 1 || lines[0] != "hello" {
		t.Errorf("expected single entry %q, got %v", "hello", lines)
	}
}

func TestDebugDisabledByDefault(t *testing.T) {
	capture := NewCapture()
	SetOutput(capture)
	defer SetOutput(os.Stderr)

	l := ForService("quiet")
	l.Debugf("should not appear")
	if capture.Len() != 0 {
		t.Errorf("debug line emitted while debug disabled: %v", capture.Lines())
	}

	EnableDebugFor("quiet")
	l.Debugf("now visible")
	if capture.Len() != 1 {
		t.Errorf("expected debug line after enabling, got %d entries", capture.Len())
	}
}
