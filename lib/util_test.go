package lib

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetStacktrace(t *testing.T) {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	trace := GetStacktrace(1, buf[:n])
	if trace == "" {
		t.Fatalf("expected a non-empty stack trace")
	}
	if !strings.Contains(trace, "TestGetStacktrace") {
		t.Errorf("expected trace to mention the calling test, got %v", trace)
	}
}

func TestPrettystatsCompact(t *testing.T) {
	stats := map[string]interface{}{"samples": int64(3)}
	out := Prettystats(stats, false)
	if out != `{"samples":3}` {
		t.Errorf("expected compact json, got %v", out)
	}
}

func TestPrettystatsIndented(t *testing.T) {
	stats := map[string]interface{}{"samples": int64(3)}
	out := Prettystats(stats, true)
	if !strings.Contains(out, "\n") {
		t.Errorf("expected indented json to span multiple lines, got %v", out)
	}
}
