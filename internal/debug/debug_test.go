package debug

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetOutput_CapturesMessages(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetEnabled(false) })

	Log("hello %d", 42)
	LogIf(false, "skipped")
	LogIf(true, "kept")

	out := buf.String()
	if !strings.Contains(out, "hello 42") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if strings.Contains(out, "skipped") {
		t.Fatalf("expected LogIf(false) to be dropped, got %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("expected LogIf(true) to be written, got %q", out)
	}
}

func TestDisabled_NoOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(false)

	Log("nothing")
	if buf.Len() != 0 {
		t.Fatalf("expected no output when disabled, got %q", buf.String())
	}
}
