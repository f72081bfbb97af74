package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	defer func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	}()

	Debug("hidden debug")
	Info("hidden info")
	Warn("shown warn", "k", "v")
	Error("shown error", errors.New("boom"), "url", "http://x/y")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("lines below WARN were written: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown warn k=v") {
		t.Errorf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] shown error err=boom url=http://x/y") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestFormatKVsQuotesSpaces(t *testing.T) {
	got := formatKVs("content", "소풍 가기", "n", 3, "dangling")
	want := ` content="소풍 가기" n=3`
	if got != want {
		t.Errorf("formatKVs = %q, want %q", got, want)
	}
}
