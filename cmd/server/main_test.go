package main

import (
	"testing"
	"time"
)

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "value", "other"); got != "value" {
		t.Fatalf("expected first non-empty value, got %q", got)
	}
	if got := firstNonEmpty("", "   "); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" http://a.example.com , ,http://b.example.com ")
	if len(got) != 2 || got[0] != "http://a.example.com" || got[1] != "http://b.example.com" {
		t.Fatalf("unexpected origins: %v", got)
	}
	if splitAndTrim("  ") != nil {
		t.Fatalf("expected nil for blank input")
	}
}

func TestResolveDuration(t *testing.T) {
	if got := resolveDuration(5*time.Second, "CLIPSTREAM_TEST_DURATION", time.Minute); got != 5*time.Second {
		t.Fatalf("flag value should win, got %v", got)
	}

	t.Setenv("CLIPSTREAM_TEST_DURATION", "90s")
	if got := resolveDuration(0, "CLIPSTREAM_TEST_DURATION", time.Minute); got != 90*time.Second {
		t.Fatalf("env value should apply, got %v", got)
	}

	t.Setenv("CLIPSTREAM_TEST_DURATION", "not-a-duration")
	if got := resolveDuration(0, "CLIPSTREAM_TEST_DURATION", time.Minute); got != time.Minute {
		t.Fatalf("fallback should apply on parse failure, got %v", got)
	}
}

func TestResolveBool(t *testing.T) {
	if !resolveBool(true, "CLIPSTREAM_TEST_BOOL") {
		t.Fatalf("flag true should win")
	}

	t.Setenv("CLIPSTREAM_TEST_BOOL", "true")
	if !resolveBool(false, "CLIPSTREAM_TEST_BOOL") {
		t.Fatalf("env true should apply")
	}

	t.Setenv("CLIPSTREAM_TEST_BOOL", "nonsense")
	if resolveBool(false, "CLIPSTREAM_TEST_BOOL") {
		t.Fatalf("unparseable env should fall back to false")
	}
}

func TestResolveIntPrefersFlag(t *testing.T) {
	t.Setenv("CLIPSTREAM_TEST_INT", "7")
	if got := resolveInt(3, "CLIPSTREAM_TEST_INT"); got != 3 {
		t.Fatalf("flag value should win, got %d", got)
	}
	if got := resolveInt(0, "CLIPSTREAM_TEST_INT"); got != 7 {
		t.Fatalf("env value should apply, got %d", got)
	}
}
