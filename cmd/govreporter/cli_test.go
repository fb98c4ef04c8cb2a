package main

import (
	"path/filepath"
	"strings"
	"testing"

	"govreporter/internal/config"
	"govreporter/internal/models"
)

func TestKindFromArg(t *testing.T) {
	kind, err := kindFromArg("scotus")
	if err != nil || kind != models.KindSCOTUS {
		t.Errorf("scotus -> %v, %v", kind, err)
	}
	kind, err = kindFromArg("eo")
	if err != nil || kind != models.KindExecutiveOrder {
		t.Errorf("eo -> %v, %v", kind, err)
	}
	if _, err := kindFromArg("circuit"); err == nil {
		t.Error("unknown type accepted")
	}
}

func TestDatePattern(t *testing.T) {
	for _, ok := range []string{"2024-01-01", "1999-12-31"} {
		if !datePattern.MatchString(ok) {
			t.Errorf("%q rejected", ok)
		}
	}
	for _, bad := range []string{"2024-1-1", "01-01-2024", "2024/01/01", "yesterday", ""} {
		if datePattern.MatchString(bad) {
			t.Errorf("%q accepted", bad)
		}
	}
}

func TestTrackerPathPerKind(t *testing.T) {
	cfg := config.DefaultConfig()
	scotus := trackerPath(cfg, models.KindSCOTUS)
	eo := trackerPath(cfg, models.KindExecutiveOrder)
	if scotus == eo {
		t.Error("document types share a tracker file")
	}
	if filepath.Dir(scotus) != cfg.Paths.ProgressDir {
		t.Errorf("tracker outside progress dir: %s", scotus)
	}
}

func TestKindForCollection(t *testing.T) {
	if kind, ok := kindForCollection("supreme_court_opinions"); !ok || kind != models.KindSCOTUS {
		t.Errorf("supreme_court_opinions -> %v, %v", kind, ok)
	}
	if kind, ok := kindForCollection("executive_orders"); !ok || kind != models.KindExecutiveOrder {
		t.Errorf("executive_orders -> %v, %v", kind, ok)
	}
	if _, ok := kindForCollection("scratch"); ok {
		t.Error("unknown collection mapped to a kind")
	}
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := snippet(long, 50)
	if len(got) != 53 || !strings.HasSuffix(got, "...") {
		t.Errorf("snippet = %q (len %d)", got, len(got))
	}
	if snippet("short  text\nhere", 100) != "short text here" {
		t.Errorf("whitespace not collapsed: %q", snippet("short  text\nhere", 100))
	}
}
