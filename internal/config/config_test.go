package config

import (
	"strings"
	"testing"

	"github.com/AngelCh415/finsnap/internal/models"
)

func TestParseSources(t *testing.T) {
	b := []byte(`
sources:
  - id: sales
    url: https://example.com/sales.csv
  - id: subscriptions
    name: Stripe
    url: https://example.com/subs.xlsx
    format: xlsx
    sheet: Export
    epoch: true
`)
	srcs, err := ParseSources(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(srcs) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(srcs))
	}
	if srcs[0].Format != "csv" || srcs[0].Name != "sales" {
		t.Fatalf("defaults not applied: %+v", srcs[0])
	}
	s := srcs[1]
	if s.ID != models.SourceSubscriptions || s.Format != "xlsx" || s.Sheet != "Export" || !s.Epoch {
		t.Fatalf("unexpected source: %+v", s)
	}
}

func TestParseSourcesRejects(t *testing.T) {
	cases := map[string]string{
		"unknown id":  "sources:\n  - id: crm\n",
		"bad format":  "sources:\n  - id: ads\n    format: parquet\n",
		"broken yaml": "sources: [",
	}
	for name, in := range cases {
		if _, err := ParseSources([]byte(in)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestDefaultSources(t *testing.T) {
	srcs := DefaultSources("abc")
	if len(srcs) != len(models.Sources) {
		t.Fatalf("expected %d sources, got %d", len(models.Sources), len(srcs))
	}
	for i, s := range srcs {
		if s.ID != models.Sources[i] {
			t.Errorf("source %d = %s, want %s", i, s.ID, models.Sources[i])
		}
		if !strings.HasPrefix(s.URL, "https://docs.google.com/spreadsheets/d/abc/export?format=csv&gid=") {
			t.Errorf("unexpected url %s", s.URL)
		}
		if s.Epoch != (s.ID == models.SourceSubscriptions) {
			t.Errorf("%s epoch = %v", s.ID, s.Epoch)
		}
	}
	for _, s := range DefaultSources("") {
		if s.URL != "" {
			t.Errorf("%s: url should be empty without a spreadsheet id", s.ID)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("FETCH_RETRIES", "0")
	t.Setenv("SPREADSHEET_ID", "sheet")
	t.Setenv("SOURCES_FILE", "")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.HTTPTimeout.Seconds() != 3 || cfg.FetchRetries != 0 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.Sources) != 4 || cfg.Sources[0].URL == "" {
		t.Fatalf("expected default sources, got %+v", cfg.Sources)
	}
}
