package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/AngelCh415/finsnap/internal/models"
)

const sheetExportURL = "https://docs.google.com/spreadsheets/d/%s/export?format=csv&gid=%d"

// Source describes where one tabular export lives.
type Source struct {
	ID     models.SourceID `yaml:"id"`
	Name   string          `yaml:"name"`
	URL    string          `yaml:"url"`
	Format string          `yaml:"format"` // csv | xlsx
	Sheet  string          `yaml:"sheet"`  // xlsx only, first sheet when empty
	Epoch  bool            `yaml:"epoch"`  // dates may be Unix seconds
}

type Config struct {
	Port          string
	HTTPTimeout   time.Duration
	FetchRetries  int
	LogLevel      slog.Level
	SpreadsheetID string
	SourcesFile   string
	Sources       []Source
}

// FromEnv reads configuration from the environment, after loading a local
// .env file when one exists.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	to := 15 * time.Second
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			to = d
		}
	}
	retries := 2
	if v, err := strconv.Atoi(os.Getenv("FETCH_RETRIES")); err == nil && v >= 0 {
		retries = v
	}
	lvl := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		lvl = slog.LevelDebug
	}
	cfg := Config{
		Port:          envOr("PORT", "8080"),
		HTTPTimeout:   to,
		FetchRetries:  retries,
		LogLevel:      lvl,
		SpreadsheetID: os.Getenv("SPREADSHEET_ID"),
		SourcesFile:   os.Getenv("SOURCES_FILE"),
	}
	if cfg.SourcesFile != "" {
		srcs, err := LoadSources(cfg.SourcesFile)
		if err != nil {
			return cfg, err
		}
		cfg.Sources = srcs
	} else {
		cfg.Sources = DefaultSources(cfg.SpreadsheetID)
	}
	return cfg, nil
}

// DefaultSources points the four sources at the tabs of one Google Sheet.
func DefaultSources(spreadsheetID string) []Source {
	url := func(gid int) string {
		if spreadsheetID == "" {
			return ""
		}
		return fmt.Sprintf(sheetExportURL, spreadsheetID, gid)
	}
	return []Source{
		{ID: models.SourceSales, Name: "Kiwify", URL: url(0), Format: "csv"},
		{ID: models.SourceSubscriptions, Name: "Stripe", URL: url(365912887), Format: "csv", Epoch: true},
		{ID: models.SourceAds, Name: "Meta Ads", URL: url(1945405496), Format: "csv"},
		{ID: models.SourceExpenses, Name: "Despesas", URL: url(1740447033), Format: "csv"},
	}
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads a YAML source registry. Unknown source ids are rejected.
func LoadSources(path string) ([]Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return ParseSources(b)
}

func ParseSources(b []byte) ([]Source, error) {
	var f sourcesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	known := map[models.SourceID]bool{}
	for _, id := range models.Sources {
		known[id] = true
	}
	for i, s := range f.Sources {
		if !known[s.ID] {
			return nil, fmt.Errorf("sources[%d]: unknown id %q", i, s.ID)
		}
		switch s.Format {
		case "":
			f.Sources[i].Format = "csv"
		case "csv", "xlsx":
		default:
			return nil, fmt.Errorf("sources[%d]: unsupported format %q", i, s.Format)
		}
		if s.Name == "" {
			f.Sources[i].Name = string(s.ID)
		}
	}
	return f.Sources, nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
