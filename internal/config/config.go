package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"tweetsieve/internal/filter"
	"tweetsieve/internal/model"
	"tweetsieve/internal/report"
)

// Config is the application's configuration model.
// It holds the default filter criteria, export layout, and service settings.
type Config struct {
	Filter  FilterConfig  `yaml:"filter"`
	Export  ExportConfig  `yaml:"export"`
	Source  SourceConfig  `yaml:"source"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Server  ServerConfig  `yaml:"server"`
}

// FilterConfig is the serializable form of filter.Criteria. The JSON names
// are the ones accepted by the HTTP API.
type FilterConfig struct {
	MinWords int  `yaml:"minWords" json:"min_words"`
	MaxWords *int `yaml:"maxWords,omitempty" json:"max_words,omitempty"` // unset = unbounded
	// Keywords are matched as case-insensitive substrings
	Keywords       []string `yaml:"keywords" json:"required_keywords"`
	KeywordMode    string   `yaml:"keywordMode" json:"keyword_mode"` // "all" or "any"
	Metric         string   `yaml:"metric,omitempty" json:"metric_name,omitempty"`
	MinMetricValue int64    `yaml:"minMetricValue" json:"min_metric_value"`
	Query          string   `yaml:"query,omitempty" json:"search_query,omitempty"`
	// Inclusive bounds, YYYY-MM-DD
	FromDate string `yaml:"fromDate,omitempty" json:"from_date,omitempty"`
	ToDate   string `yaml:"toDate,omitempty" json:"to_date,omitempty"`
}

type ExportConfig struct {
	OutputDir string   `yaml:"outputDir"`
	BaseName  string   `yaml:"baseName"`
	Formats   []string `yaml:"formats"`
	// TrueType font with Unicode coverage. If missing, PDFs fall back to Helvetica.
	FontPath   string  `yaml:"fontPath"`
	FontFamily string  `yaml:"fontFamily"`
	FontSize   float64 `yaml:"fontSize"`
	LineHeight float64 `yaml:"lineHeight"`
	TruncateAt int     `yaml:"truncateAt"`
}

type SourceConfig struct {
	// SQLite archive used when no input file is given
	DBPath string `yaml:"dbPath"`
	Limit  int    `yaml:"limit"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
	// Optional rotated log file; empty logs to stderr
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"maxSizeMB,omitempty"`
	MaxAgeDays int    `yaml:"maxAgeDays,omitempty"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type ServerConfig struct {
	Addr         string  `yaml:"addr"`
	RPS          float64 `yaml:"rps"`
	Burst        int     `yaml:"burst"`
	MaxBodyBytes int64   `yaml:"maxBodyBytes"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Filter: FilterConfig{KeywordMode: string(filter.ModeAll)},
		Export: ExportConfig{
			OutputDir:  ".",
			BaseName:   "filtered_tweets",
			Formats:    []string{"json", "txt", "pdf"},
			FontPath:   "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			FontFamily: report.DefaultFontFamily,
			FontSize:   report.DefaultFontSize,
			LineHeight: report.DefaultLineHeight,
			TruncateAt: report.DefaultTruncateAt,
		},
		Source:  SourceConfig{DBPath: "", Limit: 0},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Addr: ""},
		Server:  ServerConfig{Addr: ":8080", RPS: 5, Burst: 10, MaxBodyBytes: 10 << 20},
	}
}

// ResolveEnv applies TWEETSIEVE_* environment overrides.
func (c *Config) ResolveEnv() {
	if v := os.Getenv("TWEETSIEVE_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("TWEETSIEVE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TWEETSIEVE_FONT_PATH"); v != "" {
		c.Export.FontPath = v
	}
	if v := os.Getenv("TWEETSIEVE_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("TWEETSIEVE_SERVER_RPS"), 64); err == nil && v > 0 {
		c.Server.RPS = v
	}
	if v, err := strconv.Atoi(os.Getenv("TWEETSIEVE_SERVER_BURST")); err == nil && v > 0 {
		c.Server.Burst = v
	}
}

// Criteria converts and validates the filter section.
func (f FilterConfig) Criteria() (filter.Criteria, error) {
	mode, err := filter.ParseKeywordMode(f.KeywordMode)
	if err != nil {
		return filter.Criteria{}, fmt.Errorf("%w: %v", filter.ErrInvalidCriteria, err)
	}
	c := filter.Criteria{
		MinWords:         f.MinWords,
		MaxWords:         f.MaxWords,
		RequiredKeywords: cleanKeywords(f.Keywords),
		KeywordMode:      mode,
		MinMetricValue:   f.MinMetricValue,
		SearchQuery:      f.Query,
	}
	if strings.TrimSpace(f.Metric) != "" {
		m, err := model.ParseMetric(f.Metric)
		if err != nil {
			return filter.Criteria{}, fmt.Errorf("%w: %v", filter.ErrInvalidCriteria, err)
		}
		c.MetricName = &m
	}
	if c.FromDate, err = optionalDate(f.FromDate); err != nil {
		return filter.Criteria{}, err
	}
	if c.ToDate, err = optionalDate(f.ToDate); err != nil {
		return filter.Criteria{}, err
	}
	if err := c.Validate(); err != nil {
		return filter.Criteria{}, err
	}
	return c, nil
}

func cleanKeywords(in []string) []string {
	var out []string
	for _, k := range in {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func optionalDate(s string) (*filter.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := filter.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", filter.ErrInvalidCriteria, err)
	}
	return &d, nil
}

// DocumentOptions returns the PDF layout for this export section.
func (e ExportConfig) DocumentOptions() report.DocumentOptions {
	return report.DocumentOptions{
		FontPath:   e.FontPath,
		FontFamily: e.FontFamily,
		FontSize:   e.FontSize,
		LineHeight: e.LineHeight,
		TruncateAt: e.TruncateAt,
	}
}

// ExportFormats parses the configured format list. Empty selects all.
func (e ExportConfig) ExportFormats() ([]report.Format, error) {
	return report.ParseFormats(e.Formats)
}

// Load reads YAML config from path. Missing sections keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
