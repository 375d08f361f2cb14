package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CorpusConfig lists where documents are read from.
type CorpusConfig struct {
	Paths      []string `yaml:"paths"`
	Extensions []string `yaml:"extensions"`
}

// SearchConfig tunes ranking and the fuzzy fallback.
type SearchConfig struct {
	MinResults     int     `yaml:"min_results"`
	MaxFuzzyDepth  int     `yaml:"max_fuzzy_depth"`
	MinSimilarity  float64 `yaml:"min_similarity"`
	ProximityBoost float64 `yaml:"proximity_boost"`
	MaxCandidates  int     `yaml:"max_candidates"`
	Workers        int     `yaml:"workers"`
}

// SnippetConfig bounds result excerpts.
type SnippetConfig struct {
	Budget       int    `yaml:"budget"`
	MinParagraph int    `yaml:"min_paragraph"`
	WordWindow   int    `yaml:"word_window"`
	Ellipsis     string `yaml:"ellipsis"`
}

// LoggingConfig selects the log level, format and destination. An empty
// file means stderr for one-shot commands and no logging in the TUI.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// MetricsConfig enables the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus  CorpusConfig  `yaml:"corpus"`
	Search  SearchConfig  `yaml:"search"`
	Snippet SnippetConfig `yaml:"snippet"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides apply in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docsearch/config.yaml.
// If neither exists, it writes defaults to ~/.config/docsearch/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnvOverrides(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docsearch", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Corpus: CorpusConfig{Paths: []string{"."}, Extensions: []string{".txt"}},
		Search: SearchConfig{
			MinResults:     16,
			MaxFuzzyDepth:  2,
			MinSimilarity:  0.01,
			ProximityBoost: 0.5,
		},
		Snippet: SnippetConfig{Budget: 256, MinParagraph: 64, WordWindow: 16, Ellipsis: "..."},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Addr: ":9090"},
	}
	return cfg
}

// applyConfigDefaults fills settings a partial file leaves unset. Zero
// max_candidates and workers are meaningful (unlimited, one per CPU) and
// stay as given.
func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if len(cfg.Corpus.Paths) == 0 {
		cfg.Corpus.Paths = def.Corpus.Paths
	}
	if len(cfg.Corpus.Extensions) == 0 {
		cfg.Corpus.Extensions = def.Corpus.Extensions
	}
	if cfg.Search.MinResults == 0 {
		cfg.Search.MinResults = def.Search.MinResults
	}
	if cfg.Search.MaxFuzzyDepth == 0 {
		cfg.Search.MaxFuzzyDepth = def.Search.MaxFuzzyDepth
	}
	if cfg.Search.MinSimilarity == 0 {
		cfg.Search.MinSimilarity = def.Search.MinSimilarity
	}
	if cfg.Search.ProximityBoost == 0 {
		cfg.Search.ProximityBoost = def.Search.ProximityBoost
	}
	if cfg.Snippet.Budget == 0 {
		cfg.Snippet.Budget = def.Snippet.Budget
	}
	if cfg.Snippet.MinParagraph == 0 {
		cfg.Snippet.MinParagraph = def.Snippet.MinParagraph
	}
	if cfg.Snippet.WordWindow == 0 {
		cfg.Snippet.WordWindow = def.Snippet.WordWindow
	}
	if cfg.Snippet.Ellipsis == "" {
		cfg.Snippet.Ellipsis = def.Snippet.Ellipsis
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = def.Metrics.Addr
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("DOCSEARCH_CORPUS_PATHS"); v != "" {
		cfg.Corpus.Paths = strings.Split(v, ",")
	}
	if v := os.Getenv("DOCSEARCH_CORPUS_EXTENSIONS"); v != "" {
		cfg.Corpus.Extensions = strings.Split(v, ",")
	}
	if v := os.Getenv("DOCSEARCH_SEARCH_MIN_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MinResults = n
		}
	}
	if v := os.Getenv("DOCSEARCH_SEARCH_MAX_FUZZY_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxFuzzyDepth = n
		}
	}
	if v := os.Getenv("DOCSEARCH_SEARCH_MIN_SIMILARITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.MinSimilarity = f
		}
	}
	if v := os.Getenv("DOCSEARCH_SEARCH_PROXIMITY_BOOST"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.ProximityBoost = f
		}
	}
	if v := os.Getenv("DOCSEARCH_SEARCH_MAX_CANDIDATES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxCandidates = n
		}
	}
	if v := os.Getenv("DOCSEARCH_SEARCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.Workers = n
		}
	}
	if v := os.Getenv("DOCSEARCH_SNIPPET_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Snippet.Budget = n
		}
	}
	if v := os.Getenv("DOCSEARCH_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DOCSEARCH_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("DOCSEARCH_LOGGING_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("DOCSEARCH_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("DOCSEARCH_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}
