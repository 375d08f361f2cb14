package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"docsearch/internal/config"
	"docsearch/internal/corpus"
	"docsearch/internal/fuzzy"
	"docsearch/internal/index"
	"docsearch/internal/logger"
	"docsearch/internal/metrics"
	"docsearch/internal/rank"
	"docsearch/internal/service"
	"docsearch/internal/snippet"
	"docsearch/internal/tui"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "docsearch",
		Usage:     "Ranked full-text search over a directory of text files",
		ArgsUsage: "[path|glob ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (uses ./config.yaml or ~/.config/docsearch/config.yaml if not provided)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override logging level (debug, info, warn, error)",
			},
			&cli.StringSliceFlag{
				Name:  "ext",
				Usage: "File extension to index, repeatable (overrides corpus.extensions)",
			},
		},
		Action: browseCommand,
		Commands: []*cli.Command{
			{
				Name:      "browse",
				Usage:     "Index the corpus and search it interactively",
				ArgsUsage: "[path|glob ...]",
				Action:    browseCommand,
			},
			{
				Name:      "query",
				Usage:     "Index the corpus and print the results of one query",
				ArgsUsage: "QUERY",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "File, directory or glob to index, repeatable (overrides corpus.paths)",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results to print, 0 for all",
						Value:   10,
					},
				},
			},
		},
	}
}

func browseCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.NArg() > 0 {
		cfg.Corpus.Paths = c.Args().Slice()
	}
	closeLog, err := setupLogging(cfg, true)
	if err != nil {
		return err
	}
	defer closeLog()

	svc, shutdown, err := buildService(c.Context, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	stats := svc.Stats()
	summary := fmt.Sprintf("%d documents, %d terms indexed from %s", stats.Documents, stats.Terms, strings.Join(cfg.Corpus.Paths, ", "))
	if _, err := tea.NewProgram(tui.New(svc, summary), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("query text is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if paths := c.StringSlice("path"); len(paths) > 0 {
		cfg.Corpus.Paths = paths
	}
	closeLog, err := setupLogging(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	svc, shutdown, err := buildService(c.Context, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	set, err := svc.Search(c.Context, strings.Join(c.Args().Slice(), " "))
	if err != nil {
		return err
	}

	out := c.App.Writer
	items := set.Items
	if limit := c.Int("limit"); limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "No matching documents.")
	}
	for i, it := range items {
		fmt.Fprintf(out, "%d. %s  (%.4f)\n", i+1, it.Title, it.Score)
		for _, line := range strings.Split(it.Snippet, "\n") {
			if line != "" {
				fmt.Fprintf(out, "   %s\n", line)
			}
		}
	}
	if set.Suggestion != "" {
		fmt.Fprintf(out, "Did you mean: %s\n", set.Suggestion)
	}
	return nil
}

func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if exts := c.StringSlice("ext"); len(exts) > 0 {
		cfg.Corpus.Extensions = exts
	}
	return cfg, nil
}

// setupLogging installs the default logger. Interactive sessions own the
// terminal, so without a log file their logs are dropped.
func setupLogging(cfg *config.AppConfig, interactive bool) (func(), error) {
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		logger.Setup(f, cfg.Logging.Level, cfg.Logging.Format)
		return func() { _ = f.Close() }, nil
	}
	if interactive {
		logger.Discard()
	} else {
		logger.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	}
	return func() {}, nil
}

// buildService indexes the configured corpus and wires the search pipeline.
// The returned function stops the metrics server when one was started.
func buildService(ctx context.Context, cfg *config.AppConfig) (*service.SearchService, func(), error) {
	reader := corpus.NewDirReader(cfg.Corpus.Paths, cfg.Corpus.Extensions...)
	snap, err := index.Build(ctx, reader, index.WithLogger(logger.WithComponent("index")))
	if err != nil {
		return nil, nil, fmt.Errorf("building index: %w", err)
	}

	var m *metrics.Metrics
	shutdown := func() {}
	if cfg.Metrics.Enabled {
		m = metrics.New()
		_, stop, err := metrics.StartServer(cfg.Metrics.Addr, m)
		if err != nil {
			return nil, nil, err
		}
		shutdown = func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := stop(sctx); err != nil {
				slog.Warn("metrics server shutdown", "error", err)
			}
		}
	}

	rankOpts := []rank.Option{
		rank.WithMinSimilarity(cfg.Search.MinSimilarity),
		rank.WithProximityBoost(cfg.Search.ProximityBoost),
	}
	if cfg.Search.Workers > 0 {
		rankOpts = append(rankOpts, rank.WithWorkers(cfg.Search.Workers))
	}
	svc, err := service.New(snap,
		service.WithLogger(logger.WithComponent("search")),
		service.WithMetrics(m),
		service.WithRankOptions(rankOpts...),
		service.WithFuzzyOptions(
			fuzzy.WithMinResults(cfg.Search.MinResults),
			fuzzy.WithMaxDepth(cfg.Search.MaxFuzzyDepth),
			fuzzy.WithMaxCandidates(cfg.Search.MaxCandidates),
		),
		service.WithSnippetOptions(
			snippet.WithBudget(cfg.Snippet.Budget),
			snippet.WithMinParagraph(cfg.Snippet.MinParagraph),
			snippet.WithWordWindow(cfg.Snippet.WordWindow),
			snippet.WithEllipsis(cfg.Snippet.Ellipsis),
		),
	)
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	return svc, shutdown, nil
}
