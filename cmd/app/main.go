package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/shelfmark/internal"
	pkgconfig "github.com/starford/shelfmark/pkg/config"
)

var version = "dev"

// loadConfig reads the file named by --config. A missing file falls back to
// defaults; environment variables override secrets and the vault path.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOrDefault(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// cliEnv bundles what every one-shot command needs.
type cliEnv struct {
	cfg    *internal.Config
	logger *slog.Logger
	comps  *internal.Components
	out    io.Writer
	close  func()
}

// setup loads the config, builds the text logger and opens the vault.
func setup(cmd *cli.Command) (*cliEnv, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := internal.NewLogger(cfg.App, os.Stderr, internal.LogFormatText)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	comps, err := internal.NewComponents(cfg, logger, nil)
	if err != nil {
		closeLog()
		return nil, err
	}
	return &cliEnv{
		cfg:    cfg,
		logger: logger,
		comps:  comps,
		out:    cmd.Root().Writer,
		close: func() {
			comps.Close()
			closeLog()
		},
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "shelfmark",
		Usage:   "Look up books, movies and series and file them as Markdown notes in your vault",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			lookupCommand(),
			importCommand(),
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with live index updates",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools on stdin/stdout",
				Action: serveMCP,
			},
			reindexCommand(),
			searchCommand(),
			historyCommand(),
			watchedCommand(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		if errors.Is(err, errInterrupted) {
			slog.Warn("interrupted; nothing was written")
		} else {
			slog.Error("application error", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}
}
