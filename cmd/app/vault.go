package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/shelfmark/internal/apperr"
	"github.com/starford/shelfmark/internal/index"
)

func reindexCommand() *cli.Command {
	return &cli.Command{
		Name:  "reindex",
		Usage: "Bring the vault index up to date",
		Action: func(_ context.Context, cmd *cli.Command) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			stats, err := index.Sync(env.comps.Index, env.comps.Store, env.logger)
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			for _, c := range stats.Changes {
				fmt.Fprintf(env.out, "%-8s %s\n", c.Kind, c.Path)
			}
			fmt.Fprintf(env.out, "indexed %d, removed %d, unchanged %d, failed %d\n",
				stats.Indexed, stats.Removed, stats.Skipped, stats.Failed)
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search over the vault index",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum results"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if query == "" {
				return fmt.Errorf("search query is required: %w", apperr.ErrInvalidInput)
			}
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			results, err := env.comps.Notes.Search(ctx, query, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			if len(results) == 0 {
				env.logger.Info("no matches", slog.String("query", query))
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Title, r.Year, r.Kind, r.Path})
			}
			fmt.Fprintln(env.out, renderTable(
				[]string{"Title", "Year", "Kind", "Path"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent lookups",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Number of lookups to show"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			lookups, err := env.comps.Lookups.History(ctx, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(lookups))
			for _, l := range lookups {
				year := ""
				if l.Year > 0 {
					year = fmt.Sprint(l.Year)
				}
				rows = append(rows, []string{
					l.CreatedAt.Local().Format(time.DateTime),
					l.Query, year, l.Kind, l.Status, l.Strategy, l.NotePath,
				})
			}
			fmt.Fprintln(env.out, renderTable(
				[]string{"Time", "Query", "Year", "Kind", "Status", "Strategy", "Note"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func watchedCommand() *cli.Command {
	return &cli.Command{
		Name:      "watched",
		Usage:     "Mark a movie or series note as watched",
		ArgsUsage: "<note path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "if-match", Usage: "Only update when the note checksum still matches"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("note path is required: %w", apperr.ErrInvalidInput)
			}
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			note, err := env.comps.Notes.MarkWatched(ctx, path, cmd.String("if-match"))
			if err != nil {
				return err
			}
			fmt.Fprintf(env.out, "%s watched (checksum %s)\n", note.Path, note.Checksum)
			return nil
		},
	}
}
