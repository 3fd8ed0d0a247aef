package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/starford/shelfmark/internal/apperr"
	"github.com/starford/shelfmark/internal/clipboard"
	"github.com/starford/shelfmark/internal/lookup"
	"github.com/starford/shelfmark/internal/metadata"
)

var errInterrupted = errors.New("interrupted")

// clipboardReader is replaced in tests.
var clipboardReader clipboard.Reader = clipboard.System{}

// prompter asks for missing values when stdin is a terminal.
type prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

func newPrompter(in *os.File, out io.Writer) *prompter {
	fd := in.Fd()
	return &prompter{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

// ask prints question and returns the trimmed answer. io.EOF (Ctrl+D) and a
// cancelled ctx (Ctrl+C) are reported as errInterrupted. The read itself
// cannot be interrupted, so on cancel it is abandoned and the process is
// expected to exit.
func (p *prompter) ask(ctx context.Context, question string) (string, error) {
	fmt.Fprint(p.out, question)

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		ch <- answer{line: line, err: err}
	}()

	var a answer
	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", errInterrupted
	case a = <-ch:
	}
	if a.err != nil && (a.line == "" || !errors.Is(a.err, io.EOF)) {
		if errors.Is(a.err, io.EOF) {
			return "", errInterrupted
		}
		return "", a.err
	}
	return strings.TrimSpace(a.line), nil
}

// lookupInput is what the flags, the clipboard and the prompts produced.
type lookupInput struct {
	kind    string
	title   string
	year    string
	backend string
}

func kindFromFlags(cmd *cli.Command) (string, error) {
	var kinds []string
	if cmd.Bool("movie") {
		kinds = append(kinds, string(metadata.KindMovie))
	}
	if cmd.Bool("tv") {
		kinds = append(kinds, string(metadata.KindSeries))
	}
	if cmd.Bool("book") {
		kinds = append(kinds, string(metadata.KindBook))
	}
	if len(kinds) > 1 {
		return "", fmt.Errorf("choose one of --movie, --tv, --book: %w", apperr.ErrInvalidInput)
	}
	if len(kinds) == 0 {
		return "", nil
	}
	return kinds[0], nil
}

// gatherInput fills in kind, title and year from flags, the clipboard and,
// on a terminal, interactive prompts.
func gatherInput(ctx context.Context, cmd *cli.Command, p *prompter, clip clipboard.Reader) (lookupInput, error) {
	kind, err := kindFromFlags(cmd)
	if err != nil {
		return lookupInput{}, err
	}
	in := lookupInput{
		kind:    kind,
		title:   strings.TrimSpace(cmd.String("title")),
		year:    strings.TrimSpace(cmd.String("year")),
		backend: cmd.String("backend"),
	}
	if in.title == "" && cmd.Args().Len() > 0 {
		in.title = strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	}

	if cmd.Bool("clipboard") && in.title == "" {
		text, err := clip.ReadText()
		if err != nil {
			return lookupInput{}, err
		}
		title, year := lookup.SplitTitleYear(text)
		in.title = title
		if in.year == "" && year > 0 {
			in.year = strconv.Itoa(year)
		}
	}

	yearKnown := in.year != "" || cmd.Bool("clipboard")

	if in.kind == "" {
		if !p.interactive {
			return lookupInput{}, fmt.Errorf("kind is required (--movie, --tv or --book): %w", apperr.ErrInvalidInput)
		}
		if in.kind, err = p.ask(ctx, "Type (book/movie/series): "); err != nil {
			return lookupInput{}, err
		}
	}
	if in.title == "" {
		if !p.interactive {
			return lookupInput{}, fmt.Errorf("title is required: %w", apperr.ErrInvalidInput)
		}
		if in.title, err = p.ask(ctx, "Title: "); err != nil {
			return lookupInput{}, err
		}
	}
	if !yearKnown && p.interactive {
		if in.year, err = p.ask(ctx, "Year (optional): "); err != nil {
			return lookupInput{}, err
		}
	}
	return in, nil
}

// request validates the gathered input into a lookup request.
func (in lookupInput) request() (lookup.Request, error) {
	kind, err := metadata.ParseKind(in.kind)
	if err != nil {
		return lookup.Request{}, err
	}
	req := lookup.Request{Title: in.title, Kind: string(kind), Backend: in.backend}
	if in.year != "" {
		year, err := strconv.Atoi(in.year)
		if err != nil {
			return lookup.Request{}, fmt.Errorf("year %q is not a number: %w", in.year, apperr.ErrInvalidInput)
		}
		req.Year = year
	}
	return req, nil
}

func runLookup(ctx context.Context, cmd *cli.Command) error {
	p := newPrompter(os.Stdin, cmd.Root().ErrWriter)
	in, err := gatherInput(ctx, cmd, p, clipboardReader)
	if err != nil {
		if errors.Is(err, errInterrupted) {
			return err
		}
		slog.Error("lookup: bad input", slog.String("error", err.Error()))
		return nil
	}
	req, err := in.request()
	if err != nil {
		slog.Error("lookup: bad input", slog.String("error", err.Error()))
		return nil
	}

	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	res, err := env.comps.Lookups.Lookup(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return errInterrupted
		}
		// The service has already logged the failure with its attempts.
		return nil
	}
	fmt.Fprintln(env.out, res.NotePath)
	return nil
}

func lookupCommand() *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Look up a title and write its note",
		ArgsUsage: "[title]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "movie", Aliases: []string{"m"}, Usage: "Look up a movie"},
			&cli.BoolFlag{Name: "tv", Aliases: []string{"t"}, Usage: "Look up a TV series"},
			&cli.BoolFlag{Name: "book", Aliases: []string{"b"}, Usage: "Look up a book"},
			&cli.BoolFlag{Name: "clipboard", Aliases: []string{"c"}, Usage: "Read the title (and year) from the clipboard"},
			&cli.StringFlag{Name: "title", Usage: "Title to look up"},
			&cli.StringFlag{Name: "year", Usage: "Release year used to pick between candidates"},
			&cli.StringFlag{Name: "backend", Usage: "Movie and series backend: tmdb or omdb"},
		},
		Action: runLookup,
	}
}

// readTitles parses an import file: one title per line, an optional year in
// the line, blank lines and #-comments skipped.
func readTitles(r io.Reader) ([]lookupInput, error) {
	var out []lookupInput
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		title, year := lookup.SplitTitleYear(line)
		in := lookupInput{title: title}
		if year > 0 {
			in.year = strconv.Itoa(year)
		}
		out = append(out, in)
	}
	return out, sc.Err()
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	kind, err := kindFromFlags(cmd)
	if err != nil {
		return err
	}
	if kind == "" {
		kind = cmd.String("kind")
	}

	f, err := os.Open(cmd.String("file"))
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	titles, err := readTitles(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	limit := int(cmd.Int("concurrency"))
	if limit <= 0 {
		limit = env.cfg.Import.Concurrency
	}

	var written, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, in := range titles {
		in.kind = kind
		in.backend = cmd.String("backend")
		g.Go(func() error {
			req, err := in.request()
			if err != nil {
				failed.Add(1)
				env.logger.Error("import: bad line", slog.String("title", in.title), slog.String("error", err.Error()))
				return nil
			}
			res, err := env.comps.Lookups.Lookup(gctx, req)
			if err != nil {
				if gctx.Err() != nil {
					return errInterrupted
				}
				failed.Add(1)
				return nil
			}
			written.Add(1)
			fmt.Fprintln(env.out, res.NotePath)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	env.logger.Info("import: done",
		slog.Int("titles", len(titles)),
		slog.Int("written", int(written.Load())),
		slog.Int("failed", int(failed.Load())))
	return nil
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Look up every title listed in a file, one per line",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "File with one title per line", Required: true},
			&cli.StringFlag{Name: "kind", Usage: "Kind of every title: book, movie or series"},
			&cli.BoolFlag{Name: "movie", Aliases: []string{"m"}, Usage: "Titles are movies"},
			&cli.BoolFlag{Name: "tv", Aliases: []string{"t"}, Usage: "Titles are TV series"},
			&cli.BoolFlag{Name: "book", Aliases: []string{"b"}, Usage: "Titles are books"},
			&cli.StringFlag{Name: "backend", Usage: "Movie and series backend: tmdb or omdb"},
			&cli.IntFlag{Name: "concurrency", Usage: "Lookups in flight (default from config)"},
		},
		Action: runImport,
	}
}
