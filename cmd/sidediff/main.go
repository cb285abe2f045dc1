package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"sidediff/internal/app"
	"sidediff/internal/config"
	"sidediff/internal/diffjob"
	"sidediff/internal/diffview"
	gitint "sidediff/internal/git"
	"sidediff/internal/linediff"
)

func main() {
	var (
		unified    = flag.Bool("unified", false, "print a unified patch instead of starting the viewer")
		configPath = flag.String("config", "", "config file (JSON, or TOML when it ends in .toml)")
		logPath    = flag.String("log", "", "write debug logs to this file")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: sidediff [flags] [BASE TARGET]\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "With no files, compares the working tree of the current git repository against HEAD.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger, closeLog, err := newLogger(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		if !errors.Is(err, config.ErrInvalidConfiguration) {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		logger.Warn("config fell back to defaults", "err", err)
	}

	ctx := context.Background()
	opts := app.Options{
		Config:    cfg,
		Logger:    logger,
		Status:    gitint.NewStatusService(),
		Revisions: gitint.NewRevisionService(),
		Terminal:  os.Stderr,
	}

	switch flag.NArg() {
	case 2:
		pair := &app.FilePair{Base: flag.Arg(0), Target: flag.Arg(1)}
		for _, p := range []string{pair.Base, pair.Target} {
			if _, err := os.Stat(p); err != nil {
				fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", p, err)
				os.Exit(1)
			}
		}
		opts.Pair = pair
	case 0:
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize app: %v\n", err)
			os.Exit(1)
		}
		root, err := gitint.DiscoverRepoRoot(ctx, cwd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "not inside a git repository: %v\n", err)
			os.Exit(1)
		}
		opts.Root = root
	default:
		flag.Usage()
		os.Exit(2)
	}

	if *unified {
		if err := printUnified(ctx, os.Stdout, opts); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	runner := diffjob.NewRunner(logger)
	defer runner.Close()
	opts.Runner = runner

	program := tea.NewProgram(app.New(opts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "application error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { _ = f.Close() }, nil
}

func loadConfig(path string) (config.AppConfig, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	cfg, _, err := config.Load()
	return cfg, err
}

// printUnified writes a patch for the file pair, or for every changed file in the repository.
func printUnified(ctx context.Context, w io.Writer, opts app.Options) error {
	contextLines := opts.Config.Diff.ContextLines
	if opts.Pair != nil {
		base, err := os.ReadFile(opts.Pair.Base)
		if err != nil {
			return err
		}
		target, err := os.ReadFile(opts.Pair.Target)
		if err != nil {
			return err
		}
		return writePatch(w, opts.Pair.Base, opts.Pair.Target, base, target, contextLines)
	}

	items, err := opts.Status.ListChangedFiles(ctx, opts.Root)
	if err != nil {
		return err
	}
	for _, item := range items {
		base, target, err := opts.Revisions.Revisions(ctx, opts.Root, item)
		if err != nil {
			return fmt.Errorf("%s: %w", item.Path, err)
		}
		origName := item.Path
		if item.OrigPath != "" {
			origName = item.OrigPath
		}
		if err := writePatch(w, origName, item.Path, base, target, contextLines); err != nil {
			return fmt.Errorf("%s: %w", item.Path, err)
		}
	}
	return nil
}

func writePatch(w io.Writer, origName, newName string, baseData, targetData []byte, contextLines int) error {
	base, target, err := linediff.DecodeRevisions(baseData, targetData)
	if err != nil {
		return err
	}
	segments, err := linediff.Diff(base, target)
	if err != nil {
		return err
	}
	patch, err := diffview.Unified(origName, newName, base, target, segments, contextLines)
	if err != nil {
		return err
	}
	_, err = w.Write(patch)
	return err
}
