package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/starford/gnotes/internal"
	"github.com/starford/gnotes/internal/apperr"
	"github.com/starford/gnotes/internal/editor"
	"github.com/starford/gnotes/internal/noteservice"
	"github.com/starford/gnotes/internal/remote"
	"github.com/starford/gnotes/internal/storage"
	pkgconfig "github.com/starford/gnotes/pkg/config"
)

// env is everything a command needs once configuration is resolved.
type env struct {
	cfg    *internal.Config
	logger *slog.Logger
	store  *storage.FS
	opts   []noteservice.Option
}

func (e *env) service(extra ...noteservice.Option) *noteservice.Service {
	return noteservice.NewService(e.store, append(slices.Clone(e.opts), extra...)...)
}

// loadConfig resolves the configuration: defaults, then the config file,
// then flags and their environment variables.
func loadConfig(root *cli.Command) (*internal.Config, error) {
	home := root.String("home-dir")
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("home directory can't be located: %w", err)
		}
		home = h
	}

	cfg := internal.NewDefaultConfig(home)

	path := root.String("config")
	if path == "" {
		path = filepath.Join(home, internal.ConfigFileName)
	}
	if _, err := pkgconfig.Load(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidConfig, err)
	}

	if root.IsSet("notes-dir") {
		cfg.NotesDir = root.String("notes-dir")
	}
	if root.IsSet("repository") {
		cfg.Repository = root.String("repository")
	}
	if root.IsSet("ssh-file-path") {
		cfg.SSHFilePath = root.String("ssh-file-path")
	}
	if root.IsSet("auto-save") {
		cfg.AutoSave = root.Bool("auto-save")
	}
	if root.Bool("debug") {
		cfg.Log.Level = slog.LevelDebug
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) env(cmd *cli.Command) (*env, error) {
	cfg, err := loadConfig(cmd.Root())
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(cfg.Log, a.stderr)
	logger.Debug("config resolved",
		slog.String("command", cmd.Name),
		slog.String("notes_dir", cfg.NotesDir),
		slog.Bool("auto_save", cfg.AutoSave),
		slog.Bool("repository", cfg.Repository != ""))

	store, err := storage.NewFS(cfg.NotesDir)
	if err != nil {
		return nil, err
	}

	opts := []noteservice.Option{
		noteservice.WithLogger(logger),
		noteservice.WithEditor(func(ctx context.Context, path string) error {
			ed, err := editor.Resolve(cfg.Editor, os.Environ())
			if err != nil {
				return err
			}
			return editor.Run(ctx, ed, path)
		}),
	}
	if cfg.Repository != "" {
		git := remote.NewGit(cfg.NotesDir, cfg.Repository, cfg.SSHFilePath, logger)
		opts = append(opts, noteservice.WithRemote(git, cfg.AutoSave))
	}

	return &env{cfg: cfg, logger: logger, store: store, opts: opts}, nil
}
