package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/gnotes/internal"
	"github.com/starford/gnotes/internal/apperr"
	"github.com/starford/gnotes/internal/mcpserver"
	"github.com/starford/gnotes/internal/noteservice"
	"github.com/starford/gnotes/internal/render"
	"github.com/starford/gnotes/internal/storage"
)

type app struct {
	stdout io.Writer
	stderr io.Writer
}

func dirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "dir",
		Usage: "directory of the note (default: " + storage.DefaultDir + ")",
	}
}

func allFlag(usage string) cli.Flag {
	return &cli.BoolFlag{Name: "all", Usage: usage}
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{apperr.ErrUsage}, args...)...)
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "gnotes",
		Usage:     "Small text notes in directories, with tags and git sync",
		Version:   version,
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the config file (default: <home>/.gnotes.toml)",
				Sources: cli.EnvVars("GNOTES_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "home-dir",
				Usage:   "home directory used for defaults",
				Sources: cli.EnvVars("GNOTES_HOME_DIR"),
			},
			&cli.StringFlag{
				Name:    "notes-dir",
				Usage:   "root directory of the notes",
				Sources: cli.EnvVars("GNOTES_NOTES_DIR"),
			},
			&cli.StringFlag{
				Name:    "repository",
				Usage:   "git remote the notes are saved to",
				Sources: cli.EnvVars("GNOTES_REPOSITORY"),
			},
			&cli.StringFlag{
				Name:    "ssh-file-path",
				Usage:   "ssh key used for the repository",
				Sources: cli.EnvVars("GNOTES_SSH_FILE_PATH"),
			},
			&cli.BoolFlag{
				Name:    "auto-save",
				Usage:   "commit and push after every change",
				Sources: cli.EnvVars("GNOTES_AUTO_SAVE"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			a.newCommand(),
			a.addCommand(),
			a.editCommand(),
			a.removeCommand(),
			a.listCommand(),
			a.showCommand(),
			a.tagCommand("tag", "Add tags to a note"),
			a.tagCommand("untag", "Remove tags from a note"),
			a.searchCommand(),
			a.saveCommand(),
			a.cloneCommand(),
			a.findCommand(),
			a.serveCommand(),
			a.mcpCommand(),
		},
	}
}

func (a *app) newCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create a note, from a message or in the editor",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			dirFlag(),
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "note content"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return usageError("new NAME")
			}
			e, err := a.env(cmd)
			if err != nil {
				return err
			}
			_, err = e.service().New(ctx, name, cmd.String("dir"), cmd.String("message"))
			return err
		},
	}
}

func (a *app) addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Append a message to a note",
		ArgsUsage: "NAME MESSAGE",
		Flags:     []cli.Flag{dirFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 2 {
				return usageError("add NAME MESSAGE")
			}
			e, err := a.env(cmd)
			if err != nil {
				return err
			}
			message := strings.Join(cmd.Args().Tail(), " ")
			_, err = e.service().Add(ctx, cmd.Args().First(), cmd.String("dir"), message)
			return err
		},
	}
}

func (a *app) editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Open a note in the editor",
		ArgsUsage: "NAME",
		Flags:     []cli.Flag{dirFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return usageError("edit NAME")
			}
			e, err := a.env(cmd)
			if err != nil {
				return err
			}
			_, err = e.service().Edit(ctx, name, cmd.String("dir"))
			return err
		},
	}
}

func (a *app) removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Delete a note and drop it from every tag",
		ArgsUsage: "NAME",
		Flags:     []cli.Flag{dirFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return usageError("remove NAME")
			}
			e, err := a.env(cmd)
			if err != nil {
				return err
			}
			return e.service().Remove(ctx, name, cmd.String("dir"))
		},
	}
}

func (a *app) listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List the notes of a directory",
		Flags: []cli.Flag{
			dirFlag(),
			allFlag("list every directory"),
			&cli.BoolFlag{Name: "include-headers", Usage: "print column headers"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := a.env(cmd)
			if err != nil {
				return err
			}
			entries, err := e.service().List(ctx, cmd.String("dir"), cmd.Bool("all"))
			if err != nil {
				return err
			}
			return render.New(a.stdout).Entries(entries, cmd.Bool("include-headers"), time.Now())
		},
	}
}

func (a *app) showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a note",
		ArgsUsage: "NAME",
		Flags:     []cli.Flag{dirFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return usageError("show NAME")
			}
			e, err := a.env(cmd)
			if err != nil {
				return err
			}
			id, data, err := e.service().Show(ctx, name, cmd.String("dir"))
			if err != nil {
				return err
			}
			return render.New(a.stdout).Note(id, data)
		},
	}
}

func (a *app) tagCommand(name, usage string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "NAME TAG...",
		Flags:     []cli.Flag{dirFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 2 {
				return usageError("%s NAME TAG...", name)
			}
			e, err := a.env(cmd)
			if err != nil {
				return err
			}
			svc := e.service()
			fn := svc.Tag
			if name == "untag" {
				fn = svc.Untag
			}
			_, err = fn(ctx, cmd.Args().First(), cmd.String("dir"), cmd.Args().Tail()...)
			return err
		},
	}
}

func (a *app) searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "List the notes carrying a tag",
		ArgsUsage: "TAG",
		Flags: []cli.Flag{
			dirFlag(),
			allFlag("search every directory"),
			&cli.BoolFlag{Name: "show", Usage: "print the matching notes"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return usageError("search TAG")
			}
			e, err := a.env(cmd)
			if err != nil {
				return err
			}
			svc := e.service()
			ids, err := svc.Search(ctx, cmd.Args().First(), cmd.String("dir"), cmd.Bool("all"))
			if err != nil || len(ids) == 0 {
				return err
			}
			fmt.Fprintf(a.stdout, "total %d\n", len(ids))
			r := render.New(a.stdout)
			for _, id := range ids {
				if !cmd.Bool("show") {
					fmt.Fprintln(a.stdout, id)
					continue
				}
				data, err := svc.Read(ctx, id)
				if err != nil {
					return err
				}
				if err := r.Note(id, data); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) saveCommand() *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Commit and push the notes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "commit message"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := a.env(cmd)
			if err != nil {
				return err
			}
			return e.service().Save(ctx, cmd.String("message"))
		},
	}
}

func (a *app) cloneCommand() *cli.Command {
	return &cli.Command{
		Name:  "clone",
		Usage: "Clone the repository into the notes directory",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := a.env(cmd)
			if err != nil {
				return err
			}
			return e.service().Clone(ctx)
		},
	}
}

func (a *app) findCommand() *cli.Command {
	return &cli.Command{
		Name:      "find",
		Usage:     "Look text up in note names, titles and contents",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "maximum number of results"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return usageError("find QUERY")
			}
			e, err := a.env(cmd)
			if err != nil {
				return err
			}
			db, err := internal.OpenCatalog(e.cfg.Index, e.store, e.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			query := strings.Join(cmd.Args().Slice(), " ")
			results, err := e.service(noteservice.WithCatalog(db)).Find(ctx, query, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			return render.New(a.stdout).Results(results)
		},
	}
}

func (a *app) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the notes over HTTP with live updates",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := a.env(cmd)
			if err != nil {
				return err
			}
			return internal.Serve(ctx,
				internal.WithConfig(e.cfg),
				internal.WithLogger(e.logger),
				internal.WithServiceOptions(e.opts...),
			)
		},
	}
}

func (a *app) mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the tag tools over MCP on stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := a.env(cmd)
			if err != nil {
				return err
			}
			db, err := internal.OpenCatalog(e.cfg.Index, e.store, e.logger)
			if err != nil {
				return err
			}
			defer db.Close()
			return mcpserver.New(e.service(noteservice.WithCatalog(db)), version).ServeStdio()
		},
	}
}
