package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/starford/gnotes/internal/apperr"
)

var version = "dev"

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// run executes the command line args and returns the process exit code.
// Invocation errors are printed as-is; anything else is logged.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	if err := a.command().Run(ctx, args); err != nil {
		if apperr.IsUserFacing(err) {
			fmt.Fprintln(stderr, err)
		} else {
			slog.New(slog.NewJSONHandler(stderr, nil)).
				Error("command failed", slog.String("error", err.Error()))
		}
		return 1
	}
	return 0
}
