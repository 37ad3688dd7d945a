// Package editor opens notes in the user's text editor.
package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrNoEditor is returned when no usable editor is found.
var ErrNoEditor = errors.New("no editor found: set editor in the config file or $EDITOR")

// Resolve picks the editor command.
// Priority: configured -> $EDITOR from env -> vi -> nano.
// Commands may carry arguments, e.g. "code -w".
func Resolve(configured string, env []string) (string, error) {
	if available(configured) {
		return configured, nil
	}
	for _, e := range env {
		if editor, ok := strings.CutPrefix(e, "EDITOR="); ok && available(editor) {
			return editor, nil
		}
	}
	for _, fallback := range []string{"vi", "nano"} {
		if available(fallback) {
			return fallback, nil
		}
	}
	return "", ErrNoEditor
}

// Run opens path in editor attached to the current terminal and waits for
// it to exit.
func Run(ctx context.Context, editor, path string) error {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		return ErrNoEditor
	}
	args := append(fields[1:], path)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %s: %w", fields[0], err)
	}
	return nil
}

func available(editor string) bool {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		return false
	}
	_, err := exec.LookPath(fields[0])
	return err == nil
}
