// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"zb.256lights.llc/luaparse"
)

// errCheckFailed is returned by the check command
// when at least one file has syntax errors.
// The diagnostics have already been printed.
var errCheckFailed = errors.New("syntax errors found")

type checkOptions struct {
	files      []string
	expression bool
	quiet      bool
}

func newCheckCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "check [options] [FILE [...]]",
		Short:                 "report syntax errors in Lua source files",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ArbitraryArgs,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(checkOptions)
	c.Flags().BoolVarP(&opts.expression, "expression", "e", false, "check each input as a single expression")
	c.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "only set the exit status")
	c.Flags().Var(&g.Color, "color", "colorize diagnostics: `when` is auto, always, or never")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.files = args
		return runCheck(cmd.Context(), g, opts)
	}
	return c
}

func runCheck(ctx context.Context, g *globalConfig, opts *checkOptions) error {
	paths := inputPaths(opts.files)
	outcomes, err := parseFiles(ctx, g, paths, opts.expression)
	if err != nil {
		return err
	}

	useColor := g.Color == colorAlways ||
		g.Color == colorAuto && term.IsTerminal(int(os.Stdout.Fd()))
	out := bufio.NewWriter(os.Stdout)
	failed := false
	for i, o := range outcomes {
		if o.Kind == luaparse.Complete {
			continue
		}
		failed = true
		if opts.quiet {
			continue
		}
		writeDiagnostics(out, displayPath(paths[i]), o, useColor)
	}
	if err := out.Flush(); err != nil {
		return err
	}
	if failed {
		return errCheckFailed
	}
	return nil
}

// writeDiagnostics prints a header line naming the file
// followed by the rendered errors.
func writeDiagnostics(w io.Writer, path string, o *luaparse.Outcome, useColor bool) {
	n := len(o.Errors)
	noun := "errors"
	if n == 1 {
		noun = "error"
	}
	header := fmt.Sprintf("%s: %d %s (%v)", path, n, noun, o.Kind)
	display := luaparse.Display(o.Source, o.Errors)
	if useColor {
		header = newColor(color.Bold).Sprint(header)
		display = colorizeDisplay(display)
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, display)
}

// colorizeDisplay adds terminal colors to the output of [luaparse.Display].
// Message lines are bold red, gutters are blue, and carets are red.
func colorizeDisplay(display string) string {
	var (
		message = newColor(color.FgRed, color.Bold)
		gutter  = newColor(color.FgBlue)
		caret   = newColor(color.FgRed)
	)

	sb := new(strings.Builder)
	for line := range strings.Lines(display) {
		text := strings.TrimSuffix(line, "\n")
		newline := line[len(text):]
		bar := strings.Index(text, " |")
		switch {
		case text == "":
		case strings.HasPrefix(text, luaparse.LexError.String()+":"),
			strings.HasPrefix(text, luaparse.SyntaxError.String()+":"):
			text = message.Sprint(text)
		case bar >= 0 && strings.TrimSpace(text[:bar]) == "" && strings.Contains(text[bar:], "^"):
			// Caret line.
			rest := text[bar+len(" |"):]
			underline := strings.TrimLeft(rest, " ")
			text = gutter.Sprint(text[:bar+len(" |")]) + rest[:len(rest)-len(underline)] + caret.Sprint(underline)
		case bar >= 0:
			text = gutter.Sprint(text[:bar+len(" |")]) + text[bar+len(" |"):]
		}
		sb.WriteString(text)
		sb.WriteString(newline)
	}
	return sb.String()
}

// newColor returns a [color.Color] that is always enabled,
// regardless of whether stdout is a terminal.
func newColor(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}
