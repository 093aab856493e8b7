// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

// luaparse parses Lua 5.4 source files into lossless syntax trees.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"zombiezen.com/go/bass/sigterm"
	"zombiezen.com/go/log"
)

func main() {
	rootCommand := &cobra.Command{
		Use:           "luaparse",
		Short:         "Lua 5.4 parser",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	g := defaultGlobalConfig()
	if err := g.mergeFiles(configFiles()); err != nil {
		initLogging(false)
		log.Errorf(context.Background(), "%v", err)
		os.Exit(1)
	}

	rootCommand.PersistentFlags().BoolVar(&g.Debug, "debug", g.Debug, "show debugging output")
	rootCommand.PersistentFlags().Var(&g.MemoryLimit, "memory-limit", "soft memory `limit` for the Go runtime (e.g. 64MiB)")
	rootCommand.PersistentFlags().Var(&g.GCPercent, "gc-percent", "garbage collection target `percent`age (-1 disables)")
	rootCommand.PersistentFlags().IntVarP(&g.Jobs, "jobs", "j", g.Jobs, "`number` of files to parse concurrently")
	showVersion := rootCommand.Flags().Bool("version", false, "show version information")

	rootCommand.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		initLogging(g.Debug)
		if err := g.validate(); err != nil {
			return err
		}
		applyRuntimeOptions(cmd.Context(), g)
		return nil
	}
	rootCommand.RunE = func(cmd *cobra.Command, args []string) error {
		if *showVersion {
			return runVersion(cmd.Context())
		}
		return cmd.Help()
	}

	rootCommand.AddCommand(
		newParseCommand(g),
		newCheckCommand(g),
		newTokensCommand(g),
		newServeCommand(g),
		newVersionCommand(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), sigterm.Signals()...)
	err := rootCommand.ExecuteContext(ctx)
	cancel()
	if errors.Is(err, errCheckFailed) {
		os.Exit(1)
	}
	if err != nil {
		initLogging(g.Debug)
		log.Errorf(context.Background(), "%v", err)
		os.Exit(1)
	}
}

// applyRuntimeOptions sets the Go runtime's memory limit and GC percentage
// if they were configured.
func applyRuntimeOptions(ctx context.Context, g *globalConfig) {
	if g.MemoryLimit > 0 {
		debug.SetMemoryLimit(int64(g.MemoryLimit))
		log.Debugf(ctx, "Memory limit set to %s", humanize.IBytes(uint64(g.MemoryLimit)))
	}
	if g.GCPercent.valid {
		prev := debug.SetGCPercent(g.GCPercent.n)
		log.Debugf(ctx, "GC percent set to %d (was %d)", g.GCPercent.n, prev)
	}
}

var initLogOnce sync.Once

func initLogging(showDebug bool) {
	initLogOnce.Do(func() {
		minLogLevel := log.Info
		if showDebug {
			minLogLevel = log.Debug
		}
		log.SetDefault(&log.LevelFilter{
			Min:    minLogLevel,
			Output: log.New(os.Stderr, "luaparse: ", log.StdFlags, nil),
		})
	})
}
