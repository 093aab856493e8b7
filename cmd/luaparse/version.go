// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	"zombiezen.com/go/log"
)

// luaparseVersion is the version string filled in by the linker (e.g. "1.2.3").
var luaparseVersion string

func newVersionCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "version",
		Short:                 "show version information",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return runVersion(cmd.Context())
	}
	return c
}

func runVersion(ctx context.Context) error {
	version := luaparseVersion
	if version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		} else {
			log.Debugf(ctx, "No version in build info")
		}
	}
	firstLine := "luaparse"
	if version == "" {
		firstLine += " (version unknown)"
	} else {
		firstLine += " version " + version
	}
	fmt.Printf("%s\nGo:           %s\nSystem:       %s/%s\nCPUs:         %d\n",
		firstLine, runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	if limit := debug.SetMemoryLimit(-1); limit != math.MaxInt64 {
		fmt.Printf("Memory limit: %v\n", byteSize(limit))
	}
	return nil
}
