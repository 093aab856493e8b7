// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"zb.256lights.llc/luaparse"
	"zb.256lights.llc/luaparse/internal/transcode"
	"zombiezen.com/go/log"
)

type parseOptions struct {
	files      []string
	format     formatFlag
	expression bool
	output     string
}

func newParseCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "parse [options] [FILE [...]]",
		Short:                 "print syntax trees of Lua source files",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ArbitraryArgs,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := &parseOptions{format: formatFlag(g.Format)}
	c.Flags().VarP(&opts.format, "format", "f", "output `format` (json, msgpack, or yaml)")
	c.Flags().BoolVarP(&opts.expression, "expression", "e", false, "parse each input as a single expression")
	c.Flags().StringVarP(&opts.output, "output", "o", "", "write output to `path` instead of stdout")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.files = args
		return runParse(cmd.Context(), g, opts)
	}
	return c
}

func runParse(ctx context.Context, g *globalConfig, opts *parseOptions) error {
	outcomes, err := parseFiles(ctx, g, inputPaths(opts.files), opts.expression)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	bw := bufio.NewWriter(out)
	format := transcode.Format(opts.format)
	for i, o := range outcomes {
		if i > 0 && format == transcode.YAML {
			bw.WriteString("---\n")
		}
		var data jsontext.Value
		if len(opts.files) > 1 {
			data, err = (&fileResult{path: displayPath(opts.files[i]), result: luaparse.NewResult(o)}).marshal()
		} else {
			data, err = luaparse.NewResult(o).MarshalJSON()
		}
		if err != nil {
			return err
		}
		if err := transcode.Transcode(bw, format, data); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if opts.output != "" {
		return out.(*os.File).Close()
	}
	return nil
}

// parseFiles reads and parses the given files concurrently,
// returning the outcomes in the same order as paths.
func parseFiles(ctx context.Context, g *globalConfig, paths []string, expression bool) ([]*luaparse.Outcome, error) {
	outcomes := make([]*luaparse.Outcome, len(paths))
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(g.Jobs)
	for i, path := range paths {
		if grpCtx.Err() != nil {
			break
		}
		grp.Go(func() error {
			source, err := readSource(path)
			if err != nil {
				return err
			}
			if expression {
				outcomes[i] = luaparse.ParseExpression(source)
			} else {
				outcomes[i] = luaparse.Parse(source)
			}
			log.Debugf(grpCtx, "Parsed %s: %v (%d errors)", displayPath(path), outcomes[i].Kind, len(outcomes[i].Errors))
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// fileResult pairs a [luaparse.Result] with the file it came from.
type fileResult struct {
	path   string
	result *luaparse.Result
}

// marshal returns {"file": path, "result": result}.
func (fr *fileResult) marshal() (jsontext.Value, error) {
	data, err := fr.result.MarshalJSON()
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	enc := jsontext.NewEncoder(buf, jsontext.AllowInvalidUTF8(true))
	for _, tok := range []jsontext.Token{jsontext.BeginObject, jsontext.String("file"), jsontext.String(fr.path), jsontext.String("result")} {
		if err := enc.WriteToken(tok); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteValue(data); err != nil {
		return nil, err
	}
	if err := enc.WriteToken(jsontext.EndObject); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// inputPaths returns the paths to read, "-" meaning standard input.
func inputPaths(args []string) []string {
	if len(args) == 0 {
		return []string{"-"}
	}
	return args
}

func readSource(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", displayPath(path), err)
	}
	return string(data), nil
}

func displayPath(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}
