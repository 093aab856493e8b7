// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/cobra"
	"zb.256lights.llc/luaparse/internal/transcode"
)

type tokensOptions struct {
	file   string
	format string
	trivia bool
}

func newTokensCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "tokens [options] [FILE]",
		Short:                 "print the tokens of a Lua source file",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MaximumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(tokensOptions)
	c.Flags().StringVarP(&opts.format, "format", "f", "text", "output `format` (text, json, msgpack, or yaml)")
	c.Flags().BoolVar(&opts.trivia, "trivia", false, "include whitespace and comments in text output")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.file = "-"
		if len(args) > 0 {
			opts.file = args[0]
		}
		return runTokens(cmd.Context(), opts)
	}
	return c
}

func runTokens(ctx context.Context, opts *tokensOptions) error {
	source, err := readSource(opts.file)
	if err != nil {
		return err
	}
	list := newTokenList(source)

	out := bufio.NewWriter(os.Stdout)
	if opts.format == "text" {
		writeTokenText(out, list, opts.trivia)
	} else {
		format, err := transcode.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		data, err := jsonv2.Marshal(list, jsontext.AllowInvalidUTF8(true))
		if err != nil {
			return err
		}
		if err := transcode.Transcode(out, format, data); err != nil {
			return err
		}
	}
	return out.Flush()
}

// writeTokenText writes one line per token:
// its span, its kind, and its quoted text.
// Lexical errors follow the tokens.
func writeTokenText(w io.Writer, list *tokenList, trivia bool) {
	for i := range list.Tokens {
		tok := &list.Tokens[i]
		if trivia {
			for _, tr := range tok.LeadingTrivia {
				fmt.Fprintf(w, "%v\t%v\t%s\n", tr.Span, tr.Kind, strconv.Quote(tr.Text))
			}
		}
		fmt.Fprintf(w, "%v\t%s\t%s\n", tok.Span, tok.Kind.Name(), strconv.Quote(tok.Text))
	}
	for _, err := range list.Errors {
		fmt.Fprintf(w, "%v: %v\n", err.Kind.Category(), err)
	}
}
