// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"zb.256lights.llc/luaparse/internal/jsonrpc"
	"zombiezen.com/go/log"
	"zombiezen.com/go/xcontext"
)

type serveOptions struct {
	stdio          bool
	httpAddr       string
	systemd        bool
	maxRequestSize byteSize
	allowedOrigins []string
}

func newServeCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "serve [options]",
		Short:                 "run a parse server",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := &serveOptions{
		maxRequestSize: defaultMaxRequestSize,
	}
	c.Flags().BoolVar(&opts.stdio, "stdio", false, "serve JSON-RPC on stdin and stdout")
	c.Flags().StringVar(&opts.httpAddr, "http", "", "serve HTTP on `addr`ess")
	c.Flags().BoolVar(&opts.systemd, "systemd", false, "serve HTTP on sockets passed by systemd")
	c.Flags().Var(&opts.maxRequestSize, "max-request-size", "largest accepted request body `size`")
	c.Flags().StringSliceVar(&opts.allowedOrigins, "allow-origin", []string{"*"}, "`origin`s allowed to make cross-origin HTTP requests")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), g, opts)
	}
	return c
}

func runServe(ctx context.Context, g *globalConfig, opts *serveOptions) error {
	n := 0
	for _, b := range []bool{opts.stdio, opts.httpAddr != "", opts.systemd} {
		if b {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("must specify exactly one of --stdio, --http, or --systemd")
	}
	if opts.stdio {
		return serveStdio(ctx, g.Jobs, int64(opts.maxRequestSize))
	}

	var listeners []net.Listener
	if opts.systemd {
		var err error
		listeners, err = activation.Listeners()
		if err != nil {
			return err
		}
		if len(listeners) == 0 {
			return fmt.Errorf("no sockets passed by systemd")
		}
	} else {
		l, err := net.Listen("tcp", opts.httpAddr)
		if err != nil {
			return err
		}
		listeners = []net.Listener{l}
	}
	srv := &httpServer{
		maxRequestSize: int64(opts.maxRequestSize),
		allowedOrigins: opts.allowedOrigins,
	}
	return serveHTTP(ctx, listeners, srv.handler())
}

// serveStdio serves JSON-RPC on the process's standard input and output
// until stdin reaches EOF or ctx is canceled.
// At most jobs requests are parsed at once.
func serveStdio(ctx context.Context, jobs int, maxMessageSize int64) error {
	codec := jsonrpc.NewCodec(stdioConn{os.Stdin, os.Stdout})
	codec.MaxMessageSize = maxMessageSize
	closer := xcontext.CloseWhenDone(ctx, codec)
	defer closer.Close()

	log.Debugf(ctx, "Serving JSON-RPC on stdio")
	err := jsonrpc.Serve(ctx, codec, newRPCHandler(), &jsonrpc.ServeOptions{
		MaxConcurrency: jobs,
	})
	if errors.Is(err, io.EOF) || ctx.Err() != nil {
		return nil
	}
	return err
}

type stdioConn struct {
	io.Reader
	io.Writer
}

func (conn stdioConn) Close() error {
	return os.Stdin.Close()
}

// shutdownTimeout is how long serveHTTP waits for in-flight requests
// after ctx is canceled.
const shutdownTimeout = 10 * time.Second

func serveHTTP(ctx context.Context, listeners []net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	grp, grpCtx := errgroup.WithContext(ctx)
	for _, l := range listeners {
		log.Infof(ctx, "Listening on http://%v", l.Addr())
		grp.Go(func() error {
			if err := srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	grp.Go(func() error {
		<-grpCtx.Done()
		if ctx.Err() != nil {
			log.Infof(ctx, "Shutting down (signal received)...")
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf(ctx, "Shutdown: %v", err)
		}
		return nil
	})
	return grp.Wait()
}
