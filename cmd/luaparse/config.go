// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/tailscale/hujson"
	"go4.org/xdgdir"
	"zb.256lights.llc/luaparse/internal/transcode"
)

// configEnvVar names an additional configuration file
// read after the user's configuration files.
const configEnvVar = "LUAPARSE_CONFIG"

type globalConfig struct {
	Debug       bool             `json:"debug"`
	MemoryLimit byteSize         `json:"memoryLimit"`
	GCPercent   optionalInt      `json:"gcPercent"`
	Jobs        int              `json:"jobs"`
	Format      transcode.Format `json:"format"`
	Color       colorMode        `json:"color"`
}

func defaultGlobalConfig() *globalConfig {
	return &globalConfig{
		Jobs:  runtime.GOMAXPROCS(0),
		Color: colorAuto,
	}
}

// configFiles returns the configuration files to read in order,
// least specific first.
func configFiles() iter.Seq[string] {
	return func(yield func(string) bool) {
		dirs := xdgdir.Config.SearchPaths()
		// SearchPaths lists the most important directory first.
		for _, dir := range slices.Backward(dirs) {
			if !yield(filepath.Join(dir, "luaparse", "config.jsonc")) {
				return
			}
		}
		if path := os.Getenv(configEnvVar); path != "" {
			yield(path)
		}
	}
}

func (g *globalConfig) mergeFiles(paths iter.Seq[string]) error {
	for path := range paths {
		huJSONData, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		jsonData, err := hujson.Standardize(huJSONData)
		if err != nil {
			return fmt.Errorf("read %s: %v", path, err)
		}
		if err := jsonv2.Unmarshal(jsonData, g, jsonv2.RejectUnknownMembers(false)); err != nil {
			return fmt.Errorf("read %s: %v", path, err)
		}
	}
	return nil
}

// UnmarshalJSONFrom unmarshals the configuration object from the JSON decoder,
// merging any fields in the JSON object with existing values.
func (g *globalConfig) UnmarshalJSONFrom(in *jsontext.Decoder) error {
	tok, err := in.ReadToken()
	if err != nil {
		return err
	}
	if got := tok.Kind(); got != '{' {
		return fmt.Errorf("config must be an object not a %v", got)
	}

	for {
		keyToken, err := in.ReadToken()
		if err != nil {
			return err
		}
		switch kind := keyToken.Kind(); kind {
		case '}':
			return nil
		case '"':
			// Keep going.
		default:
			return fmt.Errorf("unexpected non-string key (%v) in object", kind)
		}

		switch k := keyToken.String(); k {
		case "debug":
			if err := jsonv2.UnmarshalDecode(in, &g.Debug); err != nil {
				return fmt.Errorf("unmarshal config.debug: %w", err)
			}
		case "memoryLimit":
			if err := g.MemoryLimit.UnmarshalJSONFrom(in); err != nil {
				return fmt.Errorf("unmarshal config.memoryLimit: %w", err)
			}
		case "gcPercent":
			var n int
			if err := jsonv2.UnmarshalDecode(in, &n); err != nil {
				return fmt.Errorf("unmarshal config.gcPercent: %w", err)
			}
			g.GCPercent = optionalInt{n: n, valid: true}
		case "jobs":
			if err := jsonv2.UnmarshalDecode(in, &g.Jobs); err != nil {
				return fmt.Errorf("unmarshal config.jobs: %w", err)
			}
		case "format":
			var s string
			if err := jsonv2.UnmarshalDecode(in, &s); err != nil {
				return fmt.Errorf("unmarshal config.format: %w", err)
			}
			if g.Format, err = transcode.ParseFormat(s); err != nil {
				return fmt.Errorf("unmarshal config.format: %w", err)
			}
		case "color":
			var s string
			if err := jsonv2.UnmarshalDecode(in, &s); err != nil {
				return fmt.Errorf("unmarshal config.color: %w", err)
			}
			if err := g.Color.Set(s); err != nil {
				return fmt.Errorf("unmarshal config.color: %w", err)
			}
		default:
			if reject, _ := jsonv2.GetOption(in.Options(), jsonv2.RejectUnknownMembers); reject {
				return fmt.Errorf("unmarshal config: unknown field %q", k)
			}
			if err := in.SkipValue(); err != nil {
				return err
			}
		}
	}
}

func (g *globalConfig) validate() error {
	if g.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1 (got %d)", g.Jobs)
	}
	if g.GCPercent.valid && g.GCPercent.n < -1 {
		return fmt.Errorf("gc percent must be -1 or greater (got %d)", g.GCPercent.n)
	}
	return nil
}
