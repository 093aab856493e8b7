// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

//go:build js && wasm

// luaparse-wasm exposes the parser to JavaScript.
// After the module starts, it defines a global luaparse object with two functions:
//
//	luaparse.parse(code: string): Result
//	luaparse.configure(options: {memoryLimit?: number|string, gcPercent?: number}): void
//
// parse returns the same object that the luaparse command prints as JSON.
// On invalid arguments, both functions return an Error object instead of throwing.
package main

import (
	"context"
	"fmt"
	"runtime/debug"
	"syscall/js"

	"github.com/dustin/go-humanize"
	"zb.256lights.llc/luaparse"
	"zombiezen.com/go/log"
)

func main() {
	ctx := context.Background()
	log.SetDefault(&log.LevelFilter{
		Min:    log.Info,
		Output: log.New(consoleWriter{}, "luaparse: ", 0, nil),
	})

	obj := js.Global().Get("Object").New()
	obj.Set("parse", js.FuncOf(parse))
	obj.Set("configure", js.FuncOf(configure))
	js.Global().Set("luaparse", obj)
	log.Debugf(ctx, "luaparse ready")

	// Keep the Go runtime alive so the callbacks stay valid.
	select {}
}

func parse(this js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return jsError(fmt.Errorf("parse: code must be a string"))
	}
	data, err := luaparse.ParseResult(args[0].String()).MarshalJSON()
	if err != nil {
		return jsError(err)
	}
	return js.Global().Get("JSON").Call("parse", string(data))
}

func configure(this js.Value, args []js.Value) any {
	ctx := context.Background()
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return jsError(fmt.Errorf("configure: options must be an object"))
	}
	opts := args[0]

	var limit int64 = -1
	switch v := opts.Get("memoryLimit"); v.Type() {
	case js.TypeUndefined, js.TypeNull:
	case js.TypeNumber:
		limit = int64(v.Int())
	case js.TypeString:
		n, err := humanize.ParseBytes(v.String())
		if err != nil {
			return jsError(fmt.Errorf("configure: memoryLimit: %v", err))
		}
		limit = int64(n)
	default:
		return jsError(fmt.Errorf("configure: memoryLimit must be a number or string"))
	}
	gcPercent, hasGCPercent := 0, false
	switch v := opts.Get("gcPercent"); v.Type() {
	case js.TypeUndefined, js.TypeNull:
	case js.TypeNumber:
		gcPercent, hasGCPercent = v.Int(), true
		if gcPercent < -1 {
			return jsError(fmt.Errorf("configure: gcPercent must be >= -1"))
		}
	default:
		return jsError(fmt.Errorf("configure: gcPercent must be a number"))
	}

	if limit >= 0 {
		debug.SetMemoryLimit(limit)
		log.Debugf(ctx, "Memory limit set to %s", humanize.IBytes(uint64(limit)))
	}
	if hasGCPercent {
		debug.SetGCPercent(gcPercent)
		log.Debugf(ctx, "GC percent set to %d", gcPercent)
	}
	return js.Undefined()
}

// jsError converts err to a JavaScript Error object.
func jsError(err error) any {
	return js.Global().Get("Error").New(err.Error())
}

// consoleWriter sends log lines to console.log.
type consoleWriter struct{}

func (consoleWriter) Write(p []byte) (int, error) {
	js.Global().Get("console").Call("log", string(p))
	return len(p), nil
}
