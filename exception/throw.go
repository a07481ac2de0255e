/*
 * Copyright 2018 The OpenWallet Authors
 * This file is part of the OpenWallet library.
 *
 * The OpenWallet library is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * The OpenWallet library is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Lesser General Public License for more details.
 */

package exception

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
)

// jump is the panic value that carries an exception to the Do call owning
// frame. It is recovered by that call only.
type jump struct {
	frame *Frame
}

var (
	diagMu  sync.Mutex
	diagOut io.Writer = os.Stdout
)

// SetDiagnostics sets where unhandled exceptions are printed and returns the
// previous writer. A nil w discards them.
func SetDiagnostics(w io.Writer) io.Writer {
	if w == nil {
		w = io.Discard
	}
	diagMu.Lock()
	defer diagMu.Unlock()
	old := diagOut
	diagOut = w
	return old
}

// Throw raises tag from the caller's position without a cause.
func Throw(tag *Tag) {
	raise(tag, callerOrigin(2), "")
}

// Throwf raises tag with a formatted cause.
func Throwf(tag *Tag, format string, args ...interface{}) {
	raise(tag, callerOrigin(2), formatCause(format, args))
}

// ThrowFrom raises tag with an explicit origin. An empty format means no cause.
func ThrowFrom(tag *Tag, fn, file string, line int, format string, args ...interface{}) {
	raise(tag, Origin{Func: fn, File: file, Line: line}, formatCause(format, args))
}

// Rethrow raises the exception held by f again, with its original tag, origin
// and message. It is meant for Catch handlers: f is no longer linked, so the
// exception goes to the next enclosing frame.
func Rethrow(f *Frame) {
	raise(f.tag, f.origin, f.message)
}

// raise delivers the exception to the calling goroutine's top frame. With no
// frame left it prints a diagnostic and returns to the caller.
func raise(tag *Tag, origin Origin, message string) {
	s := local()
	if s == nil || s.top == nil {
		report(tag, origin, message)
		return
	}
	f := s.top
	f.record(tag, origin, message)
	s.pop()
	panic(&jump{frame: f})
}

func report(tag *Tag, origin Origin, message string) {
	if message == "" {
		message = tag.Name()
	}

	diagMu.Lock()
	fmt.Fprintf(diagOut, "%s: %s\n raised in %s at %s:%d\n",
		tag.Name(), message, orUnknown(origin.Func), orUnknown(origin.File), origin.Line)
	diagMu.Unlock()

	Logger().Informational("unhandled exception %s raised in %s", tag.Name(), origin)
}

func formatCause(format string, args []interface{}) string {
	if format == "" {
		return ""
	}
	return truncate(fmt.Sprintf(format, args...))
}

// callerOrigin resolves the function, file and line skip frames above it.
func callerOrigin(skip int) Origin {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return Origin{}
	}
	var name string
	if fn := runtime.FuncForPC(pc); fn != nil {
		name = fn.Name()
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
	}
	return Origin{Func: name, File: file, Line: line}
}
