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

import "fmt"

// MessageLength is the maximum number of bytes kept from a formatted cause.
const MessageLength = 512

// Origin is the place an exception was raised.
type Origin struct {
	Func string
	File string
	Line int
}

func (o Origin) String() string {
	return fmt.Sprintf("%s at %s:%d", orUnknown(o.Func), orUnknown(o.File), o.Line)
}

// Frame is the record of one active try-block on one goroutine. Once an
// exception has been thrown into it, it also carries that exception's tag,
// origin and message, and is what Catch handlers receive.
type Frame struct {
	stack  *stack
	prev   *Frame
	linked bool

	tag     *Tag
	origin  Origin
	message string
}

// Tag returns the tag of the exception attributed to the frame.
func (f *Frame) Tag() *Tag { return f.tag }

// Origin returns where the exception was raised.
func (f *Frame) Origin() Origin { return f.origin }

// Message returns the truncated cause, or "" if none was given.
func (f *Frame) Message() string { return f.message }

// Prev returns the frame that enclosed f when it was pushed.
func (f *Frame) Prev() *Frame { return f.prev }

// Error implements error so a caught exception can travel as a plain error.
func (f *Frame) Error() string {
	if f.message == "" {
		return f.tag.Name()
	}
	return f.tag.Name() + ": " + f.message
}

// Rethrow raises the exception held by f, unchanged, into the frame that is
// now innermost on the calling goroutine.
func (f *Frame) Rethrow() {
	Rethrow(f)
}

// record stores the exception about to be delivered to f.
func (f *Frame) record(tag *Tag, origin Origin, message string) {
	f.tag = tag
	f.origin = origin
	f.message = message
}

// unlink removes f, and anything still linked above it, from its stack.
func (f *Frame) unlink() {
	for f.linked {
		f.stack.pop()
	}
}

// truncate cuts s to MessageLength bytes. The cut is at the byte level and
// may split a multi-byte rune.
func truncate(s string) string {
	if len(s) > MessageLength {
		return s[:MessageLength]
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
