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
	"sync"

	"github.com/petermattis/goid"
)

var (
	slotOnce sync.Once
	slot     *sync.Map // goroutine id -> *stack
)

// stack is the LIFO of frames owned by one goroutine. Only the owner reads
// or writes it, so it carries no lock.
type stack struct {
	gid   int64
	top   *Frame
	depth int
}

//Init 创建线程私有存储，整个进程只执行一次
func Init() {
	slotOnce.Do(func() {
		slot = &sync.Map{}
	})
}

func slots() *sync.Map {
	Init()
	return slot
}

// local returns the calling goroutine's stack, or nil when it has none.
func local() *stack {
	v, ok := slots().Load(goid.Get())
	if !ok {
		return nil
	}
	return v.(*stack)
}

// Current returns the calling goroutine's innermost active frame.
func Current() *Frame {
	s := local()
	if s == nil {
		return nil
	}
	return s.top
}

// Depth returns how many frames are linked on the calling goroutine.
func Depth() int {
	s := local()
	if s == nil {
		return 0
	}
	return s.depth
}

// push links f as the new top of the calling goroutine's stack.
func push(f *Frame) {
	s := local()
	if s == nil {
		s = &stack{gid: goid.Get()}
		slots().Store(s.gid, s)
	}
	f.stack = s
	f.prev = s.top
	f.linked = true
	s.top = f
	s.depth++
}

// pop unlinks the top frame. The stack must not be empty.
func (s *stack) pop() *Frame {
	f := s.top
	s.top = f.prev
	s.depth--
	f.linked = false
	if s.top == nil {
		slots().Delete(s.gid)
	}
	return f
}
