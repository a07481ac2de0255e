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

// Clause is one Catch of a Block.
type Clause struct {
	Tag    *Tag
	Handle func(*Frame)
}

// Block is a try-block: Try runs guarded, the first Clause whose Tag is the
// thrown one handles it, and Finally runs once whatever happened. An
// exception no Clause claims is raised again into the enclosing block.
type Block struct {
	Try     func()
	Catches []Clause
	Finally func()
}

// Try starts a block with body as the guarded code. Nothing runs until End.
func Try(body func()) *Block {
	return &Block{Try: body}
}

// Catch appends a clause for tag. Clauses are tried in the order added.
func (b *Block) Catch(tag *Tag, handle func(*Frame)) *Block {
	b.Catches = append(b.Catches, Clause{Tag: tag, Handle: handle})
	return b
}

// Final sets the Finally clause.
func (b *Block) Final(fn func()) *Block {
	b.Finally = fn
	return b
}

// End runs the block. See Do.
func (b *Block) End() Status {
	return b.Do()
}

// Do runs the block on the calling goroutine and returns its final status.
// Do only returns Thrown when the exception found no enclosing block and was
// printed as a diagnostic instead.
func (b *Block) Do() (status Status) {
	var (
		f         = &Frame{}
		completed = false
	)
	push(f)

	defer func() {
		f.unlink()
		if b.Finally != nil {
			b.Finally()
			if status == Entered {
				status = Finalized
			}
		}
		//未被捕获，继续向外层抛出
		if completed && status == Thrown {
			Rethrow(f)
		}
	}()

	status = b.run(f)
	if status == Thrown {
		if c := b.match(f.tag); c != nil {
			status = Handled
			if c.Handle != nil {
				c.Handle(f)
			}
		}
	}
	completed = true
	return status
}

// run executes the guarded body and reports whether an exception was thrown
// into f. Any other panic is passed on once f is unlinked.
func (b *Block) run(f *Frame) (status Status) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if j, ok := r.(*jump); ok && j.frame == f {
			status = Thrown
			return
		}
		Logger().Debug("panic crossed try-block at depth %d: %v", Depth(), r)
		f.unlink()
		panic(r)
	}()

	if b.Try != nil {
		b.Try()
	}
	f.unlink()
	return Entered
}

func (b *Block) match(tag *Tag) *Clause {
	for i := range b.Catches {
		if b.Catches[i].Tag.Is(tag) {
			return &b.Catches[i]
		}
	}
	return nil
}
