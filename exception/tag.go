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

// Tag identifies a kind of exception. Tags are compared by pointer, never by
// name: two tags declared with the same name are unrelated.
type Tag struct {
	name string
}

// Declare returns a new tag. Every call yields a distinct identity.
func Declare(name string) *Tag {
	return &Tag{name: name}
}

// Name returns the display name given to Declare.
func (t *Tag) Name() string {
	if t == nil {
		return "?"
	}
	return t.name
}

func (t *Tag) String() string {
	return t.Name()
}

// Is reports whether t and other are the same declaration.
func (t *Tag) Is(other *Tag) bool {
	return t != nil && t == other
}
