// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jseq

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrNotDrained is reported when Options.RequireDrain is set and a
	// completion callback returns without consuming its nested sequence.
	ErrNotDrained = errors.New("nested sequence not fully consumed")

	// ErrNotCurrent is reported by a sequence that is advanced while it does
	// not own the parser, for example a nested sequence retained after its
	// completion callback returned.
	ErrNotCurrent = errors.New("sequence advanced out of turn")

	// ErrNotCompiled is reported when streaming from a schema that was not
	// compiled.
	ErrNotCompiled = errors.New("schema is not compiled")
)

// ReadError is the concrete type of errors reported when the underlying
// reader fails.
type ReadError struct {
	Offset int   // the input offset at which the read failed
	Err    error // the error reported by the reader
}

// Error satisfies the error interface.
func (r *ReadError) Error() string {
	return fmt.Sprintf("read failed at offset %d: %v", r.Offset, r.Err)
}

// Unwrap supports error wrapping.
func (r *ReadError) Unwrap() error { return r.Err }

// ConstructionError reports a schema whose target type cannot be
// instantiated.
type ConstructionError struct {
	Type    reflect.Type
	Message string
}

// Error satisfies the error interface.
func (c *ConstructionError) Error() string {
	return fmt.Sprintf("cannot construct %v: %s", c.Type, c.Message)
}

// MismatchError reports that the shape of the input disagrees with the rule
// declared for it, for example an object where a primitive value was
// expected.
type MismatchError struct {
	Location LineCol
	Path     []string // object keys leading to the mismatch, outermost first
	Message  string
}

// Error satisfies the error interface.
func (m *MismatchError) Error() string {
	if len(m.Path) == 0 {
		return fmt.Sprintf("at %s: schema mismatch: %s", m.Location, m.Message)
	}
	return fmt.Sprintf("at %s: schema mismatch at %s: %s",
		m.Location, strings.Join(m.Path, "."), m.Message)
}

// BindError reports that a value binder rejected a primitive.
type BindError struct {
	Location LineCol
	Key      string // the member key whose value was rejected
	Token    Token  // the type of the rejected value

	Err error
}

// Error satisfies the error interface.
func (b *BindError) Error() string {
	return fmt.Sprintf("at %s: binding %s to %q: %v", b.Location, b.Token, b.Key, b.Err)
}

// Unwrap supports error wrapping.
func (b *BindError) Unwrap() error { return b.Err }
