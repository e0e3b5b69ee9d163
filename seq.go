// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jseq

import "iter"

// A Seq is a lazy, single-pass sequence of the objects in one scope of the
// input. Each call to Next reads only as much input as is needed to complete
// the next object:
//
//	seq := schema.Stream(input)
//	for seq.Next() {
//	   log.Printf("Next object: %+v", seq.Value())
//	}
//	if err := seq.Err(); err != nil {
//	   log.Fatalf("Stream failed: %v", err)
//	}
//
// Except as noted below, an error is terminal: the sequence, and every
// sequence enclosing it, stops yielding objects and reports the error.
//
// A nested sequence, passed to the completion callback of a child rule,
// shares the parser with the sequence that created it. It may only be used
// while the callback is active; afterward, Next returns false and Err reports
// ErrNotCurrent. An enclosing sequence advanced from inside such a callback
// also reports ErrNotCurrent, but that error is not terminal: once the
// callback returns, Next continues from where the sequence left off.
type Seq[E any] struct {
	t *translator
	f *frame

	cur  E
	done bool
	err  error
}

// Next advances s to the next object and reports whether one is available.
// At the end of the scope, or if an error occurs, Next returns false. Use Err
// to distinguish the two cases.
func (s *Seq[E]) Next() bool {
	var zero E
	s.cur = zero
	if s.err == ErrNotCurrent && s.f.state != scopeDiscarding {
		// An enclosing sequence pulled out of turn resumes once the nested
		// scope that blocked it has finished.
		s.err = nil
	}
	if s.done || s.err != nil {
		return false
	} else if s.t.err != nil {
		s.err = s.t.err
		return false
	}

	switch s.f.state {
	case scopeExhausted:
		s.done = true
		return false
	case scopeDiscarding:
		s.err = ErrNotCurrent
		return false
	}
	if s.t.top() != s.f {
		s.err = ErrNotCurrent
		return false
	}

	for {
		if err := s.t.pump(); err != nil {
			s.err = err
			return false
		}
		switch s.f.state {
		case scopeExhausted:
			s.done = true
			return false
		case scopeReady:
			s.cur = s.f.obj.(E)
			s.f.obj, s.f.state = nil, scopeIdle
			return true
		}
	}
}

// Value returns the current object of s, or a zero value if Next has not
// been called or reported false.
func (s *Seq[E]) Value() E { return s.cur }

// Err returns the error that caused Next to return false, or nil if the
// sequence ended without error.
func (s *Seq[E]) Err() error { return s.err }

// All returns an iterator over the remaining objects of s. After the
// iterator finishes, check Err to find out whether it ended due to an error.
func (s *Seq[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for s.Next() {
			if !yield(s.Value()) {
				return
			}
		}
	}
}
