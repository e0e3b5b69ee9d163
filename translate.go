// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jseq

import (
	"fmt"
	"io"
)

// scopeState is the status of one open scope on the context stack.
type scopeState byte

const (
	scopeIdle       scopeState = iota // parsing the scope's contents
	scopeAwaiting                     // a nested member began; its callback has not run
	scopeExhausted                    // the scope has ended; no more objects
	scopeReady                        // a complete object is ready to publish
	scopeDiscarding                   // contents are skipped until the scope ends
	scopeCapturing                    // contents are forwarded to a Capturer
)

var scopeStr = [...]string{
	scopeIdle:       "idle",
	scopeAwaiting:   "awaiting",
	scopeExhausted:  "exhausted",
	scopeReady:      "ready",
	scopeDiscarding: "discarding",
	scopeCapturing:  "capturing",
}

func (s scopeState) String() string { return scopeStr[s] }

// A frame is the parse state of one open scope.
//
// The root frame governs the top level of the input. Every other frame
// governs the value of one object member, and is popped when that member
// ends.
type frame struct {
	node  *node      // the schema for objects in this scope; nil if discarding
	obj   any        // the object under construction, or nil
	state scopeState // the status of the scope
	key   string     // the member key that opened this scope

	done  func(parent any, t *translator, f *frame) error // completion callback
	cap   Capturer                                        // when capturing
	depth int                                             // members open inside a capture
}

// A Capturer receives the complete event stream for the value of one member
// claimed by a capture rule (see Schema.AddCaptureRule). The methods have the
// same meaning as for a Handler. Done is called once, after the last event of
// the member value has been delivered.
type Capturer interface {
	BeginObject(loc Anchor) error
	EndObject(loc Anchor) error
	BeginArray(loc Anchor) error
	EndArray(loc Anchor) error
	BeginMember(loc Anchor) error
	EndMember(loc Anchor) error
	Value(loc Anchor) error
	Done() error
}

// A translator implements the Handler interface to translate parser events
// into transitions of a stack of scope frames. It suspends the parser when an
// object is complete and when a nested member begins, so that the parser never
// runs ahead of the sequence consuming its objects.
//
// A translator and its stack are owned by a single top-level sequence and
// the nested sequences created beneath it.
type translator struct {
	st    *Stream
	stack []*frame
	opts  Options

	bind func(obj any, v Value) error // pending value binder, or nil
	bkey string                       // the member key of bind
	kbuf []byte                       // scratch space for decoding keys

	err error // sticky terminal error
}

func newTranslator(root *node, r io.Reader, opts *Options) *translator {
	t := &translator{st: NewStream(r), stack: []*frame{{node: root}}}
	if opts != nil {
		t.opts = *opts
	}
	t.st.AllowComments(t.opts.AllowComments)
	t.st.AllowTrailingCommas(t.opts.AllowTrailingCommas)
	return t
}

func (t *translator) top() *frame   { return t.stack[len(t.stack)-1] }
func (t *translator) push(f *frame) { t.stack = append(t.stack, f) }
func (t *translator) pop()          { t.stack = t.stack[:len(t.stack)-1] }

// pump advances the parser until the translator suspends it or the input
// ends. If parsing suspended at the start of a nested member, pump invokes the
// completion callback for that member before returning.
func (t *translator) pump() error {
	if t.err != nil {
		return t.err
	}
	if err := t.st.Pump(t); err != nil && err != io.EOF {
		t.err = err
		return err
	}

	f := t.top()
	if f.state != scopeAwaiting {
		return nil
	}
	parent := f.obj
	f.obj, f.state = nil, scopeIdle
	err := f.done(parent, t, f)
	if err == nil && t.err == nil && t.opts.RequireDrain && f.state != scopeExhausted {
		err = fmt.Errorf("member %q: %w", f.key, ErrNotDrained)
	}

	// Whatever the callback consumed, skip anything left in the member. If the
	// sequence was exhausted, the frame is already gone from the stack.
	f.state = scopeDiscarding
	if err != nil && t.err == nil {
		t.err = err
	}
	return t.err
}

// BeginObject implements part of the Handler interface.
func (t *translator) BeginObject(loc Anchor) error {
	switch f := t.top(); f.state {
	case scopeDiscarding:
		return nil
	case scopeCapturing:
		return f.cap.BeginObject(loc)
	default:
		if t.bind != nil {
			return t.mismatch(loc, t.bkey, "object where a value was expected")
		}
		obj, err := f.node.newObject()
		if err != nil {
			return err
		}
		f.obj = obj
		return nil
	}
}

// EndObject implements part of the Handler interface.
func (t *translator) EndObject(loc Anchor) error {
	switch f := t.top(); f.state {
	case scopeDiscarding:
		return nil
	case scopeCapturing:
		return f.cap.EndObject(loc)
	default:
		f.state = scopeReady
		return ErrSuspend
	}
}

// BeginArray implements part of the Handler interface.
func (t *translator) BeginArray(loc Anchor) error {
	if f := t.top(); f.state == scopeCapturing {
		return f.cap.BeginArray(loc)
	}
	return nil
}

// EndArray implements part of the Handler interface.
func (t *translator) EndArray(loc Anchor) error {
	if f := t.top(); f.state == scopeCapturing {
		return f.cap.EndArray(loc)
	}
	return nil
}

// BeginMember implements part of the Handler interface.
func (t *translator) BeginMember(loc Anchor) error {
	f := t.top()
	switch f.state {
	case scopeDiscarding:
		t.push(&frame{state: scopeDiscarding})
		return nil
	case scopeCapturing:
		f.depth++
		return f.cap.BeginMember(loc)
	}

	kbuf, err := appendUnquote(t.kbuf[:0], loc.Text())
	if err != nil {
		return &SyntaxError{Location: loc.Location().First, Message: "invalid key", err: err}
	}
	t.kbuf = kbuf
	r, ok := f.node.rules[string(kbuf)]
	if !ok {
		t.push(&frame{state: scopeDiscarding, key: string(kbuf)})
		return nil
	}

	key := string(kbuf)
	switch r.kind {
	case valueRule:
		t.bind, t.bkey = r.bind, key
		return nil
	case childRule:
		t.push(&frame{node: r.child, obj: f.obj, state: scopeAwaiting, key: key, done: r.done})
		return ErrSuspend
	case captureRule:
		t.push(&frame{state: scopeCapturing, key: key, cap: r.open(f.obj)})
		return nil
	default:
		panic(fmt.Sprintf("invalid rule kind %d", r.kind))
	}
}

// EndMember implements part of the Handler interface.
func (t *translator) EndMember(loc Anchor) error {
	f := t.top()
	switch f.state {
	case scopeDiscarding:
		t.pop()
		return nil
	case scopeCapturing:
		if f.depth > 0 {
			f.depth--
			return f.cap.EndMember(loc)
		}
		t.pop()
		return f.cap.Done()
	}

	if t.bind != nil {
		t.bind, t.bkey = nil, ""
		return nil
	}

	// This ends a nested member whose sequence is still being consumed.
	f.obj, f.state = nil, scopeExhausted
	t.pop()
	return ErrSuspend
}

// Value implements part of the Handler interface.
func (t *translator) Value(loc Anchor) error {
	f := t.top()
	switch f.state {
	case scopeDiscarding:
		return nil
	case scopeCapturing:
		return f.cap.Value(loc)
	}

	if t.bind == nil {
		if loc.Token() == Null {
			return nil // an absent object
		}
		return t.mismatch(loc, "", fmt.Sprintf("%v where an object was expected", loc.Token()))
	}
	if err := t.bind(f.obj, valueOf(loc)); err != nil {
		return &BindError{
			Location: loc.Location().First,
			Key:      t.bkey,
			Token:    loc.Token(),
			Err:      err,
		}
	}
	return nil
}

// EndOfInput implements part of the Handler interface.
func (t *translator) EndOfInput(loc Anchor) {
	root := t.stack[0]
	root.obj, root.state = nil, scopeExhausted
}

// mismatch constructs a schema mismatch error at loc. If key != "", it is
// appended to the path of member keys leading to the current scope.
func (t *translator) mismatch(loc Anchor, key, msg string) error {
	var path []string
	for _, f := range t.stack[1:] {
		path = append(path, f.key)
	}
	if key != "" {
		path = append(path, key)
	}
	return &MismatchError{Location: loc.Location().First, Path: path, Message: msg}
}
