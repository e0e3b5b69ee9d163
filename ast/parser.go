// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package ast

import (
	"errors"
	"fmt"
	"io"

	"github.com/creachadair/jseq"
)

// Parse parses and returns the JSON values from r. In case of error, any
// complete values already parsed are returned along with the error.
func Parse(r io.Reader) ([]Value, error) {
	h := new(parseHandler)
	st := jseq.NewStream(r)
	var vs []Value
	for {
		if err := st.ParseOne(h); err == io.EOF {
			return vs, nil
		} else if err != nil {
			return vs, err
		}
		v, err := h.result()
		if err != nil {
			return vs, err
		}
		vs = append(vs, v)
	}
}

// ParseSingle parses and returns a single JSON value from r. It reports an
// error if r is empty, or contains anything other than whitespace after the
// first value.
func ParseSingle(r io.Reader) (Value, error) {
	h := new(parseHandler)
	st := jseq.NewStream(r)
	if err := st.ParseOne(h); err == io.EOF {
		return nil, errors.New("no value found")
	} else if err != nil {
		return nil, err
	}
	v, err := h.result()
	if err != nil {
		return nil, err
	}
	if err := st.ParseOne(h); err == nil {
		return nil, errors.New("extra data after value")
	} else if err != io.EOF {
		return nil, err
	}
	return v, nil
}

// Capture adds a capture rule to s for the given key. The value of the
// member, whatever its shape, is parsed into a syntax tree and passed to f
// with the object under construction. If f reports an error, parsing stops.
func Capture[T any](s *jseq.Schema[T], key string, f func(obj *T, v Value) error) *jseq.Schema[T] {
	return s.AddCaptureRule(key, func(obj *T) jseq.Capturer {
		return &capture{done: func(v Value) error { return f(obj, v) }}
	})
}

// A capture is a jseq.Capturer that constructs the syntax tree for one
// member value.
type capture struct {
	parseHandler
	done func(Value) error
}

// Done implements part of the jseq.Capturer interface.
func (c *capture) Done() error {
	v, err := c.result()
	if err != nil {
		return err
	}
	return c.done(v)
}

// A parseHandler implements the jseq.Handler interface to construct abstract
// syntax trees for JSON values.
type parseHandler struct {
	stk  []any // *Object, *Array, or *Member
	out  []Value
	tbuf [][]byte
}

// result returns the single complete value built by h, and resets h.
func (h *parseHandler) result() (Value, error) {
	defer func() { h.stk, h.out = h.stk[:0], h.out[:0] }()
	if len(h.stk) != 0 || len(h.out) != 1 {
		return nil, errIncomplete
	}
	return h.out[0], nil
}

// intern interns a copy of text and returns a slice of the copy.  Allocations
// are batched to reduce allocation overhead.
func (h *parseHandler) intern(text []byte) []byte {
	const bufBlockBytes = 8192

	if len(text) >= bufBlockBytes {
		return append([]byte(nil), text...)
	}

	i := 0
	for i < len(h.tbuf) {
		if len(h.tbuf[i])+len(text) < cap(h.tbuf[i]) {
			break
		}
		i++
	}
	if i == len(h.tbuf) {
		h.tbuf = append(h.tbuf, make([]byte, 0, bufBlockBytes))
	}
	s := len(h.tbuf[i])
	h.tbuf[i] = append(h.tbuf[i], text...)
	return h.tbuf[i][s : s+len(text) : s+len(text)]
}

// reduceValue attaches a complete value to the innermost open container, or
// to the output if none is open.
func (h *parseHandler) reduceValue(v Value) error {
	if len(h.stk) == 0 {
		h.out = append(h.out, v)
		return nil
	}
	switch prev := h.top().(type) {
	case *Member:
		prev.Value = v
	case *Array:
		*prev = append(*prev, v)
	default:
		return fmt.Errorf("unexpected value inside %T", prev)
	}
	return nil
}

func (h *parseHandler) top() any { return h.stk[len(h.stk)-1] }

func (h *parseHandler) pop() any {
	last := h.top()
	h.stk = h.stk[:len(h.stk)-1]
	return last
}

func (h *parseHandler) push(v any) { h.stk = append(h.stk, v) }

func (h *parseHandler) BeginObject(loc jseq.Anchor) error {
	h.push(&Object{})
	return nil
}

func (h *parseHandler) EndObject(loc jseq.Anchor) error {
	return h.reduceValue(*h.pop().(*Object))
}

func (h *parseHandler) BeginArray(loc jseq.Anchor) error {
	h.push(&Array{})
	return nil
}

func (h *parseHandler) EndArray(loc jseq.Anchor) error {
	return h.reduceValue(*h.pop().(*Array))
}

func (h *parseHandler) BeginMember(loc jseq.Anchor) error {
	// The object this member belongs to is atop the stack.  Add a pointer to
	// the new member into its collection eagerly, so that when the member
	// ends we only have to pop it.
	m := &Member{Key: Quoted{data: h.intern(loc.Text())}}
	obj := h.top().(*Object)
	*obj = append(*obj, m)
	h.push(m)
	return nil
}

func (h *parseHandler) EndMember(loc jseq.Anchor) error {
	h.pop()
	return nil
}

func (h *parseHandler) Value(loc jseq.Anchor) error {
	switch loc.Token() {
	case jseq.String:
		return h.reduceValue(Quoted{data: h.intern(loc.Text())})
	case jseq.Integer, jseq.Number:
		return h.reduceValue(Number{text: h.intern(loc.Text())})
	case jseq.True, jseq.False:
		return h.reduceValue(Bool(loc.Token() == jseq.True))
	case jseq.Null:
		return h.reduceValue(Null)
	default:
		return fmt.Errorf("unknown value %v", loc.Token())
	}
}

func (h *parseHandler) EndOfInput(loc jseq.Anchor) {}
