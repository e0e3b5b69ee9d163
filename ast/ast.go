// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package ast defines an abstract syntax tree for JSON values, and a parser
// that constructs syntax trees from JSON source.
//
// Syntax trees can also be captured from the member values of objects being
// streamed by a jseq.Schema, using Capture.
package ast

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/creachadair/jseq"
	"go4.org/mem"
)

// A Value is an arbitrary JSON value.
type Value interface {
	// JSON returns the compact JSON encoding of the value.
	JSON() string
}

// An Object is a collection of key-value members.
type Object []*Member

// Find returns the first member of o with the given key, or nil.
func (o Object) Find(key string) *Member {
	for _, m := range o {
		if m.Key.Unquote() == key {
			return m
		}
	}
	return nil
}

// Len returns the number of members in o.
func (o Object) Len() int { return len(o) }

// JSON satisfies the Value interface.
func (o Object) JSON() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(m.JSON())
	}
	sb.WriteByte('}')
	return sb.String()
}

// A Member is a single key-value pair belonging to an Object.
type Member struct {
	Key   Quoted
	Value Value
}

// Field constructs an object member with the given key and value.
func Field(key string, val Value) *Member { return &Member{Key: String(key), Value: val} }

// JSON satisfies the Value interface.
func (m *Member) JSON() string {
	val := "null"
	if m.Value != nil {
		val = m.Value.JSON()
	}
	return m.Key.JSON() + ":" + val
}

// An Array is a sequence of values.
type Array []Value

// Len returns the number of elements in a.
func (a Array) Len() int { return len(a) }

// JSON satisfies the Value interface.
func (a Array) JSON() string {
	ss := make([]string, len(a))
	for i, v := range a {
		ss[i] = v.JSON()
	}
	return "[" + strings.Join(ss, ",") + "]"
}

// A Quoted is a string value, retained in its quoted form.
type Quoted struct{ data []byte }

// String constructs a string value from its plain text.
func String(s string) Quoted { return Quoted{data: []byte(jseq.Quote(s))} }

// Unquote returns the plain text of q. It panics if q is not a valid
// JSON string.
func (q Quoted) Unquote() string {
	dec, err := jseq.Unquote(q.data)
	if err != nil {
		panic(err)
	}
	return string(dec)
}

// Len returns the length in bytes of the plain text of q.
func (q Quoted) Len() int { return len(q.Unquote()) }

// JSON satisfies the Value interface.
func (q Quoted) JSON() string { return string(q.data) }

// A Number is a numeric value, retained in its original text.
type Number struct{ text []byte }

// Int constructs an integer value.
func Int(z int64) Number { return Number{text: strconv.AppendInt(nil, z, 10)} }

// Float constructs a floating-point value.
func Float(x float64) Number { return Number{text: strconv.AppendFloat(nil, x, 'g', -1, 64)} }

// IsInt reports whether n is written as an integer, without a fraction or
// exponent.
func (n Number) IsInt() bool { return !slices.ContainsFunc(n.text, isFloatRune) }

// Int returns the value of n as an int64, or 0 if n is not an integer in
// range.
func (n Number) Int() int64 {
	z, err := mem.ParseInt(mem.B(n.text), 10, 64)
	if err != nil {
		return 0
	}
	return z
}

// Float returns the value of n as a float64.
func (n Number) Float() float64 {
	x, err := mem.ParseFloat(mem.B(n.text), 64)
	if err != nil {
		return 0
	}
	return x
}

// JSON satisfies the Value interface.
func (n Number) JSON() string { return string(n.text) }

func isFloatRune(b byte) bool { return b == '.' || b == 'e' || b == 'E' }

// A Bool is a Boolean constant, true or false.
type Bool bool

// JSON satisfies the Value interface.
func (b Bool) JSON() string { return strconv.FormatBool(bool(b)) }

type nullValue struct{}

// Null represents the null constant.
var Null nullValue

// JSON satisfies the Value interface.
func (nullValue) JSON() string { return "null" }

// ToValue converts a plain Go value into an equivalent Value. It accepts
// nil, bool, string, integer and floating-point types, []any, map[string]any,
// and Value. Object members converted from a map are ordered by key. ToValue
// panics for values of any other type.
func ToValue(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint32:
		return Int(int64(t))
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case []any:
		arr := make(Array, len(t))
		for i, elt := range t {
			arr[i] = ToValue(elt)
		}
		return arr
	case map[string]any:
		keys := make([]string, 0, len(t))
		for key := range t {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		obj := make(Object, len(keys))
		for i, key := range keys {
			obj[i] = Field(key, ToValue(t[key]))
		}
		return obj
	default:
		panic(fmt.Sprintf("unsupported value type %T", v))
	}
}

// Path traverses a sequence of steps starting from v, and returns the value
// at the end. Each step is one of:
//
//   - a string, selecting the value of the first member of an object with
//     that key;
//   - an int, selecting an element of an array by offset, where negative
//     offsets count backward from the end;
//   - a func(Value) (Value, error), which computes the next value.
//
// If any step fails, Path returns v along with an error.
func Path(v Value, path ...any) (Value, error) {
	cur := v
	for i, step := range path {
		switch t := step.(type) {
		case string:
			obj, ok := cur.(Object)
			if !ok {
				return v, fmt.Errorf("step %d: key %q: got %T, want object", i+1, t, cur)
			}
			m := obj.Find(t)
			if m == nil {
				return v, fmt.Errorf("step %d: key %q not found", i+1, t)
			}
			cur = m.Value
		case int:
			arr, ok := cur.(Array)
			if !ok {
				return v, fmt.Errorf("step %d: index %d: got %T, want array", i+1, t, cur)
			}
			pos := t
			if pos < 0 {
				pos += len(arr)
			}
			if pos < 0 || pos >= len(arr) {
				return v, fmt.Errorf("step %d: index %d out of range (0..%d)", i+1, t, len(arr))
			}
			cur = arr[pos]
		case func(Value) (Value, error):
			next, err := t(cur)
			if err != nil {
				return v, fmt.Errorf("step %d: %w", i+1, err)
			}
			cur = next
		default:
			return v, fmt.Errorf("step %d: invalid path element %T", i+1, step)
		}
	}
	return cur, nil
}

var errIncomplete = errors.New("incomplete value")
