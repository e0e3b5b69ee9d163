// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jseq

import (
	"fmt"

	"go4.org/mem"
)

// A Value is a single primitive JSON value (a string, number, Boolean, or
// null) delivered to a Binder.
//
// The contents of a Value are only valid for the duration of the Binder call
// that receives it. The decoding methods return fresh copies; use Copy to
// retain the raw text.
type Value struct {
	tok  Token
	text []byte
}

// NewValue constructs a Value of the given token type from its raw JSON text.
// String values must include their quotation marks.
func NewValue(tok Token, text []byte) Value { return Value{tok: tok, text: text} }

func valueOf(loc Anchor) Value { return Value{tok: loc.Token(), text: loc.Text()} }

// Token reports the token type of v.
func (v Value) Token() Token { return v.tok }

// Text returns a view of the raw (undecoded) text of v.
func (v Value) Text() []byte { return v.text }

// Copy returns a copy of the raw text of v.
func (v Value) Copy() []byte { return append([]byte(nil), v.text...) }

// String returns the raw text of v.
func (v Value) String() string { return string(v.text) }

// IsNull reports whether v is the constant null.
func (v Value) IsNull() bool { return v.tok == Null }

// Unquote decodes v as a string. It reports an error if v is not a string.
func (v Value) Unquote() (string, error) {
	if v.tok != String {
		return "", v.kindError("string")
	}
	dec, err := Unquote(v.text)
	if err != nil {
		return "", err
	}
	return string(dec), nil
}

// Bool decodes v as a Boolean. It reports an error if v is not true or false.
func (v Value) Bool() (bool, error) {
	switch v.tok {
	case True:
		return true, nil
	case False:
		return false, nil
	}
	return false, v.kindError("bool")
}

// Int decodes v as a signed integer that fits in the given number of bits.
// It reports an error if v is not an integer literal, or is out of range.
// Numbers with a fraction or exponent are not accepted, even if integral.
func (v Value) Int(bitSize int) (int64, error) {
	if v.tok != Integer {
		return 0, v.kindError(fmt.Sprintf("int%d", bitSize))
	}
	return mem.ParseInt(mem.B(v.text), 10, bitSize)
}

// Uint decodes v as an unsigned integer that fits in the given number of
// bits. It reports an error if v is not a non-negative integer literal, or is
// out of range.
func (v Value) Uint(bitSize int) (uint64, error) {
	if v.tok != Integer {
		return 0, v.kindError(fmt.Sprintf("uint%d", bitSize))
	}
	return mem.ParseUint(mem.B(v.text), 10, bitSize)
}

// Float decodes v as a floating-point value of the given bit size. Both
// integer and non-integer numeric literals are accepted.
func (v Value) Float(bitSize int) (float64, error) {
	if v.tok != Integer && v.tok != Number {
		return 0, v.kindError(fmt.Sprintf("float%d", bitSize))
	}
	return mem.ParseFloat(mem.B(v.text), bitSize)
}

// Interface decodes v as a plain Go value: a string, an int64 (for integers
// that fit), a float64, a bool, or nil.
func (v Value) Interface() (any, error) {
	switch v.tok {
	case String:
		return v.Unquote()
	case Integer:
		if z, err := v.Int(64); err == nil {
			return z, nil
		}
		return v.Float(64)
	case Number:
		return v.Float(64)
	case True, False:
		return v.tok == True, nil
	case Null:
		return nil, nil
	}
	return nil, v.kindError("value")
}

func (v Value) kindError(want string) error {
	return fmt.Errorf("cannot use %v as %s", v.tok, want)
}
