// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jseq

import (
	"encoding"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// A Binder stores a primitive value v into obj. If the value is not
// acceptable, the Binder reports an error, which terminates the parse.
type Binder[T any] func(obj *T, v Value) error

// BindString returns a Binder that decodes string values and passes them to
// f. Other values are rejected.
func BindString[T any](f func(obj *T, s string)) Binder[T] {
	return func(obj *T, v Value) error {
		s, err := v.Unquote()
		if err != nil {
			return err
		}
		f(obj, s)
		return nil
	}
}

// BindInt returns a Binder that decodes integer values in the range of int64
// and passes them to f. Other values are rejected.
func BindInt[T any](f func(obj *T, z int64)) Binder[T] {
	return func(obj *T, v Value) error {
		z, err := v.Int(64)
		if err != nil {
			return err
		}
		f(obj, z)
		return nil
	}
}

// BindFloat returns a Binder that decodes numeric values as float64 and
// passes them to f. Other values are rejected.
func BindFloat[T any](f func(obj *T, x float64)) Binder[T] {
	return func(obj *T, v Value) error {
		x, err := v.Float(64)
		if err != nil {
			return err
		}
		f(obj, x)
		return nil
	}
}

// BindBool returns a Binder that decodes Boolean values and passes them to f.
// Other values are rejected.
func BindBool[T any](f func(obj *T, b bool)) Binder[T] {
	return func(obj *T, v Value) error {
		b, err := v.Bool()
		if err != nil {
			return err
		}
		f(obj, b)
		return nil
	}
}

// A setter stores v into dst, which is addressable.
type setter func(dst reflect.Value, v Value) error

// An implicitField is a field of a struct type eligible for implicit binding.
type implicitField struct {
	keys []string
	bind func(obj any, v Value) error
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// implicitFields returns the implicitly-bindable fields of the struct type t,
// or nil if t is not a struct. If several fields claim the same key, a field
// that names the key in its struct tag wins over one that does not.
func implicitFields(t reflect.Type) []implicitField {
	if t.Kind() != reflect.Struct {
		return nil
	}
	var tagged, untagged []implicitField
	claimed := make(map[string]bool)
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous || !reachable(t, f.Index) {
			continue
		}
		set := setterFor(f.Type)
		if set == nil {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		idx := f.Index
		bind := func(obj any, v Value) error {
			return set(reflect.ValueOf(obj).Elem().FieldByIndex(idx), v)
		}
		if name != "" {
			claimed[name] = true
			tagged = append(tagged, implicitField{keys: []string{name}, bind: bind})
		} else {
			untagged = append(untagged, implicitField{keys: fieldKeys(f.Name), bind: bind})
		}
	}
	out := tagged
	for _, f := range untagged {
		var keys []string
		for _, key := range f.keys {
			if !claimed[key] {
				keys = append(keys, key)
			}
		}
		if len(keys) != 0 {
			out = append(out, implicitField{keys: keys, bind: f.bind})
		}
	}
	return out
}

// fieldKeys returns the keys matched by an untagged field with the given name.
func fieldKeys(name string) []string {
	r, n := utf8.DecodeRuneInString(name)
	lower := string(unicode.ToLower(r)) + name[n:]
	if lower == name {
		return []string{name}
	}
	return []string{name, lower}
}

// reachable reports whether the field of t at the given index path can be
// reached without traversing an embedded pointer.
func reachable(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Pointer {
			return false
		}
		t = f.Type
	}
	return true
}

// setterFor returns a setter for values of type t, or nil if t does not
// support implicit binding. Integer fields accept only integer literals in
// range for the field; floating-point fields accept any number. A null
// value stores the zero value of t.
func setterFor(t reflect.Type) setter {
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return func(dst reflect.Value, v Value) error {
			if v.IsNull() {
				dst.SetZero()
				return nil
			}
			s, err := v.Unquote()
			if err != nil {
				return err
			}
			return dst.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
		}
	}

	switch t.Kind() {
	case reflect.String:
		return nullable(func(dst reflect.Value, v Value) error {
			s, err := v.Unquote()
			if err == nil {
				dst.SetString(s)
			}
			return err
		})

	case reflect.Bool:
		return nullable(func(dst reflect.Value, v Value) error {
			b, err := v.Bool()
			if err == nil {
				dst.SetBool(b)
			}
			return err
		})

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := t.Bits()
		return nullable(func(dst reflect.Value, v Value) error {
			z, err := v.Int(bits)
			if err == nil {
				dst.SetInt(z)
			}
			return err
		})

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		bits := t.Bits()
		return nullable(func(dst reflect.Value, v Value) error {
			u, err := v.Uint(bits)
			if err == nil {
				dst.SetUint(u)
			}
			return err
		})

	case reflect.Float32, reflect.Float64:
		bits := t.Bits()
		return nullable(func(dst reflect.Value, v Value) error {
			x, err := v.Float(bits)
			if err == nil {
				dst.SetFloat(x)
			}
			return err
		})

	case reflect.Interface:
		if t.NumMethod() != 0 {
			return nil
		}
		return nullable(func(dst reflect.Value, v Value) error {
			x, err := v.Interface()
			if err == nil {
				dst.Set(reflect.ValueOf(x))
			}
			return err
		})

	case reflect.Pointer:
		elem := setterFor(t.Elem())
		if elem == nil {
			return nil
		}
		return nullable(func(dst reflect.Value, v Value) error {
			if dst.IsNil() {
				dst.Set(reflect.New(t.Elem()))
			}
			return elem(dst.Elem(), v)
		})

	case reflect.Slice:
		elem := setterFor(t.Elem())
		if elem == nil {
			return nil
		}
		// Each primitive appends one element, so that the elements of an
		// array value accumulate. Null elements are skipped.
		return func(dst reflect.Value, v Value) error {
			if v.IsNull() {
				return nil
			}
			next := reflect.New(t.Elem()).Elem()
			if err := elem(next, v); err != nil {
				return err
			}
			dst.Set(reflect.Append(dst, next))
			return nil
		}
	}
	return nil
}

// nullable wraps set so that a null value stores the zero value.
func nullable(set setter) setter {
	return func(dst reflect.Value, v Value) error {
		if v.IsNull() {
			dst.SetZero()
			return nil
		}
		return set(dst, v)
	}
}
