// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jseq

import (
	"fmt"
	"io"
	"maps"
	"reflect"
	"slices"

	"github.com/creachadair/mds/mapset"
)

// A Schema describes how the JSON representation of objects of type T maps to
// values of T. Each member key of an object is governed by a rule that either
// binds a primitive value into the object under construction (a value rule),
// or delivers the contents of the member as a nested sequence of objects of
// another type (a child rule).
//
// A Schema must be compiled before it is used to parse. Once compiled it is
// read-only, holds no parse state, and may be shared by concurrent streams.
type Schema[T any] struct{ n *node }

// ruleKind distinguishes the variants of a rule.
type ruleKind byte

const (
	valueRule   ruleKind = iota + 1 // bind a primitive into the current object
	childRule                       // deliver a nested sequence to a callback
	captureRule                     // forward the raw member value to a Capturer
)

// A rule governs the value of one object member.
type rule struct {
	kind ruleKind

	bind  func(obj any, v Value) error                    // valueRule
	child *node                                           // childRule
	done  func(parent any, t *translator, f *frame) error // childRule
	open  func(obj any) Capturer                          // captureRule
}

type nodeState byte

const (
	nodeBuilding nodeState = iota
	nodeCompiling
	nodeCompiled
)

// A node is the type-erased representation of a Schema.
type node struct {
	typ      reflect.Type // the target type T
	newObj   func() any   // returns a fresh *T
	rules    map[string]rule
	implicit bool

	state nodeState
	cerr  error // construction or compilation error
}

// NewSchema constructs an empty schema for objects of type T. Objects are
// allocated with new(T). Implicit binding is enabled by default.
func NewSchema[T any]() *Schema[T] { return NewSchemaFunc(func() *T { return new(T) }) }

// NewSchemaFunc constructs an empty schema for objects of type T that uses
// newObj to allocate each object. Implicit binding is enabled by default.
//
// If T cannot be instantiated, for example because it is an interface type or
// newObj is nil, the resulting schema reports a [*ConstructionError] when it
// is compiled.
func NewSchemaFunc[T any](newObj func() *T) *Schema[T] {
	typ := reflect.TypeFor[T]()
	n := &node{typ: typ, rules: make(map[string]rule), implicit: true}
	switch {
	case newObj == nil:
		n.cerr = &ConstructionError{Type: typ, Message: "no constructor provided"}
	case typ.Kind() == reflect.Interface:
		n.cerr = &ConstructionError{Type: typ, Message: "interface types have no usable zero value"}
	default:
		n.newObj = func() any { return newObj() }
	}
	return &Schema[T]{n: n}
}

// AddValueRule declares that the value of the member named key is a
// primitive to be stored into the current object by b. If a rule for key was
// already declared, b replaces it.
func (s *Schema[T]) AddValueRule(key string, b Binder[T]) *Schema[T] {
	s.n.checkMutable()
	s.n.rules[key] = rule{
		kind: valueRule,
		bind: func(obj any, v Value) error { return b(obj.(*T), v) },
	}
	return s
}

// AddCaptureRule declares that the complete value of the member named key,
// whatever its shape, is delivered as a stream of events to the Capturer
// returned by open for the current object. If a rule for key was already
// declared, this replaces it.
func (s *Schema[T]) AddCaptureRule(key string, open func(obj *T) Capturer) *Schema[T] {
	s.n.checkMutable()
	s.n.rules[key] = rule{
		kind: captureRule,
		open: func(obj any) Capturer { return open(obj.(*T)) },
	}
	return s
}

// DisallowImplicitBinding disables the synthesis of value rules for fields of
// T that are not covered by an explicit rule.
func (s *Schema[T]) DisallowImplicitBinding() *Schema[T] {
	s.n.checkMutable()
	s.n.implicit = false
	return s
}

// AddChildRule declares that the member of parent named key contains one or
// more objects described by child. The value of the member may be a single
// object, or an array (possibly nested) of objects.
//
// When the member begins during a parse, done is called synchronously with
// the object under construction and a sequence of the nested objects. The
// sequence shares the parser with its parent, and is only valid until done
// returns. Any nested objects not consumed by done are skipped, unless the
// stream was created with Options.RequireDrain. If done reports an error,
// parsing stops and the error is reported by the enclosing sequence.
//
// If a rule for key was already declared, this replaces it.
func AddChildRule[T, U any](parent *Schema[T], key string, child *Schema[U], done func(parent *T, seq *Seq[*U]) error) *Schema[T] {
	parent.n.checkMutable()
	parent.n.rules[key] = rule{
		kind:  childRule,
		child: child.n,
		done: func(obj any, t *translator, f *frame) error {
			p, _ := obj.(*T)
			return done(p, &Seq[*U]{t: t, f: f})
		},
	}
	return parent
}

// Compile finalizes s and the schemas of all its child rules. For each
// schema that allows implicit binding, Compile synthesizes a value rule for
// every exported field of the target struct type that is not already covered
// by an explicit rule.
//
// A field is matched by the name given in its "json" struct tag, if it has
// one. Otherwise it is matched by its Go name, and by the same name with its
// first letter in lower case. A field tagged "-" is never bound implicitly.
//
// Compile must be called before s is used to parse. After it returns, s may
// not be modified. Compiling an already-compiled schema has no effect.
func (s *Schema[T]) Compile() error { return s.n.compile() }

// Stream returns a sequence of the objects described by s in the JSON text
// read from r. The caller remains responsible for closing r, if necessary.
func (s *Schema[T]) Stream(r io.Reader) *Seq[*T] { return s.StreamOptions(r, nil) }

// StreamOptions is as Stream, but uses the given options. A nil opts is
// equivalent to a zero Options.
func (s *Schema[T]) StreamOptions(r io.Reader, opts *Options) *Seq[*T] {
	t := newTranslator(s.n, r, opts)
	seq := &Seq[*T]{t: t, f: t.stack[0]}
	if s.n.state != nodeCompiled {
		seq.err = ErrNotCompiled
	} else if s.n.cerr != nil {
		seq.err = s.n.cerr
	}
	return seq
}

func (n *node) checkMutable() {
	if n.state != nodeBuilding {
		panic(fmt.Sprintf("schema for %v modified after compilation", n.typ))
	}
}

func (n *node) compile() error {
	if n.state != nodeBuilding {
		// Already compiled, or a recursive reference to a schema in progress.
		return n.cerr
	}
	n.state = nodeCompiling
	defer func() { n.state = nodeCompiled }()
	if n.cerr != nil {
		return n.cerr
	}

	keys := slices.Sorted(maps.Keys(n.rules))
	for _, key := range keys {
		r := n.rules[key]
		if r.kind != childRule {
			continue
		}
		if err := r.child.compile(); err != nil {
			n.cerr = fmt.Errorf("rule %q: %w", key, err)
			return n.cerr
		}
	}
	if !n.implicit {
		return nil
	}

	covered := mapset.New(keys...)
	for _, f := range implicitFields(n.typ) {
		if slices.ContainsFunc(f.keys, covered.Has) {
			continue
		}
		for _, key := range f.keys {
			n.rules[key] = rule{kind: valueRule, bind: f.bind}
		}
	}
	return nil
}

// newObject allocates a fresh target object.
func (n *node) newObject() (any, error) {
	obj := n.newObj()
	if reflect.ValueOf(obj).IsNil() {
		return nil, &ConstructionError{Type: n.typ, Message: "constructor returned nil"}
	}
	return obj, nil
}

// Options are optional settings for a stream. A nil *Options is ready for
// use and provides default values as described.
type Options struct {
	// Accept comments in the input, as in JWCC (default false).
	AllowComments bool

	// Accept trailing commas in objects and arrays, as in JWCC (default
	// false).
	AllowTrailingCommas bool

	// If true, report ErrNotDrained when a completion callback returns before
	// its nested sequence has reported the end of its input. By default any
	// nested objects the callback did not consume are skipped.
	RequireDrain bool
}
