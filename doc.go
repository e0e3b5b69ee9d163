// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jseq implements a JSON scanner and a resumable stream parser, and
// uses them to turn JSON input into lazy sequences of typed objects.
//
// # Scanning
//
// The Scanner type implements a lexical scanner for JSON.  Construct a scanner
// from an io.Reader and call its Next method to iterate over the stream. Next
// advances to the next input token and reports whether one is available:
//
//	s := jseq.NewScanner(input)
//	for s.Next() {
//	   log.Printf("Next token: %v", s.Token())
//	}
//	if err := s.Err(); err != nil {
//	   log.Fatalf("Scanning failed: %v", err)
//	}
//
// # Streaming
//
// The Stream type implements an event-driven stream parser for JSON.  The
// parser works by calling methods on a Handler value to report the structure
// of the input. In case of a syntax error, parsing is terminated and an error
// of concrete type *jseq.SyntaxError is returned.
//
// Construct a Stream from an io.Reader, and call its Parse method. Parse
// returns nil if the input was fully processed without error. If a Handler
// method reports an error, parsing stops and that error is returned.
//
//	s := jseq.NewStream(input)
//	if err := s.Parse(handler); err != nil {
//	   log.Fatalf("Parse failed: %v", err)
//	}
//
// To parse a single value from the front of the input, call ParseOne. This
// method returns io.EOF if no further values are available.
//
// A handler may pause the parser by returning ErrSuspend from any method
// except EndOfInput. Pump delivers events until the handler suspends, and a
// later call to Pump resumes where it stopped:
//
//	for {
//	   err := s.Pump(handler)
//	   if err == io.EOF {
//	      break // input exhausted
//	   } else if err != nil {
//	      log.Fatalf("Pump failed: %v", err)
//	   }
//	   // ... the handler suspended; do other work ...
//	}
//
// # Handlers
//
// The Handler interface accepts parser events from a Stream. The methods of
// a handler correspond to the syntax of JSON values:
//
//	JSON type  | Methods                   | Description
//	---------- | ------------------------- | ---------------------------------
//	object     | BeginObject, EndObject    | { ... }
//	array      | BeginArray, EndArray      | [ ... ]
//	member     | BeginMember, EndMember    | "key": value
//	value      | Value                     | true, false, null, number, string
//	--         | EndOfInput                | end of input
//
// Each method is passed an Anchor value that can be used to retrieve location
// and type information. The Anchor passed to a handler method is only valid
// for the duration of that method call; the handler must copy any data it
// needs to retain beyond the lifetime of the call.
//
// # Schemas and Sequences
//
// A Schema describes how JSON objects map to values of a Go type. Each member
// key is governed by a rule:
//
//   - A value rule (AddValueRule) binds a primitive member value into the
//     object under construction.
//   - A child rule (AddChildRule) delivers the objects inside a member value
//     as a nested sequence, to a callback that runs while the member is
//     being parsed.
//   - A capture rule (AddCaptureRule) forwards the raw events of a member
//     value to a Capturer. See also package ast.
//
// Exported struct fields not covered by an explicit rule are bound
// implicitly, unless DisallowImplicitBinding is set. Members with no rule
// are skipped.
//
// After a schema is compiled, Stream returns a Seq that yields one object for
// each object at the top level of the input, including the elements of
// top-level arrays:
//
//	s := jseq.NewSchema[Order]()
//	jseq.AddChildRule(s, "items", jseq.NewSchema[Item](),
//	   func(o *Order, items *jseq.Seq[*Item]) error {
//	      for it := range items.All() {
//	         o.Total += it.Price
//	      }
//	      return items.Err()
//	   })
//	if err := s.Compile(); err != nil {
//	   log.Fatalf("Compile: %v", err)
//	}
//	orders := s.Stream(input)
//	for o := range orders.All() {
//	   log.Printf("Order %s: %v", o.ID, o.Total)
//	}
//	if err := orders.Err(); err != nil {
//	   log.Fatalf("Stream: %v", err)
//	}
//
// The parser never reads ahead of the sequence consuming its objects, so
// memory use is bounded by the size of one object and the nesting depth.
//
// # Errors
//
// The first error stops the parse, and is reported by every enclosing
// sequence. Errors have the following concrete types:
//
//	*SyntaxError        malformed JSON input
//	*ReadError          the underlying reader failed
//	*MismatchError      the input shape disagrees with a rule
//	*BindError          a value binder rejected a primitive
//	*ConstructionError  a target type cannot be instantiated
//
// Errors returned by completion callbacks and capturers are reported as-is.
package jseq
