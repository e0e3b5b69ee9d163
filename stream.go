// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jseq

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// ErrSuspend is a sentinel error that a Handler method may return to pause
// the parser. The event that returned ErrSuspend is considered delivered, and
// no further events are produced until the stream is resumed.
var ErrSuspend = errors.New("suspend parsing")

// An Anchor represents a location in source text. The methods of an Anchor
// will report the location, token type, and contents of the anchor.
type Anchor interface {
	Token() Token       // Returns the token type of the anchor
	Text() []byte       // Returns a view of the raw (undecoded) text of the anchor
	Copy() []byte       // Returns a copy of the raw text of the anchor
	Location() Location // Returns the full location of the anchor
}

// A Handler handles events from parsing an input stream.  If a method reports
// an error other than ErrSuspend, parsing stops and that error is returned to
// the caller. The parser ensures objects and arrays are correctly balanced.
//
// The Anchor argument to a Handler method is only valid for the duration of
// that method call. If the method needs to retain information about the
// location after it returns, it must copy the relevant data.
type Handler interface {
	// Begin a new object, whose open brace is at loc.
	BeginObject(loc Anchor) error

	// End the most-recently-opened object, whose close brace is at loc.
	EndObject(loc Anchor) error

	// Begin a new array, whose open bracket is at loc.
	BeginArray(loc Anchor) error

	// End the most-recently-opened array, whose close bracket is at loc.
	EndArray(loc Anchor) error

	// Begin a new object member, whose key is at loc.  The text of the key is
	// still quoted; the handler is responsible for unescaping key values if the
	// plain string is required (see jseq.Unquote).
	BeginMember(loc Anchor) error

	// End the current object member giving the location and type of the token
	// that terminated the member (either Comma or RBrace).
	EndMember(loc Anchor) error

	// Report a data value at the given location. The type of the value can be
	// recovered from the token. String tokens are quoted.
	Value(loc Anchor) error

	// EndOfInput reports the end of the input stream.
	EndOfInput(loc Anchor)
}

// CommentHandler is an optional interface that a Handler may implement to
// handle comment tokens. If a handler implements this method and comments are
// enabled in the scanner, Comment will be called for each comment token that
// occurs in the input. If the handler does not provide this method, comments
// will be silently discarded.
type CommentHandler interface {
	// Process the line or block comment at the specified location.
	// Line comments include their leading "//" and trailing newline (if present).
	// Block comments include their leading "/*" and trailing "*/".
	Comment(loc Anchor)
}

// pstate records what the parser expects next inside one open value.
type pstate byte

const (
	stValue    pstate = iota // any value
	stObjFirst               // after "{": a key or "}"
	stObjColon               // after a key: ":"
	stObjNext                // after a member value: "," or "}"
	stObjKey                 // after ",": a key, or "}" with trailing commas
	stObjEnd                 // "}" consumed, EndObject not yet delivered
	stArrFirst               // after "[": a value or "]"
	stArrNext                // after an element: "," or "]"
	stArrElem                // after ",": a value, or "]" with trailing commas
)

// Stream is a stream parser that consumes input and delivers events to a
// Handler corresponding with the structure of the input.
//
// Unlike a recursive-descent parser, a Stream keeps its position in the
// grammar on an explicit stack, so that parsing can be suspended after any
// event (see ErrSuspend) and resumed later by calling Pump again.
type Stream struct {
	s      *Scanner
	tcomma bool // allow trailing commas in objects and arrays

	stk  []pstate
	held bool  // the current token was read but not yet consumed
	eof  bool  // EndOfInput has been delivered
	err  error // sticky parse or handler error
}

// NewStream constructs a new Stream that consumes input from r.
func NewStream(r io.Reader) *Stream { return &Stream{s: NewScanner(r)} }

// NewStreamWithScanner constructs a new Stream that consumes input from s.
func NewStreamWithScanner(s *Scanner) *Stream { return &Stream{s: s} }

// AllowComments configures the scanner associated with s to report (true) or
// reject (false) comment tokens.
func (s *Stream) AllowComments(ok bool) { s.s.AllowComments(ok) }

// AllowTrailingCommas configures the parser to allow (true) or reject (false)
// trailing commas in objects and arrays.
func (s *Stream) AllowTrailingCommas(ok bool) { s.tcomma = ok }

func (s *Stream) recoverParseError(errp *error) {
	if serr := recover(); serr != nil {
		switch err := serr.(type) {
		case *SyntaxError:
			*errp = err
		case *ReadError:
			*errp = err
		default:
			panic(serr)
		}
	}
}

// keepError records a terminal error so that later calls report it again.
func (s *Stream) keepError(errp *error) {
	if *errp != nil && *errp != io.EOF {
		s.err = *errp
	}
}

// Pump delivers events to h until a handler method returns ErrSuspend, an
// error occurs, or the input is exhausted.
//
// Pump returns nil if h suspended parsing. A subsequent call to Pump resumes
// with the event following the one that suspended. When the input is
// exhausted, Pump calls h.EndOfInput and returns io.EOF, as do all later
// calls. Any other error is terminal, and is reported again by later calls.
// In case of a syntax error, the returned error has type [*SyntaxError]; if
// the underlying reader fails, it has type [*ReadError].
func (s *Stream) Pump(h Handler) (err error) {
	if s.err != nil {
		return s.err
	} else if s.eof {
		return io.EOF
	}
	defer s.keepError(&err)
	defer s.recoverParseError(&err)

	for {
		if err := s.step(h); err == ErrSuspend {
			return nil
		} else if err != nil {
			return err
		}
	}
}

// Parse parses the input stream and delivers events to h until either an error
// occurs or the input is exhausted. Suspension requests from h are ignored.
// In case of a syntax error, the returned error has type [*SyntaxError].
func (s *Stream) Parse(h Handler) error {
	for {
		if err := s.Pump(h); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
	}
}

// ParseOne parses a single value from the input stream and delivers events to
// h until the value is complete or an error occurs. If no further value is
// available from the input, ParseOne returns io.EOF. Suspension requests from
// h are ignored. In case of a syntax error, the returned error has type
// [*SyntaxError].
func (s *Stream) ParseOne(h Handler) (err error) {
	if s.err != nil {
		return s.err
	} else if s.eof {
		return io.EOF
	}
	defer s.keepError(&err)
	defer s.recoverParseError(&err)

	for first := true; first || len(s.stk) != 0; first = false {
		if err := s.step(h); err != nil && err != ErrSuspend {
			return err
		}
	}
	return nil
}

// step consumes at most one token and delivers at most one event to h,
// reporting the result of the handler method (if any).
func (s *Stream) step(h Handler) error {
	if len(s.stk) == 0 {
		// Between top-level values.
		if err := s.nextToken(h); err == io.EOF {
			s.eof = true
			h.EndOfInput(s.s)
			return io.EOF
		} else if err != nil {
			s.syntaxError(err, "%v", err)
		}
		s.push(stValue)
		s.held = true
		return nil
	}

	switch s.top() {
	case stValue:
		return s.parseValue(h, s.advance(h))

	case stObjFirst:
		if s.advance(h, RBrace, String) == RBrace {
			s.pop()
			return h.EndObject(s.s)
		}
		s.setTop(stObjColon)
		return h.BeginMember(s.s)

	case stObjColon:
		s.advance(h, Colon)
		s.setTop(stObjNext)
		s.push(stValue)
		return nil

	case stObjNext:
		// Check whether we have more members (",") or are done ("}").
		if s.advance(h, RBrace, Comma) == RBrace {
			s.setTop(stObjEnd)
		} else {
			s.setTop(stObjKey)
		}
		return h.EndMember(s.s)

	case stObjKey:
		// If trailing commas are allowed and the next token is a close
		// bracket, consider this a valid end of the object. Otherwise, it
		// must be a key for a subsequent element.
		want := []Token{String}
		if s.tcomma {
			want = append(want, RBrace)
		}
		if s.advance(h, want...) == RBrace {
			s.pop()
			return h.EndObject(s.s)
		}
		s.setTop(stObjColon)
		return h.BeginMember(s.s)

	case stObjEnd:
		s.pop()
		return h.EndObject(s.s)

	case stArrFirst:
		if s.advance(h) == RSquare {
			s.pop()
			return h.EndArray(s.s)
		}
		s.beginElement()
		return nil

	case stArrNext:
		if s.advance(h, RSquare, Comma) == RSquare {
			s.pop()
			return h.EndArray(s.s)
		}
		s.setTop(stArrElem)
		return nil

	case stArrElem:
		// If trailing commas are allowed and the next token is a close bracket,
		// consider this a valid end of the array; otherwise it will fail as the
		// next element.
		if tok := s.advance(h); s.tcomma && tok == RSquare {
			s.pop()
			return h.EndArray(s.s)
		}
		s.beginElement()
		return nil

	default:
		panic(fmt.Sprintf("invalid parser state %d", s.top()))
	}
}

// parseValue begins a value of any type at the current token, tok.
// Precondition: top == stValue.
func (s *Stream) parseValue(h Handler, tok Token) error {
	switch tok {
	case LBrace:
		s.setTop(stObjFirst)
		return h.BeginObject(s.s)
	case LSquare:
		s.setTop(stArrFirst)
		return h.BeginArray(s.s)
	case Integer, Number, String, True, False, Null:
		s.pop()
		return h.Value(s.s)
	case RBrace, RSquare, Comma, Colon:
		s.syntaxError(nil, "unexpected %v", tok)
	default:
		s.syntaxError(nil, "unknown token %v", tok)
	}
	return nil
}

// beginElement arranges for the current token to be parsed as the next
// element of an array.
func (s *Stream) beginElement() {
	s.setTop(stArrNext)
	s.push(stValue)
	s.held = true
}

func (s *Stream) top() pstate      { return s.stk[len(s.stk)-1] }
func (s *Stream) setTop(st pstate) { s.stk[len(s.stk)-1] = st }
func (s *Stream) push(st pstate)   { s.stk = append(s.stk, st) }
func (s *Stream) pop()             { s.stk = s.stk[:len(s.stk)-1] }

func (s *Stream) nextToken(h Handler) error {
	if s.held {
		s.held = false
		return nil
	}
	for s.s.Next() {
		// If we see a comment token, pass it to the handler if it implements
		// CommentHandler. Either way, discard the comment and fetch the next
		// available comment for the rest of the parser.
		if tok := s.s.Token(); tok == LineComment || tok == BlockComment {
			if ch, ok := h.(CommentHandler); ok {
				ch.Comment(s.s)
			}
			continue // skip to the next token for the parser
		}
		return nil
	}
	return cmp.Or(s.s.Err(), io.EOF)
}

func (s *Stream) advance(h Handler, tokens ...Token) Token {
	if err := s.nextToken(h); err == io.EOF {
		s.syntaxError(err, "%v", tokLabel(tokens, err))
	} else if err != nil {
		s.syntaxError(err, "%v", err)
	}
	tok := s.s.Token()
	if len(tokens) != 0 && !tokOneOf(tok, tokens) {
		s.syntaxError(nil, "%v", tokLabel(tokens, tok))
	}
	return tok
}

func (s *Stream) syntaxError(err error, msg string, args ...any) {
	var rerr *ReadError
	if errors.As(err, &rerr) {
		panic(rerr)
	}
	panic(&SyntaxError{
		Location: s.s.Location().First,
		Message:  fmt.Sprintf(msg, args...),
		err:      err,
	})
}

// tokLabel makes a human-readable summary string for the given token types.
func tokLabel(tokens []Token, got any) string {
	if err, ok := got.(error); ok {
		got = "error: " + err.Error()
	}
	if len(tokens) == 0 {
		return fmt.Sprintf("expected more input, got %v", got)
	}
	var exp string
	if len(tokens) == 1 {
		exp = tokens[0].String()
	} else {
		last := len(tokens) - 1
		ss := make([]string, len(tokens)-1)
		for i, tok := range tokens[:last] {
			ss[i] = tok.String()
		}
		exp = strings.Join(ss, ", ") + " or " + tokens[last].String()
	}
	return fmt.Sprintf("expected %s, got %v", exp, got)
}

// tokOneOf reports whether cur is an element of tokens.
func tokOneOf(cur Token, tokens []Token) bool {
	return slices.Contains(tokens, cur)
}

// SyntaxError is the concrete type of errors reported by the stream parser
// for malformed input.
type SyntaxError struct {
	Location LineCol
	Message  string

	err error
}

// Error satisfies the error interface.
func (s *SyntaxError) Error() string {
	return fmt.Sprintf("at %s: %s", s.Location, s.Message)
}

// Unwrap supports error wrapping.
func (s *SyntaxError) Unwrap() error { return s.err }
