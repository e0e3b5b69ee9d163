// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jseq_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/creachadair/jseq"
	"github.com/google/go-cmp/cmp"
)

func TestStream(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "."},
		{"   ", "."},

		{"true false null", `
Value true <true>
Value false <false>
Value null <null>
.`},

		{`0 5 -6.32 0.1e-2`, `
Value integer <0>
Value integer <5>
Value number <-6.32>
Value number <0.1e-2>
.`},

		{`"" "a b c" "a\tb" "a\u0020b"`, `
Value string <"">
Value string <"a b c">
Value string <"a\tb">
Value string <"a\u0020b">
.`},

		{`{}`, "BeginObject\nEndObject\n."},

		{`{"a":15}`, `
BeginObject
BeginMember <"a">
Value integer <15>
EndMember "}"
EndObject
.`},

		{`{"x":null, "y":[true]}`, `
BeginObject
BeginMember <"x">
Value null <null>
EndMember ","
BeginMember <"y">
BeginArray
Value true <true>
EndArray
EndMember "}"
EndObject
.`},

		{`[]`, "BeginArray\nEndArray\n."},
	}

	for _, test := range tests {
		st := jseq.NewStream(strings.NewReader(test.input))
		th := new(testHandler)
		if err := st.Parse(th); err != nil {
			t.Errorf("Parse failed: %v", err)
		}

		if diff := diffStrings(test.want, th.output()); diff != "" {
			t.Errorf("Input: %#q\nOutput: (-want, +got)\n%s", test.input, diff)
		}
	}
}

func TestStreamErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
		estr  string
	}{
		// Various kinds of unbalanced object bits.
		{`{`, `BeginObject`,
			`at 1:1: expected "}" or string, got error: EOF`},
		{`}`, ``, `at 1:0: unexpected "}"`},
		{`{false:1}`, `BeginObject`,
			`at 1:1: expected "}" or string, got false`},
		{`{"true":}`, `
BeginObject
BeginMember <"true">`,
			`at 1:8: unexpected "}"`},
		{`{"true":1,`, `
BeginObject
BeginMember <"true">
Value integer <1>
EndMember ","`,
			`at 1:10: expected string, got error: EOF`},

		// Unbalanced array bits.
		{`[`, `BeginArray`,
			`at 1:1: expected more input, got error: EOF`},
		{`]`, ``, `at 1:0: unexpected "]"`},
		{`[15,`, `
BeginArray
Value integer <15>`,
			`at 1:4: expected more input, got error: EOF`},
		{`[15,]`, `
BeginArray
Value integer <15>`,
			`at 1:4: unexpected "]"`},

		// Invalid values.
		{`1 2.0 forthright`, `
Value integer <1>
Value number <2.0>`,
			`at 1:6: unknown constant "forthright" (offset 16)`},
		{`"what did you`, ``,
			`at 1:0: unterminated string (offset 13)`},
	}

	for _, test := range tests {
		st := jseq.NewStream(strings.NewReader(test.input))
		th := new(testHandler)
		err := st.Parse(th)
		if err == nil {
			t.Error("Parse did not report an error")
			continue
		}

		if diff := diffStrings(test.want, th.output()); diff != "" {
			t.Errorf("Input: %#q\nOutput: (-want, +got)\n%s", test.input, diff)
		}
		if diff := diffStrings(test.estr, err.Error()); diff != "" {
			t.Errorf("Input: %#q\nError: (-want, +got)\n%s", test.input, diff)
		}
	}
}

func TestParseOne(t *testing.T) {
	const input = `{ "love": true } [] "ok"`
	const want = `
BeginObject
BeginMember <"love">
Value true <true>
EndMember "}"
EndObject
---
BeginArray
EndArray
---
Value string <"ok">
---
.`
	th := new(testHandler)

	st := jseq.NewStream(strings.NewReader(input))
	for {
		err := st.ParseOne(th)
		if err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("ParseOne failed: %v", err)
		}
		th.pr("---")
	}

	if diff := diffStrings(want, th.output()); diff != "" {
		t.Errorf("Input: %#q\nOutput: (-want, +got)\n%s", input, diff)
	}
}

func diffStrings(want, got string) string {
	return cmp.Diff(strings.Split(strings.TrimSpace(want), "\n"),
		strings.Split(strings.TrimSpace(got), "\n"))
}

type testHandler struct {
	buf bytes.Buffer
}

func (t *testHandler) pr(msg string, args ...any) {
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	fmt.Fprintf(&t.buf, msg, args...)
}

func (t *testHandler) output() string { return t.buf.String() }

func (t *testHandler) BeginObject(loc jseq.Anchor) error { t.pr("BeginObject"); return nil }
func (t *testHandler) EndObject(loc jseq.Anchor) error   { t.pr("EndObject"); return nil }
func (t *testHandler) BeginArray(loc jseq.Anchor) error  { t.pr("BeginArray"); return nil }
func (t *testHandler) EndArray(loc jseq.Anchor) error    { t.pr("EndArray"); return nil }
func (t *testHandler) EndOfInput(loc jseq.Anchor)        { t.pr(".") }

func (t *testHandler) BeginMember(loc jseq.Anchor) error {
	t.pr("BeginMember <%s>", string(loc.Text()))
	return nil
}

func (t *testHandler) EndMember(loc jseq.Anchor) error {
	t.pr("EndMember %s", loc.Token())
	return nil
}

func (t *testHandler) Value(loc jseq.Anchor) error {
	t.pr(`Value %s <%s>`, loc.Token(), string(loc.Text()))
	return nil
}

// suspendHandler is a testHandler that suspends the parser after each event
// whose name is in stop.
type suspendHandler struct {
	testHandler
	stop map[string]bool
}

func (s *suspendHandler) check(name string) error {
	if s.stop[name] {
		s.pr("-- suspend")
		return jseq.ErrSuspend
	}
	return nil
}

func (s *suspendHandler) BeginObject(loc jseq.Anchor) error {
	s.testHandler.BeginObject(loc)
	return s.check("BeginObject")
}

func (s *suspendHandler) EndObject(loc jseq.Anchor) error {
	s.testHandler.EndObject(loc)
	return s.check("EndObject")
}

func (s *suspendHandler) Value(loc jseq.Anchor) error {
	s.testHandler.Value(loc)
	return s.check("Value")
}

func TestPump(t *testing.T) {
	const input = `{"a": [1, 2]} {}`
	const want = `
BeginObject
BeginMember <"a">
BeginArray
Value integer <1>
-- suspend
=== pump
Value integer <2>
-- suspend
=== pump
EndArray
EndMember "}"
EndObject
-- suspend
=== pump
BeginObject
EndObject
-- suspend
=== pump
.
=== done`

	th := &suspendHandler{stop: map[string]bool{"EndObject": true, "Value": true}}
	st := jseq.NewStream(strings.NewReader(input))
	for {
		err := st.Pump(th)
		if err == io.EOF {
			th.pr("=== done")
			break
		} else if err != nil {
			t.Fatalf("Pump failed: %v", err)
		}
		th.pr("=== pump")
	}
	if diff := diffStrings(want, th.output()); diff != "" {
		t.Errorf("Input: %#q\nOutput: (-want, +got)\n%s", input, diff)
	}

	// Once the input is exhausted, Pump keeps reporting io.EOF.
	if err := st.Pump(th); err != io.EOF {
		t.Errorf("Pump after end: got %v, want %v", err, io.EOF)
	}
}

func TestParseIgnoresSuspend(t *testing.T) {
	th := &suspendHandler{stop: map[string]bool{"BeginObject": true, "Value": true}}
	st := jseq.NewStream(strings.NewReader(`{"x": true} 5`))
	if err := st.Parse(th); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	const want = `
BeginObject
-- suspend
BeginMember <"x">
Value true <true>
-- suspend
EndMember "}"
EndObject
Value integer <5>
-- suspend
.`
	if diff := diffStrings(want, th.output()); diff != "" {
		t.Errorf("Output: (-want, +got)\n%s", diff)
	}
}

type errHandler struct {
	testHandler
	err error
}

func (e *errHandler) Value(loc jseq.Anchor) error {
	e.testHandler.Value(loc)
	return e.err
}

func TestStreamStickyError(t *testing.T) {
	errStop := errors.New("stop here")
	th := &errHandler{err: errStop}
	st := jseq.NewStream(strings.NewReader(`[1, 2, 3]`))
	for i := 0; i < 3; i++ {
		if err := st.Pump(th); err != errStop {
			t.Errorf("Pump %d: got %v, want %v", i+1, err, errStop)
		}
	}
	if err := st.ParseOne(th); err != errStop {
		t.Errorf("ParseOne: got %v, want %v", err, errStop)
	}
	const want = "BeginArray\nValue integer <1>"
	if diff := diffStrings(want, th.output()); diff != "" {
		t.Errorf("Output: (-want, +got)\n%s", diff)
	}
}

type commentHandler struct {
	testHandler
}

func (c *commentHandler) Comment(loc jseq.Anchor) {
	c.pr("Comment <%s>", strings.TrimSpace(string(loc.Text())))
}

func TestStreamJWCC(t *testing.T) {
	const input = `// header
{
  "a": [1, 2,], /* trailing */
  "b": {"c": null,},
}`
	const want = `
Comment <// header>
BeginObject
BeginMember <"a">
BeginArray
Value integer <1>
Value integer <2>
EndArray
EndMember ","
Comment </* trailing */>
BeginMember <"b">
BeginObject
BeginMember <"c">
Value null <null>
EndMember ","
EndObject
EndMember ","
EndObject
.`

	t.Run("Enabled", func(t *testing.T) {
		th := new(commentHandler)
		st := jseq.NewStream(strings.NewReader(input))
		st.AllowComments(true)
		st.AllowTrailingCommas(true)
		if err := st.Parse(th); err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if diff := diffStrings(want, th.output()); diff != "" {
			t.Errorf("Output: (-want, +got)\n%s", diff)
		}
	})

	t.Run("WithScanner", func(t *testing.T) {
		sc := jseq.NewScanner(strings.NewReader(input))
		sc.AllowComments(true)
		st := jseq.NewStreamWithScanner(sc)
		st.AllowTrailingCommas(true)
		th := new(commentHandler)
		if err := st.Parse(th); err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if diff := diffStrings(want, th.output()); diff != "" {
			t.Errorf("Output: (-want, +got)\n%s", diff)
		}
	})

	t.Run("NoComments", func(t *testing.T) {
		st := jseq.NewStream(strings.NewReader(input))
		st.AllowTrailingCommas(true)
		var serr *jseq.SyntaxError
		if err := st.Parse(new(testHandler)); !errors.As(err, &serr) {
			t.Errorf("Parse: got %v, want *SyntaxError", err)
		}
	})

	t.Run("NoTrailingCommas", func(t *testing.T) {
		st := jseq.NewStream(strings.NewReader(input))
		st.AllowComments(true)
		var serr *jseq.SyntaxError
		if err := st.Parse(new(testHandler)); !errors.As(err, &serr) {
			t.Errorf("Parse: got %v, want *SyntaxError", err)
		} else if got, want := serr.Location.String(), "3:13"; got != want {
			t.Errorf("Error location: got %s, want %s", got, want)
		}
	})
}

func TestStreamReadError(t *testing.T) {
	errBroken := errors.New("disk on fire")
	st := jseq.NewStream(&failReader{data: `[true, `, err: errBroken})
	err := st.Parse(new(testHandler))
	var rerr *jseq.ReadError
	if !errors.As(err, &rerr) {
		t.Fatalf("Parse: got %v, want *ReadError", err)
	}
	if !errors.Is(err, errBroken) {
		t.Errorf("Parse: got %v, want %v", err, errBroken)
	}
	var serr *jseq.SyntaxError
	if errors.As(err, &serr) {
		t.Errorf("Parse: read failure reported as a syntax error: %v", serr)
	}
}
