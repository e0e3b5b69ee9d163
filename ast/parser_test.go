// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package ast_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/creachadair/jseq"
	"github.com/creachadair/jseq/ast"
	"github.com/google/go-cmp/cmp"
)

const episodesJSON = `{
  "episodes": [
    {"episode": 1, "summary": "The \"pilot\"", "hasDetail": false},
    {"episode": 2, "summary": "A é in the works", "hasDetail": true, "rating": 7.5}
  ]
} "tail" [null]`

func TestParse(t *testing.T) {
	vs, err := ast.Parse(strings.NewReader(episodesJSON))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(vs) != 3 {
		t.Fatalf("Parse: got %d values, want 3", len(vs))
	}

	root, ok := vs[0].(ast.Object)
	if !ok {
		t.Fatalf("Root is %T, not object", vs[0])
	}
	mem := root.Find("episodes")
	if mem == nil {
		t.Fatal(`Key "episodes" not found`)
	}
	lst, ok := mem.Value.(ast.Array)
	if !ok {
		t.Fatalf("Member value is %T, not array", mem.Value)
	} else if len(lst) != 2 {
		t.Fatalf("Array has %d elements, want 2", len(lst))
	}
	obj, ok := lst[1].(ast.Object)
	if !ok {
		t.Fatalf("Array entry is %T, not object", lst[1])
	}
	check(t, obj, "summary", func(s ast.Quoted) {
		if got, want := s.Unquote(), "A é in the works"; got != want {
			t.Errorf("Summary: got %q, want %q", got, want)
		}
	})
	check(t, obj, "episode", func(v ast.Number) {
		if !v.IsInt() || v.Int() != 2 {
			t.Errorf("Number %s should be the integer 2", v.JSON())
		}
	})
	check(t, obj, "rating", func(v ast.Number) {
		if v.IsInt() || v.Float() != 7.5 {
			t.Errorf("Number %s should be the float 7.5", v.JSON())
		}
	})
	check(t, obj, "hasDetail", func(v ast.Bool) {
		if !v {
			t.Errorf("Bool field value: got %v, want true", v)
		}
	})

	if diff := cmp.Diff(vs[1:], []ast.Value{
		ast.String("tail"),
		ast.Array{ast.Null},
	}, valueOpts); diff != "" {
		t.Errorf("Trailing values (-got, +want):\n%s", diff)
	}
}

func check[T any](t *testing.T, obj ast.Object, key string, f func(T)) {
	t.Helper()
	if v := obj.Find(key); v == nil {
		t.Fatalf("Key %q not found", key)
	} else if tv, ok := v.Value.(T); !ok {
		var zero T
		t.Fatalf("Key %q value is %T, not %T", key, v.Value, zero)
	} else if f != nil {
		f(tv)
	}
}

func TestParseErrors(t *testing.T) {
	vs, err := ast.Parse(strings.NewReader(`[1] {"a": }`))
	var serr *jseq.SyntaxError
	if !errors.As(err, &serr) {
		t.Errorf("Parse: got error %v, want *SyntaxError", err)
	}
	if diff := cmp.Diff(vs, []ast.Value{ast.Array{ast.Int(1)}}, valueOpts); diff != "" {
		t.Errorf("Values before error (-got, +want):\n%s", diff)
	}

	for _, input := range []string{"", "  ", "1 2", `{"a":1}]`, `[1, 2`} {
		v, err := ast.ParseSingle(strings.NewReader(input))
		if err == nil {
			t.Errorf("ParseSingle(%q): got %s, wanted error", input, v.JSON())
		} else {
			t.Logf("ParseSingle(%q): got expected error: %v", input, err)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		input ast.Value
		want  string
	}{
		{ast.Null, "null"},

		{ast.Bool(false), "false"},
		{ast.Bool(true), "true"},

		{ast.String(""), `""`},
		{ast.String("a \t b"), `"a \t b"`},

		{ast.Float(-0.00239), `-0.00239`},

		{ast.Int(0), `0`},
		{ast.Int(15), `15`},
		{ast.Int(-25), `-25`},

		{ast.Array{}, `[]`},
		{ast.Array{
			ast.Bool(false),
		}, `[false]`},
		{ast.Array{
			ast.Bool(true),
			ast.Int(199),
		}, `[true,199]`},
		{ast.Array{
			ast.String("free"),
			ast.String("your"),
			ast.String("mind"),
		}, `["free","your","mind"]`},

		{ast.Object{}, `{}`},
		{ast.Object{
			ast.Field("xs", ast.Null),
		}, `{"xs":null}`},
		{ast.Object{
			ast.Field("name", ast.String("Dennis")),
			ast.Field("age", ast.Int(37)),
			ast.Field("isOld", ast.Bool(false)),
		}, `{"name":"Dennis","age":37,"isOld":false}`},

		{ast.Object{
			ast.Field("values", ast.Array{
				ast.Int(5),
				ast.Int(10),
				ast.Bool(true),
			}),
			ast.Field("page", ast.Object{
				ast.Field("token", ast.String("xyz-pdq-zvm")),
				ast.Field("count", ast.Int(100)),
			}),
		}, `{"values":[5,10,true],"page":{"token":"xyz-pdq-zvm","count":100}}`},
	}
	for _, test := range tests {
		got := test.input.JSON()
		if got != test.want {
			t.Errorf("Input: %+v\nGot:  %s\nWant: %s", test.input, got, test.want)
		}
	}
}

type doc struct {
	Name string
	Meta ast.Value
}

func TestCapture(t *testing.T) {
	s := ast.Capture(jseq.NewSchema[doc](), "meta", func(d *doc, v ast.Value) error {
		d.Meta = v
		return nil
	})
	if err := s.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	seq := s.Stream(strings.NewReader(`
{"name": "a", "meta": {"x": [1, {"y": null}], "z": "w"}}
{"meta": 7, "name": "b"}
{"name": "c"}`))
	var got []doc
	for d := range seq.All() {
		got = append(got, *d)
	}
	if err := seq.Err(); err != nil {
		t.Fatalf("Stream: unexpected error: %v", err)
	}
	want := []doc{
		{Name: "a", Meta: ast.Object{
			ast.Field("x", ast.Array{ast.Int(1), ast.Object{ast.Field("y", ast.Null)}}),
			ast.Field("z", ast.String("w")),
		}},
		{Name: "b", Meta: ast.Int(7)},
		{Name: "c"},
	}
	if diff := cmp.Diff(got, want, valueOpts); diff != "" {
		t.Errorf("Captured values (-got, +want):\n%s", diff)
	}
}

func TestCaptureError(t *testing.T) {
	errReject := errors.New("rejected")
	s := ast.Capture(jseq.NewSchema[doc](), "meta", func(d *doc, v ast.Value) error {
		if _, ok := v.(ast.Array); ok {
			return errReject
		}
		d.Meta = v
		return nil
	})
	if err := s.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	seq := s.Stream(strings.NewReader(`{"meta": true} {"meta": [1, 2]} {"meta": false}`))
	var n int
	for range seq.All() {
		n++
	}
	if n != 1 {
		t.Errorf("Got %d objects before the error, want 1", n)
	}
	if err := seq.Err(); !errors.Is(err, errReject) {
		t.Errorf("Stream: got error %v, want %v", err, errReject)
	}
}
