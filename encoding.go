// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jseq

import (
	"errors"

	"github.com/creachadair/jseq/internal/escape"

	"go4.org/mem"
)

// Quote encodes src as a JSON string value. The contents are escaped and
// double quotation marks are added.
func Quote(src string) string {
	buf := make([]byte, 0, len(src)+2)
	buf = append(buf, '"')
	buf = escape.AppendQuote(buf, mem.S(src))
	return string(append(buf, '"'))
}

// Unquote decodes a JSON string value.  Double quotation marks are removed,
// and escape sequences are replaced with their unescaped equivalents.
//
// Invalid escapes are replaced by the Unicode replacement rune. Unquote
// reports an error for an incomplete escape sequence.
func Unquote(src []byte) ([]byte, error) { return appendUnquote(nil, src) }

// appendUnquote decodes the quoted string src as Unquote does, appending the
// result to dst.
func appendUnquote(dst, src []byte) ([]byte, error) {
	if len(src) < 2 || src[0] != '"' || src[len(src)-1] != '"' {
		return nil, errors.New("missing quotations")
	}
	return escape.AppendUnquote(dst, mem.B(src[1:len(src)-1]))
}
