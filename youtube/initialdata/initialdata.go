// Package initialdata pulls the ytInitialData blob out of a search results
// page and walks its video renderers.
package initialdata

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/source-eva/yteva/errs"
	"github.com/source-eva/yteva/internal/jsvalue"
)

// markers precede the blob in the markup; more specific ones first.
var markers = [][]byte{
	[]byte("var ytInitialData = "),
	[]byte(`window["ytInitialData"] = `),
	[]byte(`window['ytInitialData'] = `),
	[]byte("ytInitialData = "),
}

var jsonParseCall = []byte("JSON.parse(")

// Extract returns the JSON text of ytInitialData. A page without the
// variable yields errs.ErrNoData; an unterminated or undecodable value
// yields errs.ErrParse.
func Extract(page []byte) ([]byte, error) {
	start := -1
	for _, m := range markers {
		if i := bytes.Index(page, m); i >= 0 {
			start = i + len(m)
			break
		}
	}
	if start < 0 {
		return nil, errs.ErrNoData
	}

	rest := bytes.TrimLeft(page[start:], " \t\r\n")
	rest = bytes.TrimPrefix(rest, jsonParseCall)
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: empty assignment", errs.ErrParse)
	}

	switch rest[0] {
	case '{':
		obj, ok := scanObject(rest)
		if !ok {
			return nil, fmt.Errorf("%w: unbalanced object", errs.ErrParse)
		}
		return obj, nil
	case '\'', '"':
		lit, ok := scanStringLiteral(rest)
		if !ok {
			return nil, fmt.Errorf("%w: unterminated string literal", errs.ErrParse)
		}
		text, err := jsvalue.DecodeStringLiteral(string(lit))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrParse, err)
		}
		return []byte(text), nil
	default:
		return nil, fmt.Errorf("%w: unexpected %q after marker", errs.ErrParse, rest[0])
	}
}

// Parse extracts and decodes ytInitialData from page.
func Parse(page []byte) (*Data, error) {
	raw, err := Extract(page)
	if err != nil {
		return nil, err
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrParse, err)
	}
	return &d, nil
}

// scanObject returns the balanced {...} prefix of b, skipping braces inside
// double-quoted strings.
func scanObject(b []byte) ([]byte, bool) {
	depth := 0
	inString := false
	escaped := false
	for i, c := range b {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1], true
			}
		}
	}
	return nil, false
}

// scanStringLiteral returns the quoted literal at the start of b, quotes included.
func scanStringLiteral(b []byte) ([]byte, bool) {
	q := b[0]
	escaped := false
	for i := 1; i < len(b); i++ {
		c := b[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == q:
			return b[:i+1], true
		case c == '\n':
			return nil, false
		}
	}
	return nil, false
}
