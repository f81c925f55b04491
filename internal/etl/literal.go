package etl

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

// The source dataset serializes nested fields as Python literals, e.g.
// [{'id': 35, 'name': 'Comedy'}]. decodeLiteral accepts that notation and
// JSON; it returns an error for anything else and the callers in fields.go
// turn that into an empty result.

var errSyntax = errors.New("invalid literal")

type literalParser struct {
	s   string
	pos int
}

func decodeLiteral(s string) (interface{}, error) {
	p := &literalParser{s: s}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, errSyntax
	}
	return v, nil
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) value() (interface{}, error) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return nil, errSyntax
	}
	switch c := p.s[p.pos]; {
	case c == '[':
		return p.sequence('[', ']')
	case c == '(':
		return p.sequence('(', ')')
	case c == '{':
		return p.dict()
	case c == '\'' || c == '"':
		return p.str()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.keyword()
	}
}

func (p *literalParser) sequence(open, close byte) ([]interface{}, error) {
	p.pos++ // open
	items := []interface{}{}
	for {
		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, errSyntax
		}
		if p.s[p.pos] == close {
			p.pos++
			return items, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		if !p.separator(close) {
			return nil, errSyntax
		}
	}
}

func (p *literalParser) dict() (map[string]interface{}, error) {
	p.pos++ // {
	m := map[string]interface{}{}
	for {
		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, errSyntax
		}
		if p.s[p.pos] == '}' {
			p.pos++
			return m, nil
		}
		k, err := p.value()
		if err != nil {
			return nil, err
		}
		key, ok := scalarString(k)
		if !ok {
			return nil, errSyntax
		}
		p.skipSpace()
		if p.pos >= len(p.s) || p.s[p.pos] != ':' {
			return nil, errSyntax
		}
		p.pos++
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		m[key] = v
		if !p.separator('}') {
			return nil, errSyntax
		}
	}
}

// separator consumes a comma, or leaves a closing delimiter in place.
func (p *literalParser) separator(close byte) bool {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return false
	}
	switch p.s[p.pos] {
	case ',':
		p.pos++
		return true
	case close:
		return true
	}
	return false
}

func (p *literalParser) str() (string, error) {
	quote := p.s[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if p.pos+1 >= len(p.s) {
				return "", errSyntax
			}
			n, err := p.escape(&b)
			if err != nil {
				return "", err
			}
			p.pos += n
		default:
			r, size := utf8.DecodeRuneInString(p.s[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
	return "", errSyntax
}

// escape writes the escape sequence at p.pos and returns its length.
func (p *literalParser) escape(b *strings.Builder) (int, error) {
	c := p.s[p.pos+1]
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '\\', '\'', '"', '/':
		b.WriteByte(c)
	case 'x', 'u', 'U':
		width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[c]
		end := p.pos + 2 + width
		if end > len(p.s) {
			return 0, errSyntax
		}
		code, err := strconv.ParseUint(p.s[p.pos+2:end], 16, 32)
		if err != nil {
			return 0, errSyntax
		}
		b.WriteRune(rune(code))
		return 2 + width, nil
	default:
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return 2, nil
}

func (p *literalParser) number() (interface{}, error) {
	start := p.pos
	for p.pos < len(p.s) && strings.IndexByte("+-.0123456789eE", p.s[p.pos]) >= 0 {
		p.pos++
	}
	text := p.s[start:p.pos]
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, errSyntax
	}
	return f, nil
}

func (p *literalParser) keyword() (interface{}, error) {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			break
		}
		p.pos++
	}
	switch p.s[start:p.pos] {
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	case "None", "null":
		return nil, nil
	}
	return nil, errSyntax
}

// scalarString renders strings and numbers; containers, booleans and null
// are not usable as field values.
func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}
