package tag

import (
	"fmt"
	"strings"
)

// The list fields follow this grammar:
//
//	list  = "[" [ item { "," SP item } ] "]"
//	item  = "'" { schar } "'" | `"` { dchar } `"`
//	schar = any char except "'" and "\" | "\" any
//	dchar = any char except `"` and "\" | "\" any
//
// EncodeList always emits single quotes. \n, \t and \r escapes decode to the
// control characters; any other escaped character stands for itself.

// EncodeList renders names as a bracketed list of quoted items.
func EncodeList(names []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, n := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		for _, r := range n {
			switch r {
			case '\\', '\'':
				b.WriteByte('\\')
				b.WriteRune(r)
			case '\n':
				b.WriteString(`\n`)
			case '\t':
				b.WriteString(`\t`)
			case '\r':
				b.WriteString(`\r`)
			default:
				b.WriteRune(r)
			}
		}
		b.WriteByte('\'')
	}
	b.WriteByte(']')
	return b.String()
}

// DecodeList parses a list written by EncodeList or by Python's str(list).
func DecodeList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("list must be enclosed in brackets")
	}

	p := listParser{src: []rune(s[1 : len(s)-1])}
	out := []string{}

	p.skipSpace()
	if p.done() {
		return out, nil
	}

	for {
		item, err := p.item()
		if err != nil {
			return nil, err
		}
		out = append(out, item)

		p.skipSpace()
		if p.done() {
			return out, nil
		}
		if p.src[p.pos] != ',' {
			return nil, fmt.Errorf("expected ',' at offset %d", p.pos+1)
		}
		p.pos++
		p.skipSpace()
		if p.done() {
			return nil, fmt.Errorf("trailing ',' in list")
		}
	}
}

type listParser struct {
	src []rune
	pos int
}

func (p *listParser) done() bool { return p.pos >= len(p.src) }

func (p *listParser) skipSpace() {
	for !p.done() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *listParser) item() (string, error) {
	q := p.src[p.pos]
	if q != '\'' && q != '"' {
		return "", fmt.Errorf("expected quote at offset %d", p.pos+1)
	}
	p.pos++

	var b strings.Builder
	for !p.done() {
		r := p.src[p.pos]
		p.pos++
		switch r {
		case q:
			return b.String(), nil
		case '\\':
			if p.done() {
				return "", fmt.Errorf("dangling escape")
			}
			e := p.src[p.pos]
			p.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteRune(e)
			}
		default:
			b.WriteRune(r)
		}
	}
	return "", fmt.Errorf("unterminated item")
}
