// SPDX-License-Identifier: MPL-2.0

package foamdict

import "bytes"

type (
	tokenKind int

	token struct {
		kind       tokenKind
		start, end int
	}

	lexer struct {
		src []byte
		pos int
	}
)

const (
	tokEOF tokenKind = iota
	tokWord
	tokString
	tokDirective
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokSemi
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokWord:
		return "word"
	case tokString:
		return "string"
	case tokDirective:
		return "directive"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokSemi:
		return "';'"
	default:
		return "unknown"
	}
}

func (l *lexer) next() (token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return token{}, err
	}
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, start: len(l.src), end: len(l.src)}, nil
	}

	start := l.pos
	single := func(kind tokenKind) (token, error) {
		l.pos++
		return token{kind: kind, start: start, end: l.pos}, nil
	}

	switch c := l.src[l.pos]; c {
	case '{':
		return single(tokLBrace)
	case '}':
		return single(tokRBrace)
	case '(':
		return single(tokLParen)
	case ')':
		return single(tokRParen)
	case ';':
		return single(tokSemi)
	case '"':
		return l.lexString()
	case '#':
		return l.lexDirective()
	default:
		return l.lexWord()
	}
}

func (l *lexer) skipSpaceAndComments() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isSpace(c):
			l.pos++
		case c == '/' && l.peek(1) == '/':
			if i := bytes.IndexByte(l.src[l.pos:], '\n'); i >= 0 {
				l.pos += i + 1
			} else {
				l.pos = len(l.src)
			}
		case c == '/' && l.peek(1) == '*':
			i := bytes.Index(l.src[l.pos+2:], []byte("*/"))
			if i < 0 {
				return l.errorf(l.pos, "unterminated block comment")
			}
			l.pos += 2 + i + 2
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) lexString() (token, error) {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case '"':
			l.pos++
			return token{kind: tokString, start: start, end: l.pos}, nil
		}
		l.pos++
	}
	return token{}, l.errorf(start, "unterminated string")
}

// lexDirective reads a #directive up to the end of its line, or a #{ ... #}
// code block.
func (l *lexer) lexDirective() (token, error) {
	start := l.pos
	if l.peek(1) == '{' {
		i := bytes.Index(l.src[l.pos+2:], []byte("#}"))
		if i < 0 {
			return token{}, l.errorf(start, "unterminated code block")
		}
		l.pos += 2 + i + 2
		return token{kind: tokWord, start: start, end: l.pos}, nil
	}
	if i := bytes.IndexByte(l.src[l.pos:], '\n'); i >= 0 {
		l.pos += i
	} else {
		l.pos = len(l.src)
	}
	end := l.pos
	for end > start && isSpace(l.src[end-1]) {
		end--
	}
	return token{kind: tokDirective, start: start, end: end}, nil
}

// lexWord reads a bare word. A '(' inside a word opens a balanced group that
// belongs to the word, e.g. div(phi,U).
func (l *lexer) lexWord() (token, error) {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isSpace(c), c == '{', c == '}', c == ';', c == '"', c == ')':
			return token{kind: tokWord, start: start, end: l.pos}, nil
		case c == '/' && (l.peek(1) == '/' || l.peek(1) == '*'):
			return token{kind: tokWord, start: start, end: l.pos}, nil
		case c == '(':
			if err := l.skipGroup(); err != nil {
				return token{}, err
			}
			continue
		}
		l.pos++
	}
	return token{kind: tokWord, start: start, end: l.pos}, nil
}

func (l *lexer) skipGroup() error {
	open := l.pos
	depth := 0
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				l.pos++
				return nil
			}
		}
		l.pos++
	}
	return l.errorf(open, "unbalanced '('")
}

func (l *lexer) peek(n int) byte {
	if l.pos+n < len(l.src) {
		return l.src[l.pos+n]
	}
	return 0
}

func (l *lexer) errorf(offset int, msg string) error {
	return newSyntaxError(l.src, offset, msg)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
