// SPDX-License-Identifier: MPL-2.0

package foamdict

import (
	"bytes"
	"fmt"
)

type (
	// File is a parsed dictionary file.
	File struct {
		src  []byte
		Root *Dict
	}

	// Dict is a brace-delimited block. The root Dict has no braces.
	Dict struct {
		Name    string
		Entries []*Entry
		// Open and Close are the offsets of the braces; both are -1 for the root.
		Open, Close int
	}

	// Entry is one statement of a Dict: "key value;", "key { ... }" or a #directive.
	Entry struct {
		Key string
		// Value is the raw text between the key and the terminating ';'.
		Value string
		// Sub is set when the entry is a sub-dictionary.
		Sub       *Dict
		Directive bool

		KeyStart, KeyEnd int
		// ValueStart and ValueEnd delimit the value; ValueEnd is the offset of ';'.
		ValueStart, ValueEnd int
	}

	parser struct {
		lex *lexer
		src []byte
	}
)

// Parse parses src. The returned File keeps its own copy of src.
func Parse(src []byte) (*File, error) {
	buf := bytes.Clone(src)
	p := &parser{lex: &lexer{src: buf}, src: buf}

	root := &Dict{Open: -1, Close: -1}
	if err := p.parseDict(root, false); err != nil {
		return nil, err
	}
	return &File{src: buf, Root: root}, nil
}

// Bytes returns the current text of the file.
func (f *File) Bytes() []byte {
	return bytes.Clone(f.src)
}

func (p *parser) next() (token, error) {
	return p.lex.next()
}

func (p *parser) text(tok token) string {
	return string(p.src[tok.start:tok.end])
}

func (p *parser) errorf(offset int, format string, args ...any) error {
	return newSyntaxError(p.src, offset, fmt.Sprintf(format, args...))
}

// parseDict reads entries until '}' (nested) or end of input (root).
func (p *parser) parseDict(d *Dict, nested bool) error {
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}

		switch tok.kind {
		case tokEOF:
			if nested {
				return p.errorf(d.Open, "unbalanced '{' for %q", d.Name)
			}
			return nil
		case tokRBrace:
			if !nested {
				return p.errorf(tok.start, "unexpected '}'")
			}
			d.Close = tok.start
			return nil
		case tokSemi:
			continue
		case tokDirective:
			d.Entries = append(d.Entries, &Entry{
				Key:        p.text(tok),
				Directive:  true,
				KeyStart:   tok.start,
				KeyEnd:     tok.end,
				ValueStart: tok.end,
				ValueEnd:   tok.end,
			})
		case tokWord, tokString:
			entry, err := p.parseStatement(tok, nested)
			if err != nil {
				return err
			}
			d.Entries = append(d.Entries, entry)
		default:
			return p.errorf(tok.start, "unexpected %s", tok.kind)
		}
	}
}

// parseStatement reads the rest of a statement whose key is key.
func (p *parser) parseStatement(key token, nested bool) (*Entry, error) {
	e := &Entry{
		Key:        p.text(key),
		KeyStart:   key.start,
		KeyEnd:     key.end,
		ValueStart: -1,
	}

	depth := 0
	var last token
	first := true
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		if e.ValueStart < 0 {
			e.ValueStart = tok.start
		}

		switch tok.kind {
		case tokLBrace:
			switch {
			case first:
				sub := &Dict{Name: e.Key, Open: tok.start, Close: -1}
				if err := p.parseDict(sub, true); err != nil {
					return nil, err
				}
				e.Sub = sub
				e.ValueStart, e.ValueEnd = tok.start, sub.Close+1
				return e, nil
			case depth > 0:
				if err := p.skipBraces(tok); err != nil {
					return nil, err
				}
			default:
				return nil, p.errorf(tok.start, "unexpected '{' in value of %q", e.Key)
			}
		case tokLParen:
			depth++
		case tokRParen:
			depth--
			if depth < 0 {
				return nil, p.errorf(tok.start, "unbalanced ')' in value of %q", e.Key)
			}
		case tokSemi:
			if depth == 0 {
				e.ValueEnd = tok.start
				e.Value = string(bytes.TrimSpace(p.src[e.ValueStart:tok.start]))
				return e, nil
			}
		case tokRBrace:
			if depth > 0 {
				return nil, p.errorf(tok.start, "unbalanced '(' in value of %q", e.Key)
			}
			return nil, p.errorf(e.KeyStart, "missing ';' after %q", e.Key)
		case tokEOF:
			// A top-level list such as "3 ( ... )" may end the file without ';'.
			if !nested && depth == 0 && last.kind == tokRParen {
				e.ValueEnd = last.end
				e.Value = string(bytes.TrimSpace(p.src[e.ValueStart:last.end]))
				return e, nil
			}
			if depth > 0 {
				return nil, p.errorf(e.KeyStart, "unbalanced '(' in value of %q", e.Key)
			}
			return nil, p.errorf(e.KeyStart, "missing ';' after %q", e.Key)
		}
		first = false
		last = tok
	}
}

// skipBraces consumes a dictionary nested inside a list value.
func (p *parser) skipBraces(open token) error {
	depth := 1
	for depth > 0 {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch tok.kind {
		case tokLBrace:
			depth++
		case tokRBrace:
			depth--
		case tokEOF:
			return p.errorf(open.start, "unbalanced '{'")
		}
	}
	return nil
}
