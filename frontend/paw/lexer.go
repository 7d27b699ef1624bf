// Package paw implements the front-end for the Paw DSL (.paw files):
// a hand-written lexer and recursive-descent parser producing the
// shared IR.
package paw

import (
	"fmt"
	"strings"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString

	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokComma
	tokColon
	tokSemicolon
	tokDot
	tokDotDot
	tokQuestion
	tokAt
	tokDollar
	tokArrow

	tokAssign
	tokPlusEq
	tokMinusEq
	tokStarEq
	tokSlashEq

	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent

	tokEq
	tokNeq
	tokLt
	tokGt
	tokLe
	tokGe
	tokAndAnd
	tokOrOr
	tokNot
)

type token struct {
	kind tokKind
	text string
	line int
	col  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "<eof>"
	}
	return t.text
}

// keywords are recognized as identifiers by the lexer; the parser
// checks the text, which keeps contextual keywords (extends, on, as)
// usable as member names.
var keywords = map[string]bool{
	"extends": true, "module": true, "var": true, "pub": true,
	"fn": true, "on": true, "record": true, "pass": true,
	"self": true, "as": true, "if": true, "elif": true, "else": true,
	"for": true, "in": true, "return": true, "true": true,
	"false": true, "nil": true, "new": true,
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) errorf(line, col int, format string, args ...any) error {
	return fmt.Errorf("%d:%d: %s", line, col, fmt.Sprintf(format, args...))
}

// tokens lexes the whole input up front. Comments run from '#' to end
// of line; newlines are insignificant.
func (l *lexer) tokens() ([]token, error) {
	var out []token
	for {
		l.skipSpaceAndComments()
		if l.pos >= len(l.src) {
			out = append(out, token{kind: tokEOF, line: l.line, col: l.col})
			return out, nil
		}
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.advance()
		case ch == '\n':
			l.advance()
		case ch == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) advance() {
	if l.src[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) next() (token, error) {
	line, col := l.line, l.col
	ch := l.src[l.pos]

	mk := func(kind tokKind, text string) token {
		for range text {
			l.advance()
		}
		return token{kind: kind, text: text, line: line, col: col}
	}

	switch {
	case isIdentStart(ch):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.advance()
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], line: line, col: col}, nil

	case ch >= '0' && ch <= '9':
		start := l.pos
		kind := tokInt
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.advance()
		}
		// '..' is a range, a single '.' a fraction
		if l.pos < len(l.src) && l.src[l.pos] == '.' && l.peekAt(1) != '.' {
			kind = tokFloat
			l.advance()
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.advance()
			}
		}
		return token{kind: kind, text: l.src[start:l.pos], line: line, col: col}, nil

	case ch == '"':
		l.advance()
		var sb strings.Builder
		for {
			if l.pos >= len(l.src) {
				return token{}, l.errorf(line, col, "unterminated string")
			}
			c := l.src[l.pos]
			if c == '\\' {
				l.advance()
				if l.pos >= len(l.src) {
					return token{}, l.errorf(line, col, "unterminated string")
				}
				switch l.src[l.pos] {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				case '"':
					sb.WriteByte('"')
				case '\\':
					sb.WriteByte('\\')
				default:
					return token{}, l.errorf(l.line, l.col, "bad escape \\%c", l.src[l.pos])
				}
				l.advance()
				continue
			}
			if c == '"' {
				l.advance()
				return token{kind: tokString, text: sb.String(), line: line, col: col}, nil
			}
			if c == '\n' {
				return token{}, l.errorf(line, col, "unterminated string")
			}
			sb.WriteByte(c)
			l.advance()
			continue
		}
	}

	two := ""
	if l.pos+1 < len(l.src) {
		two = l.src[l.pos : l.pos+2]
	}
	switch two {
	case "->":
		return mk(tokArrow, two), nil
	case "..":
		return mk(tokDotDot, two), nil
	case "+=":
		return mk(tokPlusEq, two), nil
	case "-=":
		return mk(tokMinusEq, two), nil
	case "*=":
		return mk(tokStarEq, two), nil
	case "/=":
		return mk(tokSlashEq, two), nil
	case "==":
		return mk(tokEq, two), nil
	case "!=":
		return mk(tokNeq, two), nil
	case "<=":
		return mk(tokLe, two), nil
	case ">=":
		return mk(tokGe, two), nil
	case "&&":
		return mk(tokAndAnd, two), nil
	case "||":
		return mk(tokOrOr, two), nil
	}

	switch ch {
	case '(':
		return mk(tokLParen, "("), nil
	case ')':
		return mk(tokRParen, ")"), nil
	case '{':
		return mk(tokLBrace, "{"), nil
	case '}':
		return mk(tokRBrace, "}"), nil
	case '[':
		return mk(tokLBracket, "["), nil
	case ']':
		return mk(tokRBracket, "]"), nil
	case ',':
		return mk(tokComma, ","), nil
	case ':':
		return mk(tokColon, ":"), nil
	case ';':
		return mk(tokSemicolon, ";"), nil
	case '.':
		return mk(tokDot, "."), nil
	case '?':
		return mk(tokQuestion, "?"), nil
	case '@':
		return mk(tokAt, "@"), nil
	case '$':
		return mk(tokDollar, "$"), nil
	case '=':
		return mk(tokAssign, "="), nil
	case '+':
		return mk(tokPlus, "+"), nil
	case '-':
		return mk(tokMinus, "-"), nil
	case '*':
		return mk(tokStar, "*"), nil
	case '/':
		return mk(tokSlash, "/"), nil
	case '%':
		return mk(tokPercent, "%"), nil
	case '<':
		return mk(tokLt, "<"), nil
	case '>':
		return mk(tokGt, ">"), nil
	case '!':
		return mk(tokNot, "!"), nil
	}
	return token{}, l.errorf(line, col, "unexpected character %q", string(ch))
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }
