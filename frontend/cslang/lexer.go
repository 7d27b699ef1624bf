// Package cslang implements the C#-subset front-end (.cs files). It
// recognizes one class per file (a static class forms a module),
// struct declarations as record types, and bracketed attributes for
// exposure markers.
package cslang

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
	tokQuestion

	tokAssign
	tokPlusEq
	tokMinusEq
	tokStarEq
	tokSlashEq
	tokInc
	tokDec

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

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer { return &lexer{src: src, line: 1, col: 1} }

func (l *lexer) advance() {
	if l.src[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *lexer) tokens() ([]token, error) {
	var out []token
	for {
		l.skip()
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

func (l *lexer) skip() {
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance()
			}
		case ch == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			l.advance()
			l.advance()
			for l.pos+1 < len(l.src) && !(l.src[l.pos] == '*' && l.src[l.pos+1] == '/') {
				l.advance()
			}
			if l.pos+1 < len(l.src) {
				l.advance()
				l.advance()
			} else {
				l.pos = len(l.src)
			}
		default:
			return
		}
	}
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
	case ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z'):
		start := l.pos
		for l.pos < len(l.src) {
			c := l.src[l.pos]
			if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
				l.advance()
			} else {
				break
			}
		}
		return token{kind: tokIdent, text: l.src[start:l.pos], line: line, col: col}, nil

	case ch >= '0' && ch <= '9':
		start := l.pos
		kind := tokInt
		for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
			l.advance()
		}
		if l.pos < len(l.src) && l.src[l.pos] == '.' {
			kind = tokFloat
			l.advance()
			for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
				l.advance()
			}
		}
		// numeric suffixes (1.5f, 10L, 2.5m) are dropped after lexing
		if l.pos < len(l.src) {
			switch l.src[l.pos] {
			case 'f', 'F', 'd', 'D', 'm', 'M':
				kind = tokFloat
				l.advance()
				return token{kind: kind, text: l.src[start : l.pos-1], line: line, col: col}, nil
			case 'l', 'L':
				l.advance()
				return token{kind: kind, text: l.src[start : l.pos-1], line: line, col: col}, nil
			}
		}
		return token{kind: kind, text: l.src[start:l.pos], line: line, col: col}, nil

	case ch == '"':
		l.advance()
		var sb strings.Builder
		for {
			if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
				return token{}, fmt.Errorf("%d:%d: unterminated string", line, col)
			}
			c := l.src[l.pos]
			if c == '\\' {
				l.advance()
				if l.pos >= len(l.src) {
					return token{}, fmt.Errorf("%d:%d: unterminated string", line, col)
				}
				switch l.src[l.pos] {
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				case '"', '\\':
					sb.WriteByte(l.src[l.pos])
				default:
					return token{}, fmt.Errorf("%d:%d: bad escape", l.line, l.col)
				}
				l.advance()
				continue
			}
			if c == '"' {
				l.advance()
				return token{kind: tokString, text: sb.String(), line: line, col: col}, nil
			}
			sb.WriteByte(c)
			l.advance()
		}
	}

	two := ""
	if l.pos+1 < len(l.src) {
		two = l.src[l.pos : l.pos+2]
	}
	switch two {
	case "++":
		return mk(tokInc, two), nil
	case "--":
		return mk(tokDec, two), nil
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
	return token{}, fmt.Errorf("%d:%d: unexpected character %q", line, col, string(ch))
}
