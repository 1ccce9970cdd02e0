package syntax

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// ErrInsufficient is returned when the input ends in the middle of a term.
var ErrInsufficient = errors.New("insufficient input")

// UnexpectedRuneError is returned when the input contains a rune that can't
// start or continue a token.
type UnexpectedRuneError struct {
	Rune rune
}

func (e UnexpectedRuneError) Error() string {
	return fmt.Sprintf("unexpected char: %q", e.Rune)
}

// Token is a smallest meaningful unit of a prolog program.
type Token struct {
	Kind TokenKind
	Val  string

	// Layout is set if the token is preceded by white space or a comment.
	Layout bool
}

func (t Token) String() string {
	return fmt.Sprintf("<%s %s>", t.Kind, t.Val)
}

// TokenKind is a type of Token.
type TokenKind byte

// Token kinds.
const (
	TokenEOS TokenKind = iota
	TokenVariable
	TokenFloat
	TokenInteger
	TokenName
	TokenQuoted
	TokenDoubleQuoted
	TokenComma
	TokenEnd
	TokenBar
	TokenOpenCT
	TokenOpen
	TokenClose
	TokenOpenList
	TokenCloseList
	TokenOpenCurly
	TokenCloseCurly

	tokenKindLen
)

func (k TokenKind) String() string {
	return [tokenKindLen]string{
		TokenEOS:          "eos",
		TokenVariable:     "variable",
		TokenFloat:        "float",
		TokenInteger:      "integer",
		TokenName:         "name",
		TokenQuoted:       "quoted",
		TokenDoubleQuoted: "double quoted",
		TokenComma:        "comma",
		TokenEnd:          "end",
		TokenBar:          "bar",
		TokenOpenCT:       "open CT",
		TokenOpen:         "open",
		TokenClose:        "close",
		TokenOpenList:     "open list",
		TokenCloseList:    "close list",
		TokenOpenCurly:    "open curly",
		TokenCloseCurly:   "close curly",
	}[k]
}

// Lexer turns runes into tokens.
type Lexer struct {
	input  *bufio.Reader
	tokens []Token
	layout bool

	// state continues a token that was interrupted by emitting another one.
	state lexState
}

// NewLexer creates a lexer reading from r.
func NewLexer(r io.Reader) *Lexer {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Lexer{input: br}
}

// Next returns the next token. At the end of the input it returns a TokenEOS.
func (l *Lexer) Next() (Token, error) {
	state := l.state
	if state == nil {
		state = l.init
	}
	l.layout = false
	for state != nil && len(l.tokens) == 0 {
		r, err := l.next()
		if err != nil {
			return Token{}, err
		}
		if state, err = state(r); err != nil {
			l.state = nil
			return Token{}, err
		}
	}
	l.state = state
	var t Token
	t, l.tokens = l.tokens[0], l.tokens[1:]
	return t, nil
}

const etx = 0x2

func (l *Lexer) next() (rune, error) {
	r, _, err := l.input.ReadRune()
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, io.EOF):
		return etx, nil
	default:
		return 0, err
	}
}

func (l *Lexer) backup(r rune) {
	if r != etx {
		_ = l.input.UnreadRune()
	}
}

func (l *Lexer) emit(kind TokenKind, val string) {
	l.tokens = append(l.tokens, Token{Kind: kind, Val: val, Layout: l.layout})
}

type lexState func(rune) (lexState, error)

func (l *Lexer) init(r rune) (lexState, error) {
	switch {
	case r == etx:
		l.emit(TokenEOS, "")
		return nil, nil
	case unicode.IsSpace(r):
		l.layout = true
		return l.init, nil
	case r == '%':
		l.layout = true
		return l.singleLineComment, nil
	case r == '/':
		return l.slash, nil
	case r == '(':
		if l.layout {
			l.emit(TokenOpen, "(")
		} else {
			l.emit(TokenOpenCT, "(")
		}
		return nil, nil
	case r == ')':
		l.emit(TokenClose, ")")
		return nil, nil
	case r == '[':
		return l.openList, nil
	case r == ']':
		l.emit(TokenCloseList, "]")
		return nil, nil
	case r == '{':
		return l.openCurly, nil
	case r == '}':
		l.emit(TokenCloseCurly, "}")
		return nil, nil
	case r == ',':
		l.emit(TokenComma, ",")
		return nil, nil
	case r == '|':
		return l.bar, nil
	case r == '!', r == ';':
		l.emit(TokenName, string(r))
		return nil, nil
	case r == '.':
		return l.period, nil
	case unicode.IsDigit(r):
		var b strings.Builder
		b.WriteRune(r)
		if r == '0' {
			return l.integerZero(&b), nil
		}
		return l.integerDecimal(&b), nil
	case unicode.IsUpper(r), r == '_':
		var b strings.Builder
		b.WriteRune(r)
		return l.variable(&b), nil
	case unicode.IsLetter(r):
		var b strings.Builder
		b.WriteRune(r)
		return l.letterName(&b), nil
	case isGraphic(r):
		var b strings.Builder
		b.WriteRune(r)
		return l.graphic(&b), nil
	case r == '\'':
		var b strings.Builder
		return l.quoted('\'', TokenQuoted, &b), nil
	case r == '"':
		var b strings.Builder
		return l.quoted('"', TokenDoubleQuoted, &b), nil
	default:
		return nil, UnexpectedRuneError{Rune: r}
	}
}

func (l *Lexer) singleLineComment(r rune) (lexState, error) {
	switch r {
	case etx:
		return l.init(r)
	case '\n':
		return l.init, nil
	default:
		return l.singleLineComment, nil
	}
}

func (l *Lexer) slash(r rune) (lexState, error) {
	if r == '*' {
		l.layout = true
		return l.blockComment, nil
	}
	var b strings.Builder
	b.WriteRune('/')
	return l.graphic(&b)(r)
}

func (l *Lexer) blockComment(r rune) (lexState, error) {
	switch r {
	case etx:
		return nil, ErrInsufficient
	case '*':
		return l.blockCommentStar, nil
	default:
		return l.blockComment, nil
	}
}

func (l *Lexer) blockCommentStar(r rune) (lexState, error) {
	switch r {
	case etx:
		return nil, ErrInsufficient
	case '/':
		return l.init, nil
	case '*':
		return l.blockCommentStar, nil
	default:
		return l.blockComment, nil
	}
}

func (l *Lexer) openList(r rune) (lexState, error) {
	if r == ']' {
		l.emit(TokenName, "[]")
		return nil, nil
	}
	l.backup(r)
	l.emit(TokenOpenList, "[")
	return nil, nil
}

func (l *Lexer) openCurly(r rune) (lexState, error) {
	if r == '}' {
		l.emit(TokenName, "{}")
		return nil, nil
	}
	l.backup(r)
	l.emit(TokenOpenCurly, "{")
	return nil, nil
}

func (l *Lexer) bar(r rune) (lexState, error) {
	if r == '|' {
		l.emit(TokenName, "||")
		return nil, nil
	}
	l.backup(r)
	l.emit(TokenBar, "|")
	return nil, nil
}

func (l *Lexer) period(r rune) (lexState, error) {
	switch {
	case r == etx, r == '%', unicode.IsSpace(r):
		l.backup(r)
		l.emit(TokenEnd, ".")
		return nil, nil
	default:
		var b strings.Builder
		b.WriteRune('.')
		return l.graphic(&b)(r)
	}
}

func (l *Lexer) letterName(b *strings.Builder) lexState {
	return func(r rune) (lexState, error) {
		if isAlphanumeric(r) {
			b.WriteRune(r)
			return l.letterName(b), nil
		}
		l.backup(r)
		l.emit(TokenName, b.String())
		return nil, nil
	}
}

func (l *Lexer) variable(b *strings.Builder) lexState {
	return func(r rune) (lexState, error) {
		if isAlphanumeric(r) {
			b.WriteRune(r)
			return l.variable(b), nil
		}
		l.backup(r)
		l.emit(TokenVariable, b.String())
		return nil, nil
	}
}

func (l *Lexer) graphic(b *strings.Builder) lexState {
	return func(r rune) (lexState, error) {
		if isGraphic(r) {
			b.WriteRune(r)
			return l.graphic(b), nil
		}
		l.backup(r)
		l.emit(TokenName, b.String())
		return nil, nil
	}
}

// quoted reads a quoted atom or a double-quoted string. Val is the text with
// the escape sequences decoded.
func (l *Lexer) quoted(quote rune, kind TokenKind, b *strings.Builder) lexState {
	return func(r rune) (lexState, error) {
		switch r {
		case etx:
			return nil, ErrInsufficient
		case quote:
			return l.quotedQuote(quote, kind, b), nil
		case '\\':
			return l.escape(quote, kind, b), nil
		default:
			b.WriteRune(r)
			return l.quoted(quote, kind, b), nil
		}
	}
}

func (l *Lexer) quotedQuote(quote rune, kind TokenKind, b *strings.Builder) lexState {
	return func(r rune) (lexState, error) {
		if r == quote {
			b.WriteRune(r)
			return l.quoted(quote, kind, b), nil
		}
		l.backup(r)
		l.emit(kind, b.String())
		return nil, nil
	}
}

var escapes = map[rune]rune{
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'`':  '`',
}

func (l *Lexer) escape(quote rune, kind TokenKind, b *strings.Builder) lexState {
	return func(r rune) (lexState, error) {
		switch {
		case r == etx:
			return nil, ErrInsufficient
		case r == '\n':
			return l.quoted(quote, kind, b), nil
		case r == 'x':
			var code strings.Builder
			return l.escapeCode(quote, kind, b, &code, 16), nil
		case isOctal(r):
			var code strings.Builder
			code.WriteRune(r)
			return l.escapeCode(quote, kind, b, &code, 8), nil
		}
		e, ok := escapes[r]
		if !ok {
			return nil, UnexpectedRuneError{Rune: r}
		}
		b.WriteRune(e)
		return l.quoted(quote, kind, b), nil
	}
}

// escapeCode reads the digits of \xHH\ or \NNN\.
func (l *Lexer) escapeCode(quote rune, kind TokenKind, b, code *strings.Builder, base int) lexState {
	return func(r rune) (lexState, error) {
		switch {
		case r == etx:
			return nil, ErrInsufficient
		case r == '\\':
			n, err := strconv.ParseInt(code.String(), base, 32)
			if err != nil {
				return nil, UnexpectedRuneError{Rune: r}
			}
			b.WriteRune(rune(n))
			return l.quoted(quote, kind, b), nil
		case base == 16 && isHex(r), base == 8 && isOctal(r):
			code.WriteRune(r)
			return l.escapeCode(quote, kind, b, code, base), nil
		default:
			return nil, UnexpectedRuneError{Rune: r}
		}
	}
}

func (l *Lexer) integerZero(b *strings.Builder) lexState {
	return func(r rune) (lexState, error) {
		switch {
		case r == '\'':
			return l.charCode, nil
		case r == 'x':
			return l.prefixed(b, 'x', isHex), nil
		case r == 'o':
			return l.prefixed(b, 'o', isOctal), nil
		case r == 'b':
			return l.prefixed(b, 'b', isBinary), nil
		default:
			return l.integerDecimal(b)(r)
		}
	}
}

// prefixed reads an integer in 0x, 0o, or 0b notation.
func (l *Lexer) prefixed(b *strings.Builder, prefix rune, digit func(rune) bool) lexState {
	return func(r rune) (lexState, error) {
		if !digit(r) {
			if b.Len() > 1 {
				l.backup(r)
				l.emit(TokenInteger, b.String())
				return nil, nil
			}
			// 0 followed by a name such as 0xyz.
			l.backup(r)
			l.emit(TokenInteger, "0")
			var name strings.Builder
			name.WriteRune(prefix)
			return l.letterName(&name), nil
		}
		if b.Len() == 1 {
			b.WriteRune(prefix)
		}
		b.WriteRune(r)
		return l.prefixed(b, prefix, digit), nil
	}
}

func (l *Lexer) charCode(r rune) (lexState, error) {
	switch r {
	case etx:
		return nil, ErrInsufficient
	case '\\':
		return func(r rune) (lexState, error) {
			if r == etx {
				return nil, ErrInsufficient
			}
			e, ok := escapes[r]
			if !ok {
				return nil, UnexpectedRuneError{Rune: r}
			}
			l.emit(TokenInteger, strconv.Itoa(int(e)))
			return nil, nil
		}, nil
	case '\'':
		return func(r rune) (lexState, error) {
			if r != '\'' {
				return nil, UnexpectedRuneError{Rune: r}
			}
			l.emit(TokenInteger, strconv.Itoa('\''))
			return nil, nil
		}, nil
	default:
		l.emit(TokenInteger, strconv.Itoa(int(r)))
		return nil, nil
	}
}

func (l *Lexer) integerDecimal(b *strings.Builder) lexState {
	return func(r rune) (lexState, error) {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			return l.integerDecimal(b), nil
		case r == '.':
			return l.fraction(b), nil
		default:
			l.backup(r)
			l.emit(TokenInteger, b.String())
			return nil, nil
		}
	}
}

// fraction decides whether the dot after an integer starts a fraction or ends the clause.
func (l *Lexer) fraction(b *strings.Builder) lexState {
	return func(r rune) (lexState, error) {
		if !unicode.IsDigit(r) {
			l.backup(r)
			l.emit(TokenInteger, b.String())
			return l.period, nil
		}
		b.WriteRune('.')
		b.WriteRune(r)
		return l.floatMantissa(b), nil
	}
}

func (l *Lexer) floatMantissa(b *strings.Builder) lexState {
	return func(r rune) (lexState, error) {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			return l.floatMantissa(b), nil
		case r == 'e', r == 'E':
			b.WriteRune(r)
			return l.floatExponentSign(b), nil
		default:
			l.backup(r)
			l.emit(TokenFloat, b.String())
			return nil, nil
		}
	}
}

func (l *Lexer) floatExponentSign(b *strings.Builder) lexState {
	return func(r rune) (lexState, error) {
		switch {
		case r == '+', r == '-', unicode.IsDigit(r):
			b.WriteRune(r)
			return l.floatExponent(b), nil
		case r == etx:
			return nil, ErrInsufficient
		default:
			return nil, UnexpectedRuneError{Rune: r}
		}
	}
}

func (l *Lexer) floatExponent(b *strings.Builder) lexState {
	return func(r rune) (lexState, error) {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
			return l.floatExponent(b), nil
		}
		l.backup(r)
		l.emit(TokenFloat, b.String())
		return nil, nil
	}
}

func isAlphanumeric(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isGraphic(r rune) bool {
	return strings.ContainsRune("#$&*+-./:<=>?@^~\\", r)
}

func isOctal(r rune) bool {
	return '0' <= r && r <= '7'
}

func isHex(r rune) bool {
	return strings.ContainsRune("0123456789abcdefABCDEF", r)
}

func isBinary(r rune) bool {
	return r == '0' || r == '1'
}
