package syntax

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_Next(t *testing.T) {
	tests := []struct {
		title  string
		input  string
		tokens []Token
		err    error
	}{
		{
			title: "clause",
			input: "append(nil,L,L).",
			tokens: []Token{
				{Kind: TokenName, Val: "append"},
				{Kind: TokenOpenCT, Val: "("},
				{Kind: TokenName, Val: "nil"},
				{Kind: TokenComma, Val: ","},
				{Kind: TokenVariable, Val: "L"},
				{Kind: TokenComma, Val: ","},
				{Kind: TokenVariable, Val: "L"},
				{Kind: TokenClose, Val: ")"},
				{Kind: TokenEnd, Val: "."},
			},
		},
		{
			title: "layout",
			input: "p(X, Y), p (Y).",
			tokens: []Token{
				{Kind: TokenName, Val: "p"},
				{Kind: TokenOpenCT, Val: "("},
				{Kind: TokenVariable, Val: "X"},
				{Kind: TokenComma, Val: ","},
				{Kind: TokenVariable, Val: "Y", Layout: true},
				{Kind: TokenClose, Val: ")"},
				{Kind: TokenComma, Val: ","},
				{Kind: TokenName, Val: "p", Layout: true},
				{Kind: TokenOpen, Val: "(", Layout: true},
				{Kind: TokenVariable, Val: "Y"},
				{Kind: TokenClose, Val: ")"},
				{Kind: TokenEnd, Val: "."},
			},
		},
		{
			title: "comments",
			input: "% line\nfoo /* block\n * comment */ bar.",
			tokens: []Token{
				{Kind: TokenName, Val: "foo", Layout: true},
				{Kind: TokenName, Val: "bar", Layout: true},
				{Kind: TokenEnd, Val: "."},
			},
		},
		{
			title: "graphic",
			input: "X =.. Y, a:-b, 1/2.",
			tokens: []Token{
				{Kind: TokenVariable, Val: "X"},
				{Kind: TokenName, Val: "=..", Layout: true},
				{Kind: TokenVariable, Val: "Y", Layout: true},
				{Kind: TokenComma, Val: ","},
				{Kind: TokenName, Val: "a", Layout: true},
				{Kind: TokenName, Val: ":-"},
				{Kind: TokenName, Val: "b"},
				{Kind: TokenComma, Val: ","},
				{Kind: TokenInteger, Val: "1", Layout: true},
				{Kind: TokenName, Val: "/"},
				{Kind: TokenInteger, Val: "2"},
				{Kind: TokenEnd, Val: "."},
			},
		},
		{
			title: "solo and punctuation",
			input: "[] {} [a|T] {x} !; a||b.",
			tokens: []Token{
				{Kind: TokenName, Val: "[]"},
				{Kind: TokenName, Val: "{}", Layout: true},
				{Kind: TokenOpenList, Val: "[", Layout: true},
				{Kind: TokenName, Val: "a"},
				{Kind: TokenBar, Val: "|"},
				{Kind: TokenVariable, Val: "T"},
				{Kind: TokenCloseList, Val: "]"},
				{Kind: TokenOpenCurly, Val: "{", Layout: true},
				{Kind: TokenName, Val: "x"},
				{Kind: TokenCloseCurly, Val: "}"},
				{Kind: TokenName, Val: "!", Layout: true},
				{Kind: TokenName, Val: ";"},
				{Kind: TokenName, Val: "a", Layout: true},
				{Kind: TokenName, Val: "||"},
				{Kind: TokenName, Val: "b"},
				{Kind: TokenEnd, Val: "."},
			},
		},
		{
			title: "variables",
			input: "_ _G1 Foo_bar.",
			tokens: []Token{
				{Kind: TokenVariable, Val: "_"},
				{Kind: TokenVariable, Val: "_G1", Layout: true},
				{Kind: TokenVariable, Val: "Foo_bar", Layout: true},
				{Kind: TokenEnd, Val: "."},
			},
		},
		{
			title: "numbers",
			input: "0 42 3.14 1.0e10 2.5E-3 0x1F 0o17 0b101 0'a 0'\\n 0''' .",
			tokens: []Token{
				{Kind: TokenInteger, Val: "0"},
				{Kind: TokenInteger, Val: "42", Layout: true},
				{Kind: TokenFloat, Val: "3.14", Layout: true},
				{Kind: TokenFloat, Val: "1.0e10", Layout: true},
				{Kind: TokenFloat, Val: "2.5E-3", Layout: true},
				{Kind: TokenInteger, Val: "0x1F", Layout: true},
				{Kind: TokenInteger, Val: "0o17", Layout: true},
				{Kind: TokenInteger, Val: "0b101", Layout: true},
				{Kind: TokenInteger, Val: "97", Layout: true},
				{Kind: TokenInteger, Val: "10", Layout: true},
				{Kind: TokenInteger, Val: "39", Layout: true},
				{Kind: TokenEnd, Val: ".", Layout: true},
			},
		},
		{
			title: "integer before end",
			input: "X = 1.",
			tokens: []Token{
				{Kind: TokenVariable, Val: "X"},
				{Kind: TokenName, Val: "=", Layout: true},
				{Kind: TokenInteger, Val: "1", Layout: true},
				{Kind: TokenEnd, Val: "."},
			},
		},
		{
			title: "zero followed by a name",
			input: "0xyz",
			tokens: []Token{
				{Kind: TokenInteger, Val: "0"},
				{Kind: TokenName, Val: "xyz"},
			},
		},
		{
			title: "quoted",
			input: `'hello world' 'don''t' 'a\nb' '\x41\\101\' "ab"`,
			tokens: []Token{
				{Kind: TokenQuoted, Val: "hello world"},
				{Kind: TokenQuoted, Val: "don't", Layout: true},
				{Kind: TokenQuoted, Val: "a\nb", Layout: true},
				{Kind: TokenQuoted, Val: "AA", Layout: true},
				{Kind: TokenDoubleQuoted, Val: "ab", Layout: true},
			},
		},
		{
			title: "continued line",
			input: "'a\\\nb'",
			tokens: []Token{
				{Kind: TokenQuoted, Val: "ab"},
			},
		},
		{title: "unterminated quote", input: "'abc", err: ErrInsufficient},
		{title: "unterminated comment", input: "/* abc", err: ErrInsufficient},
		{title: "unknown escape", input: `'\q'`, err: UnexpectedRuneError{Rune: 'q'}},
		{title: "unexpected rune", input: "a `", tokens: []Token{{Kind: TokenName, Val: "a"}}, err: UnexpectedRuneError{Rune: '`'}},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			l := NewLexer(strings.NewReader(tt.input))
			var got []Token
			for {
				tok, err := l.Next()
				if err != nil {
					require.Error(t, tt.err)
					assert.True(t, errors.Is(err, tt.err), "got %v", err)
					break
				}
				if tok.Kind == TokenEOS {
					require.NoError(t, tt.err)
					break
				}
				got = append(got, tok)
			}
			assert.Equal(t, tt.tokens, got)
		})
	}
}

func TestToken_String(t *testing.T) {
	assert.Equal(t, "<name foo>", Token{Kind: TokenName, Val: "foo"}.String())
	assert.Equal(t, "<open CT (>", Token{Kind: TokenOpenCT, Val: "("}.String())
	assert.Equal(t, `unexpected char: '\x00'`, UnexpectedRuneError{}.Error())
}
