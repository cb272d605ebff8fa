package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minicc.dev/compiler/pkg/token"
)

// tokenize drains a Lexer over src into a plain token slice, stopping
// once EOF is produced (EOF itself is not included).
func tokenize(t *testing.T, src string) []token.Token {
	t.Helper()
	lx, err := NewLexer(strings.NewReader(src))
	require.NoError(t, err)

	var toks []token.Token
	for {
		tok, err := lx.Next()
		require.NoError(t, err)
		if tok.Kind == token.EOF {
			break
		}
		toks = append(toks, tok)
	}
	return toks
}

type tokenCase struct {
	Input    string
	Expected []token.Token
}

func TestNext_Operators(t *testing.T) {
	tests := []tokenCase{
		{
			Input: ` 123 + 2   31 - 12 `,
			Expected: []token.Token{
				{Kind: token.IntLit, Lexeme: "123"},
				{Kind: token.Plus, Lexeme: "+"},
				{Kind: token.IntLit, Lexeme: "2"},
				{Kind: token.IntLit, Lexeme: "31"},
				{Kind: token.Minus, Lexeme: "-"},
				{Kind: token.IntLit, Lexeme: "12"},
			},
		},
		{
			Input: `<= == != >= && || ++ --`,
			Expected: []token.Token{
				{Kind: token.Leq, Lexeme: "<="},
				{Kind: token.Eq, Lexeme: "=="},
				{Kind: token.Neq, Lexeme: "!="},
				{Kind: token.Geq, Lexeme: ">="},
				{Kind: token.LogicAnd, Lexeme: "&&"},
				{Kind: token.LogicOr, Lexeme: "||"},
				{Kind: token.PlusPlus, Lexeme: "++"},
				{Kind: token.MinusMinus, Lexeme: "--"},
			},
		},
		{
			Input: `{ } ( ) [ ] ; , :`,
			Expected: []token.Token{
				{Kind: token.LBrace, Lexeme: "{"},
				{Kind: token.RBrace, Lexeme: "}"},
				{Kind: token.LParen, Lexeme: "("},
				{Kind: token.RParen, Lexeme: ")"},
				{Kind: token.LBracket, Lexeme: "["},
				{Kind: token.RBracket, Lexeme: "]"},
				{Kind: token.Semi, Lexeme: ";"},
				{Kind: token.Comma, Lexeme: ","},
				{Kind: token.Colon, Lexeme: ":"},
			},
		},
	}

	for _, test := range tests {
		got := tokenize(t, test.Input)
		require.Equal(t, len(test.Expected), len(got))
		for i, want := range test.Expected {
			assert.Equal(t, want.Kind, got[i].Kind)
			assert.Equal(t, want.Lexeme, got[i].Lexeme)
		}
	}
}

func TestNext_KeywordsAndIdents(t *testing.T) {
	got := tokenize(t, `int void if else while for switch case break continue return foo_1 _bar`)
	want := []token.Kind{
		token.KwInt, token.KwVoid, token.KwIf, token.KwElse, token.KwWhile, token.KwFor,
		token.KwSwitch, token.KwCase, token.KwBreak, token.KwContinue, token.KwReturn,
		token.Ident, token.Ident,
	}
	require.Equal(t, len(want), len(got))
	for i, k := range want {
		assert.Equal(t, k, got[i].Kind)
	}
	assert.Equal(t, "foo_1", got[11].Lexeme)
	assert.Equal(t, "_bar", got[12].Lexeme)
}

func TestNext_NumberLiterals(t *testing.T) {
	got := tokenize(t, `0x1F 017 0 42`)
	require.Len(t, got, 4)
	assert.Equal(t, "31", got[0].Lexeme)
	assert.Equal(t, "15", got[1].Lexeme)
	assert.Equal(t, "0", got[2].Lexeme)
	assert.Equal(t, "42", got[3].Lexeme)
}

func TestNext_LineCounting(t *testing.T) {
	src := "int a;\nint b; // trailing comment\nint /* block\nspanning lines */ c;\n"
	got := tokenize(t, src)

	var lines []int
	for _, tok := range got {
		lines = append(lines, tok.Line)
	}
	// "int a;" on line 1, "int b;" on line 2, "int" on line 3, then the
	// block comment's embedded newline puts "c" + ";" on line 4.
	assert.Equal(t, []int{1, 1, 1, 2, 2, 2, 3, 4, 4}, lines)
}

func TestNext_UnknownCharacter(t *testing.T) {
	got := tokenize(t, `a @ b`)
	require.Len(t, got, 3)
	assert.Equal(t, token.Unknown, got[1].Kind)
	assert.Equal(t, "@", got[1].Lexeme)
}

func TestNext_EOFIsIdempotent(t *testing.T) {
	lx, err := NewLexer(strings.NewReader("x"))
	require.NoError(t, err)

	tok, err := lx.Next()
	require.NoError(t, err)
	assert.Equal(t, token.Ident, tok.Kind)

	for i := 0; i < 3; i++ {
		tok, err = lx.Next()
		require.NoError(t, err)
		assert.Equal(t, token.EOF, tok.Kind)
	}
}
