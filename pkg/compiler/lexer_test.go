package compiler

import (
	"errors"
	"testing"
)

func lexTypes(t *testing.T, src string) []TokenType {
	t.Helper()
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q) failed: %v", src, err)
	}
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func expectTypes(t *testing.T, src string, want ...TokenType) {
	t.Helper()
	got := lexTypes(t, src)
	if len(got) != len(want) {
		t.Fatalf("Lex(%q): got %v, want %v", src, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Lex(%q): token %d is %v, want %v (all: %v)", src, i, got[i], want[i], got)
		}
	}
}

func TestLexBasics(t *testing.T) {
	expectTypes(t, "x = 5;", IDENT, ASSIGN, NUMBER, SEMICOLON, EOF)
	expectTypes(t, "a == b ~= c", IDENT, EQ, IDENT, NE, IDENT, EOF)
	expectTypes(t, "y .* z .^ 2", IDENT, DOT_STAR, IDENT, DOT_CARET, NUMBER, EOF)
	expectTypes(t, "f(x, 2)", IDENT, LPAREN, IDENT, COMMA, NUMBER, RPAREN, EOF)
}

func TestLexNumbers(t *testing.T) {
	tests := []struct {
		src    string
		lexeme string
	}{
		{"42", "42"},
		{"3.75", "3.75"},
		{"1e-3", "1e-3"},
		{"2.5E+10", "2.5E+10"},
		{"5.", "5."},
		{".5", ".5"},
		{"3i", "3i"},
		{"4j", "4j"},
	}
	for _, tc := range tests {
		tokens, err := Lex(tc.src)
		if err != nil {
			t.Fatalf("Lex(%q) failed: %v", tc.src, err)
		}
		if tokens[0].Type != NUMBER || tokens[0].Lexeme != tc.lexeme {
			t.Errorf("Lex(%q) = %v %q, want NUMBER %q", tc.src, tokens[0].Type, tokens[0].Lexeme, tc.lexeme)
		}
	}
}

// The quote is a transpose directly after a value and a string open
// everywhere else.
func TestLexQuoteDisambiguation(t *testing.T) {
	expectTypes(t, "x'", IDENT, QUOTE, EOF)
	expectTypes(t, "A(1)'", IDENT, LPAREN, NUMBER, RPAREN, QUOTE, EOF)
	expectTypes(t, "[1 2]'", LBRACKET, NUMBER, COMMA, NUMBER, RBRACKET, QUOTE, EOF)
	expectTypes(t, "x''", IDENT, QUOTE, QUOTE, EOF)
	expectTypes(t, "'hello'", STRING, EOF)
	expectTypes(t, "x = 'hi'", IDENT, ASSIGN, STRING, EOF)
	// a space before the quote always opens a string
	expectTypes(t, "disp 'x'", IDENT, STRING, EOF)

	tokens, err := Lex("s = 'it''s'")
	if err != nil {
		t.Fatal(err)
	}
	if tokens[2].Lexeme != "it's" {
		t.Errorf("doubled quote: got %q, want %q", tokens[2].Lexeme, "it's")
	}
}

// Inside [ ] a space between values separates elements, but a spaced
// binary operator does not.
func TestLexImplicitSeparator(t *testing.T) {
	expectTypes(t, "[1 2 3]", LBRACKET, NUMBER, COMMA, NUMBER, COMMA, NUMBER, RBRACKET, EOF)
	expectTypes(t, "[1 -5]", LBRACKET, NUMBER, COMMA, MINUS, NUMBER, RBRACKET, EOF)
	expectTypes(t, "[1 - 5]", LBRACKET, NUMBER, MINUS, NUMBER, RBRACKET, EOF)
	expectTypes(t, "[1-5]", LBRACKET, NUMBER, MINUS, NUMBER, RBRACKET, EOF)
	expectTypes(t, "[a b]", LBRACKET, IDENT, COMMA, IDENT, RBRACKET, EOF)
	expectTypes(t, "[a' b]", LBRACKET, IDENT, QUOTE, COMMA, IDENT, RBRACKET, EOF)
	// no implicit separators inside nested parens
	expectTypes(t, "[f(1, 2)]", LBRACKET, IDENT, LPAREN, NUMBER, COMMA, NUMBER, RPAREN, RBRACKET, EOF)
}

// A newline ends the statement at depth zero, separates rows inside [ ],
// and is plain formatting inside ( ).
func TestLexNewlinePolicy(t *testing.T) {
	expectTypes(t, "a\nb", IDENT, NEWLINE, IDENT, EOF)
	expectTypes(t, "[1\n2]", LBRACKET, NUMBER, NEWLINE, NUMBER, RBRACKET, EOF)
	expectTypes(t, "f(1,\n2)", IDENT, LPAREN, NUMBER, COMMA, NUMBER, RPAREN, EOF)
}

func TestLexComments(t *testing.T) {
	expectTypes(t, "x = 1 % comment\ny = 2", IDENT, ASSIGN, NUMBER, NEWLINE, IDENT, ASSIGN, NUMBER, EOF)
	expectTypes(t, "%{\nblock\ncomment\n%}\nx", NEWLINE, IDENT, EOF)
}

func TestLexContinuation(t *testing.T) {
	expectTypes(t, "x = 1 + ...\n2", IDENT, ASSIGN, NUMBER, PLUS, NUMBER, EOF)
}

func TestLexErrors(t *testing.T) {
	for _, src := range []string{"'unterminated", "x = 'spans\nlines'", "%{ never closed", "x = $"} {
		_, err := Lex(src)
		if err == nil {
			t.Errorf("Lex(%q): expected error", src)
			continue
		}
		var lexErr *LexError
		if !errors.As(err, &lexErr) {
			t.Errorf("Lex(%q): error is %T, want *LexError", src, err)
		}
	}
}

func TestLexPositions(t *testing.T) {
	tokens, err := Lex("a = 1\nbb = 22")
	if err != nil {
		t.Fatal(err)
	}
	// bb starts line 2 col 1
	var bb Token
	for _, tok := range tokens {
		if tok.Lexeme == "bb" {
			bb = tok
		}
	}
	if bb.Line != 2 || bb.Col != 1 {
		t.Errorf("bb at line %d col %d, want 2:1", bb.Line, bb.Col)
	}
}
