package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF     TokenType = iota // sentinel: end of input
	NEWLINE                  // statement separator inferred from a line break

	// Literals
	IDENT  // variable / function name
	NUMBER // numeric literal, including 1e-3 and the imaginary suffix 3i
	STRING // string literal '...'

	// Keywords
	IF        // "if"
	ELSEIF    // "elseif"
	ELSE      // "else"
	END       // "end" (block closer, or last-index inside a subscript)
	FOR       // "for"
	WHILE     // "while"
	BREAK     // "break"
	CONTINUE  // "continue"
	SWITCH    // "switch"
	CASE      // "case"
	OTHERWISE // "otherwise"
	TRY       // "try"
	CATCH     // "catch"
	FUNCTION  // "function"
	RETURN    // "return"
	GLOBAL    // "global"

	// Paired delimiters
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	LBRACE   // {
	RBRACE   // }

	// Punctuation
	COMMA     // , (also emitted for a significant space inside [ ] or { })
	SEMICOLON // ;
	COLON     // :
	DOT       // .
	AT        // @

	// Arithmetic operators
	PLUS          // +
	MINUS         // -
	STAR          // *  matrix multiply
	SLASH         // /  matrix right-divide
	BACKSLASH     // \  matrix left-divide
	CARET         // ^  matrix power
	DOT_STAR      // .* element-wise multiply
	DOT_SLASH     // ./ element-wise divide
	DOT_BACKSLASH // .\ element-wise left-divide
	DOT_CARET     // .^ element-wise power
	QUOTE         // '  conjugate transpose (context-resolved against string open)
	DOT_QUOTE     // .' plain transpose

	// Assignment / comparison  (order matters: ASSIGN before EQ)
	ASSIGN // =
	EQ     // ==
	NE     // ~=
	LT     // <
	GT     // >
	LE     // <=
	GE     // >=

	// Logical operators
	AND    // &  element-wise and
	OR     // |  element-wise or
	ANDAND // && short-circuit and
	OROR   // || short-circuit or
	NOT    // ~  logical negation
)

var tokenNames = [...]string{
	EOF:           "EOF",
	NEWLINE:       "NEWLINE",
	IDENT:         "IDENT",
	NUMBER:        "NUMBER",
	STRING:        "STRING",
	IF:            "IF",
	ELSEIF:        "ELSEIF",
	ELSE:          "ELSE",
	END:           "END",
	FOR:           "FOR",
	WHILE:         "WHILE",
	BREAK:         "BREAK",
	CONTINUE:      "CONTINUE",
	SWITCH:        "SWITCH",
	CASE:          "CASE",
	OTHERWISE:     "OTHERWISE",
	TRY:           "TRY",
	CATCH:         "CATCH",
	FUNCTION:      "FUNCTION",
	RETURN:        "RETURN",
	GLOBAL:        "GLOBAL",
	LPAREN:        "LPAREN",
	RPAREN:        "RPAREN",
	LBRACKET:      "LBRACKET",
	RBRACKET:      "RBRACKET",
	LBRACE:        "LBRACE",
	RBRACE:        "RBRACE",
	COMMA:         "COMMA",
	SEMICOLON:     "SEMICOLON",
	COLON:         "COLON",
	DOT:           "DOT",
	AT:            "AT",
	PLUS:          "PLUS",
	MINUS:         "MINUS",
	STAR:          "STAR",
	SLASH:         "SLASH",
	BACKSLASH:     "BACKSLASH",
	CARET:         "CARET",
	DOT_STAR:      "DOT_STAR",
	DOT_SLASH:     "DOT_SLASH",
	DOT_BACKSLASH: "DOT_BACKSLASH",
	DOT_CARET:     "DOT_CARET",
	QUOTE:         "QUOTE",
	DOT_QUOTE:     "DOT_QUOTE",
	ASSIGN:        "ASSIGN",
	EQ:            "EQ",
	NE:            "NE",
	LT:            "LT",
	GT:            "GT",
	LE:            "LE",
	GE:            "GE",
	AND:           "AND",
	OR:            "OR",
	ANDAND:        "ANDAND",
	OROR:          "OROR",
	NOT:           "NOT",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer. Immutable once produced.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
	Col    int    // 1-based source column
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  line %d col %d", t.Type, t.Lexeme, t.Line, t.Col)
}

// isValueEnd reports whether a token of this type can end a value expression.
// Used for two context decisions: a quote directly after a value is a
// transpose, and a space between two values inside [ ] or { } separates
// elements.
func (tt TokenType) isValueEnd() bool {
	switch tt {
	case IDENT, NUMBER, STRING, RPAREN, RBRACKET, RBRACE, QUOTE, DOT_QUOTE, END:
		return true
	}
	return false
}
