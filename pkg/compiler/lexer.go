package compiler

import "unicode"

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"if":        IF,
	"elseif":    ELSEIF,
	"else":      ELSE,
	"end":       END,
	"for":       FOR,
	"while":     WHILE,
	"break":     BREAK,
	"continue":  CONTINUE,
	"switch":    SWITCH,
	"case":      CASE,
	"otherwise": OTHERWISE,
	"try":       TRY,
	"catch":     CATCH,
	"function":  FUNCTION,
	"return":    RETURN,
	"global":    GLOBAL,
}

// Lexer holds all mutable state for a single scanning pass over src.
//
// Three pieces of context make the scan non-regular:
//   - last: the category of the last significant token, which decides
//     whether a quote is a transpose or opens a string;
//   - spaceBefore: whether whitespace separated the last token from the
//     current position (a quote after a space is always a string open, and
//     a space between two values inside a matrix separates elements);
//   - brackets: the stack of open ( [ { delimiters, which decides whether a
//     newline terminates a statement, separates matrix rows, or is plain
//     formatting inside a parenthesised expression.
type Lexer struct {
	src         []rune
	pos         int
	line        int // current 1-based source line
	col         int // current 1-based source column
	last        TokenType
	spaceBefore bool
	brackets    []rune
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, col: 1, last: EOF, spaceBefore: true}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peekAt returns the rune at the given offset from the current position.
func (l *Lexer) peekAt(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// inMatrix reports whether the innermost open bracket is [ or {.
func (l *Lexer) inMatrix() bool {
	if len(l.brackets) == 0 {
		return false
	}
	b := l.brackets[len(l.brackets)-1]
	return b == '[' || b == '{'
}

// inParens reports whether the innermost open bracket is (.
func (l *Lexer) inParens() bool {
	return len(l.brackets) > 0 && l.brackets[len(l.brackets)-1] == '('
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentPart(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

// startsValue reports whether the rune at the current position begins a new
// value expression. Only consulted inside [ ] or { }, to decide whether a
// skipped space was an implicit element separator. A leading + or - counts
// only when glued to its operand, so that [1 -5] is two elements while
// [1 - 5] is a subtraction.
func (l *Lexer) startsValue() bool {
	ch := l.peek()
	switch {
	case isIdentStart(ch), unicode.IsDigit(ch):
		return true
	case ch == '.' && unicode.IsDigit(l.peekAt(1)):
		return true
	case ch == '\'' || ch == '(' || ch == '[' || ch == '{' || ch == '@' || ch == '~':
		return true
	case ch == '+' || ch == '-':
		nxt := l.peekAt(1)
		return nxt != 0 && !unicode.IsSpace(nxt) &&
			(isIdentStart(nxt) || unicode.IsDigit(nxt) || nxt == '.' || nxt == '(' || nxt == '[' || nxt == '{' || nxt == '@')
	}
	return false
}

// skipLineComment discards everything from the current position to end-of-line.
// The opening '%' must already have been consumed.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

// skipBlockComment discards everything up to and including the closing %}.
// The opening %{ must already have been consumed.
func (l *Lexer) skipBlockComment(startLine, startCol int) error {
	for l.pos < len(l.src) {
		if l.peek() == '%' && l.peekAt(1) == '}' {
			l.advance()
			l.advance()
			return nil
		}
		l.advance()
	}
	return lexErrorf(startLine, startCol, "unterminated block comment")
}

// skipContinuation discards a ... marker and the rest of the line, including
// the newline, so the statement continues on the next line.
func (l *Lexer) skipContinuation() {
	l.advance() // .
	l.advance() // .
	l.advance() // .
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
	if l.pos < len(l.src) {
		l.advance() // the newline itself
	}
}

// scanIdent collects a full identifier or keyword token.
func (l *Lexer) scanIdent() Token {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := IDENT
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Line: line, Col: col}
}

// scanNumber collects a numeric literal: integer and decimal parts, an
// optional exponent, and an optional imaginary suffix i/j that is kept in
// the lexeme for the parser to flag.
func (l *Lexer) scanNumber() (Token, error) {
	line, col := l.line, l.col
	start := l.pos

	for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && unicode.IsDigit(l.peekAt(1)) {
		l.advance()
		for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
			l.advance()
		}
	} else if l.peek() == '.' && !(l.peekAt(1) == '.' && l.peekAt(2) == '.') && !l.isOperatorDot() {
		// trailing decimal point: 5.
		l.advance()
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		off := 1
		if l.peekAt(1) == '+' || l.peekAt(1) == '-' {
			off = 2
		}
		if unicode.IsDigit(l.peekAt(off)) {
			for i := 0; i < off; i++ {
				l.advance()
			}
			for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
				l.advance()
			}
		}
	}

	// imaginary suffix, only when not the start of an identifier (3i vs 3in)
	if (l.peek() == 'i' || l.peek() == 'j') && !isIdentPart(l.peekAt(1)) {
		l.advance()
	}

	lexeme := string(l.src[start:l.pos])
	if lexeme == "." {
		return Token{}, lexErrorf(line, col, "invalid numeric literal %q", lexeme)
	}
	return Token{Type: NUMBER, Lexeme: lexeme, Line: line, Col: col}, nil
}

// isOperatorDot reports whether the dot at the current position starts an
// element-wise operator such as .* or .' rather than a decimal point.
func (l *Lexer) isOperatorDot() bool {
	if l.peek() != '.' {
		return false
	}
	switch l.peekAt(1) {
	case '*', '/', '\\', '^', '\'':
		return true
	}
	return false
}

// scanString collects a string literal '...'. A doubled quote inside the
// literal is an escaped quote. The literal may not span lines.
func (l *Lexer) scanString() (Token, error) {
	line, col := l.line, l.col
	l.advance() // opening '
	var val []rune
	for {
		if l.pos >= len(l.src) || l.peek() == '\n' {
			return Token{}, lexErrorf(line, col, "unterminated string literal")
		}
		r := l.advance()
		if r == '\'' {
			if l.peek() == '\'' { // escaped quote
				val = append(val, '\'')
				l.advance()
				continue
			}
			break
		}
		val = append(val, r)
	}
	return Token{Type: STRING, Lexeme: string(val), Line: line, Col: col}, nil
}

// nextToken skips whitespace, comments and continuations, then returns the
// next token. Newlines are statement separators at bracket depth zero, row
// separators inside [ ] or { }, and formatting inside ( ).
func (l *Lexer) nextToken() (Token, error) {
	for {
		ch := l.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' {
			l.advance()
			l.spaceBefore = true
			continue
		}
		if ch == '\n' {
			line, col := l.line, l.col
			l.advance()
			l.spaceBefore = true
			if l.inParens() {
				continue
			}
			return l.emit(Token{Type: NEWLINE, Lexeme: "\n", Line: line, Col: col}), nil
		}
		if ch == '%' {
			line, col := l.line, l.col
			l.advance()
			if l.peek() == '{' {
				l.advance()
				if err := l.skipBlockComment(line, col); err != nil {
					return Token{}, err
				}
			} else {
				l.skipLineComment()
			}
			l.spaceBefore = true
			continue
		}
		if ch == '.' && l.peekAt(1) == '.' && l.peekAt(2) == '.' {
			l.skipContinuation()
			l.spaceBefore = true
			continue
		}
		break
	}

	if l.pos >= len(l.src) {
		return l.emit(Token{Type: EOF, Line: l.line, Col: l.col}), nil
	}

	// Implicit element separator: inside a matrix or cell literal a space
	// between two values is itself significant.
	if l.inMatrix() && l.spaceBefore && l.last.isValueEnd() && l.startsValue() {
		return l.emit(Token{Type: COMMA, Lexeme: " ", Line: l.line, Col: l.col}), nil
	}

	ch := l.peek()
	line, col := l.line, l.col

	if isIdentStart(ch) {
		return l.emit(l.scanIdent()), nil
	}
	if unicode.IsDigit(ch) || (ch == '.' && unicode.IsDigit(l.peekAt(1))) {
		tok, err := l.scanNumber()
		if err != nil {
			return Token{}, err
		}
		return l.emit(tok), nil
	}

	// Quote disambiguation: transpose only directly after a value-producing
	// token, with no intervening space; otherwise a string opens.
	if ch == '\'' {
		if l.last.isValueEnd() && !l.spaceBefore {
			l.advance()
			return l.emit(Token{Type: QUOTE, Lexeme: "'", Line: line, Col: col}), nil
		}
		tok, err := l.scanString()
		if err != nil {
			return Token{}, err
		}
		return l.emit(tok), nil
	}

	l.advance() // consume the character before the switch
	two := func(tt TokenType, lexeme string) Token {
		l.advance()
		return Token{Type: tt, Lexeme: lexeme, Line: line, Col: col}
	}
	one := func(tt TokenType) Token {
		return Token{Type: tt, Lexeme: string(ch), Line: line, Col: col}
	}

	switch ch {
	case '(':
		l.brackets = append(l.brackets, '(')
		return l.emit(one(LPAREN)), nil
	case '[':
		l.brackets = append(l.brackets, '[')
		return l.emit(one(LBRACKET)), nil
	case '{':
		l.brackets = append(l.brackets, '{')
		return l.emit(one(LBRACE)), nil
	case ')', ']', '}':
		if len(l.brackets) > 0 {
			l.brackets = l.brackets[:len(l.brackets)-1]
		}
		switch ch {
		case ')':
			return l.emit(one(RPAREN)), nil
		case ']':
			return l.emit(one(RBRACKET)), nil
		}
		return l.emit(one(RBRACE)), nil
	case ',':
		return l.emit(one(COMMA)), nil
	case ';':
		return l.emit(one(SEMICOLON)), nil
	case ':':
		return l.emit(one(COLON)), nil
	case '@':
		return l.emit(one(AT)), nil
	case '+':
		return l.emit(one(PLUS)), nil
	case '-':
		return l.emit(one(MINUS)), nil
	case '*':
		return l.emit(one(STAR)), nil
	case '/':
		return l.emit(one(SLASH)), nil
	case '\\':
		return l.emit(one(BACKSLASH)), nil
	case '^':
		return l.emit(one(CARET)), nil
	case '.':
		switch l.peek() {
		case '*':
			return l.emit(two(DOT_STAR, ".*")), nil
		case '/':
			return l.emit(two(DOT_SLASH, "./")), nil
		case '\\':
			return l.emit(two(DOT_BACKSLASH, ".\\")), nil
		case '^':
			return l.emit(two(DOT_CARET, ".^")), nil
		case '\'':
			return l.emit(two(DOT_QUOTE, ".'")), nil
		}
		return l.emit(one(DOT)), nil
	case '=':
		if l.peek() == '=' {
			return l.emit(two(EQ, "==")), nil
		}
		return l.emit(one(ASSIGN)), nil
	case '~':
		if l.peek() == '=' {
			return l.emit(two(NE, "~=")), nil
		}
		return l.emit(one(NOT)), nil
	case '<':
		if l.peek() == '=' {
			return l.emit(two(LE, "<=")), nil
		}
		return l.emit(one(LT)), nil
	case '>':
		if l.peek() == '=' {
			return l.emit(two(GE, ">=")), nil
		}
		return l.emit(one(GT)), nil
	case '&':
		if l.peek() == '&' {
			return l.emit(two(ANDAND, "&&")), nil
		}
		return l.emit(one(AND)), nil
	case '|':
		if l.peek() == '|' {
			return l.emit(two(OROR, "||")), nil
		}
		return l.emit(one(OR)), nil
	default:
		return Token{}, lexErrorf(line, col, "unexpected character %q", ch)
	}
}

// emit records the token as the last significant token and clears the
// pending-space flag.
func (l *Lexer) emit(tok Token) Token {
	l.last = tok.Type
	l.spaceBefore = false
	return tok
}

// Lex tokenizes src and returns all tokens including the final EOF token.
// It returns a *LexError on the first illegal character, unterminated string
// or unterminated block comment. Token order is strictly source order.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
