package compiler

import (
	"strconv"
	"strings"
)

// Parser consumes the flat token slice produced by the Lexer and builds an
// AST by recursive descent with one token of lookahead (two where call
// syntax and multi-assignment need disambiguating).
//
// Grammar sketch:
//
//	program    = (statement sep*)* EOF
//	statement  = functionDef | if | for | while | switch | try | global
//	           | break | continue | return | command | assignment | expr
//	assignment = (IDENT | access | member | "[" IDENT+ "]") "=" expr
//	expr       = or
//	or         = and (("|" | "||") and)*
//	and        = cmp (("&" | "&&") cmp)*
//	cmp        = range (("==" | "~=" | "<" | ">" | "<=" | ">=") range)*
//	range      = add (":" add (":" add)?)?
//	add        = mul (("+" | "-") mul)*
//	mul        = unary (("*" | "/" | "\" | ".*" | "./" | ".\") unary)*
//	unary      = ("-" | "+" | "~") unary | power
//	power      = postfix (("^" | ".^") exponent)*
//	postfix    = primary ("(" args ")" | "{" args "}" | "." IDENT | "'" | ".'")*
//	primary    = NUMBER | STRING | IDENT | "end" | "(" expr ")"
//	           | matrix | cell | "@" (IDENT | "(" params ")" expr)
//
// The parser never decides whether name(args) is a call or an index; that
// stays an AccessExpr for the code generator. The only context it tracks is
// indexDepth, which lets "end" inside an open index-argument list parse as
// the end-of-dimension terminal rather than a block closer.
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
	indexDepth  int
}

// NewParser wraps a token slice. rawSource is kept for error snippets.
func NewParser(tokens []Token, rawSource string) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(rawSource, "\n")}
}

// syntaxError builds a *SyntaxError with the source line where tok appears.
func (p *Parser) syntaxError(expected string, tok Token) error {
	snippet := ""
	if idx := tok.Line - 1; idx >= 0 && idx < len(p.sourceLines) {
		snippet = strings.TrimSpace(p.sourceLines[idx])
	}
	return &SyntaxError{Expected: expected, Found: tok, Snippet: snippet}
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// peekAt returns the token at the given offset from the current position.
func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos+offset]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise fails with
// what as the expected construct.
func (p *Parser) expect(tt TokenType, what string) (Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.syntaxError(what, tok)
	}
	return tok, nil
}

// skipSeparators discards statement separators: newlines, semicolons and
// commas between statements.
func (p *Parser) skipSeparators() {
	for {
		switch p.peek().Type {
		case NEWLINE, SEMICOLON, COMMA:
			p.advance()
		default:
			return
		}
	}
}

// isBlockEnd reports whether tok closes or continues an enclosing block.
func isBlockEnd(tok Token) bool {
	switch tok.Type {
	case END, ELSE, ELSEIF, CATCH, CASE, OTHERWISE, EOF:
		return true
	}
	return false
}

// finishStatement consumes the statement terminator and reports whether the
// statement's echo is suppressed by a trailing semicolon.
func (p *Parser) finishStatement() (bool, error) {
	switch p.peek().Type {
	case SEMICOLON:
		p.advance()
		return true, nil
	case NEWLINE, COMMA:
		p.advance()
		return false, nil
	case EOF:
		return false, nil
	}
	if isBlockEnd(p.peek()) {
		return false, nil
	}
	return false, p.syntaxError("end of statement", p.peek())
}

// Parse consumes tokens and returns the Program node, or a *SyntaxError.
func Parse(tokens []Token, rawSource string) (*Program, error) {
	p := NewParser(tokens, rawSource)
	var stmts []Stmt
	for {
		p.skipSeparators()
		if p.peek().Type == EOF {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return &Program{Stmts: stmts}, nil
}

// parseStatement dispatches on the leading token.
func (p *Parser) parseStatement() (Stmt, error) {
	tok := p.peek()
	switch tok.Type {
	case FUNCTION:
		return p.parseFunction()
	case IF:
		return p.parseIf()
	case FOR:
		return p.parseFor()
	case WHILE:
		return p.parseWhile()
	case SWITCH:
		return p.parseSwitch()
	case TRY:
		return p.parseTry()
	case GLOBAL:
		return p.parseGlobal()
	case BREAK:
		p.advance()
		if _, err := p.finishStatement(); err != nil {
			return nil, err
		}
		return &BreakStmt{Line: tok.Line}, nil
	case CONTINUE:
		p.advance()
		if _, err := p.finishStatement(); err != nil {
			return nil, err
		}
		return &ContinueStmt{Line: tok.Line}, nil
	case RETURN:
		p.advance()
		if _, err := p.finishStatement(); err != nil {
			return nil, err
		}
		return &ReturnStmt{Line: tok.Line}, nil
	case END, ELSE, ELSEIF, CATCH, CASE, OTHERWISE:
		return nil, p.syntaxError("statement", tok)
	case IDENT:
		if tok.Lexeme == "classdef" {
			return nil, p.syntaxError("statement (classdef is not supported)", tok)
		}
		if p.isCommandSyntax() {
			return p.parseCommand()
		}
	}
	return p.parseExprOrAssign()
}

// isCommandSyntax detects command form: an identifier followed by a bare
// word, number or string on the same line (hold on, pause 2, disp 'hi').
func (p *Parser) isCommandSyntax() bool {
	nxt := p.peekAt(1)
	if nxt.Line != p.peek().Line {
		return false
	}
	switch nxt.Type {
	case IDENT, NUMBER, STRING:
		return true
	}
	return false
}

func (p *Parser) parseCommand() (Stmt, error) {
	name := p.advance()
	var args []string
	for {
		switch p.peek().Type {
		case IDENT, NUMBER, STRING:
			args = append(args, p.advance().Lexeme)
			continue
		}
		break
	}
	if _, err := p.finishStatement(); err != nil {
		return nil, err
	}
	return &CommandStmt{Name: name.Lexeme, Args: args, Line: name.Line}, nil
}

// parseExprOrAssign parses an expression statement, a single assignment or a
// multi-assignment, depending on what follows the first expression.
func (p *Parser) parseExprOrAssign() (Stmt, error) {
	line := p.peek().Line
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if p.peek().Type != ASSIGN {
		suppress, err := p.finishStatement()
		if err != nil {
			return nil, err
		}
		return &ExprStmt{X: expr, Suppress: suppress, Line: line}, nil
	}
	p.advance() // =

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	suppress, err := p.finishStatement()
	if err != nil {
		return nil, err
	}

	switch target := expr.(type) {
	case *Ident, *MemberExpr:
		return &AssignStmt{Target: expr, Value: value, Suppress: suppress, Line: line}, nil
	case *AccessExpr:
		return &AssignStmt{Target: expr, Value: value, Suppress: suppress, Line: line}, nil
	case *MatrixLit:
		// [a, b] = f(x): every element must be a plain identifier.
		var names []string
		for _, row := range target.Rows {
			for _, item := range row {
				id, ok := item.(*Ident)
				if !ok {
					return nil, p.syntaxError("variable name in multi-assignment target", p.peek())
				}
				names = append(names, id.Name)
			}
		}
		return &MultiAssignStmt{Targets: names, Value: value, Suppress: suppress, Line: line}, nil
	}
	return nil, p.syntaxError("assignable target", p.peek())
}

// parseFunction parses function [o1,o2] = name(p1,p2) body end, plus the
// one-output and no-output header forms.
func (p *Parser) parseFunction() (Stmt, error) {
	fnTok := p.advance() // function

	var outputs []string
	switch {
	case p.peek().Type == LBRACKET:
		p.advance()
		for p.peek().Type == IDENT {
			outputs = append(outputs, p.advance().Lexeme)
			if p.peek().Type == COMMA {
				p.advance()
			}
		}
		if _, err := p.expect(RBRACKET, "']' after output list"); err != nil {
			return nil, err
		}
		if _, err := p.expect(ASSIGN, "'=' after output list"); err != nil {
			return nil, err
		}
	case p.peek().Type == IDENT && p.peekAt(1).Type == ASSIGN:
		outputs = append(outputs, p.advance().Lexeme)
		p.advance() // =
	}

	name, err := p.expect(IDENT, "function name")
	if err != nil {
		return nil, err
	}

	var params []string
	if p.peek().Type == LPAREN {
		p.advance()
		for p.peek().Type == IDENT {
			params = append(params, p.advance().Lexeme)
			if p.peek().Type == COMMA {
				p.advance()
			}
		}
		if _, err := p.expect(RPAREN, "')' after parameter list"); err != nil {
			return nil, err
		}
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(END, "'end' closing function "+name.Lexeme); err != nil {
		return nil, err
	}
	return &FunctionDef{
		Name:    name.Lexeme,
		Params:  params,
		Outputs: outputs,
		Body:    body,
		Line:    fnTok.Line,
	}, nil
}

// parseBlock collects statements until a block-closing keyword. The caller
// consumes the closer.
func (p *Parser) parseBlock() ([]Stmt, error) {
	var body []Stmt
	for {
		p.skipSeparators()
		if isBlockEnd(p.peek()) {
			return body, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
}

func (p *Parser) parseIf() (Stmt, error) {
	ifTok := p.advance() // if
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	branches := []IfBranch{{Cond: cond, Body: body}}

	for p.peek().Type == ELSEIF {
		p.advance()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		branches = append(branches, IfBranch{Cond: cond, Body: body})
	}

	var elseBody []Stmt
	hasElse := false
	if p.peek().Type == ELSE {
		p.advance()
		hasElse = true
		elseBody, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(END, "'end' closing if-block started on line "+strconv.Itoa(ifTok.Line)); err != nil {
		return nil, err
	}
	if !hasElse {
		elseBody = nil
	}
	return &IfStmt{Branches: branches, Else: elseBody, Line: ifTok.Line}, nil
}

func (p *Parser) parseFor() (Stmt, error) {
	forTok := p.advance() // for
	name, err := p.expect(IDENT, "loop variable")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN, "'=' in for-loop header"); err != nil {
		return nil, err
	}
	iter, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(END, "'end' closing for-loop started on line "+strconv.Itoa(forTok.Line)); err != nil {
		return nil, err
	}
	return &ForStmt{Var: name.Lexeme, Iter: iter, Body: body, Line: forTok.Line}, nil
}

func (p *Parser) parseWhile() (Stmt, error) {
	whileTok := p.advance() // while
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(END, "'end' closing while-loop started on line "+strconv.Itoa(whileTok.Line)); err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: body, Line: whileTok.Line}, nil
}

func (p *Parser) parseSwitch() (Stmt, error) {
	switchTok := p.advance() // switch
	subject, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	var cases []SwitchCase
	var otherwise []Stmt
	for {
		p.skipSeparators()
		if p.peek().Type == CASE {
			p.advance()
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			body, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			cases = append(cases, SwitchCase{Value: val, Body: body})
			continue
		}
		if p.peek().Type == OTHERWISE {
			p.advance()
			otherwise, err = p.parseBlock()
			if err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	if _, err := p.expect(END, "'end' closing switch started on line "+strconv.Itoa(switchTok.Line)); err != nil {
		return nil, err
	}
	return &SwitchStmt{Subject: subject, Cases: cases, Otherwise: otherwise, Line: switchTok.Line}, nil
}

func (p *Parser) parseTry() (Stmt, error) {
	tryTok := p.advance() // try
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	catchVar := ""
	var catchBody []Stmt
	if p.peek().Type == CATCH {
		catchTok := p.advance()
		// catch err: the binding must sit on the same line as the keyword,
		// otherwise the identifier is the first statement of the handler.
		if p.peek().Type == IDENT && p.peek().Line == catchTok.Line && p.peekAt(1).Type != ASSIGN {
			catchVar = p.advance().Lexeme
		}
		catchBody, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(END, "'end' closing try-block started on line "+strconv.Itoa(tryTok.Line)); err != nil {
		return nil, err
	}
	return &TryStmt{Body: body, CatchVar: catchVar, Catch: catchBody, Line: tryTok.Line}, nil
}

func (p *Parser) parseGlobal() (Stmt, error) {
	globalTok := p.advance() // global
	var names []string
	for p.peek().Type == IDENT {
		names = append(names, p.advance().Lexeme)
		if p.peek().Type == COMMA {
			p.advance()
		}
	}
	if len(names) == 0 {
		return nil, p.syntaxError("variable name after 'global'", p.peek())
	}
	if _, err := p.finishStatement(); err != nil {
		return nil, err
	}
	return &GlobalStmt{Names: names, Line: globalTok.Line}, nil
}

//  Expressions

func (p *Parser) parseExpression() (Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Expr, error) {
	expr, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == OR || p.peek().Type == OROR {
		op := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, Line: op.Line}
	}
	return expr, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	expr, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == AND || p.peek().Type == ANDAND {
		op := p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, Line: op.Line}
	}
	return expr, nil
}

func (p *Parser) parseComparison() (Expr, error) {
	expr, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case EQ, NE, LT, GT, LE, GE:
			op := p.advance()
			right, err := p.parseRange()
			if err != nil {
				return nil, err
			}
			expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, Line: op.Line}
			continue
		}
		return expr, nil
	}
}

// parseRange handles a:b and a:s:b. The range binds looser than + and -, so
// 1:n+1 runs to n+1.
func (p *Parser) parseRange() (Expr, error) {
	start, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != COLON {
		return start, nil
	}
	colon := p.advance()
	second, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != COLON {
		return &RangeExpr{Start: start, Stop: second, Line: colon.Line}, nil
	}
	p.advance()
	stop, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &RangeExpr{Start: start, Step: second, Stop: stop, Line: colon.Line}, nil
}

func (p *Parser) parseAdditive() (Expr, error) {
	expr, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == PLUS || p.peek().Type == MINUS {
		op := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, Line: op.Line}
	}
	return expr, nil
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	expr, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case STAR, SLASH, BACKSLASH, DOT_STAR, DOT_SLASH, DOT_BACKSLASH:
			op := p.advance()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, Line: op.Line}
			continue
		}
		return expr, nil
	}
}

// parseUnary binds -x looser than x^y, so -2^2 is -(2^2).
func (p *Parser) parseUnary() (Expr, error) {
	switch p.peek().Type {
	case MINUS, PLUS, NOT:
		op := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op.Type, Operand: operand, Line: op.Line}, nil
	}
	return p.parsePower()
}

// parsePower is left-associative; the exponent may carry its own unary sign
// (2^-1).
func (p *Parser) parsePower() (Expr, error) {
	expr, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == CARET || p.peek().Type == DOT_CARET {
		op := p.advance()
		right, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: op.Type, Left: expr, Right: right, Line: op.Line}
	}
	return expr, nil
}

func (p *Parser) parseExponent() (Expr, error) {
	switch p.peek().Type {
	case MINUS, PLUS, NOT:
		op := p.advance()
		operand, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op.Type, Operand: operand, Line: op.Line}, nil
	}
	return p.parsePostfix()
}

// parsePostfix handles the trailers: (args), {args}, .field, ' and .'.
func (p *Parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case LPAREN:
			open := p.advance()
			args, err := p.parseAccessArgs(RPAREN)
			if err != nil {
				return nil, err
			}
			expr = &AccessExpr{Target: expr, Args: args, Line: open.Line}
		case LBRACE:
			open := p.advance()
			args, err := p.parseAccessArgs(RBRACE)
			if err != nil {
				return nil, err
			}
			expr = &AccessExpr{Target: expr, Args: args, Brace: true, Line: open.Line}
		case DOT:
			p.advance()
			field, err := p.expect(IDENT, "field name after '.'")
			if err != nil {
				return nil, err
			}
			expr = &MemberExpr{Target: expr, Field: field.Lexeme, Line: field.Line}
		case QUOTE:
			tok := p.advance()
			expr = &TransposeExpr{Operand: expr, Conjugate: true, Line: tok.Line}
		case DOT_QUOTE:
			tok := p.advance()
			expr = &TransposeExpr{Operand: expr, Line: tok.Line}
		default:
			return expr, nil
		}
	}
}

// parseAccessArgs parses a comma-separated argument list up to close. A bare
// colon argument is the whole-dimension marker. While the list is open,
// "end" parses as the end-of-dimension terminal.
func (p *Parser) parseAccessArgs(close TokenType) ([]Expr, error) {
	p.indexDepth++
	defer func() { p.indexDepth-- }()

	var args []Expr
	if p.peek().Type != close {
		for {
			if p.peek().Type == COLON {
				nxt := p.peekAt(1).Type
				if nxt == COMMA || nxt == close {
					tok := p.advance()
					args = append(args, &ColonLit{Line: tok.Line})
				} else {
					return nil, p.syntaxError("index argument", p.peek())
				}
			} else {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
			}
			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
	}
	closeName := "')'"
	if close == RBRACE {
		closeName = "'}'"
	}
	if _, err := p.expect(close, closeName+" after argument list"); err != nil {
		return nil, err
	}
	return args, nil
}

// parsePrimary handles literals, names and bracketed constructs.
func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case NUMBER:
		p.advance()
		lexeme := tok.Lexeme
		imag := false
		if strings.HasSuffix(lexeme, "i") || strings.HasSuffix(lexeme, "j") {
			imag = true
			lexeme = lexeme[:len(lexeme)-1]
		}
		val, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return nil, p.syntaxError("numeric literal", tok)
		}
		return &NumberLit{Value: val, Imag: imag, Line: tok.Line}, nil

	case STRING:
		p.advance()
		return &StringLit{Value: tok.Lexeme, Line: tok.Line}, nil

	case IDENT:
		p.advance()
		return &Ident{Name: tok.Lexeme, Line: tok.Line}, nil

	case END:
		if p.indexDepth > 0 {
			p.advance()
			return &EndLit{Line: tok.Line}, nil
		}
		return nil, p.syntaxError("expression", tok)

	case LPAREN:
		p.advance()
		// Grouping parens leave index context: end is not valid in (1+end).
		saved := p.indexDepth
		p.indexDepth = 0
		expr, err := p.parseExpression()
		p.indexDepth = saved
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
		return expr, nil

	case LBRACKET:
		return p.parseMatrixLit()

	case LBRACE:
		return p.parseCellLit()

	case AT:
		return p.parseFunctionHandle()
	}
	return nil, p.syntaxError("expression", tok)
}

func (p *Parser) parseFunctionHandle() (Expr, error) {
	atTok := p.advance() // @
	if p.peek().Type == IDENT {
		name := p.advance()
		return &FuncHandle{Name: name.Lexeme, Line: atTok.Line}, nil
	}
	if _, err := p.expect(LPAREN, "'(' or function name after '@'"); err != nil {
		return nil, err
	}
	var params []string
	for p.peek().Type == IDENT {
		params = append(params, p.advance().Lexeme)
		if p.peek().Type == COMMA {
			p.advance()
		}
	}
	if _, err := p.expect(RPAREN, "')' after anonymous function parameters"); err != nil {
		return nil, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &AnonFunc{Params: params, Body: body, Line: atTok.Line}, nil
}

// parseMatrixLit parses [ ... ]: rows split on ; or newline, columns on
// comma (explicit or the lexer's implicit space separator).
func (p *Parser) parseMatrixLit() (Expr, error) {
	open := p.advance() // [
	rows, err := p.parseLitRows(RBRACKET, "']' closing matrix literal")
	if err != nil {
		return nil, err
	}
	return &MatrixLit{Rows: rows, Line: open.Line}, nil
}

// parseCellLit parses { ... } with the same row/column rules as a matrix.
func (p *Parser) parseCellLit() (Expr, error) {
	open := p.advance() // {
	rows, err := p.parseLitRows(RBRACE, "'}' closing cell literal")
	if err != nil {
		return nil, err
	}
	return &CellLit{Rows: rows, Line: open.Line}, nil
}

func (p *Parser) parseLitRows(close TokenType, closeWhat string) ([][]Expr, error) {
	var rows [][]Expr
	var row []Expr
	for {
		switch p.peek().Type {
		case close:
			p.advance()
			if len(row) > 0 {
				rows = append(rows, row)
			}
			return rows, nil
		case EOF:
			return nil, p.syntaxError(closeWhat, p.peek())
		case NEWLINE, SEMICOLON:
			p.advance()
			if len(row) > 0 {
				rows = append(rows, row)
				row = nil
			}
		case COMMA:
			p.advance()
		default:
			elem, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			row = append(row, elem)
		}
	}
}
