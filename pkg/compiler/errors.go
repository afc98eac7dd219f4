package compiler

import "fmt"

// The three compile-stage failure kinds. Each aborts the current unit only
// and leaves no shared state behind; the caller decides how to surface it.

// LexError reports an invalid character sequence in the source text.
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Msg)
}

func lexErrorf(line, col int, format string, args ...any) *LexError {
	return &LexError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

// SyntaxError reports a token sequence that matches no grammar production.
// Expected names the construct the parser was looking for; Found is the
// token actually seen. Snippet holds the trimmed source line for display.
type SyntaxError struct {
	Expected string
	Found    Token
	Snippet  string
}

func (e *SyntaxError) Error() string {
	found := e.Found.Lexeme
	if found == "" {
		found = e.Found.Type.String()
	}
	msg := fmt.Sprintf("line %d:%d: expected %s, got %q", e.Found.Line, e.Found.Col, e.Expected, found)
	if e.Snippet != "" {
		msg += "\n  |> " + e.Snippet
	}
	return msg
}

// CompileError reports a structurally valid AST node with no defined
// translation: an unknown name, a recognized-but-unsupported built-in, or an
// unsupported construct.
type CompileError struct {
	Line int
	Msg  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func compileErrorf(line int, format string, args ...any) *CompileError {
	return &CompileError{Line: line, Msg: fmt.Sprintf(format, args...)}
}
