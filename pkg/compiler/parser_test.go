package compiler

import (
	"errors"
	"strings"
	"testing"
)

func parseSrc(t *testing.T, src string) *Program {
	t.Helper()
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q) failed: %v", src, err)
	}
	prog, err := Parse(tokens, src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return prog
}

func parseExprString(t *testing.T, src string) string {
	t.Helper()
	prog := parseSrc(t, src)
	if len(prog.Stmts) != 1 {
		t.Fatalf("Parse(%q): got %d statements, want 1", src, len(prog.Stmts))
	}
	es, ok := prog.Stmts[0].(*ExprStmt)
	if !ok {
		t.Fatalf("Parse(%q): got %T, want *ExprStmt", src, prog.Stmts[0])
	}
	return es.X.String()
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "(1 PLUS (2 STAR 3))"},
		{"(1 + 2) * 3", "((1 PLUS 2) STAR 3)"},
		{"2 ^ 3 ^ 2", "((2 CARET 3) CARET 2)"},
		{"-2 ^ 2", "(MINUS (2 CARET 2))"},
		{"2 ^ -1", "(2 CARET (MINUS 1))"},
		{"a < b == c", "((a LT b) EQ c)"},
		{"a | b & c", "(a OR (b AND c))"},
		{"a || b && c", "(a OROR (b ANDAND c))"},
		{"1:n + 1", "(1:(n PLUS 1))"},
		{"1:2:9", "(1:2:9)"},
		{"x'", "(x)'"},
		{"x.'", "(x).'"},
		{"A(1, 2)'", "(A(1, 2))'"},
		{"~a + b", "((NOT a) PLUS b)"},
	}
	for _, tc := range tests {
		if got := parseExprString(t, tc.src); got != tc.want {
			t.Errorf("parse %q:\n  got  %s\n  want %s", tc.src, got, tc.want)
		}
	}
}

func TestParseAccessStaysAmbiguous(t *testing.T) {
	// name(args) must come out as an AccessExpr whether name will turn out
	// to be a variable or a function.
	prog := parseSrc(t, "y(1, 2)")
	access, ok := prog.Stmts[0].(*ExprStmt).X.(*AccessExpr)
	if !ok {
		t.Fatalf("got %T, want *AccessExpr", prog.Stmts[0].(*ExprStmt).X)
	}
	if len(access.Args) != 2 || access.Brace {
		t.Errorf("AccessExpr args=%d brace=%v, want 2 args paren form", len(access.Args), access.Brace)
	}
}

func TestParseMatrixAndCell(t *testing.T) {
	prog := parseSrc(t, "[1 2; 3 4]")
	m, ok := prog.Stmts[0].(*ExprStmt).X.(*MatrixLit)
	if !ok {
		t.Fatalf("got %T, want *MatrixLit", prog.Stmts[0].(*ExprStmt).X)
	}
	if len(m.Rows) != 2 || len(m.Rows[0]) != 2 || len(m.Rows[1]) != 2 {
		t.Fatalf("matrix shape wrong: %s", m)
	}

	prog = parseSrc(t, "{1, 'two'; x, [3 4]}")
	c, ok := prog.Stmts[0].(*ExprStmt).X.(*CellLit)
	if !ok {
		t.Fatalf("got %T, want *CellLit", prog.Stmts[0].(*ExprStmt).X)
	}
	if len(c.Rows) != 2 || len(c.Rows[0]) != 2 {
		t.Fatalf("cell shape wrong: %s", c)
	}
}

func TestParseAssignForms(t *testing.T) {
	prog := parseSrc(t, "x = 5;\nA(2, 3) = 7\ns.field = 1;\n[a, b] = f(x);")

	if a, ok := prog.Stmts[0].(*AssignStmt); !ok || !a.Suppress {
		t.Errorf("stmt 0: got %T suppress=%v, want suppressed *AssignStmt", prog.Stmts[0], ok)
	}
	if a, ok := prog.Stmts[1].(*AssignStmt); !ok || a.Suppress {
		t.Errorf("stmt 1: got %T, want unsuppressed *AssignStmt", prog.Stmts[1])
	} else if _, ok := a.Target.(*AccessExpr); !ok {
		t.Errorf("stmt 1 target: got %T, want *AccessExpr", a.Target)
	}
	if a, ok := prog.Stmts[2].(*AssignStmt); !ok {
		t.Errorf("stmt 2: got %T, want *AssignStmt", prog.Stmts[2])
	} else if _, ok := a.Target.(*MemberExpr); !ok {
		t.Errorf("stmt 2 target: got %T, want *MemberExpr", a.Target)
	}
	ma, ok := prog.Stmts[3].(*MultiAssignStmt)
	if !ok {
		t.Fatalf("stmt 3: got %T, want *MultiAssignStmt", prog.Stmts[3])
	}
	if len(ma.Targets) != 2 || ma.Targets[0] != "a" || ma.Targets[1] != "b" {
		t.Errorf("multi-assign targets: %v", ma.Targets)
	}
}

func TestParseControlFlow(t *testing.T) {
	src := strings.Join([]string{
		"if x > 0",
		"  y = 1;",
		"elseif x < 0",
		"  y = -1;",
		"else",
		"  y = 0;",
		"end",
		"for i = 1:3, z(i) = i; end",
		"while z(1) < 10",
		"  z(1) = z(1) * 2;",
		"end",
		"switch mode",
		"case 'a'",
		"  p = 1;",
		"case {'b', 'c'}",
		"  p = 2;",
		"otherwise",
		"  p = 3;",
		"end",
		"try",
		"  q = risky();",
		"catch err",
		"  q = 0;",
		"end",
	}, "\n")
	prog := parseSrc(t, src)
	if len(prog.Stmts) != 5 {
		t.Fatalf("got %d statements, want 5", len(prog.Stmts))
	}

	ifStmt := prog.Stmts[0].(*IfStmt)
	if len(ifStmt.Branches) != 2 || ifStmt.Else == nil {
		t.Errorf("if: %d branches, else=%v", len(ifStmt.Branches), ifStmt.Else != nil)
	}
	sw := prog.Stmts[3].(*SwitchStmt)
	if len(sw.Cases) != 2 || sw.Otherwise == nil {
		t.Errorf("switch: %d cases, otherwise=%v", len(sw.Cases), sw.Otherwise != nil)
	}
	if _, ok := sw.Cases[1].Value.(*CellLit); !ok {
		t.Errorf("case 2 value: got %T, want *CellLit", sw.Cases[1].Value)
	}
	tr := prog.Stmts[4].(*TryStmt)
	if tr.CatchVar != "err" {
		t.Errorf("catch var: got %q, want err", tr.CatchVar)
	}
}

func TestParseFunctionForms(t *testing.T) {
	src := strings.Join([]string{
		"function [s, p] = stats(a, b)",
		"  s = a + b;",
		"  p = a * b;",
		"end",
		"function y = square(x)",
		"  y = x ^ 2;",
		"end",
		"function greet()",
		"  disp('hi');",
		"end",
	}, "\n")
	prog := parseSrc(t, src)
	if len(prog.Stmts) != 3 {
		t.Fatalf("got %d statements, want 3", len(prog.Stmts))
	}
	defs := []struct {
		name    string
		params  int
		outputs int
	}{
		{"stats", 2, 2},
		{"square", 1, 1},
		{"greet", 0, 0},
	}
	for i, want := range defs {
		def := prog.Stmts[i].(*FunctionDef)
		if def.Name != want.name || len(def.Params) != want.params || len(def.Outputs) != want.outputs {
			t.Errorf("def %d: %s(%d)->%d, want %s(%d)->%d",
				i, def.Name, len(def.Params), len(def.Outputs), want.name, want.params, want.outputs)
		}
	}
}

func TestParseEndInsideSubscript(t *testing.T) {
	prog := parseSrc(t, "x(end)")
	access := prog.Stmts[0].(*ExprStmt).X.(*AccessExpr)
	if _, ok := access.Args[0].(*EndLit); !ok {
		t.Fatalf("x(end) arg: got %T, want *EndLit", access.Args[0])
	}

	prog = parseSrc(t, "x(2:end, :)")
	access = prog.Stmts[0].(*ExprStmt).X.(*AccessExpr)
	if _, ok := access.Args[1].(*ColonLit); !ok {
		t.Fatalf("second arg: got %T, want *ColonLit", access.Args[1])
	}
}

func TestParseCommandSyntax(t *testing.T) {
	prog := parseSrc(t, "hold on")
	cmd, ok := prog.Stmts[0].(*CommandStmt)
	if !ok {
		t.Fatalf("got %T, want *CommandStmt", prog.Stmts[0])
	}
	if cmd.Name != "hold" || len(cmd.Args) != 1 || cmd.Args[0] != "on" {
		t.Errorf("command: %s %v", cmd.Name, cmd.Args)
	}
}

func TestParseHandles(t *testing.T) {
	prog := parseSrc(t, "f = @sin;\ng = @(x, y) x + y;")
	if _, ok := prog.Stmts[0].(*AssignStmt).Value.(*FuncHandle); !ok {
		t.Errorf("@sin: got %T, want *FuncHandle", prog.Stmts[0].(*AssignStmt).Value)
	}
	anon, ok := prog.Stmts[1].(*AssignStmt).Value.(*AnonFunc)
	if !ok {
		t.Fatalf("anon: got %T, want *AnonFunc", prog.Stmts[1].(*AssignStmt).Value)
	}
	if len(anon.Params) != 2 {
		t.Errorf("anon params: %v", anon.Params)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src     string
		mention string
	}{
		{"if x > 0\ny = 1;", "'end'"},
		{"for i = 1:3", "'end'"},
		{"x = ", "expression"},
		{"end", "statement"},
		{"[1, x] = f(2)", "multi-assignment"},
		{"classdef Thing", "classdef"},
		{"x = 1 + end", "expression"},
	}
	for _, tc := range tests {
		tokens, err := Lex(tc.src)
		if err != nil {
			t.Fatalf("Lex(%q) failed: %v", tc.src, err)
		}
		_, err = Parse(tokens, tc.src)
		if err == nil {
			t.Errorf("Parse(%q): expected error", tc.src)
			continue
		}
		var synErr *SyntaxError
		if !errors.As(err, &synErr) {
			t.Errorf("Parse(%q): error is %T, want *SyntaxError", tc.src, err)
			continue
		}
		if !strings.Contains(err.Error(), tc.mention) {
			t.Errorf("Parse(%q): error %q does not mention %q", tc.src, err, tc.mention)
		}
	}
}
