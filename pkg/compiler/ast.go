package compiler

import (
	"fmt"
	"strings"
)

//  Expression nodes

// Expr is implemented by every node that produces a value.
type Expr interface {
	exprNode()
	Pos() int // 1-based source line, for diagnostics
	String() string
}

// NumberLit is a numeric constant. Imag is set when the source carried an
// i/j suffix; such literals parse but have no translation.
type NumberLit struct {
	Value float64
	Imag  bool
	Line  int
}

func (*NumberLit) exprNode()  {}
func (n *NumberLit) Pos() int { return n.Line }
func (n *NumberLit) String() string {
	if n.Imag {
		return fmt.Sprintf("%gi", n.Value)
	}
	return fmt.Sprintf("%g", n.Value)
}

// StringLit is a character-array constant '...'.
type StringLit struct {
	Value string
	Line  int
}

func (*StringLit) exprNode()        {}
func (s *StringLit) Pos() int       { return s.Line }
func (s *StringLit) String() string { return fmt.Sprintf("%q", s.Value) }

// Ident is a read of a named variable or function.
type Ident struct {
	Name string
	Line int
}

func (*Ident) exprNode()        {}
func (v *Ident) Pos() int       { return v.Line }
func (v *Ident) String() string { return v.Name }

// BinaryExpr represents Left Op Right.
type BinaryExpr struct {
	Op    TokenType
	Left  Expr
	Right Expr
	Line  int
}

func (*BinaryExpr) exprNode()  {}
func (b *BinaryExpr) Pos() int { return b.Line }
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// UnaryExpr represents Op Operand (-x, ~x, +x).
type UnaryExpr struct {
	Op      TokenType
	Operand Expr
	Line    int
}

func (*UnaryExpr) exprNode()        {}
func (u *UnaryExpr) Pos() int       { return u.Line }
func (u *UnaryExpr) String() string { return fmt.Sprintf("(%s %s)", u.Op, u.Operand) }

// TransposeExpr represents Operand' or Operand.'.
type TransposeExpr struct {
	Operand   Expr
	Conjugate bool // true for ', false for .'
	Line      int
}

func (*TransposeExpr) exprNode()  {}
func (t *TransposeExpr) Pos() int { return t.Line }
func (t *TransposeExpr) String() string {
	if t.Conjugate {
		return fmt.Sprintf("(%s)'", t.Operand)
	}
	return fmt.Sprintf("(%s).'", t.Operand)
}

// RangeExpr represents Start:Stop or Start:Step:Stop.
type RangeExpr struct {
	Start Expr
	Step  Expr // nil for unit step
	Stop  Expr
	Line  int
}

func (*RangeExpr) exprNode()  {}
func (r *RangeExpr) Pos() int { return r.Line }
func (r *RangeExpr) String() string {
	if r.Step != nil {
		return fmt.Sprintf("(%s:%s:%s)", r.Start, r.Step, r.Stop)
	}
	return fmt.Sprintf("(%s:%s)", r.Start, r.Stop)
}

// AccessExpr represents Target(Args) or Target{Args}. The same syntax is
// overloaded between function call and array indexing; the parser preserves
// the ambiguity and the code generator resolves it against the symbol table.
type AccessExpr struct {
	Target Expr
	Args   []Expr
	Brace  bool // true for cell-content access { }
	Line   int
}

func (*AccessExpr) exprNode()  {}
func (a *AccessExpr) Pos() int { return a.Line }
func (a *AccessExpr) String() string {
	parts := make([]string, len(a.Args))
	for i, arg := range a.Args {
		parts[i] = arg.String()
	}
	open, close := "(", ")"
	if a.Brace {
		open, close = "{", "}"
	}
	return fmt.Sprintf("%s%s%s%s", a.Target, open, strings.Join(parts, ", "), close)
}

// MemberExpr represents Target.Field.
type MemberExpr struct {
	Target Expr
	Field  string
	Line   int
}

func (*MemberExpr) exprNode()        {}
func (m *MemberExpr) Pos() int       { return m.Line }
func (m *MemberExpr) String() string { return fmt.Sprintf("%s.%s", m.Target, m.Field) }

// MatrixLit represents [rows x cols] with ; or newline between rows.
type MatrixLit struct {
	Rows [][]Expr
	Line int
}

func (*MatrixLit) exprNode()  {}
func (m *MatrixLit) Pos() int { return m.Line }
func (m *MatrixLit) String() string {
	return litString("[", "]", m.Rows)
}

// CellLit represents {rows x cols}, heterogeneous elements allowed.
type CellLit struct {
	Rows [][]Expr
	Line int
}

func (*CellLit) exprNode()  {}
func (c *CellLit) Pos() int { return c.Line }
func (c *CellLit) String() string {
	return litString("{", "}", c.Rows)
}

func litString(open, close string, rows [][]Expr) string {
	rs := make([]string, len(rows))
	for i, row := range rows {
		cols := make([]string, len(row))
		for j, e := range row {
			cols[j] = e.String()
		}
		rs[i] = strings.Join(cols, ", ")
	}
	return open + strings.Join(rs, "; ") + close
}

// EndLit is the keyword end used inside an index-argument list: the last
// valid index along the current dimension.
type EndLit struct {
	Line int
}

func (*EndLit) exprNode()        {}
func (e *EndLit) Pos() int       { return e.Line }
func (e *EndLit) String() string { return "end" }

// ColonLit is a bare : used as an index argument: the whole dimension.
type ColonLit struct {
	Line int
}

func (*ColonLit) exprNode()        {}
func (c *ColonLit) Pos() int       { return c.Line }
func (c *ColonLit) String() string { return ":" }

// FuncHandle represents @name.
type FuncHandle struct {
	Name string
	Line int
}

func (*FuncHandle) exprNode()        {}
func (f *FuncHandle) Pos() int       { return f.Line }
func (f *FuncHandle) String() string { return "@" + f.Name }

// AnonFunc represents @(params) body.
type AnonFunc struct {
	Params []string
	Body   Expr
	Line   int
}

func (*AnonFunc) exprNode()  {}
func (f *AnonFunc) Pos() int { return f.Line }
func (f *AnonFunc) String() string {
	return fmt.Sprintf("@(%s) %s", strings.Join(f.Params, ", "), f.Body)
}

//  Statement nodes

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	stmtNode()
	Pos() int
	String() string
}

// Program is the root node of one compile unit.
type Program struct {
	Stmts []Stmt
}

func (p *Program) String() string {
	parts := make([]string, len(p.Stmts))
	for i, s := range p.Stmts {
		parts[i] = s.String()
	}
	return strings.Join(parts, "\n")
}

// ExprStmt is an expression evaluated for its value; unless suppressed by a
// trailing semicolon the result is bound to ans and echoed.
type ExprStmt struct {
	X        Expr
	Suppress bool
	Line     int
}

func (*ExprStmt) stmtNode()        {}
func (e *ExprStmt) Pos() int       { return e.Line }
func (e *ExprStmt) String() string { return fmt.Sprintf("ExprStmt(%s)", e.X) }

// AssignStmt represents Target = Value where Target is an Ident, an
// AccessExpr (indexed assignment) or a MemberExpr (field assignment).
type AssignStmt struct {
	Target   Expr
	Value    Expr
	Suppress bool
	Line     int
}

func (*AssignStmt) stmtNode()        {}
func (a *AssignStmt) Pos() int       { return a.Line }
func (a *AssignStmt) String() string { return fmt.Sprintf("Assign(%s = %s)", a.Target, a.Value) }

// MultiAssignStmt represents [a, b] = f(x): positional destructuring of a
// multiple-return call.
type MultiAssignStmt struct {
	Targets  []string
	Value    Expr
	Suppress bool
	Line     int
}

func (*MultiAssignStmt) stmtNode()  {}
func (m *MultiAssignStmt) Pos() int { return m.Line }
func (m *MultiAssignStmt) String() string {
	return fmt.Sprintf("MultiAssign([%s] = %s)", strings.Join(m.Targets, ", "), m.Value)
}

// IfBranch is one cond/body pair of an if/elseif chain.
type IfBranch struct {
	Cond Expr
	Body []Stmt
}

// IfStmt represents if/elseif/else ... end.
type IfStmt struct {
	Branches []IfBranch
	Else     []Stmt // nil when absent
	Line     int
}

func (*IfStmt) stmtNode()  {}
func (i *IfStmt) Pos() int { return i.Line }
func (i *IfStmt) String() string {
	return fmt.Sprintf("IfStmt(branches=%d, else=%v)", len(i.Branches), i.Else != nil)
}

// SwitchCase is one case of a switch. A CellLit value means match-any-of.
type SwitchCase struct {
	Value Expr
	Body  []Stmt
}

// SwitchStmt represents switch/case/otherwise ... end.
type SwitchStmt struct {
	Subject   Expr
	Cases     []SwitchCase
	Otherwise []Stmt // nil when absent
	Line      int
}

func (*SwitchStmt) stmtNode()  {}
func (s *SwitchStmt) Pos() int { return s.Line }
func (s *SwitchStmt) String() string {
	return fmt.Sprintf("SwitchStmt(%s, cases=%d)", s.Subject, len(s.Cases))
}

// ForStmt represents for Var = Iter ... end. Iteration is over the columns
// of the right-hand side.
type ForStmt struct {
	Var  string
	Iter Expr
	Body []Stmt
	Line int
}

func (*ForStmt) stmtNode()        {}
func (f *ForStmt) Pos() int       { return f.Line }
func (f *ForStmt) String() string { return fmt.Sprintf("ForStmt(%s = %s)", f.Var, f.Iter) }

// WhileStmt represents while Cond ... end.
type WhileStmt struct {
	Cond Expr
	Body []Stmt
	Line int
}

func (*WhileStmt) stmtNode()        {}
func (w *WhileStmt) Pos() int       { return w.Line }
func (w *WhileStmt) String() string { return fmt.Sprintf("WhileStmt(%s)", w.Cond) }

// TryStmt represents try ... catch [ident] ... end.
type TryStmt struct {
	Body     []Stmt
	CatchVar string // "" when the error is not bound
	Catch    []Stmt
	Line     int
}

func (*TryStmt) stmtNode()        {}
func (t *TryStmt) Pos() int       { return t.Line }
func (t *TryStmt) String() string { return fmt.Sprintf("TryStmt(catch %s)", t.CatchVar) }

// BreakStmt represents break.
type BreakStmt struct{ Line int }

func (*BreakStmt) stmtNode()        {}
func (b *BreakStmt) Pos() int       { return b.Line }
func (b *BreakStmt) String() string { return "BreakStmt" }

// ContinueStmt represents continue.
type ContinueStmt struct{ Line int }

func (*ContinueStmt) stmtNode()        {}
func (c *ContinueStmt) Pos() int       { return c.Line }
func (c *ContinueStmt) String() string { return "ContinueStmt" }

// ReturnStmt represents return: an early exit, outputs are whatever the
// output variables hold at that point.
type ReturnStmt struct{ Line int }

func (*ReturnStmt) stmtNode()        {}
func (r *ReturnStmt) Pos() int       { return r.Line }
func (r *ReturnStmt) String() string { return "ReturnStmt" }

// GlobalStmt represents global a b c: the named bindings are shared with the
// session environment instead of the local scope.
type GlobalStmt struct {
	Names []string
	Line  int
}

func (*GlobalStmt) stmtNode()  {}
func (g *GlobalStmt) Pos() int { return g.Line }
func (g *GlobalStmt) String() string {
	return fmt.Sprintf("GlobalStmt(%s)", strings.Join(g.Names, ", "))
}

// FunctionDef represents function [outs] = name(params) ... end.
type FunctionDef struct {
	Name    string
	Params  []string
	Outputs []string
	Body    []Stmt
	Line    int
}

func (*FunctionDef) stmtNode()  {}
func (f *FunctionDef) Pos() int { return f.Line }
func (f *FunctionDef) String() string {
	return fmt.Sprintf("FunctionDef([%s] = %s(%s))",
		strings.Join(f.Outputs, ", "), f.Name, strings.Join(f.Params, ", "))
}

// CommandStmt represents command syntax: hold on, grid off. Arguments are
// passed as character arrays.
type CommandStmt struct {
	Name string
	Args []string
	Line int
}

func (*CommandStmt) stmtNode()  {}
func (c *CommandStmt) Pos() int { return c.Line }
func (c *CommandStmt) String() string {
	return fmt.Sprintf("CommandStmt(%s %s)", c.Name, strings.Join(c.Args, " "))
}
