package compiler

import (
	"errors"
	"fmt"
	"sort"

	"mexlab/pkg/builtins"
	"mexlab/pkg/runtime"
)

// The generator emits closures. evalFunc produces a value, execFunc runs a
// statement for effect. multiEval is the call path: a call site that binds
// n outputs evaluates to up to n values.
type (
	evalFunc  func(st *execState) (runtime.Value, error)
	execFunc  func(st *execState) error
	multiEval func(st *execState) ([]runtime.Value, error)
)

// codegen walks the AST once and makes every static decision on the spot:
// whether name(args) is a call or an index, how subscripts convert to
// 0-based form, where copies happen. Child generators (function bodies)
// share the root's function map so recursion and forward calls resolve.
type codegen struct {
	root       *codegen
	symbols    *SymTable
	funcs      map[string]*runtime.Function
	sigs       []FuncSig
	reads      map[string]bool
	writes     map[string]bool
	inFunction bool

	// external resolves functions defined by earlier units; the unit sets
	// it at run time.
	external FuncRegistry
}

func newCodegen(symbols *SymTable) *codegen {
	for _, name := range builtins.Names() {
		if _, ok := symbols.Lookup(name); !ok {
			symbols.Define(Symbol{Name: name, Kind: SymBuiltin})
		}
	}
	g := &codegen{
		symbols: symbols,
		funcs:   map[string]*runtime.Function{},
		reads:   map[string]bool{},
		writes:  map[string]bool{},
	}
	g.root = g
	return g
}

func (g *codegen) child(symbols *SymTable) *codegen {
	return &codegen{
		root:       g.root,
		symbols:    symbols,
		funcs:      g.root.funcs,
		reads:      map[string]bool{},
		writes:     map[string]bool{},
		inFunction: true,
	}
}

// lookup resolves a user function: this unit first, earlier units second.
func (g *codegen) lookup(name string) (*runtime.Function, bool) {
	if f, ok := g.root.funcs[name]; ok {
		return f, true
	}
	if g.root.external != nil {
		return g.root.external.Function(name)
	}
	return nil, false
}

// defineVar marks a name as a variable from here on in this scope.
func (g *codegen) defineVar(name string) {
	g.symbols.DefineVariable(name)
	g.writes[name] = true
}

func (g *codegen) manifest() Manifest {
	m := Manifest{Functions: g.sigs}
	for name := range g.reads {
		m.Reads = append(m.Reads, name)
	}
	for name := range g.writes {
		m.Writes = append(m.Writes, name)
	}
	sort.Strings(m.Reads)
	sort.Strings(m.Writes)
	sort.Slice(m.Functions, func(i, j int) bool { return m.Functions[i].Name < m.Functions[j].Name })
	return m
}

// program generates a full unit. Function definitions register before any
// body generates, so a script can call a function defined below its call
// site.
func (g *codegen) program(prog *Program) ([]execFunc, error) {
	for _, s := range prog.Stmts {
		if def, ok := s.(*FunctionDef); ok {
			g.symbols.Define(Symbol{Name: def.Name, Kind: SymFunction, NumOutputs: len(def.Outputs)})
			g.sigs = append(g.sigs, FuncSig{Name: def.Name, NumIn: len(def.Params), NumOut: len(def.Outputs)})
		}
	}
	return g.block(prog.Stmts)
}

func (g *codegen) block(stmts []Stmt) ([]execFunc, error) {
	var out []execFunc
	for _, s := range stmts {
		thunk, err := g.genStmt(s)
		if err != nil {
			return nil, err
		}
		if thunk != nil {
			out = append(out, thunk)
		}
	}
	return out, nil
}

func runBlock(st *execState, thunks []execFunc) error {
	for _, t := range thunks {
		if err := t(st); err != nil {
			return err
		}
	}
	return nil
}

//  Statements

func (g *codegen) genStmt(s Stmt) (execFunc, error) {
	switch stmt := s.(type) {
	case *ExprStmt:
		if id, ok := stmt.X.(*Ident); ok && id.Name == "clear" {
			return genClear(nil), nil
		}
		return g.genExprStmt(stmt)
	case *AssignStmt:
		return g.genAssign(stmt)
	case *MultiAssignStmt:
		return g.genMultiAssign(stmt)
	case *IfStmt:
		return g.genIf(stmt)
	case *SwitchStmt:
		return g.genSwitch(stmt)
	case *ForStmt:
		return g.genFor(stmt)
	case *WhileStmt:
		return g.genWhile(stmt)
	case *TryStmt:
		return g.genTry(stmt)
	case *BreakStmt:
		return func(*execState) error { return errBreak }, nil
	case *ContinueStmt:
		return func(*execState) error { return errContinue }, nil
	case *ReturnStmt:
		return func(*execState) error { return errReturn }, nil
	case *GlobalStmt:
		return g.genGlobal(stmt)
	case *CommandStmt:
		return g.genCommand(stmt)
	case *FunctionDef:
		return nil, g.genFunctionDef(stmt)
	}
	return nil, compileErrorf(s.Pos(), "statement %T has no translation", s)
}

func (g *codegen) genExprStmt(stmt *ExprStmt) (execFunc, error) {
	// A bare call binds zero outputs; anything produced still lands in ans.
	if access, ok := stmt.X.(*AccessExpr); ok {
		call, isCall, err := g.genCallOnly(access, 1)
		if err != nil {
			return nil, err
		}
		if isCall {
			suppress := stmt.Suppress
			return func(st *execState) error {
				results, err := call(st)
				if err != nil {
					return err
				}
				if len(results) == 0 || results[0] == nil {
					return nil
				}
				st.setVar("ans", results[0].Copy())
				if !suppress {
					fmt.Fprint(st.ctx.Out, runtime.FormatAssign("ans", results[0]))
				}
				return nil
			}, nil
		}
	}

	ev, err := g.genExpr(stmt.X)
	if err != nil {
		return nil, err
	}
	suppress := stmt.Suppress
	return func(st *execState) error {
		v, err := ev(st)
		if err != nil {
			return err
		}
		if v == nil {
			return nil
		}
		st.setVar("ans", v.Copy())
		if !suppress {
			fmt.Fprint(st.ctx.Out, runtime.FormatAssign("ans", v))
		}
		return nil
	}, nil
}

func (g *codegen) genAssign(stmt *AssignStmt) (execFunc, error) {
	value, err := g.genExpr(stmt.Value)
	if err != nil {
		return nil, err
	}

	switch target := stmt.Target.(type) {
	case *Ident:
		g.defineVar(target.Name)
		name, suppress := target.Name, stmt.Suppress
		return func(st *execState) error {
			v, err := value(st)
			if err != nil {
				return err
			}
			if v == nil {
				return fmt.Errorf("right-hand side produced no value")
			}
			stored := v.Copy()
			st.setVar(name, stored)
			if !suppress {
				fmt.Fprint(st.ctx.Out, runtime.FormatAssign(name, stored))
			}
			return nil
		}, nil

	case *MemberExpr:
		return g.genFieldAssign(target, value, stmt)

	case *AccessExpr:
		return g.genIndexAssign(target, value, stmt)
	}
	return nil, compileErrorf(stmt.Line, "left-hand side is not assignable")
}

// genIndexAssign handles x(i) = v, x{i} = v and s.f(i) = v. An undefined
// target springs into existence as an empty array (or cell) and grows to
// fit the written position.
func (g *codegen) genIndexAssign(target *AccessExpr, value evalFunc, stmt *AssignStmt) (execFunc, error) {
	args, err := g.genIndexArgs(target.Args, target.Line)
	if err != nil {
		return nil, err
	}
	brace := target.Brace
	suppress := stmt.Suppress

	switch base := target.Target.(type) {
	case *Ident:
		g.defineVar(base.Name)
		name := base.Name
		return func(st *execState) error {
			cur, ok := st.getVar(name)
			if !ok {
				cur = freshContainer(brace)
			}
			rhs, err := value(st)
			if err != nil {
				return err
			}
			updated, err := assignIndexed(st, cur, args, rhs, brace)
			if err != nil {
				return err
			}
			st.setVar(name, updated)
			if !suppress {
				fmt.Fprint(st.ctx.Out, runtime.FormatAssign(name, updated))
			}
			return nil
		}, nil

	case *MemberExpr:
		inner, ok := base.Target.(*Ident)
		if !ok {
			return nil, compileErrorf(stmt.Line, "assignment target is too deeply nested")
		}
		g.defineVar(inner.Name)
		name, field := inner.Name, base.Field
		return func(st *execState) error {
			s, err := structFor(st, name)
			if err != nil {
				return err
			}
			cur, ok := s.Fields[field]
			if !ok {
				cur = freshContainer(brace)
			}
			rhs, err := value(st)
			if err != nil {
				return err
			}
			updated, err := assignIndexed(st, cur, args, rhs, brace)
			if err != nil {
				return err
			}
			s.Fields[field] = updated
			st.setVar(name, s)
			if !suppress {
				fmt.Fprint(st.ctx.Out, runtime.FormatAssign(name, s))
			}
			return nil
		}, nil
	}
	return nil, compileErrorf(stmt.Line, "left-hand side is not assignable")
}

func (g *codegen) genFieldAssign(target *MemberExpr, value evalFunc, stmt *AssignStmt) (execFunc, error) {
	base, ok := target.Target.(*Ident)
	if !ok {
		return nil, compileErrorf(stmt.Line, "assignment target is too deeply nested")
	}
	g.defineVar(base.Name)
	name, field, suppress := base.Name, target.Field, stmt.Suppress
	return func(st *execState) error {
		s, err := structFor(st, name)
		if err != nil {
			return err
		}
		v, err := value(st)
		if err != nil {
			return err
		}
		s.Fields[field] = v.Copy()
		st.setVar(name, s)
		if !suppress {
			fmt.Fprint(st.ctx.Out, runtime.FormatAssign(name, s))
		}
		return nil
	}, nil
}

// structFor fetches the named variable as a private struct copy, creating
// one when the variable does not exist yet.
func structFor(st *execState, name string) (*runtime.Struct, error) {
	cur, ok := st.getVar(name)
	if !ok {
		return runtime.NewStruct(), nil
	}
	s, ok := cur.(*runtime.Struct)
	if !ok {
		return nil, fmt.Errorf("cannot set a field on a %s value", cur.Kind())
	}
	return s.Copy().(*runtime.Struct), nil
}

func freshContainer(brace bool) runtime.Value {
	if brace {
		return runtime.NewCell(0, 0)
	}
	return runtime.Empty()
}

func (g *codegen) genMultiAssign(stmt *MultiAssignStmt) (execFunc, error) {
	access, ok := stmt.Value.(*AccessExpr)
	if !ok {
		return nil, compileErrorf(stmt.Line, "multiple assignment needs a function call on the right-hand side")
	}
	call, isCall, err := g.genCallOnly(access, len(stmt.Targets))
	if err != nil {
		return nil, err
	}
	if !isCall {
		return nil, compileErrorf(stmt.Line, "multiple assignment needs a function call on the right-hand side")
	}
	for _, name := range stmt.Targets {
		g.defineVar(name)
	}
	targets, suppress := stmt.Targets, stmt.Suppress
	return func(st *execState) error {
		results, err := call(st)
		if err != nil {
			return err
		}
		if len(results) < len(targets) {
			return fmt.Errorf("too many output arguments requested (%d produced, %d bound)", len(results), len(targets))
		}
		for i, name := range targets {
			stored := results[i].Copy()
			st.setVar(name, stored)
			if !suppress {
				fmt.Fprint(st.ctx.Out, runtime.FormatAssign(name, stored))
			}
		}
		return nil
	}, nil
}

func (g *codegen) genIf(stmt *IfStmt) (execFunc, error) {
	type branch struct {
		cond evalFunc
		body []execFunc
	}
	var branches []branch
	for _, b := range stmt.Branches {
		cond, err := g.genExpr(b.Cond)
		if err != nil {
			return nil, err
		}
		body, err := g.block(b.Body)
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch{cond, body})
	}
	elseBody, err := g.block(stmt.Else)
	if err != nil {
		return nil, err
	}
	return func(st *execState) error {
		for _, b := range branches {
			v, err := b.cond(st)
			if err != nil {
				return err
			}
			ok, err := runtime.Truthy(v)
			if err != nil {
				return err
			}
			if ok {
				return runBlock(st, b.body)
			}
		}
		return runBlock(st, elseBody)
	}, nil
}

func (g *codegen) genSwitch(stmt *SwitchStmt) (execFunc, error) {
	subject, err := g.genExpr(stmt.Subject)
	if err != nil {
		return nil, err
	}
	type caseThunk struct {
		value evalFunc
		body  []execFunc
	}
	var cases []caseThunk
	for _, c := range stmt.Cases {
		value, err := g.genExpr(c.Value)
		if err != nil {
			return nil, err
		}
		body, err := g.block(c.Body)
		if err != nil {
			return nil, err
		}
		cases = append(cases, caseThunk{value, body})
	}
	otherwise, err := g.block(stmt.Otherwise)
	if err != nil {
		return nil, err
	}
	return func(st *execState) error {
		subj, err := subject(st)
		if err != nil {
			return err
		}
		for _, c := range cases {
			cv, err := c.value(st)
			if err != nil {
				return err
			}
			if switchMatches(subj, cv) {
				return runBlock(st, c.body)
			}
		}
		return runBlock(st, otherwise)
	}, nil
}

// switchMatches follows the case rule: a cell case matches when any of its
// items matches the subject.
func switchMatches(subject, caseVal runtime.Value) bool {
	if cell, ok := caseVal.(*runtime.Cell); ok {
		for _, item := range cell.Items {
			if runtime.Equal(subject, item) {
				return true
			}
		}
		return false
	}
	return runtime.Equal(subject, caseVal)
}

func (g *codegen) genFor(stmt *ForStmt) (execFunc, error) {
	iter, err := g.genExpr(stmt.Iter)
	if err != nil {
		return nil, err
	}
	g.defineVar(stmt.Var)
	body, err := g.block(stmt.Body)
	if err != nil {
		return nil, err
	}
	name := stmt.Var
	return func(st *execState) error {
		iv, err := iter(st)
		if err != nil {
			return err
		}
		cols, err := iterColumns(iv)
		if err != nil {
			return err
		}
		for _, col := range cols {
			st.setVar(name, col.Copy())
			if err := runBlock(st, body); err != nil {
				if errors.Is(err, errBreak) {
					return nil
				}
				if errors.Is(err, errContinue) {
					continue
				}
				return err
			}
		}
		return nil
	}, nil
}

// iterColumns expands a loop iterable into the sequence of values the loop
// variable takes: one per column.
func iterColumns(v runtime.Value) ([]runtime.Value, error) {
	switch x := v.(type) {
	case runtime.Num, runtime.Bool, runtime.Char:
		return []runtime.Value{v}, nil
	case *runtime.Array:
		out := make([]runtime.Value, 0, x.Cols)
		for j := 0; j < x.Cols; j++ {
			if x.Rows == 1 {
				out = append(out, runtime.Num(x.At(0, j)))
			} else {
				out = append(out, runtime.ColVector(x.Col(j)))
			}
		}
		return out, nil
	case *runtime.Cell:
		out := make([]runtime.Value, 0, x.Cols)
		for j := 0; j < x.Cols; j++ {
			if x.Rows == 1 {
				out = append(out, x.At(0, j))
			} else {
				sub := runtime.NewCell(x.Rows, 1)
				for i := 0; i < x.Rows; i++ {
					sub.SetAt(i, 0, x.At(i, j))
				}
				out = append(out, sub)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot iterate over a %s value", v.Kind())
}

func (g *codegen) genWhile(stmt *WhileStmt) (execFunc, error) {
	cond, err := g.genExpr(stmt.Cond)
	if err != nil {
		return nil, err
	}
	body, err := g.block(stmt.Body)
	if err != nil {
		return nil, err
	}
	return func(st *execState) error {
		for {
			cv, err := cond(st)
			if err != nil {
				return err
			}
			ok, err := runtime.Truthy(cv)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := runBlock(st, body); err != nil {
				if errors.Is(err, errBreak) {
					return nil
				}
				if errors.Is(err, errContinue) {
					continue
				}
				return err
			}
		}
	}, nil
}

func (g *codegen) genTry(stmt *TryStmt) (execFunc, error) {
	body, err := g.block(stmt.Body)
	if err != nil {
		return nil, err
	}
	if stmt.CatchVar != "" {
		g.defineVar(stmt.CatchVar)
	}
	catch, err := g.block(stmt.Catch)
	if err != nil {
		return nil, err
	}
	catchVar := stmt.CatchVar
	return func(st *execState) error {
		err := runBlock(st, body)
		if err == nil {
			return nil
		}
		// Flow control is not an error condition the handler can observe.
		if errors.Is(err, errBreak) || errors.Is(err, errContinue) || errors.Is(err, errReturn) {
			return err
		}
		if catchVar != "" {
			info := runtime.NewStruct()
			info.Fields["message"] = runtime.Char(err.Error())
			st.setVar(catchVar, info)
		}
		return runBlock(st, catch)
	}, nil
}

func (g *codegen) genGlobal(stmt *GlobalStmt) (execFunc, error) {
	for _, name := range stmt.Names {
		g.defineVar(name)
	}
	names := stmt.Names
	return func(st *execState) error {
		for _, name := range names {
			st.globals[name] = true
			if _, ok := st.ctx.Globals.GetGlobal(name); !ok {
				st.ctx.Globals.SetGlobal(name, runtime.Empty())
			}
		}
		return nil
	}, nil
}

// genClear resets the workspace, or deletes the named variables only.
// The symbol table keeps its entries; a cleared name simply reads as an
// undefined variable afterwards.
func genClear(names []string) execFunc {
	return func(st *execState) error {
		ws, ok := st.vars.(VarClearer)
		if !ok {
			return fmt.Errorf("clear is not available in this scope")
		}
		if len(names) == 0 {
			ws.ClearVars()
			return nil
		}
		for _, name := range names {
			ws.DeleteVar(name)
		}
		return nil
	}
}

// genCommand translates command form: the words become string arguments,
// so "hold on" runs hold('on').
func (g *codegen) genCommand(stmt *CommandStmt) (execFunc, error) {
	if stmt.Name == "clear" {
		return genClear(stmt.Args), nil
	}
	sym, ok := g.symbols.Lookup(stmt.Name)
	if !ok {
		return nil, compileErrorf(stmt.Line, "unknown command %q", stmt.Name)
	}
	args := make([]runtime.Value, len(stmt.Args))
	for i, a := range stmt.Args {
		args[i] = runtime.Char(a)
	}

	switch sym.Kind {
	case SymBuiltin:
		entry, _ := builtins.Lookup(stmt.Name)
		if entry.Fn == nil {
			return nil, compileErrorf(stmt.Line, "%s is not supported in this dialect", stmt.Name)
		}
		if err := checkArity(entry, len(args), stmt.Line); err != nil {
			return nil, err
		}
		return func(st *execState) error {
			_, err := entry.Call(st.ctx, args, 0)
			return err
		}, nil
	case SymFunction:
		name := stmt.Name
		return func(st *execState) error {
			fn, ok := st.lookupFunc(name)
			if !ok {
				return fmt.Errorf("undefined function %q", name)
			}
			_, err := fn.Invoke(st.ctx, args, 0)
			return err
		}, nil
	}
	return nil, compileErrorf(stmt.Line, "%q is a variable, not a command", stmt.Name)
}

func (g *codegen) genFunctionDef(def *FunctionDef) error {
	if _, exists := g.root.funcs[def.Name]; exists {
		return compileErrorf(def.Line, "function %q is defined twice", def.Name)
	}
	fn := &runtime.Function{Name: def.Name, Params: def.Params, Outputs: def.Outputs}
	g.root.funcs[def.Name] = fn

	scope := g.symbols.FunctionScope()
	for _, p := range def.Params {
		scope.DefineVariable(p)
	}
	for _, o := range def.Outputs {
		scope.DefineVariable(o)
	}
	scope.DefineVariable("nargin")

	child := g.child(scope)
	body, err := child.program(&Program{Stmts: def.Body})
	if err != nil {
		return err
	}

	params, outputs := def.Params, def.Outputs
	root := g.root
	fn.Invoke = func(ctx *runtime.Context, args []runtime.Value, nargout int) ([]runtime.Value, error) {
		if len(args) > len(params) {
			return nil, fmt.Errorf("%s: too many input arguments", fn.Name)
		}
		ws := NewMapWorkspace()
		for i, a := range args {
			ws.Set(params[i], a.Copy())
		}
		ws.Set("nargin", runtime.Num(len(args)))

		st := &execState{
			ctx:        ctx,
			vars:       ws,
			lookupFunc: root.lookup,
			globals:    map[string]bool{},
			nargin:     len(args),
		}
		if err := runBlock(st, body); err != nil && !errors.Is(err, errReturn) {
			return nil, err
		}

		want := nargout
		if want <= 0 {
			want = 1
		}
		if want > len(outputs) {
			want = len(outputs)
		}
		var results []runtime.Value
		for i := 0; i < want; i++ {
			v, ok := ws.Get(outputs[i])
			if !ok {
				if i < nargout {
					return nil, fmt.Errorf("%s: output argument %q not assigned", fn.Name, outputs[i])
				}
				break
			}
			results = append(results, v.Copy())
		}
		return results, nil
	}
	return nil
}

//  Expressions

func (g *codegen) genExpr(e Expr) (evalFunc, error) {
	switch expr := e.(type) {
	case *NumberLit:
		if expr.Imag {
			return nil, compileErrorf(expr.Line, "complex literals are not supported")
		}
		v := runtime.Num(expr.Value)
		return func(*execState) (runtime.Value, error) { return v, nil }, nil

	case *StringLit:
		v := runtime.Char(expr.Value)
		return func(*execState) (runtime.Value, error) { return v, nil }, nil

	case *Ident:
		return g.genIdent(expr)

	case *BinaryExpr:
		return g.genBinary(expr)

	case *UnaryExpr:
		return g.genUnary(expr)

	case *TransposeExpr:
		operand, err := g.genExpr(expr.Operand)
		if err != nil {
			return nil, err
		}
		return func(st *execState) (runtime.Value, error) {
			v, err := operand(st)
			if err != nil {
				return nil, err
			}
			return transposeValue(v)
		}, nil

	case *RangeExpr:
		return g.genRange(expr)

	case *AccessExpr:
		multi, err := g.genAccess(expr, 1)
		if err != nil {
			return nil, err
		}
		return func(st *execState) (runtime.Value, error) {
			results, err := multi(st)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 || results[0] == nil {
				return nil, fmt.Errorf("expression produced no value")
			}
			return results[0], nil
		}, nil

	case *MemberExpr:
		return g.genMember(expr)

	case *MatrixLit:
		return g.genMatrix(expr)

	case *CellLit:
		return g.genCell(expr)

	case *EndLit:
		return func(st *execState) (runtime.Value, error) {
			v, err := st.endValue()
			if err != nil {
				return nil, err
			}
			return runtime.Num(v), nil
		}, nil

	case *ColonLit:
		return nil, compileErrorf(expr.Line, "':' is only valid inside a subscript")

	case *FuncHandle:
		return g.genFuncHandle(expr)

	case *AnonFunc:
		return g.genAnonFunc(expr)
	}
	return nil, compileErrorf(e.Pos(), "expression %T has no translation", e)
}

func (g *codegen) genIdent(id *Ident) (evalFunc, error) {
	sym, ok := g.symbols.Lookup(id.Name)
	if !ok {
		return nil, compileErrorf(id.Line, "unknown identifier %q", id.Name)
	}
	name := id.Name
	switch sym.Kind {
	case SymVariable:
		g.reads[name] = true
		return func(st *execState) (runtime.Value, error) {
			v, ok := st.getVar(name)
			if !ok {
				return nil, fmt.Errorf("undefined variable %q", name)
			}
			return v, nil
		}, nil

	case SymFunction:
		return func(st *execState) (runtime.Value, error) {
			fn, ok := st.lookupFunc(name)
			if !ok {
				return nil, fmt.Errorf("undefined function %q", name)
			}
			results, err := fn.Invoke(st.ctx, nil, 1)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return nil, nil
			}
			return results[0], nil
		}, nil

	case SymBuiltin:
		entry, _ := builtins.Lookup(name)
		if entry.Fn == nil {
			return nil, compileErrorf(id.Line, "%s is not supported in this dialect", name)
		}
		if err := checkArity(entry, 0, id.Line); err != nil {
			return nil, err
		}
		return func(st *execState) (runtime.Value, error) {
			results, err := entry.Call(st.ctx, nil, 1)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return nil, nil
			}
			return results[0], nil
		}, nil
	}
	return nil, compileErrorf(id.Line, "unknown identifier %q", id.Name)
}

var binaryOps = map[TokenType]func(a, b runtime.Value) (runtime.Value, error){
	PLUS:          runtime.Add,
	MINUS:         runtime.Sub,
	STAR:          runtime.Mul,
	SLASH:         runtime.Div,
	BACKSLASH:     runtime.LDiv,
	CARET:         runtime.Pow,
	DOT_STAR:      runtime.ElemMul,
	DOT_SLASH:     runtime.ElemDiv,
	DOT_BACKSLASH: runtime.ElemLDiv,
	DOT_CARET:     runtime.ElemPow,
	AND:           runtime.And,
	OR:            runtime.Or,
}

var comparisonOps = map[TokenType]string{
	EQ: "==", NE: "~=", LT: "<", GT: ">", LE: "<=", GE: ">=",
}

func (g *codegen) genBinary(expr *BinaryExpr) (evalFunc, error) {
	left, err := g.genExpr(expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := g.genExpr(expr.Right)
	if err != nil {
		return nil, err
	}

	// && and || evaluate the right side only when it can still decide.
	if expr.Op == ANDAND || expr.Op == OROR {
		isAnd := expr.Op == ANDAND
		return func(st *execState) (runtime.Value, error) {
			lv, err := left(st)
			if err != nil {
				return nil, err
			}
			lt, err := runtime.Truthy(lv)
			if err != nil {
				return nil, err
			}
			if isAnd && !lt {
				return runtime.Bool(false), nil
			}
			if !isAnd && lt {
				return runtime.Bool(true), nil
			}
			rv, err := right(st)
			if err != nil {
				return nil, err
			}
			rt, err := runtime.Truthy(rv)
			if err != nil {
				return nil, err
			}
			return runtime.Bool(rt), nil
		}, nil
	}

	if opName, ok := comparisonOps[expr.Op]; ok {
		return func(st *execState) (runtime.Value, error) {
			lv, err := left(st)
			if err != nil {
				return nil, err
			}
			rv, err := right(st)
			if err != nil {
				return nil, err
			}
			return runtime.Compare(opName, lv, rv)
		}, nil
	}

	op, ok := binaryOps[expr.Op]
	if !ok {
		return nil, compileErrorf(expr.Line, "operator %s has no translation", expr.Op)
	}
	return func(st *execState) (runtime.Value, error) {
		lv, err := left(st)
		if err != nil {
			return nil, err
		}
		rv, err := right(st)
		if err != nil {
			return nil, err
		}
		if lv == nil || rv == nil {
			return nil, fmt.Errorf("operand produced no value")
		}
		return op(lv, rv)
	}, nil
}

func (g *codegen) genUnary(expr *UnaryExpr) (evalFunc, error) {
	operand, err := g.genExpr(expr.Operand)
	if err != nil {
		return nil, err
	}
	switch expr.Op {
	case PLUS:
		return operand, nil
	case MINUS:
		return func(st *execState) (runtime.Value, error) {
			v, err := operand(st)
			if err != nil {
				return nil, err
			}
			return runtime.Neg(v)
		}, nil
	case NOT:
		return func(st *execState) (runtime.Value, error) {
			v, err := operand(st)
			if err != nil {
				return nil, err
			}
			return runtime.Not(v)
		}, nil
	}
	return nil, compileErrorf(expr.Line, "operator %s has no translation", expr.Op)
}

func transposeValue(v runtime.Value) (runtime.Value, error) {
	switch x := v.(type) {
	case runtime.Num, runtime.Bool:
		return x, nil
	case *runtime.Array:
		return x.Transpose(), nil
	case runtime.Char:
		runes := []rune(string(x))
		vals := make([]float64, len(runes))
		for i, r := range runes {
			vals[i] = float64(r)
		}
		return runtime.ColVector(vals), nil
	}
	return nil, fmt.Errorf("transpose is undefined for %s values", v.Kind())
}

func (g *codegen) genRange(expr *RangeExpr) (evalFunc, error) {
	start, err := g.genExpr(expr.Start)
	if err != nil {
		return nil, err
	}
	var step evalFunc
	if expr.Step != nil {
		if step, err = g.genExpr(expr.Step); err != nil {
			return nil, err
		}
	}
	stop, err := g.genExpr(expr.Stop)
	if err != nil {
		return nil, err
	}
	line := expr.Line
	return func(st *execState) (runtime.Value, error) {
		sv, err := start(st)
		if err != nil {
			return nil, err
		}
		s, ok := runtime.AsFloat(sv)
		if !ok {
			return nil, fmt.Errorf("line %d: range bounds must be scalars", line)
		}
		stepVal := 1.0
		if step != nil {
			v, err := step(st)
			if err != nil {
				return nil, err
			}
			if stepVal, ok = runtime.AsFloat(v); !ok {
				return nil, fmt.Errorf("line %d: range step must be a scalar", line)
			}
		}
		ev, err := stop(st)
		if err != nil {
			return nil, err
		}
		e, ok := runtime.AsFloat(ev)
		if !ok {
			return nil, fmt.Errorf("line %d: range bounds must be scalars", line)
		}
		return runtime.BuildRange(s, stepVal, e)
	}, nil
}

func (g *codegen) genMember(expr *MemberExpr) (evalFunc, error) {
	target, err := g.genExpr(expr.Target)
	if err != nil {
		return nil, err
	}
	field := expr.Field
	return func(st *execState) (runtime.Value, error) {
		tv, err := target(st)
		if err != nil {
			return nil, err
		}
		s, ok := tv.(*runtime.Struct)
		if !ok {
			return nil, fmt.Errorf("cannot read field %q of a %s value", field, tv.Kind())
		}
		v, ok := s.Fields[field]
		if !ok {
			return nil, fmt.Errorf("reference to non-existent field %q", field)
		}
		return v, nil
	}, nil
}

func (g *codegen) genMatrix(expr *MatrixLit) (evalFunc, error) {
	rows, err := g.genLitRows(expr.Rows)
	if err != nil {
		return nil, err
	}
	return func(st *execState) (runtime.Value, error) {
		vals, err := evalLitRows(st, rows)
		if err != nil {
			return nil, err
		}
		return runtime.BuildMatrix(vals)
	}, nil
}

func (g *codegen) genCell(expr *CellLit) (evalFunc, error) {
	rows, err := g.genLitRows(expr.Rows)
	if err != nil {
		return nil, err
	}
	line := expr.Line
	return func(st *execState) (runtime.Value, error) {
		vals, err := evalLitRows(st, rows)
		if err != nil {
			return nil, err
		}
		if len(vals) == 0 {
			return runtime.NewCell(0, 0), nil
		}
		cols := len(vals[0])
		for _, row := range vals {
			if len(row) != cols {
				return nil, fmt.Errorf("line %d: cell rows must have equal lengths", line)
			}
		}
		cell := runtime.NewCell(len(vals), cols)
		for i, row := range vals {
			for j, v := range row {
				cell.SetAt(i, j, v.Copy())
			}
		}
		return cell, nil
	}, nil
}

func (g *codegen) genLitRows(rows [][]Expr) ([][]evalFunc, error) {
	out := make([][]evalFunc, len(rows))
	for i, row := range rows {
		out[i] = make([]evalFunc, len(row))
		for j, e := range row {
			ev, err := g.genExpr(e)
			if err != nil {
				return nil, err
			}
			out[i][j] = ev
		}
	}
	return out, nil
}

func evalLitRows(st *execState, rows [][]evalFunc) ([][]runtime.Value, error) {
	out := make([][]runtime.Value, len(rows))
	for i, row := range rows {
		out[i] = make([]runtime.Value, len(row))
		for j, ev := range row {
			v, err := ev(st)
			if err != nil {
				return nil, err
			}
			if v == nil {
				return nil, fmt.Errorf("element produced no value")
			}
			out[i][j] = v
		}
	}
	return out, nil
}

func (g *codegen) genFuncHandle(expr *FuncHandle) (evalFunc, error) {
	sym, ok := g.symbols.Lookup(expr.Name)
	if !ok {
		return nil, compileErrorf(expr.Line, "unknown function %q", expr.Name)
	}
	name := expr.Name
	switch sym.Kind {
	case SymBuiltin:
		entry, _ := builtins.Lookup(name)
		if entry.Fn == nil {
			return nil, compileErrorf(expr.Line, "%s is not supported in this dialect", name)
		}
		fn := &runtime.Function{Name: name, Invoke: entry.Call}
		return func(*execState) (runtime.Value, error) { return fn, nil }, nil
	case SymFunction:
		return func(st *execState) (runtime.Value, error) {
			fn, ok := st.lookupFunc(name)
			if !ok {
				return nil, fmt.Errorf("undefined function %q", name)
			}
			return fn, nil
		}, nil
	}
	return nil, compileErrorf(expr.Line, "@%s does not name a function", expr.Name)
}

// genAnonFunc compiles the body against a scope where only the parameters
// are fresh; every other variable referenced resolves to a value captured
// when the handle is built.
func (g *codegen) genAnonFunc(expr *AnonFunc) (evalFunc, error) {
	captured := freeVariables(expr.Body, expr.Params, g.symbols)

	scope := g.symbols.Clone()
	for _, p := range expr.Params {
		scope.DefineVariable(p)
	}
	child := g.child(scope)
	body, err := child.genExpr(expr.Body)
	if err != nil {
		return nil, err
	}

	params := expr.Params
	root := g.root
	return func(st *execState) (runtime.Value, error) {
		snapshot := make(map[string]runtime.Value, len(captured))
		for _, name := range captured {
			if v, ok := st.getVar(name); ok {
				snapshot[name] = v.Copy()
			}
		}
		fn := &runtime.Function{Params: params}
		fn.Invoke = func(ctx *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
			if len(args) != len(params) {
				return nil, fmt.Errorf("anonymous function expects %d arguments, got %d", len(params), len(args))
			}
			ws := NewMapWorkspace()
			for name, v := range snapshot {
				ws.Set(name, v)
			}
			for i, a := range args {
				ws.Set(params[i], a.Copy())
			}
			inner := &execState{ctx: ctx, vars: ws, lookupFunc: root.lookup, globals: map[string]bool{}}
			v, err := body(inner)
			if err != nil {
				return nil, err
			}
			return []runtime.Value{v}, nil
		}
		return fn, nil
	}, nil
}

// freeVariables walks the expression and collects names that resolve to
// variables in the enclosing scope.
func freeVariables(e Expr, params []string, symbols *SymTable) []string {
	bound := map[string]bool{}
	for _, p := range params {
		bound[p] = true
	}
	seen := map[string]bool{}
	var names []string
	var walk func(Expr)
	walk = func(e Expr) {
		switch x := e.(type) {
		case *Ident:
			if !bound[x.Name] && !seen[x.Name] && symbols.Kind(x.Name) == SymVariable {
				seen[x.Name] = true
				names = append(names, x.Name)
			}
		case *BinaryExpr:
			walk(x.Left)
			walk(x.Right)
		case *UnaryExpr:
			walk(x.Operand)
		case *TransposeExpr:
			walk(x.Operand)
		case *RangeExpr:
			walk(x.Start)
			if x.Step != nil {
				walk(x.Step)
			}
			walk(x.Stop)
		case *AccessExpr:
			walk(x.Target)
			for _, a := range x.Args {
				walk(a)
			}
		case *MemberExpr:
			walk(x.Target)
		case *MatrixLit:
			for _, row := range x.Rows {
				for _, item := range row {
					walk(item)
				}
			}
		case *CellLit:
			for _, row := range x.Rows {
				for _, item := range row {
					walk(item)
				}
			}
		case *AnonFunc:
			inner := append(append([]string{}, params...), x.Params...)
			for _, name := range freeVariables(x.Body, inner, symbols) {
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
	}
	walk(e)
	sort.Strings(names)
	return names
}

func checkArity(entry builtins.Entry, n, line int) error {
	if n < entry.MinArgs {
		return compileErrorf(line, "%s: not enough input arguments", entry.Name)
	}
	if entry.MaxArgs >= 0 && n > entry.MaxArgs {
		return compileErrorf(line, "%s: too many input arguments", entry.Name)
	}
	return nil
}
