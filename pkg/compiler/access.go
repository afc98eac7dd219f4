package compiler

import (
	"fmt"

	"mexlab/pkg/builtins"
	"mexlab/pkg/runtime"
)

// This file translates AccessExpr, the node the parser leaves deliberately
// ambiguous. The symbol table decides here, once, at generation time:
// name(args) against a variable is an index (or a handle call when the
// value turns out to be a function), against a function or built-in it is
// a call. Subscripts convert from 1-based to 0-based at this boundary and
// nowhere else.

// indexArg is one generated subscript argument. A colon marks the whole
// dimension; otherwise ev yields the 1-based subscript value.
type indexArg struct {
	colon bool
	ev    evalFunc
}

func (g *codegen) genIndexArgs(args []Expr, line int) ([]indexArg, error) {
	out := make([]indexArg, len(args))
	for i, a := range args {
		if _, ok := a.(*ColonLit); ok {
			out[i] = indexArg{colon: true}
			continue
		}
		ev, err := g.genExpr(a)
		if err != nil {
			return nil, err
		}
		out[i] = indexArg{ev: ev}
	}
	return out, nil
}

// genCallArgs generates plain call arguments: colons have no meaning in a
// call argument list.
func (g *codegen) genCallArgs(args []Expr, line int) ([]evalFunc, error) {
	out := make([]evalFunc, len(args))
	for i, a := range args {
		if _, ok := a.(*ColonLit); ok {
			return nil, compileErrorf(line, "':' is only valid inside a subscript")
		}
		ev, err := g.genExpr(a)
		if err != nil {
			return nil, err
		}
		out[i] = ev
	}
	return out, nil
}

func evalArgs(st *execState, args []evalFunc) ([]runtime.Value, error) {
	out := make([]runtime.Value, len(args))
	for i, ev := range args {
		v, err := ev(st)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, fmt.Errorf("argument %d produced no value", i+1)
		}
		out[i] = v
	}
	return out, nil
}

// genCallOnly is genAccess for statement positions that care whether the
// access can produce multiple outputs.
func (g *codegen) genCallOnly(expr *AccessExpr, nargout int) (multiEval, bool, error) {
	multi, err := g.genAccess(expr, nargout)
	if err != nil {
		return nil, false, err
	}
	return multi, true, nil
}

func (g *codegen) genAccess(expr *AccessExpr, nargout int) (multiEval, error) {
	if id, ok := expr.Target.(*Ident); ok {
		sym, known := g.symbols.Lookup(id.Name)
		if !known {
			return nil, compileErrorf(id.Line, "unknown identifier %q", id.Name)
		}
		switch sym.Kind {
		case SymVariable:
			return g.genVariableAccess(id.Name, expr, nargout)
		case SymFunction:
			if expr.Brace {
				return nil, compileErrorf(expr.Line, "%q is a function, not a cell array", id.Name)
			}
			return g.genUserCall(id.Name, expr, nargout)
		case SymBuiltin:
			if expr.Brace {
				return nil, compileErrorf(expr.Line, "%q is a function, not a cell array", id.Name)
			}
			return g.genBuiltinCall(id.Name, expr, nargout)
		}
		return nil, compileErrorf(id.Line, "unknown identifier %q", id.Name)
	}

	// The target is an expression (s.handles(2), chained access). Evaluate
	// it and decide call-versus-index from the value.
	target, err := g.genExpr(expr.Target)
	if err != nil {
		return nil, err
	}
	args, err := g.genIndexArgs(expr.Args, expr.Line)
	if err != nil {
		return nil, err
	}
	brace := expr.Brace
	return func(st *execState) ([]runtime.Value, error) {
		tv, err := target(st)
		if err != nil {
			return nil, err
		}
		if fn, ok := tv.(*runtime.Function); ok && !brace {
			vals, err := evalIndexArgsPlain(st, args)
			if err != nil {
				return nil, err
			}
			return fn.Invoke(st.ctx, vals, nargout)
		}
		v, err := indexInto(st, tv, args, brace)
		if err != nil {
			return nil, err
		}
		return []runtime.Value{v}, nil
	}, nil
}

func (g *codegen) genVariableAccess(name string, expr *AccessExpr, nargout int) (multiEval, error) {
	g.reads[name] = true
	args, err := g.genIndexArgs(expr.Args, expr.Line)
	if err != nil {
		return nil, err
	}
	brace := expr.Brace
	return func(st *execState) ([]runtime.Value, error) {
		val, ok := st.getVar(name)
		if !ok {
			return nil, fmt.Errorf("undefined variable %q", name)
		}
		// A variable holding a handle makes x(args) a call after all.
		if fn, isFn := val.(*runtime.Function); isFn && !brace {
			vals, err := evalIndexArgsPlain(st, args)
			if err != nil {
				return nil, err
			}
			return fn.Invoke(st.ctx, vals, nargout)
		}
		v, err := indexInto(st, val, args, brace)
		if err != nil {
			return nil, err
		}
		return []runtime.Value{v}, nil
	}, nil
}

func (g *codegen) genUserCall(name string, expr *AccessExpr, nargout int) (multiEval, error) {
	args, err := g.genCallArgs(expr.Args, expr.Line)
	if err != nil {
		return nil, err
	}
	return func(st *execState) ([]runtime.Value, error) {
		fn, ok := st.lookupFunc(name)
		if !ok {
			return nil, fmt.Errorf("undefined function %q", name)
		}
		vals, err := evalArgs(st, args)
		if err != nil {
			return nil, err
		}
		return fn.Invoke(st.ctx, vals, nargout)
	}, nil
}

func (g *codegen) genBuiltinCall(name string, expr *AccessExpr, nargout int) (multiEval, error) {
	entry, _ := builtins.Lookup(name)
	if entry.Fn == nil {
		return nil, compileErrorf(expr.Line, "%s is not supported in this dialect", name)
	}
	if err := checkArity(entry, len(expr.Args), expr.Line); err != nil {
		return nil, err
	}
	args, err := g.genCallArgs(expr.Args, expr.Line)
	if err != nil {
		return nil, err
	}
	return func(st *execState) ([]runtime.Value, error) {
		vals, err := evalArgs(st, args)
		if err != nil {
			return nil, err
		}
		return entry.Call(st.ctx, vals, nargout)
	}, nil
}

// evalIndexArgsPlain evaluates index-form arguments for a call: a colon has
// no meaning there.
func evalIndexArgsPlain(st *execState, args []indexArg) ([]runtime.Value, error) {
	out := make([]runtime.Value, len(args))
	for i, a := range args {
		if a.colon {
			return nil, fmt.Errorf("':' is not a valid function argument")
		}
		v, err := a.ev(st)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// indexInto reads container(args) or container{args}. Each subscript
// evaluates with the matching end-of-dimension value pushed, then converts
// to 0-based form.
func indexInto(st *execState, container runtime.Value, args []indexArg, brace bool) (runtime.Value, error) {
	idx, err := resolveIndices(st, container, args)
	if err != nil {
		return nil, err
	}
	if brace {
		cell, ok := container.(*runtime.Cell)
		if !ok {
			return nil, fmt.Errorf("brace indexing needs a cell array, not a %s", container.Kind())
		}
		return cell.GetItem(idx)
	}
	switch x := container.(type) {
	case *runtime.Array:
		return x.Get(idx)
	case runtime.Num, runtime.Bool:
		a := runtime.NewArray(1, 1)
		f, _ := runtime.AsFloat(x)
		a.SetAt(0, 0, f)
		return a.Get(idx)
	case runtime.Char:
		return indexChar(x, idx)
	case *runtime.Cell:
		return x.Slice(idx)
	}
	return nil, fmt.Errorf("cannot index a %s value", container.Kind())
}

func indexChar(c runtime.Char, idx []runtime.Index) (runtime.Value, error) {
	if len(idx) != 1 {
		return nil, fmt.Errorf("string indexing takes a single subscript")
	}
	runes := []rune(string(c))
	var out []rune
	if idx[0].Colon {
		out = runes
	} else {
		for _, p := range idx[0].Points {
			if p < 0 || p >= len(runes) {
				return nil, fmt.Errorf("index exceeds string length")
			}
			out = append(out, runes[p])
		}
	}
	return runtime.Char(out), nil
}

// assignIndexed writes container(args) = rhs or container{args} = rhs,
// returning the updated container.
func assignIndexed(st *execState, container runtime.Value, args []indexArg, rhs runtime.Value, brace bool) (runtime.Value, error) {
	if rhs == nil {
		return nil, fmt.Errorf("right-hand side produced no value")
	}
	if brace {
		cell, ok := container.(*runtime.Cell)
		if !ok {
			if arr, isArr := container.(*runtime.Array); isArr && arr.IsEmpty() {
				cell = runtime.NewCell(0, 0)
			} else {
				return nil, fmt.Errorf("brace assignment needs a cell array, not a %s", container.Kind())
			}
		}
		idx, err := resolveIndices(st, cell, args)
		if err != nil {
			return nil, err
		}
		return cell.SetItem(idx, rhs.Copy())
	}

	arr, err := arrayFor(container)
	if err != nil {
		return nil, err
	}
	idx, err := resolveIndices(st, arr, args)
	if err != nil {
		return nil, err
	}
	return arr.Set(idx, rhs)
}

func arrayFor(v runtime.Value) (*runtime.Array, error) {
	switch x := v.(type) {
	case *runtime.Array:
		return x, nil
	case runtime.Num:
		a := runtime.NewArray(1, 1)
		a.SetAt(0, 0, float64(x))
		return a, nil
	case runtime.Bool:
		a := runtime.NewArray(1, 1)
		if x {
			a.SetAt(0, 0, 1)
		}
		return a, nil
	}
	return nil, fmt.Errorf("cannot index-assign into a %s value", v.Kind())
}

// resolveIndices evaluates the subscript arguments against the container's
// dimensions. The end-of-dimension value is pushed around each argument so
// a nested "end" resolves to this container, and the 1-based results
// convert to 0-based points here, exactly once.
func resolveIndices(st *execState, container runtime.Value, args []indexArg) ([]runtime.Index, error) {
	rows, cols := containerDims(container)
	out := make([]runtime.Index, len(args))
	for i, a := range args {
		if a.colon {
			out[i] = runtime.Index{Colon: true}
			continue
		}
		end := float64(rows * cols)
		if len(args) == 2 {
			if i == 0 {
				end = float64(rows)
			} else {
				end = float64(cols)
			}
		}
		st.pushEnd(end)
		v, err := a.ev(st)
		st.popEnd()
		if err != nil {
			return nil, err
		}
		ix, err := valueToIndex(v)
		if err != nil {
			return nil, err
		}
		out[i] = ix
	}
	return out, nil
}

func containerDims(v runtime.Value) (int, int) {
	switch x := v.(type) {
	case *runtime.Array:
		return x.Rows, x.Cols
	case *runtime.Cell:
		return x.Rows, x.Cols
	case runtime.Char:
		return 1, len([]rune(string(x)))
	}
	return 1, 1
}

// valueToIndex converts an evaluated 1-based subscript to 0-based points.
// A logical array selects the positions of its nonzero elements.
func valueToIndex(v runtime.Value) (runtime.Index, error) {
	if a, ok := v.(*runtime.Array); ok && a.Logical {
		var pts []int
		for k := 0; k < a.Numel(); k++ {
			if a.LinearAt(k) != 0 {
				pts = append(pts, k)
			}
		}
		return runtime.Index{Points: pts}, nil
	}

	if f, ok := runtime.AsFloat(v); ok {
		k := int(f)
		if float64(k) != f || k < 1 {
			return runtime.Index{}, fmt.Errorf("subscript must be a positive integer, got %s", v.String())
		}
		return runtime.PointIndex(k - 1), nil
	}

	a, ok := v.(*runtime.Array)
	if !ok {
		return runtime.Index{}, fmt.Errorf("subscript must be numeric, got %s", v.Kind())
	}
	pts := make([]int, a.Numel())
	for k := range pts {
		f := a.LinearAt(k)
		n := int(f)
		if float64(n) != f || n < 1 {
			return runtime.Index{}, fmt.Errorf("subscript must be a positive integer, got %s", runtime.FormatFloat(f))
		}
		pts[k] = n - 1
	}
	return runtime.Index{Points: pts}, nil
}
