package runtime

import (
	"fmt"
	"math"
)

// numeric widens a value to matrix form for elementwise work. Chars widen
// to their code points, so 'a' + 1 is 98.
func numeric(v Value) (*Array, bool) {
	switch x := v.(type) {
	case *Array:
		return x, true
	case Num:
		a := NewArray(1, 1)
		a.SetAt(0, 0, float64(x))
		return a, true
	case Bool:
		a := NewArray(1, 1)
		if x {
			a.SetAt(0, 0, 1)
		}
		return a, true
	case Char:
		runes := []rune(string(x))
		vals := make([]float64, len(runes))
		for i, r := range runes {
			vals[i] = float64(r)
		}
		return RowVector(vals), true
	}
	return nil, false
}

// scalarOf reports a 1x1 operand and its value.
func scalarOf(a *Array) (float64, bool) {
	if a.Rows == 1 && a.Cols == 1 {
		return a.At(0, 0), true
	}
	return 0, false
}

// elementwise applies f pairwise with scalar broadcast on either side.
func elementwise(opName string, av, bv Value, f func(x, y float64) float64, logical bool) (Value, error) {
	a, ok := numeric(av)
	if !ok {
		return nil, fmt.Errorf("operator %s undefined for %s operands", opName, av.Kind())
	}
	b, ok := numeric(bv)
	if !ok {
		return nil, fmt.Errorf("operator %s undefined for %s operands", opName, bv.Kind())
	}

	if fa, ok := scalarOf(a); ok {
		if fb, ok := scalarOf(b); ok {
			r := f(fa, fb)
			if logical {
				return Bool(r != 0), nil
			}
			return Num(r), nil
		}
		out := NewArray(b.Rows, b.Cols)
		for i := 0; i < b.Rows; i++ {
			for j := 0; j < b.Cols; j++ {
				out.SetAt(i, j, f(fa, b.At(i, j)))
			}
		}
		out.Logical = logical
		return out, nil
	}
	if fb, ok := scalarOf(b); ok {
		out := NewArray(a.Rows, a.Cols)
		for i := 0; i < a.Rows; i++ {
			for j := 0; j < a.Cols; j++ {
				out.SetAt(i, j, f(a.At(i, j), fb))
			}
		}
		out.Logical = logical
		return out, nil
	}

	if a.Rows != b.Rows || a.Cols != b.Cols {
		return nil, fmt.Errorf("matrix dimensions must agree: %dx%d vs %dx%d", a.Rows, a.Cols, b.Rows, b.Cols)
	}
	if a.IsEmpty() {
		return Empty(), nil
	}
	out := NewArray(a.Rows, a.Cols)
	for i := 0; i < a.Rows; i++ {
		for j := 0; j < a.Cols; j++ {
			out.SetAt(i, j, f(a.At(i, j), b.At(i, j)))
		}
	}
	out.Logical = logical
	return out, nil
}

// Add computes a + b.
func Add(a, b Value) (Value, error) {
	return elementwise("+", a, b, func(x, y float64) float64 { return x + y }, false)
}

// Sub computes a - b.
func Sub(a, b Value) (Value, error) {
	return elementwise("-", a, b, func(x, y float64) float64 { return x - y }, false)
}

// ElemMul computes a .* b.
func ElemMul(a, b Value) (Value, error) {
	return elementwise(".*", a, b, func(x, y float64) float64 { return x * y }, false)
}

// ElemDiv computes a ./ b.
func ElemDiv(a, b Value) (Value, error) {
	return elementwise("./", a, b, func(x, y float64) float64 { return x / y }, false)
}

// ElemLDiv computes a .\ b.
func ElemLDiv(a, b Value) (Value, error) {
	return elementwise(".\\", a, b, func(x, y float64) float64 { return y / x }, false)
}

// ElemPow computes a .^ b.
func ElemPow(a, b Value) (Value, error) {
	return elementwise(".^", a, b, math.Pow, false)
}

// Mul computes the matrix product a * b; with a scalar on either side it is
// elementwise.
func Mul(av, bv Value) (Value, error) {
	a, ok := numeric(av)
	if !ok {
		return nil, fmt.Errorf("operator * undefined for %s operands", av.Kind())
	}
	b, ok := numeric(bv)
	if !ok {
		return nil, fmt.Errorf("operator * undefined for %s operands", bv.Kind())
	}
	if _, sa := scalarOf(a); sa {
		return ElemMul(av, bv)
	}
	if _, sb := scalarOf(b); sb {
		return ElemMul(av, bv)
	}
	if a.Cols != b.Rows {
		return nil, fmt.Errorf("inner matrix dimensions must agree: %dx%d * %dx%d", a.Rows, a.Cols, b.Rows, b.Cols)
	}
	if a.IsEmpty() || b.IsEmpty() {
		return &Array{Rows: a.Rows, Cols: b.Cols}, nil
	}
	out := NewArray(a.Rows, b.Cols)
	out.Data.Mul(a.Data, b.Data)
	return collapse(out), nil
}

// Div computes a / b, the solution X of X*b = a. With a scalar divisor it
// is elementwise.
func Div(av, bv Value) (Value, error) {
	a, ok := numeric(av)
	if !ok {
		return nil, fmt.Errorf("operator / undefined for %s operands", av.Kind())
	}
	b, ok := numeric(bv)
	if !ok {
		return nil, fmt.Errorf("operator / undefined for %s operands", bv.Kind())
	}
	if _, sb := scalarOf(b); sb {
		return ElemDiv(av, bv)
	}
	// X = a/b  <=>  b' * X' = a'
	xt, err := solve(b.Transpose(), a.Transpose())
	if err != nil {
		return nil, err
	}
	return collapse(xt.Transpose()), nil
}

// LDiv computes a \ b, the solution X of a*X = b. With a scalar on the left
// it is elementwise.
func LDiv(av, bv Value) (Value, error) {
	a, ok := numeric(av)
	if !ok {
		return nil, fmt.Errorf("operator \\ undefined for %s operands", av.Kind())
	}
	b, ok := numeric(bv)
	if !ok {
		return nil, fmt.Errorf("operator \\ undefined for %s operands", bv.Kind())
	}
	if _, sa := scalarOf(a); sa {
		return ElemLDiv(av, bv)
	}
	x, err := solve(a, b)
	if err != nil {
		return nil, err
	}
	return collapse(x), nil
}

func solve(a, b *Array) (*Array, error) {
	if a.Rows != b.Rows {
		return nil, fmt.Errorf("matrix dimensions must agree: %dx%d vs %dx%d", a.Rows, a.Cols, b.Rows, b.Cols)
	}
	out := NewArray(a.Cols, b.Cols)
	if err := out.Data.Solve(a.Data, b.Data); err != nil {
		return nil, fmt.Errorf("matrix is singular to working precision")
	}
	return out, nil
}

// Pow computes a ^ b. Scalar base and exponent use math.Pow; a square
// matrix raised to a nonnegative integer multiplies out.
func Pow(av, bv Value) (Value, error) {
	a, ok := numeric(av)
	if !ok {
		return nil, fmt.Errorf("operator ^ undefined for %s operands", av.Kind())
	}
	b, ok := numeric(bv)
	if !ok {
		return nil, fmt.Errorf("operator ^ undefined for %s operands", bv.Kind())
	}
	fb, sb := scalarOf(b)
	if !sb {
		return nil, fmt.Errorf("matrix exponent is not supported")
	}
	if fa, sa := scalarOf(a); sa {
		return Num(math.Pow(fa, fb)), nil
	}
	if a.Rows != a.Cols {
		return nil, fmt.Errorf("matrix must be square for ^")
	}
	n := int(fb)
	if float64(n) != fb || n < 0 {
		return nil, fmt.Errorf("matrix power needs a nonnegative integer exponent")
	}
	out := NewArray(a.Rows, a.Cols)
	for i := 0; i < a.Rows; i++ {
		out.SetAt(i, i, 1)
	}
	for ; n > 0; n-- {
		next := NewArray(a.Rows, a.Cols)
		next.Data.Mul(out.Data, a.Data)
		out = next
	}
	return out, nil
}

// Neg computes -a.
func Neg(a Value) (Value, error) {
	return elementwise("-", Num(0), a, func(_, y float64) float64 { return -y }, false)
}

// Not computes ~a.
func Not(a Value) (Value, error) {
	return elementwise("~", Num(0), a, func(_, y float64) float64 {
		if y == 0 {
			return 1
		}
		return 0
	}, true)
}

// Compare evaluates the comparison named by op ("==", "~=", "<", ">",
// "<=", ">=") elementwise, producing logical results. Chars compare by
// code point; == and ~= on two chars of different length compare as
// whole strings.
func Compare(op string, a, b Value) (Value, error) {
	if ca, ok := a.(Char); ok {
		if cb, ok := b.(Char); ok && len(ca) != len(cb) {
			switch op {
			case "==":
				return Bool(false), nil
			case "~=":
				return Bool(true), nil
			}
		}
	}
	var f func(x, y float64) float64
	switch op {
	case "==":
		f = func(x, y float64) float64 { return b2f(x == y) }
	case "~=":
		f = func(x, y float64) float64 { return b2f(x != y) }
	case "<":
		f = func(x, y float64) float64 { return b2f(x < y) }
	case ">":
		f = func(x, y float64) float64 { return b2f(x > y) }
	case "<=":
		f = func(x, y float64) float64 { return b2f(x <= y) }
	case ">=":
		f = func(x, y float64) float64 { return b2f(x >= y) }
	default:
		return nil, fmt.Errorf("unknown comparison %q", op)
	}
	return elementwise(op, a, b, f, true)
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// And computes the elementwise a & b.
func And(a, b Value) (Value, error) {
	return elementwise("&", a, b, func(x, y float64) float64 { return b2f(x != 0 && y != 0) }, true)
}

// Or computes the elementwise a | b.
func Or(a, b Value) (Value, error) {
	return elementwise("|", a, b, func(x, y float64) float64 { return b2f(x != 0 || y != 0) }, true)
}

// Truthy reports the condition value of v: true when v is nonempty and
// every element is nonzero.
func Truthy(v Value) (bool, error) {
	switch x := v.(type) {
	case Num:
		return x != 0, nil
	case Bool:
		return bool(x), nil
	case Char:
		return len(x) > 0, nil
	case *Array:
		if x.IsEmpty() {
			return false, nil
		}
		for k := 0; k < x.Numel(); k++ {
			if x.LinearAt(k) == 0 {
				return false, nil
			}
		}
		return true, nil
	}
	return false, fmt.Errorf("cannot convert %s to logical", v.Kind())
}

// Equal reports structural equality, the rule switch uses to match a case.
func Equal(a, b Value) bool {
	if ca, ok := a.(Char); ok {
		cb, ok := b.(Char)
		return ok && ca == cb
	}
	if _, ok := b.(Char); ok {
		return false
	}
	fa, oka := AsFloat(a)
	fb, okb := AsFloat(b)
	if oka && okb {
		return fa == fb
	}
	aa, oka := a.(*Array)
	ba, okb := b.(*Array)
	if !oka || !okb {
		return false
	}
	if aa.Rows != ba.Rows || aa.Cols != ba.Cols {
		return false
	}
	for k := 0; k < aa.Numel(); k++ {
		if aa.LinearAt(k) != ba.LinearAt(k) {
			return false
		}
	}
	return true
}

// collapse folds a 1x1 array to a scalar.
func collapse(a *Array) Value {
	if f, ok := scalarOf(a); ok {
		return Num(f)
	}
	return a
}

// BuildRange materializes start:step:stop as a row vector. The endpoint is
// included when it lands within a small tolerance of the final step, so
// 0:0.1:1 keeps the 1.
func BuildRange(start, step, stop float64) (Value, error) {
	if step == 0 {
		return nil, fmt.Errorf("range step must be nonzero")
	}
	span := (stop - start) / step
	if span < 0 {
		return &Array{Rows: 1, Cols: 0}, nil
	}
	n := int(math.Floor(span+1e-10)) + 1
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = start + float64(i)*step
	}
	return RowVector(vals), nil
}

// BuildMatrix assembles a matrix literal: elements concatenate left-to-right
// within a row, rows stack top-to-bottom. Blocks may themselves be matrices
// as long as the heights and widths line up. An all-char single row
// concatenates as a string.
func BuildMatrix(rows [][]Value) (Value, error) {
	if len(rows) == 1 && len(rows[0]) > 0 {
		allChar := true
		for _, v := range rows[0] {
			if v.Kind() != KindChar {
				allChar = false
				break
			}
		}
		if allChar {
			var sb []byte
			for _, v := range rows[0] {
				sb = append(sb, string(v.(Char))...)
			}
			return Char(sb), nil
		}
	}

	var blocks [][]*Array
	for _, row := range rows {
		var blockRow []*Array
		for _, v := range row {
			a, ok := numeric(v)
			if !ok {
				return nil, fmt.Errorf("cannot concatenate %s into a matrix", v.Kind())
			}
			if a.IsEmpty() {
				continue
			}
			blockRow = append(blockRow, a)
		}
		if len(blockRow) > 0 {
			blocks = append(blocks, blockRow)
		}
	}
	if len(blocks) == 0 {
		return Empty(), nil
	}

	var stacked []*Array
	for _, blockRow := range blocks {
		h := blockRow[0].Rows
		w := 0
		for _, b := range blockRow {
			if b.Rows != h {
				return nil, fmt.Errorf("dimensions of arrays being concatenated are not consistent")
			}
			w += b.Cols
		}
		row := NewArray(h, w)
		at := 0
		for _, b := range blockRow {
			for j := 0; j < b.Cols; j++ {
				for i := 0; i < h; i++ {
					row.SetAt(i, at+j, b.At(i, j))
				}
			}
			at += b.Cols
		}
		stacked = append(stacked, row)
	}

	w := stacked[0].Cols
	h := 0
	for _, r := range stacked {
		if r.Cols != w {
			return nil, fmt.Errorf("dimensions of arrays being concatenated are not consistent")
		}
		h += r.Rows
	}
	out := NewArray(h, w)
	at := 0
	for _, r := range stacked {
		for i := 0; i < r.Rows; i++ {
			for j := 0; j < w; j++ {
				out.SetAt(at+i, j, r.At(i, j))
			}
		}
		at += r.Rows
	}
	return collapse(out), nil
}
