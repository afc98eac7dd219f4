package runtime

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Array is a 2-D double matrix. Data is nil exactly when the array is empty
// (mat.NewDense rejects zero dimensions, so the empty case is carried in
// Rows/Cols alone). Logical marks the result of a comparison; the elements
// are still stored as 0/1 doubles.
type Array struct {
	Rows, Cols int
	Data       *mat.Dense
	Logical    bool
}

// Empty returns the 0x0 empty matrix, the value of [].
func Empty() *Array { return &Array{} }

// NewArray allocates an r-by-c zero matrix.
func NewArray(r, c int) *Array {
	if r == 0 || c == 0 {
		return &Array{Rows: r, Cols: c}
	}
	return &Array{Rows: r, Cols: c, Data: mat.NewDense(r, c, nil)}
}

// FromRows builds an array from row-major rows. All rows must have equal
// length; the caller checks that.
func FromRows(rows [][]float64) *Array {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Empty()
	}
	a := NewArray(len(rows), len(rows[0]))
	for i, row := range rows {
		a.Data.SetRow(i, row)
	}
	return a
}

// RowVector builds a 1-by-n array from vals.
func RowVector(vals []float64) *Array {
	if len(vals) == 0 {
		return Empty()
	}
	return &Array{Rows: 1, Cols: len(vals), Data: mat.NewDense(1, len(vals), vals)}
}

// ColVector builds an n-by-1 array from vals.
func ColVector(vals []float64) *Array {
	if len(vals) == 0 {
		return Empty()
	}
	return &Array{Rows: len(vals), Cols: 1, Data: mat.NewDense(len(vals), 1, vals)}
}

func (*Array) Kind() Kind { return KindArray }

func (a *Array) Copy() Value {
	if a.IsEmpty() {
		return &Array{Rows: a.Rows, Cols: a.Cols, Logical: a.Logical}
	}
	out := &Array{Rows: a.Rows, Cols: a.Cols, Logical: a.Logical}
	out.Data = mat.DenseCopyOf(a.Data)
	return out
}

// IsEmpty reports whether the array has no elements.
func (a *Array) IsEmpty() bool { return a.Rows == 0 || a.Cols == 0 }

// Numel returns the element count.
func (a *Array) Numel() int { return a.Rows * a.Cols }

// IsVector reports whether the array has a single row or column.
func (a *Array) IsVector() bool {
	return !a.IsEmpty() && (a.Rows == 1 || a.Cols == 1)
}

// At returns the element at 0-based (i, j).
func (a *Array) At(i, j int) float64 { return a.Data.At(i, j) }

// SetAt stores f at 0-based (i, j).
func (a *Array) SetAt(i, j int, f float64) { a.Data.Set(i, j, f) }

// LinearAt returns element k in column-major order, 0-based.
func (a *Array) LinearAt(k int) float64 {
	return a.Data.At(k%a.Rows, k/a.Rows)
}

// Col returns column j as a slice.
func (a *Array) Col(j int) []float64 {
	out := make([]float64, a.Rows)
	mat.Col(out, j, a.Data)
	return out
}

// Values returns all elements in column-major order.
func (a *Array) Values() []float64 {
	out := make([]float64, a.Numel())
	for k := range out {
		out[k] = a.LinearAt(k)
	}
	return out
}

// Index addresses one subscript position: either the whole dimension (:) or
// an explicit list of 0-based points.
type Index struct {
	Colon  bool
	Points []int
}

// PointIndex is the common single-point case.
func PointIndex(k int) Index { return Index{Points: []int{k}} }

func (ix Index) resolve(dim int) ([]int, error) {
	if ix.Colon {
		pts := make([]int, dim)
		for i := range pts {
			pts[i] = i
		}
		return pts, nil
	}
	for _, p := range ix.Points {
		if p < 0 {
			return nil, fmt.Errorf("index must be a positive integer")
		}
		if p >= dim {
			return nil, fmt.Errorf("index exceeds matrix dimensions")
		}
	}
	return ix.Points, nil
}

// Get reads with MATLAB subscript semantics: one index is column-major
// linear, two are (row, col). A single resolved element comes back as a
// scalar; multiple elements keep matrix shape.
func (a *Array) Get(idx []Index) (Value, error) {
	switch len(idx) {
	case 1:
		return a.getLinear(idx[0])
	case 2:
		return a.getSub(idx[0], idx[1])
	}
	return nil, fmt.Errorf("too many subscripts: %d", len(idx))
}

func (a *Array) getLinear(ix Index) (Value, error) {
	if a.IsEmpty() {
		return nil, fmt.Errorf("index exceeds matrix dimensions")
	}
	pts, err := ix.resolve(a.Numel())
	if err != nil {
		return nil, err
	}
	if len(pts) == 1 && !ix.Colon {
		return Num(a.LinearAt(pts[0])), nil
	}
	vals := make([]float64, len(pts))
	for i, p := range pts {
		vals[i] = a.LinearAt(p)
	}
	// A(:) stacks into a column; linear indexing of a row vector keeps the
	// row orientation.
	if ix.Colon || a.Rows != 1 {
		return ColVector(vals), nil
	}
	return RowVector(vals), nil
}

func (a *Array) getSub(ri, ci Index) (Value, error) {
	if a.IsEmpty() {
		return nil, fmt.Errorf("index exceeds matrix dimensions")
	}
	rows, err := ri.resolve(a.Rows)
	if err != nil {
		return nil, err
	}
	cols, err := ci.resolve(a.Cols)
	if err != nil {
		return nil, err
	}
	if len(rows) == 1 && len(cols) == 1 && !ri.Colon && !ci.Colon {
		return Num(a.At(rows[0], cols[0])), nil
	}
	out := NewArray(len(rows), len(cols))
	for i, r := range rows {
		for j, c := range cols {
			out.SetAt(i, j, a.At(r, c))
		}
	}
	return out, nil
}

// Set writes with growth: assigning past the current bounds zero-pads the
// array out to the written position, so y(3) = 9 on a 1x2 y yields a 1x3.
func (a *Array) Set(idx []Index, v Value) (*Array, error) {
	switch len(idx) {
	case 1:
		return a.setLinear(idx[0], v)
	case 2:
		return a.setSub(idx[0], idx[1], v)
	}
	return nil, fmt.Errorf("too many subscripts: %d", len(idx))
}

func (a *Array) setLinear(ix Index, v Value) (*Array, error) {
	if ix.Colon {
		f, ok := AsFloat(v)
		if !ok {
			return nil, fmt.Errorf("A(:) = v needs a scalar right-hand side")
		}
		out := a.Copy().(*Array)
		for j := 0; j < out.Cols; j++ {
			for i := 0; i < out.Rows; i++ {
				out.SetAt(i, j, f)
			}
		}
		return out, nil
	}

	vals, err := elementsFor(v, len(ix.Points))
	if err != nil {
		return nil, err
	}
	max := 0
	for _, p := range ix.Points {
		if p < 0 {
			return nil, fmt.Errorf("index must be a positive integer")
		}
		if p+1 > max {
			max = p + 1
		}
	}

	out := a.growLinear(max)
	if max > out.Numel() {
		return nil, fmt.Errorf("index exceeds matrix dimensions")
	}
	for i, p := range ix.Points {
		out.Data.Set(p%out.Rows, p/out.Rows, vals[i])
	}
	return out, nil
}

// growLinear extends the array so linear index n-1 is addressable. Vectors
// grow along their own orientation; an empty array becomes a row vector.
// A true matrix cannot grow through a linear index.
func (a *Array) growLinear(n int) *Array {
	if n <= a.Numel() {
		return a.Copy().(*Array)
	}
	var out *Array
	switch {
	case a.IsEmpty():
		out = NewArray(1, n)
	case a.Rows == 1:
		out = NewArray(1, n)
	case a.Cols == 1:
		out = NewArray(n, 1)
	default:
		// Keep MATLAB's refusal to reshape a matrix through linear growth:
		// fall through to the old shape and let the Set fail on bounds.
		return a.Copy().(*Array)
	}
	for k := 0; k < a.Numel(); k++ {
		out.Data.Set(k%out.Rows, k/out.Rows, a.LinearAt(k))
	}
	return out
}

func (a *Array) setSub(ri, ci Index, v Value) (*Array, error) {
	rows, cols := growPoints(ri, a.Rows), growPoints(ci, a.Cols)
	maxR, maxC := a.Rows, a.Cols
	for _, r := range rows {
		if r < 0 {
			return nil, fmt.Errorf("index must be a positive integer")
		}
		if r+1 > maxR {
			maxR = r + 1
		}
	}
	for _, c := range cols {
		if c < 0 {
			return nil, fmt.Errorf("index must be a positive integer")
		}
		if c+1 > maxC {
			maxC = c + 1
		}
	}

	out := NewArray(maxR, maxC)
	for j := 0; j < a.Cols; j++ {
		for i := 0; i < a.Rows; i++ {
			out.SetAt(i, j, a.At(i, j))
		}
	}
	out.Logical = false

	if src, ok := v.(*Array); ok && src.Numel() > 1 {
		if src.Rows != len(rows) || src.Cols != len(cols) {
			// A row/col vector may fill a transposed slot when counts match.
			if src.Numel() != len(rows)*len(cols) {
				return nil, fmt.Errorf("subscripted assignment dimension mismatch")
			}
		}
		k := 0
		for j := range cols {
			for i := range rows {
				out.SetAt(rows[i], cols[j], src.LinearAt(k))
				k++
			}
		}
		return out, nil
	}

	f, ok := AsFloat(v)
	if !ok {
		return nil, fmt.Errorf("cannot assign %s into a matrix", v.Kind())
	}
	for _, r := range rows {
		for _, c := range cols {
			out.SetAt(r, c, f)
		}
	}
	return out, nil
}

func growPoints(ix Index, dim int) []int {
	if !ix.Colon {
		return ix.Points
	}
	n := dim
	if n == 0 {
		n = 1
	}
	pts := make([]int, n)
	for i := range pts {
		pts[i] = i
	}
	return pts
}

// elementsFor flattens v into n values: a scalar repeats, an array must
// match the count exactly.
func elementsFor(v Value, n int) ([]float64, error) {
	if f, ok := AsFloat(v); ok {
		out := make([]float64, n)
		for i := range out {
			out[i] = f
		}
		return out, nil
	}
	a, ok := v.(*Array)
	if !ok {
		return nil, fmt.Errorf("cannot assign %s into a matrix", v.Kind())
	}
	if a.Numel() != n {
		return nil, fmt.Errorf("subscripted assignment dimension mismatch")
	}
	return a.Values(), nil
}

// Transpose returns the transpose as a new array.
func (a *Array) Transpose() *Array {
	if a.IsEmpty() {
		return &Array{Rows: a.Cols, Cols: a.Rows, Logical: a.Logical}
	}
	out := NewArray(a.Cols, a.Rows)
	for i := 0; i < a.Rows; i++ {
		for j := 0; j < a.Cols; j++ {
			out.SetAt(j, i, a.At(i, j))
		}
	}
	out.Logical = a.Logical
	return out
}

func (a *Array) String() string {
	if a.IsEmpty() {
		return "[]"
	}
	if a.Rows == 1 && a.Cols == 1 {
		return formatFloat(a.At(0, 0))
	}
	var sb strings.Builder
	for i := 0; i < a.Rows; i++ {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for j := 0; j < a.Cols; j++ {
			sb.WriteString(fmt.Sprintf("%10s", formatFloat(a.At(i, j))))
		}
	}
	return sb.String()
}
