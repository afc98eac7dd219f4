package runtime

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   func(a, b Value) (Value, error)
		a, b float64
		want float64
	}{
		{"add", Add, 2, 3, 5},
		{"sub", Sub, 2, 3, -1},
		{"mul", Mul, 4, 2.5, 10},
		{"div", Div, 7, 2, 3.5},
		{"ldiv", LDiv, 2, 7, 3.5},
		{"pow", Pow, 2, 10, 1024},
		{"elemPow", ElemPow, 9, 0.5, 3},
	}
	for _, tc := range tests {
		v, err := tc.op(Num(tc.a), Num(tc.b))
		require.NoError(t, err, tc.name)
		assert.Equal(t, Num(tc.want), v, tc.name)
	}
}

func TestScalarBroadcast(t *testing.T) {
	a := RowVector([]float64{1, 2, 3})
	v, err := Add(a, Num(10))
	require.NoError(t, err)
	out := v.(*Array)
	if diff := cmp.Diff([]float64{11, 12, 13}, out.Values()); diff != "" {
		t.Errorf("broadcast add mismatch (-want +got):\n%s", diff)
	}

	v, err = Mul(Num(2), a)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 6}, v.(*Array).Values())
}

func TestElementwiseShapeMismatch(t *testing.T) {
	_, err := Add(RowVector([]float64{1, 2}), RowVector([]float64{1, 2, 3}))
	assert.ErrorContains(t, err, "dimensions must agree")
}

func TestMatrixMultiply(t *testing.T) {
	a := FromRows([][]float64{{1, 2}, {3, 4}})
	b := FromRows([][]float64{{5, 6}, {7, 8}})
	v, err := Mul(a, b)
	require.NoError(t, err)
	got := v.(*Array)
	want := [][]float64{{19, 22}, {43, 50}}
	for i := range want {
		for j := range want[i] {
			assert.Equal(t, want[i][j], got.At(i, j))
		}
	}

	// inner dimensions must line up
	_, err = Mul(a, RowVector([]float64{1, 2, 3}))
	assert.ErrorContains(t, err, "inner matrix dimensions")
}

func TestCharWidensToCodePoints(t *testing.T) {
	v, err := Add(Char("a"), Num(1))
	require.NoError(t, err)
	assert.Equal(t, Num(98), v)
}

func TestLeftDivideSolves(t *testing.T) {
	// [2 0; 0 4] x = [2; 8]  =>  x = [1; 2]
	a := FromRows([][]float64{{2, 0}, {0, 4}})
	b := ColVector([]float64{2, 8})
	v, err := LDiv(a, b)
	require.NoError(t, err)
	x := v.(*Array)
	assert.InDelta(t, 1, x.At(0, 0), 1e-12)
	assert.InDelta(t, 2, x.At(1, 0), 1e-12)

	sing := FromRows([][]float64{{1, 2}, {2, 4}})
	_, err = LDiv(sing, b)
	assert.ErrorContains(t, err, "singular")
}

func TestRightDivideSolves(t *testing.T) {
	// x [2 0; 0 4] = [2 8]  =>  x = [1 2]
	a := RowVector([]float64{2, 8})
	b := FromRows([][]float64{{2, 0}, {0, 4}})
	v, err := Div(a, b)
	require.NoError(t, err)
	x := v.(*Array)
	assert.InDelta(t, 1, x.At(0, 0), 1e-12)
	assert.InDelta(t, 2, x.At(0, 1), 1e-12)
}

func TestMatrixPower(t *testing.T) {
	a := FromRows([][]float64{{1, 1}, {0, 1}})
	v, err := Pow(a, Num(3))
	require.NoError(t, err)
	assert.Equal(t, 3.0, v.(*Array).At(0, 1))

	_, err = Pow(a, Num(0.5))
	assert.Error(t, err)
	_, err = Pow(RowVector([]float64{1, 2}), Num(2))
	assert.ErrorContains(t, err, "square")
}

func TestCompare(t *testing.T) {
	v, err := Compare("<", RowVector([]float64{1, 5, 3}), Num(3))
	require.NoError(t, err)
	out := v.(*Array)
	assert.True(t, out.Logical)
	assert.Equal(t, []float64{1, 0, 0}, out.Values())

	// equal-length chars compare elementwise, unequal as whole strings
	v, err = Compare("==", Char("abc"), Char("abd"))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 0}, v.(*Array).Values())

	v, err = Compare("==", Char("abc"), Char("ab"))
	require.NoError(t, err)
	assert.Equal(t, Bool(false), v)

	v, err = Compare("~=", Char("abc"), Char("ab"))
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)
}

func TestLogicalOps(t *testing.T) {
	v, err := And(Num(1), Num(0))
	require.NoError(t, err)
	assert.Equal(t, Bool(false), v)

	v, err = Or(Num(0), Num(3))
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)

	v, err = Not(RowVector([]float64{0, 2}))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, v.(*Array).Values())
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Num(1), true},
		{Num(0), false},
		{Bool(true), true},
		{Char(""), false},
		{Char("x"), true},
		{Empty(), false},
		{RowVector([]float64{1, 2}), true},
		{RowVector([]float64{1, 0}), false},
	}
	for _, tc := range tests {
		got, err := Truthy(tc.v)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "Truthy(%v)", tc.v)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Num(3), Num(3)))
	assert.False(t, Equal(Num(3), Num(4)))
	assert.True(t, Equal(Char("hi"), Char("hi")))
	assert.False(t, Equal(Char("hi"), Num(104)))
	assert.True(t, Equal(RowVector([]float64{1, 2}), RowVector([]float64{1, 2})))
	assert.False(t, Equal(RowVector([]float64{1, 2}), ColVector([]float64{1, 2})))
}

func TestBuildRange(t *testing.T) {
	v, err := BuildRange(1, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, v.(*Array).Values())

	// the endpoint survives accumulated float error
	v, err = BuildRange(0, 0.1, 1)
	require.NoError(t, err)
	vals := v.(*Array).Values()
	require.Len(t, vals, 11)
	assert.InDelta(t, 1.0, vals[10], 1e-12)

	v, err = BuildRange(5, 1, 1)
	require.NoError(t, err)
	assert.True(t, v.(*Array).IsEmpty())

	v, err = BuildRange(10, -2, 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 8, 6, 4}, v.(*Array).Values())

	_, err = BuildRange(1, 0, 5)
	assert.Error(t, err)
}

func TestBuildMatrix(t *testing.T) {
	v, err := BuildMatrix([][]Value{{Num(1), Num(2)}, {Num(3), Num(4)}})
	require.NoError(t, err)
	m := v.(*Array)
	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 4.0, m.At(1, 1))

	// block concatenation
	row := RowVector([]float64{1, 2})
	v, err = BuildMatrix([][]Value{{row, Num(3)}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, v.(*Array).Values())

	// all-char row concatenates as a string
	v, err = BuildMatrix([][]Value{{Char("ab"), Char("cd")}})
	require.NoError(t, err)
	assert.Equal(t, Char("abcd"), v)

	// empties vanish
	v, err = BuildMatrix([][]Value{{Empty(), Num(7)}})
	require.NoError(t, err)
	assert.Equal(t, Num(7), v)

	_, err = BuildMatrix([][]Value{{row, ColVector([]float64{1, 2})}})
	assert.ErrorContains(t, err, "not consistent")
}

func TestNegNaN(t *testing.T) {
	v, err := Neg(Num(math.NaN()))
	require.NoError(t, err)
	f, ok := AsFloat(v)
	require.True(t, ok)
	assert.True(t, math.IsNaN(f))
}
