package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayLinearIndexIsColumnMajor(t *testing.T) {
	a := FromRows([][]float64{{1, 2}, {3, 4}})
	assert.Equal(t, 1.0, a.LinearAt(0))
	assert.Equal(t, 3.0, a.LinearAt(1))
	assert.Equal(t, 2.0, a.LinearAt(2))
	assert.Equal(t, 4.0, a.LinearAt(3))
}

func TestArrayGet(t *testing.T) {
	a := FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})

	v, err := a.Get([]Index{PointIndex(0), PointIndex(2)})
	require.NoError(t, err)
	assert.Equal(t, Num(3), v)

	v, err = a.Get([]Index{PointIndex(0), {Colon: true}})
	require.NoError(t, err)
	row := v.(*Array)
	assert.Equal(t, 1, row.Rows)
	assert.Equal(t, []float64{1, 2, 3}, row.Values())

	// A(:) stacks column-major into a column vector
	v, err = a.Get([]Index{{Colon: true}})
	require.NoError(t, err)
	col := v.(*Array)
	assert.Equal(t, 6, col.Rows)
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, col.Values())

	_, err = a.Get([]Index{PointIndex(9)})
	assert.Error(t, err)
}

func TestArraySetGrowsVectors(t *testing.T) {
	a := RowVector([]float64{1, 2})
	out, err := a.Set([]Index{PointIndex(4)}, Num(9))
	require.NoError(t, err)
	assert.Equal(t, 1, out.Rows)
	assert.Equal(t, []float64{1, 2, 0, 0, 9}, out.Values())
	// the receiver is untouched
	assert.Equal(t, []float64{1, 2}, a.Values())

	col := ColVector([]float64{1})
	out, err = col.Set([]Index{PointIndex(2)}, Num(5))
	require.NoError(t, err)
	assert.Equal(t, 3, out.Rows)
	assert.Equal(t, 1, out.Cols)
}

func TestArraySetGrowsMatrix(t *testing.T) {
	a := FromRows([][]float64{{1, 2}, {3, 4}})
	out, err := a.Set([]Index{PointIndex(2), PointIndex(3)}, Num(7))
	require.NoError(t, err)
	assert.Equal(t, 3, out.Rows)
	assert.Equal(t, 4, out.Cols)
	assert.Equal(t, 7.0, out.At(2, 3))
	assert.Equal(t, 1.0, out.At(0, 0))
	assert.Equal(t, 0.0, out.At(2, 0))
}

func TestArraySetRejectsMatrixLinearGrowth(t *testing.T) {
	a := FromRows([][]float64{{1, 2}, {3, 4}})
	_, err := a.Set([]Index{PointIndex(8)}, Num(1))
	assert.Error(t, err)
}

func TestArrayTranspose(t *testing.T) {
	a := FromRows([][]float64{{1, 2, 3}})
	tr := a.Transpose()
	assert.Equal(t, 3, tr.Rows)
	assert.Equal(t, 1, tr.Cols)
	assert.Equal(t, []float64{1, 2, 3}, tr.Values())
}

func TestArrayCopyIsDeep(t *testing.T) {
	a := FromRows([][]float64{{1, 2}})
	b := a.Copy().(*Array)
	b.SetAt(0, 0, 99)
	assert.Equal(t, 1.0, a.At(0, 0))
}

func TestEmptyArray(t *testing.T) {
	e := Empty()
	assert.True(t, e.IsEmpty())
	assert.Equal(t, 0, e.Numel())
	assert.Equal(t, "[]", e.String())
}
