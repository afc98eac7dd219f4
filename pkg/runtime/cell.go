package runtime

import "fmt"

// Cell subscripting mirrors matrix subscripting: one index is column-major
// linear, two are (row, col). Brace access addresses one item; paren access
// slices a sub-cell.

func (c *Cell) linearAt(k int) Value { return c.At(k%c.Rows, k/c.Rows) }

// GetItem reads c{...}: the resolved position must name exactly one item.
func (c *Cell) GetItem(idx []Index) (Value, error) {
	pts, err := c.resolveSingle(idx)
	if err != nil {
		return nil, err
	}
	switch len(pts) {
	case 1:
		return c.linearAt(pts[0]), nil
	default:
		return c.At(pts[0], pts[1]), nil
	}
}

// Slice reads c(...): the result is itself a cell array.
func (c *Cell) Slice(idx []Index) (*Cell, error) {
	switch len(idx) {
	case 1:
		pts, err := idx[0].resolve(c.Rows * c.Cols)
		if err != nil {
			return nil, err
		}
		out := NewCell(1, len(pts))
		for j, p := range pts {
			out.SetAt(0, j, c.linearAt(p))
		}
		return out, nil
	case 2:
		rows, err := idx[0].resolve(c.Rows)
		if err != nil {
			return nil, err
		}
		cols, err := idx[1].resolve(c.Cols)
		if err != nil {
			return nil, err
		}
		out := NewCell(len(rows), len(cols))
		for i, r := range rows {
			for j, cl := range cols {
				out.SetAt(i, j, c.At(r, cl))
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("too many subscripts: %d", len(idx))
}

// SetItem writes c{...} = v, growing the cell when the position lies past
// the current bounds. New slots hold the empty matrix.
func (c *Cell) SetItem(idx []Index, v Value) (*Cell, error) {
	switch len(idx) {
	case 1:
		if idx[0].Colon || len(idx[0].Points) != 1 {
			return nil, fmt.Errorf("cell assignment needs a single position")
		}
		k := idx[0].Points[0]
		if k < 0 {
			return nil, fmt.Errorf("index must be a positive integer")
		}
		out := c.growLinear(k + 1)
		// growLinear refuses to reshape a true matrix, so the position can
		// still lie outside it.
		if k >= out.Rows*out.Cols {
			return nil, fmt.Errorf("index exceeds matrix dimensions")
		}
		out.Items[(k%out.Rows)*out.Cols+k/out.Rows] = v
		return out, nil
	case 2:
		for _, ix := range idx {
			if ix.Colon || len(ix.Points) != 1 {
				return nil, fmt.Errorf("cell assignment needs a single position")
			}
		}
		r, cl := idx[0].Points[0], idx[1].Points[0]
		if r < 0 || cl < 0 {
			return nil, fmt.Errorf("index must be a positive integer")
		}
		out := c.grow(r+1, cl+1)
		out.SetAt(r, cl, v)
		return out, nil
	}
	return nil, fmt.Errorf("too many subscripts: %d", len(idx))
}

func (c *Cell) resolveSingle(idx []Index) ([]int, error) {
	switch len(idx) {
	case 1:
		pts, err := idx[0].resolve(c.Rows * c.Cols)
		if err != nil {
			return nil, err
		}
		if len(pts) != 1 {
			return nil, fmt.Errorf("cell item access needs a single position")
		}
		return pts, nil
	case 2:
		r, err := idx[0].resolve(c.Rows)
		if err != nil {
			return nil, err
		}
		cl, err := idx[1].resolve(c.Cols)
		if err != nil {
			return nil, err
		}
		if len(r) != 1 || len(cl) != 1 {
			return nil, fmt.Errorf("cell item access needs a single position")
		}
		return []int{r[0], cl[0]}, nil
	}
	return nil, fmt.Errorf("too many subscripts: %d", len(idx))
}

func (c *Cell) growLinear(n int) *Cell {
	if n <= c.Rows*c.Cols {
		return c.Copy().(*Cell)
	}
	var out *Cell
	switch {
	case c.Rows*c.Cols == 0:
		out = NewCell(1, n)
	case c.Rows == 1:
		out = NewCell(1, n)
	case c.Cols == 1:
		out = NewCell(n, 1)
	default:
		return c.Copy().(*Cell)
	}
	for k := 0; k < c.Rows*c.Cols; k++ {
		out.Items[(k%out.Rows)*out.Cols+k/out.Rows] = c.linearAt(k)
	}
	return out
}

func (c *Cell) grow(r, cl int) *Cell {
	if r <= c.Rows && cl <= c.Cols {
		return c.Copy().(*Cell)
	}
	if r < c.Rows {
		r = c.Rows
	}
	if cl < c.Cols {
		cl = c.Cols
	}
	out := NewCell(r, cl)
	for i := 0; i < c.Rows; i++ {
		for j := 0; j < c.Cols; j++ {
			out.SetAt(i, j, c.At(i, j))
		}
	}
	return out
}
