// Package runtime holds the value model and numeric kernels that compiled
// programs execute against: double matrices backed by gonum, character
// rows, cell arrays, structs and callable function values, plus the
// elementwise and linear-algebra operators over them.
package runtime

import (
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the value types a workspace variable can hold.
type Kind int

const (
	KindNum    Kind = iota // scalar double
	KindBool               // scalar logical
	KindArray              // 2-D double (or logical) matrix
	KindChar               // character row vector
	KindCell               // 2-D cell array
	KindStruct             // scalar struct
	KindFunc               // function handle
)

var kindNames = [...]string{
	KindNum:    "double",
	KindBool:   "logical",
	KindArray:  "matrix",
	KindChar:   "char",
	KindCell:   "cell",
	KindStruct: "struct",
	KindFunc:   "function_handle",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is anything a variable can hold. Copy returns an independent value:
// assignment always copies, so mutating b after b = a never touches a.
type Value interface {
	Kind() Kind
	Copy() Value
	String() string
}

// Num is a scalar double.
type Num float64

func (Num) Kind() Kind       { return KindNum }
func (n Num) Copy() Value    { return n }
func (n Num) String() string { return formatFloat(float64(n)) }

// Bool is a scalar logical, produced by comparisons and logical operators.
type Bool bool

func (Bool) Kind() Kind    { return KindBool }
func (b Bool) Copy() Value { return b }
func (b Bool) String() string {
	if b {
		return "1"
	}
	return "0"
}

// Char is a character row vector.
type Char string

func (Char) Kind() Kind       { return KindChar }
func (c Char) Copy() Value    { return c }
func (c Char) String() string { return string(c) }

// Cell is a 2-D cell array stored row-major.
type Cell struct {
	Rows, Cols int
	Items      []Value // len Rows*Cols, row-major
}

// NewCell allocates an r-by-c cell array of empty matrices.
func NewCell(r, c int) *Cell {
	items := make([]Value, r*c)
	for i := range items {
		items[i] = Empty()
	}
	return &Cell{Rows: r, Cols: c, Items: items}
}

func (*Cell) Kind() Kind { return KindCell }

func (c *Cell) Copy() Value {
	items := make([]Value, len(c.Items))
	for i, v := range c.Items {
		items[i] = v.Copy()
	}
	return &Cell{Rows: c.Rows, Cols: c.Cols, Items: items}
}

// At returns the item at 0-based (i, j).
func (c *Cell) At(i, j int) Value { return c.Items[i*c.Cols+j] }

// SetAt replaces the item at 0-based (i, j).
func (c *Cell) SetAt(i, j int, v Value) { c.Items[i*c.Cols+j] = v }

func (c *Cell) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i := 0; i < c.Rows; i++ {
		if i > 0 {
			sb.WriteString("; ")
		}
		for j := 0; j < c.Cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			item := c.At(i, j)
			if item.Kind() == KindChar {
				sb.WriteString("'" + item.String() + "'")
			} else {
				sb.WriteString(item.String())
			}
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

// Struct is a scalar struct: named fields holding values.
type Struct struct {
	Fields map[string]Value
}

// NewStruct returns an empty struct value.
func NewStruct() *Struct { return &Struct{Fields: make(map[string]Value)} }

func (*Struct) Kind() Kind { return KindStruct }

func (s *Struct) Copy() Value {
	out := NewStruct()
	for name, v := range s.Fields {
		out.Fields[name] = v.Copy()
	}
	return out
}

func (s *Struct) String() string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteString("struct")
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("\n    %s: %s", name, s.Fields[name].String()))
	}
	return sb.String()
}

// Function is a callable value: a built-in, a user function, or an
// anonymous function with captured workspace.
type Function struct {
	Name    string
	Params  []string
	Outputs []string
	// Invoke runs the body. nargout is how many outputs the caller binds;
	// the result slice may be shorter when the body assigns fewer.
	Invoke func(ctx *Context, args []Value, nargout int) ([]Value, error)
}

func (*Function) Kind() Kind    { return KindFunc }
func (f *Function) Copy() Value { return f } // handles share the body
func (f *Function) String() string {
	if f.Name != "" {
		return "@" + f.Name
	}
	return "@(" + strings.Join(f.Params, ",") + ") ..."
}

// AsFloat narrows a value to a scalar double. Arrays qualify only when 1x1.
func AsFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case Num:
		return float64(x), true
	case Bool:
		if x {
			return 1, true
		}
		return 0, true
	case *Array:
		if x.Rows == 1 && x.Cols == 1 {
			return x.At(0, 0), true
		}
	}
	return 0, false
}

// AsInt narrows a value to an integer, rejecting fractional parts.
func AsInt(v Value) (int, bool) {
	f, ok := AsFloat(v)
	if !ok {
		return 0, false
	}
	n := int(f)
	if float64(n) != f {
		return 0, false
	}
	return n, true
}
