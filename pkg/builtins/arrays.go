package builtins

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"mexlab/pkg/runtime"
)

// fillDims reads the zeros/ones/rand style dimension arguments: none means
// 1x1, one argument n means n-by-n, two mean r-by-c.
func fillDims(name string, args []runtime.Value) (int, int, error) {
	switch len(args) {
	case 0:
		return 1, 1, nil
	case 1:
		n, err := argInt(name, args, 0)
		if err != nil {
			return 0, 0, err
		}
		return n, n, nil
	case 2:
		r, err := argInt(name, args, 0)
		if err != nil {
			return 0, 0, err
		}
		c, err := argInt(name, args, 1)
		if err != nil {
			return 0, 0, err
		}
		return r, c, nil
	}
	return 0, 0, fmt.Errorf("%s: too many dimension arguments", name)
}

func registerFill(name string, gen func() float64) {
	register(name, 0, 2, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		r, c, err := fillDims(name, args)
		if err != nil {
			return nil, err
		}
		if r == 1 && c == 1 {
			return one(runtime.Num(gen())), nil
		}
		if r <= 0 || c <= 0 {
			return one(runtime.Empty()), nil
		}
		a := runtime.NewArray(r, c)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				a.SetAt(i, j, gen())
			}
		}
		return one(a), nil
	})
}

// reduceCols applies f down each column; a vector input reduces to a
// scalar.
func reduceCols(name string, f func([]float64) float64) Impl {
	return func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		a, err := argMatrix(name, args, 0)
		if err != nil {
			return nil, err
		}
		if a.IsEmpty() {
			return one(runtime.Num(0)), nil
		}
		if a.IsVector() {
			return one(runtime.Num(f(a.Values()))), nil
		}
		out := make([]float64, a.Cols)
		for j := range out {
			out[j] = f(a.Col(j))
		}
		return one(runtime.RowVector(out)), nil
	}
}

func init() {
	registerFill("zeros", func() float64 { return 0 })
	registerFill("ones", func() float64 { return 1 })
	registerFill("rand", rand.Float64)
	registerFill("randn", rand.NormFloat64)

	register("eye", 0, 2, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		r, c, err := fillDims("eye", args)
		if err != nil {
			return nil, err
		}
		if r == 1 && c == 1 {
			return one(runtime.Num(1)), nil
		}
		a := runtime.NewArray(r, c)
		for i := 0; i < r && i < c; i++ {
			a.SetAt(i, i, 1)
		}
		return one(a), nil
	})

	register("linspace", 2, 3, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		lo, err := argFloat("linspace", args, 0)
		if err != nil {
			return nil, err
		}
		hi, err := argFloat("linspace", args, 1)
		if err != nil {
			return nil, err
		}
		n := 100
		if len(args) == 3 {
			if n, err = argInt("linspace", args, 2); err != nil {
				return nil, err
			}
		}
		if n < 1 {
			return one(runtime.Empty()), nil
		}
		if n == 1 {
			return one(runtime.RowVector([]float64{hi})), nil
		}
		vals := make([]float64, n)
		floats.Span(vals, lo, hi)
		return one(runtime.RowVector(vals)), nil
	})

	register("size", 1, 2, func(_ *runtime.Context, args []runtime.Value, nargout int) ([]runtime.Value, error) {
		r, c := valueDims(args[0])
		if len(args) == 2 {
			dim, err := argInt("size", args, 1)
			if err != nil {
				return nil, err
			}
			switch dim {
			case 1:
				return one(runtime.Num(r)), nil
			case 2:
				return one(runtime.Num(c)), nil
			}
			return one(runtime.Num(1)), nil
		}
		if nargout >= 2 {
			return []runtime.Value{runtime.Num(r), runtime.Num(c)}, nil
		}
		return one(runtime.RowVector([]float64{float64(r), float64(c)})), nil
	})

	register("length", 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		r, c := valueDims(args[0])
		if r == 0 || c == 0 {
			return one(runtime.Num(0)), nil
		}
		if c > r {
			return one(runtime.Num(c)), nil
		}
		return one(runtime.Num(r)), nil
	})

	register("numel", 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		r, c := valueDims(args[0])
		return one(runtime.Num(r * c)), nil
	})

	register("isempty", 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		r, c := valueDims(args[0])
		return one(runtime.Bool(r == 0 || c == 0)), nil
	})

	register("sum", 1, 1, reduceCols("sum", floats.Sum))
	register("prod", 1, 1, reduceCols("prod", floats.Prod))
	register("min", 1, 2, extremum("min", floats.Min))
	register("max", 1, 2, extremum("max", floats.Max))
	register("mean", 1, 1, reduceCols("mean", func(v []float64) float64 {
		return floats.Sum(v) / float64(len(v))
	}))
	register("std", 1, 1, reduceCols("std", func(v []float64) float64 {
		// Sample standard deviation, the MATLAB default normalization.
		if len(v) < 2 {
			return 0
		}
		m := floats.Sum(v) / float64(len(v))
		var ss float64
		for _, x := range v {
			d := x - m
			ss += d * d
		}
		return math.Sqrt(ss / float64(len(v)-1))
	}))

	register("reshape", 3, 3, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		a, err := argMatrix("reshape", args, 0)
		if err != nil {
			return nil, err
		}
		r, err := argInt("reshape", args, 1)
		if err != nil {
			return nil, err
		}
		c, err := argInt("reshape", args, 2)
		if err != nil {
			return nil, err
		}
		if r*c != a.Numel() {
			return nil, fmt.Errorf("reshape: element counts must match (%d vs %d)", a.Numel(), r*c)
		}
		out := runtime.NewArray(r, c)
		for k, f := range a.Values() {
			out.SetAt(k%r, k/r, f)
		}
		return one(out), nil
	})

	register("disp", 1, 1, func(ctx *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		fmt.Fprintln(ctx.Out, args[0].String())
		return nil, nil
	})

	register("num2str", 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		if f, ok := runtime.AsFloat(args[0]); ok {
			return one(runtime.Char(runtime.FormatFloat(f))), nil
		}
		return one(runtime.Char(args[0].String())), nil
	})

	register("strcmp", 2, 2, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		a, ok1 := args[0].(runtime.Char)
		b, ok2 := args[1].(runtime.Char)
		return one(runtime.Bool(ok1 && ok2 && a == b)), nil
	})

	register("cell", 0, 2, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		r, c, err := fillDims("cell", args)
		if err != nil {
			return nil, err
		}
		return one(runtime.NewCell(r, c)), nil
	})

	register("struct", 0, -1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		if len(args)%2 != 0 {
			return nil, fmt.Errorf("struct: field names and values must pair up")
		}
		s := runtime.NewStruct()
		for i := 0; i < len(args); i += 2 {
			name, err := argChar("struct", args, i)
			if err != nil {
				return nil, err
			}
			s.Fields[name] = args[i+1].Copy()
		}
		return one(s), nil
	})

	register("isfield", 2, 2, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		s, ok := args[0].(*runtime.Struct)
		if !ok {
			return one(runtime.Bool(false)), nil
		}
		name, err := argChar("isfield", args, 1)
		if err != nil {
			return nil, err
		}
		_, has := s.Fields[name]
		return one(runtime.Bool(has)), nil
	})

	register("clc", 0, 0, func(ctx *runtime.Context, _ []runtime.Value, _ int) ([]runtime.Value, error) {
		fmt.Fprint(ctx.Out, "\033[H\033[2J")
		return nil, nil
	})

	register("error", 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		msg, err := argChar("error", args, 0)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s", msg)
	})
}

// extremum reduces like min/max with one argument; with two it compares
// elementwise.
func extremum(name string, f func([]float64) float64) Impl {
	reduce := reduceCols(name, f)
	return func(ctx *runtime.Context, args []runtime.Value, nargout int) ([]runtime.Value, error) {
		if len(args) == 1 {
			return reduce(ctx, args, nargout)
		}
		pick := func(x, y float64) float64 { return f([]float64{x, y}) }
		v, err := mapPair(name, args[0], args[1], pick)
		if err != nil {
			return nil, err
		}
		return one(v), nil
	}
}

func mapPair(name string, a, b runtime.Value, f func(x, y float64) float64) (runtime.Value, error) {
	if fb, ok := runtime.AsFloat(b); ok {
		return mapElem(name, a, func(x float64) float64 { return f(x, fb) })
	}
	if fa, ok := runtime.AsFloat(a); ok {
		return mapElem(name, b, func(y float64) float64 { return f(fa, y) })
	}
	am, err := argMatrix(name, []runtime.Value{a}, 0)
	if err != nil {
		return nil, err
	}
	bm, err := argMatrix(name, []runtime.Value{b}, 0)
	if err != nil {
		return nil, err
	}
	if am.Rows != bm.Rows || am.Cols != bm.Cols {
		return nil, fmt.Errorf("%s: matrix dimensions must agree", name)
	}
	out := runtime.NewArray(am.Rows, am.Cols)
	for i := 0; i < am.Rows; i++ {
		for j := 0; j < am.Cols; j++ {
			out.SetAt(i, j, f(am.At(i, j), bm.At(i, j)))
		}
	}
	return out, nil
}

func valueDims(v runtime.Value) (int, int) {
	switch x := v.(type) {
	case runtime.Num, runtime.Bool:
		return 1, 1
	case runtime.Char:
		if len(x) == 0 {
			return 0, 0
		}
		return 1, len([]rune(string(x)))
	case *runtime.Array:
		return x.Rows, x.Cols
	case *runtime.Cell:
		return x.Rows, x.Cols
	case *runtime.Struct:
		return 1, 1
	}
	return 1, 1
}
