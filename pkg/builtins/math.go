package builtins

import (
	"math"

	"mexlab/pkg/runtime"
)

// mapElem applies f over every element, keeping shape. A scalar stays a
// scalar.
func mapElem(name string, v runtime.Value, f func(float64) float64) (runtime.Value, error) {
	if x, ok := runtime.AsFloat(v); ok {
		return runtime.Num(f(x)), nil
	}
	a, err := argMatrix(name, []runtime.Value{v}, 0)
	if err != nil {
		return nil, err
	}
	out := runtime.NewArray(a.Rows, a.Cols)
	for i := 0; i < a.Rows; i++ {
		for j := 0; j < a.Cols; j++ {
			out.SetAt(i, j, f(a.At(i, j)))
		}
	}
	return out, nil
}

func registerElem(name string, f func(float64) float64) {
	register(name, 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		v, err := mapElem(name, args[0], f)
		if err != nil {
			return nil, err
		}
		return one(v), nil
	})
}

func init() {
	registerElem("sin", math.Sin)
	registerElem("cos", math.Cos)
	registerElem("tan", math.Tan)
	registerElem("asin", math.Asin)
	registerElem("acos", math.Acos)
	registerElem("atan", math.Atan)
	registerElem("sinh", math.Sinh)
	registerElem("cosh", math.Cosh)
	registerElem("tanh", math.Tanh)
	registerElem("exp", math.Exp)
	registerElem("log", math.Log)
	registerElem("log2", math.Log2)
	registerElem("log10", math.Log10)
	registerElem("sqrt", math.Sqrt)
	registerElem("abs", math.Abs)
	registerElem("floor", math.Floor)
	registerElem("ceil", math.Ceil)
	registerElem("round", math.Round)
	registerElem("fix", math.Trunc)
	registerElem("sign", func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0
	})

	register("atan2", 2, 2, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		y, err := argFloat("atan2", args, 0)
		if err != nil {
			return nil, err
		}
		x, err := argFloat("atan2", args, 1)
		if err != nil {
			return nil, err
		}
		return one(runtime.Num(math.Atan2(y, x))), nil
	})

	register("mod", 2, 2, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		m, err := argFloat("mod", args, 1)
		if err != nil {
			return nil, err
		}
		v, err := mapElem("mod", args[0], func(x float64) float64 {
			if m == 0 {
				return x
			}
			r := math.Mod(x, m)
			if r != 0 && (r < 0) != (m < 0) {
				r += m
			}
			return r
		})
		if err != nil {
			return nil, err
		}
		return one(v), nil
	})

	register("rem", 2, 2, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		m, err := argFloat("rem", args, 1)
		if err != nil {
			return nil, err
		}
		v, err := mapElem("rem", args[0], func(x float64) float64 { return math.Mod(x, m) })
		if err != nil {
			return nil, err
		}
		return one(v), nil
	})

	register("isnan", 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		v, err := mapElem("isnan", args[0], func(x float64) float64 {
			if math.IsNaN(x) {
				return 1
			}
			return 0
		})
		if err != nil {
			return nil, err
		}
		if a, ok := v.(*runtime.Array); ok {
			a.Logical = true
		}
		return one(v), nil
	})

	register("isinf", 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		v, err := mapElem("isinf", args[0], func(x float64) float64 {
			if math.IsInf(x, 0) {
				return 1
			}
			return 0
		})
		if err != nil {
			return nil, err
		}
		if a, ok := v.(*runtime.Array); ok {
			a.Logical = true
		}
		return one(v), nil
	})
}
