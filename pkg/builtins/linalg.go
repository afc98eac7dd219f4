package builtins

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"mexlab/pkg/runtime"
)

func squareArg(name string, args []runtime.Value) (*runtime.Array, error) {
	a, err := argMatrix(name, args, 0)
	if err != nil {
		return nil, err
	}
	if a.Rows != a.Cols || a.IsEmpty() {
		return nil, fmt.Errorf("%s: matrix must be square", name)
	}
	return a, nil
}

func init() {
	register("inv", 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		a, err := squareArg("inv", args)
		if err != nil {
			return nil, err
		}
		out := runtime.NewArray(a.Rows, a.Cols)
		if err := out.Data.Inverse(a.Data); err != nil {
			return nil, fmt.Errorf("matrix is singular to working precision")
		}
		return one(out), nil
	})

	register("det", 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		a, err := squareArg("det", args)
		if err != nil {
			return nil, err
		}
		return one(runtime.Num(mat.Det(a.Data))), nil
	})

	register("trace", 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		a, err := squareArg("trace", args)
		if err != nil {
			return nil, err
		}
		return one(runtime.Num(mat.Trace(a.Data))), nil
	})

	register("rank", 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		a, err := argMatrix("rank", args, 0)
		if err != nil {
			return nil, err
		}
		if a.IsEmpty() {
			return one(runtime.Num(0)), nil
		}
		var svd mat.SVD
		if !svd.Factorize(a.Data, mat.SVDNone) {
			return nil, fmt.Errorf("rank: SVD failed to converge")
		}
		sv := svd.Values(nil)
		tol := 1e-10 * sv[0]
		n := 0
		for _, s := range sv {
			if s > tol {
				n++
			}
		}
		return one(runtime.Num(n)), nil
	})

	register("norm", 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		a, err := argMatrix("norm", args, 0)
		if err != nil {
			return nil, err
		}
		if a.IsEmpty() {
			return one(runtime.Num(0)), nil
		}
		if a.IsVector() {
			return one(runtime.Num(floats.Norm(a.Values(), 2))), nil
		}
		return one(runtime.Num(mat.Norm(a.Data, 2))), nil
	})

	register("eig", 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		a, err := squareArg("eig", args)
		if err != nil {
			return nil, err
		}
		vals, err := realEigenvalues(a)
		if err != nil {
			return nil, err
		}
		return one(runtime.ColVector(vals)), nil
	})

	register("dot", 2, 2, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		a, err := argMatrix("dot", args, 0)
		if err != nil {
			return nil, err
		}
		b, err := argMatrix("dot", args, 1)
		if err != nil {
			return nil, err
		}
		if !a.IsVector() || !b.IsVector() || a.Numel() != b.Numel() {
			return nil, fmt.Errorf("dot: inputs must be vectors of the same length")
		}
		return one(runtime.Num(floats.Dot(a.Values(), b.Values()))), nil
	})

	register("roots", 1, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		a, err := argMatrix("roots", args, 0)
		if err != nil {
			return nil, err
		}
		if !a.IsVector() {
			return nil, fmt.Errorf("roots: input must be a coefficient vector")
		}
		coeffs := a.Values()
		for len(coeffs) > 0 && coeffs[0] == 0 {
			coeffs = coeffs[1:]
		}
		n := len(coeffs) - 1
		if n < 1 {
			return one(runtime.Empty()), nil
		}
		// Companion matrix of the monic polynomial.
		comp := runtime.NewArray(n, n)
		for j := 0; j < n; j++ {
			comp.SetAt(0, j, -coeffs[j+1]/coeffs[0])
		}
		for i := 1; i < n; i++ {
			comp.SetAt(i, i-1, 1)
		}
		vals, err := realEigenvalues(comp)
		if err != nil {
			return nil, err
		}
		return one(runtime.ColVector(vals)), nil
	})
}

// realEigenvalues factors a and returns the eigenvalues, rejecting complex
// spectra: this dialect carries real doubles only.
func realEigenvalues(a *runtime.Array) ([]float64, error) {
	var eig mat.Eigen
	if !eig.Factorize(a.Data, mat.EigenNone) {
		return nil, fmt.Errorf("eig: factorization failed to converge")
	}
	cvals := eig.Values(nil)
	vals := make([]float64, len(cvals))
	for i, cv := range cvals {
		if imagPart := imag(cv); imagPart > 1e-9 || imagPart < -1e-9 {
			return nil, fmt.Errorf("eig: complex eigenvalues are not supported")
		}
		vals[i] = real(cv)
	}
	sort.Float64s(vals)
	return vals, nil
}
