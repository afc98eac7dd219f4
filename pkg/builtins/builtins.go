// Package builtins is the static table of built-in functions the code
// generator resolves names against. Entries either carry an implementation
// or are recognized-but-unsupported: the name is known, so calling it is a
// compile-stage failure rather than an unknown-identifier error.
package builtins

import (
	"fmt"
	"sort"

	"mexlab/pkg/runtime"
)

// Impl runs a built-in. nargout is how many outputs the call site binds;
// implementations may return fewer.
type Impl func(ctx *runtime.Context, args []runtime.Value, nargout int) ([]runtime.Value, error)

// Entry describes one built-in. A nil Fn marks a name that is recognized
// but has no translation in this dialect.
type Entry struct {
	Name    string
	MinArgs int
	MaxArgs int // -1: unbounded
	Fn      Impl
}

var table = map[string]Entry{}

func register(name string, min, max int, fn Impl) {
	table[name] = Entry{Name: name, MinArgs: min, MaxArgs: max, Fn: fn}
}

// registerUnsupported records a name from the wider toolbox surface that
// this dialect does not translate.
func registerUnsupported(names ...string) {
	for _, name := range names {
		table[name] = Entry{Name: name}
	}
}

// Lookup returns the entry for name.
func Lookup(name string) (Entry, bool) {
	e, ok := table[name]
	return e, ok
}

// Names returns every registered name, sorted. The compiler seeds its
// symbol table from this.
func Names() []string {
	out := make([]string, 0, len(table))
	for name := range table {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Call validates arity and invokes the entry.
func (e Entry) Call(ctx *runtime.Context, args []runtime.Value, nargout int) ([]runtime.Value, error) {
	if e.Fn == nil {
		return nil, fmt.Errorf("%s is not supported", e.Name)
	}
	if len(args) < e.MinArgs {
		return nil, fmt.Errorf("%s: not enough input arguments", e.Name)
	}
	if e.MaxArgs >= 0 && len(args) > e.MaxArgs {
		return nil, fmt.Errorf("%s: too many input arguments", e.Name)
	}
	return e.Fn(ctx, args, nargout)
}

//  Argument helpers shared by the per-area files.

func argFloat(name string, args []runtime.Value, i int) (float64, error) {
	f, ok := runtime.AsFloat(args[i])
	if !ok {
		return 0, fmt.Errorf("%s: argument %d must be a scalar", name, i+1)
	}
	return f, nil
}

func argInt(name string, args []runtime.Value, i int) (int, error) {
	n, ok := runtime.AsInt(args[i])
	if !ok {
		return 0, fmt.Errorf("%s: argument %d must be an integer", name, i+1)
	}
	return n, nil
}

func argMatrix(name string, args []runtime.Value, i int) (*runtime.Array, error) {
	switch x := args[i].(type) {
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
	return nil, fmt.Errorf("%s: argument %d must be numeric", name, i+1)
}

func argChar(name string, args []runtime.Value, i int) (string, error) {
	c, ok := args[i].(runtime.Char)
	if !ok {
		return "", fmt.Errorf("%s: argument %d must be a string", name, i+1)
	}
	return string(c), nil
}

// one wraps a single result.
func one(v runtime.Value) []runtime.Value { return []runtime.Value{v} }
