// Package compiler turns source text into an executable unit: the lexer
// produces tokens, the parser an AST, and the code generator walks the AST
// once and emits a tree of closures. Every static decision — call versus
// index, 1-based to 0-based subscripts, copy-on-assignment — is made at
// generation time; running a unit only executes the closures.
package compiler

import (
	"errors"
	"fmt"
	"sort"

	"mexlab/pkg/runtime"
)

// Workspace is the variable store a unit executes against. The kernel
// session implements it for scripts; function bodies get a private map.
type Workspace interface {
	Get(name string) (runtime.Value, bool)
	Set(name string, v runtime.Value)
}

// FuncRegistry resolves user-defined functions from earlier units.
type FuncRegistry interface {
	Function(name string) (*runtime.Function, bool)
	DefineFunction(f *runtime.Function)
}

// FuncSig describes one function a unit defines.
type FuncSig struct {
	Name   string
	NumIn  int
	NumOut int
}

// Manifest summarizes what a unit touches: variables it reads and writes
// and the functions it defines.
type Manifest struct {
	Reads     []string
	Writes    []string
	Functions []FuncSig
}

// Unit is one compiled chunk of source, ready to run any number of times.
type Unit struct {
	gen    *codegen
	thunks []execFunc

	// Symbols is the post-compilation symbol table. The caller adopts it
	// after a successful run so later units see this unit's definitions.
	Symbols  *SymTable
	Manifest Manifest
}

// Compile lexes, parses and generates code for src. symbols carries the
// names already known to the session; compilation works on a clone, so a
// failed compile leaves the input table untouched.
func Compile(src string, symbols *SymTable) (*Unit, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	prog, err := Parse(tokens, src)
	if err != nil {
		return nil, err
	}
	gen := newCodegen(symbols.Clone())
	thunks, err := gen.program(prog)
	if err != nil {
		return nil, err
	}
	return &Unit{
		gen:      gen,
		thunks:   thunks,
		Symbols:  gen.symbols,
		Manifest: gen.manifest(),
	}, nil
}

// Run executes the unit against ws. funcs may be nil when no earlier units
// defined functions.
func (u *Unit) Run(ctx *runtime.Context, ws Workspace, funcs FuncRegistry) error {
	u.gen.external = funcs
	st := &execState{ctx: ctx, vars: ws, lookupFunc: u.gen.lookup, globals: map[string]bool{}}
	for _, thunk := range u.thunks {
		if err := thunk(st); err != nil {
			if errors.Is(err, errReturn) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Functions returns the functions this unit defined, for the caller to
// register after a successful run.
func (u *Unit) Functions() []*runtime.Function {
	out := make([]*runtime.Function, 0, len(u.gen.funcs))
	for _, f := range u.gen.funcs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Flow-control sentinels. They travel up the error path until the closure
// that owns them (the enclosing loop, or the unit/function body) absorbs
// them.
var (
	errBreak    = errors.New("break outside a loop")
	errContinue = errors.New("continue outside a loop")
	errReturn   = errors.New("return")
)

// execState is the per-run mutable state threaded through the closures.
type execState struct {
	ctx        *runtime.Context
	vars       Workspace
	lookupFunc func(name string) (*runtime.Function, bool)

	// globals holds the names bound to the shared global store in this
	// scope; getVar/setVar route them past the local workspace.
	globals map[string]bool

	// endStack carries the value "end" resolves to while subscript
	// arguments evaluate, innermost last.
	endStack []float64

	nargin int
}

func (st *execState) getVar(name string) (runtime.Value, bool) {
	if st.globals[name] {
		return st.ctx.Globals.GetGlobal(name)
	}
	return st.vars.Get(name)
}

func (st *execState) setVar(name string, v runtime.Value) {
	if st.globals[name] {
		st.ctx.Globals.SetGlobal(name, v)
		return
	}
	st.vars.Set(name, v)
}

func (st *execState) pushEnd(v float64) { st.endStack = append(st.endStack, v) }
func (st *execState) popEnd()           { st.endStack = st.endStack[:len(st.endStack)-1] }

func (st *execState) endValue() (float64, error) {
	if len(st.endStack) == 0 {
		return 0, fmt.Errorf("'end' used outside a subscript")
	}
	return st.endStack[len(st.endStack)-1], nil
}

// VarClearer is the optional workspace surface behind the clear command.
type VarClearer interface {
	ClearVars()
	DeleteVar(name string)
}

// MapWorkspace is the plain map store used for function-body scopes.
type MapWorkspace struct {
	vars map[string]runtime.Value
}

// NewMapWorkspace returns an empty store.
func NewMapWorkspace() *MapWorkspace {
	return &MapWorkspace{vars: make(map[string]runtime.Value)}
}

func (w *MapWorkspace) Get(name string) (runtime.Value, bool) {
	v, ok := w.vars[name]
	return v, ok
}

func (w *MapWorkspace) Set(name string, v runtime.Value) { w.vars[name] = v }

func (w *MapWorkspace) ClearVars() { w.vars = make(map[string]runtime.Value) }

func (w *MapWorkspace) DeleteVar(name string) { delete(w.vars, name) }
