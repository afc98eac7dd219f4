// Package kernel ties the compiler and runtime together into a stateful
// session: a workspace of variables, the functions defined so far, and the
// execute loop a console or script runner drives.
package kernel

import (
	"io"
	"sort"
	"sync"

	"mexlab/pkg/compiler"
	"mexlab/pkg/runtime"
)

// Session is a persistent workspace plus everything needed to compile and
// run units against it. A session is safe for concurrent use; each Execute
// runs to completion under the session lock, so units never interleave.
type Session struct {
	mu      sync.Mutex
	vars    map[string]runtime.Value
	globals map[string]runtime.Value
	funcs   map[string]*runtime.Function
	symbols *compiler.SymTable
	ctx     *runtime.Context

	// notify gets a token after every successful execute; a UI can watch
	// it to refresh the variable view. Never blocks the executor.
	notify chan struct{}
}

// NewSession builds a session writing echo output to out.
func NewSession(out io.Writer) *Session {
	s := &Session{
		vars:    make(map[string]runtime.Value),
		globals: make(map[string]runtime.Value),
		funcs:   make(map[string]*runtime.Function),
		symbols: compiler.NewSymTable(),
		notify:  make(chan struct{}, 1),
	}
	s.ctx = runtime.NewContext(out)
	s.ctx.Globals = sandbox{s}
	s.seedConstants()
	return s
}

// SetPlotter wires a drawing backend into the session.
func (s *Session) SetPlotter(p runtime.Plotter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.Plot = p
}

func (s *Session) seedConstants() {
	for name, v := range constants {
		s.vars[name] = runtime.Num(v)
		s.symbols.DefineVariable(name)
	}
}

// Execute compiles and runs one chunk of source. A compile failure leaves
// the session untouched; a runtime failure keeps whatever assignments
// completed before the error, matching interactive behavior. The symbol
// table only advances on success.
func (s *Session) Execute(src string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unit, err := compiler.Compile(src, s.symbols)
	if err != nil {
		return err
	}
	runErr := unit.Run(s.ctx, sandbox{s}, sandbox{s})
	if runErr != nil {
		return runErr
	}
	s.symbols = unit.Symbols
	for _, fn := range unit.Functions() {
		s.funcs[fn.Name] = fn
	}
	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

// Updates is the channel that receives a token after each successful
// Execute.
func (s *Session) Updates() <-chan struct{} { return s.notify }

// Value reads a workspace variable.
func (s *Session) Value(name string) (runtime.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vars[name]
	return v, ok
}

// Binding is one workspace entry, ready for a variable view to display.
type Binding struct {
	Name  string
	Value runtime.Value
}

// List returns the workspace contents as (name, value) pairs ordered by
// name. The values are copies; mutating them cannot reach the workspace.
func (s *Session) List() []Binding {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Binding, len(names))
	for i, name := range names {
		out[i] = Binding{Name: name, Value: s.vars[name].Copy()}
	}
	return out
}

// Clear resets the workspace to the seeded constants. Defined functions
// survive.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	sandbox{s}.ClearVars()
}

// sandbox adapts the session maps to the compiler's Workspace, FuncRegistry
// and the runtime's Globals interfaces. It carries no locking: Execute
// already holds the session lock while a unit runs.
type sandbox struct {
	s *Session
}

func (b sandbox) Get(name string) (runtime.Value, bool) {
	v, ok := b.s.vars[name]
	return v, ok
}

func (b sandbox) Set(name string, v runtime.Value) { b.s.vars[name] = v }

func (b sandbox) ClearVars() {
	b.s.vars = make(map[string]runtime.Value)
	b.s.seedConstants()
}

func (b sandbox) DeleteVar(name string) {
	delete(b.s.vars, name)
	if v, ok := constants[name]; ok {
		b.s.vars[name] = runtime.Num(v)
	}
}

func (b sandbox) Function(name string) (*runtime.Function, bool) {
	f, ok := b.s.funcs[name]
	return f, ok
}

func (b sandbox) DefineFunction(f *runtime.Function) { b.s.funcs[f.Name] = f }

func (b sandbox) GetGlobal(name string) (runtime.Value, bool) {
	v, ok := b.s.globals[name]
	return v, ok
}

func (b sandbox) SetGlobal(name string, v runtime.Value) { b.s.globals[name] = v }
