package runtime

import "io"

// Plotter is the drawing surface built-ins render into. The kernel wires a
// real backend in; headless runs get the no-op.
type Plotter interface {
	Figure(n int)
	Plot(x, y []float64, style string) error
	Surf(x, y []float64, z [][]float64) error
	Title(s string)
	XLabel(s string)
	YLabel(s string)
	Hold(on bool)
	Grid(on bool)
	DrawNow()
}

// NopPlotter discards every drawing call.
type NopPlotter struct{}

func (NopPlotter) Figure(int)                                   {}
func (NopPlotter) Plot([]float64, []float64, string) error      { return nil }
func (NopPlotter) Surf([]float64, []float64, [][]float64) error { return nil }
func (NopPlotter) Title(string)                                 {}
func (NopPlotter) XLabel(string)                                {}
func (NopPlotter) YLabel(string)                                {}
func (NopPlotter) Hold(bool)                                    {}
func (NopPlotter) Grid(bool)                                    {}
func (NopPlotter) DrawNow()                                     {}

// Globals is the shared variable store behind "global" declarations. The
// kernel session implements it.
type Globals interface {
	GetGlobal(name string) (Value, bool)
	SetGlobal(name string, v Value)
}

// Context carries the collaborators a running program needs: the echo
// stream, the plotting backend and the global store.
type Context struct {
	Out     io.Writer
	Plot    Plotter
	Globals Globals
}

// NewContext wires a context with the no-op plotter and an isolated global
// store.
func NewContext(out io.Writer) *Context {
	return &Context{Out: out, Plot: NopPlotter{}, Globals: newMapGlobals()}
}

type mapGlobals struct {
	vars map[string]Value
}

func newMapGlobals() *mapGlobals { return &mapGlobals{vars: make(map[string]Value)} }

func (g *mapGlobals) GetGlobal(name string) (Value, bool) {
	v, ok := g.vars[name]
	return v, ok
}

func (g *mapGlobals) SetGlobal(name string, v Value) { g.vars[name] = v }
