package compiler

import "sort"

// SymbolKind classifies a name for the code generator. The kind decides how
// name(args) translates: indexing for a Variable, a call for a Function or
// Builtin.
type SymbolKind int

const (
	SymUnknown SymbolKind = iota
	SymVariable
	SymFunction
	SymBuiltin
)

var symbolKindNames = [...]string{
	SymUnknown:  "unknown",
	SymVariable: "variable",
	SymFunction: "function",
	SymBuiltin:  "builtin",
}

func (k SymbolKind) String() string {
	if int(k) >= 0 && int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return "unknown"
}

// Symbol is one named entry. NumOutputs is meaningful for functions only.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	NumOutputs int
}

// SymTable maps names to symbols for one compilation scope. Tables chain:
// a function body gets a child table whose lookups do NOT fall through to
// the parent (function workspaces are isolated), but builtins are copied in.
type SymTable struct {
	symbols map[string]Symbol
}

// NewSymTable returns an empty table.
func NewSymTable() *SymTable {
	return &SymTable{symbols: make(map[string]Symbol)}
}

// Define records or overwrites a symbol.
func (st *SymTable) Define(sym Symbol) {
	st.symbols[sym.Name] = sym
}

// DefineVariable marks name as a variable.
func (st *SymTable) DefineVariable(name string) {
	st.symbols[name] = Symbol{Name: name, Kind: SymVariable}
}

// Lookup returns the symbol for name, if any.
func (st *SymTable) Lookup(name string) (Symbol, bool) {
	sym, ok := st.symbols[name]
	return sym, ok
}

// Kind returns the kind for name, SymUnknown when absent.
func (st *SymTable) Kind(name string) SymbolKind {
	return st.symbols[name].Kind
}

// Clone returns an independent copy. Compilation works on a clone so a
// failed unit cannot leave half-recorded symbols behind.
func (st *SymTable) Clone() *SymTable {
	out := NewSymTable()
	for name, sym := range st.symbols {
		out.symbols[name] = sym
	}
	return out
}

// FunctionScope builds the table for a function body: builtins and functions
// carry over, variables do not.
func (st *SymTable) FunctionScope() *SymTable {
	out := NewSymTable()
	for name, sym := range st.symbols {
		if sym.Kind == SymBuiltin || sym.Kind == SymFunction {
			out.symbols[name] = sym
		}
	}
	return out
}

// Names returns all defined names of the given kind, sorted.
func (st *SymTable) Names(kind SymbolKind) []string {
	var names []string
	for name, sym := range st.symbols {
		if sym.Kind == kind {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
