package compiler

import "testing"

func TestSymTableCloneIsIndependent(t *testing.T) {
	st := NewSymTable()
	st.DefineVariable("x")

	clone := st.Clone()
	clone.DefineVariable("y")

	if st.Kind("y") != SymUnknown {
		t.Error("defining in the clone leaked into the original")
	}
	if clone.Kind("x") != SymVariable {
		t.Error("clone lost the original's symbols")
	}
}

func TestSymTableFunctionScope(t *testing.T) {
	st := NewSymTable()
	st.DefineVariable("x")
	st.Define(Symbol{Name: "f", Kind: SymFunction, NumOutputs: 1})
	st.Define(Symbol{Name: "sin", Kind: SymBuiltin})

	scope := st.FunctionScope()
	if scope.Kind("x") != SymUnknown {
		t.Error("variables must not carry into a function scope")
	}
	if scope.Kind("f") != SymFunction || scope.Kind("sin") != SymBuiltin {
		t.Error("functions and builtins must carry into a function scope")
	}
}

func TestSymbolKindString(t *testing.T) {
	if SymVariable.String() != "variable" || SymBuiltin.String() != "builtin" {
		t.Errorf("kind names wrong: %s %s", SymVariable, SymBuiltin)
	}
}
