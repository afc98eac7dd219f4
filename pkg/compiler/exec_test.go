package compiler

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"mexlab/pkg/runtime"
)

// execSrc compiles and runs src against a fresh workspace, failing the test
// on any stage error.
func execSrc(t *testing.T, src string) (*MapWorkspace, *bytes.Buffer) {
	t.Helper()
	ws := NewMapWorkspace()
	var out bytes.Buffer
	ctx := runtime.NewContext(&out)
	unit, err := Compile(src, NewSymTable())
	if err != nil {
		t.Fatalf("Compile failed: %v\nsource:\n%s", err, src)
	}
	if err := unit.Run(ctx, ws, nil); err != nil {
		t.Fatalf("Run failed: %v\nsource:\n%s", err, src)
	}
	return ws, &out
}

func wsNum(t *testing.T, ws *MapWorkspace, name string) float64 {
	t.Helper()
	v, ok := ws.Get(name)
	if !ok {
		t.Fatalf("variable %q not set", name)
	}
	f, ok := runtime.AsFloat(v)
	if !ok {
		t.Fatalf("variable %q is a %s, want scalar", name, v.Kind())
	}
	return f
}

func wsRow(t *testing.T, ws *MapWorkspace, name string) []float64 {
	t.Helper()
	v, ok := ws.Get(name)
	if !ok {
		t.Fatalf("variable %q not set", name)
	}
	a, ok := v.(*runtime.Array)
	if !ok {
		t.Fatalf("variable %q is a %s, want matrix", name, v.Kind())
	}
	return a.Values()
}

func expectNum(t *testing.T, src, name string, want float64) {
	t.Helper()
	ws, _ := execSrc(t, src)
	if got := wsNum(t, ws, name); got != want {
		t.Errorf("%s = %g, want %g\nsource:\n%s", name, got, want, src)
	}
}

func expectRow(t *testing.T, src, name string, want []float64) {
	t.Helper()
	ws, _ := execSrc(t, src)
	got := wsRow(t, ws, name)
	if len(got) != len(want) {
		t.Fatalf("%s has %d elements %v, want %v\nsource:\n%s", name, len(got), got, want, src)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s(%d) = %g, want %g\nsource:\n%s", name, i+1, got[i], want[i], src)
		}
	}
}

func TestExecArithmetic(t *testing.T) {
	expectNum(t, "x = 1 + 2 * 3;", "x", 7)
	expectNum(t, "x = 2 ^ 3 ^ 2;", "x", 64)
	expectNum(t, "x = -2 ^ 2;", "x", -4)
	expectNum(t, "x = 10 / 4;", "x", 2.5)
	expectNum(t, "x = 2 \\ 10;", "x", 5)
	expectNum(t, "x = mod(7, 3);", "x", 1)
}

func TestExecMatrixIndexing(t *testing.T) {
	expectNum(t, "A = [1 2; 3 4]; s = A(1, 1) + A(2, 2);", "s", 5)
	expectNum(t, "A = [1 2; 3 4]; x = A(3);", "x", 2) // column-major linear
	expectNum(t, "v = [10 20 30]; x = v(end);", "x", 30)
	expectRow(t, "v = [10 20 30 40]; w = v(2:end);", "w", []float64{20, 30, 40})
	expectRow(t, "A = [1 2; 3 4]; r = A(1, :);", "r", []float64{1, 2})
	expectRow(t, "v = [5 -3 8]; w = v(v > 0);", "w", []float64{5, 8})
}

func TestExecIndexedAssignIncrement(t *testing.T) {
	// A(k) = A(k) + 1 touches exactly the addressed element.
	expectRow(t, "A = [1 2 3]; k = 2; A(k) = A(k) + 1;", "A", []float64{1, 3, 3})
}

func TestExecImplicitGrowth(t *testing.T) {
	expectRow(t, "for i = 1:3\ny(i) = i ^ 2;\nend", "y", []float64{1, 4, 9})
	expectRow(t, "v = [1 2]; v(5) = 9;", "v", []float64{1, 2, 0, 0, 9})
	expectNum(t, "B(2, 3) = 7; r = size(B, 1) * 10 + size(B, 2);", "r", 23)
}

func TestExecCopyOnAssignment(t *testing.T) {
	src := "a = [1 2 3]; b = a; b(1) = 99;"
	ws, _ := execSrc(t, src)
	if got := wsRow(t, ws, "a"); got[0] != 1 {
		t.Errorf("a(1) = %g after mutating b, want 1", got[0])
	}
	if got := wsRow(t, ws, "b"); got[0] != 99 {
		t.Errorf("b(1) = %g, want 99", got[0])
	}
}

func TestExecRanges(t *testing.T) {
	expectRow(t, "r = 1:5;", "r", []float64{1, 2, 3, 4, 5})
	expectRow(t, "r = 1:2:9;", "r", []float64{1, 3, 5, 7, 9})
	expectRow(t, "r = 9:-2:1;", "r", []float64{9, 7, 5, 3, 1})
	// fractional steps keep the endpoint within tolerance
	expectNum(t, "r = 0:0.1:1; n = length(r); last = r(end);", "last", 1)
	expectNum(t, "r = 0:0.1:1; n = length(r);", "n", 11)
	// an inverted range is empty
	expectNum(t, "r = 5:1; n = numel(r);", "n", 0)
}

func TestExecMatrixOps(t *testing.T) {
	expectRow(t, "C = [1 2; 3 4] * [5; 6];", "C", []float64{17, 39})
	expectRow(t, "C = [1 2; 3 4] .* [5 6; 7 8];", "C", []float64{5, 21, 12, 32})
	expectRow(t, "v = [1 2 3]'; w = v';", "w", []float64{1, 2, 3})
	expectNum(t, "x = [1 2; 3 4] \\ [5; 11]; r = x(1);", "r", 1)
}

func TestExecControlFlow(t *testing.T) {
	expectNum(t, "x = 5;\nif x > 3\ny = 1;\nelse\ny = 2;\nend", "y", 1)
	expectNum(t, "s = 0;\nfor i = 1:10\nif mod(i, 2) == 0\ncontinue\nend\ns = s + i;\nend", "s", 25)
	expectNum(t, "n = 0;\nwhile 1\nn = n + 1;\nif n >= 7\nbreak\nend\nend", "n", 7)
	// for iterates over columns
	expectNum(t, "s = 0;\nfor col = [1 2; 3 4]\ns = s + col(2);\nend", "s", 7)
}

func TestExecSwitch(t *testing.T) {
	src := `mode = 'b';
switch mode
case 'a'
  p = 1;
case {'b', 'c'}
  p = 2;
otherwise
  p = 3;
end`
	expectNum(t, src, "p", 2)
	expectNum(t, strings.Replace(src, "'b';", "'z';", 1), "p", 3)
	expectNum(t, "x = 3;\nswitch x\ncase 3\nr = 1;\nend", "r", 1)
}

func TestExecTryCatch(t *testing.T) {
	src := `try
  x = undefined_thing_at_runtime();
catch err
  msg = err.message;
  y = 1;
end`
	// unknown identifier is a compile error, so force a runtime failure
	src = strings.Replace(src, "undefined_thing_at_runtime()", "[1 2] * [3 4]", 1)
	ws, _ := execSrc(t, src)
	if wsNum(t, ws, "y") != 1 {
		t.Error("catch body did not run")
	}
	if v, ok := ws.Get("msg"); !ok || v.Kind() != runtime.KindChar {
		t.Error("err.message not bound as a string")
	}
}

func TestExecFunctions(t *testing.T) {
	src := `function [s, p] = stats(a, b)
  s = a + b;
  p = a * b;
end
[x, y] = stats(3, 4);
z = stats(3, 4);`
	ws, _ := execSrc(t, src)
	if wsNum(t, ws, "x") != 7 || wsNum(t, ws, "y") != 12 {
		t.Errorf("stats outputs: x=%g y=%g", wsNum(t, ws, "x"), wsNum(t, ws, "y"))
	}
	// single-value context takes the first output
	if wsNum(t, ws, "z") != 7 {
		t.Errorf("z = %g, want 7", wsNum(t, ws, "z"))
	}
}

func TestExecFunctionIsolation(t *testing.T) {
	src := `x = 10;
function y = poke(a)
  x = 99;
  y = a + 1;
end
r = poke(1);`
	ws, _ := execSrc(t, src)
	if wsNum(t, ws, "x") != 10 {
		t.Error("function body leaked into the script workspace")
	}
	if wsNum(t, ws, "r") != 2 {
		t.Errorf("r = %g, want 2", wsNum(t, ws, "r"))
	}
}

func TestExecRecursion(t *testing.T) {
	src := `function y = fact(n)
  if n <= 1
    y = 1;
  else
    y = n * fact(n - 1);
  end
end
f = fact(6);`
	expectNum(t, src, "f", 720)
}

func TestExecNargin(t *testing.T) {
	src := `function y = step_by(x, d)
  if nargin < 2
    d = 1;
  end
  y = x + d;
end
a = step_by(5);
b = step_by(5, 10);`
	ws, _ := execSrc(t, src)
	if wsNum(t, ws, "a") != 6 || wsNum(t, ws, "b") != 15 {
		t.Errorf("a=%g b=%g, want 6 and 15", wsNum(t, ws, "a"), wsNum(t, ws, "b"))
	}
}

func TestExecHandles(t *testing.T) {
	expectNum(t, "f = @(x) x ^ 2; y = f(5);", "y", 25)
	expectNum(t, "g = @abs; y = g(-3);", "y", 3)
	// anonymous functions capture by value at creation
	expectNum(t, "k = 10; f = @(x) x + k; k = 0; y = f(1);", "y", 11)
}

func TestExecHandleMultiAssign(t *testing.T) {
	// A handle call binds as many outputs as the assignment requests.
	src := `function [s, p] = stats(a, b)
  s = a + b;
  p = a * b;
end
h = @stats;
[x, y] = h(3, 4);`
	ws, _ := execSrc(t, src)
	if got := wsNum(t, ws, "x"); got != 7 {
		t.Errorf("x = %g, want 7", got)
	}
	if got := wsNum(t, ws, "y"); got != 12 {
		t.Errorf("y = %g, want 12", got)
	}
}

func TestExecGlobals(t *testing.T) {
	src := `global counter
counter = 0;
function bump()
  global counter
  counter = counter + 1;
end
bump();
bump();
global counter
result = counter;`
	expectNum(t, src, "result", 2)
}

func TestExecCellsAndStructs(t *testing.T) {
	expectNum(t, "c = {1, 'two', [3 4]}; x = c{1};", "x", 1)
	expectRow(t, "c = {1, 'two', [3 4]}; v = c{3};", "v", []float64{3, 4})
	expectNum(t, "c = {}; c{3} = 9; n = numel(c);", "n", 3)
	expectNum(t, "s.a = 1; s.b = 2; t = s.a + s.b;", "t", 3)
	expectNum(t, "p.vals(3) = 7; x = p.vals(3);", "x", 7)
}

func TestExecStrings(t *testing.T) {
	ws, _ := execSrc(t, "s = ['abc' 'def'];")
	if v, _ := ws.Get("s"); string(v.(runtime.Char)) != "abcdef" {
		t.Errorf("concat: %v", v)
	}
	expectNum(t, "s = 'hello'; n = length(s);", "n", 5)
	expectNum(t, "ok = strcmp('a', 'a');", "ok", 1)
}

func TestExecEcho(t *testing.T) {
	_, out := execSrc(t, "x = 5")
	if got := out.String(); got != "x =\n    5\n" {
		t.Errorf("echo: %q", got)
	}
	_, out = execSrc(t, "x = 5;")
	if out.Len() != 0 {
		t.Errorf("suppressed echo: %q", out.String())
	}
	_, out = execSrc(t, "1 + 1")
	if got := out.String(); got != "ans =\n    2\n" {
		t.Errorf("ans echo: %q", got)
	}
	ws, _ := execSrc(t, "3 * 4;")
	if wsNum(t, ws, "ans") != 12 {
		t.Error("ans not bound for suppressed expression")
	}
}

func TestExecCommandSyntax(t *testing.T) {
	// hold on routes to the plotting backend as hold('on')
	ws := NewMapWorkspace()
	var out bytes.Buffer
	ctx := runtime.NewContext(&out)
	rec := &recordingPlotter{}
	ctx.Plot = rec
	unit, err := Compile("hold on\nhold off\ndrawnow", NewSymTable())
	if err != nil {
		t.Fatal(err)
	}
	if err := unit.Run(ctx, ws, nil); err != nil {
		t.Fatal(err)
	}
	if len(rec.holds) != 2 || rec.holds[0] != true || rec.holds[1] != false {
		t.Errorf("hold calls: %v", rec.holds)
	}
	if rec.draws != 1 {
		t.Errorf("drawnow calls: %d", rec.draws)
	}
}

type recordingPlotter struct {
	runtime.NopPlotter
	holds []bool
	draws int
}

func (r *recordingPlotter) Hold(on bool) { r.holds = append(r.holds, on) }
func (r *recordingPlotter) DrawNow()     { r.draws++ }

func TestExecCompileErrors(t *testing.T) {
	tests := []struct {
		src     string
		mention string
	}{
		{"y = no_such_thing + 1;", "unknown identifier"},
		{"y = ode45(1, 2);", "not supported"},
		{"y = 3i;", "complex"},
		{"y = sin();", "not enough"},
		{"y = sin(1, 2);", "too many"},
	}
	for _, tc := range tests {
		_, err := Compile(tc.src, NewSymTable())
		if err == nil {
			t.Errorf("Compile(%q): expected error", tc.src)
			continue
		}
		var cerr *CompileError
		if !errors.As(err, &cerr) {
			t.Errorf("Compile(%q): error is %T, want *CompileError", tc.src, err)
			continue
		}
		if !strings.Contains(err.Error(), tc.mention) {
			t.Errorf("Compile(%q): %q does not mention %q", tc.src, err, tc.mention)
		}
	}
}

func TestExecRuntimeErrors(t *testing.T) {
	tests := []string{
		"v = [1 2 3]; x = v(7);",
		"A = [1 2; 3 4]; B = [1 2 3]; C = A * B;",
		"v = [1 2]; x = v(0);",
		// linear growth of a true matrix cell has no defined shape
		"c = {1 2; 3 4}; c{8} = 1;",
		"c = {1 2; 3 4}; c{5} = 9;",
	}
	for _, src := range tests {
		ws := NewMapWorkspace()
		ctx := runtime.NewContext(&bytes.Buffer{})
		unit, err := Compile(src, NewSymTable())
		if err != nil {
			t.Fatalf("Compile(%q) failed: %v", src, err)
		}
		if err := unit.Run(ctx, ws, nil); err == nil {
			t.Errorf("Run(%q): expected runtime error", src)
		}
	}
}

func TestExecManifest(t *testing.T) {
	unit, err := Compile("x = a + 1; y = x * 2;\nfunction z = f(q)\nz = q;\nend", func() *SymTable {
		st := NewSymTable()
		st.DefineVariable("a")
		return st
	}())
	if err != nil {
		t.Fatal(err)
	}
	m := unit.Manifest
	if len(m.Functions) != 1 || m.Functions[0].Name != "f" {
		t.Errorf("manifest functions: %+v", m.Functions)
	}
	wantWrites := []string{"x", "y"}
	if len(m.Writes) != 2 || m.Writes[0] != wantWrites[0] || m.Writes[1] != wantWrites[1] {
		t.Errorf("manifest writes: %v, want %v", m.Writes, wantWrites)
	}
	found := false
	for _, r := range m.Reads {
		if r == "a" {
			found = true
		}
	}
	if !found {
		t.Errorf("manifest reads: %v, want to include a", m.Reads)
	}
}

func BenchmarkCompileAndRun(b *testing.B) {
	src := `total = 0;
for i = 1:100
  total = total + i ^ 2;
end`
	for i := 0; i < b.N; i++ {
		unit, err := Compile(src, NewSymTable())
		if err != nil {
			b.Fatal(err)
		}
		ws := NewMapWorkspace()
		ctx := runtime.NewContext(&bytes.Buffer{})
		if err := unit.Run(ctx, ws, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRunOnly(b *testing.B) {
	unit, err := Compile("s = 0; for i = 1:1000, s = s + i; end", NewSymTable())
	if err != nil {
		b.Fatal(err)
	}
	ctx := runtime.NewContext(&bytes.Buffer{})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := unit.Run(ctx, NewMapWorkspace(), nil); err != nil {
			b.Fatal(err)
		}
	}
}
