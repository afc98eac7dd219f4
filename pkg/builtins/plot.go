package builtins

import (
	"fmt"
	"time"

	"mexlab/pkg/runtime"
)

// The plotting built-ins forward to the Plotter wired into the context; a
// headless context gets the no-op backend and the calls vanish.

func init() {
	register("figure", 0, 1, func(ctx *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		n := 1
		if len(args) == 1 {
			var err error
			if n, err = argInt("figure", args, 0); err != nil {
				return nil, err
			}
		}
		ctx.Plot.Figure(n)
		return nil, nil
	})

	register("plot", 1, 3, func(ctx *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		y, err := argMatrix("plot", args, 0)
		if err != nil {
			return nil, err
		}
		var x *runtime.Array
		style := ""
		if len(args) >= 2 {
			if c, ok := args[1].(runtime.Char); ok {
				style = string(c)
			} else {
				x, y = y, nil
				if y, err = argMatrix("plot", args, 1); err != nil {
					return nil, err
				}
			}
		}
		if len(args) == 3 {
			if style, err = argChar("plot", args, 2); err != nil {
				return nil, err
			}
		}
		ys := y.Values()
		var xs []float64
		if x != nil {
			xs = x.Values()
			if len(xs) != len(ys) {
				return nil, fmt.Errorf("plot: vectors must be the same length")
			}
		} else {
			xs = make([]float64, len(ys))
			for i := range xs {
				xs[i] = float64(i + 1)
			}
		}
		if err := ctx.Plot.Plot(xs, ys, style); err != nil {
			return nil, err
		}
		return nil, nil
	})

	register("surf", 3, 3, func(ctx *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		x, err := argMatrix("surf", args, 0)
		if err != nil {
			return nil, err
		}
		y, err := argMatrix("surf", args, 1)
		if err != nil {
			return nil, err
		}
		z, err := argMatrix("surf", args, 2)
		if err != nil {
			return nil, err
		}
		grid := make([][]float64, z.Rows)
		for i := range grid {
			row := make([]float64, z.Cols)
			for j := range row {
				row[j] = z.At(i, j)
			}
			grid[i] = row
		}
		if err := ctx.Plot.Surf(x.Values(), y.Values(), grid); err != nil {
			return nil, err
		}
		return nil, nil
	})

	registerLabel := func(name string, set func(p runtime.Plotter, s string)) {
		register(name, 1, 1, func(ctx *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
			s, err := argChar(name, args, 0)
			if err != nil {
				return nil, err
			}
			set(ctx.Plot, s)
			return nil, nil
		})
	}
	registerLabel("title", func(p runtime.Plotter, s string) { p.Title(s) })
	registerLabel("xlabel", func(p runtime.Plotter, s string) { p.XLabel(s) })
	registerLabel("ylabel", func(p runtime.Plotter, s string) { p.YLabel(s) })

	registerToggle := func(name string, set func(p runtime.Plotter, on bool)) {
		register(name, 0, 1, func(ctx *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
			on := true
			if len(args) == 1 {
				mode, err := argChar(name, args, 0)
				if err != nil {
					return nil, err
				}
				switch mode {
				case "on":
					on = true
				case "off":
					on = false
				default:
					return nil, fmt.Errorf("%s: expected 'on' or 'off', got %q", name, mode)
				}
			}
			set(ctx.Plot, on)
			return nil, nil
		})
	}
	registerToggle("hold", func(p runtime.Plotter, on bool) { p.Hold(on) })
	registerToggle("grid", func(p runtime.Plotter, on bool) { p.Grid(on) })

	register("drawnow", 0, 0, func(ctx *runtime.Context, _ []runtime.Value, _ int) ([]runtime.Value, error) {
		ctx.Plot.DrawNow()
		return nil, nil
	})

	register("pause", 0, 1, func(_ *runtime.Context, args []runtime.Value, _ int) ([]runtime.Value, error) {
		if len(args) == 0 {
			return nil, nil
		}
		sec, err := argFloat("pause", args, 0)
		if err != nil {
			return nil, err
		}
		if sec > 0 {
			time.Sleep(time.Duration(sec * float64(time.Second)))
		}
		return nil, nil
	})
}
