package builtins

// Names from the symbolic, ODE, optimization, signal and control surfaces.
// They are registered without an implementation so a call site fails at
// compile time with "not supported" instead of "unknown identifier".
func init() {
	registerUnsupported(
		// symbolic toolbox
		"syms", "sym", "diff", "int", "solve", "dsolve", "simplify",
		"expand", "factor", "subs", "limit", "taylor",
		// ODE / PDE solvers
		"ode23", "ode45", "ode113", "ode15s", "pdepe", "bvp4c",
		// optimization
		"fminsearch", "fminbnd", "fzero", "fsolve", "lsqnonlin",
		// signal processing
		"fft", "ifft", "fft2", "ifft2", "conv", "filter", "freqz",
		// control systems
		"tf", "ss", "zpk", "bode", "nyquist", "step", "impulse", "lsim",
		"margin", "rlocus",
		// interpolation / integration
		"interp1", "interp2", "spline", "quad", "integral", "trapz",
	)
}
