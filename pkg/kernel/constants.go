package kernel

import "math"

// Named constants seeded into every fresh workspace. They behave as
// ordinary variables: assignment shadows them, clear restores them.
var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"eps": 2.220446049250313e-16,
	"Inf": math.Inf(1),
	"inf": math.Inf(1),
	"NaN": math.NaN(),
	"nan": math.NaN(),

	// Common physical constants, SI units.
	"c":    299792458,
	"G":    6.6743e-11,
	"h":    6.62607015e-34,
	"hbar": 6.62607015e-34 / (2 * math.Pi),
	"k":    1.380649e-23,
	"g":    9.80665,
}
