package manifold

import "math"

// StandardRad normalizes an angle in radians into the interval (−π, π].
// An angle of exactly −π reports as +π; everything else maps into the
// open-below, closed-above interval. Residual components representing
// angles must pass through StandardRad, otherwise an error of +π+ε
// would report as ≈2π instead of −π+ε and optimization would diverge
// near the wrap boundary.
// Complexity: O(1).
func StandardRad(t float64) float64 {
	t = math.Mod(t+math.Pi, 2*math.Pi)
	if t <= 0 {
		t += 2 * math.Pi
	}

	return t - math.Pi
}
