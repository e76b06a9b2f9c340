package common

import "math"

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// Hypot2 returns the squared length of (x, y).
func Hypot2(x, y float64) float64 {
	return x*x + y*y
}

// WithinRadius reports whether (x, y) lies within r of (cx, cy).
func WithinRadius(x, y, cx, cy, r float64) bool {
	return Hypot2(x-cx, y-cy) <= r*r
}

// Rotate rotates (x, y) around the origin by angle radians.
func Rotate(x, y, angle float64) (float64, float64) {
	s, c := math.Sincos(angle)
	return x*c - y*s, x*s + y*c
}
