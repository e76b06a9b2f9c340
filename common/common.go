package common

const (
	BaseWidth  = 1280
	BaseHeight = 720

	// Scale is the number of screen pixels per simulation unit.
	Scale = 30.0
)

// WorldToScreen converts a simulation-space point (y up) to screen pixels (y down).
func WorldToScreen(x, y float64) (float64, float64) {
	return x * Scale, BaseHeight - y*Scale
}

// ScreenToWorld is the inverse of WorldToScreen.
func ScreenToWorld(sx, sy float64) (float64, float64) {
	return sx / Scale, (BaseHeight - sy) / Scale
}

// WorldLength converts a simulation-space length to pixels.
func WorldLength(l float64) float64 {
	return l * Scale
}
