package pixel

import "math"

// Luma weights (ITU-R BT.601), shared by grayscale, saturation and edge
// detection.
const (
	LumaR = 0.299
	LumaG = 0.587
	LumaB = 0.114
)

// Clamp constrains v to a channel value, rounding half to even.
// NaN maps to 0.
func Clamp(v float64) uint8 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}

// ClampInt constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func ClampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampFloat constrains v to [min, max].
func ClampFloat(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}

// RoundHalfUp rounds to the nearest integer, ties toward +Inf.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// Luma returns the weighted luminance of an RGB triple.
func Luma(r, g, b float64) float64 {
	return LumaR*r + LumaG*g + LumaB*b
}

// Mix linearly interpolates from orig to transformed by t and stores the
// result as a channel value.
func Mix(orig, transformed, t float64) uint8 {
	return Clamp(orig*(1-t) + transformed*t)
}

// BlendInto blends the RGB channels of pix toward transformed by intensity.
// Alpha bytes in pix are left untouched. Both buffers must have the same
// length.
func BlendInto(pix, transformed []uint8, intensity float64) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = Mix(float64(pix[i]), float64(transformed[i]), intensity)
		pix[i+1] = Mix(float64(pix[i+1]), float64(transformed[i+1]), intensity)
		pix[i+2] = Mix(float64(pix[i+2]), float64(transformed[i+2]), intensity)
	}
}
