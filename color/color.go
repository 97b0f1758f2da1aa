// Package color implements the hex → linear sRGB → CIE XYZ → Oklab →
// OKLCH conversion pipeline used when exporting design tokens.
package color

import (
	"math"
	"strconv"
	"strings"
)

// Chroma below this (measured before rounding) is treated as achromatic
// and rendered with zero chroma and hue, so near-grays don't pick up a
// noisy hue component.
const achromaticChroma = 0.004

// ToOklch converts a 3- or 6-digit hex color to an "oklch(L C H)" string
// with L and C rounded to 3 decimal places and H to 1. The input must be
// a validated hex string; format checking is the caller's job.
func ToOklch(hex string) string {
	r, g, b := decodeHex(hex)

	lr := srgbToLinear(r)
	lg := srgbToLinear(g)
	lb := srgbToLinear(b)

	x, y, z := linearToXYZ(lr, lg, lb)
	l, a, bb := xyzToOklab(x, y, z)

	c := math.Sqrt(a*a + bb*bb)
	if c < achromaticChroma {
		return "oklch(" + formatRounded(l, 3) + " 0 0)"
	}

	h := math.Atan2(bb, a) * 180 / math.Pi
	if h < 0 {
		h += 360
	}

	return "oklch(" + formatRounded(l, 3) + " " + formatRounded(c, 3) + " " + formatRounded(h, 1) + ")"
}

// RGBToHex encodes channels in [0,1] as a 6-digit lowercase hex string.
func RGBToHex(r, g, b float64) string {
	return "#" +
		channelHex(r) +
		channelHex(g) +
		channelHex(b)
}

func channelHex(v float64) string {
	n := int(math.Round(v * 255))
	if n < 0 {
		n = 0
	} else if n > 255 {
		n = 255
	}
	s := strconv.FormatInt(int64(n), 16)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// decodeHex parses "#rgb" or "#rrggbb" into channels in [0,1]. Shorthand
// digits are duplicated, so "#abc" reads as "#aabbcc".
func decodeHex(hex string) (r, g, b float64) {
	digits := strings.TrimPrefix(hex, "#")
	if len(digits) == 3 {
		digits = string([]byte{
			digits[0], digits[0],
			digits[1], digits[1],
			digits[2], digits[2],
		})
	}

	r = channelValue(digits[0:2])
	g = channelValue(digits[2:4])
	b = channelValue(digits[4:6])
	return r, g, b
}

func channelValue(pair string) float64 {
	n, _ := strconv.ParseUint(pair, 16, 8)
	return float64(n) / 255
}

// srgbToLinear applies the inverse sRGB transfer function.
func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// linearToXYZ applies the sRGB/D65 matrix.
func linearToXYZ(r, g, b float64) (x, y, z float64) {
	x = 0.4124564*r + 0.3575761*g + 0.1804375*b
	y = 0.2126729*r + 0.7151522*g + 0.0721750*b
	z = 0.0193339*r + 0.1191920*g + 0.9503041*b
	return x, y, z
}

// xyzToOklab applies the Oklab reference matrices: XYZ → LMS, cube root
// per channel, then LMS' → Lab.
func xyzToOklab(x, y, z float64) (l, a, b float64) {
	lms0 := 0.8189330101*x + 0.3618667424*y - 0.1288597137*z
	lms1 := 0.0329845436*x + 0.9293118715*y + 0.0361456387*z
	lms2 := 0.0482003018*x + 0.2643662691*y + 0.6338517070*z

	lp := math.Cbrt(lms0)
	mp := math.Cbrt(lms1)
	sp := math.Cbrt(lms2)

	l = 0.2104542553*lp + 0.7936177850*mp - 0.0040720468*sp
	a = 1.9779984951*lp - 2.4285922050*mp + 0.4505937099*sp
	b = 0.0259040371*lp + 0.7827717662*mp - 0.8086757660*sp
	return l, a, b
}

// formatRounded rounds to the given number of decimal places and renders
// without trailing zeros, so 1.0 prints as "1" and 0.145 as "0.145".
func formatRounded(v float64, places int) string {
	pow := math.Pow(10, float64(places))
	rounded := math.Round(v*pow) / pow
	if rounded == 0 {
		// Avoid "-0" from tiny negatives.
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
