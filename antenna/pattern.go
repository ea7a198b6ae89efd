package antenna

import (
	"math"
)

// Wrap0To180 wraps the input angle to 0 to 180, i.e. the smallest angular
// separation min(|d|, 360-|d|) for a difference d of two bearings.
func Wrap0To180(degree float64) float64 {
	if degree < 0 {
		degree = -degree
	}
	if degree >= 360 {
		degree = math.Mod(degree, 360)
	}
	if degree > 180 {
		degree = 360 - degree
	}
	return degree
}

// Wrap0To360 normalizes an angle into [0,360).
func Wrap0To360(degree float64) float64 {
	degree = math.Mod(degree, 360)
	if degree < 0 {
		degree += 360
	}
	// -1e-15 + 360 rounds to 360
	if degree >= 360 {
		degree = 0
	}
	return degree
}

// HorizontalGain returns the relative azimuth gain in dB of a sector antenna
// at theta degrees off boresight (ITU-R F.1336 sectoral pattern).
//
//	xh <= 0.5 : -12 xh^2
//	xh >  0.5 : -12 xh^(2-kh) - lambdaKh
//
// where xh = |theta|/phi3.
func HorizontalGain(theta, phi3, kh, lambdaKh float64) float64 {
	xh := math.Abs(theta) / phi3
	if xh <= 0.5 {
		return -12 * xh * xh
	}
	return -12*math.Pow(xh, 2-kh) - lambdaKh
}

// LambdaKh returns the attenuation constant keeping HorizontalGain continuous
// at xh = 0.5.
func LambdaKh(kh float64) float64 {
	return 3 * (1 - math.Pow(0.5, -kh))
}

// VerticalGain returns the relative elevation gain in dB at phi degrees off
// the horizon.
func VerticalGain(phi, kv, theta3, kp float64) float64 {
	C := AttenuationIncrement(theta3, kp, kv)
	lambdaKv := LambdaKv(C, kv)
	xk := math.Sqrt(1 - 0.36*kv)
	xv := math.Abs(phi) / theta3

	switch {
	case xv < xk:
		return -12 * xv * xv
	case xv < 4:
		return -12 + 10*math.Log10(math.Pow(xv, -1.5)+kv)
	default:
		return -lambdaKv - C*math.Log10(xv)
	}
}

// AttenuationIncrement is the C factor of the vertical pattern far field.
func AttenuationIncrement(theta3, kp, kv float64) float64 {
	return 10 * math.Log10((math.Pow(180/theta3, 1.5)*(math.Pow(4, -1.5)+kv))/(1+8*kp)) /
		math.Log10(22.5/theta3)
}

// LambdaKv is the vertical far-field floor offset.
func LambdaKv(C, kv float64) float64 {
	return 12 - C*math.Log10(4) - 10*math.Log10(math.Pow(4, -1.5)+kv)
}

// Theta3 returns the nominal half-power elevation beamwidth in degrees for a
// boresight gain of g0 dBi.
func Theta3(g0 float64) float64 {
	return 107.6 * math.Pow(10, -0.1*g0)
}

// OmniGain returns the gain in dBi of an omnidirectional antenna with peak
// gain g0 at elevation theta (ITU-R F.1336 omni pattern).
func OmniGain(theta, g0, k, theta3, theta4 float64) float64 {
	t := math.Abs(theta)
	switch {
	case t < theta4:
		return g0 - 12*math.Pow(t/theta3, 2)
	case t < theta3:
		return g0 - 12 + 10*math.Log10(k+1)
	case t <= 90:
		return g0 - 12 + 10*math.Log10(math.Pow(t/theta3, -1.5)+k)
	default:
		return -100
	}
}

// Sector describes the sector serving a given bearing.
type Sector struct {
	Index     int
	Boresight float64 // degrees in [0,360)
	Offset    float64 // angular distance from the boresight, [0,180]
}

// SelectSector returns the sector whose boresight is closest to bearing.
// Boresights are spaced 360/n degrees apart starting at rotation. On an exact
// tie the lowest index wins.
func SelectSector(bearing float64, n int, rotation float64) Sector {
	if n < 1 {
		n = 1
	}
	spacing := 360.0 / float64(n)
	best := Sector{Index: -1, Offset: math.Inf(1)}
	for s := 0; s < n; s++ {
		centre := Wrap0To360(rotation + float64(s)*spacing)
		diff := Wrap0To180(bearing - centre)
		if diff < best.Offset {
			best = Sector{Index: s, Boresight: centre, Offset: diff}
		}
	}
	return best
}
