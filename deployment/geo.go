package deployment

import (
	"math"

	"github.com/wiless/vlib"
	"gonum.org/v1/gonum/floats"
)

// EarthRadiusMeters is the spherical earth radius used by the geodesic helpers.
const EarthRadiusMeters = 6371000.0

const degToRad = math.Pi / 180

// DistanceMeters returns the haversine great-circle distance between two
// points given in degrees.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	a := sinLat*sinLat + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// BearingDegrees returns the initial bearing from point 1 to point 2,
// clockwise from north, in [0,360). Identical points give 0.
func BearingDegrees(lat1, lon1, lat2, lon2 float64) float64 {
	dLon := (lon2 - lon1) * degToRad
	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)
	angle := vlib.ToDegree(math.Atan2(y, x))
	if angle < 0 {
		angle += 360
	}
	if angle >= 360 {
		angle = 0
	}
	return angle
}

// AxisLength returns the number of samples in [-halfRange, +halfRange]
// spaced by step, both ends included when they fall on the lattice. Axes
// that are empty, non-finite or longer than MaxInt32 have length 0.
func AxisLength(halfRange, step float64) int {
	if !(step > 0) || !(halfRange >= 0) {
		return 0
	}
	// tolerate representation error of decimal steps such as 0.002
	n := math.Floor(2*halfRange/step+1e-9) + 1
	if n > math.MaxInt32 {
		return 0
	}
	return int(n)
}

// Axis returns the sample offsets -halfRange + i*step for the whole axis.
// Offsets are generated from the index, not accumulated.
func Axis(halfRange, step float64) []float64 {
	n := AxisLength(halfRange, step)
	if n == 0 {
		return nil
	}
	dst := make([]float64, n)
	if n == 1 {
		dst[0] = -halfRange
		return dst
	}
	return floats.Span(dst, -halfRange, -halfRange+float64(n-1)*step)
}

// CellAreaKm2 approximates the ground area of one grid cell at latitude lat.
func (g GridConfig) CellAreaKm2(lat float64) float64 {
	dy := g.LatStep * degToRad * EarthRadiusMeters
	dx := g.LonStep * degToRad * EarthRadiusMeters * math.Cos(lat*degToRad)
	return math.Abs(dx*dy) / 1e6
}
