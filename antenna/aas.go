// Package antenna implements the horizontal and vertical gain patterns of
// sectorised base station antennas and the sector selection used to pick the
// serving boresight for a bearing.
package antenna

import (
	"fmt"
)

// SettingSector holds the shape constants of a multi-sector site.
type SettingSector struct {
	Sectors    int     `json:"sectors" mapstructure:"sectors"`
	HBeamWidth float64 `json:"beamwidth" mapstructure:"beamwidth"` // phi3, azimuth 3dB beamwidth in degree
	Kh         float64 `json:"kh" mapstructure:"kh"`
	Kv         float64 `json:"kv" mapstructure:"kv"`
	Kp         float64 `json:"kp" mapstructure:"kp"`
	GainDb     float64 `json:"nominalGain" mapstructure:"nominalGain"` // G0 in dBi
}

func (s *SettingSector) SetDefault() {
	s.Sectors = 3
	s.HBeamWidth = 65
	s.Kh = 0.7
	s.Kv = 0.7
	s.Kp = 0.7
	s.GainDb = 15
}

func NewSettingSector() *SettingSector {
	result := new(SettingSector)
	result.SetDefault()
	return result
}

func (s SettingSector) Validate() error {
	if s.Sectors < 1 {
		return fmt.Errorf("sectors must be >= 1, got %d", s.Sectors)
	}
	if s.HBeamWidth <= 0 {
		return fmt.Errorf("beamwidth must be > 0, got %v", s.HBeamWidth)
	}
	if s.Kv < 0 || s.Kv > 1/0.36 {
		return fmt.Errorf("kv must be within [0, %.3f], got %v", 1/0.36, s.Kv)
	}
	return nil
}

// Pattern is a SettingSector with its derived constants precomputed, ready
// for per-cell evaluation.
type Pattern struct {
	SettingSector
	Theta3   float64
	LambdaKh float64
}

// NewPattern derives theta3 and lambdaKh from the sector setting.
func NewPattern(s SettingSector) Pattern {
	return Pattern{
		SettingSector: s,
		Theta3:        Theta3(s.GainDb),
		LambdaKh:      LambdaKh(s.Kh),
	}
}

// Gain returns the combined relative gain in dB for an azimuth offset theta
// from the serving boresight and an elevation phi.
func (p Pattern) Gain(theta, phi float64) (hgain, vgain float64) {
	hgain = HorizontalGain(theta, p.HBeamWidth, p.Kh, p.LambdaKh)
	vgain = VerticalGain(phi, p.Kv, p.Theta3, p.Kp)
	return hgain, vgain
}

// SectorGain selects the serving sector for a bearing and returns its
// relative gains. Elevation is fixed at 0 degree (flat earth, no tilt).
func (p Pattern) SectorGain(bearing, rotation float64) (sector Sector, hgain, vgain float64) {
	sector = SelectSector(bearing, p.Sectors, rotation)
	hgain, vgain = p.Gain(sector.Offset, 0)
	return sector, hgain, vgain
}
