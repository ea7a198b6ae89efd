// Package deployment holds the tower and sampling grid records consumed by
// the coverage engine, the geodesic helpers used to place grid cells around
// a tower, and decoding of tower files.
package deployment

import (
	"errors"
	"fmt"
	"math"

	"github.com/wiless/coverage/antenna"
	"github.com/wiless/coverage/pathloss"
)

var (
	ErrInvalidTower = errors.New("invalid tower")
	ErrInvalidGrid  = errors.New("invalid grid config")
)

// Tower is an immutable snapshot of a cell site's parameters.
type Tower struct {
	ID        string  `json:"id" mapstructure:"id" yaml:"id"`
	Latitude  float64 `json:"latitude" mapstructure:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" mapstructure:"longitude" yaml:"longitude"`

	FrequencyMHz  float64 `json:"frequency" mapstructure:"frequency" yaml:"frequency"`
	TxPowerDbm    float64 `json:"ptx" mapstructure:"ptx" yaml:"ptx"`
	TxGainDbi     float64 `json:"gtx" mapstructure:"gtx" yaml:"gtx"`
	RxGainDbi     float64 `json:"grx" mapstructure:"grx" yaml:"grx"`
	AntennaHeight float64 `json:"antennaHeight" mapstructure:"antennaHeight" yaml:"antennaHeight"`

	// MaxSensitivityDbm is the receiver threshold; only cells strictly above it are kept.
	MaxSensitivityDbm float64 `json:"maxSensitivity" mapstructure:"maxSensitivity" yaml:"maxSensitivity"`

	MarginDb         float64 `json:"margin" mapstructure:"margin" yaml:"margin"`
	CableLossDb      float64 `json:"cableLoss" mapstructure:"cableLoss" yaml:"cableLoss"`
	AdditionalLossDb float64 `json:"additionalLoss" mapstructure:"additionalLoss" yaml:"additionalLoss"`

	Scenario       pathloss.Scenario `json:"scenario" mapstructure:"scenario" yaml:"scenario"`
	SectorRotation float64           `json:"sectorRotation" mapstructure:"sectorRotation" yaml:"sectorRotation"`
	LargeCity      bool              `json:"largeCity" mapstructure:"largeCity" yaml:"largeCity"`
}

// DefaultTower returns the parameters of a freshly added site.
func DefaultTower(id string, lat, lon float64) Tower {
	return Tower{
		ID:                id,
		Latitude:          lat,
		Longitude:         lon,
		FrequencyMHz:      900,
		TxPowerDbm:        35,
		TxGainDbi:         15,
		RxGainDbi:         0,
		AntennaHeight:     30,
		MaxSensitivityDbm: -100,
		Scenario:          pathloss.Urban,
	}
}

// Normalized returns a copy with the sector rotation wrapped into [0,360).
func (t Tower) Normalized() Tower {
	t.SectorRotation = antenna.Wrap0To360(t.SectorRotation)
	return t
}

// TotalExtraLossDb sums the fixed losses added on top of path loss.
func (t Tower) TotalExtraLossDb() float64 {
	return t.MarginDb + t.CableLossDb + t.AdditionalLossDb
}

// Validate reports the first parameter that makes the tower unusable.
// Frequency and height failures wrap pathloss.ErrInvalidDomainValue as well.
func (t Tower) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTower)
	}
	if !finite(t.Latitude) || t.Latitude < -90 || t.Latitude > 90 {
		return fmt.Errorf("%w %s: latitude %v out of [-90,90]", ErrInvalidTower, t.ID, t.Latitude)
	}
	if !finite(t.Longitude) || t.Longitude < -180 || t.Longitude > 180 {
		return fmt.Errorf("%w %s: longitude %v out of [-180,180]", ErrInvalidTower, t.ID, t.Longitude)
	}
	if t.FrequencyMHz <= 0 {
		return fmt.Errorf("%w %s: frequency %v MHz: %w", ErrInvalidTower, t.ID, t.FrequencyMHz, pathloss.ErrInvalidDomainValue)
	}
	if t.AntennaHeight <= 0 {
		return fmt.Errorf("%w %s: antenna height %v m: %w", ErrInvalidTower, t.ID, t.AntennaHeight, pathloss.ErrInvalidDomainValue)
	}
	if t.Scenario < pathloss.Urban || t.Scenario > pathloss.Rural {
		return fmt.Errorf("%w %s: %w", ErrInvalidTower, t.ID, pathloss.ErrUnknownScenario)
	}
	return nil
}

// ModelSetting returns the propagation inputs of the tower.
func (t Tower) ModelSetting(mobileHeight float64) pathloss.ModelSetting {
	return pathloss.ModelSetting{
		FreqMHz:      t.FrequencyMHz,
		BSHeight:     t.AntennaHeight,
		MobileHeight: mobileHeight,
		Scenario:     t.Scenario,
		LargeCity:    t.LargeCity,
	}
}

// DefaultMaxCells is the largest grid sampled per tower, 25 times the
// default 401x401 box.
const DefaultMaxCells = 4000000

// GridConfig controls the sampling box around a tower and the sector shape.
type GridConfig struct {
	LatRange        float64 `json:"latRange" mapstructure:"latRange"` // half extent in degree
	LonRange        float64 `json:"lonRange" mapstructure:"lonRange"`
	LatStep         float64 `json:"latStep" mapstructure:"latStep"`
	LonStep         float64 `json:"lonStep" mapstructure:"lonStep"`
	MaxRadiusMeters float64 `json:"maxRadius" mapstructure:"maxRadius"`
	MobileHeight    float64 `json:"mobileHeight" mapstructure:"mobileHeight"`
	// MaxCells bounds Rows()*Cols(); zero means DefaultMaxCells.
	MaxCells int `json:"maxCells" mapstructure:"maxCells"`

	antenna.SettingSector `mapstructure:",squash"`
}

func (g *GridConfig) SetDefault() {
	g.LatRange = 0.4
	g.LonRange = 0.4
	g.LatStep = 0.002
	g.LonStep = 0.002
	g.MaxRadiusMeters = 20000
	g.MobileHeight = pathloss.DefaultMobileHeight
	g.MaxCells = DefaultMaxCells
	g.SettingSector.SetDefault()
}

func NewGridConfig() *GridConfig {
	result := new(GridConfig)
	result.SetDefault()
	return result
}

// DefaultGridConfig returns the reference sampling setup by value.
func DefaultGridConfig() GridConfig {
	return *NewGridConfig()
}

// Validate rejects grids that cannot be sampled, including boxes whose cell
// count exceeds MaxCells.
func (g GridConfig) Validate() error {
	if !finite(g.LatStep) || !finite(g.LonStep) || g.LatStep <= 0 || g.LonStep <= 0 {
		return fmt.Errorf("%w: steps must be positive (lat %v, lon %v)", ErrInvalidGrid, g.LatStep, g.LonStep)
	}
	if !finite(g.LatRange) || g.LatRange < 0 || g.LatRange > 90 {
		return fmt.Errorf("%w: lat range %v out of [0,90]", ErrInvalidGrid, g.LatRange)
	}
	if !finite(g.LonRange) || g.LonRange < 0 || g.LonRange > 180 {
		return fmt.Errorf("%w: lon range %v out of [0,180]", ErrInvalidGrid, g.LonRange)
	}
	if !finite(g.MaxRadiusMeters) || g.MaxRadiusMeters <= 0 {
		return fmt.Errorf("%w: max radius %v m must be positive", ErrInvalidGrid, g.MaxRadiusMeters)
	}
	if !finite(g.MobileHeight) || g.MobileHeight <= 0 {
		return fmt.Errorf("%w: mobile height %v m must be positive", ErrInvalidGrid, g.MobileHeight)
	}
	maxCells := g.MaxCells
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}
	// counted in float64 so huge ranges over tiny steps cannot overflow int
	cells := (math.Floor(2*g.LatRange/g.LatStep+1e-9) + 1) * (math.Floor(2*g.LonRange/g.LonStep+1e-9) + 1)
	if cells > float64(maxCells) {
		return fmt.Errorf("%w: %.0f cells exceed the limit of %d", ErrInvalidGrid, cells, maxCells)
	}
	if err := g.SettingSector.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGrid, err)
	}
	return nil
}

// Rows and Cols return the number of latitude and longitude samples.
func (g GridConfig) Rows() int { return AxisLength(g.LatRange, g.LatStep) }
func (g GridConfig) Cols() int { return AxisLength(g.LonRange, g.LonStep) }

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
