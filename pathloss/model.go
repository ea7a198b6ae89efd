// Package pathloss implements the empirical Okumura-Hata median path loss
// model with its suburban and rural corrections, plus the free-space helpers
// used by the link budget calculators.
package pathloss

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFrequencyOutOfRange is returned by the large-city mobile antenna
	// correction for 200 < f < 400 MHz, where neither branch applies.
	ErrFrequencyOutOfRange = errors.New("frequency out of range")
	// ErrInvalidDomainValue is returned when an input would be passed to a
	// base-10 logarithm as a non-positive number.
	ErrInvalidDomainValue = errors.New("invalid domain value")
	// ErrUnknownScenario is returned for scenario names other than
	// urban, suburban and rural.
	ErrUnknownScenario = errors.New("unknown scenario")
)

// Scenario selects the propagation environment correction applied on top of
// the urban baseline.
type Scenario int

const (
	Urban Scenario = iota
	Suburban
	Rural
)

var Scenarios = [...]string{
	"urban",
	"suburban",
	"rural",
}

func (s Scenario) String() string {
	if int(s) < 0 || int(s) >= len(Scenarios) {
		return "unknown-scenario"
	}
	return Scenarios[s]
}

// ParseScenario converts a scenario name (case insensitive) to a Scenario.
// An empty name defaults to Urban.
func ParseScenario(name string) (Scenario, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Urban, nil
	}
	for indx, val := range Scenarios {
		if val == name {
			return Scenario(indx), nil
		}
	}
	return Urban, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
}

func (s Scenario) MarshalText() ([]byte, error) {
	if int(s) < 0 || int(s) >= len(Scenarios) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScenario, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Scenario) UnmarshalText(text []byte) error {
	v, err := ParseScenario(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Scenario) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

func (s *Scenario) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	return s.UnmarshalText([]byte(name))
}

// ModelSetting holds the link-independent inputs of the Hata model.
type ModelSetting struct {
	FreqMHz      float64  `json:"freqMHz"`
	BSHeight     float64  `json:"bsHeight"`     // h_b in meters
	MobileHeight float64  `json:"mobileHeight"` // h_m in meters
	Scenario     Scenario `json:"scenario"`
	LargeCity    bool     `json:"largeCity"`
}

// DefaultMobileHeight is the receiver height assumed by the coverage tool.
const DefaultMobileHeight = 1.5

func (m *ModelSetting) SetDefault() {
	m.FreqMHz = 900
	m.BSHeight = 30
	m.MobileHeight = DefaultMobileHeight
	m.Scenario = Urban
	m.LargeCity = false
}

func NewModelSetting() *ModelSetting {
	result := new(ModelSetting)
	result.SetDefault()
	return result
}

// Validate checks the inputs that end up inside logarithms.
func (m ModelSetting) Validate() error {
	if m.FreqMHz <= 0 {
		return fmt.Errorf("%w: frequency %v MHz must be > 0", ErrInvalidDomainValue, m.FreqMHz)
	}
	if m.BSHeight <= 0 {
		return fmt.Errorf("%w: base station height %v m must be > 0", ErrInvalidDomainValue, m.BSHeight)
	}
	if m.Scenario < Urban || m.Scenario > Rural {
		return fmt.Errorf("%w: %d", ErrUnknownScenario, int(m.Scenario))
	}
	return nil
}

// LossInDb returns the scenario path loss at dKm kilometers.
func (m ModelSetting) LossInDb(dKm float64) (float64, error) {
	return Loss(m.Scenario, m.FreqMHz, m.BSHeight, m.MobileHeight, dKm, m.LargeCity)
}
