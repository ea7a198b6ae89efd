package pathloss

import (
	"fmt"
	"math"
)

// MobileHeightCorrection returns the a(h_m) term of the Hata model.
// For largeCity the model is only defined for f <= 200 MHz or f >= 400 MHz.
func MobileHeightCorrection(freqMHz, hm float64, largeCity bool) (float64, error) {
	if freqMHz <= 0 {
		return 0, fmt.Errorf("%w: frequency %v MHz must be > 0", ErrInvalidDomainValue, freqMHz)
	}
	if !largeCity {
		return aHmSmallMediumCity(freqMHz, hm), nil
	}
	return aHmLargeCity(freqMHz, hm)
}

func aHmSmallMediumCity(f, hm float64) float64 {
	return (1.1*math.Log10(f)-0.7)*hm - (1.56*math.Log10(f) - 0.8)
}

func aHmLargeCity(f, hm float64) (float64, error) {
	if hm <= 0 {
		return 0, fmt.Errorf("%w: mobile height %v m must be > 0", ErrInvalidDomainValue, hm)
	}
	switch {
	case f <= 200:
		return 8.29*math.Pow(math.Log10(1.54*hm), 2) - 1.1, nil
	case f >= 400:
		return 3.2*math.Pow(math.Log10(11.75*hm), 2) - 4.97, nil
	default:
		return 0, fmt.Errorf("%w: large city model undefined for %v MHz (200 < f < 400)", ErrFrequencyOutOfRange, f)
	}
}

// UrbanLoss returns the Okumura-Hata median urban path loss in dB.
// dKm must be positive; callers clamp degenerate distances.
func UrbanLoss(freqMHz, hb, hm, dKm float64, largeCity bool) (float64, error) {
	if freqMHz <= 0 {
		return 0, fmt.Errorf("%w: frequency %v MHz must be > 0", ErrInvalidDomainValue, freqMHz)
	}
	if hb <= 0 {
		return 0, fmt.Errorf("%w: base station height %v m must be > 0", ErrInvalidDomainValue, hb)
	}
	ahm, err := MobileHeightCorrection(freqMHz, hm, largeCity)
	if err != nil {
		return 0, err
	}
	result := 69.55 + 26.16*math.Log10(freqMHz) - 13.82*math.Log10(hb) - ahm + (44.9-6.55*math.Log10(hb))*math.Log10(dKm)
	return result, nil
}

// SuburbanLoss applies the suburban correction to an urban loss value.
func SuburbanLoss(freqMHz, urbanLoss float64) float64 {
	return urbanLoss - 2*math.Pow(math.Log10(freqMHz/28), 2) - 5.4
}

// RuralLoss applies the open/rural correction to an urban loss value.
func RuralLoss(freqMHz, urbanLoss float64) float64 {
	lf := math.Log10(freqMHz)
	return urbanLoss - 4.78*lf*lf + 18.33*lf - 40.94
}

// Loss returns the path loss for the given scenario.
func Loss(s Scenario, freqMHz, hb, hm, dKm float64, largeCity bool) (float64, error) {
	lu, err := UrbanLoss(freqMHz, hb, hm, dKm, largeCity)
	if err != nil {
		return 0, err
	}
	switch s {
	case Urban:
		return lu, nil
	case Suburban:
		return SuburbanLoss(freqMHz, lu), nil
	case Rural:
		return RuralLoss(freqMHz, lu), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownScenario, int(s))
	}
}
