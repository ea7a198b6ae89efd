package pathloss

import (
	"fmt"
	"math"
)

// FreeSpaceLoss returns the free space path loss in dB for a distance in
// km and a frequency in MHz.
func FreeSpaceLoss(dKm, freqMHz float64) (float64, error) {
	if dKm <= 0 || freqMHz <= 0 {
		return 0, fmt.Errorf("%w: distance %v km and frequency %v MHz must be > 0", ErrInvalidDomainValue, dKm, freqMHz)
	}
	return 20*math.Log10(dKm) + 20*math.Log10(freqMHz) + 32.44, nil
}

// FreeSpaceDistance is the inverse of FreeSpaceLoss, in km.
func FreeSpaceDistance(lossDb, freqMHz float64) (float64, error) {
	if freqMHz <= 0 {
		return 0, fmt.Errorf("%w: frequency %v MHz must be > 0", ErrInvalidDomainValue, freqMHz)
	}
	return math.Pow(10, (lossDb-20*math.Log10(freqMHz)-32.44)/20), nil
}

// MaxRangeKm inverts the Hata model: it returns the distance at which the
// scenario path loss reaches maxLossDb.
func MaxRangeKm(s Scenario, maxLossDb, freqMHz, hb, hm float64, largeCity bool) (float64, error) {
	// Loss at 1 km carries every term except the distance slope.
	l1, err := Loss(s, freqMHz, hb, hm, 1, largeCity)
	if err != nil {
		return 0, err
	}
	slope := 44.9 - 6.55*math.Log10(hb)
	if slope <= 0 {
		return 0, fmt.Errorf("%w: base station height %v m gives a non-positive distance slope", ErrInvalidDomainValue, hb)
	}
	return math.Pow(10, (maxLossDb-l1)/slope), nil
}

// RangeSummary holds the maximum range per scenario for one loss budget.
type RangeSummary struct {
	UrbanKm    float64 `json:"urban_max_km"`
	SuburbanKm float64 `json:"suburban_max_km"`
	RuralKm    float64 `json:"rural_max_km"`
}

// Ranges evaluates MaxRangeKm for every scenario.
func (m ModelSetting) Ranges(maxLossDb float64) (RangeSummary, error) {
	var result RangeSummary
	if err := m.Validate(); err != nil {
		return result, err
	}
	var err error
	if result.UrbanKm, err = MaxRangeKm(Urban, maxLossDb, m.FreqMHz, m.BSHeight, m.MobileHeight, m.LargeCity); err != nil {
		return result, err
	}
	if result.SuburbanKm, err = MaxRangeKm(Suburban, maxLossDb, m.FreqMHz, m.BSHeight, m.MobileHeight, m.LargeCity); err != nil {
		return result, err
	}
	if result.RuralKm, err = MaxRangeKm(Rural, maxLossDb, m.FreqMHz, m.BSHeight, m.MobileHeight, m.LargeCity); err != nil {
		return result, err
	}
	return result, nil
}

// LinkBudget is the free-space link budget with fixed extra losses.
type LinkBudget struct {
	FreeSpaceLossDb float64 `json:"L_fsl"`
	TotalLossDb     float64 `json:"L_total"`
	ReceivedDbm     float64 `json:"Prx"`
	LinkMarginDb    float64 `json:"Link_margin"`
}

// LinkBudgetInput carries the transmitter, receiver and loss terms.
type LinkBudgetInput struct {
	TxPowerDbm     float64 `json:"Ptx"`
	TxGainDbi      float64 `json:"Gtx"`
	RxGainDbi      float64 `json:"Grx"`
	FreqMHz        float64 `json:"f"`
	DistanceKm     float64 `json:"distance_km"`
	PenetrationDb  float64 `json:"L_pl"`
	BodyLossDb     float64 `json:"L_cerb"`
	MarginDb       float64 `json:"Margin"`
	SensitivityDbm float64 `json:"s_em"`
}

// Evaluate computes the received power and the margin over sensitivity.
func (in LinkBudgetInput) Evaluate() (LinkBudget, error) {
	var result LinkBudget
	fsl, err := FreeSpaceLoss(in.DistanceKm, in.FreqMHz)
	if err != nil {
		return result, err
	}
	extra := in.PenetrationDb + in.BodyLossDb + in.MarginDb
	result.FreeSpaceLossDb = fsl
	result.TotalLossDb = fsl + extra
	result.ReceivedDbm = in.TxPowerDbm + in.TxGainDbi + in.RxGainDbi - fsl - extra
	result.LinkMarginDb = result.ReceivedDbm - in.SensitivityDbm
	return result, nil
}
