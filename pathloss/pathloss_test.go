package pathloss_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiless/coverage/pathloss"
)

func TestUrbanLossMonotonicInDistance(t *testing.T) {
	for _, large := range []bool{false, true} {
		prev := math.Inf(-1)
		for d := 0.01; d <= 40; d *= 1.25 {
			loss, err := pathloss.UrbanLoss(900, 30, 1.5, d, large)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, loss, prev, "distance %v km", d)
			prev = loss
		}
	}
}

func TestUrbanLossReferenceValue(t *testing.T) {
	// 900 MHz, 30 m mast, 1.5 m handset, 1 km: the distance term vanishes.
	loss, err := pathloss.UrbanLoss(900, 30, 1.5, 1, false)
	require.NoError(t, err)
	ahm := (1.1*math.Log10(900)-0.7)*1.5 - (1.56*math.Log10(900) - 0.8)
	expected := 69.55 + 26.16*math.Log10(900) - 13.82*math.Log10(30) - ahm
	assert.InDelta(t, expected, loss, 1e-9)
	assert.InDelta(t, 126.4, loss, 0.1)
}

func TestLargeCityFrequencyOutOfRange(t *testing.T) {
	for _, f := range []float64{200.0001, 250, 300, 399.9} {
		_, err := pathloss.MobileHeightCorrection(f, 1.5, true)
		assert.True(t, errors.Is(err, pathloss.ErrFrequencyOutOfRange), "f=%v", f)

		_, err = pathloss.UrbanLoss(f, 30, 1.5, 2, true)
		assert.ErrorIs(t, err, pathloss.ErrFrequencyOutOfRange)
	}

	for _, f := range []float64{150, 200, 400, 900} {
		_, err := pathloss.MobileHeightCorrection(f, 1.5, true)
		assert.NoError(t, err, "f=%v", f)
	}

	// The small/medium city form has no frequency gap.
	_, err := pathloss.MobileHeightCorrection(300, 1.5, false)
	assert.NoError(t, err)
}

func TestInvalidDomainValues(t *testing.T) {
	_, err := pathloss.UrbanLoss(0, 30, 1.5, 1, false)
	assert.ErrorIs(t, err, pathloss.ErrInvalidDomainValue)

	_, err = pathloss.UrbanLoss(-900, 30, 1.5, 1, false)
	assert.ErrorIs(t, err, pathloss.ErrInvalidDomainValue)

	_, err = pathloss.UrbanLoss(900, 0, 1.5, 1, false)
	assert.ErrorIs(t, err, pathloss.ErrInvalidDomainValue)

	_, err = pathloss.Loss(pathloss.Rural, 900, -1, 1.5, 1, false)
	assert.ErrorIs(t, err, pathloss.ErrInvalidDomainValue)
}

func TestScenarioCorrectionsReduceLoss(t *testing.T) {
	lu, err := pathloss.Loss(pathloss.Urban, 900, 30, 1.5, 3, false)
	require.NoError(t, err)
	ls, err := pathloss.Loss(pathloss.Suburban, 900, 30, 1.5, 3, false)
	require.NoError(t, err)
	lr, err := pathloss.Loss(pathloss.Rural, 900, 30, 1.5, 3, false)
	require.NoError(t, err)

	assert.InDelta(t, lu-2*math.Pow(math.Log10(900.0/28), 2)-5.4, ls, 1e-9)
	assert.Less(t, ls, lu)
	assert.Less(t, lr, ls)
}

func TestParseScenario(t *testing.T) {
	s, err := pathloss.ParseScenario("Suburban")
	require.NoError(t, err)
	assert.Equal(t, pathloss.Suburban, s)

	s, err = pathloss.ParseScenario("")
	require.NoError(t, err)
	assert.Equal(t, pathloss.Urban, s)

	_, err = pathloss.ParseScenario("desert")
	assert.ErrorIs(t, err, pathloss.ErrUnknownScenario)

	var setting struct {
		Scenario pathloss.Scenario `json:"scenario"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"scenario":"rural"}`), &setting))
	assert.Equal(t, pathloss.Rural, setting.Scenario)

	out, err := json.Marshal(setting)
	require.NoError(t, err)
	assert.JSONEq(t, `{"scenario":"rural"}`, string(out))
}

func TestMaxRangeInvertsLoss(t *testing.T) {
	m := pathloss.NewModelSetting()
	for _, s := range []pathloss.Scenario{pathloss.Urban, pathloss.Suburban, pathloss.Rural} {
		d, err := pathloss.MaxRangeKm(s, 140, m.FreqMHz, m.BSHeight, m.MobileHeight, false)
		require.NoError(t, err)
		loss, err := pathloss.Loss(s, m.FreqMHz, m.BSHeight, m.MobileHeight, d, false)
		require.NoError(t, err)
		assert.InDelta(t, 140, loss, 1e-9, s.String())
	}

	ranges, err := m.Ranges(140)
	require.NoError(t, err)
	assert.Less(t, ranges.UrbanKm, ranges.SuburbanKm)
	assert.Less(t, ranges.SuburbanKm, ranges.RuralKm)
}

func TestFreeSpace(t *testing.T) {
	loss, err := pathloss.FreeSpaceLoss(1, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 92.44, loss, 1e-9)

	d, err := pathloss.FreeSpaceDistance(loss, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 1, d, 1e-9)

	_, err = pathloss.FreeSpaceLoss(0, 1000)
	assert.ErrorIs(t, err, pathloss.ErrInvalidDomainValue)
}

func TestLinkBudget(t *testing.T) {
	in := pathloss.LinkBudgetInput{
		TxPowerDbm:     43,
		TxGainDbi:      15,
		RxGainDbi:      0,
		FreqMHz:        1000,
		DistanceKm:     1,
		PenetrationDb:  10,
		BodyLossDb:     3,
		MarginDb:       5,
		SensitivityDbm: -100,
	}
	out, err := in.Evaluate()
	require.NoError(t, err)
	assert.InDelta(t, 92.44, out.FreeSpaceLossDb, 1e-9)
	assert.InDelta(t, 110.44, out.TotalLossDb, 1e-9)
	assert.InDelta(t, 58-110.44, out.ReceivedDbm, 1e-9)
	assert.InDelta(t, out.ReceivedDbm+100, out.LinkMarginDb, 1e-9)
}
