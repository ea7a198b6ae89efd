package antenna_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiless/coverage/antenna"
)

func TestNewSettingSector(t *testing.T) {
	s := antenna.NewSettingSector()
	require.NoError(t, s.Validate())
	assert.Equal(t, 3, s.Sectors)
	assert.Equal(t, 65.0, s.HBeamWidth)

	s.Sectors = 0
	assert.Error(t, s.Validate())
}

func TestHorizontalGainBoresight(t *testing.T) {
	for _, kh := range []float64{0, 0.3, 0.7, 1} {
		for _, phi3 := range []float64{30, 65, 90} {
			g := antenna.HorizontalGain(0, phi3, kh, antenna.LambdaKh(kh))
			assert.Equal(t, 0.0, g)
		}
	}
}

func TestHorizontalGainContinuousAtHalfBeam(t *testing.T) {
	kh := 0.7
	lambda := antenna.LambdaKh(kh)
	phi3 := 65.0
	edge := 0.5 * phi3
	inner := antenna.HorizontalGain(edge, phi3, kh, lambda)
	outer := antenna.HorizontalGain(edge+1e-9, phi3, kh, lambda)
	assert.InDelta(t, -3, inner, 1e-12)
	assert.InDelta(t, inner, outer, 1e-6)
}

func TestHorizontalGainSymmetricAndDecreasing(t *testing.T) {
	kh := 0.7
	lambda := antenna.LambdaKh(kh)
	prev := 1.0
	for theta := 0.0; theta <= 180; theta += 5 {
		g := antenna.HorizontalGain(theta, 65, kh, lambda)
		assert.Equal(t, g, antenna.HorizontalGain(-theta, 65, kh, lambda))
		assert.Less(t, g, prev+1e-12)
		prev = g
	}
}

func TestVerticalGainRegions(t *testing.T) {
	theta3 := antenna.Theta3(15)
	assert.InDelta(t, 107.6*math.Pow(10, -1.5), theta3, 1e-12)

	kv, kp := 0.7, 0.7
	assert.Equal(t, 0.0, antenna.VerticalGain(0, kv, theta3, kp))

	xk := math.Sqrt(1 - 0.36*kv)
	near := antenna.VerticalGain(0.5*xk*theta3, kv, theta3, kp)
	assert.InDelta(t, -12*math.Pow(0.5*xk, 2), near, 1e-12)

	mid := antenna.VerticalGain(2*theta3, kv, theta3, kp)
	assert.InDelta(t, -12+10*math.Log10(math.Pow(2, -1.5)+kv), mid, 1e-12)

	// The far field joins the mid region at xv = 4.
	C := antenna.AttenuationIncrement(theta3, kp, kv)
	far := antenna.VerticalGain(4*theta3, kv, theta3, kp)
	assert.InDelta(t, -antenna.LambdaKv(C, kv)-C*math.Log10(4), far, 1e-12)
	assert.InDelta(t, antenna.VerticalGain(4*theta3-1e-9, kv, theta3, kp), far, 1e-6)
}

func TestSelectSectorTieBreak(t *testing.T) {
	s := antenna.SelectSector(60, 3, 0)
	assert.Equal(t, 0, s.Index)
	assert.Equal(t, 0.0, s.Boresight)
	assert.Equal(t, 60.0, s.Offset)

	s = antenna.SelectSector(180, 3, 0)
	assert.Equal(t, 1, s.Index)

	s = antenna.SelectSector(300, 3, 0)
	assert.Equal(t, 0, s.Index)
	assert.Equal(t, 60.0, s.Offset)
}

func TestSelectSectorRotationAndWrap(t *testing.T) {
	s := antenna.SelectSector(350, 3, 30)
	assert.Equal(t, 0, s.Index)
	assert.InDelta(t, 40, s.Offset, 1e-12)

	s = antenna.SelectSector(10, 3, 250)
	assert.Equal(t, 1, s.Index)
	assert.InDelta(t, 10, s.Boresight, 1e-12)
	assert.InDelta(t, 0, s.Offset, 1e-12)

	s = antenna.SelectSector(123, 1, 0)
	assert.Equal(t, 0, s.Index)
	assert.InDelta(t, 123, s.Offset, 1e-12)
}

func TestWrapHelpers(t *testing.T) {
	assert.Equal(t, 10.0, antenna.Wrap0To180(-350))
	assert.Equal(t, 170.0, antenna.Wrap0To180(190))
	assert.Equal(t, 0.0, antenna.Wrap0To180(360))
	assert.Equal(t, 350.0, antenna.Wrap0To360(-10))
	assert.Equal(t, 0.0, antenna.Wrap0To360(720))
}

func TestPatternSectorGain(t *testing.T) {
	p := antenna.NewPattern(*antenna.NewSettingSector())
	sector, h, v := p.SectorGain(120, 0)
	assert.Equal(t, 1, sector.Index)
	assert.Equal(t, 0.0, h)
	assert.Equal(t, 0.0, v)

	_, h, _ = p.SectorGain(90, 0)
	assert.InDelta(t, -12*math.Pow(30.0/65, 2), h, 1e-12)
}

func TestOmniGain(t *testing.T) {
	assert.Equal(t, 10.0, antenna.OmniGain(0, 10, 0, 10, 5))
	assert.InDelta(t, 10-12*math.Pow(0.4, 2), antenna.OmniGain(-4, 10, 0, 10, 5), 1e-12)
	assert.InDelta(t, -2.0, antenna.OmniGain(7, 10, 0, 10, 5), 1e-12)
	assert.InDelta(t, 10-12+10*math.Log10(math.Pow(2, -1.5)), antenna.OmniGain(20, 10, 0, 10, 5), 1e-12)
	assert.Equal(t, -100.0, antenna.OmniGain(120, 10, 0, 10, 5))
}
