// Package coverage turns tower parameters into rasters of received signal
// strength sampled on a latitude/longitude grid around each tower.
package coverage

import (
	"math"

	"github.com/wiless/vlib"

	"github.com/wiless/coverage/deployment"
)

// GridSample is one retained grid cell.
type GridSample struct {
	Latitude         float64 `json:"lat"`
	Longitude        float64 `json:"lon"`
	ReceivedPowerDbm float64 `json:"receivedPower"`
}

// Raster is the coverage of one tower. Samples are in row-major grid order
// (latitude ascending, then longitude ascending) and only hold cells above
// the tower sensitivity.
type Raster struct {
	TowerID string       `json:"towerId"`
	Samples []GridSample `json:"samples"`
}

func (r Raster) Len() int { return len(r.Samples) }

// Summary condenses a raster for logs and CLI output.
type Summary struct {
	TowerID        string  `json:"towerId"`
	Samples        int     `json:"samples"`
	PeakDbm        float64 `json:"peakDbm"`
	MinDbm         float64 `json:"minDbm"`
	MeanDbm        float64 `json:"meanDbm"` // power mean in the linear domain
	CoveredAreaKm2 float64 `json:"coveredAreaKm2"`
}

// Summarize computes the raster statistics. The covered area is the number of
// retained cells times the cell area at the tower latitude. An empty raster
// leaves every statistic at zero.
func (r Raster) Summarize(tower deployment.Tower, grid deployment.GridConfig) Summary {
	result := Summary{TowerID: r.TowerID, Samples: len(r.Samples)}
	if len(r.Samples) == 0 {
		return result
	}

	rxpower := vlib.NewVectorF(len(r.Samples))
	result.PeakDbm = math.Inf(-1)
	result.MinDbm = math.Inf(1)
	for indx, s := range r.Samples {
		rxpower[indx] = s.ReceivedPowerDbm
		result.PeakDbm = math.Max(result.PeakDbm, s.ReceivedPowerDbm)
		result.MinDbm = math.Min(result.MinDbm, s.ReceivedPowerDbm)
	}
	linear := vlib.InvDbF(rxpower)
	result.MeanDbm = vlib.Db(vlib.Sum(linear) / float64(len(linear)))
	result.CoveredAreaKm2 = float64(len(r.Samples)) * grid.CellAreaKm2(tower.Latitude)
	return result
}

// Intensity maps a received power onto the [0,1] heatmap scale, -120 dBm
// being 0 and -50 dBm being 1.
func Intensity(dbm float64) float64 {
	const lo, hi = -120.0, -50.0
	v := (dbm - lo) / (hi - lo)
	return math.Max(0, math.Min(1, v))
}
