package coverage

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/wiless/coverage/antenna"
	"github.com/wiless/coverage/deployment"
	"github.com/wiless/coverage/pathloss"
)

// MinDistanceMeters is the distance used for cells closer to the tower than
// this, so the log-distance term of the path loss stays finite.
const MinDistanceMeters = 1.0

// Sampler evaluates the link budget of one tower over a grid.
// The zero value scans rows sequentially.
type Sampler struct {
	// Workers is the number of goroutines scanning grid rows. Values below 2
	// scan sequentially; the output order does not depend on it.
	Workers int
}

func NewSampler() *Sampler {
	return &Sampler{Workers: runtime.GOMAXPROCS(0)}
}

// link holds everything constant across the cells of one tower.
type link struct {
	tower   deployment.Tower
	grid    deployment.GridConfig
	model   pathloss.ModelSetting
	pattern antenna.Pattern
	// ptx + gtx + grx - (margin + cable + additional)
	budgetDb float64
}

func newLink(tower deployment.Tower, grid deployment.GridConfig) (*link, error) {
	if err := tower.Validate(); err != nil {
		return nil, err
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	tower = tower.Normalized()
	model := tower.ModelSetting(grid.MobileHeight)
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("tower %s: %w", tower.ID, err)
	}
	// The mobile height correction only depends on the frequency, so a
	// frequency the large city model cannot handle fails here, before the scan.
	if _, err := pathloss.MobileHeightCorrection(model.FreqMHz, model.MobileHeight, model.LargeCity); err != nil {
		return nil, fmt.Errorf("tower %s: %w", tower.ID, err)
	}
	return &link{
		tower:    tower,
		grid:     grid,
		model:    model,
		pattern:  antenna.NewPattern(grid.SettingSector),
		budgetDb: tower.TxPowerDbm + tower.TxGainDbi + tower.RxGainDbi - tower.TotalExtraLossDb(),
	}, nil
}

// received returns the received power at (lat, lon); ok is false beyond the
// maximum radius.
func (l *link) received(lat, lon float64) (rxDbm float64, ok bool, err error) {
	t := l.tower
	distance := deployment.DistanceMeters(t.Latitude, t.Longitude, lat, lon)
	if distance > l.grid.MaxRadiusMeters {
		return 0, false, nil
	}
	if distance < MinDistanceMeters {
		distance = MinDistanceMeters
	}
	lossDb, err := l.model.LossInDb(distance / 1000)
	if err != nil {
		return 0, false, fmt.Errorf("tower %s: %w", t.ID, err)
	}

	bearing := deployment.BearingDegrees(t.Latitude, t.Longitude, lat, lon)
	_, hgain, vgain := l.pattern.SectorGain(bearing, t.SectorRotation)
	return l.budgetDb + hgain + vgain - lossDb, true, nil
}

// ReceivedPower evaluates a single coordinate. ok is false when the point lies
// beyond the grid's maximum radius. The sensitivity filter is not applied.
func (s *Sampler) ReceivedPower(tower deployment.Tower, grid deployment.GridConfig, lat, lon float64) (rxDbm float64, ok bool, err error) {
	l, err := newLink(tower, grid)
	if err != nil {
		return 0, false, err
	}
	return l.received(lat, lon)
}

// Sample computes the raster of tower over grid. The grid is a flat row-major
// index space over precomputed axes: row r is latitude offset r (ascending),
// column c is longitude offset c (ascending). Cells beyond the maximum radius
// or not strictly above the tower sensitivity are dropped.
func (s *Sampler) Sample(tower deployment.Tower, grid deployment.GridConfig) (Raster, error) {
	l, err := newLink(tower, grid)
	if err != nil {
		return Raster{TowerID: tower.ID}, err
	}

	lats := deployment.Axis(grid.LatRange, grid.LatStep)
	lons := deployment.Axis(grid.LonRange, grid.LonStep)
	for indx := range lats {
		lats[indx] += l.tower.Latitude
	}
	for indx := range lons {
		lons[indx] += l.tower.Longitude
	}

	rows := make([][]GridSample, len(lats))
	scanRow := func(row int) error {
		var samples []GridSample
		for _, lon := range lons {
			rx, ok, err := l.received(lats[row], lon)
			if err != nil {
				return err
			}
			if ok && rx > l.tower.MaxSensitivityDbm {
				samples = append(samples, GridSample{Latitude: lats[row], Longitude: lon, ReceivedPowerDbm: rx})
			}
		}
		rows[row] = samples
		return nil
	}

	if err := s.scan(len(lats), scanRow); err != nil {
		return Raster{TowerID: tower.ID}, err
	}

	total := 0
	for _, r := range rows {
		total += len(r)
	}
	result := Raster{TowerID: tower.ID, Samples: make([]GridSample, 0, total)}
	for _, r := range rows {
		result.Samples = append(result.Samples, r...)
	}
	return result, nil
}

// scan runs fn for every row, spreading rows over the configured workers.
// The first error is returned once all started rows finish.
func (s *Sampler) scan(nrows int, fn func(row int) error) error {
	workers := s.Workers
	if workers > nrows {
		workers = nrows
	}
	if workers < 2 {
		for row := 0; row < nrows; row++ {
			if err := fn(row); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for row := range jobs {
				if err := fn(row); err != nil {
					once.Do(func() { firstErr = err })
				}
			}
		}()
	}
	for row := 0; row < nrows; row++ {
		jobs <- row
	}
	close(jobs)
	wg.Wait()
	return firstErr
}
