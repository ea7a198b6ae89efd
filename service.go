package coverage

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wiless/coverage/deployment"
)

const tracerName = "github.com/wiless/coverage"

// ErrDuplicateTower is reported for every tower of a batch reusing the id of
// an earlier one.
var ErrDuplicateTower = errors.New("duplicate tower id")

// Recorder receives one observation per tower processed by a Service.
// err is nil for towers whose raster was produced.
type Recorder interface {
	ObserveTower(towerID string, samples int, elapsed time.Duration, err error)
}

// TowerError reports the failure of a single tower within a batch.
type TowerError struct {
	// Index is the position of the tower in the batch.
	Index   int
	TowerID string
	Err     error
}

func (e TowerError) Error() string {
	return fmt.Sprintf("tower %s: %v", e.TowerID, e.Err)
}

func (e TowerError) Unwrap() error { return e.Err }

// Result holds the rasters of the towers that succeeded and the errors of the
// ones that did not, both in input order.
type Result struct {
	Rasters []Raster
	Errors  []TowerError
}

// Raster returns the raster of the tower with the given id.
func (r Result) Raster(towerID string) (Raster, bool) {
	for _, raster := range r.Rasters {
		if raster.TowerID == towerID {
			return raster, true
		}
	}
	return Raster{}, false
}

// Service computes rasters for batches of towers. Towers never share state,
// so a failing tower does not affect the others.
type Service struct {
	Sampler *Sampler
	// Workers bounds the number of towers sampled concurrently.
	Workers int
	Log     log.FieldLogger
	Metrics Recorder

	tracer trace.Tracer
}

func NewService() *Service {
	return &Service{
		Sampler: NewSampler(),
		Workers: runtime.GOMAXPROCS(0),
		Log:     log.StandardLogger(),
		tracer:  otel.Tracer(tracerName),
	}
}

type outcome struct {
	raster Raster
	err    error
}

// CalculateCoverage samples every tower over grid. Calling it twice with the
// same input yields the same result. Tower ids must be unique within the
// batch; later towers reusing an id fail with ErrDuplicateTower. Once ctx is
// done no further tower is started and each unstarted tower reports ctx.Err().
func (s *Service) CalculateCoverage(ctx context.Context, towers []deployment.Tower, grid deployment.GridConfig) Result {
	ctx, span := s.getTracer().Start(ctx, "CalculateCoverage", trace.WithAttributes(attribute.Int("towers", len(towers))))
	defer span.End()

	outcomes := make([]outcome, len(towers))
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(towers) {
		workers = len(towers)
	}

	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for indx := range jobs {
				outcomes[indx] = s.sampleTower(ctx, towers[indx], grid)
			}
		}()
	}

	seen := make(map[string]int, len(towers))
	for indx, t := range towers {
		if first, dup := seen[t.ID]; dup {
			outcomes[indx].err = fmt.Errorf("%w: %q already used by tower %d", ErrDuplicateTower, t.ID, first)
			s.logger().WithField("tower", t.ID).Warn("duplicate tower id skipped")
			continue
		}
		seen[t.ID] = indx
		if err := ctx.Err(); err != nil {
			outcomes[indx].err = err
			continue
		}
		select {
		case jobs <- indx:
		case <-ctx.Done():
			outcomes[indx].err = ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	var result Result
	for indx, o := range outcomes {
		if o.err != nil {
			result.Errors = append(result.Errors, TowerError{Index: indx, TowerID: towers[indx].ID, Err: o.err})
			continue
		}
		result.Rasters = append(result.Rasters, o.raster)
	}
	span.SetAttributes(attribute.Int("failed", len(result.Errors)))
	if len(result.Errors) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d towers failed", len(result.Errors), len(towers)))
	}
	return result
}

func (s *Service) sampleTower(ctx context.Context, tower deployment.Tower, grid deployment.GridConfig) outcome {
	_, span := s.getTracer().Start(ctx, "SampleTower", trace.WithAttributes(attribute.String("tower.id", tower.ID)))
	defer span.End()

	start := time.Now()
	sampler := s.Sampler
	if sampler == nil {
		sampler = &Sampler{}
	}
	raster, err := sampler.Sample(tower, grid)
	elapsed := time.Since(start)

	if s.Metrics != nil {
		s.Metrics.ObserveTower(tower.ID, raster.Len(), elapsed, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger().WithField("tower", tower.ID).WithError(err).Warn("coverage failed")
		return outcome{err: err}
	}

	span.SetAttributes(attribute.Int("samples", raster.Len()))
	s.logger().WithFields(log.Fields{
		"tower":    tower.ID,
		"samples":  raster.Len(),
		"duration": elapsed,
	}).Debug("coverage computed")
	return outcome{raster: raster}
}

// Calculate is the single tower form of CalculateCoverage.
func (s *Service) Calculate(ctx context.Context, tower deployment.Tower, grid deployment.GridConfig) (Raster, error) {
	if err := ctx.Err(); err != nil {
		return Raster{TowerID: tower.ID}, err
	}
	o := s.sampleTower(ctx, tower, grid)
	if o.err != nil {
		return Raster{TowerID: tower.ID}, o.err
	}
	return o.raster, nil
}

func (s *Service) logger() log.FieldLogger {
	if s.Log == nil {
		return log.StandardLogger()
	}
	return s.Log
}

func (s *Service) getTracer() trace.Tracer {
	if s.tracer == nil {
		return otel.Tracer(tracerName)
	}
	return s.tracer
}
