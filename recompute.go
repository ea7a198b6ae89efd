package coverage

import (
	"context"
	"sync"

	"github.com/wiless/coverage/deployment"
)

// Computation is the outcome of one Recompute request.
type Computation struct {
	Raster
	// Sequence is the per-tower request number, starting at 1.
	Sequence uint64
	// Current is false when a newer request for the same tower was issued
	// while this one was computing. Callers should discard such results.
	Current bool
}

// Recomputer serializes the bookkeeping of repeated requests for the same
// tower so that the latest request wins. It never cancels or debounces work;
// it only tells callers whether their result has been superseded.
type Recomputer struct {
	service *Service

	sync.Mutex
	issued map[string]uint64
}

func NewRecomputer(service *Service) *Recomputer {
	if service == nil {
		service = NewService()
	}
	return &Recomputer{service: service, issued: make(map[string]uint64)}
}

func (r *Recomputer) next(towerID string) uint64 {
	r.Lock()
	defer r.Unlock()
	r.issued[towerID]++
	return r.issued[towerID]
}

// Latest returns the sequence number of the newest request for towerID, or 0
// if none was issued.
func (r *Recomputer) Latest(towerID string) uint64 {
	r.Lock()
	defer r.Unlock()
	return r.issued[towerID]
}

// Recompute computes the raster of tower after assigning the request a
// sequence number. The returned Computation carries that number even when
// err is not nil.
func (r *Recomputer) Recompute(ctx context.Context, tower deployment.Tower, grid deployment.GridConfig) (Computation, error) {
	seq := r.next(tower.ID)
	raster, err := r.service.Calculate(ctx, tower, grid)
	return Computation{
		Raster:   raster,
		Sequence: seq,
		Current:  r.Latest(tower.ID) == seq,
	}, err
}

// Forget drops the sequence of towerID, e.g. once the tower is deleted.
func (r *Recomputer) Forget(towerID string) {
	r.Lock()
	delete(r.issued, towerID)
	r.Unlock()
}
