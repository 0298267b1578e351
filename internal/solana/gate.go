package solana

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// AdmissionGate bounds the number of in-flight provider requests.
// One gate is built per process and handed to every client that should share it.
type AdmissionGate struct {
	sem      *semaphore.Weighted
	size     int64
	inFlight atomic.Int64
	waits    atomic.Int64
}

// NewAdmissionGate creates a gate with n slots (minimum 1).
func NewAdmissionGate(n int) *AdmissionGate {
	if n < 1 {
		n = 1
	}
	return &AdmissionGate{
		sem:  semaphore.NewWeighted(int64(n)),
		size: int64(n),
	}
}

// Acquire blocks until a slot is free or ctx is done.
func (g *AdmissionGate) Acquire(ctx context.Context) error {
	if !g.sem.TryAcquire(1) {
		g.waits.Add(1)
		if err := g.sem.Acquire(ctx, 1); err != nil {
			return err
		}
	}
	g.inFlight.Add(1)
	return nil
}

// Release frees a slot taken by Acquire.
func (g *AdmissionGate) Release() {
	g.inFlight.Add(-1)
	g.sem.Release(1)
}

// Size returns the configured number of slots.
func (g *AdmissionGate) Size() int64 { return g.size }

// InFlight returns the number of currently held slots.
func (g *AdmissionGate) InFlight() int64 { return g.inFlight.Load() }

// Waits returns how many acquisitions had to block.
func (g *AdmissionGate) Waits() int64 { return g.waits.Load() }
