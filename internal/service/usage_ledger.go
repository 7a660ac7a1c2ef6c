package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/metrics"
	"github.com/COROTANjayson/readify/internal/model"
	appErr "github.com/COROTANjayson/readify/internal/pkg/errors"
)

// UsageLedger meters tool runs per file. A reservation is taken before any
// expensive work and given back when that work does not produce a result.
type UsageLedger struct {
	store UsageStore
	// rollbackDelay is the pause between rollback attempts in Run.
	rollbackDelay time.Duration
}

const rollbackAttempts = 3

func NewUsageLedger(store UsageStore) *UsageLedger {
	return &UsageLedger{store: store, rollbackDelay: 200 * time.Millisecond}
}

const (
	reservationOpen int32 = iota
	reservationReleasing
	reservationClosed
)

// Reservation is one committed unit of a file's tool budget.
type Reservation struct {
	store  UsageStore
	fileID string
	tool   model.Tool
	usage  model.Usage
	state  atomic.Int32
}

// Reserve takes one unit of tool on fileID. It fails with a
// *appErr.UsageLimitError once the counter reached its limit.
func (l *UsageLedger) Reserve(ctx context.Context, fileID string, tool model.Tool) (*Reservation, error) {
	usage, err := l.store.ReserveUsage(ctx, fileID, tool)
	if err != nil {
		result := "error"
		if errors.Is(err, appErr.ErrUsageLimitExceeded) {
			result = "limit"
		}
		metrics.ObserveReservation(tool.String(), result)
		return nil, err
	}
	metrics.ObserveReservation(tool.String(), "ok")
	return &Reservation{store: l.store, fileID: fileID, tool: tool, usage: usage}, nil
}

// Run reserves a unit, runs fn and rolls the reservation back if fn fails.
// fn gets a context that outlives the caller's cancellation so a dropped
// client cannot abort generation half way.
func (l *UsageLedger) Run(ctx context.Context, fileID string, tool model.Tool, fn func(ctx context.Context) error) (model.Usage, error) {
	res, err := l.Reserve(ctx, fileID, tool)
	if err != nil {
		return model.Usage{}, err
	}
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		l.rollback(ctx, res)
		return model.Usage{}, err
	}
	res.Commit()
	return res.Usage(), nil
}

// rollback releases res, retrying up to rollbackAttempts times.
func (l *UsageLedger) rollback(ctx context.Context, res *Reservation) {
	logger := logutil.GetLogger(ctx).With(zap.String("file_id", res.fileID), zap.String("tool", res.tool.String()))
	for attempt := 1; attempt <= rollbackAttempts; attempt++ {
		err := res.Rollback(ctx)
		if err == nil {
			return
		}
		logger.Warn("rollback usage reservation failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < rollbackAttempts && l.rollbackDelay > 0 {
			time.Sleep(l.rollbackDelay * time.Duration(attempt))
		}
	}
	logger.Error("usage reservation left spent after rollback retries")
}

// Usage is the pair right after the reservation was taken.
func (r *Reservation) Usage() model.Usage {
	if r == nil {
		return model.Usage{}
	}
	return r.usage
}

// Commit keeps the reservation; a later Rollback does nothing. Commit has no
// effect while a rollback is in flight.
func (r *Reservation) Commit() {
	if r == nil {
		return
	}
	r.state.CompareAndSwap(reservationOpen, reservationClosed)
}

// Rollback gives the unit back. Only one successful release happens per
// reservation; a failed release leaves the reservation open so the call can
// be retried. Calling it on a nil reservation is a no-op.
func (r *Reservation) Rollback(ctx context.Context) error {
	if r == nil || !r.state.CompareAndSwap(reservationOpen, reservationReleasing) {
		return nil
	}
	if err := r.store.ReleaseUsage(context.WithoutCancel(ctx), r.fileID, r.tool); err != nil {
		r.state.Store(reservationOpen)
		return err
	}
	r.state.Store(reservationClosed)
	metrics.ObserveRollback(r.tool.String())
	return nil
}
