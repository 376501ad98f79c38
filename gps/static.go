package gps

import (
	"context"
	"time"
)

// Static always reports the same position. Stands in for manual entry
// and for platforms with no receiver.
type Static struct {
	Fix      Fix
	Interval time.Duration
}

func (s *Static) Current(ctx context.Context) (Fix, error) {
	if ctx.Err() != nil {
		return Fix{}, ctx.Err()
	}
	return s.Fix, nil
}

func (s *Static) Watch(ctx context.Context) (<-chan Fix, func()) {
	interval := s.Interval
	if interval <= 0 {
		interval = 1 * time.Second
	}
	ch := make(chan Fix)
	watchCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
			}
			select {
			case ch <- s.Fix:
			case <-watchCtx.Done():
				return
			}
		}
	}()
	return ch, cancel
}
