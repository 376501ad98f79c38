package gps

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrPermissionDenied is surfaced when the platform refuses location
// access; callers keep the feature off until the user retries.
var ErrPermissionDenied = errors.New("location permission denied")

type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Time      time.Time `json:"time"`
}

// Provider is the geolocation capability. Current blocks for one fix;
// Watch delivers fixes until the stop func runs. There is no OS-level
// cancellation for an in-flight fix, only discarding results that
// arrive after stop.
type Provider interface {
	Current(ctx context.Context) (Fix, error)
	Watch(ctx context.Context) (<-chan Fix, func())
}

// Current requests one fix with a bounded timeout. The provider keeps
// running if it ignores cancellation; its late result is discarded.
func Current(ctx context.Context, provider Provider, timeout time.Duration) (Fix, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		fix Fix
		err error
	}
	results := make(chan result, 1)
	go func() {
		fix, err := provider.Current(ctx)
		results <- result{fix: fix, err: err}
	}()

	select {
	case r := <-results:
		if r.err != nil {
			return Fix{}, errors.Wrap(r.err, "could not get position")
		}
		return r.fix, nil
	case <-ctx.Done():
		return Fix{}, errors.New("location request timed out")
	}
}
