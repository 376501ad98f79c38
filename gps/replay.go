package gps

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Replay plays back fixes from a JSON-lines file, one object per line.
// Used for bench runs and tests in place of a live receiver.
type Replay struct {
	Interval time.Duration

	mu    sync.Mutex
	fixes []Fix
	next  int
}

func NewReplay(path string) (*Replay, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open gps replay file")
	}
	defer file.Close()

	r := &Replay{Interval: 1 * time.Second}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var fix Fix
		err := json.Unmarshal(line, &fix)
		if err != nil {
			return nil, errors.Wrap(err, "could not parse gps replay line")
		}
		r.fixes = append(r.fixes, fix)
	}
	err = scanner.Err()
	if err != nil {
		return nil, errors.Wrap(err, "could not read gps replay file")
	}
	if len(r.fixes) == 0 {
		return nil, errors.New("gps replay file holds no fixes")
	}
	return r, nil
}

// FromFixes builds a replay provider from in-memory fixes.
func FromFixes(fixes []Fix) *Replay {
	return &Replay{Interval: 1 * time.Second, fixes: fixes}
}

func (r *Replay) Current(ctx context.Context) (Fix, error) {
	if ctx.Err() != nil {
		return Fix{}, ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.fixes) {
		return Fix{}, errors.New("gps replay exhausted")
	}
	fix := r.fixes[r.next]
	r.next += 1
	return fix, nil
}

// Watch delivers remaining fixes on the replay interval. Fixes ready
// after stop runs are dropped, not delivered late.
func (r *Replay) Watch(ctx context.Context) (<-chan Fix, func()) {
	ch := make(chan Fix)
	watchCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(ch)
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
			}
			fix, err := r.Current(watchCtx)
			if err != nil {
				return
			}
			select {
			case ch <- fix:
			case <-watchCtx.Done():
				// watcher already stopped, discard the fix
				return
			}
		}
	}()

	return ch, cancel
}
