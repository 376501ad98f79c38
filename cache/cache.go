package cache

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/pkg/errors"

	"fieldmap.dev/fieldmapd/params"
)

// CHUNK_SIZE is the fixed progress-accounting unit. Progress is reported
// in these segments regardless of how the transport delivers bytes.
const CHUNK_SIZE = 64 * 1024

type Phase int

const (
	Idle Phase = iota
	Downloading
	Paused
	Ready
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Downloading:
		return "downloading"
	case Paused:
		return "paused"
	case Ready:
		return "ready"
	case Error:
		return "error"
	}
	return "unknown"
}

type Status struct {
	Phase        Phase  `json:"phase"`
	StoredChunks int    `json:"stored_chunks"`
	TotalChunks  int    `json:"total_chunks"`
	BytesStored  int64  `json:"bytes_stored"`
	TotalBytes   int64  `json:"total_bytes"`
	Error        string `json:"error,omitempty"`
}

// Fraction is the display progress in percent, clamped to [0, 100].
// A zero TotalChunks means the total is unknown and reports 0.
func (s Status) Fraction() int {
	if s.TotalChunks == 0 {
		return 0
	}
	percent := int(float64(s.StoredChunks)/float64(s.TotalChunks)*100 + 0.5)
	if percent > 100 {
		return 100
	}
	return percent
}

// Manager streams a tile archive into memory, persists the completed
// blob with its source URL, and exposes pause/resume/clear. At most one
// transfer is in flight; starting a new one cancels and drains the
// previous attempt first.
type Manager struct {
	store  *params.Store
	client *http.Client

	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
	done   chan struct{}
	subs   []chan Status
}

func NewManager(store *params.Store) *Manager {
	m := &Manager{
		store:  store,
		client: http.DefaultClient,
	}
	if store.HasArchive() {
		m.status.Phase = Ready
	}
	return m
}

// Subscribe returns a channel receiving a status snapshot on every
// transition and every chunk. Sends are nonblocking; a slow receiver
// misses intermediate snapshots, never stalls the transfer.
func (m *Manager) Subscribe() <-chan Status {
	ch := make(chan Status, 16)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) HasCache() bool {
	return m.store.HasArchive()
}

// Start begins a fresh download from url. Any in-flight attempt is
// canceled and fully drained first, so attempts never overlap and a
// resume always restarts from byte zero.
func (m *Manager) Start(url string) {
	m.cancelAndWait()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.mu.Lock()
	m.cancel = cancel
	m.done = done
	m.status = Status{Phase: Downloading}
	m.publishLocked()
	m.mu.Unlock()

	go func() {
		defer close(done)
		m.run(ctx, url)
	}()
}

// Pause aborts the in-flight request. Pausing is not an error and never
// populates the error field.
func (m *Manager) Pause() {
	m.cancelAndWait()
}

// Resume restarts the download from zero. Valid from Paused or Error.
func (m *Manager) Resume(url string) {
	m.Start(url)
}

// Disable cancels any in-flight transfer and settles on Ready when a
// prior cache exists, Idle otherwise. An existing cache is kept.
func (m *Manager) Disable() {
	m.cancelAndWait()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store.HasArchive() {
		m.status = Status{Phase: Ready}
	} else {
		m.status = Status{Phase: Idle}
	}
	m.publishLocked()
}

// Clear deletes the persisted archive and returns to Idle. Idempotent.
func (m *Manager) Clear() error {
	m.cancelAndWait()
	err := m.store.DeleteArchive()
	if err != nil {
		return errors.Wrap(err, "could not clear cached archive")
	}
	m.mu.Lock()
	m.status = Status{Phase: Idle}
	m.publishLocked()
	m.mu.Unlock()
	return nil
}

func (m *Manager) cancelAndWait() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Manager) run(ctx context.Context, url string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		m.fail(errors.Wrap(err, "could not build download request"))
		return
	}

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			m.pauseFromCancel()
			return
		}
		m.fail(errors.Wrap(err, "could not fetch tile archive"))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.fail(errors.Errorf("download received bad status: %s", resp.Status))
		return
	}

	totalBytes := resp.ContentLength
	totalChunks := 0
	if totalBytes > 0 {
		totalChunks = chunksFor(totalBytes)
	} else {
		totalBytes = 0
	}
	m.mu.Lock()
	m.status.TotalBytes = totalBytes
	m.status.TotalChunks = totalChunks
	m.publishLocked()
	m.mu.Unlock()

	chunks := [][]byte{}
	buf := make([]byte, CHUNK_SIZE)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			chunks = append(chunks, chunk)

			m.mu.Lock()
			m.status.BytesStored += int64(n)
			m.status.StoredChunks += chunksFor(int64(n))
			m.publishLocked()
			m.mu.Unlock()
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				m.pauseFromCancel()
				return
			}
			m.fail(errors.Wrap(err, "tile archive stream failed"))
			return
		}
	}

	size := int64(0)
	for _, chunk := range chunks {
		size += int64(len(chunk))
	}
	blob := make([]byte, 0, size)
	for _, chunk := range chunks {
		blob = append(blob, chunk...)
	}

	err = m.store.PutArchive(blob, url)
	if err != nil {
		m.fail(errors.Wrap(err, "could not persist tile archive"))
		return
	}

	m.mu.Lock()
	// per-read ceil accounting can transiently over-count; settle the
	// final status on the exact totals
	m.status.BytesStored = size
	m.status.TotalBytes = size
	m.status.StoredChunks = chunksFor(size)
	m.status.TotalChunks = chunksFor(size)
	m.status.Phase = Ready
	m.status.Error = ""
	m.publishLocked()
	m.mu.Unlock()
	slog.Info("tile archive cached", "url", url, "bytes", size)
}

func (m *Manager) pauseFromCancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Phase = Paused
	m.status.Error = ""
	m.publishLocked()
}

func (m *Manager) fail(err error) {
	slog.Warn("tile archive download failed", "error", err)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Phase = Error
	m.status.Error = err.Error()
	m.publishLocked()
}

// publishLocked hands the current status to every subscriber without
// blocking the transfer. A full buffer sheds its oldest snapshot so the
// newest always lands: mid-download snapshots are lossy, the settled
// phase is not. The manager is the only sender, so after the drain a
// slot is free.
func (m *Manager) publishLocked() {
	for _, ch := range m.subs {
		select {
		case ch <- m.status:
			continue
		default:
		}
		select { // full buffer, shed the oldest snapshot
		case <-ch:
		default:
		}
		select {
		case ch <- m.status:
		default:
		}
	}
}

func chunksFor(n int64) int {
	return int((n + CHUNK_SIZE - 1) / CHUNK_SIZE)
}
