package basemap

import (
	"fmt"
	"sync"
)

// Registry is the tile-protocol handler: archives are registered before
// the map fetches tiles through their handles. It is created once at
// application start and injected wherever archives are resolved, rather
// than living as package state.
type Registry struct {
	mu       sync.Mutex
	next     int
	byHandle map[string]*Archive
	handles  map[*Archive]string
}

func NewRegistry() *Registry {
	return &Registry{
		byHandle: map[string]*Archive{},
		handles:  map[*Archive]string{},
	}
}

// Register binds an archive under a synthetic handle unique to that
// archive instance. Re-registering the same archive returns the handle
// it already has.
func (r *Registry) Register(archive *Archive) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handle, ok := r.handles[archive]; ok {
		return handle
	}
	r.next += 1
	handle := fmt.Sprintf("pmtiles://archive-%d", r.next)
	r.byHandle[handle] = archive
	r.handles[archive] = handle
	return handle
}

// Lookup resolves a handle back to its archive.
func (r *Registry) Lookup(handle string) (*Archive, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	archive, ok := r.byHandle[handle]
	return archive, ok
}

// Deregister drops a handle so a replaced archive can be collected.
func (r *Registry) Deregister(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if archive, ok := r.byHandle[handle]; ok {
		delete(r.handles, archive)
		delete(r.byHandle, handle)
	}
}
