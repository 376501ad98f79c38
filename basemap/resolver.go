package basemap

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"

	"fieldmap.dev/fieldmapd/params"
)

// CACHE_ORIGIN tags cached blobs whose provenance was not recorded.
const CACHE_ORIGIN = "cache://archive"

// Descriptor identifies the active basemap and how it was obtained. The
// renderer diffs the whole value, not just the URL: two different blobs
// can share a synthetic provenance tag but never a handle.
type Descriptor struct {
	SourceURL        string `json:"source_url"`
	Handle           string `json:"handle"`
	UsedLocal        bool   `json:"used_local"`
	UsedOfflineCache bool   `json:"used_offline_cache"`
}

// Resolver picks the effective tile source: the offline cached blob when
// present and enabled, else the first bundled local archive that probes
// successfully, else the fixed remote archive. Every resolution
// registers the chosen archive before handing out its descriptor.
type Resolver struct {
	Store      *params.Store
	Registry   *Registry
	Client     *http.Client
	LocalPaths []string
	RemoteURL  string

	// OfflineEnabled gates the cached blob without deleting it.
	OfflineEnabled func() bool
}

func (r *Resolver) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return http.DefaultClient
}

// Resolve returns the active descriptor and its opened archive.
func (r *Resolver) Resolve(ctx context.Context) (Descriptor, *Archive, error) {
	if r.OfflineEnabled == nil || r.OfflineEnabled() {
		if desc, archive, ok := r.resolveCached(); ok {
			return desc, archive, nil
		}
	}

	if desc, archive, ok := r.resolveLocal(ctx); ok {
		return desc, archive, nil
	}

	archive, err := FromURL(ctx, r.client(), r.RemoteURL)
	if err != nil {
		return Descriptor{}, nil, errors.Wrap(err, "could not open remote tile archive")
	}
	desc := Descriptor{
		SourceURL: r.RemoteURL,
		Handle:    r.Registry.Register(archive),
	}
	return desc, archive, nil
}

func (r *Resolver) resolveCached() (Descriptor, *Archive, bool) {
	record, ok := r.Store.GetArchive()
	if !ok {
		return Descriptor{}, nil, false
	}
	archive, err := FromBlob(record.Blob)
	if err != nil {
		slog.Warn("cached archive unreadable, falling back", "error", err)
		return Descriptor{}, nil, false
	}

	sourceURL := record.SourceURL
	if sourceURL == "" {
		sourceURL = CACHE_ORIGIN
	}
	desc := Descriptor{
		SourceURL:        sourceURL,
		Handle:           r.Registry.Register(archive),
		UsedOfflineCache: true,
		UsedLocal:        r.isLocalProvenance(sourceURL),
	}
	return desc, archive, true
}

func (r *Resolver) resolveLocal(ctx context.Context) (Descriptor, *Archive, bool) {
	for _, path := range r.LocalPaths {
		archive, ok := r.probe(ctx, path)
		if !ok {
			continue
		}
		desc := Descriptor{
			SourceURL: path,
			Handle:    r.Registry.Register(archive),
			UsedLocal: true,
		}
		return desc, archive, true
	}
	return Descriptor{}, nil, false
}

// probe is a lightweight existence check before opening: HEAD for
// http(s) candidates, stat for filesystem paths. Probe failure is not
// an error, it just falls through to the next source.
func (r *Resolver) probe(ctx context.Context, path string) (*Archive, bool) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, path, nil)
		if err != nil {
			return nil, false
		}
		resp, err := r.client().Do(req)
		if err != nil {
			return nil, false
		}
		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, false
		}
		archive, err := FromURL(ctx, r.client(), path)
		if err != nil {
			slog.Debug("bundled archive probe hit but open failed", "error", err, "path", path)
			return nil, false
		}
		return archive, true
	}

	if _, err := os.Stat(path); err != nil {
		return nil, false
	}
	archive, err := FromFile(path)
	if err != nil {
		slog.Debug("bundled archive present but unreadable", "error", err, "path", path)
		return nil, false
	}
	return archive, true
}

func (r *Resolver) isLocalProvenance(sourceURL string) bool {
	if strings.HasPrefix(sourceURL, "cache://") {
		return true
	}
	for _, path := range r.LocalPaths {
		if sourceURL == path {
			return true
		}
	}
	return false
}
