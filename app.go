package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"fieldmap.dev/fieldmapd/basemap"
	"fieldmap.dev/fieldmapd/cache"
	"fieldmap.dev/fieldmapd/params"
	"fieldmap.dev/fieldmapd/render"
	"fieldmap.dev/fieldmapd/settings"
	"fieldmap.dev/fieldmapd/waypoints"
)

const MARKER_SYNC_DELAY = 1 * time.Second

// App owns the long-lived pieces: the store, the protocol registry
// created once per process, the cache manager, the resolver and the
// single live map.
type App struct {
	Store     *params.Store
	Settings  *settings.AppSettings
	Registry  *basemap.Registry
	Cache     *cache.Manager
	Resolver  *basemap.Resolver
	Map       *render.Map
	Waypoints *waypoints.Log
}

func NewApp(root string) (*App, error) {
	store, err := params.Open(root)
	if err != nil {
		return nil, err
	}

	appSettings := &settings.AppSettings{}
	appSettings.LoadWithRetries(store, 3)

	registry := basemap.NewRegistry()
	app := &App{
		Store:    store,
		Settings: appSettings,
		Registry: registry,
		Cache:    cache.NewManager(store),
		Resolver: &basemap.Resolver{
			Store:          store,
			Registry:       registry,
			LocalPaths:     appSettings.LocalArchivePaths,
			RemoteURL:      appSettings.TileSourceURL,
			OfflineEnabled: func() bool { return appSettings.OfflineTilesEnabled },
		},
		Map:       render.NewMap(),
		Waypoints: waypoints.NewLog(store),
	}

	if appSettings.DarkTheme {
		app.Map.SetTheme(render.DarkTheme())
	}
	for role, visible := range appSettings.LayerVisibility {
		app.Map.SetRoleVisibility(role, visible)
	}

	return app, nil
}

// ResolveAndBind picks the effective tile source and rebinds the map.
// Rebinding is a no-op when the resolved descriptor is unchanged. The
// handle the map was bound to before is released so the replaced
// archive can be collected.
func (a *App) ResolveAndBind(ctx context.Context) error {
	desc, archive, err := a.Resolver.Resolve(ctx)
	if err != nil {
		return errors.Wrap(err, "could not resolve tile source")
	}
	prev, wasBound := a.Map.Descriptor()
	a.Map.Rebind(desc, archive.VectorLayerNames())
	if wasBound && prev.Handle != desc.Handle {
		a.Registry.Deregister(prev.Handle)
	}
	return nil
}

// SetOfflineEnabled flips the offline-tiles toggle. Enabling with no
// cache starts a download; disabling cancels any transfer but keeps an
// existing cache.
func (a *App) SetOfflineEnabled(enabled bool) {
	a.Settings.OfflineTilesEnabled = enabled
	a.Settings.Save(a.Store)
	if enabled {
		if !a.Cache.HasCache() {
			a.Cache.Start(a.Settings.TileSourceURL)
		}
	} else {
		a.Cache.Disable()
	}
}

// Run is the daemon loop: bind the initial source, then re-resolve and
// rebind whenever the cache settles into a new phase, and keep map
// markers reconciled with the waypoint log.
func (a *App) Run(ctx context.Context) error {
	err := a.ResolveAndBind(ctx)
	if err != nil {
		slog.Warn("initial basemap bind failed", "error", err)
	}

	statusChan := a.Cache.Subscribe()
	if a.Settings.OfflineTilesEnabled && !a.Cache.HasCache() {
		a.Cache.Start(a.Settings.TileSourceURL)
	}

	markerTicker := time.NewTicker(MARKER_SYNC_DELAY)
	defer markerTicker.Stop()

	lastPhase := a.Cache.Status().Phase
	for {
		select {
		case <-ctx.Done():
			// teardown cancels the in-flight transfer, never errors it
			a.Cache.Pause()
			return nil
		case status := <-statusChan:
			if status.Phase == lastPhase {
				continue
			}
			lastPhase = status.Phase
			slog.Info("offline cache phase changed", "phase", status.Phase.String())
			if status.Phase == cache.Ready || status.Phase == cache.Idle {
				err := a.ResolveAndBind(ctx)
				if err != nil {
					slog.Warn("basemap rebind failed", "error", err)
				}
			}
		case <-markerTicker.C:
			a.syncMarkers()
		}
	}
}

func (a *App) syncMarkers() {
	points := a.Waypoints.Points()
	markers := make([]render.Marker, len(points))
	for i, point := range points {
		markers[i] = render.Marker{
			ID:    point.ID,
			Lat:   point.Lat,
			Lng:   point.Lng,
			Label: point.Label,
		}
	}
	a.Map.SyncMarkers(markers)
}
