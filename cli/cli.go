package cli

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"fieldmap.dev/fieldmapd/basemap"
	"fieldmap.dev/fieldmapd/cache"
	"fieldmap.dev/fieldmapd/params"
	"fieldmap.dev/fieldmapd/render"
	"fieldmap.dev/fieldmapd/settings"
	"fieldmap.dev/fieldmapd/waypoints"
)

// components is everything a command operates on. Commands build their
// own set against the shared on-disk store; the store's directory lock
// keeps concurrent invocations safe.
type components struct {
	store    *params.Store
	settings *settings.AppSettings
	registry *basemap.Registry
	manager  *cache.Manager
	resolver *basemap.Resolver
	mapModel *render.Map
	log      *waypoints.Log
}

func build() (*components, error) {
	store, err := params.Open(params.DefaultRoot())
	if err != nil {
		return nil, err
	}
	appSettings := &settings.AppSettings{}
	appSettings.Load(store)

	registry := basemap.NewRegistry()
	c := &components{
		store:    store,
		settings: appSettings,
		registry: registry,
		manager:  cache.NewManager(store),
		resolver: &basemap.Resolver{
			Store:          store,
			Registry:       registry,
			LocalPaths:     appSettings.LocalArchivePaths,
			RemoteURL:      appSettings.TileSourceURL,
			OfflineEnabled: func() bool { return appSettings.OfflineTilesEnabled },
		},
		mapModel: render.NewMap(),
		log:      waypoints.NewLog(store),
	}
	return c, nil
}

func Handle() {
	shouldExit := true
	cmd := &cli.Command{
		Commands: []*cli.Command{
			{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Manage settings, offline maps and waypoints from a terminal UI",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					interactive()
					return nil
				},
			},
			offlineCommand(),
			waypointCommand(),
		},
		Name:  "fieldmapd",
		Usage: "Start an instance of fieldmapd",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			shouldExit = false
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}

	if shouldExit {
		os.Exit(0)
	}
}
