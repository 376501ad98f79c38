package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"fieldmap.dev/fieldmapd/cache"
)

func offlineCommand() *cli.Command {
	return &cli.Command{
		Name:  "offline",
		Usage: "Manage the offline basemap cache",
		Commands: []*cli.Command{
			{
				Name:  "download",
				Usage: "Download the tile archive into the offline cache",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Tile archive URL, defaults to the configured source",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runDownload(cmd.String("url"))
				},
			},
			{
				Name:  "status",
				Usage: "Show the offline cache state",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return showStatus()
				},
			},
			{
				Name:  "clear",
				Usage: "Delete the cached tile archive",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					c, err := build()
					if err != nil {
						return err
					}
					err = c.manager.Clear()
					if err != nil {
						return err
					}
					fmt.Println("offline cache cleared")
					return nil
				},
			},
		},
	}
}

func runDownload(url string) error {
	c, err := build()
	if err != nil {
		return err
	}
	if url == "" {
		url = c.settings.TileSourceURL
	}

	statusChan := c.manager.Subscribe()
	c.manager.Start(url)

	for status := range statusChan {
		switch status.Phase {
		case cache.Downloading:
			if status.TotalChunks > 0 {
				fmt.Printf("\r%3d%% (%d / %d bytes)", status.Fraction(), status.BytesStored, status.TotalBytes)
			} else {
				fmt.Printf("\r%d bytes", status.BytesStored)
			}
		case cache.Ready:
			fmt.Printf("\rcached %d bytes from %s\n", status.BytesStored, url)
			return nil
		case cache.Error:
			fmt.Println()
			return fmt.Errorf("download failed: %s", status.Error)
		case cache.Paused:
			fmt.Println("\ndownload paused")
			return nil
		}
	}
	return nil
}

func showStatus() error {
	c, err := build()
	if err != nil {
		return err
	}
	status := c.manager.Status()
	fmt.Printf("phase: %s\n", status.Phase)
	fmt.Printf("cached: %t\n", c.manager.HasCache())
	if record, ok := c.store.GetArchive(); ok {
		fmt.Printf("size: %d bytes\n", len(record.Blob))
		source := record.SourceURL
		if source == "" {
			source = "(unrecorded)"
		}
		fmt.Printf("source: %s\n", source)
	}
	if status.Error != "" {
		fmt.Printf("error: %s\n", status.Error)
	}
	return nil
}
