package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"fieldmap.dev/fieldmapd/gps"
)

func waypointCommand() *cli.Command {
	return &cli.Command{
		Name:    "waypoint",
		Aliases: []string{"wp"},
		Usage:   "Record, list and export waypoints",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Record a waypoint from coordinates or a GPS fix",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "lat", Usage: "Latitude in degrees"},
					&cli.Float64Flag{Name: "lng", Usage: "Longitude in degrees"},
					&cli.StringFlag{Name: "label", Usage: "Waypoint label"},
					&cli.StringFlag{
						Name:  "gps-replay",
						Usage: "Take the position from the next fix in a JSON-lines replay file",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return addWaypoint(ctx, cmd)
				},
			},
			{
				Name:  "list",
				Usage: "List waypoints with per-leg distance and bearing",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return listWaypoints()
				},
			},
			{
				Name:  "export",
				Usage: "Export waypoints as GeoJSON or CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "geojson", Usage: "geojson or csv"},
					&cli.StringFlag{Name: "out", Usage: "Output file, stdout when omitted"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return exportWaypoints(cmd.String("format"), cmd.String("out"))
				},
			},
			{
				Name:  "rename",
				Usage: "Change a waypoint's label",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "label", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					c, err := build()
					if err != nil {
						return err
					}
					return c.log.Rename(cmd.String("id"), cmd.String("label"))
				},
			},
			{
				Name:  "delete",
				Usage: "Delete one waypoint, or all with --all",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id"},
					&cli.BoolFlag{Name: "all"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					c, err := build()
					if err != nil {
						return err
					}
					if cmd.Bool("all") {
						return c.log.DeleteAll()
					}
					if cmd.String("id") == "" {
						return errors.New("either --id or --all is required")
					}
					return c.log.Delete(cmd.String("id"))
				},
			},
		},
	}
}

func addWaypoint(ctx context.Context, cmd *cli.Command) error {
	c, err := build()
	if err != nil {
		return err
	}

	if replayPath := cmd.String("gps-replay"); replayPath != "" {
		provider, err := gps.NewReplay(replayPath)
		if err != nil {
			return err
		}
		fix, err := gps.Current(ctx, provider, c.settings.GpsTimeout())
		if err != nil {
			return err
		}
		point, err := c.log.AddFix(fix, cmd.String("label"))
		if err != nil {
			return err
		}
		fmt.Printf("recorded %s at %.6f, %.6f\n", point.ID, point.Lat, point.Lng)
		return nil
	}

	if !cmd.IsSet("lat") || !cmd.IsSet("lng") {
		return errors.New("--lat and --lng are required without --gps-replay")
	}
	point, err := c.log.Add(cmd.Float64("lat"), cmd.Float64("lng"), cmd.String("label"))
	if err != nil {
		return err
	}
	fmt.Printf("recorded %s at %.6f, %.6f\n", point.ID, point.Lat, point.Lng)
	return nil
}

func listWaypoints() error {
	c, err := build()
	if err != nil {
		return err
	}
	points := c.log.Points()
	if len(points) == 0 {
		fmt.Println("no waypoints recorded")
		return nil
	}
	for _, point := range points {
		fmt.Printf("%s  %.6f, %.6f  %s  %s\n", point.ID, point.Lat, point.Lng, point.Source, point.Label)
	}
	for _, leg := range c.log.Legs() {
		fmt.Printf("  %s -> %s  %.1f m  bearing %.1f\n", leg.FromID, leg.ToID, leg.Distance, leg.Bearing)
	}
	fmt.Printf("total distance: %.1f m\n", c.log.TotalDistance())
	return nil
}

func exportWaypoints(format string, out string) error {
	c, err := build()
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "geojson":
		data, err = c.log.GeoJSON()
	case "csv":
		data, err = c.log.CSV()
	default:
		return errors.Errorf("unknown export format: %s", format)
	}
	if err != nil {
		return err
	}

	if out == "" {
		fmt.Print(string(data))
		return nil
	}
	err = os.WriteFile(out, data, 0o664)
	if err != nil {
		return errors.Wrap(err, "could not write export file")
	}
	return nil
}
