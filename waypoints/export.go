package waypoints

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// GeoJSON exports the log as a FeatureCollection of Point features,
// coordinates ordered [lng, lat].
func (l *Log) GeoJSON() ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, point := range l.Points() {
		feature := geojson.NewFeature(orb.Point{point.Lng, point.Lat})
		var accuracy any
		if point.Accuracy != nil {
			accuracy = *point.Accuracy
		}
		feature.Properties = geojson.Properties{
			"label":     point.Label,
			"timestamp": point.CreatedAt.UTC().Format(time.RFC3339),
			"source":    string(point.Source),
			"accuracy":  accuracy,
		}
		fc.Append(feature)
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "could not marshal waypoint feature collection")
	}
	return data, nil
}

// CSV exports one row per waypoint, lat/lng to 6 decimal places and
// accuracy to 2, empty when unrecorded.
func (l *Log) CSV() ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	err := writer.Write([]string{"label", "lat", "lng", "timestamp", "source", "accuracy_m"})
	if err != nil {
		return nil, errors.Wrap(err, "could not write waypoint csv header")
	}
	for _, point := range l.Points() {
		accuracy := ""
		if point.Accuracy != nil {
			accuracy = fmt.Sprintf("%.2f", *point.Accuracy)
		}
		err = writer.Write([]string{
			point.Label,
			fmt.Sprintf("%.6f", point.Lat),
			fmt.Sprintf("%.6f", point.Lng),
			point.CreatedAt.UTC().Format(time.RFC3339),
			string(point.Source),
			accuracy,
		})
		if err != nil {
			return nil, errors.Wrap(err, "could not write waypoint csv row")
		}
	}
	writer.Flush()
	err = writer.Error()
	if err != nil {
		return nil, errors.Wrap(err, "could not flush waypoint csv")
	}
	return buf.Bytes(), nil
}
