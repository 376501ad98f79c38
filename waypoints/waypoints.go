package waypoints

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"fieldmap.dev/fieldmapd/geo"
	"fieldmap.dev/fieldmapd/gps"
	"fieldmap.dev/fieldmapd/params"
	"fieldmap.dev/fieldmapd/utils"
)

type Source string

const (
	SourceManual Source = "manual"
	SourceGPS    Source = "gps"
)

type Waypoint struct {
	ID        string    `json:"id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	Source    Source    `json:"source"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
}

// Log is the ordered record of user positions. The whole set persists
// through the params store on every mutation.
type Log struct {
	store *params.Store

	mu     sync.Mutex
	points []Waypoint
}

func NewLog(store *params.Store) *Log {
	l := &Log{store: store}
	l.load()
	return l
}

func (l *Log) load() {
	data, err := l.store.Get(params.WAYPOINTS)
	if err != nil {
		// nothing recorded yet
		return
	}
	err = json.Unmarshal(data, &l.points)
	if err != nil {
		utils.Loge(errors.Wrap(err, "could not parse stored waypoints"))
	}
}

func (l *Log) persistLocked() error {
	data, err := json.MarshalIndent(l.points, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not marshal waypoints")
	}
	err = l.store.Put(params.WAYPOINTS, data)
	if err != nil {
		return errors.Wrap(err, "could not persist waypoints")
	}
	return nil
}

// Add records a manually entered position.
func (l *Log) Add(lat float64, lng float64, label string) (Waypoint, error) {
	return l.append(Waypoint{
		ID:        uuid.NewString(),
		Lat:       lat,
		Lng:       lng,
		Label:     label,
		CreatedAt: time.Now().UTC(),
		Source:    SourceManual,
	})
}

// AddFix records a successful GPS fix.
func (l *Log) AddFix(fix gps.Fix, label string) (Waypoint, error) {
	accuracy := fix.Accuracy
	createdAt := fix.Time
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return l.append(Waypoint{
		ID:        uuid.NewString(),
		Lat:       fix.Latitude,
		Lng:       fix.Longitude,
		Label:     label,
		CreatedAt: createdAt.UTC(),
		Source:    SourceGPS,
		Accuracy:  &accuracy,
	})
}

func (l *Log) append(point Waypoint) (Waypoint, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.points = append(l.points, point)
	err := l.persistLocked()
	if err != nil {
		return Waypoint{}, err
	}
	return point, nil
}

// Rename changes a waypoint's label, the only mutation a waypoint
// supports.
func (l *Log) Rename(id string, label string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.points {
		if l.points[i].ID == id {
			l.points[i].Label = label
			return l.persistLocked()
		}
	}
	return errors.Errorf("no waypoint with id %s", id)
}

func (l *Log) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.points {
		if l.points[i].ID == id {
			l.points = append(l.points[:i], l.points[i+1:]...)
			return l.persistLocked()
		}
	}
	return errors.Errorf("no waypoint with id %s", id)
}

func (l *Log) DeleteAll() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.points = nil
	return l.persistLocked()
}

// Points snapshots the waypoints in recorded order.
func (l *Log) Points() []Waypoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Waypoint, len(l.points))
	copy(out, l.points)
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.points)
}

// Leg is one segment between consecutive waypoints.
type Leg struct {
	FromID   string  `json:"from_id"`
	ToID     string  `json:"to_id"`
	Distance float64 `json:"distance_m"`
	Bearing  float64 `json:"bearing_deg"`
}

// Legs computes the geodesic distance and initial bearing of every
// consecutive pair.
func (l *Log) Legs() []Leg {
	points := l.Points()
	if len(points) < 2 {
		return []Leg{}
	}
	legs := make([]Leg, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		a := points[i]
		b := points[i+1]
		legs[i] = Leg{
			FromID:   a.ID,
			ToID:     b.ID,
			Distance: geo.Distance(a.Lat, a.Lng, b.Lat, b.Lng),
			Bearing:  geo.Bearing(a.Lat, a.Lng, b.Lat, b.Lng) * geo.TO_DEGREES,
		}
	}
	return legs
}

// TotalDistance sums the great-circle leg distances in meters.
func (l *Log) TotalDistance() float64 {
	total := 0.0
	for _, leg := range l.Legs() {
		total += leg.Distance
	}
	return total
}
