package render

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"fieldmap.dev/fieldmapd/basemap"
)

// roleSpec maps a semantic layer role to the keyword substrings matched
// (case-insensitive) against the archive's embedded layer names, and to
// the kind of style layer it produces.
type roleSpec struct {
	role     string
	kind     string
	keywords []string
}

var roleSpecs = []roleSpec{
	{role: "land", kind: "fill", keywords: []string{"land", "earth", "natural"}},
	{role: "water", kind: "fill", keywords: []string{"water", "ocean", "lake"}},
	{role: "roads", kind: "line", keywords: []string{"road", "transportation", "street", "highway"}},
	{role: "buildings", kind: "fill", keywords: []string{"building"}},
	{role: "boundaries", kind: "line", keywords: []string{"boundar", "admin"}},
	{role: "labels", kind: "symbol", keywords: []string{"label", "place", "poi"}},
}

// Roles lists the semantic roles in binding order.
func Roles() []string {
	roles := make([]string, len(roleSpecs))
	for i, spec := range roleSpecs {
		roles[i] = spec.role
	}
	return roles
}

// StyleLayer is one renderable layer bound to a named layer inside the
// archive. Visibility toggles touch only Layout["visibility"], so paint
// state survives an off/on cycle untouched.
type StyleLayer struct {
	ID          string
	Role        string
	Kind        string
	SourceLayer string
	Paint       map[string]string
	Layout      map[string]string
}

type Marker struct {
	ID    string
	Lat   float64
	Lng   float64
	Label string
}

// Map is the single live map instance: one bound vector source, the
// style layers derived from it, and the waypoint markers. Rebinds are
// serialized; a rebind fully completes before the next begins.
type Map struct {
	mu         sync.Mutex
	desc       basemap.Descriptor
	bound      bool
	generation int
	layerIDs   []string
	layers     map[string]*StyleLayer
	roleLayers map[string]string
	markers    map[string]*Marker
	theme      Theme
	visibility map[string]bool
}

func NewMap() *Map {
	m := &Map{
		layers:     map[string]*StyleLayer{},
		roleLayers: map[string]string{},
		markers:    map[string]*Marker{},
		visibility: map[string]bool{},
		theme:      LightTheme(),
	}
	for _, spec := range roleSpecs {
		m.visibility[spec.role] = true
	}
	return m
}

// Rebind tears down and rebuilds the vector source and derived layers
// for a new descriptor. An unchanged descriptor is a no-op apart from
// re-applying theme paint, so redundant calls are safe.
func (m *Map) Rebind(desc basemap.Descriptor, layerNames []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bound && desc == m.desc {
		m.applyThemeLocked()
		return
	}

	// remove old layers before the old source
	for _, id := range m.layerIDs {
		delete(m.layers, id)
	}
	m.layerIDs = m.layerIDs[:0]
	m.roleLayers = map[string]string{}
	m.bound = false

	m.desc = desc
	m.bound = true
	m.generation += 1

	for _, spec := range roleSpecs {
		name, ok := matchLayer(layerNames, spec.keywords)
		if !ok {
			// roles with no archive counterpart are simply absent
			continue
		}
		id := fmt.Sprintf("%s-%d", spec.role, m.generation)
		m.layers[id] = &StyleLayer{
			ID:          id,
			Role:        spec.role,
			Kind:        spec.kind,
			SourceLayer: name,
			Paint:       map[string]string{},
			Layout:      map[string]string{},
		}
		m.layerIDs = append(m.layerIDs, id)
		m.roleLayers[spec.role] = id
	}

	m.applyThemeLocked()
	m.applyVisibilityLocked()
	slog.Debug("basemap rebound", "source", desc.SourceURL, "handle", desc.Handle, "layers", len(m.layerIDs))
}

func matchLayer(names []string, keywords []string) (string, bool) {
	for _, keyword := range keywords {
		for _, name := range names {
			if strings.Contains(strings.ToLower(name), keyword) {
				return name, true
			}
		}
	}
	return "", false
}

// Descriptor returns the currently bound descriptor.
func (m *Map) Descriptor() (basemap.Descriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.desc, m.bound
}

// LayerIDs snapshots the tracked style layer ids in add order.
func (m *Map) LayerIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.layerIDs))
	copy(ids, m.layerIDs)
	return ids
}

// RoleLayer resolves a semantic role to its generated layer id.
func (m *Map) RoleLayer(role string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.roleLayers[role]
	return id, ok
}

// Layer returns a copy of a style layer's current state.
func (m *Map) Layer(id string) (StyleLayer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	layer, ok := m.layers[id]
	if !ok {
		return StyleLayer{}, false
	}
	return copyLayer(layer), true
}

func copyLayer(layer *StyleLayer) StyleLayer {
	out := *layer
	out.Paint = map[string]string{}
	for k, v := range layer.Paint {
		out.Paint[k] = v
	}
	out.Layout = map[string]string{}
	for k, v := range layer.Layout {
		out.Layout[k] = v
	}
	return out
}

// SetRoleVisibility toggles one role's layer without touching any other
// layer state. Safe to call redundantly mid-rebind; the setting is kept
// and re-applied to whatever layers the next rebind adds.
func (m *Map) SetRoleVisibility(role string, visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visibility[role] = visible
	m.applyVisibilityLocked()
}

func (m *Map) applyVisibilityLocked() {
	for _, id := range m.layerIDs {
		layer := m.layers[id]
		if m.visibility[layer.Role] {
			layer.Layout["visibility"] = "visible"
		} else {
			layer.Layout["visibility"] = "none"
		}
	}
}

// SetTheme re-colors all bound layers. Idempotent.
func (m *Map) SetTheme(theme Theme) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.theme = theme
	m.applyThemeLocked()
}

func (m *Map) applyThemeLocked() {
	for _, id := range m.layerIDs {
		layer := m.layers[id]
		color, ok := m.theme.Colors[layer.Role]
		if !ok {
			continue
		}
		switch layer.Kind {
		case "fill":
			layer.Paint["fill-color"] = color
		case "line":
			layer.Paint["line-color"] = color
		case "symbol":
			layer.Paint["text-color"] = color
		}
	}
}

// SyncMarkers reconciles the marker set against the waypoint list by
// id: new ids are added, existing ids updated in place, missing ids
// removed. Markers are never rebuilt wholesale and are independent of
// basemap rebinds.
func (m *Map) SyncMarkers(markers []Marker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := map[string]bool{}
	for _, marker := range markers {
		seen[marker.ID] = true
		if existing, ok := m.markers[marker.ID]; ok {
			existing.Lat = marker.Lat
			existing.Lng = marker.Lng
			existing.Label = marker.Label
			continue
		}
		added := marker
		m.markers[marker.ID] = &added
	}
	for id := range m.markers {
		if !seen[id] {
			delete(m.markers, id)
		}
	}
}

// Markers returns the current marker count.
func (m *Map) Markers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.markers)
}

// Marker returns a marker by waypoint id.
func (m *Map) Marker(id string) (Marker, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	marker, ok := m.markers[id]
	if !ok {
		return Marker{}, false
	}
	return *marker, true
}
