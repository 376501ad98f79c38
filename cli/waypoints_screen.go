package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type waypointsModel struct{}

func getWaypointsModel() waypointsModel {
	return waypointsModel{}
}

func (m waypointsModel) Update(msg tea.Msg, mm *uiModel) (waypointsModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if keyMsg.String() == "esc" {
		mm.state = showMenu
	}
	return m, nil
}

func (m waypointsModel) View(mm *uiModel) string {
	points := mm.comps.log.Points()
	if len(points) == 0 {
		return docStyle.Render("Waypoints\n\nno waypoints recorded\n\n(esc back)\n")
	}

	var b strings.Builder
	b.WriteString("Waypoints\n\n")
	for _, point := range points {
		label := point.Label
		if label == "" {
			label = "(unnamed)"
		}
		fmt.Fprintf(&b, "%.6f, %.6f  %-6s  %s\n", point.Lat, point.Lng, point.Source, label)
	}
	b.WriteString("\n")
	for _, leg := range mm.comps.log.Legs() {
		fmt.Fprintf(&b, "leg %.1f m at %.0f deg\n", leg.Distance, leg.Bearing)
	}
	fmt.Fprintf(&b, "\ntotal: %.1f m over %d waypoints\n\n(esc back)\n", mm.comps.log.TotalDistance(), len(points))
	return docStyle.Render(b.String())
}
