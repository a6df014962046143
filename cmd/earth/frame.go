package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"ereea.space/internal/observerproto"
	"ereea.space/internal/sim/view"
)

// knowledgeURL maps the observer websocket url onto the knowledge endpoint
// of the same server.
func knowledgeURL(wsURL string, robotID uint64) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/admin/v1/observer/knowledge"
	u.RawQuery = url.Values{"id": {strconv.FormatUint(robotID, 10)}}.Encode()
	return u.String(), nil
}

func frame(st *observerproto.StateMsg, mask [][]bool, robotID uint64) string {
	var b strings.Builder
	s := st.Station
	fmt.Fprintf(&b, "tick %d  %s  explored %.1f%%  robots %d  energy %d  minerals %d  science %d  conflicts %d\n",
		st.Iteration, st.Mission, s.ExplorationPercentage, s.RobotCount,
		s.EnergyReserves, s.CollectedMinerals, s.CollectedScientificData, s.ConflictCount)
	if robotID != 0 {
		if r, ok := st.Robot(robotID); ok {
			fmt.Fprintf(&b, "viewing robot %d (%s, %s) knows %.1f%%\n", r.ID, r.RobotType, r.Mode, r.ExplorationPercentage)
		} else {
			fmt.Fprintf(&b, "robot %d not in fleet\n", robotID)
		}
	}
	b.WriteString(view.Render(st, mask))
	for _, r := range st.Robots {
		fmt.Fprintf(&b, "#%-3d %-16s %-10s (%2d,%2d) energy %5.1f/%-5.1f cargo m%d s%d e%d\n",
			r.ID, r.RobotType, r.Mode, r.X, r.Y, r.Energy, r.MaxEnergy, r.Minerals, r.ScientificData, r.EnergyCells)
	}
	if s.StatusMessage != "" {
		b.WriteString(s.StatusMessage)
		b.WriteByte('\n')
	}
	return b.String()
}
