package flowgraph

import "github.com/seiflow/seiflow/internal/caselog"

// Build lays out events, which must already be normalized. With
// summarized set only lifecycle milestones are drawn; the other events
// are dropped, not merged. Build is pure: equal inputs give equal graphs.
func Build(events []caselog.ProcessedEvent, summarized bool, layout Layout) Graph {
	g := Graph{
		Nodes:       []Node{},
		Connections: []Connection{},
		Lanes:       []Lane{},
		Summarized:  summarized,
	}

	rendered := events
	if summarized {
		rendered = make([]caselog.ProcessedEvent, 0, len(events))
		for _, e := range events {
			if caselog.IsSignificant(e.Event) {
				rendered = append(rendered, e)
			}
		}
	}
	if len(rendered) == 0 {
		return g
	}

	// Lanes in first-seen order; the slice fixes the order, the map is
	// only a lookup.
	laneOf := make(map[string]int)
	for _, e := range rendered {
		if _, ok := laneOf[e.Unit.ID]; ok {
			continue
		}
		idx := len(g.Lanes)
		laneOf[e.Unit.ID] = idx
		g.Lanes = append(g.Lanes, Lane{
			Index:       idx,
			UnitID:      e.Unit.ID,
			ShortCode:   e.Unit.ShortCode,
			Description: e.Unit.Description,
			Y:           layout.InitialYOffset + float64(idx)*layout.VerticalLaneSpacing,
		})
	}

	g.Nodes = make([]Node, len(rendered))
	for i, e := range rendered {
		lane := laneOf[e.Unit.ID]
		g.Nodes[i] = Node{
			ProcessedEvent: e,
			Index:          i,
			Lane:           lane,
			X:              layout.InitialXOffset + float64(i)*layout.HorizontalSpacingBase,
			Y:              g.Lanes[lane].Y,
			Milestone:      caselog.MilestoneOf(e.TaskType),
		}
	}

	g.Connections = make([]Connection, 0, len(rendered)-1)
	for i := 1; i < len(g.Nodes); i++ {
		prev, cur := g.Nodes[i-1], g.Nodes[i]
		g.Connections = append(g.Connections, Connection{
			SourceEventID: prev.ID,
			TargetEventID: cur.ID,
			SourceUnitID:  prev.Unit.ID,
			TargetUnitID:  cur.Unit.ID,
		})
	}

	last := g.Nodes[len(g.Nodes)-1]
	g.Width = last.X + layout.NodeRadius + layout.InitialXOffset
	g.Height = g.Lanes[len(g.Lanes)-1].Y + layout.NodeRadius + layout.InitialYOffset
	return g
}

// NodeByID returns the node rendering event id.
func (g Graph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
