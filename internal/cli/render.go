package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/seiflow/seiflow/internal/caselog"
	"github.com/seiflow/seiflow/internal/flowgraph"
)

var (
	headerColor    = color.New(color.FgCyan, color.Bold)
	milestoneColor = color.New(color.FgYellow)
	handOffColor   = color.New(color.FgRed)
	dimColor       = color.New(color.Faint)
)

func renderGraphText(w io.Writer, caseID string, g flowgraph.Graph) {
	mode := "full"
	if g.Summarized {
		mode = "summarized"
	}
	headerColor.Fprintf(w, "Case %s (%s)\n", caseID, mode)
	fmt.Fprintf(w, "Nodes: %d  Connections: %d  Lanes: %d\n", len(g.Nodes), len(g.Connections), len(g.Lanes))
	if len(g.Nodes) == 0 {
		fmt.Fprintln(w, "No events to draw.")
		return
	}

	fmt.Fprintln(w, "Lanes:")
	for _, l := range g.Lanes {
		fmt.Fprintf(w, "  %d. %s %s\n", l.Index, laneName(l), dimColor.Sprint(l.Description))
	}

	fmt.Fprintln(w, "Flow:")
	for i, n := range g.Nodes {
		fmt.Fprintf(w, "  #%-3d %-12s %-16s %s %s\n",
			n.GlobalSequence, laneName(g.Lanes[n.Lane]), formatTimestamp(n.Timestamp), describeEvent(n.Event), dimColor.Sprintf("(%.0f,%.0f)", n.X, n.Y))
		if n.Summary != "" {
			fmt.Fprintf(w, "        %s\n", n.Summary)
		}
		if i < len(g.Connections) && g.Connections[i].HandOff() {
			next := g.Nodes[i+1]
			fmt.Fprintf(w, "        %s\n", handOffColor.Sprintf("hand-off %s -> %s", laneName(g.Lanes[n.Lane]), laneName(g.Lanes[next.Lane])))
		}
	}
}

func renderTimelineText(w io.Writer, caseID string, entries []caselog.ProcessedEvent) {
	headerColor.Fprintf(w, "Timeline of %s\n", caseID)
	if len(entries) == 0 {
		fmt.Fprintln(w, "No lifecycle milestones recorded.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "  %-16s %-12s %s\n", formatTimestamp(e.Timestamp), e.Unit.ShortCode, describeEvent(e.Event))
	}
}

func renderCreationText(w io.Writer, s *caselog.CreationSummary) {
	if s == nil {
		fmt.Fprintln(w, "No events recorded.")
		return
	}
	headerColor.Fprintln(w, "Process creation")
	fmt.Fprintf(w, "  Unit:    %s\n", s.CreatorUnit)
	fmt.Fprintf(w, "  User:    %s (%s)\n", s.CreatorUser, s.CreatorUserCode)
	fmt.Fprintf(w, "  Created: %s\n", formatTimestamp(s.CreationDate))
	if s.TimeSinceCreation != "" {
		fmt.Fprintf(w, "  Age:     %s\n", s.TimeSinceCreation)
	}
}

func describeEvent(e caselog.Event) string {
	if m := caselog.MilestoneOf(e.TaskType); m != caselog.MilestoneNone {
		return milestoneColor.Sprint(m.Label())
	}
	if e.Narrative != "" {
		return e.Narrative
	}
	return e.TaskType
}

func laneName(l flowgraph.Lane) string {
	if l.ShortCode != "" {
		return l.ShortCode
	}
	return l.UnitID
}

func formatTimestamp(t caselog.Timestamp) string {
	if !t.Valid {
		return "(invalid date)"
	}
	return t.Time.Format("02/01/2006 15:04")
}
