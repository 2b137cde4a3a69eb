package flowgraph

import (
	"fmt"
	"io"
	"strings"
)

// WriteDOT renders g as a Graphviz digraph. Lanes become clusters, node
// positions are pinned (use neato -n), and hand-offs between units are
// drawn in red.
func WriteDOT(w io.Writer, g Graph) error {
	var sb strings.Builder

	sb.WriteString("digraph ProcessFlow {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  fontname=\"Helvetica\";\n")
	sb.WriteString("  node [fontname=\"Helvetica\" fontsize=10 shape=circle];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\" fontsize=8];\n\n")

	for _, lane := range g.Lanes {
		sb.WriteString(fmt.Sprintf("  subgraph cluster_lane_%d {\n", lane.Index))
		sb.WriteString(fmt.Sprintf("    label=\"%s\";\n", escapeDOTLabel(laneLabel(lane))))
		sb.WriteString("    style=dashed;\n")
		sb.WriteString("    color=grey;\n")
		for _, n := range g.Nodes {
			if n.Lane != lane.Index {
				continue
			}
			fill := "white"
			if n.Milestone != "" {
				fill = "lightyellow"
			}
			sb.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\" pos=\"%.0f,%.0f!\" style=filled fillcolor=%s];\n",
				escapeDOTLabel(n.ID), escapeDOTLabel(nodeLabel(n)), n.X, -n.Y, fill))
		}
		sb.WriteString("  }\n\n")
	}

	for _, c := range g.Connections {
		attrs := ""
		if c.HandOff() {
			attrs = " [color=red penwidth=2]"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\"%s;\n",
			escapeDOTLabel(c.SourceEventID), escapeDOTLabel(c.TargetEventID), attrs))
	}
	sb.WriteString("}\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func laneLabel(l Lane) string {
	if l.ShortCode != "" {
		return l.ShortCode
	}
	return l.UnitID
}

func nodeLabel(n Node) string {
	label := n.TaskType
	if n.Milestone != "" {
		label = n.Milestone.Label()
	}
	if n.Timestamp.Valid {
		label += "\\n" + n.Timestamp.Time.Format("02/01/2006")
	}
	return label
}

func escapeDOTLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return strings.ReplaceAll(s, "\n", " ")
}
