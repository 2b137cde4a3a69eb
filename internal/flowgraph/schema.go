// Package flowgraph lays out a case log as a process-flow diagram: one
// lane per unit, nodes placed left to right in chronological order and a
// single chain of connections between consecutive nodes.
package flowgraph

import "github.com/seiflow/seiflow/internal/caselog"

// Layout holds the diagram geometry, in pixels.
type Layout struct {
	NodeRadius            float64 `json:"nodeRadius"`
	HorizontalSpacingBase float64 `json:"horizontalSpacingBase"`
	VerticalLaneSpacing   float64 `json:"verticalLaneSpacing"`
	InitialXOffset        float64 `json:"initialXOffset"`
	InitialYOffset        float64 `json:"initialYOffset"`
}

// DefaultLayout returns the geometry used when none is configured.
func DefaultLayout() Layout {
	return Layout{
		NodeRadius:            20,
		HorizontalSpacingBase: 150,
		VerticalLaneSpacing:   100,
		InitialXOffset:        80,
		InitialYOffset:        60,
	}
}

// Node is a rendered event with its position.
type Node struct {
	caselog.ProcessedEvent
	Index     int               `json:"index"` // dense position in render order
	Lane      int               `json:"lane"`
	X         float64           `json:"x"`
	Y         float64           `json:"y"`
	Milestone caselog.Milestone `json:"milestone,omitempty"`
}

// Connection is a directed edge between two consecutive rendered events.
type Connection struct {
	SourceEventID string `json:"sourceEventId"`
	TargetEventID string `json:"targetEventId"`
	SourceUnitID  string `json:"sourceUnitId"`
	TargetUnitID  string `json:"targetUnitId"`
}

// HandOff reports whether the connection crosses lanes.
func (c Connection) HandOff() bool {
	return c.SourceUnitID != c.TargetUnitID
}

// Lane is the track of one unit.
type Lane struct {
	Index       int     `json:"index"`
	UnitID      string  `json:"unitId"`
	ShortCode   string  `json:"shortCode"`
	Description string  `json:"description"`
	Y           float64 `json:"y"`
}

// Graph is the full diagram handed to the rendering layer.
type Graph struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
	Lanes       []Lane       `json:"lanes"`
	Summarized  bool         `json:"summarized"`
	Width       float64      `json:"width"`
	Height      float64      `json:"height"`
}
