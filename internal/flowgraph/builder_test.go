package flowgraph

import (
	"bytes"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/seiflow/seiflow/internal/caselog"
)

func scenarioEvents() []caselog.ProcessedEvent {
	unitA := caselog.Unit{ID: "100", ShortCode: "SEAD"}
	unitB := caselog.Unit{ID: "200", ShortCode: "PGE"}
	return caselog.Normalize([]caselog.Event{
		{ID: "1", TaskType: caselog.TaskCreation, TimestampRaw: "01/01/2024 09:00:00", Unit: unitA},
		{ID: "2", TaskType: "ASSINATURA-DOCUMENTO", TimestampRaw: "01/01/2024 10:00:00", Unit: unitA},
		{ID: "3", TaskType: caselog.TaskSent, TimestampRaw: "02/01/2024 09:00:00", Unit: unitA},
		{ID: "4", TaskType: caselog.TaskReceived, TimestampRaw: "02/01/2024 11:00:00", Unit: unitB},
		{ID: "5", TaskType: caselog.TaskClosure, TimestampRaw: "03/01/2024 09:00:00", Unit: unitB},
	})
}

func TestBuildSummarizedScenario(t *testing.T) {
	g := Build(scenarioEvents(), true, DefaultLayout())

	if len(g.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(g.Nodes))
	}
	if len(g.Connections) != 3 {
		t.Fatalf("expected 3 connections, got %d", len(g.Connections))
	}
	if _, ok := g.NodeByID("2"); ok {
		t.Fatal("expected noise event to be dropped")
	}
	laneOf := map[string]int{}
	for _, n := range g.Nodes {
		laneOf[n.Unit.ID] = n.Lane
	}
	if laneOf["100"] != 0 || laneOf["200"] != 1 {
		t.Fatalf("expected lanes A=0 B=1, got %v", laneOf)
	}
	if len(g.Lanes) != 2 || g.Lanes[0].ShortCode != "SEAD" || g.Lanes[1].ShortCode != "PGE" {
		t.Fatalf("unexpected lanes %+v", g.Lanes)
	}

	handOffs := 0
	for _, c := range g.Connections {
		if c.HandOff() {
			handOffs++
			if c.SourceEventID != "3" || c.TargetEventID != "4" {
				t.Fatalf("unexpected hand-off %+v", c)
			}
		}
	}
	if handOffs != 1 {
		t.Fatalf("expected exactly one hand-off, got %d", handOffs)
	}
}

func TestBuildFullKeepsNoise(t *testing.T) {
	g := Build(scenarioEvents(), false, DefaultLayout())
	if len(g.Nodes) != 5 || len(g.Connections) != 4 {
		t.Fatalf("expected 5 nodes / 4 connections, got %d / %d", len(g.Nodes), len(g.Connections))
	}
	if g.Nodes[1].Milestone != caselog.MilestoneNone {
		t.Fatalf("expected noise node without milestone, got %q", g.Nodes[1].Milestone)
	}
}

func TestBuildPositions(t *testing.T) {
	layout := Layout{NodeRadius: 10, HorizontalSpacingBase: 100, VerticalLaneSpacing: 50, InitialXOffset: 30, InitialYOffset: 20}
	g := Build(scenarioEvents(), true, layout)

	for i, n := range g.Nodes {
		wantX := 30 + float64(i)*100
		if n.X != wantX {
			t.Fatalf("node %d: expected x=%v, got %v", i, wantX, n.X)
		}
		wantY := 20 + float64(n.Lane)*50
		if n.Y != wantY {
			t.Fatalf("node %d: expected y=%v, got %v", i, wantY, n.Y)
		}
		if i > 0 && n.X <= g.Nodes[i-1].X {
			t.Fatalf("x does not strictly increase at %d", i)
		}
		if n.Index != i {
			t.Fatalf("expected dense index %d, got %d", i, n.Index)
		}
	}
	if g.Width != 30+300+10+30 {
		t.Fatalf("unexpected width %v", g.Width)
	}
	if g.Height != 20+50+10+20 {
		t.Fatalf("unexpected height %v", g.Height)
	}
}

func TestBuildSingleChain(t *testing.T) {
	for _, summarized := range []bool{true, false} {
		g := Build(scenarioEvents(), summarized, DefaultLayout())
		if len(g.Connections) != len(g.Nodes)-1 {
			t.Fatalf("expected |connections| = |nodes|-1, got %d / %d", len(g.Connections), len(g.Nodes))
		}
		rendered := map[string]bool{}
		for _, n := range g.Nodes {
			rendered[n.ID] = true
		}
		asSource := map[string]int{}
		asTarget := map[string]int{}
		for i, c := range g.Connections {
			if !rendered[c.SourceEventID] || !rendered[c.TargetEventID] {
				t.Fatalf("connection %d references unrendered event: %+v", i, c)
			}
			if c.SourceEventID != g.Nodes[i].ID || c.TargetEventID != g.Nodes[i+1].ID {
				t.Fatalf("connection %d is not between consecutive nodes", i)
			}
			asSource[c.SourceEventID]++
			asTarget[c.TargetEventID]++
		}
		for id, n := range asSource {
			if n > 1 {
				t.Fatalf("event %s is the source of %d edges", id, n)
			}
		}
		for id, n := range asTarget {
			if n > 1 {
				t.Fatalf("event %s is the target of %d edges", id, n)
			}
		}
	}
}

func TestBuildEdgeCases(t *testing.T) {
	g := Build(nil, false, DefaultLayout())
	if len(g.Nodes) != 0 || len(g.Connections) != 0 || len(g.Lanes) != 0 {
		t.Fatalf("expected empty graph, got %+v", g)
	}

	single := caselog.Normalize([]caselog.Event{{ID: "only", TaskType: "X", Unit: caselog.Unit{ID: "u"}}})
	g = Build(single, false, DefaultLayout())
	if len(g.Nodes) != 1 || len(g.Connections) != 0 {
		t.Fatalf("expected one node and no connections, got %d / %d", len(g.Nodes), len(g.Connections))
	}

	g = Build(single, true, DefaultLayout())
	if len(g.Nodes) != 0 {
		t.Fatalf("expected noise-only log to summarize to nothing, got %d nodes", len(g.Nodes))
	}
}

func TestBuildIdempotent(t *testing.T) {
	a := Build(scenarioEvents(), true, DefaultLayout())
	b := Build(scenarioEvents(), true, DefaultLayout())
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical graphs for identical inputs")
	}
}

func TestMemo(t *testing.T) {
	m := NewMemo(4)
	events := scenarioEvents()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := m.Build(events, true, DefaultLayout())
			if len(g.Nodes) != 4 {
				t.Errorf("expected 4 nodes, got %d", len(g.Nodes))
			}
		}()
	}
	wg.Wait()

	before := m.Hits()
	m.Build(scenarioEvents(), true, DefaultLayout())
	if m.Hits() != before+1 {
		t.Fatalf("expected a cache hit for equal inputs")
	}
	full := m.Build(events, false, DefaultLayout())
	if len(full.Nodes) != 5 {
		t.Fatalf("expected summarized flag to be part of the key, got %d nodes", len(full.Nodes))
	}
}

func TestMemoCollidingFingerprints(t *testing.T) {
	m := NewMemo(4)
	m.hash = func([]caselog.ProcessedEvent, bool, Layout) uint64 { return 7 }

	first := m.Build(scenarioEvents(), true, DefaultLayout())
	other := caselog.Normalize([]caselog.Event{
		{ID: "x", TaskType: caselog.TaskCreation, TimestampRaw: "05/05/2024 09:00:00", Unit: caselog.Unit{ID: "900"}},
	})
	second := m.Build(other, true, DefaultLayout())

	if m.Hits() != 0 {
		t.Fatalf("expected colliding inputs to miss, got %d hits", m.Hits())
	}
	if len(first.Nodes) != 4 || len(second.Nodes) != 1 || second.Nodes[0].ID != "x" {
		t.Fatalf("colliding inputs shared a graph: %d and %d nodes", len(first.Nodes), len(second.Nodes))
	}
	again := m.Build(other, true, DefaultLayout())
	if m.Hits() != 1 || !reflect.DeepEqual(again, second) {
		t.Fatalf("expected a hit for the second input, hits=%d", m.Hits())
	}
}

func TestWriteDOT(t *testing.T) {
	g := Build(scenarioEvents(), true, DefaultLayout())
	var buf bytes.Buffer
	if err := WriteDOT(&buf, g); err != nil {
		t.Fatalf("write dot: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"digraph ProcessFlow {",
		"subgraph cluster_lane_0",
		"label=\"SEAD\"",
		"label=\"PGE\"",
		"\"3\" -> \"4\" [color=red penwidth=2];",
		"\"1\" -> \"3\";",
		"Process created\\n01/01/2024",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected DOT output to contain %q\n%s", want, out)
		}
	}
}
