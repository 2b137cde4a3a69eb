package flowgraph

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sync"

	"github.com/seiflow/seiflow/internal/caselog"
)

// Memo caches Build results keyed by the value of their inputs. The
// fingerprint only selects a bucket; entries are returned only when
// their inputs are equal. Cached graphs are shared between callers and
// must be treated as read-only.
type Memo struct {
	mu         sync.Mutex
	entries    map[uint64][]memoEntry
	size       int
	maxEntries int
	hits       int
	hash       func([]caselog.ProcessedEvent, bool, Layout) uint64
}

type memoEntry struct {
	events     []caselog.ProcessedEvent
	summarized bool
	layout     Layout
	graph      Graph
}

func (e memoEntry) matches(events []caselog.ProcessedEvent, summarized bool, layout Layout) bool {
	if e.summarized != summarized || e.layout != layout || len(e.events) != len(events) {
		return false
	}
	for i := range events {
		if e.events[i] != events[i] {
			return false
		}
	}
	return true
}

// NewMemo creates a Memo holding at most maxEntries graphs. When full it
// starts over.
func NewMemo(maxEntries int) *Memo {
	if maxEntries <= 0 {
		maxEntries = 32
	}
	return &Memo{
		entries:    make(map[uint64][]memoEntry),
		maxEntries: maxEntries,
		hash:       fingerprint,
	}
}

// Build returns the cached graph for the inputs, building it on a miss.
func (m *Memo) Build(events []caselog.ProcessedEvent, summarized bool, layout Layout) Graph {
	key := m.hash(events, summarized, layout)

	m.mu.Lock()
	for _, e := range m.entries[key] {
		if e.matches(events, summarized, layout) {
			m.hits++
			m.mu.Unlock()
			return e.graph
		}
	}
	m.mu.Unlock()

	g := Build(events, summarized, layout)
	stored := make([]caselog.ProcessedEvent, len(events))
	copy(stored, events)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.size >= m.maxEntries {
		m.entries = make(map[uint64][]memoEntry)
		m.size = 0
	}
	m.entries[key] = append(m.entries[key], memoEntry{events: stored, summarized: summarized, layout: layout, graph: g})
	m.size++
	return g
}

// Hits returns how many builds were served from the cache.
func (m *Memo) Hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits
}

func fingerprint(events []caselog.ProcessedEvent, summarized bool, layout Layout) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write([]byte(s))
	}

	if summarized {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	writeFloat(layout.NodeRadius)
	writeFloat(layout.HorizontalSpacingBase)
	writeFloat(layout.VerticalLaneSpacing)
	writeFloat(layout.InitialXOffset)
	writeFloat(layout.InitialYOffset)

	for _, e := range events {
		writeString(e.ID)
		writeString(e.TaskType)
		writeString(e.Narrative)
		writeString(e.TimestampRaw)
		writeString(e.Unit.ID)
		writeString(e.Unit.ShortCode)
		writeString(e.Unit.Description)
		writeString(e.User.ID)
		writeString(e.User.ShortCode)
		writeString(e.User.Name)
		writeString(e.Summary)
		writeFloat(float64(e.GlobalSequence))
	}
	return h.Sum64()
}
