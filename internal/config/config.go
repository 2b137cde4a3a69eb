// Package config provides configuration types and loading for seiflow.
package config

import "github.com/seiflow/seiflow/internal/flowgraph"

// Config is the root configuration struct.
// Top-level groups: Layout, Display, Store, Kafka.
type Config struct {
	Layout  LayoutConfig  `json:"layout"`
	Display DisplayConfig `json:"display"`
	Store   StoreConfig   `json:"store"`
	Kafka   KafkaConfig   `json:"kafka"`
}

// ---------------------------------------------------------------------------
// Layout – diagram geometry
// ---------------------------------------------------------------------------

// LayoutConfig groups the flow diagram geometry, in pixels.
type LayoutConfig struct {
	NodeRadius            float64 `json:"nodeRadius" envconfig:"NODE_RADIUS"`
	HorizontalSpacingBase float64 `json:"horizontalSpacingBase" envconfig:"HORIZONTAL_SPACING"`
	VerticalLaneSpacing   float64 `json:"verticalLaneSpacing" envconfig:"LANE_SPACING"`
	InitialXOffset        float64 `json:"initialXOffset" envconfig:"X_OFFSET"`
	InitialYOffset        float64 `json:"initialYOffset" envconfig:"Y_OFFSET"`
}

// Layout converts the config group into the builder's geometry.
func (c LayoutConfig) Layout() flowgraph.Layout {
	return flowgraph.Layout{
		NodeRadius:            c.NodeRadius,
		HorizontalSpacingBase: c.HorizontalSpacingBase,
		VerticalLaneSpacing:   c.VerticalLaneSpacing,
		InitialXOffset:        c.InitialXOffset,
		InitialYOffset:        c.InitialYOffset,
	}
}

// ---------------------------------------------------------------------------
// Display – CLI rendering defaults
// ---------------------------------------------------------------------------

// DisplayConfig groups rendering defaults for the CLI.
type DisplayConfig struct {
	Summarized bool   `json:"summarized" envconfig:"SUMMARIZED"`
	Format     string `json:"format" envconfig:"FORMAT"` // text, json, dot
	NoColor    bool   `json:"noColor" envconfig:"MONOCHROME"`
}

// ---------------------------------------------------------------------------
// Store – local case cache
// ---------------------------------------------------------------------------

// StoreConfig configures the SQLite case cache.
type StoreConfig struct {
	DBPath string `json:"dbPath" envconfig:"DB_PATH"`
}

// ---------------------------------------------------------------------------
// Kafka – streaming ingest
// ---------------------------------------------------------------------------

// KafkaConfig configures the ingest consumer.
type KafkaConfig struct {
	Brokers       string `json:"brokers" envconfig:"BROKERS"` // comma separated
	Topic         string `json:"topic" envconfig:"TOPIC"`
	ConsumerGroup string `json:"consumerGroup" envconfig:"CONSUMER_GROUP"`
}

// Output formats accepted by Display.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	layout := flowgraph.DefaultLayout()
	return &Config{
		Layout: LayoutConfig{
			NodeRadius:            layout.NodeRadius,
			HorizontalSpacingBase: layout.HorizontalSpacingBase,
			VerticalLaneSpacing:   layout.VerticalLaneSpacing,
			InitialXOffset:        layout.InitialXOffset,
			InitialYOffset:        layout.InitialYOffset,
		},
		Display: DisplayConfig{
			Summarized: true,
			Format:     FormatText,
		},
		Store: StoreConfig{
			DBPath: "~/.seiflow/cases.db",
		},
		Kafka: KafkaConfig{
			Brokers:       "localhost:9092",
			Topic:         "seiflow.case-events",
			ConsumerGroup: "seiflow-ingest",
		},
	}
}
