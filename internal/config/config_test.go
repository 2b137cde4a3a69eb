package config

import (
	"os"
	"path/filepath"
	"testing"
)

// isolate points the loader at an empty temp home and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("SEIFLOW_HOME", "")
	t.Setenv("SEIFLOW_CONFIG", "")
	return tmpDir
}

func writeConfig(t *testing.T, home, body string) string {
	t.Helper()
	dir := filepath.Join(home, ConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	path := filepath.Join(dir, ConfigFile)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Layout.HorizontalSpacingBase != 150 {
		t.Errorf("expected horizontal spacing 150, got %v", cfg.Layout.HorizontalSpacingBase)
	}
	if cfg.Layout.VerticalLaneSpacing != 100 {
		t.Errorf("expected lane spacing 100, got %v", cfg.Layout.VerticalLaneSpacing)
	}
	if !cfg.Display.Summarized {
		t.Error("expected summarized rendering by default")
	}
	if cfg.Display.Format != FormatText {
		t.Errorf("expected text format, got %s", cfg.Display.Format)
	}
	if cfg.Kafka.Topic != "seiflow.case-events" {
		t.Errorf("unexpected default topic %s", cfg.Kafka.Topic)
	}
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Layout.NodeRadius != 20 {
		t.Errorf("expected node radius 20, got %v", cfg.Layout.NodeRadius)
	}
	if cfg.Store.DBPath != filepath.Join(home, ".seiflow", "cases.db") {
		t.Errorf("expected expanded db path, got %s", cfg.Store.DBPath)
	}
}

func TestLoadFromFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, `{
		"layout": {"horizontalSpacingBase": 200, "nodeRadius": -1},
		"display": {"summarized": false, "format": "DOT"}
	}`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Layout.HorizontalSpacingBase != 200 {
		t.Errorf("expected spacing 200 from file, got %v", cfg.Layout.HorizontalSpacingBase)
	}
	if cfg.Layout.NodeRadius != 20 {
		t.Errorf("expected invalid radius to fall back to 20, got %v", cfg.Layout.NodeRadius)
	}
	if cfg.Layout.VerticalLaneSpacing != 100 {
		t.Errorf("expected untouched lane spacing default, got %v", cfg.Layout.VerticalLaneSpacing)
	}
	if cfg.Display.Summarized {
		t.Error("expected summarized=false from file")
	}
	if cfg.Display.Format != FormatDOT {
		t.Errorf("expected normalized dot format, got %s", cfg.Display.Format)
	}
}

func TestEnvOverride(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, `{"kafka": {"topic": "from-file"}, "layout": {"verticalLaneSpacing": 70}}`)
	t.Setenv("SEIFLOW_KAFKA_TOPIC", "from-env")
	t.Setenv("SEIFLOW_LAYOUT_LANE_SPACING", "90")
	t.Setenv("SEIFLOW_DISPLAY_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Kafka.Topic != "from-env" {
		t.Errorf("expected env to win over file, got %s", cfg.Kafka.Topic)
	}
	if cfg.Layout.VerticalLaneSpacing != 90 {
		t.Errorf("expected lane spacing 90 from env, got %v", cfg.Layout.VerticalLaneSpacing)
	}
	if cfg.Display.Format != FormatJSON {
		t.Errorf("expected json format from env, got %s", cfg.Display.Format)
	}
}

func TestLoadInvalidJSONReturnsError(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, `{not json`)
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfigPathRespectsEnv(t *testing.T) {
	isolate(t)
	custom := filepath.Join(t.TempDir(), "custom.json")
	t.Setenv("SEIFLOW_CONFIG", custom)
	got, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath: %v", err)
	}
	if got != custom {
		t.Fatalf("expected %s, got %s", custom, got)
	}

	t.Setenv("SEIFLOW_CONFIG", "")
	altHome := t.TempDir()
	t.Setenv("SEIFLOW_HOME", altHome)
	got, err = ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath: %v", err)
	}
	if got != filepath.Join(altHome, ConfigDir, ConfigFile) {
		t.Fatalf("unexpected path %s", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	isolate(t)
	cfg := DefaultConfig()
	cfg.Kafka.Brokers = "k1:9092,k2:9092"
	cfg.Display.NoColor = true
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Kafka.Brokers != "k1:9092,k2:9092" || !loaded.Display.NoColor {
		t.Fatalf("unexpected round trip %+v", loaded)
	}
}

func TestLoadWithIncludeAndEnvSubstitution(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "kafka.json"), []byte(`{"kafka": {"brokers": "${TEST_SEIFLOW_BROKERS}", "topic": "base"}}`), 0o600); err != nil {
		t.Fatalf("write include: %v", err)
	}
	writeConfig(t, home, `{"$include": "kafka.json", "kafka": {"topic": "override"}}`)
	t.Setenv("TEST_SEIFLOW_BROKERS", "broker-a:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Kafka.Brokers != "broker-a:9092" {
		t.Errorf("expected substituted brokers, got %s", cfg.Kafka.Brokers)
	}
	if cfg.Kafka.Topic != "override" {
		t.Errorf("expected including file to win, got %s", cfg.Kafka.Topic)
	}
}

func TestLoadWithIncludeCycleReturnsError(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"$include": "config.json"}`), 0o600); err != nil {
		t.Fatalf("write include: %v", err)
	}
	writeConfig(t, home, `{"$include": ["a.json"]}`)
	if _, err := Load(); err == nil {
		t.Fatal("expected include cycle error")
	}
}

func TestParseIncludes(t *testing.T) {
	if got, err := parseIncludes("a.json"); err != nil || len(got) != 1 {
		t.Fatalf("unexpected %v, %v", got, err)
	}
	if got, err := parseIncludes([]any{"a.json", " ", "b.json"}); err != nil || len(got) != 2 {
		t.Fatalf("unexpected %v, %v", got, err)
	}
	if _, err := parseIncludes(42.0); err == nil {
		t.Fatal("expected error for non-string include")
	}
	if _, err := parseIncludes([]any{1.0}); err == nil {
		t.Fatal("expected error for non-string include entry")
	}
}

func TestLayoutConversion(t *testing.T) {
	l := DefaultConfig().Layout.Layout()
	if l.NodeRadius != 20 || l.InitialXOffset != 80 || l.InitialYOffset != 60 {
		t.Fatalf("unexpected layout %+v", l)
	}
}
