package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".seiflow"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SEIFLOW"
)

// ConfigPath returns the path to the config file.
// SEIFLOW_CONFIG wins over SEIFLOW_HOME, which wins over $HOME.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("SEIFLOW_CONFIG")); explicit != "" {
		return expandHome(explicit)
	}
	home, err := resolveHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

func resolveHomeDir() (string, error) {
	if h := strings.TrimSpace(os.Getenv("SEIFLOW_HOME")); h != "" {
		return expandHome(h)
	}
	return os.UserHomeDir()
}

func expandHome(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	base, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, p[1:]), nil
}

// Load loads the configuration from file and environment variables.
// Priority: environment > file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil // Use defaults if we can't find config path
	}

	data, err := loadResolvedConfig(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	// If file doesn't exist, continue with defaults

	// Override with environment variables for each group
	if err := envconfig.Process(EnvPrefix+"_LAYOUT", &cfg.Layout); err != nil {
		return nil, fmt.Errorf("layout env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix+"_DISPLAY", &cfg.Display); err != nil {
		return nil, fmt.Errorf("display env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix+"_STORE", &cfg.Store); err != nil {
		return nil, fmt.Errorf("store env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix+"_KAFKA", &cfg.Kafka); err != nil {
		return nil, fmt.Errorf("kafka env: %w", err)
	}

	normalize(cfg)
	return cfg, nil
}

// normalize replaces unusable values with their defaults.
func normalize(cfg *Config) {
	def := DefaultConfig()

	if cfg.Layout.NodeRadius <= 0 {
		cfg.Layout.NodeRadius = def.Layout.NodeRadius
	}
	if cfg.Layout.HorizontalSpacingBase <= 0 {
		cfg.Layout.HorizontalSpacingBase = def.Layout.HorizontalSpacingBase
	}
	if cfg.Layout.VerticalLaneSpacing <= 0 {
		cfg.Layout.VerticalLaneSpacing = def.Layout.VerticalLaneSpacing
	}
	if cfg.Layout.InitialXOffset < 0 {
		cfg.Layout.InitialXOffset = def.Layout.InitialXOffset
	}
	if cfg.Layout.InitialYOffset < 0 {
		cfg.Layout.InitialYOffset = def.Layout.InitialYOffset
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Display.Format)) {
	case FormatJSON, FormatDOT, FormatText:
		cfg.Display.Format = strings.ToLower(strings.TrimSpace(cfg.Display.Format))
	default:
		cfg.Display.Format = FormatText
	}

	if strings.TrimSpace(cfg.Store.DBPath) == "" {
		cfg.Store.DBPath = def.Store.DBPath
	}
	if p, err := expandHome(cfg.Store.DBPath); err == nil {
		cfg.Store.DBPath = p
	}

	if strings.TrimSpace(cfg.Kafka.ConsumerGroup) == "" {
		cfg.Kafka.ConsumerGroup = def.Kafka.ConsumerGroup
	}
}

// Save writes the configuration to the config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// EnsureDir ensures a directory exists with proper permissions.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// loadResolvedConfig reads path, applies "$include" files (earlier
// includes first, the including file last) and substitutes ${VAR} tokens.
func loadResolvedConfig(path string) ([]byte, error) {
	obj, err := loadConfigObject(path, map[string]struct{}{})
	if err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

func loadConfigObject(path string, visited map[string]struct{}) (map[string]any, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, seen := visited[absPath]; seen {
		return nil, fmt.Errorf("config include cycle detected at %s", absPath)
	}
	visited[absPath] = struct{}{}
	defer delete(visited, absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", absPath, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	merged := map[string]any{}
	if includeRaw, ok := raw["$include"]; ok {
		includeFiles, err := parseIncludes(includeRaw)
		if err != nil {
			return nil, err
		}
		baseDir := filepath.Dir(absPath)
		for _, includePath := range includeFiles {
			if !filepath.IsAbs(includePath) {
				includePath = filepath.Join(baseDir, includePath)
			}
			child, err := loadConfigObject(includePath, visited)
			if err != nil {
				return nil, err
			}
			deepMerge(merged, child)
		}
	}
	delete(raw, "$include")
	substituteEnvValues(raw)
	deepMerge(merged, raw)
	return merged, nil
}

func parseIncludes(v any) ([]string, error) {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		return []string{t}, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("$include entries must be strings")
			}
			if strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("$include must be a string or array of strings")
	}
}

func deepMerge(dst, src map[string]any) {
	for key, val := range src {
		srcMap, ok := val.(map[string]any)
		if !ok {
			dst[key] = val
			continue
		}
		dstMap, ok := dst[key].(map[string]any)
		if !ok {
			dstMap = map[string]any{}
			dst[key] = dstMap
		}
		deepMerge(dstMap, srcMap)
	}
}

func substituteEnvValues(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = substituteEnvValues(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = substituteEnvValues(item)
		}
		return t
	case string:
		return envPattern.ReplaceAllStringFunc(t, func(match string) string {
			parts := envPattern.FindStringSubmatch(match)
			if value, ok := os.LookupEnv(parts[1]); ok {
				return value
			}
			return match
		})
	default:
		return v
	}
}
