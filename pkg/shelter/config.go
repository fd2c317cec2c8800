package shelter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	MaskChar        string             `json:"mask_char,omitempty"`
	DefaultStrategy string             `json:"default_strategy,omitempty"`
	SkipComments    *bool              `json:"skip_comments,omitempty"`
	CacheCapacity   int                `json:"cache_capacity,omitempty"`
	KeyPatterns     map[string]string  `json:"key_patterns,omitempty"`
	SourcePatterns  map[string]string  `json:"source_patterns,omitempty"`
	Strategies      map[string]Options `json:"strategies,omitempty"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaskChar:        DefaultMaskChar,
		DefaultStrategy: ModeFull,
		CacheCapacity:   32,
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".shelter.json"

// CommentsSkipped reports whether comment entries are excluded from
// masking. Unset means false: commented-out pairs are masked too.
func (c Config) CommentsSkipped() bool {
	return c.SkipComments != nil && *c.SkipComments
}

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/shelter/config.json if set, otherwise
// ~/.config/shelter/config.json. Returns empty string if the home
// directory cannot be determined.
func getGlobalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "shelter", "config.json")
		}
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "shelter", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "shelter", "config.json")
	}

	return ""
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/shelter/config.json or $XDG_CONFIG_HOME/shelter/config.json)
// 3. Project config file at default location (.shelter.json, if exists)
// 4. Explicit config file via configPath (if non-empty).
func LoadConfig(workDir, configPath string, env []string) (Config, ConfigSources, error) {
	cfg := DefaultConfig()

	var sources ConfigSources

	globalCfg, globalPath, err := loadGlobalConfig(env)
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, configPath)
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	validateErr := validateConfig(cfg)
	if validateErr != nil {
		return Config{}, ConfigSources{}, validateErr
	}

	return cfg, sources, nil
}

// loadGlobalConfig loads the global user config file if it exists.
func loadGlobalConfig(env []string) (Config, string, error) {
	globalCfgPath := getGlobalConfigPath(env)
	if globalCfgPath == "" {
		return Config{}, "", nil
	}

	globalCfg, loaded, err := loadConfigFile(globalCfgPath, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return globalCfg, globalCfgPath, nil
}

// loadProjectConfig loads the project config file (.shelter.json) or an
// explicit config file.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		// Explicit config file - must exist
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		_, statErr := os.Stat(cfgFile)
		if statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
		mustExist = false
	}

	fileCfg, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return fileCfg, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return zero config.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, false, nil
	}

	cfg, parseErr := ParseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

// ParseConfig parses JWCC (JSON with comments and trailing commas)
// configuration bytes.
func ParseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.MaskChar != "" {
		base.MaskChar = overlay.MaskChar
	}

	if overlay.DefaultStrategy != "" {
		base.DefaultStrategy = overlay.DefaultStrategy
	}

	if overlay.SkipComments != nil {
		base.SkipComments = overlay.SkipComments
	}

	if overlay.CacheCapacity != 0 {
		base.CacheCapacity = overlay.CacheCapacity
	}

	if overlay.KeyPatterns != nil {
		base.KeyPatterns = overlay.KeyPatterns
	}

	if overlay.SourcePatterns != nil {
		base.SourcePatterns = overlay.SourcePatterns
	}

	if overlay.Strategies != nil {
		base.Strategies = overlay.Strategies
	}

	return base
}

func validateConfig(cfg Config) error {
	if utf8.RuneCountInString(cfg.MaskChar) != 1 {
		return fmt.Errorf("%w: got %q", ErrMaskCharInvalid, cfg.MaskChar)
	}

	if cfg.DefaultStrategy == "" {
		return ErrDefaultStrategyEmpty
	}

	if cfg.CacheCapacity < 1 {
		return fmt.Errorf("%w: got %d", ErrCacheCapacityInvalid, cfg.CacheCapacity)
	}

	return nil
}

// FormatConfig returns the config as formatted JSON.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}
