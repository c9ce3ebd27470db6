package tool

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/moyoez/nanalyzer-go/types"
)

const (
	// BaseURLEnv overrides apiBaseURL from config.yaml.
	BaseURLEnv = "NANALYZER_API_BASE_URL"
	// UserIDEnv overrides userID from config.yaml.
	UserIDEnv = "NANALYZER_USER_ID"

	DefaultChunkSize      int64 = 1 << 20   // 1 MiB
	DefaultMaxUploadBytes int64 = 100 << 20 // 100 MiB, same cap as the backend
)

var (
	ConfigPath    = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	EnvPath       = ".env"
	CurrentConfig types.AppConfig
	configMu      sync.RWMutex
)

func defaultConfig() types.AppConfig {
	return types.AppConfig{
		APIBaseURL:          "http://localhost:8000",
		Port:                53318,
		ChunkSizeBytes:      DefaultChunkSize,
		MaxUploadBytes:      DefaultMaxUploadBytes,
		Reconnect:           true,
		ReconnectIntervalMs: 3000,
		AutoLive:            true,
		TrackerTTLMinutes:   60,
		WebBaseURL:          "http://localhost:3000",
	}
}

// LoadConfig reads config.yaml (writing defaults when it is missing), then applies .env and
// process environment overrides for the backend base URL and user id.
func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := defaultConfig()

	info, err := os.Stat(path)
	switch {
	case err != nil && os.IsNotExist(err):
		if writeErr := writeDefaultConfig(path, cfg); writeErr != nil {
			return cfg, fmt.Errorf("config file not found, and failed to generate default config: %v", writeErr)
		}
		DefaultLogger.Infof("Created new config file at %s", path)
	case err != nil:
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	case info.IsDir():
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %v", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	if err := godotenv.Load(EnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		DefaultLogger.Warnf("Failed to load %s: %v", EnvPath, err)
	}
	applyEnvOverrides(&cfg)
	normalizeConfig(&cfg)

	SetCurrentConfig(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *types.AppConfig) {
	if v := strings.TrimSpace(os.Getenv(BaseURLEnv)); v != "" {
		DefaultLogger.Debugf("Using %s from environment: %s", BaseURLEnv, v)
		cfg.APIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(UserIDEnv)); v != "" {
		cfg.UserID = v
	}
}

func normalizeConfig(cfg *types.AppConfig) {
	def := defaultConfig()
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = def.APIBaseURL
	}
	if cfg.Port <= 0 {
		cfg.Port = def.Port
	}
	if cfg.ChunkSizeBytes <= 0 {
		cfg.ChunkSizeBytes = def.ChunkSizeBytes
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.ReconnectIntervalMs <= 0 {
		cfg.ReconnectIntervalMs = def.ReconnectIntervalMs
	}
	if cfg.TrackerTTLMinutes <= 0 {
		cfg.TrackerTTLMinutes = def.TrackerTTLMinutes
	}
}

// ApplyFlagOverrides merges CLI flags into cfg. Flags win over file and environment.
func ApplyFlagOverrides(cfg *types.AppConfig, flags types.Config) {
	if flags.UseBaseURL != "" {
		cfg.APIBaseURL = strings.TrimRight(flags.UseBaseURL, "/")
	}
	if flags.UsePort > 0 {
		cfg.Port = flags.UsePort
	}
	if flags.UseUserID != "" {
		cfg.UserID = flags.UseUserID
	}
	if flags.UseAutoLive {
		cfg.AutoLive = true
	}
	SetCurrentConfig(*cfg)
}

// PersistConfig makes cfg current and writes it back to the config file.
func PersistConfig(cfg types.AppConfig) error {
	normalizeConfig(&cfg)
	SetCurrentConfig(cfg)
	return writeDefaultConfig(ConfigPath, cfg)
}

func writeDefaultConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func SetCurrentConfig(cfg types.AppConfig) {
	configMu.Lock()
	defer configMu.Unlock()
	CurrentConfig = cfg
}

// GetCurrentConfig returns a copy of the active config.
func GetCurrentConfig() types.AppConfig {
	configMu.RLock()
	defer configMu.RUnlock()
	return CurrentConfig
}
