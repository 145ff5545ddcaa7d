package config

import "sync"

var (
	globalConfig *Config
	configMutex  sync.RWMutex
)

// Initialize loads configuration with environment overrides, applies
// overrides in order, validates the result and stores it as the process-wide
// configuration. Nothing is stored on error.
func Initialize(path string, overrides ...func(*Config)) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		for _, override := range overrides {
			override(cfg)
		}
		if err := Validate(cfg); err != nil {
			return nil, err
		}
	}
	SetConfig(cfg)
	return cfg, nil
}

// GetConfig returns the process-wide configuration, or nil before
// Initialize. Prefer passing a *Config explicitly.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// SetConfig replaces the process-wide configuration.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}
