// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe typed configuration store loaded from YAML, with
// fsnotify-driven hot-reload that replaces the whole Config. Kept the teacher's
// RWMutex + listener-dispatch shape from the original ConfigStore, swapped
// the untyped map[string]any for a real domain Config struct and a file
// source.

package control

import (
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables kannel-corectl reads at startup.
// kannel-corectl takes one snapshot and does not watch the file; Reload and
// WatchConfigFile let other callers pick up changes.
type Config struct {
	ListenAddr            string `yaml:"listen_addr"`
	IdleTimeoutSeconds    int    `yaml:"idle_timeout_seconds"`
	DialTimeoutSeconds    int    `yaml:"dial_timeout_seconds"`
	OutputBufferThreshold int    `yaml:"output_buffer_threshold"`
	MetricsAddr           string `yaml:"metrics_addr"`
}

// ConfigStore is a dynamic Config holder with snapshot reads, file-backed
// loading, and listener dispatch on reload.
type ConfigStore struct {
	mu        sync.RWMutex
	config    Config
	path      string
	listeners []func(Config)
}

// NewConfigStore initializes a config store with cfg as its initial value.
func NewConfigStore(cfg Config) *ConfigStore {
	return &ConfigStore{config: cfg}
}

// LoadConfigStore reads and parses a YAML file at path into a new
// ConfigStore, remembering path for later Reload calls.
func LoadConfigStore(path string) (*ConfigStore, error) {
	cfg, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	return &ConfigStore{config: cfg, path: path}, nil
}

func readConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Snapshot returns a copy of the current config.
func (cs *ConfigStore) Snapshot() Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.config
}

// SetConfig replaces the stored config and dispatches reload listeners.
func (cs *ConfigStore) SetConfig(cfg Config) {
	cs.mu.Lock()
	cs.config = cfg
	cs.mu.Unlock()
	cs.dispatchReload(cfg)
}

// Reload re-reads the file this store was loaded from and, if it parses
// successfully, replaces the config and dispatches reload listeners. A
// read or parse error leaves the current config untouched.
func (cs *ConfigStore) Reload() error {
	if cs.path == "" {
		return nil
	}
	cfg, err := readConfigFile(cs.path)
	if err != nil {
		return err
	}
	cs.SetConfig(cfg)
	return nil
}

// OnReload registers a listener invoked with the new Config on every
// SetConfig/Reload.
func (cs *ConfigStore) OnReload(fn func(Config)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

func (cs *ConfigStore) dispatchReload(cfg Config) {
	cs.mu.RLock()
	listeners := make([]func(Config), len(cs.listeners))
	copy(listeners, cs.listeners)
	cs.mu.RUnlock()
	for _, fn := range listeners {
		go fn(cfg)
	}
}
