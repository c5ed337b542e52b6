// Package config loads the YAML miner configuration and applies defaults.
package config

import (
	"math"
	"math/rand"
	"net/url"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/PoC-Consortium/bencher/pkg/poc/gpu"
)

// Config is the full on-disk configuration. Every key is optional except
// url.
type Config struct {
	NumericID    uint64  `yaml:"numeric_id"`
	StartNonce   *uint64 `yaml:"start_nonce"`
	SecretPhrase string  `yaml:"secret_phrase"`
	Blocktime    uint64  `yaml:"blocktime"`
	URL          string  `yaml:"url"`

	Gpus              []gpu.Config `yaml:"gpus"`
	CPUThreads        int          `yaml:"cpu_threads"`
	CPUWorkerTaskSize uint64       `yaml:"cpu_worker_task_size"`
	CPUThreadPinning  bool         `yaml:"cpu_thread_pinning"`

	TargetDeadline        uint64 `yaml:"target_deadline"`
	GetMiningInfoInterval uint64 `yaml:"get_mining_info_interval"`
	Timeout               uint64 `yaml:"timeout"`

	SendProxyDetails  bool              `yaml:"send_proxy_details"`
	AdditionalHeaders map[string]string `yaml:"additional_headers"`

	StatusListen string `yaml:"status_listen"`

	ConsoleLogLevel string `yaml:"console_log_level"`
	LogfileLogLevel string `yaml:"logfile_log_level"`
	LogfilePath     string `yaml:"logfile_path"`

	parsedURL *url.URL
}

func defaultConfig() Config {
	return Config{
		NumericID:             7900104405094198526,
		SecretPhrase:          "",
		Blocktime:             240,
		CPUThreads:            0,
		CPUWorkerTaskSize:     64,
		CPUThreadPinning:      false,
		TargetDeadline:        math.MaxUint32,
		GetMiningInfoInterval: 3000,
		Timeout:               5000,
		SendProxyDetails:      false,
		AdditionalHeaders:     map[string]string{},
		ConsoleLogLevel:       "info",
		LogfileLogLevel:       "warn",
	}
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open config, config=%s", path)
	}
	return Parse(data)
}

// Parse decodes raw YAML into a validated Config.
func Parse(data []byte) (*Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	if cfg.URL == "" {
		return nil, errors.New("config: url is required")
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, errors.Errorf("config: invalid url %q", cfg.URL)
	}
	cfg.parsedURL = parsed

	if cfg.StartNonce == nil {
		// Random starting point so repeated benchmark runs don't all
		// walk the same nonce range.
		n := uint64(rand.Uint32())
		cfg.StartNonce = &n
	}
	if cfg.GetMiningInfoInterval < 1000 {
		cfg.GetMiningInfoInterval = 1000
	}
	return &cfg, nil
}

// BaseURL returns the parsed pool URL.
func (c *Config) BaseURL() *url.URL {
	return c.parsedURL
}
