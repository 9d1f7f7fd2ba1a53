// Package config loads the settings shared by the agent server and the demo
// client. Values come from the defaults, then an optional YAML file, then the
// environment.
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/razzie/rbcremote/internal/logging"
	"github.com/razzie/rbcremote/pkg/agent"
)

// PathEnv names the config file when no -config flag is given.
const PathEnv = "RBC_CONFIG"

type Config struct {
	ListenAddr     string        `yaml:"listen_addr" env:"LISTEN_ADDR"`
	ServerAddr     string        `yaml:"server_addr" env:"SERVER_IP"`
	LogLevel       string        `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat      string        `yaml:"log_format" env:"LOG_FORMAT"`
	Workers        int           `yaml:"workers" env:"WORKERS"`
	CallTimeout    time.Duration `yaml:"call_timeout" env:"CALL_TIMEOUT"`
	RedisURL       string        `yaml:"redis_url" env:"REDIS_URL"`
	RecordTTL      time.Duration `yaml:"record_ttl" env:"RECORD_TTL"`
	Agent          string        `yaml:"agent" env:"AGENT"`
	EnginePath     string        `yaml:"uci_engine_path" env:"UCI_ENGINE_PATH"`
	EngineMoveTime time.Duration `yaml:"engine_move_time" env:"ENGINE_MOVE_TIME"`
	EngineDepth    int           `yaml:"engine_depth" env:"ENGINE_DEPTH"`
}

func Default() *Config {
	return &Config{
		ListenAddr:     "0.0.0.0:50051",
		ServerAddr:     "localhost:50051",
		LogLevel:       "info",
		LogFormat:      logging.FormatConsole,
		Workers:        5,
		CallTimeout:    10 * time.Second,
		RecordTTL:      24 * time.Hour,
		Agent:          agent.KindRandom,
		EngineMoveTime: 500 * time.Millisecond,
		EngineDepth:    6,
	}
}

// Load reads the config file at path (or $RBC_CONFIG if path is empty) over
// the defaults, applies the environment and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if len(path) == 0 {
		path = os.Getenv(PathEnv)
	}
	if len(path) > 0 {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse env")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (cfg *Config) Validate() error {
	var errs error
	if len(cfg.ListenAddr) == 0 {
		errs = multierror.Append(errs, errors.New("listen address is empty"))
	}
	if len(cfg.ServerAddr) == 0 {
		errs = multierror.Append(errs, errors.New("server address is empty"))
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		errs = multierror.Append(errs, err)
	}
	if cfg.LogFormat != logging.FormatConsole && cfg.LogFormat != logging.FormatJSON {
		errs = multierror.Append(errs, errors.Errorf("unknown log format %q", cfg.LogFormat))
	}
	if cfg.Workers <= 0 {
		errs = multierror.Append(errs, errors.Errorf("workers must be positive, got %d", cfg.Workers))
	}
	if cfg.CallTimeout <= 0 {
		errs = multierror.Append(errs, errors.Errorf("call timeout must be positive, got %s", cfg.CallTimeout))
	}
	if cfg.RecordTTL < 0 {
		errs = multierror.Append(errs, errors.Errorf("record ttl must not be negative, got %s", cfg.RecordTTL))
	}
	if cfg.Agent != agent.KindRandom && cfg.Agent != agent.KindEngine {
		errs = multierror.Append(errs, errors.Errorf("unknown agent %q", cfg.Agent))
	}
	if cfg.Agent == agent.KindEngine {
		if cfg.EngineMoveTime <= 0 {
			errs = multierror.Append(errs, errors.Errorf("engine move time must be positive, got %s", cfg.EngineMoveTime))
		}
		if cfg.EngineDepth <= 0 {
			errs = multierror.Append(errs, errors.Errorf("engine depth must be positive, got %d", cfg.EngineDepth))
		}
	}
	return errs
}

func (cfg *Config) AgentConfig() agent.Config {
	return agent.Config{
		Kind:       cfg.Agent,
		EnginePath: cfg.EnginePath,
		MoveTime:   cfg.EngineMoveTime,
		Depth:      cfg.EngineDepth,
	}
}
