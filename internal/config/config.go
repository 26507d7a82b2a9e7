package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"

	"hypergate/pkg/confkit"
	"hypergate/pkg/precision"
)

// UpstreamConf tunes the exchange client and price tape.
type UpstreamConf struct {
	TimeoutSeconds     int     `json:",default=10"`
	PollIntervalMs     int     `json:",default=2000"`
	AssetTTLSeconds    int     `json:",default=300"`
	RateLimitPerSecond float64 `json:",default=10"`
	RateLimitBurst     int     `json:",default=20"`
}

type Config struct {
	rest.RestConf
	// Env indicates the running environment: test | dev | prod.
	Env string `json:",default=test"`

	// PrivateKey is the signing key for exchange actions. Empty means the
	// gateway boots read-only: prices and account reads work, trading does
	// not. Normally supplied via ${PRIVATE_KEY} in the yaml.
	PrivateKey string `json:",optional"`

	// UseTestnet selects the upstream network. Per the UI contract the
	// literal string "false" selects mainnet; anything else means testnet.
	UseTestnet string `json:",default=true"`

	Upstream UpstreamConf `json:",optional"`

	mainPath string
	baseDir  string
}

// Network maps the UseTestnet switch to a network name.
func (c *Config) Network() precision.Network {
	if strings.EqualFold(strings.TrimSpace(c.UseTestnet), "false") {
		return precision.NetworkMainnet
	}
	return precision.NetworkTestnet
}

func (c *Config) IsTestEnv() bool {
	return c.Env == "test" || c.Env == ""
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "test", "dev", "prod":
		if strings.TrimSpace(c.Env) == "" {
			c.Env = "test"
		}
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		return errors.New("config: upstream.timeoutSeconds must be positive")
	}
	if c.Upstream.PollIntervalMs <= 0 {
		return errors.New("config: upstream.pollIntervalMs must be positive")
	}
	if c.Upstream.AssetTTLSeconds <= 0 {
		return errors.New("config: upstream.assetTTLSeconds must be positive")
	}
	return nil
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}
