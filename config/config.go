package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	DataDir     string `toml:"DataDir"`
	NetworkName string `toml:"NetworkName"`
	StoreOwner  string `toml:"StoreOwner"`
	Environment string `toml:"Environment"`
}

// Load loads the configuration from the given path, writing a default file on
// first run.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "hashup-local"
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	owner := strings.TrimSpace(c.StoreOwner)
	if owner == "" {
		return fmt.Errorf("config: StoreOwner is required")
	}
	if !common.IsHexAddress(owner) {
		return fmt.Errorf("config: StoreOwner %q is not a hex address", owner)
	}
	return nil
}

// StoreOwnerAddress decodes the configured owner into its binary form.
func (c *Config) StoreOwnerAddress() ([20]byte, error) {
	var out [20]byte
	if err := c.validate(); err != nil {
		return out, err
	}
	copy(out[:], common.HexToAddress(strings.TrimSpace(c.StoreOwner)).Bytes())
	return out, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:  "127.0.0.1:8645",
		DataDir:     "./data",
		NetworkName: "hashup-local",
		Environment: "local",
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("config: wrote default config to %s; set StoreOwner and restart", path)
}
