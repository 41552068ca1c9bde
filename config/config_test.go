package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `StoreOwner = "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8645", cfg.RPCAddress)
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, "hashup-local", cfg.NetworkName)
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
RPCAddress = "0.0.0.0:9000"
DataDir = "/var/lib/hashup"
NetworkName = "hashup-test"
StoreOwner = "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf"
Environment = "staging"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.RPCAddress)
	require.Equal(t, "/var/lib/hashup", cfg.DataDir)
	require.Equal(t, "hashup-test", cfg.NetworkName)
	require.Equal(t, "staging", cfg.Environment)
}

func TestLoadRequiresStoreOwner(t *testing.T) {
	path := writeConfig(t, `RPCAddress = "127.0.0.1:8645"`)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "StoreOwner")
}

func TestLoadRejectsMalformedOwner(t *testing.T) {
	path := writeConfig(t, `StoreOwner = "not-an-address"`)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "hex address")
}

func TestLoadWritesDefaultFileOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	_, err := Load(path)
	require.Error(t, err)
	require.FileExists(t, path)

	// The generated file has no owner, so a reload still refuses to start.
	_, err = Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "StoreOwner")
}

func TestStoreOwnerAddress(t *testing.T) {
	cfg := &Config{StoreOwner: "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"}

	addr, err := cfg.StoreOwnerAddress()
	require.NoError(t, err)
	require.Equal(t, byte(0x7e), addr[0])
	require.Equal(t, byte(0xdf), addr[19])

	cfg.StoreOwner = ""
	_, err = cfg.StoreOwnerAddress()
	require.Error(t, err)
}
