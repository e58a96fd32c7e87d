package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file from path and applies environment
// overrides for secrets, the same two-step load the teacher's
// internal/config/load.go performs for DITING_FEISHU_APP_SECRET.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AQUA_RPC_KEY"); v != "" {
		cfg.Verifier.AlchemyOrRPCKey = v
	}
	if v := os.Getenv("AQUA_NOSTR_PRIVATE_KEY"); v != "" {
		cfg.Witness.Nostr.PrivateKey = v
	}
	if v := os.Getenv("AQUA_ETHEREUM_RPC_URL"); v != "" {
		cfg.Witness.Ethereum.RPCURL = v
	}
}

// Default returns the built-in defaults (spec §6: non-strict, Merkle proof
// verification on) for callers that don't have a config file, e.g. tests.
func Default() *Config {
	return &Config{
		Verifier: VerifierConfig{
			SchemaVersion:     "current",
			Strict:            false,
			VerifyMerkleProof: true,
		},
	}
}
