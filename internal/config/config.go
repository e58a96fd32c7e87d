// Package config provides the unified configuration model and loader
// (YAML + env override) for cmd/aquaverify and the witness backends,
// grounded on the teacher's internal/config/config.go.
package config

import "aquachain/pkg/aqua"

// Config is the root configuration shared by cmd/aquaverify and any test
// harness that needs a real witness backend.
type Config struct {
	Verifier VerifierConfig `yaml:"verifier"`
	Witness  WitnessConfig  `yaml:"witness"`
}

// VerifierConfig mirrors aqua.VerifierConfig field-for-field so it can be
// YAML-tagged without polluting the core package with encoding tags the
// core itself never needs.
type VerifierConfig struct {
	SchemaVersion     string `yaml:"schema_version"`
	AlchemyOrRPCKey   string `yaml:"alchemy_or_rpc_key"` // overridden by AQUA_RPC_KEY
	Strict            bool   `yaml:"strict"`
	VerifyMerkleProof bool   `yaml:"verify_merkle_proof"`
}

// ToAqua converts the YAML-shaped VerifierConfig into aqua.VerifierConfig.
func (c VerifierConfig) ToAqua() aqua.VerifierConfig {
	v := aqua.SchemaCurrent
	if c.SchemaVersion == string(aqua.SchemaV1_2) {
		v = aqua.SchemaV1_2
	}
	return aqua.VerifierConfig{
		SchemaVersion:     v,
		AlchemyOrRPCKey:   c.AlchemyOrRPCKey,
		Strict:            c.Strict,
		VerifyMerkleProof: c.VerifyMerkleProof,
	}
}

// WitnessConfig configures the three witness backends. Only the section
// matching the backend actually in use needs to be populated.
type WitnessConfig struct {
	Ethereum EthereumConfig `yaml:"ethereum"`
	Nostr    NostrConfig    `yaml:"nostr"`
	TSA      TSAConfig      `yaml:"tsa"`
	BatchSize     int    `yaml:"batch_size"`
	BatchInterval string `yaml:"batch_interval"` // Go duration string, e.g. "30s"
}

// EthereumConfig configures EthereumBackend.
type EthereumConfig struct {
	RPCURL          string `yaml:"rpc_url"`
	ContractAddress string `yaml:"contract_address"`
	SenderAddress   string `yaml:"sender_address"`
	Network         string `yaml:"network"`
}

// NostrConfig configures NostrBackend. PrivateKey is overridden by
// AQUA_NOSTR_PRIVATE_KEY, never committed to config.yaml in cleartext.
type NostrConfig struct {
	RelayURL   string `yaml:"relay_url"`
	PrivateKey string `yaml:"private_key"`
}

// TSAConfig configures TSABackend.
type TSAConfig struct {
	URL string `yaml:"url"`
}
