package witness

import (
	"errors"
	"testing"

	"aquachain/pkg/aqua"
)

func TestNewEthereumBackend_MissingRPCKeyFails(t *testing.T) {
	_, err := NewEthereumBackend("https://eth-mainnet.example/v2", "", "0xcontract", "0xsender", "mainnet")
	if err == nil {
		t.Fatal("expected an error when rpcKey is empty")
	}
	var aerr *aqua.Error
	if !errors.As(err, &aerr) || aerr.Kind != aqua.KindConfigMissing {
		t.Errorf("got %v, want a CONFIG_MISSING *aqua.Error", err)
	}
}

func TestNewEthereumBackend_EndpointAppendsKey(t *testing.T) {
	b, err := NewEthereumBackend("https://eth-mainnet.example/v2/", "secret-key", "0xcontract", "0xsender", "mainnet")
	if err != nil {
		t.Fatal(err)
	}
	want := "https://eth-mainnet.example/v2/secret-key"
	if got := b.endpoint(); got != want {
		t.Errorf("endpoint() = %q, want %q", got, want)
	}
}
