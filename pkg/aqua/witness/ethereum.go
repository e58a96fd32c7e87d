package witness

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aquachain/pkg/aqua"
)

// EthereumBackend publishes a Merkle root as call data to a configured
// smart contract over JSON-RPC, and answers Oracle.Transaction lookups the
// same way — grounded on the teacher's feishu.Provider HTTP client shape
// (internal/delivery/feishu/feishu.go): a single *http.Client, a POST with
// a JSON body, decode into an anonymous result struct.
type EthereumBackend struct {
	RPCURL          string
	RPCKey          string // Alchemy or equivalent provider key, appended to RPCURL's path
	ContractAddress string
	SenderAddress   string
	Network         string // "mainnet" | "sepolia" | "holesky"
	client          *http.Client
}

// NewEthereumBackend returns a backend that talks to rpcURL, publishing to
// contractAddress on the given network. rpcKey is spec §6's
// AlchemyOrRPCKey, required for both publishing and Oracle lookups; an
// empty key surfaces CONFIG_MISSING (spec §7) rather than failing later
// with an opaque HTTP error.
func NewEthereumBackend(rpcURL, rpcKey, contractAddress, senderAddress, network string) (*EthereumBackend, error) {
	if rpcKey == "" {
		return nil, &aqua.Error{Kind: aqua.KindConfigMissing, Message: "ethereum witness backend requires AlchemyOrRPCKey"}
	}
	return &EthereumBackend{
		RPCURL:          rpcURL,
		RPCKey:          rpcKey,
		ContractAddress: contractAddress,
		SenderAddress:   senderAddress,
		Network:         network,
		client:          &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// endpoint returns RPCURL with RPCKey appended as a path segment, the
// convention Alchemy and most managed RPC providers use.
func (b *EthereumBackend) endpoint() string {
	return strings.TrimSuffix(b.RPCURL, "/") + "/" + b.RPCKey
}

type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *jsonRPCError   `json:"error"`
}

func (b *EthereumBackend) call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(jsonRPCRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("witness: ethereum rpc HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("witness: decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("witness: ethereum rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// Publish sends call data selector||root to ContractAddress and returns the
// resulting transaction hash once eth_sendTransaction accepts it. The call
// data layout is exactly spec §6's: 4-byte selector 9cef4ea1 followed by
// the 64-byte root.
func (b *EthereumBackend) Publish(ctx context.Context, root [64]byte) (Receipt, error) {
	data := "0x" + witnessSelectorHex + hex.EncodeToString(root[:])
	params := map[string]interface{}{
		"from": b.SenderAddress,
		"to":   b.ContractAddress,
		"data": data,
	}
	result, err := b.call(ctx, "eth_sendTransaction", params)
	if err != nil {
		return Receipt{}, err
	}
	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return Receipt{}, fmt.Errorf("witness: decode transaction hash: %w", err)
	}
	return Receipt{
		Network:              b.Network,
		TransactionHash:      txHash,
		SenderAccountAddress: b.SenderAddress,
		SmartContractAddress: b.ContractAddress,
		Timestamp:            time.Now().UTC().Unix(),
	}, nil
}

// Transaction implements aqua.Oracle for the Ethereum backend: fetch the
// transaction by hash and hand back its raw call data for selector/root
// comparison by the Revision Verifier.
func (b *EthereumBackend) Transaction(ctx context.Context, network, txHash string) (aqua.TxRecord, error) {
	if !strings.EqualFold(network, b.Network) {
		return aqua.TxRecord{}, ErrUnsupportedNetwork
	}
	result, err := b.call(ctx, "eth_getTransactionByHash", txHash)
	if err != nil {
		return aqua.TxRecord{}, err
	}
	if len(result) == 0 || string(result) == "null" {
		return aqua.TxRecord{Found: false}, nil
	}
	var tx struct {
		Input string `json:"input"`
	}
	if err := json.Unmarshal(result, &tx); err != nil {
		return aqua.TxRecord{}, fmt.Errorf("witness: decode transaction: %w", err)
	}
	return aqua.TxRecord{Found: true, InputData: tx.Input}, nil
}

const witnessSelectorHex = "9cef4ea1"
