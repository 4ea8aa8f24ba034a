package chain

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// MockConfig configures the mock chain adapter.
type MockConfig struct {
	Network          string
	ChainID          string
	RegistryContract string
	CreditContract   string
}

// mockClient simulates chain submission. Hashes are time plus randomness,
// not a cryptographic commitment; a real adapter would return the hash the
// node assigns.
type mockClient struct {
	config MockConfig
}

func NewMockClient(config MockConfig) Client {
	if config.Network == "" {
		config.Network = "mumbai"
	}
	if config.ChainID == "" {
		config.ChainID = "80001"
	}
	return &mockClient{config: config}
}

func (c *mockClient) SubmitMint(ctx context.Context, creditID string, amount int64, toAddress string) (TxResult, error) {
	return c.result(), nil
}

func (c *mockClient) SubmitTransfer(ctx context.Context, creditID, fromAddress, toAddress string) (TxResult, error) {
	return c.result(), nil
}

func (c *mockClient) SubmitRetire(ctx context.Context, creditID, fromAddress string) (TxResult, error) {
	return c.result(), nil
}

func (c *mockClient) Status(ctx context.Context) (NetworkStatus, error) {
	return NetworkStatus{
		Network:     c.config.Network,
		ChainID:     c.config.ChainID,
		Connected:   true,
		BlockHeight: rand.Int63n(1_000_000) + 30_000_000,
		GasPrice:    "35",
		Contracts: map[string]string{
			"registry": c.config.RegistryContract,
			"credits":  c.config.CreditContract,
		},
		LastUpdated: time.Now(),
	}, nil
}

func (c *mockClient) result() TxResult {
	now := time.Now()
	return TxResult{
		Hash:        fmt.Sprintf("0x%x%08x", now.UnixNano(), rand.Uint32()),
		SubmittedAt: now,
	}
}
