// Package chain abstracts the blockchain the registry records credit
// operations against. The lifecycle services depend only on Client; the
// mock adapter stands in for a real chain integration.
package chain

import (
	"context"
	"time"
)

// TxResult is the receipt for a submitted chain transaction.
type TxResult struct {
	Hash        string    `json:"transaction_hash"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NetworkStatus describes the connected network.
type NetworkStatus struct {
	Network     string            `json:"network"`
	ChainID     string            `json:"chain_id"`
	Connected   bool              `json:"connected"`
	BlockHeight int64             `json:"block_height"`
	GasPrice    string            `json:"gas_price"` // gwei
	Contracts   map[string]string `json:"contracts"`
	LastUpdated time.Time         `json:"last_updated"`
}

type Client interface {
	// SubmitMint records a credit issuance to the recipient address.
	SubmitMint(ctx context.Context, creditID string, amount int64, toAddress string) (TxResult, error)
	// SubmitTransfer records an ownership change between two addresses.
	SubmitTransfer(ctx context.Context, creditID, fromAddress, toAddress string) (TxResult, error)
	// SubmitRetire records a burn of the credit from the owner's address.
	SubmitRetire(ctx context.Context, creditID, fromAddress string) (TxResult, error)
	// Status reports connectivity and contract addresses.
	Status(ctx context.Context) (NetworkStatus, error)
}
