package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"
)

const DefaultIPFSGateway = "https://ipfs.io/ipfs"

// PinResult describes a file pinned to IPFS.
type PinResult struct {
	Hash string
	Size int64
}

type IPFSClient interface {
	PinFile(ctx context.Context, body io.Reader, filename string) (PinResult, error)
	UnpinFile(ctx context.Context, cid string) error
	GatewayURL(cid string) string
}

// mockIPFSClient generates placeholder CIDs for development. Content is
// consumed but not stored anywhere.
type mockIPFSClient struct {
	gateway string
}

func NewIPFSClient(gateway string) IPFSClient {
	if gateway == "" {
		gateway = DefaultIPFSGateway
	}
	return &mockIPFSClient{gateway: strings.TrimRight(gateway, "/")}
}

func (c *mockIPFSClient) PinFile(ctx context.Context, body io.Reader, filename string) (PinResult, error) {
	size, err := io.Copy(io.Discard, body)
	if err != nil {
		return PinResult{}, fmt.Errorf("reading content: %w", err)
	}
	return PinResult{
		Hash: fmt.Sprintf("Qm%d%09x", time.Now().UnixMilli(), rand.Int31()),
		Size: size,
	}, nil
}

func (c *mockIPFSClient) UnpinFile(ctx context.Context, cid string) error {
	return nil
}

func (c *mockIPFSClient) GatewayURL(cid string) string {
	return fmt.Sprintf("%s/%s", c.gateway, cid)
}
