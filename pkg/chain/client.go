package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/azura-academy/governance/pkg/utils"
)

// ErrNotMined distinguishes "no receipt yet, keep polling" from hard RPC
// failures. The monitor must never treat a transient RPC outage as a
// transaction failure.
var ErrNotMined = errors.New("transaction not yet mined")

// Receipt is the subset of an EVM receipt the governance core cares about.
type Receipt struct {
	Success     bool
	GasUsed     uint64
	BlockNumber uint64
}

// Client wraps an ethclient connection to the chain RPC.
type Client struct {
	eth    *ethclient.Client
	logger *zap.Logger
}

// New connects to the chain RPC configured via ETH_RPC_URL.
func New(ctx context.Context, logger *zap.Logger) (*Client, error) {
	url := utils.Env("ETH_RPC_URL", "http://localhost:8545")

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	eth, err := ethclient.DialContext(dialCtx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC at %s: %w", url, err)
	}

	logger.Info("Connected to chain RPC", zap.String("url", url))
	return &Client{eth: eth, logger: logger}, nil
}

// TransactionReceipt fetches the receipt for txHash. Returns ErrNotMined
// while the transaction is still pending; any other error is a hard RPC
// failure the caller should log and retry on the next interval.
func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	receipt, err := c.eth.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) || strings.Contains(err.Error(), "not found") {
			return nil, ErrNotMined
		}
		return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
	}

	out := &Receipt{
		Success: receipt.Status == types.ReceiptStatusSuccessful,
		GasUsed: receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return out, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}
