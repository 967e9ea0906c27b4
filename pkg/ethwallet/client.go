package ethwallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const (
	receiptPollInterval = 2 * time.Second
	receiptPollAttempts = 60
	fallbackGasLimit    = uint64(300000)
)

// Client is a Provider backed by an RPC node and a local private key.
type Client struct {
	eth        *ethclient.Client
	privateKey *ecdsa.PrivateKey
	from       common.Address
	logger     *zap.Logger

	mu      sync.Mutex
	chainID *big.Int
}

// NewClient connects to the RPC endpoint and derives the signer address.
func NewClient(rpcURL, privateKeyHex string, logger *zap.Logger) (*Client, error) {
	if rpcURL == "" {
		return nil, errors.New("rpcURL cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if privateKeyHex == "" {
		return nil, errors.New("private key cannot be empty")
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("error casting public key to ECDSA")
	}

	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}

	return &Client{
		eth:        eth,
		privateKey: privateKey,
		from:       crypto.PubkeyToAddress(*publicKey),
		logger:     logger,
	}, nil
}

// From returns the active signer address.
func (c *Client) From(ctx context.Context) (common.Address, error) {
	return c.from, nil
}

// ChainID returns the connected chain's id, cached after the first read.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chainID == nil {
		id, err := c.eth.ChainID(ctx)
		if err != nil {
			return 0, fmt.Errorf("get chain id: %w", err)
		}
		c.chainID = id
	}
	return c.chainID.Uint64(), nil
}

// Call executes a read-only contract call.
func (c *Client) Call(ctx context.Context, call Call) ([]byte, error) {
	to := call.To
	msg := ethereum.CallMsg{
		To:   &to,
		Data: call.Data,
	}
	result, err := c.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", call.Method, err)
	}
	return result, nil
}

// Send signs and broadcasts the call as a transaction.
func (c *Client) Send(ctx context.Context, call Call, opts SendOptions) (*Transaction, error) {
	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gas price: %w", err)
	}

	value := opts.Value
	if value == nil {
		value = big.NewInt(0)
	}

	gasLimit := opts.GasLimit
	if gasLimit == 0 {
		gasLimit = c.estimateGas(ctx, call, value)
	}

	tx := gethtypes.NewTransaction(nonce, call.To, value, gasLimit, gasPrice, call.Data)

	chainID, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}

	signedTx, err := gethtypes.SignTx(tx, gethtypes.NewEIP155Signer(chainID), c.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	hash := signedTx.Hash()
	c.logger.Info("transaction-sent",
		zap.String("method", call.Method),
		zap.String("tx-hash", hash.Hex()),
		zap.Uint64("nonce", nonce))

	return NewTransaction(hash, func(ctx context.Context) (*gethtypes.Receipt, error) {
		return c.waitReceipt(ctx, hash)
	}), nil
}

// estimateGas asks the node for a gas estimate with a 20% margin, falling
// back to a conservative default when estimation fails (e.g. pending state).
func (c *Client) estimateGas(ctx context.Context, call Call, value *big.Int) uint64 {
	to := call.To
	estimated, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  c.from,
		To:    &to,
		Value: value,
		Data:  call.Data,
	})
	if err != nil {
		c.logger.Debug("gas-estimation-failed",
			zap.String("method", call.Method),
			zap.Error(err))
		return fallbackGasLimit
	}
	return estimated + estimated/5
}

func (c *Client) waitReceipt(ctx context.Context, hash common.Hash) (*gethtypes.Receipt, error) {
	for i := 0; i < receiptPollAttempts; i++ {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(receiptPollInterval):
		}
	}
	return nil, fmt.Errorf("timeout waiting for receipt %s", hash.Hex())
}

// SignDigest signs a 32-byte digest with the wallet key, normalizing the
// recovery id to the 27/28 convention contracts expect.
func (c *Client) SignDigest(digest common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(digest.Bytes(), c.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign digest: %w", err)
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}

// SignPersonal signs a message with the eth_sign prefix scheme.
func (c *Client) SignPersonal(message []byte) ([]byte, error) {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return c.SignDigest(crypto.Keccak256Hash([]byte(prefixed)))
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}
