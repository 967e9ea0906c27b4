package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/pkg/types"
)

// Client is an HTTP client for the order-index API: the off-chain store
// of signed orders and the backend that countersigns legacy buyer fees.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an order-index client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// GetOrderByHash fetches one order by its hash.
func (c *Client) GetOrderByHash(ctx context.Context, hash common.Hash) (*types.Order, error) {
	endpoint := fmt.Sprintf("%s/v0.1/orders/%s", c.baseURL, hash.Hex())

	body, err := c.do(ctx, http.MethodGet, endpoint, nil, "get_order")
	if err != nil {
		return nil, err
	}

	var order types.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &order, nil
}

// UpsertOrder stores a signed order and returns the persisted version,
// which carries the hash assigned by the index.
func (c *Client) UpsertOrder(ctx context.Context, order types.Order) (*types.Order, error) {
	endpoint := fmt.Sprintf("%s/v0.1/orders", c.baseURL)

	payload, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, endpoint, payload, "upsert_order")
	if err != nil {
		return nil, err
	}

	var persisted types.Order
	if err := json.Unmarshal(body, &persisted); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}

	c.logger.Debug("order-upserted",
		zap.String("hash", persisted.Hash.Hex()),
		zap.String("type", string(persisted.Type)))
	return &persisted, nil
}

type buyerFeeRequest struct {
	Order types.Order `json:"order"`
	Fee   int64       `json:"fee"`
}

type buyerFeeResponse struct {
	Signature string `json:"signature"`
}

// BuyerFeeSignature asks the backend to countersign the buyer fee of a
// legacy-exchange fill. The contract rejects the match without it.
func (c *Client) BuyerFeeSignature(ctx context.Context, order types.Order, fee int64) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/v0.1/orders/buyerFee", c.baseURL)

	payload, err := json.Marshal(buyerFeeRequest{Order: order, Fee: fee})
	if err != nil {
		return nil, fmt.Errorf("marshal buyer fee request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, endpoint, payload, "buyer_fee")
	if err != nil {
		return nil, err
	}

	var resp buyerFeeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal buyer fee response: %w", err)
	}

	signature, err := hexutil.Decode(resp.Signature)
	if err != nil {
		return nil, fmt.Errorf("decode buyer fee signature: %w", err)
	}
	return signature, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte, label string) ([]byte, error) {
	start := time.Now()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		RequestsTotal.WithLabelValues(label, "error").Inc()
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		RequestsTotal.WithLabelValues(label, "error").Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		RequestsTotal.WithLabelValues(label, "error").Inc()
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	RequestsTotal.WithLabelValues(label, "ok").Inc()
	RequestDurationSeconds.WithLabelValues(label).Observe(time.Since(start).Seconds())
	return body, nil
}
