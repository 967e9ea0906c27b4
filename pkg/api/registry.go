package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/nftex/fill-engine/pkg/cache"
	"github.com/nftex/fill-engine/pkg/types"
)

// Collection is what the NFT registry knows about a token contract.
type Collection struct {
	ID       common.Address `json:"id"`
	Type     string         `json:"type"` // "ERC721", "ERC1155" or "CRYPTO_PUNKS"
	Name     string         `json:"name"`
	Features []string       `json:"features"`
}

// Registry resolves token contracts to collection metadata.
type Registry interface {
	GetCollection(ctx context.Context, contract common.Address) (*Collection, error)
}

// RegistryClient is the HTTP implementation of Registry.
type RegistryClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRegistryClient creates an NFT-registry client.
func NewRegistryClient(baseURL string, logger *zap.Logger) *RegistryClient {
	return &RegistryClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// GetCollection fetches a collection record by contract address.
func (c *RegistryClient) GetCollection(ctx context.Context, contract common.Address) (*Collection, error) {
	endpoint := fmt.Sprintf("%s/v0.1/collections/%s", c.baseURL, contract.Hex())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		RequestsTotal.WithLabelValues("get_collection", "error").Inc()
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		RequestsTotal.WithLabelValues("get_collection", "error").Inc()
		return nil, fmt.Errorf("unexpected status code %d for collection %s", resp.StatusCode, contract.Hex())
	}

	var collection Collection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		RequestsTotal.WithLabelValues("get_collection", "error").Inc()
		return nil, fmt.Errorf("decode collection: %w", err)
	}

	RequestsTotal.WithLabelValues("get_collection", "ok").Inc()
	RequestDurationSeconds.WithLabelValues("get_collection").Observe(time.Since(start).Seconds())
	return &collection, nil
}

// CachedRegistry fronts a Registry with a TTL cache. Collection type
// never changes for a deployed contract, so long TTLs are safe.
type CachedRegistry struct {
	inner Registry
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedRegistry wraps a registry with a cache.
func NewCachedRegistry(inner Registry, c cache.Cache, ttl time.Duration) *CachedRegistry {
	return &CachedRegistry{inner: inner, cache: c, ttl: ttl}
}

// GetCollection returns the cached record when present, otherwise
// delegates and stores the result.
func (r *CachedRegistry) GetCollection(ctx context.Context, contract common.Address) (*Collection, error) {
	key := "collection:" + strings.ToLower(contract.Hex())
	if cached, found := r.cache.Get(key); found {
		if collection, ok := cached.(*Collection); ok {
			return collection, nil
		}
	}

	collection, err := r.inner.GetCollection(ctx, contract)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, collection, r.ttl)
	return collection, nil
}

// ResolveAssetType fills in the asset class of a token reference from
// the registry when the caller did not specify one, and validates it
// when they did.
func ResolveAssetType(ctx context.Context, registry Registry, assetType types.AssetType) (types.AssetType, error) {
	switch assetType.Class {
	case types.AssetETH, types.AssetERC20, types.AssetCryptoPunks:
		return assetType, nil
	}

	collection, err := registry.GetCollection(ctx, assetType.Contract)
	if err != nil {
		return types.AssetType{}, fmt.Errorf("resolve collection %s: %w", assetType.Contract.Hex(), err)
	}

	resolved := types.AssetClass(collection.Type)
	switch resolved {
	case types.AssetERC721, types.AssetERC1155, types.AssetCryptoPunks:
	default:
		return types.AssetType{}, &types.UnsupportedAssetError{Class: resolved}
	}

	if assetType.Class != "" && assetType.Class != resolved {
		return types.AssetType{}, &types.InvalidOrderError{
			Reason: fmt.Sprintf("asset class %s does not match collection type %s", assetType.Class, collection.Type),
		}
	}

	assetType.Class = resolved
	return assetType, nil
}
