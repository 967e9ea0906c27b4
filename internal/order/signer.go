package order

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nftex/fill-engine/pkg/config"
	"github.com/nftex/fill-engine/pkg/types"
)

// Wallet is the signing surface the front door needs.
type Wallet interface {
	From(ctx context.Context) (common.Address, error)
	ChainID(ctx context.Context) (uint64, error)
	SignDigest(digest common.Hash) ([]byte, error)
	SignPersonal(message []byte) ([]byte, error)
}

// Signer produces maker signatures for native-exchange orders. The two
// exchanges use different schemes: the legacy one verifies a prefixed
// personal-message signature over the order hash, V2 verifies EIP-712
// typed data bound to the exchange deployment.
type Signer struct {
	wallet  Wallet
	network config.Network
}

// NewSigner creates a signer for one network.
func NewSigner(wallet Wallet, network config.Network) *Signer {
	return &Signer{wallet: wallet, network: network}
}

// Sign attaches the maker signature to the order.
func (s *Signer) Sign(order *types.Order) error {
	switch order.Type {
	case types.OrderExchangeV1:
		digest, err := legacyOrderDigest(*order)
		if err != nil {
			return err
		}
		signature, err := s.wallet.SignPersonal(digest.Bytes())
		if err != nil {
			return fmt.Errorf("sign legacy order: %w", err)
		}
		order.Signature = signature
		return nil

	case types.OrderExchangeV2:
		enc, err := encodeV2Order(*order)
		if err != nil {
			return err
		}
		digest := signingDigestV2(*order, enc, s.network.ChainID, s.network.Exchange.V2)
		signature, err := s.wallet.SignDigest(digest)
		if err != nil {
			return fmt.Errorf("sign v2 order: %w", err)
		}
		order.Signature = signature
		return nil

	default:
		// Third-party orders are signed on their own venues.
		return &types.UnsupportedOrderError{Order: order}
	}
}

// randomSalt draws a uniform 256-bit salt. Salts only need uniqueness
// per maker, but a full-width random value also avoids hash collisions
// across makers.
func randomSalt() (*big.Int, error) {
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return nil, fmt.Errorf("draw salt: %w", err)
	}
	return new(big.Int).SetBytes(raw[:]), nil
}
