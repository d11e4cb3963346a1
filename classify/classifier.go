// Package classify determines what kind of account each proposal-touched
// address is: an EOA, an empty account, a trusted system contract, or a
// contract that is verified or not on the chain's block explorer. Contract
// classifications carry the static bytecode risk verdict alongside.
package classify

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/withtally/compound-seatbelt-sub001/bytecode"
	"github.com/withtally/compound-seatbelt-sub001/pkg/logger"
)

// Kind is the account category of a classified address.
type Kind int

const (
	// EOA is an externally owned account: no code, nonzero nonce.
	EOA Kind = iota
	// EmptyAccount has no code and a zero nonce; it may receive code later.
	EmptyAccount
	// VerifiedContract has code with published, explorer-matched source.
	VerifiedContract
	// UnverifiedContract has code but no explorer verification.
	UnverifiedContract
	// TrustedContract is a configured system contract (governor, timelock)
	// exempt from scanning.
	TrustedContract
)

func (k Kind) String() string {
	switch k {
	case EOA:
		return "eoa"
	case EmptyAccount:
		return "empty"
	case VerifiedContract:
		return "verified"
	case UnverifiedContract:
		return "unverified"
	case TrustedContract:
		return "trusted"
	default:
		return "unknown"
	}
}

// Classification is the verdict for one address. Verdict is meaningful only
// when Kind is VerifiedContract or UnverifiedContract; verification and
// bytecode risk are independent axes, so a verified contract can still carry
// a selfdestruct or delegatecall finding.
type Classification struct {
	Address common.Address
	Kind    Kind
	Verdict bytecode.Verdict
}

// IsContract reports whether the classified account carries code that was
// risk-scanned.
func (c Classification) IsContract() bool {
	return c.Kind == VerifiedContract || c.Kind == UnverifiedContract
}

// ChainDataProvider supplies on-chain account data. *ethclient.Client
// satisfies it.
type ChainDataProvider interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
}

// VerificationChecker answers whether a contract is verified on the chain's
// explorer. *verification.StatusCache satisfies it.
type VerificationChecker interface {
	IsVerified(ctx context.Context, chainID uint64, addr common.Address) bool
}

// Classifier classifies addresses on one chain.
type Classifier struct {
	lggr     logger.Logger
	client   ChainDataProvider
	verifier VerificationChecker
	chainID  uint64
	trusted  map[string]struct{}
}

// NewClassifier builds a Classifier for chainID. Trusted addresses are
// matched case-insensitively.
func NewClassifier(
	lggr logger.Logger,
	client ChainDataProvider,
	verifier VerificationChecker,
	chainID uint64,
	trusted []common.Address,
) *Classifier {
	set := make(map[string]struct{}, len(trusted))
	for _, a := range trusted {
		set[strings.ToLower(a.Hex())] = struct{}{}
	}

	return &Classifier{
		lggr:     lggr,
		client:   client,
		verifier: verifier,
		chainID:  chainID,
		trusted:  set,
	}
}

// Classify determines the classification for one address. Code and nonce
// are fetched concurrently; trusted contracts short-circuit without any
// lookup.
func (c *Classifier) Classify(ctx context.Context, addr common.Address) (Classification, error) {
	if _, ok := c.trusted[strings.ToLower(addr.Hex())]; ok {
		return Classification{Address: addr, Kind: TrustedContract}, nil
	}

	var (
		code  []byte
		nonce uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		code, err = c.client.CodeAt(gctx, addr, nil)
		if err != nil {
			return fmt.Errorf("failed to fetch code for %s: %w", addr.Hex(), err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		nonce, err = c.client.NonceAt(gctx, addr, nil)
		if err != nil {
			return fmt.Errorf("failed to fetch nonce for %s: %w", addr.Hex(), err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Classification{}, err
	}

	if len(code) == 0 {
		if nonce > 0 {
			return Classification{Address: addr, Kind: EOA}, nil
		}
		return Classification{Address: addr, Kind: EmptyAccount}, nil
	}

	kind := UnverifiedContract
	if c.verifier.IsVerified(ctx, c.chainID, addr) {
		kind = VerifiedContract
	}

	return Classification{
		Address: addr,
		Kind:    kind,
		Verdict: bytecode.Scan(code),
	}, nil
}

// ClassifyAll classifies every address concurrently and returns the results
// in the order the addresses were given, regardless of completion order.
func (c *Classifier) ClassifyAll(ctx context.Context, addrs []common.Address) ([]Classification, error) {
	out := make([]Classification, len(addrs))

	g, gctx := errgroup.WithContext(ctx)
	for i, addr := range addrs {
		g.Go(func() error {
			cls, err := c.Classify(gctx, addr)
			if err != nil {
				return err
			}
			out[i] = cls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
