// Package token resolves user-supplied token identifiers (symbols, mint
// addresses, pasted links) into validated mint descriptors.
package token

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"jup-swap/pkg/chain"
	"jup-swap/pkg/types"
)

// WSOLMint is the wrapped-SOL mint. Native SOL is quoted through this mint
// because the aggregator only routes token-standard assets.
const WSOLMint = "So11111111111111111111111111111111111111112"

// DefaultDecimals is assumed for mints whose decimals cannot be read
// on-chain. Most SPL tokens use 6.
const DefaultDecimals uint8 = 6

// Descriptor identifies a resolved token. Mint is always a validated 32-byte
// key and Decimals never changes for the life of the process.
type Descriptor struct {
	Symbol   string
	Mint     solana.PublicKey
	Decimals uint8
	// Native marks the chain's unwrapped native asset; swaps through the
	// aggregator must substitute the wrapped mint and wrap/unwrap around it.
	Native bool
}

// Lister is the remote token list lookup used as a last resort.
type Lister interface {
	Lookup(ctx context.Context, query string) (*ListEntry, error)
}

// knownTokens is the built-in symbol table. Entries are trusted and bypass
// address validation.
var knownTokens = map[string]Descriptor{
	"SOL":  {Symbol: "SOL", Mint: solana.MustPublicKeyFromBase58(WSOLMint), Decimals: 9, Native: true},
	"WSOL": {Symbol: "WSOL", Mint: solana.MustPublicKeyFromBase58(WSOLMint), Decimals: 9},
	"USDC": {Symbol: "USDC", Mint: solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"), Decimals: 6},
	"USDT": {Symbol: "USDT", Mint: solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"), Decimals: 6},
	"JUP":  {Symbol: "JUP", Mint: solana.MustPublicKeyFromBase58("JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"), Decimals: 6},
	"BONK": {Symbol: "BONK", Mint: solana.MustPublicKeyFromBase58("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"), Decimals: 5},
	"RAY":  {Symbol: "RAY", Mint: solana.MustPublicKeyFromBase58("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"), Decimals: 6},
	"WIF":  {Symbol: "WIF", Mint: solana.MustPublicKeyFromBase58("EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"), Decimals: 6},
	"JTO":  {Symbol: "JTO", Mint: solana.MustPublicKeyFromBase58("jtojtomepa8beP8AuQc6eXt5FriJwfFMwQx2v2f9mCL"), Decimals: 9},
	"PYTH": {Symbol: "PYTH", Mint: solana.MustPublicKeyFromBase58("HZ1JovNiVvGrGNiiYvEozEVgZ58xaU3RKwX8eACQBCt3"), Decimals: 6},
	"MSOL": {Symbol: "MSOL", Mint: solana.MustPublicKeyFromBase58("mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"), Decimals: 9},
}

// Known returns the built-in symbol table sorted by symbol.
func Known() []Descriptor {
	out := make([]Descriptor, 0, len(knownTokens))
	for _, d := range knownTokens {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// knownByMint maps known mint addresses back to their table entry so that
// resolving a known token by address returns the same descriptor as by
// symbol.
var knownByMint = func() map[solana.PublicKey]Descriptor {
	m := make(map[solana.PublicKey]Descriptor, len(knownTokens))
	for _, d := range knownTokens {
		if d.Native {
			// WSOL shares the mint; prefer the non-native entry on reverse
			// lookup so address input never implies wrapping.
			continue
		}
		m[d.Mint] = d
	}
	return m
}()

// Registry resolves token identifiers to descriptors. Unknown tokens resolved
// through the remote list or by address are cached write-once for the life of
// the process; mint addresses and decimals are immutable on-chain facts.
type Registry struct {
	chain  chain.Client
	list   Lister
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]Descriptor
}

// NewRegistry creates a registry. chainClient may be nil, in which case
// decimals for address-resolved unknown mints fall back to DefaultDecimals.
func NewRegistry(chainClient chain.Client, list Lister, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		chain:  chainClient,
		list:   list,
		logger: logger,
		cache:  make(map[string]Descriptor),
	}
}

// Resolve maps a symbol, mint address, or pasted link to a Descriptor.
func (r *Registry) Resolve(ctx context.Context, token string) (Descriptor, error) {
	// Symbols are case-insensitive but mint addresses are not, so only the
	// table lookup folds case; the cache keys on the exact input.
	key := strings.TrimSpace(token)
	if key == "" {
		return Descriptor{}, types.NewSwapError(types.ErrTokenNotFound, "empty token", nil)
	}

	if d, ok := knownTokens[strings.ToUpper(key)]; ok {
		return d, nil
	}

	r.mu.RLock()
	d, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}

	d, err := r.resolveUncached(ctx, key)
	if err != nil {
		return Descriptor{}, err
	}

	r.mu.Lock()
	// First writer wins; entries are never invalidated.
	if cached, ok := r.cache[key]; ok {
		d = cached
	} else {
		r.cache[key] = d
	}
	r.mu.Unlock()

	return d, nil
}

func (r *Registry) resolveUncached(ctx context.Context, token string) (Descriptor, error) {
	mint, err := ParseAddress(token)
	switch {
	case err == nil:
		if d, ok := knownByMint[mint]; ok {
			return d, nil
		}
		return Descriptor{
			Mint:     mint,
			Decimals: r.lookupDecimals(ctx, mint),
		}, nil

	case errors.Is(err, ErrInvalidLength):
		return Descriptor{}, types.NewSwapError(types.ErrInvalidAddressLength, "token looks like a mint address but has the wrong length", err)

	default:
		// Not structurally an address: fall back to the remote token list.
		return r.resolveRemote(ctx, token)
	}
}

func (r *Registry) resolveRemote(ctx context.Context, token string) (Descriptor, error) {
	if r.list == nil {
		return Descriptor{}, types.NewSwapError(types.ErrTokenNotFound, "unknown token "+token, nil)
	}

	entry, err := r.list.Lookup(ctx, token)
	if err != nil {
		return Descriptor{}, types.NewSwapError(types.ErrTokenNotFound, "token "+token+" not found", err)
	}

	mint, err := ParseAddress(entry.Address)
	if err != nil {
		return Descriptor{}, types.NewSwapError(types.ErrTokenNotFound, "remote list returned invalid mint for "+token, err)
	}

	decimals := entry.Decimals
	if decimals == 0 {
		decimals = r.lookupDecimals(ctx, mint)
	}

	r.logger.Debug("resolved token via remote list",
		zap.String("token", token),
		zap.String("mint", mint.String()),
		zap.Uint8("decimals", decimals))

	return Descriptor{
		Symbol:   strings.ToUpper(entry.Symbol),
		Mint:     mint,
		Decimals: decimals,
	}, nil
}

// lookupDecimals confirms a mint's decimals on-chain, defaulting when no
// chain client is wired or the read fails. Quote sizing depends on this
// value, so the on-chain read is preferred whenever possible.
func (r *Registry) lookupDecimals(ctx context.Context, mint solana.PublicKey) uint8 {
	if r.chain == nil {
		return DefaultDecimals
	}
	decimals, err := r.chain.GetMintDecimals(ctx, mint)
	if err != nil {
		r.logger.Warn("failed to read mint decimals, assuming default",
			zap.String("mint", mint.String()),
			zap.Error(err))
		return DefaultDecimals
	}
	return decimals
}
