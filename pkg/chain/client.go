// Package chain wraps the Solana JSON-RPC surface the swap pipeline needs.
package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SignatureStatus is the observed confirmation state of a broadcast
// transaction. A nil *SignatureStatus means the cluster has not seen the
// signature yet.
type SignatureStatus struct {
	// Err is non-nil when the transaction executed on-chain with an error.
	Err any
	// Confirmed is true once the transaction reached confirmed or finalized
	// commitment.
	Confirmed bool
}

// Client is the chain RPC surface consumed by the swap pipeline. The concrete
// implementation talks to a Solana node; tests substitute doubles.
type Client interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error)
	GetMintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)
}

// RPCClient implements Client over a Solana RPC node.
type RPCClient struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

// NewRPCClient connects to the given RPC endpoint. The commitment string is
// one of "processed", "confirmed", "finalized"; anything else falls back to
// confirmed.
func NewRPCClient(rpcURL, commitment string) (*RPCClient, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL not configured")
	}

	return &RPCClient{
		client:     rpc.New(rpcURL),
		commitment: parseCommitment(commitment),
	}, nil
}

func parseCommitment(commitment string) rpc.CommitmentType {
	switch strings.ToLower(commitment) {
	case "finalized":
		return rpc.CommitmentFinalized
	case "processed":
		return rpc.CommitmentProcessed
	default:
		return rpc.CommitmentConfirmed
	}
}

// GetBalance returns the account's lamport balance.
func (c *RPCClient) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	balance, err := c.client.GetBalance(ctx, account, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance.Value, nil
}

// GetLatestBlockhash fetches a fresh blockhash at confirmed commitment so the
// transaction stays valid through signing and broadcast.
func (c *RPCClient) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	recent, err := c.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	return recent.Value.Blockhash, nil
}

// SendTransaction broadcasts a signed transaction with preflight enabled so
// malformed transactions fail with a simulation error instead of landing.
func (c *RPCClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// GetSignatureStatus returns the confirmation state of a signature, or nil if
// the cluster has not seen it.
func (c *RPCClient) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	out, err := c.client.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to get signature status: %w", err)
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return nil, nil
	}

	st := out.Value[0]
	return &SignatureStatus{
		Err: st.Err,
		Confirmed: st.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
			st.ConfirmationStatus == rpc.ConfirmationStatusFinalized,
	}, nil
}

// GetMintDecimals reads the decimals field from a mint account. The decimals
// byte sits at offset 44 of the SPL mint layout.
func (c *RPCClient) GetMintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	accountInfo, err := c.client.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to get mint account info: %w", err)
	}
	if accountInfo.Value == nil {
		return 0, fmt.Errorf("mint account not found")
	}

	data := accountInfo.Value.Data.GetBinary()
	if len(data) < 45 {
		return 0, fmt.Errorf("invalid mint account data")
	}
	return data[44], nil
}
