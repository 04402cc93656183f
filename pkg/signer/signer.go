// Package signer decides between server-side and client-side signing of a
// prepared swap transaction.
package signer

import (
	"encoding/base64"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"jup-swap/pkg/jupiter"
	"jup-swap/pkg/types"
)

// Outcome is the result of applying the signing policy to a prepared
// transaction. Exactly one of SignedTx or UnsignedTx is set.
type Outcome struct {
	// ServerSigned is true when the custodial key signed the transaction and
	// it is ready to broadcast.
	ServerSigned bool
	SignedTx     *solana.Transaction
	// UnsignedTx is the base64-serialized unsigned transaction returned to
	// the caller for client-side signing.
	UnsignedTx string
}

// Policy selects the signing mode with a single predicate: does the request's
// wallet equal the process's own custodied public key? Server signing is only
// ever valid for that one wallet; user keys are never held here.
type Policy struct {
	key    solana.PrivateKey
	wallet solana.PublicKey
	logger *zap.Logger
}

// NewPolicy creates a signing policy from base58-encoded custodial key
// material. An empty key yields a client-sign-only policy. A malformed key is
// rejected up front so the failure surfaces before any network work.
func NewPolicy(privateKeyBase58 string, logger *zap.Logger) (*Policy, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Policy{logger: logger}
	if privateKeyBase58 == "" {
		return p, nil
	}

	key, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, types.NewSwapError(types.ErrInvalidKeyFormat, "custodial private key is not valid base58 key material", err)
	}
	p.key = key
	p.wallet = key.PublicKey()
	return p, nil
}

// ServerWallet returns the custodial public key, or the zero key when no
// custodial key is configured.
func (p *Policy) ServerWallet() solana.PublicKey {
	return p.wallet
}

// Sign applies the policy. The server path signs with the custodial key; the
// client path serializes the unsigned transaction for the caller to sign and
// relay separately.
func (p *Policy) Sign(prepared *jupiter.PreparedTransaction, wallet solana.PublicKey) (*Outcome, error) {
	if p.key != nil && wallet.Equals(p.wallet) {
		return p.serverSign(prepared, wallet)
	}
	return p.clientSign(prepared)
}

func (p *Policy) serverSign(prepared *jupiter.PreparedTransaction, wallet solana.PublicKey) (*Outcome, error) {
	// Unreachable if the mode predicate is correct; checked anyway so a
	// key/wallet mix-up can never produce a mis-signed transaction.
	if !p.key.PublicKey().Equals(wallet) {
		return nil, types.NewSwapError(types.ErrSignerMismatch, "custodial key does not match the requested wallet", nil)
	}

	_, err := prepared.Tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(p.wallet) {
			return &p.key
		}
		return nil
	})
	if err != nil {
		return nil, types.NewSwapError(types.ErrSignerMismatch, "failed to sign transaction with custodial key", err)
	}

	p.logger.Debug("transaction signed server-side", zap.String("wallet", wallet.String()))
	return &Outcome{ServerSigned: true, SignedTx: prepared.Tx}, nil
}

func (p *Policy) clientSign(prepared *jupiter.PreparedTransaction) (*Outcome, error) {
	raw, err := prepared.Tx.MarshalBinary()
	if err != nil {
		return nil, types.NewSwapError(types.ErrBuildFailed, "failed to serialize unsigned transaction", err)
	}
	return &Outcome{UnsignedTx: base64.StdEncoding.EncodeToString(raw)}, nil
}
