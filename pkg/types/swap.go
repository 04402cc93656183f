package types

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// SwapMode determines which side of the swap the requested amount denominates.
type SwapMode string

const (
	// ExactIn means the amount is denominated in the input token.
	ExactIn SwapMode = "ExactIn"
	// ExactOut means the amount is denominated in the output token.
	ExactOut SwapMode = "ExactOut"
)

// SwapRequest represents a structured swap order produced by an external caller.
type SwapRequest struct {
	FromToken     string
	ToToken       string
	Amount        decimal.Decimal
	Mode          SwapMode
	WalletAddress solana.PublicKey
}

// SwapStatus is the terminal state of a swap operation.
type SwapStatus string

const (
	// StatusConfirmed means the transaction landed on-chain without an error.
	StatusConfirmed SwapStatus = "confirmed"
	// StatusPendingSignature means an unsigned transaction was returned to the
	// caller for client-side signing; no broadcast was attempted.
	StatusPendingSignature SwapStatus = "pending_signature"
	// StatusSubmitted means the transaction was broadcast but confirmation
	// polling gave up before a terminal status; the transaction may still land.
	StatusSubmitted SwapStatus = "submitted"
	// StatusFailed means the swap terminated with an error.
	StatusFailed SwapStatus = "failed"
)

// ErrorKind classifies swap failures so callers can react programmatically.
type ErrorKind string

const (
	ErrTokenNotFound        ErrorKind = "token_not_found"
	ErrInvalidAddressLength ErrorKind = "invalid_address_length"
	ErrInvalidAmount        ErrorKind = "invalid_amount"
	ErrInsufficientBalance  ErrorKind = "insufficient_balance"
	ErrQuoteUnavailable     ErrorKind = "quote_unavailable"
	ErrBuildFailed          ErrorKind = "build_failed"
	ErrInvalidKeyFormat     ErrorKind = "invalid_key_format"
	ErrSignerMismatch       ErrorKind = "signer_mismatch"
	ErrBroadcastRejected    ErrorKind = "broadcast_rejected"
	ErrOnChainFailure       ErrorKind = "on_chain_failure"
	ErrConfirmationTimeout  ErrorKind = "confirmation_timeout"
)

// SwapError carries a machine-readable kind alongside a human-readable detail.
type SwapError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *SwapError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *SwapError) Unwrap() error {
	return e.Err
}

// NewSwapError creates a SwapError with the given kind and detail.
func NewSwapError(kind ErrorKind, detail string, err error) *SwapError {
	return &SwapError{Kind: kind, Detail: detail, Err: err}
}

// SwapResult is the uniform outcome of a swap operation. The success fields
// or Failure are populated depending on Status.
type SwapResult struct {
	Status      SwapStatus
	TxSignature string
	// UnsignedTx holds the base64-serialized unsigned transaction on the
	// client-signing path.
	UnsignedTx string
	AmountIn   decimal.Decimal
	AmountOut  decimal.Decimal
	Rate       decimal.Decimal
	Failure    *SwapError
}

// Succeeded reports whether the swap reached a non-failure terminal state.
func (r *SwapResult) Succeeded() bool {
	return r.Status != StatusFailed
}

// FailureResult wraps a SwapError into a failed SwapResult.
func FailureResult(err *SwapError) *SwapResult {
	return &SwapResult{Status: StatusFailed, Failure: err}
}
