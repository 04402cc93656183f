// Package swap composes token resolution, quoting, transaction assembly,
// signing, broadcast, and confirmation into one operation with a uniform
// result.
package swap

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"jup-swap/pkg/amount"
	"jup-swap/pkg/chain"
	"jup-swap/pkg/jupiter"
	"jup-swap/pkg/signer"
	"jup-swap/pkg/token"
	"jup-swap/pkg/types"
)

// NativeFeeBufferLamports is the safety margin kept on top of a native-SOL
// swap amount so the wallet can still pay network fees.
const NativeFeeBufferLamports uint64 = 5_000_000

// Aggregator is the quote and transaction-assembly surface of the swap
// pipeline. jupiter.Client is the production implementation.
type Aggregator interface {
	GetQuote(ctx context.Context, input, output token.Descriptor, amountRaw uint64, mode types.SwapMode) (*jupiter.Quote, error)
	BuildTransaction(ctx context.Context, quote *jupiter.Quote, wallet solana.PublicKey) (*jupiter.PreparedTransaction, error)
}

// Resolver resolves token identifiers. token.Registry is the production
// implementation.
type Resolver interface {
	Resolve(ctx context.Context, tok string) (token.Descriptor, error)
}

// Orchestrator runs the full swap pipeline sequentially; every step depends
// on the previous one's output, so nothing runs concurrently within one swap.
type Orchestrator struct {
	resolver    Resolver
	aggregator  Aggregator
	policy      *signer.Policy
	chain       chain.Client
	broadcaster *Broadcaster
	logger      *zap.Logger
}

// NewOrchestrator wires the swap pipeline together.
func NewOrchestrator(resolver Resolver, aggregator Aggregator, policy *signer.Policy, chainClient chain.Client, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		resolver:    resolver,
		aggregator:  aggregator,
		policy:      policy,
		chain:       chainClient,
		broadcaster: NewBroadcaster(chainClient, logger),
		logger:      logger,
	}
}

// Swap executes one swap request end to end and never returns an unclassified
// error: every outcome, including child-component failures, is folded into
// the SwapResult.
func (o *Orchestrator) Swap(ctx context.Context, req *types.SwapRequest) *types.SwapResult {
	// Validate before touching the network.
	if req.Amount.Sign() <= 0 {
		return types.FailureResult(types.NewSwapError(types.ErrInvalidAmount,
			fmt.Sprintf("amount must be positive, got %s", req.Amount), nil))
	}
	if req.Mode == "" {
		req.Mode = types.ExactIn
	}

	from, err := o.resolver.Resolve(ctx, req.FromToken)
	if err != nil {
		return failure(err)
	}
	to, err := o.resolver.Resolve(ctx, req.ToToken)
	if err != nil {
		return failure(err)
	}

	amountRaw, err := amount.ToSmallestUnits(req.Amount, req.Mode, from.Decimals, to.Decimals)
	if err != nil {
		return failure(err)
	}

	// A native-SOL input spends lamports directly from the wallet, so an
	// obviously underfunded swap short-circuits before the aggregator is
	// ever contacted. The buffer leaves room for network fees.
	if from.Native && req.Mode == types.ExactIn {
		if err := o.checkNativeBalance(ctx, req.WalletAddress, amountRaw); err != nil {
			return failure(err)
		}
	}

	o.logger.Info("requesting quote",
		zap.String("from", from.Mint.String()),
		zap.String("to", to.Mint.String()),
		zap.Uint64("amount_raw", amountRaw),
		zap.String("mode", string(req.Mode)))

	quote, err := o.aggregator.GetQuote(ctx, from, to, amountRaw, req.Mode)
	if err != nil {
		return failure(err)
	}

	prepared, err := o.aggregator.BuildTransaction(ctx, quote, req.WalletAddress)
	if err != nil {
		return failure(err)
	}

	outcome, err := o.policy.Sign(prepared, req.WalletAddress)
	if err != nil {
		return failure(err)
	}

	amountIn := amount.FromSmallestUnits(quote.InAmountRaw, from.Decimals)
	amountOut := amount.FromSmallestUnits(quote.OutAmountRaw, to.Decimals)
	rate := amount.Rate(amountIn, amountOut)

	if !outcome.ServerSigned {
		// Client-signing path: hand the unsigned transaction back; the
		// caller confirms through a separate relay once they sign.
		return &types.SwapResult{
			Status:     types.StatusPendingSignature,
			UnsignedTx: outcome.UnsignedTx,
			AmountIn:   amountIn,
			AmountOut:  amountOut,
			Rate:       rate,
		}
	}

	sig, err := o.broadcaster.Broadcast(ctx, outcome.SignedTx)
	if err != nil {
		return failure(err)
	}

	if err := o.broadcaster.AwaitConfirmation(ctx, sig); err != nil {
		var swapErr *types.SwapError
		if errors.As(err, &swapErr) && swapErr.Kind == types.ErrConfirmationTimeout {
			// Ambiguous, not failed: the transaction may still land, and
			// resubmitting would risk a double transfer.
			return &types.SwapResult{
				Status:      types.StatusSubmitted,
				TxSignature: sig.String(),
				AmountIn:    amountIn,
				AmountOut:   amountOut,
				Rate:        rate,
				Failure:     swapErr,
			}
		}
		return failure(err)
	}

	return &types.SwapResult{
		Status:      types.StatusConfirmed,
		TxSignature: sig.String(),
		AmountIn:    amountIn,
		AmountOut:   amountOut,
		Rate:        rate,
	}
}

func (o *Orchestrator) checkNativeBalance(ctx context.Context, wallet solana.PublicKey, amountRaw uint64) error {
	balance, err := o.chain.GetBalance(ctx, wallet)
	if err != nil {
		return types.NewSwapError(types.ErrInsufficientBalance, "failed to read wallet balance", err)
	}

	// An amount this close to the u64 ceiling can never be funded; adding the
	// buffer would wrap and let the check pass vacuously.
	if amountRaw > math.MaxUint64-NativeFeeBufferLamports {
		return types.NewSwapError(types.ErrInsufficientBalance,
			fmt.Sprintf("swap amount %d lamports exceeds any fundable balance", amountRaw), nil)
	}

	required := amountRaw + NativeFeeBufferLamports
	if balance < required {
		return types.NewSwapError(types.ErrInsufficientBalance,
			fmt.Sprintf("wallet holds %d lamports, swap needs %d including fee buffer", balance, required), nil)
	}
	return nil
}

// failure folds any error into a failed SwapResult, preserving typed kinds
// and classifying anything else as a generic build failure.
func failure(err error) *types.SwapResult {
	var swapErr *types.SwapError
	if errors.As(err, &swapErr) {
		return types.FailureResult(swapErr)
	}
	return types.FailureResult(types.NewSwapError(types.ErrBuildFailed, "swap failed", err))
}
