package swap

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"jup-swap/pkg/chain"
	"jup-swap/pkg/types"
)

const (
	// ConfirmAttempts bounds confirmation polling to a 30-second window.
	ConfirmAttempts = 30
	// ConfirmInterval is the pause between signature-status polls.
	ConfirmInterval = 1 * time.Second
)

// Broadcaster submits signed transactions and polls for their terminal
// status. It is only used on the server-signing path.
type Broadcaster struct {
	chain    chain.Client
	logger   *zap.Logger
	interval time.Duration
}

// NewBroadcaster creates a broadcaster over the given chain client.
func NewBroadcaster(chainClient chain.Client, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{chain: chainClient, logger: logger, interval: ConfirmInterval}
}

// SetPollInterval overrides the pause between confirmation polls.
func (b *Broadcaster) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		b.interval = interval
	}
}

// Broadcast submits a signed transaction with preflight enabled, so a
// malformed transaction fails here with a simulation error instead of being
// submitted to the cluster.
func (b *Broadcaster) Broadcast(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := b.chain.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, types.NewSwapError(types.ErrBroadcastRejected, "transaction rejected by preflight", err)
	}
	b.logger.Info("transaction broadcast", zap.String("signature", sig.String()))
	return sig, nil
}

// AwaitConfirmation polls the signature status once a second for up to
// ConfirmAttempts. A confirmed or finalized status with no error is success;
// an on-chain error field is terminal failure. Exhausting the window returns
// ConfirmationTimeout, which is ambiguous: the transaction may still land, so
// the caller must report it as status-unknown and must never resubmit.
func (b *Broadcaster) AwaitConfirmation(ctx context.Context, sig solana.Signature) error {
	for attempt := 0; attempt < ConfirmAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return types.NewSwapError(types.ErrConfirmationTimeout, "confirmation polling cancelled", ctx.Err())
			case <-time.After(b.interval):
			}
		}

		status, err := b.chain.GetSignatureStatus(ctx, sig)
		if err != nil {
			// Transient RPC failures don't consume the transaction's chances
			// of confirming; keep polling.
			b.logger.Warn("signature status poll failed", zap.Error(err))
			continue
		}
		if status == nil {
			continue
		}

		if status.Err != nil {
			return types.NewSwapError(types.ErrOnChainFailure,
				fmt.Sprintf("transaction %s failed on-chain: %v", sig, status.Err), nil)
		}
		if status.Confirmed {
			return nil
		}
	}

	return types.NewSwapError(types.ErrConfirmationTimeout,
		fmt.Sprintf("transaction %s not confirmed within %d seconds; it may still land", sig, ConfirmAttempts), nil)
}
