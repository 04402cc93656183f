package jupiter

import (
	"encoding/json"

	"github.com/gagliardetto/solana-go"
)

// QuoteResponse mirrors the aggregator's /quote payload. RoutePlan stays
// opaque; it is round-tripped into the swap call untouched.
type QuoteResponse struct {
	InputMint            string          `json:"inputMint"`
	InAmount             string          `json:"inAmount"`
	OutputMint           string          `json:"outputMint"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          int             `json:"slippageBps"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            json.RawMessage `json:"routePlan"`
	ContextSlot          int64           `json:"contextSlot"`
}

// Quote is the validated quote handed to the transaction builder. A quote has
// an implicit expiry; build and sign promptly or fetch a new one.
type Quote struct {
	InputMint    solana.PublicKey
	OutputMint   solana.PublicKey
	InAmountRaw  uint64
	OutAmountRaw uint64
	SlippageBps  uint16
	// WrapSOL is set when a native-SOL leg was quoted through the wrapped
	// mint; the orchestrator handles wrapping explicitly.
	WrapSOL bool
	// raw is the untouched aggregator response, forwarded verbatim to the
	// transaction-assembly endpoint.
	raw json.RawMessage
}

// swapRequest is the body of the aggregator's transaction-assembly call.
type swapRequest struct {
	QuoteResponse           json.RawMessage  `json:"quoteResponse"`
	UserPublicKey           string           `json:"userPublicKey"`
	WrapAndUnwrapSol        bool             `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit bool             `json:"dynamicComputeUnitLimit"`
	DynamicSlippage         *dynamicSlippage `json:"dynamicSlippage,omitempty"`
}

type dynamicSlippage struct {
	MaxBps int `json:"maxBps"`
}

// swapResponse is the aggregator's transaction-assembly reply.
type swapResponse struct {
	SwapTransaction      string `json:"swapTransaction"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// apiErrorBody is the aggregator's error envelope.
type apiErrorBody struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

// PreparedTransaction is a deserialized, unsigned swap transaction with a
// freshly refreshed blockhash.
type PreparedTransaction struct {
	Tx              *solana.Transaction
	RecentBlockhash solana.Hash
}
