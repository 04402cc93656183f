// Package jupiter talks to the Jupiter v6 aggregator: price quotes and
// prebuilt swap transactions.
package jupiter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"jup-swap/pkg/chain"
	"jup-swap/pkg/retry"
	"jup-swap/pkg/token"
	"jup-swap/pkg/types"
)

// DefaultBaseURL is the public Jupiter v6 API.
const DefaultBaseURL = "https://quote-api.jup.ag/v6"

const (
	// DefaultSlippageBps is the tolerance requested on every quote.
	DefaultSlippageBps = 50
	// MaxDynamicSlippageBps caps the builder's secondary slippage on top of
	// the quote's own tolerance.
	MaxDynamicSlippageBps = 50
)

const (
	quoteAttempts    = 3
	quoteTimeout     = 10 * time.Second
	quoteRetryPause  = 1 * time.Second
	fallbackAttempts = 2
	buildAttempts    = 2
)

// apiError is an aggregator response with a non-2xx status.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("aggregator returned status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("aggregator returned status %d", e.Status)
}

// retryableStatus reports whether an aggregator failure is worth repeating.
// 400 means the request itself is malformed and 404 means no token or route
// exists; neither changes on retry.
func retryableStatus(err error) bool {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.Status != http.StatusBadRequest && apiErr.Status != http.StatusNotFound
	}
	return true
}

// Client wraps the aggregator's quote and transaction-assembly endpoints.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	chain   chain.Client
	logger  *zap.Logger
}

// NewClient creates an aggregator client. baseURL falls back to the public
// endpoint; apiKey may be empty. chainClient provides the blockhash refresh
// during transaction building.
func NewClient(baseURL, apiKey string, chainClient chain.Client, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: quoteTimeout},
		chain:   chainClient,
		logger:  logger,
	}
}

// GetQuote fetches the best route for swapping amountRaw base units between
// the two tokens. Native-SOL legs are quoted through the wrapped mint with
// the wrap flag set. If all attempts for a native-leg quote fail, one fresh
// fallback round treats the leg as literal wrapped SOL before giving up.
func (c *Client) GetQuote(ctx context.Context, input, output token.Descriptor, amountRaw uint64, mode types.SwapMode) (*Quote, error) {
	wrap := input.Native || output.Native

	quote, err := c.quoteWithRetry(ctx, input.Mint, output.Mint, amountRaw, mode, wrap, quoteAttempts)
	if err == nil {
		return quote, nil
	}

	if wrap {
		c.logger.Warn("native-leg quote exhausted retries, retrying as wrapped SOL", zap.Error(err))
		quote, fallbackErr := c.quoteWithRetry(ctx, input.Mint, output.Mint, amountRaw, mode, false, fallbackAttempts)
		if fallbackErr == nil {
			return quote, nil
		}
		err = fallbackErr
	}

	return nil, types.NewSwapError(types.ErrQuoteUnavailable, quoteFailureDetail(err), err)
}

func quoteFailureDetail(err error) string {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound:
			return "no route found for this token pair"
		case http.StatusBadRequest:
			return "aggregator rejected the quote request as malformed"
		}
	}
	return "quote retries exhausted"
}

func (c *Client) quoteWithRetry(ctx context.Context, inputMint, outputMint solana.PublicKey, amountRaw uint64, mode types.SwapMode, wrap bool, attempts int) (*Quote, error) {
	var quote *Quote
	err := retry.Do(ctx, retry.Config{
		Attempts: attempts,
		Delay:    quoteRetryPause,
		Timeout:  quoteTimeout,
	}, func(ctx context.Context) error {
		q, err := c.fetchQuote(ctx, inputMint, outputMint, amountRaw, mode, wrap)
		if err != nil {
			return err
		}
		quote = q
		return nil
	}, retryableStatus)
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (c *Client) fetchQuote(ctx context.Context, inputMint, outputMint solana.PublicKey, amountRaw uint64, mode types.SwapMode, wrap bool) (*Quote, error) {
	params := url.Values{}
	params.Set("inputMint", inputMint.String())
	params.Set("outputMint", outputMint.String())
	params.Set("amount", strconv.FormatUint(amountRaw, 10))
	params.Set("slippageBps", strconv.Itoa(DefaultSlippageBps))
	params.Set("onlyDirectRoutes", "false")
	if mode == types.ExactOut {
		params.Set("swapMode", "ExactOut")
	}
	if wrap {
		params.Set("wrapAndUnwrapSol", "true")
	}

	body, err := c.get(ctx, c.baseURL+"/quote?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp QuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	return parseQuote(&resp, body, wrap)
}

func parseQuote(resp *QuoteResponse, raw []byte, wrap bool) (*Quote, error) {
	inMint, err := solana.PublicKeyFromBase58(resp.InputMint)
	if err != nil {
		return nil, fmt.Errorf("quote carries invalid input mint %q: %w", resp.InputMint, err)
	}
	outMint, err := solana.PublicKeyFromBase58(resp.OutputMint)
	if err != nil {
		return nil, fmt.Errorf("quote carries invalid output mint %q: %w", resp.OutputMint, err)
	}
	inAmount, err := strconv.ParseUint(resp.InAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("quote carries invalid inAmount %q: %w", resp.InAmount, err)
	}
	outAmount, err := strconv.ParseUint(resp.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("quote carries invalid outAmount %q: %w", resp.OutAmount, err)
	}
	if resp.SlippageBps < 0 || resp.SlippageBps > math.MaxUint16 {
		return nil, fmt.Errorf("quote carries invalid slippageBps %d", resp.SlippageBps)
	}

	return &Quote{
		InputMint:    inMint,
		OutputMint:   outMint,
		InAmountRaw:  inAmount,
		OutAmountRaw: outAmount,
		SlippageBps:  uint16(resp.SlippageBps),
		WrapSOL:      wrap,
		raw:          raw,
	}, nil
}

// BuildTransaction asks the aggregator to assemble a transaction for the
// quote, then deserializes it and swaps in a fresh blockhash at confirmed
// commitment so the window between build and signing stays as small as
// possible. Auto-wrapping is always disabled here so native-asset handling
// stays under the caller's control and fee cost stays predictable.
func (c *Client) BuildTransaction(ctx context.Context, quote *Quote, wallet solana.PublicKey) (*PreparedTransaction, error) {
	reqBody, err := json.Marshal(swapRequest{
		QuoteResponse:           quote.raw,
		UserPublicKey:           wallet.String(),
		WrapAndUnwrapSol:        false,
		DynamicComputeUnitLimit: true,
		DynamicSlippage:         &dynamicSlippage{MaxBps: MaxDynamicSlippageBps},
	})
	if err != nil {
		return nil, types.NewSwapError(types.ErrBuildFailed, "failed to encode swap request", err)
	}

	var prepared *PreparedTransaction
	err = retry.Do(ctx, retry.Config{
		Attempts: buildAttempts,
		Delay:    quoteRetryPause,
		Timeout:  quoteTimeout,
	}, func(ctx context.Context) error {
		p, err := c.buildOnce(ctx, reqBody)
		if err != nil {
			return err
		}
		prepared = p
		return nil
	}, retryableStatus)
	if err != nil {
		return nil, types.NewSwapError(types.ErrBuildFailed, "transaction assembly failed", err)
	}
	return prepared, nil
}

func (c *Client) buildOnce(ctx context.Context, reqBody []byte) (*PreparedTransaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp swapResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode swap response: %w", err)
	}
	if resp.SwapTransaction == "" {
		return nil, fmt.Errorf("swap response carries no transaction")
	}

	rawTx, err := base64.StdEncoding.DecodeString(resp.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("failed to decode swap transaction: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(rawTx))
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize swap transaction: %w", err)
	}

	blockhash, err := c.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh blockhash: %w", err)
	}
	tx.Message.RecentBlockhash = blockhash

	return &PreparedTransaction{Tx: tx, RecentBlockhash: blockhash}, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create quote request: %w", err)
	}
	c.setAuth(req)
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aggregator request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read aggregator response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := ""
		var errBody apiErrorBody
		if json.Unmarshal(body, &errBody) == nil && errBody.Error != "" {
			detail = errBody.Error
		}
		return nil, &apiError{Status: resp.StatusCode, Body: detail}
	}
	return body, nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
}
