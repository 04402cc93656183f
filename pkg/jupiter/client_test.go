package jupiter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jup-swap/pkg/chain"
	"jup-swap/pkg/token"
	"jup-swap/pkg/types"
)

var (
	wsolMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	usdcMint = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

type stubChain struct {
	blockhash solana.Hash
}

func (s *stubChain) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	return 0, nil
}

func (s *stubChain) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	return s.blockhash, nil
}

func (s *stubChain) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func (s *stubChain) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*chain.SignatureStatus, error) {
	return nil, nil
}

func (s *stubChain) GetMintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	return 6, nil
}

func solDescriptor() token.Descriptor {
	return token.Descriptor{Symbol: "SOL", Mint: wsolMint, Decimals: 9, Native: true}
}

func wsolDescriptor() token.Descriptor {
	return token.Descriptor{Symbol: "WSOL", Mint: wsolMint, Decimals: 9}
}

func usdcDescriptor() token.Descriptor {
	return token.Descriptor{Symbol: "USDC", Mint: usdcMint, Decimals: 6}
}

func quoteJSON(inAmount, outAmount string) string {
	return fmt.Sprintf(`{
		"inputMint": %q,
		"inAmount": %q,
		"outputMint": %q,
		"outAmount": %q,
		"otherAmountThreshold": %q,
		"swapMode": "ExactIn",
		"slippageBps": 50,
		"priceImpactPct": "0.0123",
		"routePlan": [{"swapInfo": {"ammKey": "opaque"}, "percent": 100}],
		"contextSlot": 123456
	}`, wsolMint, inAmount, usdcMint, outAmount, outAmount)
}

// testSwapTransaction builds a serialized unsigned transaction the way the
// aggregator would return one.
func testSwapTransaction(t *testing.T, wallet solana.PublicKey) string {
	t.Helper()

	ix := system.NewTransferInstruction(1, wallet, wallet).Build()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		solana.Hash{},
		solana.TransactionPayer(wallet),
	)
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestGetQuote_Success(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/quote", r.URL.Path)
		gotQuery = r.URL.Query()
		fmt.Fprint(w, quoteJSON("1000000", "128476"))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", &stubChain{}, nil)
	quote, err := c.GetQuote(context.Background(), wsolDescriptor(), usdcDescriptor(), 1_000_000, types.ExactIn)
	require.NoError(t, err)

	assert.Equal(t, wsolMint, quote.InputMint)
	assert.Equal(t, usdcMint, quote.OutputMint)
	assert.Equal(t, uint64(1_000_000), quote.InAmountRaw)
	assert.Equal(t, uint64(128_476), quote.OutAmountRaw)
	assert.Equal(t, uint16(50), quote.SlippageBps)
	assert.False(t, quote.WrapSOL)

	assert.Equal(t, []string{wsolMint.String()}, gotQuery["inputMint"])
	assert.Equal(t, []string{usdcMint.String()}, gotQuery["outputMint"])
	assert.Equal(t, []string{"1000000"}, gotQuery["amount"])
	assert.Equal(t, []string{"50"}, gotQuery["slippageBps"])
	assert.Equal(t, []string{"false"}, gotQuery["onlyDirectRoutes"])
	assert.NotContains(t, gotQuery, "swapMode")
}

func TestGetQuote_ExactOutSetsSwapMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ExactOut", r.URL.Query().Get("swapMode"))
		fmt.Fprint(w, quoteJSON("1000000", "128476"))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", &stubChain{}, nil)
	_, err := c.GetQuote(context.Background(), usdcDescriptor(), wsolDescriptor(), 128_476, types.ExactOut)
	require.NoError(t, err)
}

func TestGetQuote_NativeInputSetsWrapFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("wrapAndUnwrapSol"))
		fmt.Fprint(w, quoteJSON("1000000", "128476"))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", &stubChain{}, nil)
	quote, err := c.GetQuote(context.Background(), solDescriptor(), usdcDescriptor(), 1_000_000, types.ExactIn)
	require.NoError(t, err)
	assert.True(t, quote.WrapSOL)
}

func TestGetQuote_RejectsOutOfRangeSlippage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := strings.Replace(quoteJSON("1000000", "128476"), `"slippageBps": 50`, `"slippageBps": 70000`, 1)
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", &stubChain{}, nil)
	_, err := c.GetQuote(context.Background(), wsolDescriptor(), usdcDescriptor(), 1_000_000, types.ExactIn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slippageBps")
}

func TestGetQuote_RetriesTransientFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, quoteJSON("1000000", "128476"))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", &stubChain{}, nil)
	_, err := c.GetQuote(context.Background(), wsolDescriptor(), usdcDescriptor(), 1_000_000, types.ExactIn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetQuote_BadRequestNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "invalid amount"}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", &stubChain{}, nil)
	_, err := c.GetQuote(context.Background(), wsolDescriptor(), usdcDescriptor(), 1_000_000, types.ExactIn)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "400 must not be retried")

	var swapErr *types.SwapError
	require.ErrorAs(t, err, &swapErr)
	assert.Equal(t, types.ErrQuoteUnavailable, swapErr.Kind)
}

func TestGetQuote_NativeFallsBackToWrappedMint(t *testing.T) {
	var wrapped []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped = append(wrapped, r.URL.Query().Get("wrapAndUnwrapSol"))
		if r.URL.Query().Get("wrapAndUnwrapSol") == "true" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error": "no route"}`)
			return
		}
		fmt.Fprint(w, quoteJSON("1000000", "128476"))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", &stubChain{}, nil)
	quote, err := c.GetQuote(context.Background(), solDescriptor(), usdcDescriptor(), 1_000_000, types.ExactIn)
	require.NoError(t, err)

	// First round quotes the native leg with the wrap flag; the fallback
	// round treats the leg as literal wrapped SOL.
	require.Len(t, wrapped, 2)
	assert.Equal(t, "true", wrapped[0])
	assert.Equal(t, "", wrapped[1])
	assert.False(t, quote.WrapSOL)
	assert.Equal(t, wsolMint, quote.InputMint)
}

func TestGetQuote_ExhaustionYieldsQuoteUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": "no route"}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", &stubChain{}, nil)
	_, err := c.GetQuote(context.Background(), solDescriptor(), usdcDescriptor(), 1_000_000, types.ExactIn)
	require.Error(t, err)

	var swapErr *types.SwapError
	require.ErrorAs(t, err, &swapErr)
	assert.Equal(t, types.ErrQuoteUnavailable, swapErr.Kind)
	assert.Contains(t, swapErr.Detail, "no route")
}

func TestBuildTransaction(t *testing.T) {
	wallet := solana.NewWallet().PublicKey()
	freshBlockhash := solana.MustHashFromBase58("GfVcyD4kkTrj4bKc7WA9sZCin9JDbdT4Zkd3EittNR1W")

	var swapBody map[string]json.RawMessage
	mux := http.NewServeMux()
	mux.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quoteJSON("1000000", "128476"))
	})
	mux.HandleFunc("/swap", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&swapBody))
		resp := map[string]interface{}{
			"swapTransaction":      testSwapTransaction(t, wallet),
			"lastValidBlockHeight": 250000000,
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := NewClient(server.URL, "", &stubChain{blockhash: freshBlockhash}, nil)
	ctx := context.Background()

	quote, err := c.GetQuote(ctx, wsolDescriptor(), usdcDescriptor(), 1_000_000, types.ExactIn)
	require.NoError(t, err)

	prepared, err := c.BuildTransaction(ctx, quote, wallet)
	require.NoError(t, err)

	// The assembly request must disable auto-wrapping and enable dynamic
	// compute with the capped secondary slippage.
	assert.JSONEq(t, "false", string(swapBody["wrapAndUnwrapSol"]))
	assert.JSONEq(t, "true", string(swapBody["dynamicComputeUnitLimit"]))
	assert.JSONEq(t, `{"maxBps": 50}`, string(swapBody["dynamicSlippage"]))
	assert.Equal(t, wallet.String(), unquote(t, swapBody["userPublicKey"]))
	assert.NotEmpty(t, swapBody["quoteResponse"])

	// The blockhash must be refreshed to the chain's current one.
	assert.Equal(t, freshBlockhash, prepared.RecentBlockhash)
	assert.Equal(t, freshBlockhash, prepared.Tx.Message.RecentBlockhash)
}

func TestBuildTransaction_ServerErrorYieldsBuildFailed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quoteJSON("1000000", "128476"))
	})
	mux.HandleFunc("/swap", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "quote expired"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := NewClient(server.URL, "", &stubChain{}, nil)
	ctx := context.Background()

	quote, err := c.GetQuote(ctx, wsolDescriptor(), usdcDescriptor(), 1_000_000, types.ExactIn)
	require.NoError(t, err)

	_, err = c.BuildTransaction(ctx, quote, solana.NewWallet().PublicKey())
	require.Error(t, err)

	var swapErr *types.SwapError
	require.ErrorAs(t, err, &swapErr)
	assert.Equal(t, types.ErrBuildFailed, swapErr.Kind)
}

func TestGetQuote_SendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sekrit", r.Header.Get("x-api-key"))
		fmt.Fprint(w, quoteJSON("1000000", "128476"))
	}))
	defer server.Close()

	c := NewClient(server.URL, "sekrit", &stubChain{}, nil)
	_, err := c.GetQuote(context.Background(), wsolDescriptor(), usdcDescriptor(), 1_000_000, types.ExactIn)
	require.NoError(t, err)
}

func unquote(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}
