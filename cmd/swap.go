package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jup-swap/config"
	"jup-swap/pkg/chain"
	"jup-swap/pkg/jupiter"
	"jup-swap/pkg/parser"
	"jup-swap/pkg/signer"
	"jup-swap/pkg/swap"
	"jup-swap/pkg/token"
	"jup-swap/pkg/types"
)

var (
	walletAddr string
	exactOut   bool
	noConfirm  bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <from-token> to <to-token>",
	Short: "Swap one Solana token for another",
	Long: `Swap tokens through the Jupiter aggregator.

The amount denominates the input token by default; pass --exact-out to
denominate the output token instead. Tokens can be symbols (SOL, USDC),
mint addresses, or pasted explorer links.

If --wallet matches the configured custodial wallet the transaction is
signed and broadcast here. Any other wallet gets back an unsigned
transaction to sign and submit itself.

Examples:
  jup-swap swap 0.5 SOL to USDC --wallet <address>
  jup-swap swap 20 USDC to SOL --wallet <address> --exact-out
  jup-swap swap 1 SOL to USDC --wallet <address> --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&walletAddr, "wallet", "", "Wallet address performing the swap (defaults to the custodial wallet)")
	swapCmd.Flags().BoolVar(&exactOut, "exact-out", false, "Amount denominates the output token")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
	order, err := parser.ParseOrder(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	logger := newLogger(verbose)
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chainClient, err := chain.NewRPCClient(cfg.RPCURL, cfg.Commitment)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	policy, err := signer.NewPolicy(cfg.WalletPrivateKey, logger)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	wallet, err := resolveWallet(policy)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	mode := types.ExactIn
	if exactOut {
		mode = types.ExactOut
	}
	req := &types.SwapRequest{
		FromToken:     order.From,
		ToToken:       order.To,
		Amount:        order.Amount,
		Mode:          mode,
		WalletAddress: wallet,
	}

	if !noConfirm && !jsonOutput {
		fmt.Printf("\nSwapping %s %s for %s (wallet %s)\n", order.Amount, order.From, order.To, wallet)
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	registry := token.NewRegistry(chainClient, token.NewListClient(""), logger)
	aggregator := jupiter.NewClient(cfg.JupiterBaseURL, cfg.JupiterAPIKey, chainClient, logger)
	orchestrator := swap.NewOrchestrator(registry, aggregator, policy, chainClient, logger)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Executing swap..."
		s.Start()
	}

	result := orchestrator.Swap(context.Background(), req)

	if !jsonOutput {
		s.Stop()
	}

	if jsonOutput {
		printResultJSON(result)
	} else {
		displayResult(result, req)
	}

	if !result.Succeeded() {
		os.Exit(1)
	}
}

func resolveWallet(policy *signer.Policy) (solana.PublicKey, error) {
	if walletAddr != "" {
		wallet, err := solana.PublicKeyFromBase58(walletAddr)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid wallet address: %w", err)
		}
		return wallet, nil
	}

	server := policy.ServerWallet()
	if server.IsZero() {
		return solana.PublicKey{}, fmt.Errorf("no wallet specified. Use --wallet or configure JUP_SWAP_WALLET_PRIVATE_KEY")
	}
	return server, nil
}

func printResultJSON(result *types.SwapResult) {
	out := map[string]interface{}{
		"status": string(result.Status),
	}
	if result.TxSignature != "" {
		out["tx_signature"] = result.TxSignature
	}
	if result.UnsignedTx != "" {
		out["unsigned_tx"] = result.UnsignedTx
	}
	if result.Failure != nil {
		out["error_kind"] = string(result.Failure.Kind)
		out["error_detail"] = result.Failure.Detail
	}
	if result.Succeeded() {
		out["amount_in"] = result.AmountIn.String()
		out["amount_out"] = result.AmountOut.String()
		out["rate"] = result.Rate.String()
	}
	jsonData, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(jsonData))
}

func displayResult(result *types.SwapResult, req *types.SwapRequest) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	switch result.Status {
	case types.StatusConfirmed:
		color.Green("                     SWAP CONFIRMED")
	case types.StatusPendingSignature:
		color.Yellow("                  AWAITING SIGNATURE")
	case types.StatusSubmitted:
		color.Yellow("               SUBMITTED, STATUS UNKNOWN")
	default:
		color.Red("                      SWAP FAILED")
	}
	fmt.Println(strings.Repeat("=", 60))

	if result.Failure != nil && result.Status == types.StatusFailed {
		fmt.Printf("\n  Kind:    %s\n", color.RedString(string(result.Failure.Kind)))
		fmt.Printf("  Detail:  %s\n", result.Failure.Detail)
		fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
		return
	}

	fmt.Printf("\n  From:  %s %s\n", result.AmountIn, color.YellowString(req.FromToken))
	fmt.Printf("  To:    %s %s\n", result.AmountOut, color.YellowString(req.ToToken))
	fmt.Printf("  Rate:  %s %s/%s\n", result.Rate.StringFixed(6), req.ToToken, req.FromToken)

	switch result.Status {
	case types.StatusConfirmed:
		fmt.Printf("  Tx:    %s\n", color.CyanString(result.TxSignature))
	case types.StatusSubmitted:
		fmt.Printf("  Tx:    %s\n", color.CyanString(result.TxSignature))
		color.Yellow("\n  Confirmation timed out; the transaction may still land.")
		fmt.Println("  Check later with:")
		color.Cyan("    jup-swap status %s", result.TxSignature)
	case types.StatusPendingSignature:
		fmt.Println("\n  Sign and submit this transaction with your wallet:")
		color.Cyan("    %s", result.UnsignedTx)
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
