package cmd

import (
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

	"jup-swap/config"
	"jup-swap/pkg/chain"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-signature>",
	Short: "Check the confirmation status of a swap transaction",
	Long: `Check the on-chain status of a broadcast swap transaction by its signature.

Useful after a confirmation timeout, or for transactions signed client-side
and submitted elsewhere.

Examples:
  jup-swap status 5UfDu...Jq2b
  jup-swap status 5UfDu...Jq2b --watch
  jup-swap status 5UfDu...Jq2b --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	sig, err := solana.SignatureFromBase58(args[0])
	if err != nil {
		printError(fmt.Errorf("invalid transaction signature: %w", err))
		os.Exit(1)
	}

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

	if watchStatus {
		watchSignature(chainClient, sig, jsonOutput)
	} else {
		checkSignature(chainClient, sig, jsonOutput)
	}
}

func checkSignature(chainClient chain.Client, sig solana.Signature, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction status..."
		s.Start()
	}

	status, err := chainClient.GetSignatureStatus(context.Background(), sig)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		out := map[string]interface{}{
			"signature": sig.String(),
			"status":    statusLabel(status),
		}
		if status != nil && status.Err != nil {
			out["error"] = fmt.Sprintf("%v", status.Err)
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displaySignatureStatus(status, sig)
	}
}

func watchSignature(chainClient chain.Client, sig solana.Signature, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching transaction %s\n", color.CyanString(sig.String()))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	checkAndDisplaySignature(chainClient, sig)

	for range ticker.C {
		checkAndDisplaySignature(chainClient, sig)
	}
}

func checkAndDisplaySignature(chainClient chain.Client, sig solana.Signature) {
	status, err := chainClient.GetSignatureStatus(context.Background(), sig)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}
	displaySignatureStatus(status, sig)
}

func displaySignatureStatus(status *chain.SignatureStatus, sig solana.Signature) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Signature:  %s\n", color.CyanString(sig.String()))
	fmt.Printf("  Status:     %s\n", coloredStatusLabel(status))

	if status != nil && status.Err != nil {
		fmt.Printf("  Error:      %s\n", color.RedString(fmt.Sprintf("%v", status.Err)))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func statusLabel(status *chain.SignatureStatus) string {
	switch {
	case status == nil:
		return "unknown"
	case status.Err != nil:
		return "failed"
	case status.Confirmed:
		return "confirmed"
	default:
		return "processing"
	}
}

func coloredStatusLabel(status *chain.SignatureStatus) string {
	label := strings.ToUpper(statusLabel(status))
	switch {
	case status == nil:
		return color.HiBlackString(label)
	case status.Err != nil:
		return color.RedString(label)
	case status.Confirmed:
		return color.GreenString(label)
	default:
		return color.YellowString(label)
	}
}
