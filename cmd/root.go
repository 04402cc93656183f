package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jup-swap",
	Short: "A CLI for swapping SPL tokens through the Jupiter aggregator",
	Long: `jup-swap is a command-line tool that swaps one Solana token for another
using the Jupiter aggregator. It resolves symbols or mint addresses, fetches
the best route, and either signs with a configured custodial wallet or hands
back an unsigned transaction for the wallet owner to sign.

Examples:
  jup-swap swap 0.5 SOL to USDC --wallet <address>
  jup-swap swap 100 USDC to BONK --wallet <address> --yes
  jup-swap list-tokens
  jup-swap status <tx-signature>`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}
