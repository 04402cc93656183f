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
	"github.com/spf13/cobra"

	"jup-swap/pkg/token"
)

var (
	filterSymbol string
	searchRemote string
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List known tokens",
	Long: `List the tokens in the built-in registry, or search the remote token
list for anything else.

Examples:
  jup-swap list-tokens
  jup-swap list-tokens --symbol USD
  jup-swap list-tokens --search SAMO`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter built-in tokens by symbol")
	tokensCmd.Flags().StringVar(&searchRemote, "search", "", "Search the remote token list by symbol or name")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if searchRemote != "" {
		searchRemoteToken(searchRemote, jsonOutput)
		return
	}

	tokens := token.Known()
	if filterSymbol != "" {
		var filtered []token.Descriptor
		for _, t := range tokens {
			if strings.Contains(t.Symbol, strings.ToUpper(filterSymbol)) {
				filtered = append(filtered, t)
			}
		}
		tokens = filtered
	}

	if jsonOutput {
		out := make([]map[string]interface{}, 0, len(tokens))
		for _, t := range tokens {
			out = append(out, map[string]interface{}{
				"symbol":   t.Symbol,
				"mint":     t.Mint.String(),
				"decimals": t.Decimals,
				"native":   t.Native,
			})
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayKnownTokens(tokens)
	}
}

func searchRemoteToken(query string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Searching token list..."
		s.Start()
	}

	entry, err := token.NewListClient("").Lookup(context.Background(), query)

	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(entry, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println()
	fmt.Printf("  %-10s  %2d decimals  %s\n",
		color.YellowString(entry.Symbol),
		entry.Decimals,
		color.HiBlackString(entry.Address))
	fmt.Printf("  %s\n\n", entry.Name)
}

func displayKnownTokens(tokens []token.Descriptor) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	color.Green("                              KNOWN TOKENS")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	for _, t := range tokens {
		native := ""
		if t.Native {
			native = color.MagentaString(" (native)")
		}
		fmt.Printf("  %-10s  %2d decimals  %s%s\n",
			color.YellowString(t.Symbol),
			t.Decimals,
			color.HiBlackString(t.Mint.String()),
			native)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("\nTotal: %d tokens\n\n", len(tokens))
}
