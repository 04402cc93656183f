// Package parser turns the CLI's "<amount> <token> to <token>" argument
// shape into a structured swap order. Anything fancier (natural language,
// chat commands) is an external caller's problem.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Order is the parsed swap argument list. Tokens keep their original case
// because mint addresses are case-sensitive base58.
type Order struct {
	Amount decimal.Decimal
	From   string
	To     string
}

// Pattern: [swap] <amount> <from> to <to>. Token fields are opaque here;
// the registry decides whether they are symbols, addresses, or links.
var orderPattern = regexp.MustCompile(`(?i)^(?:swap\s+)?(\d+\.?\d*)\s+(\S+)\s+to\s+(\S+)$`)

// ParseOrder parses a swap argument string.
// Examples:
//   - "0.5 SOL to USDC"
//   - "swap 100 USDC to BONK"
//   - "1 So111...112 to EPjF...t1v"
func ParseOrder(command string) (*Order, error) {
	matches := orderPattern.FindStringSubmatch(strings.TrimSpace(command))
	if matches == nil {
		return nil, fmt.Errorf("invalid swap format. Expected: '<amount> <token> to <token>' (e.g., '0.5 SOL to USDC')")
	}

	amt, err := decimal.NewFromString(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", matches[1], err)
	}

	return &Order{
		Amount: amt,
		From:   matches[2],
		To:     matches[3],
	}, nil
}
