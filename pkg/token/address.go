package token

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Base58-encoded 32-byte public keys are 43 or 44 characters long.
const (
	minAddressLen = 43
	maxAddressLen = 44
)

// ErrInvalidLength marks input that is base58 but cannot yield a 32-byte key.
var ErrInvalidLength = errors.New("invalid address length")

// ErrNotAnAddress marks input that is not base58 at all; the registry falls
// through to the remote token list for these.
var ErrNotAnAddress = errors.New("not a base58 address")

var base58Run = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{43,44}`)

// ParseAddress validates a candidate mint address and returns the decoded
// public key. It is the single entry point for address validation; anything
// holding a solana.PublicKey downstream went through here or the known table.
//
// Input handling, in order: URLs are reduced to their likely address path
// segment, the exact string is tried, and finally a 43-44 character base58
// run is extracted from longer base58-charset strings (vanity suffixes,
// pasted fragments).
func ParseAddress(input string) (solana.PublicKey, error) {
	candidate := strings.TrimSpace(input)
	if strings.Contains(candidate, "://") {
		candidate = stripURL(candidate)
	}

	if len(candidate) >= minAddressLen && len(candidate) <= maxAddressLen {
		pk, err := solana.PublicKeyFromBase58(candidate)
		if err == nil {
			return pk, nil
		}
	}

	// Address-length-or-longer base58 input: the address may carry a trailing
	// vanity suffix. Try to pull out a valid 43-44 character run. Short
	// base58 strings are symbols, not mangled addresses, and fall through to
	// the remote token list instead.
	if len(candidate) >= minAddressLen && isBase58(candidate) {
		for _, match := range base58Run.FindAllString(candidate, -1) {
			if pk, err := solana.PublicKeyFromBase58(match); err == nil {
				return pk, nil
			}
			// A 44-character window may have swallowed one vanity character
			// after a 43-character key.
			if len(match) == maxAddressLen {
				if pk, err := solana.PublicKeyFromBase58(match[:minAddressLen]); err == nil {
					return pk, nil
				}
			}
		}
		return solana.PublicKey{}, fmt.Errorf("%w: %q is %d characters", ErrInvalidLength, candidate, len(candidate))
	}

	return solana.PublicKey{}, fmt.Errorf("%w: %q", ErrNotAnAddress, input)
}

// stripURL reduces a marketplace or explorer link to the path segment most
// likely to be the mint address.
func stripURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	// Prefer the last segment that looks like an address.
	for i := len(segments) - 1; i >= 0; i-- {
		if base58Run.MatchString(segments[i]) {
			return segments[i]
		}
	}
	if len(segments) > 0 {
		return segments[len(segments)-1]
	}
	return raw
}

func isBase58(s string) bool {
	if s == "" {
		return false
	}
	_, err := base58.Decode(s)
	return err == nil
}
