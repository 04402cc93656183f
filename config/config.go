package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// RPCURL is the Solana RPC endpoint.
	RPCURL string
	// JupiterBaseURL is the aggregator API base; the public endpoint by
	// default.
	JupiterBaseURL string
	// JupiterAPIKey is optional and sent as x-api-key when set.
	JupiterAPIKey string
	// WalletPrivateKey is the base58 custodial key. Only the server-signing
	// path needs it; leave empty to force client-side signing for every
	// wallet.
	WalletPrivateKey string
	// Commitment is processed, confirmed, or finalized.
	Commitment string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".jup-swap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("rpc_url", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("jupiter_base_url", "https://quote-api.jup.ag/v6")
	viper.SetDefault("commitment", "confirmed")

	// Read from environment variables
	viper.SetEnvPrefix("JUP_SWAP")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		RPCURL:           viper.GetString("rpc_url"),
		JupiterBaseURL:   viper.GetString("jupiter_base_url"),
		JupiterAPIKey:    viper.GetString("jupiter_api_key"),
		WalletPrivateKey: viper.GetString("wallet_private_key"),
		Commitment:       viper.GetString("commitment"),
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL not found. Please set JUP_SWAP_RPC_URL or create a .jup-swap.yaml config file")
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
