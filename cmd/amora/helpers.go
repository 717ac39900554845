package main

import (
	"encoding/json"
	"fmt"
	"os"

	amora "github.com/amoralabs/amora-go"
)

// clientOpts builds client options from the persisted config.
func clientOpts(cfg *Config) []amora.ClientOption {
	var opts []amora.ClientOption
	if cfg.Default.BaseURL != "" {
		opts = append(opts, amora.WithBaseURL(cfg.Default.BaseURL))
	} else if cfg.Default.Environment != "" && cfg.Default.Environment != "production" {
		opts = append(opts, amora.WithEnvironment(amora.Environment(cfg.Default.Environment)))
	}
	return opts
}

// getClient creates a client authenticated with the stored token.
func getClient() (*amora.Client, *Config) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Auth.Token == "" {
		fmt.Fprintln(os.Stderr, "Not logged in. Run 'amora login <email>' first.")
		os.Exit(1)
	}
	return amora.NewClient(cfg.Auth.Token, clientOpts(cfg)...), cfg
}

// getAnonClient creates an unauthenticated client (login, register, reset).
func getAnonClient() (*amora.Client, *Config) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return amora.NewClient("", clientOpts(cfg)...), cfg
}

// printJSON pretty-prints a value as JSON.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
