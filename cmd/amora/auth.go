package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	amora "github.com/amoralabs/amora-go"
	"github.com/spf13/cobra"
)

// ============================================================================
// Flag variables
// ============================================================================

var (
	loginPassword string

	registerName      string
	registerPassword  string
	registerGender    string
	registerAgeRange  string
	registerLocation  string
	registerInterests []string
	registerLooking   string

	meJSON bool
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(meCmd)

	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
	loginCmd.MarkFlagRequired("password")

	registerCmd.Flags().StringVar(&registerName, "name", "", "display name")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "account password")
	registerCmd.Flags().StringVar(&registerGender, "gender", "", "gender")
	registerCmd.Flags().StringVar(&registerAgeRange, "age-range", "", "preferred partner age range (e.g. 25-35)")
	registerCmd.Flags().StringVar(&registerLocation, "location", "", "location")
	registerCmd.Flags().StringSliceVar(&registerInterests, "interests", nil, "comma-separated interests")
	registerCmd.Flags().StringVar(&registerLooking, "looking-for", "", "partner gender")
	registerCmd.MarkFlagRequired("name")
	registerCmd.MarkFlagRequired("password")

	meCmd.Flags().BoolVar(&meJSON, "json", false, "raw JSON output")
}

// persistSession stores the session in the config file so later commands can
// rebuild an authenticated client from it.
func persistSession(cfg *Config, sess *amora.AuthSession) error {
	cfg.Auth.Token = sess.Token
	cfg.Auth.UserID = sess.User.ID
	cfg.Auth.UserName = sess.User.Name
	cfg.Auth.Email = sess.User.Email
	return saveConfig(cfg)
}

// ============================================================================
// login
// ============================================================================

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and store the session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg := getAnonClient()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := client.EstablishSession(ctx); err != nil {
			return fmt.Errorf("session handshake failed: %w", err)
		}
		sess, err := client.Auth().Login(ctx, args[0], loginPassword)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		if err := persistSession(cfg, sess); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		fmt.Printf("Logged in as %s (%s)\n", sess.User.Name, sess.User.Email)
		return nil
	},
}

// ============================================================================
// register
// ============================================================================

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account and store the session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg := getAnonClient()

		opts := &amora.RegisterOptions{
			Name:                 registerName,
			Email:                args[0],
			Password:             registerPassword,
			PasswordConfirmation: registerPassword,
			Gender:               registerGender,
			AgeRange:             registerAgeRange,
			Location:             registerLocation,
			LookingForGender:     registerLooking,
			AgreedToTerms:        true,
		}
		for _, name := range registerInterests {
			name = strings.TrimSpace(name)
			if name != "" {
				opts.Interests = append(opts.Interests, amora.RegisterInterest{Name: name})
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := client.EstablishSession(ctx); err != nil {
			return fmt.Errorf("session handshake failed: %w", err)
		}
		sess, err := client.Auth().Register(ctx, opts)
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		if err := persistSession(cfg, sess); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		fmt.Printf("Registered as %s (%s)\n", sess.User.Name, sess.User.Email)
		return nil
	},
}

// ============================================================================
// logout
// ============================================================================

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the session token and clear it from the config",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg := getClient()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := client.Auth().Logout(ctx); err != nil {
			// Clear local state anyway; the token may already be invalid.
			fmt.Printf("Server logout failed (%v), clearing local session.\n", err)
		}

		cfg.Auth = ConfigAuth{}
		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}

// ============================================================================
// me
// ============================================================================

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the authenticated account",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := getClient()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := client.Auth().Me(ctx)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		if meJSON {
			return printJSON(user)
		}
		fmt.Printf("Name:     %s\n", user.Name)
		fmt.Printf("Email:    %s\n", user.Email)
		if user.Tariff != "" {
			fmt.Printf("Tariff:   %s\n", user.Tariff)
		}
		fmt.Printf("Searches: %d remaining\n", user.RemainingSearches)
		if user.EmailVerifiedAt == nil {
			fmt.Println("Email:    NOT VERIFIED")
		}
		return nil
	},
}
