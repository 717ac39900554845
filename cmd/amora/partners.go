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
	partnersAgeRange  string
	partnersLocation  string
	partnersInterests string
	partnersJSON      bool

	interestsJSON bool
)

func init() {
	rootCmd.AddCommand(partnersCmd)
	partnersCmd.AddCommand(partnersSearchCmd)
	partnersCmd.AddCommand(interestsCmd)

	partnersSearchCmd.Flags().StringVar(&partnersAgeRange, "age-range", "", "age range filter (e.g. 25-35)")
	partnersSearchCmd.Flags().StringVar(&partnersLocation, "location", "", "location filter")
	partnersSearchCmd.Flags().StringVar(&partnersInterests, "interests", "", "comma-separated interest filter")
	partnersSearchCmd.Flags().BoolVar(&partnersJSON, "json", false, "raw JSON output")

	interestsCmd.Flags().BoolVar(&interestsJSON, "json", false, "raw JSON output")
}

var partnersCmd = &cobra.Command{
	Use:   "partners",
	Short: "Partner discovery commands",
}

// ============================================================================
// partners search
// ============================================================================

var partnersSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for a partner",
	Long:  "Run a filtered partner search. Each search consumes one of your remaining searches.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := getClient()

		filters := &amora.SearchFilters{
			AgeRange:  partnersAgeRange,
			Location:  partnersLocation,
			Interests: partnersInterests,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		profile, err := client.Partners().Search(ctx, filters)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if partnersJSON {
			return printJSON(profile)
		}
		if profile == nil {
			fmt.Println("No partner matched your filters.")
			return nil
		}
		fmt.Printf("Name:      %s, %d\n", profile.Name, profile.Age)
		if profile.Location != "" {
			fmt.Printf("Location:  %s\n", profile.Location)
		}
		if len(profile.Interests) > 0 {
			fmt.Printf("Interests: %s\n", strings.Join(profile.Interests, ", "))
		}
		return nil
	},
}

// ============================================================================
// partners interests
// ============================================================================

var interestsCmd = &cobra.Command{
	Use:   "interests",
	Short: "List the interest catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := getClient()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		interests, err := client.Partners().Interests(ctx)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		if interestsJSON {
			return printJSON(interests)
		}
		for _, name := range interests {
			fmt.Println(name)
		}
		return nil
	},
}
