package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	amora "github.com/amoralabs/amora-go"
	"github.com/spf13/cobra"
)

// ============================================================================
// Flag variables
// ============================================================================

var (
	profileName      string
	profileBio       string
	profileLocation  string
	profileInterests []string
	profileLooking   string
	profileJSON      bool
)

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileAvatarCmd)

	profileSetCmd.Flags().StringVar(&profileName, "name", "", "display name")
	profileSetCmd.Flags().StringVar(&profileBio, "bio", "", "profile bio")
	profileSetCmd.Flags().StringVar(&profileLocation, "location", "", "location")
	profileSetCmd.Flags().StringSliceVar(&profileInterests, "interests", nil, "comma-separated interests")
	profileSetCmd.Flags().StringVar(&profileLooking, "looking-for", "", "partner gender")
	profileSetCmd.Flags().BoolVar(&profileJSON, "json", false, "raw JSON output")
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your profile",
}

// ============================================================================
// profile set
// ============================================================================

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update profile fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg := getClient()

		update := &amora.ProfileUpdate{
			Name:             profileName,
			Bio:              profileBio,
			Location:         profileLocation,
			Interests:        profileInterests,
			LookingForGender: profileLooking,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := client.Profile().Update(ctx, update)
		if err != nil {
			return fmt.Errorf("update failed: %w", err)
		}

		if user.Name != cfg.Auth.UserName {
			cfg.Auth.UserName = user.Name
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: profile updated but config not saved: %v\n", err)
			}
		}

		if profileJSON {
			return printJSON(user)
		}
		fmt.Println("Profile updated.")
		return nil
	},
}

// ============================================================================
// profile avatar
// ============================================================================

var profileAvatarCmd = &cobra.Command{
	Use:   "avatar <path>",
	Short: "Upload a profile picture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := getClient()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("cannot open image: %w", err)
		}
		defer f.Close()

		name := filepath.Base(args[0])
		mimeType := mime.TypeByExtension(filepath.Ext(name))

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		user, err := client.Profile().UploadAvatar(ctx, name, mimeType, f)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		fmt.Printf("Avatar updated: %s\n", user.AvatarURL)
		return nil
	},
}
