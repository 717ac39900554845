package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// ============================================================================
// Flag variables
// ============================================================================

var (
	notificationsAllRead  bool
	notificationsMarkRead string
	notificationsJSON     bool
)

func init() {
	rootCmd.AddCommand(notificationsCmd)

	notificationsCmd.Flags().BoolVar(&notificationsAllRead, "all-read", false, "mark every notification as read")
	notificationsCmd.Flags().StringVar(&notificationsMarkRead, "mark-read", "", "mark one notification as read by id")
	notificationsCmd.Flags().BoolVar(&notificationsJSON, "json", false, "raw JSON output")
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show the notification inbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := getClient()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if notificationsAllRead {
			if err := client.Notifications().MarkAllRead(ctx); err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			fmt.Println("All notifications marked as read.")
			return nil
		}
		if notificationsMarkRead != "" {
			if err := client.Notifications().MarkRead(ctx, notificationsMarkRead); err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			fmt.Println("Notification marked as read.")
			return nil
		}

		inbox, err := client.Notifications().List(ctx)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		if notificationsJSON {
			return printJSON(inbox)
		}
		fmt.Printf("Unread: %d\n", inbox.UnreadCount)
		for _, n := range inbox.Notifications {
			marker := " "
			if n.ReadAt == nil {
				marker = "*"
			}
			fmt.Printf("%s [%s] %s\n", marker, n.CreatedAt, n.Message)
		}
		return nil
	},
}
