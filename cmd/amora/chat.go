package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	amora "github.com/amoralabs/amora-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ============================================================================
// Flag variables
// ============================================================================

var (
	chatsJSON bool

	chatHistoryJSON bool

	sendFile    string
	sendSticker string
	sendJSON    bool

	editJSON bool
)

func init() {
	rootCmd.AddCommand(chatsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)

	chatsCmd.Flags().BoolVar(&chatsJSON, "json", false, "raw JSON output")
	chatCmd.Flags().BoolVar(&chatHistoryJSON, "json", false, "print history as JSON and exit instead of watching")

	sendCmd.Flags().StringVar(&sendFile, "file", "", "path of a file to attach")
	sendCmd.Flags().StringVar(&sendSticker, "sticker", "", "sticker token to append")
	sendCmd.Flags().BoolVar(&sendJSON, "json", false, "raw JSON output")

	editCmd.Flags().BoolVar(&editJSON, "json", false, "raw JSON output")
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, arg)
	}
	return id, nil
}

// ============================================================================
// chats
// ============================================================================

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "List your chats",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := getClient()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		chats, err := client.Chats().List(ctx)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		if chatsJSON {
			return printJSON(chats)
		}
		if len(chats) == 0 {
			fmt.Println("No chats yet.")
			return nil
		}
		for _, c := range chats {
			unread := ""
			if c.UnreadCount > 0 {
				unread = fmt.Sprintf(" (%d unread)", c.UnreadCount)
			}
			fmt.Printf("%6d  %-20s %s%s\n", c.ID, c.PartnerName, c.LastMessageContent, unread)
		}
		return nil
	},
}

// ============================================================================
// chat (watch)
// ============================================================================

var chatCmd = &cobra.Command{
	Use:   "chat <chat-id>",
	Short: "Watch a conversation",
	Long:  "Open a conversation and print messages as they arrive, until interrupted.\nWith --json, print the current history once and exit.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg := getClient()
		chatID, err := parseID(args[0], "chat id")
		if err != nil {
			return err
		}

		if chatHistoryJSON {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			messages, err := client.Chats().History(ctx, chatID)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			return printJSON(messages)
		}

		log, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer log.Sync()

		client = amora.NewClient(cfg.Auth.Token,
			append(clientOpts(cfg), amora.WithLogger(log))...)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store := amora.NewChatStore()
		syncer := amora.NewSyncer(client, store, cfg.Auth.UserID, nil)
		sess := syncer.Open(ctx, chatID)
		defer sess.Close()

		fmt.Printf("Watching chat %d (Ctrl-C to stop)\n", chatID)

		printed := make(map[int64]bool)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				fmt.Println()
				return nil
			case <-ticker.C:
				for _, m := range sess.Messages() {
					if m.Pending || printed[m.ID] {
						continue
					}
					printed[m.ID] = true
					printMessage(cfg, m)
				}
			}
		}
	},
}

func printMessage(cfg *Config, m amora.Message) {
	who := "partner"
	if m.UserID == cfg.Auth.UserID {
		who = "me"
	}
	body := m.Content
	if m.FileURL != "" {
		body = fmt.Sprintf("%s [file: %s]", body, m.FileName)
	}
	fmt.Printf("[%s] %-7s %s\n", m.CreatedAt, who, body)
}

// ============================================================================
// send
// ============================================================================

var sendCmd = &cobra.Command{
	Use:   "send <chat-id> [text]",
	Short: "Send a message",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := getClient()
		chatID, err := parseID(args[0], "chat id")
		if err != nil {
			return err
		}

		draft := &amora.MessageDraft{}
		if len(args) > 1 {
			draft.Content = args[1]
		}
		if sendSticker != "" {
			draft.AttachSticker(sendSticker)
		}
		if sendFile != "" {
			f, err := os.Open(sendFile)
			if err != nil {
				return fmt.Errorf("cannot open attachment: %w", err)
			}
			defer f.Close()
			draft.File = &amora.DraftFile{
				Name:   filepath.Base(sendFile),
				Reader: f,
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		msg, err := client.Chats().Send(ctx, chatID, draft)
		if err != nil {
			return fmt.Errorf("send failed: %w", err)
		}

		if sendJSON {
			return printJSON(msg)
		}
		fmt.Printf("Sent message %d\n", msg.ID)
		return nil
	},
}

// ============================================================================
// edit / delete
// ============================================================================

var editCmd = &cobra.Command{
	Use:   "edit <message-id> <content>",
	Short: "Edit one of your messages",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := getClient()
		messageID, err := parseID(args[0], "message id")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		msg, err := client.Messages().Edit(ctx, messageID, args[1])
		if err != nil {
			return fmt.Errorf("edit failed: %w", err)
		}

		if editJSON {
			return printJSON(msg)
		}
		fmt.Printf("Edited message %d\n", msg.ID)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <message-id>",
	Short: "Delete one of your messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := getClient()
		messageID, err := parseID(args[0], "message id")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := client.Messages().Delete(ctx, messageID); err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
		fmt.Printf("Deleted message %d\n", messageID)
		return nil
	},
}
