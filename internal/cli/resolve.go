package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"reply_reminder_bot/internal/domain/proxy"
	"reply_reminder_bot/internal/infra/pluralkit"
)

var resolveAPIURL string

var resolveCmd = &cobra.Command{
	Use:   "resolve <messageID>",
	Short: "Look up a message on PluralKit and print who really sent it",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveAPIURL, "api-url", os.Getenv("PLURALKIT_API_URL"),
		"PluralKit API base URL (default https://api.pluralkit.me)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	client := pluralkit.NewClient(pluralkit.ClientOptions{
		BaseURL:   resolveAPIURL,
		UserAgent: "reply_reminder_bot/" + Version,
	})

	msg, err := client.Resolve(cmd.Context(), args[0])
	if errors.Is(err, proxy.ErrNotProxied) {
		fmt.Fprintf(cmd.OutOrStdout(), "message %s was not proxied\n", args[0])
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve %s: %w", args[0], err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]string{
		"id":        msg.ID,
		"original":  msg.OriginalID,
		"sender":    msg.SenderID,
		"channel":   msg.ChannelID,
		"guild":     msg.GuildID,
		"timestamp": msg.Timestamp.UTC().Format(time.RFC3339),
	})
}
