package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reply_reminder_bot",
	Short: "Reminds a user about conversations waiting for their reply",
	Long: "reply_reminder_bot watches chat channels and pings the configured user when a conversation " +
		"has gone unanswered for too long. Runs on Discord or Telegram.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resolveCmd)
}
