package commands

import (
	"github.com/spf13/cobra"

	"github.com/user/slack-gpt-relay/internal/commands/ask"
	"github.com/user/slack-gpt-relay/internal/commands/serve"
)

var rootCmd = &cobra.Command{
	Use:          "relay",
	Short:        "Answer Slack mentions with a chat-completion model",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serve.NewCommand())
	rootCmd.AddCommand(ask.NewCommand())
}

func Execute() error {
	return rootCmd.Execute()
}
