package ask

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/user/slack-gpt-relay/internal/config"
	"github.com/user/slack-gpt-relay/internal/logger"
	"github.com/user/slack-gpt-relay/internal/relay"
)

var (
	configFile string
	envFile    string
	channelID  string
	threadTS   string
	botID      string
	dryRun     bool
	debug      bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Answer one Slack thread now, without waiting for a mention",
		RunE:  runAsk,
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "Path to config file")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to .env file")
	cmd.Flags().StringVar(&channelID, "channel", "", "Channel ID of the thread")
	cmd.Flags().StringVar(&threadTS, "thread", "", "Timestamp of the thread's root message")
	cmd.Flags().StringVar(&botID, "bot-id", "", "Bot user ID whose messages are left out of the conversation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the reply to stdout instead of posting")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("thread")
	_ = cmd.MarkFlagRequired("bot-id")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	logger.SetDebug(debug)

	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.Resolve(configFile, os.Getenv)
	if err != nil {
		return err
	}

	var responder relay.Responder
	if dryRun {
		responder = &printResponder{out: cmd.OutOrStdout()}
	}

	pipeline := relay.NewPipelineFromConfig(cfg, nil, responder)
	return Run(context.Background(), pipeline, channelID, threadTS, botID)
}

// Run answers the thread as if botID had been mentioned in it.
func Run(ctx context.Context, runner relay.Runner, channelID, threadTS, botID string) error {
	mention := relay.AppMention{
		Channel:  channelID,
		ThreadTS: threadTS,
		Text:     fmt.Sprintf("<@%s>", botID),
	}
	if err := runner.Run(ctx, uuid.NewString(), mention); err != nil {
		return fmt.Errorf("answering thread: %w", err)
	}
	return nil
}

type printResponder struct {
	out io.Writer
}

func (p *printResponder) PostReply(ctx context.Context, channelID, threadTS, text string) error {
	_, err := fmt.Fprintf(p.out, "[%s/%s]\n%s\n", channelID, threadTS, text)
	return err
}
