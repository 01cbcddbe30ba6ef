package relay

import (
	"github.com/user/slack-gpt-relay/internal/config"
	"github.com/user/slack-gpt-relay/internal/metrics"
	"github.com/user/slack-gpt-relay/pkg/openai"
	"github.com/user/slack-gpt-relay/pkg/slack"
)

// NewPipelineFromConfig wires the Slack and completion clients described by
// cfg. A nil responder posts replies through the same Slack client.
func NewPipelineFromConfig(cfg *config.Config, m *metrics.Metrics, responder Responder) *Pipeline {
	slackClient := slack.NewClient(cfg.Slack.Token, cfg.Slack.APIURL, cfg.Serve.HTTPTimeout)
	if responder == nil {
		responder = slackClient
	}

	return NewPipeline(PipelineConfig{
		Fetcher:   slackClient,
		Completer: openai.NewClient(cfg.OpenAI.Endpoint, cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.Serve.HTTPTimeout),
		Responder: responder,
		Prompt:    cfg.OpenAI.Prompt,
		Metrics:   m,
	})
}
