package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/slack-gpt-relay/internal/logger"
	"github.com/user/slack-gpt-relay/internal/metrics"
	"github.com/user/slack-gpt-relay/pkg/openai"
	"github.com/user/slack-gpt-relay/pkg/slack"
)

//go:generate mockgen -destination=mocks/pipeline_mock.go -package=mocks github.com/user/slack-gpt-relay/internal/relay ThreadFetcher,Completer,Responder

type ThreadFetcher interface {
	FetchThread(ctx context.Context, channelID, threadTS string) (*slack.Thread, error)
}

type Completer interface {
	Complete(ctx context.Context, in openai.CompletionRequest) (openai.CompletionReply, error)
}

type Responder interface {
	PostReply(ctx context.Context, channelID, threadTS, text string) error
}

type Stage string

const (
	StageExtractBotID Stage = "extract_bot_id"
	StageFetchThread  Stage = "fetch_thread"
	StageComplete     Stage = "complete"
	StagePostReply    Stage = "post_reply"
)

// StageError records which step of a run failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Logged reports true: Run writes every StageError to the run's log before
// returning it.
func (e *StageError) Logged() bool {
	return true
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type PipelineConfig struct {
	Fetcher   ThreadFetcher
	Completer Completer
	Responder Responder
	Prompt    string
	Metrics   *metrics.Metrics
}

// Pipeline answers one mention: fetch the thread, ask the model, reply in
// the thread. It holds no per-run state and is safe for concurrent runs.
type Pipeline struct {
	fetcher   ThreadFetcher
	completer Completer
	responder Responder
	prompt    string
	metrics   *metrics.Metrics
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		fetcher:   cfg.Fetcher,
		completer: cfg.Completer,
		responder: cfg.Responder,
		prompt:    cfg.Prompt,
		metrics:   cfg.Metrics,
	}
}

func (p *Pipeline) Run(ctx context.Context, runID string, m AppMention) (err error) {
	log := logger.ForRun(runID, m.Channel, m.ThreadTS)
	start := time.Now()
	defer func() {
		result := metrics.ResultSuccess
		var se *StageError
		if errors.As(err, &se) {
			result = string(se.Stage)
			log.Error().Err(se.Err).Str("stage", result).Msg("Pipeline run failed, no reply posted")
		}
		p.metrics.RunFinished(result, time.Since(start))
	}()

	botID, err := ExtractBotID(m.Text)
	if err != nil {
		return &StageError{Stage: StageExtractBotID, Err: err}
	}

	thread, err := p.fetcher.FetchThread(ctx, m.Channel, m.ThreadTS)
	if err != nil {
		return &StageError{Stage: StageFetchThread, Err: err}
	}
	if thread.HasMore {
		log.Debug().Int("messages", len(thread.Messages)).Msg("Thread has more replies than one page, using first page only")
	}

	content := Assemble(thread.Messages, botID)
	log.Debug().
		Str("bot_id", botID).
		Int("messages", len(thread.Messages)).
		Int("content_len", len(content)).
		Msg("Conversation assembled")

	reply, err := p.completer.Complete(ctx, openai.CompletionRequest{
		SystemPrompt: p.prompt,
		UserContent:  content,
	})
	if err != nil {
		return &StageError{Stage: StageComplete, Err: err}
	}

	if err := p.responder.PostReply(ctx, m.Channel, m.ThreadTS, reply.Text); err != nil {
		return &StageError{Stage: StagePostReply, Err: err}
	}

	log.Info().
		Int("prompt_tokens", reply.PromptTokens).
		Int("completion_tokens", reply.CompletionTokens).
		Dur("elapsed", time.Since(start)).
		Msg("Reply posted")
	return nil
}
