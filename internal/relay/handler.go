package relay

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/user/slack-gpt-relay/internal/logger"
	"github.com/user/slack-gpt-relay/internal/metrics"
	"github.com/user/slack-gpt-relay/internal/tasks"
)

const maxBodyBytes = 1 << 20

type Runner interface {
	Run(ctx context.Context, runID string, m AppMention) error
}

// Handler is the webhook entry point. It acknowledges mentions immediately
// and leaves the pipeline to the spawner.
type Handler struct {
	runner  Runner
	spawner tasks.Spawner
	metrics *metrics.Metrics
	newID   func() string
}

func NewHandler(runner Runner, spawner tasks.Spawner, m *metrics.Metrics) *Handler {
	return &Handler{
		runner:  runner,
		spawner: spawner,
		metrics: m,
		newID:   uuid.NewString,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	ev, err := ParseEvent(body)
	if err != nil {
		logger.Warn().Err(err).Msg("Rejected webhook envelope")
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	h.metrics.EventReceived(ev.Kind.String())

	switch ev.Kind {
	case KindURLVerification:
		writeText(w, ev.Challenge)

	case KindAppMention:
		mention := *ev.Mention
		runID := h.newID()
		logger.Info().
			Str("run_id", runID).
			Str("channel", mention.Channel).
			Str("thread_ts", mention.ThreadTS).
			Msg("Mention received, spawning pipeline")
		h.spawner.Spawn("pipeline "+runID, func(ctx context.Context) error {
			return h.runner.Run(ctx, runID, mention)
		})
		writeText(w, "ok")

	default:
		http.NotFound(w, r)
	}
}

func writeText(w http.ResponseWriter, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s))
}
