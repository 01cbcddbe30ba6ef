package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/slack-gpt-relay/internal/config"
	"github.com/user/slack-gpt-relay/internal/logger"
	"github.com/user/slack-gpt-relay/internal/metrics"
	"github.com/user/slack-gpt-relay/internal/relay"
	"github.com/user/slack-gpt-relay/internal/tasks"
)

var (
	configFile string
	envFile    string
	port       int
	debug      bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server for Slack app mentions",
		RunE:  runServe,
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "Path to config file")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to .env file")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "Port to listen on")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging (full request/response)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Get()
	logger.SetDebug(debug)

	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	cfg, err := config.Resolve(configFile, os.Getenv)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Serve.Port = port
	}

	m := metrics.New()
	group := tasks.NewGroup(m.InFlight())
	pipeline := relay.NewPipelineFromConfig(cfg, m, nil)
	handler := relay.NewHandler(pipeline, group, m)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Serve.ListenAddr, cfg.Serve.Port),
		Handler:           NewMux(handler, m),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Bool("debug", debug).
			Str("model", cfg.OpenAI.Model).
			Bool("prompt_configured", cfg.OpenAI.Prompt != "").
			Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Dur("grace", cfg.Serve.ShutdownGrace).Msg("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Serve.ShutdownGrace)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown")
	}
	if err := group.Wait(ctx); err != nil {
		log.Warn().Err(err).Msg("Abandoning unfinished pipeline runs")
		return err
	}
	return nil
}

// NewMux routes the webhook, liveness and metrics endpoints.
func NewMux(webhook http.Handler, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/{$}", withDebug("webhook", webhook))
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/metrics", m.Handler())
	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type debugResponseWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (d *debugResponseWriter) WriteHeader(status int) {
	d.status = status
	d.ResponseWriter.WriteHeader(status)
}

func (d *debugResponseWriter) Write(b []byte) (int, error) {
	d.body.Write(b)
	return d.ResponseWriter.Write(b)
}

func withDebug(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !debug {
			next.ServeHTTP(w, r)
			return
		}

		headers := make(map[string]string, len(r.Header))
		for k, v := range r.Header {
			if k == "Authorization" {
				headers[k] = fmt.Sprintf("[REDACTED] (len=%d)", len(v[0]))
				continue
			}
			headers[k] = fmt.Sprint(v)
		}

		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		logger.Debug().
			Str("handler", name).
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Interface("headers", headers).
			Bytes("body", redactBody(body)).
			Msg("Request")

		dw := &debugResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(dw, r)

		logger.Debug().
			Str("handler", name).
			Int("status", dw.status).
			Str("body", dw.body.String()).
			Msg("Response")
	})
}

// redactBody hides the verification token Slack puts in every envelope.
// Bodies that are not JSON objects are returned unchanged.
func redactBody(body []byte) []byte {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return body
	}
	raw, ok := fields["token"]
	if !ok {
		return body
	}

	var token string
	_ = json.Unmarshal(raw, &token)
	masked, _ := json.Marshal(fmt.Sprintf("[REDACTED] (len=%d)", len(token)))
	fields["token"] = masked

	out, err := json.Marshal(fields)
	if err != nil {
		return body
	}
	return out
}
