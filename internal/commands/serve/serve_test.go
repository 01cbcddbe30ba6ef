package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/slack-gpt-relay/internal/config"
	"github.com/user/slack-gpt-relay/internal/logger"
	"github.com/user/slack-gpt-relay/internal/metrics"
	"github.com/user/slack-gpt-relay/internal/relay"
	"github.com/user/slack-gpt-relay/internal/tasks"
)

type upstreamCall struct {
	Path   string
	Auth   string
	Params map[string]string
	Body   string
}

type upstream struct {
	mu      sync.Mutex
	calls   []upstreamCall
	replies map[string]string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	params := map[string]string{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		for k, v := range body {
			if s, ok := v.(string); ok {
				params[k] = s
			}
		}
	} else {
		r.Body = io.NopCloser(strings.NewReader(string(raw)))
		_ = r.ParseForm()
		for k := range r.Form {
			params[k] = r.Form.Get(k)
		}
	}

	u.mu.Lock()
	u.calls = append(u.calls, upstreamCall{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Params: params, Body: string(raw)})
	reply := u.replies[r.URL.Path]
	u.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(reply))
}

func (u *upstream) Calls() []upstreamCall {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]upstreamCall(nil), u.calls...)
}

type testEnv struct {
	slack  *upstream
	openai *upstream
	group  *tasks.Group
	server *httptest.Server
}

func newTestEnv(t *testing.T, completion string) *testEnv {
	t.Helper()

	env := &testEnv{
		slack: &upstream{replies: map[string]string{
			"/api/conversations.replies": `{
				"ok": true,
				"messages": [
					{"user": "U_BOT", "text": "<@U_BOT> hi", "ts": "1"},
					{"user": "U1", "text": "question", "ts": "2"},
					{"user": "U2", "text": "answer", "ts": "3"}
				],
				"has_more": false
			}`,
			"/api/chat.postMessage": `{"ok": true, "channel": "C123", "ts": "4"}`,
		}},
		openai: &upstream{replies: map[string]string{"/v1/chat/completions": completion}},
	}

	slackSrv := httptest.NewServer(env.slack)
	t.Cleanup(slackSrv.Close)
	openaiSrv := httptest.NewServer(env.openai)
	t.Cleanup(openaiSrv.Close)

	cfg := &config.Config{
		Slack:  config.SlackConfig{Token: "xoxb-test", APIURL: slackSrv.URL + "/api"},
		OpenAI: config.OpenAIConfig{APIKey: "sk-test", Endpoint: openaiSrv.URL + "/v1", Prompt: "be helpful"},
	}
	cfg.ApplyDefaults()

	m := metrics.New()
	env.group = tasks.NewGroup(m.InFlight())
	handler := relay.NewHandler(relay.NewPipelineFromConfig(cfg, m, nil), env.group, m)
	env.server = httptest.NewServer(NewMux(handler, m))
	t.Cleanup(env.server.Close)

	return env
}

func (e *testEnv) post(t *testing.T, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(e.server.URL+"/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

const mentionBody = `{"type": "event_callback", "event": {"type": "app_mention", "channel": "C123", "ts": "3", "thread_ts": "1", "text": "<@U_BOT> hi"}}`

func TestServe_MentionPostsReplyInThread(t *testing.T) {
	env := newTestEnv(t, `{"choices": [{"message": {"role": "assistant", "content": "42"}}]}`)

	status, body := env.post(t, mentionBody)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", body)

	require.NoError(t, env.group.Wait(context.Background()))

	completions := env.openai.Calls()
	require.Len(t, completions, 1)
	require.Equal(t, "Bearer sk-test", completions[0].Auth)
	var sent struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(completions[0].Body), &sent))
	require.Equal(t, config.DefaultModel, sent.Model)
	require.Len(t, sent.Messages, 2)
	require.Equal(t, "system", sent.Messages[0].Role)
	require.Equal(t, "be helpful", sent.Messages[0].Content)
	require.Equal(t, "user", sent.Messages[1].Role)
	require.Equal(t, "question,answer", sent.Messages[1].Content)

	slackCalls := env.slack.Calls()
	require.Len(t, slackCalls, 2)
	require.Equal(t, "/api/conversations.replies", slackCalls[0].Path)
	require.Equal(t, "Bearer xoxb-test", slackCalls[0].Auth)
	require.Equal(t, "C123", slackCalls[0].Params["channel"])
	require.Equal(t, "1", slackCalls[0].Params["ts"])
	require.Equal(t, "/api/chat.postMessage", slackCalls[1].Path)
	require.Equal(t, "Bearer xoxb-test", slackCalls[1].Auth)
	require.Equal(t, "C123", slackCalls[1].Params["channel"])
	require.Equal(t, "1", slackCalls[1].Params["thread_ts"])
	require.Equal(t, "42", slackCalls[1].Params["text"])
}

func TestServe_EmptyChoicesNeverReplies(t *testing.T) {
	env := newTestEnv(t, `{"choices": []}`)

	status, _ := env.post(t, mentionBody)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, env.group.Wait(context.Background()))

	require.Len(t, env.openai.Calls(), 1)
	slackCalls := env.slack.Calls()
	require.Len(t, slackCalls, 1)
	require.Equal(t, "/api/conversations.replies", slackCalls[0].Path)
}

func TestServe_URLVerificationMakesNoOutboundCalls(t *testing.T) {
	env := newTestEnv(t, `{"choices": []}`)

	status, body := env.post(t, `{"type": "url_verification", "challenge": "c-123"}`)
	require.NoError(t, env.group.Wait(context.Background()))

	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "c-123", body)
	require.Empty(t, env.slack.Calls())
	require.Empty(t, env.openai.Calls())
}

func TestServe_HealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, `{"choices": [{"message": {"content": "42"}}]}`)

	env.post(t, mentionBody)
	require.NoError(t, env.group.Wait(context.Background()))

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK", string(raw))

	resp, err = http.Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Contains(t, string(raw), `relay_webhook_events_total{kind="app_mention"} 1`)
	require.Contains(t, string(raw), `relay_pipeline_runs_total{result="success"} 1`)
}

func TestServe_UnknownPathIsNotFound(t *testing.T) {
	env := newTestEnv(t, `{"choices": []}`)

	resp, err := http.Post(env.server.URL+"/elsewhere", "application/json", strings.NewReader(mentionBody))
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NoError(t, env.group.Wait(context.Background()))
	require.Empty(t, env.slack.Calls())
}

func TestWithDebug_PassesBodyThrough(t *testing.T) {
	debug = true
	t.Cleanup(func() { debug = false })

	var seen string
	h := withDebug("test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		seen = string(raw)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("done"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, `{"a":1}`, seen)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "done", rec.Body.String())
}

func TestWithDebug_RedactsVerificationToken(t *testing.T) {
	debug = true
	t.Cleanup(func() { debug = false })
	logger.SetDebug(true)
	t.Cleanup(func() { logger.SetDebug(false) })

	var logs bytes.Buffer
	logger.SetOutput(&logs)
	t.Cleanup(func() { logger.SetOutput(io.Discard) })

	const body = `{"token":"verif-secret","type":"url_verification","challenge":"c-1"}`
	var seen string
	h := withDebug("test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		seen = string(raw)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	require.Equal(t, body, seen)
	require.NotContains(t, logs.String(), "verif-secret")
	require.Contains(t, logs.String(), "[REDACTED] (len=12)")
	require.Contains(t, logs.String(), "c-1")
}

func TestRedactBody(t *testing.T) {
	type tc struct {
		name     string
		body     string
		expected string
	}

	cases := []tc{
		{name: "token masked", body: `{"token":"abc","type":"event_callback"}`, expected: `{"token":"[REDACTED] (len=3)","type":"event_callback"}`},
		{name: "no token", body: `{"type":"event_callback"}`, expected: `{"type":"event_callback"}`},
		{name: "not json", body: `token=abc`, expected: `token=abc`},
		{name: "empty", body: ``, expected: ``},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.expected, string(redactBody([]byte(c.body))))
		})
	}
}
