// Package slack wraps the Slack Web API calls the relay needs: reading a
// thread and replying into it.
package slack

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ThreadMessage is one message of a thread. Timestamp is Slack's "ts", whose
// string order matches chronological order.
type ThreadMessage struct {
	UserID    string
	Text      string
	Timestamp string
}

// Thread is a single page of conversations.replies. HasMore and NextCursor
// are reported but never followed.
type Thread struct {
	Messages   []ThreadMessage
	HasMore    bool
	NextCursor string
}

type Client struct {
	api *slack.Client
}

func NewClient(token, apiURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(token, apiURL, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(token, apiURL string, httpClient HTTPDoer) *Client {
	opts := []slack.Option{slack.OptionHTTPClient(&bearerDoer{token: token, next: httpClient})}
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &Client{api: slack.New(token, opts...)}
}

// bearerDoer sends the bot token as an Authorization header on every Web API
// call, in addition to the form field slack-go already sets.
type bearerDoer struct {
	token string
	next  HTTPDoer
}

func (b *bearerDoer) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.Do(req)
}

// FetchThread reads the replies of the thread rooted at threadTS.
func (c *Client) FetchThread(ctx context.Context, channelID, threadTS string) (*Thread, error) {
	msgs, hasMore, nextCursor, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching replies for %s/%s: %w", channelID, threadTS, err)
	}

	thread := &Thread{
		Messages:   make([]ThreadMessage, 0, len(msgs)),
		HasMore:    hasMore,
		NextCursor: nextCursor,
	}
	for _, m := range msgs {
		thread.Messages = append(thread.Messages, ThreadMessage{
			UserID:    m.User,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}
	return thread, nil
}

// PostReply posts text into the thread rooted at threadTS.
func (c *Client) PostReply(ctx context.Context, channelID, threadTS, text string) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(threadTS),
	)
	if err != nil {
		return fmt.Errorf("posting reply to %s/%s: %w", channelID, threadTS, err)
	}
	return nil
}
