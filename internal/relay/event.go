package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/slack-go/slack/slackevents"
)

type EventKind int

const (
	KindIgnored EventKind = iota
	KindURLVerification
	KindAppMention
)

func (k EventKind) String() string {
	switch k {
	case KindURLVerification:
		return "url_verification"
	case KindAppMention:
		return "app_mention"
	default:
		return "ignored"
	}
}

// AppMention is the part of an app_mention event the pipeline needs.
// ThreadTS is the parent thread, or the event's own ts for a top-level
// message.
type AppMention struct {
	Channel  string
	ThreadTS string
	Text     string
}

// Event is one decoded webhook envelope. Challenge is set for
// KindURLVerification, Mention for KindAppMention.
type Event struct {
	Kind      EventKind
	Challenge string
	Mention   *AppMention
}

type envelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	Event     json.RawMessage `json:"event"`
}

var (
	ErrMalformedEnvelope = errors.New("malformed webhook envelope")
	ErrNoBotMention      = errors.New("mention text has no <@USERID> pattern")
)

func ParseEvent(body []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	if env.Type == string(slackevents.URLVerification) {
		return Event{Kind: KindURLVerification, Challenge: env.Challenge}, nil
	}

	if len(env.Event) == 0 || string(env.Event) == "null" {
		return Event{Kind: KindIgnored}, nil
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(env.Event, &head); err != nil {
		return Event{}, fmt.Errorf("%w: event: %v", ErrMalformedEnvelope, err)
	}
	if head.Type != string(slackevents.AppMention) {
		return Event{Kind: KindIgnored}, nil
	}

	var ev slackevents.AppMentionEvent
	if err := json.Unmarshal(env.Event, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: app_mention: %v", ErrMalformedEnvelope, err)
	}

	threadTS := ev.ThreadTimeStamp
	if threadTS == "" {
		threadTS = ev.TimeStamp
	}

	return Event{
		Kind: KindAppMention,
		Mention: &AppMention{
			Channel:  ev.Channel,
			ThreadTS: threadTS,
			Text:     ev.Text,
		},
	}, nil
}

var botMentionRegex = regexp.MustCompile(`<@([A-Z0-9_]+)(?:\|[^>]*)?>`)

// ExtractBotID returns the user id of the first <@USERID> or <@USERID|label>
// mention in text.
func ExtractBotID(text string) (string, error) {
	matches := botMentionRegex.FindStringSubmatch(text)
	if len(matches) != 2 {
		return "", ErrNoBotMention
	}
	return matches[1], nil
}
