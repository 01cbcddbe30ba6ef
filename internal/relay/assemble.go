package relay

import (
	"sort"
	"strings"

	"github.com/user/slack-gpt-relay/pkg/slack"
)

const separator = ","

// Assemble turns a thread into the user content of a completion request.
// Messages written by the bot or mentioning it are dropped, the rest are
// ordered by timestamp and their texts joined with a comma.
func Assemble(messages []slack.ThreadMessage, botID string) string {
	kept := make([]slack.ThreadMessage, 0, len(messages))
	for _, m := range messages {
		if m.UserID == botID || mentions(m.Text, botID) {
			continue
		}
		kept = append(kept, m)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Timestamp < kept[j].Timestamp
	})

	texts := make([]string, len(kept))
	for i, m := range kept {
		texts[i] = m.Text
	}
	return strings.Join(texts, separator)
}

// mentions matches both <@ID> and the labelled <@ID|name> form.
func mentions(text, userID string) bool {
	if userID == "" {
		return false
	}
	return strings.Contains(text, "<@"+userID+">") || strings.Contains(text, "<@"+userID+"|")
}
