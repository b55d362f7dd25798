package dm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jamesacklin/tlon-mcp-server/contacts"
	"github.com/jamesacklin/tlon-mcp-server/ship"
)

const (
	// MinHistoryCount and MaxHistoryCount bound how many writs one
	// history query may request upstream.
	MinHistoryCount = 1
	MaxHistoryCount = 500
)

// ClampCount bounds a requested history size to what the chat agent
// will serve.
func ClampCount(n int) int {
	if n < MinHistoryCount {
		return MinHistoryCount
	}
	if n > MaxHistoryCount {
		return MaxHistoryCount
	}
	return n
}

// Message is one normalized history entry.
type Message struct {
	Sender      ship.Identity `json:"sender"`
	DisplayName string        `json:"display_name"`
	Text        string        `json:"text"`
	Sent        int64         `json:"sent"`
	SentAt      string        `json:"sent_at"`
}

type rawWrit struct {
	Memo *rawMemo `json:"memo"`
}

type rawMemo struct {
	Author  string `json:"author"`
	Content []any  `json:"content"`
	Sent    int64  `json:"sent"`
}

// Normalize turns the raw writ map from a history scry into messages
// ordered newest first.
//
// Entries without memo content are skipped. Senders carry the sigil.
// The caller's own messages always display under the raw identity;
// everyone else displays under their directory nickname when one is
// known.
func Normalize(raw json.RawMessage, dir *contacts.Directory, own ship.Identity) ([]Message, error) {
	var writs map[string]rawWrit
	if err := json.Unmarshal(raw, &writs); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	messages := make([]Message, 0, len(writs))
	for _, writ := range writs {
		if writ.Memo == nil || writ.Memo.Content == nil {
			continue
		}
		sender := ship.NormalizeIdentity(writ.Memo.Author)
		display := string(sender)
		if sender != own {
			if nickname := dir.Nickname(sender); nickname != "" {
				display = nickname
			}
		}
		messages = append(messages, Message{
			Sender:      sender,
			DisplayName: display,
			Text:        verseText(writ.Memo.Content),
			Sent:        writ.Memo.Sent,
			SentAt:      time.UnixMilli(writ.Memo.Sent).UTC().Format(time.RFC3339),
		})
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Sent > messages[j].Sent
	})
	return messages, nil
}

// verseText flattens content blocks to plain text: inline words joined
// by spaces, blocks joined by newlines, unknown block kinds contributing
// nothing.
func verseText(content []any) string {
	blocks := make([]string, 0, len(content))
	for _, item := range content {
		verse, ok := item.(map[string]any)
		if !ok {
			blocks = append(blocks, "")
			continue
		}
		inline, ok := verse["inline"].([]any)
		if !ok {
			blocks = append(blocks, "")
			continue
		}
		words := make([]string, 0, len(inline))
		for _, w := range inline {
			if s, ok := w.(string); ok {
				words = append(words, s)
			}
		}
		blocks = append(blocks, strings.Join(words, " "))
	}
	return strings.TrimSpace(strings.Join(blocks, "\n"))
}
