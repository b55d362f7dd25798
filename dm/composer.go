// Package dm translates tool-level direct-message operations into chat
// agent actions and normalizes what comes back.
package dm

import (
	"time"

	"github.com/jamesacklin/tlon-mcp-server/ship"
)

const (
	// PokeApp and PokeMark identify the chat agent action a send targets.
	PokeApp  = "chat"
	PokeMark = "chat-dm-action"
)

// Action is the JSON body of a chat-dm-action poke.
type Action struct {
	Ship ship.Identity `json:"ship"`
	Diff WritDiff      `json:"diff"`
}

// WritDiff carries the writ id and the delta that introduces it.
type WritDiff struct {
	ID    string    `json:"id"`
	Delta WritDelta `json:"delta"`
}

type WritDelta struct {
	Add WritAdd `json:"add"`
}

// WritAdd wraps the memo. Kind and Time are reserved by the chat agent's
// schema and must marshal as JSON null, so they stay untyped and unset.
type WritAdd struct {
	Memo Memo `json:"memo"`
	Kind any  `json:"kind"`
	Time any  `json:"time"`
}

// Memo is the message payload: content verses, author and client-side
// send time in epoch milliseconds.
type Memo struct {
	Content []Verse       `json:"content"`
	Author  ship.Identity `json:"author"`
	Sent    int64         `json:"sent"`
}

// Verse is one content block. Plain text travels as a single-element
// inline block.
type Verse struct {
	Inline []any `json:"inline"`
}

// Compose builds the send action for one plain-text message.
//
// The writ id is author + "/" + the @da encoding of now, which keeps ids
// unique across authors and time-ordered within one author.
func Compose(author, recipient ship.Identity, text string, now time.Time) Action {
	return Action{
		Ship: recipient,
		Diff: WritDiff{
			ID: string(author) + "/" + ship.TimeCode(now),
			Delta: WritDelta{
				Add: WritAdd{
					Memo: Memo{
						Content: []Verse{{Inline: []any{text}}},
						Author:  author,
						Sent:    now.UnixMilli(),
					},
				},
			},
		},
	}
}
