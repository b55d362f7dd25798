package dm

import (
	"encoding/json"
	"testing"

	"github.com/jamesacklin/tlon-mcp-server/contacts"
)

func TestClampCount(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{1000, 500},
		{501, 500},
		{500, 500},
		{100, 100},
		{1, 1},
		{0, 1},
		{-5, 1},
	}
	for _, tc := range cases {
		if got := ClampCount(tc.in); got != tc.want {
			t.Fatalf("ClampCount(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeOrdersNewestFirst(t *testing.T) {
	raw := json.RawMessage(`{
		"a": {"memo": {"author": "zod", "content": [{"inline": ["one"]}], "sent": 100}},
		"b": {"memo": {"author": "zod", "content": [{"inline": ["two"]}], "sent": 300}},
		"c": {"memo": {"author": "zod", "content": [{"inline": ["three"]}], "sent": 200}}
	}`)
	messages, err := Normalize(raw, contacts.BuildDirectory(nil), "~zod")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}
	want := []int64{300, 200, 100}
	for i, sent := range want {
		if messages[i].Sent != sent {
			t.Fatalf("messages[%d].Sent = %d, want %d", i, messages[i].Sent, sent)
		}
	}
}

func TestNormalizeSkipsEntriesWithoutContent(t *testing.T) {
	raw := json.RawMessage(`{
		"no-memo": {},
		"null-memo": {"memo": null},
		"null-content": {"memo": {"author": "zod", "content": null, "sent": 10}},
		"empty-content": {"memo": {"author": "zod", "content": [], "sent": 20}},
		"ok": {"memo": {"author": "zod", "content": [{"inline": ["hi"]}], "sent": 30}}
	}`)
	messages, err := Normalize(raw, contacts.BuildDirectory(nil), "~zod")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2 (empty content array is kept)", len(messages))
	}
	if messages[0].Text != "hi" || messages[1].Text != "" {
		t.Fatalf("texts = %q, %q, want %q and empty", messages[0].Text, messages[1].Text, "hi")
	}
}

func TestNormalizeDisplayNames(t *testing.T) {
	dir := contacts.BuildDirectory(map[string]contacts.Record{
		"zod":           {"nickname": "Captain"},
		"sampel-palnet": {"nickname": "Pal"},
	})
	raw := json.RawMessage(`{
		"own":      {"memo": {"author": "zod", "content": [{"inline": ["mine"]}], "sent": 3}},
		"known":    {"memo": {"author": "sampel-palnet", "content": [{"inline": ["theirs"]}], "sent": 2}},
		"stranger": {"memo": {"author": "marzod", "content": [{"inline": ["hi"]}], "sent": 1}}
	}`)
	messages, err := Normalize(raw, dir, "~zod")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}

	// Own messages never display under a nickname, even with one indexed.
	if messages[0].Sender != "~zod" || messages[0].DisplayName != "~zod" {
		t.Fatalf("own message display = %q/%q, want ~zod/~zod", messages[0].Sender, messages[0].DisplayName)
	}
	if messages[1].DisplayName != "Pal" {
		t.Fatalf("known sender display = %q, want Pal", messages[1].DisplayName)
	}
	if messages[2].DisplayName != "~marzod" {
		t.Fatalf("unknown sender display = %q, want ~marzod", messages[2].DisplayName)
	}
}

func TestNormalizeTextExtraction(t *testing.T) {
	raw := json.RawMessage(`{
		"a": {"memo": {"author": "zod", "content": [
			{"inline": ["hello", "there", {"ship": "~marzod"}, "friend"]},
			{"block": {"image": "0xdead"}},
			{"inline": ["second", "verse"]}
		], "sent": 1}}
	}`)
	messages, err := Normalize(raw, contacts.BuildDirectory(nil), "~zod")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	want := "hello there friend\n\nsecond verse"
	if messages[0].Text != want {
		t.Fatalf("Text = %q, want %q", messages[0].Text, want)
	}
}

func TestNormalizeSenderCarriesSigil(t *testing.T) {
	raw := json.RawMessage(`{
		"a": {"memo": {"author": "sampel-palnet", "content": [{"inline": ["x"]}], "sent": 1}}
	}`)
	messages, err := Normalize(raw, contacts.BuildDirectory(nil), "~zod")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if messages[0].Sender != "~sampel-palnet" {
		t.Fatalf("Sender = %q, want ~sampel-palnet", messages[0].Sender)
	}
}

func TestNormalizeRejectsNonObjectPayload(t *testing.T) {
	if _, err := Normalize(json.RawMessage(`[1,2,3]`), contacts.BuildDirectory(nil), "~zod"); err == nil {
		t.Fatalf("Normalize() should fail on a non-object payload")
	}
}
