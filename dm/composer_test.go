package dm

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jamesacklin/tlon-mcp-server/ship"
)

func TestComposeAction(t *testing.T) {
	now := time.Date(2026, 2, 7, 10, 30, 0, 0, time.UTC)
	action := Compose("~zod", "~sampel-palnet", "hello there", now)

	if action.Ship != "~sampel-palnet" {
		t.Fatalf("action ship = %q, want recipient", action.Ship)
	}
	wantID := "~zod/" + ship.TimeCode(now)
	if action.Diff.ID != wantID {
		t.Fatalf("writ id = %q, want %q", action.Diff.ID, wantID)
	}
	memo := action.Diff.Delta.Add.Memo
	if memo.Author != "~zod" {
		t.Fatalf("memo author = %q, want ~zod", memo.Author)
	}
	if memo.Sent != now.UnixMilli() {
		t.Fatalf("memo sent = %d, want %d", memo.Sent, now.UnixMilli())
	}
	if len(memo.Content) != 1 || len(memo.Content[0].Inline) != 1 {
		t.Fatalf("memo content shape = %#v, want one verse with one inline item", memo.Content)
	}
	if memo.Content[0].Inline[0] != "hello there" {
		t.Fatalf("inline text = %v, want %q", memo.Content[0].Inline[0], "hello there")
	}
}

func TestComposeMarshalsReservedFieldsNull(t *testing.T) {
	now := time.Date(2026, 2, 7, 10, 30, 0, 0, time.UTC)
	raw, err := json.Marshal(Compose("~zod", "~sampel-palnet", "hi", now))
	if err != nil {
		t.Fatalf("marshal action: %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, `"kind":null`) {
		t.Fatalf("kind must marshal as null, got %s", text)
	}
	if !strings.Contains(text, `"time":null`) {
		t.Fatalf("time must marshal as null, got %s", text)
	}
}

func TestComposeIDsOrderChronologically(t *testing.T) {
	t1 := time.Date(2026, 2, 7, 10, 30, 0, 0, time.UTC)
	t2 := t1.Add(time.Millisecond)

	a1 := Compose("~zod", "~sampel-palnet", "first", t1)
	a2 := Compose("~zod", "~sampel-palnet", "second", t2)

	if !(a1.Diff.ID < a2.Diff.ID) {
		t.Fatalf("ids out of order: %q then %q", a1.Diff.ID, a2.Diff.ID)
	}
}
