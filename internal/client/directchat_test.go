package client

import (
	"errors"
	"strings"
	"testing"

	"familysafe/internal/models"
)

// fakeSender acks sends with incrementing ids, or fails when broken. The
// echo hook simulates the stream delivering the row before the ack returns.
type fakeSender struct {
	nextID int64
	broken bool
	echo   func(m models.Message)
}

func (f *fakeSender) SendMessage(toUserID, text string) (*models.Message, error) {
	if f.broken {
		return nil, errors.New("network down")
	}
	f.nextID++
	m := models.Message{ID: f.nextID, FromUserID: "self", ToUserID: toUserID, Text: text}
	if f.echo != nil {
		f.echo(m)
	}
	return &m, nil
}

func TestDirectChatOptimisticSend(t *testing.T) {
	sender := &fakeSender{}
	chat := NewDirectChat(sender, "self", "peer")

	chat.SetDraft("hello")
	if err := chat.Send(); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	snap := chat.List.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("list has %d entries, want 1", len(snap))
	}
	if snap[0].Pending {
		t.Error("entry still pending after ack")
	}
	if snap[0].ID != "1" || snap[0].Text != "hello" {
		t.Errorf("entry = %+v", snap[0])
	}
	if chat.Draft() != "" {
		t.Errorf("draft = %q, want empty", chat.Draft())
	}
}

func TestDirectChatSendAppearsExactlyOnceWithStreamEcho(t *testing.T) {
	// The stream delivers the insert before the send ack returns. The row
	// must appear once, not once per path.
	sender := &fakeSender{}
	chat := NewDirectChat(sender, "self", "peer")
	sender.echo = func(m models.Message) { chat.ApplyInsert(m) }

	chat.SetDraft("raced")
	if err := chat.Send(); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	snap := chat.List.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("list has %d entries, want exactly 1", len(snap))
	}
	if snap[0].ID != "1" {
		t.Errorf("entry id = %q, want 1", snap[0].ID)
	}

	// A late replay of the same event changes nothing.
	chat.ApplyInsert(models.Message{ID: 1, FromUserID: "self", ToUserID: "peer", Text: "raced"})
	if chat.List.Len() != 1 {
		t.Errorf("replay duplicated the row: %d entries", chat.List.Len())
	}
}

func TestDirectChatRollbackRestoresDraft(t *testing.T) {
	sender := &fakeSender{broken: true}
	chat := NewDirectChat(sender, "self", "peer")

	chat.SetDraft("important words")
	if err := chat.Send(); err == nil {
		t.Fatal("expected send to fail")
	}

	if chat.List.Len() != 0 {
		t.Errorf("failed send left %d entries in the list", chat.List.Len())
	}
	if chat.Draft() != "important words" {
		t.Errorf("draft = %q, want restored text", chat.Draft())
	}

	// Retry after the network recovers.
	sender.broken = false
	if err := chat.Send(); err != nil {
		t.Fatalf("retry error: %v", err)
	}
	if chat.List.Len() != 1 {
		t.Errorf("retry did not land: %d entries", chat.List.Len())
	}
}

func TestDirectChatRollbackKeepsNewerDraft(t *testing.T) {
	sender := &fakeSender{broken: true}
	chat := NewDirectChat(sender, "self", "peer")

	chat.SetDraft("first")
	done := make(chan error, 1)
	go func() { done <- chat.Send() }()
	if err := <-done; err == nil {
		t.Fatal("expected send to fail")
	}
	// The user typed again before the failure came back.
	chat.SetDraft("second")
	if err := chat.Send(); err == nil {
		t.Fatal("expected send to fail")
	}
	if got := chat.Draft(); got != "second" {
		t.Errorf("draft = %q, rollback should not clobber newer input", got)
	}
}

func TestDirectChatAppliesOnlyOwnConversation(t *testing.T) {
	chat := NewDirectChat(&fakeSender{}, "self", "peer")

	chat.ApplyInsert(models.Message{ID: 10, FromUserID: "peer", ToUserID: "self", Text: "in"})
	chat.ApplyInsert(models.Message{ID: 11, FromUserID: "stranger", ToUserID: "self", Text: "out"})
	chat.ApplyInsert(models.Message{ID: 12, FromUserID: "peer", ToUserID: "stranger", Text: "out"})

	if chat.List.Len() != 1 {
		t.Fatalf("list has %d entries, want 1", chat.List.Len())
	}
	if got, _ := chat.List.Get("10"); got.Text != "in" {
		t.Errorf("entry = %+v", got)
	}
}

func TestDirectChatApplyUpdateAndDelete(t *testing.T) {
	chat := NewDirectChat(&fakeSender{}, "self", "peer")
	chat.Load([]models.Message{
		{ID: 1, FromUserID: "peer", ToUserID: "self", Text: "original"},
		{ID: 2, FromUserID: "self", ToUserID: "peer", Text: "mine"},
	})

	chat.ApplyUpdate(models.Message{ID: 1, FromUserID: "peer", ToUserID: "self", Text: "edited", Edited: true})
	got, _ := chat.List.Get("1")
	if got.Text != "edited" || !got.Edited {
		t.Errorf("entry after update = %+v", got)
	}

	chat.ApplyDelete(models.Message{ID: 2, FromUserID: "self", ToUserID: "peer"})
	if chat.List.Contains("2") {
		t.Error("deleted row still present")
	}
}

func TestDirectChatMarkPeerMessagesRead(t *testing.T) {
	chat := NewDirectChat(&fakeSender{}, "self", "peer")
	chat.Load([]models.Message{
		{ID: 1, FromUserID: "peer", ToUserID: "self"},
		{ID: 2, FromUserID: "self", ToUserID: "peer"},
		{ID: 3, FromUserID: "peer", ToUserID: "self", Read: true},
	})

	chat.MarkPeerMessagesRead()

	for _, e := range chat.List.Snapshot() {
		if e.FromUserID == "peer" && !e.Read {
			t.Errorf("peer message %s still unread", e.ID)
		}
		if e.FromUserID == "self" && e.Read {
			t.Errorf("own message %s wrongly marked read", e.ID)
		}
	}
}

func TestTempIDShape(t *testing.T) {
	sender := &fakeSender{broken: true}
	chat := NewDirectChat(sender, "self", "peer")

	var tempID string
	sender.echo = nil
	chat.SetDraft("x")
	// Capture the pending entry by failing the send after inspecting.
	sender.broken = false
	sender.echo = func(models.Message) {
		for _, e := range chat.List.Snapshot() {
			if e.Pending {
				tempID = e.ID
			}
		}
	}
	if err := chat.Send(); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if !strings.HasPrefix(tempID, "temp-") {
		t.Errorf("pending id = %q, want temp- prefix", tempID)
	}
}
