package client

import (
	"strconv"
	"sync"

	"github.com/google/uuid"

	"familysafe/internal/models"
)

// ChatMessage is a direct message as the chat view holds it: the server row
// plus the pending flag for optimistic entries still waiting on their ack.
type ChatMessage struct {
	ID      string
	Pending bool
	models.Message
}

// EntryID implements Entry.
func (m ChatMessage) EntryID() string { return m.ID }

func serverMessageEntry(m models.Message) ChatMessage {
	return ChatMessage{ID: strconv.FormatInt(m.ID, 10), Message: m}
}

// MessageSender is the upstream send call a DirectChat makes.
type MessageSender interface {
	SendMessage(toUserID, text string) (*models.Message, error)
}

// DirectChat is one open conversation with optimistic sending. A send
// appends a pending placeholder immediately, then either substitutes the
// server row in place or rolls the placeholder back and restores the draft
// so nothing typed is lost.
type DirectChat struct {
	List *ChatList[ChatMessage]

	sender MessageSender
	selfID string
	peerID string

	mu    sync.Mutex
	draft string
}

// NewDirectChat opens a conversation view between self and peer.
func NewDirectChat(sender MessageSender, selfID, peerID string) *DirectChat {
	return &DirectChat{
		List:   NewChatList[ChatMessage](),
		sender: sender,
		selfID: selfID,
		peerID: peerID,
	}
}

// Load replaces the list with a freshly fetched conversation page.
func (c *DirectChat) Load(messages []models.Message) {
	entries := make([]ChatMessage, len(messages))
	for i, m := range messages {
		entries[i] = serverMessageEntry(m)
	}
	c.List.Reset(entries)
}

// Draft returns the text sitting in the input box.
func (c *DirectChat) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft stores the input box text.
func (c *DirectChat) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// Send posts the current draft. The draft clears before the network call so
// the input feels instant; a failed send puts it back.
func (c *DirectChat) Send() error {
	c.mu.Lock()
	text := c.draft
	c.draft = ""
	c.mu.Unlock()
	if text == "" {
		return nil
	}

	tempID := "temp-" + uuid.New().String()
	c.List.Append(ChatMessage{
		ID:      tempID,
		Pending: true,
		Message: models.Message{FromUserID: c.selfID, ToUserID: c.peerID, Text: text},
	})

	sent, err := c.sender.SendMessage(c.peerID, text)
	if err != nil {
		c.List.Remove(tempID)
		c.mu.Lock()
		if c.draft == "" {
			c.draft = text
		}
		c.mu.Unlock()
		return err
	}

	entry := serverMessageEntry(*sent)
	if c.List.Contains(entry.ID) {
		// The stream echoed the row before the ack landed; the placeholder
		// just goes away.
		c.List.Remove(tempID)
		return nil
	}
	c.List.Replace(tempID, entry)
	return nil
}

// ApplyInsert folds a streamed insert into the list. Rows already present,
// via ack or a previous event, are skipped.
func (c *DirectChat) ApplyInsert(m models.Message) {
	if !c.belongs(m) {
		return
	}
	c.List.Append(serverMessageEntry(m))
}

// ApplyUpdate folds a streamed edit into the list.
func (c *DirectChat) ApplyUpdate(m models.Message) {
	if !c.belongs(m) {
		return
	}
	c.List.Update(serverMessageEntry(m))
}

// ApplyDelete folds a streamed delete into the list.
func (c *DirectChat) ApplyDelete(m models.Message) {
	c.List.Remove(strconv.FormatInt(m.ID, 10))
}

// MarkPeerMessagesRead flags every message from the peer as read locally.
func (c *DirectChat) MarkPeerMessagesRead() {
	for _, e := range c.List.Snapshot() {
		if e.FromUserID != c.peerID || e.Read {
			continue
		}
		e.Read = true
		c.List.Update(e)
	}
}

func (c *DirectChat) belongs(m models.Message) bool {
	return (m.FromUserID == c.selfID && m.ToUserID == c.peerID) ||
		(m.FromUserID == c.peerID && m.ToUserID == c.selfID)
}
