package assistant

import (
	"strconv"
	"sync"
	"time"

	"github.com/BerylCAtieno/loanmitra/internal/models"
)

// transcript is an append-only list of messages. Ids are sequence numbers,
// so they stay unique even when two messages share a timestamp.
type transcript struct {
	mu       sync.Mutex
	messages []models.Message
	seq      int
	now      func() time.Time
}

func (t *transcript) append(text string, sender models.Sender) models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	m := models.Message{
		ID:        strconv.Itoa(t.seq),
		Text:      text,
		Sender:    sender,
		Timestamp: t.now(),
	}
	t.messages = append(t.messages, m)
	return m
}

func (t *transcript) snapshot() []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Message(nil), t.messages...)
}
