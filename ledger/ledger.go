// Package ledger tracks the messages of one drafting session.
// A Ledger is built once per session and handed to whoever needs it; there is no global state.
package ledger

import (
	"quick-chat/domain"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Ledger holds the sent, discarded and stored buckets.
// Hash and id views of the sent bucket are derived from it, so they always line up by index.
type Ledger struct {
	mu          sync.RWMutex
	sessionID   uuid.UUID
	sent        []domain.Message
	discarded   []domain.Message
	stored      []domain.Message
	allComposed []domain.Message
	totalSent   int
}

func New() *Ledger {
	return &Ledger{sessionID: uuid.New()}
}

func (l *Ledger) SessionID() uuid.UUID {
	return l.sessionID
}

// RecordSent appends to the sent bucket and the composed history and bumps the sent counter.
func (l *Ledger) RecordSent(m domain.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, m)
	l.allComposed = append(l.allComposed, m)
	l.totalSent++
}

func (l *Ledger) RecordDiscarded(m domain.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.discarded = append(l.discarded, m)
}

func (l *Ledger) RecordStored(m domain.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stored = append(l.stored, m)
}

// IngestStored replaces the stored bucket wholesale, typically after a load from disk.
func (l *Ledger) IngestStored(messages []domain.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stored = slices.Clone(messages)
}

// FindByID returns the first sent message with the given id.
func (l *Ledger) FindByID(id string) (domain.Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lo.Find(l.sent, func(m domain.Message) bool {
		return m.ID() == id
	})
}

// FindByRecipient returns the bodies of sent then stored messages whose recipient is exactly recipient.
func (l *Ledger) FindByRecipient(recipient string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	matches := func(m domain.Message, _ int) bool { return m.Recipient() == recipient }
	body := func(m domain.Message, _ int) string { return m.Body() }

	bodies := lo.Map(lo.Filter(l.sent, matches), body)
	return append(bodies, lo.Map(lo.Filter(l.stored, matches), body)...)
}

// DeleteByHash removes the first sent message carrying hash.
func (l *Ledger) DeleteByHash(hash string) (domain.Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, idx, ok := lo.FindIndexOf(l.sent, func(m domain.Message) bool {
		return m.Hash() == hash
	})
	if !ok {
		return domain.Message{}, false
	}
	l.sent = slices.Delete(l.sent, idx, idx+1)
	return m, true
}

// Longest returns the sent message with the longest body; ties keep the earliest.
func (l *Ledger) Longest() (domain.Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.sent) == 0 {
		return domain.Message{}, false
	}
	return lo.MaxBy(l.sent, func(a, b domain.Message) bool {
		return len([]rune(a.Body())) > len([]rune(b.Body()))
	}), true
}

func (l *Ledger) FullReport() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lo.Map(l.sent, func(m domain.Message, _ int) string {
		return m.Render()
	})
}

func (l *Ledger) Sent() []domain.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.sent)
}

func (l *Ledger) Discarded() []domain.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.discarded)
}

func (l *Ledger) Stored() []domain.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.stored)
}

func (l *Ledger) AllComposed() []domain.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.allComposed)
}

// SentHashes is index-aligned with Sent.
func (l *Ledger) SentHashes() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lo.Map(l.sent, func(m domain.Message, _ int) string { return m.Hash() })
}

// SentIDs is index-aligned with Sent.
func (l *Ledger) SentIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lo.Map(l.sent, func(m domain.Message, _ int) string { return m.ID() })
}

// TotalSent counts every RecordSent call; deletions do not lower it.
func (l *Ledger) TotalSent() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalSent
}
