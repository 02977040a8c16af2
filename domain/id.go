package domain

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// IDGenerator produces message ids.
type IDGenerator interface {
	NewID() string
}

type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string { return f() }

// RandomIDs draws IDLength random decimal digits per id.
var RandomIDs IDGenerator = IDGeneratorFunc(randomDigits)

func randomDigits() string {
	var sb strings.Builder
	sb.Grow(IDLength)
	for i := 0; i < IDLength; i++ {
		sb.WriteByte(byte('0' + rand.IntN(10)))
	}
	return sb.String()
}

// SequenceIDs hands out the given ids in order and wraps around.
// Intended for tests that assert exact ids.
type SequenceIDs struct {
	mu   sync.Mutex
	ids  []string
	next int
}

func NewSequenceIDs(ids ...string) *SequenceIDs {
	return &SequenceIDs{ids: ids}
}

func (s *SequenceIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ids) == 0 {
		return ""
	}
	id := s.ids[s.next%len(s.ids)]
	s.next++
	return id
}
