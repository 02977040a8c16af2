package ledger

import (
	"quick-chat/domain"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newMessage(id string, seq int, recipient, body string) domain.Message {
	return domain.NewMessageWithGenerator(domain.NewSequenceIDs(id), seq, recipient, body)
}

func seededLedger() (*Ledger, []domain.Message) {
	l := New()
	messages := []domain.Message{
		newMessage("1000000001", 1, "+27834557896", "Did you get the cake?"),
		newMessage("1000000002", 2, "+27838884567", "Where are you? You are late! I have asked you to be on time."),
		newMessage("1000000003", 3, "+27834484567", "Yohoooo, I am at your gate."),
		newMessage("1000000004", 4, "+27838884567", "It is dinner time !"),
	}
	for _, m := range messages {
		l.RecordSent(m)
	}
	return l, messages
}

func TestLedger_RecordSent(t *testing.T) {
	req := require.New(t)
	l, messages := seededLedger()

	req.Equal(messages, l.Sent())
	req.Equal(messages, l.AllComposed())
	req.Equal(4, l.TotalSent())
	req.Equal([]string{"1000000001", "1000000002", "1000000003", "1000000004"}, l.SentIDs())
	req.Equal([]string{"10:1:DIDCAKE?", "10:2:WHERETIME.", "10:3:YOHOOOO,GATE.", "10:4:IT!"}, l.SentHashes())
	req.Empty(l.Discarded())
	req.Empty(l.Stored())
	req.NotEqual(l.SessionID().String(), New().SessionID().String())
}

func TestLedger_RecordDiscarded(t *testing.T) {
	req := require.New(t)
	l := New()
	m := newMessage("2000000001", 1, "08575975889", "Hi Keegan, did you receive the payment?")

	l.RecordDiscarded(m)

	req.Equal([]domain.Message{m}, l.Discarded())
	req.Empty(l.Sent())
	req.Empty(l.AllComposed())
	req.Zero(l.TotalSent())
}

func TestLedger_IngestStored_ReplacesBucket(t *testing.T) {
	req := require.New(t)
	l := New()
	first := newMessage("3000000001", 1, "+27838884567", "Ok, I am leaving without you.")
	second := newMessage("3000000002", 2, "+27838884567", "See you soon")

	l.RecordStored(first)
	req.Equal([]domain.Message{first}, l.Stored())

	l.IngestStored([]domain.Message{second})
	req.Equal([]domain.Message{second}, l.Stored())

	l.IngestStored(nil)
	req.Empty(l.Stored())
}

func TestLedger_FindByID(t *testing.T) {
	req := require.New(t)
	l, messages := seededLedger()

	found, ok := l.FindByID("1000000003")
	req.True(ok)
	req.Equal(messages[2], found)

	_, ok = l.FindByID("9999999999")
	req.False(ok)
}

func TestLedger_FindByID_FirstInsertedWins(t *testing.T) {
	req := require.New(t)
	l := New()
	first := newMessage("5555555555", 1, "+27834557896", "first")
	second := newMessage("5555555555", 2, "+27834557896", "second")
	l.RecordSent(first)
	l.RecordSent(second)

	found, ok := l.FindByID("5555555555")
	req.True(ok)
	req.Equal("first", found.Body())
}

func TestLedger_FindByRecipient_SentThenStored(t *testing.T) {
	req := require.New(t)
	l, _ := seededLedger()
	l.IngestStored([]domain.Message{
		newMessage("4000000001", 1, "+27838884567", "Ok, I am leaving without you."),
		newMessage("4000000002", 2, "+27834557896", "Stored for someone else"),
	})

	bodies := l.FindByRecipient("+27838884567")
	req.Equal([]string{
		"Where are you? You are late! I have asked you to be on time.",
		"It is dinner time !",
		"Ok, I am leaving without you.",
	}, bodies)

	// Exact match only
	req.Empty(l.FindByRecipient("+2783888456"))
	req.Empty(l.FindByRecipient(" +27838884567"))
}

func TestLedger_DeleteByHash(t *testing.T) {
	req := require.New(t)
	l, messages := seededLedger()
	target := messages[1]

	deleted, ok := l.DeleteByHash(target.Hash())
	req.True(ok)
	req.Equal(target, deleted)

	_, ok = l.FindByID(target.ID())
	req.False(ok)
	req.Len(l.Sent(), 3)
	req.Len(l.SentHashes(), 3)
	req.Len(l.SentIDs(), 3)
	req.NotContains(l.SentHashes(), target.Hash())
	req.NotContains(l.SentIDs(), target.ID())
	// The counter tracks sends, not the current size of the bucket
	req.Equal(4, l.TotalSent())

	_, ok = l.DeleteByHash(target.Hash())
	req.False(ok)
}

func TestLedger_DeleteByHash_DuplicateHashesStayAligned(t *testing.T) {
	req := require.New(t)
	l := New()
	// Same first two id digits, sequence number and words: identical hashes
	a := newMessage("7700000001", 1, "+27834557896", "hello world")
	b := newMessage("7700000002", 1, "+27834557896", "hello big world")
	c := newMessage("7800000003", 2, "+27834557896", "other")
	for _, m := range []domain.Message{a, b, c} {
		l.RecordSent(m)
	}
	req.Equal(a.Hash(), b.Hash())

	_, ok := l.DeleteByHash(a.Hash())
	req.True(ok)

	sent := l.Sent()
	hashes := l.SentHashes()
	ids := l.SentIDs()
	req.Equal([]string{b.ID(), c.ID()}, ids)
	for i := range sent {
		req.Equal(sent[i].Hash(), hashes[i])
		req.Equal(sent[i].ID(), ids[i])
	}
}

func TestLedger_Longest(t *testing.T) {
	req := require.New(t)
	l := New()
	_, ok := l.Longest()
	req.False(ok)

	for i, body := range []string{
		"Did you get the cake?",
		"Where are you? You are late! I have asked you to be on time.",
		"It is dinner time !",
	} {
		l.RecordSent(newMessage("600000000"+string(rune('0'+i)), i, "+27834557896", body))
	}

	longest, ok := l.Longest()
	req.True(ok)
	req.Equal("Where are you? You are late! I have asked you to be on time.", longest.Body())
}

func TestLedger_Longest_TieKeepsEarliest(t *testing.T) {
	req := require.New(t)
	l := New()
	first := newMessage("8000000001", 1, "+27834557896", "abcd")
	second := newMessage("8000000002", 2, "+27834557896", "wxyz")
	l.RecordSent(first)
	l.RecordSent(second)

	longest, ok := l.Longest()
	req.True(ok)
	req.Equal(first, longest)
}

func TestLedger_FullReport(t *testing.T) {
	req := require.New(t)
	l, messages := seededLedger()

	report := l.FullReport()
	req.Len(report, len(messages))
	for i, m := range messages {
		req.Equal(m.Render(), report[i])
	}
	req.Empty(New().FullReport())
}

func TestLedger_ReturnsCopies(t *testing.T) {
	req := require.New(t)
	l, messages := seededLedger()

	sent := l.Sent()
	sent[0] = domain.Message{}
	req.Equal(messages[0], l.Sent()[0])
}

func TestLedger_ConcurrentSendAndDelete(t *testing.T) {
	req := require.New(t)
	l := New()
	gen := domain.NewSequenceIDs("1234567890")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(seq int) {
			defer wg.Done()
			l.RecordSent(domain.NewMessageWithGenerator(gen, seq, "+27834557896", "ping pong"))
		}(i)
		go func(seq int) {
			defer wg.Done()
			l.DeleteByHash(domain.ComputeHash("1234567890", seq, "ping pong"))
		}(i)
	}
	wg.Wait()

	req.Equal(len(l.Sent()), len(l.SentHashes()))
	req.Equal(len(l.Sent()), len(l.SentIDs()))
	req.Equal(50, l.TotalSent())
}
