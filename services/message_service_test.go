package services

import (
	"context"
	stderrors "errors"
	"log/slog"
	"quick-chat/domain"
	"quick-chat/domain/search"
	"quick-chat/errors"
	"quick-chat/ledger"
	"quick-chat/mocks"
	"quick-chat/repositories"
	"quick-chat/storage"
	"strings"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	service *MessageService
	ledger  *ledger.Ledger
	files   *mocks.MockIFileStore
	archive *mocks.MockIMessageRepository
	index   *mocks.MockIMessageIndex
}

func newFixture(t *testing.T, ids ...string) fixture {
	ctrl := gomock.NewController(t)
	l := ledger.New()
	f := fixture{
		ledger:  l,
		files:   mocks.NewMockIFileStore(ctrl),
		archive: mocks.NewMockIMessageRepository(ctrl),
		index:   mocks.NewMockIMessageIndex(ctrl),
	}
	var gen domain.IDGenerator
	if len(ids) > 0 {
		gen = domain.NewSequenceIDs(ids...)
	}
	f.service = NewMessageService(logs.GetLoggerFromLevel(slog.LevelDebug), l, f.files, f.archive, f.index, gen, 5)
	return f
}

func (f fixture) send(t *testing.T, seq int, recipient, body string) domain.Message {
	f.archive.EXPECT().StoreMessage(gomock.Any()).Return(nil)
	f.index.EXPECT().Index(f.ledger.SessionID(), gomock.Any()).Return(nil)
	message, err := f.service.Compose(domain.ComposeCommand{SequenceNumber: seq, Recipient: recipient, Body: body})
	require.NoError(t, err)
	_, err = f.service.Dispatch(context.Background(), message, domain.ActionSend)
	require.NoError(t, err)
	return message
}

func TestMessageService_Compose(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "4812345678")

	message, err := f.service.Compose(domain.ComposeCommand{
		SequenceNumber: 0,
		Recipient:      "+27718693002",
		Body:           "Hi Mike, can you join us for dinner tonight",
	})
	req.NoError(err)
	req.Equal("4812345678", message.ID())
	req.Equal("48:0:HITONIGHT", message.Hash())

	_, err = f.service.Compose(domain.ComposeCommand{Recipient: "08575975889", Body: "Hi"})
	req.ErrorIs(err, errors.ErrInvalidRecipient)

	// Over-long bodies compose fine; the advisory is for the caller
	message, err = f.service.Compose(domain.ComposeCommand{Recipient: "+27718693002", Body: strings.Repeat("x", 260)})
	req.NoError(err)
	req.Equal("Message exceeds 250 characters by 10, please reduce size.", message.LengthReport())
}

func TestMessageService_ParseCount(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	count, err := f.service.ParseCount("2")
	req.NoError(err)
	req.Equal(2, count)

	_, err = f.service.ParseCount("abc")
	req.ErrorIs(err, errors.ErrInvalidCount)
}

func TestMessageService_Dispatch_Send(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "0000000001")
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return at }

	message, err := f.service.Compose(domain.ComposeCommand{SequenceNumber: 1, Recipient: "+27834557896", Body: "Did you get the cake?"})
	req.NoError(err)

	f.archive.EXPECT().StoreMessage(repositories.ArchivedMessage{
		Record:    message.ToRecord(),
		SessionID: f.ledger.SessionID(),
		At:        at,
	}).Return(nil)
	f.index.EXPECT().Index(f.ledger.SessionID(), message).Return(nil)

	outcome, err := f.service.Dispatch(context.Background(), message, domain.ActionSend)
	req.NoError(err)
	req.Equal(domain.ActionSend, outcome.Action)
	req.Equal([]domain.Message{message}, f.ledger.Sent())
	req.Equal(1, f.service.TotalSent())
}

func TestMessageService_Dispatch_Send_SideStoreFailuresAreLogged(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	message := domain.NewMessage(1, "+27834557896", "Did you get the cake?")

	f.archive.EXPECT().StoreMessage(gomock.Any()).Return(stderrors.New("disk full"))
	f.index.EXPECT().Index(f.ledger.SessionID(), message).Return(stderrors.New("index closed"))

	_, err := f.service.Dispatch(context.Background(), message, domain.ActionSend)
	req.NoError(err)
	req.Len(f.ledger.Sent(), 1)
}

func TestMessageService_Dispatch_RejectsTooLong(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	message := domain.NewMessage(1, "+27834557896", strings.Repeat("x", 260))

	for _, action := range []domain.Action{domain.ActionSend, domain.ActionStore} {
		_, err := f.service.Dispatch(context.Background(), message, action)
		req.ErrorIs(err, errors.ErrMessageTooLong)
		req.Contains(err.Error(), "by 10")
	}
	req.Empty(f.ledger.Sent())
	req.Empty(f.ledger.Stored())

	// Discarding an over-long message is allowed
	_, err := f.service.Dispatch(context.Background(), message, domain.ActionDiscard)
	req.NoError(err)
	req.Equal([]domain.Message{message}, f.ledger.Discarded())
}

func TestMessageService_Dispatch_Store(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	message := domain.NewMessage(2, "+27838884567", "Ok, I am leaving without you.")

	f.files.EXPECT().Save(message).Return("message_"+message.ID()+".json", nil)
	outcome, err := f.service.Dispatch(context.Background(), message, domain.ActionStore)
	req.NoError(err)
	req.Equal("message_"+message.ID()+".json", outcome.Path)
	req.Equal([]domain.Message{message}, f.ledger.Stored())
	req.Empty(f.ledger.Sent())
	req.Equal([]string{"Ok, I am leaving without you."}, f.service.FindByRecipient("+27838884567"))
}

func TestMessageService_Dispatch_StoreFailure(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	message := domain.NewMessage(2, "+27838884567", "Ok, I am leaving without you.")

	f.files.EXPECT().Save(message).Return("", stderrors.New("permission denied"))
	_, err := f.service.Dispatch(context.Background(), message, domain.ActionStore)
	req.ErrorIs(err, errors.ErrPersistFailed)
	req.Empty(f.ledger.Stored())
}

func TestMessageService_Dispatch_UnknownAction(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, err := f.service.Dispatch(context.Background(), domain.NewMessage(1, "+27838884567", "hi"), domain.Action(42))
	req.ErrorIs(err, errors.ErrUnknownAction)
}

func TestMessageService_Dispatch_CanceledContext(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.Dispatch(ctx, domain.NewMessage(1, "+27838884567", "hi"), domain.ActionDiscard)
	req.ErrorIs(err, context.Canceled)
	req.Empty(f.ledger.Discarded())
}

func TestMessageService_LoadStored(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	loaded := []domain.Message{domain.NewMessage(1, "+27838884567", "Stored one")}
	f.ledger.RecordStored(domain.NewMessage(9, "+27838884567", "Stale"))

	f.files.EXPECT().Load().Return(storage.LoadResult{Messages: loaded, Skipped: 2}, nil)
	result, err := f.service.LoadStored(context.Background())
	req.NoError(err)
	req.Equal(2, result.Skipped)
	req.Equal(loaded, f.ledger.Stored())
}

func TestMessageService_LoadStored_DirectoryError(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.ledger.RecordStored(domain.NewMessage(9, "+27838884567", "Stale"))

	f.files.EXPECT().Load().Return(storage.LoadResult{}, stderrors.New("no such directory"))
	_, err := f.service.LoadStored(context.Background())
	req.Error(err)
	req.Empty(f.ledger.Stored())
}

func TestMessageService_FindByID(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "0000000001", "0000000002")
	first := f.send(t, 1, "+27834557896", "Did you get the cake?")
	f.send(t, 2, "+27838884567", "It is dinner time !")

	found, err := f.service.FindByID(first.ID())
	req.NoError(err)
	req.Equal(first, found)

	_, err = f.service.FindByID("9999999999")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestMessageService_DeleteByHash(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "0000000001", "0000000002")
	target := f.send(t, 1, "+27834557896", "Where are you? You are late! I have asked you to be on time.")
	other := f.send(t, 2, "+27838884567", "It is dinner time !")

	f.archive.EXPECT().DeleteMessage(target.ID()).Return(nil)
	f.index.EXPECT().Remove(target.ID()).Return(nil)

	deleted, err := f.service.DeleteByHash(target.Hash())
	req.NoError(err)
	req.Equal(target, deleted)

	_, err = f.service.FindByID(target.ID())
	req.ErrorIs(err, errors.ErrNotFound)
	req.Equal([]domain.Message{other}, f.ledger.Sent())

	_, err = f.service.DeleteByHash(target.Hash())
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestMessageService_Longest_And_Reports(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "0000000001", "0000000002", "0000000003")

	_, err := f.service.Longest()
	req.ErrorIs(err, errors.ErrNotFound)

	f.send(t, 1, "+27834557896", "Did you get the cake?")
	f.send(t, 2, "+27838884567", "Where are you? You are late! I have asked you to be on time.")
	f.send(t, 3, "+27834484567", "It is dinner time !")

	longest, err := f.service.Longest()
	req.NoError(err)
	req.Equal("Where are you? You are late! I have asked you to be on time.", longest.Body())

	req.Equal([]Route{
		{Sender: DefaultSender, Recipient: "+27834557896"},
		{Sender: DefaultSender, Recipient: "+27838884567"},
		{Sender: DefaultSender, Recipient: "+27834484567"},
	}, f.service.SentRecipients())

	report := f.service.FullReport()
	req.Len(report, 3)
	req.Equal("Message ID: 0000000001\nMessage Hash: 00:1:DIDCAKE?\nRecipient: +27834557896\nMessage: Did you get the cake?", report[0])
}

func TestMessageService_Search(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "0000000001", "0000000002")
	cake := f.send(t, 1, "+27834557896", "Did you get the cake?")

	f.index.EXPECT().
		Search(gomock.Any(), search.Query{RawInput: "cake", Terms: "cake", Limit: 5, Session: f.ledger.SessionID().String()}).
		Return([]string{cake.ID(), "0000000404"}, nil)

	found, err := f.service.Search(context.Background(), "cake")
	req.NoError(err)
	req.Equal([]domain.Message{cake}, found)

	f.index.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, stderrors.New("reader closed"))
	_, err = f.service.Search(context.Background(), "cake")
	req.Error(err)
}

func TestMessageService_Search_IgnoresEarlierSessions(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })
	index := repositories.NewMessageIndex(writer, slog.Default())

	sendAll := func(service *MessageService, archive *mocks.MockIMessageRepository, bodies ...string) []domain.Message {
		var sent []domain.Message
		for i, body := range bodies {
			archive.EXPECT().StoreMessage(gomock.Any()).Return(nil)
			message, err := service.Compose(domain.ComposeCommand{SequenceNumber: i, Recipient: "+27834557896", Body: body})
			req.NoError(err)
			_, err = service.Dispatch(ctx, message, domain.ActionSend)
			req.NoError(err)
			sent = append(sent, message)
		}
		return sent
	}

	// Given a previous session that filled the index with strong matches
	ctrl := gomock.NewController(t)
	oldArchive := mocks.NewMockIMessageRepository(ctrl)
	old := NewMessageService(slog.Default(), ledger.New(), mocks.NewMockIFileStore(ctrl), oldArchive, index,
		domain.NewSequenceIDs("1000000001", "1000000002", "1000000003"), 2)
	sendAll(old, oldArchive, "dinner dinner dinner", "dinner dinner dinner", "dinner dinner dinner")

	// When a new session sends a weaker match on the same writer
	newArchive := mocks.NewMockIMessageRepository(ctrl)
	current := NewMessageService(slog.Default(), ledger.New(), mocks.NewMockIFileStore(ctrl), newArchive, index,
		domain.NewSequenceIDs("2000000001"), 2)
	sent := sendAll(current, newArchive, "is it dinner time yet my friend")

	// Then its search still finds its own message
	found, err := current.Search(ctx, "dinner")
	req.NoError(err)
	req.Equal(sent, found)
}

func TestMessageService_History(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	archived := []repositories.ArchivedMessage{{Record: domain.NewMessage(1, "+27834557896", "hi").ToRecord()}}
	cursor := "cursor"

	f.archive.EXPECT().GetMessages(nil).Return(archived, &cursor, nil)
	page, next, err := f.service.History(nil)
	req.NoError(err)
	req.Equal(archived, page)
	req.Equal(&cursor, next)
}
