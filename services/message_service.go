package services

import (
	"context"
	"fmt"
	"log/slog"
	"quick-chat/domain"
	"quick-chat/domain/search"
	"quick-chat/errors"
	"quick-chat/ledger"
	"quick-chat/repositories"
	"quick-chat/storage"
	"quick-chat/validation"
	"time"

	"github.com/samber/lo"
)

// DefaultSender is shown as the sender of every message; the utility has a single user.
const DefaultSender = "Developer"

type IMessageService interface {
	ParseCount(input string) (int, error)
	Compose(cmd domain.ComposeCommand) (domain.Message, error)
	Dispatch(ctx context.Context, message domain.Message, action domain.Action) (Outcome, error)
	LoadStored(ctx context.Context) (storage.LoadResult, error)
	FindByID(id string) (domain.Message, error)
	FindByRecipient(recipient string) []string
	DeleteByHash(hash string) (domain.Message, error)
	Longest() (domain.Message, error)
	FullReport() []string
	SentRecipients() []Route
	TotalSent() int
	Search(ctx context.Context, input string) ([]domain.Message, error)
	History(cursor *string) ([]repositories.ArchivedMessage, *string, error)
}

// Outcome describes where a dispatched message ended up.
type Outcome struct {
	Action  domain.Action
	Message domain.Message
	Path    string // file written for ActionStore
}

type Route struct {
	Sender    string
	Recipient string
}

type MessageService struct {
	log         *slog.Logger
	ledger      *ledger.Ledger
	files       storage.IFileStore
	archive     repositories.IMessageRepository
	index       repositories.IMessageIndex
	ids         domain.IDGenerator
	now         func() time.Time
	searchLimit int
}

func NewMessageService(
	log *slog.Logger,
	ledger *ledger.Ledger,
	files storage.IFileStore,
	archive repositories.IMessageRepository,
	index repositories.IMessageIndex,
	ids domain.IDGenerator,
	searchLimit int,
) *MessageService {
	if ids == nil {
		ids = domain.RandomIDs
	}
	return &MessageService{
		log:         log,
		ledger:      ledger,
		files:       files,
		archive:     archive,
		index:       index,
		ids:         ids,
		now:         func() time.Time { return time.Now().UTC() },
		searchLimit: searchLimit,
	}
}

func (s *MessageService) ParseCount(input string) (int, error) {
	return validation.ParseCount(input)
}

// Compose validates the raw input and builds the message.
// The length advisory is not checked here: callers read it from message.CheckLength.
func (s *MessageService) Compose(cmd domain.ComposeCommand) (domain.Message, error) {
	if err := validation.ValidateCompose(cmd); err != nil {
		return domain.Message{}, err
	}
	return domain.NewMessageWithGenerator(s.ids, cmd.SequenceNumber, cmd.Recipient, cmd.Body), nil
}

// Dispatch routes a composed message into exactly one bucket.
func (s *MessageService) Dispatch(ctx context.Context, message domain.Message, action domain.Action) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	outcome := Outcome{Action: action, Message: message}

	switch action {
	case domain.ActionSend:
		if err := checkReady(message); err != nil {
			return Outcome{}, err
		}
		s.ledger.RecordSent(message)
		s.archiveSent(message)
		s.log.Info("Message sent", "id", message.ID(), "hash", message.Hash(), "total", s.ledger.TotalSent())
	case domain.ActionDiscard:
		s.ledger.RecordDiscarded(message)
		s.log.Info("Message disregarded", "id", message.ID())
	case domain.ActionStore:
		if err := checkReady(message); err != nil {
			return Outcome{}, err
		}
		path, err := s.files.Save(message)
		if err != nil {
			s.log.Error("Storing message failed", "id", message.ID(), "error", err)
			return Outcome{}, fmt.Errorf("%w: %v", errors.ErrPersistFailed, err)
		}
		s.ledger.RecordStored(message)
		outcome.Path = path
		s.log.Info("Message stored", "id", message.ID(), "path", path)
	default:
		return Outcome{}, fmt.Errorf("%w: %d", errors.ErrUnknownAction, action)
	}
	return outcome, nil
}

func checkReady(message domain.Message) error {
	if ready, excess := message.CheckLength(); !ready {
		return fmt.Errorf("%w by %d", errors.ErrMessageTooLong, excess)
	}
	return nil
}

// archiveSent mirrors a send into the archive and the search index.
// The ledger stays the source of truth, so failures are only logged.
func (s *MessageService) archiveSent(message domain.Message) {
	archived := repositories.ArchivedMessage{
		Record:    message.ToRecord(),
		SessionID: s.ledger.SessionID(),
		At:        s.now(),
	}
	if err := s.archive.StoreMessage(archived); err != nil {
		s.log.Error("Archiving message failed", "id", message.ID(), "error", err)
	}
	if err := s.index.Index(archived.SessionID, message); err != nil {
		s.log.Error("Indexing message failed", "id", message.ID(), "error", err)
	}
}

// LoadStored rebuilds the stored bucket from the file store.
// The bucket is emptied even when the directory cannot be read.
func (s *MessageService) LoadStored(ctx context.Context) (storage.LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.LoadResult{}, err
	}
	result, err := s.files.Load()
	s.ledger.IngestStored(result.Messages)
	if err != nil {
		s.log.Warn("Loading stored messages failed", "error", err)
		return result, err
	}
	if result.Skipped > 0 {
		s.log.Warn("Some stored messages could not be loaded", "skipped", result.Skipped, "reasons", result.SkippedBy)
	}
	s.log.Info("Stored messages loaded", "count", len(result.Messages), "skipped", result.Skipped)
	return result, nil
}

func (s *MessageService) FindByID(id string) (domain.Message, error) {
	message, ok := s.ledger.FindByID(id)
	if !ok {
		return domain.Message{}, fmt.Errorf("message ID %s: %w", id, errors.ErrNotFound)
	}
	return message, nil
}

func (s *MessageService) FindByRecipient(recipient string) []string {
	return s.ledger.FindByRecipient(recipient)
}

// DeleteByHash removes a sent message from the ledger, the archive and the index.
func (s *MessageService) DeleteByHash(hash string) (domain.Message, error) {
	message, ok := s.ledger.DeleteByHash(hash)
	if !ok {
		return domain.Message{}, fmt.Errorf("message hash %s: %w", hash, errors.ErrNotFound)
	}
	if err := s.archive.DeleteMessage(message.ID()); err != nil {
		s.log.Error("Removing message from archive failed", "id", message.ID(), "error", err)
	}
	if err := s.index.Remove(message.ID()); err != nil {
		s.log.Error("Removing message from index failed", "id", message.ID(), "error", err)
	}
	s.log.Info("Message deleted", "id", message.ID(), "hash", hash)
	return message, nil
}

func (s *MessageService) Longest() (domain.Message, error) {
	message, ok := s.ledger.Longest()
	if !ok {
		return domain.Message{}, fmt.Errorf("no sent messages: %w", errors.ErrNotFound)
	}
	return message, nil
}

func (s *MessageService) FullReport() []string {
	return s.ledger.FullReport()
}

func (s *MessageService) SentRecipients() []Route {
	return lo.Map(s.ledger.Sent(), func(m domain.Message, _ int) Route {
		return Route{Sender: DefaultSender, Recipient: m.Recipient()}
	})
}

func (s *MessageService) TotalSent() int {
	return s.ledger.TotalSent()
}

// Search runs a full-text query over the messages sent in this session.
// Hits that are no longer in the ledger are dropped.
func (s *MessageService) Search(ctx context.Context, input string) ([]domain.Message, error) {
	query := search.NewQuery(input, s.searchLimit)
	query.Session = s.ledger.SessionID().String()
	ids, err := s.index.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(ids, func(id string, _ int) (domain.Message, bool) {
		return s.ledger.FindByID(id)
	}), nil
}

func (s *MessageService) History(cursor *string) ([]repositories.ArchivedMessage, *string, error) {
	return s.archive.GetMessages(cursor)
}
