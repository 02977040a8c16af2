//go:generate go run go.uber.org/mock/mockgen -source=index.go -destination=../mocks/mock_message_index.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"quick-chat/domain"
	"quick-chat/domain/search"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

const (
	idField        = "_id"
	bodyField      = "body"
	recipientField = "recipient"
	sessionField   = "session"
)

type IMessageIndex interface {
	Index(session uuid.UUID, message domain.Message) error
	Remove(id string) error
	Search(ctx context.Context, query search.Query) ([]string, error)
}

// MessageIndex is a Bluge full-text index over sent message bodies, keyed by message id.
// The index outlives a session, so every document carries the session that sent it.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) MessageIndex {
	return MessageIndex{writer: writer, log: log}
}

func (i MessageIndex) Index(session uuid.UUID, message domain.Message) error {
	doc := bluge.NewDocument(message.ID()).
		AddField(bluge.NewTextField(bodyField, message.Body()).StoreValue()).
		AddField(bluge.NewKeywordField(recipientField, message.Recipient()).StoreValue()).
		AddField(bluge.NewKeywordField(sessionField, session.String()))
	return i.writer.Update(doc.ID(), doc)
}

func (i MessageIndex) Remove(id string) error {
	return i.writer.Delete(bluge.Identifier(id))
}

// Search returns the ids of indexed messages matching the query, best match first.
func (i MessageIndex) Search(ctx context.Context, query search.Query) ([]string, error) {
	if query.IsEmpty() {
		return nil, nil
	}
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	request := bluge.NewTopNSearch(query.Limit, toBlugeQuery(query))
	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var ids []string
	match, err := matches.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == idField {
				ids = append(ids, string(value))
				return false
			}
			return true
		})
		if err != nil {
			break
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	i.log.Debug(fmt.Sprintf("Search %q matched %d messages", query.RawInput, len(ids)))
	return ids, nil
}

func toBlugeQuery(query search.Query) bluge.Query {
	boolean := bluge.NewBooleanQuery()
	if query.Terms != "" {
		boolean.AddMust(bluge.NewMatchQuery(query.Terms).SetField(bodyField))
	}
	if query.Recipient != "" {
		boolean.AddMust(bluge.NewTermQuery(query.Recipient).SetField(recipientField))
	}
	if query.Session != "" {
		boolean.AddMust(bluge.NewTermQuery(query.Session).SetField(sessionField))
	}
	return boolean
}
