//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"quick-chat/domain"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	messagePrefix = "msg:"
	idIndexPrefix = "idx:id:"
)

type IMessageRepository interface {
	StoreMessage(message ArchivedMessage) error
	GetMessages(cursor *string) ([]ArchivedMessage, *string, error)
	DeleteMessage(id string) error
}

// MessageRepository archives sent messages in BadgerDB.
type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type ArchivedMessage struct {
	Record    domain.Record `json:"record"`
	SessionID uuid.UUID     `json:"session_id"`
	At        time.Time     `json:"at"`
}

func (a ArchivedMessage) Message() domain.Message {
	return domain.FromRecord(a.Record)
}

// StoreMessage persists a sent message.
// The key is formatted as "msg:{timestamp_padded}:{id}" so that a reverse prefix scan
// returns the newest messages first; "idx:id:{id}" points back to it for deletion.
func (m MessageRepository) StoreMessage(message ArchivedMessage) error {
	key := fmt.Sprintf("%s%019d:%s", messagePrefix, message.At.UnixNano(), message.Record.ID)
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(idIndexPrefix+message.Record.ID), []byte(key))
	})
}

// GetMessages returns archived messages, newest first, starting after cursor.
// It stops once limitMessages is reached and returns the cursor of the last item read.
func (m MessageRepository) GetMessages(cursor *string) ([]ArchivedMessage, *string, error) {
	var archived []ArchivedMessage
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			seekKey = append([]byte(messagePrefix), []byte("9999999999999999999")...)
		default:
			seekKey = append([]byte(messagePrefix), []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == string(seekKey) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(archived) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			err := item.Value(func(value []byte) error {
				var message ArchivedMessage
				if err := json.Unmarshal(value, &message); err != nil {
					return err
				}
				archived = append(archived, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return archived, &lastKey, nil
}

// DeleteMessage removes an archived message by id. Unknown ids are ignored.
func (m MessageRepository) DeleteMessage(id string) error {
	return m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(idIndexPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err = txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete([]byte(idIndexPrefix + id))
	})
}
