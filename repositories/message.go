//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"alumnet/domain"
	apperrors "alumnet/errors"
)

// IMessageRepository is the durable append-only log of direct messages.
// History is symmetric over the pair and safe to call repeatedly.
type IMessageRepository interface {
	Append(message domain.Message) error
	History(a, b domain.ParticipantID) ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// diskMessage is the stored representation of a message.
type diskMessage struct {
	ID       string `json:"id"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
	At       int64  `json:"at"` // UnixNano, UTC
}

// Append persists a message in BadgerDB.
// The key is formatted as "dm:{conversation}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two
//     messages arrive at the same nanosecond.
//
// Both directions of a pair share one conversation prefix, which is what
// makes History symmetric for free.
func (m MessageRepository) Append(message domain.Message) error {
	key := fmt.Sprintf("dm:%s:%019d:%s",
		message.Conversation(),
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(fromDomain(message))
	if err != nil {
		return fmt.Errorf("%w: encoding message: %v", apperrors.ErrStorage, err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	return nil
}

// History retrieves every message between the unordered pair using a prefix
// scan. Thanks to the padded timestamp in the key, messages come out
// naturally sorted by creation time, oldest first.
func (m MessageRepository) History(a, b domain.ParticipantID) ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("dm:%s:", domain.Conversation(a, b)))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}

	var messages []domain.Message
	for _, bytes := range raw {
		var dm diskMessage
		if err = json.Unmarshal(bytes, &dm); err != nil {
			return nil, fmt.Errorf("%w: decoding message: %v", apperrors.ErrStorage, err)
		}
		message, err := toDomain(dm)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func fromDomain(message domain.Message) diskMessage {
	return diskMessage{
		ID:       message.ID.String(),
		Sender:   string(message.Sender),
		Receiver: string(message.Receiver),
		Content:  message.Content,
		At:       message.CreatedAt.UnixNano(),
	}
}

func toDomain(dm diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(dm.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		Sender:    domain.ParticipantID(dm.Sender),
		Receiver:  domain.ParticipantID(dm.Receiver),
		Content:   dm.Content,
		CreatedAt: time.Unix(0, dm.At).UTC(),
	}, nil
}
