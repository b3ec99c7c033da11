package repositories

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"alumnet/domain"
	apperrors "alumnet/errors"
)

// SQLMessageRepository stores messages in the platform's relational
// `messages` table. The auto-increment `id` column is the insertion-order
// tiebreak for messages sharing a created_at value.
type SQLMessageRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewSQLMessageRepository(db *sql.DB, log *slog.Logger) SQLMessageRepository {
	return SQLMessageRepository{db: db, log: log}
}

// EnsureSchema creates the messages table when it does not exist yet.
func (m SQLMessageRepository) EnsureSchema() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS messages (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		message_id VARCHAR(36) NOT NULL,
		sender_id VARCHAR(255) NOT NULL,
		receiver_id VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_messages_pair (sender_id, receiver_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
	`
	if _, err := m.db.Exec(ddl); err != nil {
		return fmt.Errorf("%w: creating messages table: %v", apperrors.ErrStorage, err)
	}
	return nil
}

func (m SQLMessageRepository) Append(message domain.Message) error {
	_, err := m.db.Exec(
		`INSERT INTO messages (message_id, sender_id, receiver_id, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		message.ID.String(),
		string(message.Sender),
		string(message.Receiver),
		message.Content,
		message.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	return nil
}

// History fetches both directions of the pair in one query, ordered by
// creation time with the row id breaking ties.
func (m SQLMessageRepository) History(a, b domain.ParticipantID) ([]domain.Message, error) {
	rows, err := m.db.Query(
		`SELECT message_id, sender_id, receiver_id, content, created_at
		 FROM messages
		 WHERE (sender_id = ? AND receiver_id = ?)
		    OR (sender_id = ? AND receiver_id = ?)
		 ORDER BY created_at ASC, id ASC`,
		string(a), string(b), string(b), string(a),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var (
			rawID     string
			sender    string
			receiver  string
			content   string
			createdAt time.Time
		)
		if err = rows.Scan(&rawID, &sender, &receiver, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
		}
		parsedID, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
		}
		messages = append(messages, domain.Message{
			ID:        parsedID,
			Sender:    domain.ParticipantID(sender),
			Receiver:  domain.ParticipantID(receiver),
			Content:   content,
			CreatedAt: createdAt.UTC(),
		})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
	}
	return messages, nil
}
