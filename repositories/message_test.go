package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"alumnet/domain"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newMessage(sender, receiver domain.ParticipantID, content string, at time.Time) domain.Message {
	return domain.Message{
		ID:        uuid.New(),
		Sender:    sender,
		Receiver:  receiver,
		Content:   content,
		CreatedAt: at,
	}
}

func Test_Append_And_History_Ascending(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC().Truncate(time.Microsecond)

	messages := []domain.Message{
		newMessage("alice", "bob", "first", at),
		newMessage("alice", "bob", "second", at.Add(1*time.Minute)),
		newMessage("alice", "bob", "third", at.Add(2*time.Minute)),
	}
	for _, m := range messages {
		req.NoError(repository.Append(m))
	}

	fetched, err := repository.History("alice", "bob")
	req.NoError(err)
	req.Equal(messages, fetched)
}

func Test_History_Is_Symmetric(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC().Truncate(time.Microsecond)

	// Given messages flowing in both directions
	req.NoError(repository.Append(newMessage("alice", "bob", "hi", at)))
	req.NoError(repository.Append(newMessage("bob", "alice", "hello", at.Add(time.Second))))
	req.NoError(repository.Append(newMessage("alice", "bob", "how are you", at.Add(2*time.Second))))

	// Then both orderings of the pair see the same interleaved log
	ab, err := repository.History("alice", "bob")
	req.NoError(err)
	ba, err := repository.History("bob", "alice")
	req.NoError(err)
	req.Equal(ab, ba)
	req.Len(ab, 3)
	req.Equal("hi", ab[0].Content)
	req.Equal("hello", ab[1].Content)
	req.Equal("how are you", ab[2].Content)
}

func Test_History_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC().Truncate(time.Microsecond)

	req.NoError(repository.Append(newMessage("alice", "bob", "hi", at)))

	first, err := repository.History("alice", "bob")
	req.NoError(err)
	second, err := repository.History("alice", "bob")
	req.NoError(err)
	req.Equal(first, second)
}

func Test_History_Isolates_Conversations(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC().Truncate(time.Microsecond)

	req.NoError(repository.Append(newMessage("alice", "bob", "for bob", at)))
	req.NoError(repository.Append(newMessage("alice", "carol", "for carol", at)))

	fetched, err := repository.History("alice", "bob")
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("for bob", fetched[0].Content)
}

func Test_History_Isolates_Pairs_With_Delimiter_Bearing_IDs(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC().Truncate(time.Microsecond)

	// Given participant IDs that contain the store's own delimiters
	req.NoError(repository.Append(newMessage("alice", "bob:evil", "secret", at)))
	req.NoError(repository.Append(newMessage("a", "b|c", "pipe pair", at)))

	// Then neighbouring pairs see none of it
	fetched, err := repository.History("alice", "bob")
	req.NoError(err)
	req.Empty(fetched)

	fetched, err = repository.History("a|b", "c")
	req.NoError(err)
	req.Empty(fetched)

	// And the real pairs still read their own messages back
	fetched, err = repository.History("bob:evil", "alice")
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("secret", fetched[0].Content)

	fetched, err = repository.History("b|c", "a")
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("pipe pair", fetched[0].Content)
}

func Test_History_Empty_Conversation(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	fetched, err := repository.History("alice", "bob")
	req.NoError(err)
	req.Empty(fetched)
}

func Test_Same_Timestamp_Keeps_Both_Messages(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC().Truncate(time.Microsecond)

	// Two messages in the same nanosecond: the uuid key suffix keeps them
	// from colliding.
	req.NoError(repository.Append(newMessage("alice", "bob", "one", at)))
	req.NoError(repository.Append(newMessage("alice", "bob", "two", at)))

	fetched, err := repository.History("alice", "bob")
	req.NoError(err)
	req.Len(fetched, 2)
}
