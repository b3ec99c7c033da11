package repositories

import (
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

// setupTestMySQL connects to the database named by MYSQL_TEST_DSN and
// skips the test when none is reachable, so the suite stays green on
// machines without a local MySQL.
func setupTestMySQL(t *testing.T) SQLMessageRepository {
	t.Helper()
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("Skipping test: MYSQL_TEST_DSN not set")
	}

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	if err := db.Ping(); err != nil {
		t.Skipf("Skipping test: could not ping test database: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM messages")
		_ = db.Close()
	})

	repository := NewSQLMessageRepository(db, slog.Default())
	require.NoError(t, repository.EnsureSchema())
	_, err = db.Exec("DELETE FROM messages")
	require.NoError(t, err)
	return repository
}

func Test_MySQL_Append_And_History(t *testing.T) {
	req := require.New(t)
	repository := setupTestMySQL(t)
	at := time.Now().UTC().Truncate(time.Microsecond)

	req.NoError(repository.Append(newMessage("alice", "bob", "hi", at)))
	req.NoError(repository.Append(newMessage("bob", "alice", "hello", at.Add(time.Second))))

	ab, err := repository.History("alice", "bob")
	req.NoError(err)
	ba, err := repository.History("bob", "alice")
	req.NoError(err)

	req.Equal(ab, ba)
	req.Len(ab, 2)
	req.Equal("hi", ab[0].Content)
	req.Equal("hello", ab[1].Content)
}

func Test_MySQL_Same_Timestamp_Preserves_Insertion_Order(t *testing.T) {
	req := require.New(t)
	repository := setupTestMySQL(t)
	at := time.Now().UTC().Truncate(time.Microsecond)

	// The auto-increment row id breaks the tie
	req.NoError(repository.Append(newMessage("alice", "bob", "one", at)))
	req.NoError(repository.Append(newMessage("alice", "bob", "two", at)))

	fetched, err := repository.History("alice", "bob")
	req.NoError(err)
	req.Len(fetched, 2)
	req.Equal("one", fetched[0].Content)
	req.Equal("two", fetched[1].Content)
}
