package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Conversation_Is_Symmetric(t *testing.T) {
	req := require.New(t)

	req.Equal(Conversation("alice", "bob"), Conversation("bob", "alice"))
}

func Test_Conversation_Keeps_Distinct_Pairs_Distinct(t *testing.T) {
	req := require.New(t)

	// IDs are opaque and may contain the key's own separators
	req.NotEqual(Conversation("a", "b|c"), Conversation("a|b", "c"))
	req.NotEqual(Conversation("alice", "bob"), Conversation("alice", "bob:evil"))
	req.NotEqual(Conversation("alice", "bob"), Conversation("alice:bob", ""))
}
