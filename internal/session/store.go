// Package session owns the per-subject conversation transcript: an
// append-only redis list per session id, read back in insertion order as
// model context.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Conversation roles recorded in the transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const keyPrefix = "session:"

// entrySep joins role and content inside one list element. Tab is safe:
// roles never contain it and content tabs survive the round trip because
// only the first separator splits.
const entrySep = "\t"

// Store is the append-only transcript store. One redis list per subject;
// entries are never edited or removed.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Append writes one (role, content) entry to the session transcript. The
// entry is durable in the list before Append returns; callers do not
// retry automatically.
func (s *Store) Append(ctx context.Context, sessionID, role, content string) error {
	entry := role + entrySep + content
	if err := s.client.RPush(ctx, keyPrefix+sessionID, entry).Err(); err != nil {
		return fmt.Errorf("append to session %s: %w", sessionID, err)
	}
	return nil
}

// Read returns the full transcript in insertion order, formatted the way
// the extraction prompts expect, or an empty string for an unknown
// session.
func (s *Store) Read(ctx context.Context, sessionID string) (string, error) {
	entries, err := s.client.LRange(ctx, keyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		return "", fmt.Errorf("read session %s: %w", sessionID, err)
	}

	var b strings.Builder
	for _, entry := range entries {
		role, content, _ := strings.Cut(entry, entrySep)
		fmt.Fprintf(&b, "Role: %s\nContent: %s\n\n", role, content)
	}
	return b.String(), nil
}
