// Package dedup suppresses repeat deliveries of the same inbound message.
// The transport re-reports unread messages on every poll until they are
// acknowledged, so each batch cycle sees earlier messages again.
package dedup

import "sync"

// SeenSet tracks message fingerprints for the lifetime of the process.
// It is not persisted; a restart starts with an empty set, which at worst
// re-processes messages the transport still reports as unread.
type SeenSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewSeenSet() *SeenSet {
	return &SeenSet{seen: make(map[string]struct{})}
}

// Seen reports whether the (senderID, body) pair was observed before.
// The first observation records the fingerprint and returns false.
func (s *SeenSet) Seen(senderID, body string) bool {
	fp := senderID + "|" + body

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[fp]; ok {
		return true
	}
	s.seen[fp] = struct{}{}
	return false
}

// Size returns the number of distinct fingerprints recorded so far.
func (s *SeenSet) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
