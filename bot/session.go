package bot

import (
	"sync"

	"github.com/xeptore/musicflow/spotify"
)

// Sessions tracks the pending link per chat between the link message and the
// quality selection callback. A new link replaces the previous pending one.
type Sessions struct {
	mu      sync.Mutex
	pending map[int64]spotify.Link
}

func NewSessions() *Sessions {
	return &Sessions{
		mu:      sync.Mutex{},
		pending: make(map[int64]spotify.Link),
	}
}

func (s *Sessions) Put(chatID int64, link spotify.Link) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[chatID] = link
}

func (s *Sessions) Pop(chatID int64) (spotify.Link, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.pending[chatID]
	if ok {
		delete(s.pending, chatID)
	}

	return link, ok
}
