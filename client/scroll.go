package client

import (
	"context"
	"errors"
	"sync"

	"github.com/genz-feed/api-go/models"
)

// State is where a ScrollSession is in its fetch cycle.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

var (
	// ErrFetchInFlight is returned by Next while another fetch is running.
	ErrFetchInFlight = errors.New("a page fetch is already in flight")

	// ErrExhausted is returned by Next once the feed has no more pages.
	ErrExhausted = errors.New("feed exhausted")

	// ErrSessionReset is returned by a fetch that was overtaken by Reset.
	// Its page is dropped.
	ErrSessionReset = errors.New("session was reset during fetch")
)

// ScrollSession is the infinite-scroll consumer: it appends feed pages in
// order, never renders the same post twice and fetches at most one page at
// a time. It is safe for concurrent use.
type ScrollSession struct {
	fetcher  PageFetcher
	pageSize int

	mu         sync.Mutex
	state      State
	cursor     string
	items      []models.Post
	seen       map[uint]struct{}
	generation uint64
}

func NewScrollSession(fetcher PageFetcher, pageSize int) *ScrollSession {
	return &ScrollSession{
		fetcher:  fetcher,
		pageSize: pageSize,
		seen:     make(map[uint]struct{}),
	}
}

// Next fetches the following page and returns the posts it added. Posts
// already rendered are filtered out. A failed fetch leaves the rendered list
// untouched and returns the session to idle so the caller may retry.
func (s *ScrollSession) Next(ctx context.Context) ([]models.Post, error) {
	s.mu.Lock()
	switch s.state {
	case StateFetching:
		s.mu.Unlock()
		return nil, ErrFetchInFlight
	case StateExhausted:
		s.mu.Unlock()
		return nil, ErrExhausted
	}
	s.state = StateFetching
	generation, cursor := s.generation, s.cursor
	s.mu.Unlock()

	page, err := s.fetcher.FetchFeed(ctx, cursor, s.pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return nil, ErrSessionReset
	}
	if err != nil {
		s.state = StateIdle
		return nil, err
	}

	added := make([]models.Post, 0, len(page.Posts))
	for _, p := range page.Posts {
		if _, dup := s.seen[p.ID]; dup {
			continue
		}
		s.seen[p.ID] = struct{}{}
		added = append(added, p)
	}
	s.items = append(s.items, added...)

	if page.NextCursor == nil || *page.NextCursor == "" {
		s.state = StateExhausted
	} else {
		s.cursor = *page.NextCursor
		s.state = StateIdle
	}
	return added, nil
}

// Reset clears the session back to an empty feed. A fetch still in flight
// completes with ErrSessionReset.
func (s *ScrollSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state = StateIdle
	s.cursor = ""
	s.items = nil
	s.seen = make(map[uint]struct{})
}

// Items returns a copy of every rendered post in display order.
func (s *ScrollSession) Items() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Post(nil), s.items...)
}

func (s *ScrollSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
